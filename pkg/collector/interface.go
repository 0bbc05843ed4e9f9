package collector

import (
	"context"

	"RSIRadar/pkg/model"
)

// HistoryQuoteFetcher 上游行情数据获取接口
type HistoryQuoteFetcher interface {
	// FetchHistory 获取最近days根日线，按时间升序返回
	FetchHistory(ctx context.Context, symbol string, days int) ([]model.DailyBar, error)
	// FetchQuote 获取实时行情快照
	FetchQuote(ctx context.Context, symbol string) (model.Quote, error)
}
