package collector

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"RSIRadar/pkg/model"
)

// ErrDataUnavailable 上游数据获取失败（网络、响应异常、结果为空等统一归并）
var ErrDataUnavailable = errors.New("上游行情数据不可用")

// AdminNotifier 管理员运维告警通道
type AdminNotifier interface {
	NotifyAdmin(ctx context.Context, text string)
}

// Source 限速的行情数据源
// 在上游适配器之上叠加：全局请求门闸、按标的的连续失败统计、
// 以及越过失败阈值时的一次性管理员告警
type Source struct {
	fetcher HistoryQuoteFetcher
	gate    *RequestGate
	health  *FetchHealth
	admin   AdminNotifier
}

// NewSource 创建限速数据源
func NewSource(fetcher HistoryQuoteFetcher, gate *RequestGate, health *FetchHealth, admin AdminNotifier) *Source {
	return &Source{
		fetcher: fetcher,
		gate:    gate,
		health:  health,
		admin:   admin,
	}
}

// History 获取历史日线，经过全局门闸限速
func (s *Source) History(ctx context.Context, symbol string, days int) ([]model.DailyBar, error) {
	if err := s.gate.Wait(ctx); err != nil {
		return nil, err
	}
	bars, err := s.fetcher.FetchHistory(ctx, symbol, days)
	if err != nil {
		s.recordFailure(ctx, symbol, err)
		return nil, fmt.Errorf("%w: 历史日线(%s): %v", ErrDataUnavailable, symbol, err)
	}
	s.health.Success(symbol)
	return bars, nil
}

// Quote 获取实时行情，行情请求前附加随机延迟
func (s *Source) Quote(ctx context.Context, symbol string) (model.Quote, error) {
	if err := s.gate.WaitWithJitter(ctx); err != nil {
		return model.Quote{}, err
	}
	quote, err := s.fetcher.FetchQuote(ctx, symbol)
	if err != nil {
		s.recordFailure(ctx, symbol, err)
		return model.Quote{}, fmt.Errorf("%w: 实时行情(%s): %v", ErrDataUnavailable, symbol, err)
	}
	s.health.Success(symbol)
	return quote, nil
}

// Health 暴露失败统计，供状态接口使用
func (s *Source) Health() *FetchHealth {
	return s.health
}

func (s *Source) recordFailure(ctx context.Context, symbol string, cause error) {
	count, crossed := s.health.Failure(symbol)
	logrus.Warnf("获取 %s 数据失败(连续第%d次): %v", symbol, count, cause)
	if crossed && s.admin != nil {
		s.admin.NotifyAdmin(ctx, fmt.Sprintf(
			"🚨 机器人警报 🚨\n\n标的 %s 连续获取数据失败已达 %d 次，请检查上游接口连通性。", symbol, count))
	}
}
