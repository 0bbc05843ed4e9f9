package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/text/encoding/simplifiedchinese"

	"RSIRadar/pkg/model"
)

const (
	defaultQuoteURL = "https://hq.sinajs.cn"
	defaultKLineURL = "https://money.finance.sina.com.cn/quotes_service/api/json_v2.php/CN_MarketData.getKLineData"
)

// SinaAdapter 新浪行情数据源
// 实时行情走hq.sinajs.cn（GBK编码的引号串），历史日线走json_v2的K线接口
type SinaAdapter struct {
	quoteURL      string
	klineURL      string
	client        *http.Client
	retryAttempts int
	retryDelay    time.Duration
}

// SinaOption SinaAdapter可选配置
type SinaOption func(*SinaAdapter)

// WithEndpoints 覆盖默认接口地址（测试时指向httptest服务）
func WithEndpoints(quoteURL, klineURL string) SinaOption {
	return func(a *SinaAdapter) {
		if quoteURL != "" {
			a.quoteURL = quoteURL
		}
		if klineURL != "" {
			a.klineURL = klineURL
		}
	}
}

// WithRetry 覆盖重试策略
func WithRetry(attempts int, delay time.Duration) SinaOption {
	return func(a *SinaAdapter) {
		a.retryAttempts = attempts
		a.retryDelay = delay
	}
}

// NewSinaAdapter 创建新浪数据源适配器
func NewSinaAdapter(timeout time.Duration, opts ...SinaOption) *SinaAdapter {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	a := &SinaAdapter{
		quoteURL: defaultQuoteURL,
		klineURL: defaultKLineURL,
		client: &http.Client{
			Timeout: timeout,
		},
		retryAttempts: 3,
		retryDelay:    5 * time.Second,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// SinaSymbol 把6位代码转换为新浪接口格式
func SinaSymbol(code string) string {
	switch {
	case strings.HasPrefix(code, "6"), strings.HasPrefix(code, "5"), strings.HasPrefix(code, "9"):
		return "sh" + code
	case strings.HasPrefix(code, "0"), strings.HasPrefix(code, "3"),
		strings.HasPrefix(code, "1"), strings.HasPrefix(code, "2"):
		return "sz" + code
	case strings.HasPrefix(code, "4"), strings.HasPrefix(code, "8"):
		return "bj" + code
	}
	return code
}

// FetchHistory 获取最近days根日线，升序返回
func (a *SinaAdapter) FetchHistory(ctx context.Context, symbol string, days int) ([]model.DailyBar, error) {
	url := fmt.Sprintf("%s?symbol=%s&scale=240&ma=no&datalen=%d", a.klineURL, SinaSymbol(symbol), days)

	var bars []model.DailyBar
	err := a.withRetries(ctx, fmt.Sprintf("历史日线(%s)", symbol), func() error {
		body, err := a.get(ctx, url)
		if err != nil {
			return err
		}

		var rows []struct {
			Day   string `json:"day"`
			Close string `json:"close"`
		}
		if err := json.Unmarshal(body, &rows); err != nil {
			return fmt.Errorf("解析K线响应失败: %w", err)
		}
		if len(rows) == 0 {
			return fmt.Errorf("K线响应为空")
		}

		parsed := make([]model.DailyBar, 0, len(rows))
		for _, row := range rows {
			date, err := time.Parse("2006-01-02", row.Day)
			if err != nil {
				return fmt.Errorf("解析K线日期失败(%s): %w", row.Day, err)
			}
			close, err := strconv.ParseFloat(row.Close, 64)
			if err != nil {
				return fmt.Errorf("解析收盘价失败(%s): %w", row.Close, err)
			}
			parsed = append(parsed, model.DailyBar{Date: date, Close: close})
		}
		bars = parsed
		return nil
	})
	if err != nil {
		return nil, err
	}
	return bars, nil
}

// FetchQuote 获取实时行情快照
func (a *SinaAdapter) FetchQuote(ctx context.Context, symbol string) (model.Quote, error) {
	url := fmt.Sprintf("%s/list=%s", a.quoteURL, SinaSymbol(symbol))

	var quote model.Quote
	err := a.withRetries(ctx, fmt.Sprintf("实时行情(%s)", symbol), func() error {
		body, err := a.get(ctx, url)
		if err != nil {
			return err
		}

		// 接口返回GBK编码
		utf8Body, err := simplifiedchinese.GBK.NewDecoder().Bytes(body)
		if err != nil {
			return fmt.Errorf("GBK解码失败: %w", err)
		}

		q, err := parseSinaQuote(string(utf8Body), symbol)
		if err != nil {
			return err
		}
		quote = q
		return nil
	})
	if err != nil {
		return model.Quote{}, err
	}
	return quote, nil
}

// parseSinaQuote 解析 var hq_str_sh510300="名称,开盘,昨收,最新价,..." 格式
func parseSinaQuote(data, symbol string) (model.Quote, error) {
	parts := strings.Split(data, "\"")
	if len(parts) < 2 {
		return model.Quote{}, fmt.Errorf("行情响应格式异常")
	}
	values := strings.Split(parts[1], ",")
	if len(values) < 4 {
		return model.Quote{}, fmt.Errorf("行情字段不足: %d个", len(values))
	}

	price, err := strconv.ParseFloat(values[3], 64)
	if err != nil {
		return model.Quote{}, fmt.Errorf("解析最新价失败(%s): %w", values[3], err)
	}
	if price <= 0 {
		return model.Quote{}, fmt.Errorf("最新价无效: %.4f", price)
	}
	prevClose, _ := strconv.ParseFloat(values[2], 64)

	return model.Quote{
		Symbol:    symbol,
		Name:      strings.TrimSpace(values[0]),
		Price:     price,
		PrevClose: prevClose,
		Timestamp: time.Now(),
	}, nil
}

func (a *SinaAdapter) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("创建HTTP请求失败: %w", err)
	}
	// 新浪接口要求携带站内Referer
	req.Header.Set("Referer", "https://finance.sina.com.cn")

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("执行HTTP请求失败: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("接口返回非200状态码: %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("读取响应体失败: %w", err)
	}
	return body, nil
}

// withRetries 带固定间隔的有限次重试，上下文取消立即放弃
func (a *SinaAdapter) withRetries(ctx context.Context, desc string, op func() error) error {
	var lastErr error
	for attempt := 1; attempt <= a.retryAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if lastErr = op(); lastErr == nil {
			return nil
		}
		if attempt < a.retryAttempts {
			logrus.Warnf("%s 失败，%v后重试 (%d/%d): %v", desc, a.retryDelay, attempt, a.retryAttempts, lastErr)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(a.retryDelay):
			}
		}
	}
	return lastErr
}
