package collector

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"RSIRadar/pkg/model"
)

type stubFetcher struct {
	failing map[string]bool
}

func (f *stubFetcher) FetchHistory(ctx context.Context, symbol string, days int) ([]model.DailyBar, error) {
	if f.failing[symbol] {
		return nil, fmt.Errorf("连接被重置")
	}
	return []model.DailyBar{{Date: time.Now(), Close: 10}}, nil
}

func (f *stubFetcher) FetchQuote(ctx context.Context, symbol string) (model.Quote, error) {
	if f.failing[symbol] {
		return model.Quote{}, fmt.Errorf("连接被重置")
	}
	return model.Quote{Symbol: symbol, Name: "测试", Price: 10}, nil
}

type stubAdmin struct {
	alerts []string
}

func (a *stubAdmin) NotifyAdmin(ctx context.Context, text string) {
	a.alerts = append(a.alerts, text)
}

func newTestSource(fetcher *stubFetcher, admin *stubAdmin, threshold int) *Source {
	gate := NewRequestGate(newFakeClock(), 0, 0)
	return NewSource(fetcher, gate, NewFetchHealth(threshold), admin)
}

func TestSourceWrapsFailure(t *testing.T) {
	fetcher := &stubFetcher{failing: map[string]bool{"600036": true}}
	src := newTestSource(fetcher, &stubAdmin{}, 5)

	if _, err := src.History(context.Background(), "600036", 10); !errors.Is(err, ErrDataUnavailable) {
		t.Errorf("上游失败应归并为ErrDataUnavailable, 实际 %v", err)
	}
	if _, err := src.Quote(context.Background(), "600036"); !errors.Is(err, ErrDataUnavailable) {
		t.Errorf("上游失败应归并为ErrDataUnavailable, 实际 %v", err)
	}
}

func TestSourceAdminAlertExactlyOnce(t *testing.T) {
	fetcher := &stubFetcher{failing: map[string]bool{"600036": true}}
	admin := &stubAdmin{}
	src := newTestSource(fetcher, admin, 3)
	ctx := context.Background()

	for i := 0; i < 6; i++ {
		src.History(ctx, "600036", 10)
	}
	if len(admin.alerts) != 1 {
		t.Fatalf("连续6次失败、阈值3, 应只告警1次, 实际 %d 次", len(admin.alerts))
	}

	// 成功复位后重新武装
	fetcher.failing["600036"] = false
	if _, err := src.History(ctx, "600036", 10); err != nil {
		t.Fatalf("History: %v", err)
	}
	fetcher.failing["600036"] = true
	for i := 0; i < 3; i++ {
		src.History(ctx, "600036", 10)
	}
	if len(admin.alerts) != 2 {
		t.Errorf("复位后再连续失败3次应产生第2次告警, 实际 %d 次", len(admin.alerts))
	}
}

func TestSourceSuccessClearsCounter(t *testing.T) {
	fetcher := &stubFetcher{failing: map[string]bool{"600036": true}}
	src := newTestSource(fetcher, &stubAdmin{}, 5)
	ctx := context.Background()

	src.History(ctx, "600036", 10)
	src.History(ctx, "600036", 10)
	fetcher.failing["600036"] = false
	if _, err := src.Quote(ctx, "600036"); err != nil {
		t.Fatalf("Quote: %v", err)
	}
	if snap := src.Health().Snapshot(); snap["600036"] != 0 {
		t.Errorf("成功后计数应清零, Snapshot = %v", snap)
	}
}
