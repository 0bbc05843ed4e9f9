package collector

import (
	"context"
	"testing"
	"time"
)

// fakeClock 手动推进的时钟，Sleep立即把时间拨过去
type fakeClock struct {
	now    time.Time
	sleeps []time.Duration
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 3, 6, 10, 0, 0, 0, time.Local)}
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Sleep(d time.Duration) {
	c.sleeps = append(c.sleeps, d)
	c.now = c.now.Add(d)
}

func TestGateEnforcesMinSpacing(t *testing.T) {
	clock := newFakeClock()
	gate := NewRequestGate(clock, time.Second, 0)
	ctx := context.Background()

	var starts []time.Time
	for i := 0; i < 3; i++ {
		if err := gate.Wait(ctx); err != nil {
			t.Fatalf("Wait: %v", err)
		}
		starts = append(starts, clock.Now())
	}

	for i := 1; i < len(starts); i++ {
		if gap := starts[i].Sub(starts[i-1]); gap < time.Second {
			t.Errorf("第%d次和第%d次请求间隔 %v, 小于最小间隔1s", i, i+1, gap)
		}
	}
}

func TestGateFirstRequestImmediate(t *testing.T) {
	clock := newFakeClock()
	gate := NewRequestGate(clock, time.Second, 0)

	if err := gate.Wait(context.Background()); err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if len(clock.sleeps) != 0 {
		t.Errorf("首次请求不应等待, 实际睡了 %v", clock.sleeps)
	}
}

func TestGateNoWaitAfterInterval(t *testing.T) {
	clock := newFakeClock()
	gate := NewRequestGate(clock, time.Second, 0)
	ctx := context.Background()

	if err := gate.Wait(ctx); err != nil {
		t.Fatalf("Wait: %v", err)
	}
	clock.now = clock.now.Add(2 * time.Second)
	before := len(clock.sleeps)
	if err := gate.Wait(ctx); err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if len(clock.sleeps) != before {
		t.Error("间隔已满足时不应再等待")
	}
}

func TestGateJitterBounded(t *testing.T) {
	clock := newFakeClock()
	jitterMax := 500 * time.Millisecond
	gate := NewRequestGate(clock, time.Second, jitterMax)
	ctx := context.Background()

	for i := 0; i < 20; i++ {
		if err := gate.WaitWithJitter(ctx); err != nil {
			t.Fatalf("WaitWithJitter: %v", err)
		}
	}
	// 每轮至多两段睡眠: 随机延迟和补足间隔, 随机延迟不能超过上限
	for _, d := range clock.sleeps {
		if d < 0 || d > time.Second+jitterMax {
			t.Errorf("异常睡眠时长 %v", d)
		}
	}
}

func TestGateCancelledContext(t *testing.T) {
	clock := newFakeClock()
	gate := NewRequestGate(clock, time.Second, 0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := gate.Wait(ctx); err == nil {
		t.Error("已取消的上下文应直接报错")
	}
}
