package collector

import (
	"context"
	"math/rand"
	"sync"
	"time"
)

// RequestGate 全局请求门闸
// 所有到上游的请求共享同一个门闸：任意两次请求的起始时刻
// 至少间隔interval。行情请求在排队前还会额外睡一段[0, jitterMax]
// 的随机延迟，用来错开多部署实例的轮询节奏。
type RequestGate struct {
	mu        sync.Mutex
	clock     Clock
	interval  time.Duration
	jitterMax time.Duration
	rng       *rand.Rand
	last      time.Time
}

// NewRequestGate 创建请求门闸
func NewRequestGate(clock Clock, interval, jitterMax time.Duration) *RequestGate {
	return &RequestGate{
		clock:     clock,
		interval:  interval,
		jitterMax: jitterMax,
		rng:       rand.New(rand.NewSource(clock.Now().UnixNano())),
	}
}

// Wait 阻塞到距上一次请求开始至少interval之后，并占用一个请求时隙
// 互斥锁在等待期间一直持有，保证并发调用方串行通过门闸
func (g *RequestGate) Wait(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	if !g.last.IsZero() {
		if wait := g.interval - g.clock.Now().Sub(g.last); wait > 0 {
			g.clock.Sleep(wait)
		}
	}
	g.last = g.clock.Now()
	return nil
}

// WaitWithJitter 行情请求专用：先睡随机延迟，再走普通门闸
func (g *RequestGate) WaitWithJitter(ctx context.Context) error {
	if g.jitterMax > 0 {
		g.mu.Lock()
		delay := time.Duration(g.rng.Int63n(int64(g.jitterMax) + 1))
		g.mu.Unlock()
		g.clock.Sleep(delay)
	}
	return g.Wait(ctx)
}
