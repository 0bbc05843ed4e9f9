package collector

import (
	"sync"
)

// FetchHealth 按标的统计连续抓取失败次数
// 计数器与规则无关，同一标的上的所有规则共享一份；只在进程内存中，不落库
type FetchHealth struct {
	mu        sync.Mutex
	threshold int
	failures  map[string]int
}

// NewFetchHealth 创建失败计数器，threshold为触发管理员警报的连续失败次数
func NewFetchHealth(threshold int) *FetchHealth {
	return &FetchHealth{
		threshold: threshold,
		failures:  make(map[string]int),
	}
}

// Failure 记录一次失败，返回当前连续失败次数，以及本次是否恰好越过阈值
// 越过阈值只在计数恰好等于threshold的那一次报告，计数本身不因告警而清零，
// 只有后续成功才能复位并重新武装告警
func (h *FetchHealth) Failure(symbol string) (count int, crossed bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.failures[symbol]++
	count = h.failures[symbol]
	crossed = h.threshold > 0 && count == h.threshold
	return count, crossed
}

// Success 记录一次成功，清零该标的的连续失败计数
func (h *FetchHealth) Success(symbol string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.failures, symbol)
}

// Snapshot 导出当前各标的的连续失败次数，供状态接口展示
func (h *FetchHealth) Snapshot() map[string]int {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make(map[string]int, len(h.failures))
	for k, v := range h.failures {
		out[k] = v
	}
	return out
}
