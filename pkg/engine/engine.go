package engine

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"RSIRadar/pkg/indicator"
	"RSIRadar/pkg/market"
	"RSIRadar/pkg/model"
)

// RuleStore 规则存储
// 引擎只读取启用的规则，只回写触发状态两个字段；
// 创建/删除/启停由命令层直接操作存储，引擎在下一个tick自然观察到
type RuleStore interface {
	ListEnabled() ([]model.Rule, error)
	SaveTriggerState(id uint, state model.TriggerState, sent int) error
}

// MarketSource 行情数据源（已带限速与失败统计）
type MarketSource interface {
	History(ctx context.Context, symbol string, days int) ([]model.DailyBar, error)
	Quote(ctx context.Context, symbol string) (model.Quote, error)
}

// Dispatcher 通知分发器，投递失败由实现方记录日志，不影响引擎
type Dispatcher interface {
	NotifyUser(ctx context.Context, userID int64, text string)
	NotifyAdmin(ctx context.Context, text string)
}

// AlertSink 已发出通知的落库/转发出口，可为空
type AlertSink interface {
	Record(ctx context.Context, alert model.AlertRecord)
}

// Options 引擎运行参数，来自配置，引擎视为已校验
type Options struct {
	CheckInterval    time.Duration
	RSIPeriod        int
	HistDays         int
	MaxNotifications int
}

// Deps 引擎依赖
type Deps struct {
	Rules      RuleStore
	Source     MarketSource
	Dispatcher Dispatcher
	Sink       AlertSink       // 可为空
	Briefing   BriefingStore   // 可为空，关闭每日简报
	Calendar   market.Calendar // 可为空，默认工作日日历
	Now        func() time.Time
}

// Engine 监控引擎：定时驱动 取数→RSI→状态机→通知 的完整循环
type Engine struct {
	opts Options
	deps Deps

	// 历史日线按天缓存，跨tick复用，日期变化时整体重建
	// 命令层的按需查询与tick循环并发访问，由mu保护
	mu        sync.Mutex
	histCache map[string][]model.DailyBar
	cacheDay  string
}

// NewEngine 创建监控引擎
func NewEngine(opts Options, deps Deps) *Engine {
	if deps.Calendar == nil {
		deps.Calendar = market.WeekdayCalendar{}
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &Engine{
		opts:      opts,
		deps:      deps,
		histCache: make(map[string][]model.DailyBar),
	}
}

// Run 固定间隔循环执行Tick，直到上下文取消
// 取消只在tick边界生效，不会打断执行中的tick
func (e *Engine) Run(ctx context.Context) {
	logrus.Infof("监控引擎启动，检查间隔 %v", e.opts.CheckInterval)
	ticker := time.NewTicker(e.opts.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logrus.Info("监控引擎已停止")
			return
		case <-ticker.C:
			e.Tick(ctx)
		}
	}
}

// Tick 执行一个完整的评估周期
// 任何单标的失败都被隔离：记日志、跳过该标的，其余标的照常评估
func (e *Engine) Tick(ctx context.Context) {
	now := e.deps.Now()
	if !e.deps.Calendar.IsTradingDay(now) || !market.IsTradingTime(now) {
		return
	}

	rules, err := e.deps.Rules.ListEnabled()
	if err != nil {
		logrus.Errorf("加载启用规则失败: %v", err)
		return
	}
	if len(rules) == 0 {
		return
	}

	// 按标的分组，一个标的只取一次数、算一次RSI
	bySymbol := make(map[string][]int)
	for i := range rules {
		bySymbol[rules[i].Symbol] = append(bySymbol[rules[i].Symbol], i)
	}
	symbols := make([]string, 0, len(bySymbol))
	for symbol := range bySymbol {
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)

	for _, symbol := range symbols {
		value, ok := e.currentRSI(ctx, symbol, now)
		if !ok {
			continue
		}
		for _, i := range bySymbol[symbol] {
			e.applyRule(ctx, &rules[i], value)
		}
	}
}

// CurrentRSI 供命令层按需查询某标的的实时RSI
func (e *Engine) CurrentRSI(ctx context.Context, symbol string) (float64, bool) {
	return e.currentRSI(ctx, symbol, e.deps.Now())
}

// currentRSI 取数并计算某标的的实时RSI
func (e *Engine) currentRSI(ctx context.Context, symbol string, now time.Time) (float64, bool) {
	bars, ok := e.historyForDay(ctx, symbol, now)
	if !ok {
		return 0, false
	}
	quote, err := e.deps.Source.Quote(ctx, symbol)
	if err != nil {
		return 0, false
	}

	prices := livePrices(bars, quote.Price, now)
	value, err := indicator.RSI(prices, e.opts.RSIPeriod)
	if err != nil {
		logrus.Warnf("计算 %s RSI失败: %v", symbol, err)
		return 0, false
	}
	logrus.Debugf("%s RSI(%d) = %.2f", symbol, e.opts.RSIPeriod, value)
	return value, true
}

// applyRule 对单条规则应用状态机，并处理通知与落库
func (e *Engine) applyRule(ctx context.Context, rule *model.Rule, value float64) {
	ev := EvaluateTrigger(rule, value, e.opts.MaxNotifications)

	if ev.Notify {
		text := formatAlert(rule, value, ev.Sequence, e.opts)
		e.deps.Dispatcher.NotifyUser(ctx, rule.UserID, text)
		logrus.Infof("已触发通知: %s | 用户 %d | 第 %d/%d 次",
			rule.Symbol, rule.UserID, ev.Sequence, e.opts.MaxNotifications)
		if e.deps.Sink != nil {
			e.deps.Sink.Record(ctx, model.AlertRecord{
				RuleID:    rule.ID,
				UserID:    rule.UserID,
				Symbol:    rule.Symbol,
				AssetName: rule.AssetName,
				RSIValue:  value,
				RSIMin:    rule.RSIMin,
				RSIMax:    rule.RSIMax,
				Sequence:  ev.Sequence,
			})
		}
	}

	if ev.Changed {
		if err := e.deps.Rules.SaveTriggerState(rule.ID, rule.TriggerState, rule.NotificationsSent); err != nil {
			logrus.Errorf("保存规则 %d 触发状态失败: %v", rule.ID, err)
		}
	}
}

// historyForDay 取历史日线，同一天内复用缓存
func (e *Engine) historyForDay(ctx context.Context, symbol string, now time.Time) ([]model.DailyBar, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	day := now.Format("2006-01-02")
	if e.cacheDay != day {
		logrus.Infof("日期变更，重建 %s 的历史数据缓存", day)
		e.histCache = make(map[string][]model.DailyBar)
		e.cacheDay = day
	}
	if bars, ok := e.histCache[symbol]; ok {
		return bars, true
	}

	bars, err := e.deps.Source.History(ctx, symbol, e.opts.HistDays)
	if err != nil {
		return nil, false
	}
	e.histCache[symbol] = bars
	return bars, true
}

// livePrices 把实时价并入收盘序列：历史已含当日K线则覆盖末位，否则追加
func livePrices(bars []model.DailyBar, live float64, now time.Time) []float64 {
	prices := make([]float64, 0, len(bars)+1)
	for _, b := range bars {
		prices = append(prices, b.Close)
	}
	if n := len(bars); n > 0 && sameDay(bars[n-1].Date, now) {
		prices[n-1] = live
	} else {
		prices = append(prices, live)
	}
	return prices
}

func sameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.YearDay() == b.YearDay()
}

// formatAlert 订阅者通知文案（HTML）
func formatAlert(rule *model.Rule, value float64, sequence int, opts Options) string {
	name := rule.AssetName
	if name == "" {
		name = rule.Symbol
	}
	return fmt.Sprintf(
		"🎯 <b>RSI 警报 (%d/%d)</b> 🎯\n\n<b>%s (%s)</b>\n\n当前 RSI(%d): <b>%.2f</b>\n已进入目标区间: <code>%g - %g</code>",
		sequence, opts.MaxNotifications, name, rule.Symbol, opts.RSIPeriod, value, rule.RSIMin, rule.RSIMax)
}
