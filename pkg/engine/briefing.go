package engine

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"RSIRadar/pkg/model"
)

// BriefingStore 每日简报所需的存储视图
type BriefingStore interface {
	// BriefingUsers 开启了每日简报的白名单用户
	BriefingUsers() ([]int64, error)
	// ListEnabledForUsers 这些用户的启用规则
	ListEnabledForUsers(userIDs []int64) ([]model.Rule, error)
}

// RunBriefing 发送收盘RSI简报
// 由调度器在收盘后定时调用；非交易日跳过，交易时段不作要求
func (e *Engine) RunBriefing(ctx context.Context) {
	if e.deps.Briefing == nil {
		return
	}
	now := e.deps.Now()
	if !e.deps.Calendar.IsTradingDay(now) {
		logrus.Infof("今天(%s)非交易日，跳过每日简报", now.Format("2006-01-02"))
		return
	}

	users, err := e.deps.Briefing.BriefingUsers()
	if err != nil {
		logrus.Errorf("加载简报用户失败: %v", err)
		return
	}
	if len(users) == 0 {
		return
	}
	rules, err := e.deps.Briefing.ListEnabledForUsers(users)
	if err != nil {
		logrus.Errorf("加载简报规则失败: %v", err)
		return
	}
	if len(rules) == 0 {
		return
	}
	logrus.Infof("开始执行每日收盘RSI简报，共 %d 个用户", len(users))

	// 每个标的只算一次RSI，失败的标的在简报里标记为查询失败
	results := make(map[string]float64)
	failed := make(map[string]bool)
	for _, symbol := range distinctSymbols(rules) {
		if value, ok := e.currentRSI(ctx, symbol, now); ok {
			results[symbol] = value
		} else {
			failed[symbol] = true
		}
	}

	byUser := make(map[int64][]model.Rule)
	for _, rule := range rules {
		byUser[rule.UserID] = append(byUser[rule.UserID], rule)
	}
	for _, userID := range users {
		userRules := byUser[userID]
		if len(userRules) == 0 {
			continue
		}
		text := formatBriefing(userRules, results, failed, now.Format("2006年01月02日"), e.opts)
		e.deps.Dispatcher.NotifyUser(ctx, userID, text)
	}
}

func distinctSymbols(rules []model.Rule) []string {
	seen := make(map[string]bool)
	var symbols []string
	for _, r := range rules {
		if !seen[r.Symbol] {
			seen[r.Symbol] = true
			symbols = append(symbols, r.Symbol)
		}
	}
	sort.Strings(symbols)
	return symbols
}

// formatBriefing 单个用户的简报文案（HTML）
func formatBriefing(rules []model.Rule, results map[string]float64, failed map[string]bool, day string, opts Options) string {
	bySymbol := make(map[string][]model.Rule)
	for _, r := range rules {
		bySymbol[r.Symbol] = append(bySymbol[r.Symbol], r)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "📰 <b>收盘RSI简报 (%s)</b>\n\n", day)
	for _, symbol := range distinctSymbols(rules) {
		symbolRules := bySymbol[symbol]
		name := symbolRules[0].AssetName
		if name == "" {
			name = symbol
		}

		if failed[symbol] {
			fmt.Fprintf(&b, "❓ <b>%s</b> (<code>%s</code>)\n  - 收盘 RSI(%d): 查询失败\n", name, symbol, opts.RSIPeriod)
		} else {
			value := results[symbol]
			icon := "▪️"
			for _, r := range symbolRules {
				if r.InBand(value) {
					icon = "🎯"
					break
				}
			}
			fmt.Fprintf(&b, "%s <b>%s</b> (<code>%s</code>)\n  - 收盘 RSI(%d): <b>%.2f</b>\n", icon, name, symbol, opts.RSIPeriod, value)
		}
		for _, r := range symbolRules {
			fmt.Fprintf(&b, "  - 监控区间: %g - %g\n", r.RSIMin, r.RSIMax)
		}
		b.WriteString("\n")
	}
	return b.String()
}
