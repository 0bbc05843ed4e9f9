package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	tgbot "github.com/go-telegram/bot"
	tgmodels "github.com/go-telegram/bot/models"
	"github.com/sirupsen/logrus"

	"RSIRadar/pkg/collector"
	"RSIRadar/pkg/database"
	"RSIRadar/pkg/engine"
	"RSIRadar/pkg/model"
)

// Handler 聊天命令层
// 所有订阅者命令要求白名单，白名单管理命令要求管理员
type Handler struct {
	db      *database.DB
	source  *collector.Source
	engine  *engine.Engine
	adminID int64
	period  int

	// symbol -> 资产名称，来自行情快照，进程内缓存
	names sync.Map
}

// NewHandler 创建命令处理器
func NewHandler(db *database.DB, source *collector.Source, eng *engine.Engine, adminID int64, rsiPeriod int) *Handler {
	return &Handler{
		db:      db,
		source:  source,
		engine:  eng,
		adminID: adminID,
		period:  rsiPeriod,
	}
}

// Dispatch 统一入口：按首个词路由
// 用单一默认处理器而不是按前缀注册，避免 /add 抢先匹配 /add_w
func (h *Handler) Dispatch(ctx context.Context, b *tgbot.Bot, update *tgmodels.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}
	text := strings.TrimSpace(update.Message.Text)
	if !strings.HasPrefix(text, "/") {
		return
	}

	fields := strings.Fields(text)
	// 去掉群聊里的 @BotName 后缀
	cmd := strings.SplitN(fields[0], "@", 2)[0]
	args := fields[1:]
	userID := update.Message.From.ID
	chatID := update.Message.Chat.ID

	switch cmd {
	case "/add_w", "/del_w", "/list_w":
		if userID != h.adminID {
			return
		}
	case "/start", "/help", "/add", "/del", "/list", "/on", "/off", "/check", "/briefing":
		if !h.db.Whitelist().IsAuthorized(userID) {
			logrus.Warnf("拒绝未授权用户 %d 的命令 %s", userID, cmd)
			return
		}
	default:
		return
	}

	switch cmd {
	case "/start":
		h.reply(ctx, b, chatID, h.helpText())
	case "/help":
		h.reply(ctx, b, chatID, h.helpText())
	case "/add":
		h.cmdAdd(ctx, b, chatID, userID, args)
	case "/del":
		h.cmdDel(ctx, b, chatID, userID, args)
	case "/list":
		h.cmdList(ctx, b, chatID, userID)
	case "/on":
		h.cmdSetEnabled(ctx, b, chatID, userID, args, true)
	case "/off":
		h.cmdSetEnabled(ctx, b, chatID, userID, args, false)
	case "/check":
		h.cmdCheck(ctx, b, chatID, userID)
	case "/briefing":
		h.cmdBriefing(ctx, b, chatID, userID, args)
	case "/add_w":
		h.cmdWhitelistAdd(ctx, b, chatID, args)
	case "/del_w":
		h.cmdWhitelistDel(ctx, b, chatID, args)
	case "/list_w":
		h.cmdWhitelistList(ctx, b, chatID)
	}
}

func (h *Handler) helpText() string {
	return fmt.Sprintf(`📡 <b>RSI 雷达</b>

监控A股股票与场内基金的 RSI(%d)，进入目标区间时推送提醒。

<b>订阅命令</b>
/add 代码 下限 上限 - 新增监控规则，如 /add 600036 0 30
/del 规则ID - 删除规则
/list - 查看所有规则
/on 规则ID - 启用规则
/off 规则ID - 停用规则
/check - 立即计算当前所有监控标的的RSI
/briefing on|off - 开关收盘简报`, h.period)
}

func (h *Handler) cmdAdd(ctx context.Context, b *tgbot.Bot, chatID, userID int64, args []string) {
	if len(args) != 3 {
		h.reply(ctx, b, chatID, "用法: /add 代码 RSI下限 RSI上限\n例如: /add 600036 0 30")
		return
	}
	symbol := args[0]
	min, err1 := strconv.ParseFloat(args[1], 64)
	max, err2 := strconv.ParseFloat(args[2], 64)
	if err1 != nil || err2 != nil {
		h.reply(ctx, b, chatID, "RSI上下限必须是数字")
		return
	}
	if min >= max {
		h.reply(ctx, b, chatID, "RSI下限必须小于上限")
		return
	}

	// 走实时行情校验代码有效性，顺带拿到资产名称
	name, err := h.assetName(ctx, symbol)
	if err != nil {
		h.reply(ctx, b, chatID, fmt.Sprintf("无法获取 %s 的行情，请检查代码是否正确", symbol))
		return
	}

	rule := &model.Rule{
		UserID:       userID,
		Symbol:       symbol,
		AssetName:    name,
		RSIMin:       min,
		RSIMax:       max,
		Enabled:      true,
		TriggerState: model.TriggerIdle,
	}
	if err := h.db.Rule().Create(rule); err != nil {
		if errors.Is(err, database.ErrDuplicateRule) {
			h.reply(ctx, b, chatID, "相同的监控规则已存在")
			return
		}
		logrus.Errorf("创建规则失败: %v", err)
		h.reply(ctx, b, chatID, "创建规则失败，请稍后重试")
		return
	}
	h.reply(ctx, b, chatID, fmt.Sprintf(
		"✅ 已添加规则 <b>#%d</b>\n<b>%s (%s)</b>\nRSI 目标区间: <code>%g - %g</code>",
		rule.ID, name, symbol, min, max))
}

func (h *Handler) cmdDel(ctx context.Context, b *tgbot.Bot, chatID, userID int64, args []string) {
	id, ok := parseRuleID(args)
	if !ok {
		h.reply(ctx, b, chatID, "用法: /del 规则ID")
		return
	}
	if err := h.db.Rule().Delete(id, userID); err != nil {
		if errors.Is(err, database.ErrRuleNotFound) {
			h.reply(ctx, b, chatID, fmt.Sprintf("规则 #%d 不存在", id))
			return
		}
		logrus.Errorf("删除规则 %d 失败: %v", id, err)
		h.reply(ctx, b, chatID, "删除失败，请稍后重试")
		return
	}
	h.reply(ctx, b, chatID, fmt.Sprintf("🗑 已删除规则 #%d", id))
}

func (h *Handler) cmdList(ctx context.Context, b *tgbot.Bot, chatID, userID int64) {
	rules, err := h.db.Rule().ListByUser(userID)
	if err != nil {
		logrus.Errorf("查询用户 %d 的规则失败: %v", userID, err)
		h.reply(ctx, b, chatID, "查询失败，请稍后重试")
		return
	}
	if len(rules) == 0 {
		h.reply(ctx, b, chatID, "暂无监控规则，用 /add 添加一条")
		return
	}

	var sb strings.Builder
	sb.WriteString("📋 <b>监控规则</b>\n")
	for _, r := range rules {
		status := "▶️"
		if !r.Enabled {
			status = "⏸"
		}
		name := r.AssetName
		if name == "" {
			name = r.Symbol
		}
		fmt.Fprintf(&sb, "\n%s <b>#%d</b> %s (%s) 区间 <code>%g - %g</code>",
			status, r.ID, name, r.Symbol, r.RSIMin, r.RSIMax)
		if r.TriggerState == model.TriggerActive {
			fmt.Fprintf(&sb, " 🎯触发中(%d次)", r.NotificationsSent)
		}
	}
	h.reply(ctx, b, chatID, sb.String())
}

func (h *Handler) cmdSetEnabled(ctx context.Context, b *tgbot.Bot, chatID, userID int64, args []string, enabled bool) {
	id, ok := parseRuleID(args)
	if !ok {
		if enabled {
			h.reply(ctx, b, chatID, "用法: /on 规则ID")
		} else {
			h.reply(ctx, b, chatID, "用法: /off 规则ID")
		}
		return
	}
	if err := h.db.Rule().SetEnabled(id, userID, enabled); err != nil {
		if errors.Is(err, database.ErrRuleNotFound) {
			h.reply(ctx, b, chatID, fmt.Sprintf("规则 #%d 不存在", id))
			return
		}
		logrus.Errorf("更新规则 %d 启用状态失败: %v", id, err)
		h.reply(ctx, b, chatID, "操作失败，请稍后重试")
		return
	}
	if enabled {
		h.reply(ctx, b, chatID, fmt.Sprintf("▶️ 规则 #%d 已启用", id))
	} else {
		h.reply(ctx, b, chatID, fmt.Sprintf("⏸ 规则 #%d 已停用", id))
	}
}

// cmdCheck 按需计算该用户所有启用规则标的的实时RSI
// 逐个标的同步取数，受全局限速约束，标的多时会比较慢
func (h *Handler) cmdCheck(ctx context.Context, b *tgbot.Bot, chatID, userID int64) {
	rules, err := h.db.Rule().ListByUser(userID)
	if err != nil {
		logrus.Errorf("查询用户 %d 的规则失败: %v", userID, err)
		h.reply(ctx, b, chatID, "查询失败，请稍后重试")
		return
	}
	enabled := rules[:0]
	for _, r := range rules {
		if r.Enabled {
			enabled = append(enabled, r)
		}
	}
	if len(enabled) == 0 {
		h.reply(ctx, b, chatID, "暂无启用的监控规则")
		return
	}
	h.reply(ctx, b, chatID, "⏳ 正在计算，请稍候...")

	seen := make(map[string]bool)
	var sb strings.Builder
	fmt.Fprintf(&sb, "📊 <b>RSI(%d) 即时查询</b>\n", h.period)
	for _, r := range enabled {
		if seen[r.Symbol] {
			continue
		}
		seen[r.Symbol] = true
		name := r.AssetName
		if name == "" {
			name = r.Symbol
		}
		value, ok := h.engine.CurrentRSI(ctx, r.Symbol)
		if !ok {
			fmt.Fprintf(&sb, "\n%s (%s): 数据获取失败", name, r.Symbol)
			continue
		}
		marker := ""
		if r.InBand(value) {
			marker = " 🎯"
		}
		fmt.Fprintf(&sb, "\n%s (%s): <b>%.2f</b>%s", name, r.Symbol, value, marker)
	}
	h.reply(ctx, b, chatID, sb.String())
}

func (h *Handler) cmdBriefing(ctx context.Context, b *tgbot.Bot, chatID, userID int64, args []string) {
	if len(args) != 1 || (args[0] != "on" && args[0] != "off") {
		status := "关闭"
		if h.db.Whitelist().BriefingEnabled(userID) {
			status = "开启"
		}
		h.reply(ctx, b, chatID, fmt.Sprintf("收盘简报当前状态: %s\n用法: /briefing on 或 /briefing off", status))
		return
	}
	enabled := args[0] == "on"
	if err := h.db.Whitelist().SetBriefing(userID, enabled); err != nil {
		logrus.Errorf("更新用户 %d 简报开关失败: %v", userID, err)
		h.reply(ctx, b, chatID, "操作失败，请稍后重试")
		return
	}
	if enabled {
		h.reply(ctx, b, chatID, "📰 收盘简报已开启")
	} else {
		h.reply(ctx, b, chatID, "收盘简报已关闭")
	}
}

func (h *Handler) cmdWhitelistAdd(ctx context.Context, b *tgbot.Bot, chatID int64, args []string) {
	uid, ok := parseUserID(args)
	if !ok {
		h.reply(ctx, b, chatID, "用法: /add_w 用户ID")
		return
	}
	if err := h.db.Whitelist().Add(uid); err != nil {
		logrus.Errorf("添加白名单用户 %d 失败: %v", uid, err)
		h.reply(ctx, b, chatID, "添加失败，请稍后重试")
		return
	}
	h.reply(ctx, b, chatID, fmt.Sprintf("✅ 用户 %d 已加入白名单", uid))
}

func (h *Handler) cmdWhitelistDel(ctx context.Context, b *tgbot.Bot, chatID int64, args []string) {
	uid, ok := parseUserID(args)
	if !ok {
		h.reply(ctx, b, chatID, "用法: /del_w 用户ID")
		return
	}
	if err := h.db.Whitelist().Remove(uid); err != nil {
		logrus.Errorf("移除白名单用户 %d 失败: %v", uid, err)
		h.reply(ctx, b, chatID, "移除失败，请稍后重试")
		return
	}
	h.reply(ctx, b, chatID, fmt.Sprintf("用户 %d 已移出白名单", uid))
}

func (h *Handler) cmdWhitelistList(ctx context.Context, b *tgbot.Bot, chatID int64) {
	users, err := h.db.Whitelist().List()
	if err != nil {
		logrus.Errorf("查询白名单失败: %v", err)
		h.reply(ctx, b, chatID, "查询失败，请稍后重试")
		return
	}
	if len(users) == 0 {
		h.reply(ctx, b, chatID, "白名单为空")
		return
	}
	var sb strings.Builder
	sb.WriteString("👥 <b>白名单</b>\n")
	for _, u := range users {
		briefing := ""
		if u.DailyBriefing {
			briefing = " 📰"
		}
		fmt.Fprintf(&sb, "\n<code>%d</code>%s", u.UserID, briefing)
	}
	h.reply(ctx, b, chatID, sb.String())
}

// assetName 取标的名称，进程内缓存，未命中时请求一次实时行情
func (h *Handler) assetName(ctx context.Context, symbol string) (string, error) {
	if v, ok := h.names.Load(symbol); ok {
		return v.(string), nil
	}
	quote, err := h.source.Quote(ctx, symbol)
	if err != nil {
		return "", err
	}
	h.names.Store(symbol, quote.Name)
	return quote.Name, nil
}

func (h *Handler) reply(ctx context.Context, b *tgbot.Bot, chatID int64, text string) {
	_, err := b.SendMessage(ctx, &tgbot.SendMessageParams{
		ChatID:    chatID,
		Text:      text,
		ParseMode: tgmodels.ParseModeHTML,
	})
	if err != nil {
		logrus.Errorf("发送回复到 %d 失败: %v", chatID, err)
	}
}

func parseRuleID(args []string) (uint, bool) {
	if len(args) != 1 {
		return 0, false
	}
	id, err := strconv.ParseUint(args[0], 10, 32)
	if err != nil {
		return 0, false
	}
	return uint(id), true
}

func parseUserID(args []string) (int64, bool) {
	if len(args) != 1 {
		return 0, false
	}
	uid, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return 0, false
	}
	return uid, true
}
