package notifier

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// Whitelist 投递前的授权校验
type Whitelist interface {
	IsAuthorized(userID int64) bool
}

// Telegram 通知分发器
// 投递是尽力而为的：发送失败只记日志，既不重试也不回滚规则状态。
// 规则状态表达的是"应当通知"，与投递是否成功解耦。
type Telegram struct {
	api       *bot.Bot
	adminID   int64
	whitelist Whitelist
	limiter   *rate.Limiter
}

// NewTelegram 创建Telegram分发器，messagesPerSecond限制全局发送速率
func NewTelegram(api *bot.Bot, adminID int64, whitelist Whitelist, messagesPerSecond int) *Telegram {
	if messagesPerSecond <= 0 {
		messagesPerSecond = 20
	}
	return &Telegram{
		api:       api,
		adminID:   adminID,
		whitelist: whitelist,
		limiter:   rate.NewLimiter(rate.Limit(float64(messagesPerSecond)), messagesPerSecond),
	}
}

// NotifyUser 向订阅者投递提醒，非白名单用户静默丢弃
func (t *Telegram) NotifyUser(ctx context.Context, userID int64, text string) {
	if t.whitelist != nil && !t.whitelist.IsAuthorized(userID) {
		logrus.Debugf("用户 %d 不在白名单，丢弃通知", userID)
		return
	}
	t.send(ctx, userID, text)
}

// NotifyAdmin 向管理员投递运维告警
func (t *Telegram) NotifyAdmin(ctx context.Context, text string) {
	if t.adminID == 0 {
		return
	}
	t.send(ctx, t.adminID, text)
}

func (t *Telegram) send(ctx context.Context, chatID int64, text string) {
	if err := t.limiter.Wait(ctx); err != nil {
		return
	}
	_, err := t.api.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:    chatID,
		Text:      text,
		ParseMode: models.ParseModeHTML,
	})
	if err != nil {
		logrus.Errorf("向 %d 发送消息失败: %v", chatID, err)
	}
}
