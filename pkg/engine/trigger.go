package engine

import (
	"RSIRadar/pkg/model"
)

// Evaluation 状态机一次评估的结论
type Evaluation struct {
	Notify   bool // 是否应发送订阅者通知
	Sequence int  // 本次触发周期内的通知序号，从1开始
	Changed  bool // 规则的trigger_state/notifications_sent有变化，需要落库
}

// EvaluateTrigger 用当前RSI值驱动规则的触发状态机
//
// IDLE在区间内时进入ACTIVE并重置计数，之后只要停留在区间内，
// 每次评估都尝试补发通知，直到计数达到maxNotifications为止；
// 离开区间回到IDLE，不发退出通知。评估对(状态,计数,值,区间)完全确定，
// 没有基于时间的衰减：一个触发周期可以跨任意多个tick。
// 数据缺失的tick不要调用本函数，状态必须原样保留。
func EvaluateTrigger(rule *model.Rule, value float64, maxNotifications int) Evaluation {
	var ev Evaluation

	if !rule.InBand(value) {
		if rule.TriggerState == model.TriggerActive {
			// 触发周期结束，计数在下次进入区间时才有意义
			rule.TriggerState = model.TriggerIdle
			ev.Changed = true
		}
		return ev
	}

	if rule.TriggerState != model.TriggerActive {
		rule.TriggerState = model.TriggerActive
		rule.NotificationsSent = 0
		ev.Changed = true
	}
	if rule.NotificationsSent < maxNotifications {
		rule.NotificationsSent++
		ev.Notify = true
		ev.Sequence = rule.NotificationsSent
		ev.Changed = true
	}
	return ev
}
