package engine

import (
	"testing"

	"RSIRadar/pkg/model"
)

func newRule(min, max float64) *model.Rule {
	return &model.Rule{
		ID:           1,
		UserID:       100,
		Symbol:       "600036",
		RSIMin:       min,
		RSIMax:       max,
		Enabled:      true,
		TriggerState: model.TriggerIdle,
	}
}

func TestTriggerEntryNotifies(t *testing.T) {
	rule := newRule(0, 30)

	ev := EvaluateTrigger(rule, 25, 1)
	if !ev.Notify || ev.Sequence != 1 || !ev.Changed {
		t.Fatalf("进入区间应通知第1次, ev = %+v", ev)
	}
	if rule.TriggerState != model.TriggerActive || rule.NotificationsSent != 1 {
		t.Errorf("规则状态错误: state=%s sent=%d", rule.TriggerState, rule.NotificationsSent)
	}
}

func TestTriggerSuppressedAtCap(t *testing.T) {
	rule := newRule(0, 30)

	// 区间内停留: 第1次通知, 之后静默
	EvaluateTrigger(rule, 25, 1)
	ev := EvaluateTrigger(rule, 28, 1)
	if ev.Notify || ev.Changed {
		t.Errorf("达到上限后续tick不应通知也不应落库, ev = %+v", ev)
	}
}

func TestTriggerSilentExitAndReentry(t *testing.T) {
	rule := newRule(0, 30)

	// [区间内, 区间内, 区间外, 区间内], 上限1 → 第1、4次评估各通知一次
	seq := []struct {
		value  float64
		notify bool
	}{
		{25, true},
		{28, false},
		{35, false},
		{22, true},
	}
	var total int
	for i, s := range seq {
		ev := EvaluateTrigger(rule, s.value, 1)
		if ev.Notify != s.notify {
			t.Errorf("第%d次评估(值%.0f): notify=%v, 期望 %v", i+1, s.value, ev.Notify, s.notify)
		}
		if ev.Notify {
			total++
			if ev.Sequence != 1 {
				t.Errorf("重新进入区间序号应从1开始, 实际 %d", ev.Sequence)
			}
		}
	}
	if total != 2 {
		t.Errorf("共通知 %d 次, 期望2次", total)
	}
}

func TestTriggerExitPersistsState(t *testing.T) {
	rule := newRule(0, 30)

	EvaluateTrigger(rule, 25, 1)
	ev := EvaluateTrigger(rule, 50, 1)
	if ev.Notify {
		t.Error("离开区间不应发退出通知")
	}
	if !ev.Changed || rule.TriggerState != model.TriggerIdle {
		t.Errorf("离开区间应回到IDLE并落库, ev=%+v state=%s", ev, rule.TriggerState)
	}
}

func TestTriggerRenotifyUpToCap(t *testing.T) {
	rule := newRule(40, 60)

	// 上限3, 连续4个tick都在区间内 → 序号1,2,3, 第4次静默
	for i := 1; i <= 3; i++ {
		ev := EvaluateTrigger(rule, 50, 3)
		if !ev.Notify || ev.Sequence != i {
			t.Fatalf("第%d次评估: ev = %+v", i, ev)
		}
	}
	if ev := EvaluateTrigger(rule, 50, 3); ev.Notify {
		t.Errorf("第4次评估应静默, ev = %+v", ev)
	}
}

func TestTriggerIdleOutOfBandNoChange(t *testing.T) {
	rule := newRule(0, 30)

	ev := EvaluateTrigger(rule, 70, 1)
	if ev.Notify || ev.Changed {
		t.Errorf("IDLE且区间外不应有任何动作, ev = %+v", ev)
	}
}

func TestTriggerBandBoundariesInclusive(t *testing.T) {
	for _, v := range []float64{30, 70} {
		rule := newRule(30, 70)
		if ev := EvaluateTrigger(rule, v, 1); !ev.Notify {
			t.Errorf("边界值 %v 应视为区间内", v)
		}
	}
}
