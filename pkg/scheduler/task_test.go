package scheduler

import (
	"context"
	"testing"
)

func TestDailySpec(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"15:30", "30 15 * * 1-5", true},
		{"9:05", "5 9 * * 1-5", true},
		{"00:00", "0 0 * * 1-5", true},
		{"24:00", "", false},
		{"15:60", "", false},
		{"1530", "", false},
		{"ab:cd", "", false},
	}
	for _, c := range cases {
		got, err := dailySpec(c.in)
		if c.ok && (err != nil || got != c.want) {
			t.Errorf("dailySpec(%q) = %q, %v, 期望 %q", c.in, got, err, c.want)
		}
		if !c.ok && err == nil {
			t.Errorf("dailySpec(%q) 应报错", c.in)
		}
	}
}

func TestAddDailyRejectsBadTime(t *testing.T) {
	s := NewScheduler()
	if err := s.AddDaily([]string{"15:30", "晚上八点"}, func(context.Context) {}); err == nil {
		t.Error("非法时间应报错")
	}
	if err := s.AddDaily([]string{"15:30", "20:00"}, func(context.Context) {}); err != nil {
		t.Errorf("合法时间不应报错: %v", err)
	}
}
