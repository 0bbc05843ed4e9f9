package scheduler

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Scheduler 定时任务调度器，目前只承载收盘简报
type Scheduler struct {
	cron *cron.Cron
}

// NewScheduler 创建任务调度器
func NewScheduler() *Scheduler {
	return &Scheduler{
		cron: cron.New(),
	}
}

// AddDaily 在每个工作日的指定时刻执行任务，时刻格式 HH:MM
func (s *Scheduler) AddDaily(times []string, job func(context.Context)) error {
	for _, t := range times {
		spec, err := dailySpec(t)
		if err != nil {
			return err
		}
		if _, err := s.cron.AddFunc(spec, func() {
			job(context.Background())
		}); err != nil {
			return fmt.Errorf("注册定时任务失败: %w", err)
		}
		logrus.Infof("已注册每日任务: %s", t)
	}
	return nil
}

// Start 启动调度器
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop 停止调度器，等待执行中的任务结束
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

// dailySpec 把 HH:MM 转成工作日cron表达式
func dailySpec(t string) (string, error) {
	parts := strings.SplitN(t, ":", 2)
	if len(parts) != 2 {
		return "", fmt.Errorf("时间格式应为 HH:MM, 实际 %q", t)
	}
	hour, err1 := strconv.Atoi(parts[0])
	minute, err2 := strconv.Atoi(parts[1])
	if err1 != nil || err2 != nil || hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return "", fmt.Errorf("时间格式应为 HH:MM, 实际 %q", t)
	}
	return fmt.Sprintf("%d %d * * 1-5", minute, hour), nil
}
