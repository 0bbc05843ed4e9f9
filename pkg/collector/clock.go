package collector

import (
	"time"
)

// Clock 时钟抽象，测试时注入假时钟验证限速行为
type Clock interface {
	Now() time.Time
	Sleep(d time.Duration)
}

type systemClock struct{}

func (systemClock) Now() time.Time        { return time.Now() }
func (systemClock) Sleep(d time.Duration) { time.Sleep(d) }

// SystemClock 真实时钟
func SystemClock() Clock {
	return systemClock{}
}
