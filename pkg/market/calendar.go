package market

import (
	"time"
)

// Calendar 交易日历，由调用方注入；节假日数据属于外部关注点
type Calendar interface {
	IsTradingDay(t time.Time) bool
}

// WeekdayCalendar 把所有工作日当作交易日的默认日历
// 法定节假日会被当成交易日照常轮询，数据停更，触发状态不会变化
type WeekdayCalendar struct{}

func (WeekdayCalendar) IsTradingDay(t time.Time) bool {
	wd := t.Weekday()
	return wd != time.Saturday && wd != time.Sunday
}
