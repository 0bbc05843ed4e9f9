package market

import (
	"time"
)

// A股交易时段（秒，自当日零点起），两端均为闭区间
const (
	morningOpen    = 9*3600 + 30*60
	morningClose   = 11*3600 + 30*60
	afternoonOpen  = 13 * 3600
	afternoonClose = 15 * 3600
)

// IsTradingTime 判断t是否处于交易时段内
// 只看钟面时间，不判断交易日；节假日过滤由Calendar承担
func IsTradingTime(t time.Time) bool {
	sec := t.Hour()*3600 + t.Minute()*60 + t.Second()
	return (sec >= morningOpen && sec <= morningClose) ||
		(sec >= afternoonOpen && sec <= afternoonClose)
}
