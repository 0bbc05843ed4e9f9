package model

import (
	"time"
)

// DailyBar 单日K线（日线收盘）
type DailyBar struct {
	Date  time.Time `json:"date"`
	Close float64   `json:"close"`
}

// Quote 实时行情快照
type Quote struct {
	Symbol    string    `json:"symbol"`
	Name      string    `json:"name"`
	Price     float64   `json:"price"`
	PrevClose float64   `json:"prev_close"`
	Timestamp time.Time `json:"timestamp"`
}
