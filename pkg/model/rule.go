package model

import (
	"time"
)

// TriggerState 规则触发状态
type TriggerState string

const (
	// TriggerIdle RSI不在区间内，等待进入
	TriggerIdle TriggerState = "IDLE"
	// TriggerActive RSI已进入区间，正处于一次触发周期中
	TriggerActive TriggerState = "ACTIVE"
)

// Rule 监控规则：某个用户对某只标的设置的RSI区间
// ID为自增整数，用户在聊天命令中直接引用（/del 3）
type Rule struct {
	ID                uint         `gorm:"primaryKey" json:"id"`
	UserID            int64        `gorm:"not null;index;uniqueIndex:idx_user_symbol_band" json:"user_id"`
	Symbol            string       `gorm:"type:varchar(12);not null;index;uniqueIndex:idx_user_symbol_band" json:"symbol"`
	AssetName         string       `gorm:"type:varchar(64)" json:"asset_name"`
	RSIMin            float64      `gorm:"type:decimal(6,2);not null;uniqueIndex:idx_user_symbol_band" json:"rsi_min"`
	RSIMax            float64      `gorm:"type:decimal(6,2);not null;uniqueIndex:idx_user_symbol_band" json:"rsi_max"`
	Enabled           bool         `gorm:"default:true;index" json:"enabled"`
	TriggerState      TriggerState `gorm:"type:varchar(10);default:'IDLE'" json:"trigger_state"`
	NotificationsSent int          `gorm:"default:0" json:"notifications_sent"`
	CreatedAt         time.Time    `json:"created_at"`
	UpdatedAt         time.Time    `json:"updated_at"`
}

func (Rule) TableName() string {
	return "rules"
}

// InBand RSI值是否落在规则区间内（闭区间）
func (r *Rule) InBand(v float64) bool {
	return r.RSIMin <= v && v <= r.RSIMax
}
