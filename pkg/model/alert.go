package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AlertRecord 一次已发出的RSI提醒
// 引擎每发送一条订阅者通知就落库一条记录，便于追溯和下游消费
type AlertRecord struct {
	ID        string    `gorm:"type:uuid;primaryKey" json:"id"`
	RuleID    uint      `gorm:"not null;index" json:"rule_id"`
	UserID    int64     `gorm:"not null;index" json:"user_id"`
	Symbol    string    `gorm:"type:varchar(12);index" json:"symbol"`
	AssetName string    `gorm:"type:varchar(64)" json:"asset_name"`
	RSIValue  float64   `gorm:"type:decimal(6,2)" json:"rsi_value"`
	RSIMin    float64   `gorm:"type:decimal(6,2)" json:"rsi_min"`
	RSIMax    float64   `gorm:"type:decimal(6,2)" json:"rsi_max"`
	Sequence  int       `json:"sequence"` // 本次触发周期内第几条通知
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

func (a *AlertRecord) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	return nil
}

func (AlertRecord) TableName() string {
	return "alert_records"
}
