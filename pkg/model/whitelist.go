package model

import (
	"time"
)

// WhitelistUser 白名单用户，只有白名单内的用户能收到通知和使用命令
type WhitelistUser struct {
	UserID        int64     `gorm:"primaryKey" json:"user_id"`
	DailyBriefing bool      `gorm:"default:false" json:"daily_briefing"`
	CreatedAt     time.Time `json:"created_at"`
}

func (WhitelistUser) TableName() string {
	return "whitelist"
}
