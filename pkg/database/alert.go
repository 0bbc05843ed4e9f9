package database

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"RSIRadar/pkg/model"
)

type AlertDB struct {
	db *gorm.DB
}

// Record 引擎侧落库入口，失败只记日志，不影响评估循环
func (a *AlertDB) Record(ctx context.Context, alert model.AlertRecord) {
	if err := a.db.WithContext(ctx).Create(&alert).Error; err != nil {
		logrus.Errorf("保存提醒记录失败: %v", err)
	}
}

// RecentByUser 某用户最近的提醒记录
func (a *AlertDB) RecentByUser(userID int64, limit int) ([]model.AlertRecord, error) {
	var alerts []model.AlertRecord
	err := a.db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&alerts).Error
	if err != nil {
		return nil, fmt.Errorf("查询提醒记录失败: %w", err)
	}
	return alerts, nil
}
