package database

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"RSIRadar/pkg/model"
)

// ErrNotWhitelisted 用户不在白名单中
var ErrNotWhitelisted = errors.New("用户不在白名单中")

type WhitelistDB struct {
	db *gorm.DB
}

// Add 加入白名单，重复添加不报错
func (w *WhitelistDB) Add(userID int64) error {
	entry := model.WhitelistUser{UserID: userID}
	err := w.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&entry).Error
	if err != nil {
		return fmt.Errorf("添加白名单失败: %w", err)
	}
	return nil
}

// Remove 移出白名单
func (w *WhitelistDB) Remove(userID int64) error {
	res := w.db.Delete(&model.WhitelistUser{}, "user_id = ?", userID)
	if res.Error != nil {
		return fmt.Errorf("移除白名单失败: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotWhitelisted
	}
	return nil
}

// List 全部白名单用户
func (w *WhitelistDB) List() ([]model.WhitelistUser, error) {
	var users []model.WhitelistUser
	if err := w.db.Order("created_at").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("查询白名单失败: %w", err)
	}
	return users, nil
}

// IsAuthorized 用户是否在白名单中
// 查询失败按未授权处理：宁可漏发也不越权投递
func (w *WhitelistDB) IsAuthorized(userID int64) bool {
	var count int64
	if err := w.db.Model(&model.WhitelistUser{}).Where("user_id = ?", userID).Count(&count).Error; err != nil {
		return false
	}
	return count > 0
}

// SetBriefing 开关每日简报
func (w *WhitelistDB) SetBriefing(userID int64, enabled bool) error {
	res := w.db.Model(&model.WhitelistUser{}).
		Where("user_id = ?", userID).
		Update("daily_briefing", enabled)
	if res.Error != nil {
		return fmt.Errorf("更新简报开关失败: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotWhitelisted
	}
	return nil
}

// BriefingEnabled 用户是否开启了每日简报
func (w *WhitelistDB) BriefingEnabled(userID int64) bool {
	var count int64
	if err := w.db.Model(&model.WhitelistUser{}).
		Where("user_id = ? AND daily_briefing = ?", userID, true).
		Count(&count).Error; err != nil {
		return false
	}
	return count > 0
}

// BriefingUsers 开启了每日简报的用户ID列表
func (w *WhitelistDB) BriefingUsers() ([]int64, error) {
	var ids []int64
	err := w.db.Model(&model.WhitelistUser{}).
		Where("daily_briefing = ?", true).
		Pluck("user_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("查询简报用户失败: %w", err)
	}
	return ids, nil
}
