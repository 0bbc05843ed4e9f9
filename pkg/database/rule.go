package database

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"RSIRadar/pkg/model"
)

// ErrRuleNotFound 规则不存在或不属于该用户
var ErrRuleNotFound = errors.New("规则不存在")

// ErrDuplicateRule 完全相同的规则（用户+代码+区间）已存在
var ErrDuplicateRule = errors.New("相同的规则已存在")

type RuleDB struct {
	db *gorm.DB
}

// Create 创建规则，违反唯一约束时返回ErrDuplicateRule
func (r *RuleDB) Create(rule *model.Rule) error {
	if rule.RSIMin >= rule.RSIMax {
		return fmt.Errorf("RSI区间非法: %g >= %g", rule.RSIMin, rule.RSIMax)
	}
	if rule.TriggerState == "" {
		rule.TriggerState = model.TriggerIdle
	}
	err := r.db.Create(rule).Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicateRule
		}
		return fmt.Errorf("创建规则失败: %w", err)
	}
	return nil
}

// ListEnabled 所有启用的规则，引擎每个tick读取一次
func (r *RuleDB) ListEnabled() ([]model.Rule, error) {
	var rules []model.Rule
	if err := r.db.Where("enabled = ?", true).Order("id").Find(&rules).Error; err != nil {
		return nil, fmt.Errorf("查询启用规则失败: %w", err)
	}
	return rules, nil
}

// ListByUser 某用户的全部规则
func (r *RuleDB) ListByUser(userID int64) ([]model.Rule, error) {
	var rules []model.Rule
	if err := r.db.Where("user_id = ?", userID).Order("id").Find(&rules).Error; err != nil {
		return nil, fmt.Errorf("查询用户规则失败: %w", err)
	}
	return rules, nil
}

// ListEnabledForUsers 一批用户的启用规则，每日简报用
func (r *RuleDB) ListEnabledForUsers(userIDs []int64) ([]model.Rule, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}
	var rules []model.Rule
	if err := r.db.Where("enabled = ? AND user_id IN ?", true, userIDs).Order("id").Find(&rules).Error; err != nil {
		return nil, fmt.Errorf("查询简报规则失败: %w", err)
	}
	return rules, nil
}

// Delete 删除用户自己的规则
func (r *RuleDB) Delete(id uint, userID int64) error {
	res := r.db.Where("id = ? AND user_id = ?", id, userID).Delete(&model.Rule{})
	if res.Error != nil {
		return fmt.Errorf("删除规则失败: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrRuleNotFound
	}
	return nil
}

// SetEnabled 启停规则，停用不清空触发状态
func (r *RuleDB) SetEnabled(id uint, userID int64, enabled bool) error {
	res := r.db.Model(&model.Rule{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("enabled", enabled)
	if res.Error != nil {
		return fmt.Errorf("更新规则状态失败: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrRuleNotFound
	}
	return nil
}

// SaveTriggerState 回写触发状态机的两个字段
// 单条UPDATE保证原子性：命令层并发修改同一行时以行级更新为准
func (r *RuleDB) SaveTriggerState(id uint, state model.TriggerState, sent int) error {
	err := r.db.Model(&model.Rule{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"trigger_state":      state,
			"notifications_sent": sent,
		}).Error
	if err != nil {
		return fmt.Errorf("保存触发状态失败: %w", err)
	}
	return nil
}

// Stats 规则统计，状态接口用
func (r *RuleDB) Stats() (map[string]int64, error) {
	stats := make(map[string]int64)

	var total, enabled, active int64
	if err := r.db.Model(&model.Rule{}).Count(&total).Error; err != nil {
		return nil, fmt.Errorf("统计规则失败: %w", err)
	}
	if err := r.db.Model(&model.Rule{}).Where("enabled = ?", true).Count(&enabled).Error; err != nil {
		return nil, fmt.Errorf("统计启用规则失败: %w", err)
	}
	if err := r.db.Model(&model.Rule{}).Where("trigger_state = ?", model.TriggerActive).Count(&active).Error; err != nil {
		return nil, fmt.Errorf("统计触发中规则失败: %w", err)
	}

	stats["total"] = total
	stats["enabled"] = enabled
	stats["active"] = active
	return stats, nil
}
