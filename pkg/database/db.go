package database

import (
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"RSIRadar/pkg/config"
	"RSIRadar/pkg/model"
)

// DB 数据库连接封装，按领域拆分访问器
type DB struct {
	db *gorm.DB
}

// New 连接数据库并迁移表结构
func New(cfg *config.Config) (*DB, error) {
	dbCfg := cfg.Database
	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		dbCfg.Host, dbCfg.Port, dbCfg.User, dbCfg.Password, dbCfg.DBName, dbCfg.SSLMode,
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Warn),
		TranslateError: true, // 唯一约束冲突翻译为gorm.ErrDuplicatedKey
	})
	if err != nil {
		return nil, fmt.Errorf("连接数据库失败: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("获取底层连接失败: %w", err)
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)

	if err := db.AutoMigrate(&model.Rule{}, &model.WhitelistUser{}, &model.AlertRecord{}); err != nil {
		return nil, fmt.Errorf("迁移表结构失败: %w", err)
	}

	return &DB{db: db}, nil
}

// Rule 规则访问器
func (d *DB) Rule() *RuleDB {
	return &RuleDB{db: d.db}
}

// Whitelist 白名单访问器
func (d *DB) Whitelist() *WhitelistDB {
	return &WhitelistDB{db: d.db}
}

// Alert 提醒记录访问器
func (d *DB) Alert() *AlertDB {
	return &AlertDB{db: d.db}
}

// Briefing 每日简报所需的组合视图
func (d *DB) Briefing() *BriefingView {
	return &BriefingView{
		whitelist: d.Whitelist(),
		rules:     d.Rule(),
	}
}

// BriefingView 组合白名单和规则两张表，实现引擎的简报存储接口
type BriefingView struct {
	whitelist *WhitelistDB
	rules     *RuleDB
}

func (b *BriefingView) BriefingUsers() ([]int64, error) {
	return b.whitelist.BriefingUsers()
}

func (b *BriefingView) ListEnabledForUsers(userIDs []int64) ([]model.Rule, error) {
	return b.rules.ListEnabledForUsers(userIDs)
}

// Close 关闭数据库连接
func (d *DB) Close() error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
