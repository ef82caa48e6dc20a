package models

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/hexiao-next/internal/constants"

	"github.com/glebarez/sqlite" // 纯 Go SQLite 驱动（基于 modernc.org/sqlite）
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

// DBPoolConfig 数据库连接池配置
type DBPoolConfig struct {
	MaxOpenConns           int
	MaxIdleConns           int
	ConnMaxLifetimeSeconds int
	ConnMaxIdleTimeSeconds int
}

// InitDB 初始化数据库连接
func InitDB(driver, dsn string, pool DBPoolConfig) error {
	var err error
	normalized := strings.ToLower(strings.TrimSpace(driver))
	var dialector gorm.Dialector
	switch normalized {
	case "", "sqlite":
		// glebarez/sqlite 是基于 modernc.org/sqlite 的纯 Go 驱动
		dialector = sqlite.Open(dsn)
	case "postgres", "postgresql":
		dialector = postgres.Open(dsn)
	default:
		return fmt.Errorf("unsupported database driver: %s", driver)
	}
	DB, err = gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Info),
	})
	if err != nil {
		return err
	}

	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}
	applyDBPool(sqlDB, pool)
	return nil
}

func applyDBPool(sqlDB *sql.DB, pool DBPoolConfig) {
	if sqlDB == nil {
		return
	}
	if pool.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(pool.MaxOpenConns)
	}
	if pool.MaxIdleConns >= 0 {
		sqlDB.SetMaxIdleConns(pool.MaxIdleConns)
	}
	if pool.ConnMaxLifetimeSeconds > 0 {
		sqlDB.SetConnMaxLifetime(time.Duration(pool.ConnMaxLifetimeSeconds) * time.Second)
	}
	if pool.ConnMaxIdleTimeSeconds > 0 {
		sqlDB.SetConnMaxIdleTime(time.Duration(pool.ConnMaxIdleTimeSeconds) * time.Second)
	}
}

// AutoMigrate 自动迁移所有数据库表
func AutoMigrate() error {
	if err := DB.AutoMigrate(
		&User{},
		&Venue{},
		&Offer{},
		&Redemption{},
		&RedemptionAudit{},
		&StaffQRToken{},
		&OnboardToken{},
		&QRBinding{},
		&RosterMember{},
	); err != nil {
		return err
	}
	return EnsureRedemptionInflightIndex(DB)
}

// EnsureRedemptionInflightIndex 建立进行中核销单的部分唯一索引
// 同一用户同一活动至多一张进行中（pending/verified/approved）核销单。
// 发起时的事务内计数复核在 postgres 默认隔离级别下挡不住两笔并发事务
// 同时计数为零再各自插入，该约束是最终兜底：后插入的一方收到唯一冲突。
func EnsureRedemptionInflightIndex(db *gorm.DB) error {
	stmt := fmt.Sprintf(
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_redemptions_inflight_user_offer "+
			"ON redemptions (user_id, offer_id) WHERE status IN ('%s', '%s', '%s')",
		constants.RedemptionStatusPending,
		constants.RedemptionStatusVerified,
		constants.RedemptionStatusApproved,
	)
	return db.Exec(stmt).Error
}
