package repository

import (
	"errors"
	"time"

	"github.com/hexiao-next/internal/constants"
	"github.com/hexiao-next/internal/models"

	"gorm.io/gorm"
)

// OnboardTokenRepository 入职令牌数据访问接口
type OnboardTokenRepository interface {
	Create(token *models.OnboardToken) error
	GetByHash(tokenHash string) (*models.OnboardToken, error)
	MarkUsedIfActive(id uint, usedBy uint, now time.Time) (bool, error)
	Revoke(id uint) (bool, error)
	WithTx(tx *gorm.DB) *GormOnboardTokenRepository
}

// GormOnboardTokenRepository GORM 实现
type GormOnboardTokenRepository struct {
	db *gorm.DB
}

// NewOnboardTokenRepository 创建入职令牌仓库
func NewOnboardTokenRepository(db *gorm.DB) *GormOnboardTokenRepository {
	return &GormOnboardTokenRepository{db: db}
}

// WithTx 绑定事务
func (r *GormOnboardTokenRepository) WithTx(tx *gorm.DB) *GormOnboardTokenRepository {
	if tx == nil {
		return r
	}
	return &GormOnboardTokenRepository{db: tx}
}

// Create 创建入职令牌
func (r *GormOnboardTokenRepository) Create(token *models.OnboardToken) error {
	return r.db.Create(token).Error
}

// GetByHash 根据令牌哈希获取入职令牌
func (r *GormOnboardTokenRepository) GetByHash(tokenHash string) (*models.OnboardToken, error) {
	var token models.OnboardToken
	if err := r.db.Where("token_hash = ?", tokenHash).First(&token).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &token, nil
}

// MarkUsedIfActive 将 active 令牌标记为已使用（条件更新，保证单次使用）
// 并发激活同一令牌时只有一方影响行数为 1。
func (r *GormOnboardTokenRepository) MarkUsedIfActive(id uint, usedBy uint, now time.Time) (bool, error) {
	res := r.db.Model(&models.OnboardToken{}).
		Where("id = ? AND state = ?", id, constants.OnboardStateActive).
		Where("expires_at > ?", now).
		Updates(map[string]interface{}{
			"state":   constants.OnboardStateUsed,
			"used_by": usedBy,
			"used_at": now,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// Revoke 吊销未使用的入职令牌
func (r *GormOnboardTokenRepository) Revoke(id uint) (bool, error) {
	res := r.db.Model(&models.OnboardToken{}).
		Where("id = ? AND state = ?", id, constants.OnboardStateActive).
		Update("state", constants.OnboardStateRevoked)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
