package repository

import (
	"github.com/hexiao-next/internal/models"

	"gorm.io/gorm"
)

// RedemptionAuditRepository 核销审计数据访问接口（只追加）
type RedemptionAuditRepository interface {
	Create(audit *models.RedemptionAudit) error
	ListByRedemption(redemptionID uint) ([]models.RedemptionAudit, error)
	WithTx(tx *gorm.DB) *GormRedemptionAuditRepository
}

// GormRedemptionAuditRepository GORM 实现
type GormRedemptionAuditRepository struct {
	db *gorm.DB
}

// NewRedemptionAuditRepository 创建核销审计仓库
func NewRedemptionAuditRepository(db *gorm.DB) *GormRedemptionAuditRepository {
	return &GormRedemptionAuditRepository{db: db}
}

// WithTx 绑定事务
func (r *GormRedemptionAuditRepository) WithTx(tx *gorm.DB) *GormRedemptionAuditRepository {
	if tx == nil {
		return r
	}
	return &GormRedemptionAuditRepository{db: tx}
}

// Create 追加审计记录
func (r *GormRedemptionAuditRepository) Create(audit *models.RedemptionAudit) error {
	return r.db.Create(audit).Error
}

// ListByRedemption 按核销单获取审计记录（时间正序）
func (r *GormRedemptionAuditRepository) ListByRedemption(redemptionID uint) ([]models.RedemptionAudit, error) {
	var audits []models.RedemptionAudit
	if err := r.db.Where("redemption_id = ?", redemptionID).
		Order("id asc").Find(&audits).Error; err != nil {
		return nil, err
	}
	return audits, nil
}
