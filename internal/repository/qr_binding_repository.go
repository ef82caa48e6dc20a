package repository

import (
	"errors"

	"github.com/hexiao-next/internal/constants"
	"github.com/hexiao-next/internal/models"

	"gorm.io/gorm"
)

// QRBindingRepository 实体码绑定数据访问接口
type QRBindingRepository interface {
	GetActiveByCode(code string) (*models.QRBinding, error)
	BindMain(binding *models.QRBinding) error
	Create(binding *models.QRBinding) error
	Revoke(id uint) (bool, error)
	ListByVenue(venueID uint) ([]models.QRBinding, error)
	WithTx(tx *gorm.DB) *GormQRBindingRepository
}

// GormQRBindingRepository GORM 实现
type GormQRBindingRepository struct {
	db *gorm.DB
}

// NewQRBindingRepository 创建实体码绑定仓库
func NewQRBindingRepository(db *gorm.DB) *GormQRBindingRepository {
	return &GormQRBindingRepository{db: db}
}

// WithTx 绑定事务
func (r *GormQRBindingRepository) WithTx(tx *gorm.DB) *GormQRBindingRepository {
	if tx == nil {
		return r
	}
	return &GormQRBindingRepository{db: tx}
}

// GetActiveByCode 根据码值获取 active 状态的绑定
func (r *GormQRBindingRepository) GetActiveByCode(code string) (*models.QRBinding, error) {
	var binding models.QRBinding
	if err := r.db.Where("code = ? AND state = ?", code, constants.QRBindingStateActive).
		First(&binding).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &binding, nil
}

// BindMain 绑定门店主码（同一事务内吊销门店旧主码并写入新绑定）
// 保证任意时刻每家门店至多一条 active 主码。
func (r *GormQRBindingRepository) BindMain(binding *models.QRBinding) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.QRBinding{}).
			Where("venue_id = ? AND type = ?", binding.VenueID, constants.QRBindingTypeMain).
			Where("state = ?", constants.QRBindingStateActive).
			Update("state", constants.QRBindingStateRevoked).Error; err != nil {
			return err
		}
		return tx.Create(binding).Error
	})
}

// Create 创建绑定（桌位码等，不做互斥吊销）
func (r *GormQRBindingRepository) Create(binding *models.QRBinding) error {
	return r.db.Create(binding).Error
}

// Revoke 吊销绑定
func (r *GormQRBindingRepository) Revoke(id uint) (bool, error) {
	res := r.db.Model(&models.QRBinding{}).
		Where("id = ? AND state = ?", id, constants.QRBindingStateActive).
		Update("state", constants.QRBindingStateRevoked)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// ListByVenue 获取门店全部绑定
func (r *GormQRBindingRepository) ListByVenue(venueID uint) ([]models.QRBinding, error) {
	var bindings []models.QRBinding
	if err := r.db.Where("venue_id = ?", venueID).
		Order("id desc").Find(&bindings).Error; err != nil {
		return nil, err
	}
	return bindings, nil
}
