package repository

import (
	"errors"

	"github.com/hexiao-next/internal/constants"
	"github.com/hexiao-next/internal/models"

	"gorm.io/gorm"
)

// StaffQRRepository 员工轮换码数据访问接口
type StaffQRRepository interface {
	GetActiveByHash(tokenHash string) (*models.StaffQRToken, error)
	RotateActive(token *models.StaffQRToken) error
	RevokeActive(venueID, issuerUserID uint) (int64, error)
	MarkExpired(id uint) (bool, error)
	WithTx(tx *gorm.DB) *GormStaffQRRepository
}

// GormStaffQRRepository GORM 实现
type GormStaffQRRepository struct {
	db *gorm.DB
}

// NewStaffQRRepository 创建员工轮换码仓库
func NewStaffQRRepository(db *gorm.DB) *GormStaffQRRepository {
	return &GormStaffQRRepository{db: db}
}

// WithTx 绑定事务
func (r *GormStaffQRRepository) WithTx(tx *gorm.DB) *GormStaffQRRepository {
	if tx == nil {
		return r
	}
	return &GormStaffQRRepository{db: tx}
}

// GetActiveByHash 根据令牌哈希获取 active 状态的轮换码
func (r *GormStaffQRRepository) GetActiveByHash(tokenHash string) (*models.StaffQRToken, error) {
	var token models.StaffQRToken
	if err := r.db.Where("token_hash = ? AND state = ?", tokenHash, constants.StaffQRStateActive).
		First(&token).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &token, nil
}

// RotateActive 轮换签发（同一事务内吊销同签发者的旧 active 码并写入新码）
// 保证任意时刻同一 (venue_id, issuer_user_id) 至多一条 active 记录。
func (r *GormStaffQRRepository) RotateActive(token *models.StaffQRToken) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.StaffQRToken{}).
			Where("venue_id = ? AND issuer_user_id = ?", token.VenueID, token.IssuerUserID).
			Where("state = ?", constants.StaffQRStateActive).
			Update("state", constants.StaffQRStateRevoked).Error; err != nil {
			return err
		}
		return tx.Create(token).Error
	})
}

// RevokeActive 吊销签发者当前的 active 轮换码，返回吊销条数
func (r *GormStaffQRRepository) RevokeActive(venueID, issuerUserID uint) (int64, error) {
	res := r.db.Model(&models.StaffQRToken{}).
		Where("venue_id = ? AND issuer_user_id = ?", venueID, issuerUserID).
		Where("state = ?", constants.StaffQRStateActive).
		Update("state", constants.StaffQRStateRevoked)
	return res.RowsAffected, res.Error
}

// MarkExpired 惰性过期：校验时发现已过期的 active 码就地转为 expired
func (r *GormStaffQRRepository) MarkExpired(id uint) (bool, error) {
	res := r.db.Model(&models.StaffQRToken{}).
		Where("id = ? AND state = ?", id, constants.StaffQRStateActive).
		Update("state", constants.StaffQRStateExpired)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
