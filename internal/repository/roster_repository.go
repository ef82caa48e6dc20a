package repository

import (
	"errors"
	"time"

	"github.com/hexiao-next/internal/constants"
	"github.com/hexiao-next/internal/models"

	"gorm.io/gorm"
)

// RosterRepository 门店员工名册数据访问接口
type RosterRepository interface {
	GetActive(venueID, userID uint) (*models.RosterMember, error)
	CreateOrReactivate(member *models.RosterMember) error
	Disable(venueID, userID uint) (bool, error)
	ListByVenue(venueID uint) ([]models.RosterMember, error)
	WithTx(tx *gorm.DB) *GormRosterRepository
}

// GormRosterRepository GORM 实现
type GormRosterRepository struct {
	db *gorm.DB
}

// NewRosterRepository 创建名册仓库
func NewRosterRepository(db *gorm.DB) *GormRosterRepository {
	return &GormRosterRepository{db: db}
}

// WithTx 绑定事务
func (r *GormRosterRepository) WithTx(tx *gorm.DB) *GormRosterRepository {
	if tx == nil {
		return r
	}
	return &GormRosterRepository{db: tx}
}

// GetActive 获取员工在门店的 active 名册记录
func (r *GormRosterRepository) GetActive(venueID, userID uint) (*models.RosterMember, error) {
	var member models.RosterMember
	if err := r.db.Where("venue_id = ? AND user_id = ?", venueID, userID).
		Where("state = ?", constants.RosterStateActive).
		First(&member).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &member, nil
}

// CreateOrReactivate 创建名册记录；(venue_id, user_id) 已存在时更新角色并重新激活
func (r *GormRosterRepository) CreateOrReactivate(member *models.RosterMember) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var existing models.RosterMember
		err := tx.Where("venue_id = ? AND user_id = ?", member.VenueID, member.UserID).
			First(&existing).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return tx.Create(member).Error
			}
			return err
		}
		updates := map[string]interface{}{
			"role":         member.Role,
			"state":        constants.RosterStateActive,
			"enrolled_at":  member.EnrolledAt,
			"enrolled_via": member.EnrolledVia,
		}
		if err := tx.Model(&models.RosterMember{}).
			Where("id = ?", existing.ID).Updates(updates).Error; err != nil {
			return err
		}
		member.ID = existing.ID
		return nil
	})
}

// Disable 停用员工名册记录
func (r *GormRosterRepository) Disable(venueID, userID uint) (bool, error) {
	res := r.db.Model(&models.RosterMember{}).
		Where("venue_id = ? AND user_id = ?", venueID, userID).
		Where("state = ?", constants.RosterStateActive).
		Updates(map[string]interface{}{
			"state":      constants.RosterStateDisabled,
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// ListByVenue 获取门店名册
func (r *GormRosterRepository) ListByVenue(venueID uint) ([]models.RosterMember, error) {
	var members []models.RosterMember
	if err := r.db.Where("venue_id = ?", venueID).
		Order("id desc").Find(&members).Error; err != nil {
		return nil, err
	}
	return members, nil
}
