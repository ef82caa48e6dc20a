package repository

import (
	"errors"

	"github.com/hexiao-next/internal/models"

	"gorm.io/gorm"
)

// OfferRepository 活动数据访问接口
type OfferRepository interface {
	GetByID(id uint) (*models.Offer, error)
	Create(offer *models.Offer) error
	Update(offer *models.Offer) error
	List(filter OfferListFilter) ([]models.Offer, int64, error)
	IncrementRedemptions(id uint) (bool, error)
	WithTx(tx *gorm.DB) *GormOfferRepository
}

// OfferListFilter 活动列表筛选
type OfferListFilter struct {
	VenueID  uint
	IsActive *bool
	Page     int
	PageSize int
}

// GormOfferRepository GORM 实现
type GormOfferRepository struct {
	db *gorm.DB
}

// NewOfferRepository 创建活动仓库
func NewOfferRepository(db *gorm.DB) *GormOfferRepository {
	return &GormOfferRepository{db: db}
}

// WithTx 绑定事务
func (r *GormOfferRepository) WithTx(tx *gorm.DB) *GormOfferRepository {
	if tx == nil {
		return r
	}
	return &GormOfferRepository{db: tx}
}

// GetByID 根据ID获取活动
func (r *GormOfferRepository) GetByID(id uint) (*models.Offer, error) {
	var offer models.Offer
	if err := r.db.First(&offer, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &offer, nil
}

// Create 创建活动
func (r *GormOfferRepository) Create(offer *models.Offer) error {
	return r.db.Create(offer).Error
}

// Update 更新活动
func (r *GormOfferRepository) Update(offer *models.Offer) error {
	return r.db.Save(offer).Error
}

// List 获取活动列表
func (r *GormOfferRepository) List(filter OfferListFilter) ([]models.Offer, int64, error) {
	query := r.db.Model(&models.Offer{})

	if filter.VenueID > 0 {
		query = query.Where("venue_id = ?", filter.VenueID)
	}
	if filter.IsActive != nil {
		query = query.Where("is_active = ?", *filter.IsActive)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)

	var offers []models.Offer
	if err := query.Order("id desc").Find(&offers).Error; err != nil {
		return nil, 0, err
	}
	return offers, total, nil
}

// IncrementRedemptions 累加全局核销计数（带容量护栏的条件更新）
// max_total_redemptions 为 0 表示不限量；返回是否成功占用名额。
func (r *GormOfferRepository) IncrementRedemptions(id uint) (bool, error) {
	res := r.db.Model(&models.Offer{}).
		Where("id = ?", id).
		Where("max_total_redemptions = 0 OR current_redemptions < max_total_redemptions").
		UpdateColumn("current_redemptions", gorm.Expr("current_redemptions + 1"))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
