package repository

import (
	"errors"

	"github.com/hexiao-next/internal/models"

	"gorm.io/gorm"
)

// VenueRepository 门店数据访问接口
type VenueRepository interface {
	GetByID(id uint) (*models.Venue, error)
	Create(venue *models.Venue) error
	Update(venue *models.Venue) error
	List(filter VenueListFilter) ([]models.Venue, int64, error)
	WithTx(tx *gorm.DB) *GormVenueRepository
}

// VenueListFilter 门店列表筛选
type VenueListFilter struct {
	Keyword  string
	IsActive *bool
	Page     int
	PageSize int
}

// GormVenueRepository GORM 实现
type GormVenueRepository struct {
	db *gorm.DB
}

// NewVenueRepository 创建门店仓库
func NewVenueRepository(db *gorm.DB) *GormVenueRepository {
	return &GormVenueRepository{db: db}
}

// WithTx 绑定事务
func (r *GormVenueRepository) WithTx(tx *gorm.DB) *GormVenueRepository {
	if tx == nil {
		return r
	}
	return &GormVenueRepository{db: tx}
}

// GetByID 根据ID获取门店
func (r *GormVenueRepository) GetByID(id uint) (*models.Venue, error) {
	var venue models.Venue
	if err := r.db.First(&venue, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &venue, nil
}

// Create 创建门店
func (r *GormVenueRepository) Create(venue *models.Venue) error {
	return r.db.Create(venue).Error
}

// Update 更新门店
func (r *GormVenueRepository) Update(venue *models.Venue) error {
	return r.db.Save(venue).Error
}

// List 获取门店列表
func (r *GormVenueRepository) List(filter VenueListFilter) ([]models.Venue, int64, error) {
	query := r.db.Model(&models.Venue{})

	if filter.Keyword != "" {
		query = query.Where("name LIKE ?", "%"+filter.Keyword+"%")
	}
	if filter.IsActive != nil {
		query = query.Where("is_active = ?", *filter.IsActive)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)

	var venues []models.Venue
	if err := query.Order("id desc").Find(&venues).Error; err != nil {
		return nil, 0, err
	}
	return venues, total, nil
}
