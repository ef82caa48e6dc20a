package repository

import (
	"errors"
	"strings"
	"time"

	"github.com/hexiao-next/internal/constants"
	"github.com/hexiao-next/internal/models"

	"gorm.io/gorm"
)

// errInflightDuplicate 唯一索引兜底命中：另一并发事务已插入进行中核销单
var errInflightDuplicate = errors.New("redemption: concurrent in-flight duplicate")

// RedemptionRepository 核销单数据访问接口
type RedemptionRepository interface {
	GetByID(id uint) (*models.Redemption, error)
	GetByNo(redemptionNo string) (*models.Redemption, error)
	CreateGuarded(redemption *models.Redemption, maxPerUser int, now time.Time) (bool, error)
	UpdateStatusIf(id uint, fromStatuses []string, updates map[string]interface{}) (bool, error)
	CountByUserOffer(offerID, userID uint, statuses []string) (int64, error)
	LatestByUserOffer(offerID, userID uint) (*models.Redemption, error)
	CountDistinctUsersByDevice(fingerprint string) (int64, error)
	CountByUserSince(userID uint, since time.Time) (int64, error)
	CountBadByUserSince(userID uint, since time.Time) (int64, error)
	CountRedeemedByUserVenue(userID, venueID uint) (int64, error)
	ListByUser(filter RedemptionListFilter) ([]models.Redemption, int64, error)
	WithTx(tx *gorm.DB) *GormRedemptionRepository
}

// RedemptionListFilter 核销单列表筛选
type RedemptionListFilter struct {
	UserID   uint
	VenueID  uint
	Status   string
	Page     int
	PageSize int
}

// GormRedemptionRepository GORM 实现
type GormRedemptionRepository struct {
	db *gorm.DB
}

// NewRedemptionRepository 创建核销单仓库
func NewRedemptionRepository(db *gorm.DB) *GormRedemptionRepository {
	return &GormRedemptionRepository{db: db}
}

// WithTx 绑定事务
func (r *GormRedemptionRepository) WithTx(tx *gorm.DB) *GormRedemptionRepository {
	if tx == nil {
		return r
	}
	return &GormRedemptionRepository{db: tx}
}

// GetByID 根据ID获取核销单
func (r *GormRedemptionRepository) GetByID(id uint) (*models.Redemption, error) {
	var redemption models.Redemption
	if err := r.db.First(&redemption, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &redemption, nil
}

// GetByNo 根据核销单号获取核销单
func (r *GormRedemptionRepository) GetByNo(redemptionNo string) (*models.Redemption, error) {
	var redemption models.Redemption
	if err := r.db.Where("redemption_no = ?", redemptionNo).First(&redemption).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &redemption, nil
}

// CreateGuarded 创建核销单（事务内复核冷却期与每人限额，关闭并发窗口）
// 服务层已做同样的前置校验，这里的复核保证并发发起时至多一单成立。
// 计数复核之外，redemptions 上的进行中部分唯一索引（见
// models.EnsureRedemptionInflightIndex）兜底两笔事务同时计数为零的情形：
// 唯一冲突视为竞争失败，返回 created=false 而非错误。
func (r *GormRedemptionRepository) CreateGuarded(redemption *models.Redemption, maxPerUser int, now time.Time) (bool, error) {
	created := false
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var active int64
		if err := tx.Model(&models.Redemption{}).
			Where("offer_id = ? AND user_id = ?", redemption.OfferID, redemption.UserID).
			Where("status NOT IN ?", []string{
				constants.RedemptionStatusRejected,
				constants.RedemptionStatusExpired,
				constants.RedemptionStatusFraudFlagged,
			}).
			Count(&active).Error; err != nil {
			return err
		}
		if maxPerUser > 0 && active >= int64(maxPerUser) {
			return nil
		}

		var inCooldown int64
		if err := tx.Model(&models.Redemption{}).
			Where("offer_id = ? AND user_id = ?", redemption.OfferID, redemption.UserID).
			Where("status = ?", constants.RedemptionStatusRedeemed).
			Where("cooldown_until > ?", now).
			Count(&inCooldown).Error; err != nil {
			return err
		}
		if inCooldown > 0 {
			return nil
		}

		var pending int64
		if err := tx.Model(&models.Redemption{}).
			Where("offer_id = ? AND user_id = ?", redemption.OfferID, redemption.UserID).
			Where("status IN ?", []string{
				constants.RedemptionStatusPending,
				constants.RedemptionStatusVerified,
				constants.RedemptionStatusApproved,
			}).
			Count(&pending).Error; err != nil {
			return err
		}
		if pending > 0 {
			return nil
		}

		if err := tx.Create(redemption).Error; err != nil {
			if isUniqueViolation(err) {
				return errInflightDuplicate
			}
			return err
		}
		created = true
		return nil
	})
	if errors.Is(err, errInflightDuplicate) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return created, nil
}

// isUniqueViolation 判断是否为唯一约束冲突（兼容 sqlite 与 postgres 驱动的报错）
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value violates unique constraint")
}

// UpdateStatusIf 条件状态迁移（UPDATE ... WHERE status IN ?，按影响行数判定归属）
// 并发竞争同一迁移时只有一方影响行数为 1，其余视为失败。
func (r *GormRedemptionRepository) UpdateStatusIf(id uint, fromStatuses []string, updates map[string]interface{}) (bool, error) {
	if len(fromStatuses) == 0 {
		return false, errors.New("update status: empty source status set")
	}
	res := r.db.Model(&models.Redemption{}).
		Where("id = ?", id).
		Where("status IN ?", fromStatuses).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// CountByUserOffer 统计用户在某活动下处于指定状态的核销单数
func (r *GormRedemptionRepository) CountByUserOffer(offerID, userID uint, statuses []string) (int64, error) {
	query := r.db.Model(&models.Redemption{}).
		Where("offer_id = ? AND user_id = ?", offerID, userID)
	if len(statuses) > 0 {
		query = query.Where("status IN ?", statuses)
	}
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// LatestByUserOffer 获取用户在某活动下最近一张核销单
func (r *GormRedemptionRepository) LatestByUserOffer(offerID, userID uint) (*models.Redemption, error) {
	var redemption models.Redemption
	if err := r.db.Where("offer_id = ? AND user_id = ?", offerID, userID).
		Order("id desc").First(&redemption).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &redemption, nil
}

// CountDistinctUsersByDevice 统计设备指纹关联的去重用户数
func (r *GormRedemptionRepository) CountDistinctUsersByDevice(fingerprint string) (int64, error) {
	if fingerprint == "" {
		return 0, nil
	}
	var count int64
	if err := r.db.Model(&models.Redemption{}).
		Where("device_fingerprint = ?", fingerprint).
		Distinct("user_id").
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// CountByUserSince 统计用户自指定时间以来发起的核销单数
func (r *GormRedemptionRepository) CountByUserSince(userID uint, since time.Time) (int64, error) {
	var count int64
	if err := r.db.Model(&models.Redemption{}).
		Where("user_id = ?", userID).
		Where("created_at >= ?", since).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// CountBadByUserSince 统计用户自指定时间以来被拒绝/标记欺诈的核销单数
func (r *GormRedemptionRepository) CountBadByUserSince(userID uint, since time.Time) (int64, error) {
	var count int64
	if err := r.db.Model(&models.Redemption{}).
		Where("user_id = ?", userID).
		Where("status IN ?", []string{
			constants.RedemptionStatusRejected,
			constants.RedemptionStatusFraudFlagged,
		}).
		Where("created_at >= ?", since).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// CountRedeemedByUserVenue 统计用户在某门店完成核销的次数（首访判定用）
func (r *GormRedemptionRepository) CountRedeemedByUserVenue(userID, venueID uint) (int64, error) {
	var count int64
	if err := r.db.Model(&models.Redemption{}).
		Where("user_id = ? AND venue_id = ?", userID, venueID).
		Where("status = ?", constants.RedemptionStatusRedeemed).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// ListByUser 获取用户核销单列表
func (r *GormRedemptionRepository) ListByUser(filter RedemptionListFilter) ([]models.Redemption, int64, error) {
	query := r.db.Model(&models.Redemption{}).Where("user_id = ?", filter.UserID)

	if filter.VenueID > 0 {
		query = query.Where("venue_id = ?", filter.VenueID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)

	var redemptions []models.Redemption
	if err := query.Order("id desc").Find(&redemptions).Error; err != nil {
		return nil, 0, err
	}
	return redemptions, total, nil
}
