package models

import (
	"time"

	"gorm.io/gorm"
)

// Offer 优惠活动表（由商户目录服务维护，本服务只读，仅回写已核销计数）
type Offer struct {
	ID                    uint           `gorm:"primarykey" json:"id"`                                  // 主键
	VenueID               uint           `gorm:"not null;index" json:"venue_id"`                        // 门店ID
	Title                 string         `gorm:"type:varchar(200);not null" json:"title"`               // 活动标题
	Value                 Money          `gorm:"type:decimal(20,2);not null;default:0" json:"value"`    // 优惠面值
	MinOTL                int            `gorm:"not null;default:0" json:"min_otl"`                     // 最低信任等级门槛
	MaxRedemptionsPerUser int            `gorm:"not null;default:1" json:"max_redemptions_per_user"`    // 每人核销上限
	CooldownHours         int            `gorm:"not null;default:24" json:"cooldown_hours"`             // 再次核销冷却（小时）
	QRRotationMinutes     int            `gorm:"not null;default:5" json:"qr_rotation_minutes"`         // 一次性码有效期（分钟）
	RequiresStaffApproval bool           `gorm:"not null;default:false" json:"requires_staff_approval"` // 是否需要员工审批
	ValidFrom             time.Time      `gorm:"index" json:"valid_from"`                               // 生效时间
	ValidUntil            time.Time      `gorm:"index" json:"valid_until"`                              // 失效时间
	MaxTotalRedemptions   int            `gorm:"not null;default:0" json:"max_total_redemptions"`       // 总核销上限（0 表示不限制）
	CurrentRedemptions    int            `gorm:"not null;default:0" json:"current_redemptions"`         // 已核销次数
	IsActive              bool           `gorm:"not null;default:true;index" json:"is_active"`          // 是否启用
	CreatedAt             time.Time      `gorm:"index" json:"created_at"`                               // 创建时间
	UpdatedAt             time.Time      `json:"updated_at"`                                            // 更新时间
	DeletedAt             gorm.DeletedAt `gorm:"index" json:"-"`                                        // 软删除时间
}

// TableName 指定表名
func (Offer) TableName() string {
	return "offers"
}

// OfferValidNow 判断活动在给定时间是否可用（时间作为参数传入，便于测试）
func OfferValidNow(offer *Offer, now time.Time) bool {
	if offer == nil || !offer.IsActive {
		return false
	}
	if now.Before(offer.ValidFrom) || now.After(offer.ValidUntil) {
		return false
	}
	return OfferHasCapacity(offer)
}

// OfferHasCapacity 判断活动总量是否未用尽
func OfferHasCapacity(offer *Offer) bool {
	if offer == nil {
		return false
	}
	if offer.MaxTotalRedemptions <= 0 {
		return true
	}
	return offer.CurrentRedemptions < offer.MaxTotalRedemptions
}
