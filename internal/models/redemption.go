package models

import (
	"time"

	"gorm.io/gorm"

	"github.com/hexiao-next/internal/constants"
)

// Redemption 核销单表（本服务的核心可变实体）
type Redemption struct {
	ID           uint   `gorm:"primarykey" json:"id"`                                       // 主键
	RedemptionNo string `gorm:"type:varchar(40);uniqueIndex;not null" json:"redemption_no"` // 核销单号
	OfferID      uint   `gorm:"not null;index:idx_redemptions_user_offer" json:"offer_id"`  // 活动ID
	UserID       uint   `gorm:"not null;index:idx_redemptions_user_offer" json:"user_id"`   // 用户ID
	VenueID      uint   `gorm:"not null;index" json:"venue_id"`                             // 门店ID
	Mode         string `gorm:"type:varchar(20);not null" json:"mode"`                      // 核销方式（otc/staff_qr）
	Status       string `gorm:"type:varchar(20);not null;index" json:"status"`              // 状态

	OTCHash      string    `gorm:"type:varchar(128);index" json:"-"` // 一次性码哈希（原文不落库）
	OTCExpiresAt time.Time `gorm:"index" json:"otc_expires_at"`      // 一次性码失效时间

	// 在场信号快照
	ClaimLatitude   float64    `gorm:"not null;default:0" json:"claim_latitude"`       // 上报纬度
	ClaimLongitude  float64    `gorm:"not null;default:0" json:"claim_longitude"`      // 上报经度
	ClaimAccuracyM  float64    `gorm:"not null;default:0" json:"claim_accuracy_m"`     // 上报定位精度（米）
	ClaimSSID       string     `gorm:"type:varchar(100)" json:"claim_ssid"`            // 上报 SSID
	ClaimBSSIDHash  string     `gorm:"type:varchar(128)" json:"-"`                     // 上报 BSSID（单向哈希存储）
	ClaimStationary bool       `gorm:"not null;default:false" json:"claim_stationary"` // 设备是否静止
	LastScanAt      *time.Time `json:"last_scan_at"`                                   // 最近一次扫码时间

	DeviceFingerprint string      `gorm:"type:varchar(128);index" json:"device_fingerprint"` // 设备指纹
	RiskScore         int         `gorm:"not null;default:0" json:"risk_score"`              // 风险评分（0-100）
	FraudFlags        StringArray `gorm:"type:json" json:"fraud_flags"`                      // 风控标记

	CooldownUntil time.Time `gorm:"index" json:"cooldown_until"`                        // 冷却截止时间（创建时固定）
	Value         Money     `gorm:"type:decimal(20,2);not null;default:0" json:"value"` // 面值快照

	ApprovedBy *uint      `json:"approved_by"` // 审批员工ID
	ApprovedAt *time.Time `json:"approved_at"` // 审批时间
	RedeemedAt *time.Time `json:"redeemed_at"` // 核销完成时间

	CreatedAt time.Time      `gorm:"index" json:"created_at"` // 创建时间
	UpdatedAt time.Time      `json:"updated_at"`              // 更新时间
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`          // 软删除时间
}

// TableName 指定表名
func (Redemption) TableName() string {
	return "redemptions"
}

// RedemptionTerminalStatuses 终态集合（进入后不可再变更，仅允许追加审计）
var RedemptionTerminalStatuses = []string{
	constants.RedemptionStatusRedeemed,
	constants.RedemptionStatusRejected,
	constants.RedemptionStatusExpired,
	constants.RedemptionStatusFraudFlagged,
}

// IsTerminal 判断核销单是否处于终态
func (r *Redemption) IsTerminal() bool {
	if r == nil {
		return false
	}
	for _, status := range RedemptionTerminalStatuses {
		if r.Status == status {
			return true
		}
	}
	return false
}
