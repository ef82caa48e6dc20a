package models

import (
	"time"
)

// StaffQRToken 员工轮换码表
// 员工出示、周期轮换的短时效在场凭证；同一 (venue_id, issuer_user_id)
// 同时最多存在一条 active 记录，重新签发时在同一事务内吊销旧记录。
type StaffQRToken struct {
	ID              uint      `gorm:"primarykey" json:"id"`                                          // 主键
	VenueID         uint      `gorm:"not null;index:idx_staff_qr_scope" json:"venue_id"`             // 门店ID
	IssuerUserID    uint      `gorm:"not null;index:idx_staff_qr_scope" json:"issuer_user_id"`       // 签发员工ID
	IssuerSessionID string    `gorm:"type:varchar(64)" json:"issuer_session_id"`                     // 签发会话ID
	RoleScope       string    `gorm:"type:varchar(20);not null" json:"role_scope"`                   // 角色范围
	TokenHash       string    `gorm:"type:varchar(128);uniqueIndex;not null" json:"-"`               // 令牌哈希（原文仅签发时返回一次）
	TTLSeconds      int       `gorm:"not null" json:"ttl_seconds"`                                   // 有效期（秒）
	IssuedAt        time.Time `gorm:"not null" json:"issued_at"`                                     // 签发时间
	ExpiresAt       time.Time `gorm:"not null;index" json:"expires_at"`                              // 失效时间
	State           string    `gorm:"type:varchar(20);not null;default:'active';index" json:"state"` // 状态（active/expired/revoked）
	CreatedAt       time.Time `json:"created_at"`                                                    // 创建时间
	UpdatedAt       time.Time `json:"updated_at"`                                                    // 更新时间
}

// TableName 指定表名
func (StaffQRToken) TableName() string {
	return "staff_qr_tokens"
}
