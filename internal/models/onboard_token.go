package models

import (
	"time"
)

// OnboardToken 入职令牌表
// 一次性使用的员工入职凭证，与轮换码分表存储，各自维护独立的载荷形态。
type OnboardToken struct {
	ID           uint       `gorm:"primarykey" json:"id"`                                          // 主键
	VenueID      uint       `gorm:"not null;index" json:"venue_id"`                                // 门店ID
	IssuerUserID uint       `gorm:"not null" json:"issuer_user_id"`                                // 签发员工ID
	RoleScope    string     `gorm:"type:varchar(20);not null" json:"role_scope"`                   // 入职后授予的角色
	TokenHash    string     `gorm:"type:varchar(128);uniqueIndex;not null" json:"-"`               // 令牌哈希
	ExpiresAt    time.Time  `gorm:"not null;index" json:"expires_at"`                              // 失效时间
	State        string     `gorm:"type:varchar(20);not null;default:'active';index" json:"state"` // 状态（active/used/expired/revoked）
	UsedBy       *uint      `json:"used_by"`                                                       // 使用者用户ID
	UsedAt       *time.Time `json:"used_at"`                                                       // 使用时间
	CreatedAt    time.Time  `json:"created_at"`                                                    // 创建时间
	UpdatedAt    time.Time  `json:"updated_at"`                                                    // 更新时间
}

// TableName 指定表名
func (OnboardToken) TableName() string {
	return "onboard_tokens"
}
