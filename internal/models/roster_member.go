package models

import (
	"time"
)

// RosterMember 门店员工名册表
// 记录员工与门店的授权关系；权限判定由 casbin 策略承载，本表为事实来源。
type RosterMember struct {
	ID          uint      `gorm:"primarykey" json:"id"`                                          // 主键
	VenueID     uint      `gorm:"not null;index:idx_roster_venue_user,unique" json:"venue_id"`   // 门店ID
	UserID      uint      `gorm:"not null;index:idx_roster_venue_user,unique" json:"user_id"`    // 员工用户ID
	Role        string    `gorm:"type:varchar(20);not null" json:"role"`                         // 角色（manager/cashier）
	State       string    `gorm:"type:varchar(20);not null;default:'active';index" json:"state"` // 状态（active/disabled）
	EnrolledAt  time.Time `gorm:"not null" json:"enrolled_at"`                                   // 入职时间
	EnrolledVia string    `gorm:"type:varchar(20)" json:"enrolled_via"`                          // 入职途径（onboard_qr/manual）
	CreatedAt   time.Time `json:"created_at"`                                                    // 创建时间
	UpdatedAt   time.Time `json:"updated_at"`                                                    // 更新时间
}

// TableName 指定表名
func (RosterMember) TableName() string {
	return "roster_members"
}
