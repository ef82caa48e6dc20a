package models

import (
	"time"

	"gorm.io/gorm"
)

// User 用户表（由身份服务维护，本服务只读信任等级与状态）
type User struct {
	ID         uint           `gorm:"primarykey" json:"id"`                                     // 主键
	Nickname   string         `gorm:"type:varchar(100)" json:"nickname"`                        // 昵称
	TrustLevel int            `gorm:"not null;default:0;index" json:"trust_level"`              // 信任等级（OTL）
	Status     string         `gorm:"type:varchar(20);not null;default:'active'" json:"status"` // 状态（active/disabled）
	CreatedAt  time.Time      `gorm:"index" json:"created_at"`                                  // 创建时间
	UpdatedAt  time.Time      `json:"updated_at"`                                               // 更新时间
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`                                           // 软删除时间
}

// TableName 指定表名
func (User) TableName() string {
	return "users"
}
