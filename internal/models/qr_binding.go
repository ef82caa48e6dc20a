package models

import (
	"time"

	"gorm.io/gorm"
)

// QRBinding 实体码绑定表
// 印刷/物理二维码与门店或桌位的持久绑定，区别于短时效的员工轮换码。
type QRBinding struct {
	ID         uint           `gorm:"primarykey" json:"id"`                                          // 主键
	Code       string         `gorm:"type:varchar(64);uniqueIndex;not null" json:"code"`             // 码值
	VenueID    uint           `gorm:"not null;index" json:"venue_id"`                                // 门店ID
	Zone       string         `gorm:"type:varchar(60)" json:"zone"`                                  // 区域（桌位码使用）
	InstanceNo int            `gorm:"not null;default:0" json:"instance_no"`                         // 序号（同区域多码）
	Type       string         `gorm:"type:varchar(20);not null" json:"type"`                         // 类型（main/table）
	NFCUIDHash string         `gorm:"type:varchar(128)" json:"-"`                                    // NFC UID（单向哈希存储）
	State      string         `gorm:"type:varchar(20);not null;default:'active';index" json:"state"` // 状态（active/revoked）
	CreatedAt  time.Time      `gorm:"index" json:"created_at"`                                       // 创建时间
	UpdatedAt  time.Time      `json:"updated_at"`                                                    // 更新时间
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`                                                // 软删除时间
}

// TableName 指定表名
func (QRBinding) TableName() string {
	return "qr_bindings"
}
