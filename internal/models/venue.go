package models

import (
	"time"

	"gorm.io/gorm"
)

// Venue 门店表（由商户目录服务维护，本服务只读）
type Venue struct {
	ID            uint           `gorm:"primarykey" json:"id"`                         // 主键
	Name          string         `gorm:"type:varchar(200);not null" json:"name"`       // 门店名称
	Latitude      float64        `gorm:"not null;default:0" json:"latitude"`           // 纬度
	Longitude     float64        `gorm:"not null;default:0" json:"longitude"`          // 经度
	WifiSSID      string         `gorm:"type:varchar(100)" json:"wifi_ssid"`           // 登记的 Wi-Fi SSID
	WifiBSSIDHash string         `gorm:"type:varchar(128);index" json:"-"`             // 登记的 Wi-Fi BSSID（单向哈希存储）
	IsActive      bool           `gorm:"not null;default:true;index" json:"is_active"` // 是否营业
	CreatedAt     time.Time      `gorm:"index" json:"created_at"`                      // 创建时间
	UpdatedAt     time.Time      `json:"updated_at"`                                   // 更新时间
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`                               // 软删除时间
}

// TableName 指定表名
func (Venue) TableName() string {
	return "venues"
}
