package models

import (
	"time"
)

// RedemptionAudit 核销审计表（只追加，不更新不删除）
type RedemptionAudit struct {
	ID           uint      `gorm:"primarykey" json:"id"`                    // 主键
	RedemptionID uint      `gorm:"not null;index" json:"redemption_id"`     // 核销单ID
	Action       string    `gorm:"type:varchar(40);not null" json:"action"` // 动作
	Actor        string    `gorm:"type:varchar(60);not null" json:"actor"`  // 操作者（user:<id>/staff:<id>/system）
	Details      JSON      `gorm:"type:json" json:"details"`                // 详情
	CreatedAt    time.Time `gorm:"index" json:"created_at"`                 // 发生时间
}

// TableName 指定表名
func (RedemptionAudit) TableName() string {
	return "redemption_audits"
}
