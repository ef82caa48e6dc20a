package queue

import (
	"encoding/json"

	"github.com/hexiao-next/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// TaskRedemptionAudit 核销审计追加任务
	TaskRedemptionAudit = constants.TaskRedemptionAudit
	// TaskHighRiskReview 高风险人工复核通知任务
	TaskHighRiskReview = constants.TaskHighRiskReview
)

// RedemptionAuditPayload 核销审计任务载荷
type RedemptionAuditPayload struct {
	RedemptionID uint                   `json:"redemption_id"`
	Action       string                 `json:"action"`
	Actor        string                 `json:"actor"`
	Details      map[string]interface{} `json:"details"`
	OccurredAt   int64                  `json:"occurred_at"` // unix 秒
}

// HighRiskReviewPayload 高风险复核任务载荷
type HighRiskReviewPayload struct {
	RedemptionID uint     `json:"redemption_id"`
	VenueID      uint     `json:"venue_id"`
	RiskScore    int      `json:"risk_score"`
	FraudFlags   []string `json:"fraud_flags"`
}

// NewRedemptionAuditTask 创建核销审计任务
func NewRedemptionAuditTask(payload RedemptionAuditPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskRedemptionAudit, body), nil
}

// NewHighRiskReviewTask 创建高风险复核任务
func NewHighRiskReviewTask(payload HighRiskReviewPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskHighRiskReview, body), nil
}
