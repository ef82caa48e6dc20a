package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/hexiao-next/internal/logger"
	"github.com/hexiao-next/internal/models"
	"github.com/hexiao-next/internal/provider"
	"github.com/hexiao-next/internal/queue"

	"github.com/hibiken/asynq"
)

// Consumer 异步任务消费者
type Consumer struct {
	*provider.Container
}

// NewConsumer 创建消费者
func NewConsumer(c *provider.Container) *Consumer {
	return &Consumer{
		Container: c,
	}
}

// Register 注册消费者
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(queue.TaskRedemptionAudit, c.handleRedemptionAudit)
	mux.HandleFunc(queue.TaskHighRiskReview, c.handleHighRiskReview)
}

func (c *Consumer) handleRedemptionAudit(_ context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_redemption_audit_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.RedemptionAuditPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_redemption_audit_unmarshal_failed", "error", err)
		return err
	}
	if payload.RedemptionID == 0 || payload.Action == "" {
		logger.Debugw("worker_redemption_audit_skip_invalid_payload",
			"redemption_id", payload.RedemptionID,
			"action", payload.Action,
		)
		return nil
	}
	occurredAt := time.Unix(payload.OccurredAt, 0)
	if payload.OccurredAt <= 0 {
		occurredAt = time.Now()
	}
	record := &models.RedemptionAudit{
		RedemptionID: payload.RedemptionID,
		Action:       payload.Action,
		Actor:        payload.Actor,
		Details:      models.JSON(payload.Details),
		CreatedAt:    occurredAt,
	}
	if err := c.AuditRepo.Create(record); err != nil {
		logger.Warnw("worker_redemption_audit_persist_failed",
			"redemption_id", payload.RedemptionID,
			"action", payload.Action,
			"error", err,
		)
		return err
	}
	return nil
}

func (c *Consumer) handleHighRiskReview(_ context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_high_risk_review_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.HighRiskReviewPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_high_risk_review_unmarshal_failed", "error", err)
		return err
	}
	if payload.RedemptionID == 0 {
		logger.Debugw("worker_high_risk_review_skip_invalid_payload", "redemption_id", payload.RedemptionID)
		return nil
	}
	redemption, err := c.RedemptionRepo.GetByID(payload.RedemptionID)
	if err != nil {
		logger.Warnw("worker_high_risk_review_fetch_failed", "redemption_id", payload.RedemptionID, "error", err)
		return err
	}
	if redemption == nil {
		logger.Debugw("worker_high_risk_review_skip_not_found", "redemption_id", payload.RedemptionID)
		return nil
	}
	// 复核队列的消费方是门店运营后台，这里把待复核事件落成结构化日志
	// 供告警管道采集；核销单本身保持高风险标记，不在任务里改状态。
	logger.Infow("high_risk_review_pending",
		"redemption_id", redemption.ID,
		"redemption_no", redemption.RedemptionNo,
		"venue_id", payload.VenueID,
		"risk_score", payload.RiskScore,
		"fraud_flags", payload.FraudFlags,
		"status", redemption.Status,
	)
	return nil
}
