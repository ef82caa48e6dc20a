package audit

import (
	"time"

	"github.com/hexiao-next/internal/logger"
	"github.com/hexiao-next/internal/models"
	"github.com/hexiao-next/internal/queue"
	"github.com/hexiao-next/internal/repository"
)

// Sink 核销审计落地器
// 优先异步入队，队列不可用或入队失败时降级为同步落库。
// 审计失败只记日志，绝不阻塞状态迁移。
type Sink struct {
	queueClient *queue.Client
	auditRepo   repository.RedemptionAuditRepository
}

// NewSink 创建审计落地器
func NewSink(queueClient *queue.Client, auditRepo repository.RedemptionAuditRepository) *Sink {
	return &Sink{
		queueClient: queueClient,
		auditRepo:   auditRepo,
	}
}

// Append 追加一条审计记录
func (s *Sink) Append(redemptionID uint, action, actor string, details map[string]interface{}) {
	if s == nil {
		return
	}
	now := time.Now()

	if s.queueClient.Enabled() {
		err := s.queueClient.EnqueueRedemptionAudit(queue.RedemptionAuditPayload{
			RedemptionID: redemptionID,
			Action:       action,
			Actor:        actor,
			Details:      details,
			OccurredAt:   now.Unix(),
		})
		if err == nil {
			return
		}
		logger.Warnw("audit_enqueue_failed_fallback_sync",
			"redemption_id", redemptionID,
			"action", action,
			"error", err,
		)
	}

	s.appendSync(redemptionID, action, actor, details, now)
}

func (s *Sink) appendSync(redemptionID uint, action, actor string, details map[string]interface{}, occurredAt time.Time) {
	if s.auditRepo == nil {
		logger.Warnw("audit_sink_repo_nil", "redemption_id", redemptionID, "action", action)
		return
	}
	record := &models.RedemptionAudit{
		RedemptionID: redemptionID,
		Action:       action,
		Actor:        actor,
		Details:      models.JSON(details),
		CreatedAt:    occurredAt,
	}
	if err := s.auditRepo.Create(record); err != nil {
		logger.Warnw("audit_append_failed",
			"redemption_id", redemptionID,
			"action", action,
			"error", err,
		)
	}
}
