package service

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/hexiao-next/internal/audit"
	"github.com/hexiao-next/internal/authz"
	"github.com/hexiao-next/internal/config"
	"github.com/hexiao-next/internal/constants"
	"github.com/hexiao-next/internal/logger"
	"github.com/hexiao-next/internal/models"
	"github.com/hexiao-next/internal/queue"
	"github.com/hexiao-next/internal/repository"
	"github.com/hexiao-next/internal/secrets"

	"gorm.io/gorm"
)

const otcTokenBytes = 16

// RedemptionService 核销状态机服务
type RedemptionService struct {
	redemptionRepo  repository.RedemptionRepository
	offerRepo       repository.OfferRepository
	venueRepo       repository.VenueRepository
	userRepo        repository.UserRepository
	rosterRepo      repository.RosterRepository
	presenceService *PresenceService
	riskService     *RiskService
	authzService    *authz.Service
	auditSink       *audit.Sink
	queueClient     *queue.Client
	cfg             config.RedemptionConfig
	riskCfg         config.RiskConfig
}

// NewRedemptionService 创建核销服务
func NewRedemptionService(
	redemptionRepo repository.RedemptionRepository,
	offerRepo repository.OfferRepository,
	venueRepo repository.VenueRepository,
	userRepo repository.UserRepository,
	rosterRepo repository.RosterRepository,
	presenceService *PresenceService,
	riskService *RiskService,
	authzService *authz.Service,
	auditSink *audit.Sink,
	queueClient *queue.Client,
	cfg config.RedemptionConfig,
	riskCfg config.RiskConfig,
) *RedemptionService {
	return &RedemptionService{
		redemptionRepo:  redemptionRepo,
		offerRepo:       offerRepo,
		venueRepo:       venueRepo,
		userRepo:        userRepo,
		rosterRepo:      rosterRepo,
		presenceService: presenceService,
		riskService:     riskService,
		authzService:    authzService,
		auditSink:       auditSink,
		queueClient:     queueClient,
		cfg:             cfg,
		riskCfg:         riskCfg,
	}
}

// InitiateRedemptionInput 发起核销输入
type InitiateRedemptionInput struct {
	OfferID           uint
	UserID            uint
	Mode              string
	DeviceFingerprint string
	Presence          PresenceClaim
}

// InitiateRedemptionResult 发起核销结果
// OTC 原文只在这里返回一次，落库仅存哈希。
type InitiateRedemptionResult struct {
	Redemption *models.Redemption
	OTC        string
	RiskScore  int
	Signals    []string
}

// Initiate 发起核销（按序校验：活动可用 → 信任等级 → 冷却期 → 限额 → 在场）
func (s *RedemptionService) Initiate(input InitiateRedemptionInput) (*InitiateRedemptionResult, error) {
	now := time.Now()

	offer, err := s.offerRepo.GetByID(input.OfferID)
	if err != nil {
		return nil, err
	}
	if offer == nil || !models.OfferValidNow(offer, now) || !models.OfferHasCapacity(offer) {
		return nil, ErrOfferNotAvailable
	}

	venue, err := s.venueRepo.GetByID(offer.VenueID)
	if err != nil {
		return nil, err
	}
	if venue == nil || !venue.IsActive {
		return nil, ErrOfferNotAvailable
	}

	user, err := s.userRepo.GetByID(input.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil || user.Status != constants.UserStatusActive {
		return nil, ErrUserNotFound
	}
	if offer.MinOTL > 0 && user.TrustLevel < offer.MinOTL {
		return nil, ErrTrustLevelTooLow
	}

	latest, err := s.redemptionRepo.LatestByUserOffer(offer.ID, input.UserID)
	if err != nil {
		return nil, err
	}
	if latest != nil && latest.Status == constants.RedemptionStatusRedeemed && latest.CooldownUntil.After(now) {
		return nil, &CooldownError{EndsAt: latest.CooldownUntil.Unix()}
	}

	if offer.MaxRedemptionsPerUser > 0 {
		count, err := s.redemptionRepo.CountByUserOffer(offer.ID, input.UserID, []string{
			constants.RedemptionStatusPending,
			constants.RedemptionStatusVerified,
			constants.RedemptionStatusApproved,
			constants.RedemptionStatusRedeemed,
		})
		if err != nil {
			return nil, err
		}
		if count >= int64(offer.MaxRedemptionsPerUser) {
			return nil, ErrMaxReached
		}
	}

	if s.cfg.RequireFirstVisitGate {
		visits, err := s.redemptionRepo.CountRedeemedByUserVenue(input.UserID, venue.ID)
		if err != nil {
			return nil, err
		}
		if visits > 0 {
			return nil, ErrFirstVisitRequired
		}
	}

	presence := s.presenceService.Verify(venue, input.Presence, now)
	if !presence.Corroborated {
		return nil, ErrPresenceFailed
	}

	assessment, err := s.riskService.Evaluate(RiskInput{
		UserID:            input.UserID,
		DeviceFingerprint: input.DeviceFingerprint,
		AccuracyM:         input.Presence.AccuracyM,
		Stationary:        input.Presence.Stationary,
	}, now)
	if err != nil {
		return nil, err
	}

	mode := strings.TrimSpace(input.Mode)
	if mode != constants.RedemptionModeStaffQR {
		mode = constants.RedemptionModeOTC
	}

	rawOTC, err := secrets.GenerateToken(otcTokenBytes)
	if err != nil {
		return nil, err
	}

	status := constants.RedemptionStatusVerified
	if offer.RequiresStaffApproval {
		status = constants.RedemptionStatusPending
	}
	autoFlagged := s.riskCfg.AutoFlagAbove > 0 && assessment.Score > s.riskCfg.AutoFlagAbove
	if autoFlagged {
		status = constants.RedemptionStatusFraudFlagged
	}

	redemption := &models.Redemption{
		RedemptionNo:      generateRedemptionNo(),
		OfferID:           offer.ID,
		UserID:            input.UserID,
		VenueID:           venue.ID,
		Mode:              mode,
		Status:            status,
		OTCHash:           secrets.HashHex(rawOTC),
		OTCExpiresAt:      now.Add(time.Duration(offer.QRRotationMinutes) * time.Minute),
		ClaimLatitude:     input.Presence.Latitude,
		ClaimLongitude:    input.Presence.Longitude,
		ClaimAccuracyM:    input.Presence.AccuracyM,
		ClaimSSID:         strings.TrimSpace(input.Presence.SSID),
		ClaimBSSIDHash:    presence.BSSIDHash,
		ClaimStationary:   input.Presence.Stationary,
		LastScanAt:        input.Presence.LastScanAt,
		DeviceFingerprint: strings.TrimSpace(input.DeviceFingerprint),
		RiskScore:         assessment.Score,
		FraudFlags:        models.StringArray(assessment.Flags),
		CooldownUntil:     now.Add(time.Duration(offer.CooldownHours) * time.Hour),
		Value:             offer.Value,
	}

	created, err := s.redemptionRepo.CreateGuarded(redemption, offer.MaxRedemptionsPerUser, now)
	if err != nil {
		return nil, err
	}
	if !created {
		// 事务内复核未通过：并发发起被另一请求抢先
		return nil, ErrRedemptionConflict
	}

	s.auditSink.Append(redemption.ID, constants.AuditActionInitiated, actorUser(input.UserID), map[string]interface{}{
		"redemption_no": redemption.RedemptionNo,
		"offer_id":      offer.ID,
		"venue_id":      venue.ID,
		"mode":          mode,
		"status":        status,
		"risk_score":    assessment.Score,
		"signals":       presence.Passed,
		"distance_m":    presence.DistanceM,
	})

	if autoFlagged {
		s.auditSink.Append(redemption.ID, constants.AuditActionFraudFlagged, "system", map[string]interface{}{
			"risk_score": assessment.Score,
			"flags":      assessment.Flags,
		})
	}
	if assessment.HighRisk {
		if err := s.queueClient.EnqueueHighRiskReview(queue.HighRiskReviewPayload{
			RedemptionID: redemption.ID,
			VenueID:      venue.ID,
			RiskScore:    assessment.Score,
			FraudFlags:   assessment.Flags,
		}); err != nil {
			logger.Warnw("high_risk_review_enqueue_failed", "redemption_id", redemption.ID, "error", err)
		}
	}

	result := &InitiateRedemptionResult{
		Redemption: redemption,
		RiskScore:  assessment.Score,
		Signals:    presence.Passed,
	}
	if !autoFlagged {
		result.OTC = rawOTC
	}
	return result, nil
}

// Approve 员工审批（仅 PENDING/VERIFIED 可审批）
func (s *RedemptionService) Approve(redemptionNo string, staffID uint) (*models.Redemption, error) {
	redemption, err := s.redemptionRepo.GetByNo(redemptionNo)
	if err != nil {
		return nil, err
	}
	if redemption == nil {
		return nil, ErrRedemptionNotFound
	}
	if err := s.requireStaffPermission(staffID, redemption.VenueID, constants.ActionApprove); err != nil {
		return nil, err
	}
	if redemption.IsTerminal() {
		return nil, ErrNotApprovable
	}

	now := time.Now()
	ok, err := s.redemptionRepo.UpdateStatusIf(redemption.ID,
		[]string{constants.RedemptionStatusPending, constants.RedemptionStatusVerified},
		map[string]interface{}{
			"status":      constants.RedemptionStatusApproved,
			"approved_by": staffID,
			"approved_at": now,
		})
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotApprovable
	}

	s.auditSink.Append(redemption.ID, constants.AuditActionApproved, actorStaff(staffID), map[string]interface{}{
		"redemption_no": redemption.RedemptionNo,
	})

	return s.redemptionRepo.GetByID(redemption.ID)
}

// Complete 员工验证用户一次性码并完成核销
// 状态迁移与活动计数在同一事务内，竞争方以影响行数判胜负。
func (s *RedemptionService) Complete(redemptionNo, suppliedOTC string, staffID uint) (*models.Redemption, error) {
	redemption, err := s.redemptionRepo.GetByNo(redemptionNo)
	if err != nil {
		return nil, err
	}
	if redemption == nil {
		return nil, ErrRedemptionNotFound
	}
	if err := s.requireStaffPermission(staffID, redemption.VenueID, constants.ActionApprove); err != nil {
		return nil, err
	}

	supplied := strings.TrimSpace(suppliedOTC)
	if supplied == "" || !secrets.ConstantTimeEqual(secrets.HashHex(supplied), redemption.OTCHash) {
		return nil, ErrOTCInvalid
	}

	return s.complete(redemption, actorStaff(staffID))
}

// CompleteWithStaffQR 用户扫员工轮换码完成核销（staff_qr 模式）
// 轮换码的校验由 StaffQRService 先行完成，这里只接受已验证的签发者。
func (s *RedemptionService) CompleteWithStaffQR(redemptionNo string, token *models.StaffQRToken, userID uint) (*models.Redemption, error) {
	if token == nil {
		return nil, ErrStaffQRInvalid
	}
	redemption, err := s.redemptionRepo.GetByNo(redemptionNo)
	if err != nil {
		return nil, err
	}
	if redemption == nil || redemption.UserID != userID {
		return nil, ErrRedemptionNotFound
	}
	if redemption.VenueID != token.VenueID {
		return nil, ErrStaffQRInvalid
	}

	return s.complete(redemption, actorStaff(token.IssuerUserID))
}

// Reject 员工拒绝核销（附原因，非终态均可拒绝）
func (s *RedemptionService) Reject(redemptionNo string, staffID uint, reason string) (*models.Redemption, error) {
	redemption, err := s.redemptionRepo.GetByNo(redemptionNo)
	if err != nil {
		return nil, err
	}
	if redemption == nil {
		return nil, ErrRedemptionNotFound
	}
	if err := s.requireStaffPermission(staffID, redemption.VenueID, constants.ActionApprove); err != nil {
		return nil, err
	}
	if redemption.IsTerminal() {
		return nil, ErrRedemptionConflict
	}

	flags := redemption.FraudFlags
	if !flags.Contains(constants.FraudFlagManualReject) {
		flags = append(flags, constants.FraudFlagManualReject)
	}
	ok, err := s.redemptionRepo.UpdateStatusIf(redemption.ID,
		[]string{
			constants.RedemptionStatusPending,
			constants.RedemptionStatusVerified,
			constants.RedemptionStatusApproved,
		},
		map[string]interface{}{
			"status":      constants.RedemptionStatusRejected,
			"fraud_flags": flags,
		})
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrRedemptionConflict
	}

	s.auditSink.Append(redemption.ID, constants.AuditActionRejected, actorStaff(staffID), map[string]interface{}{
		"redemption_no": redemption.RedemptionNo,
		"reason":        strings.TrimSpace(reason),
	})

	return s.redemptionRepo.GetByID(redemption.ID)
}

// GetForUser 用户查询自己的核销单
func (s *RedemptionService) GetForUser(redemptionNo string, userID uint) (*models.Redemption, error) {
	redemption, err := s.redemptionRepo.GetByNo(redemptionNo)
	if err != nil {
		return nil, err
	}
	if redemption == nil || redemption.UserID != userID {
		return nil, ErrRedemptionNotFound
	}
	return redemption, nil
}

// ListForUser 用户核销单列表
func (s *RedemptionService) ListForUser(filter repository.RedemptionListFilter) ([]models.Redemption, int64, error) {
	return s.redemptionRepo.ListByUser(filter)
}

// complete 共享的完成迁移：惰性过期 → 审批门禁 → 条件更新 + 计数
func (s *RedemptionService) complete(redemption *models.Redemption, actor string) (*models.Redemption, error) {
	now := time.Now()

	// 惰性过期：过期的未完结单就地转 EXPIRED
	if now.After(redemption.OTCExpiresAt) {
		expired, err := s.redemptionRepo.UpdateStatusIf(redemption.ID,
			[]string{
				constants.RedemptionStatusPending,
				constants.RedemptionStatusVerified,
				constants.RedemptionStatusApproved,
			},
			map[string]interface{}{"status": constants.RedemptionStatusExpired})
		if err != nil {
			return nil, err
		}
		if expired {
			s.auditSink.Append(redemption.ID, constants.AuditActionExpired, "system", map[string]interface{}{
				"redemption_no":  redemption.RedemptionNo,
				"otc_expires_at": redemption.OTCExpiresAt,
			})
		}
		return nil, ErrOTCExpired
	}

	switch redemption.Status {
	case constants.RedemptionStatusPending:
		return nil, ErrApprovalRequired
	case constants.RedemptionStatusVerified, constants.RedemptionStatusApproved:
	default:
		return nil, ErrRedemptionConflict
	}

	if s.cfg.RequireLivePresence && redemption.LastScanAt != nil {
		window := time.Duration(s.presenceService.ScanWindowMinutes()) * time.Minute
		if now.Sub(*redemption.LastScanAt) > window {
			return nil, ErrPresenceFailed
		}
	}

	expectedStatus := redemption.Status
	err := models.DB.Transaction(func(tx *gorm.DB) error {
		ok, err := s.redemptionRepo.WithTx(tx).UpdateStatusIf(redemption.ID,
			[]string{expectedStatus},
			map[string]interface{}{
				"status":      constants.RedemptionStatusRedeemed,
				"redeemed_at": now,
			})
		if err != nil {
			return err
		}
		if !ok {
			return ErrRedemptionConflict
		}
		granted, err := s.offerRepo.WithTx(tx).IncrementRedemptions(redemption.OfferID)
		if err != nil {
			return err
		}
		if !granted {
			// 全局名额耗尽，回滚状态迁移
			return ErrOfferNotAvailable
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.auditSink.Append(redemption.ID, constants.AuditActionRedeemed, actor, map[string]interface{}{
		"redemption_no": redemption.RedemptionNo,
		"mode":          redemption.Mode,
	})

	return s.redemptionRepo.GetByID(redemption.ID)
}

// requireStaffPermission 名册在册 + casbin 授权双重校验
func (s *RedemptionService) requireStaffPermission(staffID, venueID uint, action string) error {
	member, err := s.rosterRepo.GetActive(venueID, staffID)
	if err != nil {
		return err
	}
	if member == nil {
		return ErrRosterNotFound
	}
	allowed, err := s.authzService.EnforceStaff(staffID, venueID, authz.ResourceRedemption, action)
	if err != nil {
		return err
	}
	if !allowed {
		return ErrInsufficientPermissions
	}
	return nil
}

func actorUser(userID uint) string {
	return fmt.Sprintf("user:%d", userID)
}

func actorStaff(staffID uint) string {
	return fmt.Sprintf("staff:%d", staffID)
}

func generateRedemptionNo() string {
	now := time.Now().Format("20060102150405")
	return fmt.Sprintf("RD%s%s", now, randNumeric(6))
}

func randNumeric(length int) string {
	var b strings.Builder
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			b.WriteString("0")
			continue
		}
		b.WriteString(fmt.Sprintf("%d", n.Int64()))
	}
	return b.String()
}
