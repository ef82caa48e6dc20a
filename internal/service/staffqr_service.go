package service

import (
	"strings"
	"time"

	"github.com/hexiao-next/internal/authz"
	"github.com/hexiao-next/internal/config"
	"github.com/hexiao-next/internal/constants"
	"github.com/hexiao-next/internal/logger"
	"github.com/hexiao-next/internal/models"
	"github.com/hexiao-next/internal/repository"
	"github.com/hexiao-next/internal/secrets"
)

const (
	staffQRTokenBytes = 16
	onboardTokenBytes = 24

	defaultStaffQRTTLSeconds = 120
	defaultStaffQRMaxSeconds = 900
	defaultOnboardHours      = 24

	enrolledViaOnboardQR = "onboard_qr"
)

// StaffQRService 员工凭证服务：轮换在场码与一次性入职令牌
type StaffQRService struct {
	staffQRRepo repository.StaffQRRepository
	onboardRepo repository.OnboardTokenRepository
	rosterRepo  repository.RosterRepository
	venueRepo   repository.VenueRepository
	authzSvc    *authz.Service
	staffQRCfg  config.StaffQRConfig
	onboardCfg  config.OnboardConfig
}

// NewStaffQRService 创建员工凭证服务
func NewStaffQRService(
	staffQRRepo repository.StaffQRRepository,
	onboardRepo repository.OnboardTokenRepository,
	rosterRepo repository.RosterRepository,
	venueRepo repository.VenueRepository,
	authzSvc *authz.Service,
	staffQRCfg config.StaffQRConfig,
	onboardCfg config.OnboardConfig,
) *StaffQRService {
	if staffQRCfg.DefaultTTLSeconds <= 0 {
		staffQRCfg.DefaultTTLSeconds = defaultStaffQRTTLSeconds
	}
	if staffQRCfg.MaxTTLSeconds <= 0 {
		staffQRCfg.MaxTTLSeconds = defaultStaffQRMaxSeconds
	}
	if onboardCfg.ExpireHours <= 0 {
		onboardCfg.ExpireHours = defaultOnboardHours
	}
	return &StaffQRService{
		staffQRRepo: staffQRRepo,
		onboardRepo: onboardRepo,
		rosterRepo:  rosterRepo,
		venueRepo:   venueRepo,
		authzSvc:    authzSvc,
		staffQRCfg:  staffQRCfg,
		onboardCfg:  onboardCfg,
	}
}

// Issue 签发轮换码（同一签发者的旧码在同一事务内吊销）
// 返回令牌原文，原文只出现这一次，落库仅存哈希。
func (s *StaffQRService) Issue(venueID, staffID uint, ttlSeconds int, sessionID string) (*models.StaffQRToken, string, error) {
	member, err := s.requireRoster(venueID, staffID)
	if err != nil {
		return nil, "", err
	}
	allowed, err := s.authzSvc.EnforceStaff(staffID, venueID, authz.ResourceStaffQR, constants.ActionIssue)
	if err != nil {
		return nil, "", err
	}
	if !allowed {
		return nil, "", ErrInsufficientPermissions
	}

	ttl := s.clampTTL(ttlSeconds)
	raw, err := secrets.GenerateToken(staffQRTokenBytes)
	if err != nil {
		return nil, "", err
	}

	now := time.Now()
	token := &models.StaffQRToken{
		VenueID:         venueID,
		IssuerUserID:    staffID,
		IssuerSessionID: strings.TrimSpace(sessionID),
		RoleScope:       member.Role,
		TokenHash:       secrets.HashHex(raw),
		TTLSeconds:      ttl,
		IssuedAt:        now,
		ExpiresAt:       now.Add(time.Duration(ttl) * time.Second),
		State:           constants.StaffQRStateActive,
	}
	if err := s.staffQRRepo.RotateActive(token); err != nil {
		return nil, "", err
	}

	logger.Infow("staff_qr_issued",
		"venue_id", venueID,
		"issuer_user_id", staffID,
		"ttl_seconds", ttl,
	)
	return token, raw, nil
}

// Verify 校验轮换码（成功无副作用；发现过期则就地转 expired）
func (s *StaffQRService) Verify(rawToken string) (*models.StaffQRToken, error) {
	raw := strings.TrimSpace(rawToken)
	if raw == "" {
		return nil, ErrStaffQRInvalid
	}
	token, err := s.staffQRRepo.GetActiveByHash(secrets.HashHex(raw))
	if err != nil {
		return nil, err
	}
	if token == nil {
		return nil, ErrStaffQRInvalid
	}
	if time.Now().After(token.ExpiresAt) {
		if _, err := s.staffQRRepo.MarkExpired(token.ID); err != nil {
			logger.Warnw("staff_qr_mark_expired_failed", "token_id", token.ID, "error", err)
		}
		return nil, ErrStaffQRExpired
	}
	return token, nil
}

// Revoke 吊销签发者当前的 active 轮换码
func (s *StaffQRService) Revoke(venueID, staffID uint) error {
	if _, err := s.requireRoster(venueID, staffID); err != nil {
		return err
	}
	revoked, err := s.staffQRRepo.RevokeActive(venueID, staffID)
	if err != nil {
		return err
	}
	if revoked > 0 {
		logger.Infow("staff_qr_revoked", "venue_id", venueID, "issuer_user_id", staffID)
	}
	return nil
}

// IssueOnboard 签发一次性入职令牌（仅持 enroll 权限的经理可签发）
func (s *StaffQRService) IssueOnboard(venueID, managerID uint, role string) (*models.OnboardToken, string, error) {
	role = strings.TrimSpace(role)
	if role != constants.RosterRoleManager && role != constants.RosterRoleCashier {
		return nil, "", ErrOnboardTokenInvalid
	}
	if _, err := s.requireRoster(venueID, managerID); err != nil {
		return nil, "", err
	}
	allowed, err := s.authzSvc.EnforceStaff(managerID, venueID, authz.ResourceRoster, constants.ActionEnroll)
	if err != nil {
		return nil, "", err
	}
	if !allowed {
		return nil, "", ErrInsufficientPermissions
	}

	raw, err := secrets.GenerateToken(onboardTokenBytes)
	if err != nil {
		return nil, "", err
	}
	token := &models.OnboardToken{
		VenueID:      venueID,
		IssuerUserID: managerID,
		RoleScope:    role,
		TokenHash:    secrets.HashHex(raw),
		ExpiresAt:    time.Now().Add(time.Duration(s.onboardCfg.ExpireHours) * time.Hour),
		State:        constants.OnboardStateActive,
	}
	if err := s.onboardRepo.Create(token); err != nil {
		return nil, "", err
	}

	logger.Infow("onboard_token_issued",
		"venue_id", venueID,
		"issuer_user_id", managerID,
		"role_scope", role,
	)
	return token, raw, nil
}

// ActivateOnboard 使用入职令牌入册（单次使用，条件更新定胜负）
func (s *StaffQRService) ActivateOnboard(rawToken string, staffID uint) (*models.RosterMember, error) {
	raw := strings.TrimSpace(rawToken)
	if raw == "" {
		return nil, ErrOnboardTokenInvalid
	}
	token, err := s.onboardRepo.GetByHash(secrets.HashHex(raw))
	if err != nil {
		return nil, err
	}
	if token == nil {
		return nil, ErrOnboardTokenInvalid
	}
	switch token.State {
	case constants.OnboardStateUsed:
		return nil, ErrOnboardTokenUsed
	case constants.OnboardStateRevoked, constants.OnboardStateExpired:
		return nil, ErrOnboardTokenInvalid
	}

	now := time.Now()
	if now.After(token.ExpiresAt) {
		return nil, ErrOnboardTokenExpired
	}
	used, err := s.onboardRepo.MarkUsedIfActive(token.ID, staffID, now)
	if err != nil {
		return nil, err
	}
	if !used {
		// 并发激活时败方走这里
		return nil, ErrOnboardTokenUsed
	}

	member := &models.RosterMember{
		VenueID:     token.VenueID,
		UserID:      staffID,
		Role:        token.RoleScope,
		State:       constants.RosterStateActive,
		EnrolledAt:  now,
		EnrolledVia: enrolledViaOnboardQR,
	}
	if err := s.rosterRepo.CreateOrReactivate(member); err != nil {
		return nil, err
	}
	if err := s.authzSvc.EnrollStaff(token.VenueID, staffID, token.RoleScope); err != nil {
		return nil, err
	}

	logger.Infow("onboard_activated",
		"venue_id", token.VenueID,
		"staff_id", staffID,
		"role", token.RoleScope,
	)
	return member, nil
}

// DisableStaff 员工离册：停用名册记录并回收门店角色与轮换码
func (s *StaffQRService) DisableStaff(venueID, managerID, staffID uint) error {
	if _, err := s.requireRoster(venueID, managerID); err != nil {
		return err
	}
	allowed, err := s.authzSvc.EnforceStaff(managerID, venueID, authz.ResourceRoster, constants.ActionEnroll)
	if err != nil {
		return err
	}
	if !allowed {
		return ErrInsufficientPermissions
	}

	disabled, err := s.rosterRepo.Disable(venueID, staffID)
	if err != nil {
		return err
	}
	if !disabled {
		return ErrRosterNotFound
	}
	if err := s.authzSvc.DisableStaff(venueID, staffID); err != nil {
		return err
	}
	if _, err := s.staffQRRepo.RevokeActive(venueID, staffID); err != nil {
		return err
	}

	logger.Infow("roster_member_disabled",
		"venue_id", venueID,
		"staff_id", staffID,
		"operator_id", managerID,
	)
	return nil
}

// RosterForVenue 门店名册查询
func (s *StaffQRService) RosterForVenue(venueID, staffID uint) ([]models.RosterMember, error) {
	if _, err := s.requireRoster(venueID, staffID); err != nil {
		return nil, err
	}
	return s.rosterRepo.ListByVenue(venueID)
}

func (s *StaffQRService) clampTTL(ttlSeconds int) int {
	if ttlSeconds <= 0 {
		ttlSeconds = s.staffQRCfg.DefaultTTLSeconds
	}
	if ttlSeconds > s.staffQRCfg.MaxTTLSeconds {
		ttlSeconds = s.staffQRCfg.MaxTTLSeconds
	}
	return ttlSeconds
}

func (s *StaffQRService) requireRoster(venueID, staffID uint) (*models.RosterMember, error) {
	venue, err := s.venueRepo.GetByID(venueID)
	if err != nil {
		return nil, err
	}
	if venue == nil {
		return nil, ErrVenueNotFound
	}
	member, err := s.rosterRepo.GetActive(venueID, staffID)
	if err != nil {
		return nil, err
	}
	if member == nil {
		return nil, ErrRosterNotFound
	}
	return member, nil
}
