package service

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/hexiao-next/internal/audit"
	"github.com/hexiao-next/internal/authz"
	"github.com/hexiao-next/internal/config"
	"github.com/hexiao-next/internal/constants"
	"github.com/hexiao-next/internal/models"
	"github.com/hexiao-next/internal/queue"
	"github.com/hexiao-next/internal/repository"
	"github.com/hexiao-next/internal/secrets"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const testVenueBSSID = "aa:bb:cc:dd:ee:ff"

type redemptionServiceFixture struct {
	db         *gorm.DB
	venue      *models.Venue
	offer      *models.Offer
	user       *models.User
	staffID    uint
	authzSvc   *authz.Service
	rosterRepo repository.RosterRepository
	presence   *PresenceService
}

func setupRedemptionServiceTest(t *testing.T, cfg config.RedemptionConfig, riskCfg config.RiskConfig) (*RedemptionService, *redemptionServiceFixture) {
	t.Helper()
	dsn := fmt.Sprintf("file:redemption_service_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(
		&models.User{},
		&models.Venue{},
		&models.Offer{},
		&models.Redemption{},
		&models.RedemptionAudit{},
		&models.RosterMember{},
	); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	if err := models.EnsureRedemptionInflightIndex(db); err != nil {
		t.Fatalf("create inflight index failed: %v", err)
	}
	models.DB = db

	redemptionRepo := repository.NewRedemptionRepository(db)
	offerRepo := repository.NewOfferRepository(db)
	venueRepo := repository.NewVenueRepository(db)
	userRepo := repository.NewUserRepository(db)
	rosterRepo := repository.NewRosterRepository(db)
	auditRepo := repository.NewRedemptionAuditRepository(db)

	bssidKey, err := secrets.DeriveKey("test-master-key", secrets.PurposeBSSID)
	if err != nil {
		t.Fatalf("derive bssid key failed: %v", err)
	}
	presence := NewPresenceService(config.PresenceConfig{
		MaxDistanceM:      100,
		MaxAccuracyM:      100,
		ScanWindowMinutes: 5,
		MinSignals:        2,
	}, bssidKey)

	if riskCfg.HighThreshold == 0 {
		riskCfg.HighThreshold = 70
	}
	risk := NewRiskService(redemptionRepo, riskCfg.HighThreshold, presence.MaxAccuracyM())

	authzSvc, err := authz.NewService(db)
	if err != nil {
		t.Fatalf("init authz failed: %v", err)
	}
	queueClient, err := queue.NewClient(nil)
	if err != nil {
		t.Fatalf("init queue client failed: %v", err)
	}
	sink := audit.NewSink(queueClient, auditRepo)

	svc := NewRedemptionService(
		redemptionRepo, offerRepo, venueRepo, userRepo, rosterRepo,
		presence, risk, authzSvc, sink, queueClient, cfg, riskCfg,
	)

	venue := &models.Venue{
		Name:          "测试门店",
		Latitude:      31.2304,
		Longitude:     121.4737,
		WifiSSID:      "hexiao-guest",
		WifiBSSIDHash: presence.HashBSSID(testVenueBSSID),
		IsActive:      true,
	}
	if err := db.Create(venue).Error; err != nil {
		t.Fatalf("seed venue failed: %v", err)
	}
	offer := newTestServiceOffer(venue.ID)
	if err := db.Create(offer).Error; err != nil {
		t.Fatalf("seed offer failed: %v", err)
	}
	user := &models.User{Nickname: "顾客甲", TrustLevel: 2, Status: constants.UserStatusActive}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("seed user failed: %v", err)
	}

	fixture := &redemptionServiceFixture{
		db:         db,
		venue:      venue,
		offer:      offer,
		user:       user,
		staffID:    900,
		authzSvc:   authzSvc,
		rosterRepo: rosterRepo,
		presence:   presence,
	}
	fixture.enrollStaff(t, fixture.staffID, constants.RosterRoleCashier)
	return svc, fixture
}

func newTestServiceOffer(venueID uint) *models.Offer {
	now := time.Now()
	return &models.Offer{
		VenueID:               venueID,
		Title:                 "到店立减",
		Value:                 models.NewMoneyFromDecimal(decimal.RequireFromString("15.00")),
		MinOTL:                1,
		MaxRedemptionsPerUser: 1,
		CooldownHours:         24,
		QRRotationMinutes:     5,
		ValidFrom:             now.Add(-time.Hour),
		ValidUntil:            now.Add(24 * time.Hour),
		IsActive:              true,
	}
}

func (f *redemptionServiceFixture) enrollStaff(t *testing.T, staffID uint, role string) {
	t.Helper()
	if err := f.rosterRepo.CreateOrReactivate(&models.RosterMember{
		VenueID:     f.venue.ID,
		UserID:      staffID,
		Role:        role,
		State:       constants.RosterStateActive,
		EnrolledAt:  time.Now(),
		EnrolledVia: "seed",
	}); err != nil {
		t.Fatalf("enroll roster member failed: %v", err)
	}
	if err := f.authzSvc.EnrollStaff(f.venue.ID, staffID, role); err != nil {
		t.Fatalf("enroll staff policy failed: %v", err)
	}
}

func (f *redemptionServiceFixture) validClaim() PresenceClaim {
	return PresenceClaim{
		Latitude:  f.venue.Latitude,
		Longitude: f.venue.Longitude,
		AccuracyM: 10,
		SSID:      f.venue.WifiSSID,
	}
}

func (f *redemptionServiceFixture) auditActions(t *testing.T, redemptionID uint) []string {
	t.Helper()
	var records []models.RedemptionAudit
	if err := f.db.Where("redemption_id = ?", redemptionID).Order("id asc").Find(&records).Error; err != nil {
		t.Fatalf("load audit records failed: %v", err)
	}
	actions := make([]string, 0, len(records))
	for _, record := range records {
		actions = append(actions, record.Action)
	}
	return actions
}

func TestRedemptionInitiateAndComplete(t *testing.T) {
	svc, f := setupRedemptionServiceTest(t, config.RedemptionConfig{}, config.RiskConfig{})

	result, err := svc.Initiate(InitiateRedemptionInput{
		OfferID:           f.offer.ID,
		UserID:            f.user.ID,
		DeviceFingerprint: "device-a",
		Presence:          f.validClaim(),
	})
	if err != nil {
		t.Fatalf("initiate failed: %v", err)
	}
	if result.Redemption.Status != constants.RedemptionStatusVerified {
		t.Fatalf("status want verified got %s", result.Redemption.Status)
	}
	if result.OTC == "" {
		t.Fatalf("one-time code must be returned on initiation")
	}
	if result.Redemption.OTCHash == result.OTC {
		t.Fatalf("one-time code must not be stored in clear")
	}
	if result.RiskScore != 0 {
		t.Fatalf("clean initiation risk score want 0 got %d", result.RiskScore)
	}

	// 错误的一次性码不触发任何状态变更
	if _, err := svc.Complete(result.Redemption.RedemptionNo, "wrong-code", f.staffID); !errors.Is(err, ErrOTCInvalid) {
		t.Fatalf("wrong otc want ErrOTCInvalid got %v", err)
	}

	redeemed, err := svc.Complete(result.Redemption.RedemptionNo, result.OTC, f.staffID)
	if err != nil {
		t.Fatalf("complete failed: %v", err)
	}
	if redeemed.Status != constants.RedemptionStatusRedeemed {
		t.Fatalf("status want redeemed got %s", redeemed.Status)
	}
	if redeemed.RedeemedAt == nil {
		t.Fatalf("redeemed_at must be set")
	}

	var offer models.Offer
	if err := f.db.First(&offer, f.offer.ID).Error; err != nil {
		t.Fatalf("reload offer failed: %v", err)
	}
	if offer.CurrentRedemptions != 1 {
		t.Fatalf("offer counter want 1 got %d", offer.CurrentRedemptions)
	}

	// 重放同一一次性码必须失败
	if _, err := svc.Complete(result.Redemption.RedemptionNo, result.OTC, f.staffID); !errors.Is(err, ErrRedemptionConflict) {
		t.Fatalf("replay want ErrRedemptionConflict got %v", err)
	}

	actions := f.auditActions(t, result.Redemption.ID)
	if len(actions) != 2 || actions[0] != constants.AuditActionInitiated || actions[1] != constants.AuditActionRedeemed {
		t.Fatalf("audit trail want [INITIATED REDEEMED] got %v", actions)
	}
}

func TestRedemptionInitiatePreconditions(t *testing.T) {
	svc, f := setupRedemptionServiceTest(t, config.RedemptionConfig{}, config.RiskConfig{})

	lowTrust := &models.User{Nickname: "新客", TrustLevel: 0, Status: constants.UserStatusActive}
	if err := f.db.Create(lowTrust).Error; err != nil {
		t.Fatalf("seed user failed: %v", err)
	}
	if _, err := svc.Initiate(InitiateRedemptionInput{
		OfferID:  f.offer.ID,
		UserID:   lowTrust.ID,
		Presence: f.validClaim(),
	}); !errors.Is(err, ErrTrustLevelTooLow) {
		t.Fatalf("low trust want ErrTrustLevelTooLow got %v", err)
	}

	// 仅 GPS 一个信号命中，不满足双信号佐证
	farClaim := PresenceClaim{
		Latitude:  f.venue.Latitude,
		Longitude: f.venue.Longitude,
		AccuracyM: 10,
	}
	if _, err := svc.Initiate(InitiateRedemptionInput{
		OfferID:  f.offer.ID,
		UserID:   f.user.ID,
		Presence: farClaim,
	}); !errors.Is(err, ErrPresenceFailed) {
		t.Fatalf("single signal want ErrPresenceFailed got %v", err)
	}

	// 活动尚未生效
	if err := f.db.Model(&models.Offer{}).Where("id = ?", f.offer.ID).
		Update("valid_from", time.Now().Add(time.Hour)).Error; err != nil {
		t.Fatalf("update valid_from failed: %v", err)
	}
	if _, err := svc.Initiate(InitiateRedemptionInput{
		OfferID:  f.offer.ID,
		UserID:   f.user.ID,
		Presence: f.validClaim(),
	}); !errors.Is(err, ErrOfferNotAvailable) {
		t.Fatalf("not yet valid offer want ErrOfferNotAvailable got %v", err)
	}

	// 活动已过期
	if err := f.db.Model(&models.Offer{}).Where("id = ?", f.offer.ID).
		Updates(map[string]interface{}{
			"valid_from":  time.Now().Add(-48 * time.Hour),
			"valid_until": time.Now().Add(-time.Hour),
		}).Error; err != nil {
		t.Fatalf("update validity window failed: %v", err)
	}
	if _, err := svc.Initiate(InitiateRedemptionInput{
		OfferID:  f.offer.ID,
		UserID:   f.user.ID,
		Presence: f.validClaim(),
	}); !errors.Is(err, ErrOfferNotAvailable) {
		t.Fatalf("expired offer want ErrOfferNotAvailable got %v", err)
	}

	// 活动停用
	if err := f.db.Model(&models.Offer{}).Where("id = ?", f.offer.ID).
		Updates(map[string]interface{}{
			"valid_until": time.Now().Add(24 * time.Hour),
			"is_active":   false,
		}).Error; err != nil {
		t.Fatalf("disable offer failed: %v", err)
	}
	if _, err := svc.Initiate(InitiateRedemptionInput{
		OfferID:  f.offer.ID,
		UserID:   f.user.ID,
		Presence: f.validClaim(),
	}); !errors.Is(err, ErrOfferNotAvailable) {
		t.Fatalf("inactive offer want ErrOfferNotAvailable got %v", err)
	}
}

func TestRedemptionCooldownAfterRedeem(t *testing.T) {
	svc, f := setupRedemptionServiceTest(t, config.RedemptionConfig{}, config.RiskConfig{})

	result, err := svc.Initiate(InitiateRedemptionInput{
		OfferID:  f.offer.ID,
		UserID:   f.user.ID,
		Presence: f.validClaim(),
	})
	if err != nil {
		t.Fatalf("initiate failed: %v", err)
	}
	if _, err := svc.Complete(result.Redemption.RedemptionNo, result.OTC, f.staffID); err != nil {
		t.Fatalf("complete failed: %v", err)
	}

	_, err = svc.Initiate(InitiateRedemptionInput{
		OfferID:  f.offer.ID,
		UserID:   f.user.ID,
		Presence: f.validClaim(),
	})
	if !errors.Is(err, ErrCooldownActive) {
		t.Fatalf("second initiate want ErrCooldownActive got %v", err)
	}
	var cooldownErr *CooldownError
	if !errors.As(err, &cooldownErr) || cooldownErr.EndsAt <= time.Now().Unix() {
		t.Fatalf("cooldown error must carry a future ends_at, got %+v", cooldownErr)
	}
}

func TestRedemptionMaxPerUser(t *testing.T) {
	svc, f := setupRedemptionServiceTest(t, config.RedemptionConfig{}, config.RiskConfig{})

	// 冷却为 0 时限额是第二道闸
	if err := f.db.Model(&models.Offer{}).Where("id = ?", f.offer.ID).
		Update("cooldown_hours", 0).Error; err != nil {
		t.Fatalf("update offer failed: %v", err)
	}

	result, err := svc.Initiate(InitiateRedemptionInput{
		OfferID:  f.offer.ID,
		UserID:   f.user.ID,
		Presence: f.validClaim(),
	})
	if err != nil {
		t.Fatalf("initiate failed: %v", err)
	}
	if _, err := svc.Complete(result.Redemption.RedemptionNo, result.OTC, f.staffID); err != nil {
		t.Fatalf("complete failed: %v", err)
	}

	if _, err := svc.Initiate(InitiateRedemptionInput{
		OfferID:  f.offer.ID,
		UserID:   f.user.ID,
		Presence: f.validClaim(),
	}); !errors.Is(err, ErrMaxReached) {
		t.Fatalf("over limit want ErrMaxReached got %v", err)
	}
}

func TestRedemptionApprovalFlow(t *testing.T) {
	svc, f := setupRedemptionServiceTest(t, config.RedemptionConfig{}, config.RiskConfig{})

	if err := f.db.Model(&models.Offer{}).Where("id = ?", f.offer.ID).
		Update("requires_staff_approval", true).Error; err != nil {
		t.Fatalf("update offer failed: %v", err)
	}

	result, err := svc.Initiate(InitiateRedemptionInput{
		OfferID:  f.offer.ID,
		UserID:   f.user.ID,
		Presence: f.validClaim(),
	})
	if err != nil {
		t.Fatalf("initiate failed: %v", err)
	}
	if result.Redemption.Status != constants.RedemptionStatusPending {
		t.Fatalf("status want pending got %s", result.Redemption.Status)
	}

	// 未审批前不能完成
	if _, err := svc.Complete(result.Redemption.RedemptionNo, result.OTC, f.staffID); !errors.Is(err, ErrApprovalRequired) {
		t.Fatalf("complete before approval want ErrApprovalRequired got %v", err)
	}

	// 不在名册的员工不能审批
	if _, err := svc.Approve(result.Redemption.RedemptionNo, 777); !errors.Is(err, ErrRosterNotFound) {
		t.Fatalf("off-roster staff want ErrRosterNotFound got %v", err)
	}

	approved, err := svc.Approve(result.Redemption.RedemptionNo, f.staffID)
	if err != nil {
		t.Fatalf("approve failed: %v", err)
	}
	if approved.Status != constants.RedemptionStatusApproved {
		t.Fatalf("status want approved got %s", approved.Status)
	}
	if approved.ApprovedBy == nil || *approved.ApprovedBy != f.staffID {
		t.Fatalf("approved_by want %d got %v", f.staffID, approved.ApprovedBy)
	}

	// 审批是幂等防线：重复审批失败
	if _, err := svc.Approve(result.Redemption.RedemptionNo, f.staffID); !errors.Is(err, ErrNotApprovable) {
		t.Fatalf("re-approve want ErrNotApprovable got %v", err)
	}

	redeemed, err := svc.Complete(result.Redemption.RedemptionNo, result.OTC, f.staffID)
	if err != nil {
		t.Fatalf("complete failed: %v", err)
	}
	if redeemed.Status != constants.RedemptionStatusRedeemed {
		t.Fatalf("status want redeemed got %s", redeemed.Status)
	}

	actions := f.auditActions(t, result.Redemption.ID)
	want := []string{constants.AuditActionInitiated, constants.AuditActionApproved, constants.AuditActionRedeemed}
	if len(actions) != len(want) {
		t.Fatalf("audit trail want %v got %v", want, actions)
	}
	for i := range want {
		if actions[i] != want[i] {
			t.Fatalf("audit trail want %v got %v", want, actions)
		}
	}
}

func TestRedemptionCompleteExpiredOTC(t *testing.T) {
	svc, f := setupRedemptionServiceTest(t, config.RedemptionConfig{}, config.RiskConfig{})

	result, err := svc.Initiate(InitiateRedemptionInput{
		OfferID:  f.offer.ID,
		UserID:   f.user.ID,
		Presence: f.validClaim(),
	})
	if err != nil {
		t.Fatalf("initiate failed: %v", err)
	}

	if err := f.db.Model(&models.Redemption{}).
		Where("id = ?", result.Redemption.ID).
		Update("otc_expires_at", time.Now().Add(-time.Minute)).Error; err != nil {
		t.Fatalf("backdate otc failed: %v", err)
	}

	if _, err := svc.Complete(result.Redemption.RedemptionNo, result.OTC, f.staffID); !errors.Is(err, ErrOTCExpired) {
		t.Fatalf("expired otc want ErrOTCExpired got %v", err)
	}

	var redemption models.Redemption
	if err := f.db.First(&redemption, result.Redemption.ID).Error; err != nil {
		t.Fatalf("reload redemption failed: %v", err)
	}
	if redemption.Status != constants.RedemptionStatusExpired {
		t.Fatalf("lazy expiry want expired got %s", redemption.Status)
	}

	actions := f.auditActions(t, result.Redemption.ID)
	if len(actions) != 2 || actions[1] != constants.AuditActionExpired {
		t.Fatalf("audit trail want EXPIRED appended got %v", actions)
	}
}

func TestRedemptionReject(t *testing.T) {
	svc, f := setupRedemptionServiceTest(t, config.RedemptionConfig{}, config.RiskConfig{})

	result, err := svc.Initiate(InitiateRedemptionInput{
		OfferID:  f.offer.ID,
		UserID:   f.user.ID,
		Presence: f.validClaim(),
	})
	if err != nil {
		t.Fatalf("initiate failed: %v", err)
	}

	rejected, err := svc.Reject(result.Redemption.RedemptionNo, f.staffID, "票面与订单不符")
	if err != nil {
		t.Fatalf("reject failed: %v", err)
	}
	if rejected.Status != constants.RedemptionStatusRejected {
		t.Fatalf("status want rejected got %s", rejected.Status)
	}
	if !rejected.FraudFlags.Contains(constants.FraudFlagManualReject) {
		t.Fatalf("manual reject flag missing, got %v", rejected.FraudFlags)
	}

	// 终态不可再变更
	if _, err := svc.Reject(result.Redemption.RedemptionNo, f.staffID, "again"); !errors.Is(err, ErrRedemptionConflict) {
		t.Fatalf("re-reject want ErrRedemptionConflict got %v", err)
	}
	if _, err := svc.Complete(result.Redemption.RedemptionNo, result.OTC, f.staffID); !errors.Is(err, ErrRedemptionConflict) {
		t.Fatalf("complete after reject want ErrRedemptionConflict got %v", err)
	}
}

func TestRedemptionCompleteConcurrentRace(t *testing.T) {
	svc, f := setupRedemptionServiceTest(t, config.RedemptionConfig{}, config.RiskConfig{})

	// 单连接串行化事务，败者必然观察到赢者提交后的状态
	sqlDB, err := f.db.DB()
	if err != nil {
		t.Fatalf("get sql db failed: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	result, err := svc.Initiate(InitiateRedemptionInput{
		OfferID:  f.offer.ID,
		UserID:   f.user.ID,
		Presence: f.validClaim(),
	})
	if err != nil {
		t.Fatalf("initiate failed: %v", err)
	}

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Complete(result.Redemption.RedemptionNo, result.OTC, f.staffID)
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		if !errors.Is(err, ErrRedemptionConflict) {
			t.Fatalf("loser want ErrRedemptionConflict got %v", err)
		}
	}
	if succeeded != 1 {
		t.Fatalf("exactly one completion must win, got %d", succeeded)
	}

	var redemption models.Redemption
	if err := f.db.First(&redemption, result.Redemption.ID).Error; err != nil {
		t.Fatalf("reload redemption failed: %v", err)
	}
	if redemption.Status != constants.RedemptionStatusRedeemed {
		t.Fatalf("status want redeemed got %s", redemption.Status)
	}
	var offer models.Offer
	if err := f.db.First(&offer, f.offer.ID).Error; err != nil {
		t.Fatalf("reload offer failed: %v", err)
	}
	if offer.CurrentRedemptions != 1 {
		t.Fatalf("offer counter want exactly 1 got %d", offer.CurrentRedemptions)
	}
}

func TestRedemptionFirstVisitGate(t *testing.T) {
	svc, f := setupRedemptionServiceTest(t, config.RedemptionConfig{RequireFirstVisitGate: true}, config.RiskConfig{})

	// 同门店任一活动已核销过即视为回访
	prior := newTestServiceOffer(f.venue.ID)
	if err := f.db.Create(prior).Error; err != nil {
		t.Fatalf("seed prior offer failed: %v", err)
	}
	if err := f.db.Create(&models.Redemption{
		RedemptionNo:  "RD-prior-visit",
		OfferID:       prior.ID,
		UserID:        f.user.ID,
		VenueID:       f.venue.ID,
		Mode:          constants.RedemptionModeOTC,
		Status:        constants.RedemptionStatusRedeemed,
		OTCExpiresAt:  time.Now(),
		CooldownUntil: time.Now().Add(-time.Hour),
		Value:         models.NewMoneyFromDecimal(decimal.RequireFromString("15.00")),
	}).Error; err != nil {
		t.Fatalf("seed prior redemption failed: %v", err)
	}

	if _, err := svc.Initiate(InitiateRedemptionInput{
		OfferID:  f.offer.ID,
		UserID:   f.user.ID,
		Presence: f.validClaim(),
	}); !errors.Is(err, ErrFirstVisitRequired) {
		t.Fatalf("repeat visit want ErrFirstVisitRequired got %v", err)
	}
}

func TestRedemptionAutoFlag(t *testing.T) {
	svc, f := setupRedemptionServiceTest(t, config.RedemptionConfig{}, config.RiskConfig{HighThreshold: 70, AutoFlagAbove: 20})

	// 同一设备指纹挂过 4 个不同用户，触发设备复用 +30
	for i := 1; i <= 4; i++ {
		if err := f.db.Create(&models.Redemption{
			RedemptionNo:      fmt.Sprintf("RD-device-reuse-%d", i),
			OfferID:           f.offer.ID,
			UserID:            uint(1000 + i),
			VenueID:           f.venue.ID,
			Mode:              constants.RedemptionModeOTC,
			Status:            constants.RedemptionStatusRedeemed,
			OTCExpiresAt:      time.Now(),
			DeviceFingerprint: "shared-device",
			CooldownUntil:     time.Now().Add(-time.Hour),
			Value:             models.NewMoneyFromDecimal(decimal.RequireFromString("15.00")),
		}).Error; err != nil {
			t.Fatalf("seed device reuse row failed: %v", err)
		}
	}

	result, err := svc.Initiate(InitiateRedemptionInput{
		OfferID:           f.offer.ID,
		UserID:            f.user.ID,
		DeviceFingerprint: "shared-device",
		Presence:          f.validClaim(),
	})
	if err != nil {
		t.Fatalf("initiate failed: %v", err)
	}
	if result.Redemption.Status != constants.RedemptionStatusFraudFlagged {
		t.Fatalf("auto flag want fraud_flagged got %s", result.Redemption.Status)
	}
	if result.OTC != "" {
		t.Fatalf("flagged redemption must not return a one-time code")
	}
	if !result.Redemption.FraudFlags.Contains(constants.FraudFlagDeviceReuse) {
		t.Fatalf("device reuse flag missing, got %v", result.Redemption.FraudFlags)
	}

	actions := f.auditActions(t, result.Redemption.ID)
	if len(actions) != 2 || actions[1] != constants.AuditActionFraudFlagged {
		t.Fatalf("audit trail want FRAUD_FLAGGED appended got %v", actions)
	}
}
