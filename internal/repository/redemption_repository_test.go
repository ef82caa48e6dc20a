package repository

import (
	"fmt"
	"testing"
	"time"

	"github.com/hexiao-next/internal/constants"
	"github.com/hexiao-next/internal/models"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func setupRedemptionRepositoryTest(t *testing.T) (*GormRedemptionRepository, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:redemption_repo_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(
		&models.User{},
		&models.Venue{},
		&models.Offer{},
		&models.Redemption{},
	); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	if err := models.EnsureRedemptionInflightIndex(db); err != nil {
		t.Fatalf("create inflight index failed: %v", err)
	}
	return NewRedemptionRepository(db), db
}

func newTestRedemption(no string, offerID, userID uint, status string, now time.Time) models.Redemption {
	return models.Redemption{
		RedemptionNo: no,
		OfferID:      offerID,
		UserID:       userID,
		VenueID:      1,
		Mode:         constants.RedemptionModeOTC,
		Status:       status,
		OTCExpiresAt: now.Add(10 * time.Minute),
		Value:        models.NewMoneyFromDecimal(decimal.RequireFromString("15.00")),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func TestRedemptionRepositoryCreateGuardedRejectsDuplicate(t *testing.T) {
	repo, _ := setupRedemptionRepositoryTest(t)
	now := time.Now().UTC()

	first := newTestRedemption("RD-G001", 1, 1, constants.RedemptionStatusVerified, now)
	created, err := repo.CreateGuarded(&first, 3, now)
	if err != nil {
		t.Fatalf("create first failed: %v", err)
	}
	if !created {
		t.Fatalf("first redemption should be created")
	}

	// 已有未完结核销单时不允许再发起
	second := newTestRedemption("RD-G002", 1, 1, constants.RedemptionStatusVerified, now)
	created, err = repo.CreateGuarded(&second, 3, now)
	if err != nil {
		t.Fatalf("create second failed: %v", err)
	}
	if created {
		t.Fatalf("second redemption should be rejected while first is open")
	}

	// 其他用户不受影响
	other := newTestRedemption("RD-G003", 1, 2, constants.RedemptionStatusVerified, now)
	created, err = repo.CreateGuarded(&other, 3, now)
	if err != nil {
		t.Fatalf("create other failed: %v", err)
	}
	if !created {
		t.Fatalf("other user redemption should be created")
	}
}

func TestRedemptionRepositoryInflightUniqueIndex(t *testing.T) {
	repo, db := setupRedemptionRepositoryTest(t)
	now := time.Now().UTC()

	first := newTestRedemption("RD-I001", 11, 6, constants.RedemptionStatusVerified, now)
	if err := db.Create(&first).Error; err != nil {
		t.Fatalf("seed first failed: %v", err)
	}

	// 绕过计数复核直接插入第二张进行中核销单：唯一索引必须拒绝
	// （对应并发事务同时通过计数复核后各自插入的情形）
	second := newTestRedemption("RD-I002", 11, 6, constants.RedemptionStatusPending, now)
	err := db.Create(&second).Error
	if err == nil {
		t.Fatalf("second in-flight redemption for same (user, offer) must violate unique index")
	}
	if !isUniqueViolation(err) {
		t.Fatalf("driver error should be recognized as unique violation, got %v", err)
	}

	// 走仓库入口时冲突表现为竞争失败而非错误
	created, err := repo.CreateGuarded(&second, 0, now)
	if err != nil {
		t.Fatalf("guarded create failed: %v", err)
	}
	if created {
		t.Fatalf("guarded create should lose while another in-flight row exists")
	}

	// 终态不受索引约束：同一 (user, offer) 可以累积多条已拒绝/已标记记录
	flaggedA := newTestRedemption("RD-I003", 11, 6, constants.RedemptionStatusFraudFlagged, now)
	flaggedB := newTestRedemption("RD-I004", 11, 6, constants.RedemptionStatusFraudFlagged, now)
	if err := db.Create(&flaggedA).Error; err != nil {
		t.Fatalf("create flagged A failed: %v", err)
	}
	if err := db.Create(&flaggedB).Error; err != nil {
		t.Fatalf("create flagged B failed: %v", err)
	}

	// 进行中记录到达终态后，名额对下一张放开
	if err := db.Model(&models.Redemption{}).Where("id = ?", first.ID).
		Update("status", constants.RedemptionStatusExpired).Error; err != nil {
		t.Fatalf("expire first failed: %v", err)
	}
	third := newTestRedemption("RD-I005", 11, 6, constants.RedemptionStatusVerified, now)
	if err := db.Create(&third).Error; err != nil {
		t.Fatalf("create after terminal transition failed: %v", err)
	}
}

func TestRedemptionRepositoryCreateGuardedCooldown(t *testing.T) {
	repo, db := setupRedemptionRepositoryTest(t)
	now := time.Now().UTC()

	redeemed := newTestRedemption("RD-C001", 5, 9, constants.RedemptionStatusRedeemed, now.Add(-time.Hour))
	redeemed.CooldownUntil = now.Add(23 * time.Hour)
	if err := db.Create(&redeemed).Error; err != nil {
		t.Fatalf("seed redeemed failed: %v", err)
	}

	next := newTestRedemption("RD-C002", 5, 9, constants.RedemptionStatusVerified, now)
	created, err := repo.CreateGuarded(&next, 3, now)
	if err != nil {
		t.Fatalf("create during cooldown failed: %v", err)
	}
	if created {
		t.Fatalf("redemption should be rejected during cooldown")
	}

	created, err = repo.CreateGuarded(&next, 3, now.Add(24*time.Hour))
	if err != nil {
		t.Fatalf("create after cooldown failed: %v", err)
	}
	if !created {
		t.Fatalf("redemption should be created after cooldown elapses")
	}
}

func TestRedemptionRepositoryCreateGuardedMaxPerUser(t *testing.T) {
	repo, db := setupRedemptionRepositoryTest(t)
	now := time.Now().UTC()

	old := newTestRedemption("RD-M001", 7, 3, constants.RedemptionStatusRedeemed, now.Add(-48*time.Hour))
	old.CooldownUntil = now.Add(-24 * time.Hour)
	if err := db.Create(&old).Error; err != nil {
		t.Fatalf("seed redeemed failed: %v", err)
	}

	next := newTestRedemption("RD-M002", 7, 3, constants.RedemptionStatusVerified, now)
	created, err := repo.CreateGuarded(&next, 1, now)
	if err != nil {
		t.Fatalf("create at cap failed: %v", err)
	}
	if created {
		t.Fatalf("redemption should be rejected at per-user cap")
	}

	created, err = repo.CreateGuarded(&next, 2, now)
	if err != nil {
		t.Fatalf("create under cap failed: %v", err)
	}
	if !created {
		t.Fatalf("redemption should be created under per-user cap")
	}
}

func TestRedemptionRepositoryUpdateStatusIf(t *testing.T) {
	repo, db := setupRedemptionRepositoryTest(t)
	now := time.Now().UTC()

	redemption := newTestRedemption("RD-U001", 2, 4, constants.RedemptionStatusVerified, now)
	if err := db.Create(&redemption).Error; err != nil {
		t.Fatalf("seed redemption failed: %v", err)
	}

	redeemedAt := now
	ok, err := repo.UpdateStatusIf(redemption.ID,
		[]string{constants.RedemptionStatusVerified},
		map[string]interface{}{
			"status":      constants.RedemptionStatusRedeemed,
			"redeemed_at": redeemedAt,
		})
	if err != nil {
		t.Fatalf("first transition failed: %v", err)
	}
	if !ok {
		t.Fatalf("first transition should win")
	}

	// 同一迁移重放必须失败（终态不可再变）
	ok, err = repo.UpdateStatusIf(redemption.ID,
		[]string{constants.RedemptionStatusVerified},
		map[string]interface{}{"status": constants.RedemptionStatusRedeemed})
	if err != nil {
		t.Fatalf("second transition failed: %v", err)
	}
	if ok {
		t.Fatalf("second transition should lose")
	}

	var reloaded models.Redemption
	if err := db.First(&reloaded, redemption.ID).Error; err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if reloaded.Status != constants.RedemptionStatusRedeemed {
		t.Fatalf("status want redeemed got %s", reloaded.Status)
	}
	if reloaded.RedeemedAt == nil {
		t.Fatalf("redeemed_at should be set")
	}
}

func TestRedemptionRepositoryRiskCounters(t *testing.T) {
	repo, db := setupRedemptionRepositoryTest(t)
	now := time.Now().UTC()

	rows := []models.Redemption{
		newTestRedemption("RD-R001", 1, 1, constants.RedemptionStatusRedeemed, now.Add(-10*time.Minute)),
		newTestRedemption("RD-R002", 2, 2, constants.RedemptionStatusRejected, now.Add(-20*time.Minute)),
		newTestRedemption("RD-R003", 3, 3, constants.RedemptionStatusFraudFlagged, now.Add(-30*time.Minute)),
		newTestRedemption("RD-R004", 4, 1, constants.RedemptionStatusVerified, now.Add(-40*time.Minute)),
	}
	for i := range rows {
		rows[i].DeviceFingerprint = "fp-shared"
	}
	rows[1].UserID = 2
	rows[2].UserID = 2
	if err := db.Create(&rows).Error; err != nil {
		t.Fatalf("seed rows failed: %v", err)
	}

	users, err := repo.CountDistinctUsersByDevice("fp-shared")
	if err != nil {
		t.Fatalf("count distinct users failed: %v", err)
	}
	if users != 2 {
		t.Fatalf("distinct users want 2 got %d", users)
	}

	recent, err := repo.CountByUserSince(1, now.Add(-time.Hour))
	if err != nil {
		t.Fatalf("count by user since failed: %v", err)
	}
	if recent != 2 {
		t.Fatalf("recent count want 2 got %d", recent)
	}

	bad, err := repo.CountBadByUserSince(2, now.Add(-7*24*time.Hour))
	if err != nil {
		t.Fatalf("count bad failed: %v", err)
	}
	if bad != 2 {
		t.Fatalf("bad count want 2 got %d", bad)
	}
}
