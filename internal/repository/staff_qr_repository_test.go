package repository

import (
	"fmt"
	"testing"
	"time"

	"github.com/hexiao-next/internal/constants"
	"github.com/hexiao-next/internal/models"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupStaffQRRepositoryTest(t *testing.T) (*GormStaffQRRepository, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:staff_qr_repo_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.StaffQRToken{}); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	return NewStaffQRRepository(db), db
}

func newTestStaffQRToken(hash string, venueID, issuerID uint, now time.Time) *models.StaffQRToken {
	return &models.StaffQRToken{
		VenueID:      venueID,
		IssuerUserID: issuerID,
		RoleScope:    constants.RosterRoleCashier,
		TokenHash:    hash,
		TTLSeconds:   300,
		IssuedAt:     now,
		ExpiresAt:    now.Add(5 * time.Minute),
		State:        constants.StaffQRStateActive,
	}
}

func TestStaffQRRepositoryRotateActive(t *testing.T) {
	repo, db := setupStaffQRRepositoryTest(t)
	now := time.Now().UTC()

	first := newTestStaffQRToken("hash-a", 1, 10, now)
	if err := repo.RotateActive(first); err != nil {
		t.Fatalf("rotate first failed: %v", err)
	}

	second := newTestStaffQRToken("hash-b", 1, 10, now.Add(time.Minute))
	if err := repo.RotateActive(second); err != nil {
		t.Fatalf("rotate second failed: %v", err)
	}

	// 旧码必须在新码落库的同一事务内被吊销
	got, err := repo.GetActiveByHash("hash-a")
	if err != nil {
		t.Fatalf("get old hash failed: %v", err)
	}
	if got != nil {
		t.Fatalf("old token should no longer be active")
	}
	got, err = repo.GetActiveByHash("hash-b")
	if err != nil {
		t.Fatalf("get new hash failed: %v", err)
	}
	if got == nil {
		t.Fatalf("new token should be active")
	}

	var active int64
	if err := db.Model(&models.StaffQRToken{}).
		Where("venue_id = ? AND issuer_user_id = ? AND state = ?", 1, 10, constants.StaffQRStateActive).
		Count(&active).Error; err != nil {
		t.Fatalf("count active failed: %v", err)
	}
	if active != 1 {
		t.Fatalf("active token count want 1 got %d", active)
	}

	// 其他签发者不受轮换影响
	other := newTestStaffQRToken("hash-c", 1, 11, now)
	if err := repo.RotateActive(other); err != nil {
		t.Fatalf("rotate other issuer failed: %v", err)
	}
	got, err = repo.GetActiveByHash("hash-b")
	if err != nil {
		t.Fatalf("get hash-b failed: %v", err)
	}
	if got == nil {
		t.Fatalf("other issuer rotation must not revoke this issuer token")
	}
}

func TestStaffQRRepositoryMarkExpired(t *testing.T) {
	repo, _ := setupStaffQRRepositoryTest(t)
	now := time.Now().UTC()

	stale := newTestStaffQRToken("hash-stale", 2, 20, now.Add(-time.Hour))
	stale.ExpiresAt = now.Add(-30 * time.Minute)
	if err := repo.RotateActive(stale); err != nil {
		t.Fatalf("seed stale failed: %v", err)
	}

	marked, err := repo.MarkExpired(stale.ID)
	if err != nil {
		t.Fatalf("mark expired failed: %v", err)
	}
	if !marked {
		t.Fatalf("active token should be marked expired")
	}

	got, err := repo.GetActiveByHash("hash-stale")
	if err != nil {
		t.Fatalf("get stale failed: %v", err)
	}
	if got != nil {
		t.Fatalf("stale token should be expired")
	}

	// 重复标记不再生效
	marked, err = repo.MarkExpired(stale.ID)
	if err != nil {
		t.Fatalf("second mark failed: %v", err)
	}
	if marked {
		t.Fatalf("second mark should be a no-op")
	}
}
