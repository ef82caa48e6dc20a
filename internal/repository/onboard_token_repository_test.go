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

func setupOnboardTokenRepositoryTest(t *testing.T) *GormOnboardTokenRepository {
	t.Helper()
	dsn := fmt.Sprintf("file:onboard_repo_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.OnboardToken{}); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	return NewOnboardTokenRepository(db)
}

func TestOnboardTokenRepositoryMarkUsedIfActive(t *testing.T) {
	repo := setupOnboardTokenRepositoryTest(t)
	now := time.Now().UTC()

	token := &models.OnboardToken{
		VenueID:      1,
		IssuerUserID: 10,
		RoleScope:    constants.RosterRoleCashier,
		TokenHash:    "onboard-hash-a",
		ExpiresAt:    now.Add(24 * time.Hour),
		State:        constants.OnboardStateActive,
	}
	if err := repo.Create(token); err != nil {
		t.Fatalf("create token failed: %v", err)
	}

	ok, err := repo.MarkUsedIfActive(token.ID, 77, now)
	if err != nil {
		t.Fatalf("first use failed: %v", err)
	}
	if !ok {
		t.Fatalf("first use should win")
	}

	// 单次使用：重放必须失败
	ok, err = repo.MarkUsedIfActive(token.ID, 88, now)
	if err != nil {
		t.Fatalf("second use failed: %v", err)
	}
	if ok {
		t.Fatalf("second use should lose")
	}

	got, err := repo.GetByHash("onboard-hash-a")
	if err != nil {
		t.Fatalf("get by hash failed: %v", err)
	}
	if got == nil {
		t.Fatalf("token should exist")
	}
	if got.State != constants.OnboardStateUsed {
		t.Fatalf("state want used got %s", got.State)
	}
	if got.UsedBy == nil || *got.UsedBy != 77 {
		t.Fatalf("used_by should record first winner")
	}
}

func TestOnboardTokenRepositoryMarkUsedExpired(t *testing.T) {
	repo := setupOnboardTokenRepositoryTest(t)
	now := time.Now().UTC()

	token := &models.OnboardToken{
		VenueID:      1,
		IssuerUserID: 10,
		RoleScope:    constants.RosterRoleManager,
		TokenHash:    "onboard-hash-b",
		ExpiresAt:    now.Add(-time.Minute),
		State:        constants.OnboardStateActive,
	}
	if err := repo.Create(token); err != nil {
		t.Fatalf("create token failed: %v", err)
	}

	ok, err := repo.MarkUsedIfActive(token.ID, 77, now)
	if err != nil {
		t.Fatalf("use expired failed: %v", err)
	}
	if ok {
		t.Fatalf("expired token should not be usable")
	}
}
