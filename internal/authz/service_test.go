package authz

import (
	"fmt"
	"testing"
	"time"

	"github.com/hexiao-next/internal/constants"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupAuthzTest(t *testing.T) *Service {
	t.Helper()
	dsn := fmt.Sprintf("file:authz_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	svc, err := NewService(db)
	if err != nil {
		t.Fatalf("new authz service failed: %v", err)
	}
	return svc
}

func TestEnrollStaffCashierScope(t *testing.T) {
	svc := setupAuthzTest(t)

	if err := svc.EnrollStaff(1, 100, constants.RosterRoleCashier); err != nil {
		t.Fatalf("enroll cashier failed: %v", err)
	}

	ok, err := svc.EnforceStaff(100, 1, ResourceRedemption, constants.ActionApprove)
	if err != nil {
		t.Fatalf("enforce approve failed: %v", err)
	}
	if !ok {
		t.Fatalf("cashier should approve redemptions in own venue")
	}

	ok, err = svc.EnforceStaff(100, 1, ResourceStaffQR, constants.ActionIssue)
	if err != nil {
		t.Fatalf("enforce issue failed: %v", err)
	}
	if !ok {
		t.Fatalf("cashier should issue own staff qr")
	}

	// 收银员不能入册新员工
	ok, err = svc.EnforceStaff(100, 1, ResourceRoster, constants.ActionEnroll)
	if err != nil {
		t.Fatalf("enforce enroll failed: %v", err)
	}
	if ok {
		t.Fatalf("cashier must not enroll staff")
	}

	// 不能跨门店操作
	ok, err = svc.EnforceStaff(100, 2, ResourceRedemption, constants.ActionApprove)
	if err != nil {
		t.Fatalf("enforce cross venue failed: %v", err)
	}
	if ok {
		t.Fatalf("cashier must not act on other venues")
	}
}

func TestEnrollStaffManagerScope(t *testing.T) {
	svc := setupAuthzTest(t)

	if err := svc.EnrollStaff(3, 200, constants.RosterRoleManager); err != nil {
		t.Fatalf("enroll manager failed: %v", err)
	}

	for _, resource := range []string{ResourceRedemption, ResourceStaffQR, ResourceRoster, ResourceBinding} {
		ok, err := svc.EnforceStaff(200, 3, resource, constants.ActionEnroll)
		if err != nil {
			t.Fatalf("enforce %s failed: %v", resource, err)
		}
		if !ok {
			t.Fatalf("manager should cover resource %s", resource)
		}
	}

	ok, err := svc.EnforceStaff(200, 4, ResourceRoster, constants.ActionEnroll)
	if err != nil {
		t.Fatalf("enforce cross venue failed: %v", err)
	}
	if ok {
		t.Fatalf("manager must not act on other venues")
	}
}

func TestDisableStaffRevokesVenueRoles(t *testing.T) {
	svc := setupAuthzTest(t)

	if err := svc.EnrollStaff(1, 300, constants.RosterRoleCashier); err != nil {
		t.Fatalf("enroll venue1 failed: %v", err)
	}
	if err := svc.EnrollStaff(2, 300, constants.RosterRoleCashier); err != nil {
		t.Fatalf("enroll venue2 failed: %v", err)
	}

	if err := svc.DisableStaff(1, 300); err != nil {
		t.Fatalf("disable failed: %v", err)
	}

	ok, err := svc.EnforceStaff(300, 1, ResourceRedemption, constants.ActionApprove)
	if err != nil {
		t.Fatalf("enforce venue1 failed: %v", err)
	}
	if ok {
		t.Fatalf("disabled staff must lose venue1 access")
	}

	// 其他门店的角色不受影响
	ok, err = svc.EnforceStaff(300, 2, ResourceRedemption, constants.ActionApprove)
	if err != nil {
		t.Fatalf("enforce venue2 failed: %v", err)
	}
	if !ok {
		t.Fatalf("venue2 role should survive venue1 disable")
	}
}
