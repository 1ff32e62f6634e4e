package services

import (
	"testing"

	"github.com/diewo77/go-worklog/internal/models"
)

func TestResolvePresetUnitPrice(t *testing.T) {
	db := setupTestDB(t)
	user := seedUser(t, db, "worker", models.RoleUser, "regular")
	db.Create(&models.EmployeeTypeSetting{TypeKey: "regular", DailyWage: 150, OvertimeRate: 10})
	db.Create(&models.ProjectPreset{Name: "roofing", UnitPrice: 30, IsActive: true})

	r := NewRateResolver(db, "attendance")
	snap, err := r.Resolve(user.ID, "roofing")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if snap.UnitPrice != 30 || snap.OvertimeRate != 10 {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
}

func TestResolveAttendanceUsesDailyWage(t *testing.T) {
	db := setupTestDB(t)
	user := seedUser(t, db, "worker", models.RoleUser, "senior")
	db.Create(&models.EmployeeTypeSetting{TypeKey: "senior", DailyWage: 200, OvertimeRate: 12})
	// A preset named like the attendance project must not shadow the wage.
	db.Create(&models.ProjectPreset{Name: "attendance", UnitPrice: 999, IsActive: true})

	r := NewRateResolver(db, "attendance")
	snap, err := r.Resolve(user.ID, "attendance")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if snap.UnitPrice != 200 {
		t.Fatalf("expected daily wage 200 got %v", snap.UnitPrice)
	}
	if snap.OvertimeRate != 12 {
		t.Fatalf("expected overtime rate 12 got %v", snap.OvertimeRate)
	}
}

func TestResolveCustomProjectZeroPrice(t *testing.T) {
	db := setupTestDB(t)
	user := seedUser(t, db, "worker", models.RoleUser, "regular")
	db.Create(&models.EmployeeTypeSetting{TypeKey: "regular", DailyWage: 150, OvertimeRate: 10})

	r := NewRateResolver(db, "attendance")
	snap, err := r.Resolve(user.ID, "one-off favor")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if snap.UnitPrice != 0 {
		t.Fatalf("custom project should resolve to zero price, got %v", snap.UnitPrice)
	}
}

func TestResolveInactivePresetNotMatched(t *testing.T) {
	db := setupTestDB(t)
	user := seedUser(t, db, "worker", models.RoleUser, "regular")
	db.Create(&models.ProjectPreset{Name: "legacy", UnitPrice: 55, IsActive: false})

	r := NewRateResolver(db, "attendance")
	snap, err := r.Resolve(user.ID, "legacy")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if snap.UnitPrice != 0 {
		t.Fatalf("inactive preset should not resolve, got %v", snap.UnitPrice)
	}
}

func TestResolveUnresolvedEmployeeTypeFallsBack(t *testing.T) {
	db := setupTestDB(t)
	user := seedUser(t, db, "worker", models.RoleUser, "ghost-type")

	r := NewRateResolver(db, "attendance")
	snap, err := r.Resolve(user.ID, "attendance")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if snap.UnitPrice != 0 {
		t.Fatalf("unresolved type should yield zero wage, got %v", snap.UnitPrice)
	}
	if snap.OvertimeRate != DefaultOvertimeRate {
		t.Fatalf("unresolved type should yield default overtime rate, got %v", snap.OvertimeRate)
	}
}

func TestResolveMissingProfile(t *testing.T) {
	db := setupTestDB(t)
	r := NewRateResolver(db, "attendance")
	snap, err := r.Resolve(777, "attendance")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if snap.UnitPrice != 0 || snap.OvertimeRate != DefaultOvertimeRate {
		t.Fatalf("missing profile should fall back to defaults: %+v", snap)
	}
}
