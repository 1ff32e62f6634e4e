package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/diewo77/go-worklog/internal/models"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	// Unique in-memory database per test to avoid cross-test collisions.
	dsn := "file:" + t.Name() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.Profile{}, &models.ProjectPreset{}, &models.EmployeeTypeSetting{}, &models.WorkRecord{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// seedUser creates an identity plus profile with the given role and type.
func seedUser(t *testing.T, db *gorm.DB, name, role, employeeType string) *models.User {
	t.Helper()
	hash, _ := bcrypt.GenerateFromPassword([]byte("secret123"), bcrypt.DefaultCost)
	user := models.User{Email: PseudoEmail(name), Password: string(hash)}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("user %s: %v", name, err)
	}
	profile := models.Profile{ID: user.ID, DisplayName: name, Role: role, EmployeeType: employeeType}
	if err := db.Create(&profile).Error; err != nil {
		t.Fatalf("profile %s: %v", name, err)
	}
	return &user
}

func TestPseudoEmailDeterministic(t *testing.T) {
	got := PseudoEmail("  bob ")
	if got != "626f62@users.worklog.local" {
		t.Fatalf("unexpected pseudo email: %s", got)
	}
	if PseudoEmail("bob") != got {
		t.Fatalf("trimming should not change the mapping")
	}
}

func TestRegisterCreatesProfileDefaults(t *testing.T) {
	db := setupTestDB(t)
	svc := NewRegistrationService(db)
	user, err := svc.Register("alice", "pw12345")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	var profile models.Profile
	if err := db.First(&profile, user.ID).Error; err != nil {
		t.Fatalf("profile not materialized: %v", err)
	}
	if profile.DisplayName != "alice" || profile.Role != models.RoleUser || profile.EmployeeType != models.DefaultEmployeeType {
		t.Fatalf("unexpected profile defaults: %+v", profile)
	}
	if !strings.HasSuffix(user.Email, "@users.worklog.local") {
		t.Fatalf("identity email should live in the reserved domain: %s", user.Email)
	}
}

func TestRegisterRejectsDuplicateName(t *testing.T) {
	db := setupTestDB(t)
	svc := NewRegistrationService(db)
	if _, err := svc.Register("carol", "pw12345"); err != nil {
		t.Fatalf("first register: %v", err)
	}
	if _, err := svc.Register("carol", "other456"); err != ErrNameTaken {
		t.Fatalf("expected ErrNameTaken got %v", err)
	}
	// Different case is a different name (collision check is case-sensitive).
	if _, err := svc.Register("Carol", "other456"); err != nil {
		t.Fatalf("case-different name should register: %v", err)
	}
}

func TestRegisterRequiresNameAndPassword(t *testing.T) {
	db := setupTestDB(t)
	svc := NewRegistrationService(db)
	if _, err := svc.Register("   ", "pw"); err != ErrNameRequired {
		t.Fatalf("expected ErrNameRequired got %v", err)
	}
	if _, err := svc.Register("dave", ""); err != ErrPasswordRequired {
		t.Fatalf("expected ErrPasswordRequired got %v", err)
	}
}

func TestAuthenticate(t *testing.T) {
	db := setupTestDB(t)
	svc := NewRegistrationService(db)
	if _, err := svc.Register("erin", "pw12345"); err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := svc.Authenticate("erin", "pw12345"); err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if _, err := svc.Authenticate("erin", "wrong"); err != ErrInvalidCredentials {
		t.Fatalf("expected ErrInvalidCredentials got %v", err)
	}
	if _, err := svc.Authenticate("nobody", "pw12345"); err != ErrInvalidCredentials {
		t.Fatalf("expected ErrInvalidCredentials for unknown name got %v", err)
	}
}

func TestProfileResolverImmediate(t *testing.T) {
	db := setupTestDB(t)
	user := seedUser(t, db, "frank", models.RoleUser, models.DefaultEmployeeType)
	r := NewProfileResolver(db)
	profile, err := r.Resolve(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if profile.DisplayName != "frank" {
		t.Fatalf("unexpected profile: %+v", profile)
	}
}

func TestProfileResolverRetriesThenFinds(t *testing.T) {
	db := setupTestDB(t)
	user := models.User{Email: PseudoEmail("late"), Password: "x"}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("user: %v", err)
	}
	r := &ProfileResolver{DB: db, Attempts: 5, BaseDelay: 10 * time.Millisecond}
	go func() {
		time.Sleep(25 * time.Millisecond)
		db.Create(&models.Profile{ID: user.ID, DisplayName: "late", Role: models.RoleUser, EmployeeType: models.DefaultEmployeeType})
	}()
	profile, err := r.Resolve(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("expected resolution after lag, got %v", err)
	}
	if profile.ID != user.ID {
		t.Fatalf("resolved wrong profile: %+v", profile)
	}
}

func TestProfileResolverDegrades(t *testing.T) {
	db := setupTestDB(t)
	r := &ProfileResolver{DB: db, Attempts: 3, BaseDelay: time.Millisecond}
	if _, err := r.Resolve(context.Background(), 4242); err != ErrProfileUnavailable {
		t.Fatalf("expected ErrProfileUnavailable got %v", err)
	}
}

func TestProfileResolverMaterializesMissingProfile(t *testing.T) {
	db := setupTestDB(t)
	user := models.User{Email: PseudoEmail("ghost"), Password: "x"}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("user: %v", err)
	}
	r := &ProfileResolver{DB: db, Attempts: 2, BaseDelay: time.Millisecond}
	profile, err := r.Resolve(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if profile.DisplayName != "ghost" || profile.Role != models.RoleUser || profile.EmployeeType != models.DefaultEmployeeType {
		t.Fatalf("materialized profile defaults wrong: %+v", profile)
	}
	var stored models.Profile
	if err := db.First(&stored, user.ID).Error; err != nil {
		t.Fatalf("profile not persisted: %v", err)
	}
}

func TestProfileResolverMaterializeFallsBackToUnnamed(t *testing.T) {
	db := setupTestDB(t)
	// An identity whose address decodes to nothing usable.
	user := models.User{Email: "@users.worklog.local", Password: "x"}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("user: %v", err)
	}
	r := &ProfileResolver{DB: db, Attempts: 2, BaseDelay: time.Millisecond}
	profile, err := r.Resolve(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if profile.DisplayName != models.UnnamedDisplayName {
		t.Fatalf("expected %q got %q", models.UnnamedDisplayName, profile.DisplayName)
	}
}

func TestDisplayNameFromEmail(t *testing.T) {
	if got := DisplayNameFromEmail(PseudoEmail("bob")); got != "bob" {
		t.Fatalf("roundtrip: %q", got)
	}
	for _, email := range []string{
		"@users.worklog.local",
		"zz-not-hex@users.worklog.local",
		"bob@elsewhere.example",
	} {
		if got := DisplayNameFromEmail(email); got != models.UnnamedDisplayName {
			t.Fatalf("DisplayNameFromEmail(%q) = %q, want %q", email, got, models.UnnamedDisplayName)
		}
	}
}
