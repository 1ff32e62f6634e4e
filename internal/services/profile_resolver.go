package services

import (
	"context"
	"errors"
	"time"

	"github.com/diewo77/go-worklog/internal/models"
	"gorm.io/gorm"
)

// ErrProfileUnavailable means the profile never became visible within the
// retry window. Callers degrade (report it) rather than failing the session.
var ErrProfileUnavailable = errors.New("profile_unavailable")

// ProfileResolver resolves a session's identity to its profile row.
// A profile may not be visible immediately after registration (read-after-
// write lag on the store), so resolution retries with exponential backoff:
// 5 attempts starting at 100ms doubling each time, under 6s overall.
type ProfileResolver struct {
	DB        *gorm.DB
	Attempts  int
	BaseDelay time.Duration
}

func NewProfileResolver(db *gorm.DB) *ProfileResolver {
	return &ProfileResolver{DB: db, Attempts: 5, BaseDelay: 100 * time.Millisecond}
}

// Resolve fetches the profile for userID, retrying bounded on not-found.
// When the retries run out but the identity row exists, a default profile
// is materialized in place, with the display name recovered from the
// pseudo-email ("unnamed" when nothing usable decodes).
func (r *ProfileResolver) Resolve(ctx context.Context, userID uint) (*models.Profile, error) {
	delay := r.BaseDelay
	for attempt := 0; attempt < r.Attempts; attempt++ {
		var profile models.Profile
		err := r.DB.WithContext(ctx).First(&profile, userID).Error
		if err == nil {
			return &profile, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		if attempt == r.Attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}
	return r.materialize(ctx, userID)
}

// materialize creates the missing profile for an existing identity. A
// display-name collision (or a vanished identity) still reports
// ErrProfileUnavailable; callers degrade the same way either path.
func (r *ProfileResolver) materialize(ctx context.Context, userID uint) (*models.Profile, error) {
	var user models.User
	if err := r.DB.WithContext(ctx).First(&user, userID).Error; err != nil {
		return nil, ErrProfileUnavailable
	}
	profile := &models.Profile{
		ID:           userID,
		DisplayName:  DisplayNameFromEmail(user.Email),
		Role:         models.RoleUser,
		EmployeeType: models.DefaultEmployeeType,
	}
	if err := r.DB.WithContext(ctx).Create(profile).Error; err != nil {
		return nil, ErrProfileUnavailable
	}
	return profile, nil
}
