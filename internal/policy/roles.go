package policy

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/diewo77/go-worklog/internal/models"
	"gorm.io/gorm"
)

// RoleResolver resolves a user id to its role. Implementations must read
// the role directly from storage, never through the Gate itself, or the
// admin check would recurse into the policy being evaluated.
type RoleResolver interface {
	Role(ctx context.Context, userID uint) (string, error)
}

// DBRoleResolver looks up Profile.Role with a plain filtered query.
type DBRoleResolver struct {
	DB *gorm.DB
}

func NewDBRoleResolver(db *gorm.DB) *DBRoleResolver { return &DBRoleResolver{DB: db} }

// Role returns the profile's role, or "" when no profile row exists yet
// (a fresh identity whose profile has not materialized is not an error).
func (r *DBRoleResolver) Role(ctx context.Context, userID uint) (string, error) {
	var profile models.Profile
	err := r.DB.WithContext(ctx).Select("role").First(&profile, userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return profile.Role, nil
}

// CachedRoleResolver wraps a RoleResolver with TTL-based caching so the
// gate does not hit the database on every request.
type CachedRoleResolver struct {
	inner RoleResolver
	cache map[uint]roleEntry
	mu    sync.RWMutex
	ttl   time.Duration
}

type roleEntry struct {
	role      string
	expiresAt time.Time
}

func NewCachedRoleResolver(inner RoleResolver, ttl time.Duration) *CachedRoleResolver {
	return &CachedRoleResolver{inner: inner, cache: make(map[uint]roleEntry), ttl: ttl}
}

func (r *CachedRoleResolver) Role(ctx context.Context, userID uint) (string, error) {
	r.mu.RLock()
	entry, ok := r.cache[userID]
	r.mu.RUnlock()
	if ok && time.Now().Before(entry.expiresAt) {
		return entry.role, nil
	}

	role, err := r.inner.Role(ctx, userID)
	if err != nil {
		return "", err
	}

	r.mu.Lock()
	r.cache[userID] = roleEntry{role: role, expiresAt: time.Now().Add(r.ttl)}
	r.mu.Unlock()
	return role, nil
}

// Invalidate removes a user from the cache. Call when their role changes.
func (r *CachedRoleResolver) Invalidate(userID uint) {
	r.mu.Lock()
	delete(r.cache, userID)
	r.mu.Unlock()
}

// InvalidateAll clears the entire cache.
func (r *CachedRoleResolver) InvalidateAll() {
	r.mu.Lock()
	r.cache = make(map[uint]roleEntry)
	r.mu.Unlock()
}
