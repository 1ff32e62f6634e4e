package policy

import (
	"context"

	"github.com/diewo77/go-worklog/internal/models"
)

// Ownable is implemented by rows that have an owning user.
type Ownable interface {
	GetUserID() uint
}

// ProfilePolicy gates writes to profile rows: a profile may be inserted
// only for the actor's own identity, updated by its owner or an admin, and
// never deleted through this path (removal cascades from the identity).
type ProfilePolicy struct{}

func NewProfilePolicy() *ProfilePolicy { return &ProfilePolicy{} }

func (p *ProfilePolicy) Can(_ context.Context, actorID uint, actorIsAdmin bool, action Action, row any) bool {
	profile, ok := row.(*models.Profile)
	if !ok {
		return false
	}
	switch action {
	case ActionCreate:
		return profile.ID == actorID
	case ActionUpdate:
		return profile.ID == actorID || actorIsAdmin
	case ActionDelete:
		return false
	default:
		return true
	}
}

// WorkRecordPolicy gates writes to work records: insert only by the owner,
// update by owner or admin, delete by admin only and never an admin's own
// rows, which forces a second admin for those.
type WorkRecordPolicy struct{}

func NewWorkRecordPolicy() *WorkRecordPolicy { return &WorkRecordPolicy{} }

func (p *WorkRecordPolicy) Can(_ context.Context, actorID uint, actorIsAdmin bool, action Action, row any) bool {
	record, ok := row.(Ownable)
	if !ok {
		// Rows without an owner are denied rather than silently allowed.
		return false
	}
	switch action {
	case ActionCreate:
		return record.GetUserID() == actorID
	case ActionUpdate:
		return record.GetUserID() == actorID || actorIsAdmin
	case ActionDelete, ActionPurge:
		return actorIsAdmin && record.GetUserID() != actorID
	default:
		return true
	}
}

// NewAuthGate builds the fully wired gate: cached role resolution plus the
// per-table policies above. Rate catalog tables carry no row policy; their
// writes are admin-only at the grant layer already.
func NewAuthGate(resolver RoleResolver) *Gate {
	g := NewGate(resolver)
	g.Register(TableProfile, NewProfilePolicy())
	g.Register(TableWorkRecord, NewWorkRecordPolicy())
	return g
}
