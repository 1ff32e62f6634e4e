// Package policy is the central authorization checkpoint. Every write path
// goes through the Gate, so no handler can bypass the per-table rules.
//
// Authorization is evaluated in two steps:
//  1. the actor's role grants a permission set ("table:action" with
//     wildcard support, admins hold "*:*");
//  2. if a per-row policy is registered for the table and a row is given,
//     the policy refines the grant (ownership, self-delete restrictions).
package policy

import (
	"context"
	"errors"
	"strings"

	"github.com/diewo77/go-worklog/internal/models"
)

// Action describes the kind of operation an actor wants to perform.
type Action string

const (
	ActionView   Action = "view"
	ActionList   Action = "list"
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
	ActionExport Action = "export"
	ActionPurge  Action = "purge"
)

// Table names used as permission resource types and policy keys.
const (
	TableProfile      = "profile"
	TablePreset       = "preset"
	TableEmployeeType = "employee_type"
	TableWorkRecord   = "work_record"
	TableExport       = "export"
)

// ErrUnauthorized is returned for any denied operation. Callers surface it
// as a generic authorization failure without detail.
var ErrUnauthorized = errors.New("unauthorized")

// Permission represents an allowed action on a table, "table:action".
type Permission string

func NewPermission(table string, action Action) Permission {
	return Permission(table + ":" + string(action))
}

// Wildcards for super permissions.
const (
	WildcardAll                     = "*"
	PermissionSuperAdmin Permission = "*:*"
)

// Matches checks if this permission covers a requested permission.
// "*:*" matches everything; "work_record:*" matches all work record actions.
func (p Permission) Matches(requested Permission) bool {
	if p == PermissionSuperAdmin || p == requested {
		return true
	}
	parts := strings.SplitN(string(p), ":", 2)
	reqParts := strings.SplitN(string(requested), ":", 2)
	if len(parts) != 2 || len(reqParts) != 2 {
		return false
	}
	return parts[0] == reqParts[0] && parts[1] == WildcardAll
}

// roleGrants maps each role to its permission set. The set of roles is
// closed (user, admin); the grants for "user" cover world-readable tables
// plus the self-service write paths, refined per row by table policies.
var roleGrants = map[string][]Permission{
	models.RoleAdmin: {PermissionSuperAdmin},
	models.RoleUser: {
		"profile:view", "profile:list", "profile:update",
		"preset:view", "preset:list",
		"employee_type:view", "employee_type:list",
		"work_record:view", "work_record:list", "work_record:create", "work_record:update",
		"export:view",
	},
}

func roleHasPermission(role string, requested Permission) bool {
	for _, p := range roleGrants[role] {
		if p.Matches(requested) {
			return true
		}
	}
	return false
}

// TablePolicy refines a permission grant with per-row rules.
// For list/create-style checks the row may be nil (grant-only check).
type TablePolicy interface {
	Can(ctx context.Context, actorID uint, actorIsAdmin bool, action Action, row any) bool
}

// Gate combines role grants with per-table row policies.
type Gate struct {
	resolver RoleResolver
	policies map[string]TablePolicy
}

// NewGate creates a gate resolving roles through the given resolver.
func NewGate(resolver RoleResolver) *Gate {
	return &Gate{resolver: resolver, policies: make(map[string]TablePolicy)}
}

// Register adds a per-row policy for a table. Overwrites any existing one.
func (g *Gate) Register(table string, p TablePolicy) {
	g.policies[table] = p
}

// Authorize checks whether actorID may perform action on the given table
// row. A nil row checks the role grant only. Returns ErrUnauthorized on any
// denial; the store must not be touched when it does.
func (g *Gate) Authorize(ctx context.Context, actorID uint, action Action, table string, row any) error {
	if actorID == 0 {
		return ErrUnauthorized
	}
	role, err := g.resolver.Role(ctx, actorID)
	if err != nil || role == "" {
		return ErrUnauthorized
	}
	if !roleHasPermission(role, NewPermission(table, action)) {
		return ErrUnauthorized
	}
	if row != nil {
		if p, ok := g.policies[table]; ok {
			if !p.Can(ctx, actorID, role == models.RoleAdmin, action, row) {
				return ErrUnauthorized
			}
		}
	}
	return nil
}

// Can is a convenience wrapper returning bool instead of error.
func (g *Gate) Can(ctx context.Context, actorID uint, action Action, table string, row any) bool {
	return g.Authorize(ctx, actorID, action, table, row) == nil
}

// IsAdmin is the privileged admin predicate. It reads the role through the
// side-channel resolver, never back through Authorize, so evaluating a
// policy that itself needs the admin check cannot recurse.
func (g *Gate) IsAdmin(ctx context.Context, actorID uint) bool {
	if actorID == 0 {
		return false
	}
	role, err := g.resolver.Role(ctx, actorID)
	return err == nil && role == models.RoleAdmin
}
