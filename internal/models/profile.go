package models

import "time"

// Role values for Profile.Role.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// DefaultEmployeeType is assigned to profiles created at registration.
const DefaultEmployeeType = "regular"

// UnnamedDisplayName is the fallback when registration metadata carries no name.
const UnnamedDisplayName = "unnamed"

// Profile extends a bare identity with role and employee classification.
// Exactly one per User, sharing the same primary key; created automatically
// at registration and removed only by cascading deletion of the identity.
type Profile struct {
	ID           uint      `gorm:"primaryKey;autoIncrement:false" json:"id"`
	DisplayName  string    `gorm:"uniqueIndex;size:100;not null" json:"display_name"`
	Role         string    `gorm:"size:20;not null;default:'user'" json:"role"`
	EmployeeType string    `gorm:"size:50;not null;default:'regular'" json:"employee_type"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (p *Profile) IsAdmin() bool { return p.Role == RoleAdmin }
