package models

import "time"

// User is the identity row behind a Profile. The email is synthetic: display
// names are hex-encoded into a reserved local domain so the identity layer
// stays email-shaped without users ever seeing an email address.
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Email     string    `gorm:"unique;not null;index" json:"-"`
	Password  string    `gorm:"not null" json:"-"` // bcrypt hash
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"-"`
}
