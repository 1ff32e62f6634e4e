package models

import "time"

// Rate catalog reference tables. Admin-writable, world-readable.

// ProjectPreset defines a project's default unit price and unit label.
// Inactive presets are hidden from entry listings but historical records
// referencing them stay valid (records carry their own rate snapshots).
type ProjectPreset struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"uniqueIndex;size:100;not null" json:"name"`
	UnitPrice float64   `gorm:"not null;default:0" json:"unit_price"`
	UnitLabel string    `gorm:"size:20" json:"unit_label"`
	IsActive  bool      `gorm:"not null;default:true" json:"is_active"`
	SortOrder int       `gorm:"not null;default:0" json:"sort_order"`
	CreatedAt time.Time `json:"created_at"`
}

// EmployeeTypeSetting holds per-type wage rates. The set of type keys is
// open: a Profile's EmployeeType may reference a key with no row here, in
// which case rate resolution falls back to zero wage / default overtime.
type EmployeeTypeSetting struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	TypeKey      string    `gorm:"uniqueIndex;size:50;not null" json:"type_key"`
	Label        string    `gorm:"size:100" json:"label"`
	DailyWage    float64   `gorm:"not null;default:0" json:"daily_wage"`
	OvertimeRate float64   `gorm:"not null;default:9" json:"overtime_rate"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
