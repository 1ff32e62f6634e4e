package models

import "time"

// WorkRecord is one logged unit of work. Rate values are snapshotted into
// the row at write time: once saved, its monetary meaning is fully
// determined by its own fields and never re-joins the rate catalog.
type WorkRecord struct {
	ID     uint `gorm:"primaryKey" json:"id"`
	UserID uint `gorm:"not null;index:idx_record_user_date,priority:1" json:"user_id"`
	// Display name captured at write time; deliberately not kept in sync
	// with later profile renames.
	UserName string `gorm:"size:100" json:"user_name"`
	// Free text. Need not match a live preset; unmatched names resolve to a
	// zero unit price at write time.
	ProjectName          string    `gorm:"size:100;not null" json:"project_name"`
	Workload             float64   `gorm:"not null;default:0" json:"workload"`
	Overtime             float64   `gorm:"not null;default:0" json:"overtime"`
	UnitPriceSnapshot    float64   `gorm:"not null;default:0" json:"unit_price_snapshot"`
	OvertimeRateSnapshot float64   `gorm:"not null;default:0" json:"overtime_rate_snapshot"`
	Note                 string    `gorm:"size:500" json:"note"`
	RecordDate           time.Time `gorm:"type:date;not null;index:idx_record_user_date,priority:2;index:idx_record_date" json:"record_date"`
	CreatedAt            time.Time `json:"created_at"`
}

// GetUserID reports the owning user for ownership policy checks.
func (r *WorkRecord) GetUserID() uint { return r.UserID }
