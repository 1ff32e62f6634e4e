package services

import (
	"errors"

	"github.com/diewo77/go-worklog/internal/models"
	"gorm.io/gorm"
)

// DefaultOvertimeRate applies when a profile's employee type resolves to no
// catalog row.
const DefaultOvertimeRate = 9.0

// RateSnapshot holds the effective rates captured into a work record at
// write time. They are immutable afterwards except via an explicit edit,
// which re-resolves against the catalog as of the edit.
type RateSnapshot struct {
	UnitPrice    float64
	OvertimeRate float64
}

// RateResolver turns (user, project name) into the snapshot rates for a
// write. The attendance project resolves to the user's daily wage; any
// other name resolves to the matching active preset's unit price, or zero
// for free-text custom projects.
type RateResolver struct {
	DB                *gorm.DB
	AttendanceProject string
}

func NewRateResolver(db *gorm.DB, attendanceProject string) *RateResolver {
	return &RateResolver{DB: db, AttendanceProject: attendanceProject}
}

// Resolve computes the snapshot for userID logging against projectName.
// An unresolved employee type yields zero wage and the default overtime
// rate; an unresolved project name yields a zero unit price. Neither is an
// error.
func (r *RateResolver) Resolve(userID uint, projectName string) (RateSnapshot, error) {
	snap := RateSnapshot{OvertimeRate: DefaultOvertimeRate}

	employeeType := ""
	var profile models.Profile
	if err := r.DB.Select("employee_type").First(&profile, userID).Error; err == nil {
		employeeType = profile.EmployeeType
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return snap, err
	}

	var setting models.EmployeeTypeSetting
	typeResolved := false
	if employeeType != "" {
		err := r.DB.Where("type_key = ?", employeeType).First(&setting).Error
		if err == nil {
			typeResolved = true
			snap.OvertimeRate = setting.OvertimeRate
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return snap, err
		}
	}

	if projectName == r.AttendanceProject {
		if typeResolved {
			snap.UnitPrice = setting.DailyWage
		}
		return snap, nil
	}

	var preset models.ProjectPreset
	err := r.DB.Where("name = ? AND is_active = ?", projectName, true).First(&preset).Error
	if err == nil {
		snap.UnitPrice = preset.UnitPrice
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return snap, err
	}
	return snap, nil
}
