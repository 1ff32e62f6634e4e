package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/diewo77/go-worklog/internal/models"
	"github.com/diewo77/go-worklog/internal/policy"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrRecordNotFound = errors.New("record_not_found")
	// Owners may edit a record only on its calendar day; admins any time.
	ErrSameDayEditOnly = errors.New("record_editable_same_day_only")
	// The bulk purge gate requires a fresh password before executing.
	ErrReauthFailed = errors.New("reauth_failed")
)

// RecordInput carries the caller-editable fields of a work record.
// Snapshot rates are never part of the input; they are resolved here.
type RecordInput struct {
	ProjectName string
	Workload    float64
	Overtime    float64
	Note        string
	RecordDate  time.Time
}

// RecordService owns the work-record write paths. Every write is checked
// against the gate before the store is touched, so no caller can bypass the
// table policy.
type RecordService struct {
	DB    *gorm.DB
	Gate  *policy.Gate
	Rates *RateResolver
}

func NewRecordService(db *gorm.DB, gate *policy.Gate, rates *RateResolver) *RecordService {
	return &RecordService{DB: db, Gate: gate, Rates: rates}
}

// Create logs a new record for the acting user, snapshotting the effective
// rates as of now. RecordDate defaults to the creation day.
func (s *RecordService) Create(ctx context.Context, actorID uint, in RecordInput) (*models.WorkRecord, error) {
	record := &models.WorkRecord{
		UserID:      actorID,
		ProjectName: strings.TrimSpace(in.ProjectName),
		Workload:    in.Workload,
		Overtime:    in.Overtime,
		Note:        in.Note,
		RecordDate:  dateOrToday(in.RecordDate),
	}
	if err := s.Gate.Authorize(ctx, actorID, policy.ActionCreate, policy.TableWorkRecord, record); err != nil {
		return nil, err
	}

	var profile models.Profile
	if err := s.DB.First(&profile, actorID).Error; err == nil {
		record.UserName = profile.DisplayName
	}

	snap, err := s.Rates.Resolve(actorID, record.ProjectName)
	if err != nil {
		return nil, err
	}
	record.UnitPriceSnapshot = snap.UnitPrice
	record.OvertimeRateSnapshot = snap.OvertimeRate

	if err := s.DB.Create(record).Error; err != nil {
		return nil, err
	}
	return record, nil
}

// Update edits an existing record. Owners may edit only on the record's
// calendar day; admins any time. The edit re-resolves both snapshots
// against the catalog as of now, using the record owner's employee type, so
// untouched records keep their historical rates.
func (s *RecordService) Update(ctx context.Context, actorID, recordID uint, in RecordInput) (*models.WorkRecord, error) {
	var record models.WorkRecord
	if err := s.DB.First(&record, recordID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}
	if err := s.Gate.Authorize(ctx, actorID, policy.ActionUpdate, policy.TableWorkRecord, &record); err != nil {
		return nil, err
	}
	if record.UserID == actorID && !s.Gate.IsAdmin(ctx, actorID) && !sameDay(record.RecordDate, time.Now()) {
		return nil, ErrSameDayEditOnly
	}

	record.ProjectName = strings.TrimSpace(in.ProjectName)
	record.Workload = in.Workload
	record.Overtime = in.Overtime
	record.Note = in.Note
	if !in.RecordDate.IsZero() {
		record.RecordDate = in.RecordDate
	}

	snap, err := s.Rates.Resolve(record.UserID, record.ProjectName)
	if err != nil {
		return nil, err
	}
	record.UnitPriceSnapshot = snap.UnitPrice
	record.OvertimeRateSnapshot = snap.OvertimeRate

	if err := s.DB.Save(&record).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

// Delete removes a record through the admin path. The policy denies owners
// and denies admins deleting their own rows.
func (s *RecordService) Delete(ctx context.Context, actorID, recordID uint) error {
	var record models.WorkRecord
	if err := s.DB.First(&record, recordID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrRecordNotFound
		}
		return err
	}
	if err := s.Gate.Authorize(ctx, actorID, policy.ActionDelete, policy.TableWorkRecord, &record); err != nil {
		return err
	}
	return s.DB.Delete(&record).Error
}

// ListRange returns records with record_date in [from, to], optionally
// filtered to one user, ordered by date then id. Reads are world-readable
// per the table policy, so no gate check here.
func (s *RecordService) ListRange(from, to time.Time, userID uint) ([]models.WorkRecord, error) {
	q := s.DB.Where("record_date BETWEEN ? AND ?", from, to)
	if userID != 0 {
		q = q.Where("user_id = ?", userID)
	}
	var records []models.WorkRecord
	if err := q.Order("record_date asc, id asc").Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

// Purge bulk-deletes records in a date range (admin tool). It requires a
// fresh password re-entry verified immediately before executing, on top
// of the table policy. The acting admin's own rows are always excluded,
// mirroring the per-row delete rule. The whole purge runs in one
// transaction.
func (s *RecordService) Purge(ctx context.Context, actorID uint, password string, from, to time.Time, targetUserID uint) (int64, error) {
	if !s.Gate.IsAdmin(ctx, actorID) {
		return 0, policy.ErrUnauthorized
	}
	if targetUserID == actorID {
		return 0, policy.ErrUnauthorized
	}

	var actor models.User
	if err := s.DB.First(&actor, actorID).Error; err != nil {
		return 0, ErrReauthFailed
	}
	if bcrypt.CompareHashAndPassword([]byte(actor.Password), []byte(password)) != nil {
		return 0, ErrReauthFailed
	}

	var deleted int64
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		q := tx.Where("record_date BETWEEN ? AND ?", from, to).Where("user_id <> ?", actorID)
		if targetUserID != 0 {
			q = q.Where("user_id = ?", targetUserID)
		}
		res := q.Delete(&models.WorkRecord{})
		deleted = res.RowsAffected
		return res.Error
	})
	if err != nil {
		return 0, err
	}
	return deleted, nil
}

func dateOrToday(t time.Time) time.Time {
	if t.IsZero() {
		now := time.Now()
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	}
	return t
}

func sameDay(a, b time.Time) bool {
	return a.Format("2006-01-02") == b.Format("2006-01-02")
}
