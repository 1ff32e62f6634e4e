package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/diewo77/go-worklog/auth"
	"github.com/diewo77/go-worklog/httpx"
	"github.com/diewo77/go-worklog/internal/models"
	"github.com/diewo77/go-worklog/internal/policy"
	"github.com/diewo77/go-worklog/internal/services"
	"github.com/diewo77/go-worklog/validation"
	"gorm.io/gorm"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ExportHandler streams spreadsheet exports. Users export their own records;
// admins may export any user or everyone at once.
type ExportHandler struct {
	DB      *gorm.DB
	Gate    *policy.Gate
	Records *services.RecordService
	Exports *services.ExportService
}

func NewExportHandler(db *gorm.DB, gate *policy.Gate, records *services.RecordService, export *services.ExportService) *ExportHandler {
	return &ExportHandler{DB: db, Gate: gate, Records: records, Exports: export}
}

// Export renders one user's records for the range as a workbook.
func (h *ExportHandler) Export(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	from, to, ok := exportRange(w, r)
	if !ok {
		return
	}

	target := uid
	if s := r.URL.Query().Get("user_id"); s != "" {
		id, err := strconv.Atoi(s)
		if err != nil || id <= 0 {
			httpx.JSONError(w, http.StatusBadRequest, "invalid_user_id", nil)
			return
		}
		if uint(id) != uid && !h.Gate.IsAdmin(r.Context(), uid) {
			httpx.JSONError(w, http.StatusForbidden, "unauthorized", nil)
			return
		}
		target = uint(id)
	}

	records, err := h.Records.ListRange(from, to, target)
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "db_error", nil)
		return
	}
	f, err := h.Exports.Workbook(records)
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "export_failed", nil)
		return
	}
	defer f.Close()

	httpx.Attachment(w, "worklog", ".xlsx", xlsxContentType)
	if err := f.Write(w); err != nil {
		// headers already sent; nothing useful to report
		_ = err
	}
}

// ExportAll renders every user's records for the range. Admin only.
func (h *ExportHandler) ExportAll(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	if !h.Gate.IsAdmin(r.Context(), uid) {
		httpx.JSONError(w, http.StatusForbidden, "unauthorized", nil)
		return
	}
	from, to, ok := exportRange(w, r)
	if !ok {
		return
	}

	records, err := h.Records.ListRange(from, to, 0)
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "db_error", nil)
		return
	}
	f, err := h.Exports.MultiUserWorkbook(groupByUser(records))
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "export_failed", nil)
		return
	}
	defer f.Close()

	httpx.Attachment(w, "worklog_all", ".xlsx", xlsxContentType)
	if err := f.Write(w); err != nil {
		_ = err
	}
}

func exportRange(w http.ResponseWriter, r *http.Request) (time.Time, time.Time, bool) {
	v := make(validation.Violations)
	from := validation.Date("from", r.URL.Query().Get("from"), v)
	to := validation.Date("to", r.URL.Query().Get("to"), v)
	if !v.Empty() {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", v)
		return time.Time{}, time.Time{}, false
	}
	now := time.Now()
	if from.IsZero() {
		from = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	}
	if to.IsZero() {
		to = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	}
	return from, to, true
}

// groupByUser splits records by owner, preserving the listing order inside
// each group. Group order follows first appearance in the range.
func groupByUser(records []models.WorkRecord) []services.UserExport {
	index := make(map[uint]int)
	var groups []services.UserExport
	for _, r := range records {
		i, ok := index[r.UserID]
		if !ok {
			i = len(groups)
			index[r.UserID] = i
			name := r.UserName
			if name == "" {
				name = "user_" + strconv.FormatUint(uint64(r.UserID), 10)
			}
			groups = append(groups, services.UserExport{Name: name})
		}
		groups[i].Records = append(groups[i].Records, r)
	}
	return groups
}
