package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/diewo77/go-worklog/auth"
	"github.com/diewo77/go-worklog/httpx"
	"github.com/diewo77/go-worklog/internal/pay"
	"github.com/diewo77/go-worklog/internal/services"
	"github.com/diewo77/go-worklog/validation"
)

type RecordHandler struct {
	Records *services.RecordService
}

func NewRecordHandler(records *services.RecordService) *RecordHandler {
	return &RecordHandler{Records: records}
}

// List returns records in a date range, optionally filtered to one user.
// Defaults to the current month. Records are world-readable, so no user
// filter is forced on non-admins.
func (h *RecordHandler) List(w http.ResponseWriter, r *http.Request) {
	v := make(validation.Violations)
	from := validation.Date("from", r.URL.Query().Get("from"), v)
	to := validation.Date("to", r.URL.Query().Get("to"), v)
	if !v.Empty() {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", v)
		return
	}
	now := time.Now()
	if from.IsZero() {
		from = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	}
	if to.IsZero() {
		to = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	}

	var userID uint
	if s := r.URL.Query().Get("user_id"); s != "" {
		id, err := strconv.Atoi(s)
		if err != nil || id <= 0 {
			httpx.JSONError(w, http.StatusBadRequest, "invalid_user_id", nil)
			return
		}
		userID = uint(id)
	}

	records, err := h.Records.ListRange(from, to, userID)
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "db_error", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"records": records,
		"total":   pay.TotalPay(records),
	})
}

func (h *RecordHandler) Create(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	in, v := parseRecordInput(r)
	if !v.Empty() {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", v)
		return
	}
	record, err := h.Records.Create(r.Context(), uid, in)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, record)
}

func (h *RecordHandler) Update(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	recordID, ok := formID(r)
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	in, v := parseRecordInput(r)
	if !v.Empty() {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", v)
		return
	}
	record, err := h.Records.Update(r.Context(), uid, recordID, in)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, record)
}

func (h *RecordHandler) Delete(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	recordID, ok := formID(r)
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	if err := h.Records.Delete(r.Context(), uid, recordID); err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"deleted": recordID})
}

// Purge bulk-deletes records in a date range. Admin-only and gated on a
// fresh password re-entry; from/to are mandatory here, unlike List.
func (h *RecordHandler) Purge(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())

	v := make(validation.Violations)
	validation.Required("password", r.FormValue("password"), v)
	validation.Required("from", r.FormValue("from"), v)
	validation.Required("to", r.FormValue("to"), v)
	from := validation.Date("from", r.FormValue("from"), v)
	to := validation.Date("to", r.FormValue("to"), v)
	if !v.Empty() {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", v)
		return
	}

	var targetID uint
	if s := r.FormValue("user_id"); s != "" {
		id, err := strconv.Atoi(s)
		if err != nil || id <= 0 {
			httpx.JSONError(w, http.StatusBadRequest, "invalid_user_id", nil)
			return
		}
		targetID = uint(id)
	}

	deleted, err := h.Records.Purge(r.Context(), uid, r.FormValue("password"), from, to, targetID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"deleted": deleted})
}

func parseRecordInput(r *http.Request) (services.RecordInput, validation.Violations) {
	workload, _ := strconv.ParseFloat(r.FormValue("workload"), 64)
	overtime, _ := strconv.ParseFloat(r.FormValue("overtime"), 64)

	v := make(validation.Violations)
	validation.Required("project_name", r.FormValue("project_name"), v)
	validation.NonNegativeFloat("workload", workload, v)
	validation.NonNegativeFloat("overtime", overtime, v)
	validation.MaxLen("note", r.FormValue("note"), 500, v)
	recordDate := validation.Date("record_date", r.FormValue("record_date"), v)

	return services.RecordInput{
		ProjectName: r.FormValue("project_name"),
		Workload:    workload,
		Overtime:    overtime,
		Note:        r.FormValue("note"),
		RecordDate:  recordDate,
	}, v
}

func formID(r *http.Request) (uint, bool) {
	id, err := strconv.Atoi(r.FormValue("id"))
	if err != nil || id <= 0 {
		return 0, false
	}
	return uint(id), true
}
