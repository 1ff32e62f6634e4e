package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/diewo77/go-worklog/auth"
	"github.com/diewo77/go-worklog/httpx"
	"github.com/diewo77/go-worklog/internal/models"
	"github.com/diewo77/go-worklog/internal/policy"
	"github.com/diewo77/go-worklog/internal/services"
	"github.com/diewo77/go-worklog/validation"
	"gorm.io/gorm"
)

// EmployeeTypeHandler manages per-type wage settings. Same shape as the
// preset catalog: open reads, gated writes.
type EmployeeTypeHandler struct {
	DB   *gorm.DB
	Gate *policy.Gate
}

func NewEmployeeTypeHandler(db *gorm.DB, gate *policy.Gate) *EmployeeTypeHandler {
	return &EmployeeTypeHandler{DB: db, Gate: gate}
}

func (h *EmployeeTypeHandler) List(w http.ResponseWriter, r *http.Request) {
	var settings []models.EmployeeTypeSetting
	if err := h.DB.Order("type_key asc").Find(&settings).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "db_error", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, settings)
}

func (h *EmployeeTypeHandler) Create(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	if err := h.Gate.Authorize(r.Context(), uid, policy.ActionCreate, policy.TableEmployeeType, nil); err != nil {
		writeServiceError(w, err)
		return
	}

	setting, v := parseTypeSetting(r)
	if !v.Empty() {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", v)
		return
	}

	if err := h.DB.Create(&setting).Error; err != nil {
		if isDuplicate(err) {
			httpx.JSONError(w, http.StatusConflict, "type_key_already_exists", nil)
			return
		}
		httpx.JSONError(w, http.StatusInternalServerError, "db_error", nil)
		return
	}
	httpx.JSON(w, http.StatusCreated, setting)
}

func (h *EmployeeTypeHandler) Update(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	if err := h.Gate.Authorize(r.Context(), uid, policy.ActionUpdate, policy.TableEmployeeType, nil); err != nil {
		writeServiceError(w, err)
		return
	}
	id, ok := formID(r)
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}

	var setting models.EmployeeTypeSetting
	if err := h.DB.First(&setting, id).Error; err != nil {
		httpx.JSONError(w, http.StatusNotFound, "employee_type_not_found", nil)
		return
	}

	in, v := parseTypeSetting(r)
	if !v.Empty() {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", v)
		return
	}
	setting.TypeKey = in.TypeKey
	setting.Label = in.Label
	setting.DailyWage = in.DailyWage
	setting.OvertimeRate = in.OvertimeRate

	if err := h.DB.Save(&setting).Error; err != nil {
		if isDuplicate(err) {
			httpx.JSONError(w, http.StatusConflict, "type_key_already_exists", nil)
			return
		}
		httpx.JSONError(w, http.StatusInternalServerError, "db_error", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, setting)
}

// Delete removes a wage setting. Profiles referencing the key keep it;
// rate resolution for them falls back to zero wage and the default
// overtime rate from then on.
func (h *EmployeeTypeHandler) Delete(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	if err := h.Gate.Authorize(r.Context(), uid, policy.ActionDelete, policy.TableEmployeeType, nil); err != nil {
		writeServiceError(w, err)
		return
	}
	id, ok := formID(r)
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	if err := h.DB.Delete(&models.EmployeeTypeSetting{}, id).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "db_error", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"deleted": id})
}

func parseTypeSetting(r *http.Request) (models.EmployeeTypeSetting, validation.Violations) {
	dailyWage, _ := strconv.ParseFloat(r.FormValue("daily_wage"), 64)
	overtimeRate := services.DefaultOvertimeRate
	if s := r.FormValue("overtime_rate"); s != "" {
		overtimeRate, _ = strconv.ParseFloat(s, 64)
	}

	setting := models.EmployeeTypeSetting{
		TypeKey:      strings.TrimSpace(r.FormValue("type_key")),
		Label:        r.FormValue("label"),
		DailyWage:    dailyWage,
		OvertimeRate: overtimeRate,
	}

	v := make(validation.Violations)
	validation.Required("type_key", setting.TypeKey, v)
	validation.MaxLen("type_key", setting.TypeKey, 50, v)
	validation.NonNegativeFloat("daily_wage", setting.DailyWage, v)
	validation.NonNegativeFloat("overtime_rate", setting.OvertimeRate, v)
	return setting, v
}
