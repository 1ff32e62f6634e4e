package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/diewo77/go-worklog/auth"
	"github.com/diewo77/go-worklog/httpx"
	"github.com/diewo77/go-worklog/internal/models"
	"github.com/diewo77/go-worklog/internal/policy"
	"github.com/diewo77/go-worklog/validation"
	"gorm.io/gorm"
)

// PresetHandler manages the project preset catalog. Reads are open to every
// authenticated user; writes go through the gate (admin only).
type PresetHandler struct {
	DB   *gorm.DB
	Gate *policy.Gate
}

func NewPresetHandler(db *gorm.DB, gate *policy.Gate) *PresetHandler {
	return &PresetHandler{DB: db, Gate: gate}
}

// List returns active presets ordered for entry pickers. Admins may pass
// ?all=1 to include inactive ones.
func (h *PresetHandler) List(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())

	q := h.DB.Order("sort_order asc, name asc")
	if r.URL.Query().Get("all") != "1" || !h.Gate.IsAdmin(r.Context(), uid) {
		q = q.Where("is_active = ?", true)
	}

	var presets []models.ProjectPreset
	if err := q.Find(&presets).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "db_error", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, presets)
}

func (h *PresetHandler) Create(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	if err := h.Gate.Authorize(r.Context(), uid, policy.ActionCreate, policy.TablePreset, nil); err != nil {
		writeServiceError(w, err)
		return
	}

	unitPrice, _ := strconv.ParseFloat(r.FormValue("unit_price"), 64)
	sortOrder, _ := strconv.Atoi(r.FormValue("sort_order"))
	preset := models.ProjectPreset{
		Name:      strings.TrimSpace(r.FormValue("name")),
		UnitPrice: unitPrice,
		UnitLabel: r.FormValue("unit_label"),
		IsActive:  r.FormValue("is_active") != "0",
		SortOrder: sortOrder,
	}

	v := make(validation.Violations)
	validation.Required("name", preset.Name, v)
	validation.MaxLen("name", preset.Name, 100, v)
	validation.NonNegativeFloat("unit_price", preset.UnitPrice, v)
	if !v.Empty() {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", v)
		return
	}

	if err := h.DB.Create(&preset).Error; err != nil {
		if isDuplicate(err) {
			httpx.JSONError(w, http.StatusConflict, "name_already_exists", nil)
			return
		}
		httpx.JSONError(w, http.StatusInternalServerError, "db_error", nil)
		return
	}
	httpx.JSON(w, http.StatusCreated, preset)
}

func (h *PresetHandler) Update(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	if err := h.Gate.Authorize(r.Context(), uid, policy.ActionUpdate, policy.TablePreset, nil); err != nil {
		writeServiceError(w, err)
		return
	}
	id, ok := formID(r)
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}

	var preset models.ProjectPreset
	if err := h.DB.First(&preset, id).Error; err != nil {
		httpx.JSONError(w, http.StatusNotFound, "preset_not_found", nil)
		return
	}

	unitPrice, _ := strconv.ParseFloat(r.FormValue("unit_price"), 64)
	sortOrder, _ := strconv.Atoi(r.FormValue("sort_order"))
	preset.Name = strings.TrimSpace(r.FormValue("name"))
	preset.UnitPrice = unitPrice
	preset.UnitLabel = r.FormValue("unit_label")
	preset.IsActive = r.FormValue("is_active") != "0"
	preset.SortOrder = sortOrder

	v := make(validation.Violations)
	validation.Required("name", preset.Name, v)
	validation.NonNegativeFloat("unit_price", preset.UnitPrice, v)
	if !v.Empty() {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", v)
		return
	}

	if err := h.DB.Save(&preset).Error; err != nil {
		if isDuplicate(err) {
			httpx.JSONError(w, http.StatusConflict, "name_already_exists", nil)
			return
		}
		httpx.JSONError(w, http.StatusInternalServerError, "db_error", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, preset)
}

// Delete deactivates a preset by default. Existing records are untouched
// either way since they carry their own snapshots. ?hard=1 removes the row.
func (h *PresetHandler) Delete(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	if err := h.Gate.Authorize(r.Context(), uid, policy.ActionDelete, policy.TablePreset, nil); err != nil {
		writeServiceError(w, err)
		return
	}
	id, ok := formID(r)
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}

	if r.URL.Query().Get("hard") == "1" {
		if err := h.DB.Delete(&models.ProjectPreset{}, id).Error; err != nil {
			httpx.JSONError(w, http.StatusInternalServerError, "db_error", nil)
			return
		}
		httpx.JSON(w, http.StatusOK, map[string]any{"deleted": id})
		return
	}

	if err := h.DB.Model(&models.ProjectPreset{}).Where("id = ?", id).Update("is_active", false).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "db_error", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"deactivated": id})
}
