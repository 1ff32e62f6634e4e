package handlers

import (
	"net/http"
	"strings"

	"github.com/diewo77/go-worklog/auth"
	"github.com/diewo77/go-worklog/httpx"
	"github.com/diewo77/go-worklog/internal/models"
	"github.com/diewo77/go-worklog/internal/policy"
	"github.com/diewo77/go-worklog/validation"
	"gorm.io/gorm"
)

// AdminUserHandler lets admins list profiles and change roles and employee
// types. Profiles are never deleted here; accounts outlive their records.
type AdminUserHandler struct {
	DB    *gorm.DB
	Gate  *policy.Gate
	Cache *policy.CachedRoleResolver
}

func NewAdminUserHandler(db *gorm.DB, gate *policy.Gate, cache *policy.CachedRoleResolver) *AdminUserHandler {
	return &AdminUserHandler{DB: db, Gate: gate, Cache: cache}
}

func (h *AdminUserHandler) List(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	if !h.Gate.IsAdmin(r.Context(), uid) {
		httpx.JSONError(w, http.StatusForbidden, "unauthorized", nil)
		return
	}

	var profiles []models.Profile
	if err := h.DB.Order("display_name asc").Find(&profiles).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "db_error", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, profiles)
}

// Update changes a profile's role and/or employee type. Role changes take
// effect on the next request once the role cache entry is dropped.
func (h *AdminUserHandler) Update(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	if !h.Gate.IsAdmin(r.Context(), uid) {
		httpx.JSONError(w, http.StatusForbidden, "unauthorized", nil)
		return
	}
	id, ok := formID(r)
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}

	var profile models.Profile
	if err := h.DB.First(&profile, id).Error; err != nil {
		httpx.JSONError(w, http.StatusNotFound, "profile_not_found", nil)
		return
	}

	v := make(validation.Violations)
	if role := r.FormValue("role"); role != "" {
		if role != models.RoleUser && role != models.RoleAdmin {
			v["role"] = "unknown_role"
		} else {
			profile.Role = role
		}
	}
	if et := strings.TrimSpace(r.FormValue("employee_type")); et != "" {
		validation.MaxLen("employee_type", et, 50, v)
		profile.EmployeeType = et
	}
	if name := strings.TrimSpace(r.FormValue("display_name")); name != "" {
		validation.MaxLen("display_name", name, 100, v)
		profile.DisplayName = name
	}
	if !v.Empty() {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", v)
		return
	}

	if err := h.DB.Save(&profile).Error; err != nil {
		if isDuplicate(err) {
			httpx.JSONError(w, http.StatusConflict, "name_already_exists", nil)
			return
		}
		httpx.JSONError(w, http.StatusInternalServerError, "db_error", nil)
		return
	}

	if h.Cache != nil {
		h.Cache.Invalidate(profile.ID)
	}
	httpx.JSON(w, http.StatusOK, profile)
}
