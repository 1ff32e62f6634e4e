package handlers

import (
	"net/http"
	"strings"

	"github.com/diewo77/go-worklog/auth"
	"github.com/diewo77/go-worklog/httpx"
	"github.com/diewo77/go-worklog/internal/models"
	"github.com/diewo77/go-worklog/internal/policy"
	"github.com/diewo77/go-worklog/internal/services"
	"github.com/diewo77/go-worklog/validation"
	"gorm.io/gorm"
)

type AuthHandler struct {
	DB           *gorm.DB
	Gate         *policy.Gate
	Registration *services.RegistrationService
	Profiles     *services.ProfileResolver
}

func NewAuthHandler(db *gorm.DB, gate *policy.Gate, reg *services.RegistrationService, profiles *services.ProfileResolver) *AuthHandler {
	return &AuthHandler{DB: db, Gate: gate, Registration: reg, Profiles: profiles}
}

// Signup registers a new account keyed by display name and opens a session.
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	name := r.FormValue("name")
	password := r.FormValue("password")

	v := make(validation.Violations)
	validation.Required("name", name, v)
	validation.Required("password", password, v)
	validation.MaxLen("name", name, 100, v)
	if !v.Empty() {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", v)
		return
	}

	user, err := h.Registration.Register(name, password)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	auth.CreateSession(w, user.ID)
	httpx.JSON(w, http.StatusCreated, map[string]any{"id": user.ID})
}

// Login verifies name/password and opens a session.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	user, err := h.Registration.Authenticate(r.FormValue("name"), r.FormValue("password"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	auth.CreateSession(w, user.ID)
	httpx.JSON(w, http.StatusOK, map[string]any{"id": user.ID})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	auth.ClearSession(w)
	httpx.JSON(w, http.StatusOK, map[string]any{"ok": true})
}

// Me returns the session's profile. A profile that has not materialized yet
// degrades to profile_unavailable instead of invalidating the session.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	profile, err := h.Profiles.Resolve(r.Context(), uid)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, profile)
}

// UpdateMe lets the session owner change their display name. Role and
// employee type stay admin-managed; attempts to touch them are rejected.
// Existing records keep the denormalized name they were written with.
func (h *AuthHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())

	if r.FormValue("role") != "" || r.FormValue("employee_type") != "" {
		httpx.JSONError(w, http.StatusForbidden, "unauthorized", nil)
		return
	}

	var profile models.Profile
	if err := h.DB.First(&profile, uid).Error; err != nil {
		httpx.JSONError(w, http.StatusNotFound, "profile_not_found", nil)
		return
	}

	name := strings.TrimSpace(r.FormValue("display_name"))
	v := make(validation.Violations)
	validation.Required("display_name", name, v)
	validation.MaxLen("display_name", name, 100, v)
	if !v.Empty() {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", v)
		return
	}
	profile.DisplayName = name

	if err := h.Gate.Authorize(r.Context(), uid, policy.ActionUpdate, policy.TableProfile, &profile); err != nil {
		writeServiceError(w, err)
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
	httpx.JSON(w, http.StatusOK, profile)
}
