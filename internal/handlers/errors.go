package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/diewo77/go-worklog/httpx"
	"github.com/diewo77/go-worklog/internal/policy"
	"github.com/diewo77/go-worklog/internal/services"
	"gorm.io/gorm"
)

// isDuplicate detects unique-constraint violations across drivers.
func isDuplicate(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique") || strings.Contains(msg, "duplicate")
}

// writeServiceError maps service-layer errors to JSON error responses.
// Authorization denials are surfaced without detail.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, policy.ErrUnauthorized):
		httpx.JSONError(w, http.StatusForbidden, "unauthorized", nil)
	case errors.Is(err, services.ErrRecordNotFound):
		httpx.JSONError(w, http.StatusNotFound, "record_not_found", nil)
	case errors.Is(err, services.ErrSameDayEditOnly):
		httpx.JSONError(w, http.StatusForbidden, "record_editable_same_day_only", nil)
	case errors.Is(err, services.ErrReauthFailed):
		httpx.JSONError(w, http.StatusForbidden, "reauth_failed", nil)
	case errors.Is(err, services.ErrNameTaken):
		httpx.JSONError(w, http.StatusConflict, "name_already_exists", nil)
	case errors.Is(err, services.ErrNameRequired), errors.Is(err, services.ErrPasswordRequired):
		httpx.JSONError(w, http.StatusBadRequest, err.Error(), nil)
	case errors.Is(err, services.ErrInvalidCredentials):
		httpx.JSONError(w, http.StatusUnauthorized, "invalid_credentials", nil)
	case errors.Is(err, services.ErrProfileUnavailable):
		httpx.JSONError(w, http.StatusServiceUnavailable, "profile_unavailable", nil)
	default:
		httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
	}
}
