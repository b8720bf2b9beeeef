package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/jmcleod/waypoint/navigator"
	"github.com/jmcleod/waypoint/session"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

func mapError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, session.ErrInvalidSession):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, session.ErrSessionExpired):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, session.ErrRateLimited):
		writeError(w, http.StatusTooManyRequests, err.Error())
	case errors.Is(err, session.ErrInsufficientPermissions):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, session.ErrSecurityViolation):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, navigator.ErrControllerNotFound):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	case errors.Is(err, navigator.ErrTimeout):
		writeError(w, http.StatusGatewayTimeout, err.Error())
	case errors.Is(err, navigator.ErrNoRetry):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, navigator.ErrInvalidState):
		writeError(w, http.StatusConflict, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}
