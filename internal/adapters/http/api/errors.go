package api

import (
	"errors"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/okian/skillswap/internal/domain/errs"
)

// Messages returned to clients. Internal causes are logged, never echoed.
var (
	errEndpointNotFound = errors.New("endpoint not found")
	errTokenRequired    = errors.New("access token required")
	errTokenRejected    = errors.New("invalid or expired token")
	errTokenInvalid     = errors.New("invalid token")
	errForbidden        = errors.New("forbidden")
	errUserNotFound     = errors.New("user not found")
	errUnavailable      = errors.New("service temporarily unavailable")
	errInternal         = errors.New("internal server error")
)

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// statusFor maps an error kind to its HTTP status, error code and the
// message safe to show the client.
func statusFor(err error) (int, string, error) {
	switch errs.KindOf(err) {
	case errs.ErrValidation:
		return http.StatusBadRequest, "validation_failed", err
	case errs.ErrUnauthorized:
		return http.StatusUnauthorized, "unauthorized", errTokenRejected
	case errs.ErrForbidden:
		return http.StatusForbidden, "forbidden", errForbidden
	case errs.ErrNotFound:
		return http.StatusNotFound, "not_found", errUserNotFound
	case errs.ErrDependency:
		return http.StatusServiceUnavailable, "dependency_unavailable", errUnavailable
	default:
		return http.StatusInternalServerError, "internal", errInternal
	}
}
