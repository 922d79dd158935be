package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/atrium-ops/atrium-core/internal/auth"
	"github.com/atrium-ops/atrium-core/internal/rbac"
)

// Error represents a structured error response.
type Error struct {
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Common error codes.
const (
	ErrCodeBadRequest     = "bad_request"
	ErrCodeNotFound       = "not_found"
	ErrCodeUnauthorized   = "unauthorised"
	ErrCodeForbidden      = "forbidden"
	ErrCodeConflict       = "conflict"
	ErrCodeInternal       = "internal_error"
	ErrCodeValidation     = "validation_error"
	ErrCodeMethodNotAllow = "method_not_allowed"
)

// writeJSON writes a JSON response with the given status code and payload.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		//nolint:errcheck // Best-effort write to response; connection may be closed
		json.NewEncoder(w).Encode(v)
	}
}

// writeError writes a structured error response.
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, Error{
		Status:  status,
		Code:    code,
		Message: message,
	})
}

// writeBadRequest writes a 400 error response.
func writeBadRequest(w http.ResponseWriter, message string) {
	writeError(w, http.StatusBadRequest, ErrCodeBadRequest, message)
}

// writeNotFound writes a 404 error response.
func writeNotFound(w http.ResponseWriter, message string) {
	writeError(w, http.StatusNotFound, ErrCodeNotFound, message)
}

// writeUnauthorized writes a 401 error response.
func writeUnauthorized(w http.ResponseWriter, message string) {
	writeError(w, http.StatusUnauthorized, ErrCodeUnauthorized, message)
}

// writeInternalError writes a 500 error response.
func writeInternalError(w http.ResponseWriter, message string) {
	writeError(w, http.StatusInternalServerError, ErrCodeInternal, message)
}

// writeDomainError maps auth and rbac sentinel errors to their stable HTTP
// responses. Authentication failures carry their sentinel message verbatim;
// the token failure messages in particular are part of the client contract.
// Anything unrecognised is a 500 with the details suppressed.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, auth.ErrTokenMissing),
		errors.Is(err, auth.ErrTokenExpired),
		errors.Is(err, auth.ErrTokenInvalid):
		// Report only the sentinel, not the parser detail wrapped inside it.
		writeUnauthorized(w, sentinelMessage(err))
	case errors.Is(err, auth.ErrSessionNotFound):
		writeUnauthorized(w, auth.ErrSessionNotFound.Error())
	case errors.Is(err, auth.ErrInvalidCredentials):
		writeUnauthorized(w, auth.ErrInvalidCredentials.Error())
	case errors.Is(err, auth.ErrAccountForbidden):
		writeUnauthorized(w, auth.ErrAccountForbidden.Error())
	case errors.Is(err, auth.ErrTooManyAttempts):
		writeUnauthorized(w, auth.ErrTooManyAttempts.Error())
	case errors.Is(err, auth.ErrAccountNotFound):
		// The account vanished under a live session, e.g. deleted by an
		// admin between sign-in and a password change.
		writeUnauthorized(w, auth.ErrAccountNotFound.Error())
	case errors.Is(err, rbac.ErrNoRole):
		writeBadRequest(w, rbac.ErrNoRole.Error())
	case errors.Is(err, rbac.ErrAccountNotFound):
		writeNotFound(w, rbac.ErrAccountNotFound.Error())
	default:
		writeInternalError(w, "internal server error")
	}
}

// sentinelMessage strips wrapping detail from token errors, keeping the
// stable user-facing message.
func sentinelMessage(err error) string {
	for _, sentinel := range []error{auth.ErrTokenMissing, auth.ErrTokenExpired, auth.ErrTokenInvalid} {
		if errors.Is(err, sentinel) {
			return sentinel.Error()
		}
	}
	return err.Error()
}
