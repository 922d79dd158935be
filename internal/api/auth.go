package api

import (
	"encoding/json"
	"net"
	"net/http"

	"github.com/atrium-ops/atrium-core/internal/auth"
)

// minPasswordLength applies to new passwords on change, not to login input.
const minPasswordLength = 8

// loginRequest is the request body for POST /auth/login.
type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// changePasswordRequest is the request body for POST /auth/password.
type changePasswordRequest struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

// handleLogin authenticates credentials and establishes a new session.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if req.Username == "" || req.Password == "" {
		writeBadRequest(w, "username and password are required")
		return
	}
	if !auth.IsValidUsername(req.Username) {
		writeBadRequest(w, "invalid username format")
		return
	}

	result, err := s.manager.SignIn(r.Context(), req.Username, req.Password, auth.RequestContext{
		IP:        clientIP(r),
		UserAgent: r.UserAgent(),
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// handleLogout revokes the calling session only; the account's other devices
// stay signed in.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	session, ok := sessionFrom(r.Context())
	if !ok {
		writeUnauthorized(w, auth.ErrSessionNotFound.Error())
		return
	}

	if err := s.manager.SignOut(r.Context(), session); err != nil {
		s.logger.Error("sign-out failed", "account_id", session.AccountID, "error", err)
		writeInternalError(w, "sign-out failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"signed_out": true})
}

// handleLogoutAll revokes every session of the calling account across all
// devices.
func (s *Server) handleLogoutAll(w http.ResponseWriter, r *http.Request) {
	session, ok := sessionFrom(r.Context())
	if !ok {
		writeUnauthorized(w, auth.ErrSessionNotFound.Error())
		return
	}

	revoked, err := s.manager.SignOutAll(r.Context(), session.AccountID)
	if err != nil {
		s.logger.Error("sign-out-all failed", "account_id", session.AccountID, "error", err)
		writeInternalError(w, "sign-out failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"revoked": revoked})
}

// handleChangePassword rotates the caller's password and revokes all their
// sessions, including the one making this request.
func (s *Server) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	session, ok := sessionFrom(r.Context())
	if !ok {
		writeUnauthorized(w, auth.ErrSessionNotFound.Error())
		return
	}

	var req changePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if len(req.NewPassword) < minPasswordLength {
		writeError(w, http.StatusBadRequest, ErrCodeValidation, "new password must be at least 8 characters")
		return
	}

	err := s.manager.ChangePassword(r.Context(), session.AccountID, req.OldPassword, req.NewPassword)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"changed": true})
}

// handleMe returns the caller's authenticated identity as stored in the
// session.
func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	session, ok := sessionFrom(r.Context())
	if !ok {
		writeUnauthorized(w, auth.ErrSessionNotFound.Error())
		return
	}

	writeJSON(w, http.StatusOK, session)
}

// clientIP extracts the remote address without the port.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
