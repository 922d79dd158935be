package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/atrium-ops/atrium-core/internal/auth"
	"github.com/atrium-ops/atrium-core/internal/directory"
)

// updateRolePermsRequest is the request body for PUT /roles/{id}/perms.
type updateRolePermsRequest struct {
	MenuIDs []string `json:"menu_ids"`
}

// handlePermCodes returns the caller's effective permission codes.
// ?kind=button narrows to fine-grained action codes.
func (s *Server) handlePermCodes(w http.ResponseWriter, r *http.Request) {
	session, ok := sessionFrom(r.Context())
	if !ok {
		writeUnauthorized(w, auth.ErrSessionNotFound.Error())
		return
	}

	kind := directory.MenuKind(r.URL.Query().Get("kind"))
	switch kind {
	case "", directory.KindCatalog, directory.KindMenu, directory.KindButton:
	default:
		writeBadRequest(w, "unknown menu kind")
		return
	}

	codes, err := s.resolver.PermCodesForAccount(r.Context(), session.AccountID, kind)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"perm_codes": codes})
}

// handleRoleMenuIDs returns the menu ids currently granted to a role, for
// pre-populating the role editor.
func (s *Server) handleRoleMenuIDs(w http.ResponseWriter, r *http.Request) {
	roleID := chi.URLParam(r, "id")

	ids, err := s.resolver.MenuIDsForRole(r.Context(), roleID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"menu_ids": ids})
}

// handleUpdateRolePerms rewrites a role's grants from the selected menu ids.
func (s *Server) handleUpdateRolePerms(w http.ResponseWriter, r *http.Request) {
	roleID := chi.URLParam(r, "id")

	var req updateRolePermsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	if err := s.resolver.ReplaceRolePerms(r.Context(), roleID, req.MenuIDs); err != nil {
		s.logger.Error("role grant rewrite failed", "role_id", roleID, "error", err)
		writeInternalError(w, "updating role permissions failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"updated": true})
}
