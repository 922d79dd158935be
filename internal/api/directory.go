package api

import (
	"errors"
	"net/http"

	"github.com/atrium-ops/atrium-core/internal/auth"
	"github.com/atrium-ops/atrium-core/internal/directory"
	"github.com/atrium-ops/atrium-core/internal/rbac"
)

// handleMenuTree returns the full menu forest for the admin menu editor.
func (s *Server) handleMenuTree(w http.ResponseWriter, r *http.Request) {
	menus, err := s.menus.ListAll(r.Context())
	if err != nil {
		s.logger.Error("listing menus failed", "error", err)
		writeInternalError(w, "listing menus failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"tree": directory.BuildTree(menus, ""),
	})
}

// handleUserMenuTree returns the caller's navigable menu tree: only active
// catalog and menu nodes whose permission the caller's role grants.
func (s *Server) handleUserMenuTree(w http.ResponseWriter, r *http.Request) {
	session, ok := sessionFrom(r.Context())
	if !ok {
		writeUnauthorized(w, auth.ErrSessionNotFound.Error())
		return
	}

	codes, err := s.resolver.PermCodesForAccount(r.Context(), session.AccountID, "")
	if err != nil {
		// No role means no navigation, not a failed request.
		if errors.Is(err, rbac.ErrNoRole) {
			writeJSON(w, http.StatusOK, map[string]any{"tree": []any{}})
			return
		}
		writeDomainError(w, err)
		return
	}

	menus, err := s.menus.ListGranted(r.Context(), codes,
		[]directory.MenuKind{directory.KindCatalog, directory.KindMenu})
	if err != nil {
		s.logger.Error("listing granted menus failed", "account_id", session.AccountID, "error", err)
		writeInternalError(w, "listing menus failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"tree": directory.BuildTree(menus, ""),
	})
}

// handleDeptTree returns the caller's corp's department tree.
func (s *Server) handleDeptTree(w http.ResponseWriter, r *http.Request) {
	session, ok := sessionFrom(r.Context())
	if !ok {
		writeUnauthorized(w, auth.ErrSessionNotFound.Error())
		return
	}

	depts, err := s.depts.ListByCorp(r.Context(), session.CorpID)
	if err != nil {
		s.logger.Error("listing departments failed", "corp_id", session.CorpID, "error", err)
		writeInternalError(w, "listing departments failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"tree": directory.BuildTree(depts, ""),
	})
}
