package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// buildRouter creates the HTTP router with all routes and middleware.
// Each route names its Policy explicitly at registration; there is no
// implicit default beyond "authenticated".
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.guard(Policy{Public: true}, s.handleHealth))

		// Auth endpoints
		r.Route("/auth", func(r chi.Router) {
			r.Post("/login", s.guard(Policy{Public: true}, s.handleLogin))
			r.Get("/me", s.guard(Policy{}, s.handleMe))
			r.Post("/logout", s.guard(Policy{}, s.handleLogout))
			r.Post("/logout-all", s.guard(Policy{}, s.handleLogoutAll))
			r.Post("/password", s.guard(Policy{DenyDemo: true}, s.handleChangePassword))
		})

		// Permission endpoints
		r.Get("/account/perm-codes", s.guard(Policy{}, s.handlePermCodes))
		r.Route("/roles/{id}", func(r chi.Router) {
			r.Get("/menu-ids", s.guard(Policy{}, s.handleRoleMenuIDs))
			r.Put("/perms", s.guard(Policy{DenyDemo: true}, s.handleUpdateRolePerms))
		})

		// Directory endpoints
		r.Get("/menus/tree", s.guard(Policy{}, s.handleMenuTree))
		r.Get("/menus/user-tree", s.guard(Policy{}, s.handleUserMenuTree))
		r.Get("/depts/tree", s.guard(Policy{}, s.handleDeptTree))

		// Audit endpoints
		r.Get("/login-logs", s.guard(Policy{}, s.handleListLoginLogs))
	})

	return r
}

// handleHealth returns the server health status.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.version,
	})
}
