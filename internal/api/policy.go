package api

import "net/http"

// demoRole is the role permission string of demonstration accounts. Demo
// sessions can browse but never mutate security-relevant state.
const demoRole = "demo"

// Policy is the per-route authorization attribute, attached where the route
// is registered and enforced as plain data rather than tags or reflection.
type Policy struct {
	// Public skips authentication entirely.
	Public bool

	// DenyDemo rejects demo-role sessions with 403 before the handler runs.
	DenyDemo bool
}

// guard wraps a handler with the route's policy: authenticate unless public,
// then apply role restrictions, then expose the session via the request
// context.
func (s *Server) guard(policy Policy, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if policy.Public {
			h(w, r)
			return
		}

		session, err := s.authenticate(r)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		if policy.DenyDemo && session.Role == demoRole {
			writeError(w, http.StatusForbidden, ErrCodeForbidden, "demo accounts cannot perform this action")
			return
		}

		h(w, r.WithContext(withSession(r.Context(), session)))
	}
}
