package api

import (
	"net/http"
	"strconv"

	"github.com/atrium-ops/atrium-core/internal/audit"
)

// handleListLoginLogs returns the login audit trail, filterable by username,
// status and account.
func (s *Server) handleListLoginLogs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filter := audit.Filter{
		AccountID: q.Get("account_id"),
		Username:  q.Get("username"),
		Status:    q.Get("status"),
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeBadRequest(w, "invalid limit")
			return
		}
		filter.Limit = n
	}
	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeBadRequest(w, "invalid offset")
			return
		}
		filter.Offset = n
	}

	result, err := s.logins.List(r.Context(), filter)
	if err != nil {
		s.logger.Error("listing login logs failed", "error", err)
		writeInternalError(w, "listing login logs failed")
		return
	}

	writeJSON(w, http.StatusOK, result)
}
