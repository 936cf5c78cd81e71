package api

import (
	"net/http"
	"strconv"

	"github.com/qrqwqeqt/GoF-Patt/internal/audit"
)

// handleListAuditLogs returns the caller's audit entries, newest first.
//
// Query parameters:
//   - action: filter by action (register, login, create, update, delete, ...)
//   - entity_type: filter by entity type (user, device)
//   - entity_id: filter by specific entity ID
//   - limit: max results (default 50, max 200)
//   - offset: pagination offset
func (s *Server) handleListAuditLogs(w http.ResponseWriter, r *http.Request) {
	if s.auditRepo == nil {
		writeNotFound(w, "audit logging not configured")
		return
	}

	q := r.URL.Query()
	filter := audit.Filter{
		UserID:     callerID(r),
		Action:     q.Get("action"),
		EntityType: q.Get("entity_type"),
		EntityID:   q.Get("entity_id"),
	}

	if v := q.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			filter.Limit = n
		}
	}
	if v := q.Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			filter.Offset = n
		}
	}

	result, err := s.auditRepo.List(r.Context(), filter)
	if err != nil {
		s.logger.Error("failed to list audit logs", "error", err)
		writeInternalError(w, "failed to list audit logs")
		return
	}

	writeJSON(w, http.StatusOK, result)
}
