package httpapi

import (
	"net/http"
	"time"

	appAudit "github.com/midas-vault/midas-vault/internal/application/audit"
)

func (s *Server) adminStats(w http.ResponseWriter, r *http.Request) {
	snap, err := s.adminSvc.Stats(r.Context(), actorFrom(r.Context()))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, snap)
}

func (s *Server) queryAudit(w http.ResponseWriter, r *http.Request) {
	params := appAudit.QueryParams{
		EntityType: optionalQuery(r, "entityType"),
		EntityID:   optionalQuery(r, "entityId"),
		Action:     optionalQuery(r, "action"),
		Actor:      optionalQuery(r, "actor"),
		Cursor:     optionalQuery(r, "cursor"),
	}
	params.Limit, _ = parseLimitOffset(r, 50, 200)

	var ok bool
	if params.StartTime, ok = parseTimeQuery(w, r, "start"); !ok {
		return
	}
	if params.EndTime, ok = parseTimeQuery(w, r, "end"); !ok {
		return
	}

	result, err := s.adminSvc.Audit(r.Context(), actorFrom(r.Context()), params)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

func (s *Server) verifyAudit(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "auditId")
	if !ok {
		return
	}
	result, err := s.auditSvc.VerifyIntegrity(r.Context(), id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// parseTimeQuery reads an optional RFC3339 timestamp.
func parseTimeQuery(w http.ResponseWriter, r *http.Request, key string) (*time.Time, bool) {
	v := optionalQuery(r, key)
	if v == nil {
		return nil, true
	}
	t, err := time.Parse(time.RFC3339, *v)
	if err != nil {
		respondFail(w, http.StatusBadRequest, "invalid "+key+": expected RFC3339")
		return nil, false
	}
	return &t, true
}
