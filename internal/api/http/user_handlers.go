package httpapi

import (
	"net/http"

	appUser "github.com/midas-vault/midas-vault/internal/application/user"
	domainUser "github.com/midas-vault/midas-vault/internal/domain/user"
)

func (s *Server) listUsers(w http.ResponseWriter, r *http.Request) {
	filter := domainUser.Filter{Username: optionalQuery(r, "username")}
	if v := optionalQuery(r, "role"); v != nil {
		role := domainUser.Role(*v)
		filter.Role = &role
	}
	if v := optionalQuery(r, "status"); v != nil {
		status := domainUser.Status(*v)
		filter.Status = &status
	}
	limit, offset := parseLimitOffset(r, 50, 200)
	users, err := s.userSvc.ListUsers(r.Context(), actorFrom(r.Context()), filter, limit, offset)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"users": users})
}

func (s *Server) getUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "userId")
	if !ok {
		return
	}
	party, err := s.userSvc.Profile(r.Context(), id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, party)
}

func (s *Server) updateUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "userId")
	if !ok {
		return
	}
	var req appUser.UpdateInput
	if !decodeBody(w, r, &req) {
		return
	}
	u, err := s.userSvc.UpdateUser(r.Context(), actorFrom(r.Context()), id, req)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, u)
}

func (s *Server) listUserReviews(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "userId")
	if !ok {
		return
	}
	limit, offset := parseLimitOffset(r, 20, 100)
	reviews, err := s.reviewSvc.ListForUser(r.Context(), id, limit, offset)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"reviews": reviews})
}
