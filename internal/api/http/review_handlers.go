package httpapi

import (
	"net/http"

	appReview "github.com/midas-vault/midas-vault/internal/application/review"
)

func (s *Server) createReview(w http.ResponseWriter, r *http.Request) {
	var req appReview.CreateInput
	if !decodeBody(w, r, &req) {
		return
	}
	rv, err := s.reviewSvc.Create(r.Context(), actorFrom(r.Context()), req)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, rv)
}
