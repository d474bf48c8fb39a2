package httpapi

import (
	"net/http"

	appAuth "github.com/midas-vault/midas-vault/internal/application/auth"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var req appAuth.RegisterInput
	if !decodeBody(w, r, &req) {
		return
	}
	u, err := s.authSvc.Register(r.Context(), req)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, u)
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeBody(w, r, &req) {
		return
	}
	res, err := s.authSvc.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, res)
}

func (s *Server) me(w http.ResponseWriter, r *http.Request) {
	u, err := s.authSvc.Me(r.Context(), actorFrom(r.Context()))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, u)
}

// bootstrapAdmin promotes the caller while no admin exists. Existing tokens
// keep working because roles are re-read on every request.
func (s *Server) bootstrapAdmin(w http.ResponseWriter, r *http.Request) {
	u, err := s.authSvc.Bootstrap(r.Context(), actorFrom(r.Context()))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, u)
}

func (s *Server) changePassword(w http.ResponseWriter, r *http.Request) {
	var req changePasswordRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := s.userSvc.ChangePassword(r.Context(), actorFrom(r.Context()), req.CurrentPassword, req.NewPassword); err != nil {
		s.respondError(w, r, err)
		return
	}
	respondMessage(w, http.StatusOK, "password changed")
}
