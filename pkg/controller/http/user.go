package http

import (
	"net/http"

	"github.com/riskcompass/riskcompass/pkg/usecase"
)

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var input usecase.RegisterInput
	if err := decodeJSON(w, r, &input); err != nil {
		handleError(w, r, err)
		return
	}

	profile, err := s.uc.User.Register(r.Context(), input)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(r.Context(), w, http.StatusCreated, profile)
}

func (s *Server) profile(w http.ResponseWriter, r *http.Request) {
	profile, err := s.uc.User.Profile(r.Context())
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(r.Context(), w, http.StatusOK, profile)
}

func (s *Server) initAdmin(w http.ResponseWriter, r *http.Request) {
	result, err := s.uc.User.InitAdmin(r.Context())
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(r.Context(), w, http.StatusOK, result)
}

type promoteAdminRequest struct {
	Email string `json:"email"`
}

func (s *Server) promoteAdmin(w http.ResponseWriter, r *http.Request) {
	var req promoteAdminRequest
	if err := decodeJSON(w, r, &req); err != nil {
		handleError(w, r, err)
		return
	}

	result, err := s.uc.User.PromoteAdmin(r.Context(), req.Email)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(r.Context(), w, http.StatusOK, result)
}
