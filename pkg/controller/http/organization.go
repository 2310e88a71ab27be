package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/riskcompass/riskcompass/pkg/domain/types"
	"github.com/riskcompass/riskcompass/pkg/usecase"
)

func organizationID(r *http.Request) types.OrganizationID {
	return types.OrganizationID(chi.URLParam(r, "organizationId"))
}

func (s *Server) getOrganization(w http.ResponseWriter, r *http.Request) {
	org, err := s.uc.Organization.Get(r.Context(), organizationID(r))
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(r.Context(), w, http.StatusOK, org)
}

func (s *Server) organizationProjects(w http.ResponseWriter, r *http.Request) {
	result, err := s.uc.Organization.Projects(r.Context(), organizationID(r))
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(r.Context(), w, http.StatusOK, result)
}

func (s *Server) organizationStats(w http.ResponseWriter, r *http.Request) {
	result, err := s.uc.Organization.Stats(r.Context(), organizationID(r))
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(r.Context(), w, http.StatusOK, result)
}

func (s *Server) updateOrganization(w http.ResponseWriter, r *http.Request) {
	var input usecase.OrganizationUpdateInput
	if err := decodeJSON(w, r, &input); err != nil {
		handleError(w, r, err)
		return
	}

	org, err := s.uc.Organization.Update(r.Context(), organizationID(r), input)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(r.Context(), w, http.StatusOK, org)
}

func (s *Server) removeMember(w http.ResponseWriter, r *http.Request) {
	memberID := types.UserID(chi.URLParam(r, "userId"))
	org, err := s.uc.Organization.RemoveMember(r.Context(), organizationID(r), memberID)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(r.Context(), w, http.StatusOK, org)
}
