package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/riskcompass/riskcompass/pkg/domain/types"
	"github.com/riskcompass/riskcompass/pkg/usecase"
)

func projectID(r *http.Request) types.ProjectID {
	return types.ProjectID(chi.URLParam(r, "projectId"))
}

func (s *Server) createProject(w http.ResponseWriter, r *http.Request) {
	var input usecase.ProjectInput
	if err := decodeJSON(w, r, &input); err != nil {
		handleError(w, r, err)
		return
	}

	project, err := s.uc.Project.Create(r.Context(), input)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(r.Context(), w, http.StatusCreated, project)
}

func (s *Server) listProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := s.uc.Project.List(r.Context())
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(r.Context(), w, http.StatusOK, projects)
}

func (s *Server) getProject(w http.ResponseWriter, r *http.Request) {
	project, err := s.uc.Project.Get(r.Context(), projectID(r))
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(r.Context(), w, http.StatusOK, project)
}

func (s *Server) updateProject(w http.ResponseWriter, r *http.Request) {
	var input usecase.ProjectInput
	if err := decodeJSON(w, r, &input); err != nil {
		handleError(w, r, err)
		return
	}

	project, err := s.uc.Project.Update(r.Context(), projectID(r), input)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(r.Context(), w, http.StatusOK, project)
}

func (s *Server) deleteProject(w http.ResponseWriter, r *http.Request) {
	if err := s.uc.Project.Delete(r.Context(), projectID(r)); err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(r.Context(), w, http.StatusOK, messageResponse{Message: "Project deleted successfully"})
}
