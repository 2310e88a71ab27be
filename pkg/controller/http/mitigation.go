package http

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/m-mizutani/goerr/v2"
	"github.com/riskcompass/riskcompass/pkg/domain/model"
	"github.com/riskcompass/riskcompass/pkg/domain/types"
	"github.com/riskcompass/riskcompass/pkg/usecase"
)

// recommendationRequest names a recommendation either by lock key or by the
// fields the lock key derives from
type recommendationRequest struct {
	LockKey      model.LockKey `json:"lockKey"`
	FeatureGroup string        `json:"featureGroup"`
	FeatureName  string        `json:"featureName"`
	Description  string        `json:"description"`
}

func (req *recommendationRequest) key() (model.LockKey, error) {
	if req.LockKey != "" {
		return req.LockKey, nil
	}
	if req.FeatureGroup == "" || req.FeatureName == "" {
		return "", goerr.Wrap(usecase.ErrValidation, "lockKey or featureGroup and featureName are required")
	}
	rec := model.Recommendation{
		FeatureGroup: req.FeatureGroup,
		FeatureName:  req.FeatureName,
		Description:  req.Description,
	}
	return rec.LockKey(), nil
}

func decodeRecommendation(w http.ResponseWriter, r *http.Request) (model.LockKey, error) {
	var req recommendationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return "", err
	}
	return req.key()
}

func (s *Server) getRound(w http.ResponseWriter, r *http.Request) {
	n, err := strconv.Atoi(chi.URLParam(r, "round"))
	if err != nil || n < 0 {
		handleError(w, r, goerr.Wrap(usecase.ErrValidation, "round must be a non-negative integer"))
		return
	}

	sort := model.DefaultSortState()
	q := r.URL.Query()
	if opt := types.SortOption(q.Get("sort")).Normalize(); opt != sort.Option {
		if !opt.IsValid() {
			handleError(w, r, goerr.Wrap(usecase.ErrValidation, "invalid sort option", goerr.V("sort", opt)))
			return
		}
		sort = sort.Click(opt)
	}
	if dir := types.SortDirection(q.Get("direction")); dir != "" {
		if !dir.IsValid() {
			handleError(w, r, goerr.Wrap(usecase.ErrValidation, "invalid sort direction", goerr.V("direction", dir)))
			return
		}
		sort.Direction = dir
	}

	view, err := s.uc.Mitigation.GetRound(r.Context(), projectID(r), n, sort)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(r.Context(), w, http.StatusOK, view)
}

func (s *Server) selectRound(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Round *int `json:"round"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		handleError(w, r, err)
		return
	}
	if req.Round == nil || *req.Round < 0 {
		handleError(w, r, goerr.Wrap(usecase.ErrValidation, "round must be a non-negative integer"))
		return
	}

	result, err := s.uc.Mitigation.SelectRound(r.Context(), projectID(r), *req.Round)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(r.Context(), w, http.StatusOK, result)
}

// recommendationTransition is a mitigation use case method acting on one
// recommendation
type recommendationTransition func(uc *usecase.MitigationUseCase, ctx context.Context, id types.ProjectID, key model.LockKey) (*usecase.MitigationResult, error)

func (s *Server) recommendationHandler(fn recommendationTransition) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key, err := decodeRecommendation(w, r)
		if err != nil {
			handleError(w, r, err)
			return
		}

		result, err := fn(s.uc.Mitigation, r.Context(), projectID(r), key)
		if err != nil {
			handleError(w, r, err)
			return
		}
		writeJSON(r.Context(), w, http.StatusOK, result)
	}
}

func (s *Server) applyAll(w http.ResponseWriter, r *http.Request) {
	result, err := s.uc.Mitigation.ApplyAll(r.Context(), projectID(r))
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(r.Context(), w, http.StatusOK, result)
}

func (s *Server) continueToNextRound(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Confirmed bool `json:"confirmed"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		handleError(w, r, err)
		return
	}

	result, err := s.uc.Mitigation.ContinueToNextRound(r.Context(), projectID(r), req.Confirmed)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(r.Context(), w, http.StatusOK, result)
}

func (s *Server) explainRecommendation(w http.ResponseWriter, r *http.Request) {
	key, err := decodeRecommendation(w, r)
	if err != nil {
		handleError(w, r, err)
		return
	}

	enhanced, err := s.uc.Mitigation.Explain(r.Context(), projectID(r), key)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(r.Context(), w, http.StatusOK, enhanced)
}

func (s *Server) refreshStrategy(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CurrentRisk *float64 `json:"currentRisk"`
	}
	if r.ContentLength != 0 {
		if err := decodeJSON(w, r, &req); err != nil {
			handleError(w, r, err)
			return
		}
	}

	project, err := s.uc.Mitigation.RefreshStrategy(r.Context(), projectID(r), req.CurrentRisk)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(r.Context(), w, http.StatusOK, project)
}
