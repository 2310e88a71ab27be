package http

import (
	"net/http"

	"github.com/riskcompass/riskcompass/pkg/domain/model"
	"github.com/riskcompass/riskcompass/pkg/usecase"
	"github.com/riskcompass/riskcompass/pkg/utils/safe"
)

// writeRaw passes a scoring service response through unchanged
func writeRaw(w http.ResponseWriter, r *http.Request, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	safe.Write(r.Context(), w, body)
}

func (s *Server) calculateRisk(w http.ResponseWriter, r *http.Request) {
	var info model.ProjectInfo
	if err := decodeJSON(w, r, &info); err != nil {
		handleError(w, r, err)
		return
	}

	resp, err := s.uc.Risk.Calculate(r.Context(), &info)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeRaw(w, r, resp)
}

func (s *Server) riskHealth(w http.ResponseWriter, r *http.Request) {
	status := s.uc.Risk.Health(r.Context())
	code := http.StatusOK
	if !status.Healthy() {
		code = http.StatusServiceUnavailable
	}
	writeJSON(r.Context(), w, code, status)
}

func (s *Server) mitigationStrategy(w http.ResponseWriter, r *http.Request) {
	var input usecase.MitigationStrategyInput
	if err := decodeJSON(w, r, &input); err != nil {
		handleError(w, r, err)
		return
	}

	resp, err := s.uc.Risk.MitigationStrategy(r.Context(), &input)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeRaw(w, r, resp)
}

func (s *Server) recommendationRiskReduction(w http.ResponseWriter, r *http.Request) {
	var req model.RecommendationRiskReductionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		handleError(w, r, err)
		return
	}

	resp, err := s.uc.Risk.RecommendationRiskReduction(r.Context(), &req)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeRaw(w, r, resp)
}
