package interfaces

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/riskcompass/riskcompass/pkg/domain/model"
)

// ScoringService is the external risk scoring and mitigation service.
// Responses are returned undecoded so callers can pass them through.
type ScoringService interface {
	Predict(ctx context.Context, req map[string]string) (json.RawMessage, error)
	Health(ctx context.Context) (json.RawMessage, error)
	MitigationStrategy(ctx context.Context, req *model.MitigationStrategyRequest) (json.RawMessage, error)
	RecommendationRiskReduction(ctx context.Context, req *model.RecommendationRiskReductionRequest) (json.RawMessage, error)
}

// ErrScoringUnavailable is returned when the scoring service refuses the
// connection
var ErrScoringUnavailable = errors.New("scoring service unavailable")
