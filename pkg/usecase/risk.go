package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/riskcompass/riskcompass/pkg/domain/interfaces"
	"github.com/riskcompass/riskcompass/pkg/domain/model"
	"github.com/riskcompass/riskcompass/pkg/utils/logging"
)

// UpstreamError describes a failed scoring service call. It matches
// ErrUpstreamUnavailable when the service refused the connection and
// ErrUpstreamFailed otherwise.
type UpstreamError struct {
	Unavailable bool
	Detail      string
	Err         error
}

func (e *UpstreamError) Error() string {
	if e.Unavailable {
		return ErrUpstreamUnavailable.Error() + ": " + e.Detail
	}
	return ErrUpstreamFailed.Error() + ": " + e.Detail
}

func (e *UpstreamError) Unwrap() error { return e.Err }

func (e *UpstreamError) Is(target error) bool {
	if e.Unavailable {
		return target == ErrUpstreamUnavailable
	}
	return target == ErrUpstreamFailed
}

// MitigationStrategyInput is a questionnaire with an optional current risk
type MitigationStrategyInput struct {
	model.ProjectInfo
	CurrentRisk *float64 `json:"current_risk,omitempty"`
}

// HealthStatus reports the scoring service health
type HealthStatus struct {
	Status        string          `json:"status"`
	PythonService json.RawMessage `json:"pythonService,omitempty"`
	Error         string          `json:"error,omitempty"`
	Timestamp     time.Time       `json:"timestamp"`
}

// Healthy reports whether the scoring service answered
func (h *HealthStatus) Healthy() bool {
	return h.Status == "healthy"
}

type RiskUseCase struct {
	scoring interfaces.ScoringService
}

func NewRiskUseCase(scoring interfaces.ScoringService) *RiskUseCase {
	return &RiskUseCase{scoring: scoring}
}

// Calculate scores the questionnaire with the scoring service. All required
// answers must be present.
func (uc *RiskUseCase) Calculate(ctx context.Context, info *model.ProjectInfo) (json.RawMessage, error) {
	if missing := info.MissingRequiredFields(); len(missing) > 0 {
		return nil, goerr.Wrap(&MissingFieldsError{Fields: missing}, "questionnaire is incomplete")
	}
	if uc.scoring == nil {
		return nil, goerr.Wrap(ErrScoringNotConfigured, "cannot calculate risk")
	}

	resp, err := uc.scoring.Predict(ctx, info.PredictRequest())
	if err != nil {
		return nil, upstreamError(err, "risk calculation failed")
	}
	return resp, nil
}

// Health checks the scoring service. A failed check is reported in the
// returned status rather than as an error.
func (uc *RiskUseCase) Health(ctx context.Context) *HealthStatus {
	status := &HealthStatus{
		Status:    "unhealthy",
		Error:     "Python service unavailable",
		Timestamp: time.Now().UTC(),
	}
	if uc.scoring == nil {
		return status
	}

	resp, err := uc.scoring.Health(ctx)
	if err != nil {
		logging.From(ctx).Warn("scoring service health check failed", "error", err)
		return status
	}

	status.Status = "healthy"
	status.Error = ""
	status.PythonService = resp
	return status
}

// MitigationStrategy requests a mitigation strategy for the questionnaire
func (uc *RiskUseCase) MitigationStrategy(ctx context.Context, input *MitigationStrategyInput) (json.RawMessage, error) {
	if uc.scoring == nil {
		return nil, goerr.Wrap(ErrScoringNotConfigured, "cannot generate mitigation strategy")
	}

	resp, err := uc.scoring.MitigationStrategy(ctx, &model.MitigationStrategyRequest{
		UserData:    input.UserData(),
		CurrentRisk: input.CurrentRisk,
	})
	if err != nil {
		return nil, upstreamError(err, "mitigation strategy generation failed")
	}
	return resp, nil
}

// RecommendationRiskReduction forwards a single recommendation to the
// scoring service
func (uc *RiskUseCase) RecommendationRiskReduction(ctx context.Context, req *model.RecommendationRiskReductionRequest) (json.RawMessage, error) {
	required := []struct{ name, value string }{
		{"featureGroup", req.FeatureGroup},
		{"featureName", req.FeatureName},
		{"currentOption", req.CurrentOption},
		{"recommendedOption", req.RecommendedOption},
	}
	var missing []string
	for _, f := range required {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return nil, goerr.Wrap(&MissingFieldsError{Fields: missing}, "recommendation is incomplete")
	}
	if uc.scoring == nil {
		return nil, goerr.Wrap(ErrScoringNotConfigured, "cannot calculate recommendation risk reduction")
	}

	resp, err := uc.scoring.RecommendationRiskReduction(ctx, req)
	if err != nil {
		return nil, upstreamError(err, "recommendation risk reduction failed")
	}
	return resp, nil
}

// upstreamError classifies a scoring service failure
func upstreamError(err error, msg string) error {
	return goerr.Wrap(&UpstreamError{
		Unavailable: errors.Is(err, interfaces.ErrScoringUnavailable),
		Detail:      upstreamDetail(err),
		Err:         err,
	}, msg)
}

// upstreamDetail is the innermost message of err
func upstreamDetail(err error) string {
	for {
		next := errors.Unwrap(err)
		if next == nil {
			return err.Error()
		}
		err = next
	}
}
