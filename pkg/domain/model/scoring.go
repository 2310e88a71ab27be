package model

// MitigationStrategyRequest is the payload of the scoring service
// mitigation-strategy endpoint
type MitigationStrategyRequest struct {
	UserData    []int    `json:"user_data"`
	CurrentRisk *float64 `json:"current_risk"`
}

// RecommendationRiskReductionRequest is the payload of the scoring service
// recommendation-risk-reduction endpoint
type RecommendationRiskReductionRequest struct {
	UserData          []int    `json:"user_data"`
	FeatureGroup      string   `json:"featureGroup"`
	FeatureName       string   `json:"featureName"`
	CurrentOption     string   `json:"currentOption"`
	RecommendedOption string   `json:"recommendedOption"`
	CurrentRisk       *float64 `json:"current_risk"`
}

// RecommendationRiskReduction is the response of the
// recommendation-risk-reduction endpoint
type RecommendationRiskReduction struct {
	FeatureGroup            string  `json:"featureGroup"`
	FeatureName             string  `json:"featureName"`
	CurrentOption           string  `json:"currentOption"`
	RecommendedOption       string  `json:"recommendedOption"`
	RiskReduction           float64 `json:"riskReduction"`
	RiskReductionPercentage float64 `json:"riskReductionPercentage"`
}

// NewRecommendationRiskReductionRequest builds the request for rec
func NewRecommendationRiskReductionRequest(info *ProjectInfo, rec Recommendation, currentRisk *float64) *RecommendationRiskReductionRequest {
	return &RecommendationRiskReductionRequest{
		UserData:          info.UserData(),
		FeatureGroup:      rec.FeatureGroup,
		FeatureName:       rec.FeatureName,
		CurrentOption:     rec.CurrentOption,
		RecommendedOption: rec.RecommendedOption,
		CurrentRisk:       currentRisk,
	}
}

// Enhance returns rec carrying the recomputed reduction
func (r *RecommendationRiskReduction) Enhance(rec Recommendation) Recommendation {
	out := rec.Clone()
	reduction := r.RiskReduction
	percentage := r.RiskReductionPercentage
	calculated := r.RiskReductionPercentage
	out.RiskReduction = &reduction
	out.RiskReductionPercentage = &percentage
	out.CalculatedRiskReduction = &calculated
	return out
}
