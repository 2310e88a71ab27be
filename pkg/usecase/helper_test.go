package usecase_test

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/riskcompass/riskcompass/pkg/domain/interfaces"
	"github.com/riskcompass/riskcompass/pkg/domain/model"
	"github.com/riskcompass/riskcompass/pkg/domain/model/auth"
	"github.com/riskcompass/riskcompass/pkg/domain/types"
)

func ctxAs(id types.UserID) context.Context {
	return auth.ContextWithPrincipal(context.Background(),
		auth.NewPrincipal(id, string(id)+"@example.com", string(id)))
}

func putUser(t *testing.T, repo interfaces.Repository, id types.UserID, org types.OrganizationID) {
	t.Helper()
	gt.NoError(t, repo.User().Put(context.Background(), &model.User{
		ID:             id,
		Email:          string(id) + "@example.com",
		Name:           "Name of " + string(id),
		Role:           types.RoleUser,
		OrganizationID: org,
	})).Required()
}

func pct(v float64) *float64 { return &v }

// fakeScoring records calls and returns canned responses
type fakeScoring struct {
	mu sync.Mutex

	predictResp  json.RawMessage
	healthResp   json.RawMessage
	strategyResp json.RawMessage
	reduction    float64
	err          error
	block        chan struct{}
	entered      chan struct{}

	predictReqs   []map[string]string
	strategyReqs  []*model.MitigationStrategyRequest
	reductionReqs []*model.RecommendationRiskReductionRequest
}

var _ interfaces.ScoringService = (*fakeScoring)(nil)

func (f *fakeScoring) Predict(ctx context.Context, req map[string]string) (json.RawMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.predictReqs = append(f.predictReqs, req)
	if f.err != nil {
		return nil, f.err
	}
	return f.predictResp, nil
}

func (f *fakeScoring) Health(ctx context.Context) (json.RawMessage, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.healthResp, nil
}

func (f *fakeScoring) MitigationStrategy(ctx context.Context, req *model.MitigationStrategyRequest) (json.RawMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.strategyReqs = append(f.strategyReqs, req)
	if f.err != nil {
		return nil, f.err
	}
	return f.strategyResp, nil
}

func (f *fakeScoring) RecommendationRiskReduction(ctx context.Context, req *model.RecommendationRiskReductionRequest) (json.RawMessage, error) {
	if f.entered != nil {
		f.entered <- struct{}{}
	}
	if f.block != nil {
		<-f.block
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.reductionReqs = append(f.reductionReqs, req)
	if f.err != nil {
		return nil, f.err
	}
	return json.Marshal(model.RecommendationRiskReduction{
		FeatureGroup:            req.FeatureGroup,
		FeatureName:             req.FeatureName,
		CurrentOption:           req.CurrentOption,
		RecommendedOption:       req.RecommendedOption,
		RiskReduction:           f.reduction / 100,
		RiskReductionPercentage: f.reduction,
	})
}

func (f *fakeScoring) reductionCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.reductionReqs)
}

// testStrategy has two rounds; round 1 holds an already set recommendation
func testStrategy() *model.MitigationStrategy {
	return &model.MitigationStrategy{
		InitialRisk: 0.8,
		FinalRisk:   0.4,
		Rounds: []model.MitigationRound{
			{
				RoundNumber: 1,
				CurrentRisk: 0.8,
				Recommendations: []model.Recommendation{
					{FeatureGroup: "security", FeatureName: "usesMFA", CurrentOption: "no", RecommendedOption: "yes", Description: "Enable MFA", RiskReductionPercentage: pct(10)},
					{FeatureGroup: "security", FeatureName: "allowPasswordReuse", CurrentOption: "yes", RecommendedOption: "no", Description: "Forbid password reuse", RiskReductionPercentage: pct(25)},
					{FeatureGroup: "network", FeatureName: "networkType", CurrentOption: "private", RecommendedOption: "private", Description: "Keep private"},
				},
			},
			{
				RoundNumber: 2,
				CurrentRisk: 0.54,
				Recommendations: []model.Recommendation{
					{FeatureGroup: "governance", FeatureName: "governanceLevel", CurrentOption: "level1", RecommendedOption: "level3", Description: "Raise governance", RiskReductionPercentage: pct(50)},
				},
			},
		},
	}
}

func fullInfo() *model.ProjectInfo {
	return &model.ProjectInfo{
		ProjectDuration:     "6-12m",
		ProjectType:         "commercial",
		HasCyberLegalTeam:   "no",
		CompanyScale:        "61-100",
		ProjectPhase:        "construction",
		Layer1Teams:         "11-20",
		Layer2Teams:         "<=10",
		Layer3Teams:         "na",
		TeamOverlap:         "21-40",
		HasITTeam:           "yes",
		DevicesWithFirewall: "41-60",
		NetworkType:         "private",
		PhishingFailRate:    "21-40",
		GovernanceLevel:     "level1",
		AllowPasswordReuse:  "yes",
		UsesMFA:             "no",
	}
}
