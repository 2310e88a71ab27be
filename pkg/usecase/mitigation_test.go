package usecase_test

import (
	"context"
	"encoding/json"
	"math"
	"testing"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
	"github.com/riskcompass/riskcompass/pkg/domain/interfaces"
	"github.com/riskcompass/riskcompass/pkg/domain/model"
	"github.com/riskcompass/riskcompass/pkg/domain/types"
	"github.com/riskcompass/riskcompass/pkg/repository/memory"
	"github.com/riskcompass/riskcompass/pkg/usecase"
)

const (
	mfaKey      = model.LockKey("security-usesMFA-Enable MFA")
	passwordKey = model.LockKey("security-allowPasswordReuse-Forbid password reuse")
	keepKey     = model.LockKey("network-networkType-Keep private")
)

func newMitigationProject(t *testing.T, repo interfaces.Repository, owner types.UserID, selected int) *model.Project {
	t.Helper()
	putUser(t, repo, owner, "")
	p, err := repo.Project().Create(context.Background(), &model.Project{
		OwnerID:            owner,
		ProjectName:        "Tower",
		ProjectInfo:        fullInfo(),
		MitigationStrategy: testStrategy(),
		SelectedRound:      selected,
	})
	gt.NoError(t, err).Required()
	return p
}

func findView(t *testing.T, round *model.RoundView, key model.LockKey) model.RecommendationView {
	t.Helper()
	for _, rv := range round.Recommendations {
		if rv.LockKey == key {
			return rv
		}
	}
	t.Fatalf("recommendation %s not in round %d", key, round.RoundNumber)
	return model.RecommendationView{}
}

func storedProject(t *testing.T, repo interfaces.Repository, id types.ProjectID) *model.Project {
	t.Helper()
	p, err := repo.Project().Get(context.Background(), id)
	gt.NoError(t, err).Required()
	return p
}

func TestMitigationUseCase_Apply(t *testing.T) {
	repo := memory.New()
	scoring := &fakeScoring{reduction: 12}
	uc := usecase.NewMitigationUseCase(repo, scoring)
	p := newMitigationProject(t, repo, "alice", 1)
	ctx := ctxAs("alice")

	result, err := uc.Apply(ctx, p.ID, mfaKey)
	gt.NoError(t, err).Required()
	gt.Bool(t, result.Changed).True()
	gt.Number(t, result.SelectedRound).Equal(1)

	t.Run("recomputes at the round risk", func(t *testing.T) {
		gt.Number(t, scoring.reductionCalls()).Equal(1)
		req := scoring.reductionReqs[0]
		gt.Value(t, req.FeatureName).Equal("usesMFA")
		gt.Value(t, *req.CurrentRisk).Equal(0.8)
		gt.Array(t, req.UserData).Length(16)
	})

	t.Run("view carries the enhanced reduction", func(t *testing.T) {
		rv := findView(t, result.Round, mfaKey)
		gt.Bool(t, rv.Applied).True()
		gt.Value(t, rv.ReductionPercentage).Equal(12.0)
		gt.Value(t, *rv.Enhanced.CalculatedRiskReduction).Equal(12.0)
		gt.Bool(t, math.Abs(result.Round.LiveCurrentRisk-0.8*0.88) < 1e-9).True()
		gt.Number(t, result.Round.AppliedCount).Equal(1)
		gt.Number(t, result.Round.RemainingCount).Equal(1)
	})

	t.Run("progress is persisted", func(t *testing.T) {
		stored := storedProject(t, repo, p.ID)
		gt.Value(t, stored.AppliedRecommendations).Equal([]string{"security-no-to-yes"})
		gt.Array(t, stored.EnhancedDescriptions).Length(1)
	})

	t.Run("applying twice is a no-op", func(t *testing.T) {
		again, err := uc.Apply(ctx, p.ID, mfaKey)
		gt.NoError(t, err).Required()
		gt.Bool(t, again.Changed).False()
		gt.Number(t, scoring.reductionCalls()).Equal(1)
	})

	t.Run("already set recommendation is ignored", func(t *testing.T) {
		res, err := uc.Apply(ctx, p.ID, keepKey)
		gt.NoError(t, err).Required()
		gt.Bool(t, res.Changed).False()
	})

	t.Run("unknown recommendation", func(t *testing.T) {
		_, err := uc.Apply(ctx, p.ID, "security-unknown-nothing")
		gt.Error(t, err).Is(usecase.ErrRecommendationNotFound)
	})

	t.Run("other owner cannot apply", func(t *testing.T) {
		putUser(t, repo, "mallory", "")
		_, err := uc.Apply(ctxAs("mallory"), p.ID, passwordKey)
		gt.Error(t, err).Is(usecase.ErrProjectNotFound)
	})
}

func TestMitigationUseCase_ApplyFailureRollsBack(t *testing.T) {
	repo := memory.New()
	uc := usecase.NewMitigationUseCase(repo, &fakeScoring{err: goerr.New("model crashed")})
	p := newMitigationProject(t, repo, "alice", 1)

	_, err := uc.Apply(ctxAs("alice"), p.ID, mfaKey)
	gt.Error(t, err).Is(usecase.ErrUpstreamFailed)

	_, err = uc.ApplyAll(ctxAs("alice"), p.ID)
	gt.Error(t, err).Is(usecase.ErrUpstreamFailed)

	stored := storedProject(t, repo, p.ID)
	gt.Array(t, stored.AppliedRecommendations).Length(0)
}

func TestMitigationUseCase_WithoutScoring(t *testing.T) {
	repo := memory.New()
	uc := usecase.NewMitigationUseCase(repo, nil)
	p := newMitigationProject(t, repo, "alice", 1)

	result, err := uc.Apply(ctxAs("alice"), p.ID, mfaKey)
	gt.NoError(t, err).Required()
	rv := findView(t, result.Round, mfaKey)
	gt.Bool(t, rv.Applied).True()
	gt.Value(t, rv.Enhanced).Nil()
	gt.Value(t, rv.ReductionPercentage).Equal(10.0)

	_, err = uc.Explain(ctxAs("alice"), p.ID, mfaKey)
	gt.Error(t, err).Is(usecase.ErrScoringNotConfigured)

	_, err = uc.RefreshStrategy(ctxAs("alice"), p.ID, nil)
	gt.Error(t, err).Is(usecase.ErrScoringNotConfigured)
}

func TestMitigationUseCase_LockAndUnapply(t *testing.T) {
	repo := memory.New()
	uc := usecase.NewMitigationUseCase(repo, &fakeScoring{reduction: 20})
	p := newMitigationProject(t, repo, "alice", 1)
	ctx := ctxAs("alice")

	_, err := uc.Apply(ctx, p.ID, mfaKey)
	gt.NoError(t, err).Required()

	locked, err := uc.ToggleLock(ctx, p.ID, mfaKey)
	gt.NoError(t, err).Required()
	gt.Bool(t, *locked.Locked).True()

	t.Run("locked recommendation cannot be unapplied", func(t *testing.T) {
		res, err := uc.Unapply(ctx, p.ID, mfaKey)
		gt.NoError(t, err).Required()
		gt.Bool(t, res.Changed).False()
		gt.Bool(t, findView(t, res.Round, mfaKey).Applied).True()
	})

	t.Run("locked recommendation cannot be applied", func(t *testing.T) {
		_, err := uc.ToggleLock(ctx, p.ID, passwordKey)
		gt.NoError(t, err).Required()
		res, err := uc.Apply(ctx, p.ID, passwordKey)
		gt.NoError(t, err).Required()
		gt.Bool(t, res.Changed).False()
	})

	t.Run("unlocked recommendation is unapplied", func(t *testing.T) {
		unlocked, err := uc.ToggleLock(ctx, p.ID, mfaKey)
		gt.NoError(t, err).Required()
		gt.Bool(t, *unlocked.Locked).False()

		res, err := uc.Unapply(ctx, p.ID, mfaKey)
		gt.NoError(t, err).Required()
		gt.Bool(t, res.Changed).True()
		gt.Bool(t, findView(t, res.Round, mfaKey).Applied).False()

		stored := storedProject(t, repo, p.ID)
		gt.Array(t, stored.AppliedRecommendations).Length(0)
		gt.Value(t, stored.LockedRecommendations).Equal([]string{string(passwordKey)})
	})
}

func TestMitigationUseCase_ApplyAll(t *testing.T) {
	repo := memory.New()
	scoring := &fakeScoring{reduction: 10}
	uc := usecase.NewMitigationUseCase(repo, scoring)
	p := newMitigationProject(t, repo, "alice", 1)
	ctx := ctxAs("alice")

	first, err := uc.ApplyAll(ctx, p.ID)
	gt.NoError(t, err).Required()
	gt.Number(t, first.AppliedCount).Equal(2)
	gt.Bool(t, first.Changed).True()
	gt.Number(t, first.Round.RemainingCount).Equal(0)
	gt.Number(t, scoring.reductionCalls()).Equal(2)

	second, err := uc.ApplyAll(ctx, p.ID)
	gt.NoError(t, err).Required()
	gt.Number(t, second.AppliedCount).Equal(0)
	gt.Bool(t, second.Changed).False()
	gt.Number(t, scoring.reductionCalls()).Equal(2)

	t.Run("overview applies nothing", func(t *testing.T) {
		overview := newMitigationProject(t, repo, "bob", 0)
		res, err := uc.ApplyAll(ctxAs("bob"), overview.ID)
		gt.NoError(t, err).Required()
		gt.Number(t, res.AppliedCount).Equal(0)
	})
}

func TestMitigationUseCase_Rounds(t *testing.T) {
	repo := memory.New()
	uc := usecase.NewMitigationUseCase(repo, &fakeScoring{})
	p := newMitigationProject(t, repo, "alice", 1)
	ctx := ctxAs("alice")

	t.Run("continue needs confirmation", func(t *testing.T) {
		res, err := uc.ContinueToNextRound(ctx, p.ID, false)
		gt.NoError(t, err).Required()
		gt.Bool(t, res.Changed).False()
		gt.Number(t, res.SelectedRound).Equal(1)
	})

	t.Run("continue moves to the next round", func(t *testing.T) {
		res, err := uc.ContinueToNextRound(ctx, p.ID, true)
		gt.NoError(t, err).Required()
		gt.Bool(t, res.Changed).True()
		gt.Number(t, res.SelectedRound).Equal(2)
		gt.Bool(t, res.Round.Found).True()
		gt.Bool(t, res.Round.HasNextRound).False()
		gt.Number(t, storedProject(t, repo, p.ID).SelectedRound).Equal(2)
	})

	t.Run("last round cannot continue", func(t *testing.T) {
		res, err := uc.ContinueToNextRound(ctx, p.ID, true)
		gt.NoError(t, err).Required()
		gt.Bool(t, res.Changed).False()
	})

	t.Run("select any round", func(t *testing.T) {
		res, err := uc.SelectRound(ctx, p.ID, 7)
		gt.NoError(t, err).Required()
		gt.Number(t, res.SelectedRound).Equal(7)
		gt.Bool(t, res.Round.Found).False()
		gt.Array(t, res.Round.Recommendations).Length(0)
	})

	t.Run("get round with sort", func(t *testing.T) {
		sort := model.DefaultSortState().Click(types.SortOptionRiskReduction)
		view, err := uc.GetRound(ctx, p.ID, 1, sort)
		gt.NoError(t, err).Required()
		gt.Bool(t, view.Found).True()
		gt.Array(t, view.Recommendations).Length(3)
		gt.Value(t, view.Sort).Equal(sort)

		overview, err := uc.GetRound(ctx, p.ID, 0, model.DefaultSortState())
		gt.NoError(t, err).Required()
		gt.Bool(t, overview.Found).False()
	})

	t.Run("project without strategy", func(t *testing.T) {
		bare, err := repo.Project().Create(context.Background(), &model.Project{OwnerID: "alice", ProjectName: "Bare"})
		gt.NoError(t, err).Required()

		_, err = uc.GetRound(ctx, bare.ID, 1, model.DefaultSortState())
		gt.Error(t, err).Is(usecase.ErrNoMitigationStrategy)
		_, err = uc.SelectRound(ctx, bare.ID, 1)
		gt.Error(t, err).Is(usecase.ErrNoMitigationStrategy)
	})
}

func TestMitigationUseCase_InFlight(t *testing.T) {
	repo := memory.New()
	scoring := &fakeScoring{
		reduction: 10,
		block:     make(chan struct{}),
		entered:   make(chan struct{}),
	}
	uc := usecase.NewMitigationUseCase(repo, scoring)
	p := newMitigationProject(t, repo, "alice", 1)
	ctx := ctxAs("alice")

	done := make(chan error, 1)
	go func() {
		_, err := uc.Apply(ctx, p.ID, mfaKey)
		done <- err
	}()
	<-scoring.entered

	_, err := uc.Apply(ctx, p.ID, passwordKey)
	gt.Error(t, err).Is(usecase.ErrApplyInFlight)
	_, err = uc.SelectRound(ctx, p.ID, 2)
	gt.Error(t, err).Is(usecase.ErrApplyInFlight)
	// the guard covers every mitigation mutation, not only apply
	_, err = uc.ToggleLock(ctx, p.ID, passwordKey)
	gt.Error(t, err).Is(usecase.ErrApplyInFlight)
	_, err = uc.Explain(ctx, p.ID, passwordKey)
	gt.Error(t, err).Is(usecase.ErrApplyInFlight)

	close(scoring.block)
	gt.NoError(t, <-done)

	scoring.entered = nil
	res, err := uc.Apply(ctx, p.ID, passwordKey)
	gt.NoError(t, err).Required()
	gt.Bool(t, res.Changed).True()
}

func TestMitigationUseCase_Explain(t *testing.T) {
	repo := memory.New()
	scoring := &fakeScoring{reduction: 33}
	uc := usecase.NewMitigationUseCase(repo, scoring)
	p := newMitigationProject(t, repo, "alice", 1)

	enhanced, err := uc.Explain(ctxAs("alice"), p.ID, "governance-governanceLevel-Raise governance")
	gt.NoError(t, err).Required()
	gt.Value(t, *enhanced.CalculatedRiskReduction).Equal(33.0)
	gt.Value(t, *scoring.reductionReqs[0].CurrentRisk).Equal(0.54)

	stored := storedProject(t, repo, p.ID)
	gt.Array(t, stored.AppliedRecommendations).Length(0)
	gt.Array(t, stored.EnhancedDescriptions).Length(1)
}

func TestMitigationUseCase_RefreshStrategy(t *testing.T) {
	refreshed, err := json.Marshal(model.MitigationStrategy{
		InitialRisk: 0.5,
		Rounds: []model.MitigationRound{{
			RoundNumber: 1,
			CurrentRisk: 0.5,
			Recommendations: []model.Recommendation{
				{FeatureGroup: "security", FeatureName: "usesMFA", CurrentOption: "no", RecommendedOption: "yes", Description: "Enable MFA"},
			},
		}},
	})
	gt.NoError(t, err).Required()

	repo := memory.New()
	scoring := &fakeScoring{reduction: 10, strategyResp: refreshed}
	uc := usecase.NewMitigationUseCase(repo, scoring)
	p := newMitigationProject(t, repo, "alice", 1)
	ctx := ctxAs("alice")

	_, err = uc.Apply(ctx, p.ID, mfaKey)
	gt.NoError(t, err).Required()
	_, err = uc.SelectRound(ctx, p.ID, 2)
	gt.NoError(t, err).Required()

	updated, err := uc.RefreshStrategy(ctx, p.ID, pct(0.5))
	gt.NoError(t, err).Required()
	gt.Number(t, updated.MitigationStrategy.LastRoundNumber()).Equal(1)
	gt.Number(t, updated.SelectedRound).Equal(0)
	gt.Value(t, updated.AppliedRecommendations).Equal([]string{"security-no-to-yes"})

	gt.Array(t, scoring.strategyReqs).Length(1)
	gt.Value(t, *scoring.strategyReqs[0].CurrentRisk).Equal(0.5)

	t.Run("invalid response", func(t *testing.T) {
		scoring.strategyResp = json.RawMessage(`not json`)
		_, err := uc.RefreshStrategy(ctx, p.ID, nil)
		gt.Error(t, err).Is(usecase.ErrUpstreamFailed)
	})
}
