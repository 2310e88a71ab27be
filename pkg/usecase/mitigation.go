package usecase

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/m-mizutani/goerr/v2"
	"github.com/riskcompass/riskcompass/pkg/domain/interfaces"
	"github.com/riskcompass/riskcompass/pkg/domain/model"
	"github.com/riskcompass/riskcompass/pkg/domain/types"
	"github.com/riskcompass/riskcompass/pkg/utils/logging"
)

// MitigationResult is the outcome of a mitigation transition
type MitigationResult struct {
	Changed       bool             `json:"changed"`
	AppliedCount  int              `json:"appliedCount,omitempty"`
	Locked        *bool            `json:"locked,omitempty"`
	SelectedRound int              `json:"selectedRound"`
	Round         *model.RoundView `json:"round"`
}

type MitigationUseCase struct {
	repo     interfaces.Repository
	scoring  interfaces.ScoringService
	inFlight sync.Map
}

func NewMitigationUseCase(repo interfaces.Repository, scoring interfaces.ScoringService) *MitigationUseCase {
	return &MitigationUseCase{
		repo:    repo,
		scoring: scoring,
	}
}

// GetRound returns round n of the project's strategy with the user's progress.
// Round 0 is the overview.
func (uc *MitigationUseCase) GetRound(ctx context.Context, id types.ProjectID, n int, sort model.SortState) (*model.RoundView, error) {
	user, err := currentUser(ctx, uc.repo)
	if err != nil {
		return nil, err
	}
	project, err := getOwnedProject(ctx, uc.repo, id, user.ID)
	if err != nil {
		return nil, err
	}
	if project.MitigationStrategy == nil {
		return nil, goerr.Wrap(ErrNoMitigationStrategy, "no strategy", goerr.V(ProjectIDKey, id))
	}

	return model.NewMitigationState(project).RoundView(n, sort), nil
}

// SelectRound stores the selected round. The number is not checked against
// the strategy.
func (uc *MitigationUseCase) SelectRound(ctx context.Context, id types.ProjectID, n int) (*MitigationResult, error) {
	return uc.transition(ctx, id, func(ctx context.Context, project *model.Project, state *model.MitigationState, result *MitigationResult) error {
		result.Changed = state.SelectedRound() != n
		state.SelectRound(n)
		return nil
	})
}

// Apply marks the recommendation as applied and stores its recomputed risk
// reduction. Locked, already set and applied recommendations are left as is.
func (uc *MitigationUseCase) Apply(ctx context.Context, id types.ProjectID, key model.LockKey) (*MitigationResult, error) {
	return uc.transition(ctx, id, func(ctx context.Context, project *model.Project, state *model.MitigationState, result *MitigationResult) error {
		rec, err := findRecommendation(state, key)
		if err != nil {
			return err
		}
		changed, err := state.Apply(ctx, *rec, uc.recomputer(project))
		if err != nil {
			return err
		}
		result.Changed = changed
		return nil
	})
}

// Unapply reverts Apply unless the recommendation is locked
func (uc *MitigationUseCase) Unapply(ctx context.Context, id types.ProjectID, key model.LockKey) (*MitigationResult, error) {
	return uc.transition(ctx, id, func(ctx context.Context, project *model.Project, state *model.MitigationState, result *MitigationResult) error {
		rec, err := findRecommendation(state, key)
		if err != nil {
			return err
		}
		result.Changed = state.Unapply(*rec)
		return nil
	})
}

// ToggleLock flips the lock of the recommendation
func (uc *MitigationUseCase) ToggleLock(ctx context.Context, id types.ProjectID, key model.LockKey) (*MitigationResult, error) {
	return uc.transition(ctx, id, func(ctx context.Context, project *model.Project, state *model.MitigationState, result *MitigationResult) error {
		if _, err := findRecommendation(state, key); err != nil {
			return err
		}
		locked := state.ToggleLock(key)
		result.Locked = &locked
		result.Changed = true
		return nil
	})
}

// ApplyAll applies every open recommendation of the selected round
func (uc *MitigationUseCase) ApplyAll(ctx context.Context, id types.ProjectID) (*MitigationResult, error) {
	return uc.transition(ctx, id, func(ctx context.Context, project *model.Project, state *model.MitigationState, result *MitigationResult) error {
		count, err := state.ApplyAll(ctx, uc.recomputer(project))
		result.AppliedCount = count
		result.Changed = count > 0
		return err
	})
}

// ContinueToNextRound moves to the next round once the user confirmed it
func (uc *MitigationUseCase) ContinueToNextRound(ctx context.Context, id types.ProjectID, confirmed bool) (*MitigationResult, error) {
	return uc.transition(ctx, id, func(ctx context.Context, project *model.Project, state *model.MitigationState, result *MitigationResult) error {
		result.Changed = state.ContinueToNextRound(confirmed)
		return nil
	})
}

// Explain recomputes the risk reduction of a recommendation without applying
// it and stores the result as its enhanced description
func (uc *MitigationUseCase) Explain(ctx context.Context, id types.ProjectID, key model.LockKey) (*model.Recommendation, error) {
	var enhanced *model.Recommendation
	_, err := uc.transition(ctx, id, func(ctx context.Context, project *model.Project, state *model.MitigationState, result *MitigationResult) error {
		rec, err := findRecommendation(state, key)
		if err != nil {
			return err
		}
		if uc.scoring == nil {
			return goerr.Wrap(ErrScoringNotConfigured, "cannot explain recommendation")
		}
		out, err := uc.recomputer(project).Recompute(ctx, *rec)
		if err != nil {
			return err
		}
		state.SetEnhanced(*out)
		enhanced = out
		result.Changed = true
		return nil
	})
	if err != nil {
		return nil, err
	}
	return enhanced, nil
}

// RefreshStrategy replaces the project's strategy with a new one from the
// scoring service. Progress keys are kept; a selected round beyond the new
// last round is reset to the overview.
func (uc *MitigationUseCase) RefreshStrategy(ctx context.Context, id types.ProjectID, currentRisk *float64) (*model.Project, error) {
	if uc.scoring == nil {
		return nil, goerr.Wrap(ErrScoringNotConfigured, "cannot refresh mitigation strategy")
	}

	var updated *model.Project
	err := uc.withProject(ctx, id, func(ctx context.Context, project *model.Project) error {
		if project.ProjectInfo == nil {
			return goerr.Wrap(ErrValidation, "project has no questionnaire", goerr.V(ProjectIDKey, id))
		}

		raw, err := uc.scoring.MitigationStrategy(ctx, &model.MitigationStrategyRequest{
			UserData:    project.ProjectInfo.UserData(),
			CurrentRisk: currentRisk,
		})
		if err != nil {
			return upstreamError(err, "mitigation strategy generation failed")
		}

		var strategy model.MitigationStrategy
		if err := json.Unmarshal(raw, &strategy); err != nil {
			return goerr.Wrap(&UpstreamError{Detail: "invalid mitigation strategy", Err: err},
				"failed to decode mitigation strategy")
		}

		project.MitigationStrategy = &strategy
		if project.SelectedRound > strategy.LastRoundNumber() {
			project.SelectedRound = 0
		}

		updated, err = uc.repo.Project().Update(ctx, project)
		if err != nil {
			return goerr.Wrap(err, "failed to save mitigation strategy", goerr.V(ProjectIDKey, id))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

type transitionFunc func(ctx context.Context, project *model.Project, state *model.MitigationState, result *MitigationResult) error

// transition runs fn over the state of the user's project and persists the
// state when fn reports a change
func (uc *MitigationUseCase) transition(ctx context.Context, id types.ProjectID, fn transitionFunc) (*MitigationResult, error) {
	var result *MitigationResult
	err := uc.withProject(ctx, id, func(ctx context.Context, project *model.Project) error {
		if project.MitigationStrategy == nil {
			return goerr.Wrap(ErrNoMitigationStrategy, "no strategy", goerr.V(ProjectIDKey, id))
		}

		state := model.NewMitigationState(project)
		res := &MitigationResult{}
		if err := fn(ctx, project, state, res); err != nil {
			return err
		}

		if res.Changed {
			state.Save(project)
			saved, err := uc.repo.Project().Update(ctx, project)
			if err != nil {
				return goerr.Wrap(err, "failed to save mitigation progress", goerr.V(ProjectIDKey, id))
			}
			state = model.NewMitigationState(saved)
		}

		res.SelectedRound = state.SelectedRound()
		res.Round = state.RoundView(state.SelectedRound(), model.DefaultSortState())
		result = res
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// withProject loads the user's project while holding the per-project guard.
// A second mutation of the same project fails with ErrApplyInFlight.
func (uc *MitigationUseCase) withProject(ctx context.Context, id types.ProjectID, fn func(ctx context.Context, project *model.Project) error) error {
	user, err := currentUser(ctx, uc.repo)
	if err != nil {
		return err
	}

	if _, busy := uc.inFlight.LoadOrStore(id, struct{}{}); busy {
		return goerr.Wrap(ErrApplyInFlight, "project is being updated", goerr.V(ProjectIDKey, id))
	}
	defer uc.inFlight.Delete(id)

	project, err := getOwnedProject(ctx, uc.repo, id, user.ID)
	if err != nil {
		return err
	}
	return fn(ctx, project)
}

// recomputer asks the scoring service for the reduction of a recommendation
// at the risk of the round holding it
func (uc *MitigationUseCase) recomputer(project *model.Project) model.Recomputer {
	return model.RecomputerFunc(func(ctx context.Context, rec model.Recommendation) (*model.Recommendation, error) {
		if uc.scoring == nil {
			return nil, nil
		}

		var currentRisk *float64
		if round, _ := project.MitigationStrategy.FindRecommendation(rec.LockKey()); round != nil && round.CurrentRisk > 0 {
			risk := round.CurrentRisk
			currentRisk = &risk
		}

		req := model.NewRecommendationRiskReductionRequest(project.ProjectInfo, rec, currentRisk)
		raw, err := uc.scoring.RecommendationRiskReduction(ctx, req)
		if err != nil {
			return nil, upstreamError(err, "recommendation risk reduction failed")
		}

		var out model.RecommendationRiskReduction
		if err := json.Unmarshal(raw, &out); err != nil {
			return nil, goerr.Wrap(&UpstreamError{Detail: "invalid risk reduction response", Err: err},
				"failed to decode risk reduction")
		}

		logging.From(ctx).Debug("recommendation recomputed",
			"lock_key", rec.LockKey(),
			"risk_reduction_percentage", out.RiskReductionPercentage,
		)
		enhanced := out.Enhance(rec)
		return &enhanced, nil
	})
}

func findRecommendation(state *model.MitigationState, key model.LockKey) (*model.Recommendation, error) {
	_, rec := state.Strategy().FindRecommendation(key)
	if rec == nil {
		return nil, goerr.Wrap(ErrRecommendationNotFound, "recommendation not found", goerr.V("lock_key", key))
	}
	return rec, nil
}
