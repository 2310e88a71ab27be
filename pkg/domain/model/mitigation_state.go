package model

import (
	"context"
	"slices"

	"github.com/m-mizutani/goerr/v2"
)

// Recomputer recalculates the risk effect of a recommendation that is being
// applied and returns the recommendation enriched with the result.
type Recomputer interface {
	Recompute(ctx context.Context, rec Recommendation) (*Recommendation, error)
}

// RecomputerFunc adapts a function to Recomputer
type RecomputerFunc func(ctx context.Context, rec Recommendation) (*Recommendation, error)

func (f RecomputerFunc) Recompute(ctx context.Context, rec Recommendation) (*Recommendation, error) {
	return f(ctx, rec)
}

// MitigationState is the user's progress over an immutable MitigationStrategy.
// It is not safe for concurrent use; callers serialize access per project.
type MitigationState struct {
	strategy      *MitigationStrategy
	selectedRound int
	applied       []AppliedKey
	locked        []LockKey
	enhanced      map[LockKey]Recommendation
	enhancedOrder []LockKey
	applying      *AppliedKey
}

// NewMitigationState builds a state from the progress persisted on a project
func NewMitigationState(p *Project) *MitigationState {
	s := &MitigationState{
		strategy:      p.MitigationStrategy,
		selectedRound: p.SelectedRound,
		enhanced:      make(map[LockKey]Recommendation),
	}
	for _, k := range p.AppliedRecommendations {
		s.addApplied(AppliedKey(k))
	}
	for _, k := range p.LockedRecommendations {
		if !slices.Contains(s.locked, LockKey(k)) {
			s.locked = append(s.locked, LockKey(k))
		}
	}
	for _, rec := range p.EnhancedDescriptions {
		s.SetEnhanced(rec)
	}
	return s
}

// Save writes the progress back onto the project
func (s *MitigationState) Save(p *Project) {
	p.SelectedRound = s.selectedRound

	p.AppliedRecommendations = make([]string, len(s.applied))
	for i, k := range s.applied {
		p.AppliedRecommendations[i] = string(k)
	}

	p.LockedRecommendations = make([]string, len(s.locked))
	for i, k := range s.locked {
		p.LockedRecommendations[i] = string(k)
	}

	p.EnhancedDescriptions = make([]Recommendation, 0, len(s.enhancedOrder))
	for _, k := range s.enhancedOrder {
		p.EnhancedDescriptions = append(p.EnhancedDescriptions, s.enhanced[k].Clone())
	}
}

func (s *MitigationState) Strategy() *MitigationStrategy { return s.strategy }
func (s *MitigationState) SelectedRound() int            { return s.selectedRound }

// AppliedKeys returns the applied keys in insertion order
func (s *MitigationState) AppliedKeys() []AppliedKey { return append([]AppliedKey{}, s.applied...) }

// LockedKeys returns the locked keys in insertion order
func (s *MitigationState) LockedKeys() []LockKey { return append([]LockKey{}, s.locked...) }

// Applying returns the key of the apply in progress, if any
func (s *MitigationState) Applying() (AppliedKey, bool) {
	if s.applying == nil {
		return "", false
	}
	return *s.applying, true
}

// SelectRound sets the selected round. Whether the round exists is left to
// the reader of the state.
func (s *MitigationState) SelectRound(n int) {
	s.selectedRound = n
}

// IsApplied reports whether either applied key of rec is recorded
func (s *MitigationState) IsApplied(rec *Recommendation) bool {
	return slices.Contains(s.applied, rec.ShortAppliedKey()) ||
		slices.Contains(s.applied, rec.PersistentAppliedKey())
}

// IsLocked reports whether rec is locked
func (s *MitigationState) IsLocked(rec *Recommendation) bool {
	return slices.Contains(s.locked, rec.LockKey())
}

// Enhanced returns the enhanced description stored for key
func (s *MitigationState) Enhanced(key LockKey) (Recommendation, bool) {
	rec, ok := s.enhanced[key]
	return rec, ok
}

// SetEnhanced stores or replaces the enhanced description of a recommendation
func (s *MitigationState) SetEnhanced(rec Recommendation) {
	key := rec.LockKey()
	if _, ok := s.enhanced[key]; !ok {
		s.enhancedOrder = append(s.enhancedOrder, key)
	}
	s.enhanced[key] = rec.Clone()
}

// Apply marks rec as applied and recomputes its effect. It is a no-op
// returning false when rec is locked, already set, already applied, or when
// another apply is in progress. When the recomputation fails the apply is
// rolled back.
func (s *MitigationState) Apply(ctx context.Context, rec Recommendation, recomputer Recomputer) (bool, error) {
	if s.applying != nil || s.IsLocked(&rec) || rec.IsAlreadySet() || s.IsApplied(&rec) {
		return false, nil
	}

	key := rec.PersistentAppliedKey()
	s.applying = &key
	defer func() { s.applying = nil }()

	s.addApplied(key)

	if recomputer != nil {
		result, err := recomputer.Recompute(ctx, rec)
		if err != nil {
			s.removeApplied(key)
			return false, goerr.Wrap(err, "failed to recompute recommendation",
				goerr.V("applied_key", key))
		}
		if result != nil {
			s.SetEnhanced(*result)
		}
	}

	return true, nil
}

// Unapply removes both applied keys of rec. It returns false when rec is
// locked, already set, or not applied.
func (s *MitigationState) Unapply(rec Recommendation) bool {
	if s.IsLocked(&rec) || rec.IsAlreadySet() || !s.IsApplied(&rec) {
		return false
	}
	s.removeApplied(rec.ShortAppliedKey())
	s.removeApplied(rec.PersistentAppliedKey())
	return true
}

// ToggleLock flips the lock of key and returns the new lock state. Applied
// status is left as is.
func (s *MitigationState) ToggleLock(key LockKey) bool {
	if i := slices.Index(s.locked, key); i >= 0 {
		s.locked = slices.Delete(s.locked, i, i+1)
		return false
	}
	s.locked = append(s.locked, key)
	return true
}

// ApplyAll applies every recommendation of the selected round that is not
// applied, locked or already set, and returns how many were applied. Calling
// it again without other changes applies nothing.
func (s *MitigationState) ApplyAll(ctx context.Context, recomputer Recomputer) (int, error) {
	round := s.strategy.Round(s.selectedRound)
	if round == nil || s.selectedRound == 0 {
		return 0, nil
	}

	count := 0
	for _, rec := range round.Recommendations {
		if s.IsApplied(&rec) || s.IsLocked(&rec) || rec.IsAlreadySet() {
			continue
		}
		ok, err := s.Apply(ctx, rec, recomputer)
		if err != nil {
			return count, err
		}
		if ok {
			count++
		}
	}
	return count, nil
}

// CanContinue reports whether the selected round is a real round before the last
func (s *MitigationState) CanContinue() bool {
	return s.selectedRound > 0 && s.selectedRound < s.strategy.LastRoundNumber()
}

// ContinueToNextRound advances the selected round after confirmation
func (s *MitigationState) ContinueToNextRound(confirmed bool) bool {
	if !confirmed || !s.CanContinue() {
		return false
	}
	s.selectedRound++
	return true
}

// ReductionPercentage returns the relative reduction of rec, preferring the
// recomputed value of its enhanced description
func (s *MitigationState) ReductionPercentage(rec *Recommendation) float64 {
	if enh, ok := s.enhanced[rec.LockKey()]; ok {
		if v := deref(enh.CalculatedRiskReduction); v != 0 {
			return v
		}
	}
	return deref(rec.RiskReductionPercentage)
}

// LiveCurrentRisk returns the strategy's initial risk reduced by every applied
// recommendation of the strategy, in [0,1]
func (s *MitigationState) LiveCurrentRisk() float64 {
	if s.strategy == nil {
		return 0
	}

	risk := clampUnit(s.strategy.InitialRisk)
	seen := make(map[AppliedKey]struct{})
	for _, round := range s.strategy.Rounds {
		for _, rec := range round.Recommendations {
			if rec.IsAlreadySet() || !s.IsApplied(&rec) {
				continue
			}
			key := rec.PersistentAppliedKey()
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}

			pct := s.ReductionPercentage(&rec)
			risk *= 1 - min(max(pct, 0), 100)/100
		}
	}
	return clampUnit(risk)
}

// PointsReduced returns the percentage points rec removes from the live risk
func (s *MitigationState) PointsReduced(rec *Recommendation) float64 {
	return s.LiveCurrentRisk() * 100 * s.ReductionPercentage(rec) / 100
}

func (s *MitigationState) addApplied(key AppliedKey) {
	if !slices.Contains(s.applied, key) {
		s.applied = append(s.applied, key)
	}
}

func (s *MitigationState) removeApplied(key AppliedKey) {
	s.applied = slices.DeleteFunc(s.applied, func(k AppliedKey) bool { return k == key })
}

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
