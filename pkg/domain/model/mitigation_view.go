package model

import (
	"cmp"
	"slices"
	"strings"

	"github.com/riskcompass/riskcompass/pkg/domain/types"
)

// SortState is the ordering selected for a round's recommendations
type SortState struct {
	Option    types.SortOption    `json:"option"`
	Direction types.SortDirection `json:"direction"`
}

// DefaultSortState keeps the order delivered by the scoring service
func DefaultSortState() SortState {
	return SortState{Option: types.SortOptionDefault, Direction: types.SortOptionDefault.DefaultDirection()}
}

// Click returns the state after the user selects option. Selecting the
// current option flips the direction; another option starts at its default
// direction.
func (s SortState) Click(option types.SortOption) SortState {
	option = option.Normalize()
	if option == s.Option {
		if s.Direction == types.SortAsc {
			return SortState{Option: option, Direction: types.SortDesc}
		}
		return SortState{Option: option, Direction: types.SortAsc}
	}
	return SortState{Option: option, Direction: option.DefaultDirection()}
}

// RecommendationView is a recommendation annotated with the user's progress
type RecommendationView struct {
	Recommendation
	LockKey             LockKey         `json:"lockKey"`
	AppliedKey          AppliedKey      `json:"appliedKey"`
	Applied             bool            `json:"applied"`
	Locked              bool            `json:"locked"`
	AlreadySet          bool            `json:"alreadySet"`
	Enhanced            *Recommendation `json:"enhanced,omitempty"`
	ReductionPercentage float64         `json:"reductionPercentage"`
	PointsReduced       float64         `json:"pointsReduced"`
}

// RoundView is the read model of one round, or of the overview when
// RoundNumber is 0
type RoundView struct {
	RoundNumber         int                  `json:"roundNumber"`
	Found               bool                 `json:"found"`
	Features            []string             `json:"features"`
	CurrentRisk         float64              `json:"currentRisk"`
	ProjectedRisk       float64              `json:"projectedRisk"`
	RiskReduction       float64              `json:"riskReduction"`
	ReductionPercentage float64              `json:"reductionPercentage"`
	LiveCurrentRisk     float64              `json:"liveCurrentRisk"`
	Recommendations     []RecommendationView `json:"recommendations"`
	AppliedCount        int                  `json:"appliedCount"`
	RemainingCount      int                  `json:"remainingCount"`
	HasNextRound        bool                 `json:"hasNextRound"`
	Sort                SortState            `json:"sort"`
}

// RoundView builds the view of round n sorted by sort. A missing round yields
// Found=false with no recommendations.
func (s *MitigationState) RoundView(n int, sort SortState) *RoundView {
	view := &RoundView{
		RoundNumber:     n,
		LiveCurrentRisk: s.LiveCurrentRisk(),
		Recommendations: []RecommendationView{},
		HasNextRound:    n > 0 && n < s.strategy.LastRoundNumber(),
		Sort:            sort,
	}

	round := s.strategy.Round(n)
	if n == 0 || round == nil {
		return view
	}

	view.Found = true
	view.Features = cloneStrings(round.Features)
	view.CurrentRisk = round.CurrentRisk
	view.ProjectedRisk = round.ProjectedRisk
	view.RiskReduction = round.RiskReduction
	view.ReductionPercentage = round.ReductionPercentage

	alreadySet := 0
	for _, rec := range round.Recommendations {
		rv := RecommendationView{
			Recommendation:      rec.Clone(),
			LockKey:             rec.LockKey(),
			AppliedKey:          rec.PersistentAppliedKey(),
			Applied:             s.IsApplied(&rec),
			Locked:              s.IsLocked(&rec),
			AlreadySet:          rec.IsAlreadySet(),
			ReductionPercentage: s.ReductionPercentage(&rec),
		}
		rv.PointsReduced = view.LiveCurrentRisk * 100 * rv.ReductionPercentage / 100
		if enh, ok := s.enhanced[rv.LockKey]; ok {
			c := enh.Clone()
			rv.Enhanced = &c
		}

		switch {
		case rv.AlreadySet:
			alreadySet++
		case rv.Applied:
			view.AppliedCount++
		}
		view.Recommendations = append(view.Recommendations, rv)
	}
	view.RemainingCount = max(len(round.Recommendations)-view.AppliedCount-alreadySet, 0)

	sortRecommendations(view.Recommendations, sort)
	return view
}

func sortRecommendations(recs []RecommendationView, sort SortState) {
	var key func(rv *RecommendationView) float64
	switch sort.Option {
	case types.SortOptionRiskReduction:
		key = func(rv *RecommendationView) float64 { return rv.ReductionPercentage }
	case types.SortOptionCost:
		key = func(rv *RecommendationView) float64 {
			if rv.Enhanced == nil {
				return 0
			}
			return float64(rv.Enhanced.CostLevel)
		}
	case types.SortOptionPriority:
		key = func(rv *RecommendationView) float64 {
			if rv.Enhanced == nil {
				return float64(PriorityRank(""))
			}
			return float64(PriorityRank(rv.Enhanced.Importance))
		}
	default:
		return
	}

	slices.SortStableFunc(recs, func(a, b RecommendationView) int {
		if sort.Direction == types.SortAsc {
			return cmp.Compare(key(&a), key(&b))
		}
		return cmp.Compare(key(&b), key(&a))
	})
}

// PriorityRank orders importance labels: critical 4, high 3, medium 2, other 1.
// Matching is by case-insensitive substring.
func PriorityRank(importance string) int {
	v := strings.ToLower(importance)
	switch {
	case strings.Contains(v, "critical"):
		return 4
	case strings.Contains(v, "high"):
		return 3
	case strings.Contains(v, "medium"):
		return 2
	default:
		return 1
	}
}
