package model

// MitigationStrategy is the round-based plan produced by the scoring service.
// It is replaced as a whole when refreshed and never edited in place.
type MitigationStrategy struct {
	InitialRisk              float64           `json:"initialRisk"`
	FinalRisk                float64           `json:"finalRisk"`
	TotalReduction           float64           `json:"totalReduction"`
	TotalReductionPercentage float64           `json:"totalReductionPercentage"`
	Rounds                   []MitigationRound `json:"rounds"`
	ImplementationPriority   string            `json:"implementationPriority,omitempty"`
}

// MitigationRound bundles recommendations that the scoring service groups
// together. RoundNumber starts at 1; 0 is reserved for the overview.
type MitigationRound struct {
	RoundNumber         int              `json:"roundNumber"`
	Features            []string         `json:"features"`
	CurrentRisk         float64          `json:"currentRisk"`
	ProjectedRisk       float64          `json:"projectedRisk"`
	RiskReduction       float64          `json:"riskReduction"`
	ReductionPercentage float64          `json:"reductionPercentage"`
	Recommendations     []Recommendation `json:"recommendations"`
}

// Recommendation is one suggested change of a questionnaire answer
type Recommendation struct {
	FeatureGroup        string `json:"featureGroup"`
	FeatureName         string `json:"featureName"`
	CurrentOption       string `json:"currentOption"`
	RecommendedOption   string `json:"recommendedOption"`
	OptionIndex         int    `json:"optionIndex"`
	Description         string `json:"description"`
	EnhancedDescription string `json:"enhancedDescription,omitempty"`
	CostLevel           int    `json:"costLevel,omitempty"`
	Importance          string `json:"importance,omitempty"`

	RiskReduction           *float64 `json:"riskReduction,omitempty"`
	RiskReductionPercentage *float64 `json:"riskReductionPercentage,omitempty"`
	CalculatedRiskReduction *float64 `json:"calculatedRiskReduction,omitempty"`
}

// LockKey identifies a recommendation for lock bookkeeping and enhanced
// descriptions
type LockKey string

// AppliedKey identifies a recommendation for applied bookkeeping. It is a
// separate key space from LockKey.
type AppliedKey string

// LockKey derives featureGroup-featureName-description
func (r *Recommendation) LockKey() LockKey {
	return LockKey(r.FeatureGroup + "-" + r.FeatureName + "-" + r.Description)
}

// ShortAppliedKey derives featureGroup-recommendedOption
func (r *Recommendation) ShortAppliedKey() AppliedKey {
	return AppliedKey(r.FeatureGroup + "-" + r.RecommendedOption)
}

// PersistentAppliedKey derives featureGroup-currentOption-to-recommendedOption
func (r *Recommendation) PersistentAppliedKey() AppliedKey {
	return AppliedKey(r.FeatureGroup + "-" + r.CurrentOption + "-to-" + r.RecommendedOption)
}

// IsAlreadySet reports whether the current answer already equals the
// recommended one. Such a recommendation cannot be applied or unapplied.
func (r *Recommendation) IsAlreadySet() bool {
	return r.CurrentOption == r.RecommendedOption
}

// Clone returns a deep copy
func (r Recommendation) Clone() Recommendation {
	r.RiskReduction = cloneFloat(r.RiskReduction)
	r.RiskReductionPercentage = cloneFloat(r.RiskReductionPercentage)
	r.CalculatedRiskReduction = cloneFloat(r.CalculatedRiskReduction)
	return r
}

// Round returns the round with the given number, or nil
func (s *MitigationStrategy) Round(n int) *MitigationRound {
	if s == nil {
		return nil
	}
	for i := range s.Rounds {
		if s.Rounds[i].RoundNumber == n {
			return &s.Rounds[i]
		}
	}
	return nil
}

// LastRoundNumber returns the highest round number, or 0 without rounds
func (s *MitigationStrategy) LastRoundNumber() int {
	if s == nil {
		return 0
	}
	last := 0
	for _, r := range s.Rounds {
		if r.RoundNumber > last {
			last = r.RoundNumber
		}
	}
	return last
}

// Clone returns a deep copy
func (s *MitigationStrategy) Clone() *MitigationStrategy {
	if s == nil {
		return nil
	}
	c := *s
	if s.Rounds != nil {
		c.Rounds = make([]MitigationRound, len(s.Rounds))
		for i, r := range s.Rounds {
			r.Features = cloneStrings(r.Features)
			if r.Recommendations != nil {
				recs := make([]Recommendation, len(r.Recommendations))
				for j := range r.Recommendations {
					recs[j] = r.Recommendations[j].Clone()
				}
				r.Recommendations = recs
			}
			c.Rounds[i] = r
		}
	}
	return &c
}

// FindRecommendation returns the first recommendation with the lock key and
// the round holding it
func (s *MitigationStrategy) FindRecommendation(key LockKey) (*MitigationRound, *Recommendation) {
	if s == nil {
		return nil, nil
	}
	for i := range s.Rounds {
		round := &s.Rounds[i]
		for j := range round.Recommendations {
			if round.Recommendations[j].LockKey() == key {
				return round, &round.Recommendations[j]
			}
		}
	}
	return nil, nil
}
