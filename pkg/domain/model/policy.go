package model

import (
	"github.com/m-mizutani/goerr/v2"
	"github.com/riskcompass/riskcompass/pkg/domain/types"
)

// levelEpsilon absorbs float64 rounding of a mean that lands exactly on a cut point
const levelEpsilon = 1e-9

// RiskLevelPolicy maps an average risk score in [0,1] to a RiskLevel. Thresholds
// are the ascending lower bounds of medium, high and critical.
type RiskLevelPolicy struct {
	Thresholds [3]float64 `json:"thresholds" toml:"thresholds"`
}

var (
	// CanonicalRiskLevelPolicy matches the cut points the scoring service uses
	// for its per-category levels.
	CanonicalRiskLevelPolicy = RiskLevelPolicy{Thresholds: [3]float64{0.25, 0.5, 0.75}}

	// LegacyProjectListRiskLevelPolicy is the stricter table historically applied
	// to the owner project list. Kept selectable through configuration.
	LegacyProjectListRiskLevelPolicy = RiskLevelPolicy{Thresholds: [3]float64{0.4, 0.6, 0.8}}
)

// Validate requires strictly ascending thresholds in (0,1]
func (p RiskLevelPolicy) Validate() error {
	prev := 0.0
	for i, cut := range p.Thresholds {
		if cut <= prev || cut > 1 {
			return goerr.New("risk level thresholds must be strictly ascending in (0,1]",
				goerr.V("index", i),
				goerr.V("thresholds", p.Thresholds))
		}
		prev = cut
	}
	return nil
}

// Level returns the bucket for avg. A value equal to a cut point belongs to the
// upper bucket.
func (p RiskLevelPolicy) Level(avg float64) types.RiskLevel {
	levels := [3]types.RiskLevel{types.RiskLevelMedium, types.RiskLevelHigh, types.RiskLevelCritical}

	result := types.RiskLevelLow
	for i, cut := range p.Thresholds {
		if avg+levelEpsilon >= cut {
			result = levels[i]
		}
	}
	return result
}
