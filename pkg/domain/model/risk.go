package model

import (
	"math"

	"github.com/riskcompass/riskcompass/pkg/domain/types"
)

// RiskCategoryResult is the scoring service output for one threat category
type RiskCategoryResult struct {
	Score           *float64        `json:"score,omitempty"`
	Level           types.RiskLevel `json:"level,omitempty"`
	Recommendations []string        `json:"recommendations,omitempty"`
}

// RiskSnapshot holds the per-category results attached to a project. Any
// category may be nil.
type RiskSnapshot struct {
	Ransomware    *RiskCategoryResult `json:"ransomware,omitempty"`
	Phishing      *RiskCategoryResult `json:"phishing,omitempty"`
	DataBreach    *RiskCategoryResult `json:"dataBreach,omitempty"`
	InsiderAttack *RiskCategoryResult `json:"insiderAttack,omitempty"`
	SupplyChain   *RiskCategoryResult `json:"supplyChain,omitempty"`
}

// AggregateRisk is the derived summary of a RiskSnapshot
type AggregateRisk struct {
	AverageRisk float64         `json:"averageRisk"`
	RiskLevel   types.RiskLevel `json:"riskLevel"`
}

// Category returns the result for c, or nil when absent
func (s *RiskSnapshot) Category(c types.RiskCategory) *RiskCategoryResult {
	if s == nil {
		return nil
	}
	switch c {
	case types.RiskCategoryRansomware:
		return s.Ransomware
	case types.RiskCategoryPhishing:
		return s.Phishing
	case types.RiskCategoryDataBreach:
		return s.DataBreach
	case types.RiskCategoryInsiderAttack:
		return s.InsiderAttack
	case types.RiskCategorySupplyChain:
		return s.SupplyChain
	}
	return nil
}

// Score returns the clamped score of c and whether it was present and numeric
func (s *RiskSnapshot) Score(c types.RiskCategory) (float64, bool) {
	r := s.Category(c)
	if r == nil || r.Score == nil || math.IsNaN(*r.Score) {
		return 0, false
	}
	return clampUnit(*r.Score), true
}

// Summarize averages over exactly five slots, counting a missing or NaN score
// as 0. Used for the owner project list and organization stats.
func (s *RiskSnapshot) Summarize(policy RiskLevelPolicy) AggregateRisk {
	var sum float64
	for _, c := range types.AllRiskCategories() {
		v, _ := s.Score(c)
		sum += v
	}
	avg := sum / float64(len(types.AllRiskCategories()))
	return AggregateRisk{AverageRisk: avg, RiskLevel: policy.Level(avg)}
}

// SummarizeValid averages only the present, numeric scores. Used for
// organization project metrics.
func (s *RiskSnapshot) SummarizeValid(policy RiskLevelPolicy) AggregateRisk {
	var sum float64
	var n int
	for _, c := range types.AllRiskCategories() {
		if v, ok := s.Score(c); ok {
			sum += v
			n++
		}
	}
	if n == 0 {
		return AggregateRisk{AverageRisk: 0, RiskLevel: types.RiskLevelLow}
	}
	avg := sum / float64(n)
	return AggregateRisk{AverageRisk: avg, RiskLevel: policy.Level(avg)}
}

// Clone returns a deep copy
func (s *RiskSnapshot) Clone() *RiskSnapshot {
	if s == nil {
		return nil
	}
	return &RiskSnapshot{
		Ransomware:    s.Ransomware.clone(),
		Phishing:      s.Phishing.clone(),
		DataBreach:    s.DataBreach.clone(),
		InsiderAttack: s.InsiderAttack.clone(),
		SupplyChain:   s.SupplyChain.clone(),
	}
}

func (r *RiskCategoryResult) clone() *RiskCategoryResult {
	if r == nil {
		return nil
	}
	c := &RiskCategoryResult{Level: r.Level}
	if r.Score != nil {
		v := *r.Score
		c.Score = &v
	}
	if r.Recommendations != nil {
		c.Recommendations = append([]string{}, r.Recommendations...)
	}
	return c
}

func clampUnit(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
