package types

import "fmt"

// RiskLevel is the discrete bucket of an aggregated or per-category risk score
type RiskLevel string

const (
	RiskLevelLow      RiskLevel = "low"
	RiskLevelMedium   RiskLevel = "medium"
	RiskLevelHigh     RiskLevel = "high"
	RiskLevelCritical RiskLevel = "critical"
)

// AllRiskLevels returns all risk levels in ascending order
func AllRiskLevels() []RiskLevel {
	return []RiskLevel{
		RiskLevelLow,
		RiskLevelMedium,
		RiskLevelHigh,
		RiskLevelCritical,
	}
}

// IsValid checks if the risk level is valid
func (l RiskLevel) IsValid() bool {
	switch l {
	case RiskLevelLow,
		RiskLevelMedium,
		RiskLevelHigh,
		RiskLevelCritical:
		return true
	default:
		return false
	}
}

// String returns the string representation of the risk level
func (l RiskLevel) String() string {
	return string(l)
}

// ParseRiskLevel parses a string into a RiskLevel
func ParseRiskLevel(s string) (RiskLevel, error) {
	level := RiskLevel(s)
	if !level.IsValid() {
		return "", fmt.Errorf("invalid risk level: %s", s)
	}
	return level, nil
}
