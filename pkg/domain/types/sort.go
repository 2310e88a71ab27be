package types

// SortOption selects the ordering of recommendations within a round
type SortOption string

const (
	SortOptionDefault       SortOption = "default"
	SortOptionRiskReduction SortOption = "riskReduction"
	SortOptionCost          SortOption = "cost"
	SortOptionPriority      SortOption = "priority"
)

// IsValid checks if the sort option is valid
func (o SortOption) IsValid() bool {
	switch o {
	case SortOptionDefault,
		SortOptionRiskReduction,
		SortOptionCost,
		SortOptionPriority:
		return true
	default:
		return false
	}
}

// Normalize treats empty as SortOptionDefault
func (o SortOption) Normalize() SortOption {
	if o == "" {
		return SortOptionDefault
	}
	return o
}

// SortDirection is ascending or descending
type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// IsValid checks if the direction is valid
func (d SortDirection) IsValid() bool {
	return d == SortAsc || d == SortDesc
}

// DefaultDirection returns the direction a sort option starts with when first selected
func (o SortOption) DefaultDirection() SortDirection {
	if o == SortOptionCost {
		return SortAsc
	}
	return SortDesc
}
