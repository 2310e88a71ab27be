package types

// RiskCategory is one of the five threat classes scored by the scoring service
type RiskCategory string

const (
	RiskCategoryRansomware    RiskCategory = "ransomware"
	RiskCategoryPhishing      RiskCategory = "phishing"
	RiskCategoryDataBreach    RiskCategory = "dataBreach"
	RiskCategoryInsiderAttack RiskCategory = "insiderAttack"
	RiskCategorySupplyChain   RiskCategory = "supplyChain"
)

// AllRiskCategories returns the five categories in their fixed aggregation order
func AllRiskCategories() []RiskCategory {
	return []RiskCategory{
		RiskCategoryRansomware,
		RiskCategoryPhishing,
		RiskCategoryDataBreach,
		RiskCategoryInsiderAttack,
		RiskCategorySupplyChain,
	}
}

// IsValid checks if the category is one of the five known categories
func (c RiskCategory) IsValid() bool {
	switch c {
	case RiskCategoryRansomware,
		RiskCategoryPhishing,
		RiskCategoryDataBreach,
		RiskCategoryInsiderAttack,
		RiskCategorySupplyChain:
		return true
	default:
		return false
	}
}

func (c RiskCategory) String() string {
	return string(c)
}
