package types_test

import (
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/riskcompass/riskcompass/pkg/domain/types"
)

func TestRiskLevel_IsValid(t *testing.T) {
	for _, level := range types.AllRiskLevels() {
		gt.Bool(t, level.IsValid()).True()
	}
	gt.Bool(t, types.RiskLevel("severe").IsValid()).False()
	gt.Bool(t, types.RiskLevel("").IsValid()).False()
}

func TestParseRiskLevel(t *testing.T) {
	level, err := types.ParseRiskLevel("high")
	gt.NoError(t, err)
	gt.Value(t, level).Equal(types.RiskLevelHigh)

	_, err = types.ParseRiskLevel("HIGH")
	gt.Value(t, err).NotNil()
}

func TestRiskCategory_Order(t *testing.T) {
	cats := types.AllRiskCategories()
	gt.Array(t, cats).Length(5)
	gt.Value(t, cats[0]).Equal(types.RiskCategoryRansomware)
	gt.Value(t, cats[4]).Equal(types.RiskCategorySupplyChain)
	gt.Bool(t, types.RiskCategory("data_breach").IsValid()).False()
}

func TestSortOption_DefaultDirection(t *testing.T) {
	gt.Value(t, types.SortOptionCost.DefaultDirection()).Equal(types.SortAsc)
	gt.Value(t, types.SortOptionRiskReduction.DefaultDirection()).Equal(types.SortDesc)
	gt.Value(t, types.SortOptionPriority.DefaultDirection()).Equal(types.SortDesc)
	gt.Value(t, types.SortOption("").Normalize()).Equal(types.SortOptionDefault)
}
