package planner_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/replenit/purchase-planner/internal/domain"
	"github.com/replenit/purchase-planner/internal/planner"
)

func floatPtr(v float64) *float64 { return &v }
func intPtr(v int) *int           { return &v }

func TestZScore_KnownServiceLevels(t *testing.T) {
	assert.Equal(t, 1.282, planner.ZScore(0.90))
	assert.Equal(t, 1.645, planner.ZScore(0.95))
	assert.Equal(t, 2.054, planner.ZScore(0.98))
	assert.Equal(t, 2.326, planner.ZScore(0.99))
}

func TestZScore_UnknownTargetFallsBack(t *testing.T) {
	assert.Equal(t, 1.645, planner.ZScore(0.97))
	assert.Equal(t, 1.645, planner.ZScore(0))
}

func TestDecide_OrderUpToWithMOQAndMultiple(t *testing.T) {
	policy := planner.OrderPolicy{Z: 1.645, ReviewPeriodDays: 30}
	params := domain.ItemParameters{
		ItemID:              "SKU-1",
		OrderLeadTimeDays:   15,
		MinimumOrderQty:     50,
		OrderMultiple:       25,
		UnitCost:            2.5,
		MaxStockCoverMonths: floatPtr(2.0),
	}
	stats := planner.DemandStats{MeanDaily: 10, StdDaily: 1}

	decision := policy.Decide(0, params, stats, 300)

	// S = 10*45 + 1.645*1*sqrt(45) ~ 461.03; ceil to 462; cover cap 600
	// does not bind; round up to the next multiple of 25.
	assert.Equal(t, 45, decision.Horizon)
	assert.InDelta(t, 461.03, decision.OrderUpTo, 0.01)
	assert.Equal(t, 475, decision.Qty)
	assert.InDelta(t, 1187.5, decision.TotalCost, 1e-9)
}

func TestDecide_HigherServiceLevelNeverOrdersLess(t *testing.T) {
	params := domain.ItemParameters{
		ItemID:            "SKU-1",
		OrderLeadTimeDays: 15,
		OrderMultiple:     1,
		UnitCost:          2.5,
	}
	stats := planner.DemandStats{MeanDaily: 10, StdDaily: 1}

	var prevOrderUpTo float64
	var prevQty int
	for _, level := range []float64{0.90, 0.95, 0.98, 0.99} {
		policy := planner.OrderPolicy{Z: planner.ZScore(level), ReviewPeriodDays: 30}
		decision := policy.Decide(100, params, stats, 300)

		assert.GreaterOrEqual(t, decision.OrderUpTo, prevOrderUpTo,
			"order-up-to level must not shrink at service level %.2f", level)
		assert.GreaterOrEqual(t, decision.Qty, prevQty,
			"order quantity must not shrink at service level %.2f", level)
		prevOrderUpTo = decision.OrderUpTo
		prevQty = decision.Qty
	}
}

func TestDecide_NoOrderWhenWellStocked(t *testing.T) {
	policy := planner.OrderPolicy{Z: 1.645, ReviewPeriodDays: 30}
	params := domain.ItemParameters{
		OrderLeadTimeDays: 15,
		MinimumOrderQty:   50,
		OrderMultiple:     25,
		UnitCost:          2.5,
	}
	stats := planner.DemandStats{MeanDaily: 10, StdDaily: 1}

	decision := policy.Decide(1000, params, stats, 300)

	// Zero stays zero: the MOQ never inflates a no-order decision.
	assert.Equal(t, 0, decision.Qty)
	assert.Equal(t, 0.0, decision.TotalCost)
}

func TestDecide_LeastRestrictiveCapWins(t *testing.T) {
	policy := planner.OrderPolicy{Z: 1.645, ReviewPeriodDays: 30}
	params := domain.ItemParameters{
		OrderLeadTimeDays:   30,
		OrderMultiple:       1,
		MaxStockCoverMonths: floatPtr(2.0),
		ShelfLifeDays:       intPtr(45),
	}
	stats := planner.DemandStats{MeanDaily: 30, StdDaily: 3}

	decision := policy.Decide(0, params, stats, 300)

	// Cover cap 600, shelf cap 450: the larger ceiling applies.
	assert.Equal(t, 600, decision.Qty)
}

func TestDecide_ShelfCapAppliesWhenLarger(t *testing.T) {
	policy := planner.OrderPolicy{Z: 1.645, ReviewPeriodDays: 30}
	params := domain.ItemParameters{
		OrderLeadTimeDays:   30,
		OrderMultiple:       1,
		MaxStockCoverMonths: floatPtr(1.0),
		ShelfLifeDays:       intPtr(60),
	}
	stats := planner.DemandStats{MeanDaily: 30, StdDaily: 3}

	decision := policy.Decide(0, params, stats, 300)

	// Cover cap 300, shelf cap 600.
	assert.Equal(t, 600, decision.Qty)
}

func TestDecide_NoCapsWhenOptionalFieldsAbsent(t *testing.T) {
	policy := planner.OrderPolicy{Z: 1.645, ReviewPeriodDays: 30}
	params := domain.ItemParameters{
		OrderLeadTimeDays: 30,
		OrderMultiple:     1,
	}
	stats := planner.DemandStats{MeanDaily: 30, StdDaily: 0.001}

	decision := policy.Decide(0, params, stats, 300)

	// Uncapped: full order-up-to quantity survives.
	assert.GreaterOrEqual(t, decision.Qty, 1800)
}

func TestDecide_SmallShortfallRoundsUpToMOQ(t *testing.T) {
	policy := planner.OrderPolicy{Z: 1.645, ReviewPeriodDays: 30}
	params := domain.ItemParameters{
		OrderLeadTimeDays: 0,
		MinimumOrderQty:   100,
		OrderMultiple:     10,
		UnitCost:          1.0,
	}
	stats := planner.DemandStats{MeanDaily: 1, StdDaily: 0.05}

	// S = 30 + 1.645*0.05*sqrt(30) ~ 30.45; available 29 -> raw 2.
	decision := policy.Decide(29, params, stats, 300)

	assert.Equal(t, 100, decision.Qty)
}

func TestDecide_HorizonNeverBelowOneDay(t *testing.T) {
	policy := planner.OrderPolicy{Z: 1.645, ReviewPeriodDays: 0}
	params := domain.ItemParameters{OrderLeadTimeDays: 0, OrderMultiple: 1}
	stats := planner.DemandStats{MeanDaily: 10, StdDaily: 1}

	decision := policy.Decide(0, params, stats, 300)

	assert.Equal(t, 1, decision.Horizon)
}

func TestDecide_NegativeLeadTimeTreatedAsZero(t *testing.T) {
	policy := planner.OrderPolicy{Z: 1.645, ReviewPeriodDays: 30}
	params := domain.ItemParameters{OrderLeadTimeDays: -10, OrderMultiple: 1}
	stats := planner.DemandStats{MeanDaily: 10, StdDaily: 1}

	decision := policy.Decide(0, params, stats, 300)

	assert.Equal(t, 30, decision.Horizon)
}
