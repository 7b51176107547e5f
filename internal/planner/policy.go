package planner

import (
	"math"

	"github.com/replenit/purchase-planner/internal/domain"
)

// zByServiceLevel maps a fill-probability target to its standard-normal
// quantile, the safety-stock multiplier.
var zByServiceLevel = map[float64]float64{
	0.90: 1.282,
	0.95: 1.645,
	0.98: 2.054,
	0.99: 2.326,
}

const defaultZ = 1.645

// ZScore returns the safety-stock multiplier for a service-level target.
// Unrecognized targets fall back to the 0.95 quantile.
func ZScore(serviceLevel float64) float64 {
	if z, ok := zByServiceLevel[serviceLevel]; ok {
		return z
	}
	return defaultZ
}

// OrderPolicy computes order quantities under a periodic-review order-up-to
// policy: S = mean_d*(L+R) + Z*std_d*sqrt(L+R), capped by business ceilings
// and rounded to packaging constraints.
type OrderPolicy struct {
	Z                float64
	ReviewPeriodDays int
}

// OrderDecision is the outcome of one policy evaluation.
type OrderDecision struct {
	Qty       int
	TotalCost float64
	OrderUpTo float64
	Horizon   int
}

// Decide computes the final order quantity for one item-month against the
// available stock captured at plan start.
func (op OrderPolicy) Decide(available int, p domain.ItemParameters, stats DemandStats, monthlyExpected float64) OrderDecision {
	leadTime := p.OrderLeadTimeDays
	if leadTime < 0 {
		leadTime = 0
	}
	horizon := leadTime + op.ReviewPeriodDays
	if horizon < 1 {
		horizon = 1
	}

	orderUpTo := stats.MeanDaily*float64(horizon) + op.Z*stats.StdDaily*math.Sqrt(float64(horizon))

	raw := int(math.Ceil(orderUpTo - float64(available)))
	if raw < 0 {
		raw = 0
	}

	capped := capByCoverAndShelf(raw, p, monthlyExpected)
	qty := roundToMOQMultiple(capped, p.MinimumOrderQty, p.OrderMultiple)

	return OrderDecision{
		Qty:       qty,
		TotalCost: float64(qty) * p.UnitCost,
		OrderUpTo: orderUpTo,
		Horizon:   horizon,
	}
}

// capByCoverAndShelf clamps the quantity to the least restrictive of the
// stock-cover and shelf-life ceilings. When both apply the larger cap wins:
// the cover window is deliberately allowed to override shelf life. Absent or
// non-positive inputs produce no cap.
func capByCoverAndShelf(qty int, p domain.ItemParameters, monthlyExpected float64) int {
	if monthlyExpected <= 0 {
		return qty
	}

	var caps []int
	if p.MaxStockCoverMonths != nil && *p.MaxStockCoverMonths > 0 {
		caps = append(caps, int(*p.MaxStockCoverMonths*monthlyExpected))
	}
	if p.ShelfLifeDays != nil && *p.ShelfLifeDays > 0 {
		caps = append(caps, int(float64(*p.ShelfLifeDays)/daysPerMonth*monthlyExpected))
	}
	if len(caps) == 0 {
		return qty
	}

	limit := caps[0]
	for _, c := range caps[1:] {
		if c > limit {
			limit = c
		}
	}
	if qty > limit {
		qty = limit
	}
	if qty < 0 {
		qty = 0
	}
	return qty
}

// roundToMOQMultiple rounds a positive quantity up to the nearest order
// multiple, then enforces the minimum order quantity. Zero stays zero so a
// no-order decision is never inflated to the MOQ.
func roundToMOQMultiple(qty, moq, multiple int) int {
	if qty <= 0 {
		return 0
	}
	if multiple < 1 {
		multiple = 1
	}
	if moq < 0 {
		moq = 0
	}
	rounded := (qty + multiple - 1) / multiple * multiple
	if rounded < moq {
		return moq
	}
	return rounded
}
