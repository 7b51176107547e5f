package planner

import (
	"math"

	"github.com/replenit/purchase-planner/internal/domain"
)

const (
	trailingMonths = 12
	daysPerMonth   = 30.0

	// Fallback statistics for items with no sales history at all.
	defaultMeanDaily = 1.0
	defaultStdDaily  = 0.3
)

// DemandStats holds the per-item daily demand distribution derived from
// trailing sales history.
type DemandStats struct {
	MeanDaily float64
	StdDaily  float64
}

// DemandEstimator derives demand statistics and resolves monthly expected
// demand against the catalog's forecast pool.
type DemandEstimator struct {
	catalog *Catalog
}

// NewDemandEstimator creates an estimator over the given catalog.
func NewDemandEstimator(catalog *Catalog) *DemandEstimator {
	return &DemandEstimator{catalog: catalog}
}

// DailyStats computes mean and standard deviation of daily demand from the
// trailing 12 months of history. Floors keep degenerate zero-demand or
// zero-variance inputs from suppressing all ordering.
func (e *DemandEstimator) DailyStats(itemID string) DemandStats {
	rows := e.catalog.history[itemID]
	if len(rows) == 0 {
		return DemandStats{MeanDaily: defaultMeanDaily, StdDaily: defaultStdDaily}
	}
	if len(rows) > trailingMonths {
		rows = rows[len(rows)-trailingMonths:]
	}

	monthly := make([]float64, len(rows))
	var sum float64
	for i, r := range rows {
		qty := float64(r.ActualSalesQty)
		if qty < 0 {
			qty = 0
		}
		monthly[i] = qty
		sum += qty
	}
	meanMonthly := sum / float64(len(monthly))

	var stdMonthly float64
	if len(monthly) > 1 {
		var ss float64
		for _, q := range monthly {
			d := q - meanMonthly
			ss += d * d
		}
		// Unbiased sample standard deviation.
		stdMonthly = math.Sqrt(ss / float64(len(monthly)-1))
	} else {
		// Single observation: synthetic 25% dispersion.
		stdMonthly = 0.25 * meanMonthly
	}

	meanDaily := math.Max(meanMonthly/daysPerMonth, 0.1)
	stdDaily := math.Max(stdMonthly/daysPerMonth, 0.05*meanDaily)
	return DemandStats{MeanDaily: meanDaily, StdDaily: stdDaily}
}

// PickForecast selects the forecast record for an (item, month). Records
// matching the month exactly are preferred; within the candidate set the
// highest confidence wins, ties broken by input order. Returns nil when the
// item has no forecasts at all.
func (e *DemandEstimator) PickForecast(itemID, month string) *domain.MonthlyForecastRecord {
	pool := e.catalog.forecasts[itemID]
	if len(pool) == 0 {
		return nil
	}

	candidates := make([]domain.MonthlyForecastRecord, 0, len(pool))
	for _, f := range pool {
		if f.Month == month {
			candidates = append(candidates, f)
		}
	}
	if len(candidates) == 0 {
		candidates = pool
	}

	best := candidates[0]
	for _, f := range candidates[1:] {
		if f.ConfidenceScore > best.ConfidenceScore {
			best = f
		}
	}
	return &best
}

// MonthlyExpected resolves the expected demand for an (item, month): the
// selected forecast quantity, or mean_daily*30 when the item has no
// forecasts, floored against mean_daily*20 as a minimum demand guard.
func (e *DemandEstimator) MonthlyExpected(itemID, month string, stats DemandStats) float64 {
	expected := stats.MeanDaily * daysPerMonth
	if f := e.PickForecast(itemID, month); f != nil {
		expected = float64(f.ForecastedSalesQty)
	}

	floor := stats.MeanDaily * 20.0
	if expected < floor {
		expected = floor
	}
	return expected
}
