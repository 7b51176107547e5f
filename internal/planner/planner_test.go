package planner_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/replenit/purchase-planner/internal/domain"
	"github.com/replenit/purchase-planner/internal/planner"
)

func testRequest() domain.PlanRequest {
	return domain.PlanRequest{
		StartMonth:       "2025-01",
		NumMonths:        6,
		ServiceLevel:     0.95,
		ReviewPeriodDays: 30,
		IncludeInTransit: true,
	}
}

func twoItemCatalog() *planner.Catalog {
	params := []domain.ItemParameters{
		{
			ItemID:            "SKU-B",
			ItemName:          "Widget B",
			Supplier:          "Acme",
			OrderLeadTimeDays: 15,
			MinimumOrderQty:   50,
			OrderMultiple:     25,
			UnitCost:          2.5,
		},
		{
			ItemID:            "SKU-A",
			ItemName:          "Widget A",
			Supplier:          "Acme",
			OrderLeadTimeDays: 10,
			OrderMultiple:     1,
			UnitCost:          1.0,
		},
	}
	inventory := []domain.CurrentInventory{
		{ItemID: "SKU-A", CurrentStockQty: 120, InTransitQty: 30},
		{ItemID: "SKU-B", CurrentStockQty: 40},
	}
	history := historyFor("SKU-A",
		[]string{"2024-10", "2024-11", "2024-12"},
		[]int{290, 300, 310})
	return planner.NewCatalog(history, params, inventory, nil)
}

func TestGenerate_OneRowPerItemMonthSorted(t *testing.T) {
	p := planner.New(twoItemCatalog())

	rows, err := p.Generate(context.Background(), testRequest())
	require.NoError(t, err)
	require.Len(t, rows, 12)

	// Sorted by item id, then ascending consecutive months.
	wantMonths := []string{"2025-01", "2025-02", "2025-03", "2025-04", "2025-05", "2025-06"}
	for i, row := range rows[:6] {
		assert.Equal(t, "SKU-A", row.ItemID)
		assert.Equal(t, wantMonths[i], row.ForecastMonth)
	}
	for i, row := range rows[6:] {
		assert.Equal(t, "SKU-B", row.ItemID)
		assert.Equal(t, wantMonths[i], row.ForecastMonth)
	}
}

func TestGenerate_RollforwardContinuity(t *testing.T) {
	p := planner.New(twoItemCatalog())

	rows, err := p.Generate(context.Background(), testRequest())
	require.NoError(t, err)

	perItem := map[string][]domain.PurchaseForecast{}
	for _, row := range rows {
		perItem[row.ItemID] = append(perItem[row.ItemID], row)
	}

	for itemID, itemRows := range perItem {
		for i, row := range itemRows {
			assert.GreaterOrEqual(t, row.ClosingInventoryUnits, 0, "closing must never go negative")
			if i > 0 {
				assert.Equal(t, itemRows[i-1].ClosingInventoryUnits, row.OpeningInventoryUnits,
					"item %s month %s must open with the prior closing balance", itemID, row.ForecastMonth)
			}
		}
	}

	// The first month opens with on-hand plus in-transit.
	assert.Equal(t, 150, perItem["SKU-A"][0].OpeningInventoryUnits)
	assert.Equal(t, 40, perItem["SKU-B"][0].OpeningInventoryUnits)
}

func TestGenerate_PolicySeesFixedPlanStartAvailability(t *testing.T) {
	p := planner.New(twoItemCatalog())

	rows, err := p.Generate(context.Background(), testRequest())
	require.NoError(t, err)

	// Demand statistics do not vary by month, so with availability fixed at
	// plan start every month must produce the identical order quantity even
	// though the displayed balances roll forward.
	var skuB []domain.PurchaseForecast
	for _, row := range rows {
		if row.ItemID == "SKU-B" {
			skuB = append(skuB, row)
		}
	}
	require.NotEmpty(t, skuB)
	for _, row := range skuB[1:] {
		assert.Equal(t, skuB[0].OptimizedOrderQty, row.OptimizedOrderQty)
	}
}

func TestGenerate_ExcludingInTransitLowersAvailability(t *testing.T) {
	p := planner.New(twoItemCatalog())

	req := testRequest()
	req.IncludeInTransit = false
	rows, err := p.Generate(context.Background(), req)
	require.NoError(t, err)

	for _, row := range rows {
		if row.ItemID == "SKU-A" {
			assert.Equal(t, 120, row.OpeningInventoryUnits)
			break
		}
	}
}

func TestGenerate_NoHistoryNoForecastItem(t *testing.T) {
	params := []domain.ItemParameters{{
		ItemID:            "SKU-NEW",
		OrderLeadTimeDays: 10,
		OrderMultiple:     1,
		UnitCost:          1.0,
	}}
	p := planner.New(planner.NewCatalog(nil, params, nil, nil))

	req := testRequest()
	req.NumMonths = 1
	rows, err := p.Generate(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, rows, 1)

	row := rows[0]
	// Default stats (1.0, 0.3): expected demand 30,
	// S = 40 + 1.645*0.3*sqrt(40) ~ 43.12, no stock -> order 44.
	assert.Equal(t, 30, row.AdjustedDemand)
	assert.Equal(t, 44, row.OptimizedOrderQty)
	assert.Equal(t, 0, row.OpeningInventoryUnits)
	assert.Equal(t, 14, row.ClosingInventoryUnits)
	assert.InDelta(t, 14.0/30.0, row.FutureCoverMonths, 1e-9)
	assert.Equal(t, "2025-01-01", row.OrderByDate)
	assert.Equal(t, "2025-01-28", row.ExpectedDeliveryDate)
}

func TestGenerate_NotesCarryPolicyInputs(t *testing.T) {
	p := planner.New(twoItemCatalog())

	rows, err := p.Generate(context.Background(), testRequest())
	require.NoError(t, err)
	require.NotEmpty(t, rows)

	for _, row := range rows {
		if row.ItemID == "SKU-B" {
			assert.Contains(t, row.Notes, "Z=1.645")
			assert.Contains(t, row.Notes, "L=15d")
			assert.Contains(t, row.Notes, "R=30d")
			break
		}
	}
}

func TestGenerate_OrderQuantitiesRespectPackaging(t *testing.T) {
	p := planner.New(twoItemCatalog())

	rows, err := p.Generate(context.Background(), testRequest())
	require.NoError(t, err)

	for _, row := range rows {
		if row.ItemID != "SKU-B" || row.OptimizedOrderQty == 0 {
			continue
		}
		assert.Zero(t, row.OptimizedOrderQty%25, "order must land on a pack multiple")
		assert.GreaterOrEqual(t, row.OptimizedOrderQty, 50, "order must meet the MOQ")
	}
}

func TestGenerate_ConcurrentRunIsDeterministic(t *testing.T) {
	p := planner.New(twoItemCatalog())
	req := testRequest()

	sequential, err := p.Generate(context.Background(), req)
	require.NoError(t, err)

	parallel, err := p.GenerateWithOptions(context.Background(), req, planner.Options{Workers: 4})
	require.NoError(t, err)

	assert.Equal(t, sequential, parallel)
}

func TestGenerate_ProgressReportsEveryItem(t *testing.T) {
	p := planner.New(twoItemCatalog())

	var calls int
	var lastDone, lastTotal int
	_, err := p.GenerateWithOptions(context.Background(), testRequest(), planner.Options{
		Workers: 2,
		Progress: func(done, total int) {
			calls++
			lastDone, lastTotal = done, total
		},
	})
	require.NoError(t, err)

	assert.Equal(t, 2, calls)
	assert.Equal(t, 2, lastDone)
	assert.Equal(t, 2, lastTotal)
}

func TestGenerate_RejectsMalformedStartMonth(t *testing.T) {
	p := planner.New(twoItemCatalog())

	req := testRequest()
	req.StartMonth = "January 2025"
	_, err := p.Generate(context.Background(), req)
	assert.Error(t, err)
}

func TestGenerate_RejectsOutOfRangeNumMonths(t *testing.T) {
	p := planner.New(twoItemCatalog())

	for _, n := range []int{0, -3, 25} {
		req := testRequest()
		req.NumMonths = n
		_, err := p.Generate(context.Background(), req)
		assert.Error(t, err, "num_months=%d must be rejected", n)
	}
}

func TestGenerate_RejectsNonPositiveReviewPeriod(t *testing.T) {
	p := planner.New(twoItemCatalog())

	req := testRequest()
	req.ReviewPeriodDays = 0
	_, err := p.Generate(context.Background(), req)
	assert.Error(t, err)
}

func TestGenerate_InventoryWithoutParametersIsNotPlanned(t *testing.T) {
	params := []domain.ItemParameters{{ItemID: "SKU-A", OrderMultiple: 1}}
	inventory := []domain.CurrentInventory{
		{ItemID: "SKU-A", CurrentStockQty: 10},
		{ItemID: "SKU-GHOST", CurrentStockQty: 999},
	}
	p := planner.New(planner.NewCatalog(nil, params, inventory, nil))

	rows, err := p.Generate(context.Background(), testRequest())
	require.NoError(t, err)

	for _, row := range rows {
		assert.Equal(t, "SKU-A", row.ItemID)
	}
}

func TestGenerate_YearBoundaryMonths(t *testing.T) {
	p := planner.New(twoItemCatalog())

	req := testRequest()
	req.StartMonth = "2025-11"
	req.NumMonths = 3
	rows, err := p.Generate(context.Background(), req)
	require.NoError(t, err)

	months := map[string]bool{}
	for _, row := range rows {
		months[row.ForecastMonth] = true
	}
	assert.Equal(t, map[string]bool{"2025-11": true, "2025-12": true, "2026-01": true}, months)
}
