package planner

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/replenit/purchase-planner/internal/domain"
)

// ErrInvalidRequest marks plan requests rejected before any planning work.
var ErrInvalidRequest = errors.New("invalid plan request")

const (
	monthLayout  = "2006-01"
	minHorizon   = 1
	maxHorizonMo = 24
)

// Options tune one plan generation. The zero value is valid.
type Options struct {
	// Workers bounds the per-item fan-out; <=0 means sequential.
	Workers int
	// Progress, when set, is called after each item completes.
	Progress func(done, total int)
}

// Planner generates purchase plans over an immutable catalog. Per-item
// computations are independent, so one Planner is safe for concurrent use.
type Planner struct {
	catalog   *Catalog
	estimator *DemandEstimator
}

// New creates a Planner over the catalog.
func New(catalog *Catalog) *Planner {
	return &Planner{
		catalog:   catalog,
		estimator: NewDemandEstimator(catalog),
	}
}

// Generate runs a full planning pass and returns one row per (item, month),
// sorted by item_id then month.
func (p *Planner) Generate(ctx context.Context, req domain.PlanRequest) ([]domain.PurchaseForecast, error) {
	return p.GenerateWithOptions(ctx, req, Options{})
}

// GenerateWithOptions is Generate with explicit concurrency options.
func (p *Planner) GenerateWithOptions(ctx context.Context, req domain.PlanRequest, opts Options) ([]domain.PurchaseForecast, error) {
	months, err := planMonths(req.StartMonth, req.NumMonths)
	if err != nil {
		return nil, err
	}
	if req.ReviewPeriodDays < 1 {
		return nil, fmt.Errorf("%w: review_period_days must be positive, got %d", ErrInvalidRequest, req.ReviewPeriodDays)
	}

	z := ZScore(req.ServiceLevel)
	itemIDs := p.catalog.ItemIDs()
	perItem := make([][]domain.PurchaseForecast, len(itemIDs))

	var (
		mu   sync.Mutex
		done int
	)
	report := func() {
		if opts.Progress == nil {
			return
		}
		mu.Lock()
		done++
		opts.Progress(done, len(itemIDs))
		mu.Unlock()
	}

	g, ctx := errgroup.WithContext(ctx)
	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}
	g.SetLimit(workers)

	for i, itemID := range itemIDs {
		i, itemID := i, itemID
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			perItem[i] = p.planItem(itemID, months, z, req)
			report()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	rows := make([]domain.PurchaseForecast, 0, len(itemIDs)*len(months))
	for _, itemRows := range perItem {
		rows = append(rows, itemRows...)
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].ItemID != rows[j].ItemID {
			return rows[i].ItemID < rows[j].ItemID
		}
		return rows[i].ForecastMonth < rows[j].ForecastMonth
	})
	return rows, nil
}

// planItem folds the horizon month by month for a single item, threading the
// closing balance into the next month's opening balance. The order policy is
// evaluated against the fixed plan-start availability for every month; only
// the displayed opening/closing figures roll forward.
func (p *Planner) planItem(itemID string, months []string, z float64, req domain.PlanRequest) []domain.PurchaseForecast {
	params, ok := p.catalog.Item(itemID)
	if !ok {
		return nil
	}

	inv := p.catalog.Inventory(itemID)
	onHand := inv.CurrentStockQty
	inTransit := 0
	if req.IncludeInTransit {
		inTransit = inv.InTransitQty
	}
	available := onHand + inTransit
	if available < 0 {
		available = 0
	}

	stats := p.estimator.DailyStats(itemID)
	policy := OrderPolicy{Z: z, ReviewPeriodDays: req.ReviewPeriodDays}

	leadTime := params.OrderLeadTimeDays
	if leadTime < 0 {
		leadTime = 0
	}
	notes := []string{
		fmt.Sprintf("Z=%g", z),
		fmt.Sprintf("L=%dd", leadTime),
		fmt.Sprintf("R=%dd", req.ReviewPeriodDays),
	}

	opening := available
	rows := make([]domain.PurchaseForecast, 0, len(months))
	for _, month := range months {
		expected := p.estimator.MonthlyExpected(itemID, month, stats)
		decision := policy.Decide(available, params, stats, expected)

		plannedIntake := decision.Qty
		actualIntake := 0 // reserved for future receipt tracking

		closing := int(math.Round(float64(opening+plannedIntake+actualIntake) - expected))
		if closing < 0 {
			closing = 0
		}

		cover := 0.0
		if expected > 0 {
			cover = float64(closing) / expected
		}

		rows = append(rows, domain.PurchaseForecast{
			ForecastMonth:         month,
			ItemID:                itemID,
			ItemName:              params.ItemName,
			Category:              params.Category,
			Segment:               params.Segment,
			AdjustedDemand:        int(math.Round(expected)),
			OptimizedOrderQty:     decision.Qty,
			EffectiveUnitCost:     params.UnitCost,
			TotalOrderCost:        decision.TotalCost,
			OpeningInventoryUnits: opening,
			PlannedIntakeUnits:    plannedIntake,
			ActualIntakeUnits:     actualIntake,
			ForecastedSalesUnits:  expected,
			ActualSalesUnits:      p.catalog.ActualSales(itemID, month),
			ClosingInventoryUnits: closing,
			FutureCoverMonths:     cover,
			OrderByDate:           month + "-01",
			ExpectedDeliveryDate:  month + "-28",
			SupplierName:          params.Supplier,
			Notes:                 append([]string(nil), notes...),
		})

		opening = closing
	}
	return rows
}

// planMonths expands a YYYY-MM start into n consecutive calendar months.
func planMonths(startMonth string, n int) ([]string, error) {
	start, err := time.Parse(monthLayout, startMonth)
	if err != nil {
		return nil, fmt.Errorf("%w: start_month %q must be YYYY-MM", ErrInvalidRequest, startMonth)
	}
	if n < minHorizon || n > maxHorizonMo {
		return nil, fmt.Errorf("%w: num_months must be between %d and %d, got %d", ErrInvalidRequest, minHorizon, maxHorizonMo, n)
	}

	months := make([]string, n)
	for i := 0; i < n; i++ {
		months[i] = start.AddDate(0, i, 0).Format(monthLayout)
	}
	return months, nil
}
