// internal/service/plan_service.go
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/replenit/purchase-planner/internal/cache"
	"github.com/replenit/purchase-planner/internal/config"
	"github.com/replenit/purchase-planner/internal/dataio"
	"github.com/replenit/purchase-planner/internal/domain"
	"github.com/replenit/purchase-planner/internal/planner"
	"github.com/replenit/purchase-planner/internal/repository"
	"github.com/replenit/purchase-planner/internal/storage"
)

// Export formats accepted by ExportPlan.
const (
	FormatJSON  = "json"
	FormatExcel = "xlsx"
)

type PlanService struct {
	cfg   *config.Config
	repo  repository.RunRepository
	cache cache.PlanSummaryCache
	store storage.ObjectStorage
}

// NewPlanService wires the planning engine to its storage and cache
// collaborators. repo may be nil; runs are then not persisted.
func NewPlanService(cfg *config.Config, repo repository.RunRepository, planCache cache.PlanSummaryCache) *PlanService {
	if planCache == nil {
		planCache = cache.NewNoopPlanSummaryCache()
	}
	return &PlanService{
		cfg:   cfg,
		repo:  repo,
		cache: planCache,
	}
}

// AttachObjectStorage enables upload of exports back to the bucket. Optional;
// without it exports only land in the local export dir.
func (s *PlanService) AttachObjectStorage(store storage.ObjectStorage) {
	s.store = store
}

// ApplyDefaults fills the zero-valued request fields from the configured
// planning defaults. StartMonth defaults to the current calendar month.
func (s *PlanService) ApplyDefaults(req domain.PlanRequest) domain.PlanRequest {
	if req.StartMonth == "" {
		req.StartMonth = time.Now().Format("2006-01")
	}
	if req.NumMonths <= 0 {
		req.NumMonths = s.cfg.Planning.NumMonths
	}
	if req.ServiceLevel <= 0 {
		req.ServiceLevel = s.cfg.Planning.ServiceLevel
	}
	if req.ReviewPeriodDays <= 0 {
		req.ReviewPeriodDays = s.cfg.Planning.ReviewPeriodDays
	}
	return req
}

// GeneratePlan runs the engine against the configured catalog directory,
// persists the run when a repository is available, and refreshes the
// summary cache.
func (s *PlanService) GeneratePlan(ctx context.Context, req domain.PlanRequest) (*domain.PlanReport, *domain.PlanSummary, error) {
	req = s.ApplyDefaults(req)

	data, err := dataio.LoadCatalogDir(s.cfg.App.DataDir)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load catalog from %s: %w", s.cfg.App.DataDir, err)
	}

	catalog := planner.NewCatalog(data.SalesHistory, data.ItemParameters, data.CurrentInventory, data.SalesForecasts)
	eng := planner.New(catalog)

	rows, err := eng.GenerateWithOptions(ctx, req, planner.Options{Workers: s.cfg.Planning.Workers})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to generate plan: %w", err)
	}

	report := dataio.NewReport(rows)
	summary := Summarize(rows, report.Generated)

	if s.repo != nil {
		if runID, err := s.persistRun(ctx, req, data.SourceFiles, rows, report.Generated); err != nil {
			log.Error().Err(err).Msg("Failed to persist plan run")
		} else {
			log.Info().Int64("run_id", runID).Int("lines", len(rows)).Msg("Plan run persisted")
		}
	}

	if err := s.cache.SetSummary(ctx, req, &summary); err != nil {
		log.Warn().Err(err).Msg("Failed to cache plan summary")
	}

	return &report, &summary, nil
}

// PlanSummary answers from cache when possible, otherwise generates a fresh
// plan and returns its aggregate KPIs.
func (s *PlanService) PlanSummary(ctx context.Context, req domain.PlanRequest) (*domain.PlanSummary, error) {
	req = s.ApplyDefaults(req)

	if cached, ok, err := s.cache.GetSummary(ctx, req); err != nil {
		log.Warn().Err(err).Msg("Plan summary cache lookup failed")
	} else if ok {
		return cached, nil
	}

	_, summary, err := s.GeneratePlan(ctx, req)
	if err != nil {
		return nil, err
	}
	return summary, nil
}

// ExportPlan generates a plan and writes it to the export directory in the
// requested format, returning the written file path.
func (s *PlanService) ExportPlan(ctx context.Context, req domain.PlanRequest, format string) (string, error) {
	report, _, err := s.GeneratePlan(ctx, req)
	if err != nil {
		return "", err
	}

	name := fmt.Sprintf("purchase_plan_%s.%s", report.Generated.Format("20060102_150405"), format)
	path := filepath.Join(s.cfg.App.ExportDir, name)

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create export file: %w", err)
	}
	defer f.Close()

	switch format {
	case FormatJSON:
		err = dataio.WriteJSON(f, *report)
	case FormatExcel:
		err = dataio.WriteExcel(f, report.Forecasts)
	default:
		return "", fmt.Errorf("unsupported export format: %s", format)
	}
	if err != nil {
		return "", fmt.Errorf("failed to write export: %w", err)
	}

	if s.store != nil {
		if err := s.uploadExport(ctx, path, name); err != nil {
			log.Warn().Err(err).Str("file", name).Msg("Failed to upload export to bucket")
		}
	}

	return path, nil
}

func (s *PlanService) uploadExport(ctx context.Context, path, name string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return s.store.UploadObject(ctx, s.cfg.Storage.ExportPrefix+name, data)
}

// ListRuns returns the most recent persisted runs.
func (s *PlanService) ListRuns(ctx context.Context, limit int) ([]domain.PlanRun, error) {
	if s.repo == nil {
		return nil, fmt.Errorf("run history is not available without a database")
	}
	return s.repo.ListRuns(ctx, limit)
}

// GetRunLines returns the persisted lines for one run.
func (s *PlanService) GetRunLines(ctx context.Context, runID int64) ([]domain.PlanRunLine, error) {
	if s.repo == nil {
		return nil, fmt.Errorf("run history is not available without a database")
	}
	return s.repo.GetRunLines(ctx, runID)
}

func (s *PlanService) persistRun(ctx context.Context, req domain.PlanRequest, sourceFiles []string, rows []domain.PurchaseForecast, startedAt time.Time) (int64, error) {
	params, err := json.Marshal(req)
	if err != nil {
		return 0, fmt.Errorf("failed to encode run params: %w", err)
	}
	sources, err := json.Marshal(sourceFiles)
	if err != nil {
		return 0, fmt.Errorf("failed to encode source files: %w", err)
	}

	run := &domain.PlanRun{
		StartedAt:   startedAt,
		ParamsJSON:  string(params),
		SourceFiles: string(sources),
	}
	return s.repo.CreateRun(ctx, run, BuildRunLines(rows))
}

// BuildRunLines maps forecast rows onto the persisted line shape.
func BuildRunLines(rows []domain.PurchaseForecast) []domain.PlanRunLine {
	lines := make([]domain.PlanRunLine, 0, len(rows))
	for _, row := range rows {
		meta, _ := json.Marshal(map[string]any{
			"forecast_month":          row.ForecastMonth,
			"opening_inventory_units": row.OpeningInventoryUnits,
			"closing_inventory_units": row.ClosingInventoryUnits,
			"future_cover_months":     row.FutureCoverMonths,
			"order_by_date":           row.OrderByDate,
			"expected_delivery_date":  row.ExpectedDeliveryDate,
		})

		lines = append(lines, domain.PlanRunLine{
			SKU:          row.ItemID,
			ItemName:     row.ItemName,
			Supplier:     row.SupplierName,
			Demand:       float64(row.AdjustedDemand),
			OrderQty:     float64(row.OptimizedOrderQty),
			UnitCost:     row.EffectiveUnitCost,
			TotalCost:    row.TotalOrderCost,
			Notes:        strings.Join(row.Notes, "; "),
			MetadataJSON: string(meta),
		})
	}
	return lines
}

// Summarize aggregates the KPIs the dashboard renders for a run. Order cost
// is accumulated in decimal to keep the total exact over many rows.
func Summarize(rows []domain.PurchaseForecast, generated time.Time) domain.PlanSummary {
	totalCost := decimal.Zero
	totalUnits := 0
	items := make(map[string]struct{})

	for _, row := range rows {
		totalUnits += row.OptimizedOrderQty
		totalCost = totalCost.Add(decimal.NewFromFloat(row.TotalOrderCost))
		items[row.ItemID] = struct{}{}
	}

	return domain.PlanSummary{
		TotalOrderUnits: totalUnits,
		TotalOrderCost:  totalCost,
		ItemCount:       len(items),
		RowCount:        len(rows),
		Generated:       generated,
	}
}
