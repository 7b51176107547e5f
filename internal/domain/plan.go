// internal/domain/plan.go
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PlanRequest carries the invocation parameters for one planning run.
type PlanRequest struct {
	StartMonth       string  `json:"start_month"`
	NumMonths        int     `json:"num_months"`
	ServiceLevel     float64 `json:"service_level"`
	ReviewPeriodDays int     `json:"review_period_days"`
	IncludeInTransit bool    `json:"include_in_transit"`
}

// PlanReport is the serializable wrapper around one run's output rows.
type PlanReport struct {
	Generated time.Time          `json:"generated"`
	Forecasts []PurchaseForecast `json:"forecasts"`
}

// PlanSummary holds the aggregate KPIs the dashboard renders for a run.
type PlanSummary struct {
	TotalOrderUnits int             `json:"total_order_units"`
	TotalOrderCost  decimal.Decimal `json:"total_order_cost"`
	ItemCount       int             `json:"item_count"`
	RowCount        int             `json:"row_count"`
	Generated       time.Time       `json:"generated"`
}

// PlanRun is a persisted planning run.
type PlanRun struct {
	ID          int64     `json:"id" db:"id"`
	StartedAt   time.Time `json:"started_at" db:"started_at"`
	ParamsJSON  string    `json:"params_json" db:"params_json"`
	SourceFiles string    `json:"source_files" db:"source_files"`
}

// PlanRunLine is one persisted row of a run, the subset of PurchaseForecast
// fields the durable store keeps.
type PlanRunLine struct {
	ID           int64   `json:"id" db:"id"`
	RunID        int64   `json:"run_id" db:"run_id"`
	SKU          string  `json:"sku" db:"sku"`
	ItemName     string  `json:"item_name" db:"item_name"`
	Supplier     string  `json:"supplier" db:"supplier"`
	Demand       float64 `json:"demand" db:"demand"`
	OrderQty     float64 `json:"order_qty" db:"order_qty"`
	UnitCost     float64 `json:"unit_cost" db:"unit_cost"`
	TotalCost    float64 `json:"total_cost" db:"total_cost"`
	Notes        string  `json:"notes" db:"notes"`
	MetadataJSON string  `json:"metadata_json" db:"metadata_json"`
}
