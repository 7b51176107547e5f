// internal/domain/models.go
package domain

// HistoricalSalesRecord is one month of realized sales for an item.
// Immutable input; one record per item per historical month.
type HistoricalSalesRecord struct {
	Month          string  `json:"month"`
	ItemID         string  `json:"item_id"`
	ItemName       string  `json:"item_name"`
	ActualSalesQty int     `json:"actual_sales_qty"`
	StockAvailable bool    `json:"stock_available"`
	LostSalesQty   int     `json:"lost_sales_qty"`
	UnitPrice      float64 `json:"unit_price"`
	Category       string  `json:"category"`
}

// MonthlyForecastRecord is a forward-looking sales forecast for one month.
// Multiple records may exist per item; selection picks one per (item, month).
type MonthlyForecastRecord struct {
	Month              string  `json:"month"`
	ForecastedSalesQty int     `json:"forecasted_sales_qty"`
	ForecastSource     string  `json:"forecast_source"`
	ConfidenceScore    float64 `json:"confidence_score"`
}

// ItemParameters holds the policy constants for one item. Loaded once per
// planning run and immutable during the run.
//
// ShelfLifeDays and MaxStockCoverMonths are optional: a nil pointer means
// "absent" and the corresponding cap is skipped. A record that omits the
// max_stock_cover_months key entirely gets the 2.0 default at load time.
type ItemParameters struct {
	ItemID              string   `json:"item_id"`
	ItemName            string   `json:"item_name"`
	Supplier            string   `json:"supplier"`
	OrderLeadTimeDays   int      `json:"order_lead_time_days"`
	MinimumOrderQty     int      `json:"minimum_order_qty"`
	OrderMultiple       int      `json:"order_multiple"`
	UnitCost            float64  `json:"unit_cost"`
	ShelfLifeDays       *int     `json:"shelf_life_days"`
	SafetyStockDays     int      `json:"safety_stock_days"`
	MaxStockCoverMonths *float64 `json:"max_stock_cover_months"`
	Category            string   `json:"category"`
	Segment             string   `json:"segment"`
}

// CurrentInventory is the stock snapshot for one item as of plan start.
type CurrentInventory struct {
	ItemID               string  `json:"item_id"`
	CurrentStockQty      int     `json:"current_stock_qty"`
	InTransitQty         int     `json:"in_transit_qty"`
	InTransitArrivalDate *string `json:"in_transit_arrival_date"`
	CommittedQty         int     `json:"committed_qty"`
}

// PurchaseForecast is one output row of the purchase plan: the order
// recommendation plus the projected inventory flow for one (item, month).
// Rows for a given item form a linked rollforward where the closing units
// of month i equal the opening units of month i+1.
type PurchaseForecast struct {
	ForecastMonth         string   `json:"forecast_month"`
	ItemID                string   `json:"item_id"`
	ItemName              string   `json:"item_name"`
	Category              string   `json:"category"`
	Segment               string   `json:"segment"`
	AdjustedDemand        int      `json:"adjusted_demand"`
	OptimizedOrderQty     int      `json:"optimized_order_qty"`
	EffectiveUnitCost     float64  `json:"effective_unit_cost"`
	TotalOrderCost        float64  `json:"total_order_cost"`
	OpeningInventoryUnits int      `json:"opening_inventory_units"`
	PlannedIntakeUnits    int      `json:"planned_intake_units"`
	ActualIntakeUnits     int      `json:"actual_intake_units"`
	ForecastedSalesUnits  float64  `json:"forecasted_sales_units"`
	ActualSalesUnits      int      `json:"actual_sales_units"`
	ClosingInventoryUnits int      `json:"closing_inventory_units"`
	FutureCoverMonths     float64  `json:"future_cover_months"`
	OrderByDate           string   `json:"order_by_date"`
	ExpectedDeliveryDate  string   `json:"expected_delivery_date"`
	SupplierName          string   `json:"supplier_name"`
	Notes                 []string `json:"notes"`
}
