package dataio

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/replenit/purchase-planner/internal/domain"
)

const forecastSheet = "Forecasts"

// NewReport wraps plan rows with the generation timestamp.
func NewReport(rows []domain.PurchaseForecast) domain.PlanReport {
	return domain.PlanReport{Generated: time.Now(), Forecasts: rows}
}

// WriteJSON writes the report as indented JSON.
func WriteJSON(w io.Writer, report domain.PlanReport) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		return fmt.Errorf("encode plan report: %w", err)
	}
	return nil
}

var excelHeaders = []string{
	"forecast_month",
	"item_id",
	"item_name",
	"category",
	"segment",
	"adjusted_demand",
	"optimized_order_qty",
	"effective_unit_cost",
	"total_order_cost",
	"opening_inventory_units",
	"planned_intake_units",
	"actual_intake_units",
	"forecasted_sales_units",
	"actual_sales_units",
	"closing_inventory_units",
	"future_cover_months",
	"order_by_date",
	"expected_delivery_date",
	"supplier_name",
	"notes",
}

// WriteExcel writes the plan as a single-sheet workbook, one row per
// forecast, notes joined with "; ".
func WriteExcel(w io.Writer, rows []domain.PurchaseForecast) error {
	f := excelize.NewFile()
	defer f.Close()

	f.SetSheetName(f.GetSheetName(0), forecastSheet)

	for col, header := range excelHeaders {
		cellRef, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(forecastSheet, cellRef, header); err != nil {
			return err
		}
	}

	for i, row := range rows {
		values := []interface{}{
			row.ForecastMonth,
			row.ItemID,
			row.ItemName,
			row.Category,
			row.Segment,
			row.AdjustedDemand,
			row.OptimizedOrderQty,
			row.EffectiveUnitCost,
			row.TotalOrderCost,
			row.OpeningInventoryUnits,
			row.PlannedIntakeUnits,
			row.ActualIntakeUnits,
			row.ForecastedSalesUnits,
			row.ActualSalesUnits,
			row.ClosingInventoryUnits,
			row.FutureCoverMonths,
			row.OrderByDate,
			row.ExpectedDeliveryDate,
			row.SupplierName,
			strings.Join(row.Notes, "; "),
		}
		for col, v := range values {
			cellRef, err := excelize.CoordinatesToCellName(col+1, i+2)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(forecastSheet, cellRef, v); err != nil {
				return err
			}
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
