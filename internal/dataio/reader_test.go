package dataio_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/replenit/purchase-planner/internal/dataio"
)

func TestLoadItemParametersJSON_CoverDefaultVsExplicitNull(t *testing.T) {
	payload := `[
		{"item_id": "SKU-1", "item_name": "Widget", "unit_cost": 2.5},
		{"item_id": "SKU-2", "max_stock_cover_months": null},
		{"item_id": "SKU-3", "max_stock_cover_months": 3.5}
	]`

	params, err := dataio.LoadItemParametersJSON(strings.NewReader(payload))
	require.NoError(t, err)
	require.Len(t, params, 3)

	// Key omitted entirely: the 2.0 default applies.
	require.NotNil(t, params[0].MaxStockCoverMonths)
	assert.Equal(t, 2.0, *params[0].MaxStockCoverMonths)

	// Explicit null: the cap is absent.
	assert.Nil(t, params[1].MaxStockCoverMonths)

	require.NotNil(t, params[2].MaxStockCoverMonths)
	assert.Equal(t, 3.5, *params[2].MaxStockCoverMonths)
}

func TestLoadItemParametersJSON_MissingItemID(t *testing.T) {
	payload := `[{"item_name": "No ID"}]`

	_, err := dataio.LoadItemParametersJSON(strings.NewReader(payload))
	require.Error(t, err)

	var verr *dataio.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "item_id", verr.Field)
	assert.Equal(t, 0, verr.Record)
}

func TestLoadItemParametersCSV_AliasesAndBlankOptionals(t *testing.T) {
	csvData := strings.Join([]string{
		"SKU,Item Name,Supplier,Lead Time,minimum_order_qty,order_multiple,unit_cost,shelf_life_days,max_stock_cover_months",
		"SKU-1,Widget,Acme,15,50,25,2.5,,",
		"SKU-2,Gadget,Acme,10,0,1,\"1,250.75\",180,2.0",
	}, "\n")

	params, err := dataio.LoadItemParametersCSV(strings.NewReader(csvData))
	require.NoError(t, err)
	require.Len(t, params, 2)

	assert.Equal(t, "SKU-1", params[0].ItemID)
	assert.Equal(t, "Widget", params[0].ItemName)
	assert.Equal(t, 15, params[0].OrderLeadTimeDays)
	assert.Nil(t, params[0].ShelfLifeDays, "blank cell stays absent")
	assert.Nil(t, params[0].MaxStockCoverMonths, "blank cell stays absent")

	assert.Equal(t, 1250.75, params[1].UnitCost, "thousands separators are stripped")
	require.NotNil(t, params[1].ShelfLifeDays)
	assert.Equal(t, 180, *params[1].ShelfLifeDays)
	require.NotNil(t, params[1].MaxStockCoverMonths)
	assert.Equal(t, 2.0, *params[1].MaxStockCoverMonths)
}

func TestLoadSalesHistoryCSV_BoolCoercionAndValidation(t *testing.T) {
	csvData := strings.Join([]string{
		"month,item_id,actual_sales_qty,stock_available,unit_price",
		"2025-01,SKU-1,300,YES,9.99",
		"2025-02,SKU-1,280,0,9.99",
		"2025-03,SKU-1,310,t,9.99",
	}, "\n")

	records, err := dataio.LoadSalesHistoryCSV(strings.NewReader(csvData))
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.True(t, records[0].StockAvailable)
	assert.False(t, records[1].StockAvailable)
	assert.True(t, records[2].StockAvailable)
	assert.Equal(t, 300, records[0].ActualSalesQty)
}

func TestLoadSalesHistoryCSV_MissingMonthFails(t *testing.T) {
	csvData := strings.Join([]string{
		"month,item_id,actual_sales_qty",
		",SKU-1,300",
	}, "\n")

	_, err := dataio.LoadSalesHistoryCSV(strings.NewReader(csvData))
	require.Error(t, err)

	var verr *dataio.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "month", verr.Field)
}

func TestLoadSalesForecastsCSV_GroupsByItemWithDefaultConfidence(t *testing.T) {
	csvData := strings.Join([]string{
		"item_id,month,forecasted_sales_qty,forecast_source,confidence_score",
		"SKU-1,2025-07,400,ml_model,0.9",
		"SKU-1,2025-08,380,ml_model,",
		"SKU-2,2025-07,120,manual,0.6",
	}, "\n")

	forecasts, err := dataio.LoadSalesForecastsCSV(strings.NewReader(csvData))
	require.NoError(t, err)
	require.Len(t, forecasts, 2)
	require.Len(t, forecasts["SKU-1"], 2)

	assert.Equal(t, 0.9, forecasts["SKU-1"][0].ConfidenceScore)
	assert.Equal(t, 0.7, forecasts["SKU-1"][1].ConfidenceScore, "blank confidence defaults to 0.7")
	assert.Equal(t, 120, forecasts["SKU-2"][0].ForecastedSalesQty)
}

func TestLoadCurrentInventoryCSV_OptionalArrivalDate(t *testing.T) {
	csvData := strings.Join([]string{
		"item_id,current_stock_qty,in_transit_qty,in_transit_arrival_date",
		"SKU-1,120,30,2025-07-15",
		"SKU-2,40,0,",
	}, "\n")

	records, err := dataio.LoadCurrentInventoryCSV(strings.NewReader(csvData))
	require.NoError(t, err)
	require.Len(t, records, 2)

	require.NotNil(t, records[0].InTransitArrivalDate)
	assert.Equal(t, "2025-07-15", *records[0].InTransitArrivalDate)
	assert.Nil(t, records[1].InTransitArrivalDate)
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
}

func TestLoadCatalogDir_PrefersCSVOverJSON(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "item_parameters.csv", "item_id,unit_cost\nSKU-CSV,1.0\n")
	writeFile(t, dir, "item_parameters.json", `[{"item_id": "SKU-JSON"}]`)

	data, err := dataio.LoadCatalogDir(dir)
	require.NoError(t, err)
	require.Len(t, data.ItemParameters, 1)
	assert.Equal(t, "SKU-CSV", data.ItemParameters[0].ItemID)
	assert.Equal(t, []string{filepath.Join(dir, "item_parameters.csv")}, data.SourceFiles)
}

func TestLoadCatalogDir_OptionalDatasetsDefaultEmpty(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "item_parameters.json", `[{"item_id": "SKU-1"}]`)

	data, err := dataio.LoadCatalogDir(dir)
	require.NoError(t, err)

	assert.Empty(t, data.SalesHistory)
	assert.Empty(t, data.CurrentInventory)
	assert.Empty(t, data.SalesForecasts)
}

func TestLoadCatalogDir_ItemParametersRequired(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "sales_history.json", `[]`)

	_, err := dataio.LoadCatalogDir(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "item_parameters")
}

func TestLoadCatalogDir_AllDatasets(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "item_parameters.json", `[{"item_id": "SKU-1", "order_lead_time_days": 10}]`)
	writeFile(t, dir, "sales_history.json", `[{"month": "2025-01", "item_id": "SKU-1", "actual_sales_qty": 300}]`)
	writeFile(t, dir, "current_inventory.json", `[{"item_id": "SKU-1", "current_stock_qty": 120}]`)
	writeFile(t, dir, "sales_forecasts_n12.json", `{"SKU-1": [{"month": "2025-02", "forecasted_sales_qty": 310, "confidence_score": 0.8}]}`)

	data, err := dataio.LoadCatalogDir(dir)
	require.NoError(t, err)

	assert.Len(t, data.ItemParameters, 1)
	assert.Len(t, data.SalesHistory, 1)
	assert.Len(t, data.CurrentInventory, 1)
	assert.Len(t, data.SalesForecasts["SKU-1"], 1)
	assert.Len(t, data.SourceFiles, 4)
}
