// Package dataio loads catalog inputs from JSON/CSV files and writes plan
// exports. Policy-level tolerance (missing optionals, absent cross
// references) lives in the planner; this package only enforces structural
// validity and fails the whole load on malformed records.
package dataio

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/replenit/purchase-planner/internal/domain"
)

// Catalog dataset names, also the expected file basenames in a data dir.
const (
	FileSalesHistory     = "sales_history"
	FileItemParameters   = "item_parameters"
	FileCurrentInventory = "current_inventory"
	FileSalesForecasts   = "sales_forecasts_n12"
)

const defaultMaxStockCoverMonths = 2.0

// ValidationError reports a structurally invalid input record. Loads never
// return partial catalogs: the first validation error aborts the load.
type ValidationError struct {
	File   string
	Record int
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: record %d: field %q: %s", e.File, e.Record, e.Field, e.Reason)
}

// CatalogData is the loaded, validated catalog input set.
type CatalogData struct {
	SalesHistory     []domain.HistoricalSalesRecord
	ItemParameters   []domain.ItemParameters
	CurrentInventory []domain.CurrentInventory
	SalesForecasts   map[string][]domain.MonthlyForecastRecord

	// SourceFiles lists the files the catalog was assembled from.
	SourceFiles []string
}

// LoadSalesHistoryJSON reads a sales_history.json payload.
func LoadSalesHistoryJSON(r io.Reader) ([]domain.HistoricalSalesRecord, error) {
	var records []domain.HistoricalSalesRecord
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, fmt.Errorf("decode %s: %w", FileSalesHistory, err)
	}
	for i, rec := range records {
		if rec.ItemID == "" {
			return nil, &ValidationError{File: FileSalesHistory, Record: i, Field: "item_id", Reason: "missing"}
		}
		if rec.Month == "" {
			return nil, &ValidationError{File: FileSalesHistory, Record: i, Field: "month", Reason: "missing"}
		}
	}
	return records, nil
}

// LoadItemParametersJSON reads an item_parameters.json payload. A record
// that omits the max_stock_cover_months key gets the 2.0 default; an
// explicit null means the cover cap is absent.
func LoadItemParametersJSON(r io.Reader) ([]domain.ItemParameters, error) {
	var raws []json.RawMessage
	if err := json.NewDecoder(r).Decode(&raws); err != nil {
		return nil, fmt.Errorf("decode %s: %w", FileItemParameters, err)
	}

	params := make([]domain.ItemParameters, 0, len(raws))
	for i, raw := range raws {
		cover := defaultMaxStockCoverMonths
		p := domain.ItemParameters{MaxStockCoverMonths: &cover}
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("decode %s record %d: %w", FileItemParameters, i, err)
		}
		if p.ItemID == "" {
			return nil, &ValidationError{File: FileItemParameters, Record: i, Field: "item_id", Reason: "missing"}
		}
		params = append(params, p)
	}
	return params, nil
}

// LoadCurrentInventoryJSON reads a current_inventory.json payload.
func LoadCurrentInventoryJSON(r io.Reader) ([]domain.CurrentInventory, error) {
	var records []domain.CurrentInventory
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, fmt.Errorf("decode %s: %w", FileCurrentInventory, err)
	}
	for i, rec := range records {
		if rec.ItemID == "" {
			return nil, &ValidationError{File: FileCurrentInventory, Record: i, Field: "item_id", Reason: "missing"}
		}
	}
	return records, nil
}

// LoadSalesForecastsJSON reads a sales_forecasts_n12.json payload, a map of
// item_id to forecast records.
func LoadSalesForecastsJSON(r io.Reader) (map[string][]domain.MonthlyForecastRecord, error) {
	var forecasts map[string][]domain.MonthlyForecastRecord
	if err := json.NewDecoder(r).Decode(&forecasts); err != nil {
		return nil, fmt.Errorf("decode %s: %w", FileSalesForecasts, err)
	}
	for itemID, pool := range forecasts {
		for i, f := range pool {
			if f.Month == "" {
				return nil, &ValidationError{
					File:   FileSalesForecasts,
					Record: i,
					Field:  "month",
					Reason: fmt.Sprintf("missing for item %s", itemID),
				}
			}
		}
	}
	return forecasts, nil
}

var columnNameSanitizer = strings.NewReplacer(" ", "", "_", "", ".", "", "-", "", "/", "")

func normalizeColumnName(name string) string {
	name = strings.TrimSpace(strings.ToLower(name))
	return columnNameSanitizer.Replace(name)
}

// csvTable is a header-indexed CSV with tolerant cell accessors.
type csvTable struct {
	file    string
	header  []string
	records [][]string
	index   map[string]int
}

func readCSVTable(file string, r io.Reader) (*csvTable, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read %s header: %w", file, err)
	}

	t := &csvTable{file: file, header: header, index: make(map[string]int, len(header))}
	for i, h := range header {
		t.index[normalizeColumnName(h)] = i
	}

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", file, err)
		}
		t.records = append(t.records, record)
	}
	return t, nil
}

func (t *csvTable) col(names ...string) int {
	for _, name := range names {
		if idx, ok := t.index[normalizeColumnName(name)]; ok {
			return idx
		}
	}
	return -1
}

func cell(record []string, idx int) string {
	if idx < 0 || idx >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[idx])
}

func parseFloatCell(record []string, idx int) float64 {
	v := cell(record, idx)
	if v == "" {
		return 0
	}
	v = strings.ReplaceAll(v, ",", "")
	f, _ := strconv.ParseFloat(v, 64)
	return f
}

func parseIntCell(record []string, idx int) int {
	return int(parseFloatCell(record, idx))
}

// parseOptFloatCell returns nil for blank cells so optionals stay absent.
func parseOptFloatCell(record []string, idx int) *float64 {
	v := cell(record, idx)
	if v == "" {
		return nil
	}
	v = strings.ReplaceAll(v, ",", "")
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return nil
	}
	return &f
}

func parseOptIntCell(record []string, idx int) *int {
	f := parseOptFloatCell(record, idx)
	if f == nil {
		return nil
	}
	n := int(*f)
	return &n
}

func parseBoolCell(record []string, idx int) bool {
	switch strings.ToUpper(cell(record, idx)) {
	case "1", "TRUE", "T", "YES", "Y":
		return true
	}
	return false
}

// LoadSalesHistoryCSV reads sales history from CSV.
func LoadSalesHistoryCSV(r io.Reader) ([]domain.HistoricalSalesRecord, error) {
	t, err := readCSVTable(FileSalesHistory, r)
	if err != nil {
		return nil, err
	}

	idxMonth := t.col("month")
	idxItemID := t.col("item_id", "sku")
	idxItemName := t.col("item_name", "product name")
	idxQty := t.col("actual_sales_qty")
	idxStockAvail := t.col("stock_available")
	idxLost := t.col("lost_sales_qty")
	idxPrice := t.col("unit_price")
	idxCategory := t.col("category")

	records := make([]domain.HistoricalSalesRecord, 0, len(t.records))
	for i, record := range t.records {
		rec := domain.HistoricalSalesRecord{
			Month:          cell(record, idxMonth),
			ItemID:         cell(record, idxItemID),
			ItemName:       cell(record, idxItemName),
			ActualSalesQty: parseIntCell(record, idxQty),
			StockAvailable: parseBoolCell(record, idxStockAvail),
			LostSalesQty:   parseIntCell(record, idxLost),
			UnitPrice:      parseFloatCell(record, idxPrice),
			Category:       cell(record, idxCategory),
		}
		if rec.ItemID == "" {
			return nil, &ValidationError{File: FileSalesHistory, Record: i, Field: "item_id", Reason: "missing"}
		}
		if rec.Month == "" {
			return nil, &ValidationError{File: FileSalesHistory, Record: i, Field: "month", Reason: "missing"}
		}
		records = append(records, rec)
	}
	return records, nil
}

// LoadItemParametersCSV reads item parameters from CSV. Blank optional cells
// stay absent, matching the NaN handling of the upstream normalizers.
func LoadItemParametersCSV(r io.Reader) ([]domain.ItemParameters, error) {
	t, err := readCSVTable(FileItemParameters, r)
	if err != nil {
		return nil, err
	}

	idxItemID := t.col("item_id", "sku")
	idxItemName := t.col("item_name")
	idxSupplier := t.col("supplier")
	idxLeadTime := t.col("order_lead_time_days", "lead time")
	idxMOQ := t.col("minimum_order_qty", "min order")
	idxMultiple := t.col("order_multiple")
	idxUnitCost := t.col("unit_cost")
	idxShelfLife := t.col("shelf_life_days")
	idxSafetyDays := t.col("safety_stock_days")
	idxMaxCover := t.col("max_stock_cover_months")
	idxCategory := t.col("category")
	idxSegment := t.col("segment")

	params := make([]domain.ItemParameters, 0, len(t.records))
	for i, record := range t.records {
		p := domain.ItemParameters{
			ItemID:              cell(record, idxItemID),
			ItemName:            cell(record, idxItemName),
			Supplier:            cell(record, idxSupplier),
			OrderLeadTimeDays:   parseIntCell(record, idxLeadTime),
			MinimumOrderQty:     parseIntCell(record, idxMOQ),
			OrderMultiple:       parseIntCell(record, idxMultiple),
			UnitCost:            parseFloatCell(record, idxUnitCost),
			ShelfLifeDays:       parseOptIntCell(record, idxShelfLife),
			SafetyStockDays:     parseIntCell(record, idxSafetyDays),
			MaxStockCoverMonths: parseOptFloatCell(record, idxMaxCover),
			Category:            cell(record, idxCategory),
			Segment:             cell(record, idxSegment),
		}
		if p.ItemID == "" {
			return nil, &ValidationError{File: FileItemParameters, Record: i, Field: "item_id", Reason: "missing"}
		}
		params = append(params, p)
	}
	return params, nil
}

// LoadCurrentInventoryCSV reads the inventory snapshot from CSV.
func LoadCurrentInventoryCSV(r io.Reader) ([]domain.CurrentInventory, error) {
	t, err := readCSVTable(FileCurrentInventory, r)
	if err != nil {
		return nil, err
	}

	idxItemID := t.col("item_id", "sku")
	idxStock := t.col("current_stock_qty", "stock")
	idxInTransit := t.col("in_transit_qty")
	idxArrival := t.col("in_transit_arrival_date")
	idxCommitted := t.col("committed_qty")

	records := make([]domain.CurrentInventory, 0, len(t.records))
	for i, record := range t.records {
		rec := domain.CurrentInventory{
			ItemID:          cell(record, idxItemID),
			CurrentStockQty: parseIntCell(record, idxStock),
			InTransitQty:    parseIntCell(record, idxInTransit),
			CommittedQty:    parseIntCell(record, idxCommitted),
		}
		if arrival := cell(record, idxArrival); arrival != "" {
			rec.InTransitArrivalDate = &arrival
		}
		if rec.ItemID == "" {
			return nil, &ValidationError{File: FileCurrentInventory, Record: i, Field: "item_id", Reason: "missing"}
		}
		records = append(records, rec)
	}
	return records, nil
}

// LoadSalesForecastsCSV reads flat forecast rows (item_id, month, ...) from
// CSV and groups them by item. Missing confidence scores default to 0.7.
func LoadSalesForecastsCSV(r io.Reader) (map[string][]domain.MonthlyForecastRecord, error) {
	t, err := readCSVTable(FileSalesForecasts, r)
	if err != nil {
		return nil, err
	}

	idxItemID := t.col("item_id", "sku")
	idxMonth := t.col("month")
	idxQty := t.col("forecasted_sales_qty")
	idxSource := t.col("forecast_source")
	idxConfidence := t.col("confidence_score")

	forecasts := make(map[string][]domain.MonthlyForecastRecord)
	for i, record := range t.records {
		itemID := cell(record, idxItemID)
		if itemID == "" {
			return nil, &ValidationError{File: FileSalesForecasts, Record: i, Field: "item_id", Reason: "missing"}
		}
		month := cell(record, idxMonth)
		if month == "" {
			return nil, &ValidationError{File: FileSalesForecasts, Record: i, Field: "month", Reason: "missing"}
		}

		confidence := 0.7
		if c := parseOptFloatCell(record, idxConfidence); c != nil {
			confidence = *c
		}

		forecasts[itemID] = append(forecasts[itemID], domain.MonthlyForecastRecord{
			Month:              month,
			ForecastedSalesQty: parseIntCell(record, idxQty),
			ForecastSource:     cell(record, idxSource),
			ConfidenceScore:    confidence,
		})
	}
	return forecasts, nil
}

// LoadCatalogDir assembles a catalog from a data directory. For each dataset
// a CSV file is preferred over JSON when both exist. Item parameters are
// required; the other datasets default to empty so items without inventory
// or forecasts still plan with conservative defaults.
func LoadCatalogDir(dir string) (*CatalogData, error) {
	data := &CatalogData{SalesForecasts: map[string][]domain.MonthlyForecastRecord{}}

	load := func(name string, fromCSV func(io.Reader) error, fromJSON func(io.Reader) error) (bool, error) {
		for _, attempt := range []struct {
			path string
			fn   func(io.Reader) error
		}{
			{filepath.Join(dir, name+".csv"), fromCSV},
			{filepath.Join(dir, name+".json"), fromJSON},
		} {
			f, err := os.Open(attempt.path)
			if os.IsNotExist(err) {
				continue
			}
			if err != nil {
				return false, err
			}
			defer f.Close()

			if err := attempt.fn(f); err != nil {
				return false, err
			}
			data.SourceFiles = append(data.SourceFiles, attempt.path)
			return true, nil
		}
		return false, nil
	}

	found, err := load(FileItemParameters,
		func(r io.Reader) error { var e error; data.ItemParameters, e = LoadItemParametersCSV(r); return e },
		func(r io.Reader) error { var e error; data.ItemParameters, e = LoadItemParametersJSON(r); return e },
	)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("%s: no %s.csv or %s.json in %s", FileItemParameters, FileItemParameters, FileItemParameters, dir)
	}

	if _, err := load(FileSalesHistory,
		func(r io.Reader) error { var e error; data.SalesHistory, e = LoadSalesHistoryCSV(r); return e },
		func(r io.Reader) error { var e error; data.SalesHistory, e = LoadSalesHistoryJSON(r); return e },
	); err != nil {
		return nil, err
	}

	if _, err := load(FileCurrentInventory,
		func(r io.Reader) error { var e error; data.CurrentInventory, e = LoadCurrentInventoryCSV(r); return e },
		func(r io.Reader) error { var e error; data.CurrentInventory, e = LoadCurrentInventoryJSON(r); return e },
	); err != nil {
		return nil, err
	}

	if _, err := load(FileSalesForecasts,
		func(r io.Reader) error { var e error; data.SalesForecasts, e = LoadSalesForecastsCSV(r); return e },
		func(r io.Reader) error { var e error; data.SalesForecasts, e = LoadSalesForecastsJSON(r); return e },
	); err != nil {
		return nil, err
	}

	return data, nil
}
