package planner

import (
	"sort"

	"github.com/replenit/purchase-planner/internal/domain"
)

type itemMonth struct {
	ItemID string
	Month  string
}

// Catalog is the read-only planning context for one run. It is built once
// from the four catalog inputs and never mutated afterwards, so a single
// Catalog can back concurrent plan generations.
type Catalog struct {
	items     map[string]domain.ItemParameters
	itemIDs   []string
	inventory map[string]domain.CurrentInventory
	forecasts map[string][]domain.MonthlyForecastRecord

	// history is indexed per item and sorted by month ascending.
	history     map[string][]domain.HistoricalSalesRecord
	actualSales map[itemMonth]int
}

// NewCatalog builds the planning context. Duplicate item_ids in params or
// inventory overwrite earlier records, matching loader semantics.
func NewCatalog(
	history []domain.HistoricalSalesRecord,
	params []domain.ItemParameters,
	inventory []domain.CurrentInventory,
	forecasts map[string][]domain.MonthlyForecastRecord,
) *Catalog {
	c := &Catalog{
		items:       make(map[string]domain.ItemParameters, len(params)),
		inventory:   make(map[string]domain.CurrentInventory, len(inventory)),
		forecasts:   make(map[string][]domain.MonthlyForecastRecord, len(forecasts)),
		history:     make(map[string][]domain.HistoricalSalesRecord),
		actualSales: make(map[itemMonth]int, len(history)),
	}

	for _, p := range params {
		if _, seen := c.items[p.ItemID]; !seen {
			c.itemIDs = append(c.itemIDs, p.ItemID)
		}
		c.items[p.ItemID] = p
	}
	for _, inv := range inventory {
		c.inventory[inv.ItemID] = inv
	}
	for itemID, pool := range forecasts {
		c.forecasts[itemID] = append([]domain.MonthlyForecastRecord(nil), pool...)
	}

	for _, r := range history {
		c.history[r.ItemID] = append(c.history[r.ItemID], r)
		c.actualSales[itemMonth{r.ItemID, r.Month}] += r.ActualSalesQty
	}
	for itemID := range c.history {
		rows := c.history[itemID]
		sort.SliceStable(rows, func(i, j int) bool { return rows[i].Month < rows[j].Month })
	}

	sort.Strings(c.itemIDs)
	return c
}

// ItemIDs returns the planned item set in stable (sorted) order.
func (c *Catalog) ItemIDs() []string {
	return append([]string(nil), c.itemIDs...)
}

// Item returns the parameters for an item.
func (c *Catalog) Item(itemID string) (domain.ItemParameters, bool) {
	p, ok := c.items[itemID]
	return p, ok
}

// Inventory returns the stock snapshot for an item; a zero snapshot is
// returned for items with no inventory record.
func (c *Catalog) Inventory(itemID string) domain.CurrentInventory {
	return c.inventory[itemID]
}

// ActualSales returns the summed historical sales for an exact (item, month).
func (c *Catalog) ActualSales(itemID, month string) int {
	return c.actualSales[itemMonth{itemID, month}]
}
