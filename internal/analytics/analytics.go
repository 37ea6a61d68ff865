package analytics

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"stockbook/internal/domain"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Mode selects the calendar bucket used for filtering and grouping
type Mode string

const (
	ModeDaily   Mode = "daily"
	ModeMonthly Mode = "monthly"
	ModeYearly  Mode = "yearly"
)

// NoDataLabel labels the placeholder bucket of an empty revenue series
const NoDataLabel = "no data"

// DefaultTopN is the size of the top product and top stock lists
const DefaultTopN = 5

// ParseMode validates a mode name
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case ModeDaily, ModeMonthly, ModeYearly:
		return m, nil
	case "":
		return ModeDaily, nil
	default:
		return "", &domain.ValidationError{Fields: []domain.FieldError{{Field: "mode", Message: "Mode must be daily, monthly or yearly"}}}
	}
}

// Bucket is one point of a revenue series
type Bucket struct {
	Key     string          `json:"key"`
	Revenue decimal.Decimal `json:"revenue"`
}

// ProductSales is the quantity sold of one product name
type ProductSales struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
}

// StockLevel is the current quantity of one catalog item
type StockLevel struct {
	Item     domain.InventoryItem `json:"item"`
	Quantity int                  `json:"quantity"`
}

// PeriodSummary aggregates a set of sales
type PeriodSummary struct {
	Count        int             `json:"count"`
	TotalRevenue decimal.Decimal `json:"total_revenue"`
	TotalUnits   int             `json:"total_units"`
}

// InventorySummary aggregates the catalog
type InventorySummary struct {
	ItemCount    int             `json:"item_count"`
	UnitsInStock int             `json:"units_in_stock"`
	StockValue   decimal.Decimal `json:"stock_value"`
}

// Engine derives reporting views from catalog and ledger snapshots.
// It holds no state besides its logger.
type Engine struct {
	logger *zap.Logger
}

// NewEngine creates an analytics engine
func NewEngine(logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{logger: logger}
}

// FilterByPeriod keeps the sales falling in the same day, month or year as
// referenceDate. Daily matching compares the literal date text; monthly and
// yearly parse both sides and skip sales whose date cannot be parsed.
func (e *Engine) FilterByPeriod(sales []domain.Sale, mode Mode, referenceDate string) ([]domain.Sale, error) {
	out := []domain.Sale{}

	if mode == ModeDaily {
		for _, sale := range sales {
			if sale.Date == referenceDate {
				out = append(out, sale)
			}
		}
		return out, nil
	}

	ref, ok := domain.ParseSaleDate(referenceDate)
	if !ok {
		return nil, &domain.ValidationError{Fields: []domain.FieldError{{Field: "date", Message: "Date must be YYYY-MM-DD"}}}
	}

	for _, sale := range sales {
		day, ok := e.saleDay(sale)
		if !ok {
			continue
		}
		if day.Year() != ref.Year() {
			continue
		}
		if mode == ModeMonthly && day.Month() != ref.Month() {
			continue
		}
		out = append(out, sale)
	}
	return out, nil
}

// RevenueSeries sums sale totals per bucket, sorted by key. Daily buckets use
// the date text up to any time part. An empty result
// is replaced by a single zero bucket labelled NoDataLabel.
func (e *Engine) RevenueSeries(sales []domain.Sale, mode Mode) []Bucket {
	sums := map[string]decimal.Decimal{}

	for _, sale := range sales {
		key, ok := e.bucketKey(sale, mode)
		if !ok {
			continue
		}
		sums[key] = sums[key].Add(sale.Total)
	}

	if len(sums) == 0 {
		return []Bucket{{Key: NoDataLabel, Revenue: decimal.Zero}}
	}

	series := make([]Bucket, 0, len(sums))
	for key, revenue := range sums {
		series = append(series, Bucket{Key: key, Revenue: revenue})
	}
	sort.Slice(series, func(i, j int) bool {
		return series[i].Key < series[j].Key
	})
	return series
}

// TopProducts ranks product names by total quantity sold, ties in order of
// first appearance.
func (e *Engine) TopProducts(sales []domain.Sale, n int) []ProductSales {
	totals := map[string]int{}
	order := []string{}

	for _, sale := range sales {
		for _, line := range sale.Items {
			if _, seen := totals[line.Name]; !seen {
				order = append(order, line.Name)
			}
			totals[line.Name] += line.Quantity
		}
	}

	ranked := make([]ProductSales, 0, len(order))
	for _, name := range order {
		ranked = append(ranked, ProductSales{Name: name, Quantity: totals[name]})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Quantity > ranked[j].Quantity
	})
	return ranked[:clampN(n, len(ranked))]
}

// TopStockItems ranks catalog items by quantity on hand, ties in catalog order
func (e *Engine) TopStockItems(items []domain.InventoryItem, n int) []StockLevel {
	ranked := make([]StockLevel, 0, len(items))
	for _, item := range items {
		ranked = append(ranked, StockLevel{Item: item, Quantity: item.Quantity})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Quantity > ranked[j].Quantity
	})
	return ranked[:clampN(n, len(ranked))]
}

// Summarize counts sales, revenue and units
func (e *Engine) Summarize(sales []domain.Sale) PeriodSummary {
	summary := PeriodSummary{TotalRevenue: decimal.Zero}
	for _, sale := range sales {
		summary.Count++
		summary.TotalRevenue = summary.TotalRevenue.Add(sale.Total)
		summary.TotalUnits += sale.Units()
	}
	return summary
}

// SummarizeInventory counts items, units on hand and their value
func (e *Engine) SummarizeInventory(items []domain.InventoryItem) InventorySummary {
	summary := InventorySummary{StockValue: decimal.Zero}
	for _, item := range items {
		summary.ItemCount++
		summary.UnitsInStock += item.Quantity
		summary.StockValue = summary.StockValue.Add(item.StockValue())
	}
	return summary
}

func (e *Engine) bucketKey(sale domain.Sale, mode Mode) (string, bool) {
	if mode == ModeDaily {
		if i := strings.IndexByte(sale.Date, 'T'); i >= 0 {
			return sale.Date[:i], true
		}
		return sale.Date, true
	}

	day, ok := e.saleDay(sale)
	if !ok {
		return "", false
	}
	if mode == ModeMonthly {
		return fmt.Sprintf("%04d-%02d", day.Year(), int(day.Month())), true
	}
	return fmt.Sprintf("%04d", day.Year()), true
}

func (e *Engine) saleDay(sale domain.Sale) (time.Time, bool) {
	day, ok := domain.ParseSaleDate(sale.Date)
	if !ok {
		e.logger.Warn("Skipping sale with unparseable date",
			zap.Int("sale_id", sale.ID),
			zap.String("date", sale.Date),
		)
	}
	return day, ok
}

func clampN(n, length int) int {
	if n <= 0 {
		n = DefaultTopN
	}
	if n > length {
		return length
	}
	return n
}
