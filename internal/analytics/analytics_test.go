package analytics

import (
	"fmt"
	"testing"

	"stockbook/internal/domain"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func sale(id int, date, total string, lines ...domain.SaleLineItem) domain.Sale {
	return domain.Sale{ID: id, Date: date, Items: lines, Total: decimal.RequireFromString(total)}
}

func line(name string, qty int) domain.SaleLineItem {
	return domain.SaleLineItem{ItemID: 1, Name: name, Price: decimal.NewFromInt(1), Quantity: qty}
}

func sampleSales() []domain.Sale {
	return []domain.Sale{
		sale(1, "2024-05-01", "10", line("Shirt", 2), line("Hat", 1)),
		sale(2, "2024-05-01", "5.50", line("Hat", 3)),
		sale(3, "2024-05-20", "7", line("Socks", 4)),
		sale(4, "2024-06-02", "3", line("Shirt", 1)),
		sale(5, "2023-12-31", "1", line("Mug", 1)),
		sale(6, "someday", "100", line("Shirt", 9)),
	}
}

func TestParseMode(t *testing.T) {
	for input, want := range map[string]Mode{
		"":         ModeDaily,
		"daily":    ModeDaily,
		"Monthly":  ModeMonthly,
		" yearly ": ModeYearly,
	} {
		got, err := ParseMode(input)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := ParseMode("weekly")
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestRevenueSeries_EmptyReturnsSentinel(t *testing.T) {
	e := NewEngine(nil)

	for _, mode := range []Mode{ModeDaily, ModeMonthly, ModeYearly} {
		series := e.RevenueSeries(nil, mode)
		require.Len(t, series, 1)
		assert.Equal(t, NoDataLabel, series[0].Key)
		assert.True(t, series[0].Revenue.IsZero())
	}
}

func TestRevenueSeries_Buckets(t *testing.T) {
	e := NewEngine(nil)

	daily := e.RevenueSeries(sampleSales(), ModeDaily)
	require.Len(t, daily, 5)
	assert.Equal(t, "2023-12-31", daily[0].Key)
	assert.Equal(t, "2024-05-01", daily[1].Key)
	assert.True(t, daily[1].Revenue.Equal(decimal.RequireFromString("15.5")))
	assert.Equal(t, "someday", daily[4].Key)

	monthly := e.RevenueSeries(sampleSales(), ModeMonthly)
	require.Len(t, monthly, 3)
	assert.Equal(t, []string{"2023-12", "2024-05", "2024-06"}, []string{monthly[0].Key, monthly[1].Key, monthly[2].Key})
	assert.True(t, monthly[1].Revenue.Equal(decimal.RequireFromString("22.5")))

	yearly := e.RevenueSeries(sampleSales(), ModeYearly)
	require.Len(t, yearly, 2)
	assert.Equal(t, "2024", yearly[1].Key)
	assert.True(t, yearly[1].Revenue.Equal(decimal.RequireFromString("25.5")))
}

func TestRevenueSeries_OnlyBadDatesGivesSentinel(t *testing.T) {
	e := NewEngine(nil)

	series := e.RevenueSeries([]domain.Sale{sale(1, "someday", "3")}, ModeMonthly)
	require.Len(t, series, 1)
	assert.Equal(t, NoDataLabel, series[0].Key)
}

func TestFilterByPeriod(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	e := NewEngine(zap.New(core))

	daily, err := e.FilterByPeriod(sampleSales(), ModeDaily, "2024-05-01")
	require.NoError(t, err)
	assert.Len(t, daily, 2)

	literal, err := e.FilterByPeriod(sampleSales(), ModeDaily, "someday")
	require.NoError(t, err)
	require.Len(t, literal, 1)
	assert.Equal(t, 6, literal[0].ID)

	monthly, err := e.FilterByPeriod(sampleSales(), ModeMonthly, "2024-05-15")
	require.NoError(t, err)
	assert.Len(t, monthly, 3)

	yearly, err := e.FilterByPeriod(sampleSales(), ModeYearly, "2024-01-01")
	require.NoError(t, err)
	assert.Len(t, yearly, 4)

	assert.Equal(t, 2, logs.FilterMessage("Skipping sale with unparseable date").Len())

	_, err = e.FilterByPeriod(sampleSales(), ModeMonthly, "May")
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestTopProducts(t *testing.T) {
	e := NewEngine(nil)

	top := e.TopProducts(sampleSales(), 0)
	require.Len(t, top, 4)
	assert.Equal(t, ProductSales{Name: "Shirt", Quantity: 12}, top[0])
	assert.Equal(t, ProductSales{Name: "Hat", Quantity: 4}, top[1])
	assert.Equal(t, ProductSales{Name: "Socks", Quantity: 4}, top[2])
	assert.Equal(t, ProductSales{Name: "Mug", Quantity: 1}, top[3])

	assert.Len(t, e.TopProducts(sampleSales(), 2), 2)
	assert.Empty(t, e.TopProducts(nil, 5))
}

func TestTopStockItems(t *testing.T) {
	e := NewEngine(nil)
	items := []domain.InventoryItem{
		{ID: 1, Name: "A", Quantity: 3},
		{ID: 2, Name: "B", Quantity: 9},
		{ID: 3, Name: "C", Quantity: 3},
		{ID: 4, Name: "D", Quantity: 0},
		{ID: 5, Name: "E", Quantity: 1},
		{ID: 6, Name: "F", Quantity: 2},
	}

	top := e.TopStockItems(items, DefaultTopN)
	require.Len(t, top, 5)
	ids := []int{}
	for _, level := range top {
		ids = append(ids, level.Item.ID)
	}
	assert.Equal(t, []int{2, 1, 3, 6, 5}, ids)
}

func TestSummaries(t *testing.T) {
	e := NewEngine(nil)

	summary := e.Summarize(sampleSales()[:3])
	assert.Equal(t, 3, summary.Count)
	assert.Equal(t, 10, summary.TotalUnits)
	assert.True(t, summary.TotalRevenue.Equal(decimal.RequireFromString("22.5")))

	inv := e.SummarizeInventory([]domain.InventoryItem{
		{ID: 1, Price: decimal.RequireFromString("2.5"), Quantity: 4},
		{ID: 2, Price: decimal.RequireFromString("10"), Quantity: 0},
	})
	assert.Equal(t, 2, inv.ItemCount)
	assert.Equal(t, 4, inv.UnitsInStock)
	assert.True(t, inv.StockValue.Equal(decimal.NewFromInt(10)))

	empty := e.Summarize(nil)
	assert.Zero(t, empty.Count)
	assert.True(t, empty.TotalRevenue.IsZero())
}

// Feature: stockbook, Property 7: Revenue buckets partition the parseable revenue
func TestProperty_SeriesSumsToTotal(t *testing.T) {
	e := NewEngine(nil)
	properties := gopter.NewProperties(nil)

	properties.Property("monthly buckets sum to the revenue of dated sales", prop.ForAll(
		func(days []int, cents []int64) bool {
			sales := []domain.Sale{}
			expected := decimal.Zero
			for i, day := range days {
				total := decimal.New(cents[i%len(cents)], -2)
				date := fmt.Sprintf("2024-%02d-%02d", day%12+1, day%28+1)
				sales = append(sales, domain.Sale{ID: i + 1, Date: date, Total: total})
				expected = expected.Add(total)
			}

			series := e.RevenueSeries(sales, ModeMonthly)
			if len(sales) == 0 {
				return len(series) == 1 && series[0].Key == NoDataLabel
			}
			sum := decimal.Zero
			for i, bucket := range series {
				if i > 0 && series[i-1].Key >= bucket.Key {
					return false
				}
				sum = sum.Add(bucket.Revenue)
			}
			return sum.Equal(expected)
		},
		gen.SliceOf(gen.IntRange(0, 400)),
		gen.SliceOfN(4, gen.Int64Range(0, 100000)),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}
