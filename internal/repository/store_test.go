package repository

import (
	"testing"

	"stockbook/internal/domain"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleItems() []domain.InventoryItem {
	return []domain.InventoryItem{
		{ID: 3, Name: "Cola", Category: "Drinks", Price: decimal.RequireFromString("2.50"), Quantity: 10, PhotoRef: "cola.jpg"},
		{ID: 1, Name: "Chips", Category: "Snacks", Price: decimal.RequireFromString("1.25"), Quantity: 0},
	}
}

func sampleSales() []domain.Sale {
	return []domain.Sale{
		{
			ID:   2,
			Date: "2024-05-01",
			Items: []domain.SaleLineItem{
				{ItemID: 3, Name: "Cola", Price: decimal.RequireFromString("2.50"), Quantity: 2},
				{ItemID: 1, Name: "Chips", Price: decimal.RequireFromString("1.25"), Quantity: 1},
			},
			Total: decimal.RequireFromString("6.25"),
		},
		{
			ID:   1,
			Date: "2024-04-30",
			Items: []domain.SaleLineItem{
				{ItemID: 9, Name: "Retired item", Price: decimal.RequireFromString("4"), Quantity: 3},
			},
			Total: decimal.RequireFromString("12"),
		},
	}
}

// assertSameItems compares items field by field; decimals by value
func assertSameItems(t *testing.T, want, got []domain.InventoryItem) {
	t.Helper()
	require.Len(t, got, len(want))
	for i := range want {
		assert.Equal(t, want[i].ID, got[i].ID)
		assert.Equal(t, want[i].Name, got[i].Name)
		assert.Equal(t, want[i].Category, got[i].Category)
		assert.True(t, want[i].Price.Equal(got[i].Price), "price of item %d: want %s, got %s", want[i].ID, want[i].Price, got[i].Price)
		assert.Equal(t, want[i].Quantity, got[i].Quantity)
		assert.Equal(t, want[i].PhotoRef, got[i].PhotoRef)
	}
}

func assertSameSales(t *testing.T, want, got []domain.Sale) {
	t.Helper()
	require.Len(t, got, len(want))
	for i := range want {
		assert.Equal(t, want[i].ID, got[i].ID)
		assert.Equal(t, want[i].Date, got[i].Date)
		assert.True(t, want[i].Total.Equal(got[i].Total), "total of sale %d: want %s, got %s", want[i].ID, want[i].Total, got[i].Total)
		require.Len(t, got[i].Items, len(want[i].Items))
		for j, line := range want[i].Items {
			assert.Equal(t, line.ItemID, got[i].Items[j].ItemID)
			assert.Equal(t, line.Name, got[i].Items[j].Name)
			assert.True(t, line.Price.Equal(got[i].Items[j].Price))
			assert.Equal(t, line.Quantity, got[i].Items[j].Quantity)
		}
	}
}
