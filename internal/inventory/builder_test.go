package inventory

import (
	"errors"
	"strings"
	"testing"
	"time"

	"stockbook/internal/domain"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock() time.Time {
	return time.Date(2024, time.May, 1, 15, 30, 0, 0, time.UTC)
}

func shirtCatalog(quantity int) *Catalog {
	return NewCatalog([]domain.InventoryItem{
		{ID: 1, Name: "Shirt", Category: "Tops", Price: decimal.RequireFromString("29.90"), Quantity: quantity},
		{ID: 2, Name: "Hat", Category: "Tops", Price: decimal.RequireFromString("12"), Quantity: 0},
	})
}

func TestSaleBuilder_NewDraftIsDatedToday(t *testing.T) {
	b := NewSaleBuilder(fixedClock)

	d := b.Draft()
	assert.Equal(t, "2024-05-01", d.Date)
	assert.Empty(t, d.Items)
	assert.True(t, d.Total.IsZero())
	assert.False(t, d.Editing())
}

func TestSaleBuilder_AddAndGrowLine(t *testing.T) {
	c := shirtCatalog(10)
	b := NewSaleBuilder(fixedClock)

	require.NoError(t, b.AddItem(c, 1))
	require.NoError(t, b.ChangeLineQuantity(c, 0, 3))

	d := b.Draft()
	require.Len(t, d.Items, 1)
	assert.Equal(t, 4, d.Items[0].Quantity)
	assert.True(t, d.Total.Equal(decimal.RequireFromString("119.60")))

	err := b.ChangeLineQuantity(c, 0, 7)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.Equal(t, 4, b.Draft().Items[0].Quantity)

	// the draft reserves nothing
	assert.Equal(t, 10, c.AvailableQuantity(1))
}

func TestSaleBuilder_AddOutOfStockItem(t *testing.T) {
	c := shirtCatalog(10)
	b := NewSaleBuilder(fixedClock)

	assert.ErrorIs(t, b.AddItem(c, 2), domain.ErrOutOfStock)
	assert.ErrorIs(t, b.AddItem(c, 99), domain.ErrNotFound)
	assert.Empty(t, b.Draft().Items)
}

func TestSaleBuilder_AddExistingItemMergesLine(t *testing.T) {
	c := shirtCatalog(2)
	b := NewSaleBuilder(fixedClock)

	require.NoError(t, b.AddItem(c, 1))
	require.NoError(t, b.AddItem(c, 1))
	assert.ErrorIs(t, b.AddItem(c, 1), domain.ErrInsufficientStock)

	d := b.Draft()
	require.Len(t, d.Items, 1)
	assert.Equal(t, 2, d.Items[0].Quantity)
}

func TestSaleBuilder_LineSnapshotsCatalog(t *testing.T) {
	c := shirtCatalog(10)
	b := NewSaleBuilder(fixedClock)
	require.NoError(t, b.AddItem(c, 1))

	_, err := c.AddOrUpdate(domain.ItemDraft{ID: intPtr(1), Name: "Renamed", Category: "Tops", Price: "99", Quantity: "10"})
	require.NoError(t, err)

	line := b.Draft().Items[0]
	assert.Equal(t, "Shirt", line.Name)
	assert.True(t, line.Price.Equal(decimal.RequireFromString("29.90")))
}

func TestSaleBuilder_QuantityCannotDropBelowOne(t *testing.T) {
	c := shirtCatalog(10)
	b := NewSaleBuilder(fixedClock)
	require.NoError(t, b.AddItem(c, 1))

	assert.ErrorIs(t, b.ChangeLineQuantity(c, 0, -1), domain.ErrInvalidQuantity)
	assert.Equal(t, 1, b.Draft().Items[0].Quantity)

	assert.ErrorIs(t, b.ChangeLineQuantity(c, 3, 1), domain.ErrNotFound)
}

func TestSaleBuilder_ShrinkIgnoresStock(t *testing.T) {
	c := shirtCatalog(5)
	b := NewSaleBuilder(fixedClock)
	require.NoError(t, b.AddItem(c, 1))
	require.NoError(t, b.ChangeLineQuantity(c, 0, 4))

	require.NoError(t, c.AdjustQuantity(1, -5))
	require.NoError(t, b.ChangeLineQuantity(c, 0, -2))
	assert.Equal(t, 3, b.Draft().Items[0].Quantity)
}

func TestSaleBuilder_RemoveLineAndDate(t *testing.T) {
	c := NewCatalog([]domain.InventoryItem{
		{ID: 1, Name: "A", Price: decimal.NewFromInt(2), Quantity: 5},
		{ID: 2, Name: "B", Price: decimal.NewFromInt(3), Quantity: 5},
	})
	b := NewSaleBuilder(fixedClock)
	require.NoError(t, b.AddItem(c, 1))
	require.NoError(t, b.AddItem(c, 2))

	require.NoError(t, b.RemoveLine(0))
	d := b.Draft()
	require.Len(t, d.Items, 1)
	assert.Equal(t, "B", d.Items[0].Name)
	assert.True(t, d.Total.Equal(decimal.NewFromInt(3)))

	assert.ErrorIs(t, b.RemoveLine(5), domain.ErrNotFound)

	require.NoError(t, b.SetDate("yesterday"))
	assert.Equal(t, "yesterday", b.Draft().Date)

	err := b.SetDate("  ")
	assert.True(t, errors.Is(err, domain.ErrValidation))
	assert.Equal(t, "yesterday", b.Draft().Date)

	err = b.SetDate(strings.Repeat("x", domain.MaxDateLength+1))
	assert.True(t, errors.Is(err, domain.ErrValidation))
	assert.Equal(t, "yesterday", b.Draft().Date)
	require.NoError(t, b.SetDate(strings.Repeat("x", domain.MaxDateLength)))

	b.Reset()
	assert.Empty(t, b.Draft().Items)
	assert.Equal(t, "2024-05-01", b.Draft().Date)
}

func TestSaleBuilder_DraftIsACopy(t *testing.T) {
	c := shirtCatalog(10)
	b := NewSaleBuilder(fixedClock)
	require.NoError(t, b.AddItem(c, 1))

	d := b.Draft()
	d.Items[0].Quantity = 9

	assert.Equal(t, 1, b.Draft().Items[0].Quantity)
}

func TestSaleBuilder_CommitClearsDraft(t *testing.T) {
	c := shirtCatalog(10)
	l := NewLedger(nil)
	b := NewSaleBuilder(fixedClock)
	require.NoError(t, b.AddItem(c, 1))
	require.NoError(t, b.ChangeLineQuantity(c, 0, 3))

	sale, err := b.Commit(l, c)
	require.NoError(t, err)
	assert.Equal(t, 1, sale.ID)
	assert.Equal(t, 6, c.AvailableQuantity(1))
	assert.Empty(t, b.Draft().Items)
}

func TestSaleBuilder_FailedCommitKeepsDraft(t *testing.T) {
	c := shirtCatalog(10)
	l := NewLedger(nil)
	b := NewSaleBuilder(fixedClock)
	require.NoError(t, b.AddItem(c, 1))
	require.NoError(t, b.ChangeLineQuantity(c, 0, 3))

	require.NoError(t, c.AdjustQuantity(1, -8))

	_, err := b.Commit(l, c)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.Equal(t, 4, b.Draft().Items[0].Quantity)
	assert.Equal(t, 2, c.AvailableQuantity(1))
	assert.Empty(t, l.List())
}
