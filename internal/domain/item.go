package domain

import (
	"github.com/shopspring/decimal"
)

// InventoryItem represents a product held in the catalog
type InventoryItem struct {
	ID       int             `json:"id" db:"id"`
	Name     string          `json:"name" db:"name"`
	Category string          `json:"category" db:"category"`
	Price    decimal.Decimal `json:"price" db:"price"`
	Quantity int             `json:"quantity" db:"quantity"`
	PhotoRef string          `json:"photo_ref" db:"photo_ref"`
}

// MaxTextLength bounds item names and categories, in characters
const MaxTextLength = 255

// PriceScale is the number of decimal places a price may carry
const PriceScale = 4

// StockValue returns price * quantity for the item
func (i InventoryItem) StockValue() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// ItemDraft is the unparsed form input for creating or replacing an item.
// A nil ID asks the catalog to assign a fresh one.
type ItemDraft struct {
	ID       *int   `json:"id,omitempty"`
	Name     string `json:"name" validate:"required,max=255"`
	Category string `json:"category" validate:"required,max=255"`
	Price    string `json:"price" validate:"required"`
	Quantity string `json:"quantity" validate:"required"`
	PhotoRef string `json:"photo_ref"`
}
