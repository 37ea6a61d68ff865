package domain

import (
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// DateLayout is the ISO calendar date form sales are entered in
const DateLayout = "2006-01-02"

// MaxDateLength bounds the free-text sale date, in characters
const MaxDateLength = 64

// SaleLineItem is one product-quantity entry of a sale.
// Name and Price are copied from the catalog when the line is created and
// never follow later catalog changes.
type SaleLineItem struct {
	ItemID   int             `json:"item_id" db:"item_id"`
	Name     string          `json:"name" db:"name"`
	Price    decimal.Decimal `json:"price" db:"price"`
	Quantity int             `json:"quantity" db:"quantity"`
}

// Subtotal returns price * quantity for the line
func (l SaleLineItem) Subtotal() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Sale represents a committed transaction in the ledger.
// Date is kept exactly as entered.
type Sale struct {
	ID    int             `json:"id" db:"id"`
	Date  string          `json:"date" db:"date"`
	Items []SaleLineItem  `json:"items"`
	Total decimal.Decimal `json:"total" db:"total"`
}

// Units returns the number of units sold across all lines
func (s Sale) Units() int {
	units := 0
	for _, line := range s.Items {
		units += line.Quantity
	}
	return units
}

// Clone returns a copy that shares no line storage with s
func (s Sale) Clone() Sale {
	c := s
	c.Items = append([]SaleLineItem(nil), s.Items...)
	return c
}

// LineTotal sums price * quantity over lines
func LineTotal(lines []SaleLineItem) decimal.Decimal {
	total := decimal.Zero
	for _, line := range lines {
		total = total.Add(line.Subtotal())
	}
	return total
}

// Draft is the in-progress sale held by the sale builder.
// EditingID is non-zero when the draft was loaded from a committed sale.
type Draft struct {
	EditingID int             `json:"editing_id,omitempty"`
	Date      string          `json:"date"`
	Items     []SaleLineItem  `json:"items"`
	Total     decimal.Decimal `json:"total"`
}

// Editing reports whether the draft replaces an existing sale on commit
func (d Draft) Editing() bool {
	return d.EditingID != 0
}

// CheckSaleDate rejects a blank or overlong free-text sale date
func CheckSaleDate(text string) error {
	switch {
	case strings.TrimSpace(text) == "":
		return &ValidationError{Fields: []FieldError{{Field: "date", Message: "This field is required"}}}
	case utf8.RuneCountInString(text) > MaxDateLength:
		return &ValidationError{Fields: []FieldError{{Field: "date", Message: "Must be at most " + strconv.Itoa(MaxDateLength) + " characters"}}}
	}
	return nil
}

// ParseSaleDate reads the calendar day of a sale date. Plain ISO dates and
// ISO timestamps are accepted.
func ParseSaleDate(text string) (time.Time, bool) {
	text = strings.TrimSpace(text)
	for _, layout := range []string{DateLayout, time.RFC3339, "2006-01-02T15:04:05", "2006-01-02T15:04"} {
		if t, err := time.Parse(layout, text); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), true
		}
	}
	return time.Time{}, false
}
