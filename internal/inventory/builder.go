package inventory

import (
	"fmt"
	"time"

	"stockbook/internal/domain"

	"github.com/shopspring/decimal"
)

// Clock supplies the current time for defaulting draft dates
type Clock func() time.Time

// SaleBuilder owns the single in-progress sale. Lines do not reserve stock;
// availability is checked against the live catalog on every change and again
// at commit.
type SaleBuilder struct {
	draft domain.Draft
	now   Clock
}

// NewSaleBuilder creates an empty draft dated today
func NewSaleBuilder(now Clock) *SaleBuilder {
	if now == nil {
		now = time.Now
	}
	b := &SaleBuilder{now: now}
	b.Reset()
	return b
}

// Draft returns a copy of the current draft
func (b *SaleBuilder) Draft() domain.Draft {
	d := b.draft
	d.Items = append([]domain.SaleLineItem{}, b.draft.Items...)
	return d
}

// AddItem adds one unit of the catalog item, copying its name and price.
// An item already in the draft has its line incremented instead of getting a
// second line.
func (b *SaleBuilder) AddItem(c *Catalog, itemID int) error {
	item, ok := c.Get(itemID)
	if !ok {
		return fmt.Errorf("item %d: %w", itemID, domain.ErrNotFound)
	}
	if item.Quantity <= 0 {
		return fmt.Errorf("%s: %w", item.Name, domain.ErrOutOfStock)
	}

	for i, line := range b.draft.Items {
		if line.ItemID == itemID {
			return b.ChangeLineQuantity(c, i, 1)
		}
	}

	b.draft.Items = append(b.draft.Items, domain.SaleLineItem{
		ItemID:   item.ID,
		Name:     item.Name,
		Price:    item.Price,
		Quantity: 1,
	})
	b.recompute()
	return nil
}

// ChangeLineQuantity moves a line quantity by delta. The result must stay at
// or above 1 and, when growing, within the catalog's current stock.
func (b *SaleBuilder) ChangeLineQuantity(c *Catalog, index, delta int) error {
	if err := b.checkIndex(index); err != nil {
		return err
	}

	line := b.draft.Items[index]
	next := line.Quantity + delta
	if next < 1 {
		return fmt.Errorf("line %d would drop to %d: %w", index, next, domain.ErrInvalidQuantity)
	}

	if delta > 0 {
		wanted := b.quantityOf(line.ItemID) - line.Quantity + next
		if available := c.AvailableQuantity(line.ItemID); wanted > available {
			return fmt.Errorf("%s has %d in stock, draft needs %d: %w", line.Name, available, wanted, domain.ErrInsufficientStock)
		}
	}

	b.draft.Items[index].Quantity = next
	b.recompute()
	return nil
}

// RemoveLine deletes the line at index
func (b *SaleBuilder) RemoveLine(index int) error {
	if err := b.checkIndex(index); err != nil {
		return err
	}

	b.draft.Items = append(b.draft.Items[:index], b.draft.Items[index+1:]...)
	b.recompute()
	return nil
}

// SetDate replaces the draft date. Free text is kept as entered.
func (b *SaleBuilder) SetDate(date string) error {
	if err := domain.CheckSaleDate(date); err != nil {
		return err
	}
	b.draft.Date = date
	return nil
}

// Reset clears the draft and dates it today
func (b *SaleBuilder) Reset() {
	b.draft = domain.Draft{
		Date:  b.now().Format(domain.DateLayout),
		Items: []domain.SaleLineItem{},
		Total: decimal.Zero,
	}
}

// Commit records the draft in the ledger, as a new sale or as the
// replacement of the sale being edited, and clears the draft on success.
func (b *SaleBuilder) Commit(l *Ledger, c *Catalog) (domain.Sale, error) {
	sale, err := l.Commit(b.Draft(), c)
	if err != nil {
		return domain.Sale{}, err
	}
	b.Reset()
	return sale, nil
}

// BeginEdit loads a committed sale into the builder for editing. A fresh
// draft in progress is discarded.
func (b *SaleBuilder) BeginEdit(l *Ledger, c *Catalog, saleID int) error {
	draft, err := l.BeginEdit(saleID, c)
	if err != nil {
		return err
	}
	b.draft = draft
	return nil
}

// CancelEdit rolls back an open edit and clears the draft
func (b *SaleBuilder) CancelEdit(l *Ledger, c *Catalog) error {
	if err := l.CancelEdit(b.Draft(), c); err != nil {
		return err
	}
	b.Reset()
	return nil
}

func (b *SaleBuilder) checkIndex(index int) error {
	if index < 0 || index >= len(b.draft.Items) {
		return fmt.Errorf("line %d: %w", index, domain.ErrNotFound)
	}
	return nil
}

func (b *SaleBuilder) quantityOf(itemID int) int {
	total := 0
	for _, line := range b.draft.Items {
		if line.ItemID == itemID {
			total += line.Quantity
		}
	}
	return total
}

func (b *SaleBuilder) recompute() {
	b.draft.Total = domain.LineTotal(b.draft.Items)
}
