package inventory

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"stockbook/internal/domain"
)

// editSession records what BeginEdit gave back to the catalog so a cancel
// can take exactly that amount again.
type editSession struct {
	saleID   int
	restored map[int]int
	order    []int
}

// Ledger owns the committed sales in insertion order
type Ledger struct {
	sales   []domain.Sale
	editing *editSession
}

// NewLedger creates a ledger from previously persisted sales
func NewLedger(sales []domain.Sale) *Ledger {
	l := &Ledger{sales: make([]domain.Sale, 0, len(sales))}
	for _, sale := range sales {
		l.sales = append(l.sales, sale.Clone())
	}
	return l
}

// List returns every sale, oldest first
func (l *Ledger) List() []domain.Sale {
	out := make([]domain.Sale, 0, len(l.sales))
	for _, sale := range l.sales {
		out = append(out, sale.Clone())
	}
	return out
}

// Active returns every sale except the one detached by an open edit
func (l *Ledger) Active() []domain.Sale {
	out := make([]domain.Sale, 0, len(l.sales))
	for _, sale := range l.sales {
		if l.editing != nil && sale.ID == l.editing.saleID {
			continue
		}
		out = append(out, sale.Clone())
	}
	return out
}

// Durable returns the state to persist: every sale, including one under
// edit, and the catalog as it was before BeginEdit gave that sale's stock
// back. Without an open edit this is the current state. Quantities lowered
// by hand during the edit floor at zero.
func (l *Ledger) Durable(c *Catalog) ([]domain.InventoryItem, []domain.Sale) {
	items := c.List()
	if l.editing != nil {
		for i := range items {
			restored, ok := l.editing.restored[items[i].ID]
			if !ok {
				continue
			}
			items[i].Quantity -= restored
			if items[i].Quantity < 0 {
				items[i].Quantity = 0
			}
		}
	}
	return items, l.List()
}

// Get returns a copy of the sale
func (l *Ledger) Get(id int) (domain.Sale, bool) {
	pos := l.position(id)
	if pos < 0 {
		return domain.Sale{}, false
	}
	return l.sales[pos].Clone(), true
}

// Editing returns the id of the sale currently being edited
func (l *Ledger) Editing() (int, bool) {
	if l.editing == nil {
		return 0, false
	}
	return l.editing.saleID, true
}

// NewestFirst returns the sales ordered by date descending; ties keep
// insertion order.
func (l *Ledger) NewestFirst() []domain.Sale {
	out := l.List()
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date > out[j].Date
	})
	return out
}

// InRange returns the sales dated within [from, to] inclusive. Sales with an
// unparseable date never match.
func (l *Ledger) InRange(from, to string) ([]domain.Sale, error) {
	start, err := time.Parse(domain.DateLayout, strings.TrimSpace(from))
	if err != nil {
		return nil, &domain.ValidationError{Fields: []domain.FieldError{{Field: "from", Message: "Date must be YYYY-MM-DD"}}}
	}
	end, err := time.Parse(domain.DateLayout, strings.TrimSpace(to))
	if err != nil {
		return nil, &domain.ValidationError{Fields: []domain.FieldError{{Field: "to", Message: "Date must be YYYY-MM-DD"}}}
	}

	out := []domain.Sale{}
	for _, sale := range l.sales {
		day, ok := domain.ParseSaleDate(sale.Date)
		if !ok || day.Before(start) || day.After(end) {
			continue
		}
		out = append(out, sale.Clone())
	}
	return out, nil
}

// Commit validates the draft, takes its quantities from the catalog and
// appends it under a fresh id. Nothing changes on failure.
func (l *Ledger) Commit(draft domain.Draft, c *Catalog) (domain.Sale, error) {
	if draft.Editing() {
		return l.CommitEdit(draft, c)
	}

	sale, err := l.apply(draft, c)
	if err != nil {
		return domain.Sale{}, err
	}

	sale.ID = l.nextID()
	l.sales = append(l.sales, sale)
	return sale.Clone(), nil
}

// BeginEdit gives the sale's quantities back to the catalog and returns it
// as a draft tagged with the sale id. The ledger entry stays in place but is
// detached until CommitEdit or CancelEdit.
func (l *Ledger) BeginEdit(id int, c *Catalog) (domain.Draft, error) {
	if l.editing != nil {
		return domain.Draft{}, fmt.Errorf("sale %d: %w", l.editing.saleID, domain.ErrEditInProgress)
	}

	pos := l.position(id)
	if pos < 0 {
		return domain.Draft{}, fmt.Errorf("sale %d: %w", id, domain.ErrNotFound)
	}

	sale := l.sales[pos]
	deltas, order := lineDeltas(sale.Items, 1)
	restored, err := c.applyDeltas(deltas, order, true)
	if err != nil {
		return domain.Draft{}, err
	}

	l.editing = &editSession{saleID: id, restored: restored, order: order}

	return domain.Draft{
		EditingID: id,
		Date:      sale.Date,
		Items:     append([]domain.SaleLineItem{}, sale.Items...),
		Total:     domain.LineTotal(sale.Items),
	}, nil
}

// CommitEdit replaces the sale being edited with the draft content under the
// same id. On failure the edit stays open and the original entry is kept.
func (l *Ledger) CommitEdit(draft domain.Draft, c *Catalog) (domain.Sale, error) {
	if err := l.checkEdit(draft); err != nil {
		return domain.Sale{}, err
	}

	sale, err := l.apply(draft, c)
	if err != nil {
		return domain.Sale{}, err
	}

	sale.ID = draft.EditingID
	l.sales[l.position(sale.ID)] = sale
	l.editing = nil
	return sale.Clone(), nil
}

// CancelEdit takes back from the catalog exactly what BeginEdit restored and
// closes the edit without touching the ledger entry.
func (l *Ledger) CancelEdit(draft domain.Draft, c *Catalog) error {
	if err := l.checkEdit(draft); err != nil {
		return err
	}

	deltas := make(map[int]int, len(l.editing.restored))
	for id, qty := range l.editing.restored {
		deltas[id] = -qty
	}
	if _, err := c.applyDeltas(deltas, l.editing.order, true); err != nil {
		return err
	}

	l.editing = nil
	return nil
}

// Delete gives the sale's quantities back to the catalog and removes it
func (l *Ledger) Delete(id int, c *Catalog) error {
	pos := l.position(id)
	if pos < 0 {
		return fmt.Errorf("sale %d: %w", id, domain.ErrNotFound)
	}
	if l.editing != nil && l.editing.saleID == id {
		return fmt.Errorf("sale %d: %w", id, domain.ErrEditInProgress)
	}

	deltas, order := lineDeltas(l.sales[pos].Items, 1)
	if _, err := c.applyDeltas(deltas, order, true); err != nil {
		return err
	}

	l.sales = append(l.sales[:pos], l.sales[pos+1:]...)
	return nil
}

func (l *Ledger) checkEdit(draft domain.Draft) error {
	if l.editing == nil || !draft.Editing() {
		return fmt.Errorf("no edit open for sale %d: %w", draft.EditingID, domain.ErrNotFound)
	}
	if l.editing.saleID != draft.EditingID {
		return fmt.Errorf("sale %d: %w", l.editing.saleID, domain.ErrEditInProgress)
	}
	if l.position(draft.EditingID) < 0 {
		return fmt.Errorf("sale %d: %w", draft.EditingID, domain.ErrNotFound)
	}
	return nil
}

// apply validates the draft and decrements the catalog
func (l *Ledger) apply(draft domain.Draft, c *Catalog) (domain.Sale, error) {
	if len(draft.Items) == 0 {
		return domain.Sale{}, domain.ErrEmptySale
	}
	if err := domain.CheckSaleDate(draft.Date); err != nil {
		return domain.Sale{}, err
	}
	for i, line := range draft.Items {
		if line.Quantity < 1 {
			return domain.Sale{}, fmt.Errorf("line %d: %w", i, domain.ErrInvalidQuantity)
		}
	}

	deltas, order := lineDeltas(draft.Items, -1)
	if _, err := c.applyDeltas(deltas, order, false); err != nil {
		return domain.Sale{}, err
	}

	items := append([]domain.SaleLineItem{}, draft.Items...)
	return domain.Sale{
		Date:  draft.Date,
		Items: items,
		Total: domain.LineTotal(items),
	}, nil
}

func (l *Ledger) position(id int) int {
	for i, sale := range l.sales {
		if sale.ID == id {
			return i
		}
	}
	return -1
}

func (l *Ledger) nextID() int {
	maxID := 0
	for _, sale := range l.sales {
		if sale.ID > maxID {
			maxID = sale.ID
		}
	}
	return maxID + 1
}

// lineDeltas sums line quantities per item id, multiplied by sign
func lineDeltas(lines []domain.SaleLineItem, sign int) (map[int]int, []int) {
	deltas := make(map[int]int, len(lines))
	order := make([]int, 0, len(lines))
	for _, line := range lines {
		if _, seen := deltas[line.ItemID]; !seen {
			order = append(order, line.ItemID)
		}
		deltas[line.ItemID] += sign * line.Quantity
	}
	return deltas, order
}
