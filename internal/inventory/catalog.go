package inventory

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"stockbook/internal/domain"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var validate = validator.New()

// Catalog owns the inventory items, keyed by id and kept in insertion order
type Catalog struct {
	items []domain.InventoryItem
	index map[int]int
}

// NewCatalog creates a catalog from previously persisted items.
// Later duplicates of an id replace earlier ones.
func NewCatalog(items []domain.InventoryItem) *Catalog {
	c := &Catalog{index: make(map[int]int, len(items))}
	for _, item := range items {
		if pos, ok := c.index[item.ID]; ok {
			c.items[pos] = item
			continue
		}
		c.index[item.ID] = len(c.items)
		c.items = append(c.items, item)
	}
	return c
}

// AddOrUpdate validates the draft and stores it. A nil draft ID gets
// max(existing ids)+1; a known ID replaces that item in place.
func (c *Catalog) AddOrUpdate(draft domain.ItemDraft) (domain.InventoryItem, error) {
	item, err := parseDraft(draft)
	if err != nil {
		return domain.InventoryItem{}, err
	}

	if draft.ID == nil {
		item.ID = c.nextID()
	} else {
		item.ID = *draft.ID
	}

	if pos, ok := c.index[item.ID]; ok {
		c.items[pos] = item
		return item, nil
	}

	c.index[item.ID] = len(c.items)
	c.items = append(c.items, item)
	return item, nil
}

// Delete removes the item; unknown ids are ignored
func (c *Catalog) Delete(id int) {
	pos, ok := c.index[id]
	if !ok {
		return
	}

	c.items = append(c.items[:pos], c.items[pos+1:]...)
	delete(c.index, id)
	for i := pos; i < len(c.items); i++ {
		c.index[c.items[i].ID] = i
	}
}

// AdjustQuantity applies quantity += delta
func (c *Catalog) AdjustQuantity(id, delta int) error {
	pos, ok := c.index[id]
	if !ok {
		return fmt.Errorf("item %d: %w", id, domain.ErrNotFound)
	}

	next := c.items[pos].Quantity + delta
	if next < 0 {
		return fmt.Errorf("item %d has %d, needs %d: %w", id, c.items[pos].Quantity, -delta, domain.ErrInsufficientStock)
	}

	c.items[pos].Quantity = next
	return nil
}

// AvailableQuantity returns the stock on hand, 0 for unknown ids
func (c *Catalog) AvailableQuantity(id int) int {
	pos, ok := c.index[id]
	if !ok {
		return 0
	}
	return c.items[pos].Quantity
}

// Get returns a copy of the item
func (c *Catalog) Get(id int) (domain.InventoryItem, bool) {
	pos, ok := c.index[id]
	if !ok {
		return domain.InventoryItem{}, false
	}
	return c.items[pos], true
}

// List returns a copy of all items in insertion order
func (c *Catalog) List() []domain.InventoryItem {
	return append([]domain.InventoryItem{}, c.items...)
}

// Search matches the term case-insensitively against name or category.
// An empty term returns every item.
func (c *Catalog) Search(term string) []domain.InventoryItem {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return c.List()
	}

	matches := []domain.InventoryItem{}
	for _, item := range c.items {
		if strings.Contains(strings.ToLower(item.Name), term) ||
			strings.Contains(strings.ToLower(item.Category), term) {
			matches = append(matches, item)
		}
	}
	return matches
}

// applyDeltas adds every delta or none of them. Unknown ids are skipped,
// except that a negative delta on an unknown id fails as insufficient stock
// unless skipMissing is set. The applied deltas are returned.
func (c *Catalog) applyDeltas(deltas map[int]int, order []int, skipMissing bool) (map[int]int, error) {
	applied := make(map[int]int, len(deltas))
	for _, id := range order {
		delta := deltas[id]
		pos, ok := c.index[id]
		if !ok {
			if delta < 0 && !skipMissing {
				return nil, fmt.Errorf("item %d is no longer in the catalog: %w", id, domain.ErrInsufficientStock)
			}
			continue
		}
		if c.items[pos].Quantity+delta < 0 {
			return nil, fmt.Errorf("%s has %d in stock, needs %d: %w",
				c.items[pos].Name, c.items[pos].Quantity, -delta, domain.ErrInsufficientStock)
		}
		applied[id] = delta
	}

	for id, delta := range applied {
		c.items[c.index[id]].Quantity += delta
	}
	return applied, nil
}

func (c *Catalog) nextID() int {
	maxID := 0
	for _, item := range c.items {
		if item.ID > maxID {
			maxID = item.ID
		}
	}
	return maxID + 1
}

func parseDraft(draft domain.ItemDraft) (domain.InventoryItem, error) {
	verr := &domain.ValidationError{}

	if err := validate.Struct(draft); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return domain.InventoryItem{}, fmt.Errorf("failed to validate item: %w", err)
		}
		for _, fe := range fieldErrs {
			message := "This field is required"
			if fe.Tag() == "max" {
				message = "Must be at most " + fe.Param() + " characters"
			}
			verr.Add(strings.ToLower(fe.Field()), message)
		}
		return domain.InventoryItem{}, verr
	}

	name := strings.TrimSpace(draft.Name)
	category := strings.TrimSpace(draft.Category)
	if name == "" {
		verr.Add("name", "This field is required")
	}
	if category == "" {
		verr.Add("category", "This field is required")
	}

	price, err := decimal.NewFromString(strings.TrimSpace(draft.Price))
	if err != nil {
		verr.Add("price", "Price must be a number")
	} else if price.IsNegative() {
		verr.Add("price", "Price must be greater than or equal to 0")
	} else if !price.Equal(price.Truncate(domain.PriceScale)) {
		verr.Add("price", fmt.Sprintf("Price can have at most %d decimal places", domain.PriceScale))
	}

	quantity, err := strconv.Atoi(strings.TrimSpace(draft.Quantity))
	if err != nil {
		verr.Add("quantity", "Quantity must be a whole number")
	} else if quantity < 0 {
		verr.Add("quantity", "Quantity must be greater than or equal to 0")
	}

	if draft.ID != nil && *draft.ID < 1 {
		verr.Add("id", "ID must be greater than 0")
	}

	if err := verr.OrNil(); err != nil {
		return domain.InventoryItem{}, err
	}

	return domain.InventoryItem{
		Name:     name,
		Category: category,
		Price:    price,
		Quantity: quantity,
		PhotoRef: strings.TrimSpace(draft.PhotoRef),
	}, nil
}
