package repository

import (
	"context"

	"stockbook/internal/domain"
)

// Store persists the whole inventory and sales history. Save overwrites
// everything previously stored; Load returns empty collections when nothing
// was saved yet. Failures wrap domain.ErrStorage.
type Store interface {
	Load(ctx context.Context) ([]domain.InventoryItem, []domain.Sale, error)
	Save(ctx context.Context, items []domain.InventoryItem, sales []domain.Sale) error
}

func cloneItems(items []domain.InventoryItem) []domain.InventoryItem {
	return append([]domain.InventoryItem{}, items...)
}

func cloneSales(sales []domain.Sale) []domain.Sale {
	out := make([]domain.Sale, 0, len(sales))
	for _, sale := range sales {
		out = append(out, sale.Clone())
	}
	return out
}
