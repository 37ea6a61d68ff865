package repository

import (
	"context"
	"sync"

	"stockbook/internal/domain"
)

type memoryStore struct {
	mu    sync.RWMutex
	items []domain.InventoryItem
	sales []domain.Sale
}

// NewMemoryStore creates a Store that keeps copies in process memory
func NewMemoryStore() Store {
	return &memoryStore{
		items: []domain.InventoryItem{},
		sales: []domain.Sale{},
	}
}

func (s *memoryStore) Load(_ context.Context) ([]domain.InventoryItem, []domain.Sale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return cloneItems(s.items), cloneSales(s.sales), nil
}

func (s *memoryStore) Save(_ context.Context, items []domain.InventoryItem, sales []domain.Sale) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = cloneItems(items)
	s.sales = cloneSales(sales)
	return nil
}
