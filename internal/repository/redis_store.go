package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"stockbook/internal/domain"

	"github.com/redis/go-redis/v9"
)

type redisStore struct {
	client       *redis.Client
	inventoryKey string
	salesKey     string
}

// NewRedisStore creates a Store that keeps inventory and sales as two JSON
// blobs under <prefix>:inventory and <prefix>:sales
func NewRedisStore(client *redis.Client, prefix string) Store {
	return &redisStore{
		client:       client,
		inventoryKey: prefix + ":inventory",
		salesKey:     prefix + ":sales",
	}
}

func (r *redisStore) Load(ctx context.Context) ([]domain.InventoryItem, []domain.Sale, error) {
	values, err := r.client.MGet(ctx, r.inventoryKey, r.salesKey).Result()
	if err != nil {
		return nil, nil, fmt.Errorf("%w: failed to read blobs: %w", domain.ErrStorage, err)
	}

	items := []domain.InventoryItem{}
	if err := decodeBlob(values[0], &items); err != nil {
		return nil, nil, fmt.Errorf("%w: failed to decode inventory: %w", domain.ErrStorage, err)
	}

	sales := []domain.Sale{}
	if err := decodeBlob(values[1], &sales); err != nil {
		return nil, nil, fmt.Errorf("%w: failed to decode sales: %w", domain.ErrStorage, err)
	}

	return items, sales, nil
}

// Save writes both blobs in a single MULTI/EXEC
func (r *redisStore) Save(ctx context.Context, items []domain.InventoryItem, sales []domain.Sale) error {
	if items == nil {
		items = []domain.InventoryItem{}
	}
	if sales == nil {
		sales = []domain.Sale{}
	}

	inventoryBlob, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("%w: failed to encode inventory: %w", domain.ErrStorage, err)
	}
	salesBlob, err := json.Marshal(sales)
	if err != nil {
		return fmt.Errorf("%w: failed to encode sales: %w", domain.ErrStorage, err)
	}

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, r.inventoryKey, inventoryBlob, 0)
		pipe.Set(ctx, r.salesKey, salesBlob, 0)
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: failed to write blobs: %w", domain.ErrStorage, err)
	}

	return nil
}

func decodeBlob(value interface{}, target interface{}) error {
	if value == nil {
		return nil
	}
	raw, ok := value.(string)
	if !ok {
		return fmt.Errorf("unexpected blob type %T", value)
	}
	return json.Unmarshal([]byte(raw), target)
}
