package repository

import (
	"context"
	"database/sql"
	"fmt"

	"stockbook/internal/domain"
)

type postgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a Store backed by the inventory_items, sales and
// sale_items tables. Sales are stored one row per line and nested again on
// load.
func NewPostgresStore(db *sql.DB) Store {
	return &postgresStore{db: db}
}

// Load reads every item and sale in their saved order
func (r *postgresStore) Load(ctx context.Context) ([]domain.InventoryItem, []domain.Sale, error) {
	items, err := r.loadItems(ctx)
	if err != nil {
		return nil, nil, err
	}

	sales, err := r.loadSales(ctx)
	if err != nil {
		return nil, nil, err
	}

	return items, sales, nil
}

// Save replaces all stored rows inside one transaction using parameterized queries
func (r *postgresStore) Save(ctx context.Context, items []domain.InventoryItem, sales []domain.Sale) error {
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return fmt.Errorf("%w: failed to begin transaction: %w", domain.ErrStorage, err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, stmt := range []string{
		`DELETE FROM sale_items`,
		`DELETE FROM sales`,
		`DELETE FROM inventory_items`,
	} {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("%w: failed to clear tables: %w", domain.ErrStorage, err)
		}
	}

	itemQuery := `
		INSERT INTO inventory_items (id, position, name, category, price, quantity, photo_ref)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	for pos, item := range items {
		_, err := tx.ExecContext(
			ctx,
			itemQuery,
			item.ID,
			pos,
			item.Name,
			item.Category,
			item.Price,
			item.Quantity,
			item.PhotoRef,
		)
		if err != nil {
			return fmt.Errorf("%w: failed to save item %d: %w", domain.ErrStorage, item.ID, err)
		}
	}

	saleQuery := `
		INSERT INTO sales (id, position, sale_date, total)
		VALUES ($1, $2, $3, $4)
	`
	lineQuery := `
		INSERT INTO sale_items (sale_id, line_no, item_id, name, price, quantity)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	for pos, sale := range sales {
		if _, err := tx.ExecContext(ctx, saleQuery, sale.ID, pos, sale.Date, sale.Total); err != nil {
			return fmt.Errorf("%w: failed to save sale %d: %w", domain.ErrStorage, sale.ID, err)
		}
		for lineNo, line := range sale.Items {
			_, err := tx.ExecContext(
				ctx,
				lineQuery,
				sale.ID,
				lineNo,
				line.ItemID,
				line.Name,
				line.Price,
				line.Quantity,
			)
			if err != nil {
				return fmt.Errorf("%w: failed to save line %d of sale %d: %w", domain.ErrStorage, lineNo, sale.ID, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: failed to commit: %w", domain.ErrStorage, err)
	}

	return nil
}

func (r *postgresStore) loadItems(ctx context.Context) ([]domain.InventoryItem, error) {
	query := `
		SELECT id, name, category, price, quantity, photo_ref
		FROM inventory_items
		ORDER BY position ASC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to list items: %w", domain.ErrStorage, err)
	}
	defer rows.Close()

	items := []domain.InventoryItem{}
	for rows.Next() {
		item := domain.InventoryItem{}
		err := rows.Scan(
			&item.ID,
			&item.Name,
			&item.Category,
			&item.Price,
			&item.Quantity,
			&item.PhotoRef,
		)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to scan item: %w", domain.ErrStorage, err)
		}
		items = append(items, item)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: error iterating items: %w", domain.ErrStorage, err)
	}

	return items, nil
}

func (r *postgresStore) loadSales(ctx context.Context) ([]domain.Sale, error) {
	query := `
		SELECT id, sale_date, total
		FROM sales
		ORDER BY position ASC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to list sales: %w", domain.ErrStorage, err)
	}
	defer rows.Close()

	sales := []domain.Sale{}
	byID := map[int]int{}
	for rows.Next() {
		sale := domain.Sale{Items: []domain.SaleLineItem{}}
		if err := rows.Scan(&sale.ID, &sale.Date, &sale.Total); err != nil {
			return nil, fmt.Errorf("%w: failed to scan sale: %w", domain.ErrStorage, err)
		}
		byID[sale.ID] = len(sales)
		sales = append(sales, sale)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: error iterating sales: %w", domain.ErrStorage, err)
	}

	lineQuery := `
		SELECT sale_id, item_id, name, price, quantity
		FROM sale_items
		ORDER BY sale_id ASC, line_no ASC
	`

	lineRows, err := r.db.QueryContext(ctx, lineQuery)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to list sale lines: %w", domain.ErrStorage, err)
	}
	defer lineRows.Close()

	for lineRows.Next() {
		var saleID int
		line := domain.SaleLineItem{}
		err := lineRows.Scan(
			&saleID,
			&line.ItemID,
			&line.Name,
			&line.Price,
			&line.Quantity,
		)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to scan sale line: %w", domain.ErrStorage, err)
		}
		pos, ok := byID[saleID]
		if !ok {
			continue
		}
		sales[pos].Items = append(sales[pos].Items, line)
	}
	if err = lineRows.Err(); err != nil {
		return nil, fmt.Errorf("%w: error iterating sale lines: %w", domain.ErrStorage, err)
	}

	// the total column is rounded to its declared scale; the lines are exact
	for i := range sales {
		if len(sales[i].Items) > 0 {
			sales[i].Total = domain.LineTotal(sales[i].Items)
		}
	}

	return sales, nil
}
