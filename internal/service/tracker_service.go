package service

import (
	"context"
	"fmt"
	"sync"

	"stockbook/internal/analytics"
	"stockbook/internal/domain"
	"stockbook/internal/inventory"
	"stockbook/internal/repository"

	"go.uber.org/zap"
)

// Dashboard is the reporting view for one period
type Dashboard struct {
	Mode        analytics.Mode             `json:"mode"`
	Reference   string                     `json:"reference"`
	Summary     analytics.PeriodSummary    `json:"summary"`
	Revenue     []analytics.Bucket         `json:"revenue"`
	TopProducts []analytics.ProductSales   `json:"top_products"`
	TopStock    []analytics.StockLevel     `json:"top_stock"`
	Inventory   analytics.InventorySummary `json:"inventory"`
	Sales       []domain.Sale              `json:"sales"`
}

// TrackerService defines the interface for catalog, draft and ledger operations.
// Mutations update memory first and then persist; a failed save is logged and
// marks the service dirty instead of failing the call.
type TrackerService interface {
	Load(ctx context.Context) error

	SaveItem(ctx context.Context, draft domain.ItemDraft) (domain.InventoryItem, error)
	DeleteItem(ctx context.Context, id int) error
	GetItem(ctx context.Context, id int) (domain.InventoryItem, error)
	ListItems(ctx context.Context) []domain.InventoryItem
	SearchItems(ctx context.Context, term string) []domain.InventoryItem
	AvailableQuantity(ctx context.Context, id int) int

	Draft(ctx context.Context) domain.Draft
	AddLine(ctx context.Context, itemID int) (domain.Draft, error)
	ChangeLineQuantity(ctx context.Context, index, delta int) (domain.Draft, error)
	RemoveLine(ctx context.Context, index int) (domain.Draft, error)
	SetDraftDate(ctx context.Context, date string) (domain.Draft, error)
	ResetDraft(ctx context.Context) (domain.Draft, error)
	CommitDraft(ctx context.Context) (domain.Sale, error)
	BeginEdit(ctx context.Context, saleID int) (domain.Draft, error)
	CancelEdit(ctx context.Context) (domain.Draft, error)

	ListSales(ctx context.Context) []domain.Sale
	GetSale(ctx context.Context, id int) (domain.Sale, error)
	SalesInRange(ctx context.Context, from, to string) ([]domain.Sale, error)
	DeleteSale(ctx context.Context, id int) error

	Dashboard(ctx context.Context, mode analytics.Mode, reference string, n int) (Dashboard, error)
	InventorySummary(ctx context.Context) analytics.InventorySummary
	Snapshot(ctx context.Context) ([]domain.InventoryItem, []domain.Sale)

	Dirty() bool
	Sync(ctx context.Context) error
}

type trackerService struct {
	mu      sync.Mutex
	store   repository.Store
	engine  *analytics.Engine
	logger  *zap.Logger
	catalog *inventory.Catalog
	ledger  *inventory.Ledger
	builder *inventory.SaleBuilder
	dirty   bool
}

// NewTrackerService creates a TrackerService with an empty catalog and ledger.
// Call Load to read persisted state.
func NewTrackerService(
	store repository.Store,
	engine *analytics.Engine,
	logger *zap.Logger,
	now inventory.Clock,
) TrackerService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if engine == nil {
		engine = analytics.NewEngine(logger)
	}
	return &trackerService{
		store:   store,
		engine:  engine,
		logger:  logger,
		catalog: inventory.NewCatalog(nil),
		ledger:  inventory.NewLedger(nil),
		builder: inventory.NewSaleBuilder(now),
	}
}

// Load replaces the in-memory state with what the store holds
func (s *trackerService) Load(ctx context.Context) error {
	items, sales, err := s.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load state: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.catalog = inventory.NewCatalog(items)
	s.ledger = inventory.NewLedger(sales)
	s.builder.Reset()
	s.dirty = false

	s.logger.Info("State loaded",
		zap.Int("items", len(items)),
		zap.Int("sales", len(sales)),
	)
	return nil
}

func (s *trackerService) SaveItem(ctx context.Context, draft domain.ItemDraft) (domain.InventoryItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, err := s.catalog.AddOrUpdate(draft)
	if err != nil {
		return domain.InventoryItem{}, err
	}

	s.persist(ctx)
	return item, nil
}

func (s *trackerService) DeleteItem(ctx context.Context, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.catalog.Get(id); !ok {
		return nil
	}
	s.catalog.Delete(id)

	s.persist(ctx)
	return nil
}

func (s *trackerService) GetItem(_ context.Context, id int) (domain.InventoryItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.catalog.Get(id)
	if !ok {
		return domain.InventoryItem{}, fmt.Errorf("item %d: %w", id, domain.ErrNotFound)
	}
	return item, nil
}

func (s *trackerService) ListItems(_ context.Context) []domain.InventoryItem {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.catalog.List()
}

func (s *trackerService) SearchItems(_ context.Context, term string) []domain.InventoryItem {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.catalog.Search(term)
}

func (s *trackerService) AvailableQuantity(_ context.Context, id int) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.catalog.AvailableQuantity(id)
}

func (s *trackerService) Draft(_ context.Context) domain.Draft {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.builder.Draft()
}

func (s *trackerService) AddLine(_ context.Context, itemID int) (domain.Draft, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.builder.AddItem(s.catalog, itemID); err != nil {
		return s.builder.Draft(), err
	}
	return s.builder.Draft(), nil
}

func (s *trackerService) ChangeLineQuantity(_ context.Context, index, delta int) (domain.Draft, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.builder.ChangeLineQuantity(s.catalog, index, delta); err != nil {
		return s.builder.Draft(), err
	}
	return s.builder.Draft(), nil
}

func (s *trackerService) RemoveLine(_ context.Context, index int) (domain.Draft, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.builder.RemoveLine(index); err != nil {
		return s.builder.Draft(), err
	}
	return s.builder.Draft(), nil
}

func (s *trackerService) SetDraftDate(_ context.Context, date string) (domain.Draft, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.builder.SetDate(date); err != nil {
		return s.builder.Draft(), err
	}
	return s.builder.Draft(), nil
}

// ResetDraft clears the draft. An open edit is cancelled first.
func (s *trackerService) ResetDraft(ctx context.Context) (domain.Draft, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, editing := s.ledger.Editing(); editing {
		if err := s.builder.CancelEdit(s.ledger, s.catalog); err != nil {
			return s.builder.Draft(), err
		}
		s.persist(ctx)
		return s.builder.Draft(), nil
	}

	s.builder.Reset()
	return s.builder.Draft(), nil
}

func (s *trackerService) CommitDraft(ctx context.Context) (domain.Sale, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sale, err := s.builder.Commit(s.ledger, s.catalog)
	if err != nil {
		return domain.Sale{}, err
	}

	s.logger.Info("Sale committed",
		zap.Int("sale_id", sale.ID),
		zap.String("date", sale.Date),
		zap.String("total", sale.Total.String()),
		zap.Int("lines", len(sale.Items)),
	)

	s.persist(ctx)
	return sale, nil
}

func (s *trackerService) BeginEdit(ctx context.Context, saleID int) (domain.Draft, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.builder.BeginEdit(s.ledger, s.catalog, saleID); err != nil {
		return s.builder.Draft(), err
	}

	s.logger.Info("Sale edit started", zap.Int("sale_id", saleID))

	s.persist(ctx)
	return s.builder.Draft(), nil
}

func (s *trackerService) CancelEdit(ctx context.Context) (domain.Draft, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.builder.CancelEdit(s.ledger, s.catalog); err != nil {
		return s.builder.Draft(), err
	}

	s.persist(ctx)
	return s.builder.Draft(), nil
}

// ListSales returns the sales newest first
func (s *trackerService) ListSales(_ context.Context) []domain.Sale {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.ledger.NewestFirst()
}

func (s *trackerService) GetSale(_ context.Context, id int) (domain.Sale, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sale, ok := s.ledger.Get(id)
	if !ok {
		return domain.Sale{}, fmt.Errorf("sale %d: %w", id, domain.ErrNotFound)
	}
	return sale, nil
}

func (s *trackerService) SalesInRange(_ context.Context, from, to string) ([]domain.Sale, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.ledger.InRange(from, to)
}

func (s *trackerService) DeleteSale(ctx context.Context, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ledger.Delete(id, s.catalog); err != nil {
		return err
	}

	s.logger.Info("Sale deleted", zap.Int("sale_id", id))

	s.persist(ctx)
	return nil
}

// Dashboard filters the active sales to the period around reference. The
// revenue series and summary cover that period; top products and stock cover
// everything.
func (s *trackerService) Dashboard(_ context.Context, mode analytics.Mode, reference string, n int) (Dashboard, error) {
	s.mu.Lock()
	items := s.catalog.List()
	sales := s.ledger.Active()
	s.mu.Unlock()

	filtered, err := s.engine.FilterByPeriod(sales, mode, reference)
	if err != nil {
		return Dashboard{}, err
	}

	return Dashboard{
		Mode:        mode,
		Reference:   reference,
		Summary:     s.engine.Summarize(filtered),
		Revenue:     s.engine.RevenueSeries(filtered, mode),
		TopProducts: s.engine.TopProducts(sales, n),
		TopStock:    s.engine.TopStockItems(items, n),
		Inventory:   s.engine.SummarizeInventory(items),
		Sales:       filtered,
	}, nil
}

func (s *trackerService) InventorySummary(_ context.Context) analytics.InventorySummary {
	s.mu.Lock()
	items := s.catalog.List()
	s.mu.Unlock()

	return s.engine.SummarizeInventory(items)
}

// Snapshot returns the catalog and the active sales, newest first
func (s *trackerService) Snapshot(_ context.Context) ([]domain.InventoryItem, []domain.Sale) {
	s.mu.Lock()
	defer s.mu.Unlock()

	editingID, editing := s.ledger.Editing()
	newest := s.ledger.NewestFirst()
	sales := make([]domain.Sale, 0, len(newest))
	for _, sale := range newest {
		if editing && sale.ID == editingID {
			continue
		}
		sales = append(sales, sale)
	}
	return s.catalog.List(), sales
}

func (s *trackerService) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.dirty
}

// Sync retries persisting the current state
func (s *trackerService) Sync(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.save(ctx); err != nil {
		s.dirty = true
		return err
	}
	s.dirty = false
	return nil
}

// persist saves after a mutation. Failure leaves memory authoritative.
func (s *trackerService) persist(ctx context.Context) {
	if err := s.save(ctx); err != nil {
		s.logger.Warn("Failed to persist state, will retry on next change",
			zap.Error(err),
		)
		s.dirty = true
		return
	}
	s.dirty = false
}

// save writes the last committed state. While an edit is open that is the
// world before BeginEdit, so a restart loses the edit and never the sale.
func (s *trackerService) save(ctx context.Context) error {
	items, sales := s.ledger.Durable(s.catalog)
	return s.store.Save(ctx, items, sales)
}
