package transport

import (
	"net/http"

	"stockbook/internal/domain"
	"stockbook/internal/middleware"
	"stockbook/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// CatalogHandler handles HTTP requests for inventory items
type CatalogHandler struct {
	svc    service.TrackerService
	logger *zap.Logger
}

// NewCatalogHandler creates a new CatalogHandler
func NewCatalogHandler(svc service.TrackerService, logger *zap.Logger) *CatalogHandler {
	return &CatalogHandler{svc: svc, logger: logger}
}

// RegisterRoutes registers all catalog routes
func (h *CatalogHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api/items", func(r chi.Router) {
		r.Get("/", h.List)
		r.Post("/", h.Create)
		r.Get("/{id}", h.Get)
		r.Put("/{id}", h.Update)
		r.Delete("/{id}", h.Delete)
	})
}

// List returns every item, or those matching ?q= on name or category
func (h *CatalogHandler) List(w http.ResponseWriter, r *http.Request) {
	term := r.URL.Query().Get("q")
	if term == "" {
		respond(w, h.svc, http.StatusOK, h.svc.ListItems(r.Context()))
		return
	}
	respond(w, h.svc, http.StatusOK, h.svc.SearchItems(r.Context(), term))
}

// Create adds an item under a fresh id, or under the id given in the body
func (h *CatalogHandler) Create(w http.ResponseWriter, r *http.Request) {
	var draft domain.ItemDraft
	if err := middleware.DecodeAndValidate(r, &draft); err != nil {
		respondWithServiceError(w, h.logger, err, "save item")
		return
	}

	item, err := h.svc.SaveItem(r.Context(), draft)
	if err != nil {
		respondWithServiceError(w, h.logger, err, "save item")
		return
	}

	h.logger.Info("Item saved", zap.Int("item_id", item.ID), zap.String("name", item.Name))
	respond(w, h.svc, http.StatusCreated, item)
}

// Get returns one item
func (h *CatalogHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := intParam(r, "id")
	if err != nil {
		respondWithServiceError(w, h.logger, err, "get item")
		return
	}

	item, err := h.svc.GetItem(r.Context(), id)
	if err != nil {
		respondWithServiceError(w, h.logger, err, "get item")
		return
	}

	respond(w, h.svc, http.StatusOK, item)
}

// Update replaces the item with the id in the path
func (h *CatalogHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := intParam(r, "id")
	if err != nil {
		respondWithServiceError(w, h.logger, err, "save item")
		return
	}

	var draft domain.ItemDraft
	if err := middleware.DecodeAndValidate(r, &draft); err != nil {
		respondWithServiceError(w, h.logger, err, "save item")
		return
	}
	draft.ID = &id

	item, err := h.svc.SaveItem(r.Context(), draft)
	if err != nil {
		respondWithServiceError(w, h.logger, err, "save item")
		return
	}

	respond(w, h.svc, http.StatusOK, item)
}

// Delete removes the item. Unknown ids succeed.
func (h *CatalogHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := intParam(r, "id")
	if err != nil {
		respondWithServiceError(w, h.logger, err, "delete item")
		return
	}

	if err := h.svc.DeleteItem(r.Context(), id); err != nil {
		respondWithServiceError(w, h.logger, err, "delete item")
		return
	}

	if h.svc.Dirty() {
		w.Header().Set(PersistWarningHeader, "true")
	}
	w.WriteHeader(http.StatusNoContent)
}
