package transport

import (
	"net/http"

	"stockbook/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// SalesHandler handles HTTP requests for committed sales
type SalesHandler struct {
	svc    service.TrackerService
	logger *zap.Logger
}

// NewSalesHandler creates a new SalesHandler
func NewSalesHandler(svc service.TrackerService, logger *zap.Logger) *SalesHandler {
	return &SalesHandler{svc: svc, logger: logger}
}

// RegisterRoutes registers all ledger routes
func (h *SalesHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api/sales", func(r chi.Router) {
		r.Get("/", h.List)
		r.Get("/{id}", h.Get)
		r.Delete("/{id}", h.Delete)
		r.Post("/{id}/edit", h.BeginEdit)
	})
}

// List returns sales newest first. With ?from=&to= only sales dated in that
// inclusive range are returned.
func (h *SalesHandler) List(w http.ResponseWriter, r *http.Request) {
	from, to := r.URL.Query().Get("from"), r.URL.Query().Get("to")
	if from == "" && to == "" {
		respond(w, h.svc, http.StatusOK, h.svc.ListSales(r.Context()))
		return
	}

	sales, err := h.svc.SalesInRange(r.Context(), from, to)
	if err != nil {
		respondWithServiceError(w, h.logger, err, "list sales")
		return
	}
	respond(w, h.svc, http.StatusOK, sales)
}

// Get returns one sale
func (h *SalesHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := intParam(r, "id")
	if err != nil {
		respondWithServiceError(w, h.logger, err, "get sale")
		return
	}

	sale, err := h.svc.GetSale(r.Context(), id)
	if err != nil {
		respondWithServiceError(w, h.logger, err, "get sale")
		return
	}
	respond(w, h.svc, http.StatusOK, sale)
}

// Delete removes a sale and returns its quantities to stock
func (h *SalesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := intParam(r, "id")
	if err != nil {
		respondWithServiceError(w, h.logger, err, "delete sale")
		return
	}

	if err := h.svc.DeleteSale(r.Context(), id); err != nil {
		respondWithServiceError(w, h.logger, err, "delete sale")
		return
	}

	if h.svc.Dirty() {
		w.Header().Set(PersistWarningHeader, "true")
	}
	w.WriteHeader(http.StatusNoContent)
}

// BeginEdit loads the sale into the draft and restores its stock
func (h *SalesHandler) BeginEdit(w http.ResponseWriter, r *http.Request) {
	id, err := intParam(r, "id")
	if err != nil {
		respondWithServiceError(w, h.logger, err, "edit sale")
		return
	}

	draft, err := h.svc.BeginEdit(r.Context(), id)
	if err != nil {
		respondWithServiceError(w, h.logger, err, "edit sale")
		return
	}
	respond(w, h.svc, http.StatusOK, draft)
}
