package transport

import (
	"net/http"

	"stockbook/internal/middleware"
	"stockbook/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// AddLineRequest adds one unit of a catalog item to the draft
type AddLineRequest struct {
	ItemID int `json:"item_id" validate:"required,gt=0"`
}

// ChangeLineRequest moves a line quantity by Delta
type ChangeLineRequest struct {
	Delta int `json:"delta" validate:"ne=0"`
}

// DateRequest sets the draft date
type DateRequest struct {
	Date string `json:"date" validate:"required,max=64"`
}

// DraftHandler handles HTTP requests for the sale being built
type DraftHandler struct {
	svc    service.TrackerService
	logger *zap.Logger
}

// NewDraftHandler creates a new DraftHandler
func NewDraftHandler(svc service.TrackerService, logger *zap.Logger) *DraftHandler {
	return &DraftHandler{svc: svc, logger: logger}
}

// RegisterRoutes registers all draft routes
func (h *DraftHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api/draft", func(r chi.Router) {
		r.Get("/", h.Get)
		r.Delete("/", h.Reset)
		r.Put("/date", h.SetDate)
		r.Post("/lines", h.AddLine)
		r.Patch("/lines/{index}", h.ChangeLine)
		r.Delete("/lines/{index}", h.RemoveLine)
		r.Post("/commit", h.Commit)
		r.Post("/cancel", h.Cancel)
	})
}

// Get returns the current draft
func (h *DraftHandler) Get(w http.ResponseWriter, r *http.Request) {
	respond(w, h.svc, http.StatusOK, h.svc.Draft(r.Context()))
}

// Reset clears the draft, cancelling an open edit
func (h *DraftHandler) Reset(w http.ResponseWriter, r *http.Request) {
	draft, err := h.svc.ResetDraft(r.Context())
	if err != nil {
		respondWithServiceError(w, h.logger, err, "reset draft")
		return
	}
	respond(w, h.svc, http.StatusOK, draft)
}

// SetDate replaces the draft date
func (h *DraftHandler) SetDate(w http.ResponseWriter, r *http.Request) {
	var req DateRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		respondWithServiceError(w, h.logger, err, "set date")
		return
	}

	draft, err := h.svc.SetDraftDate(r.Context(), req.Date)
	if err != nil {
		respondWithServiceError(w, h.logger, err, "set date")
		return
	}
	respond(w, h.svc, http.StatusOK, draft)
}

// AddLine adds one unit of an item
func (h *DraftHandler) AddLine(w http.ResponseWriter, r *http.Request) {
	var req AddLineRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		respondWithServiceError(w, h.logger, err, "add line")
		return
	}

	draft, err := h.svc.AddLine(r.Context(), req.ItemID)
	if err != nil {
		respondWithServiceError(w, h.logger, err, "add line")
		return
	}
	respond(w, h.svc, http.StatusOK, draft)
}

// ChangeLine moves the quantity of the line at {index}
func (h *DraftHandler) ChangeLine(w http.ResponseWriter, r *http.Request) {
	index, err := intParam(r, "index")
	if err != nil {
		respondWithServiceError(w, h.logger, err, "change line")
		return
	}

	var req ChangeLineRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		respondWithServiceError(w, h.logger, err, "change line")
		return
	}

	draft, err := h.svc.ChangeLineQuantity(r.Context(), index, req.Delta)
	if err != nil {
		respondWithServiceError(w, h.logger, err, "change line")
		return
	}
	respond(w, h.svc, http.StatusOK, draft)
}

// RemoveLine drops the line at {index}
func (h *DraftHandler) RemoveLine(w http.ResponseWriter, r *http.Request) {
	index, err := intParam(r, "index")
	if err != nil {
		respondWithServiceError(w, h.logger, err, "remove line")
		return
	}

	draft, err := h.svc.RemoveLine(r.Context(), index)
	if err != nil {
		respondWithServiceError(w, h.logger, err, "remove line")
		return
	}
	respond(w, h.svc, http.StatusOK, draft)
}

// Commit records the draft as a new sale or as the edited sale
func (h *DraftHandler) Commit(w http.ResponseWriter, r *http.Request) {
	editing := h.svc.Draft(r.Context()).Editing()

	sale, err := h.svc.CommitDraft(r.Context())
	if err != nil {
		respondWithServiceError(w, h.logger, err, "commit sale")
		return
	}

	status := http.StatusCreated
	if editing {
		status = http.StatusOK
	}
	respond(w, h.svc, status, sale)
}

// Cancel abandons an open edit and restores the original sale
func (h *DraftHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	draft, err := h.svc.CancelEdit(r.Context())
	if err != nil {
		respondWithServiceError(w, h.logger, err, "cancel edit")
		return
	}
	respond(w, h.svc, http.StatusOK, draft)
}
