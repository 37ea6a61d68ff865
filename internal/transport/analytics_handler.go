package transport

import (
	"net/http"
	"strconv"
	"time"

	"stockbook/internal/analytics"
	"stockbook/internal/domain"
	"stockbook/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// AnalyticsHandler serves the dashboard views
type AnalyticsHandler struct {
	svc    service.TrackerService
	logger *zap.Logger
	now    func() time.Time
}

// NewAnalyticsHandler creates a new AnalyticsHandler
func NewAnalyticsHandler(svc service.TrackerService, logger *zap.Logger, now func() time.Time) *AnalyticsHandler {
	if now == nil {
		now = time.Now
	}
	return &AnalyticsHandler{svc: svc, logger: logger, now: now}
}

// RegisterRoutes registers all analytics routes
func (h *AnalyticsHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api/analytics", func(r chi.Router) {
		r.Get("/dashboard", h.Dashboard)
		r.Get("/inventory", h.Inventory)
	})
}

// Dashboard takes ?mode=daily|monthly|yearly, ?date=YYYY-MM-DD (today by
// default) and ?top=N (5 by default).
func (h *AnalyticsHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	q, err := parsePeriodQuery(r, h.now)
	if err != nil {
		respondWithServiceError(w, h.logger, err, "build dashboard")
		return
	}

	dash, err := h.svc.Dashboard(r.Context(), q.mode, q.reference, q.top)
	if err != nil {
		respondWithServiceError(w, h.logger, err, "build dashboard")
		return
	}
	respond(w, h.svc, http.StatusOK, dash)
}

// Inventory returns item count, units and stock value
func (h *AnalyticsHandler) Inventory(w http.ResponseWriter, r *http.Request) {
	respond(w, h.svc, http.StatusOK, h.svc.InventorySummary(r.Context()))
}

type periodQuery struct {
	mode      analytics.Mode
	reference string
	top       int
}

func parsePeriodQuery(r *http.Request, now func() time.Time) (periodQuery, error) {
	values := r.URL.Query()

	mode, err := analytics.ParseMode(values.Get("mode"))
	if err != nil {
		return periodQuery{}, err
	}

	reference := values.Get("date")
	if reference == "" {
		reference = now().Format(domain.DateLayout)
	}

	top := analytics.DefaultTopN
	if raw := values.Get("top"); raw != "" {
		top, err = strconv.Atoi(raw)
		if err != nil || top < 1 {
			return periodQuery{}, &domain.ValidationError{Fields: []domain.FieldError{{Field: "top", Message: "Value must be greater than 0"}}}
		}
	}

	return periodQuery{mode: mode, reference: reference, top: top}, nil
}
