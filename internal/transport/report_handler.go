package transport

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"stockbook/internal/report"
	"stockbook/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ReportHandler serves spreadsheet exports
type ReportHandler struct {
	svc    service.TrackerService
	logger *zap.Logger
	now    func() time.Time
}

// NewReportHandler creates a new ReportHandler
func NewReportHandler(svc service.TrackerService, logger *zap.Logger, now func() time.Time) *ReportHandler {
	if now == nil {
		now = time.Now
	}
	return &ReportHandler{svc: svc, logger: logger, now: now}
}

// RegisterRoutes registers all report routes
func (h *ReportHandler) RegisterRoutes(r chi.Router) {
	r.Get("/api/reports/export.xlsx", h.Export)
}

// Export streams the period's workbook. It takes the dashboard query parameters.
func (h *ReportHandler) Export(w http.ResponseWriter, r *http.Request) {
	q, err := parsePeriodQuery(r, h.now)
	if err != nil {
		respondWithServiceError(w, h.logger, err, "export report")
		return
	}

	dash, err := h.svc.Dashboard(r.Context(), q.mode, q.reference, q.top)
	if err != nil {
		respondWithServiceError(w, h.logger, err, "export report")
		return
	}
	items, _ := h.svc.Snapshot(r.Context())

	f, err := report.Build(report.Period{
		Mode:      dash.Mode,
		Reference: dash.Reference,
		Sales:     dash.Sales,
		Summary:   dash.Summary,
		Items:     items,
		Inventory: dash.Inventory,
	})
	if err != nil {
		respondWithServiceError(w, h.logger, err, "export report")
		return
	}
	defer f.Close()

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="stockbook-%s-%s.xlsx"`, dash.Mode, fileSafe(dash.Reference)))
	if h.svc.Dirty() {
		w.Header().Set(PersistWarningHeader, "true")
	}
	w.WriteHeader(http.StatusOK)

	if _, err := f.WriteTo(w); err != nil {
		h.logger.Error("Failed to stream workbook", zap.Error(err))
	}
}

// fileSafe keeps letters, digits and dashes of a free-text date
func fileSafe(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-':
			return r
		default:
			return -1
		}
	}, s)
}
