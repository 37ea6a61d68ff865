package transport

import (
	"errors"
	"net/http"
	"strconv"

	"stockbook/internal/domain"
	"stockbook/internal/middleware"
	"stockbook/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// PersistWarningHeader is set on responses while the last save failed
const PersistWarningHeader = "X-Persist-Warning"

// StatusForError maps the domain error taxonomy to HTTP status codes
func StatusForError(err error) int {
	switch {
	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrInvalidQuantity),
		errors.Is(err, domain.ErrEmptySale),
		errors.Is(err, middleware.ErrMalformedBody):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrOutOfStock),
		errors.Is(err, domain.ErrInsufficientStock),
		errors.Is(err, domain.ErrEditInProgress):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// respondWithServiceError writes the error envelope for err. Server errors
// are logged and their text is not exposed.
func respondWithServiceError(w http.ResponseWriter, logger *zap.Logger, err error, action string) {
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		middleware.RespondWithValidationErrors(w, verr.Fields)
		return
	}

	status := StatusForError(err)
	switch status {
	case http.StatusInternalServerError:
		logger.Error("Failed to "+action, zap.Error(err))
		middleware.RespondWithError(w, status, "failed to "+action)
	case http.StatusBadRequest:
		if errors.Is(err, middleware.ErrMalformedBody) {
			middleware.RespondWithError(w, status, "invalid request body")
			return
		}
		middleware.RespondWithError(w, status, err.Error())
	default:
		logger.Debug("Request refused", zap.String("action", action), zap.Error(err))
		middleware.RespondWithError(w, status, err.Error())
	}
}

// respond writes payload and flags an unsaved state
func respond(w http.ResponseWriter, svc service.TrackerService, status int, payload interface{}) {
	if svc.Dirty() {
		w.Header().Set(PersistWarningHeader, "true")
	}
	middleware.RespondWithJSON(w, status, payload)
}

func intParam(r *http.Request, name string) (int, error) {
	v, err := strconv.Atoi(chi.URLParam(r, name))
	if err != nil {
		return 0, &domain.ValidationError{Fields: []domain.FieldError{{Field: name, Message: "Must be a whole number"}}}
	}
	return v, nil
}
