package server

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"gitlab.ozon.dev/pupkingeorgij/freightbid/internal/domain"
	"gitlab.ozon.dev/pupkingeorgij/freightbid/internal/metrics"
)

const (
	msgAlreadyDecided = "already decided by another action"
	msgInternal       = "Internal error, please try again later"
)

// respondDomainError maps the error taxonomy onto HTTP statuses. Consistency
// and unexpected errors are logged with detail and answered generically.
func (s *Server) respondDomainError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrForbidden):
		respondError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrAlreadyDecided):
		respondError(w, http.StatusConflict, msgAlreadyDecided)
	case errors.Is(err, domain.ErrRequestClosed), errors.Is(err, domain.ErrResaleWindowClosed):
		respondError(w, http.StatusGone, err.Error())
	case errors.Is(err, domain.ErrCapacityExceeded):
		respondError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, domain.ErrInvalidState):
		s.logger.Error("consistency error", zap.String("operation", op), zap.Error(err))
		respondError(w, http.StatusInternalServerError, msgInternal)
	default:
		metrics.OperationErrorsTotal.WithLabelValues(op).Inc()
		s.logger.Error("operation failed", zap.String("operation", op), zap.Error(err))
		respondError(w, http.StatusInternalServerError, msgInternal)
	}
}
