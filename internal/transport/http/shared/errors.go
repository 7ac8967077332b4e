package shared

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"workshop/internal/domain/auth"
	"workshop/internal/domain/payroll"
	"workshop/internal/domain/reports"
	"workshop/internal/domain/validation"
	"workshop/internal/export"
	"workshop/internal/store"
	"workshop/internal/transport/http/api"
)

// WriteError maps domain errors onto the response envelope.
func WriteError(w http.ResponseWriter, err error, requestID string) {
	if verr, ok := validation.As(err); ok {
		FailValidation(w, requestID, verr.Issues)
		return
	}
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		api.Fail(w, http.StatusRequestEntityTooLarge, "payload_too_large", "request body too large", requestID)
	case errors.Is(err, ErrInvalidJSON):
		api.Fail(w, http.StatusBadRequest, "invalid_json", err.Error(), requestID)
	case errors.Is(err, auth.ErrInvalidCredentials):
		api.Fail(w, http.StatusUnauthorized, "invalid_credentials", "invalid email or password", requestID)
	case errors.Is(err, auth.ErrForbidden):
		api.Fail(w, http.StatusForbidden, "forbidden", "insufficient permissions", requestID)
	case errors.Is(err, auth.ErrEmailTaken):
		api.Fail(w, http.StatusConflict, "email_taken", "email already in use", requestID)
	case errors.Is(err, auth.ErrSelfDelete):
		api.Fail(w, http.StatusBadRequest, "self_delete", "you cannot delete your own account", requestID)
	case errors.Is(err, auth.ErrUserNotFound),
		errors.Is(err, payroll.ErrEmployeeNotFound),
		errors.Is(err, payroll.ErrProductionNotFound),
		errors.Is(err, payroll.ErrPaymentNotFound),
		errors.Is(err, store.ErrNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", err.Error(), requestID)
	case errors.Is(err, reports.ErrUnknownKind),
		errors.Is(err, reports.ErrUnknownMode),
		errors.Is(err, export.ErrUnknownFormat):
		api.Fail(w, http.StatusBadRequest, "invalid_request", err.Error(), requestID)
	default:
		zap.L().Error("request failed", zap.String("requestId", requestID), zap.Error(err))
		api.Fail(w, http.StatusInternalServerError, "internal_error", "internal server error", requestID)
	}
}
