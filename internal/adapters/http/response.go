package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/viralforge/invoicing-service/internal/contracts"
	"github.com/viralforge/invoicing-service/internal/domain"
	"github.com/viralforge/invoicing-service/internal/platform/logger"
	"go.uber.org/zap"
)

const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeSuccess(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, contracts.SuccessResponse{Status: "success", Data: data})
}

func writeError(w http.ResponseWriter, status int, code, message, requestID string, details any) {
	writeJSON(w, status, contracts.ErrorResponse{
		Status: "error",
		Error: contracts.ErrorPayload{
			Code:      code,
			Message:   message,
			RequestID: requestID,
			Details:   details,
		},
	})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", fmt.Sprintf("invalid json body: %v", err), requestIDFromContext(r.Context()), nil)
		return false
	}
	return true
}

// writeDomainError maps err to a response and logs it; 5xx at error level.
func writeDomainError(w http.ResponseWriter, r *http.Request, operation string, err error) {
	reqID := requestIDFromContext(r.Context())
	log := logger.FromContext(r.Context()).With(
		zap.String("operation", operation),
		zap.String("outcome", "failure"),
	)

	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		log.Info("validation failed", zap.Strings("fields", verr.Result.Fields()))
		writeError(w, http.StatusUnprocessableEntity, "VALIDATION_FAILED", domain.ValidationBanner, reqID, verr.Result.Errors)
		return
	}

	status, code, message := mapDomainError(err)
	if status >= 500 {
		log.Error("http operation failed", zap.Int("status_code", status), zap.String("error_code", code), zap.Error(err))
	} else {
		log.Warn("http operation failed", zap.Int("status_code", status), zap.String("error_code", code), zap.Error(err))
	}
	writeError(w, status, code, message, reqID, nil)
}

func mapDomainError(err error) (int, string, string) {
	switch {
	case errors.Is(err, domain.ErrIdempotencyRequired):
		return http.StatusBadRequest, "IDEMPOTENCY_KEY_REQUIRED", err.Error()
	case errors.Is(err, domain.ErrInvalidInput), errors.Is(err, domain.ErrInvalidNumber), errors.Is(err, domain.ErrFractionalQuantity):
		return http.StatusBadRequest, "INVALID_INPUT", err.Error()
	case errors.Is(err, domain.ErrUnsupportedEvent):
		return http.StatusBadRequest, "UNSUPPORTED_EVENT", err.Error()
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized, "UNAUTHORIZED", "invalid or missing credentials"
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, "FORBIDDEN", "forbidden"
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "NOT_FOUND", "resource not found"
	case errors.Is(err, domain.ErrIdempotencyConflict):
		return http.StatusConflict, "IDEMPOTENCY_CONFLICT", "idempotency key reused with a different payload"
	case errors.Is(err, domain.ErrSubmissionInFlight):
		return http.StatusConflict, "SUBMISSION_IN_FLIGHT", "this invoice is already being submitted"
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict, "CONFLICT", err.Error()
	case errors.Is(err, domain.ErrBackendUnavailable):
		return http.StatusBadGateway, "BACKEND_UNAVAILABLE", "the invoicing backend could not be reached, try again"
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error"
	}
}
