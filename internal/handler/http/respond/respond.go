// Package respond provides utilities for sending HTTP responses in JSON
// format, including mapping of domain errors to status codes.
package respond

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"finsight/internal/domain/entity"
	"finsight/internal/resilience/circuitbreaker"
)

// JSON writes a JSON response with the given status code and data.
func JSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if v != nil {
		if err := json.NewEncoder(w).Encode(v); err != nil {
			// Headers are already sent, so the error can only be logged.
			slog.Default().Error("failed to encode JSON response",
				slog.Int("status_code", code),
				slog.Any("error", err))
		}
	}
}

// Error writes a JSON error response with the given status code and message.
func Error(w http.ResponseWriter, code int, err error) {
	JSON(w, code, map[string]string{"error": err.Error()})
}

// DomainError maps a domain error to its HTTP status code and writes the
// response. Validation problems become 400, missing entities 404, and an
// open circuit breaker 503. Anything else is treated as an internal error:
// the detail is logged and a generic message returned.
func DomainError(w http.ResponseWriter, err error) {
	if err == nil {
		return
	}

	var vErr *entity.ValidationError
	switch {
	case errors.As(err, &vErr):
		Error(w, http.StatusBadRequest, vErr)
	case errors.Is(err, entity.ErrInvalidInput):
		Error(w, http.StatusBadRequest, err)
	case errors.Is(err, entity.ErrNotFound):
		Error(w, http.StatusNotFound, err)
	case errors.Is(err, circuitbreaker.ErrOpenState):
		Error(w, http.StatusServiceUnavailable, err)
	default:
		slog.Default().Error("internal server error", slog.Any("error", err))
		JSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
	}
}
