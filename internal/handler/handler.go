package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"kart-checkout/internal/gateway"
	"kart-checkout/internal/model"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Headers are already sent
		return
	}
}

// writeError writes the standard error envelope.
func writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	writeJSON(w, status, model.ErrorResponse{
		Error:         code,
		Message:       message,
		CorrelationID: chimw.GetReqID(r.Context()),
	})
}

// writeServiceError maps a service error to a status code and error envelope.
// Domain errors carry their own status; anything else is logged and reported as internal.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error, logger zerolog.Logger) {
	var domainErr *model.DomainError
	if errors.As(err, &domainErr) {
		if domainErr.Status >= http.StatusInternalServerError {
			logger.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		}
		writeError(w, r, domainErr.Status, domainErr.Code, domainErr.Message)
		return
	}

	var gwErr *gateway.Error
	if errors.As(err, &gwErr) {
		logger.Error().
			Err(err).
			Int("gateway_status", gwErr.StatusCode).
			Str("gateway_code", gwErr.Code).
			Msg("payment gateway error")
		writeError(w, r, http.StatusBadGateway, model.ErrCodeGatewayError, "Payment gateway is unavailable, please retry")
		return
	}

	logger.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
	writeError(w, r, http.StatusInternalServerError, model.ErrCodeInternalError, "An unexpected error occurred")
}

// decodeJSON decodes the request body into dst, writing a 400 on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidJSON, "Request body is not valid JSON")
		return false
	}
	return true
}
