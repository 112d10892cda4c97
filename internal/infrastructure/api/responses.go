package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"shopify-ledger-sync/internal/application"
	"shopify-ledger-sync/internal/domain"

	"github.com/rs/zerolog"
)

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Error   string            `json:"error"`
	Kind    string            `json:"kind,omitempty"`
	Details string            `json:"details,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, ErrorResponse{Error: message})
}

// statusForError maps service failures to HTTP statuses
func statusForError(err error) int {
	if errors.Is(err, application.ErrSweepInProgress) {
		return http.StatusConflict
	}
	switch domain.KindOf(err) {
	case domain.KindValidation:
		return http.StatusBadRequest
	case domain.KindConfiguration:
		return http.StatusConflict
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindUpstream, domain.KindUnauthorized:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// respondServiceError writes a service error. Untagged failures are logged and hidden from the caller.
func respondServiceError(w http.ResponseWriter, logger zerolog.Logger, operation string, err error) {
	status := statusForError(err)
	if status == http.StatusInternalServerError {
		logger.Error().Err(err).Str("operation", operation).Msg("Request failed")
		respondError(w, status, "internal server error")
		return
	}

	logger.Warn().Err(err).Str("operation", operation).Int("status", status).Msg("Request rejected")
	body := ErrorResponse{Error: err.Error(), Kind: string(domain.KindOf(err))}
	var tagged *domain.Error
	if errors.As(err, &tagged) {
		body.Error = tagged.Message
		body.Details = tagged.Details
	}
	if errors.Is(err, application.ErrSweepInProgress) {
		body.Error = err.Error()
	}
	respondJSON(w, status, body)
}
