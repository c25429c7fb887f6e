package utils

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/huynhducanh/portfolio/backend/internal/apperr"
)

// RespondJSON writes payload as JSON with the given status.
func RespondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}

// RespondSuccess wraps data in the {success, data} envelope.
func RespondSuccess(w http.ResponseWriter, status int, data any) {
	RespondJSON(w, status, map[string]any{"success": true, "data": data})
}

// RespondError renders err with the status of its kind. dev exposes the
// underlying cause.
func RespondError(w http.ResponseWriter, err error, dev bool) {
	RespondJSON(w, apperr.StatusOf(err), apperr.PayloadOf(err, dev))
}
