package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"scribechat/internal/chat"
	"scribechat/internal/intake"
	"scribechat/internal/store"
	"scribechat/internal/transcription"
)

func decodeJSON(r *http.Request, dest interface{}) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(dest)
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError maps a service error onto a status code and a JSON body.
// Validation and intake problems are client errors; provider failures are
// reported as a bad gateway so callers can tell them apart and retry.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, intake.ErrUnsupportedMedia):
		status = http.StatusUnsupportedMediaType
	case errors.Is(err, intake.ErrMalformedPayload):
		status = http.StatusBadRequest
	case errors.Is(err, chat.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, store.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, store.ErrDanglingReference):
		status = http.StatusNotFound
	case errors.Is(err, transcription.ErrTranscriptionFailed):
		status = http.StatusBadGateway
	case errors.Is(err, chat.ErrAssistantUnavailable):
		status = http.StatusBadGateway
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
