package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"scribechat/internal/intake"
	"scribechat/internal/models"
	"scribechat/internal/transcription"
)

type TranscriptionHandler struct {
	svc *transcription.Service
}

func NewTranscriptionHandler(svc *transcription.Service) *TranscriptionHandler {
	return &TranscriptionHandler{svc: svc}
}

// Upload accepts a multipart audio file, transcribes it and persists the
// result.
func (h *TranscriptionHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(32 << 20); err != nil { // 32MB max
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid multipart form"})
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "file required"})
		return
	}
	defer file.Close()

	audio, err := intake.FromUpload(file, header.Filename)
	if err != nil {
		writeError(w, err)
		return
	}

	t, err := h.svc.TranscribeAndSave(r.Context(), audio)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, t)
}

type realTimeRequest struct {
	AudioData     string `json:"audio_data"`
	FileExtension string `json:"file_extension"`
	SaveToDB      bool   `json:"save_to_db"`
}

type realTimeResponse struct {
	Transcription   string `json:"transcription"`
	TranscriptionID *int64 `json:"transcription_id,omitempty"`
}

// RealTime transcribes a base64 recorded clip. With save_to_db the response
// carries the new id and the clip becomes chat-capable; without it the text
// is ephemeral and nothing is stored.
func (h *TranscriptionHandler) RealTime(w http.ResponseWriter, r *http.Request) {
	var req realTimeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	audio, err := intake.FromBase64(req.AudioData, req.FileExtension)
	if err != nil {
		writeError(w, err)
		return
	}

	if req.SaveToDB {
		t, err := h.svc.TranscribeAndSave(r.Context(), audio)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, realTimeResponse{Transcription: t.Content, TranscriptionID: &t.ID})
		return
	}

	text, err := h.svc.TranscribeEphemeral(r.Context(), audio)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, realTimeResponse{Transcription: text})
}

func (h *TranscriptionHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid transcription ID"})
		return
	}

	t, err := h.svc.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, t)
}

func (h *TranscriptionHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if list == nil {
		list = []models.Transcription{}
	}

	writeJSON(w, http.StatusOK, list)
}
