package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"scribechat/internal/chat"
	"scribechat/internal/models"
)

type ChatHandler struct {
	svc *chat.Service
}

func NewChatHandler(svc *chat.Service) *ChatHandler {
	return &ChatHandler{svc: svc}
}

type askRequest struct {
	TranscriptionID int64  `json:"transcription_id"`
	Message         string `json:"message"`
}

type askResponse struct {
	Answer string `json:"answer"`
}

// Ask runs one conversation turn and returns the assistant's answer.
func (h *ChatHandler) Ask(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	msg, err := h.svc.Ask(r.Context(), req.TranscriptionID, req.Message)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, askResponse{Answer: msg.Content})
}

// AskStream runs one turn, relaying assistant text to the client as SSE
// chunks. The final event carries the persisted message; persistence happens
// once the stream has ended, never per chunk.
func (h *ChatHandler) AskStream(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "streaming not supported"})
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	msg, err := h.svc.AskStream(r.Context(), req.TranscriptionID, req.Message, func(chunk string) {
		data, _ := json.Marshal(map[string]string{"content": chunk})
		fmt.Fprintf(w, "data: %s\n\n", data)
		flusher.Flush()
	})
	if err != nil {
		// Headers are already out, so the error goes down the event stream.
		fmt.Fprintf(w, "data: {\"error\":%q}\n\n", err.Error())
		flusher.Flush()
		return
	}

	final, _ := json.Marshal(map[string]interface{}{"done": true, "message": msg})
	fmt.Fprintf(w, "data: %s\n\n", final)
	flusher.Flush()
}

// History returns the ordered turns for a transcription.
func (h *ChatHandler) History(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "transcriptionID"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid transcription ID"})
		return
	}

	msgs, err := h.svc.History(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	if msgs == nil {
		msgs = []models.ChatMessage{}
	}

	writeJSON(w, http.StatusOK, msgs)
}
