package stt

import (
	"context"

	"scribechat/internal/intake"
)

// TranscriptionRequest holds the audio and optional hints for transcription.
type TranscriptionRequest struct {
	Audio    *intake.Audio
	Language string
	Prompt   string
}

// TranscriptionResponse holds the transcription result.
type TranscriptionResponse struct {
	Text     string  `json:"text"`
	Language string  `json:"language"`
	Duration float64 `json:"duration"`
}

// Provider is the interface for speech-to-text backends. The call blocks
// until the provider returns text or fails; cancelling ctx aborts the
// outbound request.
type Provider interface {
	Transcribe(ctx context.Context, req TranscriptionRequest) (*TranscriptionResponse, error)
	Name() string
}
