// Package transcription owns the transcription lifecycle: send audio to the
// speech-to-text provider, then either persist the text or hand it back as an
// ephemeral result. No row is written before the provider succeeds, and a
// provider failure writes nothing.
package transcription

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"scribechat/internal/config"
	"scribechat/internal/intake"
	"scribechat/internal/models"
	"scribechat/internal/store"
	"scribechat/internal/stt"
)

// ErrTranscriptionFailed wraps a provider-side failure. The provider's
// message rides along via errors.Is/As unwrapping.
var ErrTranscriptionFailed = errors.New("transcription failed")

type Service struct {
	provider stt.Provider
	store    store.Store
	language string
}

func NewService(provider stt.Provider, s store.Store, cfg config.STTConfig) *Service {
	return &Service{
		provider: provider,
		store:    s,
		language: cfg.Language,
	}
}

// TranscribeAndSave transcribes the audio and persists the result, returning
// the stored row. Recorded clips without a filename get a synthesized one so
// separate recordings stay distinguishable in listings.
func (s *Service) TranscribeAndSave(ctx context.Context, audio *intake.Audio) (*models.Transcription, error) {
	text, err := s.transcribe(ctx, audio)
	if err != nil {
		return nil, err
	}

	filename := audio.Filename
	if filename == "" {
		filename = fmt.Sprintf("recording-%s%s", uuid.NewString()[:8], audio.Extension)
	}

	t, err := s.store.InsertTranscription(ctx, filename, text)
	if err != nil {
		return nil, fmt.Errorf("save transcription: %w", err)
	}

	slog.Info("transcription saved", "id", t.ID, "filename", t.Filename, "chars", len(t.Content))
	return t, nil
}

// TranscribeEphemeral transcribes the audio without persisting anything. The
// returned text has no id and cannot be used for chat.
func (s *Service) TranscribeEphemeral(ctx context.Context, audio *intake.Audio) (string, error) {
	return s.transcribe(ctx, audio)
}

func (s *Service) transcribe(ctx context.Context, audio *intake.Audio) (string, error) {
	resp, err := s.provider.Transcribe(ctx, stt.TranscriptionRequest{
		Audio:    audio,
		Language: s.language,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTranscriptionFailed, err)
	}
	return resp.Text, nil
}

// Get returns the stored transcription for id, or store.ErrNotFound.
func (s *Service) Get(ctx context.Context, id int64) (*models.Transcription, error) {
	return s.store.GetTranscription(ctx, id)
}

// List returns all stored transcriptions, newest first. The listing is
// recomputed on every call.
func (s *Service) List(ctx context.Context) ([]models.Transcription, error) {
	return s.store.ListTranscriptions(ctx)
}
