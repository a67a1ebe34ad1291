package cache

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"scribechat/internal/models"
	"scribechat/internal/store"
)

// Transcription rows are immutable once written, so cached copies never go
// stale. Only point lookups are cached; listings always hit the store.
const transcriptionTTL = time.Hour

// Store decorates a store.Store with a read-through cache on GetTranscription.
// Cache failures are logged and fall back to the underlying store.
type Store struct {
	store.Store
	cache *Cache
}

func NewStore(s store.Store, c *Cache) *Store {
	return &Store{Store: s, cache: c}
}

func (s *Store) GetTranscription(ctx context.Context, id int64) (*models.Transcription, error) {
	key := transcriptionKey(id)

	var cached models.Transcription
	if err := s.cache.Get(ctx, key, &cached); err == nil {
		return &cached, nil
	}

	t, err := s.Store.GetTranscription(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, key, t, transcriptionTTL); err != nil {
		slog.Debug("transcription cache fill failed", "id", id, "error", err)
	}
	return t, nil
}

func (s *Store) InsertTranscription(ctx context.Context, filename, content string) (*models.Transcription, error) {
	t, err := s.Store.InsertTranscription(ctx, filename, content)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Set(ctx, transcriptionKey(t.ID), t, transcriptionTTL); err != nil {
		slog.Debug("transcription cache fill failed", "id", t.ID, "error", err)
	}
	return t, nil
}

func transcriptionKey(id int64) string {
	return fmt.Sprintf("transcription:%d", id)
}
