package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"scribechat/internal/models"
)

// Memory is an in-process Store. It backs the server when DATABASE_URL is
// unset and it is what the service tests run against. Semantics match
// Postgres: monotonic ids, FK check on chat inserts, same orderings.
type Memory struct {
	mu             sync.Mutex
	transcriptions []models.Transcription
	messages       []models.ChatMessage
	nextTransID    int64
	nextMsgID      int64
}

func NewMemory() *Memory {
	return &Memory{nextTransID: 1, nextMsgID: 1}
}

func (s *Memory) InsertTranscription(_ context.Context, filename, content string) (*models.Transcription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := models.Transcription{
		ID:        s.nextTransID,
		Filename:  filename,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}
	s.nextTransID++
	s.transcriptions = append(s.transcriptions, t)
	return &t, nil
}

func (s *Memory) GetTranscription(_ context.Context, id int64) (*models.Transcription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, t := range s.transcriptions {
		if t.ID == id {
			cp := t
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (s *Memory) ListTranscriptions(_ context.Context) ([]models.Transcription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.Transcription, len(s.transcriptions))
	copy(out, s.transcriptions)
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (s *Memory) InsertChatMessage(_ context.Context, transcriptionID int64, role, content string) (*models.ChatMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	found := false
	for _, t := range s.transcriptions {
		if t.ID == transcriptionID {
			found = true
			break
		}
	}
	if !found {
		return nil, ErrDanglingReference
	}

	m := models.ChatMessage{
		ID:              s.nextMsgID,
		TranscriptionID: transcriptionID,
		Role:            role,
		Content:         content,
		CreatedAt:       time.Now().UTC(),
	}
	s.nextMsgID++
	s.messages = append(s.messages, m)
	return &m, nil
}

func (s *Memory) ListChatMessages(_ context.Context, transcriptionID int64) ([]models.ChatMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []models.ChatMessage
	for _, m := range s.messages {
		if m.TranscriptionID == transcriptionID {
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}
