// Package store owns the durable state of the application: transcriptions and
// their append-only chat history. The transcription and chat services are the
// only writers.
package store

import (
	"context"
	"errors"

	"scribechat/internal/models"
)

var (
	// ErrNotFound is returned when no transcription exists for the given id.
	ErrNotFound = errors.New("transcription not found")

	// ErrDanglingReference is returned when a chat message references a
	// transcription id that does not exist.
	ErrDanglingReference = errors.New("chat message references unknown transcription")
)

// Store is the persistence surface for transcriptions and chat messages.
// Every write is a single-row insert; listings are recomputed on each call.
type Store interface {
	// InsertTranscription writes a new row and returns it with id and
	// created_at populated.
	InsertTranscription(ctx context.Context, filename, content string) (*models.Transcription, error)

	// GetTranscription returns the row for id, or ErrNotFound.
	GetTranscription(ctx context.Context, id int64) (*models.Transcription, error)

	// ListTranscriptions returns all rows, newest first.
	ListTranscriptions(ctx context.Context) ([]models.Transcription, error)

	// InsertChatMessage appends one turn. Returns ErrDanglingReference if the
	// transcription does not exist.
	InsertChatMessage(ctx context.Context, transcriptionID int64, role, content string) (*models.ChatMessage, error)

	// ListChatMessages returns the history for a transcription ordered by
	// created_at ascending, id as tiebreak.
	ListChatMessages(ctx context.Context, transcriptionID int64) ([]models.ChatMessage, error)
}
