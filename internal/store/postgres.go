package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"scribechat/internal/models"
)

// Postgres is the production Store backed by a pgx connection pool.
type Postgres struct {
	db *pgxpool.Pool
}

func NewPostgres(db *pgxpool.Pool) *Postgres {
	return &Postgres{db: db}
}

func (s *Postgres) InsertTranscription(ctx context.Context, filename, content string) (*models.Transcription, error) {
	var t models.Transcription
	err := s.db.QueryRow(ctx,
		`INSERT INTO transcriptions (filename, content)
		 VALUES ($1, $2)
		 RETURNING id, filename, content, created_at`,
		filename, content,
	).Scan(&t.ID, &t.Filename, &t.Content, &t.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert transcription: %w", err)
	}
	return &t, nil
}

func (s *Postgres) GetTranscription(ctx context.Context, id int64) (*models.Transcription, error) {
	var t models.Transcription
	err := s.db.QueryRow(ctx,
		`SELECT id, filename, content, created_at
		 FROM transcriptions WHERE id = $1`,
		id,
	).Scan(&t.ID, &t.Filename, &t.Content, &t.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get transcription: %w", err)
	}
	return &t, nil
}

func (s *Postgres) ListTranscriptions(ctx context.Context) ([]models.Transcription, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, filename, content, created_at
		 FROM transcriptions ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list transcriptions: %w", err)
	}
	defer rows.Close()

	var out []models.Transcription
	for rows.Next() {
		var t models.Transcription
		if err := rows.Scan(&t.ID, &t.Filename, &t.Content, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan transcription: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *Postgres) InsertChatMessage(ctx context.Context, transcriptionID int64, role, content string) (*models.ChatMessage, error) {
	var m models.ChatMessage
	err := s.db.QueryRow(ctx,
		`INSERT INTO chat_messages (transcription_id, role, content)
		 VALUES ($1, $2, $3)
		 RETURNING id, transcription_id, role, content, created_at`,
		transcriptionID, role, content,
	).Scan(&m.ID, &m.TranscriptionID, &m.Role, &m.Content, &m.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return nil, ErrDanglingReference
		}
		return nil, fmt.Errorf("insert chat message: %w", err)
	}
	return &m, nil
}

func (s *Postgres) ListChatMessages(ctx context.Context, transcriptionID int64) ([]models.ChatMessage, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, transcription_id, role, content, created_at
		 FROM chat_messages WHERE transcription_id = $1
		 ORDER BY created_at ASC, id ASC`,
		transcriptionID,
	)
	if err != nil {
		return nil, fmt.Errorf("list chat messages: %w", err)
	}
	defer rows.Close()

	var out []models.ChatMessage
	for rows.Next() {
		var m models.ChatMessage
		if err := rows.Scan(&m.ID, &m.TranscriptionID, &m.Role, &m.Content, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan chat message: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
