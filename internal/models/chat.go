package models

import "time"

// ChatMessage is one turn of a conversation tied to a transcription.
type ChatMessage struct {
	ID              int64     `json:"id" db:"id"`
	TranscriptionID int64     `json:"transcription_id" db:"transcription_id"`
	Role            string    `json:"role" db:"role"`
	Content         string    `json:"content" db:"content"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
}

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)
