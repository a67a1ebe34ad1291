package models

import "time"

// Transcription is a persisted audio transcript. Rows are written once after a
// successful provider call and never updated.
type Transcription struct {
	ID        int64     `json:"id" db:"id"`
	Filename  string    `json:"filename" db:"filename"`
	Content   string    `json:"content" db:"content"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
