package models

import "time"

// Summary is a persisted summarization result. Oversized results are
// returned to the caller inline and never stored.
type Summary struct {
	ID        int64     `json:"id"`
	FileID    string    `json:"file_id"`
	UserID    int64     `json:"user_id"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}
