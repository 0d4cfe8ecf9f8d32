package models

import "time"

// Message is one half of a conversation turn. Rows are immutable once
// written; ordering is by created_at then id.
type Message struct {
	ID            int64     `json:"id"`
	FileID        string    `json:"file_id"`
	UserID        int64     `json:"user_id"`
	IsUserMessage bool      `json:"is_user_message"`
	Text          string    `json:"text"`
	CreatedAt     time.Time `json:"created_at"`
}
