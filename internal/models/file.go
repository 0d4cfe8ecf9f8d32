package models

import "time"

// UploadStatus tracks a file through the ingestion pipeline.
type UploadStatus string

const (
	StatusPending    UploadStatus = "PENDING"
	StatusProcessing UploadStatus = "PROCESSING"
	StatusSuccess    UploadStatus = "SUCCESS"
	StatusFailed     UploadStatus = "FAILED"
)

// File represents an uploaded document. Its id doubles as the vector-index
// namespace, so the index for one file never mixes with another's.
type File struct {
	ID           string       `json:"id"`
	UserID       int64        `json:"user_id"`
	Name         string       `json:"name"`
	StorageKey   string       `json:"storage_key"`
	SourceURL    string       `json:"source_url"`
	UploadStatus UploadStatus `json:"upload_status"`
	ErrorMessage string       `json:"error_message,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}
