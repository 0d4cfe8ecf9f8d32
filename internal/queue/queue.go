// Package queue defines the background tasks exchanged between the API
// and worker sides over asynq.
package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
)

// TaskIngestFile drives one file through the ingestion pipeline.
const TaskIngestFile = "file:ingest"

// IngestPayload is the TaskIngestFile payload.
type IngestPayload struct {
	FileID string `json:"file_id"`
}

// NewIngestTask builds the ingestion task for a file. Failures are
// recorded on the file row, so the task never retries.
func NewIngestTask(fileID string) (*asynq.Task, error) {
	payload, err := json.Marshal(IngestPayload{FileID: fileID})
	if err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}
	return asynq.NewTask(TaskIngestFile, payload, asynq.MaxRetry(0)), nil
}

// IngestQueue enqueues ingestion work on an asynq client.
type IngestQueue struct {
	client *asynq.Client
}

// NewIngestQueue wraps client.
func NewIngestQueue(client *asynq.Client) *IngestQueue {
	return &IngestQueue{client: client}
}

// EnqueueIngest schedules ingestion of the file.
func (q *IngestQueue) EnqueueIngest(ctx context.Context, fileID string) error {
	task, err := NewIngestTask(fileID)
	if err != nil {
		return err
	}
	if _, err := q.client.EnqueueContext(ctx, task); err != nil {
		return fmt.Errorf("enqueue %s: %w", TaskIngestFile, err)
	}
	return nil
}
