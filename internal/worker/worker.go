// Package worker consumes background tasks from asynq.
package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/hibiken/asynq"

	"docuchat/internal/queue"
	"docuchat/internal/service/file"
)

// Processor handles queued tasks against the file service.
type Processor struct {
	files *file.Service
}

// NewProcessor builds a task processor.
func NewProcessor(files *file.Service) *Processor {
	return &Processor{files: files}
}

// Handler routes task types to their handlers.
func (p *Processor) Handler() *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(queue.TaskIngestFile, p.handleIngest)
	return mux
}

func (p *Processor) handleIngest(ctx context.Context, task *asynq.Task) error {
	var payload queue.IngestPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("decode %s payload: %w", task.Type(), err)
	}
	log.Printf("ingesting file %s", payload.FileID)
	if err := p.files.Process(ctx, payload.FileID); err != nil {
		// the failure is already recorded on the file row
		log.Printf("ingest file %s: %v", payload.FileID, err)
	}
	return nil
}
