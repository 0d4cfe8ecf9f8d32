// Package file tracks uploaded documents and drives them through the
// ingestion pipeline: fetch, extract, index.
package file

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"docuchat/internal/blobstore"
	"docuchat/internal/loader"
	"docuchat/internal/models"
	"docuchat/internal/vectorindex"
)

// Enqueuer hands ingestion work to a background queue. When nil, the
// service processes uploads inline.
type Enqueuer interface {
	EnqueueIngest(ctx context.Context, fileID string) error
}

// Service owns file records and the ingestion state machine.
type Service struct {
	db     *sql.DB
	fetch  blobstore.Fetcher
	loader *loader.Loader
	index  vectorindex.Index
	queue  Enqueuer
}

// NewService builds the file service. queue may be nil.
func NewService(db *sql.DB, fetch blobstore.Fetcher, l *loader.Loader, index vectorindex.Index, queue Enqueuer) *Service {
	return &Service{db: db, fetch: fetch, loader: l, index: index, queue: queue}
}

// Accept registers an uploaded file and schedules its ingestion. A
// repeated upload of the same storage key returns the existing record
// without re-processing.
func (s *Service) Accept(ctx context.Context, userID int64, name, storageKey, sourceURL string) (*models.File, error) {
	if existing, err := s.GetFileByKey(ctx, userID, storageKey); err == nil {
		return existing, nil
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	now := time.Now().UTC()
	f := &models.File{
		ID:           uuid.NewString(),
		UserID:       userID,
		Name:         name,
		StorageKey:   storageKey,
		SourceURL:    sourceURL,
		UploadStatus: models.StatusPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO files (id, user_id, name, storage_key, source_url, upload_status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		f.ID, f.UserID, f.Name, f.StorageKey, f.SourceURL, f.UploadStatus, f.CreatedAt, f.UpdatedAt,
	)
	if err != nil {
		// a concurrent upload of the same key may have won the insert
		if existing, selErr := s.GetFileByKey(ctx, userID, storageKey); selErr == nil {
			return existing, nil
		}
		return nil, fmt.Errorf("insert file: %w", err)
	}

	if s.queue != nil {
		if err := s.queue.EnqueueIngest(ctx, f.ID); err != nil {
			// the dedup path returns this row on every retry, so a lost
			// enqueue must leave a terminal state, not PENDING
			log.Printf("enqueue ingest for file %s: %v", f.ID, err)
			if stErr := s.setStatus(ctx, f.ID, models.StatusFailed, fmt.Sprintf("enqueue ingest: %v", err)); stErr != nil {
				return nil, stErr
			}
			return s.GetFile(ctx, userID, f.ID)
		}
		return f, nil
	}
	if err := s.Process(ctx, f.ID); err != nil {
		log.Printf("ingest file %s: %v", f.ID, err)
	}
	return s.GetFile(ctx, userID, f.ID)
}

// Process runs the ingestion pipeline for a registered file. Pipeline
// failures are absorbed into the FAILED status; the returned error
// reflects them for callers that retry or log.
func (s *Service) Process(ctx context.Context, fileID string) error {
	f, err := s.getFileByID(ctx, fileID)
	if err != nil {
		return err
	}

	if err := s.setStatus(ctx, fileID, models.StatusProcessing, ""); err != nil {
		return err
	}

	if err := s.ingest(ctx, f); err != nil {
		if stErr := s.setStatus(ctx, fileID, models.StatusFailed, err.Error()); stErr != nil {
			return fmt.Errorf("mark failed: %v (cause: %w)", stErr, err)
		}
		return err
	}
	return s.setStatus(ctx, fileID, models.StatusSuccess, "")
}

func (s *Service) ingest(ctx context.Context, f *models.File) error {
	data, err := s.fetch.Fetch(ctx, f.StorageKey, f.SourceURL)
	if err != nil {
		return fmt.Errorf("fetch document: %w", err)
	}

	kind, err := loader.KindForFile(f.Name)
	if err != nil {
		return err
	}
	docs, err := s.loader.Load(kind, data)
	if err != nil {
		return fmt.Errorf("extract text: %w", err)
	}
	if len(docs) == 0 {
		return ErrEmptyDocument
	}

	if err := s.index.IndexDocuments(ctx, f.ID, docs); err != nil {
		return fmt.Errorf("index document: %w", err)
	}
	return nil
}

func (s *Service) setStatus(ctx context.Context, fileID string, status models.UploadStatus, errMsg string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE files SET upload_status = ?, error_message = ?, updated_at = ? WHERE id = ?`,
		status, errMsg, time.Now().UTC(), fileID,
	)
	if err != nil {
		return fmt.Errorf("update status: %w", err)
	}
	return nil
}

const fileColumns = `id, user_id, name, storage_key, source_url, upload_status, COALESCE(error_message, ''), created_at, updated_at`

func scanFile(row interface{ Scan(...interface{}) error }) (*models.File, error) {
	var f models.File
	err := row.Scan(&f.ID, &f.UserID, &f.Name, &f.StorageKey, &f.SourceURL, &f.UploadStatus, &f.ErrorMessage, &f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func (s *Service) getFileByID(ctx context.Context, fileID string) (*models.File, error) {
	return scanFile(s.db.QueryRowContext(ctx,
		`SELECT `+fileColumns+` FROM files WHERE id = ?`, fileID))
}

// GetFile returns the user's file by id.
func (s *Service) GetFile(ctx context.Context, userID int64, fileID string) (*models.File, error) {
	return scanFile(s.db.QueryRowContext(ctx,
		`SELECT `+fileColumns+` FROM files WHERE id = ? AND user_id = ?`, fileID, userID))
}

// GetFileByKey returns the user's file by storage key.
func (s *Service) GetFileByKey(ctx context.Context, userID int64, storageKey string) (*models.File, error) {
	return scanFile(s.db.QueryRowContext(ctx,
		`SELECT `+fileColumns+` FROM files WHERE storage_key = ? AND user_id = ?`, storageKey, userID))
}

// GetStatus reports the file's ingestion status. Unknown ids read as
// PENDING so callers can poll a file whose registration is still in
// flight.
func (s *Service) GetStatus(ctx context.Context, userID int64, fileID string) (models.UploadStatus, error) {
	f, err := s.GetFile(ctx, userID, fileID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.StatusPending, nil
	}
	if err != nil {
		return "", err
	}
	return f.UploadStatus, nil
}

// ListFiles returns the user's files, newest first.
func (s *Service) ListFiles(ctx context.Context, userID int64) ([]models.File, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+fileColumns+` FROM files WHERE user_id = ? ORDER BY created_at DESC, id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}
	defer rows.Close()

	files := make([]models.File, 0)
	for rows.Next() {
		f, err := scanFile(rows)
		if err != nil {
			return nil, fmt.Errorf("scan file: %w", err)
		}
		files = append(files, *f)
	}
	return files, rows.Err()
}

// DeleteFile removes the file record, its messages and summaries, and
// drops its index namespace.
func (s *Service) DeleteFile(ctx context.Context, userID int64, fileID string) error {
	if _, err := s.GetFile(ctx, userID, fileID); err != nil {
		return err
	}

	if err := s.index.DropNamespace(ctx, fileID); err != nil {
		return fmt.Errorf("drop namespace: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	for _, q := range []string{
		`DELETE FROM messages WHERE file_id = ?`,
		`DELETE FROM summaries WHERE file_id = ?`,
		`DELETE FROM files WHERE id = ?`,
	} {
		if _, err := tx.ExecContext(ctx, q, fileID); err != nil {
			return fmt.Errorf("delete file: %w", err)
		}
	}
	return tx.Commit()
}
