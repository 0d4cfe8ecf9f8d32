// Package summary runs summarization jobs against the external backend
// and keeps the per-file summary history.
package summary

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"docuchat/internal/models"
	"docuchat/internal/summarizer"
)

// Service resolves summaries and persists the ones short enough to keep.
type Service struct {
	db       *sql.DB
	resolver summarizer.Resolver
	maxLen   int
}

// NewService builds the summary service. maxLen bounds the summary size
// that gets persisted; longer results are returned inline only.
func NewService(db *sql.DB, resolver summarizer.Resolver, maxLen int) *Service {
	if maxLen <= 0 {
		maxLen = 1000
	}
	return &Service{db: db, resolver: resolver, maxLen: maxLen}
}

// Result is the outcome of one summarization job. When TooLong is set
// the text was not persisted and Summary is nil.
type Result struct {
	Text    string
	TooLong bool
	Summary *models.Summary
}

func (s *Service) verifyFile(ctx context.Context, fileID string, userID int64) error {
	var exists bool
	if err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM files WHERE id = ? AND user_id = ?)`,
		fileID, userID,
	).Scan(&exists); err != nil {
		return fmt.Errorf("verify file: %w", err)
	}
	if !exists {
		return sql.ErrNoRows
	}
	return nil
}

// Summarize resolves a summary for the file's text and persists it when
// it fits within the length bound.
func (s *Service) Summarize(ctx context.Context, userID int64, fileID string, req summarizer.Request) (*Result, error) {
	if err := s.verifyFile(ctx, fileID, userID); err != nil {
		return nil, err
	}

	text, err := s.resolver.Resolve(ctx, req)
	if err != nil {
		return nil, err
	}

	if len([]rune(text)) > s.maxLen {
		return &Result{Text: text, TooLong: true}, nil
	}

	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO summaries (file_id, user_id, text, created_at) VALUES (?, ?, ?, ?)`,
		fileID, userID, text, now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert summary: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("summary id: %w", err)
	}
	return &Result{
		Text: text,
		Summary: &models.Summary{
			ID:        id,
			FileID:    fileID,
			UserID:    userID,
			Text:      text,
			CreatedAt: now,
		},
	}, nil
}

// ListSummaries returns the file's stored summaries, newest first.
func (s *Service) ListSummaries(ctx context.Context, userID int64, fileID string) ([]models.Summary, error) {
	if err := s.verifyFile(ctx, fileID, userID); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, file_id, user_id, text, created_at FROM summaries
		 WHERE file_id = ? ORDER BY created_at DESC, id DESC`,
		fileID,
	)
	if err != nil {
		return nil, fmt.Errorf("list summaries: %w", err)
	}
	defer rows.Close()

	summaries := make([]models.Summary, 0)
	for rows.Next() {
		var sm models.Summary
		if err := rows.Scan(&sm.ID, &sm.FileID, &sm.UserID, &sm.Text, &sm.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan summary: %w", err)
		}
		summaries = append(summaries, sm)
	}
	return summaries, rows.Err()
}
