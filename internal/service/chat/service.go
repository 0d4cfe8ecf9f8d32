// Package chat persists conversation turns and orchestrates
// retrieval-augmented streaming replies.
package chat

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"docuchat/internal/ai"
	"docuchat/internal/models"
	"docuchat/internal/vectorindex"
)

// Service owns the per-file message log and the chat turn protocol.
type Service struct {
	db    *sql.DB
	index vectorindex.Index
	ai    ai.Completer
}

const (
	// recentWindow caps how many prior messages feed the prompt.
	recentWindow = 6
	// searchK caps similarity-search passages per turn.
	searchK = 4

	DefaultPageLimit = 10
	MaxPageLimit     = 100
)

// NewService builds the chat service.
func NewService(db *sql.DB, index vectorindex.Index, completer ai.Completer) *Service {
	return &Service{db: db, index: index, ai: completer}
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
		// absence and owner mismatch are deliberately indistinguishable
		return sql.ErrNoRows
	}
	return nil
}

// AppendMessage stores a message and returns the record with its
// server-assigned id and timestamp.
func (s *Service) AppendMessage(ctx context.Context, msg models.Message) (*models.Message, error) {
	msg.Text = strings.TrimSpace(msg.Text)
	if msg.Text == "" {
		return nil, errors.New("text cannot be empty")
	}
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO messages (file_id, user_id, is_user_message, text, created_at) VALUES (?, ?, ?, ?, ?)`,
		msg.FileID, msg.UserID, msg.IsUserMessage, msg.Text, now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert message: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("message id: %w", err)
	}
	msg.ID = id
	msg.CreatedAt = now
	return &msg, nil
}

// RecentMessages returns up to n most recent messages for the file in
// chronological order.
func (s *Service) RecentMessages(ctx context.Context, fileID string, n int) ([]models.Message, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, file_id, user_id, is_user_message, text, created_at
		 FROM messages WHERE file_id = ?
		 ORDER BY created_at DESC, id DESC LIMIT ?`,
		fileID, n,
	)
	if err != nil {
		return nil, fmt.Errorf("recent messages: %w", err)
	}
	defer rows.Close()

	var messages []models.Message
	for rows.Next() {
		var m models.Message
		if err := rows.Scan(&m.ID, &m.FileID, &m.UserID, &m.IsUserMessage, &m.Text, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	// reverse newest-first into chronological order
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

// Page is one page of the conversation log, newest first.
type Page struct {
	Messages   []models.Message `json:"messages"`
	NextCursor *int64           `json:"next_cursor,omitempty"`
}

// PageMessages returns up to limit messages newest-first. It over-fetches
// by one: when more remain, the extra row's id becomes the next cursor and
// the row itself is excluded. A cursor anchors the page to "this id and
// older".
func (s *Service) PageMessages(ctx context.Context, fileID string, userID int64, limit int, cursor int64) (*Page, error) {
	if err := s.verifyFile(ctx, fileID, userID); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultPageLimit
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}

	query := `SELECT id, file_id, user_id, is_user_message, text, created_at
		 FROM messages WHERE file_id = ?`
	args := []interface{}{fileID}
	if cursor > 0 {
		query += ` AND id <= ?`
		args = append(args, cursor)
	}
	query += ` ORDER BY created_at DESC, id DESC LIMIT ?`
	args = append(args, limit+1)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("page messages: %w", err)
	}
	defer rows.Close()

	var messages []models.Message
	for rows.Next() {
		var m models.Message
		if err := rows.Scan(&m.ID, &m.FileID, &m.UserID, &m.IsUserMessage, &m.Text, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	page := &Page{Messages: messages}
	if len(messages) > limit {
		next := messages[limit].ID
		page.Messages = messages[:limit]
		page.NextCursor = &next
	}
	if page.Messages == nil {
		page.Messages = make([]models.Message, 0)
	}
	return page, nil
}

// StreamTurn runs one chat turn: the user message is made durable before
// any external call, retrieval context is assembled, the completion is
// streamed through onChunk, and exactly one assistant message is persisted
// when the stream ends cleanly. A mid-flight stream failure leaves the
// user message in place and persists nothing else. onAck, when non-nil,
// fires once right after the user message is persisted.
func (s *Service) StreamTurn(ctx context.Context, userID int64, fileID, text string, onAck func(*models.Message) error, onChunk func(string) error) (*models.Message, *models.Message, error) {
	if err := s.verifyFile(ctx, fileID, userID); err != nil {
		return nil, nil, err
	}

	userMsg, err := s.AppendMessage(ctx, models.Message{
		FileID:        fileID,
		UserID:        userID,
		IsUserMessage: true,
		Text:          text,
	})
	if err != nil {
		return nil, nil, err
	}
	if onAck != nil {
		if err := onAck(userMsg); err != nil {
			return userMsg, nil, err
		}
	}

	// similarity search runs while we read the recent transcript
	type searchResult struct {
		passages []vectorindex.Passage
		err      error
	}
	searchCh := make(chan searchResult, 1)
	go func() {
		passages, err := s.index.SimilaritySearch(ctx, fileID, text, searchK)
		searchCh <- searchResult{passages: passages, err: err}
	}()

	prev, err := s.RecentMessages(ctx, fileID, recentWindow+1)
	if err != nil {
		return userMsg, nil, err
	}
	// the turn's own user message is passed separately, not as history
	filtered := prev[:0]
	for _, m := range prev {
		if m.ID != userMsg.ID {
			filtered = append(filtered, m)
		}
	}
	prev = filtered

	res := <-searchCh
	if res.err != nil {
		// degrade to zero passages rather than aborting the turn
		log.Printf("similarity search failed for file %s: %v", fileID, res.err)
		res.passages = nil
	}

	completion, err := s.ai.StreamCompletion(ctx, systemInstruction, buildUserPrompt(prev, res.passages, text), onChunk)
	if err != nil {
		return userMsg, nil, err
	}

	assistantMsg, err := s.AppendMessage(ctx, models.Message{
		FileID:        fileID,
		UserID:        userID,
		IsUserMessage: false,
		Text:          completion,
	})
	if err != nil {
		return userMsg, nil, err
	}
	return userMsg, assistantMsg, nil
}
