package summary

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"

	_ "github.com/mattn/go-sqlite3"

	"docuchat/internal/storage"
	"docuchat/internal/summarizer"
)

type stubResolver struct {
	text string
	err  error
}

func (s *stubResolver) Resolve(ctx context.Context, req summarizer.Request) (string, error) {
	return s.text, s.err
}

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := storage.Migrate(db, "sqlite3"); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func insertFile(t *testing.T, db *sql.DB, id string, userID int64) {
	t.Helper()
	_, err := db.Exec(
		`INSERT INTO files (id, user_id, name, storage_key, source_url, upload_status, created_at, updated_at)
		 VALUES (?, ?, 'doc.pdf', ?, 'http://example.com/doc.pdf', 'SUCCESS', CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)`,
		id, userID, "key-"+id,
	)
	if err != nil {
		t.Fatalf("insert file: %v", err)
	}
}

func TestSummarizePersistsShortSummary(t *testing.T) {
	db := setupDB(t)
	insertFile(t, db, "file-1", 1)
	svc := NewService(db, &stubResolver{text: "A short summary."}, 1000)

	res, err := svc.Summarize(context.Background(), 1, "file-1", summarizer.Request{SourceURL: "u", Text: "t"})
	if err != nil {
		t.Fatalf("summarize: %v", err)
	}
	if res.TooLong {
		t.Error("short summary marked too long")
	}
	if res.Summary == nil || res.Summary.ID == 0 {
		t.Fatal("summary not persisted")
	}

	list, err := svc.ListSummaries(context.Background(), 1, "file-1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 || list[0].Text != "A short summary." {
		t.Errorf("stored summaries: %+v", list)
	}
}

func TestSummarizeBoundaryLength(t *testing.T) {
	db := setupDB(t)
	insertFile(t, db, "file-1", 1)

	exact := strings.Repeat("a", 1000)
	svc := NewService(db, &stubResolver{text: exact}, 1000)
	res, err := svc.Summarize(context.Background(), 1, "file-1", summarizer.Request{SourceURL: "u", Text: "t"})
	if err != nil {
		t.Fatalf("summarize: %v", err)
	}
	if res.TooLong || res.Summary == nil {
		t.Error("summary of exactly the limit should persist")
	}
}

func TestSummarizeTooLongNotPersisted(t *testing.T) {
	db := setupDB(t)
	insertFile(t, db, "file-1", 1)

	long := strings.Repeat("a", 1001)
	svc := NewService(db, &stubResolver{text: long}, 1000)
	res, err := svc.Summarize(context.Background(), 1, "file-1", summarizer.Request{SourceURL: "u", Text: "t"})
	if err != nil {
		t.Fatalf("summarize: %v", err)
	}
	if !res.TooLong {
		t.Error("over-limit summary not flagged")
	}
	if res.Summary != nil {
		t.Error("over-limit summary persisted")
	}
	if res.Text != long {
		t.Error("over-limit summary text not returned inline")
	}

	list, err := svc.ListSummaries(context.Background(), 1, "file-1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 0 {
		t.Errorf("got %d stored summaries, want 0", len(list))
	}
}

func TestSummarizeJobFailure(t *testing.T) {
	db := setupDB(t)
	insertFile(t, db, "file-1", 1)
	svc := NewService(db, &stubResolver{err: &summarizer.FailureError{Detail: "backend down"}}, 1000)

	_, err := svc.Summarize(context.Background(), 1, "file-1", summarizer.Request{SourceURL: "u", Text: "t"})
	if !errors.Is(err, summarizer.ErrJobFailed) {
		t.Fatalf("got %v, want ErrJobFailed", err)
	}

	list, err := svc.ListSummaries(context.Background(), 1, "file-1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 0 {
		t.Error("failed job left a stored summary")
	}
}

func TestSummarizeOwnerIsolation(t *testing.T) {
	db := setupDB(t)
	insertFile(t, db, "file-1", 1)
	svc := NewService(db, &stubResolver{text: "short"}, 1000)

	if _, err := svc.Summarize(context.Background(), 2, "file-1", summarizer.Request{}); !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("summarize: got %v, want sql.ErrNoRows", err)
	}
	if _, err := svc.ListSummaries(context.Background(), 2, "file-1"); !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("list: got %v, want sql.ErrNoRows", err)
	}
}
