package auth

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"docuchat/internal/config"
	"docuchat/internal/storage"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	cfg := &config.Config{
		Databases: map[string]config.DatabaseConfig{
			"sqlite3": {DSN: ":memory:"},
		},
	}
	db, err := storage.Open("sqlite3", cfg)
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := storage.Migrate(db, "sqlite3"); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func TestIssueAndValidateToken(t *testing.T) {
	db := openTestDB(t)
	defer db.Close()

	svc := NewService(db, nil, time.Hour)
	ctx := context.Background()

	token, err := svc.IssueToken(ctx, 7)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	userID, err := svc.ValidateToken(ctx, token)
	if err != nil {
		t.Fatalf("validate token: %v", err)
	}
	if userID != 7 {
		t.Fatalf("expected user 7, got %d", userID)
	}

	if _, err := svc.ValidateToken(ctx, "nope"); err == nil {
		t.Fatalf("expected error for unknown token")
	}
}

func TestValidateTokenExpiry(t *testing.T) {
	db := openTestDB(t)
	defer db.Close()

	svc := NewService(db, nil, time.Hour)
	ctx := context.Background()

	expired := "deadbeef"
	past := time.Now().UTC().Add(-time.Minute)
	if _, err := db.Exec(
		`INSERT INTO user_tokens (token, user_id, created_at, expires_at) VALUES (?, ?, ?, ?)`,
		expired, 3, past.Add(-time.Hour), past,
	); err != nil {
		t.Fatalf("insert expired token: %v", err)
	}
	if _, err := svc.ValidateToken(ctx, expired); err == nil {
		t.Fatalf("expected expiry error")
	}
	// expired token should have been removed
	var count int
	if err := db.QueryRow(`SELECT COUNT(*) FROM user_tokens WHERE token = ?`, expired).Scan(&count); err != nil {
		t.Fatalf("count tokens: %v", err)
	}
	if count != 0 {
		t.Fatalf("expired token not deleted")
	}
}

func TestRevokeToken(t *testing.T) {
	db := openTestDB(t)
	defer db.Close()

	svc := NewService(db, nil, time.Hour)
	ctx := context.Background()

	token, err := svc.IssueToken(ctx, 11)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	if err := svc.RevokeToken(ctx, token); err != nil {
		t.Fatalf("revoke token: %v", err)
	}
	if _, err := svc.ValidateToken(ctx, token); err == nil {
		t.Fatalf("expected error after revoke")
	}
}
