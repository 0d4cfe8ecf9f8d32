package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadAppliesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	raw := `{
		"databases": {"sqlite3": {"dsn": ":memory:"}},
		"summarizer": {"base_url": "http://127.0.0.1:8000"}
	}`
	if err := os.WriteFile(path, []byte(raw), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.BasicConfig.ServerAddress != ":8090" {
		t.Fatalf("expected default server address, got %q", cfg.BasicConfig.ServerAddress)
	}
	if cfg.Summarizer.Mode != "poll" {
		t.Fatalf("expected default summarizer mode poll, got %q", cfg.Summarizer.Mode)
	}
	if cfg.Summarizer.PollIntervalSeconds != DefaultPollIntervalSeconds {
		t.Fatalf("expected default poll interval, got %d", cfg.Summarizer.PollIntervalSeconds)
	}
	if cfg.Summarizer.MaxSummaryLength != DefaultMaxSummaryLength {
		t.Fatalf("expected default max summary length, got %d", cfg.Summarizer.MaxSummaryLength)
	}
}

func TestLoadRejectsMissingDatabases(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	if err := os.WriteFile(path, []byte(`{}`), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatalf("expected error for missing databases")
	}
}
