package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Config represents runtime configuration for the service.
type Config struct {
	BasicConfig BasicConfig               `json:"basic_config"`
	Databases   map[string]DatabaseConfig `json:"databases"`
	Redis       RedisConfig               `json:"redis"`
	AI          AIConfig                  `json:"ai"`
	Embedding   EmbeddingConfig           `json:"embedding"`
	VectorIndex VectorIndexConfig         `json:"vector_index"`
	BlobStore   BlobStoreConfig           `json:"blob_store"`
	Summarizer  SummarizerConfig          `json:"summarizer"`
}

type BasicConfig struct {
	ServerAddress string `json:"server_address"`
	UploadSecret  string `json:"upload_secret"`
	IngestWorkers int    `json:"ingest_workers"`
}

type DatabaseConfig struct {
	DSN      string `json:"dsn"`
	Username string `json:"username"`
	Password string `json:"password"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	DBName   string `json:"db_name"`
	Params   string `json:"params"`
}

type RedisConfig struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Username string `json:"username"`
	Password string `json:"password"`
	DB       int    `json:"db"`
}

type AIConfig struct {
	Provider  string `json:"provider"`
	BaseURL   string `json:"base_url"`
	Model     string `json:"model"`
	APIKey    string `json:"api_key"`
	MaxTokens int    `json:"max_tokens"`
}

type EmbeddingConfig struct {
	BaseURL string `json:"base_url"`
	Model   string `json:"model"`
	APIKey  string `json:"api_key"`
}

type VectorIndexConfig struct {
	// Path is the chromem persistence directory; empty keeps the index
	// in memory.
	Path string `json:"path"`
}

type BlobStoreConfig struct {
	Endpoint  string `json:"endpoint"`
	AccessKey string `json:"access_key"`
	SecretKey string `json:"secret_key"`
	UseSSL    bool   `json:"use_ssl"`
	Region    string `json:"region"`
	Bucket    string `json:"bucket"`
}

type SummarizerConfig struct {
	// Mode selects the reconciliation strategy: "poll" or "push".
	Mode                string `json:"mode"`
	BaseURL             string `json:"base_url"`
	WSURL               string `json:"ws_url"`
	PollIntervalSeconds int    `json:"poll_interval_seconds"`
	NoticeDelaySeconds  int    `json:"notice_delay_seconds"`
	TimeoutSeconds      int    `json:"timeout_seconds"`
	MaxSummaryLength    int    `json:"max_summary_length"`
}

const (
	DefaultPollIntervalSeconds = 5
	DefaultNoticeDelaySeconds  = 25
	DefaultTimeoutSeconds      = 600
	DefaultMaxSummaryLength    = 1000
)

// Load reads configuration from the provided path (defaults to config.json).
func Load(path string) (*Config, error) {
	if path == "" {
		path = "config.json"
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve config path: %w", err)
	}

	file, err := os.Open(absPath)
	if err != nil {
		return nil, fmt.Errorf("open config %s: %w", absPath, err)
	}
	defer file.Close()

	var cfg Config
	if err := json.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if len(cfg.Databases) == 0 {
		return nil, fmt.Errorf("at least one database must be configured")
	}
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.BasicConfig.ServerAddress == "" {
		c.BasicConfig.ServerAddress = ":8090"
	}
	if c.Summarizer.Mode == "" {
		c.Summarizer.Mode = "poll"
	}
	if c.Summarizer.PollIntervalSeconds <= 0 {
		c.Summarizer.PollIntervalSeconds = DefaultPollIntervalSeconds
	}
	if c.Summarizer.NoticeDelaySeconds <= 0 {
		c.Summarizer.NoticeDelaySeconds = DefaultNoticeDelaySeconds
	}
	if c.Summarizer.TimeoutSeconds <= 0 {
		c.Summarizer.TimeoutSeconds = DefaultTimeoutSeconds
	}
	if c.Summarizer.MaxSummaryLength <= 0 {
		c.Summarizer.MaxSummaryLength = DefaultMaxSummaryLength
	}
}
