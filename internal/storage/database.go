package storage

import (
	"database/sql"
	"fmt"
	"strings"

	"docuchat/internal/config"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/mattn/go-sqlite3"
)

// Open connects to the configured database.
func Open(dbType string, cfg *config.Config) (*sql.DB, error) {
	dbCfg, ok := cfg.Databases[dbType]
	if !ok {
		return nil, fmt.Errorf("database config for %s not found", dbType)
	}

	var (
		db  *sql.DB
		err error
	)

	switch strings.ToLower(dbType) {
	case "sqlite", "sqlite3":
		if dbCfg.DSN == "" {
			return nil, fmt.Errorf("sqlite dsn must be provided")
		}
		db, err = sql.Open("sqlite3", dbCfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("open sqlite database: %w", err)
		}
		if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
			db.Close()
			return nil, fmt.Errorf("enable sqlite foreign keys: %w", err)
		}
	case "mysql":
		dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?%s",
			dbCfg.Username,
			dbCfg.Password,
			dbCfg.Host,
			dbCfg.Port,
			dbCfg.DBName,
			dbCfg.Params,
		)
		db, err = sql.Open("mysql", dsn)
		if err != nil {
			return nil, fmt.Errorf("open mysql database: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported driver: %s", dbType)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}

// Migrate ensures the required tables are present. The unique index on
// files.storage_key is the dedup key guarding against duplicate
// upload-complete callbacks.
func Migrate(db *sql.DB, driver string) error {
	var stmts []string
	switch strings.ToLower(driver) {
	case "sqlite", "sqlite3":
		stmts = []string{
			`CREATE TABLE IF NOT EXISTS files (
				id TEXT PRIMARY KEY,
				user_id INTEGER NOT NULL,
				name TEXT NOT NULL,
				storage_key TEXT NOT NULL UNIQUE,
				source_url TEXT NOT NULL,
				upload_status TEXT NOT NULL,
				error_message TEXT,
				created_at DATETIME NOT NULL,
				updated_at DATETIME NOT NULL
			)`,
			`CREATE INDEX IF NOT EXISTS idx_files_user ON files(user_id)`,
			`CREATE TABLE IF NOT EXISTS messages (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				file_id TEXT NOT NULL,
				user_id INTEGER NOT NULL,
				is_user_message INTEGER NOT NULL,
				text TEXT NOT NULL,
				created_at DATETIME NOT NULL,
				FOREIGN KEY(file_id) REFERENCES files(id) ON DELETE CASCADE
			)`,
			`CREATE INDEX IF NOT EXISTS idx_messages_file ON messages(file_id, created_at DESC, id DESC)`,
			`CREATE TABLE IF NOT EXISTS summaries (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				file_id TEXT NOT NULL,
				user_id INTEGER NOT NULL,
				text TEXT NOT NULL,
				created_at DATETIME NOT NULL,
				FOREIGN KEY(file_id) REFERENCES files(id) ON DELETE CASCADE
			)`,
			`CREATE INDEX IF NOT EXISTS idx_summaries_file ON summaries(file_id)`,
			`CREATE TABLE IF NOT EXISTS user_tokens (
				token TEXT PRIMARY KEY,
				user_id INTEGER NOT NULL,
				created_at DATETIME NOT NULL,
				expires_at DATETIME NOT NULL
			)`,
			`CREATE INDEX IF NOT EXISTS idx_user_tokens_user ON user_tokens(user_id)`,
		}
	case "mysql":
		stmts = []string{
			`CREATE TABLE IF NOT EXISTS files (
				id VARCHAR(36) NOT NULL,
				user_id BIGINT NOT NULL,
				name VARCHAR(255) NOT NULL,
				storage_key VARCHAR(255) NOT NULL,
				source_url TEXT NOT NULL,
				upload_status VARCHAR(20) NOT NULL,
				error_message TEXT,
				created_at DATETIME NOT NULL,
				updated_at DATETIME NOT NULL,
				PRIMARY KEY (id),
				UNIQUE KEY uniq_files_storage_key (storage_key),
				INDEX idx_files_user (user_id)
			) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
			`CREATE TABLE IF NOT EXISTS messages (
				id BIGINT NOT NULL AUTO_INCREMENT,
				file_id VARCHAR(36) NOT NULL,
				user_id BIGINT NOT NULL,
				is_user_message TINYINT(1) NOT NULL,
				text MEDIUMTEXT NOT NULL,
				created_at DATETIME NOT NULL,
				PRIMARY KEY (id),
				INDEX idx_messages_file (file_id, created_at DESC, id DESC),
				CONSTRAINT fk_messages_file FOREIGN KEY (file_id) REFERENCES files(id) ON DELETE CASCADE
			) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
			`CREATE TABLE IF NOT EXISTS summaries (
				id BIGINT NOT NULL AUTO_INCREMENT,
				file_id VARCHAR(36) NOT NULL,
				user_id BIGINT NOT NULL,
				text MEDIUMTEXT NOT NULL,
				created_at DATETIME NOT NULL,
				PRIMARY KEY (id),
				INDEX idx_summaries_file (file_id),
				CONSTRAINT fk_summaries_file FOREIGN KEY (file_id) REFERENCES files(id) ON DELETE CASCADE
			) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
			`CREATE TABLE IF NOT EXISTS user_tokens (
				token VARCHAR(255) NOT NULL PRIMARY KEY,
				user_id BIGINT NOT NULL,
				created_at DATETIME NOT NULL,
				expires_at DATETIME NOT NULL,
				INDEX idx_user_tokens_user (user_id)
			) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
		}
	default:
		return fmt.Errorf("unsupported driver for migration: %s", driver)
	}

	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("migrate (%s): %w", driver, err)
		}
	}
	return nil
}
