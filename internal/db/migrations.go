package db

import (
	"database/sql"
	"fmt"
)

// Base schema - uses Snowflake IDs (no AUTOINCREMENT)
const baseSchema = `
CREATE TABLE IF NOT EXISTS jobs (
  id INTEGER PRIMARY KEY,
  file_name TEXT NOT NULL,
  source_path TEXT NOT NULL,
  source_lang TEXT NOT NULL,
  target_langs TEXT NOT NULL,
  status TEXT NOT NULL,
  progress INTEGER NOT NULL DEFAULT 0,
  error_message TEXT,
  spreadsheet_id TEXT,
  created_at TEXT NOT NULL,
  updated_at TEXT NOT NULL,
  expires_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_jobs_status ON jobs(status);
CREATE INDEX IF NOT EXISTS idx_jobs_expires_at ON jobs(expires_at);

CREATE TABLE IF NOT EXISTS results (
  id INTEGER PRIMARY KEY,
  job_id INTEGER NOT NULL,
  language TEXT NOT NULL,
  file_name TEXT NOT NULL,
  file_id TEXT NOT NULL UNIQUE,
  path TEXT NOT NULL,
  size INTEGER NOT NULL DEFAULT 0,
  created_at TEXT NOT NULL,
  FOREIGN KEY (job_id) REFERENCES jobs(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_results_job_id ON results(job_id);

CREATE TABLE IF NOT EXISTS translations (
  id INTEGER PRIMARY KEY,
  source_lang TEXT NOT NULL,
  target_lang TEXT NOT NULL,
  source_hash TEXT NOT NULL,
  source_text TEXT NOT NULL,
  translated_text TEXT NOT NULL,
  engine TEXT NOT NULL,
  created_at TEXT NOT NULL
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_translations_lookup
  ON translations(source_hash, source_lang, target_lang, engine);

CREATE TABLE IF NOT EXISTS settings (
  key TEXT PRIMARY KEY,
  value TEXT NOT NULL,
  updated_at TEXT NOT NULL
);
`

func Migrate(db *sql.DB) error {
	if _, err := db.Exec(baseSchema); err != nil {
		return fmt.Errorf("migrate base schema: %w", err)
	}

	if err := runMigrations(db); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	return nil
}

func runMigrations(db *sql.DB) error {
	// Migration 1: Add result_kind column so re-imported decks can be
	// told apart from pipeline output.
	var count int
	err := db.QueryRow(`
		SELECT COUNT(*) FROM pragma_table_info('results') WHERE name = 'kind'
	`).Scan(&count)
	if err != nil {
		return fmt.Errorf("check kind column: %w", err)
	}

	if count == 0 {
		if _, err := db.Exec(`ALTER TABLE results ADD COLUMN kind TEXT NOT NULL DEFAULT 'pipeline'`); err != nil {
			return fmt.Errorf("add kind column: %w", err)
		}
	}

	return nil
}
