package repository

import (
	"context"
	"fmt"

	"github.com/joseph-ayodele/records-ingest/internal/common"
)

const (
	tableFiles       = "ingested_files"
	tableStudents    = "students"
	tableRecords     = "records"
	tableExtractRuns = "extract_runs"
)

// schema is portable between SQLite and Postgres: timestamps are RFC 3339
// text and JSON documents are stored as text.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS ingested_files (
		id           TEXT PRIMARY KEY,
		content_hash TEXT NOT NULL UNIQUE,
		category     TEXT NOT NULL,
		filename     TEXT NOT NULL,
		file_ext     TEXT NOT NULL,
		file_size    BIGINT NOT NULL,
		source_path  TEXT NOT NULL DEFAULT '',
		uploaded_at  TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS ingested_files_category_idx ON ingested_files (category)`,
	`CREATE TABLE IF NOT EXISTS students (
		student_id       TEXT PRIMARY KEY,
		full_name        TEXT NOT NULL DEFAULT '',
		surname          TEXT NOT NULL DEFAULT '',
		first_name       TEXT NOT NULL DEFAULT '',
		year_level       TEXT NOT NULL DEFAULT '',
		course           TEXT NOT NULL DEFAULT '',
		section          TEXT NOT NULL DEFAULT '',
		department       TEXT NOT NULL DEFAULT '',
		contact_number   TEXT NOT NULL DEFAULT '',
		guardian_name    TEXT NOT NULL DEFAULT '',
		guardian_contact TEXT NOT NULL DEFAULT '',
		source_file      TEXT NOT NULL DEFAULT '',
		updated_at       TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS records (
		id             TEXT PRIMARY KEY,
		category       TEXT NOT NULL,
		department     TEXT NOT NULL,
		record_key     TEXT,
		source_file    TEXT NOT NULL,
		content_hash   TEXT NOT NULL,
		payload        TEXT NOT NULL,
		metadata       TEXT NOT NULL,
		formatted_text TEXT NOT NULL,
		created_at     TEXT NOT NULL
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS records_category_key_idx ON records (category, record_key)`,
	`CREATE INDEX IF NOT EXISTS records_category_department_idx ON records (category, department)`,
	`CREATE TABLE IF NOT EXISTS extract_runs (
		id            TEXT PRIMARY KEY,
		file_id       TEXT NOT NULL,
		category      TEXT NOT NULL,
		outcome       TEXT NOT NULL,
		record_id     TEXT NOT NULL DEFAULT '',
		error_message TEXT NOT NULL DEFAULT '',
		started_at    TEXT NOT NULL,
		finished_at   TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE INDEX IF NOT EXISTS extract_runs_file_idx ON extract_runs (file_id)`,
}

// Migrate creates every table and index that does not exist yet.
func (s *Store) Migrate(ctx context.Context) error {
	for i, stmt := range schema {
		if err := s.drv.Exec(ctx, stmt, []any{}, nil); err != nil {
			s.logger.Error("failed to apply schema", "statement", i, "error", err)
			return fmt.Errorf("%w: migrate: %v", common.ErrDatabase, err)
		}
	}
	s.logger.Info("database schema ready", "statements", len(schema))
	return nil
}
