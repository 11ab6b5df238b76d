// Package storage is the core's own append-only operational ledger: a
// record of completed batch exports and managed-tool installs, written by
// the pipeline itself rather than an external CRUD layer.
package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// DB wraps the SQLite connection backing the ledger.
type DB struct {
	conn *sql.DB
	path string
}

// New opens (creating if needed) cursedclipper.db under dataDir and runs
// migrations.
func New(dataDir string) (*DB, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "cursedclipper.db")

	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA cache_size = -32000",
	}
	for _, pragma := range pragmas {
		if _, err := conn.Exec(pragma); err != nil {
			conn.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	db := &DB{conn: conn, path: dbPath}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migration failed: %w", err)
	}
	return db, nil
}

// Close closes the underlying connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Conn returns the underlying connection for advanced queries.
func (db *DB) Conn() *sql.DB {
	return db.conn
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS export_runs (
		id TEXT PRIMARY KEY,
		project_name TEXT NOT NULL,
		source_path TEXT NOT NULL,
		run_dir TEXT NOT NULL,
		task_count INTEGER DEFAULT 0,
		exported_count INTEGER DEFAULT 0,
		status TEXT DEFAULT 'success',
		error_message TEXT,
		started_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		completed_at DATETIME
	);

	CREATE INDEX IF NOT EXISTS idx_export_runs_started_at ON export_runs(started_at DESC);

	CREATE TABLE IF NOT EXISTS export_artifacts (
		id TEXT PRIMARY KEY,
		run_id TEXT NOT NULL REFERENCES export_runs(id) ON DELETE CASCADE,
		clip_id TEXT NOT NULL,
		platform_id TEXT NOT NULL,
		output_path TEXT NOT NULL,
		cover_path TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_export_artifacts_run_id ON export_artifacts(run_id);

	CREATE TABLE IF NOT EXISTS tool_installs (
		id TEXT PRIMARY KEY,
		tool_name TEXT NOT NULL,
		version TEXT,
		source TEXT NOT NULL,
		installed_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_tool_installs_installed_at ON tool_installs(installed_at DESC);
	`
	_, err := db.conn.Exec(schema)
	return err
}
