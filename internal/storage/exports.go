package storage

import (
	"database/sql"
	"time"

	"github.com/google/uuid"

	"cursedclipper/internal/export"
)

// ExportRun is one completed (or failed) batch export, per the append-only
// ledger.
type ExportRun struct {
	ID            string     `json:"id"`
	ProjectName   string     `json:"projectName"`
	SourcePath    string     `json:"sourcePath"`
	RunDir        string     `json:"runDir"`
	TaskCount     int        `json:"taskCount"`
	ExportedCount int        `json:"exportedCount"`
	Status        string     `json:"status"`
	ErrorMessage  string     `json:"errorMessage"`
	StartedAt     time.Time  `json:"startedAt"`
	CompletedAt   *time.Time `json:"completedAt"`
}

// ExportRepository records batch export runs and their artifacts.
type ExportRepository struct {
	db *DB
}

// NewExportRepository creates an ExportRepository.
func NewExportRepository(db *DB) *ExportRepository {
	return &ExportRepository{db: db}
}

// RecordSuccess inserts a completed run and its artifacts in one transaction.
func (r *ExportRepository) RecordSuccess(projectName, sourcePath string, taskCount int, result export.Result) error {
	tx, err := r.db.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	runID := uuid.New().String()
	now := time.Now()

	if _, err := tx.Exec(
		`INSERT INTO export_runs (id, project_name, source_path, run_dir, task_count, exported_count, status, started_at, completed_at)
		 VALUES (?, ?, ?, ?, ?, ?, 'success', ?, ?)`,
		runID, projectName, sourcePath, result.ProjectDir, taskCount, result.ExportedCount, now, now,
	); err != nil {
		return err
	}

	for _, artifact := range result.Artifacts {
		if _, err := tx.Exec(
			`INSERT INTO export_artifacts (id, run_id, clip_id, platform_id, output_path, cover_path)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			uuid.New().String(), runID, artifact.ClipID, artifact.PlatformID, artifact.OutputPath, artifact.CoverPath,
		); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// RecordFailure inserts a failed run with no artifacts.
func (r *ExportRepository) RecordFailure(projectName, sourcePath string, taskCount int, failureErr error) error {
	now := time.Now()
	_, err := r.db.conn.Exec(
		`INSERT INTO export_runs (id, project_name, source_path, run_dir, task_count, exported_count, status, error_message, started_at, completed_at)
		 VALUES (?, ?, ?, '', ?, 0, 'failed', ?, ?, ?)`,
		uuid.New().String(), projectName, sourcePath, taskCount, failureErr.Error(), now, now,
	)
	return err
}

// GetHistory returns the most recent runs, newest first.
func (r *ExportRepository) GetHistory(limit int) ([]*ExportRun, error) {
	rows, err := r.db.conn.Query(
		`SELECT id, project_name, source_path, run_dir, task_count, exported_count,
		        status, COALESCE(error_message,''), started_at, completed_at
		 FROM export_runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []*ExportRun
	for rows.Next() {
		run := &ExportRun{}
		var completedAt sql.NullTime
		if err := rows.Scan(
			&run.ID, &run.ProjectName, &run.SourcePath, &run.RunDir, &run.TaskCount,
			&run.ExportedCount, &run.Status, &run.ErrorMessage, &run.StartedAt, &completedAt,
		); err != nil {
			return nil, err
		}
		if completedAt.Valid {
			run.CompletedAt = &completedAt.Time
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// RecordToolInstall appends a managed-install event.
func (r *ExportRepository) RecordToolInstall(toolName, version, source string) error {
	_, err := r.db.conn.Exec(
		`INSERT INTO tool_installs (id, tool_name, version, source) VALUES (?, ?, ?, ?)`,
		uuid.New().String(), toolName, version, source,
	)
	return err
}
