package storage

import (
	"errors"
	"testing"

	"cursedclipper/internal/export"
)

func setupTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestNew_CreatesDatabaseAndMigrates(t *testing.T) {
	db := setupTestDB(t)

	for _, table := range []string{"export_runs", "export_artifacts", "tool_installs"} {
		var count int
		if err := db.conn.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&count); err != nil {
			t.Fatalf("%s table should exist: %v", table, err)
		}
	}
}

func TestExportRepository_RecordSuccessAndHistory(t *testing.T) {
	db := setupTestDB(t)
	repo := NewExportRepository(db)

	result := export.Result{
		ProjectDir:    "/projects/demo/exports/batch-1",
		ExportedCount: 2,
		Artifacts: []export.Artifact{
			{ClipID: "c1", PlatformID: "tiktok", OutputPath: "/out/c1.mp4"},
			{ClipID: "c2", PlatformID: "instagram-reels", OutputPath: "/out/c2.mp4"},
		},
	}

	if err := repo.RecordSuccess("demo", "/src.mp4", 2, result); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	runs, err := repo.GetHistory(10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("expected 1 run, got %d", len(runs))
	}
	run := runs[0]
	if run.Status != "success" || run.ExportedCount != 2 || run.ProjectName != "demo" {
		t.Errorf("unexpected run: %+v", run)
	}
	if run.CompletedAt == nil {
		t.Error("expected CompletedAt to be set")
	}

	var artifactCount int
	if err := db.conn.QueryRow("SELECT COUNT(*) FROM export_artifacts WHERE run_id = ?", run.ID).Scan(&artifactCount); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if artifactCount != 2 {
		t.Errorf("artifact count = %d, want 2", artifactCount)
	}
}

func TestExportRepository_RecordFailure(t *testing.T) {
	db := setupTestDB(t)
	repo := NewExportRepository(db)

	if err := repo.RecordFailure("demo", "/src.mp4", 3, errors.New("ffmpeg exited 1")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	runs, err := repo.GetHistory(10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(runs) != 1 || runs[0].Status != "failed" || runs[0].ErrorMessage != "ffmpeg exited 1" {
		t.Errorf("unexpected runs: %+v", runs)
	}
}

func TestExportRepository_RecordToolInstall(t *testing.T) {
	db := setupTestDB(t)
	repo := NewExportRepository(db)

	if err := repo.RecordToolInstall("yt-dlp", "2026.01.01", "managed"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var count int
	if err := db.conn.QueryRow("SELECT COUNT(*) FROM tool_installs WHERE tool_name = 'yt-dlp'").Scan(&count); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 tool_installs row, got %d", count)
	}
}

func TestExportRepository_GetHistoryRespectsLimit(t *testing.T) {
	db := setupTestDB(t)
	repo := NewExportRepository(db)

	for i := 0; i < 5; i++ {
		if err := repo.RecordFailure("demo", "/src.mp4", 1, errors.New("boom")); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	runs, err := repo.GetHistory(2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(runs) != 2 {
		t.Errorf("expected 2 runs, got %d", len(runs))
	}
}
