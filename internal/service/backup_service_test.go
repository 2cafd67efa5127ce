package service

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"vitalquiz/internal/database"
	"vitalquiz/internal/models"
	"vitalquiz/internal/repository"
)

func TestBackupExport(t *testing.T) {
	env := newTestEnv(t)

	session, total, err := env.quiz.StartSession(models.ModeTest)
	if err != nil {
		t.Fatalf("StartSession failed: %v", err)
	}
	for i := 0; i < total; i++ {
		answerCurrent(t, env, session.ID, i%2 == 0)
	}
	if _, err := env.quiz.Complete(session.ID); err != nil {
		t.Fatalf("Complete failed: %v", err)
	}

	backupService := NewBackupService(env.db)

	var buf bytes.Buffer
	if err := backupService.Export(&buf); err != nil {
		t.Fatalf("Export failed: %v", err)
	}

	var data BackupData
	if err := json.Unmarshal(buf.Bytes(), &data); err != nil {
		t.Fatalf("Export produced invalid JSON: %v", err)
	}

	if data.Version != "1" {
		t.Errorf("Expected version 1, got %q", data.Version)
	}
	if data.DatabaseType != "sqlite3" {
		t.Errorf("Expected database type sqlite3, got %q", data.DatabaseType)
	}
	if len(data.VitalPoints) != 8 {
		t.Errorf("Expected 8 vital points, got %d", len(data.VitalPoints))
	}
	if len(data.Sessions) != 1 {
		t.Fatalf("Expected 1 session, got %d", len(data.Sessions))
	}
	if len(data.Sessions[0].Questions) != total {
		t.Errorf("Expected %d question rows, got %d", total, len(data.Sessions[0].Questions))
	}
	if len(data.TestResults) != 1 {
		t.Errorf("Expected 1 result, got %d", len(data.TestResults))
	}
	if len(data.History) != total {
		t.Errorf("Expected %d history rows, got %d", total, len(data.History))
	}
}

func TestBackupRoundTrip(t *testing.T) {
	env := newTestEnv(t)

	session, total, err := env.quiz.StartSession(models.ModeTest)
	if err != nil {
		t.Fatalf("StartSession failed: %v", err)
	}
	for i := 0; i < total; i++ {
		answerCurrent(t, env, session.ID, true)
	}
	if _, err := env.quiz.Complete(session.ID); err != nil {
		t.Fatalf("Complete failed: %v", err)
	}

	backupPath := filepath.Join(t.TempDir(), "backup.json")
	if err := NewBackupService(env.db).ExportToFile(backupPath); err != nil {
		t.Fatalf("ExportToFile failed: %v", err)
	}

	// Restore into a fresh database
	restorePath := filepath.Join(t.TempDir(), "restore.db")
	restoreDB, err := database.Initialize(restorePath)
	if err != nil {
		t.Fatalf("Failed to initialize restore database: %v", err)
	}
	t.Cleanup(func() { restoreDB.Close() })
	if err := restoreDB.RunMigrations("../../migrations"); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	if err := NewBackupService(restoreDB).ImportFromFile(backupPath, false); err != nil {
		t.Fatalf("ImportFromFile failed: %v", err)
	}

	// The restored catalog keeps its ids
	vitalPoints := repository.NewVitalPointRepository(restoreDB)
	points, err := vitalPoints.GetAll()
	if err != nil {
		t.Fatalf("GetAll on restored database failed: %v", err)
	}
	if len(points) != 8 {
		t.Fatalf("Expected 8 restored vital points, got %d", len(points))
	}

	original, _ := repository.NewVitalPointRepository(env.db).GetAll()
	for i := range points {
		if points[i].ID != original[i].ID || points[i].Name != original[i].Name {
			t.Errorf("Restored point %d differs: got %d/%s, want %d/%s",
				i, points[i].ID, points[i].Name, original[i].ID, original[i].Name)
		}
	}

	// The restored session and result survive intact
	sessions := repository.NewSessionRepository(restoreDB)
	restored, err := sessions.GetByID(session.ID)
	if err != nil {
		t.Fatalf("GetByID on restored database failed: %v", err)
	}
	if restored == nil {
		t.Fatal("Session missing after restore")
	}
	if restored.Status != models.StatusCompleted || restored.CurrentIndex != total {
		t.Errorf("Restored session state: %s at %d", restored.Status, restored.CurrentIndex)
	}

	results := repository.NewResultRepository(restoreDB)
	result, err := results.GetBySessionID(session.ID)
	if err != nil {
		t.Fatalf("GetBySessionID on restored database failed: %v", err)
	}
	if result == nil {
		t.Fatal("Result missing after restore")
	}
	if result.Score != 100 {
		t.Errorf("Restored score %d, want 100", result.Score)
	}

	// Importing on top of existing data without clear conflicts
	if err := NewBackupService(restoreDB).ImportFromFile(backupPath, false); err == nil {
		t.Error("Expected conflict when importing over existing rows without clear")
	}

	// With clear, the import replaces everything
	if err := NewBackupService(restoreDB).ImportFromFile(backupPath, true); err != nil {
		t.Fatalf("ImportFromFile with clear failed: %v", err)
	}
	points, _ = vitalPoints.GetAll()
	if len(points) != 8 {
		t.Errorf("Expected 8 vital points after clearing import, got %d", len(points))
	}
}
