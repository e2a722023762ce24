package db_test

import (
	"path/filepath"
	"testing"
	"time"

	"hablago/pkg/db"
)

func TestDB(t *testing.T) {
	tempDir := t.TempDir()
	path := filepath.Join(tempDir, "nested", "db_test.db")

	d, err := db.Init(path)
	if err != nil {
		t.Fatalf("Init() failed: %v", err)
	}
	if d == nil {
		t.Fatal("Init() returned nil DB")
	}
	defer d.Close()

	for _, table := range []string{"persistent_state", "quiz_results"} {
		var name string
		err := d.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		if err != nil {
			t.Errorf("table %s missing: %v", table, err)
		}
	}
}

func TestInit_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "twice.db")
	for i := 0; i < 2; i++ {
		d, err := db.Init(path)
		if err != nil {
			t.Fatalf("Init() run %d failed: %v", i, err)
		}
		d.Close()
	}
}

func TestPruneResults(t *testing.T) {
	d, err := db.Init(filepath.Join(t.TempDir(), "prune.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer d.Close()

	insert := "INSERT INTO quiz_results (id, source, total, correct, incorrect, accuracy, finished_at) VALUES (?, 'test', 1, 1, 0, 100, ?)"
	if _, err := d.Exec(insert, "old", time.Now().Add(-40*24*time.Hour).UTC()); err != nil {
		t.Fatal(err)
	}
	if _, err := d.Exec(insert, "new", time.Now().Add(-time.Hour).UTC()); err != nil {
		t.Fatal(err)
	}

	n, err := d.PruneResults(30 * 24 * time.Hour)
	if err != nil {
		t.Fatalf("PruneResults failed: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 pruned row, got %d", n)
	}

	var count int
	if err := d.QueryRow("SELECT count(*) FROM quiz_results").Scan(&count); err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Errorf("expected 1 remaining row, got %d", count)
	}
}
