package db

import (
	"path/filepath"
	"testing"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	d, err := Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := d.Migrate(); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	t.Cleanup(func() { d.Close() })
	return d
}

func TestMigrate(t *testing.T) {
	d, err := Open(":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer d.Close()

	if err := d.Migrate(); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	for _, table := range []string{"schema_version", "context_events", "action_attempts"} {
		var name string
		err := d.conn.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		if err != nil {
			t.Errorf("table %s not found: %v", table, err)
		}
	}

	if err := d.Migrate(); err != nil {
		t.Fatalf("second migrate: %v", err)
	}
}

func TestOpen_CreatesParentDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "events.db")
	d, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer d.Close()
	if d.Path() != path {
		t.Errorf("Path = %q", d.Path())
	}
}

func TestReset(t *testing.T) {
	d := testDB(t)
	if err := d.LogEvent("u1", "roadmap_generated", "r1", 0, "", ""); err != nil {
		t.Fatal(err)
	}
	if err := d.Reset(); err != nil {
		t.Fatalf("reset: %v", err)
	}
	events, err := d.ListEvents("u1", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 0 {
		t.Errorf("expected no events after reset, got %d", len(events))
	}
}

func TestLogAndListEvents(t *testing.T) {
	d := testDB(t)

	if err := d.LogEvent("u1", "roadmap_generated", "r1", 0, "", "5 steps"); err != nil {
		t.Fatal(err)
	}
	if err := d.LogEvent("u1", "action_begun", "r1", 1, "action_1_1", ""); err != nil {
		t.Fatal(err)
	}
	if err := d.LogEvent("u2", "roadmap_generated", "r9", 0, "", ""); err != nil {
		t.Fatal(err)
	}

	events, err := d.ListEvents("u1", 0)
	if err != nil {
		t.Fatalf("ListEvents: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}
	if events[0].Event != "action_begun" || events[0].StepNumber != 1 || events[0].ActionID != "action_1_1" {
		t.Errorf("newest event = %+v", events[0])
	}
	if events[1].Detail != "5 steps" || events[1].StepNumber != 0 {
		t.Errorf("oldest event = %+v", events[1])
	}
	if events[0].Timestamp == "" {
		t.Error("timestamp should default")
	}

	limited, err := d.ListEvents("u1", 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(limited) != 1 {
		t.Errorf("limit 1 returned %d events", len(limited))
	}
}

func TestAttemptStats(t *testing.T) {
	d := testDB(t)

	logs := []struct {
		action    string
		attempt   int
		score     float64
		satisfied bool
	}{
		{"action_1_1", 1, 0.4, false},
		{"action_1_1", 2, 0.8, true},
		{"action_1_2", 1, 0.65, false},
		{"action_1_2", 2, 0.5, false},
	}
	for _, l := range logs {
		if err := d.LogAttempt("u1", "r1", l.action, l.attempt, l.score, l.satisfied); err != nil {
			t.Fatal(err)
		}
	}

	stats, err := d.AttemptStats("u1")
	if err != nil {
		t.Fatalf("AttemptStats: %v", err)
	}
	if len(stats) != 2 {
		t.Fatalf("got %d rows, want 2", len(stats))
	}
	if s := stats[0]; s.ActionID != "action_1_1" || s.Attempts != 2 || s.BestScore != 0.8 || !s.Satisfied || s.LastScore != 0.8 {
		t.Errorf("action_1_1 stats = %+v", s)
	}
	if s := stats[1]; s.Attempts != 2 || s.BestScore != 0.65 || s.Satisfied || s.LastScore != 0.5 {
		t.Errorf("action_1_2 stats = %+v", s)
	}

	attempts, err := d.ListAttempts("u1", "r1", "action_1_2")
	if err != nil {
		t.Fatal(err)
	}
	if len(attempts) != 2 || attempts[0].Attempt != 1 || attempts[1].Score != 0.5 {
		t.Errorf("attempts = %+v", attempts)
	}
}
