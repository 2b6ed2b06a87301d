package usercontext

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/lucasnoah/careerpath/internal/apperr"
	"github.com/lucasnoah/careerpath/internal/reroute"
	"github.com/lucasnoah/careerpath/internal/roadmap"
)

var t0 = time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)

func newTestStore(t *testing.T) *FileStore {
	t.Helper()
	return NewFileStore(t.TempDir())
}

// sampleContext returns a context with a roadmap part-way through step 1.
func sampleContext(t *testing.T, userID string) *UserContext {
	t.Helper()
	c := New(userID, t0)
	c.Profile.Education = "BSc Computer Science"
	c.Profile.TechnicalSkills = []string{"python", "sql"}
	c.Goals.StatedGoal = "become a data engineer"
	c.ActivePath.TargetRole = "Data Engineer"

	planned := make([]roadmap.Step, 2)
	for i := range planned {
		planned[i].Title = fmt.Sprintf("Step %d", i+1)
		for j := 0; j < roadmap.ActionsPerStep; j++ {
			planned[i].Actions = append(planned[i].Actions, roadmap.Action{Title: fmt.Sprintf("A%d", j+1)})
		}
	}
	r, err := roadmap.New(userID+"_roadmap_1", "Data Engineer", planned, t0)
	if err != nil {
		t.Fatal(err)
	}
	score := 0.75
	ts := t0.Add(time.Hour)
	a := &r.Steps[0].Actions[0]
	a.Status = roadmap.ActionCompleted
	a.Questions = []roadmap.Question{{Text: "q1"}, {Text: "q2"}, {Text: "q3"}, {Text: "q4"}, {Text: "q5"}}
	a.UserAnswers = []string{"a", "b", "c", "d", "e"}
	a.RelevanceScore = &score
	a.AgentSatisfied = true
	a.Attempts = 2
	a.CompletionTimestamp = &ts
	roadmap.Recompute(r)
	r.Status = roadmap.StatusInProgress

	c.ActivePath.Roadmap = r
	c.Record(t0, "roadmap_generated", r.RoadmapID)
	c.Touch(t0.Add(2 * time.Hour))
	return c
}

func TestFileStore_SaveAndLoad(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	c := sampleContext(t, "alice")

	if err := s.Save(ctx, c); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, err := os.Stat(filepath.Join(s.BaseDir(), "alice_context.json")); err != nil {
		t.Fatalf("context file missing: %v", err)
	}

	got, err := s.Load(ctx, "alice")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if diff := cmp.Diff(c, got); diff != "" {
		t.Errorf("round trip mismatch (-saved +loaded):\n%s", diff)
	}
}

func TestFileStore_LoadMissing(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Load(context.Background(), "nobody")
	if !apperr.IsNotFound(err) {
		t.Errorf("err = %v, want not found", err)
	}
}

func TestFileStore_RejectsBadIDs(t *testing.T) {
	s := newTestStore(t)
	for _, id := range []string{"", "../etc", "a/b", ".hidden"} {
		if _, err := s.Load(context.Background(), id); !apperr.IsValidation(err) {
			t.Errorf("Load(%q): err = %v, want validation", id, err)
		}
	}
}

func TestFileStore_CorruptDocumentIsIOError(t *testing.T) {
	s := newTestStore(t)
	path := filepath.Join(s.BaseDir(), "bob_context.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Load(context.Background(), "bob"); !apperr.IsIO(err) {
		t.Errorf("err = %v, want io", err)
	}
}

func TestFileStore_List(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	ids, err := s.List(ctx)
	if err != nil || len(ids) != 0 {
		t.Fatalf("empty List = %v, %v", ids, err)
	}

	for _, id := range []string{"carol", "alice", "bob"} {
		if err := s.Save(ctx, New(id, t0)); err != nil {
			t.Fatal(err)
		}
	}
	// Stray files are ignored.
	os.WriteFile(filepath.Join(s.BaseDir(), "notes.txt"), []byte("x"), 0o600)
	os.WriteFile(filepath.Join(s.BaseDir(), ".ctx-123"), []byte("x"), 0o600)

	ids, err = s.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"alice", "bob", "carol"}, ids); diff != "" {
		t.Errorf("List (-want +got):\n%s", diff)
	}
}

func TestTouch_StrictlyIncreases(t *testing.T) {
	c := New("dave", t0)
	c.Touch(t0)
	if !c.LastUpdated.After(t0) {
		t.Errorf("LastUpdated = %v, want after %v", c.LastUpdated, t0)
	}
	prev := c.LastUpdated
	c.Touch(t0.Add(-time.Minute))
	if !c.LastUpdated.After(prev) {
		t.Error("Touch with an older clock must still advance")
	}
	later := t0.Add(time.Minute)
	c.Touch(later)
	if !c.LastUpdated.Equal(later) {
		t.Errorf("LastUpdated = %v, want %v", c.LastUpdated, later)
	}
}

func TestNew_Defaults(t *testing.T) {
	c := New("erin", t0)
	if c.ActivePath.CurrentPhase() != reroute.PhaseNormal {
		t.Errorf("phase = %q", c.ActivePath.CurrentPhase())
	}
	if c.ActivePath.CurrentPathType != reroute.PathOriginal {
		t.Errorf("path type = %q", c.ActivePath.CurrentPathType)
	}
	if err := Validate(c); err != nil {
		t.Errorf("fresh context invalid: %v", err)
	}
}
