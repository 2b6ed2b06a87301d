package roadmap

import (
	"fmt"
	"testing"
	"time"

	"github.com/lucasnoah/careerpath/internal/apperr"
)

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func plannedSteps(n int) []Step {
	steps := make([]Step, n)
	for i := range steps {
		steps[i] = Step{Title: fmt.Sprintf("Step %d", i+1), Description: "desc"}
		for j := 0; j < ActionsPerStep; j++ {
			steps[i].Actions = append(steps[i].Actions, Action{
				Title:           fmt.Sprintf("Action %d.%d", i+1, j+1),
				SuccessCriteria: "done",
			})
		}
	}
	return steps
}

func newRoadmap(t *testing.T, n int) *Roadmap {
	t.Helper()
	r, err := New("u1_roadmap_1", "Data Engineer", plannedSteps(n), t0)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return r
}

// complete marks an action satisfied the way the evaluation engine would.
func complete(a *Action) {
	score := 0.9
	ts := t0
	a.Status = ActionCompleted
	a.RelevanceScore = &score
	a.AgentSatisfied = true
	a.Attempts++
	a.CompletionTimestamp = &ts
}

func TestNew_InitialState(t *testing.T) {
	r := newRoadmap(t, 3)

	if r.Status != StatusGenerated {
		t.Errorf("status = %q, want %q", r.Status, StatusGenerated)
	}
	if r.CurrentStepNumber != 1 {
		t.Errorf("current step = %d, want 1", r.CurrentStepNumber)
	}
	if r.Steps[0].Status != StepInProgress {
		t.Errorf("step 1 status = %q, want in_progress", r.Steps[0].Status)
	}
	for _, s := range r.Steps[1:] {
		if s.Status != StepPending {
			t.Errorf("step %d status = %q, want pending", s.StepNumber, s.Status)
		}
	}
	if got := r.Steps[1].Actions[2].ActionID; got != "action_2_3" {
		t.Errorf("action id = %q, want action_2_3", got)
	}
	if err := CheckInvariants(r); err != nil {
		t.Errorf("fresh roadmap violates invariants: %v", err)
	}
}

func TestNew_Rejects(t *testing.T) {
	if _, err := New("id", "role", nil, t0); !apperr.IsValidation(err) {
		t.Errorf("no steps: err = %v, want validation", err)
	}

	steps := plannedSteps(2)
	steps[1].Actions = steps[1].Actions[:2]
	if _, err := New("id", "role", steps, t0); !apperr.IsValidation(err) {
		t.Errorf("two actions: err = %v, want validation", err)
	}

	steps = plannedSteps(1)
	steps[0].Title = "  "
	if _, err := New("id", "role", steps, t0); !apperr.IsValidation(err) {
		t.Errorf("blank title: err = %v, want validation", err)
	}
}

func TestDeriveProgress(t *testing.T) {
	r := newRoadmap(t, 4)
	complete(&r.Steps[0].Actions[1])

	p, err := DeriveProgress(r)
	if err != nil {
		t.Fatalf("DeriveProgress: %v", err)
	}
	if p.TotalSteps != 4 || p.CompletedStepCount != 0 || p.ProgressPercentage != 0 {
		t.Errorf("progress = %+v", p)
	}
	if p.CurrentStepTitle != "Step 1" {
		t.Errorf("current title = %q", p.CurrentStepTitle)
	}
	want := []string{"action_1_1", "action_1_3"}
	if fmt.Sprint(p.PendingActionsInCurrentStep) != fmt.Sprint(want) {
		t.Errorf("pending = %v, want %v", p.PendingActionsInCurrentStep, want)
	}
}

func TestDeriveProgress_EmptyRoadmap(t *testing.T) {
	_, err := DeriveProgress(&Roadmap{})
	if !apperr.IsValidation(err) {
		t.Errorf("err = %v, want validation", err)
	}
}

func TestRecompute_PartialStep(t *testing.T) {
	r := newRoadmap(t, 2)
	complete(&r.Steps[0].Actions[0])

	tr := Recompute(r)
	if tr.StepCompleted {
		t.Error("step should not complete with 1 of 3 actions")
	}
	if got := r.Steps[0].CompletionPercentage; got < 0.333 || got > 0.334 {
		t.Errorf("completion = %v, want 1/3", got)
	}
	if r.CurrentStepNumber != 1 {
		t.Errorf("current step = %d, want 1", r.CurrentStepNumber)
	}
}

func TestRecompute_AdvancesStep(t *testing.T) {
	r := newRoadmap(t, 2)
	for i := range r.Steps[0].Actions {
		complete(&r.Steps[0].Actions[i])
	}

	tr := Recompute(r)
	if !tr.StepCompleted || tr.NextStepNumber != 2 || tr.RoadmapCompleted {
		t.Errorf("transition = %+v", tr)
	}
	if r.CurrentStepNumber != 2 || r.Steps[1].Status != StepInProgress {
		t.Errorf("current = %d, step 2 status = %q", r.CurrentStepNumber, r.Steps[1].Status)
	}
	if len(r.CompletedSteps) != 1 || r.CompletedSteps[0] != 1 {
		t.Errorf("completed steps = %v", r.CompletedSteps)
	}
	if err := CheckInvariants(r); err != nil {
		t.Errorf("invariants: %v", err)
	}
}

func TestRecompute_CompletesRoadmap(t *testing.T) {
	r := newRoadmap(t, 1)
	for i := range r.Steps[0].Actions {
		complete(&r.Steps[0].Actions[i])
	}

	tr := Recompute(r)
	if !tr.RoadmapCompleted {
		t.Fatal("roadmap should be completed")
	}
	if r.Status != StatusCompleted {
		t.Errorf("status = %q", r.Status)
	}
	if r.CurrentStepNumber != 2 {
		t.Errorf("current step = %d, want one past the end", r.CurrentStepNumber)
	}

	p, err := DeriveProgress(r)
	if err != nil {
		t.Fatal(err)
	}
	if p.ProgressPercentage != 100 || p.CurrentStepTitle != "" || len(p.PendingActionsInCurrentStep) != 0 {
		t.Errorf("progress = %+v", p)
	}
	if err := CheckInvariants(r); err != nil {
		t.Errorf("invariants: %v", err)
	}
}

func TestAppendAction(t *testing.T) {
	r := newRoadmap(t, 1)
	for i := range r.Steps[0].Actions {
		complete(&r.Steps[0].Actions[i])
	}
	if err := r.AppendAction(1, Action{ActionID: "action_1_3_r1", Title: "Revisit"}); err != nil {
		t.Fatalf("AppendAction: %v", err)
	}

	if tr := Recompute(r); tr.StepCompleted {
		t.Error("appended pending action must keep the step open")
	}
	if err := r.AppendAction(1, Action{ActionID: "action_1_1"}); !apperr.IsValidation(err) {
		t.Errorf("duplicate id: err = %v, want validation", err)
	}
	if err := r.AppendAction(9, Action{ActionID: "x"}); !apperr.IsNotFound(err) {
		t.Errorf("unknown step: err = %v, want not found", err)
	}
}

func TestSatisfied_Boundary(t *testing.T) {
	tests := []struct {
		score float64
		want  bool
	}{
		{0.69, false},
		{0.7, true},
		{0.71, true},
		{0, false},
		{1, true},
	}
	for _, tt := range tests {
		if got := Satisfied(tt.score); got != tt.want {
			t.Errorf("Satisfied(%v) = %v, want %v", tt.score, got, tt.want)
		}
	}
}

func TestCheckInvariants_DetectsViolations(t *testing.T) {
	r := newRoadmap(t, 2)
	r.Steps[0].Status = StepCompleted
	if err := CheckInvariants(r); !apperr.IsValidation(err) {
		t.Errorf("step marked completed with open actions: err = %v", err)
	}

	r = newRoadmap(t, 2)
	low := 0.5
	r.Steps[0].Actions[0].RelevanceScore = &low
	r.Steps[0].Actions[0].AgentSatisfied = true
	if err := CheckInvariants(r); err == nil {
		t.Error("satisfied flag with low score should fail")
	}

	r = newRoadmap(t, 2)
	r.CurrentStepNumber = 2
	if err := CheckInvariants(r); err == nil {
		t.Error("wrong current step should fail")
	}
}
