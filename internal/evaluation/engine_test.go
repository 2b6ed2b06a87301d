package evaluation

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/lucasnoah/careerpath/internal/apperr"
	"github.com/lucasnoah/careerpath/internal/roadmap"
)

var now = time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC)

type fakeQuestions struct {
	calls int
	err   error
	n     int
}

func (f *fakeQuestions) GenerateQuestions(_ context.Context, a roadmap.Action) ([]roadmap.Question, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	n := f.n
	if n == 0 {
		n = roadmap.QuestionsPerAction
	}
	qs := make([]roadmap.Question, n)
	for i := range qs {
		qs[i] = roadmap.Question{Text: fmt.Sprintf("%s question %d?", a.Title, i+1), Type: "conceptual"}
	}
	return qs, nil
}

// fakeScorer returns scores in order; the last one repeats.
type fakeScorer struct {
	scores   []float64
	remedial *roadmap.Action
	err      error
	calls    int
}

func (f *fakeScorer) Score(_ context.Context, _ roadmap.Action, _ []string) (Score, error) {
	f.calls++
	if f.err != nil {
		return Score{}, f.err
	}
	i := f.calls - 1
	if i >= len(f.scores) {
		i = len(f.scores) - 1
	}
	return Score{Relevance: f.scores[i], Feedback: fmt.Sprintf("feedback %d", f.calls), Remedial: f.remedial}, nil
}

func testRoadmap(t *testing.T, steps int) *roadmap.Roadmap {
	t.Helper()
	planned := make([]roadmap.Step, steps)
	for i := range planned {
		planned[i].Title = fmt.Sprintf("Step %d", i+1)
		for j := 0; j < roadmap.ActionsPerStep; j++ {
			planned[i].Actions = append(planned[i].Actions, roadmap.Action{Title: fmt.Sprintf("A%d.%d", i+1, j+1)})
		}
	}
	r, err := roadmap.New("u_roadmap_1", "Backend Engineer", planned, now.Add(-time.Hour))
	if err != nil {
		t.Fatalf("roadmap.New: %v", err)
	}
	return r
}

func answers(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("answer %d", i+1)
	}
	return out
}

func newTestEngine(q *fakeQuestions, s *fakeScorer) *Engine {
	return NewEngine(q, s, Options{Now: func() time.Time { return now }})
}

func TestBegin_GeneratesQuestionsOnce(t *testing.T) {
	q := &fakeQuestions{}
	e := newTestEngine(q, &fakeScorer{scores: []float64{0.5}})
	r := testRoadmap(t, 2)

	res, err := e.Begin(context.Background(), r, "action_1_1")
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if len(res.Questions) != roadmap.QuestionsPerAction {
		t.Fatalf("got %d questions", len(res.Questions))
	}
	if r.Status != roadmap.StatusInProgress {
		t.Errorf("roadmap status = %q, want in_progress", r.Status)
	}

	again, err := e.Begin(context.Background(), r, "action_1_1")
	if err != nil {
		t.Fatalf("second Begin: %v", err)
	}
	if !again.Resumed {
		t.Error("second Begin should report resumed")
	}
	if q.calls != 1 {
		t.Errorf("generator called %d times, want 1", q.calls)
	}
	if diff := cmp.Diff(res.Questions, again.Questions); diff != "" {
		t.Errorf("questions changed (-first +second):\n%s", diff)
	}
}

func TestBegin_Errors(t *testing.T) {
	r := testRoadmap(t, 2)
	e := newTestEngine(&fakeQuestions{}, &fakeScorer{scores: []float64{1}})

	if _, err := e.Begin(context.Background(), r, "nope"); !apperr.IsNotFound(err) {
		t.Errorf("unknown action: err = %v, want not found", err)
	}
	if _, err := e.Begin(context.Background(), r, "action_2_1"); !apperr.IsInvalidState(err) {
		t.Errorf("future step: err = %v, want invalid state", err)
	}
	if _, err := e.Begin(context.Background(), nil, "action_1_1"); !apperr.IsInvalidState(err) {
		t.Errorf("nil roadmap: err = %v, want invalid state", err)
	}
}

func TestBegin_GeneratorFailureLeavesActionUntouched(t *testing.T) {
	r := testRoadmap(t, 1)
	before := *r.Steps[0].Actions[0].Clone()

	for _, q := range []*fakeQuestions{{err: errors.New("503")}, {n: 3}} {
		e := newTestEngine(q, &fakeScorer{scores: []float64{1}})
		_, err := e.Begin(context.Background(), r, "action_1_1")
		if !apperr.IsExternal(err) {
			t.Errorf("err = %v, want external service", err)
		}
	}
	if diff := cmp.Diff(before, r.Steps[0].Actions[0]); diff != "" {
		t.Errorf("action mutated (-before +after):\n%s", diff)
	}
	if r.Status != roadmap.StatusGenerated {
		t.Errorf("roadmap status = %q, want generated", r.Status)
	}
}

func TestSubmit_ThresholdBoundary(t *testing.T) {
	tests := []struct {
		score     float64
		satisfied bool
		status    roadmap.ActionStatus
	}{
		{0.69, false, roadmap.ActionNeedsReview},
		{0.7, true, roadmap.ActionCompleted},
		{0.71, true, roadmap.ActionCompleted},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.score), func(t *testing.T) {
			r := testRoadmap(t, 1)
			e := newTestEngine(&fakeQuestions{}, &fakeScorer{scores: []float64{tt.score}})
			if _, err := e.Begin(context.Background(), r, "action_1_2"); err != nil {
				t.Fatal(err)
			}
			res, err := e.Submit(context.Background(), r, "action_1_2", answers(5))
			if err != nil {
				t.Fatalf("Submit: %v", err)
			}
			a := r.Steps[0].Actions[1]
			if res.AgentSatisfied != tt.satisfied || a.AgentSatisfied != tt.satisfied {
				t.Errorf("satisfied = %v/%v, want %v", res.AgentSatisfied, a.AgentSatisfied, tt.satisfied)
			}
			if a.Status != tt.status {
				t.Errorf("status = %q, want %q", a.Status, tt.status)
			}
			if (a.CompletionTimestamp != nil) != tt.satisfied {
				t.Errorf("completion timestamp = %v", a.CompletionTimestamp)
			}
			if a.Attempts != 1 {
				t.Errorf("attempts = %d, want 1", a.Attempts)
			}
		})
	}
}

// A failing attempt followed by a passing one keeps the same questions and
// counts both attempts.
func TestSubmit_RetryThenPass(t *testing.T) {
	q := &fakeQuestions{}
	s := &fakeScorer{scores: []float64{0.55, 0.82}}
	e := newTestEngine(q, s)
	r := testRoadmap(t, 1)
	ctx := context.Background()

	first, err := e.Begin(ctx, r, "action_1_1")
	if err != nil {
		t.Fatal(err)
	}
	res, err := e.Submit(ctx, r, "action_1_1", answers(5))
	if err != nil {
		t.Fatal(err)
	}
	if res.AgentSatisfied {
		t.Fatal("first attempt should fail")
	}

	// needs_review must be begun again before resubmitting.
	if _, err := e.Submit(ctx, r, "action_1_1", answers(5)); !apperr.IsInvalidState(err) {
		t.Errorf("submit from needs_review: err = %v, want invalid state", err)
	}

	second, err := e.Begin(ctx, r, "action_1_1")
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(first.Questions, second.Questions); diff != "" {
		t.Errorf("questions regenerated on retry:\n%s", diff)
	}

	res, err = e.Submit(ctx, r, "action_1_1", answers(5))
	if err != nil {
		t.Fatal(err)
	}
	a := r.Steps[0].Actions[0]
	if !res.AgentSatisfied || a.Status != roadmap.ActionCompleted || a.Attempts != 2 {
		t.Errorf("after retry: satisfied=%v status=%q attempts=%d", res.AgentSatisfied, a.Status, a.Attempts)
	}
	if *a.RelevanceScore != 0.82 {
		t.Errorf("score = %v, want 0.82", *a.RelevanceScore)
	}
	if q.calls != 1 {
		t.Errorf("generator calls = %d, want 1", q.calls)
	}
}

func TestSubmit_CompletedIsIdempotent(t *testing.T) {
	s := &fakeScorer{scores: []float64{0.9}}
	e := newTestEngine(&fakeQuestions{}, s)
	r := testRoadmap(t, 1)
	ctx := context.Background()

	if _, err := e.Begin(ctx, r, "action_1_1"); err != nil {
		t.Fatal(err)
	}
	if _, err := e.Submit(ctx, r, "action_1_1", answers(5)); err != nil {
		t.Fatal(err)
	}
	before := *r.Steps[0].Actions[0].Clone()

	res, err := e.Submit(ctx, r, "action_1_1", []string{"ignored"})
	if err != nil {
		t.Fatalf("resubmit: %v", err)
	}
	if !res.AlreadyCompleted || res.RelevanceScore != 0.9 || res.Attempts != 1 {
		t.Errorf("stored result = %+v", res)
	}
	if s.calls != 1 {
		t.Errorf("scorer called %d times, want 1", s.calls)
	}
	if diff := cmp.Diff(before, r.Steps[0].Actions[0]); diff != "" {
		t.Errorf("completed action mutated:\n%s", diff)
	}
}

func TestSubmit_ValidationAndScorerErrors(t *testing.T) {
	ctx := context.Background()
	r := testRoadmap(t, 1)
	s := &fakeScorer{scores: []float64{0.9}}
	e := newTestEngine(&fakeQuestions{}, s)
	if _, err := e.Submit(ctx, r, "action_1_1", answers(5)); !apperr.IsInvalidState(err) {
		t.Errorf("submit before begin: err = %v, want invalid state", err)
	}
	if _, err := e.Begin(ctx, r, "action_1_1"); err != nil {
		t.Fatal(err)
	}

	if _, err := e.Submit(ctx, r, "action_1_1", answers(4)); !apperr.IsValidation(err) {
		t.Errorf("4 answers: err = %v, want validation", err)
	}
	blank := answers(5)
	blank[2] = "   "
	if _, err := e.Submit(ctx, r, "action_1_1", blank); !apperr.IsValidation(err) {
		t.Errorf("blank answer: err = %v, want validation", err)
	}
	if s.calls != 0 {
		t.Errorf("scorer called on invalid input")
	}

	before := *r.Steps[0].Actions[0].Clone()
	for _, bad := range []*fakeScorer{{err: errors.New("timeout")}, {scores: []float64{1.4}}} {
		e := newTestEngine(&fakeQuestions{}, bad)
		if _, err := e.Submit(ctx, r, "action_1_1", answers(5)); !apperr.IsExternal(err) {
			t.Errorf("err = %v, want external service", err)
		}
	}
	if diff := cmp.Diff(before, r.Steps[0].Actions[0]); diff != "" {
		t.Errorf("action mutated by failed scoring:\n%s", diff)
	}
}

func TestSubmit_AdvancesStepOnLastAction(t *testing.T) {
	e := newTestEngine(&fakeQuestions{}, &fakeScorer{scores: []float64{0.8}})
	r := testRoadmap(t, 2)
	ctx := context.Background()

	var last *SubmitResult
	for _, id := range []string{"action_1_1", "action_1_2", "action_1_3"} {
		if _, err := e.Begin(ctx, r, id); err != nil {
			t.Fatal(err)
		}
		res, err := e.Submit(ctx, r, id, answers(5))
		if err != nil {
			t.Fatal(err)
		}
		last = res
	}
	if !last.Transition.StepCompleted || last.Transition.NextStepNumber != 2 {
		t.Errorf("transition = %+v", last.Transition)
	}
	if r.CurrentStepNumber != 2 {
		t.Errorf("current step = %d", r.CurrentStepNumber)
	}
	if err := roadmap.CheckInvariants(r); err != nil {
		t.Errorf("invariants: %v", err)
	}
	if _, err := e.Begin(ctx, r, "action_1_1"); !apperr.IsInvalidState(err) {
		t.Errorf("begin completed action: err = %v, want invalid state", err)
	}
}

func TestSubmit_AppendsRemedialAction(t *testing.T) {
	s := &fakeScorer{
		scores:   []float64{0.4},
		remedial: &roadmap.Action{Title: "Review fundamentals", SuccessCriteria: "explain joins"},
	}
	e := NewEngine(&fakeQuestions{}, s, Options{AppendRemedial: true, Now: func() time.Time { return now }})
	r := testRoadmap(t, 1)
	ctx := context.Background()

	if _, err := e.Begin(ctx, r, "action_1_3"); err != nil {
		t.Fatal(err)
	}
	res, err := e.Submit(ctx, r, "action_1_3", answers(5))
	if err != nil {
		t.Fatal(err)
	}
	if res.AppendedActionID != "action_1_3_r1" {
		t.Fatalf("appended id = %q", res.AppendedActionID)
	}
	if n := len(r.Steps[0].Actions); n != 4 {
		t.Fatalf("step has %d actions, want 4", n)
	}
	if got := r.Steps[0].Actions[2].Status; got != roadmap.ActionNeedsReview {
		t.Errorf("failed action status = %q", got)
	}
	if got := r.Steps[0].Actions[3]; got.Title != "Review fundamentals" || got.Status != roadmap.ActionPending {
		t.Errorf("remedial action = %+v", got)
	}
}
