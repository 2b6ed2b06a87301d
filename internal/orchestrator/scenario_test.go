package orchestrator

import (
	"context"
	"testing"

	"github.com/lucasnoah/careerpath/internal/apperr"
	"github.com/lucasnoah/careerpath/internal/reroute"
	"github.com/lucasnoah/careerpath/internal/roadmap"
	"github.com/lucasnoah/careerpath/internal/usercontext"
)

// Scenario A: one step, scores 0.9 / 0.5 / 0.8, then a 0.75 retry.
func TestScenario_SingleStepWithRetry(t *testing.T) {
	env := setupTest(t, envOpts{steps: 1})
	env.onboard(t, "ana", "Data Engineer")
	env.generate(t, "ana")
	env.scorer.scores = map[string][]float64{
		"action_1_1": {0.9},
		"action_1_2": {0.5, 0.75},
		"action_1_3": {0.8},
	}

	env.attempt(t, "ana", "action_1_1")
	res := env.attempt(t, "ana", "action_1_2")
	if res.AgentSatisfied || res.RelevanceScore != 0.5 {
		t.Errorf("action_1_2 first submit = %+v", res)
	}
	env.attempt(t, "ana", "action_1_3")

	r := env.load(t, "ana").ActivePath.Roadmap
	_, a2 := r.FindAction("action_1_2")
	if a2.Status != roadmap.ActionNeedsReview {
		t.Errorf("action_1_2 status = %s", a2.Status)
	}
	if r.Steps[0].Status != roadmap.StepInProgress || r.Status != roadmap.StatusInProgress {
		t.Errorf("step = %s, roadmap = %s", r.Steps[0].Status, r.Status)
	}

	res = env.attempt(t, "ana", "action_1_2")
	if !res.AgentSatisfied || res.Attempts != 2 {
		t.Errorf("retry = %+v", res)
	}
	if res.Transition == nil || !res.Transition.RoadmapCompleted {
		t.Errorf("transition = %+v", res.Transition)
	}

	r = env.load(t, "ana").ActivePath.Roadmap
	if r.Steps[0].Status != roadmap.StepCompleted || r.Status != roadmap.StatusCompleted || r.CurrentStepNumber != 2 {
		t.Errorf("after retry: step = %s, roadmap = %s, current = %d", r.Steps[0].Status, r.Status, r.CurrentStepNumber)
	}
	if res.Progress.ProgressPercentage != 100 {
		t.Errorf("progress = %v", res.Progress.ProgressPercentage)
	}
}

// Scenario B: finishing step 1 advances to step 2.
func TestScenario_StepAdvance(t *testing.T) {
	env := setupTest(t, envOpts{steps: 2})
	env.onboard(t, "ben", "SRE")
	env.generate(t, "ben")

	for _, id := range []string{"action_1_1", "action_1_2", "action_1_3"} {
		env.attempt(t, "ben", id)
	}

	r := env.load(t, "ben").ActivePath.Roadmap
	if r.CurrentStepNumber != 2 {
		t.Errorf("current step = %d, want 2", r.CurrentStepNumber)
	}
	if r.Steps[0].Status != roadmap.StepCompleted || r.Steps[1].Status != roadmap.StepInProgress {
		t.Errorf("step statuses = %s, %s", r.Steps[0].Status, r.Steps[1].Status)
	}
	if len(r.CompletedSteps) != 1 || r.CompletedSteps[0] != 1 {
		t.Errorf("completed steps = %v", r.CompletedSteps)
	}
	if err := roadmap.CheckInvariants(r); err != nil {
		t.Errorf("invariants: %v", err)
	}
}

// Scenarios C and D: reroute to option 2, finish it, and redirect back.
func TestScenario_RerouteAndRedirectBack(t *testing.T) {
	env := setupTest(t, envOpts{steps: 2})
	env.onboard(t, "cat", "Data Engineer")
	orig := env.generate(t, "cat")
	env.attempt(t, "cat", "action_1_1")
	ctx := context.Background()

	det, err := env.orch.DetectDeviationAndReroute(ctx, "cat", "fell in love with dashboards")
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if det.Phase != reroute.PhaseAlternativesOffered || len(det.Alternatives) != 3 {
		t.Fatalf("detect = %+v", det)
	}
	wantIDs := []string{"1", "2", reroute.AdjustedOriginalID}
	for i, p := range det.Alternatives {
		if p.OptionID != wantIDs[i] {
			t.Errorf("option %d id = %q, want %q", i, p.OptionID, wantIDs[i])
		}
	}
	if env.planner.altReqs[0].Profile.Education != "BSc CS" {
		t.Error("profile not passed to alternatives planner")
	}
	if c := env.load(t, "cat"); c.ActivePath.Reroute.IsRerouting {
		t.Error("is_rerouting set before selection")
	}

	_, err = env.orch.SelectRerouteOption(ctx, "cat", "7")
	wantKind(t, err, apperr.KindNotFound)

	sel, err := env.orch.SelectRerouteOption(ctx, "cat", "2")
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if sel.NewTargetRole != "Data Analyst" || sel.OriginalRoadmapID != orig.RoadmapID || sel.RoadmapID == orig.RoadmapID {
		t.Errorf("select = %+v", sel)
	}

	c := env.load(t, "cat")
	path := c.ActivePath
	if !path.Reroute.IsRerouting || path.CurrentPathType != reroute.PathRerouted || path.Reroute.SelectedAlternativeID != "2" {
		t.Errorf("path after select = %+v", path.Reroute)
	}
	if path.OriginalRoadmap == nil || path.OriginalRoadmap.RoadmapID != orig.RoadmapID {
		t.Fatal("original roadmap not retained")
	}
	if err := usercontext.Validate(c); err != nil {
		t.Errorf("context invalid after select: %v", err)
	}

	_, err = env.orch.DetectDeviationAndReroute(ctx, "cat", "again")
	wantKind(t, err, apperr.KindInvalidState)
	_, err = env.orch.CompleteRerouteRoadmap(ctx, "cat")
	wantKind(t, err, apperr.KindInvalidState)

	env.attempt(t, "cat", "action_1_1")
	env.attempt(t, "cat", "action_1_2")
	env.attempt(t, "cat", "action_1_3")
	if pct := env.load(t, "cat").ActivePath.Reroute.AlternativeCompletionPercentage; pct != 50 {
		t.Errorf("alternative completion = %v, want 50", pct)
	}
	env.completeRoadmap(t, "cat")

	comp, err := env.orch.CompleteRerouteRoadmap(ctx, "cat")
	if err != nil {
		t.Fatalf("CompleteReroute: %v", err)
	}
	if !comp.RedirectAvailable || comp.Phase != reroute.PhaseAlternativeComplete || comp.OriginalTargetRole != "Data Engineer" {
		t.Errorf("complete = %+v", comp)
	}
	if pct := env.load(t, "cat").ActivePath.Reroute.AlternativeCompletionPercentage; pct != 100 {
		t.Errorf("alternative completion = %v, want 100", pct)
	}

	red, err := env.orch.AcceptRedirect(ctx, "cat")
	if err != nil {
		t.Fatalf("AcceptRedirect: %v", err)
	}
	if red.RoadmapID != orig.RoadmapID || red.TargetRole != "Data Engineer" || red.Phase != reroute.PhaseNormal {
		t.Errorf("redirect = %+v", red)
	}

	c = env.load(t, "cat")
	path = c.ActivePath
	if path.Reroute.IsRerouting || path.CurrentPathType != reroute.PathOriginal || path.OriginalRoadmap != nil {
		t.Errorf("path after accept = %+v", path.Reroute)
	}
	_, a := path.Roadmap.FindAction("action_1_1")
	if a.Status != roadmap.ActionCompleted {
		t.Error("original roadmap progress lost across the reroute")
	}
	if len(path.PathChangeHistory) != 2 || path.PathChangeHistory[1].Type != "reversion" {
		t.Errorf("path change history = %+v", path.PathChangeHistory)
	}

	// A new cycle may start once back to normal.
	if _, err := env.orch.DetectDeviationAndReroute(ctx, "cat", "second thoughts"); err != nil {
		t.Errorf("second cycle: %v", err)
	}
}

func TestScenario_DeclineRedirectKeepsAlternative(t *testing.T) {
	env := setupTest(t, envOpts{steps: 1})
	env.onboard(t, "dee", "Data Engineer")
	env.generate(t, "dee")
	ctx := context.Background()

	if _, err := env.orch.DetectDeviationAndReroute(ctx, "dee", "prefers research"); err != nil {
		t.Fatal(err)
	}
	sel, err := env.orch.SelectRerouteOption(ctx, "dee", "1")
	if err != nil {
		t.Fatal(err)
	}
	_, err = env.orch.DeclineRedirect(ctx, "dee")
	wantKind(t, err, apperr.KindInvalidState)

	env.completeRoadmap(t, "dee")
	if _, err := env.orch.CompleteRerouteRoadmap(ctx, "dee"); err != nil {
		t.Fatal(err)
	}
	red, err := env.orch.DeclineRedirect(ctx, "dee")
	if err != nil {
		t.Fatal(err)
	}
	if red.Decision != "declined" || red.TargetRole != "ML Engineer" || red.RoadmapID != sel.RoadmapID {
		t.Errorf("decline = %+v", red)
	}

	c := env.load(t, "dee")
	st := c.ActivePath.Reroute
	if st.IsRerouting || st.RedirectAvailable || st.OriginalRoadmapID != "" || c.ActivePath.CurrentPhase() != reroute.PhaseNormal {
		t.Errorf("reroute state after decline = %+v", st)
	}
	if err := usercontext.Validate(c); err != nil {
		t.Errorf("context invalid after decline: %v", err)
	}
}

func TestScenario_SelectAdjustedOriginal(t *testing.T) {
	env := setupTest(t, envOpts{})
	env.onboard(t, "eve", "SRE")
	env.generate(t, "eve")
	ctx := context.Background()

	if _, err := env.orch.DetectDeviationAndReroute(ctx, "eve", "less time"); err != nil {
		t.Fatal(err)
	}
	sel, err := env.orch.SelectRerouteOption(ctx, "eve", reroute.AdjustedOriginalID)
	if err != nil {
		t.Fatal(err)
	}
	if sel.NewTargetRole != "SRE" {
		t.Errorf("adjusted target = %q", sel.NewTargetRole)
	}
	last := env.planner.roadmapReqs[len(env.planner.roadmapReqs)-1]
	if last.Adjustment != "slower pace" {
		t.Errorf("adjustment = %q", last.Adjustment)
	}
}

func TestScenario_DismissAlternatives(t *testing.T) {
	env := setupTest(t, envOpts{})
	env.onboard(t, "fin", "SRE")
	first := env.generate(t, "fin")
	ctx := context.Background()

	_, err := env.orch.DismissAlternatives(ctx, "fin")
	wantKind(t, err, apperr.KindInvalidState)

	if _, err := env.orch.DetectDeviationAndReroute(ctx, "fin", "bored"); err != nil {
		t.Fatal(err)
	}
	res, err := env.orch.DismissAlternatives(ctx, "fin")
	if err != nil {
		t.Fatal(err)
	}
	if res.Phase != reroute.PhaseNormal {
		t.Errorf("phase = %s", res.Phase)
	}
	c := env.load(t, "fin")
	if len(c.ActivePath.Reroute.AlternativeRoadmaps) != 0 || c.ActivePath.Roadmap.RoadmapID != first.RoadmapID {
		t.Error("dismiss should drop proposals and keep the roadmap")
	}
}

func TestScenario_DetectFailuresLeaveStateUnchanged(t *testing.T) {
	env := setupTest(t, envOpts{})
	env.onboard(t, "gil", "SRE")
	ctx := context.Background()

	_, err := env.orch.DetectDeviationAndReroute(ctx, "gil", "anything")
	wantKind(t, err, apperr.KindInvalidState)

	env.generate(t, "gil")
	_, err = env.orch.DetectDeviationAndReroute(ctx, "gil", "   ")
	wantKind(t, err, apperr.KindValidation)

	env.planner.altErr = context.DeadlineExceeded
	_, err = env.orch.DetectDeviationAndReroute(ctx, "gil", "new job")
	wantKind(t, err, apperr.KindExternalService)
	if env.load(t, "gil").ActivePath.CurrentPhase() != reroute.PhaseNormal {
		t.Error("phase changed after failed detection")
	}

	env.planner.altErr = nil
	if _, err := env.orch.DetectDeviationAndReroute(ctx, "gil", "new job"); err != nil {
		t.Fatal(err)
	}
	env.planner.roadmapErr = context.DeadlineExceeded
	_, err = env.orch.SelectRerouteOption(ctx, "gil", "1")
	wantKind(t, err, apperr.KindExternalService)
	c := env.load(t, "gil")
	if c.ActivePath.CurrentPhase() != reroute.PhaseAlternativesOffered || c.ActivePath.Reroute.IsRerouting {
		t.Error("state changed after failed selection")
	}
}
