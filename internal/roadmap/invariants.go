package roadmap

import (
	"errors"
	"fmt"

	"github.com/lucasnoah/careerpath/internal/apperr"
)

// CheckInvariants verifies the structural rules a stored roadmap must obey.
// All violations are reported together.
func CheckInvariants(r *Roadmap) error {
	if r == nil {
		return apperr.Validation("roadmap is nil")
	}
	if len(r.Steps) == 0 {
		return apperr.Validation("roadmap must have at least one step")
	}

	var errs []error
	bad := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	seen := map[string]bool{}
	firstOpen := 0
	for i, s := range r.Steps {
		if s.StepNumber != i+1 {
			bad("step at index %d has number %d", i, s.StepNumber)
		}
		if len(s.Actions) < ActionsPerStep {
			bad("step %d has %d actions, want at least %d", s.StepNumber, len(s.Actions), ActionsPerStep)
		}
		for _, a := range s.Actions {
			if seen[a.ActionID] {
				bad("duplicate action id %q", a.ActionID)
			}
			seen[a.ActionID] = true
			if err := checkAction(a); err != nil {
				errs = append(errs, err)
			}
		}

		done := allSatisfied(&s)
		if done != (s.Status == StepCompleted) {
			bad("step %d status %q disagrees with its actions", s.StepNumber, s.Status)
		}
		if !done && firstOpen == 0 {
			firstOpen = s.StepNumber
		}
	}

	wantCurrent := firstOpen
	if firstOpen == 0 {
		wantCurrent = len(r.Steps) + 1
		if r.Status != StatusCompleted {
			bad("all steps completed but roadmap status is %q", r.Status)
		}
	} else if r.Status == StatusCompleted {
		bad("roadmap marked completed with step %d open", firstOpen)
	}
	if r.CurrentStepNumber != wantCurrent {
		bad("current step is %d, want %d", r.CurrentStepNumber, wantCurrent)
	}

	for _, s := range r.Steps {
		switch {
		case s.StepNumber < wantCurrent && s.Status != StepCompleted:
			bad("step %d before the current step is %q", s.StepNumber, s.Status)
		case s.StepNumber == wantCurrent && s.Status != StepInProgress:
			bad("current step %d is %q", s.StepNumber, s.Status)
		case s.StepNumber > wantCurrent && s.Status != StepPending:
			bad("step %d after the current step is %q", s.StepNumber, s.Status)
		}
	}

	if len(errs) > 0 {
		return apperr.Validation("roadmap %s: %v", r.RoadmapID, errors.Join(errs...))
	}
	return nil
}

func checkAction(a Action) error {
	if len(a.Questions) != 0 && len(a.Questions) != QuestionsPerAction {
		return fmt.Errorf("action %q has %d questions", a.ActionID, len(a.Questions))
	}
	if a.RelevanceScore != nil {
		score := *a.RelevanceScore
		if score < 0 || score > 1 {
			return fmt.Errorf("action %q score %v out of range", a.ActionID, score)
		}
		if Satisfied(score) != a.AgentSatisfied {
			return fmt.Errorf("action %q satisfied flag disagrees with score %v", a.ActionID, score)
		}
	} else if a.AgentSatisfied {
		return fmt.Errorf("action %q satisfied without a score", a.ActionID)
	}
	if (a.Status == ActionCompleted) != (a.CompletionTimestamp != nil) {
		return fmt.Errorf("action %q status %q disagrees with completion timestamp", a.ActionID, a.Status)
	}
	if a.Status == ActionCompleted && !a.AgentSatisfied {
		return fmt.Errorf("action %q completed but not satisfied", a.ActionID)
	}
	return nil
}
