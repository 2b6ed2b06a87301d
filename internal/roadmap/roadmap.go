// Package roadmap models a learning roadmap (steps of actions), derives
// progress from it, and advances steps as actions complete.
package roadmap

import (
	"fmt"
	"strings"
	"time"

	"github.com/lucasnoah/careerpath/internal/apperr"
)

// New builds a roadmap from freshly planned steps. Steps are renumbered from 1,
// every step must carry exactly ActionsPerStep actions, and action ids are
// assigned as action_<step>_<n>. Step 1 starts in progress.
func New(id, targetRole string, steps []Step, now time.Time) (*Roadmap, error) {
	if id == "" {
		return nil, apperr.Validation("roadmap id is required")
	}
	if len(steps) == 0 {
		return nil, apperr.Validation("roadmap must have at least one step")
	}

	r := &Roadmap{
		RoadmapID:         id,
		TargetRole:        targetRole,
		Steps:             make([]Step, len(steps)),
		CurrentStepNumber: 1,
		CompletedSteps:    []int{},
		Status:            StatusGenerated,
		CreatedAt:         now.UTC(),
	}

	for i, s := range steps {
		if strings.TrimSpace(s.Title) == "" {
			return nil, apperr.Validation("step %d has no title", i+1)
		}
		if len(s.Actions) != ActionsPerStep {
			return nil, apperr.Validation("step %d has %d actions, want %d", i+1, len(s.Actions), ActionsPerStep)
		}
		step := Step{
			StepNumber:  i + 1,
			Title:       s.Title,
			Description: s.Description,
			Actions:     make([]Action, len(s.Actions)),
			Status:      StepPending,
		}
		if i == 0 {
			step.Status = StepInProgress
		}
		for j, a := range s.Actions {
			if strings.TrimSpace(a.Title) == "" {
				return nil, apperr.Validation("step %d action %d has no title", i+1, j+1)
			}
			step.Actions[j] = Action{
				ActionID:        fmt.Sprintf("action_%d_%d", i+1, j+1),
				Title:           a.Title,
				Description:     a.Description,
				SuccessCriteria: a.SuccessCriteria,
				Status:          ActionPending,
				Questions:       []Question{},
				UserAnswers:     []string{},
			}
		}
		r.Steps[i] = step
	}
	return r, nil
}

// Step returns the step with the given number, or nil.
func (r *Roadmap) Step(number int) *Step {
	for i := range r.Steps {
		if r.Steps[i].StepNumber == number {
			return &r.Steps[i]
		}
	}
	return nil
}

// CurrentStep returns the step in progress, or nil once the roadmap is completed.
func (r *Roadmap) CurrentStep() *Step {
	return r.Step(r.CurrentStepNumber)
}

// FindAction locates an action by id anywhere in the roadmap.
func (r *Roadmap) FindAction(actionID string) (*Step, *Action) {
	for i := range r.Steps {
		step := &r.Steps[i]
		for j := range step.Actions {
			if step.Actions[j].ActionID == actionID {
				return step, &step.Actions[j]
			}
		}
	}
	return nil, nil
}

// AppendAction adds an action to a step. Actions are never removed.
func (r *Roadmap) AppendAction(stepNumber int, a Action) error {
	step := r.Step(stepNumber)
	if step == nil {
		return apperr.NotFound("step %d not found", stepNumber)
	}
	if _, existing := r.FindAction(a.ActionID); existing != nil {
		return apperr.Validation("action %q already exists", a.ActionID)
	}
	if a.Status == "" {
		a.Status = ActionPending
	}
	if a.Questions == nil {
		a.Questions = []Question{}
	}
	if a.UserAnswers == nil {
		a.UserAnswers = []string{}
	}
	step.Actions = append(step.Actions, a)
	step.CompletionPercentage = completionFraction(step)
	return nil
}

// IsCompleted reports whether every step has been completed.
func (r *Roadmap) IsCompleted() bool {
	return r.Status == StatusCompleted
}

// DeriveProgress summarizes a roadmap without modifying it.
func DeriveProgress(r *Roadmap) (Progress, error) {
	if r == nil || len(r.Steps) == 0 {
		return Progress{}, apperr.Validation("roadmap must have at least one step")
	}

	p := Progress{
		TotalSteps:                  len(r.Steps),
		PendingActionsInCurrentStep: []string{},
	}
	for _, s := range r.Steps {
		if s.Status == StepCompleted {
			p.CompletedStepCount++
		}
	}
	p.ProgressPercentage = 100 * float64(p.CompletedStepCount) / float64(p.TotalSteps)

	if cur := r.CurrentStep(); cur != nil {
		p.CurrentStepTitle = cur.Title
		for _, a := range cur.Actions {
			if a.Status != ActionCompleted {
				p.PendingActionsInCurrentStep = append(p.PendingActionsInCurrentStep, a.ActionID)
			}
		}
	}
	return p, nil
}

// Recompute refreshes the current step's completion and advances the roadmap
// when every action in it is satisfied. It is called after each submission.
func Recompute(r *Roadmap) Transition {
	step := r.CurrentStep()
	if step == nil {
		return Transition{RoadmapCompleted: r.IsCompleted()}
	}

	step.CompletionPercentage = completionFraction(step)
	t := Transition{StepNumber: step.StepNumber, StepPercentage: step.CompletionPercentage}

	if !allSatisfied(step) {
		return t
	}

	step.Status = StepCompleted
	r.CompletedSteps = append(r.CompletedSteps, step.StepNumber)
	t.StepCompleted = true

	if next := r.Step(step.StepNumber + 1); next != nil {
		next.Status = StepInProgress
		r.CurrentStepNumber = next.StepNumber
		t.NextStepNumber = next.StepNumber
		return t
	}

	r.CurrentStepNumber = len(r.Steps) + 1
	r.Status = StatusCompleted
	t.RoadmapCompleted = true
	return t
}

func allSatisfied(s *Step) bool {
	if len(s.Actions) == 0 {
		return false
	}
	for _, a := range s.Actions {
		if a.Status != ActionCompleted {
			return false
		}
	}
	return true
}

func completionFraction(s *Step) float64 {
	if len(s.Actions) == 0 {
		return 0
	}
	done := 0
	for _, a := range s.Actions {
		if a.Status == ActionCompleted {
			done++
		}
	}
	return float64(done) / float64(len(s.Actions))
}
