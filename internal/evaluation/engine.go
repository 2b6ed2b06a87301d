// Package evaluation runs the two-phase verification protocol for an action:
// Begin hands out questions, Submit scores answers and advances the roadmap.
package evaluation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/lucasnoah/careerpath/internal/apperr"
	"github.com/lucasnoah/careerpath/internal/roadmap"
)

// QuestionGenerator produces the verification questions for an action.
type QuestionGenerator interface {
	GenerateQuestions(ctx context.Context, action roadmap.Action) ([]roadmap.Question, error)
}

// AnswerScorer rates a set of answers against an action's questions.
type AnswerScorer interface {
	Score(ctx context.Context, action roadmap.Action, answers []string) (Score, error)
}

// Score is a scorer's verdict on one submission.
type Score struct {
	Relevance float64
	Feedback  string
	NextSteps string
	// Remedial is an optional follow-up action suggested for a failing score.
	Remedial *roadmap.Action
}

// BeginResult is returned by Begin.
type BeginResult struct {
	ActionID  string             `json:"action_id"`
	Questions []roadmap.Question `json:"questions"`
	Resumed   bool               `json:"resumed"`
}

// SubmitResult is returned by Submit.
type SubmitResult struct {
	ActionID         string              `json:"action_id"`
	RelevanceScore   float64             `json:"relevance_score"`
	AgentSatisfied   bool                `json:"agent_satisfied"`
	Feedback         string              `json:"feedback"`
	NextSteps        string              `json:"next_steps,omitempty"`
	Attempts         int                 `json:"attempts"`
	AlreadyCompleted bool                `json:"already_completed"`
	AppendedActionID string              `json:"appended_action_id,omitempty"`
	Transition       *roadmap.Transition `json:"transition,omitempty"`
}

// Options tunes an Engine.
type Options struct {
	// AppendRemedial adds the scorer's suggested follow-up action to the step
	// when a submission falls below the threshold.
	AppendRemedial bool
	Now            func() time.Time
}

// Engine applies Begin and Submit to a roadmap held by the caller.
// Collaborators are always called before the roadmap is touched, so a
// returned error means the roadmap is unchanged.
type Engine struct {
	questions QuestionGenerator
	scorer    AnswerScorer
	opts      Options
}

// NewEngine creates an Engine.
func NewEngine(q QuestionGenerator, s AnswerScorer, opts Options) *Engine {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Engine{questions: q, scorer: s, opts: opts}
}

// Begin starts (or resumes) an action in the current step and returns its
// questions. Questions are generated once and reused on every retry.
func (e *Engine) Begin(ctx context.Context, r *roadmap.Roadmap, actionID string) (*BeginResult, error) {
	step, action, err := e.locate(r, actionID)
	if err != nil {
		return nil, err
	}

	switch action.Status {
	case roadmap.ActionCompleted:
		return nil, apperr.InvalidState("action %q is already completed", actionID)
	case roadmap.ActionInProgress:
		if len(action.Questions) == roadmap.QuestionsPerAction {
			return &BeginResult{ActionID: actionID, Questions: copyQuestions(action.Questions), Resumed: true}, nil
		}
	}
	if step.StepNumber != r.CurrentStepNumber {
		return nil, apperr.InvalidState("action %q belongs to step %d, current step is %d",
			actionID, step.StepNumber, r.CurrentStepNumber)
	}

	questions := action.Questions
	if len(questions) != roadmap.QuestionsPerAction {
		generated, err := e.questions.GenerateQuestions(ctx, *action)
		if err != nil {
			return nil, apperr.External(err, "question generation failed for %q", actionID)
		}
		if err := checkQuestions(generated); err != nil {
			return nil, apperr.External(err, "question generation returned unusable questions for %q", actionID)
		}
		questions = copyQuestions(generated)
	}

	action.Questions = questions
	action.Status = roadmap.ActionInProgress
	if r.Status == roadmap.StatusGenerated {
		r.Status = roadmap.StatusInProgress
	}
	return &BeginResult{ActionID: actionID, Questions: copyQuestions(questions)}, nil
}

// Submit scores answers for an in-progress action and advances the roadmap.
// Resubmitting a completed action returns its stored result without any change.
func (e *Engine) Submit(ctx context.Context, r *roadmap.Roadmap, actionID string, answers []string) (*SubmitResult, error) {
	_, action, err := e.locate(r, actionID)
	if err != nil {
		return nil, err
	}

	if action.Status == roadmap.ActionCompleted {
		return storedResult(action), nil
	}
	if action.Status != roadmap.ActionInProgress {
		return nil, apperr.InvalidState("action %q is %s; begin it before submitting answers", actionID, action.Status)
	}
	if len(answers) != len(action.Questions) {
		return nil, apperr.Validation("expected %d answers, got %d", len(action.Questions), len(answers))
	}
	for i, a := range answers {
		if strings.TrimSpace(a) == "" {
			return nil, apperr.Validation("answer %d is empty", i+1)
		}
	}

	score, err := e.scorer.Score(ctx, *action, answers)
	if err != nil {
		return nil, apperr.External(err, "answer scoring failed for %q", actionID)
	}
	if score.Relevance < 0 || score.Relevance > 1 {
		return nil, apperr.External(nil, "scorer returned relevance %v outside [0,1]", score.Relevance)
	}

	relevance := score.Relevance
	action.Attempts++
	action.UserAnswers = append([]string(nil), answers...)
	action.RelevanceScore = &relevance
	action.Feedback = score.Feedback
	action.AgentSatisfied = roadmap.Satisfied(relevance)

	res := &SubmitResult{
		ActionID:       actionID,
		RelevanceScore: relevance,
		AgentSatisfied: action.AgentSatisfied,
		Feedback:       score.Feedback,
		NextSteps:      score.NextSteps,
	}

	if action.AgentSatisfied {
		action.Status = roadmap.ActionCompleted
		if action.CompletionTimestamp == nil {
			ts := e.opts.Now().UTC()
			action.CompletionTimestamp = &ts
		}
	}
	res.Attempts = action.Attempts

	if !action.AgentSatisfied {
		action.Status = roadmap.ActionNeedsReview
		// Appending may reallocate the step's actions, so action is not used after this.
		if e.opts.AppendRemedial && score.Remedial != nil {
			id, err := e.appendRemedial(r, actionID, res.Attempts, *score.Remedial)
			if err != nil {
				return nil, err
			}
			res.AppendedActionID = id
		}
	}

	tr := roadmap.Recompute(r)
	res.Transition = &tr
	return res, nil
}

func (e *Engine) locate(r *roadmap.Roadmap, actionID string) (*roadmap.Step, *roadmap.Action, error) {
	if r == nil {
		return nil, nil, apperr.InvalidState("no roadmap generated")
	}
	step, action := r.FindAction(actionID)
	if action == nil {
		return nil, nil, apperr.NotFound("action %q not found in roadmap %s", actionID, r.RoadmapID)
	}
	return step, action, nil
}

func (e *Engine) appendRemedial(r *roadmap.Roadmap, actionID string, attempt int, draft roadmap.Action) (string, error) {
	step, _ := r.FindAction(actionID)
	id := fmt.Sprintf("%s_r%d", actionID, attempt)
	if _, existing := r.FindAction(id); existing != nil {
		return "", nil
	}
	err := r.AppendAction(step.StepNumber, roadmap.Action{
		ActionID:        id,
		Title:           draft.Title,
		Description:     draft.Description,
		SuccessCriteria: draft.SuccessCriteria,
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

func storedResult(a *roadmap.Action) *SubmitResult {
	res := &SubmitResult{
		ActionID:         a.ActionID,
		AgentSatisfied:   a.AgentSatisfied,
		Feedback:         a.Feedback,
		Attempts:         a.Attempts,
		AlreadyCompleted: true,
	}
	if a.RelevanceScore != nil {
		res.RelevanceScore = *a.RelevanceScore
	}
	return res
}

func checkQuestions(qs []roadmap.Question) error {
	if len(qs) != roadmap.QuestionsPerAction {
		return fmt.Errorf("got %d questions, want %d", len(qs), roadmap.QuestionsPerAction)
	}
	for i, q := range qs {
		if strings.TrimSpace(q.Text) == "" {
			return fmt.Errorf("question %d is empty", i+1)
		}
	}
	return nil
}

func copyQuestions(qs []roadmap.Question) []roadmap.Question {
	return append([]roadmap.Question(nil), qs...)
}
