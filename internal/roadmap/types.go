package roadmap

import "time"

// Status is the overall state of a roadmap.
type Status string

const (
	StatusGenerated  Status = "generated"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
)

// StepStatus is the state of a single step.
type StepStatus string

const (
	StepPending    StepStatus = "pending"
	StepInProgress StepStatus = "in_progress"
	StepCompleted  StepStatus = "completed"
)

// ActionStatus is the state of a single action.
type ActionStatus string

const (
	ActionPending     ActionStatus = "pending"
	ActionInProgress  ActionStatus = "in_progress"
	ActionCompleted   ActionStatus = "completed"
	ActionNeedsReview ActionStatus = "needs_review"
)

const (
	// SatisfactionThreshold is the minimum relevance score that completes an action.
	// A score exactly at the threshold counts as satisfied.
	SatisfactionThreshold = 0.7

	// QuestionsPerAction is the fixed number of questions generated for an action.
	QuestionsPerAction = 5

	// ActionsPerStep is the number of actions every step starts with.
	ActionsPerStep = 3
)

// Satisfied reports whether score completes an action.
func Satisfied(score float64) bool {
	return score >= SatisfactionThreshold
}

// Roadmap is an ordered plan of steps toward a target role.
type Roadmap struct {
	RoadmapID         string    `json:"roadmap_id"`
	TargetRole        string    `json:"target_role"`
	Steps             []Step    `json:"steps"`
	CurrentStepNumber int       `json:"current_step_number"`
	CompletedSteps    []int     `json:"completed_steps"`
	Status            Status    `json:"status"`
	CreatedAt         time.Time `json:"created_at"`
}

// Step is one stage of a roadmap.
type Step struct {
	StepNumber           int        `json:"step_number"`
	Title                string     `json:"title"`
	Description          string     `json:"description"`
	Actions              []Action   `json:"actions"`
	Status               StepStatus `json:"status"`
	CompletionPercentage float64    `json:"completion_percentage"`
}

// Action is a unit of work inside a step, verified by answering questions.
type Action struct {
	ActionID            string       `json:"action_id"`
	Title               string       `json:"title"`
	Description         string       `json:"description"`
	SuccessCriteria     string       `json:"success_criteria"`
	Status              ActionStatus `json:"status"`
	Questions           []Question   `json:"questions"`
	UserAnswers         []string     `json:"user_answers"`
	RelevanceScore      *float64     `json:"relevance_score"`
	Feedback            string       `json:"feedback,omitempty"`
	AgentSatisfied      bool         `json:"agent_satisfied"`
	Attempts            int          `json:"attempts"`
	CompletionTimestamp *time.Time   `json:"completion_timestamp"`
}

// Question is one verification question for an action.
type Question struct {
	Text string `json:"text"`
	Type string `json:"type,omitempty"` // "conceptual", "practical", "reflective", ...
}

// Progress is the derived summary of a roadmap.
type Progress struct {
	CurrentStepTitle            string   `json:"current_step_title"`
	CompletedStepCount          int      `json:"completed_step_count"`
	TotalSteps                  int      `json:"total_steps"`
	ProgressPercentage          float64  `json:"progress_percentage"`
	PendingActionsInCurrentStep []string `json:"pending_actions_in_current_step"`
}

// Transition describes what a recompute did to the roadmap.
type Transition struct {
	StepNumber       int     `json:"step_number"`
	StepPercentage   float64 `json:"step_percentage"`
	StepCompleted    bool    `json:"step_completed"`
	NextStepNumber   int     `json:"next_step_number,omitempty"`
	RoadmapCompleted bool    `json:"roadmap_completed"`
}
