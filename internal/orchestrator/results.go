package orchestrator

import (
	"errors"
	"time"

	"github.com/lucasnoah/careerpath/internal/agent"
	"github.com/lucasnoah/careerpath/internal/apperr"
	"github.com/lucasnoah/careerpath/internal/evaluation"
	"github.com/lucasnoah/careerpath/internal/reroute"
	"github.com/lucasnoah/careerpath/internal/roadmap"
)

// Result status values.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Failure is the structured form of an operation error.
type Failure struct {
	Status    string      `json:"status"`
	ErrorKind apperr.Kind `json:"error_kind"`
	Operation string      `json:"operation,omitempty"`
	Message   string      `json:"message"`
	Retryable bool        `json:"retryable"`
}

// ErrorResult converts an operation error into a Failure.
func ErrorResult(err error) Failure {
	f := Failure{
		Status:    StatusError,
		ErrorKind: apperr.KindOf(err),
		Message:   apperr.MessageOf(err),
		Retryable: apperr.IsRetryable(err),
	}
	var e *apperr.Error
	if errors.As(err, &e) {
		f.Operation = e.Op
	}
	return f
}

// OnboardResult is returned by Onboard.
type OnboardResult struct {
	Status     string    `json:"status"`
	UserID     string    `json:"user_id"`
	TargetRole string    `json:"target_role,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// GenerateRoadmapResult is returned by GenerateRoadmap.
type GenerateRoadmapResult struct {
	Status     string           `json:"status"`
	UserID     string           `json:"user_id"`
	RoadmapID  string           `json:"roadmap_id"`
	TargetRole string           `json:"target_role"`
	TotalSteps int              `json:"total_steps"`
	Roadmap    *roadmap.Roadmap `json:"roadmap"`
}

// RoadmapStatusResult is returned by GetRoadmapStatus. NextActionID is the
// first action of the current step still to be done.
type RoadmapStatusResult struct {
	Status                          string           `json:"status"`
	UserID                          string           `json:"user_id"`
	RoadmapID                       string           `json:"roadmap_id"`
	TargetRole                      string           `json:"target_role"`
	RoadmapStatus                   roadmap.Status   `json:"roadmap_status"`
	CurrentStepNumber               int              `json:"current_step_number"`
	Progress                        roadmap.Progress `json:"progress"`
	NextActionID                    string           `json:"next_action_id,omitempty"`
	Phase                           reroute.Phase    `json:"phase"`
	CurrentPathType                 reroute.PathType `json:"current_path_type"`
	IsRerouting                     bool             `json:"is_rerouting"`
	AlternativeCompletionPercentage float64          `json:"alternative_completion_percentage"`
	RedirectAvailable               bool             `json:"redirect_available"`
}

// BeginActionResult is returned by BeginAction.
type BeginActionResult struct {
	Status     string `json:"status"`
	UserID     string `json:"user_id"`
	StepNumber int    `json:"step_number"`
	evaluation.BeginResult
}

// SubmitAnswersResult is returned by SubmitActionAnswers.
type SubmitAnswersResult struct {
	Status string `json:"status"`
	UserID string `json:"user_id"`
	evaluation.SubmitResult
	Progress roadmap.Progress `json:"progress"`
}

// DetectResult is returned by DetectDeviationAndReroute.
type DetectResult struct {
	Status       string             `json:"status"`
	UserID       string             `json:"user_id"`
	Phase        reroute.Phase      `json:"phase"`
	Reason       string             `json:"reason"`
	Alternatives []reroute.Proposal `json:"alternatives"`
}

// SelectResult is returned by SelectRerouteOption.
type SelectResult struct {
	Status            string `json:"status"`
	UserID            string `json:"user_id"`
	OptionID          string `json:"option_id"`
	NewTargetRole     string `json:"new_target_role"`
	RoadmapID         string `json:"roadmap_id"`
	OriginalRoadmapID string `json:"original_roadmap_id"`
	TotalSteps        int    `json:"total_steps"`
}

// CompleteRerouteResult is returned by CompleteRerouteRoadmap.
type CompleteRerouteResult struct {
	Status             string        `json:"status"`
	UserID             string        `json:"user_id"`
	Phase              reroute.Phase `json:"phase"`
	RedirectAvailable  bool          `json:"redirect_available"`
	CompletedRole      string        `json:"completed_role"`
	OriginalTargetRole string        `json:"original_target_role"`
}

// RedirectResult is returned by AcceptRedirect and DeclineRedirect.
type RedirectResult struct {
	Status     string        `json:"status"`
	UserID     string        `json:"user_id"`
	Decision   string        `json:"decision"` // "accepted" or "declined"
	TargetRole string        `json:"target_role"`
	RoadmapID  string        `json:"roadmap_id"`
	Phase      reroute.Phase `json:"phase"`
}

// DismissResult is returned by DismissAlternatives.
type DismissResult struct {
	Status     string        `json:"status"`
	UserID     string        `json:"user_id"`
	Phase      reroute.Phase `json:"phase"`
	TargetRole string        `json:"target_role"`
}

// FeedbackResult is returned by AnalyzeProgress.
type FeedbackResult struct {
	Status string `json:"status"`
	UserID string `json:"user_id"`
	agent.Feedback
}

// ImportResult is returned by Import.
type ImportResult struct {
	Status   string `json:"status"`
	UserID   string `json:"user_id"`
	Replaced bool   `json:"replaced"`
}
