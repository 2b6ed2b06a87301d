package agent

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/lucasnoah/careerpath/internal/prompt"
	"github.com/lucasnoah/careerpath/internal/reroute"
	"github.com/lucasnoah/careerpath/internal/roadmap"
	"github.com/lucasnoah/careerpath/internal/usercontext"
)

// FeedbackRequest carries the state reviewed by AnalyzeProgress.
type FeedbackRequest struct {
	Profile usercontext.Profile
	Path    reroute.Path
}

// Feedback is the model's review of a learner's progress.
type Feedback struct {
	OverallProgressRating  string   `json:"overall_progress_rating"`
	VelocityAssessment     string   `json:"velocity_assessment"`
	Strengths              []string `json:"strengths"`
	Concerns               []string `json:"concerns"`
	Recommendations        []string `json:"recommendations"`
	UpdatedConfidenceScore float64  `json:"updated_confidence_score"`
	UpdatedDeviationRisk   string   `json:"updated_deviation_risk"`
}

var deviationRisks = map[string]bool{"low": true, "medium": true, "high": true}

// AnalyzeProgress reviews the active roadmap and its action results.
func (a *Agent) AnalyzeProgress(ctx context.Context, req FeedbackRequest) (Feedback, error) {
	r := req.Path.Roadmap
	if r == nil {
		return Feedback{}, fmt.Errorf("no active roadmap")
	}
	prog, err := roadmap.DeriveProgress(r)
	if err != nil {
		return Feedback{}, err
	}

	raw, err := a.ask(ctx, "feedback.md", prompt.Vars{
		"target_role": req.Path.TargetRole,
		"profile":     profileSummary(req.Profile),
		"progress": fmt.Sprintf("%d/%d steps completed (%.0f%%), roadmap %s, current step: %s",
			prog.CompletedStepCount, prog.TotalSteps, prog.ProgressPercentage, r.Status, prog.CurrentStepTitle),
		"actions": actionResults(r),
		"reroute": rerouteSummary(req.Path),
	})
	if err != nil {
		return Feedback{}, err
	}

	var fb Feedback
	if err := decodeObject(raw, &fb); err != nil {
		a.log.Warn("unparseable feedback", zap.Error(err))
		return Feedback{}, err
	}
	fb.UpdatedConfidenceScore = clamp01(fb.UpdatedConfidenceScore)
	fb.UpdatedDeviationRisk = strings.ToLower(strings.TrimSpace(fb.UpdatedDeviationRisk))
	if !deviationRisks[fb.UpdatedDeviationRisk] {
		fb.UpdatedDeviationRisk = ""
	}
	if fb.Strengths == nil {
		fb.Strengths = []string{}
	}
	if fb.Concerns == nil {
		fb.Concerns = []string{}
	}
	if fb.Recommendations == nil {
		fb.Recommendations = []string{}
	}
	return fb, nil
}

func actionResults(r *roadmap.Roadmap) string {
	var b strings.Builder
	for _, s := range r.Steps {
		for _, act := range s.Actions {
			if act.Attempts == 0 {
				continue
			}
			score := 0.0
			if act.RelevanceScore != nil {
				score = *act.RelevanceScore
			}
			fmt.Fprintf(&b, "- step %d %q: %s, score %.2f after %d attempt(s)\n",
				s.StepNumber, act.Title, act.Status, score, act.Attempts)
		}
	}
	if b.Len() == 0 {
		return "- no actions attempted yet"
	}
	return strings.TrimRight(b.String(), "\n")
}

func rerouteSummary(p reroute.Path) string {
	if !p.Reroute.IsRerouting {
		return ""
	}
	return fmt.Sprintf("following an alternative path (%s, originally %s), %.0f%% complete",
		p.TargetRole, p.OriginalTargetRole, p.Reroute.AlternativeCompletionPercentage)
}
