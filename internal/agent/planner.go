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

// RoadmapRequest asks for a roadmap toward TargetRole.
type RoadmapRequest struct {
	TargetRole string
	Profile    usercontext.Profile
	Goals      usercontext.Goals
	Readiness  usercontext.Readiness
	Market     usercontext.MarketContext
	// Adjustment describes how an adjusted-original roadmap should differ.
	Adjustment string
	MinSteps   int
	MaxSteps   int
}

// AlternativesRequest asks for reroute proposals after a deviation.
type AlternativesRequest struct {
	Path    reroute.Path
	Profile usercontext.Profile
	Reason  string
}

type plannedAction struct {
	Title           string `json:"title"`
	Description     string `json:"description"`
	SuccessCriteria string `json:"success_criteria"`
}

type plannedStep struct {
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Actions     []plannedAction `json:"actions"`
}

// PlanRoadmap asks the model for a sequence of steps. The caller assigns ids
// and statuses via roadmap.New. Steps with extra actions are trimmed to
// roadmap.ActionsPerStep.
func (a *Agent) PlanRoadmap(ctx context.Context, req RoadmapRequest) ([]roadmap.Step, error) {
	if strings.TrimSpace(req.TargetRole) == "" {
		return nil, fmt.Errorf("target role is required")
	}
	vars := prompt.Vars{
		"target_role":      req.TargetRole,
		"profile":          profileSummary(req.Profile),
		"goal":             req.Goals.StatedGoal,
		"readiness":        readinessSummary(req.Readiness),
		"market":           marketSummary(req.Market),
		"adjustment":       req.Adjustment,
		"min_steps":        fmt.Sprint(req.MinSteps),
		"max_steps":        fmt.Sprint(req.MaxSteps),
		"actions_per_step": fmt.Sprint(roadmap.ActionsPerStep),
	}
	raw, err := a.ask(ctx, "roadmap.md", vars)
	if err != nil {
		return nil, err
	}

	var resp struct {
		Steps []plannedStep `json:"steps"`
	}
	if err := decodeObject(raw, &resp); err != nil {
		a.log.Warn("unparseable roadmap plan", zap.Error(err))
		return nil, err
	}
	if len(resp.Steps) == 0 {
		return nil, fmt.Errorf("roadmap plan has no steps")
	}

	steps := make([]roadmap.Step, 0, len(resp.Steps))
	for _, ps := range resp.Steps {
		acts := ps.Actions
		if len(acts) > roadmap.ActionsPerStep {
			acts = acts[:roadmap.ActionsPerStep]
		}
		step := roadmap.Step{
			Title:       strings.TrimSpace(ps.Title),
			Description: strings.TrimSpace(ps.Description),
			Actions:     make([]roadmap.Action, 0, len(acts)),
		}
		for _, pa := range acts {
			step.Actions = append(step.Actions, roadmap.Action{
				Title:           strings.TrimSpace(pa.Title),
				Description:     strings.TrimSpace(pa.Description),
				SuccessCriteria: strings.TrimSpace(pa.SuccessCriteria),
			})
		}
		steps = append(steps, step)
	}
	a.log.Info("planned roadmap", zap.String("target_role", req.TargetRole), zap.Int("steps", len(steps)))
	return steps, nil
}

type plannedAlternative struct {
	NewTargetRole      string  `json:"new_target_role"`
	Reason             string  `json:"reason"`
	SuccessProbability float64 `json:"success_probability"`
	TimelineMonths     int     `json:"timeline_months"`
	BriefRoadmap       string  `json:"brief_roadmap"`
}

type plannedAdjustment struct {
	OriginalTargetRole string  `json:"original_target_role"`
	Adjustment         string  `json:"adjustment"`
	SuccessProbability float64 `json:"success_probability"`
	TimelineMonths     int     `json:"timeline_months"`
	BriefRoadmap       string  `json:"brief_roadmap"`
}

// PlanAlternatives asks the model for two alternative targets and one
// adjusted version of the current target. Option ids are assigned by the
// reroute machine.
func (a *Agent) PlanAlternatives(ctx context.Context, req AlternativesRequest) ([]reroute.Proposal, error) {
	vars := prompt.Vars{
		"target_role": req.Path.TargetRole,
		"reason":      req.Reason,
		"profile":     profileSummary(req.Profile),
		"progress":    pathProgress(req.Path),
	}
	raw, err := a.ask(ctx, "alternatives.md", vars)
	if err != nil {
		return nil, err
	}

	var resp struct {
		Alternatives     []plannedAlternative `json:"alternatives"`
		AdjustedOriginal *plannedAdjustment   `json:"adjusted_original"`
	}
	if err := decodeObject(raw, &resp); err != nil {
		a.log.Warn("unparseable alternatives", zap.Error(err))
		return nil, err
	}
	if resp.AdjustedOriginal == nil {
		return nil, fmt.Errorf("alternatives response has no adjusted_original")
	}

	props := make([]reroute.Proposal, 0, len(resp.Alternatives)+1)
	for _, alt := range resp.Alternatives {
		props = append(props, reroute.Proposal{
			TargetRole:         strings.TrimSpace(alt.NewTargetRole),
			Rationale:          alt.Reason,
			SuccessProbability: clamp01(alt.SuccessProbability),
			TimelineMonths:     alt.TimelineMonths,
			BriefRoadmap:       alt.BriefRoadmap,
		})
	}
	adj := resp.AdjustedOriginal
	role := strings.TrimSpace(adj.OriginalTargetRole)
	if role == "" {
		role = req.Path.TargetRole
	}
	props = append(props, reroute.Proposal{
		TargetRole:         role,
		Rationale:          adj.Adjustment,
		SuccessProbability: clamp01(adj.SuccessProbability),
		TimelineMonths:     adj.TimelineMonths,
		BriefRoadmap:       adj.BriefRoadmap,
		AdjustedOriginal:   true,
	})
	return props, nil
}

func pathProgress(p reroute.Path) string {
	if p.Roadmap == nil {
		return ""
	}
	prog, err := roadmap.DeriveProgress(p.Roadmap)
	if err != nil {
		return ""
	}
	return fmt.Sprintf("%d of %d steps completed (%.0f%%), current step: %s",
		prog.CompletedStepCount, prog.TotalSteps, prog.ProgressPercentage, prog.CurrentStepTitle)
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
