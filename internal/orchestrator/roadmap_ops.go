package orchestrator

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/lucasnoah/careerpath/internal/apperr"
	"github.com/lucasnoah/careerpath/internal/evaluation"
	"github.com/lucasnoah/careerpath/internal/reroute"
	"github.com/lucasnoah/careerpath/internal/roadmap"
	"github.com/lucasnoah/careerpath/internal/usercontext"
)

// OnboardOpts holds the data collected when a learner signs up.
type OnboardOpts struct {
	UserID     string
	TargetRole string
	Profile    usercontext.Profile
	Goals      usercontext.Goals
	Readiness  usercontext.Readiness
	Market     usercontext.MarketContext
}

// Onboard creates a user's context. It fails if the user already exists.
func (o *Orchestrator) Onboard(ctx context.Context, opts OnboardOpts) (*OnboardResult, error) {
	const op = "onboard"
	if err := usercontext.ValidateUserID(opts.UserID); err != nil {
		return nil, withOp(op, err)
	}
	_, err := o.store.Load(ctx, opts.UserID)
	switch {
	case err == nil:
		return nil, withOp(op, apperr.InvalidState("user %q is already onboarded", opts.UserID))
	case !apperr.IsNotFound(err):
		return nil, withOp(op, err)
	}

	now := o.opts.Now()
	c := usercontext.New(opts.UserID, now)
	mergeProfile(&c.Profile, opts.Profile)
	c.Goals = opts.Goals
	if c.Goals.PreviousGoals == nil {
		c.Goals.PreviousGoals = []string{}
	}
	c.Readiness = opts.Readiness
	if c.Readiness.WeakAreas == nil {
		c.Readiness.WeakAreas = []string{}
	}
	c.Market = opts.Market
	if c.Market.Trends == nil {
		c.Market.Trends = []string{}
	}
	c.ActivePath.TargetRole = strings.TrimSpace(opts.TargetRole)
	c.Record(now, "onboarded", c.ActivePath.TargetRole)

	if err := o.store.Save(ctx, c); err != nil {
		return nil, withOp(op, err)
	}
	o.logEvent(opts.UserID, change{event: "onboarded", detail: c.ActivePath.TargetRole})
	return &OnboardResult{
		Status:     StatusSuccess,
		UserID:     c.UserID,
		TargetRole: c.ActivePath.TargetRole,
		CreatedAt:  c.CreatedAt,
	}, nil
}

// mergeProfile copies p into dst, keeping dst's empty slices where p has nil ones.
func mergeProfile(dst *usercontext.Profile, p usercontext.Profile) {
	empty := *dst
	*dst = p
	for _, f := range []struct {
		dst  *[]string
		zero []string
	}{
		{&dst.TechnicalSkills, empty.TechnicalSkills},
		{&dst.SoftSkills, empty.SoftSkills},
		{&dst.StrengthAreas, empty.StrengthAreas},
		{&dst.WeaknessAreas, empty.WeaknessAreas},
		{&dst.Projects, empty.Projects},
	} {
		if *f.dst == nil {
			*f.dst = f.zero
		}
	}
}

// GenerateRoadmapOpts selects whose roadmap to generate. A non-empty
// TargetRole replaces the user's current target first.
type GenerateRoadmapOpts struct {
	UserID     string
	TargetRole string
}

// GenerateRoadmap plans a fresh roadmap toward the user's target role and
// makes it the active roadmap. Not allowed during a reroute cycle.
func (o *Orchestrator) GenerateRoadmap(ctx context.Context, opts GenerateRoadmapOpts) (*GenerateRoadmapResult, error) {
	var r *roadmap.Roadmap
	c, err := o.mutate(ctx, "generate roadmap", opts.UserID, func(c *usercontext.UserContext) (change, error) {
		if phase := c.ActivePath.CurrentPhase(); phase != reroute.PhaseNormal {
			return change{}, apperr.InvalidState("cannot generate a roadmap while %s", phase)
		}
		role := strings.TrimSpace(opts.TargetRole)
		if role == "" {
			role = c.ActivePath.TargetRole
		}
		if role == "" {
			return change{}, apperr.Validation("target role is required")
		}

		planned, err := o.planRoadmap(ctx, c, role, "")
		if err != nil {
			return change{}, err
		}

		path := &c.ActivePath
		if path.TargetRole != "" && path.TargetRole != role {
			c.Goals.PreviousGoals = append(c.Goals.PreviousGoals, path.TargetRole)
		}
		path.TargetRole = role
		path.Roadmap = planned
		path.CurrentPathType = reroute.PathOriginal
		r = planned
		return change{
			event:     "roadmap_generated",
			detail:    fmt.Sprintf("%s (%d steps)", role, len(planned.Steps)),
			roadmapID: planned.RoadmapID,
		}, nil
	})
	if err != nil {
		return nil, err
	}
	return &GenerateRoadmapResult{
		Status:     StatusSuccess,
		UserID:     c.UserID,
		RoadmapID:  r.RoadmapID,
		TargetRole: r.TargetRole,
		TotalSteps: len(r.Steps),
		Roadmap:    r,
	}, nil
}

// GetRoadmapStatus reports progress on the active roadmap. Read-only.
func (o *Orchestrator) GetRoadmapStatus(ctx context.Context, userID string) (*RoadmapStatusResult, error) {
	const op = "get roadmap status"
	c, err := o.load(ctx, userID)
	if err != nil {
		return nil, withOp(op, err)
	}
	r, err := requireRoadmap(c)
	if err != nil {
		return nil, withOp(op, err)
	}
	prog, err := roadmap.DeriveProgress(r)
	if err != nil {
		return nil, withOp(op, err)
	}

	path := c.ActivePath
	res := &RoadmapStatusResult{
		Status:                          StatusSuccess,
		UserID:                          c.UserID,
		RoadmapID:                       r.RoadmapID,
		TargetRole:                      path.TargetRole,
		RoadmapStatus:                   r.Status,
		CurrentStepNumber:               r.CurrentStepNumber,
		Progress:                        prog,
		Phase:                           path.CurrentPhase(),
		CurrentPathType:                 path.CurrentPathType,
		IsRerouting:                     path.Reroute.IsRerouting,
		AlternativeCompletionPercentage: path.Reroute.AlternativeCompletionPercentage,
		RedirectAvailable:               path.Reroute.RedirectAvailable,
	}
	if len(prog.PendingActionsInCurrentStep) > 0 {
		res.NextActionID = prog.PendingActionsInCurrentStep[0]
	}
	return res, nil
}

// BeginAction starts or resumes an action of the current step and returns
// its verification questions.
func (o *Orchestrator) BeginAction(ctx context.Context, userID, actionID string) (*BeginActionResult, error) {
	var res *BeginActionResult
	_, err := o.mutate(ctx, "begin action", userID, func(c *usercontext.UserContext) (change, error) {
		r, err := requireRoadmap(c)
		if err != nil {
			return change{}, err
		}
		br, err := o.engine.Begin(ctx, r, actionID)
		if err != nil {
			return change{}, err
		}
		step, _ := r.FindAction(actionID)
		res = &BeginActionResult{Status: StatusSuccess, UserID: userID, StepNumber: step.StepNumber, BeginResult: *br}
		if br.Resumed {
			return change{}, nil
		}
		return change{
			event:      "action_started",
			detail:     actionID,
			roadmapID:  r.RoadmapID,
			stepNumber: step.StepNumber,
			actionID:   actionID,
		}, nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// CompleteActionInRoadmap is the historical name of BeginAction.
func (o *Orchestrator) CompleteActionInRoadmap(ctx context.Context, userID, actionID string) (*BeginActionResult, error) {
	return o.BeginAction(ctx, userID, actionID)
}

// SubmitActionAnswers scores answers for an in-progress action and advances
// the roadmap when the action completes its step.
func (o *Orchestrator) SubmitActionAnswers(ctx context.Context, userID, actionID string, answers []string) (*SubmitAnswersResult, error) {
	var (
		sr        *SubmitAnswersResult
		roadmapID string
	)
	_, err := o.mutate(ctx, "submit action answers", userID, func(c *usercontext.UserContext) (change, error) {
		r, err := requireRoadmap(c)
		if err != nil {
			return change{}, err
		}
		res, err := o.engine.Submit(ctx, r, actionID, answers)
		if err != nil {
			return change{}, err
		}
		prog, err := roadmap.DeriveProgress(r)
		if err != nil {
			return change{}, err
		}
		sr = &SubmitAnswersResult{Status: StatusSuccess, UserID: userID, SubmitResult: *res, Progress: prog}
		if res.AlreadyCompleted {
			return change{}, nil
		}

		reroute.TrackProgress(&c.ActivePath)
		roadmapID = r.RoadmapID
		step, _ := r.FindAction(actionID)
		event := "action_needs_review"
		if res.AgentSatisfied {
			event = "action_completed"
		}
		return change{
			event:      event,
			detail:     fmt.Sprintf("%s score=%.2f attempt=%d", actionID, res.RelevanceScore, res.Attempts),
			roadmapID:  r.RoadmapID,
			stepNumber: step.StepNumber,
			actionID:   actionID,
		}, nil
	})
	if err != nil {
		return nil, err
	}

	if !sr.AlreadyCompleted {
		o.logAttempt(userID, roadmapID, &sr.SubmitResult)
		if t := sr.Transition; t != nil && t.StepCompleted {
			ev := change{event: "step_completed", detail: fmt.Sprintf("step %d", t.StepNumber), roadmapID: roadmapID, stepNumber: t.StepNumber}
			if t.RoadmapCompleted {
				ev = change{event: "roadmap_completed", roadmapID: roadmapID, stepNumber: t.StepNumber}
			}
			o.logEvent(userID, ev)
		}
	}
	return sr, nil
}

func (o *Orchestrator) logAttempt(userID, roadmapID string, res *evaluation.SubmitResult) {
	if o.db == nil {
		return
	}
	if err := o.db.LogAttempt(userID, roadmapID, res.ActionID, res.Attempts, res.RelevanceScore, res.AgentSatisfied); err != nil {
		o.log.Warn("attempt log write failed", zap.String("user_id", userID), zap.String("action_id", res.ActionID), zap.Error(err))
	}
}
