package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/lucasnoah/careerpath/internal/reroute"
	"github.com/lucasnoah/careerpath/internal/usercontext"
)

// DetectDeviationAndReroute records a deviation and offers two alternative
// targets plus an adjusted version of the current one.
func (o *Orchestrator) DetectDeviationAndReroute(ctx context.Context, userID, reason string) (*DetectResult, error) {
	c, err := o.mutate(ctx, "detect deviation", userID, func(c *usercontext.UserContext) (change, error) {
		p := proposer{planner: o.planner, profile: c.Profile}
		if err := reroute.Detect(ctx, &c.ActivePath, reason, p, o.opts.Now()); err != nil {
			return change{}, err
		}
		return change{
			event:     "deviation_detected",
			detail:    c.ActivePath.Reroute.RerouteReason,
			roadmapID: c.ActivePath.Roadmap.RoadmapID,
		}, nil
	})
	if err != nil {
		return nil, err
	}
	st := c.ActivePath.Reroute
	return &DetectResult{
		Status:       StatusSuccess,
		UserID:       userID,
		Phase:        st.Phase,
		Reason:       st.RerouteReason,
		Alternatives: st.AlternativeRoadmaps,
	}, nil
}

// SelectRerouteOption switches the active roadmap to a newly planned one for
// the chosen option. The replaced roadmap is retained for redirect-back.
func (o *Orchestrator) SelectRerouteOption(ctx context.Context, userID, optionID string) (*SelectResult, error) {
	c, err := o.mutate(ctx, "select reroute option", userID, func(c *usercontext.UserContext) (change, error) {
		if err := reroute.Select(ctx, &c.ActivePath, optionID, builder{o: o, c: c}, o.opts.Now()); err != nil {
			return change{}, err
		}
		return change{
			event:     "reroute_selected",
			detail:    fmt.Sprintf("option %s: %s", optionID, c.ActivePath.TargetRole),
			roadmapID: c.ActivePath.Roadmap.RoadmapID,
		}, nil
	})
	if err != nil {
		return nil, err
	}
	path := c.ActivePath
	return &SelectResult{
		Status:            StatusSuccess,
		UserID:            userID,
		OptionID:          path.Reroute.SelectedAlternativeID,
		NewTargetRole:     path.TargetRole,
		RoadmapID:         path.Roadmap.RoadmapID,
		OriginalRoadmapID: path.Reroute.OriginalRoadmapID,
		TotalSteps:        len(path.Roadmap.Steps),
	}, nil
}

// CompleteRerouteRoadmap unlocks the redirect once the alternative roadmap
// is completed.
func (o *Orchestrator) CompleteRerouteRoadmap(ctx context.Context, userID string) (*CompleteRerouteResult, error) {
	c, err := o.mutate(ctx, "complete reroute roadmap", userID, func(c *usercontext.UserContext) (change, error) {
		if err := reroute.Complete(&c.ActivePath); err != nil {
			return change{}, err
		}
		return change{
			event:     "reroute_completed",
			detail:    c.ActivePath.TargetRole,
			roadmapID: c.ActivePath.Roadmap.RoadmapID,
		}, nil
	})
	if err != nil {
		return nil, err
	}
	path := c.ActivePath
	return &CompleteRerouteResult{
		Status:             StatusSuccess,
		UserID:             userID,
		Phase:              path.Reroute.Phase,
		RedirectAvailable:  path.Reroute.RedirectAvailable,
		CompletedRole:      path.TargetRole,
		OriginalTargetRole: path.OriginalTargetRole,
	}, nil
}

// AcceptRedirect restores the original roadmap after a completed alternative.
func (o *Orchestrator) AcceptRedirect(ctx context.Context, userID string) (*RedirectResult, error) {
	return o.redirect(ctx, "accept redirect", userID, "accepted", reroute.AcceptRedirect)
}

// DeclineRedirect keeps the completed alternative as the learner's path.
func (o *Orchestrator) DeclineRedirect(ctx context.Context, userID string) (*RedirectResult, error) {
	return o.redirect(ctx, "decline redirect", userID, "declined", reroute.DeclineRedirect)
}

func (o *Orchestrator) redirect(ctx context.Context, op, userID, decision string, apply func(*reroute.Path, time.Time) error) (*RedirectResult, error) {
	c, err := o.mutate(ctx, op, userID, func(c *usercontext.UserContext) (change, error) {
		if err := apply(&c.ActivePath, o.opts.Now()); err != nil {
			return change{}, err
		}
		return change{
			event:     "redirect_" + decision,
			detail:    c.ActivePath.TargetRole,
			roadmapID: c.ActivePath.Roadmap.RoadmapID,
		}, nil
	})
	if err != nil {
		return nil, err
	}
	return &RedirectResult{
		Status:     StatusSuccess,
		UserID:     userID,
		Decision:   decision,
		TargetRole: c.ActivePath.TargetRole,
		RoadmapID:  c.ActivePath.Roadmap.RoadmapID,
		Phase:      c.ActivePath.CurrentPhase(),
	}, nil
}

// DismissAlternatives discards offered alternatives and continues on the
// current path.
func (o *Orchestrator) DismissAlternatives(ctx context.Context, userID string) (*DismissResult, error) {
	c, err := o.mutate(ctx, "dismiss alternatives", userID, func(c *usercontext.UserContext) (change, error) {
		if err := reroute.Dismiss(&c.ActivePath); err != nil {
			return change{}, err
		}
		return change{event: "alternatives_dismissed", detail: c.ActivePath.TargetRole}, nil
	})
	if err != nil {
		return nil, err
	}
	return &DismissResult{
		Status:     StatusSuccess,
		UserID:     userID,
		Phase:      c.ActivePath.CurrentPhase(),
		TargetRole: c.ActivePath.TargetRole,
	}, nil
}
