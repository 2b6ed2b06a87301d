// Package reroute implements the rerouting lifecycle of a learning path:
//
//	normal -> alternatives_offered -> alternative_active -> alternative_complete -> normal
//
// Detect offers two alternatives plus an adjusted version of the current
// target. Select swaps in a roadmap for the chosen option while retaining the
// original. Complete unlocks the redirect, which the learner then accepts
// (original roadmap restored) or declines (alternative kept).
//
// Every transition validates its phase first and calls collaborators before
// touching the path, so an error leaves the path exactly as it was.
package reroute

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/lucasnoah/careerpath/internal/apperr"
	"github.com/lucasnoah/careerpath/internal/roadmap"
)

// AlternativesPerDetection is the number of non-adjusted alternatives offered.
const AlternativesPerDetection = 2

// Proposer produces candidate paths for a deviation.
type Proposer interface {
	Propose(ctx context.Context, path Path, reason string) ([]Proposal, error)
}

// Builder plans a fresh roadmap for a chosen proposal.
type Builder interface {
	Build(ctx context.Context, path Path, choice Proposal) (*roadmap.Roadmap, error)
}

// Detect records a deviation and stores freshly proposed alternatives.
// Only valid from the normal phase with a roadmap in place.
func Detect(ctx context.Context, p *Path, reason string, proposer Proposer, now time.Time) error {
	if phase := p.CurrentPhase(); phase != PhaseNormal {
		return apperr.InvalidState("cannot detect a deviation while %s", phase)
	}
	if p.Roadmap == nil {
		return apperr.InvalidState("no active roadmap to reroute from")
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return apperr.Validation("deviation reason is required")
	}

	raw, err := proposer.Propose(ctx, *p, reason)
	if err != nil {
		return apperr.External(err, "alternative planning failed")
	}
	proposals, err := normalize(raw, p.TargetRole)
	if err != nil {
		return apperr.External(err, "alternative planning returned unusable proposals")
	}

	ts := now.UTC()
	p.Reroute.Phase = PhaseAlternativesOffered
	p.Reroute.IsRerouting = false
	p.Reroute.AlternativeRoadmaps = proposals
	p.Reroute.SelectedAlternativeID = ""
	p.Reroute.RerouteReason = reason
	p.Reroute.RerouteTimestamp = &ts
	p.Reroute.RedirectAvailable = false
	p.Reroute.AlternativeCompletionPercentage = 0
	return nil
}

// Dismiss discards offered alternatives and returns to the normal phase.
func Dismiss(p *Path) error {
	if phase := p.CurrentPhase(); phase != PhaseAlternativesOffered {
		return apperr.InvalidState("no alternatives to dismiss while %s", phase)
	}
	p.Reroute.Phase = PhaseNormal
	p.Reroute.AlternativeRoadmaps = []Proposal{}
	return nil
}

// Select activates the chosen proposal with a newly built roadmap. The
// roadmap being replaced is retained so the learner can return to it.
func Select(ctx context.Context, p *Path, optionID string, builder Builder, now time.Time) error {
	if phase := p.CurrentPhase(); phase != PhaseAlternativesOffered {
		return apperr.InvalidState("no alternatives to select from while %s", phase)
	}
	choice, ok := p.Reroute.Proposal(optionID)
	if !ok {
		return apperr.NotFound("reroute option %q not found", optionID)
	}

	built, err := builder.Build(ctx, *p, choice)
	if err != nil {
		return apperr.External(err, "roadmap generation failed for option %q", optionID)
	}
	if built == nil || len(built.Steps) == 0 {
		return apperr.External(nil, "roadmap generation returned no steps for option %q", optionID)
	}

	fromRole := p.TargetRole
	if p.Reroute.OriginalRoadmapID == "" && p.Roadmap != nil {
		p.Reroute.OriginalRoadmapID = p.Roadmap.RoadmapID
		p.OriginalRoadmap = p.Roadmap.Clone()
		p.OriginalTargetRole = p.TargetRole
	}

	p.Roadmap = built
	p.TargetRole = choice.TargetRole
	p.CurrentPathType = PathRerouted
	p.Reroute.Phase = PhaseAlternativeActive
	p.Reroute.IsRerouting = true
	p.Reroute.SelectedAlternativeID = optionID
	p.Reroute.AlternativeCompletionPercentage = 0
	p.Reroute.RedirectAvailable = false
	p.Reroute.RerouteCount++
	p.PathChangeHistory = append(p.PathChangeHistory, PathChange{
		Timestamp: now.UTC(),
		Type:      "reroute",
		FromRole:  fromRole,
		ToRole:    choice.TargetRole,
		Reason:    p.Reroute.RerouteReason,
	})
	return nil
}

// TrackProgress mirrors the alternative roadmap's progress into the reroute
// state while an alternative is active. It is a no-op in any other phase.
func TrackProgress(p *Path) {
	if p.CurrentPhase() != PhaseAlternativeActive || p.Roadmap == nil {
		return
	}
	if prog, err := roadmap.DeriveProgress(p.Roadmap); err == nil {
		p.Reroute.AlternativeCompletionPercentage = prog.ProgressPercentage
	}
}

// Complete marks the alternative roadmap finished and unlocks the redirect.
func Complete(p *Path) error {
	if phase := p.CurrentPhase(); phase != PhaseAlternativeActive {
		return apperr.InvalidState("no alternative roadmap is active (phase %s)", phase)
	}
	if p.Roadmap == nil || !p.Roadmap.IsCompleted() {
		return apperr.InvalidState("alternative roadmap is not completed yet")
	}
	p.Reroute.AlternativeCompletionPercentage = 100
	p.Reroute.RedirectAvailable = true
	p.Reroute.Phase = PhaseAlternativeComplete
	return nil
}

// AcceptRedirect restores the retained original roadmap.
func AcceptRedirect(p *Path, now time.Time) error {
	if err := requireRedirect(p); err != nil {
		return err
	}
	if p.OriginalRoadmap == nil || p.OriginalRoadmap.RoadmapID != p.Reroute.OriginalRoadmapID {
		return apperr.InvalidState("original roadmap %q is not retained", p.Reroute.OriginalRoadmapID)
	}

	fromRole := p.TargetRole
	p.Roadmap = p.OriginalRoadmap
	p.TargetRole = p.OriginalTargetRole
	p.CurrentPathType = PathOriginal
	p.PathChangeHistory = append(p.PathChangeHistory, PathChange{
		Timestamp: now.UTC(),
		Type:      "reversion",
		FromRole:  fromRole,
		ToRole:    p.TargetRole,
		Reason:    "alternative roadmap completed; returned to original target",
	})
	finishCycle(p)
	return nil
}

// DeclineRedirect keeps the alternative roadmap as the learner's path.
func DeclineRedirect(p *Path, now time.Time) error {
	if err := requireRedirect(p); err != nil {
		return err
	}
	p.PathChangeHistory = append(p.PathChangeHistory, PathChange{
		Timestamp: now.UTC(),
		Type:      "kept_alternative",
		FromRole:  p.OriginalTargetRole,
		ToRole:    p.TargetRole,
		Reason:    "alternative roadmap completed; redirect declined",
	})
	finishCycle(p)
	return nil
}

func requireRedirect(p *Path) error {
	if phase := p.CurrentPhase(); phase != PhaseAlternativeComplete {
		return apperr.InvalidState("redirect is not available while %s", phase)
	}
	if !p.Reroute.RedirectAvailable {
		return apperr.InvalidState("redirect is not available")
	}
	return nil
}

func finishCycle(p *Path) {
	p.OriginalRoadmap = nil
	p.OriginalTargetRole = ""
	p.Reroute.Phase = PhaseNormal
	p.Reroute.IsRerouting = false
	p.Reroute.RedirectAvailable = false
	p.Reroute.OriginalRoadmapID = ""
	p.Reroute.SelectedAlternativeID = ""
	p.Reroute.AlternativeRoadmaps = []Proposal{}
}

// normalize assigns the fixed option ids: "1" and "2" for the alternatives in
// the order given, AdjustedOriginalID for the adjusted original.
func normalize(raw []Proposal, currentRole string) ([]Proposal, error) {
	var alts []Proposal
	var adjusted *Proposal
	for i := range raw {
		prop := raw[i]
		if prop.AdjustedOriginal || prop.OptionID == AdjustedOriginalID {
			if adjusted != nil {
				return nil, fmt.Errorf("more than one adjusted original")
			}
			prop.AdjustedOriginal = true
			prop.OptionID = AdjustedOriginalID
			if strings.TrimSpace(prop.TargetRole) == "" {
				prop.TargetRole = currentRole
			}
			adjusted = &prop
			continue
		}
		if strings.TrimSpace(prop.TargetRole) == "" {
			return nil, fmt.Errorf("alternative %d has no target role", len(alts)+1)
		}
		prop.OptionID = fmt.Sprint(len(alts) + 1)
		alts = append(alts, prop)
	}
	if len(alts) != AlternativesPerDetection {
		return nil, fmt.Errorf("got %d alternatives, want %d", len(alts), AlternativesPerDetection)
	}
	if adjusted == nil {
		return nil, fmt.Errorf("missing adjusted original")
	}
	return append(alts, *adjusted), nil
}
