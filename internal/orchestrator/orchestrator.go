// Package orchestrator exposes the public roadmap and rerouting operations.
// Every mutating operation loads the user's context, applies the transition
// to that copy, and saves it only when the whole transition succeeded.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lucasnoah/careerpath/internal/agent"
	"github.com/lucasnoah/careerpath/internal/apperr"
	"github.com/lucasnoah/careerpath/internal/db"
	"github.com/lucasnoah/careerpath/internal/evaluation"
	"github.com/lucasnoah/careerpath/internal/reroute"
	"github.com/lucasnoah/careerpath/internal/roadmap"
	"github.com/lucasnoah/careerpath/internal/usercontext"
)

// Planner designs roadmaps and reroute proposals.
type Planner interface {
	PlanRoadmap(ctx context.Context, req agent.RoadmapRequest) ([]roadmap.Step, error)
	PlanAlternatives(ctx context.Context, req agent.AlternativesRequest) ([]reroute.Proposal, error)
}

// FeedbackAnalyzer reviews a learner's progress.
type FeedbackAnalyzer interface {
	AnalyzeProgress(ctx context.Context, req agent.FeedbackRequest) (agent.Feedback, error)
}

// Options tunes an Orchestrator. Zero values select the defaults.
type Options struct {
	MinSteps int
	MaxSteps int
	Now      func() time.Time
	NewID    func() string
	Logger   *zap.Logger
}

// Orchestrator composes the roadmap, evaluation, and reroute packages over a
// context store.
type Orchestrator struct {
	store    usercontext.Store
	db       *db.DB
	planner  Planner
	engine   *evaluation.Engine
	feedback FeedbackAnalyzer
	log      *zap.Logger
	opts     Options
}

// New creates an Orchestrator. database may be nil, in which case no event
// log is written.
func New(
	store usercontext.Store,
	database *db.DB,
	planner Planner,
	engine *evaluation.Engine,
	feedback FeedbackAnalyzer,
	opts Options,
) *Orchestrator {
	if opts.MinSteps <= 0 {
		opts.MinSteps = 4
	}
	if opts.MaxSteps < opts.MinSteps {
		opts.MaxSteps = opts.MinSteps + 2
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewID == nil {
		opts.NewID = func() string { return uuid.NewString()[:8] }
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Orchestrator{
		store:    store,
		db:       database,
		planner:  planner,
		engine:   engine,
		feedback: feedback,
		log:      log.Named("orchestrator"),
		opts:     opts,
	}
}

// change describes a committed mutation for the history and event log.
// A zero change means the operation left the context untouched.
type change struct {
	event      string
	detail     string
	roadmapID  string
	stepNumber int
	actionID   string
}

// mutate loads the user's context, applies fn, and persists the result.
// Nothing is saved when fn fails or reports no change.
func (o *Orchestrator) mutate(ctx context.Context, op, userID string, fn func(c *usercontext.UserContext) (change, error)) (*usercontext.UserContext, error) {
	c, err := o.load(ctx, userID)
	if err != nil {
		return nil, withOp(op, err)
	}
	ch, err := fn(c)
	if err != nil {
		return nil, withOp(op, err)
	}
	if ch.event == "" {
		return c, nil
	}

	now := o.opts.Now()
	c.Record(now, ch.event, ch.detail)
	c.Touch(now)
	if err := o.store.Save(ctx, c); err != nil {
		return nil, withOp(op, err)
	}
	o.log.Info(ch.event,
		zap.String("user_id", userID),
		zap.String("roadmap_id", ch.roadmapID),
		zap.String("action_id", ch.actionID),
		zap.String("phase", string(c.ActivePath.CurrentPhase())))
	o.logEvent(userID, ch)
	return c, nil
}

func (o *Orchestrator) load(ctx context.Context, userID string) (*usercontext.UserContext, error) {
	if err := usercontext.ValidateUserID(userID); err != nil {
		return nil, err
	}
	return o.store.Load(ctx, userID)
}

// logEvent writes to the event log. Failures are logged and otherwise ignored.
func (o *Orchestrator) logEvent(userID string, ch change) {
	if o.db == nil {
		return
	}
	if err := o.db.LogEvent(userID, ch.event, ch.roadmapID, ch.stepNumber, ch.actionID, ch.detail); err != nil {
		o.log.Warn("event log write failed", zap.String("user_id", userID), zap.String("event", ch.event), zap.Error(err))
	}
}

func withOp(op string, err error) error {
	var e *apperr.Error
	if errors.As(err, &e) {
		return e.WithOp(op)
	}
	return &apperr.Error{Kind: apperr.KindInternal, Op: op, Message: "unexpected failure", Err: err}
}

func (o *Orchestrator) roadmapID(userID string) string {
	return fmt.Sprintf("%s_roadmap_%s", userID, o.opts.NewID())
}

// planRoadmap asks the planner for a roadmap toward role and validates it.
// Planner output that does not form a valid roadmap is an external failure.
func (o *Orchestrator) planRoadmap(ctx context.Context, c *usercontext.UserContext, role, adjustment string) (*roadmap.Roadmap, error) {
	steps, err := o.planner.PlanRoadmap(ctx, agent.RoadmapRequest{
		TargetRole: role,
		Profile:    c.Profile,
		Goals:      c.Goals,
		Readiness:  c.Readiness,
		Market:     c.Market,
		Adjustment: adjustment,
		MinSteps:   o.opts.MinSteps,
		MaxSteps:   o.opts.MaxSteps,
	})
	if err != nil {
		return nil, apperr.External(err, "roadmap planning failed")
	}
	if n := len(steps); n < o.opts.MinSteps || n > o.opts.MaxSteps {
		return nil, apperr.External(nil, "planned roadmap has %d steps, want %d-%d", n, o.opts.MinSteps, o.opts.MaxSteps)
	}
	r, err := roadmap.New(o.roadmapID(c.UserID), role, steps, o.opts.Now())
	if err != nil {
		return nil, apperr.External(err, "planned roadmap is malformed")
	}
	return r, nil
}

// proposer binds the planner to a user's profile for reroute.Detect.
type proposer struct {
	planner Planner
	profile usercontext.Profile
}

func (p proposer) Propose(ctx context.Context, path reroute.Path, reason string) ([]reroute.Proposal, error) {
	return p.planner.PlanAlternatives(ctx, agent.AlternativesRequest{Path: path, Profile: p.profile, Reason: reason})
}

// builder plans the roadmap for a selected proposal.
type builder struct {
	o *Orchestrator
	c *usercontext.UserContext
}

func (b builder) Build(ctx context.Context, _ reroute.Path, choice reroute.Proposal) (*roadmap.Roadmap, error) {
	adjustment := ""
	if choice.AdjustedOriginal {
		adjustment = choice.Rationale
	}
	return b.o.planRoadmap(ctx, b.c, choice.TargetRole, adjustment)
}

func requireRoadmap(c *usercontext.UserContext) (*roadmap.Roadmap, error) {
	if c.ActivePath.Roadmap == nil {
		return nil, apperr.NotFound("no roadmap generated for user %q", c.UserID)
	}
	return c.ActivePath.Roadmap, nil
}
