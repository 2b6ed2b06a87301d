package orchestrator

import (
	"context"

	"go.uber.org/zap"

	"github.com/lucasnoah/careerpath/internal/agent"
	"github.com/lucasnoah/careerpath/internal/apperr"
	"github.com/lucasnoah/careerpath/internal/db"
	"github.com/lucasnoah/careerpath/internal/usercontext"
)

// AnalyzeProgress asks the feedback analyzer to review the active roadmap.
// The stored context is not modified.
func (o *Orchestrator) AnalyzeProgress(ctx context.Context, userID string) (*FeedbackResult, error) {
	const op = "analyze progress"
	c, err := o.load(ctx, userID)
	if err != nil {
		return nil, withOp(op, err)
	}
	if _, err := requireRoadmap(c); err != nil {
		return nil, withOp(op, err)
	}
	fb, err := o.feedback.AnalyzeProgress(ctx, agent.FeedbackRequest{Profile: c.Profile, Path: c.ActivePath})
	if err != nil {
		return nil, withOp(op, apperr.External(err, "progress analysis failed"))
	}
	return &FeedbackResult{Status: StatusSuccess, UserID: userID, Feedback: fb}, nil
}

// Export returns the user's context in the stored document format.
func (o *Orchestrator) Export(ctx context.Context, userID string) ([]byte, error) {
	const op = "export"
	c, err := o.load(ctx, userID)
	if err != nil {
		return nil, withOp(op, err)
	}
	data, err := usercontext.Export(c)
	if err != nil {
		return nil, withOp(op, err)
	}
	return data, nil
}

// Import validates an exported document and stores it as is, replacing any
// existing context for the same user.
func (o *Orchestrator) Import(ctx context.Context, data []byte) (*ImportResult, error) {
	const op = "import"
	c, err := usercontext.Import(data)
	if err != nil {
		return nil, withOp(op, err)
	}
	_, err = o.store.Load(ctx, c.UserID)
	if err != nil && !apperr.IsNotFound(err) {
		return nil, withOp(op, err)
	}
	replaced := err == nil

	if err := o.store.Save(ctx, c); err != nil {
		return nil, withOp(op, err)
	}
	o.log.Info("context imported", zap.String("user_id", c.UserID), zap.Bool("replaced", replaced))
	o.logEvent(c.UserID, change{event: "context_imported"})
	return &ImportResult{Status: StatusSuccess, UserID: c.UserID, Replaced: replaced}, nil
}

// ListUsers returns every stored user id.
func (o *Orchestrator) ListUsers(ctx context.Context) ([]string, error) {
	ids, err := o.store.List(ctx)
	if err != nil {
		return nil, withOp("list users", err)
	}
	return ids, nil
}

// Events returns the user's logged events, newest first.
func (o *Orchestrator) Events(userID string, limit int) ([]db.ContextEvent, error) {
	if o.db == nil {
		return nil, withOp("list events", apperr.InvalidState("event log is not configured"))
	}
	evs, err := o.db.ListEvents(userID, limit)
	if err != nil {
		return nil, withOp("list events", apperr.IO(err, "read event log"))
	}
	return evs, nil
}

// Stats aggregates the user's logged answer attempts per action.
func (o *Orchestrator) Stats(userID string) ([]db.ActionStats, error) {
	if o.db == nil {
		return nil, withOp("attempt stats", apperr.InvalidState("event log is not configured"))
	}
	stats, err := o.db.AttemptStats(userID)
	if err != nil {
		return nil, withOp("attempt stats", apperr.IO(err, "read event log"))
	}
	return stats, nil
}
