// Package agent turns LLM completions into roadmap plans, reroute proposals,
// verification questions, answer scores, and progress feedback.
package agent

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/lucasnoah/careerpath/internal/prompt"
	"github.com/lucasnoah/careerpath/internal/usercontext"
)

// Completer sends one system and one user message to a chat model.
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// Agent implements every generation collaborator on top of a Completer.
type Agent struct {
	llm     Completer
	prompts *prompt.Library
	log     *zap.Logger
}

// New creates an Agent. A nil library uses the built-in templates only.
func New(llm Completer, prompts *prompt.Library, log *zap.Logger) *Agent {
	if prompts == nil {
		prompts = prompt.NewLibrary("")
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Agent{llm: llm, prompts: prompts, log: log.Named("agent")}
}

// ask renders the named template, sends it with the system prompt, and
// returns the raw reply.
func (a *Agent) ask(ctx context.Context, name string, vars prompt.Vars) (string, error) {
	system, err := a.prompts.RenderNamed("system.md", prompt.Vars{})
	if err != nil {
		return "", err
	}
	user, err := a.prompts.RenderNamed(name, vars)
	if err != nil {
		return "", err
	}
	a.log.Debug("sending prompt", zap.String("template", name), zap.Int("len", len(user)))
	out, err := a.llm.Complete(ctx, system, user)
	if err != nil {
		return "", fmt.Errorf("%s: %w", strings.TrimSuffix(name, ".md"), err)
	}
	return out, nil
}

func profileSummary(p usercontext.Profile) string {
	var b strings.Builder
	line := func(label, value string) {
		if value != "" {
			fmt.Fprintf(&b, "- %s: %s\n", label, value)
		}
	}
	list := func(label string, values []string) {
		if len(values) > 0 {
			line(label, strings.Join(values, ", "))
		}
	}
	line("Name", p.Name)
	line("Education", p.Education)
	line("Institution", p.Institution)
	if p.CurrentYear > 0 {
		line("Current year", fmt.Sprint(p.CurrentYear))
	}
	line("Experience level", p.ExperienceLevel)
	list("Technical skills", p.TechnicalSkills)
	list("Soft skills", p.SoftSkills)
	list("Strengths", p.StrengthAreas)
	list("Weaknesses", p.WeaknessAreas)
	list("Projects", p.Projects)
	line("Learning capacity", p.LearningCapacity)
	if p.HoursPerWeek > 0 {
		line("Hours per week", fmt.Sprint(p.HoursPerWeek))
	}
	if b.Len() == 0 {
		return "- (no profile details provided)"
	}
	return strings.TrimRight(b.String(), "\n")
}

func readinessSummary(r usercontext.Readiness) string {
	var parts []string
	if r.ConfidenceScore > 0 {
		parts = append(parts, fmt.Sprintf("confidence %.2f", r.ConfidenceScore))
	}
	if r.DeviationRisk != "" {
		parts = append(parts, "deviation risk "+r.DeviationRisk)
	}
	if r.Verdict != "" {
		parts = append(parts, "verdict "+r.Verdict)
	}
	if len(r.WeakAreas) > 0 {
		parts = append(parts, "weak areas: "+strings.Join(r.WeakAreas, ", "))
	}
	return strings.Join(parts, "; ")
}

func marketSummary(m usercontext.MarketContext) string {
	var parts []string
	if m.DemandLevel != "" {
		parts = append(parts, "demand "+m.DemandLevel)
	}
	if m.SalaryRange != "" {
		parts = append(parts, "salary "+m.SalaryRange)
	}
	if len(m.Trends) > 0 {
		parts = append(parts, "trends: "+strings.Join(m.Trends, ", "))
	}
	return strings.Join(parts, "; ")
}
