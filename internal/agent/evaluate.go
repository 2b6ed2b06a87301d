package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/lucasnoah/careerpath/internal/evaluation"
	"github.com/lucasnoah/careerpath/internal/prompt"
	"github.com/lucasnoah/careerpath/internal/roadmap"
)

// GenerateQuestions asks for roadmap.QuestionsPerAction verification
// questions. Extra questions are dropped; fewer is an error.
func (a *Agent) GenerateQuestions(ctx context.Context, action roadmap.Action) ([]roadmap.Question, error) {
	raw, err := a.ask(ctx, "questions.md", prompt.Vars{
		"count":            fmt.Sprint(roadmap.QuestionsPerAction),
		"title":            action.Title,
		"description":      action.Description,
		"success_criteria": action.SuccessCriteria,
	})
	if err != nil {
		return nil, err
	}

	qs, err := parseQuestions(raw)
	if err != nil {
		a.log.Warn("unparseable questions", zap.String("action_id", action.ActionID), zap.Error(err))
		return nil, err
	}
	if len(qs) < roadmap.QuestionsPerAction {
		return nil, fmt.Errorf("got %d questions, want %d", len(qs), roadmap.QuestionsPerAction)
	}
	return qs[:roadmap.QuestionsPerAction], nil
}

// parseQuestions accepts an array whose elements are plain strings or
// {"text","type"} objects ("question" is accepted for "text").
func parseQuestions(raw string) ([]roadmap.Question, error) {
	var items []json.RawMessage
	if err := decodeArray(raw, &items); err != nil {
		return nil, err
	}
	qs := make([]roadmap.Question, 0, len(items))
	for i, item := range items {
		var s string
		if json.Unmarshal(item, &s) == nil {
			if s = strings.TrimSpace(s); s != "" {
				qs = append(qs, roadmap.Question{Text: s, Type: "open"})
			}
			continue
		}
		var obj struct {
			Text     string `json:"text"`
			Question string `json:"question"`
			Type     string `json:"type"`
		}
		if err := json.Unmarshal(item, &obj); err != nil {
			return nil, fmt.Errorf("question %d: %w", i+1, err)
		}
		text := strings.TrimSpace(obj.Text)
		if text == "" {
			text = strings.TrimSpace(obj.Question)
		}
		if text == "" {
			continue
		}
		typ := obj.Type
		if typ == "" {
			typ = "open"
		}
		qs = append(qs, roadmap.Question{Text: text, Type: typ})
	}
	return qs, nil
}

// Score rates answers against the action's stored questions. A score below
// the satisfaction threshold may carry a remedial follow-up action.
func (a *Agent) Score(ctx context.Context, action roadmap.Action, answers []string) (evaluation.Score, error) {
	var qa strings.Builder
	for i, q := range action.Questions {
		ans := ""
		if i < len(answers) {
			ans = answers[i]
		}
		fmt.Fprintf(&qa, "Q%d: %s\nA%d: %s\n\n", i+1, q.Text, i+1, ans)
	}
	raw, err := a.ask(ctx, "score.md", prompt.Vars{
		"title":            action.Title,
		"success_criteria": action.SuccessCriteria,
		"qa":               strings.TrimSpace(qa.String()),
	})
	if err != nil {
		return evaluation.Score{}, err
	}

	var resp struct {
		RelevanceScore *float64       `json:"relevance_score"`
		Feedback       string         `json:"feedback"`
		NextSteps      string         `json:"next_steps"`
		RemedialAction *plannedAction `json:"remedial_action"`
	}
	if err := decodeObject(raw, &resp); err != nil {
		a.log.Warn("unparseable score", zap.String("action_id", action.ActionID), zap.Error(err))
		return evaluation.Score{}, err
	}
	if resp.RelevanceScore == nil {
		return evaluation.Score{}, fmt.Errorf("score response has no relevance_score")
	}

	score := evaluation.Score{
		Relevance: *resp.RelevanceScore,
		Feedback:  resp.Feedback,
		NextSteps: resp.NextSteps,
	}
	if ra := resp.RemedialAction; ra != nil && !roadmap.Satisfied(score.Relevance) && strings.TrimSpace(ra.Title) != "" {
		score.Remedial = &roadmap.Action{
			Title:           strings.TrimSpace(ra.Title),
			Description:     strings.TrimSpace(ra.Description),
			SuccessCriteria: strings.TrimSpace(ra.SuccessCriteria),
		}
	}
	return score, nil
}
