package usercontext

import (
	"time"

	"github.com/lucasnoah/careerpath/internal/reroute"
)

// UserContext is the persisted aggregate for a single learner.
type UserContext struct {
	UserID      string         `json:"user_id"`
	CreatedAt   time.Time      `json:"created_at"`
	LastUpdated time.Time      `json:"last_updated"`
	Profile     Profile        `json:"student_profile"`
	Goals       Goals          `json:"career_goals"`
	Readiness   Readiness      `json:"readiness"`
	Market      MarketContext  `json:"market_context"`
	ActivePath  reroute.Path   `json:"active_path"`
	History     []HistoryEntry `json:"history"`
}

// Profile describes the learner's background.
type Profile struct {
	Name             string   `json:"name,omitempty"`
	Education        string   `json:"education,omitempty"`
	Institution      string   `json:"institution,omitempty"`
	CurrentYear      int      `json:"current_year,omitempty"`
	ExperienceLevel  string   `json:"experience_level,omitempty"` // "beginner", "intermediate", "advanced"
	TechnicalSkills  []string `json:"technical_skills"`
	SoftSkills       []string `json:"soft_skills"`
	StrengthAreas    []string `json:"strength_areas"`
	WeaknessAreas    []string `json:"weakness_areas"`
	Projects         []string `json:"projects"`
	LearningCapacity string   `json:"learning_capacity,omitempty"`
	HoursPerWeek     int      `json:"hours_per_week,omitempty"`
}

// Goals records what the learner is working toward.
type Goals struct {
	StatedGoal       string   `json:"stated_goal,omitempty"`
	InterpretedGoal  string   `json:"interpreted_goal,omitempty"`
	GoalClarityScore float64  `json:"goal_clarity_score,omitempty"`
	CommitmentLevel  string   `json:"commitment_level,omitempty"`
	TimelineMonths   int      `json:"timeline_months,omitempty"`
	PreviousGoals    []string `json:"previous_goals"`
}

// Readiness is the learner's assessed readiness for the target role.
type Readiness struct {
	ConfidenceScore float64    `json:"confidence_score,omitempty"`
	DeviationRisk   string     `json:"deviation_risk,omitempty"` // "low", "medium", "high"
	Verdict         string     `json:"verdict,omitempty"`
	WeakAreas       []string   `json:"weak_areas"`
	LastAssessedAt  *time.Time `json:"last_assessed_at,omitempty"`
}

// MarketContext is a snapshot of demand for the target role.
type MarketContext struct {
	DemandLevel   string     `json:"demand_level,omitempty"`
	Trends        []string   `json:"trends"`
	SalaryRange   string     `json:"salary_range,omitempty"`
	LastCheckedAt *time.Time `json:"last_checked_at,omitempty"`
}

// HistoryEntry is one line of the context's audit trail.
type HistoryEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Event     string    `json:"event"`
	Detail    string    `json:"detail,omitempty"`
}

// New creates an empty context for a user.
func New(userID string, now time.Time) *UserContext {
	ts := now.UTC()
	return &UserContext{
		UserID:      userID,
		CreatedAt:   ts,
		LastUpdated: ts,
		Profile: Profile{
			TechnicalSkills: []string{},
			SoftSkills:      []string{},
			StrengthAreas:   []string{},
			WeaknessAreas:   []string{},
			Projects:        []string{},
		},
		Goals:     Goals{PreviousGoals: []string{}},
		Readiness: Readiness{WeakAreas: []string{}},
		Market:    MarketContext{Trends: []string{}},
		ActivePath: reroute.Path{
			CurrentPathType: reroute.PathOriginal,
			Reroute: reroute.State{
				Phase:               reroute.PhaseNormal,
				AlternativeRoadmaps: []reroute.Proposal{},
			},
			PathChangeHistory: []reroute.PathChange{},
		},
		History: []HistoryEntry{},
	}
}

// Touch advances LastUpdated to now, or by one nanosecond when the clock has
// not moved past the previous value.
func (c *UserContext) Touch(now time.Time) {
	ts := now.UTC()
	if !ts.After(c.LastUpdated) {
		ts = c.LastUpdated.Add(time.Nanosecond)
	}
	c.LastUpdated = ts
}

// Record appends a history entry.
func (c *UserContext) Record(now time.Time, event, detail string) {
	c.History = append(c.History, HistoryEntry{Timestamp: now.UTC(), Event: event, Detail: detail})
}
