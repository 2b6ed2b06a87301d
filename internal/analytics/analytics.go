// Package analytics answers learning-progress questions from the event log:
// how long steps take, how many tries actions need, and weekly activity.
//
// Every query takes an optional userID ("" for all users) and an optional
// since timestamp prefix (e.g. "2026-03-01") applied to event timestamps.
package analytics

import (
	"database/sql"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"
)

// DB is the interface for database queries used by analytics.
type DB interface {
	Conn() *sql.DB
}

// timestamp formats to try when parsing timestamps from the database
var timestampFormats = []string{
	"2006-01-02T15:04:05Z",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

func parseTimestamp(s string) (time.Time, error) {
	for _, f := range timestampFormats {
		if t, err := time.Parse(f, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp format: %q", s)
}

// filter builds the user/since conditions for a table aliased as alias.
func filter(alias, userID, since string) (string, []any) {
	var conds []string
	var args []any
	if userID != "" {
		conds = append(conds, alias+".user_id = ?")
		args = append(args, userID)
	}
	if since != "" {
		conds = append(conds, alias+".timestamp >= ?")
		args = append(args, since)
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " AND " + strings.Join(conds, " AND "), args
}

// StepDuration holds duration stats for one step number.
type StepDuration struct {
	Step  int     `json:"step"`
	Count int     `json:"count"`
	Avg   float64 `json:"avg_hours"`
	P50   float64 `json:"p50_hours"`
	P95   float64 `json:"p95_hours"`
}

// QueryStepDurations returns average and percentile durations per step
// number. Each step_completed/roadmap_completed event is paired with the most
// recent prior event that started work on the same roadmap (generation,
// reroute selection, redirect back, or the previous step's completion).
func QueryStepDurations(database DB, userID, since string) ([]StepDuration, error) {
	cond, args := filter("e1", userID, since)
	query := `
		SELECT e1.step_number, e1.timestamp AS end_ts,
			(SELECT MAX(e2.timestamp) FROM context_events e2
			 WHERE e2.user_id = e1.user_id
			 AND e2.roadmap_id = e1.roadmap_id
			 AND e2.event IN ('roadmap_generated', 'reroute_selected', 'redirect_accepted', 'step_completed')
			 AND e2.id < e1.id) AS start_ts
		FROM context_events e1
		WHERE e1.event IN ('step_completed', 'roadmap_completed')
		AND e1.step_number IS NOT NULL` + cond

	rows, err := database.Conn().Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query step durations: %w", err)
	}
	defer rows.Close()

	stepDurations := make(map[int][]float64)
	for rows.Next() {
		var step int
		var endTS string
		var startTS sql.NullString
		if err := rows.Scan(&step, &endTS, &startTS); err != nil {
			return nil, fmt.Errorf("scan step duration: %w", err)
		}
		if !startTS.Valid {
			continue
		}
		start, err := parseTimestamp(startTS.String)
		if err != nil {
			continue
		}
		end, err := parseTimestamp(endTS)
		if err != nil {
			continue
		}
		hours := end.Sub(start).Hours()
		if hours > 0 {
			stepDurations[step] = append(stepDurations[step], hours)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var results []StepDuration
	for step, durations := range stepDurations {
		sort.Float64s(durations)
		results = append(results, StepDuration{
			Step:  step,
			Count: len(durations),
			Avg:   avg(durations),
			P50:   percentile(durations, 50),
			P95:   percentile(durations, 95),
		})
	}
	sort.Slice(results, func(i, j int) bool {
		return results[i].Step < results[j].Step
	})
	return results, nil
}

// AttemptDist is the distribution of attempts needed per action on a roadmap.
type AttemptDist struct {
	RoadmapID string  `json:"roadmap_id"`
	Actions   int     `json:"actions"`
	FirstTry  float64 `json:"first_try_pct"`
	SecondTry float64 `json:"second_try_pct"`
	ThreePlus float64 `json:"three_plus_pct"`
	Open      float64 `json:"open_pct"`
}

// QueryAttemptDistribution groups scored actions by the attempt on which they
// first passed. Actions with no passing attempt yet count as open.
func QueryAttemptDistribution(database DB, userID, since string) ([]AttemptDist, error) {
	cond, args := filter("a", userID, since)
	query := `
		SELECT a.roadmap_id, a.action_id,
			MIN(CASE WHEN a.satisfied THEN a.attempt END) AS passed_on
		FROM action_attempts a
		WHERE 1 = 1` + cond + `
		GROUP BY a.user_id, a.roadmap_id, a.action_id`

	rows, err := database.Conn().Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query attempt distribution: %w", err)
	}
	defer rows.Close()

	type counts struct {
		one, two, threePlus, open, total int
	}
	byRoadmap := make(map[string]*counts)
	for rows.Next() {
		var roadmapID, actionID string
		var passedOn sql.NullInt64
		if err := rows.Scan(&roadmapID, &actionID, &passedOn); err != nil {
			return nil, fmt.Errorf("scan attempt distribution: %w", err)
		}
		c, ok := byRoadmap[roadmapID]
		if !ok {
			c = &counts{}
			byRoadmap[roadmapID] = c
		}
		c.total++
		switch {
		case !passedOn.Valid:
			c.open++
		case passedOn.Int64 <= 1:
			c.one++
		case passedOn.Int64 == 2:
			c.two++
		default:
			c.threePlus++
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var results []AttemptDist
	for id, c := range byRoadmap {
		results = append(results, AttemptDist{
			RoadmapID: id,
			Actions:   c.total,
			FirstTry:  pct(c.one, c.total),
			SecondTry: pct(c.two, c.total),
			ThreePlus: pct(c.threePlus, c.total),
			Open:      pct(c.open, c.total),
		})
	}
	sort.Slice(results, func(i, j int) bool {
		return results[i].RoadmapID < results[j].RoadmapID
	})
	return results, nil
}

// WeeklyActivity holds progress counts for one week.
type WeeklyActivity struct {
	Period           string  `json:"period"`
	ActionsCompleted int     `json:"actions_completed"`
	NeedsReview      int     `json:"needs_review"`
	StepsCompleted   int     `json:"steps_completed"`
	Reroutes         int     `json:"reroutes"`
	AvgScore         float64 `json:"avg_score"`
}

// QueryWeeklyActivity returns progress metrics grouped by week, newest first,
// for at most the last ten active weeks.
func QueryWeeklyActivity(database DB, userID, since string) ([]WeeklyActivity, error) {
	cond, args := filter("e", userID, since)
	query := `
		SELECT
			strftime('%Y-W%W', e.timestamp) AS period,
			SUM(CASE WHEN e.event = 'action_completed' THEN 1 ELSE 0 END),
			SUM(CASE WHEN e.event = 'action_needs_review' THEN 1 ELSE 0 END),
			SUM(CASE WHEN e.event IN ('step_completed', 'roadmap_completed') THEN 1 ELSE 0 END),
			SUM(CASE WHEN e.event = 'reroute_selected' THEN 1 ELSE 0 END)
		FROM context_events e
		WHERE e.event IN ('action_completed', 'action_needs_review', 'step_completed', 'roadmap_completed', 'reroute_selected')` +
		cond + `
		GROUP BY period ORDER BY period DESC LIMIT 10`

	rows, err := database.Conn().Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query weekly activity: %w", err)
	}
	defer rows.Close()

	var results []WeeklyActivity
	for rows.Next() {
		var w WeeklyActivity
		if err := rows.Scan(&w.Period, &w.ActionsCompleted, &w.NeedsReview, &w.StepsCompleted, &w.Reroutes); err != nil {
			return nil, fmt.Errorf("scan weekly activity: %w", err)
		}
		results = append(results, w)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	scoreCond, scoreArgs := filter("a", userID, since)
	for i := range results {
		var avgScore sql.NullFloat64
		q := `SELECT AVG(a.score) FROM action_attempts a WHERE strftime('%Y-W%W', a.timestamp) = ?` + scoreCond
		qArgs := append([]any{results[i].Period}, scoreArgs...)
		if err := database.Conn().QueryRow(q, qArgs...).Scan(&avgScore); err == nil && avgScore.Valid {
			results[i].AvgScore = math.Round(avgScore.Float64*100) / 100
		}
	}
	return results, nil
}

// TimelineEntry is one line of a user's merged event and attempt history.
type TimelineEntry struct {
	Timestamp string `json:"timestamp"`
	Type      string `json:"type"` // "event" or "attempt"
	Event     string `json:"event"`
	RoadmapID string `json:"roadmap_id,omitempty"`
	Step      int    `json:"step,omitempty"`
	ActionID  string `json:"action_id,omitempty"`
	Detail    string `json:"detail,omitempty"`
}

// QueryUserTimeline returns every logged event and scored attempt for a user,
// oldest first.
func QueryUserTimeline(database DB, userID string) ([]TimelineEntry, error) {
	var results []TimelineEntry

	evRows, err := database.Conn().Query(
		`SELECT timestamp, event, roadmap_id, step_number, action_id, detail
		 FROM context_events WHERE user_id = ? ORDER BY timestamp, id`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("query context events: %w", err)
	}
	defer evRows.Close()

	for evRows.Next() {
		e := TimelineEntry{Type: "event"}
		var roadmapID, actionID, detail sql.NullString
		var step sql.NullInt64
		if err := evRows.Scan(&e.Timestamp, &e.Event, &roadmapID, &step, &actionID, &detail); err != nil {
			return nil, fmt.Errorf("scan context event: %w", err)
		}
		e.RoadmapID = roadmapID.String
		e.Step = int(step.Int64)
		e.ActionID = actionID.String
		e.Detail = detail.String
		results = append(results, e)
	}
	if err := evRows.Err(); err != nil {
		return nil, err
	}

	atRows, err := database.Conn().Query(
		`SELECT timestamp, roadmap_id, action_id, attempt, score, satisfied
		 FROM action_attempts WHERE user_id = ? ORDER BY timestamp, id`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("query action attempts: %w", err)
	}
	defer atRows.Close()

	for atRows.Next() {
		var ts, roadmapID, actionID string
		var attempt int
		var score float64
		var satisfied bool
		if err := atRows.Scan(&ts, &roadmapID, &actionID, &attempt, &score, &satisfied); err != nil {
			return nil, fmt.Errorf("scan action attempt: %w", err)
		}
		status := "PASS"
		if !satisfied {
			status = "REVIEW"
		}
		results = append(results, TimelineEntry{
			Timestamp: ts,
			Type:      "attempt",
			Event:     "answers_scored",
			RoadmapID: roadmapID,
			ActionID:  actionID,
			Detail:    fmt.Sprintf("attempt %d: %.2f %s", attempt, score, status),
		})
	}
	if err := atRows.Err(); err != nil {
		return nil, err
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Timestamp < results[j].Timestamp
	})
	return results, nil
}

// --- helpers ---

func avg(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return math.Round(sum/float64(len(values))*10) / 10
}

func percentile(sorted []float64, p int) float64 {
	if len(sorted) == 0 {
		return 0
	}
	rank := float64(p) / 100.0 * float64(len(sorted)-1)
	lower := int(math.Floor(rank))
	upper := int(math.Ceil(rank))
	if lower == upper || upper >= len(sorted) {
		return math.Round(sorted[lower]*10) / 10
	}
	weight := rank - float64(lower)
	return math.Round((sorted[lower]*(1-weight)+sorted[upper]*weight)*10) / 10
}

func pct(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(n)/float64(total)*1000) / 10
}
