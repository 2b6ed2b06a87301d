package db

import (
	"database/sql"
	"fmt"
)

// ContextEvent represents a row in the context_events table.
type ContextEvent struct {
	ID         int    `json:"id"`
	UserID     string `json:"user_id"`
	Event      string `json:"event"`
	RoadmapID  string `json:"roadmap_id,omitempty"`
	StepNumber int    `json:"step_number,omitempty"`
	ActionID   string `json:"action_id,omitempty"`
	Detail     string `json:"detail,omitempty"`
	Timestamp  string `json:"timestamp"`
}

// Attempt represents a row in the action_attempts table.
type Attempt struct {
	ID        int     `json:"id"`
	UserID    string  `json:"user_id"`
	RoadmapID string  `json:"roadmap_id"`
	ActionID  string  `json:"action_id"`
	Attempt   int     `json:"attempt"`
	Score     float64 `json:"score"`
	Satisfied bool    `json:"satisfied"`
	Timestamp string  `json:"timestamp"`
}

// ActionStats aggregates the attempts on one action.
type ActionStats struct {
	RoadmapID string  `json:"roadmap_id"`
	ActionID  string  `json:"action_id"`
	Attempts  int     `json:"attempts"`
	BestScore float64 `json:"best_score"`
	LastScore float64 `json:"last_score"`
	Satisfied bool    `json:"satisfied"`
}

// LogEvent inserts a context event. Empty ids and zero step numbers are stored as NULL.
func (d *DB) LogEvent(userID, event, roadmapID string, stepNumber int, actionID, detail string) error {
	_, err := d.conn.Exec(
		`INSERT INTO context_events (user_id, event, roadmap_id, step_number, action_id, detail) VALUES (?, ?, ?, ?, ?, ?)`,
		userID, event, nullString(roadmapID), nullInt(stepNumber), nullString(actionID), nullString(detail),
	)
	if err != nil {
		return fmt.Errorf("log context event: %w", err)
	}
	return nil
}

// ListEvents returns a user's events, newest first. limit <= 0 means no limit.
func (d *DB) ListEvents(userID string, limit int) ([]ContextEvent, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := d.conn.Query(
		`SELECT id, user_id, event, roadmap_id, step_number, action_id, detail, timestamp
		 FROM context_events WHERE user_id = ? ORDER BY id DESC LIMIT ?`,
		userID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var events []ContextEvent
	for rows.Next() {
		var e ContextEvent
		var roadmapID, actionID, detail sql.NullString
		var step sql.NullInt64
		if err := rows.Scan(&e.ID, &e.UserID, &e.Event, &roadmapID, &step, &actionID, &detail, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		e.RoadmapID = roadmapID.String
		e.StepNumber = int(step.Int64)
		e.ActionID = actionID.String
		e.Detail = detail.String
		events = append(events, e)
	}
	return events, rows.Err()
}

// LogAttempt records one scored submission.
func (d *DB) LogAttempt(userID, roadmapID, actionID string, attempt int, score float64, satisfied bool) error {
	_, err := d.conn.Exec(
		`INSERT INTO action_attempts (user_id, roadmap_id, action_id, attempt, score, satisfied) VALUES (?, ?, ?, ?, ?, ?)`,
		userID, roadmapID, actionID, attempt, score, satisfied,
	)
	if err != nil {
		return fmt.Errorf("log attempt: %w", err)
	}
	return nil
}

// ListAttempts returns the attempts on one action in submission order.
func (d *DB) ListAttempts(userID, roadmapID, actionID string) ([]Attempt, error) {
	rows, err := d.conn.Query(
		`SELECT id, user_id, roadmap_id, action_id, attempt, score, satisfied, timestamp
		 FROM action_attempts WHERE user_id = ? AND roadmap_id = ? AND action_id = ? ORDER BY id`,
		userID, roadmapID, actionID,
	)
	if err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}
	defer rows.Close()

	var out []Attempt
	for rows.Next() {
		var a Attempt
		if err := rows.Scan(&a.ID, &a.UserID, &a.RoadmapID, &a.ActionID, &a.Attempt, &a.Score, &a.Satisfied, &a.Timestamp); err != nil {
			return nil, fmt.Errorf("scan attempt: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// AttemptStats aggregates a user's attempts per action, ordered by roadmap
// then action id.
func (d *DB) AttemptStats(userID string) ([]ActionStats, error) {
	rows, err := d.conn.Query(
		`SELECT a.roadmap_id, a.action_id, COUNT(*), MAX(a.score), MAX(a.satisfied),
		        (SELECT score FROM action_attempts l
		         WHERE l.user_id = a.user_id AND l.roadmap_id = a.roadmap_id AND l.action_id = a.action_id
		         ORDER BY l.id DESC LIMIT 1)
		 FROM action_attempts a WHERE a.user_id = ?
		 GROUP BY a.roadmap_id, a.action_id
		 ORDER BY a.roadmap_id, a.action_id`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("attempt stats: %w", err)
	}
	defer rows.Close()

	var out []ActionStats
	for rows.Next() {
		var s ActionStats
		if err := rows.Scan(&s.RoadmapID, &s.ActionID, &s.Attempts, &s.BestScore, &s.Satisfied, &s.LastScore); err != nil {
			return nil, fmt.Errorf("scan attempt stats: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullInt(n int) sql.NullInt64 {
	return sql.NullInt64{Int64: int64(n), Valid: n != 0}
}
