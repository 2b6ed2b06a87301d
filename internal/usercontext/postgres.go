package usercontext

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lucasnoah/careerpath/internal/apperr"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS user_contexts (
    user_id    TEXT PRIMARY KEY,
    document   JSONB NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL
);
`

// PostgresStore keeps each context as a jsonb document in user_contexts.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// OpenPostgres connects to dsn and ensures the table exists.
func OpenPostgres(ctx context.Context, dsn string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	s := &PostgresStore{pool: pool}
	if err := s.Migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// Migrate creates the user_contexts table if needed.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, postgresSchema); err != nil {
		return fmt.Errorf("migrate user_contexts: %w", err)
	}
	return nil
}

// Close releases the connection pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}

// Load reads the context for userID.
func (s *PostgresStore) Load(ctx context.Context, userID string) (*UserContext, error) {
	if err := ValidateUserID(userID); err != nil {
		return nil, err
	}
	var doc []byte
	err := s.pool.QueryRow(ctx, `SELECT document FROM user_contexts WHERE user_id = $1`, userID).Scan(&doc)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("user %s not found", userID)
		}
		return nil, apperr.IO(err, "query context %s", userID)
	}
	c, err := unmarshalDocument(doc)
	if err != nil {
		return nil, apperr.IO(err, "decode context %s", userID)
	}
	return c, nil
}

// Save upserts the context document.
func (s *PostgresStore) Save(ctx context.Context, c *UserContext) error {
	if err := ValidateUserID(c.UserID); err != nil {
		return err
	}
	doc, err := marshalDocument(c)
	if err != nil {
		return apperr.IO(err, "encode context %s", c.UserID)
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO user_contexts (user_id, document, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO UPDATE
		SET document = EXCLUDED.document, updated_at = EXCLUDED.updated_at`,
		c.UserID, doc, c.LastUpdated)
	if err != nil {
		return apperr.IO(err, "save context %s", c.UserID)
	}
	return nil
}

// List returns all stored user ids, sorted.
func (s *PostgresStore) List(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT user_id FROM user_contexts ORDER BY user_id`)
	if err != nil {
		return nil, apperr.IO(err, "list contexts")
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, apperr.IO(err, "scan context ids")
	}
	if ids == nil {
		ids = []string{}
	}
	return ids, nil
}
