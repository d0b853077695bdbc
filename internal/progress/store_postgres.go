package progress

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore is a PostgreSQL-backed Store implementation.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a PostgreSQL-backed progress store.
func NewPostgresStore(pool *pgxpool.Pool) (*PostgresStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is nil")
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) MarkExerciseCompleted(ctx context.Context, userID, languageID, exerciseID string) (bool, error) {
	if userID == "" || exerciseID == "" {
		return false, fmt.Errorf("user_id and exercise_id are required")
	}

	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	cmd, err := s.pool.Exec(ctx,
		`INSERT INTO exercise_completions (user_id, language_id, exercise_id)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (user_id, language_id, exercise_id) DO NOTHING`,
		userID,
		languageID,
		exerciseID,
	)
	if err != nil {
		return false, fmt.Errorf("insert completion: %w", err)
	}
	return cmd.RowsAffected() == 1, nil
}

func (s *PostgresStore) CompletedExercises(ctx context.Context, userID, languageID string) (map[string]bool, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	rows, err := s.pool.Query(ctx,
		`SELECT exercise_id
		 FROM exercise_completions
		 WHERE user_id = $1 AND language_id = $2`,
		userID,
		languageID,
	)
	if err != nil {
		return nil, fmt.Errorf("query completions: %w", err)
	}
	defer rows.Close()

	out := make(map[string]bool)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan completion: %w", err)
		}
		out[id] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate completions: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) ResetExercises(ctx context.Context, userID, languageID string, exerciseIDs []string) error {
	if len(exerciseIDs) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	_, err := s.pool.Exec(ctx,
		`DELETE FROM exercise_completions
		 WHERE user_id = $1 AND language_id = $2 AND exercise_id = ANY($3)`,
		userID,
		languageID,
		exerciseIDs,
	)
	if err != nil {
		return fmt.Errorf("reset completions: %w", err)
	}
	return nil
}
