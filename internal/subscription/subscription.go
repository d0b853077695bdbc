// Package subscription answers whether a learner holds a premium plan.
package subscription

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const dbTimeout = 5 * time.Second

// Checker reports a learner's premium status.
type Checker interface {
	HasPremium(ctx context.Context, userID string) (bool, error)
}

// MemoryStore is an in-memory Checker for development and tests.
type MemoryStore struct {
	premium map[string]time.Time // zero time means no expiry
	mu      sync.RWMutex
	now     func() time.Time
}

// NewMemoryStore creates an empty in-memory subscription store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		premium: make(map[string]time.Time),
		now:     time.Now,
	}
}

// SetPremium grants premium until expiresAt (zero for no expiry).
func (s *MemoryStore) SetPremium(userID string, expiresAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.premium[userID] = expiresAt
}

// Revoke removes a learner's premium plan.
func (s *MemoryStore) Revoke(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.premium, userID)
}

func (s *MemoryStore) HasPremium(_ context.Context, userID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	expiresAt, ok := s.premium[userID]
	if !ok {
		return false, nil
	}
	return expiresAt.IsZero() || expiresAt.After(s.now()), nil
}

// PostgresStore reads plans from the subscriptions table.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a PostgreSQL-backed subscription store.
func NewPostgresStore(pool *pgxpool.Pool) (*PostgresStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is nil")
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) HasPremium(ctx context.Context, userID string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	var active bool
	err := s.pool.QueryRow(ctx,
		`SELECT expires_at IS NULL OR expires_at > NOW()
		 FROM subscriptions
		 WHERE user_id = $1`,
		userID,
	).Scan(&active)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("query subscription: %w", err)
	}
	return active, nil
}

// SetPremium upserts a plan; a nil expiresAt means no expiry.
func (s *PostgresStore) SetPremium(ctx context.Context, userID string, expiresAt *time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	_, err := s.pool.Exec(ctx,
		`INSERT INTO subscriptions (user_id, expires_at)
		 VALUES ($1, $2)
		 ON CONFLICT (user_id)
		 DO UPDATE SET expires_at = EXCLUDED.expires_at, updated_at = NOW()`,
		userID,
		expiresAt,
	)
	if err != nil {
		return fmt.Errorf("upsert subscription: %w", err)
	}
	return nil
}

// Revoke deletes a learner's plan.
func (s *PostgresStore) Revoke(ctx context.Context, userID string) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	if _, err := s.pool.Exec(ctx, `DELETE FROM subscriptions WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("delete subscription: %w", err)
	}
	return nil
}
