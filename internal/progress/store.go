// Package progress records learner exercise completions and derives lesson,
// unit and chapter completion from them.
package progress

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/p-n-ai/pai-path/internal/progression"
)

var (
	// ErrUnknownExercise is returned for an exercise ID absent from the language.
	ErrUnknownExercise = errors.New("unknown exercise")
	// ErrLessonLocked is returned when completing an exercise of a locked lesson.
	ErrLessonLocked = errors.New("lesson locked")
)

const dbTimeout = 5 * time.Second

// LockedError reports which gate refused a completion. It matches
// ErrLessonLocked with errors.Is.
type LockedError struct {
	LessonID string
	Reason   progression.LockReason
}

func (e *LockedError) Error() string {
	return fmt.Sprintf("lesson %q (%s): %s", e.LessonID, e.Reason, ErrLessonLocked)
}

func (e *LockedError) Unwrap() error { return ErrLessonLocked }

// Store persists which exercises each learner has completed.
// Exercise IDs are scoped by language.
type Store interface {
	// MarkExerciseCompleted records a completion and reports whether it is new.
	MarkExerciseCompleted(ctx context.Context, userID, languageID, exerciseID string) (bool, error)
	CompletedExercises(ctx context.Context, userID, languageID string) (map[string]bool, error)
	ResetExercises(ctx context.Context, userID, languageID string, exerciseIDs []string) error
}

// MemoryStore is an in-memory implementation of Store.
type MemoryStore struct {
	completed map[string]map[string]time.Time
	mu        sync.RWMutex
}

// NewMemoryStore creates a new in-memory progress store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		completed: make(map[string]map[string]time.Time),
	}
}

func (s *MemoryStore) MarkExerciseCompleted(_ context.Context, userID, languageID, exerciseID string) (bool, error) {
	if userID == "" || exerciseID == "" {
		return false, fmt.Errorf("user_id and exercise_id are required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := storeKey(userID, languageID)
	set, ok := s.completed[key]
	if !ok {
		set = make(map[string]time.Time)
		s.completed[key] = set
	}
	if _, done := set[exerciseID]; done {
		return false, nil
	}
	set[exerciseID] = time.Now()
	return true, nil
}

func (s *MemoryStore) CompletedExercises(_ context.Context, userID, languageID string) (map[string]bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	set := s.completed[storeKey(userID, languageID)]
	out := make(map[string]bool, len(set))
	for id := range set {
		out[id] = true
	}
	return out, nil
}

func (s *MemoryStore) ResetExercises(_ context.Context, userID, languageID string, exerciseIDs []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	set := s.completed[storeKey(userID, languageID)]
	for _, id := range exerciseIDs {
		delete(set, id)
	}
	return nil
}

func storeKey(userID, languageID string) string {
	return userID + ":" + languageID
}
