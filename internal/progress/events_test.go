package progress_test

import (
	"testing"

	"github.com/p-n-ai/pai-path/internal/platform/database/databasetest"
	"github.com/p-n-ai/pai-path/internal/progress"
)

func TestMemoryEventLogger_LogEvent(t *testing.T) {
	logger := progress.NewMemoryEventLogger()

	err := logger.LogEvent(t.Context(), progress.Event{
		UserID:     "user-1",
		LanguageID: "es",
		EventType:  progress.EventExerciseCompleted,
		Data: map[string]any{
			"exercise_id": "e1",
		},
	})
	if err != nil {
		t.Fatalf("LogEvent() error = %v", err)
	}

	events := logger.Events()
	if len(events) != 1 {
		t.Fatalf("len(events) = %d, want 1", len(events))
	}
	if events[0].EventType != progress.EventExerciseCompleted {
		t.Errorf("EventType = %q, want exercise_completed", events[0].EventType)
	}
	if events[0].CreatedAt.IsZero() {
		t.Error("CreatedAt should be set")
	}
	if events[0].ID == "" {
		t.Error("ID should be set")
	}
}

func TestMemoryEventLogger_RequiresType(t *testing.T) {
	logger := progress.NewMemoryEventLogger()
	if err := logger.LogEvent(t.Context(), progress.Event{UserID: "u"}); err == nil {
		t.Fatal("expected error for empty event type")
	}
}

func TestPostgresEventLogger_LogEvent_NilPool(t *testing.T) {
	logger := progress.NewPostgresEventLogger(nil)

	err := logger.LogEvent(t.Context(), progress.Event{
		UserID:    "user-1",
		EventType: progress.EventLessonCompleted,
	})
	if err == nil {
		t.Fatal("expected error for nil pool")
	}
}

func TestPostgresEventLogger_LogEvent(t *testing.T) {
	db := databasetest.Start(t)
	logger := progress.NewPostgresEventLogger(db.Pool)
	ctx := t.Context()

	err := logger.LogEvent(ctx, progress.Event{
		UserID:     "user-1",
		LanguageID: "es",
		EventType:  progress.EventLessonCompleted,
		Data:       map[string]any{"lesson_id": "l1", "xp": 10},
	})
	if err != nil {
		t.Fatalf("LogEvent() error = %v", err)
	}

	var lessonID string
	if err := db.Pool.QueryRow(ctx,
		`SELECT data->>'lesson_id' FROM progress_events WHERE user_id = $1`, "user-1",
	).Scan(&lessonID); err != nil {
		t.Fatalf("query event: %v", err)
	}
	if lessonID != "l1" {
		t.Errorf("lesson_id = %q, want l1", lessonID)
	}
}
