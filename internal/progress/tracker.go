package progress

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/p-n-ai/pai-path/internal/curriculum"
	"github.com/p-n-ai/pai-path/internal/progression"
)

// Tracker records completions for learners and reports lesson transitions.
// Completions and resets are serialized per learner and language so a lesson
// transition is observed by exactly one call.
type Tracker struct {
	store  Store
	events EventLogger
	locks  keyedMutex
}

// NewTracker creates a tracker. A nil store or logger falls back to the
// in-memory store and a no-op logger.
func NewTracker(store Store, events EventLogger) *Tracker {
	if store == nil {
		store = NewMemoryStore()
	}
	if events == nil {
		events = NopEventLogger{}
	}
	return &Tracker{store: store, events: events}
}

// Result describes the effect of one completion.
type Result struct {
	LessonID        string              `json:"lesson_id"`
	ExerciseID      string              `json:"exercise_id"`
	Recorded        bool                `json:"recorded"`
	LessonCompleted bool                `json:"lesson_completed"`
	XPAwarded       int                 `json:"xp_awarded"`
	Language        curriculum.Language `json:"-"`
}

// Progress returns lang with the learner's completions applied.
func (t *Tracker) Progress(ctx context.Context, userID string, lang curriculum.Language) (curriculum.Language, error) {
	completed, err := t.store.CompletedExercises(ctx, userID, lang.ID)
	if err != nil {
		return curriculum.Language{}, fmt.Errorf("load progress: %w", err)
	}
	return Apply(lang, completed), nil
}

// CompleteExercise records exerciseID as done for userID. The owning lesson
// must be accessible to the learner.
func (t *Tracker) CompleteExercise(ctx context.Context, userID string, lang curriculum.Language, exerciseID string, hasPremium bool) (Result, error) {
	defer t.locks.Lock(lockKey(userID, lang.ID))()

	before, err := t.Progress(ctx, userID, lang)
	if err != nil {
		return Result{}, err
	}

	ref, ok := before.FindExercise(exerciseID)
	if !ok {
		return Result{}, fmt.Errorf("exercise %q: %w", exerciseID, ErrUnknownExercise)
	}
	ch := before.Chapters[ref.Chapter]
	u := ch.Units[ref.Unit]
	lesson := u.Lessons[ref.Lesson]

	access, err := progression.CheckAccess(before.Chapters, ch, u, lesson, hasPremium)
	if err != nil {
		return Result{}, fmt.Errorf("check access: %w", err)
	}
	if !access.Accessible {
		return Result{}, &LockedError{LessonID: lesson.ID, Reason: access.Reason}
	}

	recorded, err := t.store.MarkExerciseCompleted(ctx, userID, lang.ID, exerciseID)
	if err != nil {
		return Result{}, fmt.Errorf("mark completed: %w", err)
	}

	after, err := t.Progress(ctx, userID, lang)
	if err != nil {
		return Result{}, err
	}

	res := Result{
		LessonID:   lesson.ID,
		ExerciseID: exerciseID,
		Recorded:   recorded,
		Language:   after,
	}

	if recorded {
		t.logEvent(ctx, Event{
			UserID:     userID,
			LanguageID: lang.ID,
			EventType:  EventExerciseCompleted,
			Data:       map[string]any{"exercise_id": exerciseID, "lesson_id": lesson.ID},
		})
	}

	afterRef, _ := after.FindLesson(lesson.ID)
	afterLesson := after.Chapters[afterRef.Chapter].Units[afterRef.Unit].Lessons[afterRef.Lesson]
	if lesson.Status != curriculum.StatusCompleted && afterLesson.Status == curriculum.StatusCompleted {
		res.LessonCompleted = true
		res.XPAwarded = afterLesson.XPReward
		t.logEvent(ctx, Event{
			UserID:     userID,
			LanguageID: lang.ID,
			EventType:  EventLessonCompleted,
			Data:       map[string]any{"lesson_id": lesson.ID, "xp": afterLesson.XPReward},
		})
		slog.Info("lesson completed", "user_id", userID, "language_id", lang.ID, "lesson_id", lesson.ID)
	}

	return res, nil
}

// ResetLesson clears the learner's completions for every exercise of a lesson.
func (t *Tracker) ResetLesson(ctx context.Context, userID string, lang curriculum.Language, lessonID string) error {
	defer t.locks.Lock(lockKey(userID, lang.ID))()

	ref, ok := lang.FindLesson(lessonID)
	if !ok {
		return fmt.Errorf("lesson %q: %w", lessonID, curriculum.ErrNotFound)
	}
	lesson := lang.Chapters[ref.Chapter].Units[ref.Unit].Lessons[ref.Lesson]

	if err := t.store.ResetExercises(ctx, userID, lang.ID, lesson.ExerciseIDs()); err != nil {
		return fmt.Errorf("reset lesson: %w", err)
	}
	t.logEvent(ctx, Event{
		UserID:     userID,
		LanguageID: lang.ID,
		EventType:  EventLessonReset,
		Data:       map[string]any{"lesson_id": lessonID},
	})
	return nil
}

func (t *Tracker) logEvent(ctx context.Context, e Event) {
	if err := t.events.LogEvent(ctx, e); err != nil {
		slog.Warn("failed to log progress event", "type", e.EventType, "user_id", e.UserID, "error", err)
	}
}

func lockKey(userID, languageID string) string {
	return userID + "\x00" + languageID
}
