package progress_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/p-n-ai/pai-path/internal/curriculum"
	"github.com/p-n-ai/pai-path/internal/progress"
	"github.com/p-n-ai/pai-path/internal/progression"
)

func course() curriculum.Language {
	return curriculum.Language{
		ID:   "es",
		Name: "Spanish",
		Chapters: []curriculum.Chapter{
			{
				ID: "c1", Order: 1,
				Units: []curriculum.Unit{{
					ID: "u1", Order: 1,
					Lessons: []curriculum.Lesson{
						{ID: "l1", Order: 1, XPReward: 10, Exercises: []curriculum.Exercise{{ID: "e1"}, {ID: "e2"}}},
						{ID: "l2", Order: 2, XPReward: 15, Exercises: []curriculum.Exercise{{ID: "e3"}}},
						{ID: "l3", Order: 3, XPReward: 20},
					},
				}},
			},
			{
				ID: "c2", Order: 2, IsPremium: true,
				Units: []curriculum.Unit{{
					ID: "u2", Order: 1,
					Lessons: []curriculum.Lesson{{ID: "l4", Order: 1, Exercises: []curriculum.Exercise{{ID: "e4"}}}},
				}},
			},
		},
	}
}

func lessonStatus(t *testing.T, lang curriculum.Language, id string) curriculum.LessonStatus {
	t.Helper()
	ref, ok := lang.FindLesson(id)
	if !ok {
		t.Fatalf("lesson %s not found", id)
	}
	return lang.Chapters[ref.Chapter].Units[ref.Unit].Lessons[ref.Lesson].Status
}

func TestApply(t *testing.T) {
	tests := []struct {
		name      string
		completed map[string]bool
		want      map[string]curriculum.LessonStatus
	}{
		{
			name:      "fresh learner",
			completed: nil,
			want:      map[string]curriculum.LessonStatus{"l1": "available", "l2": "locked", "l3": "locked", "l4": "locked"},
		},
		{
			name:      "partial lesson",
			completed: map[string]bool{"e1": true},
			want:      map[string]curriculum.LessonStatus{"l1": "available", "l2": "locked"},
		},
		{
			name:      "first lesson done",
			completed: map[string]bool{"e1": true, "e2": true},
			want:      map[string]curriculum.LessonStatus{"l1": "completed", "l2": "available", "l3": "locked"},
		},
		{
			name:      "empty lesson never completes",
			completed: map[string]bool{"e1": true, "e2": true, "e3": true},
			want:      map[string]curriculum.LessonStatus{"l2": "completed", "l3": "available", "l4": "locked"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := progress.Apply(course(), tt.completed)
			for id, want := range tt.want {
				if s := lessonStatus(t, got, id); s != want {
					t.Errorf("status(%s) = %q, want %q", id, s, want)
				}
			}
		})
	}
}

func TestApply_DerivesContainerCompletion(t *testing.T) {
	lang := course()
	lang.Chapters[0].Units[0].Lessons = lang.Chapters[0].Units[0].Lessons[:2]

	got := progress.Apply(lang, map[string]bool{"e1": true, "e2": true, "e3": true})
	if !got.Chapters[0].Units[0].IsCompleted {
		t.Error("unit with all lessons completed should be completed")
	}
	if !got.Chapters[0].IsCompleted {
		t.Error("chapter with all units completed should be completed")
	}
	if got.Chapters[1].IsCompleted {
		t.Error("untouched chapter should not be completed")
	}
	if s := lessonStatus(t, got, "l4"); s != curriculum.StatusAvailable {
		t.Errorf("status(l4) = %q, want available once chapter 1 is done", s)
	}
	if !got.Chapters[0].Units[0].Lessons[0].Exercises[0].Completed {
		t.Error("exercise completion flag should be set")
	}
	if lang.Chapters[0].IsCompleted {
		t.Error("Apply() mutated its input")
	}
}

func TestTracker_CompleteExercise(t *testing.T) {
	events := progress.NewMemoryEventLogger()
	tracker := progress.NewTracker(progress.NewMemoryStore(), events)
	ctx := t.Context()

	res, err := tracker.CompleteExercise(ctx, "u1", course(), "e1", false)
	if err != nil {
		t.Fatalf("CompleteExercise(e1) error = %v", err)
	}
	if !res.Recorded || res.LessonCompleted {
		t.Errorf("after e1 = %+v, want recorded without lesson completion", res)
	}

	res, err = tracker.CompleteExercise(ctx, "u1", course(), "e2", false)
	if err != nil {
		t.Fatalf("CompleteExercise(e2) error = %v", err)
	}
	if !res.LessonCompleted || res.XPAwarded != 10 || res.LessonID != "l1" {
		t.Errorf("after e2 = %+v, want l1 completed with 10 XP", res)
	}
	if s := lessonStatus(t, res.Language, "l2"); s != curriculum.StatusAvailable {
		t.Errorf("status(l2) = %q, want available", s)
	}

	// Repeating a completion is idempotent.
	res, err = tracker.CompleteExercise(ctx, "u1", course(), "e2", false)
	if err != nil {
		t.Fatalf("repeat CompleteExercise(e2) error = %v", err)
	}
	if res.Recorded || res.LessonCompleted {
		t.Errorf("repeat = %+v, want no new record", res)
	}

	var lessonEvents int
	for _, e := range events.Events() {
		if e.EventType == progress.EventLessonCompleted {
			lessonEvents++
		}
	}
	if lessonEvents != 1 {
		t.Errorf("lesson_completed events = %d, want 1", lessonEvents)
	}
	if n := len(events.Events()); n != 3 {
		t.Errorf("events = %d, want 3", n)
	}
}

func TestTracker_CompleteExercise_Locked(t *testing.T) {
	tracker := progress.NewTracker(nil, nil)

	tests := []struct {
		exercise string
		lesson   string
		reason   progression.LockReason
	}{
		{"e3", "l2", progression.LockProgression},
		{"e4", "l4", progression.LockPremium},
	}

	for _, tt := range tests {
		t.Run(tt.exercise, func(t *testing.T) {
			_, err := tracker.CompleteExercise(t.Context(), "u1", course(), tt.exercise, false)
			if !errors.Is(err, progress.ErrLessonLocked) {
				t.Fatalf("error = %v, want ErrLessonLocked", err)
			}
			var locked *progress.LockedError
			if !errors.As(err, &locked) {
				t.Fatalf("error = %T, want *LockedError", err)
			}
			if locked.LessonID != tt.lesson || locked.Reason != tt.reason {
				t.Errorf("LockedError = %+v, want lesson %s reason %s", locked, tt.lesson, tt.reason)
			}
		})
	}
}

// meetingStore holds each completion until a second one arrives or a short
// wait elapses, so unserialized callers overlap deterministically.
type meetingStore struct {
	progress.Store
	wg   sync.WaitGroup
	once sync.Once
	met  chan struct{}
}

func newMeetingStore(n int) *meetingStore {
	s := &meetingStore{Store: progress.NewMemoryStore(), met: make(chan struct{})}
	s.wg.Add(n)
	go func() {
		s.wg.Wait()
		s.once.Do(func() { close(s.met) })
	}()
	return s
}

func (s *meetingStore) MarkExerciseCompleted(ctx context.Context, userID, languageID, exerciseID string) (bool, error) {
	ok, err := s.Store.MarkExerciseCompleted(ctx, userID, languageID, exerciseID)
	s.wg.Done()
	select {
	case <-s.met:
	case <-time.After(50 * time.Millisecond):
	}
	return ok, err
}

func TestTracker_CompleteExercise_ConcurrentAwardsOnce(t *testing.T) {
	events := progress.NewMemoryEventLogger()
	tracker := progress.NewTracker(newMeetingStore(2), events)

	var wg sync.WaitGroup
	results := make([]progress.Result, 2)
	for i, id := range []string{"e1", "e2"} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := tracker.CompleteExercise(context.Background(), "u1", course(), id, false)
			if err != nil {
				t.Errorf("CompleteExercise(%s) error = %v", id, err)
			}
			results[i] = res
		}()
	}
	wg.Wait()

	completions, xp := 0, 0
	for _, r := range results {
		if r.LessonCompleted {
			completions++
		}
		xp += r.XPAwarded
	}
	if completions != 1 || xp != 10 {
		t.Errorf("lesson completed %d times for %d XP, want once for 10", completions, xp)
	}

	var lessonEvents int
	for _, e := range events.Events() {
		if e.EventType == progress.EventLessonCompleted {
			lessonEvents++
		}
	}
	if lessonEvents != 1 {
		t.Errorf("lesson_completed events = %d, want 1", lessonEvents)
	}
}

func TestTracker_CompleteExercise_Unknown(t *testing.T) {
	tracker := progress.NewTracker(nil, nil)

	_, err := tracker.CompleteExercise(t.Context(), "u1", course(), "nope", true)
	if !errors.Is(err, progress.ErrUnknownExercise) {
		t.Errorf("error = %v, want ErrUnknownExercise", err)
	}
}

func TestTracker_ResetLesson(t *testing.T) {
	tracker := progress.NewTracker(progress.NewMemoryStore(), nil)
	ctx := t.Context()

	for _, id := range []string{"e1", "e2"} {
		if _, err := tracker.CompleteExercise(ctx, "u1", course(), id, false); err != nil {
			t.Fatalf("CompleteExercise(%s) error = %v", id, err)
		}
	}

	if err := tracker.ResetLesson(ctx, "u1", course(), "l1"); err != nil {
		t.Fatalf("ResetLesson() error = %v", err)
	}

	got, err := tracker.Progress(ctx, "u1", course())
	if err != nil {
		t.Fatalf("Progress() error = %v", err)
	}
	if s := lessonStatus(t, got, "l1"); s != curriculum.StatusAvailable {
		t.Errorf("status(l1) = %q, want available after reset", s)
	}

	if err := tracker.ResetLesson(ctx, "u1", course(), "zz"); !errors.Is(err, curriculum.ErrNotFound) {
		t.Errorf("ResetLesson(zz) error = %v, want ErrNotFound", err)
	}
}
