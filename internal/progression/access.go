package progression

import (
	"errors"
	"fmt"
	"sort"

	"github.com/p-n-ai/pai-path/internal/curriculum"
)

// ErrNotInParent is returned when a chapter, unit or lesson is not a child
// of the container it was passed with.
var ErrNotInParent = errors.New("not in parent")

// LockReason explains why a lesson is inaccessible.
type LockReason string

const (
	LockNone        LockReason = ""
	LockPremium     LockReason = "premium"
	LockProgression LockReason = "progression"
)

// Access is the outcome of an accessibility check.
type Access struct {
	Accessible bool       `json:"accessible"`
	Reason     LockReason `json:"lock_reason,omitempty"`
}

var (
	granted           = Access{Accessible: true}
	premiumLocked     = Access{Reason: LockPremium}
	progressionLocked = Access{Reason: LockProgression}
)

// IsLessonAccessible reports whether a learner may enter lesson.
// Inconsistent input (an element missing from its parent) counts as locked.
func IsLessonAccessible(chapters []curriculum.Chapter, chapter curriculum.Chapter, unit curriculum.Unit, lesson curriculum.Lesson, hasPremium bool) bool {
	a, err := CheckAccess(chapters, chapter, unit, lesson, hasPremium)
	return err == nil && a.Accessible
}

// CheckAccess applies the premium gate and then the linear unlock chain:
// a lesson opens when its immediately preceding sibling at the nearest
// non-first level is completed. The very first lesson of the first unit of
// the first chapter is always open.
func CheckAccess(chapters []curriculum.Chapter, chapter curriculum.Chapter, unit curriculum.Unit, lesson curriculum.Lesson, hasPremium bool) (Access, error) {
	if !hasPremium && (lesson.IsPremium || unit.IsPremium || chapter.IsPremium) {
		return premiumLocked, nil
	}

	prevLesson, first, err := predecessor(unit.Lessons, lesson.ID, lessonKey)
	if err != nil {
		return Access{}, fmt.Errorf("lesson %q in unit %q: %w", lesson.ID, unit.ID, err)
	}
	if !first {
		return unlockedIf(prevLesson.Status == curriculum.StatusCompleted), nil
	}

	prevUnit, first, err := predecessor(chapter.Units, unit.ID, unitKey)
	if err != nil {
		return Access{}, fmt.Errorf("unit %q in chapter %q: %w", unit.ID, chapter.ID, err)
	}
	if !first {
		return unlockedIf(prevUnit.IsCompleted), nil
	}

	prevChapter, first, err := predecessor(chapters, chapter.ID, chapterKey)
	if err != nil {
		return Access{}, fmt.Errorf("chapter %q: %w", chapter.ID, err)
	}
	if !first {
		return unlockedIf(prevChapter.IsCompleted), nil
	}
	return granted, nil
}

func unlockedIf(ok bool) Access {
	if ok {
		return granted
	}
	return progressionLocked
}

type ordered interface {
	curriculum.Chapter | curriculum.Unit | curriculum.Lesson
}

type keyFunc[T ordered] func(T) (id string, order int)

func chapterKey(c curriculum.Chapter) (string, int) { return c.ID, c.Order }
func unitKey(u curriculum.Unit) (string, int)       { return u.ID, u.Order }
func lessonKey(l curriculum.Lesson) (string, int)   { return l.ID, l.Order }

// predecessor returns the sibling ordered immediately before id. Siblings are
// ranked by Order without assuming the slice is already sorted.
func predecessor[T ordered](items []T, id string, key keyFunc[T]) (prev T, first bool, err error) {
	idx := make([]int, len(items))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		_, oa := key(items[idx[a]])
		_, ob := key(items[idx[b]])
		return oa < ob
	})

	for rank, i := range idx {
		if itemID, _ := key(items[i]); itemID != id {
			continue
		}
		if rank == 0 {
			return prev, true, nil
		}
		return items[idx[rank-1]], false, nil
	}
	return prev, false, ErrNotInParent
}
