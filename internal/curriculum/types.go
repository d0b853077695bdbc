package curriculum

import (
	"errors"
	"fmt"
	"sort"
)

// ErrNotFound is returned when an ID does not resolve within the tree.
var ErrNotFound = errors.New("not found")

// LessonStatus is a learner-relative lesson state.
type LessonStatus string

const (
	StatusLocked    LessonStatus = "locked"
	StatusAvailable LessonStatus = "available"
	StatusCompleted LessonStatus = "completed"
)

// Language is a course: the root of the chapter tree.
type Language struct {
	ID       string    `yaml:"id" json:"id"`
	Name     string    `yaml:"name" json:"name"`
	Chapters []Chapter `yaml:"chapters" json:"chapters"`
}

// Chapter groups units.
type Chapter struct {
	ID          string `yaml:"id" json:"id"`
	Order       int    `yaml:"order" json:"order"`
	Title       string `yaml:"title" json:"title"`
	IsPremium   bool   `yaml:"premium" json:"is_premium"`
	IsCompleted bool   `yaml:"-" json:"is_completed"`
	Units       []Unit `yaml:"units" json:"units"`
}

// Unit groups lessons and carries a theming color tag.
type Unit struct {
	ID          string   `yaml:"id" json:"id"`
	Order       int      `yaml:"order" json:"order"`
	Title       string   `yaml:"title" json:"title"`
	Color       string   `yaml:"color" json:"color"`
	IsPremium   bool     `yaml:"premium" json:"is_premium"`
	IsCompleted bool     `yaml:"-" json:"is_completed"`
	Lessons     []Lesson `yaml:"lessons" json:"lessons"`
}

// Lesson is a single node on the learning path.
type Lesson struct {
	ID        string       `yaml:"id" json:"id"`
	Order     int          `yaml:"order" json:"order"`
	Title     string       `yaml:"title" json:"title"`
	IsPremium bool         `yaml:"premium" json:"is_premium"`
	Status    LessonStatus `yaml:"-" json:"status"`
	XPReward  int          `yaml:"xp_reward" json:"xp_reward"`
	Exercises []Exercise   `yaml:"exercises" json:"exercises"`
}

// Exercise is the smallest gradable item in a lesson.
type Exercise struct {
	ID        string `yaml:"id" json:"id"`
	Type      string `yaml:"type" json:"type"`
	Completed bool   `yaml:"-" json:"completed"`
}

// Clone returns a deep copy of the language tree.
func (l Language) Clone() Language {
	out := l
	out.Chapters = make([]Chapter, len(l.Chapters))
	for i, ch := range l.Chapters {
		ch.Units = make([]Unit, len(l.Chapters[i].Units))
		for j, u := range l.Chapters[i].Units {
			u.Lessons = make([]Lesson, len(l.Chapters[i].Units[j].Lessons))
			for k, ls := range l.Chapters[i].Units[j].Lessons {
				ls.Exercises = append([]Exercise(nil), ls.Exercises...)
				u.Lessons[k] = ls
			}
			ch.Units[j] = u
		}
		out.Chapters[i] = ch
	}
	return out
}

// SortTree orders every level of the tree by Order, in place.
// Ties keep their original relative position.
func SortTree(l *Language) {
	sort.SliceStable(l.Chapters, func(i, j int) bool { return l.Chapters[i].Order < l.Chapters[j].Order })
	for i := range l.Chapters {
		units := l.Chapters[i].Units
		sort.SliceStable(units, func(a, b int) bool { return units[a].Order < units[b].Order })
		for j := range units {
			lessons := units[j].Lessons
			sort.SliceStable(lessons, func(a, b int) bool { return lessons[a].Order < lessons[b].Order })
		}
	}
}

// LessonRef locates a lesson inside a language tree by index.
type LessonRef struct {
	Chapter int
	Unit    int
	Lesson  int
}

// FindLesson returns the position of the lesson with the given ID.
func (l Language) FindLesson(id string) (LessonRef, bool) {
	for ci, ch := range l.Chapters {
		for ui, u := range ch.Units {
			for li, ls := range u.Lessons {
				if ls.ID == id {
					return LessonRef{Chapter: ci, Unit: ui, Lesson: li}, true
				}
			}
		}
	}
	return LessonRef{}, false
}

// FindExercise returns the lesson position owning the exercise with the given ID.
func (l Language) FindExercise(id string) (LessonRef, bool) {
	for ci, ch := range l.Chapters {
		for ui, u := range ch.Units {
			for li, ls := range u.Lessons {
				for _, ex := range ls.Exercises {
					if ex.ID == id {
						return LessonRef{Chapter: ci, Unit: ui, Lesson: li}, true
					}
				}
			}
		}
	}
	return LessonRef{}, false
}

// ExerciseIDs returns the IDs of a lesson's exercises.
func (ls Lesson) ExerciseIDs() []string {
	ids := make([]string, 0, len(ls.Exercises))
	for _, ex := range ls.Exercises {
		ids = append(ids, ex.ID)
	}
	return ids
}

// CheckUniqueIDs reports the first chapter, unit, lesson or exercise ID that
// appears more than once in the language. IDs must be unique per kind across
// the whole language because progress is keyed by them.
func (l Language) CheckUniqueIDs() error {
	seen := map[DraftKind]map[string]bool{
		KindChapter:  {},
		KindUnit:     {},
		KindLesson:   {},
		KindExercise: {},
	}
	check := func(kind DraftKind, id string) error {
		if seen[kind][id] {
			return fmt.Errorf("duplicate %s id %q", kind, id)
		}
		seen[kind][id] = true
		return nil
	}

	for _, ch := range l.Chapters {
		if err := check(KindChapter, ch.ID); err != nil {
			return err
		}
		for _, u := range ch.Units {
			if err := check(KindUnit, u.ID); err != nil {
				return err
			}
			for _, ls := range u.Lessons {
				if err := check(KindLesson, ls.ID); err != nil {
					return err
				}
				for _, ex := range ls.Exercises {
					if err := check(KindExercise, ex.ID); err != nil {
						return err
					}
				}
			}
		}
	}
	return nil
}
