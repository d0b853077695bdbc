package curriculum

import "fmt"

// Tree edits are copy-on-write: only the slices on the path from the root to
// the edited node are reallocated and the input tree is never mutated.

// NodePath addresses a node by the IDs of itself and its ancestors.
// Trailing empty IDs select a shallower node.
type NodePath struct {
	ChapterID  string `json:"chapter_id,omitempty"`
	UnitID     string `json:"unit_id,omitempty"`
	LessonID   string `json:"lesson_id,omitempty"`
	ExerciseID string `json:"exercise_id,omitempty"`
}

// Kind reports which level the path points at.
func (p NodePath) Kind() DraftKind {
	switch {
	case p.ExerciseID != "":
		return KindExercise
	case p.LessonID != "":
		return KindLesson
	case p.UnitID != "":
		return KindUnit
	default:
		return KindChapter
	}
}

// UpdateChapter replaces the chapter with the given ID by fn's result.
func UpdateChapter(lang Language, chapterID string, fn func(Chapter) (Chapter, error)) (Language, error) {
	chapters, err := updateByID(lang.Chapters, chapterID, "chapter", chapterKey, fn)
	if err != nil {
		return Language{}, err
	}
	lang.Chapters = chapters
	return lang, nil
}

// UpdateUnit replaces a unit by fn's result.
func UpdateUnit(lang Language, chapterID, unitID string, fn func(Unit) (Unit, error)) (Language, error) {
	return UpdateChapter(lang, chapterID, func(ch Chapter) (Chapter, error) {
		units, err := updateByID(ch.Units, unitID, "unit", unitKey, fn)
		if err != nil {
			return Chapter{}, err
		}
		ch.Units = units
		return ch, nil
	})
}

// UpdateLesson replaces a lesson by fn's result.
func UpdateLesson(lang Language, chapterID, unitID, lessonID string, fn func(Lesson) (Lesson, error)) (Language, error) {
	return UpdateUnit(lang, chapterID, unitID, func(u Unit) (Unit, error) {
		lessons, err := updateByID(u.Lessons, lessonID, "lesson", lessonKey, fn)
		if err != nil {
			return Unit{}, err
		}
		u.Lessons = lessons
		return u, nil
	})
}

// UpdateExercise replaces an exercise by fn's result.
func UpdateExercise(lang Language, chapterID, unitID, lessonID, exerciseID string, fn func(Exercise) (Exercise, error)) (Language, error) {
	return UpdateLesson(lang, chapterID, unitID, lessonID, func(ls Lesson) (Lesson, error) {
		exercises, err := updateByID(ls.Exercises, exerciseID, "exercise", exerciseKey, fn)
		if err != nil {
			return Lesson{}, err
		}
		ls.Exercises = exercises
		return ls, nil
	})
}

// Remove deletes the node addressed by p together with its subtree.
func Remove(lang Language, p NodePath) (Language, error) {
	switch p.Kind() {
	case KindExercise:
		return UpdateLesson(lang, p.ChapterID, p.UnitID, p.LessonID, func(ls Lesson) (Lesson, error) {
			exercises, err := removeByID(ls.Exercises, p.ExerciseID, "exercise", exerciseKey)
			ls.Exercises = exercises
			return ls, err
		})
	case KindLesson:
		return UpdateUnit(lang, p.ChapterID, p.UnitID, func(u Unit) (Unit, error) {
			lessons, err := removeByID(u.Lessons, p.LessonID, "lesson", lessonKey)
			u.Lessons = lessons
			return u, err
		})
	case KindUnit:
		return UpdateChapter(lang, p.ChapterID, func(ch Chapter) (Chapter, error) {
			units, err := removeByID(ch.Units, p.UnitID, "unit", unitKey)
			ch.Units = units
			return ch, err
		})
	default:
		chapters, err := removeByID(lang.Chapters, p.ChapterID, "chapter", chapterKey)
		if err != nil {
			return Language{}, err
		}
		lang.Chapters = chapters
		return lang, nil
	}
}

// Locate finds the path of a node of the given kind by its ID.
func Locate(lang Language, kind DraftKind, id string) (NodePath, bool) {
	for _, ch := range lang.Chapters {
		if kind == KindChapter && ch.ID == id {
			return NodePath{ChapterID: ch.ID}, true
		}
		for _, u := range ch.Units {
			if kind == KindUnit && u.ID == id {
				return NodePath{ChapterID: ch.ID, UnitID: u.ID}, true
			}
			for _, ls := range u.Lessons {
				if kind == KindLesson && ls.ID == id {
					return NodePath{ChapterID: ch.ID, UnitID: u.ID, LessonID: ls.ID}, true
				}
				for _, ex := range ls.Exercises {
					if kind == KindExercise && ex.ID == id {
						return NodePath{ChapterID: ch.ID, UnitID: u.ID, LessonID: ls.ID, ExerciseID: ex.ID}, true
					}
				}
			}
		}
	}
	return NodePath{}, false
}

func chapterKey(c Chapter) string   { return c.ID }
func unitKey(u Unit) string         { return u.ID }
func lessonKey(l Lesson) string     { return l.ID }
func exerciseKey(e Exercise) string { return e.ID }

func updateByID[T any](items []T, id, level string, key func(T) string, fn func(T) (T, error)) ([]T, error) {
	for i, it := range items {
		if key(it) != id {
			continue
		}
		updated, err := fn(it)
		if err != nil {
			return nil, err
		}
		out := make([]T, len(items))
		copy(out, items)
		out[i] = updated
		return out, nil
	}
	return nil, fmt.Errorf("%s %q: %w", level, id, ErrNotFound)
}

func removeByID[T any](items []T, id, level string, key func(T) string) ([]T, error) {
	for i, it := range items {
		if key(it) != id {
			continue
		}
		out := make([]T, 0, len(items)-1)
		out = append(out, items[:i]...)
		return append(out, items[i+1:]...), nil
	}
	return nil, fmt.Errorf("%s %q: %w", level, id, ErrNotFound)
}
