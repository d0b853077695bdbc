package progress

import (
	"github.com/p-n-ai/pai-path/internal/curriculum"
	"github.com/p-n-ai/pai-path/internal/progression"
)

// Apply returns a copy of lang with a learner's completions folded in.
//
// A lesson is completed when it has at least one exercise and all of them
// are done; units and chapters are completed when they are non-empty and all
// children are completed. Remaining lessons are available or locked by
// progression alone; the premium gate is evaluated per request on top.
func Apply(lang curriculum.Language, completed map[string]bool) curriculum.Language {
	out := lang.Clone()
	curriculum.SortTree(&out)

	for ci := range out.Chapters {
		ch := &out.Chapters[ci]
		chapterDone := len(ch.Units) > 0
		for ui := range ch.Units {
			u := &ch.Units[ui]
			unitDone := len(u.Lessons) > 0
			for li := range u.Lessons {
				ls := &u.Lessons[li]
				lessonDone := len(ls.Exercises) > 0
				for ei := range ls.Exercises {
					ex := &ls.Exercises[ei]
					ex.Completed = completed[ex.ID]
					lessonDone = lessonDone && ex.Completed
				}
				if lessonDone {
					ls.Status = curriculum.StatusCompleted
				} else {
					ls.Status = ""
				}
				unitDone = unitDone && lessonDone
			}
			u.IsCompleted = unitDone
			chapterDone = chapterDone && unitDone
		}
		ch.IsCompleted = chapterDone
	}

	// Status of unfinished lessons depends on the completion flags above.
	for ci := range out.Chapters {
		ch := out.Chapters[ci]
		for ui := range ch.Units {
			u := ch.Units[ui]
			for li := range u.Lessons {
				ls := &out.Chapters[ci].Units[ui].Lessons[li]
				if ls.Status == curriculum.StatusCompleted {
					continue
				}
				if progression.IsLessonAccessible(out.Chapters, ch, u, *ls, true) {
					ls.Status = curriculum.StatusAvailable
				} else {
					ls.Status = curriculum.StatusLocked
				}
			}
		}
	}

	return out
}
