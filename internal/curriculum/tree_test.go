package curriculum_test

import (
	"errors"
	"testing"

	"github.com/p-n-ai/pai-path/internal/curriculum"
)

func sampleLanguage() curriculum.Language {
	return curriculum.Language{
		ID:   "es",
		Name: "Spanish",
		Chapters: []curriculum.Chapter{
			{
				ID: "c1", Order: 1, Title: "Basics",
				Units: []curriculum.Unit{
					{
						ID: "u1", Order: 1, Title: "Hello",
						Lessons: []curriculum.Lesson{
							{ID: "l1", Order: 1, Title: "Greetings", Exercises: []curriculum.Exercise{{ID: "e1", Type: "translate"}}},
							{ID: "l2", Order: 2, Title: "Farewells"},
						},
					},
				},
			},
			{ID: "c2", Order: 2, Title: "Travel"},
		},
	}
}

func TestUpdateLesson_CopyOnWrite(t *testing.T) {
	orig := sampleLanguage()

	updated, err := curriculum.UpdateLesson(orig, "c1", "u1", "l2", func(l curriculum.Lesson) (curriculum.Lesson, error) {
		l.Title = "Goodbyes"
		return l, nil
	})
	if err != nil {
		t.Fatalf("UpdateLesson() error = %v", err)
	}

	if got := updated.Chapters[0].Units[0].Lessons[1].Title; got != "Goodbyes" {
		t.Errorf("updated title = %q, want Goodbyes", got)
	}
	if got := orig.Chapters[0].Units[0].Lessons[1].Title; got != "Farewells" {
		t.Errorf("original title = %q, want Farewells (input must not be mutated)", got)
	}
	// Untouched siblings keep sharing storage.
	if &updated.Chapters[0].Units[0].Lessons[0].Exercises[0] != &orig.Chapters[0].Units[0].Lessons[0].Exercises[0] {
		t.Error("sibling lesson exercises should be shared, not copied")
	}
}

func TestUpdateExercise(t *testing.T) {
	orig := sampleLanguage()

	updated, err := curriculum.UpdateExercise(orig, "c1", "u1", "l1", "e1", func(e curriculum.Exercise) (curriculum.Exercise, error) {
		e.Type = "listen"
		return e, nil
	})
	if err != nil {
		t.Fatalf("UpdateExercise() error = %v", err)
	}
	if got := updated.Chapters[0].Units[0].Lessons[0].Exercises[0].Type; got != "listen" {
		t.Errorf("Type = %q, want listen", got)
	}
	if got := orig.Chapters[0].Units[0].Lessons[0].Exercises[0].Type; got != "translate" {
		t.Errorf("original Type = %q, want translate", got)
	}
}

func TestUpdate_NotFound(t *testing.T) {
	tests := []struct {
		name string
		run  func() error
	}{
		{"chapter", func() error {
			_, err := curriculum.UpdateChapter(sampleLanguage(), "nope", func(c curriculum.Chapter) (curriculum.Chapter, error) { return c, nil })
			return err
		}},
		{"unit", func() error {
			_, err := curriculum.UpdateUnit(sampleLanguage(), "c1", "nope", func(u curriculum.Unit) (curriculum.Unit, error) { return u, nil })
			return err
		}},
		{"lesson", func() error {
			_, err := curriculum.UpdateLesson(sampleLanguage(), "c1", "u1", "nope", func(l curriculum.Lesson) (curriculum.Lesson, error) { return l, nil })
			return err
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.run(); !errors.Is(err, curriculum.ErrNotFound) {
				t.Errorf("error = %v, want ErrNotFound", err)
			}
		})
	}
}

func TestRemove(t *testing.T) {
	tests := []struct {
		name  string
		path  curriculum.NodePath
		check func(t *testing.T, l curriculum.Language)
	}{
		{
			name: "exercise",
			path: curriculum.NodePath{ChapterID: "c1", UnitID: "u1", LessonID: "l1", ExerciseID: "e1"},
			check: func(t *testing.T, l curriculum.Language) {
				if n := len(l.Chapters[0].Units[0].Lessons[0].Exercises); n != 0 {
					t.Errorf("exercises = %d, want 0", n)
				}
			},
		},
		{
			name: "lesson",
			path: curriculum.NodePath{ChapterID: "c1", UnitID: "u1", LessonID: "l1"},
			check: func(t *testing.T, l curriculum.Language) {
				lessons := l.Chapters[0].Units[0].Lessons
				if len(lessons) != 1 || lessons[0].ID != "l2" {
					t.Errorf("lessons = %+v, want only l2", lessons)
				}
			},
		},
		{
			name: "chapter",
			path: curriculum.NodePath{ChapterID: "c1"},
			check: func(t *testing.T, l curriculum.Language) {
				if len(l.Chapters) != 1 || l.Chapters[0].ID != "c2" {
					t.Errorf("chapters = %+v, want only c2", l.Chapters)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			orig := sampleLanguage()
			got, err := curriculum.Remove(orig, tt.path)
			if err != nil {
				t.Fatalf("Remove() error = %v", err)
			}
			tt.check(t, got)
			if len(orig.Chapters) != 2 || len(orig.Chapters[0].Units[0].Lessons) != 2 {
				t.Error("Remove() mutated its input")
			}
		})
	}
}

func TestRemove_NotFound(t *testing.T) {
	_, err := curriculum.Remove(sampleLanguage(), curriculum.NodePath{ChapterID: "c1", UnitID: "zz"})
	if !errors.Is(err, curriculum.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestLocate(t *testing.T) {
	lang := sampleLanguage()

	p, ok := curriculum.Locate(lang, curriculum.KindExercise, "e1")
	if !ok {
		t.Fatal("Locate(e1) not found")
	}
	want := curriculum.NodePath{ChapterID: "c1", UnitID: "u1", LessonID: "l1", ExerciseID: "e1"}
	if p != want {
		t.Errorf("Locate(e1) = %+v, want %+v", p, want)
	}

	if _, ok := curriculum.Locate(lang, curriculum.KindUnit, "l1"); ok {
		t.Error("Locate should match on kind as well as ID")
	}
}

func TestSortTree(t *testing.T) {
	lang := curriculum.Language{
		Chapters: []curriculum.Chapter{
			{ID: "c2", Order: 2},
			{ID: "c1", Order: 1, Units: []curriculum.Unit{
				{ID: "u2", Order: 5},
				{ID: "u1", Order: 3, Lessons: []curriculum.Lesson{{ID: "b", Order: 9}, {ID: "a", Order: 0}}},
			}},
		},
	}

	curriculum.SortTree(&lang)

	if lang.Chapters[0].ID != "c1" || lang.Chapters[0].Units[0].ID != "u1" || lang.Chapters[0].Units[0].Lessons[0].ID != "a" {
		t.Errorf("SortTree() did not order every level: %+v", lang)
	}
}

func TestCheckUniqueIDs(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*curriculum.Language)
		wantErr bool
	}{
		{name: "unique", mutate: func(*curriculum.Language) {}},
		{
			name: "duplicate exercise",
			mutate: func(l *curriculum.Language) {
				l.Chapters[0].Units[0].Lessons[1].Exercises = []curriculum.Exercise{{ID: "e1", Type: "listen"}}
			},
			wantErr: true,
		},
		{
			name: "duplicate chapter",
			mutate: func(l *curriculum.Language) {
				l.Chapters[1].ID = "c1"
			},
			wantErr: true,
		},
		{
			name: "same id across kinds is allowed",
			mutate: func(l *curriculum.Language) {
				l.Chapters[0].Units[0].Lessons[1].Exercises = []curriculum.Exercise{{ID: "l2", Type: "listen"}}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lang := sampleLanguage()
			tt.mutate(&lang)
			err := lang.CheckUniqueIDs()
			if (err != nil) != tt.wantErr {
				t.Errorf("CheckUniqueIDs() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
