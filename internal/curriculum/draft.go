package curriculum

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

// DraftKind tags the level a draft creates.
type DraftKind string

const (
	KindChapter  DraftKind = "chapter"
	KindUnit     DraftKind = "unit"
	KindLesson   DraftKind = "lesson"
	KindExercise DraftKind = "exercise"
)

// ParseKind maps a string (singular or plural) to a DraftKind.
func ParseKind(s string) (DraftKind, bool) {
	switch DraftKind(strings.TrimSuffix(strings.ToLower(s), "s")) {
	case KindChapter:
		return KindChapter, true
	case KindUnit:
		return KindUnit, true
	case KindLesson:
		return KindLesson, true
	case KindExercise:
		return KindExercise, true
	}
	return "", false
}

// Draft is an admin form for a new node in the tree.
type Draft interface {
	Kind() DraftKind
	Validate() error
}

// NewChapter drafts a chapter at the end of the language.
type NewChapter struct {
	ID        string `json:"id" validate:"omitempty,max=64"`
	Title     string `json:"title" validate:"required,max=120"`
	IsPremium bool   `json:"is_premium"`
}

// NewUnit drafts a unit at the end of a chapter.
type NewUnit struct {
	ChapterID string `json:"chapter_id" validate:"required"`
	ID        string `json:"id" validate:"omitempty,max=64"`
	Title     string `json:"title" validate:"required,max=120"`
	Color     string `json:"color" validate:"omitempty,max=32"`
	IsPremium bool   `json:"is_premium"`
}

// NewLesson drafts a lesson at the end of a unit.
type NewLesson struct {
	ChapterID string `json:"chapter_id" validate:"required"`
	UnitID    string `json:"unit_id" validate:"required"`
	ID        string `json:"id" validate:"omitempty,max=64"`
	Title     string `json:"title" validate:"required,max=120"`
	IsPremium bool   `json:"is_premium"`
	XPReward  int    `json:"xp_reward" validate:"gte=0,lte=1000"`
}

// NewExercise drafts an exercise at the end of a lesson.
type NewExercise struct {
	ChapterID string `json:"chapter_id" validate:"required"`
	UnitID    string `json:"unit_id" validate:"required"`
	LessonID  string `json:"lesson_id" validate:"required"`
	ID        string `json:"id" validate:"omitempty,max=64"`
	Type      string `json:"type" validate:"required,max=32"`
}

func (NewChapter) Kind() DraftKind  { return KindChapter }
func (NewUnit) Kind() DraftKind     { return KindUnit }
func (NewLesson) Kind() DraftKind   { return KindLesson }
func (NewExercise) Kind() DraftKind { return KindExercise }

func (d NewChapter) Validate() error  { return validateStruct(d) }
func (d NewUnit) Validate() error     { return validateStruct(d) }
func (d NewLesson) Validate() error   { return validateStruct(d) }
func (d NewExercise) Validate() error { return validateStruct(d) }

// ValidationError lists failed fields keyed by their JSON name.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "invalid draft: " + strings.Join(parts, ", ")
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func validateStruct(d any) error {
	err := validate.Struct(d)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validate draft: %w", err)
	}
	out := &ValidationError{Fields: make(map[string]string, len(verrs))}
	for _, fe := range verrs {
		msg := fe.Tag()
		if fe.Param() != "" {
			msg += "=" + fe.Param()
		}
		out.Fields[fe.Field()] = msg
	}
	return out
}

// DecodeDraft parses a JSON body of the form {"kind": "...", ...fields}.
func DecodeDraft(data []byte) (Draft, error) {
	var head struct {
		Kind string `json:"kind"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("decode draft: %w", err)
	}

	kind, ok := ParseKind(head.Kind)
	if !ok {
		return nil, &ValidationError{Fields: map[string]string{"kind": "oneof=chapter unit lesson exercise"}}
	}

	var d Draft
	var err error
	switch kind {
	case KindChapter:
		var v NewChapter
		err = json.Unmarshal(data, &v)
		d = v
	case KindUnit:
		var v NewUnit
		err = json.Unmarshal(data, &v)
		d = v
	case KindLesson:
		var v NewLesson
		err = json.Unmarshal(data, &v)
		d = v
	case KindExercise:
		var v NewExercise
		err = json.Unmarshal(data, &v)
		d = v
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s draft: %w", kind, err)
	}
	return d, nil
}

// ApplyDraft validates d and appends the new node to its parent.
// It returns the updated tree and the path of the created node.
func ApplyDraft(lang Language, d Draft) (Language, NodePath, error) {
	if err := d.Validate(); err != nil {
		return Language{}, NodePath{}, err
	}

	switch d := d.(type) {
	case NewChapter:
		id, err := assignID(lang, KindChapter, d.ID, d.Title)
		if err != nil {
			return Language{}, NodePath{}, err
		}
		chapters := make([]Chapter, 0, len(lang.Chapters)+1)
		chapters = append(chapters, lang.Chapters...)
		chapters = append(chapters, Chapter{
			ID:        id,
			Order:     nextOrder(lang.Chapters, func(c Chapter) int { return c.Order }),
			Title:     d.Title,
			IsPremium: d.IsPremium,
		})
		lang.Chapters = chapters
		return lang, NodePath{ChapterID: id}, nil

	case NewUnit:
		id, err := assignID(lang, KindUnit, d.ID, d.Title)
		if err != nil {
			return Language{}, NodePath{}, err
		}
		out, err := UpdateChapter(lang, d.ChapterID, func(ch Chapter) (Chapter, error) {
			units := make([]Unit, 0, len(ch.Units)+1)
			units = append(units, ch.Units...)
			ch.Units = append(units, Unit{
				ID:        id,
				Order:     nextOrder(ch.Units, func(u Unit) int { return u.Order }),
				Title:     d.Title,
				Color:     d.Color,
				IsPremium: d.IsPremium,
			})
			return ch, nil
		})
		return out, NodePath{ChapterID: d.ChapterID, UnitID: id}, err

	case NewLesson:
		id, err := assignID(lang, KindLesson, d.ID, d.Title)
		if err != nil {
			return Language{}, NodePath{}, err
		}
		out, err := UpdateUnit(lang, d.ChapterID, d.UnitID, func(u Unit) (Unit, error) {
			lessons := make([]Lesson, 0, len(u.Lessons)+1)
			lessons = append(lessons, u.Lessons...)
			u.Lessons = append(lessons, Lesson{
				ID:        id,
				Order:     nextOrder(u.Lessons, func(l Lesson) int { return l.Order }),
				Title:     d.Title,
				IsPremium: d.IsPremium,
				XPReward:  d.XPReward,
				Status:    StatusLocked,
			})
			return u, nil
		})
		return out, NodePath{ChapterID: d.ChapterID, UnitID: d.UnitID, LessonID: id}, err

	case NewExercise:
		id, err := assignID(lang, KindExercise, d.ID, d.LessonID+"-"+d.Type)
		if err != nil {
			return Language{}, NodePath{}, err
		}
		out, err := UpdateLesson(lang, d.ChapterID, d.UnitID, d.LessonID, func(ls Lesson) (Lesson, error) {
			exercises := make([]Exercise, 0, len(ls.Exercises)+1)
			exercises = append(exercises, ls.Exercises...)
			ls.Exercises = append(exercises, Exercise{ID: id, Type: d.Type})
			return ls, nil
		})
		return out, NodePath{ChapterID: d.ChapterID, UnitID: d.UnitID, LessonID: d.LessonID, ExerciseID: id}, err
	}

	return Language{}, NodePath{}, fmt.Errorf("unsupported draft kind %q", d.Kind())
}

// assignID returns explicit if it is free, otherwise a unique slug of title.
func assignID(lang Language, kind DraftKind, explicit, title string) (string, error) {
	if explicit != "" {
		if _, taken := Locate(lang, kind, explicit); taken {
			return "", &ValidationError{Fields: map[string]string{"id": "unique"}}
		}
		return explicit, nil
	}

	base := Slugify(title)
	if base == "" {
		base = string(kind)
	}
	id := base
	for n := 2; ; n++ {
		if _, taken := Locate(lang, kind, id); !taken {
			return id, nil
		}
		id = fmt.Sprintf("%s-%d", base, n)
	}
}

func nextOrder[T any](items []T, order func(T) int) int {
	highest := 0
	for _, it := range items {
		if o := order(it); o > highest {
			highest = o
		}
	}
	return highest + 1
}

// LessonPatch holds the admin-editable fields of an existing lesson.
// Nil fields are left unchanged.
type LessonPatch struct {
	Title     *string `json:"title" validate:"omitnil,min=1,max=120"`
	IsPremium *bool   `json:"is_premium"`
	XPReward  *int    `json:"xp_reward" validate:"omitnil,gte=0,lte=1000"`
}

func (p LessonPatch) Validate() error { return validateStruct(p) }

// PatchLesson applies p to the lesson with the given ID.
func PatchLesson(lang Language, lessonID string, p LessonPatch) (Language, error) {
	if err := p.Validate(); err != nil {
		return Language{}, err
	}
	at, ok := Locate(lang, KindLesson, lessonID)
	if !ok {
		return Language{}, fmt.Errorf("lesson %q: %w", lessonID, ErrNotFound)
	}
	return UpdateLesson(lang, at.ChapterID, at.UnitID, at.LessonID, func(ls Lesson) (Lesson, error) {
		if p.Title != nil {
			ls.Title = *p.Title
		}
		if p.IsPremium != nil {
			ls.IsPremium = *p.IsPremium
		}
		if p.XPReward != nil {
			ls.XPReward = *p.XPReward
		}
		return ls, nil
	})
}
