package server

import (
	"bytes"
	"context"
	"fmt"
	"net/http"

	"github.com/p-n-ai/pai-path/internal/curriculum"
	"github.com/p-n-ai/pai-path/internal/progress"
	"github.com/p-n-ai/pai-path/internal/progression"
	"github.com/p-n-ai/pai-path/internal/report"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type languageSummary struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Chapters int    `json:"chapters"`
	Lessons  int    `json:"lessons"`
}

type pathResponse struct {
	progression.Path
	NextLesson *progression.Node `json:"next_lesson,omitempty"`
}

type lessonResponse struct {
	progression.Node
	Exercises []curriculum.Exercise `json:"exercises"`
	NotesHTML string                `json:"notes_html,omitempty"`
}

type completeResponse struct {
	Result progress.Result  `json:"result"`
	Lesson progression.Node `json:"lesson"`
}

func (s *Server) language(id string) (curriculum.Language, error) {
	lang, ok := s.catalog.GetLanguage(id)
	if !ok {
		return curriculum.Language{}, fmt.Errorf("language %q: %w", id, curriculum.ErrNotFound)
	}
	return lang, nil
}

// learnerPath loads a language with the learner's progress applied and
// evaluates the path for their plan.
func (s *Server) learnerPath(ctx context.Context, user, langID string) (curriculum.Language, progression.Path, error) {
	lang, err := s.language(langID)
	if err != nil {
		return curriculum.Language{}, progression.Path{}, err
	}
	premium, err := s.subs.HasPremium(ctx, user)
	if err != nil {
		return curriculum.Language{}, progression.Path{}, fmt.Errorf("check subscription: %w", err)
	}
	lang, err = s.tracker.Progress(ctx, user, lang)
	if err != nil {
		return curriculum.Language{}, progression.Path{}, err
	}
	return lang, progression.BuildPath(lang, premium), nil
}

func (s *Server) handleListLanguages(w http.ResponseWriter, r *http.Request) {
	langs := s.catalog.AllLanguages()
	out := make([]languageSummary, 0, len(langs))
	for _, l := range langs {
		sum := languageSummary{ID: l.ID, Name: l.Name, Chapters: len(l.Chapters)}
		for _, ch := range l.Chapters {
			for _, u := range ch.Units {
				sum.Lessons += len(u.Lessons)
			}
		}
		out = append(out, sum)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handlePath(w http.ResponseWriter, r *http.Request) {
	_, path, err := s.learnerPath(r.Context(), userID(r), r.PathValue("lang"))
	if err != nil {
		writeErr(w, r, err)
		return
	}

	resp := pathResponse{Path: path}
	if next, ok := path.NextLesson(); ok {
		resp.NextLesson = &next
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handlePathWorkbook(w http.ResponseWriter, r *http.Request) {
	_, path, err := s.learnerPath(r.Context(), userID(r), r.PathValue("lang"))
	if err != nil {
		writeErr(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := report.WritePathWorkbook(&buf, path); err != nil {
		writeErr(w, r, err)
		return
	}
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", path.LanguageID+"-path.xlsx"))
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

func (s *Server) handleLesson(w http.ResponseWriter, r *http.Request) {
	lessonID := r.PathValue("lesson")
	lang, path, err := s.learnerPath(r.Context(), userID(r), r.PathValue("lang"))
	if err != nil {
		writeErr(w, r, err)
		return
	}

	node, ok := path.FindNode(lessonID)
	if !ok {
		writeErr(w, r, fmt.Errorf("lesson %q: %w", lessonID, curriculum.ErrNotFound))
		return
	}
	if !node.Accessible {
		writeJSON(w, http.StatusForbidden, errorBody{Error: "lesson is locked", Reason: string(node.Reason)})
		return
	}

	ref, _ := lang.FindLesson(lessonID)
	lesson := lang.Chapters[ref.Chapter].Units[ref.Unit].Lessons[ref.Lesson]
	resp := lessonResponse{Node: node, Exercises: lesson.Exercises}
	if resp.Exercises == nil {
		resp.Exercises = []curriculum.Exercise{}
	}

	if notes, ok := s.catalog.GetNotes(lang.ID, lessonID); ok {
		var html bytes.Buffer
		if err := s.md.Convert([]byte(notes), &html); err != nil {
			writeErr(w, r, fmt.Errorf("render notes: %w", err))
			return
		}
		resp.NotesHTML = html.String()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCompleteExercise(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := userID(r)

	lang, err := s.language(r.PathValue("lang"))
	if err != nil {
		writeErr(w, r, err)
		return
	}
	premium, err := s.subs.HasPremium(ctx, user)
	if err != nil {
		writeErr(w, r, fmt.Errorf("check subscription: %w", err))
		return
	}

	res, err := s.tracker.CompleteExercise(ctx, user, lang, r.PathValue("exercise"), premium)
	if err != nil {
		writeErr(w, r, err)
		return
	}

	path := progression.BuildPath(res.Language, premium)
	if res.Recorded {
		s.hub.Publish(user, lang.ID, path)
	}
	node, _ := path.FindNode(res.LessonID)
	writeJSON(w, http.StatusOK, completeResponse{Result: res, Lesson: node})
}

func (s *Server) handleResetLesson(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := userID(r)

	lang, err := s.language(r.PathValue("lang"))
	if err != nil {
		writeErr(w, r, err)
		return
	}
	if err := s.tracker.ResetLesson(ctx, user, lang, r.PathValue("lesson")); err != nil {
		writeErr(w, r, err)
		return
	}

	if _, path, err := s.learnerPath(ctx, user, lang.ID); err == nil {
		s.hub.Publish(user, lang.ID, path)
	}
	w.WriteHeader(http.StatusNoContent)
}
