package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/p-n-ai/pai-path/internal/curriculum"
)

// editLanguage runs a copy-on-write edit against the catalog, stores the
// result and pushes fresh paths to learners watching the language.
func (s *Server) editLanguage(ctx context.Context, langID string, edit func(curriculum.Language) (curriculum.Language, error)) error {
	if err := s.storeEdit(langID, edit); err != nil {
		return err
	}
	s.refreshLive(ctx, langID)
	return nil
}

func (s *Server) storeEdit(langID string, edit func(curriculum.Language) (curriculum.Language, error)) error {
	s.editMu.Lock()
	defer s.editMu.Unlock()

	lang, err := s.language(langID)
	if err != nil {
		return err
	}
	updated, err := edit(lang)
	if err != nil {
		return err
	}
	s.catalog.Put(updated)
	return nil
}

func (s *Server) handleCreateDraft(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "request body too large")
		return
	}
	draft, err := curriculum.DecodeDraft(body)
	if err != nil {
		var verr *curriculum.ValidationError
		if errors.As(err, &verr) {
			writeErr(w, r, err)
			return
		}
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	langID := r.PathValue("lang")
	var created curriculum.NodePath
	err = s.editLanguage(r.Context(), langID, func(lang curriculum.Language) (curriculum.Language, error) {
		updated, at, err := curriculum.ApplyDraft(lang, draft)
		created = at
		return updated, err
	})
	if err != nil {
		writeErr(w, r, err)
		return
	}

	slog.Info("curriculum node created",
		"admin", claimsFrom(r.Context()).Subject,
		"language_id", langID,
		"kind", draft.Kind(),
		"path", created,
	)
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handlePatchLesson(w http.ResponseWriter, r *http.Request) {
	var patch curriculum.LessonPatch
	if !decodeJSON(w, r, &patch) {
		return
	}

	langID, lessonID := r.PathValue("lang"), r.PathValue("lesson")
	err := s.editLanguage(r.Context(), langID, func(lang curriculum.Language) (curriculum.Language, error) {
		return curriculum.PatchLesson(lang, lessonID, patch)
	})
	if err != nil {
		writeErr(w, r, err)
		return
	}

	lang, _ := s.language(langID)
	ref, _ := lang.FindLesson(lessonID)
	writeJSON(w, http.StatusOK, lang.Chapters[ref.Chapter].Units[ref.Unit].Lessons[ref.Lesson])
}

func (s *Server) handleRemoveNode(w http.ResponseWriter, r *http.Request) {
	kind, ok := curriculum.ParseKind(r.PathValue("kind"))
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Sprintf("unknown node kind %q", r.PathValue("kind")))
		return
	}

	langID, id := r.PathValue("lang"), r.PathValue("id")
	err := s.editLanguage(r.Context(), langID, func(lang curriculum.Language) (curriculum.Language, error) {
		at, found := curriculum.Locate(lang, kind, id)
		if !found {
			return curriculum.Language{}, fmt.Errorf("%s %q: %w", kind, id, curriculum.ErrNotFound)
		}
		return curriculum.Remove(lang, at)
	})
	if err != nil {
		writeErr(w, r, err)
		return
	}

	slog.Info("curriculum node removed",
		"admin", claimsFrom(r.Context()).Subject,
		"language_id", langID,
		"kind", kind,
		"id", id,
	)
	w.WriteHeader(http.StatusNoContent)
}
