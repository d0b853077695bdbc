package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/p-n-ai/pai-path/internal/curriculum"
	"github.com/p-n-ai/pai-path/internal/progress"
	"github.com/p-n-ai/pai-path/internal/progression"
)

const maxBodyBytes = 1 << 20

type errorBody struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
	Reason string            `json:"lock_reason,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Error: msg})
}

// writeErr maps domain errors to status codes. Unknown errors are logged
// and reported without detail.
func writeErr(w http.ResponseWriter, r *http.Request, err error) {
	var (
		verr   *curriculum.ValidationError
		locked *progress.LockedError
	)
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusUnprocessableEntity, errorBody{Error: "validation failed", Fields: verr.Fields})
	case errors.As(err, &locked):
		writeJSON(w, http.StatusForbidden, errorBody{Error: "lesson is locked", Reason: string(locked.Reason)})
	case errors.Is(err, curriculum.ErrNotFound), errors.Is(err, progress.ErrUnknownExercise):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, progress.ErrLessonLocked):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, progression.ErrNotInParent):
		writeError(w, http.StatusConflict, err.Error())
	default:
		slog.Error("internal error", "method", r.Method, "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}
