// Package server exposes the learner path and the curriculum admin console
// over HTTP.
package server

import (
	"context"
	"net/http"
	"sync"

	"github.com/yuin/goldmark"
	goldmarkHTML "github.com/yuin/goldmark/renderer/html"

	"github.com/p-n-ai/pai-path/internal/curriculum"
	"github.com/p-n-ai/pai-path/internal/progress"
	"github.com/p-n-ai/pai-path/internal/subscription"
)

// HealthCheck reports whether a dependency is usable.
type HealthCheck func(ctx context.Context) error

// Deps are the collaborators a Server needs.
type Deps struct {
	Catalog       *curriculum.Loader
	Tracker       *progress.Tracker
	Subscriptions subscription.Checker
	Auth          *Auth
	// Checks are run by /readyz, keyed by dependency name.
	Checks map[string]HealthCheck
}

// Server routes HTTP requests to the catalog, tracker and live hub.
type Server struct {
	catalog *curriculum.Loader
	tracker *progress.Tracker
	subs    subscription.Checker
	auth    *Auth
	checks  map[string]HealthCheck
	hub     *Hub
	md      goldmark.Markdown

	// editMu serializes admin read-modify-write cycles on a language.
	editMu sync.Mutex
}

// New creates a Server. A nil Subscriptions checker treats every learner as
// a free user.
func New(d Deps) *Server {
	subs := d.Subscriptions
	if subs == nil {
		subs = subscription.NewMemoryStore()
	}
	tracker := d.Tracker
	if tracker == nil {
		tracker = progress.NewTracker(nil, nil)
	}
	return &Server{
		catalog: d.Catalog,
		tracker: tracker,
		subs:    subs,
		auth:    d.Auth,
		checks:  d.Checks,
		hub:     NewHub(),
		// Raw HTML in notes is escaped; WithUnsafe is not set.
		md: goldmark.New(goldmark.WithRendererOptions(goldmarkHTML.WithHardWraps())),
	}
}

// Handler returns the HTTP router.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", handleHealthz)
	mux.HandleFunc("GET /readyz", s.handleReadyz)

	mux.HandleFunc("POST /api/admin/login", s.handleAdminLogin)

	mux.HandleFunc("GET /api/languages", s.requireUser(s.handleListLanguages))
	mux.HandleFunc("GET /api/languages/{lang}/path", s.requireUser(s.handlePath))
	mux.HandleFunc("GET /api/languages/{lang}/path.xlsx", s.requireUser(s.handlePathWorkbook))
	mux.HandleFunc("GET /api/languages/{lang}/lessons/{lesson}", s.requireUser(s.handleLesson))
	mux.HandleFunc("POST /api/languages/{lang}/exercises/{exercise}/complete", s.requireUser(s.handleCompleteExercise))
	mux.HandleFunc("DELETE /api/languages/{lang}/lessons/{lesson}/progress", s.requireUser(s.handleResetLesson))
	mux.HandleFunc("GET /api/ws/path", s.requireUser(s.handleLivePath))

	mux.HandleFunc("POST /api/admin/languages/{lang}/drafts", s.requireAdmin(s.handleCreateDraft))
	mux.HandleFunc("PATCH /api/admin/languages/{lang}/lessons/{lesson}", s.requireAdmin(s.handlePatchLesson))
	mux.HandleFunc("DELETE /api/admin/languages/{lang}/{kind}/{id}", s.requireAdmin(s.handleRemoveNode))
	return mux
}
