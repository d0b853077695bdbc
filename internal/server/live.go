package server

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/p-n-ai/pai-path/internal/progression"
)

const liveWriteTimeout = 5 * time.Second

type liveKey struct {
	userID     string
	languageID string
}

// Hub fans recomputed paths out to a learner's open path views.
type Hub struct {
	mu   sync.Mutex
	subs map[liveKey]map[chan progression.Path]struct{}
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[liveKey]map[chan progression.Path]struct{})}
}

// Subscribe registers a listener for one learner and language. The returned
// func unsubscribes and must be called.
func (h *Hub) Subscribe(userID, languageID string) (<-chan progression.Path, func()) {
	key := liveKey{userID, languageID}
	ch := make(chan progression.Path, 1)

	h.mu.Lock()
	if h.subs[key] == nil {
		h.subs[key] = make(map[chan progression.Path]struct{})
	}
	h.subs[key][ch] = struct{}{}
	h.mu.Unlock()

	return ch, func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		delete(h.subs[key], ch)
		if len(h.subs[key]) == 0 {
			delete(h.subs, key)
		}
	}
}

// Publish delivers p to every listener. Slow listeners only see the latest
// path.
func (h *Hub) Publish(userID, languageID string, p progression.Path) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for ch := range h.subs[liveKey{userID, languageID}] {
		select {
		case <-ch:
		default:
		}
		ch <- p
	}
}

// Subscribers returns the learners with an open view of languageID.
func (h *Hub) Subscribers(languageID string) []string {
	h.mu.Lock()
	defer h.mu.Unlock()

	var users []string
	for key := range h.subs {
		if key.languageID == languageID {
			users = append(users, key.userID)
		}
	}
	return users
}

// refreshLive recomputes and publishes the path of every learner watching
// langID, e.g. after the curriculum changed under them.
func (s *Server) refreshLive(ctx context.Context, langID string) {
	for _, user := range s.hub.Subscribers(langID) {
		_, path, err := s.learnerPath(ctx, user, langID)
		if err != nil {
			slog.Warn("live path refresh failed", "user_id", user, "language_id", langID, "error", err)
			continue
		}
		s.hub.Publish(user, langID, path)
	}
}

// handleLivePath streams the learner's path for ?lang= over a websocket: the
// current path on connect, then a fresh one after each change.
func (s *Server) handleLivePath(w http.ResponseWriter, r *http.Request) {
	langID := r.URL.Query().Get("lang")
	user := userID(r)

	_, path, err := s.learnerPath(r.Context(), user, langID)
	if err != nil {
		writeErr(w, r, err)
		return
	}

	updates, unsubscribe := s.hub.Subscribe(user, langID)
	defer unsubscribe()

	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		slog.Warn("websocket accept failed", "user_id", user, "error", err)
		return
	}
	defer conn.CloseNow()

	// Client messages are ignored; reading keeps control frames flowing.
	ctx := conn.CloseRead(r.Context())

	if err := writeLive(ctx, conn, path); err != nil {
		return
	}
	for {
		select {
		case <-ctx.Done():
			conn.Close(websocket.StatusNormalClosure, "")
			return
		case p := <-updates:
			if err := writeLive(ctx, conn, p); err != nil {
				slog.Debug("live path write failed", "user_id", user, "error", err)
				return
			}
		}
	}
}

func writeLive(ctx context.Context, conn *websocket.Conn, p progression.Path) error {
	ctx, cancel := context.WithTimeout(ctx, liveWriteTimeout)
	defer cancel()
	return wsjson.Write(ctx, conn, p)
}
