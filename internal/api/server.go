package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/aerialtv/aerial/internal/auth"
	"github.com/aerialtv/aerial/internal/collection"
	"github.com/aerialtv/aerial/internal/snapshot"
	"github.com/aerialtv/aerial/internal/store"
	"github.com/aerialtv/aerial/internal/telemetry"
)

// Server is the admin API for the rule console: field metadata, rule
// previews, and collection management.
type Server struct {
	store        store.Store
	collections  *collection.Service
	adminAPIKey  string
	previewLimit int
}

// NewServer wires the API server. adminKey is the configured admin key,
// either plaintext or a bcrypt hash of it. previewLimit is the item cap
// applied when a preview request carries none; it never affects the
// reported count.
func NewServer(st store.Store, collections *collection.Service, adminKey string, previewLimit int) *Server {
	if previewLimit <= 0 {
		previewLimit = 50
	}
	return &Server{store: st, collections: collections, adminAPIKey: adminKey, previewLimit: previewLimit}
}

// Router builds the chi router for the admin API.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer)
	r.Use(telemetry.Middleware)

	// long-lived SSE stream; must stay outside the request timeout
	r.Get("/v1/events", s.handleEvents)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(10 * time.Second))

		// health
		r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ok"))
		})

		// public: rule-builder metadata and previews
		r.Get("/v1/fields/{kind}", s.handleFields)
		r.Post("/v1/rules/validate", s.handleValidateRule)
		r.Post("/v1/channels/preview", s.handlePreviewChannels)
		r.Post("/v1/library/preview", s.handlePreviewMedia)
		r.Get("/v1/snapshot", s.handleSnapshot)

		// admin (protected)
		r.Group(func(r chi.Router) {
			r.Use(s.authAdmin)

			r.Get("/v1/collections", s.handleListCollections)
			r.Post("/v1/collections", s.handleCreateCollection)
			r.Get("/v1/collections/{id}", s.handleGetCollection)
			r.Put("/v1/collections/{id}", s.handleUpdateCollection)
			r.Delete("/v1/collections/{id}", s.handleDeleteCollection)
			r.Get("/v1/collections/{id}/members", s.handleCollectionMembers)
			r.Post("/v1/collections/{id}/materialize", s.handleMaterialize)

			r.Post("/v1/catalog/channels", s.handleUpsertChannel)
			r.Delete("/v1/catalog/channels/{id}", s.handleDeleteChannel)
			r.Post("/v1/catalog/media", s.handleUpsertMedia)
			r.Delete("/v1/catalog/media/{id}", s.handleDeleteMedia)
		})
	})

	return r
}

// handleSnapshot reports the current catalog snapshot sizes with an ETag so
// the console can cheaply poll for catalog changes.
func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	snap := snapshot.Load()
	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == snap.ETag {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("ETag", snap.ETag)
	writeJSON(w, http.StatusOK, map[string]any{
		"etag":     snap.ETag,
		"channels": len(snap.Channels),
		"media":    len(snap.Media),
		"builtAt":  snap.BuiltAt,
	})
}

// handleEvents streams catalog snapshot changes as server-sent events.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		InternalError(w, r, "streaming unsupported")
		return
	}

	ch, unsub := snapshot.Subscribe()
	defer unsub()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)

	// initial event so clients learn the current ETag immediately
	writeSSE(w, snapshot.Load().ETag)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case etag, open := <-ch:
			if !open {
				return
			}
			writeSSE(w, etag)
			flusher.Flush()
		}
	}
}

func writeSSE(w http.ResponseWriter, etag string) {
	_, _ = w.Write([]byte("event: snapshot\ndata: " + etag + "\n\n"))
}

// ---- middleware & helpers ----

func (s *Server) authAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got := auth.ExtractBearerToken(r.Header.Get("Authorization"))
		if got == "" {
			UnauthorizedError(w, r, "missing bearer token")
			return
		}
		if !auth.VerifyAdminKey(got, s.adminAPIKey) {
			ForbiddenError(w, r, "invalid token")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
