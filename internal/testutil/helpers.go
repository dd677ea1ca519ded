package testutil

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aerialtv/aerial/internal/api"
	"github.com/aerialtv/aerial/internal/audit"
	"github.com/aerialtv/aerial/internal/catalog"
	"github.com/aerialtv/aerial/internal/collection"
	"github.com/aerialtv/aerial/internal/snapshot"
	"github.com/aerialtv/aerial/internal/store"
)

// NewTestServer creates an API server backed by an in-memory store, with
// auditing captured in a MemorySink and webhooks disabled.
func NewTestServer(t *testing.T, adminKey string) (*api.Server, *store.MemoryStore, *audit.MemorySink) {
	t.Helper()
	memStore := store.NewMemoryStore()
	sink := &audit.MemorySink{}
	collections := collection.NewService(memStore, audit.NewService(sink), nil)
	server := api.NewServer(memStore, collections, adminKey, 50)
	return server, memStore, sink
}

// HTTPRequest is a helper for making test HTTP requests.
type HTTPRequest struct {
	Method  string
	Path    string
	Body    string
	Headers map[string]string
}

// Do executes the HTTP request and returns the response recorder.
func (r *HTTPRequest) Do(t *testing.T, handler http.Handler) *httptest.ResponseRecorder {
	t.Helper()
	var body io.Reader
	if r.Body != "" {
		body = bytes.NewBufferString(r.Body)
	}
	req := httptest.NewRequest(r.Method, r.Path, body)
	if r.Body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range r.Headers {
		req.Header.Set(k, v)
	}
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

// SeedCatalog populates the store with test channels and media and swaps in
// a matching snapshot so preview endpoints see the seeded pools.
func SeedCatalog(ctx context.Context, t *testing.T, st store.Store, channels []catalog.Channel, media []catalog.MediaItem) {
	t.Helper()
	for _, ch := range channels {
		if err := st.UpsertChannel(ctx, ch); err != nil {
			t.Fatalf("seed channel %s: %v", ch.ID, err)
		}
	}
	for _, m := range media {
		if err := st.UpsertMediaItem(ctx, m); err != nil {
			t.Fatalf("seed media %s: %v", m.ID, err)
		}
	}
	if _, err := snapshot.Rebuild(ctx, st); err != nil {
		t.Fatalf("rebuild snapshot: %v", err)
	}
}

// Channels returns a small channel pool covering groups, HD flags and both
// source types, in ascending channel number order.
func Channels() []catalog.Channel {
	return []catalog.Channel{
		{ID: "ch-1", Group: "News", Name: "World News HD", Number: 101, SourceName: "main", SourceType: "m3u", HD: true},
		{ID: "ch-2", Group: "News", Name: "Local News", Number: 102, SourceName: "main", SourceType: "m3u"},
		{ID: "ch-3", Group: "Sports", Name: "Sports One", Number: 201, SourceName: "alt", SourceType: "xtream", HD: true, Favorite: true},
		{ID: "ch-4", Group: "Movies", Name: "Cinema Plus", Number: 301, SourceName: "alt", SourceType: "xtream"},
	}
}

// Media returns a small media pool spanning types, years and ratings, in
// ascending title order.
func Media() []catalog.MediaItem {
	return []catalog.MediaItem{
		{ID: "m-1", Title: "Arrival Point", Genre: "Sci-Fi", Year: 2016, Rating: 7.9, DurationMs: 6960000, Type: "movie", Studio: "Summit", Resolution: "1080p"},
		{ID: "m-2", Title: "Deep Water", Genre: "Thriller", Year: 2022, Rating: 5.4, DurationMs: 6900000, Type: "movie", Studio: "Vertigo", Resolution: "4k"},
		{ID: "m-3", Title: "Harbor Lights", Genre: "Drama", Year: 2019, Rating: 8.2, DurationMs: 2700000, Type: "show", Studio: "Meridian", Resolution: "1080p"},
		{ID: "m-4", Title: "Night Shift", Genre: "Drama", Year: 2019, Rating: 6.1, DurationMs: 2580000, Type: "episode", Studio: "Meridian", Resolution: "720p"},
	}
}
