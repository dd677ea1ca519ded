package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aerialtv/aerial/internal/auth"
	"github.com/aerialtv/aerial/internal/catalog"
	"github.com/aerialtv/aerial/internal/snapshot"
	"github.com/aerialtv/aerial/internal/store"
	"github.com/aerialtv/aerial/internal/testutil"
)

const testAdminKey = "test-admin-key"

func authHeader() map[string]string {
	return map[string]string{"Authorization": "Bearer " + testAdminKey}
}

func TestHealthz(t *testing.T) {
	server, _, _ := testutil.NewTestServer(t, testAdminKey)
	rr := (&testutil.HTTPRequest{Method: "GET", Path: "/healthz"}).Do(t, server.Router())
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
}

func TestFieldsEndpoint(t *testing.T) {
	server, _, _ := testutil.NewTestServer(t, testAdminKey)

	rr := (&testutil.HTTPRequest{Method: "GET", Path: "/v1/fields/channel"}).Do(t, server.Router())
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}

	var resp struct {
		Kind   string `json:"kind"`
		Fields []struct {
			Name      string   `json:"name"`
			Type      string   `json:"type"`
			Operators []string `json:"operators"`
		} `json:"fields"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Kind != "channel" || len(resp.Fields) != 7 {
		t.Errorf("kind=%q fields=%d, want channel/7", resp.Kind, len(resp.Fields))
	}

	rr = (&testutil.HTTPRequest{Method: "GET", Path: "/v1/fields/playlist"}).Do(t, server.Router())
	if rr.Code != http.StatusBadRequest {
		t.Errorf("unknown kind status = %d, want 400", rr.Code)
	}
}

func TestPreviewChannels(t *testing.T) {
	server, st, _ := testutil.NewTestServer(t, testAdminKey)
	testutil.SeedCatalog(context.Background(), t, st, testutil.Channels(), nil)

	body := `{"rule":"{\"conditions\":[{\"field\":\"group\",\"op\":\"eq\",\"value\":\"News\"}],\"match\":\"any\"}"}`
	rr := (&testutil.HTTPRequest{Method: "POST", Path: "/v1/channels/preview", Body: body}).Do(t, server.Router())
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body.String())
	}

	var resp struct {
		Count int               `json:"count"`
		ETag  string            `json:"etag"`
		Items []json.RawMessage `json:"items"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Count != 2 || len(resp.Items) != 2 {
		t.Errorf("count=%d items=%d, want 2/2", resp.Count, len(resp.Items))
	}
	if resp.ETag == "" {
		t.Error("expected a snapshot etag")
	}
}

func TestPreviewLimitNeverCapsCount(t *testing.T) {
	server, st, _ := testutil.NewTestServer(t, testAdminKey)
	testutil.SeedCatalog(context.Background(), t, st, testutil.Channels(), nil)

	// All four channels match; limit only truncates the item list.
	body := `{"rule":"{\"conditions\":[{\"field\":\"number\",\"op\":\"gt\",\"value\":\"0\"}],\"match\":\"all\"}","limit":2}`
	rr := (&testutil.HTTPRequest{Method: "POST", Path: "/v1/channels/preview", Body: body}).Do(t, server.Router())
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}

	var resp struct {
		Count int               `json:"count"`
		Items []json.RawMessage `json:"items"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Count != 4 {
		t.Errorf("count = %d, want uncapped 4", resp.Count)
	}
	if len(resp.Items) != 2 {
		t.Errorf("items = %d, want capped 2", len(resp.Items))
	}
}

func TestPreviewMalformedRuleMatchesNothing(t *testing.T) {
	server, st, _ := testutil.NewTestServer(t, testAdminKey)
	testutil.SeedCatalog(context.Background(), t, st, testutil.Channels(), nil)

	body := `{"rule":"{not json"}`
	rr := (&testutil.HTTPRequest{Method: "POST", Path: "/v1/channels/preview", Body: body}).Do(t, server.Router())
	if rr.Code != http.StatusOK {
		t.Fatalf("malformed rule must not error the endpoint, got %d", rr.Code)
	}

	var resp struct {
		Count int `json:"count"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Count != 0 {
		t.Errorf("count = %d, want 0", resp.Count)
	}
}

func TestPreviewMedia(t *testing.T) {
	server, st, _ := testutil.NewTestServer(t, testAdminKey)
	testutil.SeedCatalog(context.Background(), t, st, nil, testutil.Media())

	// Bare-array shape with the media is/is_not spelling.
	body := `{"rule":"[{\"field\":\"genre\",\"op\":\"is\",\"value\":\"Drama\"},{\"field\":\"year\",\"op\":\"gt\",\"value\":\"2015\"}]"}`
	rr := (&testutil.HTTPRequest{Method: "POST", Path: "/v1/library/preview", Body: body}).Do(t, server.Router())
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}

	var resp struct {
		Count int `json:"count"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Count != 2 {
		t.Errorf("count = %d, want 2 (bare array is implicit all)", resp.Count)
	}
}

func TestValidateRuleEndpoint(t *testing.T) {
	server, _, _ := testutil.NewTestServer(t, testAdminKey)

	body := `{"kind":"channel","rule":"{\"conditions\":[{\"field\":\"grup\",\"op\":\"eq\",\"value\":\"News\"}],\"match\":\"any\"}"}`
	rr := (&testutil.HTTPRequest{Method: "POST", Path: "/v1/rules/validate", Body: body}).Do(t, server.Router())
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}

	var report struct {
		Valid  bool `json:"valid"`
		Issues []struct {
			Index   int    `json:"index"`
			Message string `json:"message"`
		} `json:"issues"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &report); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if report.Valid {
		t.Error("unknown field must make the report invalid")
	}
	if len(report.Issues) == 0 {
		t.Error("expected at least one issue")
	}
}

func TestAdminAuthBcryptHashedKey(t *testing.T) {
	hash, err := auth.HashAPIKey(testAdminKey)
	if err != nil {
		t.Fatalf("HashAPIKey: %v", err)
	}
	server, _, _ := testutil.NewTestServer(t, hash)

	// The plaintext key authenticates against its stored hash.
	rr := (&testutil.HTTPRequest{Method: "GET", Path: "/v1/collections", Headers: authHeader()}).Do(t, server.Router())
	if rr.Code != http.StatusOK {
		t.Errorf("plaintext key against hash status = %d, want 200", rr.Code)
	}

	// Presenting the hash itself must not authenticate.
	rr = (&testutil.HTTPRequest{
		Method:  "GET",
		Path:    "/v1/collections",
		Headers: map[string]string{"Authorization": "Bearer " + hash},
	}).Do(t, server.Router())
	if rr.Code != http.StatusForbidden {
		t.Errorf("hash as token status = %d, want 403", rr.Code)
	}
}

func TestAdminAuth(t *testing.T) {
	server, _, _ := testutil.NewTestServer(t, testAdminKey)

	// No token
	rr := (&testutil.HTTPRequest{Method: "GET", Path: "/v1/collections"}).Do(t, server.Router())
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("no token status = %d, want 401", rr.Code)
	}

	// Wrong token
	rr = (&testutil.HTTPRequest{
		Method:  "GET",
		Path:    "/v1/collections",
		Headers: map[string]string{"Authorization": "Bearer wrong"},
	}).Do(t, server.Router())
	if rr.Code != http.StatusForbidden {
		t.Errorf("wrong token status = %d, want 403", rr.Code)
	}

	// Valid token
	rr = (&testutil.HTTPRequest{Method: "GET", Path: "/v1/collections", Headers: authHeader()}).Do(t, server.Router())
	if rr.Code != http.StatusOK {
		t.Errorf("valid token status = %d, want 200", rr.Code)
	}
}

func TestCollectionCRUD(t *testing.T) {
	server, _, _ := testutil.NewTestServer(t, testAdminKey)
	router := server.Router()

	// Create
	body := `{"name":"HD News","kind":"channel","rule":"[{\"field\":\"hd\",\"op\":\"eq\",\"value\":\"true\"}]","enabled":true}`
	rr := (&testutil.HTTPRequest{Method: "POST", Path: "/v1/collections", Body: body, Headers: authHeader()}).Do(t, router)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body %s", rr.Code, rr.Body.String())
	}

	var created store.Collection
	if err := json.Unmarshal(rr.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if created.ID == "" {
		t.Fatal("expected generated id")
	}

	// Get
	rr = (&testutil.HTTPRequest{Method: "GET", Path: "/v1/collections/" + created.ID, Headers: authHeader()}).Do(t, router)
	if rr.Code != http.StatusOK {
		t.Fatalf("get status = %d", rr.Code)
	}

	// Update
	body = `{"name":"All HD","rule":"[{\"field\":\"hd\",\"op\":\"eq\",\"value\":\"true\"}]","enabled":false}`
	rr = (&testutil.HTTPRequest{Method: "PUT", Path: "/v1/collections/" + created.ID, Body: body, Headers: authHeader()}).Do(t, router)
	if rr.Code != http.StatusOK {
		t.Fatalf("update status = %d, body %s", rr.Code, rr.Body.String())
	}
	var updated store.Collection
	if err := json.Unmarshal(rr.Body.Bytes(), &updated); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if updated.Name != "All HD" || updated.Enabled {
		t.Errorf("update not applied: %+v", updated)
	}

	// Delete
	rr = (&testutil.HTTPRequest{Method: "DELETE", Path: "/v1/collections/" + created.ID, Headers: authHeader()}).Do(t, router)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", rr.Code)
	}
	rr = (&testutil.HTTPRequest{Method: "GET", Path: "/v1/collections/" + created.ID, Headers: authHeader()}).Do(t, router)
	if rr.Code != http.StatusNotFound {
		t.Errorf("get after delete status = %d, want 404", rr.Code)
	}
}

func TestCollectionValidationErrors(t *testing.T) {
	server, _, _ := testutil.NewTestServer(t, testAdminKey)
	router := server.Router()

	rr := (&testutil.HTTPRequest{Method: "POST", Path: "/v1/collections", Body: `{"kind":"channel"}`, Headers: authHeader()}).Do(t, router)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("missing name status = %d, want 400", rr.Code)
	}

	rr = (&testutil.HTTPRequest{Method: "POST", Path: "/v1/collections", Body: `{"name":"x","kind":"playlist"}`, Headers: authHeader()}).Do(t, router)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("bad kind status = %d, want 400", rr.Code)
	}

	rr = (&testutil.HTTPRequest{Method: "POST", Path: "/v1/collections", Body: `{bad json`, Headers: authHeader()}).Do(t, router)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("bad json status = %d, want 400", rr.Code)
	}
}

func TestMaterializeEndpointAgreesWithPreview(t *testing.T) {
	server, st, _ := testutil.NewTestServer(t, testAdminKey)
	testutil.SeedCatalog(context.Background(), t, st, testutil.Channels(), nil)
	router := server.Router()

	rule := `{"conditions":[{"field":"hd","op":"eq","value":"true"}],"match":"all"}`

	// Preview first.
	previewBody, _ := json.Marshal(map[string]any{"rule": rule})
	rr := (&testutil.HTTPRequest{Method: "POST", Path: "/v1/channels/preview", Body: string(previewBody)}).Do(t, router)
	if rr.Code != http.StatusOK {
		t.Fatalf("preview status = %d", rr.Code)
	}
	var preview struct {
		Count int `json:"count"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &preview); err != nil {
		t.Fatalf("decode preview: %v", err)
	}

	// Create and materialize the same rule.
	createBody, _ := json.Marshal(map[string]any{"name": "HD", "kind": "channel", "rule": rule, "enabled": true})
	rr = (&testutil.HTTPRequest{Method: "POST", Path: "/v1/collections", Body: string(createBody), Headers: authHeader()}).Do(t, router)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create status = %d", rr.Code)
	}
	var created store.Collection
	if err := json.Unmarshal(rr.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode create: %v", err)
	}

	rr = (&testutil.HTTPRequest{Method: "POST", Path: "/v1/collections/" + created.ID + "/materialize", Headers: authHeader()}).Do(t, router)
	if rr.Code != http.StatusOK {
		t.Fatalf("materialize status = %d, body %s", rr.Code, rr.Body.String())
	}
	var mat struct {
		Count     int      `json:"count"`
		MemberIDs []string `json:"memberIds"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &mat); err != nil {
		t.Fatalf("decode materialize: %v", err)
	}

	if mat.Count != preview.Count {
		t.Errorf("materialize count %d != preview count %d", mat.Count, preview.Count)
	}

	// Members endpoint reflects the run.
	rr = (&testutil.HTTPRequest{Method: "GET", Path: "/v1/collections/" + created.ID + "/members", Headers: authHeader()}).Do(t, router)
	if rr.Code != http.StatusOK {
		t.Fatalf("members status = %d", rr.Code)
	}
	var members struct {
		Members []string `json:"members"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &members); err != nil {
		t.Fatalf("decode members: %v", err)
	}
	if len(members.Members) != mat.Count {
		t.Errorf("members %v do not match count %d", members.Members, mat.Count)
	}
}

func TestSnapshotEndpointETag(t *testing.T) {
	server, st, _ := testutil.NewTestServer(t, testAdminKey)
	testutil.SeedCatalog(context.Background(), t, st, testutil.Channels(), testutil.Media())
	router := server.Router()

	rr := (&testutil.HTTPRequest{Method: "GET", Path: "/v1/snapshot"}).Do(t, router)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	etag := rr.Header().Get("ETag")
	if etag == "" {
		t.Fatal("expected ETag header")
	}

	rr = (&testutil.HTTPRequest{
		Method:  "GET",
		Path:    "/v1/snapshot",
		Headers: map[string]string{"If-None-Match": etag},
	}).Do(t, router)
	if rr.Code != http.StatusNotModified {
		t.Errorf("status = %d, want 304", rr.Code)
	}
}

func TestCatalogWritesRefreshSnapshot(t *testing.T) {
	server, st, _ := testutil.NewTestServer(t, testAdminKey)
	testutil.SeedCatalog(context.Background(), t, st, testutil.Channels(), nil)
	router := server.Router()

	rr := (&testutil.HTTPRequest{Method: "GET", Path: "/v1/snapshot"}).Do(t, router)
	before := rr.Header().Get("ETag")

	body := `{"id":"ch-9","group":"Kids","name":"Cartoon Town","number":401,"sourceType":"m3u"}`
	rr = (&testutil.HTTPRequest{Method: "POST", Path: "/v1/catalog/channels", Body: body, Headers: authHeader()}).Do(t, router)
	if rr.Code != http.StatusOK {
		t.Fatalf("upsert status = %d, body %s", rr.Code, rr.Body.String())
	}

	rr = (&testutil.HTTPRequest{Method: "GET", Path: "/v1/snapshot"}).Do(t, router)
	after := rr.Header().Get("ETag")
	if after == before {
		t.Error("snapshot etag must change after a catalog write")
	}

	// The new channel is visible to previews immediately.
	previewBody := `{"rule":"{\"conditions\":[{\"field\":\"group\",\"op\":\"eq\",\"value\":\"Kids\"}],\"match\":\"any\"}"}`
	rr = (&testutil.HTTPRequest{Method: "POST", Path: "/v1/channels/preview", Body: previewBody}).Do(t, router)
	var resp struct {
		Count int `json:"count"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Count != 1 {
		t.Errorf("count = %d, want the new channel visible", resp.Count)
	}

	// Delete removes it again.
	rr = (&testutil.HTTPRequest{Method: "DELETE", Path: "/v1/catalog/channels/ch-9", Headers: authHeader()}).Do(t, router)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", rr.Code)
	}
	rr = (&testutil.HTTPRequest{Method: "POST", Path: "/v1/channels/preview", Body: previewBody}).Do(t, router)
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Count != 0 {
		t.Errorf("count = %d after delete, want 0", resp.Count)
	}
}

// sseWriter is a flushable response writer safe to read while the events
// handler streams into it from another goroutine.
type sseWriter struct {
	mu      sync.Mutex
	header  http.Header
	body    bytes.Buffer
	flushes chan struct{}
}

func newSSEWriter() *sseWriter {
	return &sseWriter{header: make(http.Header), flushes: make(chan struct{}, 8)}
}

func (w *sseWriter) Header() http.Header { return w.header }

func (w *sseWriter) WriteHeader(int) {}

func (w *sseWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.body.Write(p)
}

func (w *sseWriter) Flush() {
	select {
	case w.flushes <- struct{}{}:
	default:
	}
}

func (w *sseWriter) contents() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.body.String()
}

func waitFlush(t *testing.T, w *sseWriter) {
	t.Helper()
	select {
	case <-w.flushes:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for the event stream to flush")
	}
}

func TestEventsStreamDeliversSnapshotUpdates(t *testing.T) {
	server, st, _ := testutil.NewTestServer(t, testAdminKey)
	testutil.SeedCatalog(context.Background(), t, st, testutil.Channels(), nil)
	before := snapshot.Load().ETag

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest("GET", "/v1/events", nil).WithContext(ctx)
	rec := newSSEWriter()
	done := make(chan struct{})
	go func() {
		server.Router().ServeHTTP(rec, req)
		close(done)
	}()

	// initial event carries the current ETag
	waitFlush(t, rec)

	// a catalog write swaps the snapshot and must reach the open stream
	newCh := catalog.Channel{ID: "ch-9", Group: "Kids", Name: "Cartoon Town", Number: 401}
	if err := st.UpsertChannel(context.Background(), newCh); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	snap, err := snapshot.Rebuild(context.Background(), st)
	if err != nil {
		t.Fatalf("rebuild: %v", err)
	}
	waitFlush(t, rec)

	cancel()
	<-done

	body := rec.contents()
	if !strings.Contains(body, before) {
		t.Errorf("stream must open with the current etag %s, got %q", before, body)
	}
	if !strings.Contains(body, snap.ETag) {
		t.Errorf("stream must carry the post-write etag %s, got %q", snap.ETag, body)
	}
	if strings.Count(body, "event: snapshot") < 2 {
		t.Errorf("expected at least two snapshot events, got %q", body)
	}
}
