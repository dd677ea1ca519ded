package webhook

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

func TestNilDispatcherIsSafe(t *testing.T) {
	var d *Dispatcher

	// All methods must be no-ops on a nil receiver.
	d.Start()
	d.Dispatch(Event{Type: EventCollectionCreated})
	if err := d.Close(); err != nil {
		t.Errorf("Close on nil dispatcher: %v", err)
	}
}

func TestNewDispatcherDisabledWithoutURL(t *testing.T) {
	if d := NewDispatcher("", "secret"); d != nil {
		t.Error("empty url must yield a nil (disabled) dispatcher")
	}
}

func TestDispatchDeliversSignedEvent(t *testing.T) {
	var mu sync.Mutex
	var gotBody []byte
	var gotSig, gotDelivery string
	received := make(chan struct{}, 1)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		gotBody = body
		gotSig = r.Header.Get("X-Aerial-Signature")
		gotDelivery = r.Header.Get("X-Aerial-Delivery")
		mu.Unlock()
		received <- struct{}{}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	d := NewDispatcher(srv.URL, "test-secret")
	d.Start()

	d.Dispatch(Event{
		Type:     EventCollectionMaterialized,
		Resource: Resource{Type: "collection", ID: "col-1", Name: "HD News"},
		Data:     map[string]any{"count": 3},
	})

	select {
	case <-received:
	case <-time.After(5 * time.Second):
		t.Fatal("webhook not delivered")
	}
	if err := d.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()

	if gotDelivery == "" {
		t.Error("expected a delivery id header")
	}
	if !VerifySignature(gotBody, gotSig, "test-secret") {
		t.Error("delivered signature does not verify")
	}

	var event Event
	if err := json.Unmarshal(gotBody, &event); err != nil {
		t.Fatalf("decode delivered event: %v", err)
	}
	if event.Type != EventCollectionMaterialized {
		t.Errorf("type = %q", event.Type)
	}
	if event.ID == "" || event.Timestamp.IsZero() {
		t.Error("dispatch must stamp id and timestamp")
	}
	if event.Resource.ID != "col-1" {
		t.Errorf("resource = %+v", event.Resource)
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	d := NewDispatcher(srv.URL, "")
	d.Start()
	if err := d.Close(); err != nil {
		t.Fatalf("first Close: %v", err)
	}
	if err := d.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
}
