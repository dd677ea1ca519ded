package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"log"
	"math"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

const (
	// queueSize is the buffer size for the event queue.
	queueSize = 256
	// maxAttempts bounds delivery retries per event.
	maxAttempts = 3
)

// Dispatcher delivers events to a single configured endpoint with HMAC
// signatures and bounded retries. A nil Dispatcher is valid and drops all
// events, so callers never need to branch on whether webhooks are enabled.
type Dispatcher struct {
	url    string
	secret string
	client *http.Client
	queue  chan Event
	done   chan struct{}
	closed int32 // atomic flag to prevent double-close
}

// NewDispatcher creates a dispatcher for the given endpoint. Returns nil
// when url is empty (webhooks disabled).
func NewDispatcher(url, secret string) *Dispatcher {
	if url == "" {
		return nil
	}
	return &Dispatcher{
		url:    url,
		secret: secret,
		client: &http.Client{Timeout: 10 * time.Second},
		queue:  make(chan Event, queueSize),
		done:   make(chan struct{}),
	}
}

// Start begins processing events from the queue.
func (d *Dispatcher) Start() {
	if d == nil {
		return
	}
	go d.worker()
}

// Close drains the queue and stops the worker. Safe to call multiple times.
func (d *Dispatcher) Close() error {
	if d == nil {
		return nil
	}
	if !atomic.CompareAndSwapInt32(&d.closed, 0, 1) {
		return nil
	}
	close(d.queue)
	<-d.done
	return nil
}

// Dispatch queues an event for delivery without blocking the caller.
// When the queue is full the event is dropped and logged.
func (d *Dispatcher) Dispatch(event Event) {
	if d == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	select {
	case d.queue <- event:
	default:
		log.Printf("[webhook] queue full (size=%d), dropping event: type=%s resource=%s/%s",
			queueSize, event.Type, event.Resource.Type, event.Resource.ID)
	}
}

func (d *Dispatcher) worker() {
	defer close(d.done)
	for event := range d.queue {
		d.deliverWithRetry(context.Background(), event)
	}
}

func (d *Dispatcher) deliverWithRetry(ctx context.Context, event Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		log.Printf("[webhook] marshal event %s: %v", event.ID, err)
		return
	}

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := d.deliver(ctx, payload, event.ID); err != nil {
			log.Printf("[webhook] delivery attempt %d/%d failed for event %s: %v",
				attempt, maxAttempts, event.ID, err)
			if attempt < maxAttempts {
				// Exponential backoff: 1s, 2s, 4s, ...
				time.Sleep(time.Duration(math.Pow(2, float64(attempt-1))) * time.Second)
			}
			continue
		}
		return
	}
	log.Printf("[webhook] giving up on event %s after %d attempts", event.ID, maxAttempts)
}

func (d *Dispatcher) deliver(ctx context.Context, payload []byte, eventID string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Aerial-Delivery", eventID)
	if d.secret != "" {
		req.Header.Set("X-Aerial-Signature", ComputeHMAC(payload, d.secret))
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &StatusError{Code: resp.StatusCode}
	}
	return nil
}

// StatusError reports a non-2xx delivery response.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return http.StatusText(e.Code) + " from webhook endpoint"
}
