// Package audit records who changed which collection and when. Records are
// append-only and flow through a pluggable sink so the backend can grow from
// log lines to a table without touching callers.
package audit

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

// Actions recorded against collections.
const (
	ActionCreated      = "created"
	ActionUpdated      = "updated"
	ActionDeleted      = "deleted"
	ActionMaterialized = "materialized"
)

// Event is one audit record.
type Event struct {
	ID           string         `json:"id"`
	Action       string         `json:"action"`
	ResourceType string         `json:"resourceType"`
	ResourceID   string         `json:"resourceId"`
	RequestID    string         `json:"requestId,omitempty"`
	Details      map[string]any `json:"details,omitempty"`
	At           time.Time      `json:"at"`
}

// Sink persists audit events.
type Sink interface {
	Write(ctx context.Context, event Event) error
}

// LogSink writes audit events as JSON log lines.
type LogSink struct{}

// Write emits the event via the standard logger. Marshal failures are
// swallowed after logging; audit must never fail an admin operation.
func (LogSink) Write(ctx context.Context, event Event) error {
	b, err := json.Marshal(event)
	if err != nil {
		log.Printf("[audit] marshal event: %v", err)
		return nil
	}
	log.Printf("[audit] %s", b)
	return nil
}

// MemorySink keeps events in memory for tests.
type MemorySink struct {
	mu     sync.Mutex
	events []Event
}

func (m *MemorySink) Write(ctx context.Context, event Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return nil
}

// Events returns a copy of all recorded events.
func (m *MemorySink) Events() []Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Event, len(m.events))
	copy(out, m.events)
	return out
}

// Service stamps and writes audit events.
type Service struct {
	sink Sink
}

// NewService creates an audit service over the given sink. A nil sink
// defaults to LogSink.
func NewService(sink Sink) *Service {
	if sink == nil {
		sink = LogSink{}
	}
	return &Service{sink: sink}
}

// Record writes one audit event. Errors are logged, never propagated: an
// audit failure must not fail the operation being audited.
func (s *Service) Record(ctx context.Context, action, resourceType, resourceID string, details map[string]any) {
	event := Event{
		ID:           uuid.NewString(),
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		RequestID:    middleware.GetReqID(ctx),
		Details:      details,
		At:           time.Now().UTC(),
	}
	if err := s.sink.Write(ctx, event); err != nil {
		log.Printf("[audit] write event %s: %v", event.ID, err)
	}
}
