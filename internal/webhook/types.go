package webhook

import (
	"time"
)

// Event types that trigger webhook deliveries.
const (
	EventCollectionCreated      = "collection.created"
	EventCollectionUpdated      = "collection.updated"
	EventCollectionDeleted      = "collection.deleted"
	EventCollectionMaterialized = "collection.materialized"
)

// Event represents one notification sent to the configured endpoint.
type Event struct {
	ID        string         `json:"id"`
	Type      string         `json:"event"`
	Timestamp time.Time      `json:"timestamp"`
	Resource  Resource       `json:"resource"`
	Data      map[string]any `json:"data,omitempty"`
}

// Resource identifies the entity that triggered the event.
type Resource struct {
	Type string `json:"type"` // always "collection" today
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}
