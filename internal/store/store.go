package store

import (
	"context"
	"errors"
	"time"

	"github.com/aerialtv/aerial/internal/catalog"
	"github.com/aerialtv/aerial/internal/registry"
)

// ErrNotFound is returned when a requested collection does not exist.
var ErrNotFound = errors.New("not found")

// Collection is a parent entity that owns a rule string: a smart channel
// group or a smart media collection. The rule is persisted opaquely and
// re-parsed on every evaluation. Enabled is a caller-level gate: a disabled
// collection materializes to an empty member list without evaluating its
// rule.
type Collection struct {
	ID        string              `json:"id"`
	Name      string              `json:"name"`
	Kind      registry.EntityKind `json:"kind"`
	Rule      string              `json:"rule"`
	Enabled   bool                `json:"enabled"`
	UpdatedAt time.Time           `json:"updatedAt"`
}

// Store defines persistence for the catalog (candidate pools) and for
// collections with their materialized member lists. Implementations must be
// safe for concurrent use.
//
// List order is part of the contract: channels come back ordered by number
// then name, media by title then id, and members in the order they were
// materialized. Selection preserves pool order, so stable listing is what
// keeps preview and materialize in agreement across calls.
type Store interface {
	ListChannels(ctx context.Context) ([]catalog.Channel, error)
	UpsertChannel(ctx context.Context, ch catalog.Channel) error
	DeleteChannel(ctx context.Context, id string) error

	ListMedia(ctx context.Context) ([]catalog.MediaItem, error)
	UpsertMediaItem(ctx context.Context, item catalog.MediaItem) error
	DeleteMediaItem(ctx context.Context, id string) error

	ListCollections(ctx context.Context) ([]Collection, error)
	GetCollection(ctx context.Context, id string) (*Collection, error)
	UpsertCollection(ctx context.Context, c Collection) error
	DeleteCollection(ctx context.Context, id string) error

	// SetMembers replaces a collection's materialized member list.
	SetMembers(ctx context.Context, collectionID string, memberIDs []string) error
	// GetMembers returns the materialized member list in stored order.
	GetMembers(ctx context.Context, collectionID string) ([]string, error)

	// Close releases any resources held by the store.
	Close() error
}
