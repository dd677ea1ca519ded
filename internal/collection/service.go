// Package collection manages the parent entities that own rule strings:
// smart channel groups and smart media collections. Materialization runs the
// same selection.Select as the preview endpoints, so what the console showed
// is exactly what gets persisted.
package collection

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/aerialtv/aerial/internal/audit"
	"github.com/aerialtv/aerial/internal/catalog"
	"github.com/aerialtv/aerial/internal/rules"
	"github.com/aerialtv/aerial/internal/selection"
	"github.com/aerialtv/aerial/internal/store"
	"github.com/aerialtv/aerial/internal/telemetry"
	"github.com/aerialtv/aerial/internal/webhook"
)

const resourceType = "collection"

// Service coordinates collection CRUD and materialization.
type Service struct {
	store    store.Store
	auditor  *audit.Service
	webhooks *webhook.Dispatcher
}

// NewService wires a collection service. auditor must be non-nil; webhooks
// may be nil (disabled).
func NewService(st store.Store, auditor *audit.Service, webhooks *webhook.Dispatcher) *Service {
	return &Service{store: st, auditor: auditor, webhooks: webhooks}
}

// List returns all collections.
func (s *Service) List(ctx context.Context) ([]store.Collection, error) {
	return s.store.ListCollections(ctx)
}

// Get returns one collection, or store.ErrNotFound.
func (s *Service) Get(ctx context.Context, id string) (*store.Collection, error) {
	return s.store.GetCollection(ctx, id)
}

// Create validates and persists a new collection. The rule string is
// normalized before storage so persisted rules never carry blank rows.
func (s *Service) Create(ctx context.Context, c store.Collection) (*store.Collection, error) {
	if strings.TrimSpace(c.Name) == "" {
		return nil, fmt.Errorf("collection name must not be empty")
	}
	if !c.Kind.Valid() {
		return nil, fmt.Errorf("unknown entity kind %q", c.Kind)
	}
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	c.Rule = rules.Serialize(rules.Parse(c.Rule))
	c.UpdatedAt = time.Now().UTC()

	if err := s.store.UpsertCollection(ctx, c); err != nil {
		return nil, err
	}
	s.auditor.Record(ctx, audit.ActionCreated, resourceType, c.ID, map[string]any{"name": c.Name, "kind": c.Kind})
	s.webhooks.Dispatch(webhook.Event{
		Type:     webhook.EventCollectionCreated,
		Resource: webhook.Resource{Type: resourceType, ID: c.ID, Name: c.Name},
	})
	return &c, nil
}

// Update replaces an existing collection's mutable fields.
func (s *Service) Update(ctx context.Context, c store.Collection) (*store.Collection, error) {
	existing, err := s.store.GetCollection(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(c.Name) == "" {
		c.Name = existing.Name
	}
	// Kind is immutable: a channel rule evaluated against media fields would
	// silently match nothing.
	c.Kind = existing.Kind
	c.Rule = rules.Serialize(rules.Parse(c.Rule))
	c.UpdatedAt = time.Now().UTC()

	if err := s.store.UpsertCollection(ctx, c); err != nil {
		return nil, err
	}
	s.auditor.Record(ctx, audit.ActionUpdated, resourceType, c.ID, map[string]any{"name": c.Name})
	s.webhooks.Dispatch(webhook.Event{
		Type:     webhook.EventCollectionUpdated,
		Resource: webhook.Resource{Type: resourceType, ID: c.ID, Name: c.Name},
	})
	return &c, nil
}

// Delete removes a collection and its materialized members. Idempotent.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.store.DeleteCollection(ctx, id); err != nil {
		return err
	}
	s.auditor.Record(ctx, audit.ActionDeleted, resourceType, id, nil)
	s.webhooks.Dispatch(webhook.Event{
		Type:     webhook.EventCollectionDeleted,
		Resource: webhook.Resource{Type: resourceType, ID: id},
	})
	return nil
}

// MaterializeResult reports one materialization run.
type MaterializeResult struct {
	CollectionID string   `json:"collectionId"`
	Count        int      `json:"count"`
	MemberIDs    []string `json:"memberIds"`
	// Fingerprint identifies the normalized rule the members were computed
	// from, so callers can detect staleness after a rule edit.
	Fingerprint string `json:"fingerprint"`
}

// Materialize evaluates a collection's rule over the given candidate pool
// and persists the resulting member list. A disabled collection materializes
// to an empty list without evaluating its rule. The pool must come from the
// same snapshot a preceding preview used for the two to agree exactly.
func (s *Service) Materialize(ctx context.Context, id string, pool []catalog.Item) (*MaterializeResult, error) {
	c, err := s.store.GetCollection(ctx, id)
	if err != nil {
		return nil, err
	}

	memberIDs := []string{}
	count := 0
	if c.Enabled {
		telemetry.Selections.WithLabelValues(string(c.Kind), "materialize").Inc()
		result := selection.SelectRaw(c.Kind, c.Rule, pool)
		memberIDs = result.Keys()
		count = result.Count
	}

	if err := s.store.SetMembers(ctx, id, memberIDs); err != nil {
		return nil, err
	}

	s.auditor.Record(ctx, audit.ActionMaterialized, resourceType, id, map[string]any{"count": count})
	s.webhooks.Dispatch(webhook.Event{
		Type:     webhook.EventCollectionMaterialized,
		Resource: webhook.Resource{Type: resourceType, ID: id, Name: c.Name},
		Data:     map[string]any{"count": count},
	})

	return &MaterializeResult{
		CollectionID: id,
		Count:        count,
		MemberIDs:    memberIDs,
		Fingerprint:  rules.Fingerprint(c.Rule),
	}, nil
}

// Members returns a collection's current materialized member list.
func (s *Service) Members(ctx context.Context, id string) ([]string, error) {
	return s.store.GetMembers(ctx, id)
}
