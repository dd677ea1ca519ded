package collection

import (
	"context"
	"testing"

	"github.com/aerialtv/aerial/internal/audit"
	"github.com/aerialtv/aerial/internal/catalog"
	"github.com/aerialtv/aerial/internal/registry"
	"github.com/aerialtv/aerial/internal/store"
)

func newTestService(t *testing.T) (*Service, *store.MemoryStore, *audit.MemorySink) {
	t.Helper()
	st := store.NewMemoryStore()
	sink := &audit.MemorySink{}
	return NewService(st, audit.NewService(sink), nil), st, sink
}

func testPool() []catalog.Item {
	return catalog.ChannelItems([]catalog.Channel{
		{ID: "ch-1", Group: "News", Name: "World News HD", Number: 101, HD: true},
		{ID: "ch-2", Group: "News", Name: "Local News", Number: 102},
		{ID: "ch-3", Group: "Sports", Name: "Sports One", Number: 201, HD: true},
	})
}

func TestCreateNormalizesRule(t *testing.T) {
	svc, _, sink := newTestService(t)
	ctx := context.Background()

	c, err := svc.Create(ctx, store.Collection{
		Name: "HD Channels",
		Kind: registry.KindChannel,
		// Bare array with a blank row; stored form is wrapped and clean.
		Rule:    `[{"field":"hd","op":"eq","value":"true"},{"field":"name","op":"contains","value":""}]`,
		Enabled: true,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if c.ID == "" {
		t.Error("expected generated id")
	}
	want := `{"conditions":[{"field":"hd","op":"eq","value":"true"}],"match":"all"}`
	if c.Rule != want {
		t.Errorf("stored rule = %s, want %s", c.Rule, want)
	}

	events := sink.Events()
	if len(events) != 1 || events[0].Action != audit.ActionCreated {
		t.Errorf("expected one created audit event, got %+v", events)
	}
}

func TestCreateValidation(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Create(ctx, store.Collection{Name: "  ", Kind: registry.KindChannel}); err == nil {
		t.Error("blank name must be rejected")
	}
	if _, err := svc.Create(ctx, store.Collection{Name: "x", Kind: registry.EntityKind("playlist")}); err == nil {
		t.Error("unknown kind must be rejected")
	}
}

func TestUpdateKeepsKind(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	c, err := svc.Create(ctx, store.Collection{Name: "News", Kind: registry.KindChannel, Rule: "", Enabled: true})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	updated, err := svc.Update(ctx, store.Collection{
		ID:      c.ID,
		Name:    "All News",
		Kind:    registry.KindMedia, // must be ignored
		Rule:    `{"conditions":[{"field":"group","op":"eq","value":"News"}],"match":"any"}`,
		Enabled: false,
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Kind != registry.KindChannel {
		t.Errorf("kind changed to %q; it is immutable", updated.Kind)
	}
	if updated.Name != "All News" {
		t.Errorf("name = %q", updated.Name)
	}

	if _, err := svc.Update(ctx, store.Collection{ID: "missing"}); err != store.ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestMaterialize(t *testing.T) {
	svc, st, sink := newTestService(t)
	ctx := context.Background()

	c, err := svc.Create(ctx, store.Collection{
		Name:    "HD",
		Kind:    registry.KindChannel,
		Rule:    `{"conditions":[{"field":"hd","op":"eq","value":"true"}],"match":"all"}`,
		Enabled: true,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	result, err := svc.Materialize(ctx, c.ID, testPool())
	if err != nil {
		t.Fatalf("Materialize: %v", err)
	}
	if result.Count != 2 {
		t.Fatalf("count = %d, want 2", result.Count)
	}
	if result.MemberIDs[0] != "ch-1" || result.MemberIDs[1] != "ch-3" {
		t.Errorf("members = %v, want pool order [ch-1 ch-3]", result.MemberIDs)
	}
	if result.Fingerprint == "" {
		t.Error("expected a rule fingerprint")
	}

	// Persisted members match the returned ones.
	stored, err := st.GetMembers(ctx, c.ID)
	if err != nil {
		t.Fatalf("GetMembers: %v", err)
	}
	if len(stored) != 2 || stored[0] != "ch-1" {
		t.Errorf("stored members = %v", stored)
	}

	var materialized int
	for _, e := range sink.Events() {
		if e.Action == audit.ActionMaterialized {
			materialized++
		}
	}
	if materialized != 1 {
		t.Errorf("expected one materialized audit event, got %d", materialized)
	}
}

func TestMaterializeDisabledCollection(t *testing.T) {
	svc, st, _ := newTestService(t)
	ctx := context.Background()

	c, err := svc.Create(ctx, store.Collection{
		Name:    "Paused",
		Kind:    registry.KindChannel,
		Rule:    `{"conditions":[{"field":"group","op":"eq","value":"News"}],"match":"any"}`,
		Enabled: false,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	// Disabled collections materialize to empty without evaluating.
	result, err := svc.Materialize(ctx, c.ID, testPool())
	if err != nil {
		t.Fatalf("Materialize: %v", err)
	}
	if result.Count != 0 || len(result.MemberIDs) != 0 {
		t.Errorf("disabled collection must produce no members, got %v", result.MemberIDs)
	}

	stored, _ := st.GetMembers(ctx, c.ID)
	if len(stored) != 0 {
		t.Errorf("stored members = %v, want empty", stored)
	}
}

func TestMaterializeMissingCollection(t *testing.T) {
	svc, _, _ := newTestService(t)
	if _, err := svc.Materialize(context.Background(), "missing", testPool()); err != store.ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteIsIdempotent(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	c, err := svc.Create(ctx, store.Collection{Name: "Temp", Kind: registry.KindMedia, Enabled: true})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := svc.Delete(ctx, c.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := svc.Delete(ctx, c.ID); err != nil {
		t.Fatalf("second Delete: %v", err)
	}
	if _, err := svc.Get(ctx, c.ID); err != store.ErrNotFound {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
}
