package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/aerialtv/aerial/internal/catalog"
)

// MemoryStore is an in-memory implementation of the Store interface.
// It uses maps with an RWMutex and is suitable for development and tests.
type MemoryStore struct {
	mu          sync.RWMutex
	channels    map[string]catalog.Channel
	media       map[string]catalog.MediaItem
	collections map[string]Collection
	members     map[string][]string
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		channels:    make(map[string]catalog.Channel),
		media:       make(map[string]catalog.MediaItem),
		collections: make(map[string]Collection),
		members:     make(map[string][]string),
	}
}

// ListChannels returns all channels ordered by number, then name.
func (m *MemoryStore) ListChannels(ctx context.Context) ([]catalog.Channel, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]catalog.Channel, 0, len(m.channels))
	for _, ch := range m.channels {
		result = append(result, ch)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Number != result[j].Number {
			return result[i].Number < result[j].Number
		}
		return result[i].Name < result[j].Name
	})
	return result, nil
}

// UpsertChannel creates or replaces a channel.
func (m *MemoryStore) UpsertChannel(ctx context.Context, ch catalog.Channel) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.channels[ch.ID] = ch
	return nil
}

// DeleteChannel removes a channel. Idempotent.
func (m *MemoryStore) DeleteChannel(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.channels, id)
	return nil
}

// ListMedia returns all media items ordered by title, then id.
func (m *MemoryStore) ListMedia(ctx context.Context) ([]catalog.MediaItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]catalog.MediaItem, 0, len(m.media))
	for _, item := range m.media {
		result = append(result, item)
	}
	sort.Slice(result, func(i, j int) bool {
		ti, tj := strings.ToLower(result[i].Title), strings.ToLower(result[j].Title)
		if ti != tj {
			return ti < tj
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

// UpsertMediaItem creates or replaces a media item.
func (m *MemoryStore) UpsertMediaItem(ctx context.Context, item catalog.MediaItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.media[item.ID] = item
	return nil
}

// DeleteMediaItem removes a media item. Idempotent.
func (m *MemoryStore) DeleteMediaItem(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.media, id)
	return nil
}

// ListCollections returns all collections ordered by name, then id.
func (m *MemoryStore) ListCollections(ctx context.Context) ([]Collection, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]Collection, 0, len(m.collections))
	for _, c := range m.collections {
		result = append(result, c)
	}
	sort.Slice(result, func(i, j int) bool {
		ni, nj := strings.ToLower(result[i].Name), strings.ToLower(result[j].Name)
		if ni != nj {
			return ni < nj
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

// GetCollection returns a collection by id, or ErrNotFound.
func (m *MemoryStore) GetCollection(ctx context.Context, id string) (*Collection, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	c, ok := m.collections[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &c, nil
}

// UpsertCollection creates or replaces a collection.
func (m *MemoryStore) UpsertCollection(ctx context.Context, c Collection) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c.UpdatedAt.IsZero() {
		c.UpdatedAt = time.Now().UTC()
	}
	m.collections[c.ID] = c
	return nil
}

// DeleteCollection removes a collection and its members. Idempotent.
func (m *MemoryStore) DeleteCollection(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.collections, id)
	delete(m.members, id)
	return nil
}

// SetMembers replaces a collection's materialized member list.
func (m *MemoryStore) SetMembers(ctx context.Context, collectionID string, memberIDs []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.collections[collectionID]; !ok {
		return ErrNotFound
	}
	cp := make([]string, len(memberIDs))
	copy(cp, memberIDs)
	m.members[collectionID] = cp
	return nil
}

// GetMembers returns the materialized member list in stored order.
func (m *MemoryStore) GetMembers(ctx context.Context, collectionID string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if _, ok := m.collections[collectionID]; !ok {
		return nil, ErrNotFound
	}
	stored := m.members[collectionID]
	cp := make([]string, len(stored))
	copy(cp, stored)
	return cp, nil
}

// Close is a no-op for MemoryStore.
func (m *MemoryStore) Close() error {
	return nil
}
