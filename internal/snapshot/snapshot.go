// Package snapshot holds an atomically swapped in-memory copy of the
// candidate pools. Previews evaluate against a snapshot rather than hitting
// the store per request; the ETag lets clients skip unchanged results with
// If-None-Match, and it changes exactly when some pool content changed.
package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/aerialtv/aerial/internal/catalog"
	"github.com/aerialtv/aerial/internal/registry"
	"github.com/aerialtv/aerial/internal/store"
)

// Snapshot is one immutable view of the catalog. Pools are in store order
// and must not be mutated after Update.
type Snapshot struct {
	ETag     string               `json:"etag"`
	Channels []catalog.Channel    `json:"channels"`
	Media    []catalog.MediaItem  `json:"media"`
	BuiltAt  time.Time            `json:"builtAt"`
}

// Pool returns the candidate pool for an entity kind as selection input.
// Unknown kinds yield an empty pool, never an error.
func (s *Snapshot) Pool(kind registry.EntityKind) []catalog.Item {
	switch kind {
	case registry.KindChannel:
		return catalog.ChannelItems(s.Channels)
	case registry.KindMedia:
		return catalog.MediaItems(s.Media)
	}
	return nil
}

var current atomic.Pointer[Snapshot]

// Load returns the current snapshot. Before the first Update it returns an
// empty snapshot, so previews degrade to "no matches" during startup.
func Load() *Snapshot {
	if s := current.Load(); s != nil {
		return s
	}
	return &Snapshot{ETag: `W/"0"`, Channels: []catalog.Channel{}, Media: []catalog.MediaItem{}, BuiltAt: time.Now().UTC()}
}

// Update swaps in a new snapshot and notifies subscribers.
func Update(s *Snapshot) {
	current.Store(s)
	publishUpdate(s.ETag)
}

// Build constructs a snapshot from both catalog pools.
func Build(channels []catalog.Channel, media []catalog.MediaItem) *Snapshot {
	if channels == nil {
		channels = []catalog.Channel{}
	}
	if media == nil {
		media = []catalog.MediaItem{}
	}
	blob, _ := json.Marshal(struct {
		Channels []catalog.Channel   `json:"channels"`
		Media    []catalog.MediaItem `json:"media"`
	}{channels, media})
	etag := `W/"` + strconv.FormatUint(xxhash.Sum64(blob), 16) + `"`
	return &Snapshot{ETag: etag, Channels: channels, Media: media, BuiltAt: time.Now().UTC()}
}

// Rebuild loads both pools from the store, builds a snapshot and swaps it in.
func Rebuild(ctx context.Context, st store.Store) (*Snapshot, error) {
	channels, err := st.ListChannels(ctx)
	if err != nil {
		return nil, fmt.Errorf("load channels: %w", err)
	}
	media, err := st.ListMedia(ctx)
	if err != nil {
		return nil, fmt.Errorf("load media: %w", err)
	}
	s := Build(channels, media)
	Update(s)
	return s, nil
}
