// Package catalog defines the candidate entities rules are evaluated
// against: live channels and library media items. Each type resolves its
// registry field names to runtime values; lookup is case-insensitive to
// match the registry's tolerance for casing drift in persisted rules.
package catalog

import (
	"strings"
	"time"

	"github.com/aerialtv/aerial/internal/engine"
)

// Item is an engine.Entity with a stable identifier, which is what the
// materialization path persists.
type Item interface {
	engine.Entity
	Key() string
}

// Channel is a live channel ingested from an M3U playlist or Xtream source.
type Channel struct {
	ID         string  `json:"id"`
	Group      string  `json:"group"`
	Name       string  `json:"name"`
	Number     float64 `json:"number"`
	SourceName string  `json:"sourceName"`
	SourceType string  `json:"sourceType"`
	HD         bool    `json:"hd"`
	Favorite   bool    `json:"favorite"`
}

// Key returns the channel's stable identifier.
func (c Channel) Key() string { return c.ID }

// Field resolves a registry field name to the channel's runtime value.
func (c Channel) Field(name string) (any, bool) {
	switch strings.ToLower(name) {
	case "group":
		return c.Group, true
	case "name":
		return c.Name, true
	case "number":
		return c.Number, true
	case "sourcename":
		return c.SourceName, true
	case "sourcetype":
		return c.SourceType, true
	case "hd":
		return c.HD, true
	case "favorite":
		return c.Favorite, true
	}
	return nil, false
}

// MediaItem is one entry in the media library.
type MediaItem struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Genre      string    `json:"genre"`
	Year       int       `json:"year"`
	Rating     float64   `json:"rating"`
	DurationMs int64     `json:"durationMs"`
	Type       string    `json:"type"`
	Studio     string    `json:"studio"`
	Resolution string    `json:"resolution"`
	AddedAt    time.Time `json:"addedAt"`
}

// Key returns the media item's stable identifier.
func (m MediaItem) Key() string { return m.ID }

// Field resolves a registry field name to the item's runtime value.
// duration and addedAt surface as numbers (milliseconds, epoch millis) even
// though the console presents them as durations and dates.
func (m MediaItem) Field(name string) (any, bool) {
	switch strings.ToLower(name) {
	case "title":
		return m.Title, true
	case "genre":
		return m.Genre, true
	case "year":
		return m.Year, true
	case "rating":
		return m.Rating, true
	case "duration":
		return m.DurationMs, true
	case "type":
		return m.Type, true
	case "studio":
		return m.Studio, true
	case "resolution":
		return m.Resolution, true
	case "addedat":
		return m.AddedAt.UnixMilli(), true
	}
	return nil, false
}

// ChannelItems adapts a channel slice to the Item interface for selection.
func ChannelItems(channels []Channel) []Item {
	items := make([]Item, len(channels))
	for i, c := range channels {
		items[i] = c
	}
	return items
}

// MediaItems adapts a media slice to the Item interface for selection.
func MediaItems(media []MediaItem) []Item {
	items := make([]Item, len(media))
	for i, m := range media {
		items[i] = m
	}
	return items
}
