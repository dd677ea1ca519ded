package store

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/qustavo/dotsql"

	"github.com/aerialtv/aerial/internal/catalog"
	"github.com/aerialtv/aerial/internal/registry"
)

//go:embed queries/*.sql
var queriesFS embed.FS

// SQLiteStore is a SQLite-backed implementation of the Store interface.
// It is the default backend for a single-box DVR deployment. Named queries
// live in embedded .sql files and are resolved through dotsql.
type SQLiteStore struct {
	db  *sqlx.DB
	dot *dotsql.DotSql
}

// NewSQLiteStore opens (creating if necessary) the database at path and
// applies the schema. Use ":memory:" for an ephemeral store in tests.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite3", path+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// SQLite serializes writers; a single connection avoids SQLITE_BUSY
	// under concurrent admin requests.
	db.SetMaxOpenConns(1)

	schema, err := queriesFS.ReadFile("queries/schema.sql")
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("read embedded schema: %w", err)
	}
	if _, err := db.Exec(string(schema)); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	queries, err := queriesFS.ReadFile("queries/queries.sql")
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("read embedded queries: %w", err)
	}
	dot, err := dotsql.LoadFromString(string(queries))
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("parse queries: %w", err)
	}

	return &SQLiteStore{db: db, dot: dot}, nil
}

func (s *SQLiteStore) raw(name string) (string, error) {
	q, err := s.dot.Raw(name)
	if err != nil {
		return "", fmt.Errorf("query %q not found: %w", name, err)
	}
	return q, nil
}

type channelRow struct {
	ID         string  `db:"id"`
	GroupName  string  `db:"group_name"`
	Name       string  `db:"name"`
	Number     float64 `db:"number"`
	SourceName string  `db:"source_name"`
	SourceType string  `db:"source_type"`
	HD         bool    `db:"hd"`
	Favorite   bool    `db:"favorite"`
}

func (r channelRow) toChannel() catalog.Channel {
	return catalog.Channel{
		ID:         r.ID,
		Group:      r.GroupName,
		Name:       r.Name,
		Number:     r.Number,
		SourceName: r.SourceName,
		SourceType: r.SourceType,
		HD:         r.HD,
		Favorite:   r.Favorite,
	}
}

// ListChannels returns all channels ordered by number, then name.
func (s *SQLiteStore) ListChannels(ctx context.Context) ([]catalog.Channel, error) {
	q, err := s.raw("list-channels")
	if err != nil {
		return nil, err
	}
	var rows []channelRow
	if err := s.db.SelectContext(ctx, &rows, q); err != nil {
		return nil, fmt.Errorf("list channels: %w", err)
	}
	channels := make([]catalog.Channel, len(rows))
	for i, r := range rows {
		channels[i] = r.toChannel()
	}
	return channels, nil
}

// UpsertChannel creates or replaces a channel.
func (s *SQLiteStore) UpsertChannel(ctx context.Context, ch catalog.Channel) error {
	q, err := s.raw("upsert-channel")
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, q,
		ch.ID, ch.Group, ch.Name, ch.Number, ch.SourceName, ch.SourceType, ch.HD, ch.Favorite)
	if err != nil {
		return fmt.Errorf("upsert channel %s: %w", ch.ID, err)
	}
	return nil
}

// DeleteChannel removes a channel. Idempotent.
func (s *SQLiteStore) DeleteChannel(ctx context.Context, id string) error {
	q, err := s.raw("delete-channel")
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, q, id); err != nil {
		return fmt.Errorf("delete channel %s: %w", id, err)
	}
	return nil
}

type mediaRow struct {
	ID         string  `db:"id"`
	Title      string  `db:"title"`
	Genre      string  `db:"genre"`
	Year       int     `db:"year"`
	Rating     float64 `db:"rating"`
	DurationMs int64   `db:"duration_ms"`
	Type       string  `db:"type"`
	Studio     string  `db:"studio"`
	Resolution string  `db:"resolution"`
	AddedAt    int64   `db:"added_at"`
}

func (r mediaRow) toMediaItem() catalog.MediaItem {
	return catalog.MediaItem{
		ID:         r.ID,
		Title:      r.Title,
		Genre:      r.Genre,
		Year:       r.Year,
		Rating:     r.Rating,
		DurationMs: r.DurationMs,
		Type:       r.Type,
		Studio:     r.Studio,
		Resolution: r.Resolution,
		AddedAt:    time.UnixMilli(r.AddedAt).UTC(),
	}
}

// ListMedia returns all media items ordered by title, then id.
func (s *SQLiteStore) ListMedia(ctx context.Context) ([]catalog.MediaItem, error) {
	q, err := s.raw("list-media")
	if err != nil {
		return nil, err
	}
	var rows []mediaRow
	if err := s.db.SelectContext(ctx, &rows, q); err != nil {
		return nil, fmt.Errorf("list media: %w", err)
	}
	items := make([]catalog.MediaItem, len(rows))
	for i, r := range rows {
		items[i] = r.toMediaItem()
	}
	return items, nil
}

// UpsertMediaItem creates or replaces a media item.
func (s *SQLiteStore) UpsertMediaItem(ctx context.Context, item catalog.MediaItem) error {
	q, err := s.raw("upsert-media")
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, q,
		item.ID, item.Title, item.Genre, item.Year, item.Rating, item.DurationMs,
		item.Type, item.Studio, item.Resolution, item.AddedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("upsert media item %s: %w", item.ID, err)
	}
	return nil
}

// DeleteMediaItem removes a media item. Idempotent.
func (s *SQLiteStore) DeleteMediaItem(ctx context.Context, id string) error {
	q, err := s.raw("delete-media")
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, q, id); err != nil {
		return fmt.Errorf("delete media item %s: %w", id, err)
	}
	return nil
}

type collectionRow struct {
	ID        string `db:"id"`
	Name      string `db:"name"`
	Kind      string `db:"kind"`
	Rule      string `db:"rule"`
	Enabled   bool   `db:"enabled"`
	UpdatedAt int64  `db:"updated_at"`
}

func (r collectionRow) toCollection() Collection {
	return Collection{
		ID:        r.ID,
		Name:      r.Name,
		Kind:      registry.EntityKind(r.Kind),
		Rule:      r.Rule,
		Enabled:   r.Enabled,
		UpdatedAt: time.UnixMilli(r.UpdatedAt).UTC(),
	}
}

// ListCollections returns all collections ordered by name, then id.
func (s *SQLiteStore) ListCollections(ctx context.Context) ([]Collection, error) {
	q, err := s.raw("list-collections")
	if err != nil {
		return nil, err
	}
	var rows []collectionRow
	if err := s.db.SelectContext(ctx, &rows, q); err != nil {
		return nil, fmt.Errorf("list collections: %w", err)
	}
	collections := make([]Collection, len(rows))
	for i, r := range rows {
		collections[i] = r.toCollection()
	}
	return collections, nil
}

// GetCollection returns a collection by id, or ErrNotFound.
func (s *SQLiteStore) GetCollection(ctx context.Context, id string) (*Collection, error) {
	q, err := s.raw("get-collection")
	if err != nil {
		return nil, err
	}
	var row collectionRow
	if err := s.db.GetContext(ctx, &row, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get collection %s: %w", id, err)
	}
	c := row.toCollection()
	return &c, nil
}

// UpsertCollection creates or replaces a collection.
func (s *SQLiteStore) UpsertCollection(ctx context.Context, c Collection) error {
	q, err := s.raw("upsert-collection")
	if err != nil {
		return err
	}
	if c.UpdatedAt.IsZero() {
		c.UpdatedAt = time.Now().UTC()
	}
	_, err = s.db.ExecContext(ctx, q,
		c.ID, c.Name, string(c.Kind), c.Rule, c.Enabled, c.UpdatedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("upsert collection %s: %w", c.ID, err)
	}
	return nil
}

// DeleteCollection removes a collection; members cascade.
func (s *SQLiteStore) DeleteCollection(ctx context.Context, id string) error {
	q, err := s.raw("delete-collection")
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, q, id); err != nil {
		return fmt.Errorf("delete collection %s: %w", id, err)
	}
	return nil
}

// SetMembers replaces a collection's materialized member list in one
// transaction, preserving the given order via the position column.
func (s *SQLiteStore) SetMembers(ctx context.Context, collectionID string, memberIDs []string) error {
	if _, err := s.GetCollection(ctx, collectionID); err != nil {
		return err
	}

	deleteQ, err := s.raw("delete-members")
	if err != nil {
		return err
	}
	insertQ, err := s.raw("insert-member")
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin members tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, deleteQ, collectionID); err != nil {
		return fmt.Errorf("clear members of %s: %w", collectionID, err)
	}
	for i, memberID := range memberIDs {
		if _, err := tx.ExecContext(ctx, insertQ, collectionID, memberID, i); err != nil {
			return fmt.Errorf("insert member %s of %s: %w", memberID, collectionID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit members of %s: %w", collectionID, err)
	}
	return nil
}

// GetMembers returns the materialized member list in stored order.
func (s *SQLiteStore) GetMembers(ctx context.Context, collectionID string) ([]string, error) {
	if _, err := s.GetCollection(ctx, collectionID); err != nil {
		return nil, err
	}
	q, err := s.raw("list-members")
	if err != nil {
		return nil, err
	}
	members := []string{}
	if err := s.db.SelectContext(ctx, &members, q, collectionID); err != nil {
		return nil, fmt.Errorf("list members of %s: %w", collectionID, err)
	}
	return members, nil
}

// Close closes the underlying database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
