package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aerialtv/aerial/internal/catalog"
	"github.com/aerialtv/aerial/internal/registry"
)

// PostgresStore is a PostgreSQL implementation of the Store interface for
// deployments that share one catalog across several boxes.
type PostgresStore struct {
	pool *pgxpool.Pool
}

const postgresSchema = `
CREATE TABLE IF NOT EXISTS channels (
    id          TEXT PRIMARY KEY,
    group_name  TEXT NOT NULL DEFAULT '',
    name        TEXT NOT NULL DEFAULT '',
    number      DOUBLE PRECISION NOT NULL DEFAULT 0,
    source_name TEXT NOT NULL DEFAULT '',
    source_type TEXT NOT NULL DEFAULT 'm3u',
    hd          BOOLEAN NOT NULL DEFAULT FALSE,
    favorite    BOOLEAN NOT NULL DEFAULT FALSE
);
CREATE TABLE IF NOT EXISTS media_items (
    id          TEXT PRIMARY KEY,
    title       TEXT NOT NULL DEFAULT '',
    genre       TEXT NOT NULL DEFAULT '',
    year        INTEGER NOT NULL DEFAULT 0,
    rating      DOUBLE PRECISION NOT NULL DEFAULT 0,
    duration_ms BIGINT NOT NULL DEFAULT 0,
    type        TEXT NOT NULL DEFAULT 'movie',
    studio      TEXT NOT NULL DEFAULT '',
    resolution  TEXT NOT NULL DEFAULT '',
    added_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE TABLE IF NOT EXISTS collections (
    id         TEXT PRIMARY KEY,
    name       TEXT NOT NULL,
    kind       TEXT NOT NULL,
    rule       TEXT NOT NULL DEFAULT '',
    enabled    BOOLEAN NOT NULL DEFAULT TRUE,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE TABLE IF NOT EXISTS collection_members (
    collection_id TEXT NOT NULL REFERENCES collections (id) ON DELETE CASCADE,
    member_id     TEXT NOT NULL,
    position      INTEGER NOT NULL,
    PRIMARY KEY (collection_id, position)
);`

// NewPostgresStore creates a PostgreSQL-backed store and ensures the schema
// exists.
func NewPostgresStore(ctx context.Context, pool *pgxpool.Pool) (*PostgresStore, error) {
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

// ListChannels returns all channels ordered by number, then name.
func (p *PostgresStore) ListChannels(ctx context.Context) ([]catalog.Channel, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT id, group_name, name, number, source_name, source_type, hd, favorite
		 FROM channels ORDER BY number, name`)
	if err != nil {
		return nil, fmt.Errorf("list channels: %w", err)
	}
	defer rows.Close()

	var channels []catalog.Channel
	for rows.Next() {
		var ch catalog.Channel
		if err := rows.Scan(&ch.ID, &ch.Group, &ch.Name, &ch.Number,
			&ch.SourceName, &ch.SourceType, &ch.HD, &ch.Favorite); err != nil {
			return nil, fmt.Errorf("scan channel: %w", err)
		}
		channels = append(channels, ch)
	}
	return channels, rows.Err()
}

// UpsertChannel creates or replaces a channel.
func (p *PostgresStore) UpsertChannel(ctx context.Context, ch catalog.Channel) error {
	_, err := p.pool.Exec(ctx,
		`INSERT INTO channels (id, group_name, name, number, source_name, source_type, hd, favorite)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (id) DO UPDATE SET
		     group_name = EXCLUDED.group_name, name = EXCLUDED.name,
		     number = EXCLUDED.number, source_name = EXCLUDED.source_name,
		     source_type = EXCLUDED.source_type, hd = EXCLUDED.hd,
		     favorite = EXCLUDED.favorite`,
		ch.ID, ch.Group, ch.Name, ch.Number, ch.SourceName, ch.SourceType, ch.HD, ch.Favorite)
	if err != nil {
		return fmt.Errorf("upsert channel %s: %w", ch.ID, err)
	}
	return nil
}

// DeleteChannel removes a channel. Idempotent.
func (p *PostgresStore) DeleteChannel(ctx context.Context, id string) error {
	if _, err := p.pool.Exec(ctx, `DELETE FROM channels WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete channel %s: %w", id, err)
	}
	return nil
}

// ListMedia returns all media items ordered by title, then id.
func (p *PostgresStore) ListMedia(ctx context.Context) ([]catalog.MediaItem, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT id, title, genre, year, rating, duration_ms, type, studio, resolution, added_at
		 FROM media_items ORDER BY lower(title), id`)
	if err != nil {
		return nil, fmt.Errorf("list media: %w", err)
	}
	defer rows.Close()

	var items []catalog.MediaItem
	for rows.Next() {
		var item catalog.MediaItem
		if err := rows.Scan(&item.ID, &item.Title, &item.Genre, &item.Year, &item.Rating,
			&item.DurationMs, &item.Type, &item.Studio, &item.Resolution, &item.AddedAt); err != nil {
			return nil, fmt.Errorf("scan media item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// UpsertMediaItem creates or replaces a media item.
func (p *PostgresStore) UpsertMediaItem(ctx context.Context, item catalog.MediaItem) error {
	_, err := p.pool.Exec(ctx,
		`INSERT INTO media_items (id, title, genre, year, rating, duration_ms, type, studio, resolution, added_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 ON CONFLICT (id) DO UPDATE SET
		     title = EXCLUDED.title, genre = EXCLUDED.genre, year = EXCLUDED.year,
		     rating = EXCLUDED.rating, duration_ms = EXCLUDED.duration_ms,
		     type = EXCLUDED.type, studio = EXCLUDED.studio,
		     resolution = EXCLUDED.resolution, added_at = EXCLUDED.added_at`,
		item.ID, item.Title, item.Genre, item.Year, item.Rating, item.DurationMs,
		item.Type, item.Studio, item.Resolution, item.AddedAt)
	if err != nil {
		return fmt.Errorf("upsert media item %s: %w", item.ID, err)
	}
	return nil
}

// DeleteMediaItem removes a media item. Idempotent.
func (p *PostgresStore) DeleteMediaItem(ctx context.Context, id string) error {
	if _, err := p.pool.Exec(ctx, `DELETE FROM media_items WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete media item %s: %w", id, err)
	}
	return nil
}

// ListCollections returns all collections ordered by name, then id.
func (p *PostgresStore) ListCollections(ctx context.Context) ([]Collection, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT id, name, kind, rule, enabled, updated_at
		 FROM collections ORDER BY lower(name), id`)
	if err != nil {
		return nil, fmt.Errorf("list collections: %w", err)
	}
	defer rows.Close()

	var collections []Collection
	for rows.Next() {
		c, err := scanCollection(rows)
		if err != nil {
			return nil, err
		}
		collections = append(collections, c)
	}
	return collections, rows.Err()
}

func scanCollection(row pgx.Row) (Collection, error) {
	var c Collection
	var kind string
	var updatedAt time.Time
	if err := row.Scan(&c.ID, &c.Name, &kind, &c.Rule, &c.Enabled, &updatedAt); err != nil {
		return Collection{}, fmt.Errorf("scan collection: %w", err)
	}
	c.Kind = registry.EntityKind(kind)
	c.UpdatedAt = updatedAt.UTC()
	return c, nil
}

// GetCollection returns a collection by id, or ErrNotFound.
func (p *PostgresStore) GetCollection(ctx context.Context, id string) (*Collection, error) {
	row := p.pool.QueryRow(ctx,
		`SELECT id, name, kind, rule, enabled, updated_at FROM collections WHERE id = $1`, id)
	c, err := scanCollection(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

// UpsertCollection creates or replaces a collection.
func (p *PostgresStore) UpsertCollection(ctx context.Context, c Collection) error {
	if c.UpdatedAt.IsZero() {
		c.UpdatedAt = time.Now().UTC()
	}
	_, err := p.pool.Exec(ctx,
		`INSERT INTO collections (id, name, kind, rule, enabled, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (id) DO UPDATE SET
		     name = EXCLUDED.name, kind = EXCLUDED.kind, rule = EXCLUDED.rule,
		     enabled = EXCLUDED.enabled, updated_at = EXCLUDED.updated_at`,
		c.ID, c.Name, string(c.Kind), c.Rule, c.Enabled, c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert collection %s: %w", c.ID, err)
	}
	return nil
}

// DeleteCollection removes a collection; members cascade.
func (p *PostgresStore) DeleteCollection(ctx context.Context, id string) error {
	if _, err := p.pool.Exec(ctx, `DELETE FROM collections WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete collection %s: %w", id, err)
	}
	return nil
}

// SetMembers replaces a collection's materialized member list in one
// transaction, preserving the given order via the position column.
func (p *PostgresStore) SetMembers(ctx context.Context, collectionID string, memberIDs []string) error {
	if _, err := p.GetCollection(ctx, collectionID); err != nil {
		return err
	}

	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin members tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM collection_members WHERE collection_id = $1`, collectionID); err != nil {
		return fmt.Errorf("clear members of %s: %w", collectionID, err)
	}
	for i, memberID := range memberIDs {
		if _, err := tx.Exec(ctx,
			`INSERT INTO collection_members (collection_id, member_id, position) VALUES ($1, $2, $3)`,
			collectionID, memberID, i); err != nil {
			return fmt.Errorf("insert member %s of %s: %w", memberID, collectionID, err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit members of %s: %w", collectionID, err)
	}
	return nil
}

// GetMembers returns the materialized member list in stored order.
func (p *PostgresStore) GetMembers(ctx context.Context, collectionID string) ([]string, error) {
	if _, err := p.GetCollection(ctx, collectionID); err != nil {
		return nil, err
	}
	rows, err := p.pool.Query(ctx,
		`SELECT member_id FROM collection_members WHERE collection_id = $1 ORDER BY position`,
		collectionID)
	if err != nil {
		return nil, fmt.Errorf("list members of %s: %w", collectionID, err)
	}
	defer rows.Close()

	members := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		members = append(members, id)
	}
	return members, rows.Err()
}

// Close closes the connection pool.
func (p *PostgresStore) Close() error {
	p.pool.Close()
	return nil
}
