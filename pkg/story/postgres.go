package story

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresConfig configures a PostgresStore.
type PostgresConfig struct {
	DSN             string
	MaxConnections  int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

const schema = `
CREATE TABLE IF NOT EXISTS story_cache (
	owner    TEXT    NOT NULL,
	id       TEXT    NOT NULL,
	position INTEGER NOT NULL,
	data     JSONB   NOT NULL,
	PRIMARY KEY (owner, id)
);
CREATE TABLE IF NOT EXISTS story_favorites (
	owner    TEXT        NOT NULL,
	id       TEXT        NOT NULL,
	data     JSONB       NOT NULL,
	added_at TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (owner, id)
);
CREATE TABLE IF NOT EXISTS story_queue (
	owner      TEXT        NOT NULL,
	id         TEXT        NOT NULL,
	data       JSONB       NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (owner, id)
);`

// PostgresStore keeps the offline store in PostgreSQL.
type PostgresStore struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

// NewPostgresStore connects, pings and creates the schema if needed.
func NewPostgresStore(ctx context.Context, cfg PostgresConfig) (*PostgresStore, error) {
	if cfg.MaxConnections == 0 {
		cfg.MaxConnections = 10
	}
	if cfg.ConnMaxLifetime == 0 {
		cfg.ConnMaxLifetime = time.Hour
	}
	if cfg.ConnMaxIdleTime == 0 {
		cfg.ConnMaxIdleTime = 30 * time.Minute
	}

	poolConfig, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to parse DSN: %w", err)
	}
	poolConfig.MaxConns = int32(cfg.MaxConnections)
	poolConfig.MaxConnLifetime = cfg.ConnMaxLifetime
	poolConfig.MaxConnIdleTime = cfg.ConnMaxIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	return &PostgresStore{pool: pool, now: time.Now}, nil
}

// CacheStories implements Store.
func (p *PostgresStore) CacheStories(ctx context.Context, owner string, stories []Story) error {
	return pgx.BeginFunc(ctx, p.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM story_cache WHERE owner = $1`, owner); err != nil {
			return err
		}
		batch := &pgx.Batch{}
		for i, s := range stories {
			data, err := json.Marshal(s)
			if err != nil {
				return err
			}
			batch.Queue(`INSERT INTO story_cache (owner, id, position, data) VALUES ($1, $2, $3, $4)
				ON CONFLICT (owner, id) DO UPDATE SET position = EXCLUDED.position, data = EXCLUDED.data`,
				owner, s.ID, i, data)
		}
		return tx.SendBatch(ctx, batch).Close()
	})
}

// CachedStories implements Store.
func (p *PostgresStore) CachedStories(ctx context.Context, owner string) ([]Story, error) {
	rows, err := p.pool.Query(ctx, `SELECT data FROM story_cache WHERE owner = $1 ORDER BY position`, owner)
	if err != nil {
		return nil, err
	}
	return collectJSON[Story](rows)
}

// CachedStory implements Store.
func (p *PostgresStore) CachedStory(ctx context.Context, owner, id string) (Story, error) {
	var data []byte
	err := p.pool.QueryRow(ctx, `
		SELECT data FROM story_cache WHERE owner = $1 AND id = $2
		UNION ALL
		SELECT data FROM story_favorites WHERE owner = $1 AND id = $2
		LIMIT 1`, owner, id).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return Story{}, ErrNotFound
	}
	if err != nil {
		return Story{}, err
	}
	var s Story
	if err := json.Unmarshal(data, &s); err != nil {
		return Story{}, fmt.Errorf("story: decode cached story: %w", err)
	}
	return s, nil
}

// AddFavorite implements Store.
func (p *PostgresStore) AddFavorite(ctx context.Context, owner string, s Story) error {
	data, err := json.Marshal(s)
	if err != nil {
		return err
	}
	_, err = p.pool.Exec(ctx, `INSERT INTO story_favorites (owner, id, data, added_at) VALUES ($1, $2, $3, $4)
		ON CONFLICT (owner, id) DO UPDATE SET data = EXCLUDED.data, added_at = EXCLUDED.added_at`,
		owner, s.ID, data, p.now())
	return err
}

// RemoveFavorite implements Store.
func (p *PostgresStore) RemoveFavorite(ctx context.Context, owner, id string) error {
	_, err := p.pool.Exec(ctx, `DELETE FROM story_favorites WHERE owner = $1 AND id = $2`, owner, id)
	return err
}

// Favorites implements Store.
func (p *PostgresStore) Favorites(ctx context.Context, owner string) ([]Story, error) {
	rows, err := p.pool.Query(ctx, `SELECT data FROM story_favorites WHERE owner = $1 ORDER BY added_at DESC, id`, owner)
	if err != nil {
		return nil, err
	}
	return collectJSON[Story](rows)
}

// IsFavorite implements Store.
func (p *PostgresStore) IsFavorite(ctx context.Context, owner, id string) (bool, error) {
	var exists bool
	err := p.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM story_favorites WHERE owner = $1 AND id = $2)`, owner, id).Scan(&exists)
	return exists, err
}

// Enqueue implements Store.
func (p *PostgresStore) Enqueue(ctx context.Context, owner string, item Pending) error {
	data, err := json.Marshal(item)
	if err != nil {
		return err
	}
	_, err = p.pool.Exec(ctx, `INSERT INTO story_queue (owner, id, data, created_at) VALUES ($1, $2, $3, $4)
		ON CONFLICT (owner, id) DO UPDATE SET data = EXCLUDED.data`,
		owner, item.ID, data, item.CreatedAt)
	return err
}

// Pending implements Store.
func (p *PostgresStore) Pending(ctx context.Context, owner string) ([]Pending, error) {
	rows, err := p.pool.Query(ctx, `SELECT data FROM story_queue WHERE owner = $1 ORDER BY created_at, id`, owner)
	if err != nil {
		return nil, err
	}
	return collectJSON[Pending](rows)
}

// Dequeue implements Store.
func (p *PostgresStore) Dequeue(ctx context.Context, owner, id string) error {
	_, err := p.pool.Exec(ctx, `DELETE FROM story_queue WHERE owner = $1 AND id = $2`, owner, id)
	return err
}

// Clear implements Store.
func (p *PostgresStore) Clear(ctx context.Context, owner string) error {
	return pgx.BeginFunc(ctx, p.pool, func(tx pgx.Tx) error {
		for _, table := range []string{"story_cache", "story_favorites", "story_queue"} {
			if _, err := tx.Exec(ctx, `DELETE FROM `+table+` WHERE owner = $1`, owner); err != nil {
				return err
			}
		}
		return nil
	})
}

// Close implements Store.
func (p *PostgresStore) Close() error {
	p.pool.Close()
	return nil
}

func collectJSON[T any](rows pgx.Rows) ([]T, error) {
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (T, error) {
		var data []byte
		var v T
		if err := row.Scan(&data); err != nil {
			return v, err
		}
		err := json.Unmarshal(data, &v)
		return v, err
	})
}
