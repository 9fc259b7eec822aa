package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/rs/zerolog/log"
)

const createCollectionsTable = `
CREATE TABLE IF NOT EXISTS collections (
	name       TEXT PRIMARY KEY,
	data       JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

const upsertCollection = `
INSERT INTO collections (name, data, updated_at) VALUES ($1, $2, now())
ON CONFLICT (name) DO UPDATE SET data = EXCLUDED.data, updated_at = now()`

// PostgresStore keeps one row per collection in a "collections" table.
type PostgresStore struct {
	db *sqlx.DB
}

// NewPostgres connects to dsn and creates the collections table if needed.
func NewPostgres(ctx context.Context, dsn string) (*PostgresStore, error) {
	log.Info().Msg("Connecting to database...")
	db, err := sqlx.ConnectContext(ctx, "postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetConnMaxLifetime(time.Minute * 3)
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)

	if _, err := db.ExecContext(ctx, createCollectionsTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create collections table: %w", err)
	}

	log.Info().Msg("Database connection successful.")
	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) Close() error {
	log.Info().Msg("Closing database connection.")
	return s.db.Close()
}

func (s *PostgresStore) Get(ctx context.Context, collection string) ([]byte, error) {
	var data []byte
	err := s.db.GetContext(ctx, &data, `SELECT data FROM collections WHERE name = $1`, collection)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("could not read collection %s: %w", collection, err)
	}
	return data, nil
}

// Put upserts every collection inside one transaction.
func (s *PostgresStore) Put(ctx context.Context, snap Snapshot) error {
	names := make([]string, 0, len(snap))
	for name := range snap {
		names = append(names, name)
	}
	sort.Strings(names)

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	for _, name := range names {
		if _, err := tx.ExecContext(ctx, upsertCollection, name, snap[name]); err != nil {
			tx.Rollback() //nolint:errcheck
			return fmt.Errorf("error writing collection %s: %w", name, err)
		}
	}
	return tx.Commit()
}
