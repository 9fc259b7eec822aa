// Package store persists the console's collections.
//
// The storage model is deliberately flat: one key per collection ("cars",
// "orders", "users") and one value per key holding the whole collection as a
// JSON array. Every write replaces the stored value wholesale. There are no
// partial updates and no schema versions.
//
// Three backends share that model: BoltDB (the default, a single local file),
// PostgreSQL (one row per collection) and an in-memory map used by tests and
// throwaway runs.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// Collection names.
const (
	Cars   = "cars"
	Orders = "orders"
	Users  = "users"
)

// ErrNotFound is returned when a collection has never been written.
var ErrNotFound = errors.New("collection not found")

// Store is implemented by every backend.
type Store interface {
	// Get returns the raw snapshot stored under collection, or ErrNotFound.
	Get(ctx context.Context, collection string) ([]byte, error)

	// Put overwrites every collection in snap. Backends write all of them in
	// one transaction where they can.
	Put(ctx context.Context, snap Snapshot) error

	Close() error
}

// Getter is the read half of Store.
type Getter interface {
	Get(ctx context.Context, collection string) ([]byte, error)
}

// Snapshot maps collection names to their encoded contents.
type Snapshot map[string][]byte

// Add encodes items and stores them under collection.
func (s Snapshot) Add(collection string, items any) error {
	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("encode %s: %w", collection, err)
	}
	s[collection] = data
	return nil
}

// Load reads and decodes one collection. It returns ErrNotFound (wrapped)
// when the collection is absent so callers can fall back to seed data.
func Load[T any](ctx context.Context, g Getter, collection string) ([]T, error) {
	data, err := g.Get(ctx, collection)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", collection, err)
	}
	var items []T
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("decode %s: %w", collection, err)
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}
