package store

import (
	"context"
	"sort"
	"time"

	bolt "github.com/boltdb/bolt"
)

const bucketName = "collections"

// BoltStore keeps every collection in a single bucket of a BoltDB file.
type BoltStore struct {
	db *bolt.DB
}

// NewBolt opens (or creates) a BoltDB database at path and ensures the
// collections bucket exists.
func NewBolt(path string) (*BoltStore, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, err
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketName))
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &BoltStore{db: db}, nil
}

// Close releases the database file lock.
func (s *BoltStore) Close() error {
	return s.db.Close()
}

// Get returns a copy of the stored snapshot. Bolt values are only valid for
// the life of the transaction, so the bytes are copied out.
func (s *BoltStore) Get(_ context.Context, collection string) ([]byte, error) {
	var out []byte

	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketName))
		v := b.Get([]byte(collection))
		if v == nil {
			return ErrNotFound
		}
		out = append([]byte(nil), v...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Put writes every collection in one Update transaction: either all of them
// land or none do.
func (s *BoltStore) Put(_ context.Context, snap Snapshot) error {
	names := make([]string, 0, len(snap))
	for name := range snap {
		names = append(names, name)
	}
	sort.Strings(names)

	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketName))
		for _, name := range names {
			if err := b.Put([]byte(name), snap[name]); err != nil {
				return err
			}
		}
		return nil
	})
}
