package store_test

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/arkantrust/dealership-admin/backend/store"
)

func TestMemoryStoreCopiesValues(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemory()

	raw := []byte(`[{"id":1}]`)
	if err := s.Put(ctx, store.Snapshot{store.Cars: raw}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	raw[2] = 'X'

	got, err := s.Get(ctx, store.Cars)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(got) != `[{"id":1}]` {
		t.Fatalf("stored value was aliased: %s", got)
	}

	if _, err := s.Get(ctx, store.Users); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

// TestPostgresStore runs only when POSTGRES_TEST_DSN points at a scratch
// database.
func TestPostgresStore(t *testing.T) {
	dsn := os.Getenv("POSTGRES_TEST_DSN")
	if dsn == "" {
		t.Skip("POSTGRES_TEST_DSN not set")
	}
	ctx := context.Background()

	s, err := store.NewPostgres(ctx, dsn)
	if err != nil {
		t.Fatalf("failed to connect: %v", err)
	}
	defer s.Close()

	snap := store.Snapshot{store.Users: []byte(`[{"id":1,"name":"A"}]`)}
	if err := s.Put(ctx, snap); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, err := s.Get(ctx, store.Users)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) == 0 {
		t.Fatal("expected stored users")
	}
	if _, err := s.Get(ctx, "no-such-collection"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
