// Package reconciler owns the car inventory, the order ledger and the staff
// list, and keeps car stock consistent with order status.
//
// The contract it maintains: whenever no call is in flight, every car's stock
// equals the stock it was provisioned with minus the quantities held by the
// orders currently in status completed. Entering completed reserves stock
// (after a guard that can refuse), leaving completed releases it, and
// deleting a completed order releases it too.
//
// Every mutating call follows the same path under a single writer lock:
//
//	validate -> copy affected collections -> guard -> apply -> persist -> swap -> notify
//
// A guard or persistence failure returns before the swap, so the in-memory
// collections only ever move from one consistent state to the next.
package reconciler

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/arkantrust/dealership-admin/backend/models"
	"github.com/arkantrust/dealership-admin/backend/seed"
	"github.com/arkantrust/dealership-admin/backend/store"
)

// Store is the persistence the reconciler needs: whole-collection reads at
// start-up and whole-collection writes after every change.
type Store interface {
	Get(ctx context.Context, collection string) ([]byte, error)
	Put(ctx context.Context, snap store.Snapshot) error
}

// Reconciler is safe for concurrent use; calls are serialized.
type Reconciler struct {
	mu       sync.RWMutex
	store    Store
	notifier Notifier
	now      func() time.Time

	cars   map[int64]models.Car
	orders map[string]models.Order
	users  map[int64]models.User
}

// Option configures a Reconciler.
type Option func(*Reconciler)

// WithNotifier sets the observer told about every committed change.
func WithNotifier(n Notifier) Option {
	return func(r *Reconciler) { r.notifier = n }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(r *Reconciler) { r.now = now }
}

// New returns an empty Reconciler backed by s. Call Load before serving.
func New(s Store, opts ...Option) *Reconciler {
	r := &Reconciler{
		store:    s,
		notifier: nopNotifier{},
		now:      time.Now,
		cars:     make(map[int64]models.Car),
		orders:   make(map[string]models.Order),
		users:    make(map[int64]models.User),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Load reads every collection from the store. A collection that was never
// written is taken from fallback and written back so the next start finds it.
func (r *Reconciler) Load(ctx context.Context, fallback seed.Dataset) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	seeded := store.Snapshot{}

	cars, err := loadOr(ctx, r.store, store.Cars, fallback.Cars, seeded)
	if err != nil {
		return err
	}
	orders, err := loadOr(ctx, r.store, store.Orders, fallback.Orders, seeded)
	if err != nil {
		return err
	}
	users, err := loadOr(ctx, r.store, store.Users, fallback.Users, seeded)
	if err != nil {
		return err
	}

	if len(seeded) > 0 {
		if err := r.store.Put(ctx, seeded); err != nil {
			return fmt.Errorf("persist seed data: %w", err)
		}
	}

	r.cars = make(map[int64]models.Car, len(cars))
	for _, c := range cars {
		r.cars[c.ID] = c
	}
	r.orders = make(map[string]models.Order, len(orders))
	for _, o := range orders {
		r.orders[o.ID] = o.Clone()
	}
	r.users = make(map[int64]models.User, len(users))
	for _, u := range users {
		r.users[u.ID] = u
	}

	log.Info().
		Int("cars", len(r.cars)).
		Int("orders", len(r.orders)).
		Int("users", len(r.users)).
		Msg("Collections loaded")
	return nil
}

func loadOr[T any](ctx context.Context, s Store, collection string, fallback []T, seeded store.Snapshot) ([]T, error) {
	items, err := store.Load[T](ctx, s, collection)
	if err == nil {
		return items, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}
	log.Info().Str("collection", collection).Msg("No stored collection found, using seed data")
	if err := seeded.Add(collection, fallback); err != nil {
		return nil, err
	}
	return append([]T(nil), fallback...), nil
}

// txn is a working copy of the collections one call is about to change. A
// nil map means the call does not touch that collection.
type txn struct {
	cars    map[int64]models.Car
	orders  map[string]models.Order
	users   map[int64]models.User
	changes []Change
}

func (r *Reconciler) editCars(tx *txn) map[int64]models.Car {
	if tx.cars == nil {
		tx.cars = maps.Clone(r.cars)
	}
	return tx.cars
}

func (r *Reconciler) editOrders(tx *txn) map[string]models.Order {
	if tx.orders == nil {
		tx.orders = maps.Clone(r.orders)
	}
	return tx.orders
}

func (r *Reconciler) editUsers(tx *txn) map[int64]models.User {
	if tx.users == nil {
		tx.users = maps.Clone(r.users)
	}
	return tx.users
}

func (r *Reconciler) record(tx *txn, kind ChangeKind, entityID string) {
	tx.changes = append(tx.changes, newChange(kind, entityID, r.now()))
}

// commit persists the touched collections and, only once the store accepted
// them, swaps them in and notifies observers. Callers hold r.mu.
func (r *Reconciler) commit(ctx context.Context, tx *txn) error {
	snap := store.Snapshot{}
	if tx.cars != nil {
		if err := snap.Add(store.Cars, sortedCars(tx.cars)); err != nil {
			return err
		}
	}
	if tx.orders != nil {
		if err := snap.Add(store.Orders, sortedOrders(tx.orders)); err != nil {
			return err
		}
	}
	if tx.users != nil {
		if err := snap.Add(store.Users, sortedUsers(tx.users)); err != nil {
			return err
		}
	}
	if len(snap) == 0 {
		return nil
	}

	if err := r.store.Put(ctx, snap); err != nil {
		log.Error().Err(err).Msg("Failed to persist collections")
		return fmt.Errorf("persist collections: %w", err)
	}

	if tx.cars != nil {
		r.cars = tx.cars
	}
	if tx.orders != nil {
		r.orders = tx.orders
	}
	if tx.users != nil {
		r.users = tx.users
	}

	for _, c := range tx.changes {
		log.Debug().Str("kind", string(c.Kind)).Str("entityId", c.EntityID).Msg("Change committed")
	}
	if len(tx.changes) > 0 {
		r.notifier.Notify(ctx, tx.changes...)
	}
	return nil
}
