package reconciler

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ChangeKind names what a committed change did.
type ChangeKind string

const (
	CarCreated         ChangeKind = "car.created"
	CarUpdated         ChangeKind = "car.updated"
	CarDeleted         ChangeKind = "car.deleted"
	OrderCreated       ChangeKind = "order.created"
	OrderUpdated       ChangeKind = "order.updated"
	OrderStatusChanged ChangeKind = "order.status_changed"
	OrderDeleted       ChangeKind = "order.deleted"
	UserCreated        ChangeKind = "user.created"
	UserUpdated        ChangeKind = "user.updated"
	UserDeleted        ChangeKind = "user.deleted"
	StockReserved      ChangeKind = "stock.reserved"
	StockReleased      ChangeKind = "stock.released"
)

// Collection returns the collection a change of this kind touched.
func (k ChangeKind) Collection() string {
	switch {
	case strings.HasPrefix(string(k), "car."), strings.HasPrefix(string(k), "stock."):
		return "cars"
	case strings.HasPrefix(string(k), "order."):
		return "orders"
	case strings.HasPrefix(string(k), "user."):
		return "users"
	}
	return ""
}

// Change is one committed mutation, reported to observers after the store
// has accepted it.
type Change struct {
	ID         string     `json:"id"`
	Kind       ChangeKind `json:"kind"`
	Collection string     `json:"collection"`
	EntityID   string     `json:"entityId"`
	At         time.Time  `json:"at"`
}

func newChange(kind ChangeKind, entityID string, at time.Time) Change {
	return Change{
		ID:         uuid.New().String(),
		Kind:       kind,
		Collection: kind.Collection(),
		EntityID:   entityID,
		At:         at.UTC(),
	}
}

// Notifier observes committed changes. Notify must not block for long and
// cannot veto a change: by the time it runs the change is already stored.
type Notifier interface {
	Notify(ctx context.Context, changes ...Change)
}

type nopNotifier struct{}

func (nopNotifier) Notify(context.Context, ...Change) {}
