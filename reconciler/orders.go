package reconciler

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/arkantrust/dealership-admin/backend/models"
)

// Orders returns every order sorted by sequence number.
func (r *Reconciler) Orders() []models.Order {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return sortedOrders(r.orders)
}

// Order returns one order by id.
func (r *Reconciler) Order(id string) (models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	o, ok := r.orders[id]
	if !ok {
		return models.Order{}, ErrOrderNotFound
	}
	return o.Clone(), nil
}

// NextOrderID is the id the next created order will get.
func (r *Reconciler) NextOrderID() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.nextOrderID()
}

func (r *Reconciler) nextOrderID() string {
	ids := make([]string, 0, len(r.orders))
	for id := range r.orders {
		ids = append(ids, id)
	}
	return NextOrderID(ids...)
}

// CreateOrder assigns the next id and stores o. An order created directly in
// status completed reserves its stock like any other completion and fails the
// same way when the guard refuses.
func (r *Reconciler) CreateOrder(ctx context.Context, o models.Order) (models.Order, error) {
	o = o.Clone()
	o.Normalize(r.now())
	if err := o.Validate(); err != nil {
		return models.Order{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	o.ID = r.nextOrderID()
	tx := &txn{}

	if o.Status == models.OrderStatusCompleted {
		if err := r.reserve(tx, o); err != nil {
			return models.Order{}, err
		}
	}

	r.editOrders(tx)[o.ID] = o
	r.record(tx, OrderCreated, o.ID)

	if err := r.commit(ctx, tx); err != nil {
		return models.Order{}, err
	}
	log.Info().Str("orderId", o.ID).Str("status", string(o.Status)).Msg("Order created")
	return o.Clone(), nil
}

// ChangeStatus moves an order to status to.
//
//	pending/cancelled -> completed   guard, then reserve
//	completed -> pending/cancelled   release
//	pending <-> cancelled            no stock effect
//	X -> X                           no-op, returns the order unchanged
//
// On a guard failure neither stock nor status changes and the error is a
// *MissingCarError or *InsufficientStockError.
func (r *Reconciler) ChangeStatus(ctx context.Context, id string, to models.OrderStatus) (models.Order, error) {
	if !to.Valid() {
		return models.Order{}, &models.ValidationError{Fields: []models.FieldError{
			{Field: "status", Message: fmt.Sprintf("unknown status %q", to)},
		}}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	o, ok := r.orders[id]
	if !ok {
		return models.Order{}, ErrOrderNotFound
	}
	from := o.Status
	if from == to {
		return o.Clone(), nil
	}

	tx := &txn{}
	switch {
	case to == models.OrderStatusCompleted:
		if err := r.reserve(tx, o); err != nil {
			return models.Order{}, err
		}
	case from == models.OrderStatusCompleted:
		r.release(tx, o)
	}

	o = o.Clone()
	o.Status = to
	r.editOrders(tx)[id] = o
	r.record(tx, OrderStatusChanged, id)

	if err := r.commit(ctx, tx); err != nil {
		return models.Order{}, err
	}
	log.Info().Str("orderId", id).Str("from", string(from)).Str("to", string(to)).Msg("Order status changed")
	return o.Clone(), nil
}

// DeleteOrder removes an order, releasing its stock first if it was
// completed. Releases cannot fail, so neither can the deletion on stock
// grounds. Deleting an unknown id is a no-op.
func (r *Reconciler) DeleteOrder(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	o, ok := r.orders[id]
	if !ok {
		return nil
	}

	tx := &txn{}
	if o.Status == models.OrderStatusCompleted {
		r.release(tx, o)
	}
	delete(r.editOrders(tx), id)
	r.record(tx, OrderDeleted, id)

	if err := r.commit(ctx, tx); err != nil {
		return err
	}
	log.Info().Str("orderId", id).Msg("Order deleted")
	return nil
}

// EditOrder replaces every field of order id except the id itself.
//
// The old version's stock is released if it was completed, then the new
// version's stock is reserved if it is completed, both on one working copy of
// the inventory. The guard sees the post-release counts. If it refuses, the
// working copy is dropped: the release is not kept and the order is
// unchanged.
func (r *Reconciler) EditOrder(ctx context.Context, id string, o models.Order) (models.Order, error) {
	o = o.Clone()
	o.Normalize(r.now())
	if err := o.Validate(); err != nil {
		return models.Order{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	old, ok := r.orders[id]
	if !ok {
		return models.Order{}, ErrOrderNotFound
	}
	o.ID = id

	tx := &txn{}
	if old.Status == models.OrderStatusCompleted {
		r.release(tx, old)
	}
	if o.Status == models.OrderStatusCompleted {
		if err := r.reserve(tx, o); err != nil {
			return models.Order{}, err
		}
	}

	r.editOrders(tx)[id] = o
	r.record(tx, OrderUpdated, id)

	if err := r.commit(ctx, tx); err != nil {
		return models.Order{}, err
	}
	log.Info().Str("orderId", id).Str("status", string(o.Status)).Msg("Order updated")
	return o.Clone(), nil
}

// reserve guards and then applies the reserve delta for o on the working
// copy of the inventory.
func (r *Reconciler) reserve(tx *txn, o models.Order) error {
	need := Aggregate(o.Items)
	cars := tx.cars
	if cars == nil {
		cars = r.cars
	}
	if err := checkAvailability(cars, need); err != nil {
		log.Warn().Err(err).Str("orderId", o.ID).Msg("Stock guard refused order completion")
		return err
	}
	applyDelta(r.editCars(tx), need, Reserve)
	r.record(tx, StockReserved, o.ID)
	return nil
}

func (r *Reconciler) release(tx *txn, o models.Order) {
	applyDelta(r.editCars(tx), Aggregate(o.Items), Release)
	r.record(tx, StockReleased, o.ID)
}
