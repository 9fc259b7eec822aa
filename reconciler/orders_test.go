package reconciler_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arkantrust/dealership-admin/backend/models"
	"github.com/arkantrust/dealership-admin/backend/reconciler"
)

// assertInvariant checks that every car's stock equals its provisioned stock
// minus what the completed orders hold.
func assertInvariant(t *testing.T, r *reconciler.Reconciler, provisioned map[int64]int) {
	t.Helper()
	held := make(map[int64]int)
	for _, o := range r.Orders() {
		if o.Status != models.OrderStatusCompleted {
			continue
		}
		for _, it := range o.Items {
			held[it.CarID] += it.Qty
		}
	}
	for _, c := range r.Cars() {
		assert.Equal(t, provisioned[c.ID]-held[c.ID], c.Stock, "car %d", c.ID)
	}
}

func TestInvariantHoldsAcrossOperations(t *testing.T) {
	ctx := context.Background()
	provisioned := map[int64]int{1: 5, 2: 4, 3: 2}
	r, _, _ := newTestReconciler(t, []models.Car{car(1, 5), car(2, 4), car(3, 2)}, nil)

	a, err := r.CreateOrder(ctx, order("", models.OrderStatusPending, item(1, 2), item(2, 1)))
	require.NoError(t, err)
	assertInvariant(t, r, provisioned)

	b, err := r.CreateOrder(ctx, order("", models.OrderStatusCompleted, item(2, 2), item(3, 1)))
	require.NoError(t, err)
	assertInvariant(t, r, provisioned)

	_, err = r.ChangeStatus(ctx, a.ID, models.OrderStatusCompleted)
	require.NoError(t, err)
	assertInvariant(t, r, provisioned)

	_, err = r.ChangeStatus(ctx, b.ID, models.OrderStatusCancelled)
	require.NoError(t, err)
	assertInvariant(t, r, provisioned)

	_, err = r.EditOrder(ctx, a.ID, order("", models.OrderStatusCompleted, item(1, 1), item(3, 2)))
	require.NoError(t, err)
	assertInvariant(t, r, provisioned)

	_, err = r.ChangeStatus(ctx, b.ID, models.OrderStatusPending)
	require.NoError(t, err)
	assertInvariant(t, r, provisioned)

	require.NoError(t, r.DeleteOrder(ctx, a.ID))
	assertInvariant(t, r, provisioned)

	require.NoError(t, r.DeleteOrder(ctx, b.ID))
	assertInvariant(t, r, provisioned)

	assert.Equal(t, 5, stockOf(t, r, 1))
	assert.Equal(t, 4, stockOf(t, r, 2))
	assert.Equal(t, 2, stockOf(t, r, 3))
}

func TestCompletionIsAllOrNothing(t *testing.T) {
	ctx := context.Background()
	r, _, _ := newTestReconciler(t,
		[]models.Car{car(1, 5), car(2, 1)},
		[]models.Order{order("ORD-001", models.OrderStatusPending, item(1, 2), item(2, 3))},
	)

	_, err := r.ChangeStatus(ctx, "ORD-001", models.OrderStatusCompleted)
	require.Error(t, err)
	assert.ErrorIs(t, err, reconciler.ErrInsufficientStock)

	var stockErr *reconciler.InsufficientStockError
	require.True(t, errors.As(err, &stockErr))
	assert.Equal(t, int64(2), stockErr.CarID)
	assert.Equal(t, 1, stockErr.Available)
	assert.Equal(t, 3, stockErr.Needed)
	assert.Equal(t, "insufficient stock: MakeB Model (1/3)", stockErr.Error())

	assert.Equal(t, 5, stockOf(t, r, 1))
	assert.Equal(t, 1, stockOf(t, r, 2))
	o, err := r.Order("ORD-001")
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPending, o.Status)
}

func TestSameStatusTransitionIsNoop(t *testing.T) {
	ctx := context.Background()
	r, _, n := newTestReconciler(t,
		[]models.Car{car(1, 3)},
		[]models.Order{
			order("ORD-001", models.OrderStatusCompleted, item(1, 2)),
			order("ORD-002", models.OrderStatusPending, item(1, 9)),
		},
	)

	o, err := r.ChangeStatus(ctx, "ORD-001", models.OrderStatusCompleted)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusCompleted, o.Status)

	o, err = r.ChangeStatus(ctx, "ORD-002", models.OrderStatusPending)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPending, o.Status)

	assert.Equal(t, 3, stockOf(t, r, 1))
	assert.Empty(t, n.kinds())
}

func TestCompleteThenCancelRestoresStock(t *testing.T) {
	ctx := context.Background()
	r, _, _ := newTestReconciler(t,
		[]models.Car{car(1, 6), car(2, 3), car(3, 9)},
		[]models.Order{order("ORD-001", models.OrderStatusPending, item(1, 2), item(2, 3), item(1, 1), item(3, 4))},
	)

	_, err := r.ChangeStatus(ctx, "ORD-001", models.OrderStatusCompleted)
	require.NoError(t, err)
	assert.Equal(t, 3, stockOf(t, r, 1))
	assert.Equal(t, 0, stockOf(t, r, 2))
	assert.Equal(t, 5, stockOf(t, r, 3))

	c2, err := r.Car(2)
	require.NoError(t, err)
	assert.Equal(t, models.CarStatusSold, c2.Status())

	_, err = r.ChangeStatus(ctx, "ORD-001", models.OrderStatusCancelled)
	require.NoError(t, err)
	assert.Equal(t, 6, stockOf(t, r, 1))
	assert.Equal(t, 3, stockOf(t, r, 2))
	assert.Equal(t, 9, stockOf(t, r, 3))

	c2, err = r.Car(2)
	require.NoError(t, err)
	assert.Equal(t, models.CarStatusAvailable, c2.Status())
}

func TestPendingCancelledHasNoStockEffect(t *testing.T) {
	ctx := context.Background()
	r, _, _ := newTestReconciler(t,
		[]models.Car{car(1, 1)},
		[]models.Order{order("ORD-001", models.OrderStatusPending, item(1, 5))},
	)

	_, err := r.ChangeStatus(ctx, "ORD-001", models.OrderStatusCancelled)
	require.NoError(t, err)
	_, err = r.ChangeStatus(ctx, "ORD-001", models.OrderStatusPending)
	require.NoError(t, err)
	assert.Equal(t, 1, stockOf(t, r, 1))
}

func TestDeleteCompletedOrderRestoresStock(t *testing.T) {
	ctx := context.Background()
	r, _, _ := newTestReconciler(t,
		[]models.Car{car(5, 3)},
		[]models.Order{order("ORD-001", models.OrderStatusCompleted, item(5, 2))},
	)

	require.NoError(t, r.DeleteOrder(ctx, "ORD-001"))
	assert.Equal(t, 5, stockOf(t, r, 5))
	_, err := r.Order("ORD-001")
	assert.ErrorIs(t, err, reconciler.ErrOrderNotFound)

	require.NoError(t, r.DeleteOrder(ctx, "ORD-001"), "deleting twice is a no-op")
	assert.Equal(t, 5, stockOf(t, r, 5))
}

func TestDeletePendingOrderLeavesStock(t *testing.T) {
	ctx := context.Background()
	r, _, _ := newTestReconciler(t,
		[]models.Car{car(1, 3)},
		[]models.Order{order("ORD-001", models.OrderStatusPending, item(1, 2))},
	)
	require.NoError(t, r.DeleteOrder(ctx, "ORD-001"))
	assert.Equal(t, 3, stockOf(t, r, 1))
}

func TestMergedDeltasAreCheckedTogether(t *testing.T) {
	ctx := context.Background()
	r, _, _ := newTestReconciler(t,
		[]models.Car{car(7, 4)},
		[]models.Order{order("ORD-001", models.OrderStatusPending, item(7, 2), item(7, 3))},
	)

	_, err := r.ChangeStatus(ctx, "ORD-001", models.OrderStatusCompleted)
	var stockErr *reconciler.InsufficientStockError
	require.True(t, errors.As(err, &stockErr), "got %v", err)
	assert.Equal(t, int64(7), stockErr.CarID)
	assert.Equal(t, 4, stockErr.Available)
	assert.Equal(t, 5, stockErr.Needed)
	assert.Equal(t, 4, stockOf(t, r, 7))
}

func TestCompletionWithDeletedCarFails(t *testing.T) {
	ctx := context.Background()
	r, _, _ := newTestReconciler(t,
		[]models.Car{car(1, 3), car(2, 3)},
		[]models.Order{order("ORD-001", models.OrderStatusPending, item(1, 1), item(2, 1))},
	)
	require.NoError(t, r.DeleteCar(ctx, 2))

	_, err := r.ChangeStatus(ctx, "ORD-001", models.OrderStatusCompleted)
	require.ErrorIs(t, err, reconciler.ErrReferencedEntityMissing)
	var missing *reconciler.MissingCarError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, int64(2), missing.CarID)
	assert.Equal(t, 3, stockOf(t, r, 1))
	assert.Equal(t, "Unknown Car", r.CarLabel(2))
}

func TestReleaseSkipsDeletedCar(t *testing.T) {
	ctx := context.Background()
	r, _, _ := newTestReconciler(t,
		[]models.Car{car(1, 1), car(2, 1)},
		[]models.Order{order("ORD-001", models.OrderStatusCompleted, item(1, 1), item(2, 1))},
	)
	require.NoError(t, r.DeleteCar(ctx, 2))

	_, err := r.ChangeStatus(ctx, "ORD-001", models.OrderStatusPending)
	require.NoError(t, err)
	assert.Equal(t, 2, stockOf(t, r, 1))
	assert.Len(t, r.Cars(), 1)
}

func TestCreateOrderAssignsNextID(t *testing.T) {
	ctx := context.Background()
	r, _, _ := newTestReconciler(t,
		[]models.Car{car(1, 3)},
		[]models.Order{
			order("ORD-001", models.OrderStatusPending, item(1, 1)),
			order("ORD-003", models.OrderStatusPending, item(1, 1)),
		},
	)
	assert.Equal(t, "ORD-004", r.NextOrderID())

	o, err := r.CreateOrder(ctx, order("ORD-001", "", item(1, 1)))
	require.NoError(t, err)
	assert.Equal(t, "ORD-004", o.ID)
	assert.Equal(t, models.OrderStatusPending, o.Status)
	assert.Equal(t, "2025-03-01", o.Date)

	ids := make([]string, 0)
	for _, o := range r.Orders() {
		ids = append(ids, o.ID)
	}
	assert.Equal(t, []string{"ORD-001", "ORD-003", "ORD-004"}, ids)
}

func TestCreateOrderDefaultsDate(t *testing.T) {
	ctx := context.Background()
	r, _, _ := newTestReconciler(t, []models.Car{car(1, 3)}, nil)

	in := order("", models.OrderStatusPending, item(1, 1))
	in.Date = ""
	o, err := r.CreateOrder(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, "2025-04-01", o.Date)
	assert.Equal(t, "ORD-001", o.ID)
}

func TestCreateCompletedOrderReserves(t *testing.T) {
	ctx := context.Background()
	r, _, _ := newTestReconciler(t, []models.Car{car(1, 3)}, nil)

	_, err := r.CreateOrder(ctx, order("", models.OrderStatusCompleted, item(1, 2)))
	require.NoError(t, err)
	assert.Equal(t, 1, stockOf(t, r, 1))

	_, err = r.CreateOrder(ctx, order("", models.OrderStatusCompleted, item(1, 2)))
	require.ErrorIs(t, err, reconciler.ErrInsufficientStock)
	assert.Len(t, r.Orders(), 1, "refused order is not stored")
	assert.Equal(t, 1, stockOf(t, r, 1))
}

func TestCreateOrderRejectsInvalidInput(t *testing.T) {
	ctx := context.Background()
	r, _, _ := newTestReconciler(t, []models.Car{car(1, 3)}, nil)

	in := order("", models.OrderStatusPending, item(1, 1))
	in.Phone = "12345"
	_, err := r.CreateOrder(ctx, in)
	require.ErrorIs(t, err, models.ErrInvalid)
	assert.Empty(t, r.Orders())
}

func TestEditOrderReleasesOldAndReservesNew(t *testing.T) {
	ctx := context.Background()
	r, _, _ := newTestReconciler(t,
		[]models.Car{car(1, 1), car(2, 5)},
		[]models.Order{order("ORD-001", models.OrderStatusCompleted, item(1, 2))},
	)

	// Car 1 holds 1 in stock with 2 reserved by ORD-001. The edit asks for 3
	// of car 1, which only fits once the old 2 are released.
	edited, err := r.EditOrder(ctx, "ORD-001", order("ignored", models.OrderStatusCompleted, item(1, 3), item(2, 1)))
	require.NoError(t, err)
	assert.Equal(t, "ORD-001", edited.ID)
	assert.Equal(t, 0, stockOf(t, r, 1))
	assert.Equal(t, 4, stockOf(t, r, 2))
}

func TestEditOrderFailedReserveRollsBackRelease(t *testing.T) {
	ctx := context.Background()
	r, _, n := newTestReconciler(t,
		[]models.Car{car(1, 1), car(2, 0)},
		[]models.Order{order("ORD-001", models.OrderStatusCompleted, item(1, 2))},
	)

	_, err := r.EditOrder(ctx, "ORD-001", order("", models.OrderStatusCompleted, item(1, 1), item(2, 1)))
	require.ErrorIs(t, err, reconciler.ErrInsufficientStock)

	assert.Equal(t, 1, stockOf(t, r, 1), "release of the old version must not survive")
	assert.Equal(t, 0, stockOf(t, r, 2))
	o, err := r.Order("ORD-001")
	require.NoError(t, err)
	assert.Equal(t, []models.LineItem{item(1, 2)}, o.Items)
	assert.Empty(t, n.kinds())
}

func TestEditOrderFromCompletedToPending(t *testing.T) {
	ctx := context.Background()
	r, _, _ := newTestReconciler(t,
		[]models.Car{car(1, 0)},
		[]models.Order{order("ORD-001", models.OrderStatusCompleted, item(1, 2))},
	)

	_, err := r.EditOrder(ctx, "ORD-001", order("", models.OrderStatusPending, item(1, 4)))
	require.NoError(t, err)
	assert.Equal(t, 2, stockOf(t, r, 1))
}

func TestEditUnknownOrder(t *testing.T) {
	r, _, _ := newTestReconciler(t, []models.Car{car(1, 1)}, nil)
	_, err := r.EditOrder(context.Background(), "ORD-404", order("", models.OrderStatusPending, item(1, 1)))
	assert.ErrorIs(t, err, reconciler.ErrOrderNotFound)
}

func TestChangeStatusRejectsUnknownStatus(t *testing.T) {
	r, _, _ := newTestReconciler(t,
		[]models.Car{car(1, 1)},
		[]models.Order{order("ORD-001", models.OrderStatusPending, item(1, 1))},
	)
	_, err := r.ChangeStatus(context.Background(), "ORD-001", "shipped")
	assert.ErrorIs(t, err, models.ErrInvalid)

	_, err = r.ChangeStatus(context.Background(), "ORD-404", models.OrderStatusCompleted)
	assert.ErrorIs(t, err, reconciler.ErrOrderNotFound)
}

func TestCapturedPriceDoesNotFollowCarPrice(t *testing.T) {
	ctx := context.Background()
	r, _, _ := newTestReconciler(t,
		[]models.Car{car(1, 3)},
		[]models.Order{order("ORD-001", models.OrderStatusPending, item(1, 2))},
	)
	before, err := r.Order("ORD-001")
	require.NoError(t, err)

	c, err := r.Car(1)
	require.NoError(t, err)
	c.Price = c.Price.Mul(c.Price)
	_, err = r.UpdateCar(ctx, 1, c)
	require.NoError(t, err)

	after, err := r.Order("ORD-001")
	require.NoError(t, err)
	assert.True(t, before.Total().Equal(after.Total()))
}
