package reconciler

import (
	"context"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog/log"

	"github.com/arkantrust/dealership-admin/backend/models"
)

const unknownCarLabel = "Unknown Car"

// Cars returns the inventory sorted by id.
func (r *Reconciler) Cars() []models.Car {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return sortedCars(r.cars)
}

// Car returns one car by id.
func (r *Reconciler) Car(id int64) (models.Car, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.cars[id]
	if !ok {
		return models.Car{}, ErrCarNotFound
	}
	return c, nil
}

// CarLabel describes a car for order listings, or "Unknown Car" when the id
// no longer exists.
func (r *Reconciler) CarLabel(id int64) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.cars[id]
	if !ok {
		return unknownCarLabel
	}
	return c.Label()
}

// CreateCar adds a car with the next unused id and the next STK-n stock
// number. Any id or stock number sent by the caller is ignored.
func (r *Reconciler) CreateCar(ctx context.Context, c models.Car) (models.Car, error) {
	if err := c.Validate(); err != nil {
		return models.Car{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	c.ID = r.nextCarID()
	c.StockNo = r.nextStockNo()

	tx := &txn{}
	r.editCars(tx)[c.ID] = c
	r.record(tx, CarCreated, strconv.FormatInt(c.ID, 10))
	if err := r.commit(ctx, tx); err != nil {
		return models.Car{}, err
	}
	log.Info().Int64("carId", c.ID).Str("stockNo", c.StockNo).Msg("Car created")
	return c, nil
}

// UpdateCar replaces every field of car id except the id and the stock
// number. This is an inventory edit, not a
// reconciliation: the stock given here is taken as the new provisioned count.
func (r *Reconciler) UpdateCar(ctx context.Context, id int64, c models.Car) (models.Car, error) {
	if err := c.Validate(); err != nil {
		return models.Car{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	old, ok := r.cars[id]
	if !ok {
		return models.Car{}, ErrCarNotFound
	}
	c.ID = id
	c.StockNo = old.StockNo

	tx := &txn{}
	r.editCars(tx)[id] = c
	r.record(tx, CarUpdated, strconv.FormatInt(id, 10))
	if err := r.commit(ctx, tx); err != nil {
		return models.Car{}, err
	}
	log.Info().Int64("carId", id).Msg("Car updated")
	return c, nil
}

// DeleteCar removes a car even if orders still reference it. Those orders
// keep their items; completing them later fails with a MissingCarError.
// Deleting an unknown id is a no-op.
func (r *Reconciler) DeleteCar(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.cars[id]; !ok {
		return nil
	}

	tx := &txn{}
	delete(r.editCars(tx), id)
	r.record(tx, CarDeleted, strconv.FormatInt(id, 10))
	if err := r.commit(ctx, tx); err != nil {
		return err
	}
	log.Info().Int64("carId", id).Msg("Car deleted")
	return nil
}

// nextCarID is one past the highest id held by a car or named in any order
// item. Order items keep pointing at deleted cars, so their ids are never
// handed to a new car.
func (r *Reconciler) nextCarID() int64 {
	hi := nextID(r.cars) - 1
	for _, o := range r.orders {
		for _, it := range o.Items {
			hi = max(hi, it.CarID)
		}
	}
	return hi + 1
}

func (r *Reconciler) nextStockNo() string {
	nos := make([]string, 0, len(r.cars))
	for _, c := range r.cars {
		nos = append(nos, c.StockNo)
	}
	return NextStockNo(nos...)
}

const (
	minSearchLen     = 2
	maxSearchResults = 12
)

// SearchCars matches q, case-insensitively, against "make model" and
// returns at most 12 cars in id order. Queries shorter than two characters
// return nothing.
func (r *Reconciler) SearchCars(q string) []models.Car {
	q = strings.ToLower(strings.TrimSpace(q))
	out := make([]models.Car, 0)
	if utf8.RuneCountInString(q) < minSearchLen {
		return out
	}
	for _, c := range r.Cars() {
		if !strings.Contains(strings.ToLower(c.Make+" "+c.Model), q) {
			continue
		}
		out = append(out, c)
		if len(out) == maxSearchResults {
			break
		}
	}
	return out
}
