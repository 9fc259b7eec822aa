package reconciler

import "github.com/arkantrust/dealership-admin/backend/models"

// checkAvailability is the guard run before any reserve. It only reads;
// callers apply the delta after it returns nil, so a failure on any car
// leaves every car untouched.
func checkAvailability(cars map[int64]models.Car, need Delta) error {
	for _, n := range need {
		c, ok := cars[n.CarID]
		if !ok {
			return &MissingCarError{CarID: n.CarID}
		}
		if c.Stock < n.Qty {
			return &InsufficientStockError{
				CarID:     c.ID,
				Label:     c.Make + " " + c.Model,
				Available: c.Stock,
				Needed:    n.Qty,
			}
		}
	}
	return nil
}

// applyDelta moves stock for every car in d. It never fails: reserves have
// already passed checkAvailability, and a release for a car that has since
// been deleted has nothing to restore and is skipped. Cars outside d are
// left as they are.
func applyDelta(cars map[int64]models.Car, d Delta, dir Direction) {
	for _, n := range d {
		c, ok := cars[n.CarID]
		if !ok {
			continue
		}
		switch dir {
		case Reserve:
			c.Stock -= n.Qty
		case Release:
			c.Stock += n.Qty
		}
		cars[n.CarID] = c
	}
}
