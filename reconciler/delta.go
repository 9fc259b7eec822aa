package reconciler

import "github.com/arkantrust/dealership-admin/backend/models"

// Direction says whether a delta takes stock out of the inventory or puts
// it back.
type Direction int

const (
	// Reserve decrements stock for an order entering completed.
	Reserve Direction = iota
	// Release increments stock for an order leaving completed.
	Release
)

func (d Direction) String() string {
	if d == Release {
		return "release"
	}
	return "reserve"
}

// Need is the total quantity an order draws from one car.
type Need struct {
	CarID int64
	Qty   int
}

// Delta holds one Need per distinct car, in the order each car first
// appears among the line items.
type Delta []Need

// Aggregate merges line items that point at the same car, so a car listed on
// two rows is checked once against the combined quantity.
func Aggregate(items []models.LineItem) Delta {
	idx := make(map[int64]int, len(items))
	d := make(Delta, 0, len(items))
	for _, it := range items {
		if i, ok := idx[it.CarID]; ok {
			d[i].Qty += it.Qty
			continue
		}
		idx[it.CarID] = len(d)
		d = append(d, Need{CarID: it.CarID, Qty: it.Qty})
	}
	return d
}
