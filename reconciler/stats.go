package reconciler

import (
	"github.com/shopspring/decimal"

	"github.com/arkantrust/dealership-admin/backend/models"
)

// Stats is the dashboard overview.
type Stats struct {
	TotalCars       int             `json:"totalCars"`
	AvailableCars   int             `json:"availableCars"`
	TotalOrders     int             `json:"totalOrders"`
	CompletedOrders int             `json:"completedOrders"`
	PendingOrders   int             `json:"pendingOrders"`
	Revenue         decimal.Decimal `json:"revenue"`
}

// Stats counts cars and orders. Revenue is the sum of completed order totals.
func (r *Reconciler) Stats() Stats {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s := Stats{
		TotalCars:   len(r.cars),
		TotalOrders: len(r.orders),
		Revenue:     decimal.Zero,
	}
	for _, c := range r.cars {
		if c.Status() == models.CarStatusAvailable {
			s.AvailableCars++
		}
	}
	for _, o := range r.orders {
		switch o.Status {
		case models.OrderStatusCompleted:
			s.CompletedOrders++
			s.Revenue = s.Revenue.Add(o.Total())
		case models.OrderStatusPending:
			s.PendingOrders++
		}
	}
	return s
}
