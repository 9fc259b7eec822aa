package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus is the lifecycle state of an order. The set is closed: every
// status can move to every other one.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusCompleted OrderStatus = "completed"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// Valid reports whether s is one of the three known statuses.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusCompleted, OrderStatusCancelled:
		return true
	}
	return false
}

// DateLayout is the calendar date format orders are stored with.
const DateLayout = "2006-01-02"

// LineItem is one (car, quantity, captured price) row of an order.
type LineItem struct {
	CarID int64           `json:"carId"`
	Qty   int             `json:"qty"`
	Price decimal.Decimal `json:"price"`
}

// Total is the captured unit price times the quantity.
func (it LineItem) Total() decimal.Decimal {
	return it.Price.Mul(decimal.NewFromInt(int64(it.Qty)))
}

// Order is a customer purchase request against the inventory.
type Order struct {
	// ID has the form ORD-<zero padded sequence>.
	ID string `json:"id"`

	CustomerName string      `json:"customerName"`
	Email        string      `json:"email"`
	Phone        string      `json:"phone"`
	Date         string      `json:"date"`
	Status       OrderStatus `json:"status"`
	Items        []LineItem  `json:"items"`
}

// Total sums every line item.
func (o Order) Total() decimal.Decimal {
	total := decimal.Zero
	for _, it := range o.Items {
		total = total.Add(it.Total())
	}
	return total
}

// Clone returns a copy whose item slice is not shared with o.
func (o Order) Clone() Order {
	o.Items = append([]LineItem(nil), o.Items...)
	return o
}

// Normalize trims the free-text fields and fills the date with today when it
// was left blank.
func (o *Order) Normalize(now time.Time) {
	o.CustomerName = strings.TrimSpace(o.CustomerName)
	o.Email = strings.TrimSpace(o.Email)
	o.Phone = strings.TrimSpace(o.Phone)
	o.Date = strings.TrimSpace(o.Date)
	if o.Date == "" {
		o.Date = now.Format(DateLayout)
	}
	if o.Status == "" {
		o.Status = OrderStatusPending
	}
}

// Validate checks everything the order form guarantees before an order may
// reach the reconciler.
func (o *Order) Validate() error {
	var v ValidationError
	if o.CustomerName == "" {
		v.add("customerName", "is required")
	}
	if o.Email == "" {
		v.add("email", "is required")
	}
	if !isTenDigits(o.Phone) {
		v.add("phone", "must be exactly 10 digits")
	}
	if o.Date != "" {
		if _, err := time.Parse(DateLayout, o.Date); err != nil {
			v.add("date", "must be YYYY-MM-DD")
		}
	}
	if !o.Status.Valid() {
		v.add("status", fmt.Sprintf("unknown status %q", o.Status))
	}
	if len(o.Items) == 0 {
		v.add("items", "at least one item is required")
	}
	for i, it := range o.Items {
		field := fmt.Sprintf("items[%d]", i)
		if it.CarID <= 0 {
			v.add(field+".carId", "must be positive")
		}
		if it.Qty <= 0 {
			v.add(field+".qty", "must be positive")
		}
		if it.Price.IsNegative() {
			v.add(field+".price", "cannot be negative")
		}
	}
	return v.errOrNil()
}

func isTenDigits(s string) bool {
	if len(s) != 10 {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
