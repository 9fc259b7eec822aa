// Package models defines the core domain types for the dealership admin
// backend: cars in inventory, customer orders against them, and staff users.
package models

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// CarStatus is the availability of a car as shown to operators.
type CarStatus string

const (
	CarStatusAvailable CarStatus = "available"
	CarStatusSold      CarStatus = "sold"
)

// Car is one vehicle record in the inventory.
//
// There is no stored status field. Availability is always derived from Stock
// through Status, so the two can never disagree.
type Car struct {
	// ID is unique within the inventory and never changes after creation.
	ID int64 `json:"id"`

	// StockNo is the dealer-facing stock number, e.g. "STK-0007". It is assigned on
	// creation and never changes afterwards.
	StockNo string `json:"stockNo"`

	Make  string `json:"make"`
	Model string `json:"model"`
	Year  int    `json:"year"`
	Trim  string `json:"trim"`
	Color string `json:"color"`

	// Price is the current list price. Orders capture their own copy of it
	// when an item is added, so later edits here do not reach them.
	Price decimal.Decimal `json:"price"`

	// Stock is the number of units on hand. It is only ever changed by the
	// reconciler (orders) or by an explicit inventory edit.
	Stock int `json:"stock"`

	Image string `json:"image"`
}

// Status derives availability from the stock count.
func (c Car) Status() CarStatus {
	if c.Stock > 0 {
		return CarStatusAvailable
	}
	return CarStatusSold
}

// Label renders the car the way operators identify it in order lists.
func (c Car) Label() string {
	return fmt.Sprintf("%s %s %d (%s)", c.Make, c.Model, c.Year, c.Trim)
}

// MinCarYear is the oldest model year the inventory accepts.
const MinCarYear = 2000

// Validate checks the fields an inventory form must supply.
func (c *Car) Validate() error {
	c.Make = strings.TrimSpace(c.Make)
	c.Model = strings.TrimSpace(c.Model)
	c.Trim = strings.TrimSpace(c.Trim)

	var v ValidationError
	if c.Make == "" {
		v.add("make", "is required")
	}
	if c.Model == "" {
		v.add("model", "is required")
	}
	if c.Trim == "" {
		v.add("trim", "is required")
	}
	if c.Year < MinCarYear {
		v.add("year", fmt.Sprintf("must be %d or later", MinCarYear))
	}
	if c.Price.IsNegative() {
		v.add("price", "cannot be negative")
	}
	if c.Stock < 0 {
		v.add("stock", "cannot be negative")
	}
	return v.errOrNil()
}
