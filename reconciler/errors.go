package reconciler

import (
	"errors"
	"fmt"
)

var (
	ErrOrderNotFound = errors.New("order not found")
	ErrCarNotFound   = errors.New("car not found")
	ErrUserNotFound  = errors.New("user not found")

	// ErrReferencedEntityMissing is matched by MissingCarError.
	ErrReferencedEntityMissing = errors.New("referenced car no longer exists")

	// ErrInsufficientStock is matched by InsufficientStockError.
	ErrInsufficientStock = errors.New("insufficient stock")
)

// MissingCarError reports an order item whose car was deleted from the
// inventory after the order was taken.
type MissingCarError struct {
	CarID int64
}

func (e *MissingCarError) Error() string {
	return fmt.Sprintf("car not found (ID: %d)", e.CarID)
}

func (e *MissingCarError) Unwrap() error { return ErrReferencedEntityMissing }

// InsufficientStockError reports a car that cannot cover the quantity an
// order needs from it.
type InsufficientStockError struct {
	CarID     int64
	Label     string
	Available int
	Needed    int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock: %s (%d/%d)", e.Label, e.Available, e.Needed)
}

func (e *InsufficientStockError) Unwrap() error { return ErrInsufficientStock }
