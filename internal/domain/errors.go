package domain

import (
	"errors"
	"fmt"
)

// Error kinds. Callers classify failures with errors.Is against these;
// anything that matches none of them is an infrastructure failure.
var (
	ErrNotFound   = errors.New("not found")
	ErrValidation = errors.New("validation failed")
	ErrConflict   = errors.New("conflict")
)

var (
	ErrItemNotFound       = fmt.Errorf("item %w", ErrNotFound)
	ErrAllocationNotFound = fmt.Errorf("allocation %w", ErrNotFound)
	ErrStockAlertNotFound = fmt.Errorf("stock alert %w", ErrNotFound)
	ErrAlreadyExhausted   = fmt.Errorf("allocation is already exhausted: %w", ErrConflict)
)

type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// InsufficientStockError is returned when a stock change would drive an
// item's stock level below zero.
type InsufficientStockError struct {
	ItemID    int32
	ItemName  string
	Available int32
	Requested int32
}

// Shortfall is how many units are missing to satisfy the request.
func (e *InsufficientStockError) Shortfall() int32 {
	return e.Requested - e.Available
}

func (e *InsufficientStockError) Error() string {
	name := e.ItemName
	if name == "" {
		name = fmt.Sprintf("#%d", e.ItemID)
	}
	return fmt.Sprintf("insufficient stock for item %s: available %d, requested %d, short by %d",
		name, e.Available, e.Requested, e.Shortfall())
}

func (e *InsufficientStockError) Unwrap() error { return ErrConflict }
