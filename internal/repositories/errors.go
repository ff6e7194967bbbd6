package repositories

import "errors"

var (
	// ErrNotFound is returned when no row matches the lookup.
	ErrNotFound = errors.New("record not found")
	// ErrAlreadyOrdered is returned when an order was finalized before.
	ErrAlreadyOrdered = errors.New("order already finalized")
)
