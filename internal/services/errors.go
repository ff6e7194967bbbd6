package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNoActiveOrder means the user has no open order. Informational, not a fault.
	ErrNoActiveOrder = errors.New("no active order")
	// ErrItemNotInCart means the open order does not reference the item. Informational.
	ErrItemNotInCart = errors.New("item not in cart")
	ErrItemNotFound  = errors.New("item not found")
	ErrOrderNotFound = errors.New("order not found")
	ErrEmptyCart     = errors.New("cart is empty")
	// ErrPaymentOptionUnavailable means no processor is configured for the chosen option.
	ErrPaymentOptionUnavailable = errors.New("payment option unavailable")
	// ErrPersistenceInconsistency marks money captured without a matching record.
	ErrPersistenceInconsistency = errors.New("charge captured but not recorded")
)

// ValidationError carries field-level messages of a rejected form.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for field, msg := range e.Fields {
		parts = append(parts, field+": "+msg)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// PersistenceInconsistencyError describes a charge that succeeded at the
// processor while the order could not be finalized locally.
type PersistenceInconsistencyError struct {
	OrderID  string
	ChargeID string
	Amount   int64
	Err      error
}

func (e *PersistenceInconsistencyError) Error() string {
	return fmt.Sprintf("charge %s of %d cents for order %s not recorded: %v", e.ChargeID, e.Amount, e.OrderID, e.Err)
}

func (e *PersistenceInconsistencyError) Unwrap() []error {
	return []error{ErrPersistenceInconsistency, e.Err}
}
