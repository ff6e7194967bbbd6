// Package gateway wraps the external card processor behind a small interface
// and folds every processor failure into one closed set of error kinds.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/shopspring/decimal"
)

// Currency is the only currency the storefront charges in.
const Currency = "usd"

// ChargeRequest is one outbound charge. Amount is in minor units (cents).
type ChargeRequest struct {
	Token    string
	Amount   int64
	Currency string
	OrderID  string
}

// Charge is the processor's acknowledgement of a captured charge.
type Charge struct {
	ID     string
	Amount int64
}

// Charger creates charges. Implementations return *Error on failure.
type Charger interface {
	CreateCharge(ctx context.Context, req ChargeRequest) (*Charge, error)
}

//go:generate go tool stringer -type=ErrorKind

// ErrorKind classifies a failed charge.
type ErrorKind int

const (
	CardDeclined ErrorKind = iota
	InvalidRequest
	RateLimited
	AuthenticationFailed
	NetworkError
	GenericGatewayError
	UnknownError

	numErrorKinds = iota
)

var userMessages = [numErrorKinds]string{
	CardDeclined:         "Your card was declined.",
	InvalidRequest:       "The payment request was invalid.",
	RateLimited:          "Too many payment attempts, please try again shortly.",
	AuthenticationFailed: "The payment provider could not be reached with our credentials.",
	NetworkError:         "Network error while contacting the payment provider.",
	GenericGatewayError:  "Something went wrong with the payment. You were not charged, please try again.",
	UnknownError:         "A serious error occurred. We have been notified.",
}

// Error is a classified charge failure.
type Error struct {
	Kind ErrorKind
	// Message is the processor's own explanation, shown for declined cards.
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("gateway %s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("gateway %s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// UserMessage is the single line shown to the customer.
func (e *Error) UserMessage() string {
	if e.Kind == CardDeclined && e.Message != "" {
		return e.Message
	}
	if e.Kind < 0 || e.Kind >= numErrorKinds {
		return userMessages[UnknownError]
	}
	return userMessages[e.Kind]
}

// NeedsOperator reports whether the failure belongs to no known class.
func (e *Error) NeedsOperator() bool {
	return e.Kind == UnknownError
}

// AsError returns err as a classified *Error. Context expiry and network failures
// become NetworkError; anything else that is not already classified is UnknownError.
func AsError(err error) *Error {
	var gwErr *Error
	if errors.As(err, &gwErr) {
		return gwErr
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return &Error{Kind: NetworkError, Err: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return &Error{Kind: NetworkError, Err: err}
	}
	return &Error{Kind: UnknownError, Err: err}
}

// MinorUnits converts a major-unit amount to integer cents, rounding half away from zero.
func MinorUnits(amount decimal.Decimal) int64 {
	return amount.Shift(2).Round(0).IntPart()
}

// MajorUnits converts integer cents back to a major-unit amount.
func MajorUnits(cents int64) decimal.Decimal {
	return decimal.New(cents, -2)
}
