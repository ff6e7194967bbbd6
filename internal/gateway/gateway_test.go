package gateway_test

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"testing"

	"storefront/internal/gateway"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stripe/stripe-go/v76"
)

func TestMinorUnits(t *testing.T) {
	tests := []struct {
		amount string
		want   int64
	}{
		{"19.99", 1999},
		{"0", 0},
		{"20", 2000},
		{"10.005", 1001},
		{"0.014", 1},
	}
	for _, tt := range tests {
		t.Run(tt.amount, func(t *testing.T) {
			assert.Equal(t, tt.want, gateway.MinorUnits(decimal.RequireFromString(tt.amount)))
		})
	}
	assert.True(t, decimal.RequireFromString("19.99").Equal(gateway.MajorUnits(1999)))
}

func TestClassifyStripeError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want gateway.ErrorKind
	}{
		{"card declined", &stripe.Error{Type: stripe.ErrorTypeCard, HTTPStatusCode: http.StatusPaymentRequired, Msg: "Your card has insufficient funds."}, gateway.CardDeclined},
		{"invalid request", &stripe.Error{Type: stripe.ErrorTypeInvalidRequest, HTTPStatusCode: http.StatusBadRequest}, gateway.InvalidRequest},
		{"rate limited", &stripe.Error{Type: stripe.ErrorTypeInvalidRequest, HTTPStatusCode: http.StatusTooManyRequests}, gateway.RateLimited},
		{"bad api key", &stripe.Error{Type: stripe.ErrorTypeInvalidRequest, HTTPStatusCode: http.StatusUnauthorized}, gateway.AuthenticationFailed},
		{"api error", &stripe.Error{Type: stripe.ErrorTypeAPI, HTTPStatusCode: http.StatusInternalServerError}, gateway.GenericGatewayError},
		{"timeout", fmt.Errorf("post: %w", context.DeadlineExceeded), gateway.NetworkError},
		{"dial failure", &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}, gateway.NetworkError},
		{"unrecognized", errors.New("boom"), gateway.UnknownError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := gateway.ClassifyStripeError(tt.err)
			assert.Equal(t, tt.want, got.Kind, "got %s", got.Kind)
			assert.ErrorIs(t, got, tt.err)
		})
	}
}

func TestError_UserMessage(t *testing.T) {
	declined := &gateway.Error{Kind: gateway.CardDeclined, Message: "Your card has insufficient funds."}
	assert.Equal(t, "Your card has insufficient funds.", declined.UserMessage())
	assert.Equal(t, "Your card was declined.", (&gateway.Error{Kind: gateway.CardDeclined}).UserMessage())

	seen := map[string]gateway.ErrorKind{}
	for k := gateway.CardDeclined; k <= gateway.UnknownError; k++ {
		msg := (&gateway.Error{Kind: k}).UserMessage()
		assert.NotEmpty(t, msg, "kind %s has no message", k)
		if prev, dup := seen[msg]; dup {
			t.Errorf("kinds %s and %s share a message", prev, k)
		}
		seen[msg] = k
	}

	assert.True(t, (&gateway.Error{Kind: gateway.UnknownError}).NeedsOperator())
	assert.False(t, (&gateway.Error{Kind: gateway.NetworkError}).NeedsOperator())
	assert.Equal(t, "ErrorKind(42)", gateway.ErrorKind(42).String())
	assert.Equal(t, (&gateway.Error{Kind: gateway.UnknownError}).UserMessage(), (&gateway.Error{Kind: 42}).UserMessage())
}

func TestAsError_KeepsClassified(t *testing.T) {
	orig := &gateway.Error{Kind: gateway.RateLimited}
	wrapped := fmt.Errorf("charge: %w", orig)
	assert.Same(t, orig, gateway.AsError(wrapped))
}
