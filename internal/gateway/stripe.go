package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
)

// StripeCharger charges card tokens through the Stripe charges API.
// The client never retries; a failed charge is reported once to the caller.
type StripeCharger struct {
	api     *client.API
	timeout time.Duration
}

// NewStripeCharger builds a charger whose HTTP calls give up after timeout.
func NewStripeCharger(secretKey string, timeout time.Duration, logger *slog.Logger) *StripeCharger {
	httpClient := &http.Client{Timeout: timeout}
	backend := func(t stripe.SupportedBackend) stripe.Backend {
		return stripe.GetBackendWithConfig(t, &stripe.BackendConfig{
			HTTPClient:        httpClient,
			MaxNetworkRetries: stripe.Int64(0),
			LeveledLogger:     leveledLogger{logger},
		})
	}
	return &StripeCharger{
		api: client.New(secretKey, &stripe.Backends{
			API:     backend(stripe.APIBackend),
			Connect: backend(stripe.ConnectBackend),
			Uploads: backend(stripe.UploadsBackend),
		}),
		timeout: timeout,
	}
}

func (s *StripeCharger) CreateCharge(ctx context.Context, req ChargeRequest) (*Charge, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	params := &stripe.ChargeParams{
		Amount:   stripe.Int64(req.Amount),
		Currency: stripe.String(req.Currency),
	}
	params.Context = ctx
	if err := params.SetSource(req.Token); err != nil {
		return nil, &Error{Kind: InvalidRequest, Err: err}
	}
	if req.OrderID != "" {
		params.AddMetadata("order_id", req.OrderID)
	}

	ch, err := s.api.Charges.New(params)
	if err != nil {
		return nil, ClassifyStripeError(err)
	}
	return &Charge{ID: ch.ID, Amount: ch.Amount}, nil
}

// ClassifyStripeError maps a Stripe client error onto an ErrorKind.
func ClassifyStripeError(err error) *Error {
	var se *stripe.Error
	if !errors.As(err, &se) {
		return AsError(err)
	}
	switch {
	case se.Type == stripe.ErrorTypeCard:
		return &Error{Kind: CardDeclined, Message: se.Msg, Err: err}
	case se.HTTPStatusCode == http.StatusTooManyRequests:
		return &Error{Kind: RateLimited, Message: se.Msg, Err: err}
	case se.HTTPStatusCode == http.StatusUnauthorized:
		return &Error{Kind: AuthenticationFailed, Message: se.Msg, Err: err}
	case se.Type == stripe.ErrorTypeInvalidRequest:
		return &Error{Kind: InvalidRequest, Message: se.Msg, Err: err}
	default:
		return &Error{Kind: GenericGatewayError, Message: se.Msg, Err: err}
	}
}

// leveledLogger routes the Stripe client's own logging into slog.
type leveledLogger struct {
	l *slog.Logger
}

func (s leveledLogger) logger() *slog.Logger {
	if s.l == nil {
		return slog.Default()
	}
	return s.l
}

func (s leveledLogger) Debugf(format string, v ...interface{}) {
	s.logger().Debug(fmt.Sprintf(format, v...), "component", "stripe")
}

func (s leveledLogger) Infof(format string, v ...interface{}) {
	s.logger().Info(fmt.Sprintf(format, v...), "component", "stripe")
}

func (s leveledLogger) Warnf(format string, v ...interface{}) {
	s.logger().Warn(fmt.Sprintf(format, v...), "component", "stripe")
}

func (s leveledLogger) Errorf(format string, v ...interface{}) {
	s.logger().Error(fmt.Sprintf(format, v...), "component", "stripe")
}
