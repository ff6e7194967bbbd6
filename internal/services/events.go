package services

import (
	"context"
	"encoding/json"
	"time"

	"storefront/internal/logging"
)

// Routing keys of published domain events.
const (
	RoutingOrderCheckout     = "order.checkout"
	RoutingOrderPaid         = "order.paid"
	RoutingAlertGatewayError = "alert.gateway_unknown"
	RoutingAlertUnrecorded   = "alert.payment_unrecorded"
)

// EventPublisher sends a serialized event to the message broker.
type EventPublisher interface {
	Publish(ctx context.Context, routingKey string, body []byte) error
}

type CheckoutEvent struct {
	OrderID       string    `json:"order_id"`
	UserID        string    `json:"user_id"`
	PaymentOption string    `json:"payment_option"`
	Country       string    `json:"country"`
	At            time.Time `json:"at"`
}

type OrderPaidEvent struct {
	OrderID   string    `json:"order_id"`
	UserID    string    `json:"user_id"`
	PaymentID string    `json:"payment_id"`
	ChargeID  string    `json:"charge_id"`
	Amount    string    `json:"amount"`
	Currency  string    `json:"currency"`
	At        time.Time `json:"at"`
}

// PaymentAlertEvent asks an operator to look at a payment.
type PaymentAlertEvent struct {
	OrderID  string    `json:"order_id"`
	UserID   string    `json:"user_id"`
	ChargeID string    `json:"charge_id,omitempty"`
	Amount   int64     `json:"amount_minor"`
	Reason   string    `json:"reason"`
	At       time.Time `json:"at"`
}

// publish marshals and sends an event. Failures are logged, never returned.
func publish(ctx context.Context, p EventPublisher, routingKey string, event any) {
	log := logging.FromContext(ctx)
	if p == nil {
		log.Debug("event publisher not configured, skipping", "routing_key", routingKey)
		return
	}
	body, err := json.Marshal(event)
	if err != nil {
		log.Warn("failed to marshal event", "routing_key", routingKey, "error", err)
		return
	}
	if err := p.Publish(ctx, routingKey, body); err != nil {
		log.Warn("failed to publish event", "routing_key", routingKey, "error", err)
		return
	}
	log.Debug("published event", "routing_key", routingKey)
}
