package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"storefront/internal/gateway"
	"storefront/internal/logging"
	"storefront/internal/models"
	"storefront/internal/repositories"

	"github.com/shopspring/decimal"
)

// PaymentDetails is what the payment page shows before charging.
type PaymentDetails struct {
	Order         *models.Order        `json:"order"`
	Total         decimal.Decimal      `json:"total"`
	PaymentOption models.PaymentOption `json:"payment_option"`
	Available     bool                 `json:"available"`
}

// PaymentService charges the open order through the configured processor and
// finalizes it on success.
type PaymentService struct {
	carts     repositories.CartRepository
	orders    repositories.OrderRepository
	chargers  map[models.PaymentOption]gateway.Charger
	publisher EventPublisher
	locks     *UserLocks
	now       func() time.Time
}

// NewPaymentService creates a new PaymentService. chargers maps each payment
// option to its processor; options without an entry are reported unavailable.
func NewPaymentService(
	carts repositories.CartRepository,
	orders repositories.OrderRepository,
	chargers map[models.PaymentOption]gateway.Charger,
	publisher EventPublisher,
	locks *UserLocks,
) *PaymentService {
	return &PaymentService{
		carts:     carts,
		orders:    orders,
		chargers:  chargers,
		publisher: publisher,
		locks:     locks,
		now:       time.Now,
	}
}

func (s *PaymentService) openOrder(ctx context.Context, userID string) (*models.Order, error) {
	order, err := s.carts.FindOpenOrder(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrNoActiveOrder
		}
		return nil, err
	}
	return order, nil
}

// Details returns the open order and its total for the payment page.
func (s *PaymentService) Details(ctx context.Context, userID string, option models.PaymentOption) (*PaymentDetails, error) {
	order, err := s.openOrder(ctx, userID)
	if err != nil {
		return nil, err
	}
	_, available := s.chargers[option]
	return &PaymentDetails{Order: order, Total: order.GetTotal(), PaymentOption: option, Available: available}, nil
}

// Charge captures the open order's total and marks the order ordered.
// Gateway failures come back as *gateway.Error with the order left open.
func (s *PaymentService) Charge(ctx context.Context, userID string, option models.PaymentOption, token string) (*models.Payment, error) {
	charger, ok := s.chargers[option]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrPaymentOptionUnavailable, option)
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, &ValidationError{Fields: map[string]string{"token": "Field 'token' failed on the 'required' tag"}}
	}

	unlock := s.locks.Lock(userID)
	defer unlock()

	order, err := s.openOrder(ctx, userID)
	if err != nil {
		return nil, err
	}
	amount := gateway.MinorUnits(order.GetTotal())
	if amount <= 0 {
		return nil, ErrEmptyCart
	}

	log := logging.FromContext(ctx).With("order_id", order.ID, "amount_minor", amount, "payment_option", option)
	charge, err := charger.CreateCharge(ctx, gateway.ChargeRequest{
		Token:    token,
		Amount:   amount,
		Currency: gateway.Currency,
		OrderID:  order.ID,
	})
	if err != nil {
		gwErr := gateway.AsError(err)
		if gwErr.NeedsOperator() {
			log.Error("unclassified gateway failure", "error", err)
			publish(ctx, s.publisher, RoutingAlertGatewayError, PaymentAlertEvent{
				OrderID: order.ID,
				UserID:  userID,
				Amount:  amount,
				Reason:  err.Error(),
				At:      s.now(),
			})
		} else {
			log.Warn("charge failed", "kind", gwErr.Kind.String(), "error", err)
		}
		return nil, gwErr
	}

	// The money is captured; recording it must not depend on the client staying connected.
	recordCtx := context.WithoutCancel(ctx)
	paidAt := s.now()
	payment := &models.Payment{
		ChargeID:  charge.ID,
		UserID:    userID,
		Amount:    gateway.MajorUnits(amount),
		Timestamp: paidAt,
	}
	if err := s.orders.Finalize(recordCtx, order.ID, payment, paidAt); err != nil {
		log.Error("charge captured but order not finalized", "charge_id", charge.ID, "error", err)
		publish(recordCtx, s.publisher, RoutingAlertUnrecorded, PaymentAlertEvent{
			OrderID:  order.ID,
			UserID:   userID,
			ChargeID: charge.ID,
			Amount:   amount,
			Reason:   err.Error(),
			At:       paidAt,
		})
		return nil, &PersistenceInconsistencyError{OrderID: order.ID, ChargeID: charge.ID, Amount: amount, Err: err}
	}

	log.Info("order paid", "charge_id", charge.ID, "payment_id", payment.ID)
	publish(recordCtx, s.publisher, RoutingOrderPaid, OrderPaidEvent{
		OrderID:   order.ID,
		UserID:    userID,
		PaymentID: payment.ID,
		ChargeID:  charge.ID,
		Amount:    payment.Amount.StringFixed(2),
		Currency:  gateway.Currency,
		At:        paidAt,
	})
	return payment, nil
}
