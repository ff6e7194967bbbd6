package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"storefront/internal/logging"
	"storefront/internal/models"
	"storefront/internal/repositories"

	"github.com/go-playground/validator/v10"
)

// CheckoutForm is the billing form submitted at checkout.
type CheckoutForm struct {
	StreetAddress    string `json:"street_address" validate:"required,max=100"`
	ApartmentAddress string `json:"apartment_address" validate:"max=100"`
	Country          string `json:"country" validate:"required,iso3166_1_alpha2"`
	Zip              string `json:"zip" validate:"required,max=100,postcode_iso3166_alpha2_field=Country"`
	PaymentOption    string `json:"payment_option" validate:"required,oneof=stripe paypal"`
}

// CheckoutResult tells the caller where payment continues.
type CheckoutResult struct {
	Order         *models.Order        `json:"order"`
	PaymentOption models.PaymentOption `json:"payment_option"`
	Redirect      string               `json:"redirect"`
}

// CheckoutService moves an open order from cart to awaiting payment.
type CheckoutService struct {
	carts     repositories.CartRepository
	orders    repositories.OrderRepository
	publisher EventPublisher
	locks     *UserLocks
	validate  *validator.Validate
}

// NewCheckoutService creates a new CheckoutService.
func NewCheckoutService(carts repositories.CartRepository, orders repositories.OrderRepository, publisher EventPublisher, locks *UserLocks) *CheckoutService {
	return &CheckoutService{
		carts:     carts,
		orders:    orders,
		publisher: publisher,
		locks:     locks,
		validate:  validator.New(),
	}
}

// ValidationErrors converts validator output to the field map used in responses.
func ValidationErrors(err error) *ValidationError {
	fields := make(map[string]string)
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, e := range verrs {
			fields[e.Field()] = fmt.Sprintf("Field '%s' failed on the '%s' tag", e.Field(), e.Tag())
		}
	} else {
		fields["form"] = err.Error()
	}
	return &ValidationError{Fields: fields}
}

// Submit validates the form and attaches a billing address to the open order.
// Nothing is written when validation fails.
func (s *CheckoutService) Submit(ctx context.Context, userID string, form CheckoutForm) (*CheckoutResult, error) {
	unlock := s.locks.Lock(userID)
	defer unlock()

	order, err := s.carts.FindOpenOrder(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrNoActiveOrder
		}
		return nil, err
	}

	form.StreetAddress = strings.TrimSpace(form.StreetAddress)
	form.ApartmentAddress = strings.TrimSpace(form.ApartmentAddress)
	form.Country = strings.ToUpper(strings.TrimSpace(form.Country))
	form.Zip = strings.TrimSpace(form.Zip)
	form.PaymentOption = strings.ToLower(strings.TrimSpace(form.PaymentOption))
	if err := s.validate.Struct(form); err != nil {
		return nil, ValidationErrors(err)
	}

	address := &models.BillingAddress{
		UserID:           userID,
		StreetAddress:    form.StreetAddress,
		ApartmentAddress: form.ApartmentAddress,
		Country:          form.Country,
		Zip:              form.Zip,
	}
	if err := s.orders.AttachBillingAddress(ctx, order.ID, address); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrNoActiveOrder
		}
		return nil, fmt.Errorf("failed to attach billing address: %w", err)
	}
	order.BillingAddressID = &address.ID
	order.BillingAddress = address

	option := models.PaymentOption(form.PaymentOption)
	logging.FromContext(ctx).Info("checkout completed", "order_id", order.ID, "payment_option", option)
	publish(ctx, s.publisher, RoutingOrderCheckout, CheckoutEvent{
		OrderID:       order.ID,
		UserID:        userID,
		PaymentOption: string(option),
		Country:       address.Country,
		At:            time.Now(),
	})

	return &CheckoutResult{
		Order:         order,
		PaymentOption: option,
		Redirect:      "/payment/" + string(option),
	}, nil
}
