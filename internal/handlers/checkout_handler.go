package handlers

import (
	"errors"

	"storefront/internal/middleware"
	"storefront/internal/services"

	"github.com/gofiber/fiber/v2"
)

// CheckoutHandler accepts the billing form.
type CheckoutHandler struct {
	service *services.CheckoutService
}

// NewCheckoutHandler creates a new CheckoutHandler.
func NewCheckoutHandler(service *services.CheckoutService) *CheckoutHandler {
	return &CheckoutHandler{service: service}
}

// RegisterRoutes registers the checkout route behind auth.
func (h *CheckoutHandler) RegisterRoutes(router fiber.Router, auth fiber.Handler) {
	router.Post("/checkout", auth, h.HandleCheckout)
}

// HandleCheckout validates the form, attaches the billing address and points at the payment page.
func (h *CheckoutHandler) HandleCheckout(c *fiber.Ctx) error {
	var form services.CheckoutForm
	if err := c.BodyParser(&form); err != nil {
		return respond(c, fiber.StatusBadRequest, levelError, "Invalid request body", "", fiber.Map{"error": err.Error()})
	}

	result, err := h.service.Submit(c.UserContext(), middleware.CurrentUserID(c), form)
	if err != nil {
		var verr *services.ValidationError
		switch {
		case errors.As(err, &verr):
			return validationFailed(c, "Failed checkout", verr)
		case errors.Is(err, services.ErrNoActiveOrder):
			return respond(c, fiber.StatusOK, levelInfo, "You do not have an active order", "/order-summary", nil)
		default:
			return internalError(c, "Could not complete checkout", err)
		}
	}
	return respond(c, fiber.StatusOK, levelSuccess, "Billing address saved", result.Redirect, fiber.Map{
		"order":          result.Order,
		"payment_option": result.PaymentOption,
	})
}
