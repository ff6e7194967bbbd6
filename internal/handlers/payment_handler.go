package handlers

import (
	"errors"

	"storefront/internal/gateway"
	"storefront/internal/middleware"
	"storefront/internal/models"
	"storefront/internal/services"

	"github.com/gofiber/fiber/v2"
)

var kindStatus = map[gateway.ErrorKind]int{
	gateway.CardDeclined:         fiber.StatusPaymentRequired,
	gateway.InvalidRequest:       fiber.StatusBadRequest,
	gateway.RateLimited:          fiber.StatusTooManyRequests,
	gateway.AuthenticationFailed: fiber.StatusBadGateway,
	gateway.NetworkError:         fiber.StatusGatewayTimeout,
	gateway.GenericGatewayError:  fiber.StatusBadGateway,
	gateway.UnknownError:         fiber.StatusInternalServerError,
}

// PaymentHandler shows the payment page and charges the open order.
type PaymentHandler struct {
	service *services.PaymentService
}

// NewPaymentHandler creates a new PaymentHandler.
func NewPaymentHandler(service *services.PaymentService) *PaymentHandler {
	return &PaymentHandler{service: service}
}

// RegisterRoutes registers the payment routes behind auth.
func (h *PaymentHandler) RegisterRoutes(router fiber.Router, auth fiber.Handler) {
	paymentRoutes := router.Group("/payment", auth)
	paymentRoutes.Get("/:option", h.HandlePaymentDetails)
	paymentRoutes.Post("/:option", h.HandleCharge)
}

// PaymentRequest carries the card token produced by the processor's client library.
type PaymentRequest struct {
	Token string `json:"stripeToken" form:"stripeToken"`
}

func paymentOption(c *fiber.Ctx) (models.PaymentOption, bool) {
	switch opt := models.PaymentOption(c.Params("option")); opt {
	case models.PaymentOptionStripe, models.PaymentOptionPayPal:
		return opt, true
	default:
		return "", false
	}
}

// HandlePaymentDetails returns the open order and the amount about to be charged.
func (h *PaymentHandler) HandlePaymentDetails(c *fiber.Ctx) error {
	option, ok := paymentOption(c)
	if !ok {
		return respond(c, fiber.StatusBadRequest, levelWarning, "Invalid payment option selected", "/order-summary", nil)
	}
	details, err := h.service.Details(c.UserContext(), middleware.CurrentUserID(c), option)
	if err != nil {
		if errors.Is(err, services.ErrNoActiveOrder) {
			return respond(c, fiber.StatusOK, levelWarning, "You do not have an active order", "/", nil)
		}
		return internalError(c, "Could not load payment details", err)
	}
	return c.JSON(fiber.Map{
		"order":          details.Order,
		"total":          details.Total.StringFixed(2),
		"payment_option": details.PaymentOption,
		"available":      details.Available,
	})
}

// HandleCharge charges the open order with the submitted token.
func (h *PaymentHandler) HandleCharge(c *fiber.Ctx) error {
	option, ok := paymentOption(c)
	if !ok {
		return respond(c, fiber.StatusBadRequest, levelWarning, "Invalid payment option selected", "/order-summary", nil)
	}
	var req PaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return respond(c, fiber.StatusBadRequest, levelError, "Invalid request body", "", fiber.Map{"error": err.Error()})
	}

	payment, err := h.service.Charge(c.UserContext(), middleware.CurrentUserID(c), option, req.Token)
	if err != nil {
		var (
			gwErr *gateway.Error
			verr  *services.ValidationError
		)
		switch {
		case errors.As(err, &gwErr):
			return respond(c, kindStatus[gwErr.Kind], levelError, gwErr.UserMessage(), "/", fiber.Map{"kind": gwErr.Kind.String()})
		case errors.As(err, &verr):
			return validationFailed(c, "Invalid payment details", verr)
		case errors.Is(err, services.ErrNoActiveOrder):
			return respond(c, fiber.StatusOK, levelWarning, "You do not have an active order", "/", nil)
		case errors.Is(err, services.ErrEmptyCart):
			return respond(c, fiber.StatusBadRequest, levelWarning, "Your cart is empty", "/order-summary", nil)
		case errors.Is(err, services.ErrPaymentOptionUnavailable):
			return respond(c, fiber.StatusBadRequest, levelWarning, "This payment option is not available", "/order-summary", nil)
		case errors.Is(err, services.ErrPersistenceInconsistency):
			return respond(c, fiber.StatusInternalServerError, levelError,
				"Your payment was received but we could not record your order. We have been notified.", "/", nil)
		default:
			return internalError(c, "Could not process payment", err)
		}
	}
	return respond(c, fiber.StatusOK, levelSuccess, "Your order was successful!", "/", fiber.Map{"payment": payment})
}
