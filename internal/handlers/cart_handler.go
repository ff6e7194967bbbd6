package handlers

import (
	"errors"

	"storefront/internal/middleware"
	"storefront/internal/services"

	"github.com/gofiber/fiber/v2"
)

var outcomeMessages = map[services.CartOutcome]string{
	services.OutcomeItemAdded:         "This item was added to your cart.",
	services.OutcomeQuantityIncreased: "This item quantity was updated.",
	services.OutcomeQuantityDecreased: "This item quantity was updated.",
	services.OutcomeItemRemoved:       "This item was removed from your cart.",
}

// CartHandler handles cart mutations and the order summary.
type CartHandler struct {
	service *services.CartService
}

// NewCartHandler creates a new CartHandler.
func NewCartHandler(service *services.CartService) *CartHandler {
	return &CartHandler{service: service}
}

// RegisterRoutes registers the cart routes behind auth.
func (h *CartHandler) RegisterRoutes(router fiber.Router, auth fiber.Handler) {
	cartRoutes := router.Group("/cart", auth)
	cartRoutes.Post("/:slug", h.HandleAddToCart)
	cartRoutes.Delete("/:slug", h.HandleRemoveFromCart)
	cartRoutes.Post("/:slug/single", h.HandleAddSingle)
	cartRoutes.Delete("/:slug/single", h.HandleRemoveSingle)
	router.Get("/order-summary", auth, h.HandleOrderSummary)
}

type cartMutation func(c *fiber.Ctx, userID, slug string) (services.CartOutcome, error)

// mutate runs one cart mutation and reports its outcome with the given redirect.
func (h *CartHandler) mutate(c *fiber.Ctx, fn cartMutation, redirect string) error {
	slug := c.Params("slug")
	outcome, err := fn(c, middleware.CurrentUserID(c), slug)
	switch {
	case err == nil:
		return respond(c, fiber.StatusOK, levelInfo, outcomeMessages[outcome], redirect, fiber.Map{"outcome": outcome})
	case errors.Is(err, services.ErrItemNotFound):
		return respond(c, fiber.StatusNotFound, levelWarning, "Item not found", "/items", nil)
	case errors.Is(err, services.ErrNoActiveOrder):
		return respond(c, fiber.StatusOK, levelInfo, "You do not have an active order", redirect, nil)
	case errors.Is(err, services.ErrItemNotInCart):
		return respond(c, fiber.StatusOK, levelInfo, "This item was not in your cart", redirect, nil)
	default:
		return internalError(c, "Could not update cart", err)
	}
}

// HandleAddToCart adds one unit and points back at the item page.
func (h *CartHandler) HandleAddToCart(c *fiber.Ctx) error {
	return h.mutate(c, func(c *fiber.Ctx, userID, slug string) (services.CartOutcome, error) {
		return h.service.AddItem(c.UserContext(), userID, slug)
	}, "/items/"+c.Params("slug"))
}

// HandleRemoveFromCart drops the whole line item and points back at the item page.
func (h *CartHandler) HandleRemoveFromCart(c *fiber.Ctx) error {
	return h.mutate(c, func(c *fiber.Ctx, userID, slug string) (services.CartOutcome, error) {
		return h.service.RemoveItemEntirely(c.UserContext(), userID, slug)
	}, "/items/"+c.Params("slug"))
}

// HandleAddSingle adds one unit from the order summary.
func (h *CartHandler) HandleAddSingle(c *fiber.Ctx) error {
	return h.mutate(c, func(c *fiber.Ctx, userID, slug string) (services.CartOutcome, error) {
		return h.service.AddItem(c.UserContext(), userID, slug)
	}, "/order-summary")
}

// HandleRemoveSingle removes one unit from the order summary.
func (h *CartHandler) HandleRemoveSingle(c *fiber.Ctx) error {
	return h.mutate(c, func(c *fiber.Ctx, userID, slug string) (services.CartOutcome, error) {
		return h.service.RemoveItem(c.UserContext(), userID, slug)
	}, "/order-summary")
}

// HandleOrderSummary returns the open order and its total.
func (h *CartHandler) HandleOrderSummary(c *fiber.Ctx) error {
	order, err := h.service.OpenOrder(c.UserContext(), middleware.CurrentUserID(c))
	if err != nil {
		if errors.Is(err, services.ErrNoActiveOrder) {
			return respond(c, fiber.StatusOK, levelWarning, "You do not have an active order", "/", nil)
		}
		return internalError(c, "Could not retrieve order summary", err)
	}
	return c.JSON(fiber.Map{
		"order": order,
		"total": order.GetTotal().StringFixed(2),
		"state": order.CheckoutState(),
	})
}
