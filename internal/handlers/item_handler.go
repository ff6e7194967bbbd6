package handlers

import (
	"errors"

	"storefront/internal/services"

	"github.com/gofiber/fiber/v2"
)

// ItemHandler serves the public catalog.
type ItemHandler struct {
	service *services.ItemService
}

// NewItemHandler creates a new ItemHandler.
func NewItemHandler(service *services.ItemService) *ItemHandler {
	return &ItemHandler{service: service}
}

// RegisterRoutes registers the catalog routes with the Fiber app.
func (h *ItemHandler) RegisterRoutes(router fiber.Router) {
	itemRoutes := router.Group("/items")
	itemRoutes.Get("/", h.HandleListItems)
	itemRoutes.Get("/search", h.HandleSearchItems)
	itemRoutes.Get("/:slug", h.HandleGetItem)
}

// HandleListItems returns one page of the catalog.
func (h *ItemHandler) HandleListItems(c *fiber.Ctx) error {
	page, err := h.service.ListItems(c.UserContext(), pageParam(c))
	if err != nil {
		return internalError(c, "Could not retrieve items", err)
	}
	return c.JSON(page)
}

// HandleSearchItems returns one page of items matching ?q=.
func (h *ItemHandler) HandleSearchItems(c *fiber.Ctx) error {
	page, err := h.service.SearchItems(c.UserContext(), c.Query("q"), pageParam(c))
	if err != nil {
		return internalError(c, "Could not search items", err)
	}
	return c.JSON(page)
}

// HandleGetItem returns a single item by slug.
func (h *ItemHandler) HandleGetItem(c *fiber.Ctx) error {
	slug := c.Params("slug")
	item, err := h.service.GetItem(c.UserContext(), slug)
	if err != nil {
		if errors.Is(err, services.ErrItemNotFound) {
			return respond(c, fiber.StatusNotFound, levelWarning, "Item not found", "", nil)
		}
		return internalError(c, "Could not retrieve item", err)
	}
	return c.JSON(item)
}
