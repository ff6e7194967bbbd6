package main

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"storefront/internal/gateway"
	"storefront/internal/handlers"
	"storefront/internal/middleware"
	"storefront/internal/models"
	"storefront/internal/repositories"
	"storefront/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/shopspring/decimal"
)

// stores bundles the repositories backing the services.
type stores struct {
	items  repositories.ItemRepository
	carts  repositories.CartRepository
	orders repositories.OrderRepository
	users  repositories.UserRepository
}

func memoryStores() stores {
	items := repositories.NewMockItemRepository()
	orders := repositories.NewMockOrderRepository(items)
	return stores{items: items, carts: orders, orders: orders, users: repositories.NewMockUserRepository()}
}

// application holds the wired services behind the HTTP routes.
type application struct {
	auth     *services.AuthService
	items    *services.ItemService
	carts    *services.CartService
	checkout *services.CheckoutService
	payments *services.PaymentService
	orders   *services.OrderService
	broker   string
}

func newApplication(s stores, jwtSecret string, chargers map[models.PaymentOption]gateway.Charger, publisher services.EventPublisher, searcher services.ItemSearcher, broker string) *application {
	// One lock set for every service that mutates a user's open order.
	locks := services.NewUserLocks()
	return &application{
		auth:     services.NewAuthService(s.users, jwtSecret),
		items:    services.NewItemService(s.items, searcher),
		carts:    services.NewCartService(s.items, s.carts, locks),
		checkout: services.NewCheckoutService(s.carts, s.orders, publisher, locks),
		payments: services.NewPaymentService(s.carts, s.orders, chargers, publisher, locks),
		orders:   services.NewOrderService(s.orders),
		broker:   broker,
	}
}

// errorHandler renders errors escaping the handlers in the common JSON envelope.
func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}
	return c.Status(code).JSON(fiber.Map{
		"message": err.Error(),
		"level":   "error",
	})
}

func newApp(a *application, log *slog.Logger) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "storefront",
		ErrorHandler: errorHandler,
	})

	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.RequestLogger(log))

	apiV1 := app.Group("/api/v1")
	auth := middleware.AuthRequired(a.auth)

	handlers.NewAuthHandler(a.auth).RegisterRoutes(apiV1)
	handlers.NewItemHandler(a.items).RegisterRoutes(apiV1)
	handlers.NewCartHandler(a.carts).RegisterRoutes(apiV1, auth)
	handlers.NewCheckoutHandler(a.checkout).RegisterRoutes(apiV1, auth)
	handlers.NewPaymentHandler(a.payments).RegisterRoutes(apiV1, auth)
	handlers.NewOrderHandler(a.orders).RegisterRoutes(apiV1, auth)

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
			"events": a.broker,
		})
	})

	return app
}

// seedItems populates an empty catalog with a few items.
func seedItems(ctx context.Context, svc *services.ItemService, log *slog.Logger) {
	page, err := svc.ListItems(ctx, 1)
	if err != nil {
		log.Error("failed to inspect catalog before seeding", "error", err)
		return
	}
	if page.Total > 0 {
		return
	}

	items := []models.Item{
		{Title: "Classic Tee", Description: "Plain cotton t-shirt", Price: decimal.RequireFromString("19.99"), Category: models.CategoryShirt, Label: models.LabelPrimary, Slug: "classic-tee"},
		{Title: "Oxford Shirt", Description: "Button-down oxford shirt", Price: decimal.RequireFromString("49.00"), DiscountPrice: decimal.NewNullDecimal(decimal.RequireFromString("39.00")), Category: models.CategoryShirt, Label: models.LabelDanger, Slug: "oxford-shirt"},
		{Title: "Track Jacket", Description: "Lightweight sport jacket", Price: decimal.RequireFromString("65.50"), Category: models.CategorySportWear, Label: models.LabelSecondary, Slug: "track-jacket"},
		{Title: "Wool Coat", Description: "Warm winter coat", Price: decimal.RequireFromString("189.00"), Category: models.CategoryOutwear, Label: models.LabelPrimary, Slug: "wool-coat"},
	}
	for i := range items {
		if err := svc.CreateItem(ctx, &items[i]); err != nil {
			log.Error("failed to seed item", "slug", items[i].Slug, "error", err)
			continue
		}
		log.Info("seeded item", "slug", items[i].Slug, "id", items[i].ID)
	}
}
