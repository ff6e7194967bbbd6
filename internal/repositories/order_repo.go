package repositories

import (
	"context"
	"time"

	"storefront/internal/models"
)

// CartRepository covers the open order of a user and its line items.
type CartRepository interface {
	// FindOpenOrder returns the user's open order with line items and items loaded.
	FindOpenOrder(ctx context.Context, userID string) (*models.Order, error)
	// GetOrCreateOpenOrder returns the open order, creating it when absent.
	// Concurrent callers for the same user observe the same order.
	GetOrCreateOpenOrder(ctx context.Context, userID string) (*models.Order, bool, error)
	// GetOrCreateLineItem returns the open line item for (user, item), creating it with quantity 1.
	GetOrCreateLineItem(ctx context.Context, userID, itemID string) (*models.LineItem, bool, error)
	AttachLineItem(ctx context.Context, orderID, lineItemID string) error
	IncrementQuantity(ctx context.Context, lineItemID string) error
	// DecrementOrDelete lowers the quantity by one, deleting the line item when it reaches zero.
	DecrementOrDelete(ctx context.Context, lineItemID string) (bool, error)
	DeleteLineItem(ctx context.Context, lineItemID string) error
}

// OrderRepository covers checkout and the ledger of finalized orders.
type OrderRepository interface {
	// AttachBillingAddress stores the address and references it from the open order in one unit.
	AttachBillingAddress(ctx context.Context, orderID string, address *models.BillingAddress) error
	// Finalize stores the payment and marks the order and its line items ordered in one unit.
	Finalize(ctx context.Context, orderID string, payment *models.Payment, orderedAt time.Time) error
	ListOrdered(ctx context.Context, userID string) ([]models.Order, error)
	GetOrdered(ctx context.Context, userID, orderID string) (*models.Order, error)
}
