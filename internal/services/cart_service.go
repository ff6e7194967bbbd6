package services

import (
	"context"
	"errors"
	"fmt"

	"storefront/internal/logging"
	"storefront/internal/models"
	"storefront/internal/repositories"
)

// CartOutcome tells the caller which branch a cart mutation took.
type CartOutcome string

const (
	OutcomeItemAdded         CartOutcome = "added"
	OutcomeQuantityIncreased CartOutcome = "increased"
	OutcomeQuantityDecreased CartOutcome = "decreased"
	OutcomeItemRemoved       CartOutcome = "removed"
)

// CartService handles the open order of a user and its line items.
type CartService struct {
	items repositories.ItemRepository
	carts repositories.CartRepository
	locks *UserLocks
}

// NewCartService creates a new CartService.
func NewCartService(items repositories.ItemRepository, carts repositories.CartRepository, locks *UserLocks) *CartService {
	return &CartService{items: items, carts: carts, locks: locks}
}

func (s *CartService) item(ctx context.Context, slug string) (*models.Item, error) {
	item, err := s.items.GetBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrItemNotFound, slug)
		}
		return nil, err
	}
	return item, nil
}

// OpenOrder returns the user's open order. ErrNoActiveOrder when there is none.
func (s *CartService) OpenOrder(ctx context.Context, userID string) (*models.Order, error) {
	order, err := s.carts.FindOpenOrder(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrNoActiveOrder
		}
		return nil, err
	}
	return order, nil
}

// AddItem puts one more unit of the item in the user's cart, opening an order when needed.
func (s *CartService) AddItem(ctx context.Context, userID, slug string) (CartOutcome, error) {
	item, err := s.item(ctx, slug)
	if err != nil {
		return "", err
	}

	unlock := s.locks.Lock(userID)
	defer unlock()

	lineItem, _, err := s.carts.GetOrCreateLineItem(ctx, userID, item.ID)
	if err != nil {
		return "", fmt.Errorf("failed to get line item for %s: %w", slug, err)
	}
	order, created, err := s.carts.GetOrCreateOpenOrder(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("failed to get open order: %w", err)
	}

	log := logging.FromContext(ctx).With("order_id", order.ID, "slug", slug)
	if !created {
		if _, ok := order.LineItemFor(slug); ok {
			if err := s.carts.IncrementQuantity(ctx, lineItem.ID); err != nil {
				return "", fmt.Errorf("failed to increment %s: %w", slug, err)
			}
			log.Info("cart item quantity increased")
			return OutcomeQuantityIncreased, nil
		}
	}

	if err := s.carts.AttachLineItem(ctx, order.ID, lineItem.ID); err != nil {
		return "", fmt.Errorf("failed to attach %s to order: %w", slug, err)
	}
	log.Info("item added to cart", "new_order", created)
	return OutcomeItemAdded, nil
}

// RemoveItem takes one unit of the item out of the cart, dropping the line item at zero.
func (s *CartService) RemoveItem(ctx context.Context, userID, slug string) (CartOutcome, error) {
	return s.remove(ctx, userID, slug, func(lineItemID string) (CartOutcome, error) {
		deleted, err := s.carts.DecrementOrDelete(ctx, lineItemID)
		if err != nil {
			return "", err
		}
		if deleted {
			return OutcomeItemRemoved, nil
		}
		return OutcomeQuantityDecreased, nil
	})
}

// RemoveItemEntirely drops the item's line item whatever its quantity.
func (s *CartService) RemoveItemEntirely(ctx context.Context, userID, slug string) (CartOutcome, error) {
	return s.remove(ctx, userID, slug, func(lineItemID string) (CartOutcome, error) {
		if err := s.carts.DeleteLineItem(ctx, lineItemID); err != nil {
			return "", err
		}
		return OutcomeItemRemoved, nil
	})
}

func (s *CartService) remove(ctx context.Context, userID, slug string, apply func(lineItemID string) (CartOutcome, error)) (CartOutcome, error) {
	if _, err := s.item(ctx, slug); err != nil {
		return "", err
	}

	unlock := s.locks.Lock(userID)
	defer unlock()

	order, err := s.OpenOrder(ctx, userID)
	if err != nil {
		return "", err
	}
	lineItem, ok := order.LineItemFor(slug)
	if !ok {
		return "", ErrItemNotInCart
	}

	outcome, err := apply(lineItem.ID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return "", ErrItemNotInCart
		}
		return "", fmt.Errorf("failed to remove %s from cart: %w", slug, err)
	}
	logging.FromContext(ctx).Info("cart item removed", "order_id", order.ID, "slug", slug, "outcome", outcome)
	return outcome, nil
}
