package repositories

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"storefront/internal/models"

	"github.com/google/uuid"
)

// MockOrderRepository is an in-memory implementation of both CartRepository and
// OrderRepository. Every check-and-create runs under a single mutex.
type MockOrderRepository struct {
	items     *MockItemRepository
	orders    map[string]models.Order
	lineItems map[string]models.LineItem
	addresses map[string]models.BillingAddress
	payments  map[string]models.Payment
	mu        sync.RWMutex
}

// NewMockOrderRepository creates a new instance of MockOrderRepository that
// resolves line item products through the given item repository.
func NewMockOrderRepository(items *MockItemRepository) *MockOrderRepository {
	return &MockOrderRepository{
		items:     items,
		orders:    make(map[string]models.Order),
		lineItems: make(map[string]models.LineItem),
		addresses: make(map[string]models.BillingAddress),
		payments:  make(map[string]models.Payment),
	}
}

// assemble returns a copy of the order with its associations filled in. Callers must hold the lock.
func (r *MockOrderRepository) assemble(o models.Order) *models.Order {
	out := o
	out.LineItems = nil
	for _, li := range r.lineItems {
		if li.OrderID != nil && *li.OrderID == o.ID {
			li.Item, _ = r.items.lookup(li.ItemID)
			out.LineItems = append(out.LineItems, li)
		}
	}
	sort.Slice(out.LineItems, func(i, j int) bool {
		return out.LineItems[i].CreatedAt.Before(out.LineItems[j].CreatedAt)
	})
	if o.BillingAddressID != nil {
		if addr, ok := r.addresses[*o.BillingAddressID]; ok {
			out.BillingAddress = &addr
		}
	}
	if o.PaymentID != nil {
		if p, ok := r.payments[*o.PaymentID]; ok {
			out.Payment = &p
		}
	}
	return &out
}

func (r *MockOrderRepository) openOrder(userID string) (models.Order, bool) {
	for _, o := range r.orders {
		if o.UserID == userID && !o.Ordered {
			return o, true
		}
	}
	return models.Order{}, false
}

func (r *MockOrderRepository) FindOpenOrder(_ context.Context, userID string) (*models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	o, ok := r.openOrder(userID)
	if !ok {
		return nil, fmt.Errorf("open order for user %s: %w", userID, ErrNotFound)
	}
	return r.assemble(o), nil
}

func (r *MockOrderRepository) GetOrCreateOpenOrder(_ context.Context, userID string) (*models.Order, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if o, ok := r.openOrder(userID); ok {
		return r.assemble(o), false, nil
	}
	o := models.Order{ID: uuid.New().String(), UserID: userID, StartDate: time.Now()}
	r.orders[o.ID] = o
	return r.assemble(o), true, nil
}

func (r *MockOrderRepository) GetOrCreateLineItem(_ context.Context, userID, itemID string) (*models.LineItem, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, li := range r.lineItems {
		if li.UserID == userID && li.ItemID == itemID && !li.Ordered {
			li.Item, _ = r.items.lookup(itemID)
			return &li, false, nil
		}
	}
	now := time.Now()
	li := models.LineItem{
		ID:        uuid.New().String(),
		UserID:    userID,
		ItemID:    itemID,
		Quantity:  1,
		CreatedAt: now,
		UpdatedAt: now,
	}
	r.lineItems[li.ID] = li
	li.Item, _ = r.items.lookup(itemID)
	return &li, true, nil
}

// openLineItem fetches an open line item for mutation. Callers must hold the write lock.
func (r *MockOrderRepository) openLineItem(id string) (models.LineItem, error) {
	li, ok := r.lineItems[id]
	if !ok || li.Ordered {
		return models.LineItem{}, fmt.Errorf("line item %s: %w", id, ErrNotFound)
	}
	return li, nil
}

func (r *MockOrderRepository) AttachLineItem(_ context.Context, orderID, lineItemID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	li, err := r.openLineItem(lineItemID)
	if err != nil {
		return err
	}
	li.OrderID = &orderID
	li.UpdatedAt = time.Now()
	r.lineItems[li.ID] = li
	return nil
}

func (r *MockOrderRepository) IncrementQuantity(_ context.Context, lineItemID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	li, err := r.openLineItem(lineItemID)
	if err != nil {
		return err
	}
	li.Quantity++
	li.UpdatedAt = time.Now()
	r.lineItems[li.ID] = li
	return nil
}

func (r *MockOrderRepository) DecrementOrDelete(_ context.Context, lineItemID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	li, err := r.openLineItem(lineItemID)
	if err != nil {
		return false, err
	}
	if li.Quantity > 1 {
		li.Quantity--
		li.UpdatedAt = time.Now()
		r.lineItems[li.ID] = li
		return false, nil
	}
	delete(r.lineItems, li.ID)
	return true, nil
}

func (r *MockOrderRepository) DeleteLineItem(_ context.Context, lineItemID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, err := r.openLineItem(lineItemID); err != nil {
		return err
	}
	delete(r.lineItems, lineItemID)
	return nil
}

func (r *MockOrderRepository) AttachBillingAddress(_ context.Context, orderID string, address *models.BillingAddress) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	o, ok := r.orders[orderID]
	if !ok || o.Ordered {
		return fmt.Errorf("open order %s: %w", orderID, ErrNotFound)
	}
	if address.ID == "" {
		address.ID = uuid.New().String()
	}
	address.CreatedAt = time.Now()
	r.addresses[address.ID] = *address
	o.BillingAddressID = &address.ID
	r.orders[orderID] = o
	return nil
}

func (r *MockOrderRepository) Finalize(_ context.Context, orderID string, payment *models.Payment, orderedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	o, ok := r.orders[orderID]
	if !ok {
		return fmt.Errorf("order %s: %w", orderID, ErrNotFound)
	}
	if o.Ordered {
		return fmt.Errorf("order %s: %w", orderID, ErrAlreadyOrdered)
	}
	if payment.ID == "" {
		payment.ID = uuid.New().String()
	}
	r.payments[payment.ID] = *payment

	o.Ordered = true
	o.OrderedDate = &orderedAt
	o.PaymentID = &payment.ID
	r.orders[orderID] = o

	for id, li := range r.lineItems {
		if li.OrderID != nil && *li.OrderID == orderID {
			li.Ordered = true
			r.lineItems[id] = li
		}
	}
	return nil
}

func (r *MockOrderRepository) ListOrdered(_ context.Context, userID string) ([]models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	orders := make([]models.Order, 0)
	for _, o := range r.orders {
		if o.UserID == userID && o.Ordered {
			orders = append(orders, *r.assemble(o))
		}
	}
	sort.Slice(orders, func(i, j int) bool {
		return orders[i].OrderedDate.After(*orders[j].OrderedDate)
	})
	return orders, nil
}

func (r *MockOrderRepository) GetOrdered(_ context.Context, userID, orderID string) (*models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	o, ok := r.orders[orderID]
	if !ok || o.UserID != userID || !o.Ordered {
		return nil, fmt.Errorf("order %s: %w", orderID, ErrNotFound)
	}
	return r.assemble(o), nil
}
