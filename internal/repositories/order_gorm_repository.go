package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"storefront/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GORMOrderRepository is a GORM implementation of OrderRepository.
type GORMOrderRepository struct {
	db *gorm.DB
}

// NewGORMOrderRepository creates a new instance of GORMOrderRepository.
func NewGORMOrderRepository(db *gorm.DB) *GORMOrderRepository {
	return &GORMOrderRepository{db: db}
}

func (r *GORMOrderRepository) AttachBillingAddress(ctx context.Context, orderID string, address *models.BillingAddress) error {
	if address.ID == "" {
		address.ID = uuid.New().String()
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(address).Error; err != nil {
			return fmt.Errorf("failed to create billing address: %w", err)
		}
		res := tx.Model(&models.Order{}).
			Where("id = ? AND ordered = ?", orderID, false).
			Update("billing_address_id", address.ID)
		if res.Error != nil {
			return fmt.Errorf("failed to attach billing address to order %s: %w", orderID, res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("open order %s: %w", orderID, ErrNotFound)
		}
		return nil
	})
}

func (r *GORMOrderRepository) Finalize(ctx context.Context, orderID string, payment *models.Payment, orderedAt time.Time) error {
	if payment.ID == "" {
		payment.ID = uuid.New().String()
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(payment).Error; err != nil {
			return fmt.Errorf("failed to create payment: %w", err)
		}
		res := tx.Model(&models.Order{}).
			Where("id = ? AND ordered = ?", orderID, false).
			Updates(map[string]interface{}{
				"ordered":      true,
				"ordered_date": orderedAt,
				"payment_id":   payment.ID,
			})
		if res.Error != nil {
			return fmt.Errorf("failed to mark order %s ordered: %w", orderID, res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("order %s: %w", orderID, ErrAlreadyOrdered)
		}
		if err := tx.Model(&models.LineItem{}).
			Where("order_id = ?", orderID).
			Update("ordered", true).Error; err != nil {
			return fmt.Errorf("failed to mark line items of order %s ordered: %w", orderID, err)
		}
		return nil
	})
}

func (r *GORMOrderRepository) ledger(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("LineItems", func(db *gorm.DB) *gorm.DB { return db.Order("created_at asc") }).
		Preload("LineItems.Item").
		Preload("BillingAddress").
		Preload("Payment")
}

func (r *GORMOrderRepository) ListOrdered(ctx context.Context, userID string) ([]models.Order, error) {
	var orders []models.Order
	if err := r.ledger(ctx).
		Where("user_id = ? AND ordered = ?", userID, true).
		Order("ordered_date desc").
		Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("failed to list orders for user %s: %w", userID, err)
	}
	return orders, nil
}

func (r *GORMOrderRepository) GetOrdered(ctx context.Context, userID, orderID string) (*models.Order, error) {
	var order models.Order
	if err := r.ledger(ctx).
		Where("id = ? AND user_id = ? AND ordered = ?", orderID, userID, true).
		First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("order %s: %w", orderID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get order %s: %w", orderID, err)
	}
	return &order, nil
}
