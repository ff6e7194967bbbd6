package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"storefront/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GORMCartRepository is a GORM implementation of CartRepository.
// The database must be opened with TranslateError so duplicate keys surface as gorm.ErrDuplicatedKey.
type GORMCartRepository struct {
	db *gorm.DB
}

// NewGORMCartRepository creates a new instance of GORMCartRepository.
func NewGORMCartRepository(db *gorm.DB) *GORMCartRepository {
	return &GORMCartRepository{db: db}
}

func (r *GORMCartRepository) FindOpenOrder(ctx context.Context, userID string) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("LineItems", func(db *gorm.DB) *gorm.DB { return db.Order("created_at asc") }).
		Preload("LineItems.Item").
		Preload("BillingAddress").
		Where("user_id = ? AND ordered = ?", userID, false).
		First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("open order for user %s: %w", userID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get open order for user %s: %w", userID, err)
	}
	return &order, nil
}

// GetOrCreateOpenOrder relies on the partial unique index on open orders: a losing
// concurrent insert gets a duplicate key and re-reads the winner's row.
func (r *GORMCartRepository) GetOrCreateOpenOrder(ctx context.Context, userID string) (*models.Order, bool, error) {
	order, err := r.FindOpenOrder(ctx, userID)
	if err == nil {
		return order, false, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, false, err
	}

	order = &models.Order{
		ID:        uuid.New().String(),
		UserID:    userID,
		StartDate: time.Now(),
	}
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(order).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			existing, findErr := r.FindOpenOrder(ctx, userID)
			if findErr != nil {
				return nil, false, fmt.Errorf("failed to re-read open order after conflict: %w", findErr)
			}
			return existing, false, nil
		}
		return nil, false, fmt.Errorf("failed to create open order: %w", err)
	}
	return order, true, nil
}

func (r *GORMCartRepository) findOpenLineItem(ctx context.Context, userID, itemID string) (*models.LineItem, error) {
	var li models.LineItem
	err := r.db.WithContext(ctx).
		Preload("Item").
		Where("user_id = ? AND item_id = ? AND ordered = ?", userID, itemID, false).
		First(&li).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get open line item: %w", err)
	}
	return &li, nil
}

func (r *GORMCartRepository) GetOrCreateLineItem(ctx context.Context, userID, itemID string) (*models.LineItem, bool, error) {
	li, err := r.findOpenLineItem(ctx, userID, itemID)
	if err == nil {
		return li, false, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, false, err
	}

	li = &models.LineItem{
		ID:       uuid.New().String(),
		UserID:   userID,
		ItemID:   itemID,
		Quantity: 1,
	}
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(li).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			existing, findErr := r.findOpenLineItem(ctx, userID, itemID)
			if findErr != nil {
				return nil, false, fmt.Errorf("failed to re-read line item after conflict: %w", findErr)
			}
			return existing, false, nil
		}
		return nil, false, fmt.Errorf("failed to create line item: %w", err)
	}
	return li, true, nil
}

func (r *GORMCartRepository) AttachLineItem(ctx context.Context, orderID, lineItemID string) error {
	res := r.db.WithContext(ctx).Model(&models.LineItem{}).
		Where("id = ? AND ordered = ?", lineItemID, false).
		Update("order_id", orderID)
	if res.Error != nil {
		return fmt.Errorf("failed to attach line item %s: %w", lineItemID, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("line item %s: %w", lineItemID, ErrNotFound)
	}
	return nil
}

func (r *GORMCartRepository) IncrementQuantity(ctx context.Context, lineItemID string) error {
	res := r.db.WithContext(ctx).Model(&models.LineItem{}).
		Where("id = ? AND ordered = ?", lineItemID, false).
		Update("quantity", gorm.Expr("quantity + ?", 1))
	if res.Error != nil {
		return fmt.Errorf("failed to increment line item %s: %w", lineItemID, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("line item %s: %w", lineItemID, ErrNotFound)
	}
	return nil
}

func (r *GORMCartRepository) DecrementOrDelete(ctx context.Context, lineItemID string) (bool, error) {
	deleted := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var li models.LineItem
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ? AND ordered = ?", lineItemID, false).
			First(&li).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("line item %s: %w", lineItemID, ErrNotFound)
			}
			return err
		}
		if li.Quantity > 1 {
			return tx.Model(&li).Update("quantity", gorm.Expr("quantity - ?", 1)).Error
		}
		if err := tx.Delete(&li).Error; err != nil {
			return err
		}
		deleted = true
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("failed to remove one of line item %s: %w", lineItemID, err)
	}
	return deleted, nil
}

func (r *GORMCartRepository) DeleteLineItem(ctx context.Context, lineItemID string) error {
	res := r.db.WithContext(ctx).Where("ordered = ?", false).Delete(&models.LineItem{}, "id = ?", lineItemID)
	if res.Error != nil {
		return fmt.Errorf("failed to delete line item %s: %w", lineItemID, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("line item %s: %w", lineItemID, ErrNotFound)
	}
	return nil
}
