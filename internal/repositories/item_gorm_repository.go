package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"storefront/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GORMItemRepository is a GORM implementation of ItemRepository.
type GORMItemRepository struct {
	db *gorm.DB
}

// NewGORMItemRepository creates a new instance of GORMItemRepository.
func NewGORMItemRepository(db *gorm.DB) *GORMItemRepository {
	return &GORMItemRepository{db: db}
}

// List returns one page of items ordered by title along with the total count.
func (r *GORMItemRepository) List(ctx context.Context, offset, limit int) ([]models.Item, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&models.Item{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count items: %w", err)
	}

	var items []models.Item
	if err := r.db.WithContext(ctx).Order("title asc").Offset(offset).Limit(limit).Find(&items).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list items: %w", err)
	}
	return items, total, nil
}

// GetBySlug retrieves a single item by its slug.
func (r *GORMItemRepository) GetBySlug(ctx context.Context, slug string) (*models.Item, error) {
	var item models.Item
	if err := r.db.WithContext(ctx).First(&item, "slug = ?", slug).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("item with slug %s: %w", slug, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get item by slug %s: %w", slug, err)
	}
	return &item, nil
}

// Search matches the query against title and description.
func (r *GORMItemRepository) Search(ctx context.Context, query string, offset, limit int) ([]models.Item, int64, error) {
	pattern := "%" + strings.ToLower(strings.TrimSpace(query)) + "%"
	q := r.db.WithContext(ctx).Model(&models.Item{}).
		Where("LOWER(title) LIKE ? OR LOWER(description) LIKE ?", pattern, pattern)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count search results: %w", err)
	}

	var items []models.Item
	if err := q.Order("title asc").Offset(offset).Limit(limit).Find(&items).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to search items: %w", err)
	}
	return items, total, nil
}

// Create inserts a new item.
func (r *GORMItemRepository) Create(ctx context.Context, item *models.Item) error {
	if item.ID == "" {
		item.ID = uuid.New().String()
	}
	if err := r.db.WithContext(ctx).Create(item).Error; err != nil {
		return fmt.Errorf("failed to create item: %w", err)
	}
	return nil
}
