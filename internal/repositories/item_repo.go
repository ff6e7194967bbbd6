package repositories

import (
	"context"

	"storefront/internal/models"
)

// ItemRepository defines the interface for catalog data access.
type ItemRepository interface {
	List(ctx context.Context, offset, limit int) ([]models.Item, int64, error)
	GetBySlug(ctx context.Context, slug string) (*models.Item, error)
	Search(ctx context.Context, query string, offset, limit int) ([]models.Item, int64, error)
	Create(ctx context.Context, item *models.Item) error
}
