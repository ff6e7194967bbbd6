package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"storefront/internal/logging"
	"storefront/internal/models"
	"storefront/internal/repositories"
)

// ItemsPerPage is the catalog page size.
const ItemsPerPage = 10

// ItemSearcher is a full-text index over the catalog.
type ItemSearcher interface {
	Search(ctx context.Context, query string, from, size int) (int64, []models.Item, error)
	Index(ctx context.Context, item models.Item) error
}

// ItemPage is one page of catalog results.
type ItemPage struct {
	Items    []models.Item `json:"items"`
	Page     int           `json:"page"`
	PageSize int           `json:"page_size"`
	Total    int64         `json:"total"`
}

// ItemService handles catalog reads.
type ItemService struct {
	repo     repositories.ItemRepository
	searcher ItemSearcher
}

// NewItemService creates a new ItemService. searcher may be nil, in which case
// searches fall back to the repository.
func NewItemService(repo repositories.ItemRepository, searcher ItemSearcher) *ItemService {
	return &ItemService{repo: repo, searcher: searcher}
}

func offsetFor(page int) (int, int) {
	if page < 1 {
		page = 1
	}
	return page, (page - 1) * ItemsPerPage
}

// ListItems returns the given 1-based catalog page.
func (s *ItemService) ListItems(ctx context.Context, page int) (*ItemPage, error) {
	page, offset := offsetFor(page)
	items, total, err := s.repo.List(ctx, offset, ItemsPerPage)
	if err != nil {
		return nil, err
	}
	return &ItemPage{Items: items, Page: page, PageSize: ItemsPerPage, Total: total}, nil
}

// GetItem retrieves a single item by slug.
func (s *ItemService) GetItem(ctx context.Context, slug string) (*models.Item, error) {
	item, err := s.repo.GetBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrItemNotFound, slug)
		}
		return nil, err
	}
	return item, nil
}

// SearchItems queries the search index, or the repository when no index is configured
// or the index is unavailable.
func (s *ItemService) SearchItems(ctx context.Context, query string, page int) (*ItemPage, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return s.ListItems(ctx, page)
	}
	page, offset := offsetFor(page)

	if s.searcher != nil {
		total, items, err := s.searcher.Search(ctx, query, offset, ItemsPerPage)
		if err == nil {
			return &ItemPage{Items: items, Page: page, PageSize: ItemsPerPage, Total: total}, nil
		}
		logging.FromContext(ctx).Warn("search index unavailable, falling back to database", "error", err)
	}

	items, total, err := s.repo.Search(ctx, query, offset, ItemsPerPage)
	if err != nil {
		return nil, err
	}
	return &ItemPage{Items: items, Page: page, PageSize: ItemsPerPage, Total: total}, nil
}

// CreateItem stores a catalog item and indexes it when a search index is configured.
func (s *ItemService) CreateItem(ctx context.Context, item *models.Item) error {
	if err := s.repo.Create(ctx, item); err != nil {
		return err
	}
	if s.searcher != nil {
		if err := s.searcher.Index(ctx, *item); err != nil {
			logging.FromContext(ctx).Warn("failed to index item", "slug", item.Slug, "error", err)
		}
	}
	return nil
}
