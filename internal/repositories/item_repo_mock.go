package repositories

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"storefront/internal/models"

	"github.com/google/uuid"
)

// MockItemRepository is an in-memory implementation of ItemRepository.
type MockItemRepository struct {
	items map[string]models.Item // keyed by slug
	mu    sync.RWMutex
}

// NewMockItemRepository creates a new instance of MockItemRepository.
func NewMockItemRepository() *MockItemRepository {
	return &MockItemRepository{
		items: make(map[string]models.Item),
	}
}

func (r *MockItemRepository) List(_ context.Context, offset, limit int) ([]models.Item, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return page(r.sorted(func(models.Item) bool { return true }), offset, limit)
}

func (r *MockItemRepository) GetBySlug(_ context.Context, slug string) (*models.Item, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.items[slug]
	if !ok {
		return nil, fmt.Errorf("item with slug %s: %w", slug, ErrNotFound)
	}
	return &item, nil
}

func (r *MockItemRepository) Search(_ context.Context, query string, offset, limit int) ([]models.Item, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	q := strings.ToLower(strings.TrimSpace(query))
	return page(r.sorted(func(it models.Item) bool {
		return strings.Contains(strings.ToLower(it.Title), q) || strings.Contains(strings.ToLower(it.Description), q)
	}), offset, limit)
}

func (r *MockItemRepository) Create(_ context.Context, item *models.Item) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.items[item.Slug]; exists {
		return fmt.Errorf("item with slug %s already exists", item.Slug)
	}
	if item.ID == "" {
		item.ID = uuid.New().String()
	}
	r.items[item.Slug] = *item
	return nil
}

// byID looks an item up by primary key. Callers must hold the lock.
func (r *MockItemRepository) byID(id string) (models.Item, bool) {
	for _, it := range r.items {
		if it.ID == id {
			return it, true
		}
	}
	return models.Item{}, false
}

func (r *MockItemRepository) lookup(id string) (models.Item, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.byID(id)
}

func (r *MockItemRepository) sorted(keep func(models.Item) bool) []models.Item {
	out := make([]models.Item, 0, len(r.items))
	for _, it := range r.items {
		if keep(it) {
			out = append(out, it)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	return out
}

func page(items []models.Item, offset, limit int) ([]models.Item, int64, error) {
	total := int64(len(items))
	if offset >= len(items) {
		return []models.Item{}, total, nil
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end], total, nil
}
