package services_test

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"storefront/internal/database"
	"storefront/internal/models"
	"storefront/internal/repositories"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

type backend struct {
	items  repositories.ItemRepository
	carts  repositories.CartRepository
	orders repositories.OrderRepository
}

func sqliteBackend(t *testing.T) backend {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := database.Open(database.DriverSQLite, fmt.Sprintf("file:%s?mode=memory&cache=shared", name))
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return backend{
		items:  repositories.NewGORMItemRepository(db),
		carts:  repositories.NewGORMCartRepository(db),
		orders: repositories.NewGORMOrderRepository(db),
	}
}

func memoryBackend(*testing.T) backend {
	items := repositories.NewMockItemRepository()
	orders := repositories.NewMockOrderRepository(items)
	return backend{items: items, carts: orders, orders: orders}
}

func eachBackend(t *testing.T, fn func(t *testing.T, b backend)) {
	t.Run("sqlite", func(t *testing.T) { fn(t, sqliteBackend(t)) })
	t.Run("memory", func(t *testing.T) { fn(t, memoryBackend(t)) })
}

func (b backend) seed(t *testing.T, slug, price string) *models.Item {
	t.Helper()
	item := &models.Item{
		Title:    slug,
		Price:    decimal.RequireFromString(price),
		Category: models.CategoryShirt,
		Label:    models.LabelPrimary,
		Slug:     slug,
	}
	require.NoError(t, b.items.Create(context.Background(), item))
	return item
}

type publishedEvent struct {
	RoutingKey string
	Body       []byte
}

// recordingPublisher keeps every published event in memory.
type recordingPublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (p *recordingPublisher) Publish(_ context.Context, routingKey string, body []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{RoutingKey: routingKey, Body: body})
	return nil
}

func (p *recordingPublisher) keys() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.RoutingKey)
	}
	return out
}
