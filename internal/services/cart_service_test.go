package services_test

import (
	"context"
	"sync"
	"testing"

	"storefront/internal/services"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCartService_AddSameItemTwice(t *testing.T) {
	eachBackend(t, func(t *testing.T, b backend) {
		ctx := context.Background()
		b.seed(t, "shirt", "19.99")
		svc := services.NewCartService(b.items, b.carts, services.NewUserLocks())

		outcome, err := svc.AddItem(ctx, "user-1", "shirt")
		require.NoError(t, err)
		assert.Equal(t, services.OutcomeItemAdded, outcome)

		outcome, err = svc.AddItem(ctx, "user-1", "shirt")
		require.NoError(t, err)
		assert.Equal(t, services.OutcomeQuantityIncreased, outcome)

		order, err := svc.OpenOrder(ctx, "user-1")
		require.NoError(t, err)
		require.Len(t, order.LineItems, 1)
		assert.Equal(t, 2, order.LineItems[0].Quantity)
		assert.True(t, order.GetTotal().Equal(decimal.RequireFromString("39.98")))
	})
}

func TestCartService_AddAndRemoveTotals(t *testing.T) {
	eachBackend(t, func(t *testing.T, b backend) {
		ctx := context.Background()
		b.seed(t, "shirt", "19.99")
		b.seed(t, "cap", "5.00")
		svc := services.NewCartService(b.items, b.carts, services.NewUserLocks())

		total := func() string {
			order, err := svc.OpenOrder(ctx, "user-1")
			require.NoError(t, err)
			return order.GetTotal().StringFixed(2)
		}

		_, err := svc.AddItem(ctx, "user-1", "shirt")
		require.NoError(t, err)
		assert.Equal(t, "19.99", total())
		_, err = svc.AddItem(ctx, "user-1", "cap")
		require.NoError(t, err)
		assert.Equal(t, "24.99", total())

		outcome, err := svc.RemoveItem(ctx, "user-1", "shirt")
		require.NoError(t, err)
		assert.Equal(t, services.OutcomeItemRemoved, outcome)
		assert.Equal(t, "5.00", total())

		outcome, err = svc.RemoveItem(ctx, "user-1", "cap")
		require.NoError(t, err)
		assert.Equal(t, services.OutcomeItemRemoved, outcome)
		assert.Equal(t, "0.00", total())

		_, err = svc.RemoveItem(ctx, "user-1", "cap")
		assert.ErrorIs(t, err, services.ErrItemNotInCart)
	})
}

func TestCartService_RemoveSingleThenEntirely(t *testing.T) {
	eachBackend(t, func(t *testing.T, b backend) {
		ctx := context.Background()
		b.seed(t, "shirt", "10.00")
		svc := services.NewCartService(b.items, b.carts, services.NewUserLocks())

		for i := 0; i < 3; i++ {
			_, err := svc.AddItem(ctx, "user-1", "shirt")
			require.NoError(t, err)
		}

		outcome, err := svc.RemoveItem(ctx, "user-1", "shirt")
		require.NoError(t, err)
		assert.Equal(t, services.OutcomeQuantityDecreased, outcome)

		outcome, err = svc.RemoveItemEntirely(ctx, "user-1", "shirt")
		require.NoError(t, err)
		assert.Equal(t, services.OutcomeItemRemoved, outcome)

		order, err := svc.OpenOrder(ctx, "user-1")
		require.NoError(t, err)
		assert.Empty(t, order.LineItems)
	})
}

func TestCartService_Errors(t *testing.T) {
	eachBackend(t, func(t *testing.T, b backend) {
		ctx := context.Background()
		b.seed(t, "shirt", "10.00")
		b.seed(t, "cap", "5.00")
		svc := services.NewCartService(b.items, b.carts, services.NewUserLocks())

		_, err := svc.AddItem(ctx, "user-1", "missing")
		assert.ErrorIs(t, err, services.ErrItemNotFound)

		_, err = svc.RemoveItem(ctx, "user-1", "shirt")
		assert.ErrorIs(t, err, services.ErrNoActiveOrder)

		_, err = svc.OpenOrder(ctx, "user-1")
		assert.ErrorIs(t, err, services.ErrNoActiveOrder)

		_, err = svc.AddItem(ctx, "user-1", "shirt")
		require.NoError(t, err)
		_, err = svc.RemoveItem(ctx, "user-1", "cap")
		assert.ErrorIs(t, err, services.ErrItemNotInCart)

		// another user's cart is untouched
		_, err = svc.RemoveItem(ctx, "user-2", "shirt")
		assert.ErrorIs(t, err, services.ErrNoActiveOrder)
	})
}

func TestCartService_ConcurrentAddsShareOneOrder(t *testing.T) {
	eachBackend(t, func(t *testing.T, b backend) {
		ctx := context.Background()
		b.seed(t, "shirt", "1.00")
		svc := services.NewCartService(b.items, b.carts, services.NewUserLocks())

		const workers = 8
		var wg sync.WaitGroup
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := svc.AddItem(ctx, "user-1", "shirt")
				assert.NoError(t, err)
			}()
		}
		wg.Wait()

		order, err := svc.OpenOrder(ctx, "user-1")
		require.NoError(t, err)
		require.Len(t, order.LineItems, 1)
		assert.Equal(t, workers, order.LineItems[0].Quantity)
	})
}

func TestUserLocks_SerializesPerUser(t *testing.T) {
	locks := services.NewUserLocks()

	unlock := locks.Lock("user-1")
	acquired := make(chan struct{})
	go func() {
		release := locks.Lock("user-1")
		close(acquired)
		release()
	}()

	// a different user is never blocked
	locks.Lock("user-2")()

	select {
	case <-acquired:
		t.Fatal("second lock for the same user acquired while held")
	default:
	}
	unlock()
	<-acquired
}
