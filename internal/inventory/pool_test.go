package inventory

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runPoolContract exercises behaviour every Pool implementation shares.
// newPool must return an empty pool.
func runPoolContract(t *testing.T, newPool func(t *testing.T) Pool) {
	ctx := context.Background()

	t.Run("reserve_and_release", func(t *testing.T) {
		pool := newPool(t)
		_, err := pool.Provision(ctx, "tt-1", "ev-1", 100)
		require.NoError(t, err)

		require.NoError(t, pool.Reserve(ctx, "tt-1", 2))

		snap, err := pool.Query(ctx, "tt-1")
		require.NoError(t, err)
		assert.Equal(t, 98, snap.Available)
		assert.Equal(t, 100, snap.Total)
		assert.Equal(t, "ev-1", snap.EventID)
		assert.Equal(t, 2, snap.Reserved())

		require.NoError(t, pool.Release(ctx, "tt-1", 2))
		snap, err = pool.Query(ctx, "tt-1")
		require.NoError(t, err)
		assert.Equal(t, 100, snap.Available)
	})

	t.Run("insufficient_leaves_counter_untouched", func(t *testing.T) {
		pool := newPool(t)
		_, err := pool.Provision(ctx, "tt-1", "ev-1", 3)
		require.NoError(t, err)

		err = pool.Reserve(ctx, "tt-1", 4)
		assert.ErrorIs(t, err, ErrInsufficientInventory)

		snap, err := pool.Query(ctx, "tt-1")
		require.NoError(t, err)
		assert.Equal(t, 3, snap.Available)
	})

	t.Run("reserve_exactly_available", func(t *testing.T) {
		pool := newPool(t)
		_, err := pool.Provision(ctx, "tt-1", "ev-1", 5)
		require.NoError(t, err)

		require.NoError(t, pool.Reserve(ctx, "tt-1", 5))
		assert.ErrorIs(t, pool.Reserve(ctx, "tt-1", 1), ErrInsufficientInventory)
	})

	t.Run("release_is_clamped_to_total", func(t *testing.T) {
		pool := newPool(t)
		_, err := pool.Provision(ctx, "tt-1", "ev-1", 10)
		require.NoError(t, err)
		require.NoError(t, pool.Reserve(ctx, "tt-1", 2))

		require.NoError(t, pool.Release(ctx, "tt-1", 5))

		snap, err := pool.Query(ctx, "tt-1")
		require.NoError(t, err)
		assert.Equal(t, 10, snap.Available)
	})

	t.Run("unknown_ticket_type", func(t *testing.T) {
		pool := newPool(t)

		assert.ErrorIs(t, pool.Reserve(ctx, "missing", 1), ErrTicketTypeNotFound)
		assert.ErrorIs(t, pool.Release(ctx, "missing", 1), ErrTicketTypeNotFound)
		_, err := pool.Query(ctx, "missing")
		assert.ErrorIs(t, err, ErrTicketTypeNotFound)
	})

	t.Run("invalid_quantity", func(t *testing.T) {
		pool := newPool(t)
		_, err := pool.Provision(ctx, "tt-1", "ev-1", 10)
		require.NoError(t, err)

		assert.ErrorIs(t, pool.Reserve(ctx, "tt-1", 0), ErrInvalidQuantity)
		assert.ErrorIs(t, pool.Release(ctx, "tt-1", -1), ErrInvalidQuantity)
		_, err = pool.Provision(ctx, "tt-2", "ev-1", -1)
		assert.ErrorIs(t, err, ErrInvalidQuantity)
	})

	t.Run("provision_twice", func(t *testing.T) {
		pool := newPool(t)
		_, err := pool.Provision(ctx, "tt-1", "ev-1", 10)
		require.NoError(t, err)

		_, err = pool.Provision(ctx, "tt-1", "ev-1", 20)
		assert.ErrorIs(t, err, ErrAlreadyProvisioned)
	})

	t.Run("concurrent_reserves_never_oversell", func(t *testing.T) {
		pool := newPool(t)
		_, err := pool.Provision(ctx, "tt-1", "ev-1", 50)
		require.NoError(t, err)

		var (
			wg        sync.WaitGroup
			succeeded atomic.Int64
		)
		for i := 0; i < 200; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if err := pool.Reserve(ctx, "tt-1", 1); err == nil {
					succeeded.Add(1)
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, int64(50), succeeded.Load())
		snap, err := pool.Query(ctx, "tt-1")
		require.NoError(t, err)
		assert.Equal(t, 0, snap.Available)
	})
}
