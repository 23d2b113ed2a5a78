package inventory

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ticketholds/pkg/logger"
)

func TestMemoryPool(t *testing.T) {
	runPoolContract(t, func(t *testing.T) Pool {
		return NewMemoryPool(logger.Discard())
	})
}

func TestMemoryPool_MixedReserveReleaseStaysInBounds(t *testing.T) {
	ctx := context.Background()
	pool := NewMemoryPool(logger.Discard())
	_, err := pool.Provision(ctx, "tt-1", "ev-1", 20)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := pool.Reserve(ctx, "tt-1", 3); err == nil {
				assert.NoError(t, pool.Release(ctx, "tt-1", 3))
			}
		}()
	}
	wg.Wait()

	snap, err := pool.Query(ctx, "tt-1")
	require.NoError(t, err)
	assert.Equal(t, 20, snap.Available)
}
