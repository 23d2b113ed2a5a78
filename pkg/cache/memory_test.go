package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	ID    string `json:"id"`
	Count int    `json:"count"`
}

func TestMemoryService_SetAndGet(t *testing.T) {
	ctx := context.Background()
	svc := NewMemoryService()

	require.NoError(t, svc.Set(ctx, "k", payload{ID: "a", Count: 2}, time.Minute))

	var got payload
	require.NoError(t, svc.Get(ctx, "k", &got))
	assert.Equal(t, payload{ID: "a", Count: 2}, got)

	require.NoError(t, svc.Delete(ctx, "k"))
	assert.ErrorIs(t, svc.Get(ctx, "k", &got), ErrCacheMiss)
}

func TestMemoryService_SetNX(t *testing.T) {
	ctx := context.Background()
	svc := NewMemoryService()

	ok, err := svc.SetNX(ctx, "k", "first", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.SetNX(ctx, "k", "second", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	var got string
	require.NoError(t, svc.Get(ctx, "k", &got))
	assert.Equal(t, "first", got)
}

func TestMemoryService_Expiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	svc := &memoryService{entries: make(map[string]memoryEntry), now: func() time.Time { return now }}

	require.NoError(t, svc.Set(ctx, "k", 1, time.Second))
	now = now.Add(time.Second)

	var got int
	assert.ErrorIs(t, svc.Get(ctx, "k", &got), ErrCacheMiss)

	ok, err := svc.SetNX(ctx, "k", 2, time.Second)
	require.NoError(t, err)
	assert.True(t, ok)
}
