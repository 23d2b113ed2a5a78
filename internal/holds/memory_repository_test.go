package holds

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRepository_ReturnsCopies(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()
	newStoredHold(t, repo, "h1", StatusActive, testStart.Add(time.Minute))

	hold, err := repo.FindByID(ctx, "h1")
	require.NoError(t, err)
	hold.Status = StatusCancelled

	again, err := repo.FindByID(ctx, "h1")
	require.NoError(t, err)
	assert.Equal(t, StatusActive, again.Status)
}

func TestMemoryRepository_RequiresID(t *testing.T) {
	err := NewMemoryRepository().Create(context.Background(), storedHold("", StatusActive, testStart))
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestParseStatus(t *testing.T) {
	s, err := ParseStatus("expired")
	require.NoError(t, err)
	assert.Equal(t, StatusExpired, s)
	assert.True(t, s.IsTerminal())
	assert.False(t, StatusActive.IsTerminal())

	_, err = ParseStatus("pending")
	assert.ErrorIs(t, err, ErrInvalidArgument)
}
