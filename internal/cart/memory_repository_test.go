package cart

import (
	"context"
	"testing"
	"time"

	"github.com/fjod/holiday-rush/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMemoryRepository(t *testing.T) *MemoryRepository {
	r := NewMemoryRepository(time.Hour, time.Hour)
	t.Cleanup(func() { _ = r.Close() })
	return r
}

func TestMemoryRepository_GetCart_NotFound(t *testing.T) {
	r := newTestMemoryRepository(t)

	c, err := r.GetCart(context.Background(), "nobody")

	assert.ErrorIs(t, err, ErrCartNotFound)
	assert.Nil(t, c)
}

func TestMemoryRepository_SetItem(t *testing.T) {
	r := newTestMemoryRepository(t)
	ctx := context.Background()

	require.NoError(t, r.SetItem(ctx, "s1", domain.CartItem{ProductID: "1", Quantity: 2}))
	require.NoError(t, r.SetItem(ctx, "s1", domain.CartItem{ProductID: "2", Quantity: 1}))
	require.NoError(t, r.SetItem(ctx, "s1", domain.CartItem{ProductID: "1", Quantity: 5}))

	c, err := r.GetCart(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, c.Items, 2)
	assert.Equal(t, "1", c.Items[0].ProductID)
	assert.Equal(t, 5, c.Items[0].Quantity)
	assert.False(t, c.Items[0].AddedAt.IsZero())
}

func TestMemoryRepository_GetCartReturnsCopy(t *testing.T) {
	r := newTestMemoryRepository(t)
	ctx := context.Background()
	require.NoError(t, r.SetItem(ctx, "s1", domain.CartItem{ProductID: "1", Quantity: 2}))

	c, err := r.GetCart(ctx, "s1")
	require.NoError(t, err)
	c.Items[0].Quantity = 99

	again, err := r.GetCart(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 2, again.Items[0].Quantity)
}

func TestMemoryRepository_RemoveItem(t *testing.T) {
	r := newTestMemoryRepository(t)
	ctx := context.Background()
	require.NoError(t, r.SetItem(ctx, "s1", domain.CartItem{ProductID: "1", Quantity: 2}))

	require.NoError(t, r.RemoveItem(ctx, "s1", "1"))
	require.NoError(t, r.RemoveItem(ctx, "s1", "1"))
	require.NoError(t, r.RemoveItem(ctx, "nobody", "1"))

	c, err := r.GetCart(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, c.Items)
}

func TestMemoryRepository_DeleteCart(t *testing.T) {
	r := newTestMemoryRepository(t)
	ctx := context.Background()
	require.NoError(t, r.SetItem(ctx, "s1", domain.CartItem{ProductID: "1", Quantity: 2}))

	require.NoError(t, r.DeleteCart(ctx, "s1"))
	require.NoError(t, r.DeleteCart(ctx, "s1"))

	_, err := r.GetCart(ctx, "s1")
	assert.ErrorIs(t, err, ErrCartNotFound)
}

func TestMemoryRepository_ExpiresIdleCarts(t *testing.T) {
	r := newTestMemoryRepository(t)
	ctx := context.Background()
	now := time.Now()
	r.now = func() time.Time { return now }

	require.NoError(t, r.SetItem(ctx, "old", domain.CartItem{ProductID: "1", Quantity: 1}))
	now = now.Add(30 * time.Minute)
	require.NoError(t, r.SetItem(ctx, "fresh", domain.CartItem{ProductID: "1", Quantity: 1}))
	now = now.Add(45 * time.Minute)

	assert.Equal(t, 1, r.expireIdle())

	_, err := r.GetCart(ctx, "old")
	assert.ErrorIs(t, err, ErrCartNotFound)
	_, err = r.GetCart(ctx, "fresh")
	assert.NoError(t, err)
}

func TestMemoryRepository_CancelledContext(t *testing.T) {
	r := newTestMemoryRepository(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, r.SetItem(ctx, "s1", domain.CartItem{ProductID: "1", Quantity: 1}), context.Canceled)
	_, err := r.GetCart(ctx, "s1")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMemoryRepository_CloseIsIdempotent(t *testing.T) {
	r := NewMemoryRepository(0, 0)

	assert.NoError(t, r.Close())
	assert.NoError(t, r.Close())
}
