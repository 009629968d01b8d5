package cart

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisCache(client, 10*time.Minute), mr
}

func TestRedisCache_SetGet(t *testing.T) {
	cache, mr := newTestCache(t)
	ctx := context.Background()

	c := &Cart{ID: 1, UserID: "ana@example.com", Items: []CartItem{{ProductID: 3, Name: "Mug", Price: 50, Quantity: 2, Subtotal: 100}}, Total: 100}
	require.NoError(t, cache.Set(ctx, c, 0))

	assert.True(t, mr.Exists("cart:ana@example.com"))
	ttl := mr.TTL("cart:ana@example.com")
	assert.GreaterOrEqual(t, ttl, 10*time.Minute)
	assert.LessOrEqual(t, ttl, 12*time.Minute+30*time.Second)

	got, err := cache.Get(ctx, "ana@example.com")
	require.NoError(t, err)
	assert.Equal(t, int64(100), got.Total)
	require.Len(t, got.Items, 1)
	assert.Equal(t, "Mug", got.Items[0].Name)
}

func TestRedisCache_Miss(t *testing.T) {
	cache, _ := newTestCache(t)

	_, err := cache.Get(context.Background(), "nobody")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestRedisCache_Delete(t *testing.T) {
	cache, mr := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, &Cart{UserID: "u1"}, 0))
	require.NoError(t, cache.Delete(ctx, "u1"))

	assert.False(t, mr.Exists("cart:u1"))
	_, err := cache.Get(ctx, "u1")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestRedisCache_StaleFillAfterDeleteIsDropped(t *testing.T) {
	cache, mr := newTestCache(t)
	ctx := context.Background()

	// A reader takes the generation, then loads the pre-checkout cart.
	gen, err := cache.Generation(ctx, "ana")
	require.NoError(t, err)
	stale := &Cart{UserID: "ana", Items: []CartItem{{ProductID: 1, Quantity: 2}}}

	// Checkout commits and evicts before the reader fills.
	require.NoError(t, cache.Delete(ctx, "ana"))

	assert.ErrorIs(t, cache.Set(ctx, stale, gen), ErrStaleWrite)
	assert.False(t, mr.Exists("cart:ana"))
	_, err = cache.Get(ctx, "ana")
	assert.ErrorIs(t, err, ErrCacheMiss)

	// A reader that started after the eviction may fill.
	gen, err = cache.Generation(ctx, "ana")
	require.NoError(t, err)
	assert.Equal(t, int64(1), gen)
	require.NoError(t, cache.Set(ctx, &Cart{UserID: "ana"}, gen))
	got, err := cache.Get(ctx, "ana")
	require.NoError(t, err)
	assert.Empty(t, got.Items)
}

func TestRedisCache_ConcurrentWritersKeepNewest(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()

	genA, err := cache.Generation(ctx, "bob")
	require.NoError(t, err)
	require.NoError(t, cache.Delete(ctx, "bob"))
	genB, err := cache.Generation(ctx, "bob")
	require.NoError(t, err)

	require.NoError(t, cache.Set(ctx, &Cart{UserID: "bob", Total: 200}, genB))
	assert.ErrorIs(t, cache.Set(ctx, &Cart{UserID: "bob", Total: 100}, genA), ErrStaleWrite)

	got, err := cache.Get(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, int64(200), got.Total)
}

func TestRedisCache_DeleteSetsGenerationTTL(t *testing.T) {
	cache, mr := newTestCache(t)
	require.NoError(t, cache.Delete(context.Background(), "u3"))
	assert.Equal(t, generationTTL, mr.TTL("cart-gen:u3"))
}

func TestRedisCache_CorruptEntry(t *testing.T) {
	cache, mr := newTestCache(t)
	require.NoError(t, mr.Set("cart:u2", "{not json"))

	_, err := cache.Get(context.Background(), "u2")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrCacheMiss)
}

func TestCartRecalculate(t *testing.T) {
	c := &Cart{Items: []CartItem{
		{ProductID: 1, Price: 50, Quantity: 2},
		{ProductID: 2, Price: 15, Quantity: 3},
	}}

	c.Recalculate()

	assert.Equal(t, int64(100), c.Items[0].Subtotal)
	assert.Equal(t, int64(45), c.Items[1].Subtotal)
	assert.Equal(t, int64(145), c.Total)
	assert.Equal(t, 1, c.Items[1].Position)
	assert.Equal(t, 5, c.ItemCount())
	assert.Equal(t, 1, c.FindItem(2))
	assert.Equal(t, -1, c.FindItem(9))
}
