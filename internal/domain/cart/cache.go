package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrCacheMiss is returned by Cache.Get when the cart is not cached.
var ErrCacheMiss = errors.New("cart cache miss")

// ErrStaleWrite is returned by Cache.Set when the cart was invalidated after
// the caller read its generation.
var ErrStaleWrite = errors.New("cart cache write is stale")

// Cache is a read-through cache for carts keyed by user. Readers take the
// generation before loading from the database and pass it to Set; Delete
// bumps the generation so a fill that raced an invalidation is dropped.
type Cache interface {
	Get(ctx context.Context, userID string) (*Cart, error)
	Generation(ctx context.Context, userID string) (int64, error)
	Set(ctx context.Context, c *Cart, generation int64) error
	Delete(ctx context.Context, userID string) error
}

// generationTTL outlives any cached entry.
const generationTTL = 24 * time.Hour

// setIfGeneration writes KEYS[1] only while KEYS[2] still holds ARGV[1].
var setIfGeneration = redis.NewScript(`
local current = redis.call("GET", KEYS[2])
if not current then
	current = "0"
end
if current ~= ARGV[1] then
	return 0
end
redis.call("SET", KEYS[1], ARGV[2], "PX", ARGV[3])
return 1
`)

// RedisCache stores carts as JSON under cart:<userID>.
type RedisCache struct {
	client  *redis.Client
	baseTTL time.Duration
}

func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &RedisCache{
		client:  client,
		baseTTL: ttl,
	}
}

func (r *RedisCache) Get(ctx context.Context, userID string) (*Cart, error) {
	data, err := r.client.Get(ctx, cacheKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var c Cart
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("unmarshal cart failed: %w", err)
	}
	return &c, nil
}

func (r *RedisCache) Generation(ctx context.Context, userID string) (int64, error) {
	gen, err := r.client.Get(ctx, generationKey(userID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("redis get generation failed: %w", err)
	}
	return gen, nil
}

func (r *RedisCache) Set(ctx context.Context, c *Cart, generation int64) error {
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal cart failed: %w", err)
	}

	// Spread expiries so a burst of writes does not expire together.
	jitter := time.Duration(rand.Int63n(int64(r.baseTTL/4) + 1))
	ttl := r.baseTTL + jitter

	written, err := setIfGeneration.Run(ctx, r.client,
		[]string{cacheKey(c.UserID), generationKey(c.UserID)},
		strconv.FormatInt(generation, 10), data, ttl.Milliseconds(),
	).Int()
	if err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	if written == 0 {
		return ErrStaleWrite
	}
	return nil
}

// Delete evicts the entry and bumps the generation in one transaction.
func (r *RedisCache) Delete(ctx context.Context, userID string) error {
	pipe := r.client.TxPipeline()
	pipe.Del(ctx, cacheKey(userID))
	pipe.Incr(ctx, generationKey(userID))
	pipe.Expire(ctx, generationKey(userID), generationTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

func cacheKey(userID string) string {
	return fmt.Sprintf("cart:%s", userID)
}

func generationKey(userID string) string {
	return fmt.Sprintf("cart-gen:%s", userID)
}

// NoopCache never hits. Used when Redis is not wired, e.g. in tests.
type NoopCache struct{}

func (NoopCache) Get(context.Context, string) (*Cart, error)       { return nil, ErrCacheMiss }
func (NoopCache) Generation(context.Context, string) (int64, error) { return 0, nil }
func (NoopCache) Set(context.Context, *Cart, int64) error           { return nil }
func (NoopCache) Delete(context.Context, string) error              { return nil }
