package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-backend/internal/interfaces/http/response"
)

const rateLimitWindow = time.Minute

// RateLimit allows limit requests per client IP per minute, counted in Redis.
// When Redis is unavailable requests are let through.
func RateLimit(limit int, redisClient *redis.Client, logger logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limit <= 0 {
			c.Next()
			return
		}

		key := fmt.Sprintf("rate_limit:%s", c.ClientIP())

		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		// The counter is created with its window in the same MULTI as the
		// increment, so a failure can never leave it without an expiry.
		pipe := redisClient.TxPipeline()
		pipe.SetNX(ctx, key, 0, rateLimitWindow)
		incr := pipe.Incr(ctx, key)
		ttlCmd := pipe.TTL(ctx, key)
		if _, err := pipe.Exec(ctx); err != nil {
			logger.WithError(err).Warn("rate limiter unavailable")
			c.Next()
			return
		}
		current := incr.Val()

		ttl := ttlCmd.Val()
		if ttl < 0 {
			// Counter left without an expiry by an older writer.
			if err := redisClient.Expire(ctx, key, rateLimitWindow).Err(); err != nil {
				logger.WithError(err).Warn("failed to set rate limit window")
			}
			ttl = rateLimitWindow
		}

		remaining := int64(limit) - current
		if remaining < 0 {
			remaining = 0
		}
		c.Header("X-RateLimit-Limit", strconv.Itoa(limit))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(ttl).Unix(), 10))

		if current > int64(limit) {
			c.Header("Retry-After", strconv.Itoa(int(ttl.Seconds())))
			response.Abort(c, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}

		c.Next()
	}
}
