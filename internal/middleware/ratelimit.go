package middleware

import (
	"context"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/EL-HOUSS-BRAHIM/My-Portfolio-sub002/internal/cache"
	"github.com/EL-HOUSS-BRAHIM/My-Portfolio-sub002/pkg/errors"
	"github.com/EL-HOUSS-BRAHIM/My-Portfolio-sub002/pkg/logger"
	"github.com/EL-HOUSS-BRAHIM/My-Portfolio-sub002/pkg/response"
)

// RateStore coordinates rate limiting counters for a specific key.
type RateStore interface {
	Increment(ctx context.Context, key string, window time.Duration) (count int64, ttl time.Duration, err error)
}

type counterRateStore struct {
	counter cache.Counter
}

// NewMemoryRateStore builds a process-local rate store.
func NewMemoryRateStore() RateStore {
	return &counterRateStore{counter: cache.NewMemoryCounter()}
}

// NewCounterRateStore wraps any cache counter, typically the database-backed
// one, so multiple instances share a window.
func NewCounterRateStore(counter cache.Counter) RateStore {
	if counter == nil {
		return nil
	}
	return &counterRateStore{counter: counter}
}

func (s *counterRateStore) Increment(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	if window <= 0 {
		window = time.Minute
	}
	return s.counter.IncrementWithTTL(ctx, key, window)
}

// RateLimit limits requests per (clientIP, route) within a fixed window and
// reports the budget through X-RateLimit headers. A failing store admits the
// request rather than taking the site down with it.
func RateLimit(store RateStore, maxRequests int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if store == nil || maxRequests <= 0 || window <= 0 {
			c.Next()
			return
		}

		key := "http:" + c.ClientIP() + "|" + c.FullPath()

		count, ttl, err := store.Increment(c.Request.Context(), key, window)
		if err != nil {
			logger.WithModule("ratelimit").Warn("rate store unavailable", zap.Error(err))
			c.Next()
			return
		}

		remaining := int64(maxRequests) - count
		if remaining < 0 {
			remaining = 0
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(maxRequests))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))
		c.Header("X-RateLimit-Reset", strconv.Itoa(int(ttl.Seconds())))

		if count > int64(maxRequests) {
			response.Error(c, errors.ErrRateLimit)
			c.Abort()
			return
		}

		c.Next()
	}
}
