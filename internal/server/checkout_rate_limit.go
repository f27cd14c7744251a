package server

import (
	"math"
	"strconv"

	"github.com/Gizz1e/Gizzle/internal/observability/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// CheckoutRateLimit caps checkout creation per client IP. The member id is
// caller supplied and never part of the key. A Redis failure lets the request
// through.
func (s *Server) CheckoutRateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !s.checkoutLimiter.Enabled() {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		key := c.ClientIP()

		result, err := s.checkoutLimiter.Allow(ctx, key)
		if err != nil {
			logger.WithContext(ctx, s.log).Warn("checkout rate limit check failed", zap.Error(err))
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(result.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
		if !result.Allowed {
			retryAfter := int(math.Ceil(result.RetryAfter.Seconds()))
			if retryAfter < 1 {
				retryAfter = 1
			}
			logger.WithContext(ctx, s.log).Warn("checkout rate limit exceeded",
				zap.String("route", normalizeRateLimitEndpoint(c)),
			)
			c.Header("Retry-After", strconv.Itoa(retryAfter))
			AbortWithError(c, ErrRateLimited)
			return
		}

		c.Next()
	}
}

func normalizeRateLimitEndpoint(c *gin.Context) string {
	if endpoint := c.FullPath(); endpoint != "" {
		return endpoint
	}
	if endpoint := c.Request.URL.Path; endpoint != "" {
		return endpoint
	}
	return "unknown"
}
