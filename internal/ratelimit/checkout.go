package ratelimit

import (
	"context"
	"fmt"
	"strings"

	"github.com/Gizz1e/Gizzle/internal/config"
	redis "github.com/redis/go-redis/v9"
)

const keyCheckoutClient = "checkout:client:%s"

// CheckoutLimiter caps how many checkout sessions one client may open.
// A nil limiter allows everything.
type CheckoutLimiter struct {
	bucket *TokenBucket
	rate   float64
	burst  int
}

func NewCheckoutLimiter(client *redis.Client, cfg config.Config) *CheckoutLimiter {
	limitCfg := cfg.RateLimit
	if client == nil || !limitCfg.Enabled || limitCfg.CheckoutRate <= 0 || limitCfg.CheckoutBurst <= 0 {
		return nil
	}
	return &CheckoutLimiter{
		bucket: NewTokenBucket(client),
		rate:   limitCfg.CheckoutRate,
		burst:  limitCfg.CheckoutBurst,
	}
}

func (l *CheckoutLimiter) Enabled() bool {
	return l != nil && l.bucket != nil
}

// Allow consumes one checkout attempt for clientKey, the caller's IP.
func (l *CheckoutLimiter) Allow(ctx context.Context, clientKey string) (*RateLimitResult, error) {
	if !l.Enabled() {
		return &RateLimitResult{Allowed: true}, nil
	}
	clientKey = strings.TrimSpace(clientKey)
	if clientKey == "" {
		clientKey = "anonymous"
	}
	return l.bucket.Allow(ctx, fmt.Sprintf(keyCheckoutClient, clientKey), l.rate, l.burst)
}
