package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strings"

	redis "github.com/redis/go-redis/v9"

	"github.com/comptaline/backoffice/internal/config"
)

const keyPublicAPIClient = "public:api:client:%s"

// PublicAPILimiter throttles unauthenticated storefront endpoints per
// client IP. A nil limiter means rate limiting is disabled and every
// request passes.
type PublicAPILimiter struct {
	enabled bool

	bucket *TokenBucket
	rate   float64
	burst  int
}

func NewPublicAPILimiter(cfg config.Config) (*PublicAPILimiter, error) {
	if !cfg.RateLimitEnabled {
		return nil, nil
	}

	addr := strings.TrimSpace(cfg.RedisAddr)
	if addr == "" {
		return nil, errors.New("rate limit redis addr is required")
	}
	if cfg.RateLimitRate <= 0 || cfg.RateLimitBurst <= 0 {
		return nil, errors.New("rate limit rate and burst must be positive")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: strings.TrimSpace(cfg.RedisPassword),
		DB:       cfg.RedisDB,
	})

	return &PublicAPILimiter{
		enabled: true,
		bucket:  NewTokenBucket(client),
		rate:    cfg.RateLimitRate,
		burst:   cfg.RateLimitBurst,
	}, nil
}

func (l *PublicAPILimiter) Enabled() bool {
	return l != nil && l.enabled
}

func (l *PublicAPILimiter) AllowClient(ctx context.Context, clientKey string) (*Result, error) {
	if !l.Enabled() {
		return &Result{Allowed: true}, nil
	}
	return l.bucket.Allow(ctx, fmt.Sprintf(keyPublicAPIClient, strings.TrimSpace(clientKey)), l.rate, l.burst)
}
