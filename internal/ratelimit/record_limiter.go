package ratelimit

import (
	"context"
	"fmt"
	"strings"

	"github.com/henryhq/entitlements/internal/config"
	redis "github.com/redis/go-redis/v9"
)

const keyRecordAccount = "entitlements:record:account:%s"

// RecordLimiter throttles the usage-record endpoint per account. It is
// enabled only when a redis address is configured; without redis the
// endpoint is unguarded.
type RecordLimiter struct {
	bucket *TokenBucket
	rate   float64
	burst  int
}

func NewRecordLimiter(cfg config.Config) *RecordLimiter {
	addr := strings.TrimSpace(cfg.RedisAddr)
	if addr == "" {
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	return &RecordLimiter{
		bucket: NewTokenBucket(client),
		rate:   cfg.RecordRatePerSecond,
		burst:  cfg.RecordBurst,
	}
}

// Enabled reports whether requests should be checked at all.
func (l *RecordLimiter) Enabled() bool {
	return l != nil && l.bucket != nil
}

func (l *RecordLimiter) Allow(ctx context.Context, accountID string) (*Result, error) {
	if !l.Enabled() {
		return &Result{Allowed: true}, nil
	}
	key := fmt.Sprintf(keyRecordAccount, accountID)
	return l.bucket.Allow(ctx, key, l.rate, l.burst)
}
