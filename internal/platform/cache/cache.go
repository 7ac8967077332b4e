// Package cache keeps generated reports in Redis. Invalidation bumps a
// generation counter so that every older key simply stops being read and
// expires on its own.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"workshop/internal/domain/reports"
)

const (
	keyPrefix     = "workshop:report"
	generationKey = "workshop:report:generation"
)

type ReportCache struct {
	client *redis.Client
	ttl    time.Duration
}

func New(addr, password string, db int, ttl time.Duration) *ReportCache {
	return &ReportCache{
		client: redis.NewClient(&redis.Options{
			Addr:         addr,
			Password:     password,
			DB:           db,
			PoolSize:     20,
			MinIdleConns: 2,
		}),
		ttl: ttl,
	}
}

func (c *ReportCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *ReportCache) Close() {
	if c.client != nil {
		_ = c.client.Close()
	}
}

// Generation is the current cache generation; zero before the first
// invalidation.
func (c *ReportCache) Generation(ctx context.Context) (int64, error) {
	generation, err := c.client.Get(ctx, generationKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("get generation: %w", err)
	}
	return generation, nil
}

func (c *ReportCache) Get(ctx context.Context, generation int64, key string, dst *reports.Report) (bool, error) {
	data, err := c.client.Get(ctx, entryKey(generation, key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("get report: %w", err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return false, fmt.Errorf("unmarshal report: %w", err)
	}
	return true, nil
}

func (c *ReportCache) Set(ctx context.Context, generation int64, key string, report reports.Report) error {
	data, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	return c.client.Set(ctx, entryKey(generation, key), data, c.ttl).Err()
}

func (c *ReportCache) Invalidate(ctx context.Context) error {
	return c.client.Incr(ctx, generationKey).Err()
}

func entryKey(generation int64, key string) string {
	sum := sha256.Sum256([]byte(key))
	return fmt.Sprintf("%s:%d:%s", keyPrefix, generation, hex.EncodeToString(sum[:]))
}
