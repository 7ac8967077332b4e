package db

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// Connect opens a pgx pool and retries until the database answers a ping
// or maxElapsed runs out.
func Connect(ctx context.Context, databaseURL string, maxElapsed time.Duration, logger *zap.Logger) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	poolCfg.MaxConnLifetime = time.Hour
	poolCfg.MaxConns = 10
	poolCfg.MinConns = 2

	var pool *pgxpool.Pool
	err = Retry(ctx, maxElapsed, logger, "postgres", func() error {
		candidate, err := pgxpool.NewWithConfig(ctx, poolCfg)
		if err != nil {
			return fmt.Errorf("connect: %w", err)
		}
		if err := candidate.Ping(ctx); err != nil {
			candidate.Close()
			return fmt.Errorf("ping: %w", err)
		}
		pool = candidate
		return nil
	})
	if err != nil {
		return nil, err
	}
	return pool, nil
}

// Retry runs op with exponential backoff, logging every failed attempt.
func Retry(ctx context.Context, maxElapsed time.Duration, logger *zap.Logger, target string, op func() error) error {
	policy := backoff.NewExponentialBackOff()
	policy.MaxElapsedTime = maxElapsed
	policy.MaxInterval = 15 * time.Second

	err := backoff.RetryNotify(op, backoff.WithContext(policy, ctx), func(err error, next time.Duration) {
		logger.Warn("storage connection failed, retrying",
			zap.String("target", target),
			zap.Error(err),
			zap.Duration("next_attempt_in", next))
	})
	if err != nil {
		return fmt.Errorf("%s unavailable after retries: %w", target, err)
	}
	return nil
}
