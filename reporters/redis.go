package reporters

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/lukaszraczylo/handlerswap"
	"github.com/lukaszraczylo/handlerswap/config"
	liberrors "github.com/lukaszraczylo/handlerswap/internal/errors"
	"github.com/lukaszraczylo/handlerswap/internal/logger"
)

// RedisReporter delivers reports to a capped Redis list, newest first. It is
// the sink used when reports must survive the reporting process or be
// consumed by an external collector.
type RedisReporter struct {
	handlerswap.ActivationFlag

	client    *redis.Client
	keyPrefix string
	maxQueued int64
	log       logger.Logger
	closed    atomic.Bool
}

// NewRedisReporter connects to Redis and verifies connectivity. Construction
// fails with a retryable sink error when the server is unreachable, so a
// registry using this as its default re-attempts on the next access.
func NewRedisReporter(cfg config.RedisSettings, log logger.Logger) (*RedisReporter, error) {
	if cfg.Addr == "" {
		return nil, liberrors.NewConfigError("redis reporter requires an address", "addr")
	}
	if log == nil {
		log = handlerswap.GetSingletonNoOpLogger()
	}
	keyPrefix := cfg.KeyPrefix
	if keyPrefix == "" {
		keyPrefix = "handlerswap:reports"
	}
	maxQueued := cfg.MaxQueued
	if maxQueued <= 0 {
		maxQueued = 10000
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, liberrors.NewSinkError("failed to ping redis", err)
	}

	log.Debugf("redis reporter connected to %s", cfg.Addr)

	return &RedisReporter{
		client:    client,
		keyPrefix: keyPrefix,
		maxQueued: maxQueued,
		log:       log,
	}, nil
}

// key returns the list key reports of the given severity land in.
func (r *RedisReporter) key(severity Severity) string {
	return fmt.Sprintf("%s:%s", r.keyPrefix, severity)
}

// Report pushes the JSON-encoded record and trims the list to the configured
// cap in a single pipeline round trip.
func (r *RedisReporter) Report(ctx context.Context, rep Report) error {
	if r.closed.Load() {
		return liberrors.NewSinkError("redis reporter is closed", nil)
	}

	payload, err := json.Marshal(rep)
	if err != nil {
		return fmt.Errorf("failed to encode report %s: %w", rep.ID, err)
	}

	key := r.key(rep.Severity)
	pipe := r.client.Pipeline()
	pipe.LPush(ctx, key, payload)
	pipe.LTrim(ctx, key, 0, r.maxQueued-1)
	if _, err := pipe.Exec(ctx); err != nil {
		return liberrors.NewSinkError("failed to deliver report to redis", err)
	}
	return nil
}

// Pending returns the number of queued reports for a severity.
func (r *RedisReporter) Pending(ctx context.Context, severity Severity) (int64, error) {
	if r.closed.Load() {
		return 0, liberrors.NewSinkError("redis reporter is closed", nil)
	}
	n, err := r.client.LLen(ctx, r.key(severity)).Result()
	if err != nil {
		return 0, liberrors.NewSinkError("failed to query report queue", err)
	}
	return n, nil
}

// Close releases the Redis connection. Further reports fail with a sink
// error. Close is idempotent.
func (r *RedisReporter) Close() error {
	if !r.closed.CompareAndSwap(false, true) {
		return nil
	}
	return r.client.Close()
}
