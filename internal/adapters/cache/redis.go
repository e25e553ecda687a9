// Package cache holds the Redis backed deduper shared by every API replica.
package cache

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/okian/pragati/internal/domain/dedupe"
	"github.com/okian/pragati/pkg/logger"
	"github.com/okian/pragati/pkg/metrics"
)

const (
	defaultPrefix      = "pragati:event:"
	defaultTTL         = 24 * time.Hour
	defaultDialTimeout = 5 * time.Second
)

var _ dedupe.Deduper = (*RedisDeduper)(nil)

// RedisDeduper records event ids as keys with SETNX and a ttl.
type RedisDeduper struct {
	rdb    redis.UniversalClient
	prefix string
	ttl    time.Duration
	log    logger.Logger
	// recorded counts ids this process added; Redis may hold more.
	recorded atomic.Int64
}

// Option applies a configuration option to the RedisDeduper.
type Option func(*RedisDeduper)

// WithPrefix sets the key prefix.
func WithPrefix(prefix string) Option {
	return func(d *RedisDeduper) {
		if prefix != "" {
			d.prefix = prefix
		}
	}
}

// WithTTL sets how long an id is remembered.
func WithTTL(ttl time.Duration) Option {
	return func(d *RedisDeduper) {
		if ttl > 0 {
			d.ttl = ttl
		}
	}
}

// WithLogger sets the deduper logger.
func WithLogger(l logger.Logger) Option {
	return func(d *RedisDeduper) {
		if l != nil {
			d.log = l
		}
	}
}

// Dial connects to a single Redis node and pings it.
func Dial(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:        addr,
		Password:    password,
		DB:          db,
		DialTimeout: defaultDialTimeout,
	})
	pingCtx, cancel := context.WithTimeout(ctx, defaultDialTimeout)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	return rdb, nil
}

// NewRedisDeduper wraps an already connected client.
func NewRedisDeduper(rdb redis.UniversalClient, opts ...Option) *RedisDeduper {
	d := &RedisDeduper{
		rdb:    rdb,
		prefix: defaultPrefix,
		ttl:    defaultTTL,
		log:    logger.NewNop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *RedisDeduper) key(id string) string { return d.prefix + id }

// SeenAndRecord sets the id key only if absent.
func (d *RedisDeduper) SeenAndRecord(ctx context.Context, id string) (bool, error) {
	ok, err := d.rdb.SetNX(ctx, d.key(id), 1, d.ttl).Result()
	if err != nil {
		metrics.RecordErrorByComponent("dedupe", metrics.ErrorType(err))
		return false, fmt.Errorf("redis setnx %s: %w", id, err)
	}
	if ok {
		metrics.UpdateDedupeSize(d.recorded.Add(1))
	}
	return !ok, nil
}

// Unrecord deletes the id key.
func (d *RedisDeduper) Unrecord(ctx context.Context, id string) error {
	n, err := d.rdb.Del(ctx, d.key(id)).Result()
	if err != nil {
		d.log.Warn(ctx, "failed to unrecord event", logger.String("event_id", id), logger.Error(err))
		return fmt.Errorf("redis del %s: %w", id, err)
	}
	if n > 0 {
		metrics.UpdateDedupeSize(d.recorded.Add(-1))
	}
	return nil
}

// Size is the number of ids this process recorded and has not unrecorded.
// Keys expire in Redis without this count going down.
func (d *RedisDeduper) Size() int64 { return d.recorded.Load() }

// Close closes the underlying client.
func (d *RedisDeduper) Close() error { return d.rdb.Close() }
