package redis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
)

// pingInterval is how often a cache marked unavailable is probed for
// recovery. While the flag is down the service skips Redis entirely, so
// the probe is the only path back to available.
const pingInterval = 15 * time.Second

// Cache stores code -> original URL mappings in Redis. Every operation is
// best-effort: callers treat failures as cache misses.
type Cache struct {
	client    *redis.Client
	logger    *slog.Logger
	opTimeout time.Duration
	stop      chan struct{}
	available atomic.Bool
}

// New connects a Cache to the Redis instance at addr. opTimeout bounds
// dialing and every command so a degraded Redis cannot stall the redirect
// path. The connection is dialed lazily; construction never fails.
func New(addr string, opTimeout time.Duration, logger *slog.Logger) *Cache {
	c := &Cache{
		logger:    logger,
		opTimeout: opTimeout,
		stop:      make(chan struct{}),
	}
	c.client = redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  opTimeout,
		ReadTimeout:  opTimeout,
		WriteTimeout: opTimeout,
		OnConnect: func(_ context.Context, _ *redis.Conn) error {
			c.markConnected()
			return nil
		},
	})

	// assume reachable until an operation says otherwise
	c.available.Store(true)

	go c.monitor()
	return c
}

func (c *Cache) Get(ctx context.Context, code string) (string, error) {
	key := c.buildKey(code)

	val, err := c.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			// cache miss, not an error
			return "", nil
		}
		c.markFailure()
		c.logger.Warn("Cache get failed", "key", key, "error", err)
		return "", fmt.Errorf("cache get failed: %w", err)
	}

	c.available.Store(true)
	return val, nil
}

func (c *Cache) Set(ctx context.Context, code, originalURL string, ttl time.Duration) error {
	key := c.buildKey(code)

	if err := c.client.Set(ctx, key, originalURL, ttl).Err(); err != nil {
		c.markFailure()
		c.logger.Warn("Cache set failed", "key", key, "error", err)
		return fmt.Errorf("cache set failed: %w", err)
	}

	c.available.Store(true)
	return nil
}

func (c *Cache) Delete(ctx context.Context, code string) error {
	key := c.buildKey(code)

	if err := c.client.Del(ctx, key).Err(); err != nil {
		c.markFailure()
		c.logger.Warn("Cache delete failed", "key", key, "error", err)
		return fmt.Errorf("cache delete failed: %w", err)
	}

	c.available.Store(true)
	return nil
}

// Available reports the last known liveness of the Redis connection. Races
// on this flag are benign; worst case is one extra failed call attempt.
func (c *Cache) Available() bool {
	return c.available.Load()
}

func (c *Cache) Close() error {
	close(c.stop)
	return c.client.Close()
}

// monitor probes an unavailable cache until it answers a ping again.
func (c *Cache) monitor() {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			if c.available.Load() {
				continue
			}
			ctx, cancel := context.WithTimeout(context.Background(), c.opTimeout)
			err := c.client.Ping(ctx).Err()
			cancel()
			if err == nil {
				c.markConnected()
			}
		}
	}
}

func (c *Cache) markConnected() {
	if c.available.CompareAndSwap(false, true) {
		c.logger.Info("Cache connection restored")
	}
}

func (c *Cache) markFailure() {
	if c.available.CompareAndSwap(true, false) {
		c.logger.Warn("Cache marked unavailable")
	}
}

func (c *Cache) buildKey(code string) string {
	return fmt.Sprintf("url:%s", code)
}
