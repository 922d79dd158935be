package redis

import (
	"context"
	"fmt"
	"sync"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/atrium-ops/atrium-core/internal/infrastructure/config"
)

// Default timeouts for Redis operations.
const (
	defaultConnectTimeout = 5 * time.Second
	defaultDialTimeout    = 5 * time.Second
	defaultOpTimeout      = 3 * time.Second
)

// Client wraps the go-redis client with Atrium-specific functionality.
//
// It is the single process-wide Redis handle: created once at startup,
// health-checked with a ping, injected into the session store and login
// throttle, and closed on shutdown. Nothing else in the codebase opens
// its own connection.
//
// Thread Safety:
//   - All methods are safe for concurrent use from multiple goroutines.
type Client struct {
	rdb *goredis.Client
	cfg config.RedisConfig

	// connected tracks whether the startup ping succeeded.
	connected bool
	mu        sync.RWMutex
}

// Connect creates the shared Redis client and verifies connectivity.
//
// Short dial/read/write timeouts are applied so a Redis outage surfaces as a
// fast, retryable failure in callers instead of a hung request.
//
// Parameters:
//   - cfg: Redis configuration from config.yaml
//
// Returns:
//   - *Client: Connected client ready for use
//   - error: If the initial ping fails
func Connect(cfg config.RedisConfig) (*Client, error) {
	dialTimeout := secondsOrDefault(cfg.DialTimeout, defaultDialTimeout)
	readTimeout := secondsOrDefault(cfg.ReadTimeout, defaultOpTimeout)
	writeTimeout := secondsOrDefault(cfg.WriteTimeout, defaultOpTimeout)

	rdb := goredis.NewClient(&goredis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  dialTimeout,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), defaultConnectTimeout)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close() //nolint:errcheck // Best effort cleanup on error path
		return nil, fmt.Errorf("%w: ping failed: %w", ErrConnectionFailed, err)
	}

	return &Client{
		rdb:       rdb,
		cfg:       cfg,
		connected: true,
	}, nil
}

// Cmdable exposes the underlying command interface for repositories.
// Callers receive the interface, not the concrete client, so tests can
// substitute their own implementation.
func (c *Client) Cmdable() goredis.Cmdable {
	return c.rdb
}

// HealthCheck verifies Redis is reachable.
//
// Returns:
//   - error: nil if healthy, error describing the issue otherwise
func (c *Client) HealthCheck(ctx context.Context) error {
	if err := c.rdb.Ping(ctx).Err(); err != nil {
		c.setConnected(false)
		return fmt.Errorf("redis health check failed: %w", err)
	}
	c.setConnected(true)
	return nil
}

// IsConnected reports the result of the most recent connectivity check.
func (c *Client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connected
}

// Close releases the client and its connection pool.
// It should be called when the application shuts down.
func (c *Client) Close() error {
	c.setConnected(false)
	if err := c.rdb.Close(); err != nil {
		return fmt.Errorf("closing redis client: %w", err)
	}
	return nil
}

func (c *Client) setConnected(v bool) {
	c.mu.Lock()
	c.connected = v
	c.mu.Unlock()
}

// secondsOrDefault converts a config value in seconds to a Duration,
// falling back to the default when unset.
func secondsOrDefault(seconds int, def time.Duration) time.Duration {
	if seconds <= 0 {
		return def
	}
	return time.Duration(seconds) * time.Second
}
