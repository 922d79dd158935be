package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// scanBatchSize is the COUNT hint for SCAN during prefix deletion.
const scanBatchSize = 100

// Store is the external key/value cache holding session payloads and the
// login attempt counters. Implementations must make Put atomic: value and
// absolute expiry are set in one operation, so no reader can ever observe a
// session key without an expiry.
type Store interface {
	// Put writes value under key, expiring at expiresAt.
	Put(ctx context.Context, key string, value []byte, expiresAt time.Time) error

	// Get returns the value under key, or ErrSessionNotFound if absent.
	Get(ctx context.Context, key string) ([]byte, error)

	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// DeleteByPrefix removes every key starting with prefix and returns the
	// number removed. Best-effort: keys created while the scan runs may
	// survive. Zero matches is not an error.
	DeleteByPrefix(ctx context.Context, prefix string) (int, error)

	// Incr increments the counter under key and refreshes its TTL to the
	// full window. Initialises to 1 if absent. Returns the new count.
	Incr(ctx context.Context, key string, ttl time.Duration) (int64, error)

	// Count returns the counter value under key, or 0 if absent.
	Count(ctx context.Context, key string) (int64, error)

	// DeleteCounter removes the counter under key; idempotent if absent.
	DeleteCounter(ctx context.Context, key string) error
}

// RedisStore implements Store on a shared Redis connection.
//
// It takes the command interface rather than a concrete client so the
// process-wide client stays owned by the infrastructure layer.
type RedisStore struct {
	rdb goredis.Cmdable
}

// NewRedisStore creates a session store over the given Redis connection.
func NewRedisStore(rdb goredis.Cmdable) *RedisStore {
	return &RedisStore{rdb: rdb}
}

// Put writes value with an absolute expiry in a single SET ... EXAT.
func (s *RedisStore) Put(ctx context.Context, key string, value []byte, expiresAt time.Time) error {
	err := s.rdb.SetArgs(ctx, key, value, goredis.SetArgs{ExpireAt: expiresAt}).Err()
	if err != nil {
		return fmt.Errorf("writing session %s: %w", key, err)
	}
	return nil
}

// Get returns the payload under key.
func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := s.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("reading session %s: %w", key, err)
	}
	return val, nil
}

// Delete removes a single session key.
func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if err := s.rdb.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("deleting session %s: %w", key, err)
	}
	return nil
}

// DeleteByPrefix scans for prefix* and deletes matches in batches.
func (s *RedisStore) DeleteByPrefix(ctx context.Context, prefix string) (int, error) {
	var (
		cursor  uint64
		deleted int
	)
	for {
		keys, next, err := s.rdb.Scan(ctx, cursor, prefix+"*", scanBatchSize).Result()
		if err != nil {
			return deleted, fmt.Errorf("scanning sessions %s*: %w", prefix, err)
		}
		if len(keys) > 0 {
			n, err := s.rdb.Del(ctx, keys...).Result()
			if err != nil {
				return deleted, fmt.Errorf("deleting sessions %s*: %w", prefix, err)
			}
			deleted += int(n)
		}
		cursor = next
		if cursor == 0 {
			return deleted, nil
		}
	}
}

// Incr increments a counter and pushes its TTL out to the full window.
// INCR and EXPIRE are two commands, not one transaction; the throttle is a
// soft limit and tolerates the gap.
func (s *RedisStore) Incr(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	n, err := s.rdb.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("incrementing counter %s: %w", key, err)
	}
	if err := s.rdb.Expire(ctx, key, ttl).Err(); err != nil {
		return n, fmt.Errorf("setting counter ttl %s: %w", key, err)
	}
	return n, nil
}

// Count returns the counter value, 0 when absent.
func (s *RedisStore) Count(ctx context.Context, key string) (int64, error) {
	n, err := s.rdb.Get(ctx, key).Int64()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("reading counter %s: %w", key, err)
	}
	return n, nil
}

// DeleteCounter removes a counter key.
func (s *RedisStore) DeleteCounter(ctx context.Context, key string) error {
	if err := s.rdb.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("deleting counter %s: %w", key, err)
	}
	return nil
}

// MemoryStore is an in-process Store used by tests and single-node
// development setups without Redis. Expiry is checked lazily on read.
type MemoryStore struct {
	mu       sync.Mutex
	values   map[string]memoryEntry
	counters map[string]memoryCounter
}

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

type memoryCounter struct {
	count     int64
	expiresAt time.Time
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		values:   make(map[string]memoryEntry),
		counters: make(map[string]memoryCounter),
	}
}

// Put stores value with its absolute expiry.
func (s *MemoryStore) Put(_ context.Context, key string, value []byte, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := make([]byte, len(value))
	copy(cp, value)
	s.values[key] = memoryEntry{value: cp, expiresAt: expiresAt}
	return nil
}

// Get returns the stored value, treating expired entries as absent.
func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.values[key]
	if !ok || time.Now().After(entry.expiresAt) {
		delete(s.values, key)
		return nil, ErrSessionNotFound
	}
	return entry.value, nil
}

// Delete removes a key.
func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
	return nil
}

// DeleteByPrefix removes all keys sharing the prefix.
func (s *MemoryStore) DeleteByPrefix(_ context.Context, prefix string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	deleted := 0
	for key := range s.values {
		if len(key) >= len(prefix) && key[:len(prefix)] == prefix {
			delete(s.values, key)
			deleted++
		}
	}
	return deleted, nil
}

// Incr increments a counter, resetting expired ones first.
func (s *MemoryStore) Incr(_ context.Context, key string, ttl time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.counters[key]
	if !ok || time.Now().After(c.expiresAt) {
		c = memoryCounter{}
	}
	c.count++
	c.expiresAt = time.Now().Add(ttl)
	s.counters[key] = c
	return c.count, nil
}

// Count returns the counter value, 0 for absent or expired counters.
func (s *MemoryStore) Count(_ context.Context, key string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.counters[key]
	if !ok || time.Now().After(c.expiresAt) {
		delete(s.counters, key)
		return 0, nil
	}
	return c.count, nil
}

// DeleteCounter removes a counter.
func (s *MemoryStore) DeleteCounter(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.counters, key)
	return nil
}
