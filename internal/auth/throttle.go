package auth

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// throttleKeyPrefix namespaces attempt counters in the shared store.
const throttleKeyPrefix = "login_attempts:"

// Default throttle limits.
const (
	defaultMaxAttempts    = 5
	defaultThrottleWindow = 30 * time.Minute
)

// Throttle gates credential verification with a per-username failure counter.
//
// The window slides: each recorded failure refreshes the TTL to the full
// window from that failure. The limit is soft — concurrent verifications can
// both pass the check before either increments, briefly exceeding the nominal
// maximum. Acceptable for a brute-force brake, so no compare-and-set.
type Throttle struct {
	store  Store
	max    int64
	window time.Duration
}

// NewThrottle creates a throttle backed by the given store.
// Non-positive maxAttempts or window fall back to 5 attempts / 30 minutes.
func NewThrottle(store Store, maxAttempts int, window time.Duration) *Throttle {
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}
	if window <= 0 {
		window = defaultThrottleWindow
	}
	return &Throttle{store: store, max: int64(maxAttempts), window: window}
}

// CheckAllowed returns ErrTooManyAttempts when the username has reached the
// failure limit within the window. The denial itself never increments the
// counter — a locked-out user hammering the endpoint doesn't compound the
// lockout.
func (t *Throttle) CheckAllowed(ctx context.Context, username string) error {
	count, err := t.store.Count(ctx, counterKey(username))
	if err != nil {
		return fmt.Errorf("checking login attempts for %s: %w", username, err)
	}
	if count >= t.max {
		return ErrTooManyAttempts
	}
	return nil
}

// RecordFailure increments the username's counter, initialising it to 1 with
// the full TTL if absent.
func (t *Throttle) RecordFailure(ctx context.Context, username string) error {
	if _, err := t.store.Incr(ctx, counterKey(username), t.window); err != nil {
		return fmt.Errorf("recording login failure for %s: %w", username, err)
	}
	return nil
}

// Reset clears the username's counter. Idempotent when absent.
func (t *Throttle) Reset(ctx context.Context, username string) error {
	if err := t.store.DeleteCounter(ctx, counterKey(username)); err != nil {
		return fmt.Errorf("resetting login attempts for %s: %w", username, err)
	}
	return nil
}

func counterKey(username string) string {
	return throttleKeyPrefix + strings.ToLower(username)
}
