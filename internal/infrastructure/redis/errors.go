package redis

import "errors"

// Sentinel errors for Redis client operations.
var (
	// ErrConnectionFailed indicates the initial connection or ping failed.
	ErrConnectionFailed = errors.New("redis connection failed")
)
