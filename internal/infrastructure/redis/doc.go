// Package redis provides the shared Redis client for Atrium Core.
//
// Redis holds all transient authentication state: session payloads keyed by
// composite session keys, and the per-username login attempt counters used by
// the brute-force throttle. Both concerns receive the client as an injected
// dependency — there is no package-level global.
//
// The client follows the same lifecycle pattern as the other infrastructure
// components:
//
//	client, err := redis.Connect(cfg.Redis)
//	defer client.Close()
//
// Thread Safety: All methods are safe for concurrent use from multiple goroutines.
package redis
