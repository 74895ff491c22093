package ports

import (
	"context"
	"time"
)

// KeyValueStore is the only shared mutable resource of the gateway. It backs
// the rate limiter, the content cache and the event logs.
//
// Implementations make no atomicity promise across a Get followed by a Put.
type KeyValueStore interface {
	// Get returns the value for key. found is false when the key is absent
	// or expired; err is non-nil only for infrastructure failures.
	Get(ctx context.Context, key string) (value []byte, found bool, err error)

	// Put stores value under key. A ttl of zero means the entry never expires.
	Put(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Close releases the backend.
	Close() error
}

// Pinger is implemented by stores that can report readiness.
type Pinger interface {
	Ping(ctx context.Context) error
}
