// Package storage holds helpers shared by the key-value backends.
package storage

import "time"

// Clock returns the current time. Backends accept one so tests can control
// expiry without sleeping.
type Clock func() time.Time

// ExpiresAt returns the absolute expiry for a ttl, or the zero time when the
// entry never expires.
func ExpiresAt(now time.Time, ttl time.Duration) time.Time {
	if ttl <= 0 {
		return time.Time{}
	}
	return now.Add(ttl)
}

// Expired reports whether an entry with the given expiry is gone at now.
func Expired(expiresAt, now time.Time) bool {
	return !expiresAt.IsZero() && !now.Before(expiresAt)
}
