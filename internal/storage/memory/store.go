package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/tjfontaine/edge-content-gateway/internal/core/ports"
	"github.com/tjfontaine/edge-content-gateway/internal/storage"
)

type entry struct {
	value     []byte
	expiresAt time.Time
}

// Store is an in-memory implementation of ports.KeyValueStore. Expired
// entries are dropped lazily on read.
type Store struct {
	mu      sync.RWMutex
	entries map[string]entry
	now     storage.Clock
}

var _ ports.KeyValueStore = (*Store)(nil)

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source used for expiry.
func WithClock(clock storage.Clock) Option {
	return func(s *Store) {
		s.now = clock
	}
}

// New creates a new in-memory store
func New(opts ...Option) *Store {
	s := &Store{
		entries: make(map[string]entry),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()

	if !ok {
		return nil, false, nil
	}
	if storage.Expired(e.expiresAt, s.now()) {
		s.mu.Lock()
		if cur, ok := s.entries[key]; ok && storage.Expired(cur.expiresAt, s.now()) {
			delete(s.entries, key)
		}
		s.mu.Unlock()
		return nil, false, nil
	}

	out := make([]byte, len(e.value))
	copy(out, e.value)
	return out, true, nil
}

func (s *Store) Put(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	v := make([]byte, len(value))
	copy(v, value)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[key] = entry{
		value:     v,
		expiresAt: storage.ExpiresAt(s.now(), ttl),
	}
	return nil
}

// Keys returns the live keys with the given prefix in sorted order.
func (s *Store) Keys(prefix string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := s.now()
	var keys []string
	for k, e := range s.entries {
		if strings.HasPrefix(k, prefix) && !storage.Expired(e.expiresAt, now) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

// TTL returns the remaining lifetime of key. ok is false for absent keys;
// a zero duration with ok true means no expiry.
func (s *Store) TTL(key string) (time.Duration, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[key]
	if !ok {
		return 0, false
	}
	if e.expiresAt.IsZero() {
		return 0, true
	}
	return e.expiresAt.Sub(s.now()), true
}

func (s *Store) Ping(ctx context.Context) error {
	return nil
}

func (s *Store) Close() error {
	return nil
}
