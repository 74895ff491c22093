package ratelimit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/tjfontaine/edge-content-gateway/internal/core/domain"
	"github.com/tjfontaine/edge-content-gateway/internal/core/ports"
)

const (
	// DefaultWindow is the length of one counting window.
	DefaultWindow = 60 * time.Second
	// DefaultLimit is the number of requests allowed per window.
	DefaultLimit = 100
	// DefaultGrace is added to the window when setting the record TTL.
	DefaultGrace = time.Second
	// DefaultPrefix namespaces window records in the store.
	DefaultPrefix = "rl:"
)

// Config tunes the limiter. Zero values take the defaults above.
type Config struct {
	Window   time.Duration
	Limit    int
	Grace    time.Duration
	Prefix   string
	FailOpen bool
}

// DefaultConfig returns the fail-open default configuration.
func DefaultConfig() Config {
	return Config{
		Window:   DefaultWindow,
		Limit:    DefaultLimit,
		Grace:    DefaultGrace,
		Prefix:   DefaultPrefix,
		FailOpen: true,
	}
}

func (c Config) withDefaults() Config {
	if c.Window <= 0 {
		c.Window = DefaultWindow
	}
	if c.Limit <= 0 {
		c.Limit = DefaultLimit
	}
	if c.Grace < 0 {
		c.Grace = 0
	}
	if c.Prefix == "" {
		c.Prefix = DefaultPrefix
	}
	return c
}

// Decision is the outcome of one Check.
type Decision struct {
	Allowed   bool
	Count     int
	Limit     int
	Remaining int
	ResetAt   time.Time
	// Degraded is set when the store failed and the policy decided.
	Degraded bool
}

// RetryAfter returns how long a denied client should wait, rounded up to a
// whole second and never less than one.
func (d Decision) RetryAfter(now time.Time) time.Duration {
	wait := d.ResetAt.Sub(now)
	if wait <= 0 {
		return time.Second
	}
	secs := (wait + time.Second - 1) / time.Second
	return secs * time.Second
}

// MetricsRecorder observes limiter outcomes.
type MetricsRecorder interface {
	ObserveRateLimit(result string)
}

// Limiter is a fixed-window rate limiter.
type Limiter struct {
	store   ports.KeyValueStore
	cfg     Config
	now     func() time.Time
	metrics MetricsRecorder
}

// Option configures a Limiter.
type Option func(*Limiter)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) { l.now = now }
}

// WithMetrics records every decision on m.
func WithMetrics(m MetricsRecorder) Option {
	return func(l *Limiter) { l.metrics = m }
}

// NewLimiter creates a limiter over store.
func NewLimiter(store ports.KeyValueStore, cfg Config, opts ...Option) (*Limiter, error) {
	if store == nil {
		return nil, fmt.Errorf("key-value store required")
	}
	l := &Limiter{
		store: store,
		cfg:   cfg.withDefaults(),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// Config returns the effective configuration.
func (l *Limiter) Config() Config {
	return l.cfg
}

// Check counts one request for client and decides whether it may proceed.
// A non-nil error is always a store failure; the returned Decision then
// reflects the fail-open or fail-closed policy.
func (l *Limiter) Check(ctx context.Context, client string) (Decision, error) {
	key := l.cfg.Prefix + client
	now := l.now()

	raw, found, err := l.store.Get(ctx, key)
	if err != nil {
		return l.degraded(now), fmt.Errorf("read window %s: %w", key, err)
	}

	var window domain.RateWindow
	if found {
		if err := json.Unmarshal(raw, &window); err != nil || window.Count < 0 {
			found = false
		}
	}

	if !found || now.Sub(window.Start()) >= l.cfg.Window {
		window = domain.RateWindow{Count: 1, WindowStart: now.UnixMilli()}
		if err := l.write(ctx, key, window); err != nil {
			return l.degraded(now), err
		}
		return l.allow(window), nil
	}

	next := window.Count + 1
	if next > l.cfg.Limit {
		l.observe("denied")
		return Decision{
			Allowed:   false,
			Count:     window.Count,
			Limit:     l.cfg.Limit,
			Remaining: 0,
			ResetAt:   window.Start().Add(l.cfg.Window),
		}, nil
	}

	window.Count = next
	if err := l.write(ctx, key, window); err != nil {
		return l.degraded(now), err
	}
	return l.allow(window), nil
}

func (l *Limiter) write(ctx context.Context, key string, w domain.RateWindow) error {
	data, err := json.Marshal(w)
	if err != nil {
		return fmt.Errorf("encode window %s: %w", key, err)
	}
	if err := l.store.Put(ctx, key, data, l.cfg.Window+l.cfg.Grace); err != nil {
		return fmt.Errorf("write window %s: %w", key, err)
	}
	return nil
}

func (l *Limiter) allow(w domain.RateWindow) Decision {
	l.observe("allowed")
	return Decision{
		Allowed:   true,
		Count:     w.Count,
		Limit:     l.cfg.Limit,
		Remaining: l.cfg.Limit - w.Count,
		ResetAt:   w.Start().Add(l.cfg.Window),
	}
}

func (l *Limiter) degraded(now time.Time) Decision {
	if l.cfg.FailOpen {
		l.observe("fail_open")
	} else {
		l.observe("fail_closed")
	}
	return Decision{
		Allowed:  l.cfg.FailOpen,
		Limit:    l.cfg.Limit,
		ResetAt:  now.Add(l.cfg.Window),
		Degraded: true,
	}
}

func (l *Limiter) observe(result string) {
	if l.metrics != nil {
		l.metrics.ObserveRateLimit(result)
	}
}
