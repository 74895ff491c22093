// Package content builds and caches rendered page content per identity and
// region.
package content

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/tjfontaine/edge-content-gateway/internal/core/domain"
	"github.com/tjfontaine/edge-content-gateway/internal/core/ports"
)

const (
	// DefaultTTL keeps generated content for five days.
	DefaultTTL = 5 * 24 * time.Hour
	// DefaultMaxEntryBytes is the serialized size ceiling; entries at or
	// above it are served but never written.
	DefaultMaxEntryBytes = 25 * 1024 * 1024
	// DefaultPrefix namespaces cache entries in the store.
	DefaultPrefix = "content:"
)

// Config tunes the cache. Zero values take the defaults.
type Config struct {
	TTL               time.Duration
	MaxEntryBytes     int
	MaxIdentityLength int
	Prefix            string
}

func (c Config) withDefaults() Config {
	if c.TTL <= 0 {
		c.TTL = DefaultTTL
	}
	if c.MaxEntryBytes <= 0 {
		c.MaxEntryBytes = DefaultMaxEntryBytes
	}
	if c.MaxIdentityLength <= 0 {
		c.MaxIdentityLength = DefaultMaxIdentityLength
	}
	if c.Prefix == "" {
		c.Prefix = DefaultPrefix
	}
	return c
}

// MetricsRecorder observes cache outcomes.
type MetricsRecorder interface {
	ObserveCache(result string)
	ObserveGeneratorFailure(reason string)
}

// Cache implements get-or-generate over a KeyValueStore. It never returns an
// error: store failures fall through to generation and generator failures
// become a fallback payload.
type Cache struct {
	store   ports.KeyValueStore
	cfg     Config
	seo     *SEOBuilder
	logger  *slog.Logger
	metrics MetricsRecorder
	now     func() time.Time

	group singleflight.Group
}

// Option configures a Cache.
type Option func(*Cache)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Cache) { c.logger = logger }
}

// WithMetrics records outcomes on m.
func WithMetrics(m MetricsRecorder) Option {
	return func(c *Cache) { c.metrics = m }
}

// WithClock overrides the payload timestamp source.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// NewCache creates a cache over store.
func NewCache(store ports.KeyValueStore, seo *SEOBuilder, cfg Config, opts ...Option) (*Cache, error) {
	if store == nil {
		return nil, fmt.Errorf("key-value store required")
	}
	if seo == nil {
		return nil, fmt.Errorf("seo builder required")
	}
	c := &Cache{
		store:  store,
		cfg:    cfg.withDefaults(),
		seo:    seo,
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With("component", "content_cache")
	return c, nil
}

// Normalize applies the cache's identity normalization.
func (c *Cache) Normalize(identity string) string {
	return Normalize(identity, c.cfg.MaxIdentityLength)
}

// Key returns the store key for an already normalized identity and region.
func (c *Cache) Key(identity, region string) string {
	return c.cfg.Prefix + identity + ":" + region
}

// GetOrGenerate returns the cached payload for identity in region, or
// generates, stores and returns a new one. Concurrent misses for the same
// key in this process share one generator call.
func (c *Cache) GetOrGenerate(ctx context.Context, identity, region string, gen ports.ContentGenerator) domain.ContentPayload {
	identity = c.Normalize(identity)
	region = NormalizeRegion(region)
	key := c.Key(identity, region)

	if payload, ok := c.lookup(ctx, key); ok {
		c.observe("hit")
		return payload
	}

	// The shared call outlives the caller that started it: a disconnect must
	// not turn into a stored fallback for every waiter. The generator's own
	// timeout bounds it.
	genCtx := context.WithoutCancel(ctx)
	v, _, shared := c.group.Do(key, func() (any, error) {
		c.observe("miss")
		payload := c.generate(genCtx, identity, region, gen)
		c.persist(genCtx, key, payload)
		return payload, nil
	})
	if shared {
		c.observe("shared")
	}
	return v.(domain.ContentPayload)
}

func (c *Cache) lookup(ctx context.Context, key string) (domain.ContentPayload, bool) {
	raw, found, err := c.store.Get(ctx, key)
	if err != nil {
		c.observe("store_error")
		c.logger.Warn("cache read failed, generating directly",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
		return domain.ContentPayload{}, false
	}
	if !found {
		return domain.ContentPayload{}, false
	}

	var payload domain.ContentPayload
	if err := json.Unmarshal(raw, &payload); err != nil || payload.Content == "" {
		c.observe("corrupt")
		c.logger.Warn("discarding unreadable cache entry", slog.String("key", key))
		return domain.ContentPayload{}, false
	}
	return payload, true
}

func (c *Cache) generate(ctx context.Context, identity, region string, gen ports.ContentGenerator) domain.ContentPayload {
	pageCopy := c.seo.Copy()

	seo, err := c.seo.Build(identity, region)
	if err != nil {
		c.logger.Error("seo build failed", slog.String("error", err.Error()))
	}

	payload := domain.ContentPayload{
		Identity:  identity,
		Region:    region,
		SEO:       seo,
		CreatedAt: c.now().UTC(),
	}

	text, err := c.callGenerator(ctx, identity, region, gen)
	if err != nil {
		reason := "error"
		if errors.Is(err, context.DeadlineExceeded) {
			reason = "timeout"
		}
		if c.metrics != nil {
			c.metrics.ObserveGeneratorFailure(reason)
		}
		c.logger.Warn("content generation failed, using fallback",
			slog.String("identity", identity),
			slog.String("region", region),
			slog.String("error", err.Error()),
		)
		payload.Content = Fallback(pageCopy, identity)
		payload.Fallback = true
		return payload
	}

	payload.Content = pageCopy.Heading(EscapeHTML(identity)) + "\n<p>" + EscapeHTML(text) + "</p>"
	return payload
}

func (c *Cache) callGenerator(ctx context.Context, identity, region string, gen ports.ContentGenerator) (text string, err error) {
	if gen == nil {
		return "", domain.NewEdgeError(domain.ErrorTypeGeneration, "no generator configured", nil)
	}
	defer func() {
		if r := recover(); r != nil {
			err = domain.NewEdgeError(domain.ErrorTypeGeneration, "generator panicked", fmt.Errorf("%v", r))
		}
	}()

	text, err = gen.Generate(ctx, identity, region)
	if err != nil {
		return "", domain.NewEdgeError(domain.ErrorTypeGeneration, "generate", err)
	}
	if strings.TrimSpace(text) == "" {
		return "", domain.NewEdgeError(domain.ErrorTypeGeneration, "generator returned empty text", nil)
	}
	return strings.TrimSpace(text), nil
}

func (c *Cache) persist(ctx context.Context, key string, payload domain.ContentPayload) {
	data, err := json.Marshal(payload)
	if err != nil {
		c.logger.Error("cache entry encode failed", slog.String("key", key), slog.String("error", err.Error()))
		return
	}
	if len(data) >= c.cfg.MaxEntryBytes {
		c.observe("oversize")
		c.logger.Info("cache entry exceeds size ceiling, not stored",
			slog.String("key", key),
			slog.Int("bytes", len(data)),
		)
		return
	}
	if err := c.store.Put(ctx, key, data, c.cfg.TTL); err != nil {
		c.observe("store_error")
		c.logger.Warn("cache write failed", slog.String("key", key), slog.String("error", err.Error()))
	}
}

func (c *Cache) observe(result string) {
	if c.metrics != nil {
		c.metrics.ObserveCache(result)
	}
}

// Fallback is the deterministic placeholder used when generation fails.
func Fallback(c Copy, identity string) string {
	return c.Heading(EscapeHTML(identity)) + "\n<p>" + EscapeHTML(c.Apology) + "</p>"
}
