package runtime

import (
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/tjfontaine/edge-content-gateway/internal/core/ports"
	"github.com/tjfontaine/edge-content-gateway/internal/pkg/config"
)

// Option is a functional option for configuring a Gateway.
type Option func(*Gateway) error

// WithConfig sets the configuration. Without it New loads one from the
// environment.
func WithConfig(cfg *config.Config) Option {
	return func(g *Gateway) error {
		if cfg == nil {
			return fmt.Errorf("config cannot be nil")
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}
		g.cfg = cfg
		return nil
	}
}

// WithConfigFile loads configuration from path and the environment.
func WithConfigFile(path string) Option {
	return func(g *Gateway) error {
		cfg, err := config.LoadFile(path)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		g.cfg = cfg
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Gateway) error {
		g.logger = logger
		return nil
	}
}

// WithStore uses a caller-owned store. The gateway does not close it.
func WithStore(store ports.KeyValueStore) Option {
	return func(g *Gateway) error {
		g.store = store
		g.ownsStore = false
		return nil
	}
}

// WithMemoryStore selects the in-process store.
func WithMemoryStore() Option {
	return func(g *Gateway) error {
		g.storeType = "memory"
		return nil
	}
}

// WithRedisStore selects Redis at url (redis://host:6379/0).
func WithRedisStore(url string) Option {
	return func(g *Gateway) error {
		g.storeType = "redis"
		g.redisURL = url
		return nil
	}
}

// WithSQLiteStore selects the SQLite store at path.
func WithSQLiteStore(path string) Option {
	return func(g *Gateway) error {
		g.storeType = "sqlite"
		g.sqlitePath = path
		return nil
	}
}

// WithGenerator replaces the configured content generator. It is still
// wrapped with the configured timeout and request budget.
func WithGenerator(gen ports.ContentGenerator) Option {
	return func(g *Gateway) error {
		g.generator = gen
		return nil
	}
}

// WithMetricsRegistry registers gateway metrics on registry instead of a
// private one.
func WithMetricsRegistry(registry *prometheus.Registry) Option {
	return func(g *Gateway) error {
		g.registry = registry
		return nil
	}
}
