// Package redis provides a Redis-backed key-value store shared by every
// gateway replica.
package redis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/tjfontaine/edge-content-gateway/internal/core/domain"
	"github.com/tjfontaine/edge-content-gateway/internal/core/ports"
)

// Config configures the Redis connection.
type Config struct {
	// URL takes precedence over Addr/Password/DB when set (redis://...).
	URL      string
	Addr     string
	Password string
	DB       int

	// KeyPrefix namespaces every key written by the store.
	KeyPrefix   string
	DialTimeout time.Duration
}

// Store implements ports.KeyValueStore on Redis.
type Store struct {
	client *goredis.Client
	prefix string
	logger *slog.Logger
}

var _ ports.KeyValueStore = (*Store)(nil)

// New connects to Redis and verifies the connection with a PING.
func New(ctx context.Context, cfg Config, logger *slog.Logger) (*Store, error) {
	var opts *goredis.Options
	if cfg.URL != "" {
		parsed, err := goredis.ParseURL(cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("failed to parse redis url: %w", err)
		}
		opts = parsed
	} else {
		opts = &goredis.Options{
			Addr:     cfg.Addr,
			Password: cfg.Password,
			DB:       cfg.DB,
		}
	}
	if cfg.DialTimeout > 0 {
		opts.DialTimeout = cfg.DialTimeout
	}

	client := goredis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return NewFromClient(client, cfg.KeyPrefix, logger), nil
}

// NewFromClient wraps an existing client.
func NewFromClient(client *goredis.Client, prefix string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("redis store initialized", slog.String("addr", client.Options().Addr))
	return &Store{
		client: client,
		prefix: prefix,
		logger: logger.With("component", "redis_store"),
	}
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := s.client.Get(ctx, s.prefix+key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, domain.StoreError("redis get", err)
	}
	return val, true, nil
}

// Put writes value with SET. A zero ttl stores without expiry.
func (s *Store) Put(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl < 0 {
		ttl = 0
	}
	if err := s.client.Set(ctx, s.prefix+key, value, ttl).Err(); err != nil {
		return domain.StoreError("redis set", err)
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return domain.StoreError("redis ping", err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.client.Close()
}
