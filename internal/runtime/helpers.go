package runtime

import (
	"context"
	"fmt"
	"net/http"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/tjfontaine/edge-content-gateway/internal/backend/openai"
	"github.com/tjfontaine/edge-content-gateway/internal/core/ports"
	"github.com/tjfontaine/edge-content-gateway/internal/frontdoor"
	"github.com/tjfontaine/edge-content-gateway/internal/generator"
	"github.com/tjfontaine/edge-content-gateway/internal/pkg/config"
	"github.com/tjfontaine/edge-content-gateway/internal/pkg/safehttp"
	"github.com/tjfontaine/edge-content-gateway/internal/storage/memory"
	"github.com/tjfontaine/edge-content-gateway/internal/storage/redis"
	"github.com/tjfontaine/edge-content-gateway/internal/storage/sqlite"
	"github.com/tjfontaine/edge-content-gateway/internal/tokens"
)

// openStore creates the configured store. Option overrides win over the
// config file.
func (g *Gateway) openStore(ctx context.Context) error {
	storeType := g.cfg.Store.Type
	if g.storeType != "" {
		storeType = g.storeType
	}

	switch storeType {
	case "memory", "":
		g.store = memory.New()
	case "redis":
		rc := g.cfg.Store.Redis
		if g.redisURL != "" {
			rc.URL = g.redisURL
		}
		store, err := redis.New(ctx, redis.Config{
			URL:       rc.URL,
			Addr:      rc.Addr,
			Password:  rc.Password,
			DB:        rc.DB,
			KeyPrefix: rc.KeyPrefix,
		}, g.logger)
		if err != nil {
			return fmt.Errorf("create redis store: %w", err)
		}
		g.store = store
	case "sqlite":
		path := g.cfg.Store.SQLite.Path
		if g.sqlitePath != "" {
			path = g.sqlitePath
		}
		store, err := sqlite.New(path)
		if err != nil {
			return fmt.Errorf("create sqlite store: %w", err)
		}
		g.store = store
		g.sweeper = sqlite.NewSweeper(store, g.cfg.Store.SQLite.SweepSchedule, g.logger)
	default:
		return fmt.Errorf("unknown store type %q", storeType)
	}
	g.ownsStore = true
	return nil
}

// buildGenerator returns the guarded content generator.
func (g *Gateway) buildGenerator() (ports.ContentGenerator, error) {
	gc := g.cfg.Generator

	base := g.generator
	if base == nil {
		switch gc.Type {
		case "static", "":
			base = generator.Static{}
		case "openai":
			transport := safehttp.NewTransport(safehttp.Options{BlockPrivateNetworks: gc.BlockPrivateNetworks})
			client := openai.NewClient(gc.APIKey,
				openai.WithBaseURL(gc.BaseURL),
				openai.WithHTTPClient(&http.Client{Transport: otelhttp.NewTransport(transport)}),
			)
			base = openai.NewGenerator(client, openai.GeneratorConfig{
				Model:     gc.Model,
				Prompt:    gc.Prompt,
				MaxTokens: gc.MaxTokens,
			})
		default:
			return nil, fmt.Errorf("unknown generator type %q", gc.Type)
		}
	}

	var truncator generator.Truncator
	if gc.MaxTokens > 0 {
		truncator = tokens.NewTruncator(gc.Model)
	}
	return generator.NewGuard(base, generator.GuardConfig{
		Timeout:           gc.Timeout,
		RequestsPerSecond: gc.RequestsPerSecond,
		Burst:             gc.Burst,
		MaxTokens:         gc.MaxTokens,
	}, truncator, g.logger), nil
}

func hardeningHeaders(hc config.HeadersConfig) frontdoor.HardeningHeaders {
	return frontdoor.HardeningHeaders{
		ContentType:           hc.ContentType,
		CacheControl:          hc.CacheControl,
		FrameOptions:          hc.FrameOptions,
		TransportSecurity:     hc.HSTS,
		ContentTypeOptions:    hc.ContentTypeOptions,
		ContentSecurityPolicy: hc.CSP,
	}
}

// ready reports store health for the admin readiness check.
func (g *Gateway) ready(ctx context.Context) error {
	if p, ok := g.store.(ports.Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}
