// Package runtime assembles the edge gateway from configuration and manages
// its lifecycle.
package runtime

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/tjfontaine/edge-content-gateway/internal/adapters/events/async"
	"github.com/tjfontaine/edge-content-gateway/internal/adapters/events/direct"
	"github.com/tjfontaine/edge-content-gateway/internal/content"
	"github.com/tjfontaine/edge-content-gateway/internal/core/ports"
	"github.com/tjfontaine/edge-content-gateway/internal/dispatcher"
	"github.com/tjfontaine/edge-content-gateway/internal/frontdoor"
	"github.com/tjfontaine/edge-content-gateway/internal/pipeline"
	"github.com/tjfontaine/edge-content-gateway/internal/pkg/config"
	"github.com/tjfontaine/edge-content-gateway/internal/ratelimit"
	"github.com/tjfontaine/edge-content-gateway/internal/router"
	"github.com/tjfontaine/edge-content-gateway/internal/security"
	"github.com/tjfontaine/edge-content-gateway/internal/server"
	"github.com/tjfontaine/edge-content-gateway/internal/storage/sqlite"
	"github.com/tjfontaine/edge-content-gateway/internal/telemetry"
)

// Gateway owns the store, the request pipeline and the HTTP servers.
// Gateway can be embedded in larger applications or run standalone.
type Gateway struct {
	cfg    *config.Config
	logger *slog.Logger

	// option overrides
	storeType  string
	redisURL   string
	sqlitePath string
	generator  ports.ContentGenerator
	registry   *prometheus.Registry

	store     ports.KeyValueStore
	ownsStore bool
	sweeper   *sqlite.Sweeper
	metrics   *telemetry.Metrics
	events    *async.Recorder
	handlers  *frontdoor.Handlers
	router    *router.Router
	handler   http.Handler

	public *server.Server
	admin  *server.Server

	mu       sync.Mutex
	started  bool
	cancel   context.CancelFunc
	serveErr chan error
}

// New builds a gateway. Without WithConfig or WithConfigFile the
// configuration is loaded from EDGE_CONFIG or config.yaml and the environment.
func New(opts ...Option) (*Gateway, error) {
	gw := &Gateway{logger: slog.Default()}

	for _, opt := range opts {
		if err := opt(gw); err != nil {
			return nil, fmt.Errorf("apply option: %w", err)
		}
	}

	if gw.cfg == nil {
		cfg, err := config.Load()
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
		gw.cfg = cfg
	}

	if gw.store == nil {
		if err := gw.openStore(context.Background()); err != nil {
			return nil, err
		}
	}

	if err := gw.build(); err != nil {
		gw.closeStore()
		return nil, err
	}
	return gw, nil
}

// build wires the request path: chain, router and dispatcher.
func (g *Gateway) build() error {
	cfg := g.cfg

	g.metrics = telemetry.NewMetrics(cfg.Telemetry.MetricsNamespace, g.registry)

	seo, err := content.NewSEOBuilder(content.SEOConfig{
		Language:      cfg.Content.Language,
		LocaleRegions: cfg.Content.LocaleRegions,
		ImageBaseURL:  cfg.Content.ImageBaseURL,
		Brand:         cfg.Content.Brand,
	})
	if err != nil {
		return fmt.Errorf("create seo builder: %w", err)
	}

	cache, err := content.NewCache(g.store, seo, content.Config{
		TTL:               cfg.Cache.TTL,
		MaxEntryBytes:     cfg.Cache.MaxEntryBytes,
		MaxIdentityLength: cfg.Cache.MaxIdentityLength,
		Prefix:            cfg.Cache.Prefix,
	}, content.WithLogger(g.logger), content.WithMetrics(g.metrics))
	if err != nil {
		return fmt.Errorf("create content cache: %w", err)
	}

	gen, err := g.buildGenerator()
	if err != nil {
		return err
	}

	recorder, err := direct.NewRecorder(g.store, direct.Config{
		ErrorPrefix:      cfg.Events.ErrorPrefix,
		ConversionPrefix: cfg.Events.ConversionPrefix,
		ErrorTTL:         cfg.Events.ErrorTTL,
	})
	if err != nil {
		return fmt.Errorf("create event recorder: %w", err)
	}
	g.events = async.NewRecorder(recorder, cfg.Events.Buffer,
		async.WithLogger(g.logger),
		async.WithMetrics(g.metrics),
	)

	clientKey := ratelimit.DefaultKeyFunc(cfg.RateLimit.KeyHeader, cfg.RateLimit.TrustXFF)

	// Conversions are written synchronously so a failed write surfaces as
	// an error page; error events go through the async recorder.
	g.handlers, err = frontdoor.New(cache, seo, gen, recorder, frontdoor.Config{
		RegionHeader:        cfg.Cache.RegionHeader,
		DefaultRegion:       cfg.Cache.DefaultRegion,
		TrackPath:           cfg.Content.TrackPath,
		Brand:               cfg.Content.Brand,
		LandingCacheControl: cfg.Headers.LandingCacheControl,
		Headers:             hardeningHeaders(cfg.Headers),
	}, frontdoor.WithLogger(g.logger), frontdoor.WithClientKey(clientKey))
	if err != nil {
		return fmt.Errorf("create handlers: %w", err)
	}

	g.router = router.New()
	frontdoor.Register(g.router, g.handlers.Registrations())

	chain := pipeline.NewChain()
	if guard := security.NewThreatGuard(cfg.Security.ThreatScoreHeader, cfg.Security.ThreatScoreMax, g.logger); guard != nil {
		chain.Use(guard)
	}
	if cfg.RateLimit.Enabled {
		limiter, err := ratelimit.NewLimiter(g.store, ratelimit.Config{
			Window:   cfg.RateLimit.Window,
			Limit:    cfg.RateLimit.Limit,
			Grace:    cfg.RateLimit.Grace,
			Prefix:   cfg.RateLimit.Prefix,
			FailOpen: cfg.RateLimit.FailOpen,
		}, ratelimit.WithMetrics(g.metrics))
		if err != nil {
			return fmt.Errorf("create rate limiter: %w", err)
		}
		chain.Use(ratelimit.NewInterceptor(limiter, clientKey, g.logger))
	}

	g.handler = dispatcher.New(chain, g.router,
		dispatcher.WithNotFound(g.handlers.NotFound),
		dispatcher.WithErrorPage(g.handlers.ErrorPage),
		dispatcher.WithEventRecorder(g.events),
		dispatcher.WithClientKey(clientKey),
		dispatcher.WithLogger(g.logger),
		dispatcher.WithMetrics(g.metrics),
	)

	g.public = server.New(server.Config{
		Addr:              ":" + strconv.Itoa(cfg.Server.Port),
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		RequestTimeout:    cfg.Server.RequestTimeout,
		ServiceName:       cfg.Telemetry.ServiceName,
		TrustProxyHeaders: cfg.Server.TrustProxyHeaders,
	}, g.handler, g.logger)

	if cfg.Server.AdminPort > 0 {
		g.admin = server.NewAdmin(server.Config{
			Addr: ":" + strconv.Itoa(cfg.Server.AdminPort),
		}, g.metrics.Registry(), g.ready, g.logger)
	}

	g.logger.Info("gateway configured",
		slog.Any("routes", g.router.Routes()),
		slog.Bool("rate_limit", cfg.RateLimit.Enabled),
		slog.Int("interceptors", chain.Len()),
		slog.String("generator", cfg.Generator.Type))
	return nil
}

// Handler returns the public handler with the full middleware stack.
func (g *Gateway) Handler() http.Handler {
	return g.public.Router
}

// Metrics exposes the gateway's metric collectors.
func (g *Gateway) Metrics() *telemetry.Metrics {
	return g.metrics
}

// Start binds the listeners and serves in the background. Bind errors are
// returned directly; later serve errors are reported by Wait.
func (g *Gateway) Start(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.started {
		return errors.New("gateway already started")
	}

	ctx, g.cancel = context.WithCancel(ctx)

	if g.sweeper != nil {
		if err := g.sweeper.Start(ctx); err != nil {
			g.cancel()
			return fmt.Errorf("start sweeper: %w", err)
		}
	}

	type bound struct {
		srv *server.Server
		ln  net.Listener
	}
	var servers []bound
	for _, srv := range []*server.Server{g.public, g.admin} {
		if srv == nil {
			continue
		}
		ln, err := net.Listen("tcp", srv.Addr())
		if err != nil {
			for _, b := range servers {
				b.ln.Close()
			}
			g.cancel()
			return fmt.Errorf("listen %s: %w", srv.Addr(), err)
		}
		servers = append(servers, bound{srv, ln})
	}

	g.serveErr = make(chan error, len(servers))
	for _, b := range servers {
		go func() {
			if err := b.srv.Serve(b.ln); err != nil {
				g.serveErr <- err
			}
		}()
	}

	g.started = true
	g.logger.Info("gateway started",
		slog.Int("port", g.cfg.Server.Port),
		slog.Int("admin_port", g.cfg.Server.AdminPort))
	return nil
}

// Wait blocks until ctx is done or a server fails.
func (g *Gateway) Wait(ctx context.Context) error {
	g.mu.Lock()
	errc := g.serveErr
	g.mu.Unlock()
	if errc == nil {
		return errors.New("gateway not started")
	}

	select {
	case <-ctx.Done():
		return nil
	case err := <-errc:
		return err
	}
}

// Shutdown stops the servers, drains pending events and closes the store.
func (g *Gateway) Shutdown(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.logger.Info("shutting down gateway")

	var errs []error
	if g.started {
		for _, srv := range []*server.Server{g.public, g.admin} {
			if srv == nil {
				continue
			}
			if err := srv.Shutdown(ctx); err != nil {
				g.logger.Error("failed to shutdown server", slog.String("error", err.Error()))
				errs = append(errs, err)
			}
		}
		g.started = false
	}
	if g.cancel != nil {
		g.cancel()
	}
	if g.sweeper != nil {
		g.sweeper.Stop()
	}

	if err := g.events.Close(ctx); err != nil {
		g.logger.Error("failed to drain events", slog.String("error", err.Error()))
		errs = append(errs, err)
	}
	if dropped := g.events.Dropped(); dropped > 0 {
		g.logger.Warn("events dropped", slog.Uint64("count", dropped))
	}

	if err := g.closeStore(); err != nil {
		g.logger.Error("failed to close storage", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	g.logger.Info("gateway shutdown complete")
	return errors.Join(errs...)
}

func (g *Gateway) closeStore() error {
	if g.store == nil || !g.ownsStore {
		return nil
	}
	err := g.store.Close()
	g.store = nil
	return err
}
