// Package server hosts the HTTP listeners: the public server wrapping the
// request dispatcher in the outer middleware stack, and the admin server for
// health checks and metrics.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	// DefaultReadHeaderTimeout bounds how long a client may take to send headers.
	DefaultReadHeaderTimeout = 10 * time.Second
	// DefaultRequestTimeout bounds a single request end to end.
	DefaultRequestTimeout = 30 * time.Second
)

// Config configures a Server.
type Config struct {
	Addr              string
	ReadHeaderTimeout time.Duration
	RequestTimeout    time.Duration
	// ServiceName names the otelhttp server span.
	ServiceName string
	// TrustProxyHeaders rewrites RemoteAddr from X-Real-IP/X-Forwarded-For.
	TrustProxyHeaders bool
}

type Server struct {
	Router *chi.Mux
	srv    *http.Server
	logger *slog.Logger
}

// New builds the public server. Every request passes request ID, logging,
// timeout, panic recovery and tracing before reaching handler.
func New(cfg Config, handler http.Handler, logger *slog.Logger) *Server {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	if cfg.TrustProxyHeaders {
		r.Use(middleware.RealIP)
	}
	r.Use(LoggingMiddleware(logger))
	r.Use(TimeoutMiddleware(withDefault(cfg.RequestTimeout, DefaultRequestTimeout)))
	r.Use(middleware.Recoverer)

	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "edge-gateway"
	}
	r.Use(func(next http.Handler) http.Handler {
		return otelhttp.NewHandler(next, serviceName)
	})

	r.Handle("/*", handler)

	return newServer(cfg, r, logger.With("component", "server"))
}

func newServer(cfg Config, r *chi.Mux, logger *slog.Logger) *Server {
	return &Server{
		Router: r,
		srv: &http.Server{
			Addr:              cfg.Addr,
			Handler:           r,
			ReadHeaderTimeout: withDefault(cfg.ReadHeaderTimeout, DefaultReadHeaderTimeout),
		},
		logger: logger,
	}
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return s.srv.Addr
}

// Start listens on the configured address. It returns nil after Shutdown.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.srv.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ln)
}

// Serve accepts connections on ln. It returns nil after Shutdown.
func (s *Server) Serve(ln net.Listener) error {
	s.logger.Info("starting server", slog.String("addr", ln.Addr().String()))
	if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting connections and waits for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

func withDefault(d, def time.Duration) time.Duration {
	if d <= 0 {
		return def
	}
	return d
}
