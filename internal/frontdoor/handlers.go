package frontdoor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tjfontaine/edge-content-gateway/internal/content"
	"github.com/tjfontaine/edge-content-gateway/internal/core/domain"
	"github.com/tjfontaine/edge-content-gateway/internal/core/ports"
	"github.com/tjfontaine/edge-content-gateway/internal/ratelimit"
	"github.com/tjfontaine/edge-content-gateway/internal/render"
	"github.com/tjfontaine/edge-content-gateway/internal/router"
	"github.com/tjfontaine/edge-content-gateway/internal/server"
)

const (
	// DefaultRegionHeader carries the edge-supplied country code.
	DefaultRegionHeader = "CF-IPCountry"
	// DefaultTrackPath receives conversion beacons.
	DefaultTrackPath = "/track/conversion"
	// DefaultMaxBodyBytes caps conversion beacon bodies.
	DefaultMaxBodyBytes = 16 << 10
	// DefaultLandingCacheControl is shorter than content pages since the
	// landing page changes with deployments.
	DefaultLandingCacheControl = "public, max-age=3600"
	// IdentityParam is the route parameter carrying the page identity.
	IdentityParam = "identity"
)

// Config configures the page handlers. Zero values take the defaults.
type Config struct {
	RegionHeader        string
	DefaultRegion       string
	TrackPath           string
	MaxBodyBytes        int64
	Brand               string
	LandingCacheControl string
	Headers             HardeningHeaders
}

func (c Config) withDefaults() Config {
	if c.RegionHeader == "" {
		c.RegionHeader = DefaultRegionHeader
	}
	if c.TrackPath == "" {
		c.TrackPath = DefaultTrackPath
	}
	if c.MaxBodyBytes <= 0 {
		c.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if c.LandingCacheControl == "" {
		c.LandingCacheControl = DefaultLandingCacheControl
	}
	c.Headers = c.Headers.withDefaults()
	return c
}

// Handlers serves the public pages.
type Handlers struct {
	cache     *content.Cache
	seo       *content.SEOBuilder
	generator ports.ContentGenerator
	events    ports.EventRecorder
	clientKey ratelimit.KeyFunc
	cfg       Config
	logger    *slog.Logger
	now       func() time.Time
}

// Option configures Handlers.
type Option func(*Handlers)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Handlers) { h.logger = logger }
}

// WithClientKey sets how the conversion beacon identifies the client.
func WithClientKey(fn ratelimit.KeyFunc) Option {
	return func(h *Handlers) { h.clientKey = fn }
}

// WithClock overrides the time source for load-time measurement.
func WithClock(now func() time.Time) Option {
	return func(h *Handlers) { h.now = now }
}

// New creates the page handlers. events receives conversion records
// synchronously so a failed write is reported to the caller.
func New(cache *content.Cache, seo *content.SEOBuilder, gen ports.ContentGenerator, events ports.EventRecorder, cfg Config, opts ...Option) (*Handlers, error) {
	if cache == nil || seo == nil {
		return nil, errors.New("content cache and seo builder required")
	}
	if gen == nil {
		return nil, errors.New("content generator required")
	}
	if events == nil {
		return nil, errors.New("event recorder required")
	}

	h := &Handlers{
		cache:     cache,
		seo:       seo,
		generator: gen,
		events:    events,
		clientKey: ratelimit.DefaultKeyFunc("", false),
		cfg:       cfg.withDefaults(),
		logger:    slog.Default(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}
	h.logger = h.logger.With("component", "frontdoor")
	return h, nil
}

// Registrations returns the public routes. The exact landing and beacon
// routes are listed before the parameterized content route.
func (h *Handlers) Registrations() []HandlerRegistration {
	return []HandlerRegistration{
		{Path: "/", Method: http.MethodGet, Handler: h.Landing},
		{Path: h.cfg.TrackPath, Method: http.MethodPost, Handler: h.TrackConversion},
		{Path: "/:" + IdentityParam, Method: http.MethodGet, Handler: h.Content},
	}
}

// Landing serves the static landing page.
func (h *Handlers) Landing(ctx context.Context, r *http.Request, _ router.Params) (*domain.Response, error) {
	body, err := render.Landing(h.seo.Copy(), h.seo.Locale(""), h.cfg.Brand)
	if err != nil {
		return nil, err
	}
	resp := domain.NewResponse(http.StatusOK, body)
	h.cfg.Headers.Apply(resp.Header, h.cfg.LandingCacheControl)
	return resp, nil
}

// Content serves the page for the identity bound by the router. Content
// generation and the related links run concurrently.
func (h *Handlers) Content(ctx context.Context, r *http.Request, params router.Params) (*domain.Response, error) {
	start := h.now()

	raw := params[IdentityParam]
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		decoded = raw
	}
	identity := h.cache.Normalize(decoded)
	if identity == "" {
		return h.NotFound(r, params), nil
	}
	region := h.region(r)
	server.AddLogField(ctx, "identity", identity)
	server.AddLogField(ctx, "region", region)

	pageCopy := h.seo.Copy()
	var (
		payload domain.ContentPayload
		related []render.Link
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		payload = h.cache.GetOrGenerate(gctx, identity, region, h.generator)
		return nil
	})
	g.Go(func() error {
		related = render.RelatedLinks(pageCopy, identity)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if payload.Fallback {
		server.AddLogField(ctx, "fallback", "true")
	}

	body, err := render.ContentPage(render.PageData{
		Payload:   payload,
		Copy:      pageCopy,
		Related:   related,
		LoadTime:  h.now().Sub(start),
		TrackPath: h.cfg.TrackPath,
	})
	if err != nil {
		return nil, err
	}
	resp := domain.NewResponse(http.StatusOK, body)
	h.cfg.Headers.Apply(resp.Header, "")
	return resp, nil
}

type conversionRequest struct {
	Identity  string `json:"identity"`
	Region    string `json:"region"`
	Timestamp string `json:"timestamp"`
}

// TrackConversion records a conversion beacon. A malformed body is answered
// with 400 and no body; a store failure is returned to the caller.
func (h *Handlers) TrackConversion(ctx context.Context, r *http.Request, _ router.Params) (*domain.Response, error) {
	var req conversionRequest
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, h.cfg.MaxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		server.AddLogField(ctx, "conversion_error", err.Error())
		return domain.NewResponse(http.StatusBadRequest, nil), nil
	}
	identity := h.cache.Normalize(req.Identity)
	if identity == "" {
		server.AddLogField(ctx, "conversion_error", "identity required")
		return domain.NewResponse(http.StatusBadRequest, nil), nil
	}

	event := &domain.ConversionEvent{
		Identity:   identity,
		Region:     content.NormalizeRegion(req.Region),
		Timestamp:  req.Timestamp,
		Client:     h.clientKey(r),
		ReceivedAt: h.now().UTC(),
	}
	if err := h.events.Record(ctx, event); err != nil {
		return nil, fmt.Errorf("record conversion: %w", err)
	}
	server.AddLogField(ctx, "conversion_id", event.ID)
	return domain.NewResponse(http.StatusNoContent, nil), nil
}

// NotFound renders the 404 page. The partially bound identity, if any, seeds
// the suggestions.
func (h *Handlers) NotFound(r *http.Request, params router.Params) *domain.Response {
	pageCopy := h.seo.Copy()
	keyword := ""
	if raw := params[IdentityParam]; raw != "" {
		if decoded, err := url.PathUnescape(raw); err == nil {
			raw = decoded
		}
		keyword = h.cache.Normalize(raw)
	}

	body, err := render.NotFound(pageCopy, h.seo.Locale(""), keyword)
	if err != nil {
		h.logger.Error("failed to render not found page", slog.String("error", err.Error()))
		body = []byte(http.StatusText(http.StatusNotFound))
	}
	resp := domain.HTMLResponse(http.StatusNotFound, string(body))
	resp.Header.Set("Cache-Control", "no-store")
	return resp
}

// ErrorPage renders the generic failure page.
func (h *Handlers) ErrorPage(*http.Request) *domain.Response {
	resp := domain.HTMLResponse(http.StatusInternalServerError, string(render.ErrorPage(h.seo.Copy(), h.seo.Locale(""))))
	resp.Header.Set("Cache-Control", "no-store")
	return resp
}

func (h *Handlers) region(r *http.Request) string {
	v := strings.TrimSpace(r.Header.Get(h.cfg.RegionHeader))
	if v == "" && h.cfg.DefaultRegion != "" {
		v = h.cfg.DefaultRegion
	}
	return content.NormalizeRegion(v)
}
