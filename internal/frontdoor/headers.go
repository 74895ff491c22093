package frontdoor

import "net/http"

// HardeningHeaders are set on every successful page response.
type HardeningHeaders struct {
	ContentType           string
	CacheControl          string
	FrameOptions          string
	TransportSecurity     string
	ContentTypeOptions    string
	ContentSecurityPolicy string
}

// DefaultHardeningHeaders returns the production header set. The inline
// conversion beacon requires 'unsafe-inline' for scripts.
func DefaultHardeningHeaders() HardeningHeaders {
	return HardeningHeaders{
		ContentType:           "text/html; charset=utf-8",
		CacheControl:          "public, max-age=604800",
		FrameOptions:          "DENY",
		TransportSecurity:     "max-age=31536000; includeSubDomains",
		ContentTypeOptions:    "nosniff",
		ContentSecurityPolicy: "default-src 'self'; script-src 'self' 'unsafe-inline'; style-src 'self' 'unsafe-inline'; img-src 'self' https: data:",
	}
}

func (h HardeningHeaders) withDefaults() HardeningHeaders {
	d := DefaultHardeningHeaders()
	if h.ContentType == "" {
		h.ContentType = d.ContentType
	}
	if h.CacheControl == "" {
		h.CacheControl = d.CacheControl
	}
	if h.FrameOptions == "" {
		h.FrameOptions = d.FrameOptions
	}
	if h.TransportSecurity == "" {
		h.TransportSecurity = d.TransportSecurity
	}
	if h.ContentTypeOptions == "" {
		h.ContentTypeOptions = d.ContentTypeOptions
	}
	if h.ContentSecurityPolicy == "" {
		h.ContentSecurityPolicy = d.ContentSecurityPolicy
	}
	return h
}

// Apply writes the headers to dst. cacheControl overrides the configured
// caching policy when non-empty.
func (h HardeningHeaders) Apply(dst http.Header, cacheControl string) {
	if cacheControl == "" {
		cacheControl = h.CacheControl
	}
	dst.Set("Content-Type", h.ContentType)
	dst.Set("Cache-Control", cacheControl)
	dst.Set("X-Frame-Options", h.FrameOptions)
	dst.Set("Strict-Transport-Security", h.TransportSecurity)
	dst.Set("X-Content-Type-Options", h.ContentTypeOptions)
	dst.Set("Content-Security-Policy", h.ContentSecurityPolicy)
}
