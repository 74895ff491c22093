package domain

import "time"

// RateWindow is the persisted fixed-window counter for one client.
type RateWindow struct {
	Count       int   `json:"count"`
	WindowStart int64 `json:"window_start"` // unix milliseconds
}

// Start returns the window start as a time.
func (w RateWindow) Start() time.Time {
	return time.UnixMilli(w.WindowStart)
}

// SEO holds page metadata. Every string field is HTML-escaped when the
// payload is built and must be emitted verbatim.
type SEO struct {
	Title           string `json:"title"`
	MetaDescription string `json:"meta_description"`
	OGTitle         string `json:"og_title"`
	Locale          string `json:"locale"`
	ImageURL        string `json:"image_url,omitempty"`
	CanonicalPath   string `json:"canonical_path"`
	StructuredData  string `json:"structured_data"`
}

// ContentPayload is a cache entry for a (identity, region) pair. Content is
// escaped HTML ready to embed.
type ContentPayload struct {
	Identity  string    `json:"identity"`
	Region    string    `json:"region"`
	Content   string    `json:"content"`
	SEO       SEO       `json:"seo"`
	Fallback  bool      `json:"fallback"`
	CreatedAt time.Time `json:"created_at"`
}
