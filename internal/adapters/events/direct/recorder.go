// Package direct provides an event recorder that writes straight to the
// key-value store.
package direct

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tjfontaine/edge-content-gateway/internal/core/domain"
	"github.com/tjfontaine/edge-content-gateway/internal/core/ports"
)

const (
	DefaultErrorPrefix      = "errors:"
	DefaultConversionPrefix = "conversions:"
	DefaultErrorTTL         = 7 * 24 * time.Hour
)

// Config controls where records are written.
type Config struct {
	ErrorPrefix      string
	ConversionPrefix string
	// ErrorTTL expires error records; conversions never expire.
	ErrorTTL time.Duration
}

func (c Config) withDefaults() Config {
	if c.ErrorPrefix == "" {
		c.ErrorPrefix = DefaultErrorPrefix
	}
	if c.ConversionPrefix == "" {
		c.ConversionPrefix = DefaultConversionPrefix
	}
	if c.ErrorTTL <= 0 {
		c.ErrorTTL = DefaultErrorTTL
	}
	return c
}

// Recorder implements ports.EventRecorder by writing directly to storage.
// This is the default implementation for single-instance deployments.
type Recorder struct {
	store ports.KeyValueStore
	cfg   Config
	now   func() time.Time
}

var _ ports.EventRecorder = (*Recorder)(nil)

// NewRecorder creates a new direct event recorder.
func NewRecorder(store ports.KeyValueStore, cfg Config) (*Recorder, error) {
	if store == nil {
		return nil, fmt.Errorf("storage provider required")
	}
	return &Recorder{store: store, cfg: cfg.withDefaults(), now: time.Now}, nil
}

// Record assigns an ID when the event has none and persists it.
func (r *Recorder) Record(ctx context.Context, event domain.Event) error {
	var (
		key string
		ttl time.Duration
	)

	switch e := event.(type) {
	case *domain.ErrorEvent:
		if e.ID == "" {
			e.ID = "err_" + uuid.NewString()
		}
		if e.Timestamp.IsZero() {
			e.Timestamp = r.now().UTC()
		}
		key, ttl = r.cfg.ErrorPrefix+e.ID, r.cfg.ErrorTTL
	case *domain.ConversionEvent:
		if e.ID == "" {
			e.ID = "conv_" + uuid.NewString()
		}
		if e.ReceivedAt.IsZero() {
			e.ReceivedAt = r.now().UTC()
		}
		key = r.cfg.ConversionPrefix + e.ID
	case nil:
		return fmt.Errorf("nil event")
	default:
		return fmt.Errorf("unsupported event kind %q", event.Kind())
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode %s event: %w", event.Kind(), err)
	}
	if err := r.store.Put(ctx, key, data, ttl); err != nil {
		return fmt.Errorf("failed to record %s event: %w", event.Kind(), err)
	}
	return nil
}
