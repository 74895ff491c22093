// Package async decouples event recording from the request path. Record is
// a non-blocking channel send; a single worker drains the queue into the
// wrapped recorder.
package async

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tjfontaine/edge-content-gateway/internal/core/domain"
	"github.com/tjfontaine/edge-content-gateway/internal/core/ports"
)

const (
	DefaultBuffer       = 256
	DefaultWriteTimeout = 5 * time.Second
)

var (
	// ErrQueueFull is returned when the buffer is full and the event was dropped.
	ErrQueueFull = errors.New("event queue full")
	// ErrClosed is returned after Close.
	ErrClosed = errors.New("event recorder closed")
)

// MetricsRecorder observes what happened to each event.
type MetricsRecorder interface {
	ObserveEvent(kind, result string)
}

// Option configures a Recorder.
type Option func(*Recorder)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Recorder) {
		r.logger = logger
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(m MetricsRecorder) Option {
	return func(r *Recorder) {
		r.metrics = m
	}
}

// WithWriteTimeout bounds each write to the wrapped recorder.
func WithWriteTimeout(d time.Duration) Option {
	return func(r *Recorder) {
		r.writeTimeout = d
	}
}

// Recorder is a buffered ports.EventRecorder.
type Recorder struct {
	next         ports.EventRecorder
	queue        chan domain.Event
	logger       *slog.Logger
	metrics      MetricsRecorder
	writeTimeout time.Duration

	mu      sync.RWMutex
	closed  bool
	done    chan struct{}
	dropped atomic.Uint64
}

var _ ports.EventRecorder = (*Recorder)(nil)

// NewRecorder starts the worker. buffer <= 0 selects DefaultBuffer.
func NewRecorder(next ports.EventRecorder, buffer int, opts ...Option) *Recorder {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	r := &Recorder{
		next:         next,
		queue:        make(chan domain.Event, buffer),
		logger:       slog.Default(),
		writeTimeout: DefaultWriteTimeout,
		done:         make(chan struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.With("component", "event_recorder")

	go r.run()
	return r
}

// Record enqueues event without blocking. The caller's context is not
// carried to the worker, so cancelled requests still get their record.
func (r *Recorder) Record(_ context.Context, event domain.Event) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return ErrClosed
	}
	select {
	case r.queue <- event:
		return nil
	default:
		r.dropped.Add(1)
		r.observe(event, "dropped")
		r.logger.Warn("event queue full, dropping event", slog.String("kind", string(event.Kind())))
		return ErrQueueFull
	}
}

// Dropped returns the number of events discarded because the queue was full.
func (r *Recorder) Dropped() uint64 {
	return r.dropped.Load()
}

// Close stops accepting events and waits for the queue to drain or ctx to
// end.
func (r *Recorder) Close(ctx context.Context) error {
	r.mu.Lock()
	if !r.closed {
		r.closed = true
		close(r.queue)
	}
	r.mu.Unlock()

	select {
	case <-r.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *Recorder) run() {
	defer close(r.done)
	for event := range r.queue {
		r.write(event)
	}
}

func (r *Recorder) write(event domain.Event) {
	ctx, cancel := context.WithTimeout(context.Background(), r.writeTimeout)
	defer cancel()

	if err := r.next.Record(ctx, event); err != nil {
		r.observe(event, "error")
		r.logger.Error("failed to record event",
			slog.String("kind", string(event.Kind())),
			slog.String("error", err.Error()),
		)
		return
	}
	r.observe(event, "ok")
}

func (r *Recorder) observe(event domain.Event, result string) {
	if r.metrics != nil {
		r.metrics.ObserveEvent(string(event.Kind()), result)
	}
}
