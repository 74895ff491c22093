package content

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/tjfontaine/edge-content-gateway/internal/core/domain"
	"github.com/tjfontaine/edge-content-gateway/internal/core/ports"
	"github.com/tjfontaine/edge-content-gateway/internal/storage/memory"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// countingGenerator counts calls and returns text or err.
type countingGenerator struct {
	calls atomic.Int32
	text  string
	err   error
}

func (g *countingGenerator) Generate(ctx context.Context, identity, region string) (string, error) {
	g.calls.Add(1)
	if g.err != nil {
		return "", g.err
	}
	return g.text, nil
}

type flakyStore struct {
	*memory.Store
	failGet bool
	failPut bool
}

func (s *flakyStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if s.failGet {
		return nil, false, domain.StoreError("get", errors.New("down"))
	}
	return s.Store.Get(ctx, key)
}

func (s *flakyStore) Put(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if s.failPut {
		return domain.StoreError("put", errors.New("down"))
	}
	return s.Store.Put(ctx, key, value, ttl)
}

func newTestCache(t *testing.T, store ports.KeyValueStore, cfg Config) *Cache {
	t.Helper()
	seo, err := NewSEOBuilder(SEOConfig{Language: "en", LocaleRegions: []string{"SA", "EG", "AE"}, Brand: "Edge"})
	if err != nil {
		t.Fatalf("NewSEOBuilder() error = %v", err)
	}
	c, err := NewCache(store, seo, cfg)
	if err != nil {
		t.Fatalf("NewCache() error = %v", err)
	}
	return c
}

func TestCache_GeneratesOnceWithinTTL(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	store := memory.New(memory.WithClock(clock.Now))
	c := newTestCache(t, store, Config{})
	gen := &countingGenerator{text: "Great sound."}
	ctx := context.Background()

	first := c.GetOrGenerate(ctx, "wireless-earbuds", "US", gen)
	second := c.GetOrGenerate(ctx, "  wireless-earbuds ", "us", gen)

	if got := gen.calls.Load(); got != 1 {
		t.Fatalf("generator calls = %d, want 1", got)
	}
	if first.Content != second.Content {
		t.Error("expected cached payload to be returned verbatim")
	}
	if first.Fallback {
		t.Error("expected generated payload, got fallback")
	}
	if !strings.Contains(first.Content, "Great sound.") {
		t.Errorf("content = %q", first.Content)
	}

	ttl, ok := store.TTL("content:wireless-earbuds:US")
	if !ok || ttl != DefaultTTL {
		t.Errorf("TTL = %v, %v; want %v", ttl, ok, DefaultTTL)
	}

	clock.Advance(DefaultTTL)
	c.GetOrGenerate(ctx, "wireless-earbuds", "US", gen)
	if got := gen.calls.Load(); got != 2 {
		t.Errorf("generator calls after expiry = %d, want 2", got)
	}
}

func TestCache_RegionSeparatesEntries(t *testing.T) {
	c := newTestCache(t, memory.New(), Config{})
	gen := &countingGenerator{text: "ok"}
	ctx := context.Background()

	c.GetOrGenerate(ctx, "shoes", "SA", gen)
	c.GetOrGenerate(ctx, "shoes", "EG", gen)

	if got := gen.calls.Load(); got != 2 {
		t.Errorf("generator calls = %d, want 2", got)
	}
}

func TestCache_GeneratorFailureFallsBack(t *testing.T) {
	store := memory.New()
	c := newTestCache(t, store, Config{})
	gen := &countingGenerator{err: errors.New("upstream 500")}

	payload := c.GetOrGenerate(context.Background(), "shoes", "SA", gen)

	if !payload.Fallback {
		t.Error("expected fallback payload")
	}
	if payload.Content == "" {
		t.Fatal("fallback content is empty")
	}
	if payload.Content != Fallback(CopyFor("en"), "shoes") {
		t.Errorf("fallback content = %q, not deterministic", payload.Content)
	}
	if payload.Region != "SA" || payload.Identity != "shoes" {
		t.Errorf("payload = %+v", payload)
	}
}

func TestCache_CancelledCallerDoesNotCacheFallback(t *testing.T) {
	c := newTestCache(t, memory.New(), Config{})
	var calls atomic.Int32
	gen := ports.GeneratorFunc(func(ctx context.Context, identity, region string) (string, error) {
		calls.Add(1)
		if err := ctx.Err(); err != nil {
			return "", err
		}
		return "Fresh copy.", nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	first := c.GetOrGenerate(ctx, "shoes", "SA", gen)
	if first.Fallback {
		t.Error("cancelled caller got fallback, want generated payload")
	}

	second := c.GetOrGenerate(context.Background(), "shoes", "SA", gen)
	if second.Fallback {
		t.Error("second caller got fallback")
	}
	if !strings.Contains(second.Content, "Fresh copy.") {
		t.Errorf("content = %q", second.Content)
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("generator calls = %d, want 1", got)
	}
}

func TestCache_EmptyAndPanickingGenerators(t *testing.T) {
	tests := []struct {
		name string
		gen  ports.ContentGenerator
	}{
		{"empty text", &countingGenerator{text: "   "}},
		{"nil generator", nil},
		{"panic", ports.GeneratorFunc(func(ctx context.Context, identity, region string) (string, error) {
			panic("boom")
		})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestCache(t, memory.New(), Config{})
			payload := c.GetOrGenerate(context.Background(), "shoes", "US", tt.gen)
			if !payload.Fallback || payload.Content == "" {
				t.Errorf("payload = %+v, want non-empty fallback", payload)
			}
		})
	}
}

func TestCache_EscapesGeneratedText(t *testing.T) {
	c := newTestCache(t, memory.New(), Config{})
	gen := &countingGenerator{text: `<script>alert("x")</script>`}

	payload := c.GetOrGenerate(context.Background(), "shoes", "US", gen)

	if strings.Contains(payload.Content, "<script>") {
		t.Errorf("content not escaped: %q", payload.Content)
	}
	if !strings.Contains(payload.Content, "&lt;script&gt;") {
		t.Errorf("content = %q, want escaped script tag", payload.Content)
	}
}

func TestCache_OversizeNotPersisted(t *testing.T) {
	store := memory.New()
	c := newTestCache(t, store, Config{MaxEntryBytes: 64})
	gen := &countingGenerator{text: strings.Repeat("long ", 50)}
	ctx := context.Background()

	first := c.GetOrGenerate(ctx, "shoes", "US", gen)
	if first.Content == "" {
		t.Fatal("oversize payload must still be returned")
	}
	c.GetOrGenerate(ctx, "shoes", "US", gen)

	if got := gen.calls.Load(); got != 2 {
		t.Errorf("generator calls = %d, want 2", got)
	}
	if keys := store.Keys("content:"); len(keys) != 0 {
		t.Errorf("oversize entry written: %v", keys)
	}
}

func TestCache_StoreFailureFallsThrough(t *testing.T) {
	store := &flakyStore{Store: memory.New(), failGet: true, failPut: true}
	c := newTestCache(t, store, Config{})
	gen := &countingGenerator{text: "fresh"}

	payload := c.GetOrGenerate(context.Background(), "shoes", "US", gen)

	if payload.Fallback || !strings.Contains(payload.Content, "fresh") {
		t.Errorf("payload = %+v, want generated content", payload)
	}
	if gen.calls.Load() != 1 {
		t.Errorf("generator calls = %d, want 1", gen.calls.Load())
	}
}

func TestCache_CorruptEntryRegenerates(t *testing.T) {
	store := memory.New()
	c := newTestCache(t, store, Config{})
	ctx := context.Background()

	if err := store.Put(ctx, "content:shoes:US", []byte("{not json"), 0); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	gen := &countingGenerator{text: "fresh"}
	payload := c.GetOrGenerate(ctx, "shoes", "US", gen)
	if gen.calls.Load() != 1 || payload.Fallback {
		t.Errorf("calls = %d, payload = %+v", gen.calls.Load(), payload)
	}

	raw, _, _ := store.Get(ctx, "content:shoes:US")
	var stored domain.ContentPayload
	if err := json.Unmarshal(raw, &stored); err != nil {
		t.Fatalf("stored entry not rewritten: %v", err)
	}
}

func TestCache_ConcurrentMissesShareGeneration(t *testing.T) {
	c := newTestCache(t, memory.New(), Config{})

	release := make(chan struct{})
	var calls atomic.Int32
	gen := ports.GeneratorFunc(func(ctx context.Context, identity, region string) (string, error) {
		calls.Add(1)
		<-release
		return "shared", nil
	})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.GetOrGenerate(context.Background(), "shoes", "US", gen)
		}()
	}

	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	if got := calls.Load(); got != 1 {
		t.Errorf("generator calls = %d, want 1", got)
	}
}

func TestNewCache_Validation(t *testing.T) {
	seo, _ := NewSEOBuilder(SEOConfig{})
	if _, err := NewCache(nil, seo, Config{}); err == nil {
		t.Error("expected error for nil store")
	}
	if _, err := NewCache(memory.New(), nil, Config{}); err == nil {
		t.Error("expected error for nil seo builder")
	}
}
