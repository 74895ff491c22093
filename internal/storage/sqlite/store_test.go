package sqlite

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func newTestStore(t *testing.T, clock *fakeClock) *Store {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	var (
		store *Store
		err   error
	)
	if clock != nil {
		store, err = NewWithClock(dsn, clock.Now)
	} else {
		store, err = New(dsn)
	}
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSQLiteStore_PutGet(t *testing.T) {
	store := newTestStore(t, nil)
	ctx := context.Background()

	if err := store.Put(ctx, "content:shoes:SA", []byte("first"), time.Hour); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if err := store.Put(ctx, "content:shoes:SA", []byte("second"), time.Hour); err != nil {
		t.Fatalf("Put() overwrite error = %v", err)
	}

	got, found, err := store.Get(ctx, "content:shoes:SA")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !found {
		t.Fatal("expected key to be found")
	}
	if string(got) != "second" {
		t.Errorf("value = %q, want %q", got, "second")
	}
}

func TestSQLiteStore_Missing(t *testing.T) {
	store := newTestStore(t, nil)

	_, found, err := store.Get(context.Background(), "absent")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if found {
		t.Error("expected absent key")
	}
}

func TestSQLiteStore_ExpiryAndSweep(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	store := newTestStore(t, clock)
	ctx := context.Background()

	if err := store.Put(ctx, "rl:a", []byte("1"), 61*time.Second); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if err := store.Put(ctx, "conversions:conv_1", []byte("{}"), 0); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	clock.now = clock.now.Add(61 * time.Second)

	if _, found, _ := store.Get(ctx, "rl:a"); found {
		t.Error("expected expired key to be hidden")
	}

	deleted, err := store.Sweep(ctx)
	if err != nil {
		t.Fatalf("Sweep() error = %v", err)
	}
	if deleted != 1 {
		t.Errorf("Sweep() deleted = %d, want 1", deleted)
	}

	if _, found, _ := store.Get(ctx, "conversions:conv_1"); !found {
		t.Error("expected zero-ttl key to survive sweep")
	}
}

func TestSQLiteStore_FileBacked(t *testing.T) {
	path := filepath.Join(t.TempDir(), "edge.db")
	ctx := context.Background()

	store, err := New(path)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := store.Put(ctx, "k", []byte("v"), 0); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	store.Close()

	reopened, err := New(path)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer reopened.Close()

	got, found, err := reopened.Get(ctx, "k")
	if err != nil || !found || string(got) != "v" {
		t.Errorf("Get() after reopen = %q, %v, %v", got, found, err)
	}
}

func TestNew_EmptyPath(t *testing.T) {
	if _, err := New(""); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestSweeper_StartStop(t *testing.T) {
	store := newTestStore(t, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sweeper := NewSweeper(store, "", nil)
	if err := sweeper.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := sweeper.Start(ctx); err != nil {
		t.Fatalf("second Start() error = %v", err)
	}
	sweeper.Stop()
	sweeper.Stop()
}

func TestSweeper_InvalidSchedule(t *testing.T) {
	store := newTestStore(t, nil)

	sweeper := NewSweeper(store, "not a schedule", nil)
	if err := sweeper.Start(context.Background()); err == nil {
		t.Fatal("expected invalid schedule error")
	}
}
