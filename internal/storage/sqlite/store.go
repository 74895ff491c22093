package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/tjfontaine/edge-content-gateway/internal/core/domain"
	"github.com/tjfontaine/edge-content-gateway/internal/core/ports"
	"github.com/tjfontaine/edge-content-gateway/internal/storage"
)

// Store is a SQLite implementation of ports.KeyValueStore for single-node
// deployments that want cache and logs to survive restarts. Expired rows are
// hidden on read and removed by Sweep.
type Store struct {
	db  *sql.DB
	now storage.Clock

	getStmt   *sql.Stmt
	putStmt   *sql.Stmt
	sweepStmt *sql.Stmt
}

var _ ports.KeyValueStore = (*Store)(nil)

// New creates a new SQLite store
func New(dbPath string) (*Store, error) {
	return NewWithClock(dbPath, time.Now)
}

// NewWithClock creates a store that evaluates expiry against clock.
func NewWithClock(dbPath string, clock storage.Clock) (*Store, error) {
	if dbPath == "" {
		return nil, fmt.Errorf("db path cannot be empty")
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL; PRAGMA synchronous=NORMAL;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	store := &Store{db: db, now: clock}

	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	if err := store.prepareStatements(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to prepare statements: %w", err)
	}

	return store, nil
}

func (s *Store) initSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS kv_entries (
			key TEXT PRIMARY KEY,
			value BLOB NOT NULL,
			expires_at INTEGER NOT NULL DEFAULT 0,
			updated_at INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_kv_entries_expires_at ON kv_entries(expires_at)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) prepareStatements() error {
	var err error

	s.getStmt, err = s.db.Prepare(`SELECT value, expires_at FROM kv_entries WHERE key = ?`)
	if err != nil {
		return fmt.Errorf("prepare get: %w", err)
	}

	s.putStmt, err = s.db.Prepare(`
		INSERT INTO kv_entries (key, value, expires_at, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			expires_at = excluded.expires_at,
			updated_at = excluded.updated_at
	`)
	if err != nil {
		return fmt.Errorf("prepare put: %w", err)
	}

	s.sweepStmt, err = s.db.Prepare(`DELETE FROM kv_entries WHERE expires_at > 0 AND expires_at <= ?`)
	if err != nil {
		return fmt.Errorf("prepare sweep: %w", err)
	}

	return nil
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var (
		value     []byte
		expiresAt int64
	)
	err := s.getStmt.QueryRowContext(ctx, key).Scan(&value, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, domain.StoreError("sqlite get", err)
	}

	if expiresAt > 0 && storage.Expired(time.UnixMilli(expiresAt), s.now()) {
		return nil, false, nil
	}
	return value, true, nil
}

func (s *Store) Put(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	now := s.now()
	var expiresAt int64
	if exp := storage.ExpiresAt(now, ttl); !exp.IsZero() {
		expiresAt = exp.UnixMilli()
	}

	if _, err := s.putStmt.ExecContext(ctx, key, value, expiresAt, now.UnixMilli()); err != nil {
		return domain.StoreError("sqlite put", err)
	}
	return nil
}

// Sweep deletes expired rows and returns how many were removed.
func (s *Store) Sweep(ctx context.Context) (int64, error) {
	res, err := s.sweepStmt.ExecContext(ctx, s.now().UnixMilli())
	if err != nil {
		return 0, domain.StoreError("sqlite sweep", err)
	}
	return res.RowsAffected()
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Close() error {
	for _, stmt := range []*sql.Stmt{s.getStmt, s.putStmt, s.sweepStmt} {
		if stmt != nil {
			stmt.Close()
		}
	}
	return s.db.Close()
}
