package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/ashureev/repochat/internal/domain"
	_ "modernc.org/sqlite"
)

const (
	maxRetries     = 3
	retryBaseDelay = 100 * time.Millisecond
)

// SQLiteStore implements Sessions using SQLite.
type SQLiteStore struct {
	db *sql.DB
	mu sync.Mutex // serializes writes to avoid SQLITE_BUSY
}

// NewSQLite creates a SQLite-backed session store, creating the database
// directory if needed.
func NewSQLite(dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	// Pragmas apply to every pooled connection. WAL lets readers run
	// alongside the single writer.
	dsn := dbPath + "?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.initSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) initSchema() error {
	query := `
	CREATE TABLE IF NOT EXISTS sessions (
		user_id TEXT PRIMARY KEY,
		access_token TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Get retrieves the session for userID.
func (s *SQLiteStore) Get(ctx context.Context, userID string) (*domain.Session, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT user_id, access_token, created_at, updated_at FROM sessions WHERE user_id = ?`, userID)

	var session domain.Session
	var createdAt, updatedAt int64
	err := row.Scan(&session.UserID, &session.AccessToken, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan session row: %w", err)
	}

	session.CreatedAt = time.Unix(createdAt, 0)
	session.UpdatedAt = time.Unix(updatedAt, 0)
	return &session, nil
}

// Put creates or overwrites a session. The token always wins; created_at is kept.
func (s *SQLiteStore) Put(ctx context.Context, session *domain.Session) error {
	query := `
	INSERT INTO sessions (user_id, access_token, created_at, updated_at)
	VALUES (?, ?, ?, ?)
	ON CONFLICT(user_id) DO UPDATE SET
		access_token = excluded.access_token,
		updated_at = excluded.updated_at`

	return s.withRetry(ctx, "put session", session.UserID, func() error {
		_, err := s.db.ExecContext(ctx, query,
			session.UserID, session.AccessToken,
			session.CreatedAt.Unix(), session.UpdatedAt.Unix(),
		)
		return err
	})
}

// Invalidate deletes the session for userID.
func (s *SQLiteStore) Invalidate(ctx context.Context, userID string) error {
	return s.withRetry(ctx, "delete session", userID, func() error {
		_, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE user_id = ?`, userID)
		return err
	})
}

// withRetry runs a write under the store mutex, retrying with exponential
// backoff while SQLite reports the database as busy.
func (s *SQLiteStore) withRetry(ctx context.Context, op, userID string, fn func() error) error {
	var err error
	for i := 0; i < maxRetries; i++ {
		s.mu.Lock()
		err = fn()
		s.mu.Unlock()
		if err == nil {
			return nil
		}
		if !isBusy(err) || i == maxRetries-1 {
			break
		}

		delay := retryBaseDelay * time.Duration(1<<i) // 100ms, 200ms, 400ms
		slog.Debug("sqlite busy, retrying", "op", op, "user_id", userID, "attempt", i+1, "delay", delay)
		select {
		case <-ctx.Done():
			return fmt.Errorf("%s: %w", op, ctx.Err())
		case <-time.After(delay):
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}

// isBusy reports SQLite lock contention errors.
func isBusy(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

// Ping verifies database connectivity.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	return nil
}
