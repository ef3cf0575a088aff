package store

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// ScrollPositionKey is the session key holding the last vertical scroll offset.
const ScrollPositionKey = "scrollPosition"

// Session is a key/value scope that lives as long as one browsing session. Sessions are
// rows in the store's sqlite db so several processes can share one session id.
type Session struct {
	ID string
	db *sql.DB
}

// OpenSession opens (or creates) the session id. An empty id starts a fresh session.
func (s Store) OpenSession(ctx context.Context, id string) (*Session, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		id = uuid.NewString()
	}
	db, err := s.openSQLite(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := db.ExecContext(ctx,
		`INSERT INTO sessions(id, created_at_unixms, touched_at_unixms) VALUES(?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET touched_at_unixms = excluded.touched_at_unixms`,
		id, nowMs(), nowMs()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Session{ID: id, db: db}, nil
}

func (s Store) openSQLite(ctx context.Context) (*sql.DB, error) {
	if err := s.Ensure(); err != nil {
		return nil, err
	}
	// modernc.org/sqlite driver name is "sqlite".
	db, err := sql.Open("sqlite", s.sqlitePath())
	if err != nil {
		return nil, err
	}
	// Pragmas are per connection.
	db.SetMaxOpenConns(1)
	// WAL: the CLI and a running TUI may share the db.
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	if err := migrateSQLite(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func migrateSQLite(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			created_at_unixms INTEGER NOT NULL,
			touched_at_unixms INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS session_values (
			session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
			k TEXT NOT NULL,
			v TEXT NOT NULL,
			updated_at_unixms INTEGER NOT NULL,
			PRIMARY KEY (session_id, k)
		);`,
	}
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func nowMs() int64 { return time.Now().UTC().UnixMilli() }

func (s *Session) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Session) Set(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO session_values(session_id, k, v, updated_at_unixms) VALUES(?, ?, ?, ?)`,
		s.ID, key, value, nowMs())
	return err
}

// Get returns the value of key and whether it was set.
func (s *Session) Get(ctx context.Context, key string) (string, bool, error) {
	var v string
	err := s.db.QueryRowContext(ctx,
		`SELECT v FROM session_values WHERE session_id = ? AND k = ?`, s.ID, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (s *Session) Delete(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM session_values WHERE session_id = ? AND k = ?`, s.ID, key)
	return err
}

// SaveScrollOffset stores the vertical scroll offset under ScrollPositionKey.
func (s *Session) SaveScrollOffset(y int) error {
	if y < 0 {
		y = 0
	}
	return s.Set(context.Background(), ScrollPositionKey, strconv.Itoa(y))
}

// RestoreScrollOffset returns the stored offset. ok is false when nothing (or garbage) was
// stored; callers keep their current position then.
func (s *Session) RestoreScrollOffset() (int, bool) {
	v, ok, err := s.Get(context.Background(), ScrollPositionKey)
	if err != nil || !ok {
		return 0, false
	}
	y, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || y < 0 {
		return 0, false
	}
	return y, true
}

// PruneSessions deletes sessions not touched within maxAge and returns how many were removed.
func (s Store) PruneSessions(ctx context.Context, maxAge time.Duration) (int64, error) {
	db, err := s.openSQLite(ctx)
	if err != nil {
		return 0, err
	}
	defer db.Close()
	cutoff := time.Now().Add(-maxAge).UTC().UnixMilli()
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM session_values WHERE session_id IN (SELECT id FROM sessions WHERE touched_at_unixms < ?)`, cutoff); err != nil {
		return 0, err
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM sessions WHERE touched_at_unixms < ?`, cutoff)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return n, tx.Commit()
}
