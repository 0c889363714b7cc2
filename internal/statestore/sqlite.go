//go:build sqlite
// +build sqlite

package statestore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"

	"buswatch/internal/watch"
	logx "buswatch/pkg/logx"
)

const stateKey = "tracking"

const schema = `
CREATE TABLE IF NOT EXISTS state (
    name TEXT PRIMARY KEY,
    blob TEXT NOT NULL,
    updated_at INTEGER NOT NULL
);`

type sqliteStore struct {
	db  *sql.DB
	log logx.Logger
}

func openSQLite(cfg Config, log logx.Logger) (Store, error) {
	if strings.TrimSpace(cfg.Path) == "" {
		return nil, errors.New("sqlite path is required")
	}
	path := cfg.Path
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// SQLite prefers a small number of concurrent writers.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	// Basic pragmas.
	if cfg.BusyTimeout > 0 {
		ms := cfg.BusyTimeout.Milliseconds()
		_, _ = db.Exec(fmt.Sprintf("PRAGMA busy_timeout = %d", ms))
	}
	_, _ = db.Exec("PRAGMA journal_mode = WAL")
	_, _ = db.Exec("PRAGMA synchronous = NORMAL")

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &sqliteStore{db: db, log: log}, nil
}

func (s *sqliteStore) Get(ctx context.Context) (watch.TrackingState, bool, error) {
	var blob string
	err := s.db.QueryRowContext(ctx, `SELECT blob FROM state WHERE name = ?`, stateKey).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return watch.NewTrackingState(), false, nil
	}
	if err != nil {
		return watch.TrackingState{}, false, err
	}
	var st watch.TrackingState
	if err := json.Unmarshal([]byte(blob), &st); err != nil {
		return watch.TrackingState{}, false, err
	}
	return st, true, nil
}

func (s *sqliteStore) Put(ctx context.Context, st watch.TrackingState) error {
	b, err := json.Marshal(st)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO state(name, blob, updated_at) VALUES(?,?,unixepoch('subsec')*1000)
		 ON CONFLICT(name) DO UPDATE SET blob=excluded.blob, updated_at=excluded.updated_at`,
		stateKey, string(b),
	)
	return err
}

func (s *sqliteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
