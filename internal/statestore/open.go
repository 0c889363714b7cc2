package statestore

import (
	"context"
	"errors"
	"strings"
	"time"

	"buswatch/internal/watch"
	logx "buswatch/pkg/logx"
)

// Store persists the tracking state between invocations.
type Store interface {
	// Get returns the persisted state. found is false on first-ever run
	// (no blob yet); that is not an error.
	Get(ctx context.Context) (state watch.TrackingState, found bool, err error)
	// Put replaces the persisted state (full replace, never a merge).
	Put(ctx context.Context, state watch.TrackingState) error
	Close() error
}

// Config configures persistence.
//
// Driver values:
//   - "file": dependency-free JSON blob (default when empty)
//   - "sqlite": SQLite database file (optional build tag)
type Config struct {
	Driver      string
	Path        string
	BusyTimeout time.Duration // sqlite only; 0 means default
}

// Open initializes the configured store.
func Open(cfg Config, log logx.Logger) (Store, error) {
	if log.IsZero() {
		log = logx.Nop()
	}
	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))
	switch driver {
	case "", "file":
		return openFile(cfg, log)
	case "sqlite", "sqlite3":
		return openSQLite(cfg, log)
	default:
		return nil, errors.New("unknown statestore driver: " + driver)
	}
}
