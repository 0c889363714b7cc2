package statestore

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"buswatch/internal/watch"
	logx "buswatch/pkg/logx"
)

// fileStore keeps the state blob in a single JSON file, replaced atomically
// (write to tmp, then rename) so a crash mid-write leaves the prior blob
// intact.
type fileStore struct {
	log  logx.Logger
	path string

	mu sync.Mutex
}

func openFile(cfg Config, log logx.Logger) (Store, error) {
	path := strings.TrimSpace(cfg.Path)
	if path == "" {
		return nil, errors.New("statestore.path is required for file driver")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	return &fileStore{log: log, path: path}, nil
}

func (s *fileStore) Get(ctx context.Context) (watch.TrackingState, bool, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return watch.NewTrackingState(), false, nil
	}
	if err != nil {
		return watch.TrackingState{}, false, err
	}

	var st watch.TrackingState
	if err := json.Unmarshal(b, &st); err != nil {
		return watch.TrackingState{}, false, err
	}
	return st, true, nil
}

func (s *fileStore) Put(ctx context.Context, st watch.TrackingState) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := json.Marshal(st)
	if err != nil {
		return err
	}

	tmp := s.path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
	if err != nil {
		return err
	}
	if _, err := f.Write(b); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

func (s *fileStore) Close() error { return nil }
