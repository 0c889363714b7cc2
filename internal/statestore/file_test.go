package statestore

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"buswatch/internal/watch"
	"buswatch/pkg/logx"
)

func TestFileStoreFirstRun(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "state.json")
	st, err := Open(Config{Driver: "file", Path: path}, logx.Nop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer st.Close()

	got, found, err := st.Get(context.Background())
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if found {
		t.Fatal("found = true with no file on disk")
	}
	if got.SeenIDs == nil || got.LastDepartAt == nil || got.LastNearAt == nil || got.Inside == nil {
		t.Fatalf("first-run state must be empty but initialized: %+v", got)
	}
}

func TestFileStoreRoundTrip(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "state.json")
	st, err := Open(Config{Path: path}, logx.Nop()) // empty driver defaults to file
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer st.Close()

	want := watch.TrackingState{
		SeenIDs:      []string{"7", "12"},
		LastDepartAt: map[string]int64{"7": 1000},
		LastNearAt:   map[string]int64{"12": 2000},
		Inside:       map[string]bool{"12": true},
	}
	if err := st.Put(context.Background(), want); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, found, err := st.Get(context.Background())
	if err != nil || !found {
		t.Fatalf("Get: found=%v err=%v", found, err)
	}
	if len(got.SeenIDs) != 2 || got.SeenIDs[0] != "7" {
		t.Fatalf("SeenIDs = %v", got.SeenIDs)
	}
	if got.LastDepartAt["7"] != 1000 || got.LastNearAt["12"] != 2000 || !got.Inside["12"] {
		t.Fatalf("round trip mismatch: %+v", got)
	}
}

// Put is a full replace, never a merge.
func TestFileStorePutReplaces(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "state.json")
	st, err := Open(Config{Path: path}, logx.Nop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer st.Close()

	ctx := context.Background()
	first := watch.NewTrackingState()
	first.SeenIDs = []string{"old"}
	first.LastDepartAt["old"] = 1
	if err := st.Put(ctx, first); err != nil {
		t.Fatalf("Put: %v", err)
	}

	second := watch.NewTrackingState()
	second.SeenIDs = []string{"new"}
	if err := st.Put(ctx, second); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, _, err := st.Get(ctx)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(got.SeenIDs) != 1 || got.SeenIDs[0] != "new" {
		t.Fatalf("SeenIDs = %v, want [new]", got.SeenIDs)
	}
	if _, ok := got.LastDepartAt["old"]; ok {
		t.Fatal("stale key survived a full replace")
	}
}

func TestFileStoreCorruptBlob(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "state.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}
	st, err := Open(Config{Path: path}, logx.Nop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer st.Close()

	if _, _, err := st.Get(context.Background()); err == nil {
		t.Fatal("expected error on corrupt blob")
	}
}

func TestOpenUnknownDriver(t *testing.T) {
	t.Parallel()
	if _, err := Open(Config{Driver: "redis", Path: "x"}, logx.Nop()); err == nil {
		t.Fatal("expected error for unknown driver")
	}
}
