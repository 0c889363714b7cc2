package app

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"buswatch/internal/watch"
	"buswatch/pkg/logx"
)

type fakeFeed struct {
	snapshot []watch.Vehicle
	err      error
	calls    int
}

func (f *fakeFeed) Fetch(ctx context.Context) ([]watch.Vehicle, error) {
	f.calls++
	return f.snapshot, f.err
}

// fakeStore records call order alongside the sender so persistence
// ordering is observable.
type fakeStore struct {
	order *[]string

	state  watch.TrackingState
	found  bool
	getErr error
	putErr error

	put    watch.TrackingState
	putNum int
}

func (s *fakeStore) Get(ctx context.Context) (watch.TrackingState, bool, error) {
	*s.order = append(*s.order, "get")
	return s.state, s.found, s.getErr
}

func (s *fakeStore) Put(ctx context.Context, st watch.TrackingState) error {
	*s.order = append(*s.order, "put")
	if s.putErr != nil {
		return s.putErr
	}
	s.put = st
	s.putNum++
	return nil
}

func (s *fakeStore) Close() error { return nil }

type fakeSender struct {
	order *[]string
	err   error
	sent  []string
}

func (s *fakeSender) Send(ctx context.Context, text string) error {
	*s.order = append(*s.order, "send")
	s.sent = append(s.sent, text)
	return s.err
}

func cycleUnderTest(order *[]string, feed *fakeFeed, store *fakeStore, sender *fakeSender) *Cycle {
	eng := watch.NewEngine(watch.Config{
		RoutePattern:   regexp.MustCompile("^A108$"),
		Line:           "A108",
		RefLat:         10.3763016,
		RefLon:         -75.4999534,
		RadiusMeters:   1000,
		Landmark:       "Campestre",
		DepartCooldown: 2 * time.Minute,
		NearCooldown:   10 * time.Minute,
	})
	store.order = order
	sender.order = order
	return &Cycle{
		Feed:   feed,
		Store:  store,
		Sender: sender,
		Engine: eng,
		Log:    logx.Nop(),
		Now:    func() time.Time { return time.UnixMilli(1_700_000_000_000) },
	}
}

func TestCycleSendsBeforePersist(t *testing.T) {
	t.Parallel()
	var order []string
	feed := &fakeFeed{snapshot: []watch.Vehicle{
		{ID: "7", Route: "A108", Lat: 10.3763016, Lon: -75.4999534},
	}}
	store := &fakeStore{order: &order, state: watch.NewTrackingState()}
	sender := &fakeSender{order: &order}

	sum := cycleUnderTest(&order, feed, store, sender).Run(context.Background())
	if !sum.OK {
		t.Fatalf("Run: %+v", sum)
	}
	// New vehicle at the reference point: departure + geofence entry.
	if sum.Total != 1 || sum.Sent != 2 {
		t.Fatalf("summary = %+v, want Total=1 Sent=2", sum)
	}
	if len(order) < 4 || order[0] != "get" || order[len(order)-1] != "put" {
		t.Fatalf("order = %v, want get .. sends .. put", order)
	}
	for _, step := range order[1 : len(order)-1] {
		if step != "send" {
			t.Fatalf("order = %v, non-send step between get and put", order)
		}
	}
	if store.put.Inside["7"] != true || len(store.put.SeenIDs) != 1 {
		t.Fatalf("persisted state = %+v", store.put)
	}
}

func TestCycleFeedErrorLeavesStateUntouched(t *testing.T) {
	t.Parallel()
	var order []string
	feed := &fakeFeed{err: errors.New("upstream down")}
	store := &fakeStore{order: &order}
	sender := &fakeSender{order: &order}

	sum := cycleUnderTest(&order, feed, store, sender).Run(context.Background())
	if sum.OK {
		t.Fatalf("Run should fail: %+v", sum)
	}
	if sum.Error == "" {
		t.Fatal("summary must carry the error")
	}
	if len(order) != 0 {
		t.Fatalf("no store/sender calls expected, got %v", order)
	}
}

func TestCycleStoreReadErrorAborts(t *testing.T) {
	t.Parallel()
	var order []string
	feed := &fakeFeed{snapshot: []watch.Vehicle{{ID: "7", Route: "A108"}}}
	store := &fakeStore{order: &order, getErr: errors.New("disk gone")}
	sender := &fakeSender{order: &order}

	sum := cycleUnderTest(&order, feed, store, sender).Run(context.Background())
	if sum.OK {
		t.Fatalf("Run should fail: %+v", sum)
	}
	if len(sender.sent) != 0 {
		t.Fatalf("nothing should be sent, got %v", sender.sent)
	}
	if store.putNum != 0 {
		t.Fatal("state must not be written after a read failure")
	}
}

func TestCycleSenderFailureIsNonFatal(t *testing.T) {
	t.Parallel()
	var order []string
	feed := &fakeFeed{snapshot: []watch.Vehicle{
		{ID: "7", Route: "A108", Lat: 0, Lon: 0},
	}}
	store := &fakeStore{order: &order, state: watch.NewTrackingState()}
	sender := &fakeSender{order: &order, err: errors.New("telegram 502")}

	sum := cycleUnderTest(&order, feed, store, sender).Run(context.Background())
	if !sum.OK {
		t.Fatalf("send failure must not fail the cycle: %+v", sum)
	}
	if sum.Sent != 1 {
		t.Fatalf("Sent = %d, want 1 (attempted, not confirmed)", sum.Sent)
	}
	if store.putNum != 1 {
		t.Fatal("state must persist even when sends fail")
	}
}

func TestCycleStoreWriteErrorReported(t *testing.T) {
	t.Parallel()
	var order []string
	feed := &fakeFeed{snapshot: []watch.Vehicle{{ID: "7", Route: "A108"}}}
	store := &fakeStore{order: &order, state: watch.NewTrackingState(), putErr: errors.New("read-only fs")}
	sender := &fakeSender{order: &order}

	sum := cycleUnderTest(&order, feed, store, sender).Run(context.Background())
	if sum.OK || sum.Error == "" {
		t.Fatalf("write failure must fail the cycle: %+v", sum)
	}
	// The departure notification was still attempted before the write.
	if len(sender.sent) != 1 {
		t.Fatalf("sent = %v", sender.sent)
	}
}
