package schedule

import (
	"context"
	"testing"

	"buswatch/pkg/logx"
)

func mustSpec(t *testing.T, raw string) ParsedSpec {
	t.Helper()
	spec, err := ParseSpec(raw)
	if err != nil {
		t.Fatalf("ParseSpec(%q): %v", raw, err)
	}
	return spec
}

// Restarting with an unchanged spec must keep the running cron instance;
// tearing it down would reset the interval phase on every config reload.
func TestStartUnchangedSpecKeepsSchedule(t *testing.T) {
	t.Parallel()
	r := NewRunner(func(ctx context.Context) {}, logx.Nop())
	ctx := context.Background()

	if err := r.Start(ctx, mustSpec(t, "90s")); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer r.Stop()

	first := r.c
	if first == nil {
		t.Fatal("runner not running after Start")
	}

	if err := r.Start(ctx, mustSpec(t, "90s")); err != nil {
		t.Fatalf("restart with same spec: %v", err)
	}
	if r.c != first {
		t.Fatal("unchanged spec replaced the running schedule")
	}

	// Interval specs compare by normalized duration, so an equivalent
	// spelling is also a no-op.
	if err := r.Start(ctx, mustSpec(t, "1m30s")); err != nil {
		t.Fatalf("restart with equivalent spec: %v", err)
	}
	if r.c != first {
		t.Fatal("equivalent spec replaced the running schedule")
	}

	if err := r.Start(ctx, mustSpec(t, "@every 2m")); err != nil {
		t.Fatalf("restart with new spec: %v", err)
	}
	if r.c == first {
		t.Fatal("changed spec did not replace the schedule")
	}
	if r.expr != "@every 2m0s" {
		t.Fatalf("running expr = %q", r.expr)
	}
}

func TestStartInvalidCronExpr(t *testing.T) {
	t.Parallel()
	r := NewRunner(func(ctx context.Context) {}, logx.Nop())

	spec := ParsedSpec{Kind: SpecCron, Cron: "this is not cron", Source: "cron"}
	if err := r.Start(context.Background(), spec); err == nil {
		t.Fatal("expected error for invalid cron expression")
	}
	if r.c != nil {
		t.Fatal("failed Start must leave the runner stopped")
	}
}
