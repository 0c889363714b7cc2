package schedule

import (
	"context"
	"runtime/debug"
	"sync"
	"sync/atomic"

	"github.com/robfig/cron/v3"

	logx "buswatch/pkg/logx"
)

// Runner triggers a single job on a cron or interval schedule.
//
// Overlap policy: if a tick fires while the previous run is still in
// flight, the tick is skipped. This keeps cycles strictly sequential
// in-process; it does not protect against a second buswatch process
// sharing the same state blob.
type Runner struct {
	log logx.Logger
	job func(ctx context.Context)

	mu      sync.Mutex
	c       *cron.Cron
	expr    string // CronExpr of the running schedule
	entry   cron.EntryID
	runCtx  context.Context
	cancel  context.CancelFunc
	running atomic.Bool // job in flight
	skipped atomic.Uint64
}

func NewRunner(job func(ctx context.Context), log logx.Logger) *Runner {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Runner{log: log, job: job}
}

// Start begins triggering according to spec. Calling Start while running
// replaces the schedule (used by config hot reload); an unchanged spec is
// a no-op so a reload does not reset the interval phase.
func (r *Runner) Start(ctx context.Context, spec ParsedSpec) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	expr := spec.CronExpr()
	if r.c != nil {
		if expr == r.expr {
			return nil
		}
		r.stopLocked()
	}

	r.runCtx, r.cancel = context.WithCancel(ctx)
	runCtx := r.runCtx

	// SecondOptional allows both 5-field and 6-field (with seconds) specs.
	parser := cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	c := cron.New(cron.WithParser(parser))

	id, err := c.AddFunc(expr, func() {
		if !r.running.CompareAndSwap(false, true) {
			n := r.skipped.Add(1)
			r.log.Debug("tick skipped, previous cycle still running", logx.Int64("skipped_total", int64(n)))
			return
		}
		defer r.running.Store(false)
		defer func() {
			if rec := recover(); rec != nil {
				r.log.Error("panic in cycle", logx.Any("panic", rec), logx.String("stack", string(debug.Stack())))
			}
		}()
		r.job(runCtx)
	})
	if err != nil {
		r.cancel()
		r.runCtx, r.cancel = nil, nil
		return err
	}

	r.c = c
	r.expr = expr
	r.entry = id
	c.Start()
	r.log.Info("schedule started", logx.String("spec", expr))
	return nil
}

func (r *Runner) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopLocked()
}

func (r *Runner) stopLocked() {
	if r.c == nil {
		return
	}
	if r.cancel != nil {
		r.cancel()
	}
	<-r.c.Stop().Done()
	r.c = nil
	r.expr = ""
	r.runCtx, r.cancel = nil, nil
	r.log.Info("schedule stopped")
}
