package app

import (
	"context"
	"time"

	"buswatch/internal/statestore"
	"buswatch/internal/watch"
	logx "buswatch/pkg/logx"
)

// Summary is the caller-visible outcome of one polling cycle.
type Summary struct {
	OK bool `json:"ok"`
	// Total counts vehicles considered after the route filter.
	Total int `json:"total"`
	// Sent counts notifications emitted this cycle. Emission is recorded
	// at send time regardless of delivery success (attempted, not
	// confirmed).
	Sent  int    `json:"sent"`
	Error string `json:"error,omitempty"`
}

// FeedSource yields the current vehicle snapshot.
type FeedSource interface {
	Fetch(ctx context.Context) ([]watch.Vehicle, error)
}

// MessageSender delivers one notification, best-effort.
type MessageSender interface {
	Send(ctx context.Context, text string) error
}

// Cycle runs one atomic read -> compute -> send -> persist transition over
// the tracking state. It holds no state of its own between runs.
type Cycle struct {
	Feed   FeedSource
	Store  statestore.Store
	Sender MessageSender
	Engine *watch.Engine
	Log    logx.Logger

	// Now is the clock; nil means time.Now. Tests pin it.
	Now func() time.Time
}

// Run executes one cycle.
//
// A feed or store error aborts the cycle with no state mutation. Send
// failures are absorbed: state persistence always follows the send phase,
// so a crash between the two re-fires notifications next cycle
// (at-least-once) instead of silently losing them.
func (c *Cycle) Run(ctx context.Context) Summary {
	log := c.Log
	if log.IsZero() {
		log = logx.Nop()
	}
	now := time.Now()
	if c.Now != nil {
		now = c.Now()
	}

	snapshot, err := c.Feed.Fetch(ctx)
	if err != nil {
		log.Error("cycle aborted: feed", logx.Err(err))
		return Summary{OK: false, Error: err.Error()}
	}

	prior, found, err := c.Store.Get(ctx)
	if err != nil {
		log.Error("cycle aborted: state read", logx.Err(err))
		return Summary{OK: false, Error: err.Error()}
	}
	if !found {
		log.Info("no prior state, first run")
	}

	res := c.Engine.Evaluate(now, prior, snapshot)

	for _, msg := range res.Messages {
		// Best-effort: a failed send must not block the remaining sends
		// or state persistence.
		_ = c.Sender.Send(ctx, msg)
	}

	if err := c.Store.Put(ctx, res.Next); err != nil {
		log.Error("cycle aborted: state write", logx.Err(err))
		return Summary{OK: false, Error: err.Error()}
	}

	log.Info("cycle done",
		logx.Int("total", res.Considered),
		logx.Int("sent", len(res.Messages)),
		logx.Int("tracked_ids", len(res.Next.SeenIDs)),
	)
	return Summary{OK: true, Total: res.Considered, Sent: len(res.Messages)}
}
