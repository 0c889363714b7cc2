package watch

import (
	"fmt"
	"regexp"
	"time"
)

// Config holds the engine's detection parameters.
type Config struct {
	// RoutePattern selects which routes are watched. Vehicles with an empty
	// route are always kept (unknown route never excludes). A nil pattern
	// keeps everything.
	RoutePattern *regexp.Regexp

	// Line is the human-facing line label used in notification text.
	Line string

	// Geofence reference point and radius.
	RefLat, RefLon float64
	RadiusMeters   float64
	// Landmark names the reference point in notification text.
	Landmark string

	// DepartCooldown gates repeated "departed" notifications per vehicle;
	// NearCooldown does the same for geofence entries. Both are exclusive
	// boundaries: a notification exactly at elapsed == cooldown is still
	// suppressed.
	DepartCooldown time.Duration
	NearCooldown   time.Duration
}

// Result is one cycle's engine output.
type Result struct {
	Messages []string
	Next     TrackingState
	// Considered counts vehicles that passed the route filter.
	Considered int
}

// Engine turns (prior state, snapshot, now) into notifications and the next
// state. It performs no I/O and never mutates its inputs.
type Engine struct {
	cfg Config
}

func NewEngine(cfg Config) *Engine {
	return &Engine{cfg: cfg}
}

// Evaluate runs one detection cycle.
//
// Vehicles excluded by the route filter are invisible to the engine: they
// produce no events and leave no trace in the next state, not even a
// hysteresis update.
func (e *Engine) Evaluate(now time.Time, prior TrackingState, snapshot []Vehicle) Result {
	prior = prior.normalized()
	nowMS := now.UnixMilli()

	items := e.filterRoutes(snapshot)

	next := TrackingState{
		SeenIDs:      make([]string, 0, len(items)),
		LastDepartAt: cloneInt64Map(prior.LastDepartAt),
		LastNearAt:   cloneInt64Map(prior.LastNearAt),
		Inside:       cloneBoolMap(prior.Inside),
	}

	prevSeen := make(map[string]struct{}, len(prior.SeenIDs))
	for _, id := range prior.SeenIDs {
		prevSeen[id] = struct{}{}
	}

	var msgs []string

	// Departure detection: ids present now that were absent last cycle.
	// On the very first run every id is new; that is intended behavior.
	current := make(map[string]struct{}, len(items))
	for _, v := range items {
		if _, dup := current[v.ID]; dup {
			continue
		}
		current[v.ID] = struct{}{}
		next.SeenIDs = append(next.SeenIDs, v.ID)

		if _, was := prevSeen[v.ID]; was {
			continue
		}
		if nowMS-prior.LastDepartAt[v.ID] > e.cfg.DepartCooldown.Milliseconds() {
			msgs = append(msgs, e.departMessage(v))
			next.LastDepartAt[v.ID] = nowMS
		}
	}

	// Geofence entry with hysteresis: only the outside->inside transition
	// notifies, and the inside flag is refreshed for every observed vehicle
	// regardless of cooldown gating. A vehicle that never leaves the radius
	// therefore notifies at most once, however long it lingers.
	//
	// The gate reads next, not prior: a snapshot carrying the same id twice
	// sees its own inside/cooldown updates and stays silent on the repeat.
	for _, v := range items {
		d := HaversineMeters(v.Lat, v.Lon, e.cfg.RefLat, e.cfg.RefLon)
		wasInside := next.Inside[v.ID]
		isInside := d <= e.cfg.RadiusMeters

		if !wasInside && isInside {
			if nowMS-next.LastNearAt[v.ID] > e.cfg.NearCooldown.Milliseconds() {
				msgs = append(msgs, e.nearMessage(v))
				next.LastNearAt[v.ID] = nowMS
			}
		}
		next.Inside[v.ID] = isInside
	}

	return Result{Messages: msgs, Next: next, Considered: len(items)}
}

func (e *Engine) filterRoutes(snapshot []Vehicle) []Vehicle {
	out := make([]Vehicle, 0, len(snapshot))
	for _, v := range snapshot {
		if v.Route == "" || e.cfg.RoutePattern == nil || e.cfg.RoutePattern.MatchString(v.Route) {
			out = append(out, v)
		}
	}
	return out
}

func (e *Engine) label(v Vehicle) string {
	if e.cfg.Line != "" {
		return e.cfg.Line
	}
	if v.Route != "" {
		return v.Route
	}
	return v.ID
}

func (e *Engine) departMessage(v Vehicle) string {
	return fmt.Sprintf("Bus %s (%s) just left", e.label(v), v.ID)
}

func (e *Engine) nearMessage(v Vehicle) string {
	landmark := e.cfg.Landmark
	if landmark == "" {
		landmark = "the reference point"
	}
	return fmt.Sprintf("Bus %s (%s) is near %s (within %.0f m)", e.label(v), v.ID, landmark, e.cfg.RadiusMeters)
}

func cloneInt64Map(m map[string]int64) map[string]int64 {
	out := make(map[string]int64, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func cloneBoolMap(m map[string]bool) map[string]bool {
	out := make(map[string]bool, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
