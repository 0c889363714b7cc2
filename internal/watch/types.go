package watch

// Vehicle is one normalized observation from the current poll.
//
// ID is a stable vehicle identity. The upstream feed sometimes cannot
// identify a vehicle and reports "?"; that is still treated as a real
// (if ambiguous) id rather than being dropped.
type Vehicle struct {
	ID         string  `json:"id"`
	Route      string  `json:"route,omitempty"`
	Lat        float64 `json:"lat"`
	Lon        float64 `json:"lon"`
	ObservedAt string  `json:"observed_at,omitempty"` // advisory only, never used in event logic
}

// TrackingState is the sole cross-invocation memory, persisted as a single
// blob between cycles.
//
// Map keys accumulate for every distinct vehicle id ever observed and are
// never removed. That growth is unbounded by design; fleet cardinality is
// small and capping it would change observable behavior.
type TrackingState struct {
	// SeenIDs is exactly the id set of the most recently processed
	// snapshot (full replacement each cycle, not a rolling union).
	SeenIDs []string `json:"seenIds"`

	// LastDepartAt and LastNearAt record the last notification time per id
	// in unix milliseconds. A missing key reads as 0 (epoch).
	LastDepartAt map[string]int64 `json:"lastDepartAt"`
	LastNearAt   map[string]int64 `json:"lastNearAt"`

	// Inside is the per-id geofence hysteresis flag: was the vehicle inside
	// the radius as of the previous cycle it was observed in.
	Inside map[string]bool `json:"inside"`
}

// NewTrackingState returns the empty first-run state.
func NewTrackingState() TrackingState {
	return TrackingState{
		SeenIDs:      []string{},
		LastDepartAt: map[string]int64{},
		LastNearAt:   map[string]int64{},
		Inside:       map[string]bool{},
	}
}

// normalized returns a copy with nil maps replaced so callers can read and
// write without nil checks. Blobs written by older builds may omit fields.
func (s TrackingState) normalized() TrackingState {
	if s.SeenIDs == nil {
		s.SeenIDs = []string{}
	}
	if s.LastDepartAt == nil {
		s.LastDepartAt = map[string]int64{}
	}
	if s.LastNearAt == nil {
		s.LastNearAt = map[string]int64{}
	}
	if s.Inside == nil {
		s.Inside = map[string]bool{}
	}
	return s
}
