// Package watch implements the event engine: given the current vehicle
// snapshot and the previously persisted tracking state, it decides which
// notifications fire this cycle and computes the next state.
//
// The engine is a pure function of (config, snapshot, prior state, now).
// All I/O (feed fetch, delivery, persistence) lives in other packages.
package watch
