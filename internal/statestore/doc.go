// Package statestore persists the tracking state blob between polling
// cycles. The blob is read once at the start of a cycle and replaced
// wholesale at the end; there are no partial writes.
//
// Two drivers exist: a dependency-free file backend (default) and SQLite
// behind the "sqlite" build tag. Neither provides cross-process locking or
// compare-and-swap; concurrent writers race and the last one wins. That gap
// is deliberate for single-scheduler deployments.
package statestore
