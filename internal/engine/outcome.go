package engine

import "time"

// SyncOutcome summarizes one sync pass for one (tenant, kind) pair.
//
// Pushed + Deleted + Deferred covers every record that needed sync when the
// pass started. Deferred records stay dirty and are retried on the next pass.
type SyncOutcome struct {
	Kind string

	// Push phase.
	Pushed   int // dirty records written to the remote
	Deleted  int // tombstones confirmed remotely and hard-deleted locally
	Deferred int // per-record failures, left for the next pass

	// Pull phase.
	Fetched int // active remote documents for the tenant
	Applied int // remote records inserted or overwritten locally
	Merged  int // dirty locals merged with a remote snapshot
	Removed int // cross-device deletions applied locally

	Duration time.Duration
}

// Add accumulates b into o, keeping o.Kind. Used when aggregating per-kind
// outcomes into an engine-wide total.
func (o SyncOutcome) Add(b SyncOutcome) SyncOutcome {
	o.Pushed += b.Pushed
	o.Deleted += b.Deleted
	o.Deferred += b.Deferred
	o.Fetched += b.Fetched
	o.Applied += b.Applied
	o.Merged += b.Merged
	o.Removed += b.Removed
	o.Duration += b.Duration
	return o
}
