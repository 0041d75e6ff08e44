package engine

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/mkaraca/dukkan/internal/logging"
)

// Coordinator brings the local and remote stores for one entity kind into
// agreement, one tenant at a time.
//
// A pass runs in two ordered phases. Push uploads every record needing sync
// (dirty upserts, tombstone deletes) so a local edit gets at least one chance
// to reach the remote before the remote's view can overwrite it. Pull then
// fetches the tenant's active remote set, applies cross-device deletions and
// merges remote snapshots into the local store.
//
// Passes are single-flight per tenant: concurrent Sync calls for the same
// tenant coalesce onto the in-flight pass and share its outcome. Each
// per-record step commits independently, so a cancelled pass always leaves
// the local store valid and re-syncable.
type Coordinator[P Payload] struct {
	kind   Kind[P]
	local  LocalStore[P]
	remote RemoteStore[P]
	log    logging.Logger

	flight singleflight.Group
}

// NewCoordinator builds a coordinator for one entity kind.
func NewCoordinator[P Payload](kind Kind[P], local LocalStore[P], remote RemoteStore[P], log logging.Logger) *Coordinator[P] {
	return &Coordinator[P]{
		kind:   kind,
		local:  local,
		remote: remote,
		log:    log.With("kind", kind.Name),
	}
}

// Sync runs one push+pull pass for the tenant. Per-record push failures are
// deferred, not fatal; a total pull failure aborts the pass with an error
// wrapping ErrNetworkUnavailable or ErrRemoteRead, with any push progress
// already committed.
func (c *Coordinator[P]) Sync(ctx context.Context, tenantID string) (SyncOutcome, error) {
	v, err, _ := c.flight.Do(tenantID, func() (any, error) {
		return c.run(ctx, tenantID)
	})
	outcome, ok := v.(SyncOutcome)
	if !ok {
		outcome = SyncOutcome{Kind: c.kind.Name}
	}
	return outcome, err
}

func (c *Coordinator[P]) run(ctx context.Context, tenantID string) (SyncOutcome, error) {
	start := time.Now()
	outcome := SyncOutcome{Kind: c.kind.Name}

	if err := c.push(ctx, tenantID, &outcome); err != nil {
		outcome.Duration = time.Since(start)
		observeSync(c.kind.Name, outcome, false)
		return outcome, err
	}

	if err := c.pull(ctx, tenantID, &outcome); err != nil {
		outcome.Duration = time.Since(start)
		observeSync(c.kind.Name, outcome, false)
		return outcome, err
	}

	outcome.Duration = time.Since(start)
	observeSync(c.kind.Name, outcome, true)

	c.log.Info(ctx, "sync pass finished",
		"tenant", tenantID,
		"pushed", outcome.Pushed,
		"deleted", outcome.Deleted,
		"deferred", outcome.Deferred,
		"applied", outcome.Applied,
		"removed", outcome.Removed,
		"duration", outcome.Duration,
	)
	return outcome, nil
}

// push uploads every record needing sync. Record order carries no meaning;
// each record commits (or defers) independently.
func (c *Coordinator[P]) push(ctx context.Context, tenantID string, outcome *SyncOutcome) error {
	pending, err := c.local.ListNeedingSync(ctx, tenantID)
	if err != nil {
		return fmt.Errorf("listing records needing sync: %w", err)
	}

	for _, rec := range pending {
		if err := ctx.Err(); err != nil {
			return err
		}

		if rec.Tombstoned() {
			if err := c.remote.Delete(ctx, tenantID, rec.ID); err != nil {
				outcome.Deferred++
				c.log.Warn(ctx, "remote delete deferred", "tenant", tenantID, "id", rec.ID, "error", err)
				continue
			}
			if err := c.local.HardDelete(ctx, tenantID, rec.ID); err != nil {
				return fmt.Errorf("hard-deleting %s after confirmed remote delete: %w", rec.ID, err)
			}
			outcome.Deleted++
			continue
		}

		if err := c.remote.Put(ctx, rec); err != nil {
			outcome.Deferred++
			c.log.Warn(ctx, "remote put deferred", "tenant", tenantID, "id", rec.ID, "error", err)
			continue
		}
		if err := c.local.MarkClean(ctx, tenantID, rec.ID); err != nil {
			return fmt.Errorf("marking %s clean: %w", rec.ID, err)
		}
		outcome.Pushed++
	}
	return nil
}

// pull reconciles the tenant's remote set into the local store.
func (c *Coordinator[P]) pull(ctx context.Context, tenantID string, outcome *SyncOutcome) error {
	remotes, err := c.remote.ListByTenant(ctx, tenantID)
	if err != nil {
		return fmt.Errorf("listing remote records: %w", err)
	}
	outcome.Fetched = len(remotes)

	locals, err := c.local.List(ctx, tenantID, Filter{IncludeTombstoned: true})
	if err != nil {
		return fmt.Errorf("listing local records: %w", err)
	}

	remoteByID := make(map[string]Record[P], len(remotes))
	for _, rec := range remotes {
		remoteByID[rec.ID] = rec
	}

	// Cross-device deletions: a clean local record has round-tripped, so
	// its absence from the remote is authoritative. Dirty records are
	// unsynced local creations (or deferred pushes) and stay untouched.
	for _, loc := range locals {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, ok := remoteByID[loc.ID]; ok {
			continue
		}
		if loc.State != StateClean {
			continue
		}
		if err := c.local.HardDelete(ctx, tenantID, loc.ID); err != nil {
			return fmt.Errorf("applying cross-device deletion of %s: %w", loc.ID, err)
		}
		outcome.Removed++
	}

	localByID := make(map[string]Record[P], len(locals))
	for _, rec := range locals {
		localByID[rec.ID] = rec
	}

	for _, rem := range remotes {
		if err := ctx.Err(); err != nil {
			return err
		}
		if rem.TenantID != tenantID {
			return fmt.Errorf("remote record %s: %w", rem.ID, ErrTenantMismatch)
		}

		loc, ok := localByID[rem.ID]
		if !ok {
			rem.State = StateClean
			if err := c.local.Upsert(ctx, rem); err != nil {
				return fmt.Errorf("inserting remote record %s: %w", rem.ID, err)
			}
			outcome.Applied++
			continue
		}

		switch loc.State {
		case StateTombstoned:
			// A pending local delete is never resurrected by a remote
			// snapshot; the next push completes it.
			continue
		case StateDirty:
			merged := c.mergeDirty(loc, rem)
			if err := c.local.Upsert(ctx, merged); err != nil {
				return fmt.Errorf("merging remote record %s: %w", rem.ID, err)
			}
			outcome.Applied++
			outcome.Merged++
		default:
			rem.State = StateClean
			rem.UpdatedAt = maxTime(loc.UpdatedAt, rem.UpdatedAt)
			if err := c.local.Upsert(ctx, rem); err != nil {
				return fmt.Errorf("overwriting local record %s: %w", rem.ID, err)
			}
			outcome.Applied++
		}
	}
	return nil
}

// mergeDirty applies the documented pull-merge contract: the remote payload
// wins except for fields the kind declares device-authoritative, which are
// carried over from the unsynced local copy. The result is written Clean.
func (c *Coordinator[P]) mergeDirty(loc, rem Record[P]) Record[P] {
	merged := rem
	if c.kind.Merge != nil {
		merged.Payload = c.kind.Merge(loc.Payload, rem.Payload)
	}
	merged.CreatedAt = loc.CreatedAt
	merged.UpdatedAt = maxTime(loc.UpdatedAt, rem.UpdatedAt)
	merged.State = StateClean
	return merged
}

func maxTime(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}
