// Package engine implements the tenant-scoped synchronization engine that
// keeps a local replica and a remote document collection converging under
// intermittent connectivity. One generic Coordinator is instantiated per
// entity kind; entity specifics are supplied through a Kind descriptor.
package engine

import (
	"context"
	"time"
)

// SyncState tracks whether a record's local copy has been confirmed on the
// remote store.
type SyncState string

const (
	// StateClean means the local payload is exactly what was last written
	// to, or read from, the remote store.
	StateClean SyncState = "clean"

	// StateDirty means the record has local changes not yet confirmed
	// remotely.
	StateDirty SyncState = "dirty"

	// StateTombstoned means the record was soft-deleted locally and the
	// remote delete has not been confirmed yet. The row stays in the local
	// store until it is.
	StateTombstoned SyncState = "tombstoned"
)

// Record is the unit of synchronization for one entity kind.
//
// ID is generated on the creating device and never changes. TenantID is
// immutable after creation; every operation verifies it against the resolved
// tenant. UpdatedAt is a logical timestamp advanced on every mutation and is
// non-decreasing for the lifetime of an id.
type Record[P Payload] struct {
	ID             string
	TenantID       string
	Payload        P
	CreatedAt      time.Time
	UpdatedAt      time.Time
	LastModifiedBy string
	State          SyncState
}

// NeedsSync reports whether the record carries unconfirmed local changes.
func (r Record[P]) NeedsSync() bool {
	return r.State != StateClean
}

// Tombstoned reports whether the record is a pending soft delete.
func (r Record[P]) Tombstoned() bool {
	return r.State == StateTombstoned
}

// Payload is implemented by entity payload types (customer, appointment, ...).
type Payload interface {
	Validate() error
}

// Kind describes one entity kind to the generic engine.
//
// Name doubles as the local table name and the remote collection path
// segment, so it must be a plain lowercase identifier.
type Kind[P Payload] struct {
	Name string

	// SearchText extracts the text matched by free-text list filters.
	// Optional; nil disables free-text filtering for the kind.
	SearchText func(P) string

	// Category extracts the value matched by category list filters.
	// Optional.
	Category func(P) string

	// Merge reconciles a locally dirty payload with a fresh remote
	// snapshot during a pull. It returns the payload to keep, typically
	// the remote one with device-authoritative fields carried over from
	// local. Nil means the remote payload wins wholesale.
	Merge func(local, remote P) P
}

// LocalStore is the durable, tenant-scoped replica the UI reads from.
// Implementations perform no network I/O. Every method takes the tenant id
// explicitly; there is no ambient tenant lookup.
type LocalStore[P Payload] interface {
	// Get returns the record, or ErrNotFound. Tombstoned records are
	// returned; callers that must not see them check State themselves.
	Get(ctx context.Context, tenantID, id string) (Record[P], error)

	// List returns the tenant's records matching the filter, ordered by
	// UpdatedAt descending. Tombstoned records are excluded unless
	// f.IncludeTombstoned is set.
	List(ctx context.Context, tenantID string, f Filter) ([]Record[P], error)

	// Upsert inserts or overwrites by id.
	Upsert(ctx context.Context, rec Record[P]) error

	// MarkClean and MarkDirty flip the sync state. Both are idempotent
	// and are no-ops when the record is absent.
	MarkClean(ctx context.Context, tenantID, id string) error
	MarkDirty(ctx context.Context, tenantID, id string) error

	// SoftDelete tombstones the record without removing the row.
	SoftDelete(ctx context.Context, tenantID, id string) error

	// HardDelete removes the row entirely. Used only after a confirmed
	// remote delete or cross-device deletion reconciliation.
	HardDelete(ctx context.Context, tenantID, id string) error

	// ListNeedingSync returns every record whose state is not Clean,
	// tombstones included.
	ListNeedingSync(ctx context.Context, tenantID string) ([]Record[P], error)
}

// RemoteStore is the tenant-scoped client for one entity kind's remote
// document collection. All operations may fail transiently; failures never
// corrupt local state and passes are safe to retry from scratch.
type RemoteStore[P Payload] interface {
	// Put is a full-document upsert, idempotent by id.
	Put(ctx context.Context, rec Record[P]) error

	// Delete marks the document inactive remotely.
	Delete(ctx context.Context, tenantID, id string) error

	// ListByTenant returns the tenant's active documents.
	ListByTenant(ctx context.Context, tenantID string) ([]Record[P], error)
}

// Filter narrows local list queries.
type Filter struct {
	// Text is matched case-insensitively against Kind.SearchText output.
	Text string

	// Category must equal Kind.Category output when set.
	Category string

	// IncludeTombstoned also returns pending soft deletes.
	IncludeTombstoned bool
}
