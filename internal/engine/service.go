package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mkaraca/dukkan/internal/logging"
	"github.com/mkaraca/dukkan/internal/tenant"
)

// Online reports current connectivity, used only to decide whether an
// immediate remote write is worth attempting after a local commit.
type Online interface {
	IsConnected() bool
}

// ChangeSource notifies subscribers that the local store changed.
// Notifications coalesce; subscribers re-query on each signal.
type ChangeSource interface {
	SubscribeChanges(ctx context.Context) <-chan struct{}
}

// Service is the narrow contract the UI layer consumes for one entity kind.
//
// Writes are local-first: a mutation succeeds as soon as the local commit
// does, is marked dirty, and an immediate remote write is attempted
// opportunistically. Remote failures are deferred to the next sync pass and
// never surface as a failed save. Reads always come from the local store.
type Service[P Payload] struct {
	kind     Kind[P]
	local    LocalStore[P]
	remote   RemoteStore[P]
	coord    *Coordinator[P]
	tenants  tenant.Resolver
	online   Online
	changes  ChangeSource
	log      logging.Logger
	deviceID string
}

// NewService wires a service for one entity kind. online and changes may be
// nil; immediate pushes and Watch are then disabled respectively.
func NewService[P Payload](
	kind Kind[P],
	local LocalStore[P],
	remote RemoteStore[P],
	coord *Coordinator[P],
	tenants tenant.Resolver,
	online Online,
	changes ChangeSource,
	log logging.Logger,
	deviceID string,
) *Service[P] {
	return &Service[P]{
		kind:     kind,
		local:    local,
		remote:   remote,
		coord:    coord,
		tenants:  tenants,
		online:   online,
		changes:  changes,
		log:      log.With("kind", kind.Name),
		deviceID: deviceID,
	}
}

// CreateOrUpdate validates and persists the payload locally, then attempts
// an immediate remote write when online. An empty id creates a new record.
func (s *Service[P]) CreateOrUpdate(ctx context.Context, id string, payload P) (Record[P], error) {
	if err := payload.Validate(); err != nil {
		return Record[P]{}, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	tenantID, err := s.tenants.CurrentTenantID(ctx)
	if err != nil {
		return Record[P]{}, fmt.Errorf("resolving tenant: %w", err)
	}

	now := time.Now().UTC()
	rec := Record[P]{
		ID:             id,
		TenantID:       tenantID,
		Payload:        payload,
		CreatedAt:      now,
		UpdatedAt:      now,
		LastModifiedBy: s.deviceID,
		State:          StateDirty,
	}

	if id == "" {
		rec.ID = uuid.NewString()
	} else {
		existing, err := s.local.Get(ctx, tenantID, id)
		switch {
		case errors.Is(err, ErrNotFound):
			// New record with a caller-chosen id.
		case err != nil:
			return Record[P]{}, fmt.Errorf("reading record %s: %w", id, err)
		default:
			rec.CreatedAt = existing.CreatedAt
			if !rec.UpdatedAt.After(existing.UpdatedAt) {
				rec.UpdatedAt = existing.UpdatedAt.Add(time.Millisecond)
			}
		}
	}

	if err := s.local.Upsert(ctx, rec); err != nil {
		return Record[P]{}, fmt.Errorf("saving record %s: %w", rec.ID, err)
	}

	s.pushNow(ctx, rec)
	return rec, nil
}

// SoftDelete tombstones the record locally and attempts the remote delete
// right away. The row is hard-deleted only once the remote confirms.
func (s *Service[P]) SoftDelete(ctx context.Context, id string) error {
	tenantID, err := s.tenants.CurrentTenantID(ctx)
	if err != nil {
		return fmt.Errorf("resolving tenant: %w", err)
	}

	rec, err := s.local.Get(ctx, tenantID, id)
	if err != nil {
		return fmt.Errorf("reading record %s: %w", id, err)
	}
	if rec.Tombstoned() {
		return nil
	}

	if err := s.local.SoftDelete(ctx, tenantID, id); err != nil {
		return fmt.Errorf("tombstoning record %s: %w", id, err)
	}

	if s.online == nil || !s.online.IsConnected() {
		return nil
	}
	if err := s.remote.Delete(ctx, tenantID, id); err != nil {
		s.log.Warn(ctx, "immediate remote delete deferred", "id", id, "error", err)
		return nil
	}
	if err := s.local.HardDelete(ctx, tenantID, id); err != nil {
		return fmt.Errorf("hard-deleting record %s: %w", id, err)
	}
	return nil
}

// Get returns one record. Tombstoned records are reported as not found.
func (s *Service[P]) Get(ctx context.Context, id string) (Record[P], error) {
	tenantID, err := s.tenants.CurrentTenantID(ctx)
	if err != nil {
		return Record[P]{}, fmt.Errorf("resolving tenant: %w", err)
	}
	rec, err := s.local.Get(ctx, tenantID, id)
	if err != nil {
		return Record[P]{}, err
	}
	if rec.Tombstoned() {
		return Record[P]{}, ErrNotFound
	}
	return rec, nil
}

// List returns the tenant's records matching the filter, tombstones excluded.
func (s *Service[P]) List(ctx context.Context, f Filter) ([]Record[P], error) {
	tenantID, err := s.tenants.CurrentTenantID(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolving tenant: %w", err)
	}
	f.IncludeTombstoned = false
	return s.local.List(ctx, tenantID, f)
}

// Watch emits the current filtered list and re-emits it whenever the local
// store changes, until ctx is done. The channel is closed on return.
func (s *Service[P]) Watch(ctx context.Context, f Filter) (<-chan []Record[P], error) {
	if s.changes == nil {
		return nil, errors.New("watch unavailable: no change source")
	}
	tenantID, err := s.tenants.CurrentTenantID(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolving tenant: %w", err)
	}
	f.IncludeTombstoned = false

	signals := s.changes.SubscribeChanges(ctx)
	out := make(chan []Record[P], 1)

	emit := func() {
		recs, err := s.local.List(ctx, tenantID, f)
		if err != nil {
			s.log.Warn(ctx, "watch query failed", "tenant", tenantID, "error", err)
			return
		}
		select {
		case out <- recs:
		case <-ctx.Done():
		}
	}

	go func() {
		defer close(out)
		emit()
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-signals:
				if !ok {
					return
				}
				emit()
			}
		}
	}()
	return out, nil
}

// Sync runs a manual sync pass for the current tenant and surfaces the
// aggregate result so the UI can report an incomplete refresh.
func (s *Service[P]) Sync(ctx context.Context) (SyncOutcome, error) {
	tenantID, err := s.tenants.CurrentTenantID(ctx)
	if err != nil {
		return SyncOutcome{Kind: s.kind.Name}, fmt.Errorf("resolving tenant: %w", err)
	}
	return s.coord.Sync(ctx, tenantID)
}

// SyncTenant lets the engine fan out a pass for an already-resolved tenant.
func (s *Service[P]) SyncTenant(ctx context.Context, tenantID string) (SyncOutcome, error) {
	return s.coord.Sync(ctx, tenantID)
}

// KindName identifies the entity kind this service manages.
func (s *Service[P]) KindName() string { return s.kind.Name }

// pushNow attempts an immediate remote write for a just-committed record.
// Failure is deferred to the next sync pass, never surfaced to the caller.
func (s *Service[P]) pushNow(ctx context.Context, rec Record[P]) {
	if s.online == nil || !s.online.IsConnected() {
		return
	}
	if err := s.remote.Put(ctx, rec); err != nil {
		s.log.Warn(ctx, "immediate remote put deferred", "id", rec.ID, "error", err)
		return
	}
	if err := s.local.MarkClean(ctx, rec.TenantID, rec.ID); err != nil {
		s.log.Warn(ctx, "marking record clean failed", "id", rec.ID, "error", err)
	}
}
