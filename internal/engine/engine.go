package engine

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/mkaraca/dukkan/internal/logging"
	"github.com/mkaraca/dukkan/internal/tenant"
)

// Syncer is one entity kind's sync entry point, type-erased so the Engine
// can hold all kinds in one slice.
type Syncer interface {
	KindName() string
	SyncTenant(ctx context.Context, tenantID string) (SyncOutcome, error)
}

// Engine fans sync passes out across every registered entity kind for the
// currently resolved tenant, and schedules a full pass on every
// offline-to-online transition.
type Engine struct {
	tenants tenant.Resolver
	syncers []Syncer
	log     logging.Logger
}

// New returns an engine with no kinds registered.
func New(tenants tenant.Resolver, log logging.Logger) *Engine {
	return &Engine{tenants: tenants, log: log}
}

// Register adds one entity kind's syncer. Not safe to call concurrently
// with SyncAll; register everything during startup.
func (e *Engine) Register(s Syncer) {
	e.syncers = append(e.syncers, s)
}

// SyncAll runs one pass per registered kind, in parallel. Kinds fail
// independently: one kind's error never aborts another's pass. The returned
// error joins every per-kind failure.
func (e *Engine) SyncAll(ctx context.Context) ([]SyncOutcome, error) {
	tenantID, err := e.tenants.CurrentTenantID(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolving tenant: %w", err)
	}

	outcomes := make([]SyncOutcome, len(e.syncers))
	errs := make([]error, len(e.syncers))

	var g errgroup.Group
	for i, s := range e.syncers {
		g.Go(func() error {
			outcome, err := s.SyncTenant(ctx, tenantID)
			outcomes[i] = outcome
			if err != nil {
				errs[i] = fmt.Errorf("%s: %w", s.KindName(), err)
			}
			return nil
		})
	}
	_ = g.Wait()

	return outcomes, errors.Join(errs...)
}

// RunOnConnect consumes connectivity edges and schedules a full sync on
// every transition to online. It returns when ctx is done or the channel
// closes. Overlap across rapid transitions is prevented by the per-tenant
// single-flight inside each coordinator.
func (e *Engine) RunOnConnect(ctx context.Context, changes <-chan bool) {
	for {
		select {
		case <-ctx.Done():
			return
		case online, ok := <-changes:
			if !ok {
				return
			}
			if !online {
				continue
			}
			if !e.tenants.IsAuthenticated(ctx) {
				e.log.Info(ctx, "reconnected without a tenant session, skipping sync")
				continue
			}
			if _, err := e.SyncAll(ctx); err != nil {
				e.log.Warn(ctx, "sync on reconnect incomplete", "error", err)
			}
		}
	}
}
