package engine

import (
	"errors"

	"github.com/mkaraca/dukkan/internal/tenant"
)

var (
	// ErrNotFound is returned when a record does not exist in the local
	// store for the resolved tenant.
	ErrNotFound = errors.New("record not found")

	// ErrNoTenant is returned when no tenant session can be resolved.
	// Nothing is attempted against the local or remote store.
	ErrNoTenant = tenant.ErrNoSession

	// ErrTenantMismatch is returned when a record's tenant id does not
	// match the resolved tenant. It is never silently ignored.
	ErrTenantMismatch = errors.New("record belongs to a different tenant")

	// ErrNetworkUnavailable marks a total remote failure. Local mutations
	// are never rejected for this reason; sync passes defer and retry.
	ErrNetworkUnavailable = errors.New("network unavailable")

	// ErrRemoteWrite and ErrRemoteRead mark per-operation transient remote
	// failures. They are recorded by leaving the record dirty and are only
	// surfaced to callers of an explicit manual sync.
	ErrRemoteWrite = errors.New("remote write failed")
	ErrRemoteRead  = errors.New("remote read failed")

	// ErrValidation is returned when a payload fails entity-specific
	// invariants. The payload never reaches the local store.
	ErrValidation = errors.New("invalid payload")
)
