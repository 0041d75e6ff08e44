package documents

import (
	"context"
	"errors"
)

// ErrTenantMismatch is returned when a write targets a document that exists
// but belongs to a different tenant. The row is left untouched.
var ErrTenantMismatch = errors.New("document belongs to another tenant")

type Repository interface {
	Upsert(ctx context.Context, doc *Document) error
	Deactivate(ctx context.Context, kind, id, businessID, modifiedBy string) error
	ListActive(ctx context.Context, kind, businessID string) ([]*Document, error)
}
