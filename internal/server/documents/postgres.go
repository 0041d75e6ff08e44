// Package documents provides PostgreSQL-backed storage for the shared
// document store: tenant-scoped upserts, soft deletes and sync reads.
package documents

import (
	"context"
	"fmt"

	"github.com/mkaraca/dukkan/internal/dbx"
)

// PostgresRepository implements document storage over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Upsert inserts or replaces a document by (kind, id). If a conflicting row
// exists for another tenant, no row is updated and ErrTenantMismatch is
// returned. Last write wins: the incoming updated_at replaces the stored one.
func (r *PostgresRepository) Upsert(ctx context.Context, doc *Document) error {
	query := `
		INSERT INTO documents (id, kind, business_id, data, created_at, updated_at, is_active, last_modified_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (kind, id)
		DO UPDATE SET
			data = EXCLUDED.data,
			updated_at = EXCLUDED.updated_at,
			is_active = EXCLUDED.is_active,
			last_modified_by = EXCLUDED.last_modified_by
			WHERE documents.business_id = EXCLUDED.business_id;
	`
	res, err := r.db.ExecContext(ctx, query,
		doc.ID, doc.Kind, doc.BusinessID, doc.Data, doc.CreatedAt, doc.UpdatedAt, doc.IsActive, doc.LastModifiedBy)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	switch n {
	case 1:
		return nil
	case 0:
		return ErrTenantMismatch
	default:
		return fmt.Errorf("unexpected rows affected: %d", n)
	}
}

// Deactivate soft-deletes a document for a tenant. Deactivating a document
// that is already inactive or does not exist is a no-op, so retried deletes
// stay idempotent.
func (r *PostgresRepository) Deactivate(ctx context.Context, kind, id, businessID, modifiedBy string) error {
	query := `
		UPDATE documents
		SET is_active = FALSE, updated_at = NOW(), last_modified_by = $4
		WHERE kind = $1 AND id = $2 AND business_id = $3;
	`
	if _, err := r.db.ExecContext(ctx, query, kind, id, businessID, modifiedBy); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// ListActive returns all active documents of a kind for one tenant.
func (r *PostgresRepository) ListActive(ctx context.Context, kind, businessID string) ([]*Document, error) {
	query := ` SELECT id, kind, business_id, data, created_at, updated_at, is_active, last_modified_by from documents
		WHERE kind=$1 and business_id=$2 and is_active=TRUE
		`
	rows, err := r.db.QueryContext(ctx, query, kind, businessID)
	if err != nil {
		return nil, fmt.Errorf("failed to select documents: %w", err)
	}
	defer rows.Close()

	var result []*Document
	for rows.Next() {
		var item Document
		if err := rows.Scan(
			&item.ID, &item.Kind, &item.BusinessID, &item.Data,
			&item.CreatedAt, &item.UpdatedAt, &item.IsActive, &item.LastModifiedBy,
		); err != nil {
			return nil, err
		}
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
