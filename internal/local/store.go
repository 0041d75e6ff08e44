// Package local implements the durable, tenant-scoped local replica the UI
// reads from. One SQLite table per entity kind, all managed by the same
// generic Store. The package performs no network I/O.
package local

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/mkaraca/dukkan/internal/dbx"
	"github.com/mkaraca/dukkan/internal/engine"
)

var tableNameRe = regexp.MustCompile(`^[a-z][a-z_]*$`)

// Store is a LocalStore implementation over one entity kind's table.
// SQLite serializes conflicting writes to the same row; readers are not
// blocked thanks to WAL mode (see Open).
type Store[P engine.Payload] struct {
	db       *sql.DB
	kind     engine.Kind[P]
	notifier *Notifier
}

// NewStore binds a store to the kind's table. The table must be created by
// the package migrations. notifier may be nil when change notifications are
// not needed (e.g. tests).
func NewStore[P engine.Payload](db *sql.DB, kind engine.Kind[P], notifier *Notifier) (*Store[P], error) {
	if !tableNameRe.MatchString(kind.Name) {
		return nil, fmt.Errorf("invalid kind name %q", kind.Name)
	}
	return &Store[P]{db: db, kind: kind, notifier: notifier}, nil
}

const recordColumns = `id, tenant_id, payload, created_at, updated_at, last_modified_by, deleted, pending`

// Get returns the record for the tenant, engine.ErrNotFound when absent, or
// engine.ErrTenantMismatch when the id exists under a different tenant.
func (s *Store[P]) Get(ctx context.Context, tenantID, id string) (engine.Record[P], error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = ?`, recordColumns, s.kind.Name)
	rec, err := s.scanRecord(s.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return engine.Record[P]{}, engine.ErrNotFound
	}
	if err != nil {
		return engine.Record[P]{}, fmt.Errorf("reading %s/%s: %w", s.kind.Name, id, err)
	}
	if rec.TenantID != tenantID {
		return engine.Record[P]{}, engine.ErrTenantMismatch
	}
	return rec, nil
}

// List returns the tenant's records matching the filter, newest first.
func (s *Store[P]) List(ctx context.Context, tenantID string, f engine.Filter) ([]engine.Record[P], error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE tenant_id = ?`, recordColumns, s.kind.Name)
	args := []any{tenantID}

	if !f.IncludeTombstoned {
		query += ` AND deleted = 0`
	}
	if f.Category != "" {
		query += ` AND category = ?`
		args = append(args, f.Category)
	}
	if f.Text != "" {
		query += ` AND search_text LIKE ?`
		args = append(args, "%"+strings.ToLower(f.Text)+"%")
	}
	query += ` ORDER BY updated_at DESC, id`

	return s.queryRecords(ctx, query, args...)
}

// ListNeedingSync returns every record whose state is not Clean, tombstones
// included.
func (s *Store[P]) ListNeedingSync(ctx context.Context, tenantID string) ([]engine.Record[P], error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE tenant_id = ? AND pending = 1 ORDER BY updated_at, id`, recordColumns, s.kind.Name)
	return s.queryRecords(ctx, query, tenantID)
}

// Upsert inserts or overwrites by id. Overwriting a row owned by a different
// tenant is refused with engine.ErrTenantMismatch. The ownership check and
// the write run in one transaction.
func (s *Store[P]) Upsert(ctx context.Context, rec engine.Record[P]) error {
	payload, err := json.Marshal(rec.Payload)
	if err != nil {
		return fmt.Errorf("encoding %s/%s payload: %w", s.kind.Name, rec.ID, err)
	}
	deleted, pending := flagsFromState(rec.State)

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		var owner string
		check := fmt.Sprintf(`SELECT tenant_id FROM %s WHERE id = ?`, s.kind.Name)
		err := tx.QueryRowContext(ctx, check, rec.ID).Scan(&owner)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("checking owner: %w", err)
		}
		if err == nil && owner != rec.TenantID {
			return engine.ErrTenantMismatch
		}

		query := fmt.Sprintf(`
			INSERT INTO %s (id, tenant_id, payload, search_text, category, created_at, updated_at, last_modified_by, deleted, pending)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				payload = excluded.payload,
				search_text = excluded.search_text,
				category = excluded.category,
				updated_at = excluded.updated_at,
				last_modified_by = excluded.last_modified_by,
				deleted = excluded.deleted,
				pending = excluded.pending
		`, s.kind.Name)

		_, err = tx.ExecContext(ctx, query,
			rec.ID, rec.TenantID, string(payload),
			s.searchText(rec.Payload), s.category(rec.Payload),
			rec.CreatedAt.UTC().Format(time.RFC3339Nano),
			rec.UpdatedAt.UTC().Format(time.RFC3339Nano),
			rec.LastModifiedBy, deleted, pending,
		)
		return err
	})
	if err != nil {
		if errors.Is(err, engine.ErrTenantMismatch) {
			return engine.ErrTenantMismatch
		}
		return fmt.Errorf("upserting %s/%s: %w", s.kind.Name, rec.ID, err)
	}
	s.broadcast()
	return nil
}

// MarkClean records that the payload is confirmed on the remote. Idempotent;
// a no-op when the record is absent or tombstoned.
func (s *Store[P]) MarkClean(ctx context.Context, tenantID, id string) error {
	query := fmt.Sprintf(`UPDATE %s SET pending = 0 WHERE id = ? AND tenant_id = ? AND deleted = 0`, s.kind.Name)
	if _, err := s.db.ExecContext(ctx, query, id, tenantID); err != nil {
		return fmt.Errorf("marking %s/%s clean: %w", s.kind.Name, id, err)
	}
	s.broadcast()
	return nil
}

// MarkDirty flags the record for the next push. Idempotent; a no-op when the
// record is absent.
func (s *Store[P]) MarkDirty(ctx context.Context, tenantID, id string) error {
	query := fmt.Sprintf(`UPDATE %s SET pending = 1 WHERE id = ? AND tenant_id = ?`, s.kind.Name)
	if _, err := s.db.ExecContext(ctx, query, id, tenantID); err != nil {
		return fmt.Errorf("marking %s/%s dirty: %w", s.kind.Name, id, err)
	}
	s.broadcast()
	return nil
}

// SoftDelete tombstones the record. The row stays until the remote delete is
// confirmed. The new updated_at is clamped so it never moves backwards even
// when the wall clock does.
func (s *Store[P]) SoftDelete(ctx context.Context, tenantID, id string) error {
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		var stored string
		check := fmt.Sprintf(`SELECT updated_at FROM %s WHERE id = ? AND tenant_id = ?`, s.kind.Name)
		err := tx.QueryRowContext(ctx, check, id, tenantID).Scan(&stored)
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("reading updated_at: %w", err)
		}

		now := time.Now().UTC()
		if prev, perr := time.Parse(time.RFC3339Nano, stored); perr == nil && !now.After(prev) {
			now = prev.Add(time.Millisecond)
		}

		query := fmt.Sprintf(`UPDATE %s SET deleted = 1, pending = 1, updated_at = ? WHERE id = ? AND tenant_id = ?`, s.kind.Name)
		_, err = tx.ExecContext(ctx, query, now.Format(time.RFC3339Nano), id, tenantID)
		return err
	})
	if err != nil {
		return fmt.Errorf("tombstoning %s/%s: %w", s.kind.Name, id, err)
	}
	s.broadcast()
	return nil
}

// HardDelete removes the row entirely.
func (s *Store[P]) HardDelete(ctx context.Context, tenantID, id string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = ? AND tenant_id = ?`, s.kind.Name)
	if _, err := s.db.ExecContext(ctx, query, id, tenantID); err != nil {
		return fmt.Errorf("hard-deleting %s/%s: %w", s.kind.Name, id, err)
	}
	s.broadcast()
	return nil
}

// SubscribeChanges implements engine.ChangeSource.
func (s *Store[P]) SubscribeChanges(ctx context.Context) <-chan struct{} {
	return s.notifier.Subscribe(ctx)
}

func (s *Store[P]) broadcast() {
	if s.notifier != nil {
		s.notifier.Broadcast()
	}
}

func (s *Store[P]) searchText(p P) string {
	if s.kind.SearchText == nil {
		return ""
	}
	return strings.ToLower(s.kind.SearchText(p))
}

func (s *Store[P]) category(p P) string {
	if s.kind.Category == nil {
		return ""
	}
	return s.kind.Category(p)
}

func (s *Store[P]) queryRecords(ctx context.Context, query string, args ...any) ([]engine.Record[P], error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w", s.kind.Name, err)
	}
	defer rows.Close()

	var result []engine.Record[P]
	for rows.Next() {
		rec, err := s.scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning %s row: %w", s.kind.Name, err)
		}
		result = append(result, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (s *Store[P]) scanRecord(row rowScanner) (engine.Record[P], error) {
	var (
		rec                  engine.Record[P]
		payload              string
		createdAt, updatedAt string
		deleted, pending     int
	)
	err := row.Scan(&rec.ID, &rec.TenantID, &payload, &createdAt, &updatedAt, &rec.LastModifiedBy, &deleted, &pending)
	if err != nil {
		return engine.Record[P]{}, err
	}
	if err := json.Unmarshal([]byte(payload), &rec.Payload); err != nil {
		return engine.Record[P]{}, fmt.Errorf("decoding payload: %w", err)
	}
	if rec.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return engine.Record[P]{}, fmt.Errorf("parsing created_at: %w", err)
	}
	if rec.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt); err != nil {
		return engine.Record[P]{}, fmt.Errorf("parsing updated_at: %w", err)
	}
	rec.State = stateFromFlags(deleted, pending)
	return rec, nil
}

func flagsFromState(state engine.SyncState) (deleted, pending int) {
	switch state {
	case engine.StateTombstoned:
		return 1, 1
	case engine.StateDirty:
		return 0, 1
	default:
		return 0, 0
	}
}

func stateFromFlags(deleted, pending int) engine.SyncState {
	switch {
	case deleted == 1:
		return engine.StateTombstoned
	case pending == 1:
		return engine.StateDirty
	default:
		return engine.StateClean
	}
}
