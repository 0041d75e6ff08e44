package local

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mkaraca/dukkan/internal/dbx"
)

// Metadata is a small key/value store on the local replica used for sync
// bookkeeping (last successful pass per kind, device id).
type Metadata struct {
	db dbx.DBTX
}

// NewMetadata binds a metadata store to the given handle.
func NewMetadata(db dbx.DBTX) *Metadata {
	return &Metadata{db: db}
}

// Get returns the value for key, or nil when the key is absent.
func (m *Metadata) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := m.db.QueryRowContext(ctx, `SELECT value FROM metadata WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading metadata[%s]: %w", key, err)
	}
	return value, nil
}

// Set stores the value for key, replacing any previous one.
func (m *Metadata) Set(ctx context.Context, key string, value []byte) error {
	_, err := m.db.ExecContext(ctx, `
		INSERT INTO metadata (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	if err != nil {
		return fmt.Errorf("writing metadata[%s]: %w", key, err)
	}
	return nil
}

// LastSync returns the recorded time of the last successful pass for the
// kind, or the zero time when none is recorded.
func (m *Metadata) LastSync(ctx context.Context, kind string) (time.Time, error) {
	value, err := m.Get(ctx, "last_sync_"+kind)
	if err != nil || value == nil {
		return time.Time{}, err
	}
	t, err := time.Parse(time.RFC3339Nano, string(value))
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing last sync for %s: %w", kind, err)
	}
	return t, nil
}

// SetLastSync records the time of a successful pass for the kind.
func (m *Metadata) SetLastSync(ctx context.Context, kind string, t time.Time) error {
	return m.Set(ctx, "last_sync_"+kind, []byte(t.UTC().Format(time.RFC3339Nano)))
}
