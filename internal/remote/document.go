// Package remote is the tenant-scoped HTTP client for the shared document
// store. One Collection per entity kind, all sharing a single Client.
package remote

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/mkaraca/dukkan/internal/engine"
)

// Document is the wire form of a record. The remote keys collections by id;
// businessId is the authoritative tenant field. isActive=false is the
// remote-visible soft delete and such documents are excluded from listings.
type Document struct {
	ID             string          `json:"id"`
	BusinessID     string          `json:"businessId"`
	Data           json.RawMessage `json:"data"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
	IsActive       bool            `json:"isActive"`
	LastModifiedBy string          `json:"lastModifiedBy"`
}

func toDocument[P engine.Payload](rec engine.Record[P]) (Document, error) {
	data, err := json.Marshal(rec.Payload)
	if err != nil {
		return Document{}, fmt.Errorf("encoding payload for %s: %w", rec.ID, err)
	}
	return Document{
		ID:             rec.ID,
		BusinessID:     rec.TenantID,
		Data:           data,
		CreatedAt:      rec.CreatedAt.UTC(),
		UpdatedAt:      rec.UpdatedAt.UTC(),
		IsActive:       true,
		LastModifiedBy: rec.LastModifiedBy,
	}, nil
}

func fromDocument[P engine.Payload](doc Document) (engine.Record[P], error) {
	rec := engine.Record[P]{
		ID:             doc.ID,
		TenantID:       doc.BusinessID,
		CreatedAt:      doc.CreatedAt,
		UpdatedAt:      doc.UpdatedAt,
		LastModifiedBy: doc.LastModifiedBy,
		State:          engine.StateClean,
	}
	if err := json.Unmarshal(doc.Data, &rec.Payload); err != nil {
		return engine.Record[P]{}, fmt.Errorf("decoding payload for %s: %w", doc.ID, err)
	}
	return rec, nil
}
