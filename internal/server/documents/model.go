package documents

import (
	"encoding/json"
	"time"
)

// Document is a server-side record in the shared document store. Kind names
// the collection (customers, employees, ...), BusinessID the owning tenant.
// Data holds the opaque payload exactly as the client sent it.
type Document struct {
	ID             string
	Kind           string
	BusinessID     string
	Data           json.RawMessage
	CreatedAt      time.Time
	UpdatedAt      time.Time
	IsActive       bool
	LastModifiedBy string
}
