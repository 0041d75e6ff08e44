package tenants

import "time"

// Tenant is a registered business account. Every document in the store
// belongs to exactly one tenant.
type Tenant struct {
	ID           string
	Login        string
	PasswordHash []byte
	Name         string
	CreatedAt    time.Time
}
