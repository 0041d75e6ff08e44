package tenants

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned when no tenant matches the lookup.
	ErrNotFound = errors.New("tenant not found")
	// ErrLoginTaken is returned when registering with a login that already exists.
	ErrLoginTaken = errors.New("login already taken")
)

type Repository interface {
	Create(ctx context.Context, tenant *Tenant) (*Tenant, error)
	GetByLogin(ctx context.Context, login string) (*Tenant, error)
}
