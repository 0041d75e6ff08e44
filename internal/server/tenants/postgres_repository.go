package tenants

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) (*PostgresRepository, error) {
	return &PostgresRepository{db: db}, nil
}

func (r *PostgresRepository) Create(ctx context.Context, tenant *Tenant) (*Tenant, error) {

	query :=
		`INSERT INTO tenants (login, password_hash, name)
         VALUES ($1, $2, $3)
		 RETURNING id, created_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		tenant.Login, tenant.PasswordHash, tenant.Name).Scan(&tenant.ID, &tenant.CreatedAt)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, ErrLoginTaken
		}
		return nil, fmt.Errorf("error performing sql request: %v", err)
	}

	return tenant, nil
}

func (r *PostgresRepository) GetByLogin(ctx context.Context, login string) (*Tenant, error) {
	query :=
		`SELECT id, login, password_hash, name, created_at FROM tenants
		 WHERE login = $1
		 `

	tenant := &Tenant{}
	err := r.db.QueryRowContext(ctx, query, login).Scan(
		&tenant.ID, &tenant.Login, &tenant.PasswordHash, &tenant.Name, &tenant.CreatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("error performing sql request: %v", err)
	}

	return tenant, nil
}
