// Package db wires the document store's PostgreSQL repositories together
// and runs schema migrations on startup.
package db

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/mkaraca/dukkan/internal/server/documents"
	"github.com/mkaraca/dukkan/internal/server/migrations"
	"github.com/mkaraca/dukkan/internal/server/tenants"
)

type PostgresRepositoryManager struct {
	db        *sql.DB
	tenants   tenants.Repository
	documents documents.Repository
}

func (m *PostgresRepositoryManager) Conn() *sql.DB {
	return m.db
}

func (m *PostgresRepositoryManager) Tenants() tenants.Repository {
	return m.tenants
}

func (m *PostgresRepositoryManager) Documents() documents.Repository {
	return m.documents
}

func (m *PostgresRepositoryManager) RunMigrations(ctx context.Context) error {
	goose.SetBaseFS(migrations.Migrations)

	if err := goose.SetDialect("pgx"); err != nil {
		return err
	}

	if err := goose.UpContext(ctx, m.db, "."); err != nil {
		return err
	}

	return nil
}

func (m *PostgresRepositoryManager) Close() error {
	return m.db.Close()
}

func NewPostgresRepositoryManager(dsn string) (*PostgresRepositoryManager, error) {

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}

	tenantRepo, err := tenants.NewPostgresRepository(db)
	if err != nil {
		return nil, fmt.Errorf("tenant repo creation error: %w", err)
	}

	m := &PostgresRepositoryManager{
		db:        db,
		tenants:   tenantRepo,
		documents: documents.NewPostgresRepository(db),
	}

	if err := m.RunMigrations(context.Background()); err != nil {
		return nil, fmt.Errorf("migration error: %w", err)
	}

	return m, nil
}
