package documents

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

func testDoc() *Document {
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	return &Document{
		ID:             "d1",
		Kind:           "customers",
		BusinessID:     "b1",
		Data:           json.RawMessage(`{"fullName":"Ayşe"}`),
		CreatedAt:      now,
		UpdatedAt:      now,
		IsActive:       true,
		LastModifiedBy: "device-a",
	}
}

func TestUpsert_SuccessRowsAffected1(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := regexp.MustCompile(`INSERT INTO documents .* ON CONFLICT .* DO UPDATE SET .* WHERE documents\.business_id = EXCLUDED\.business_id;`)

	doc := testDoc()
	mock.ExpectExec(q.String()).
		WithArgs(doc.ID, doc.Kind, doc.BusinessID, []byte(doc.Data), doc.CreatedAt, doc.UpdatedAt, doc.IsActive, doc.LastModifiedBy).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.Upsert(context.Background(), doc); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUpsert_TenantMismatchRowsAffected0(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := regexp.MustCompile(`INSERT INTO documents .* ON CONFLICT .* DO UPDATE SET .* WHERE documents\.business_id = EXCLUDED\.business_id;`)

	doc := testDoc()
	mock.ExpectExec(q.String()).
		WithArgs(doc.ID, doc.Kind, doc.BusinessID, []byte(doc.Data), doc.CreatedAt, doc.UpdatedAt, doc.IsActive, doc.LastModifiedBy).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Upsert(context.Background(), doc)
	if !errors.Is(err, ErrTenantMismatch) {
		t.Fatalf("want ErrTenantMismatch, got %v", err)
	}
}

func TestUpsert_DBExecError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := regexp.MustCompile(`INSERT INTO documents .* ON CONFLICT .*`)

	doc := testDoc()
	mock.ExpectExec(q.String()).
		WithArgs(doc.ID, doc.Kind, doc.BusinessID, []byte(doc.Data), doc.CreatedAt, doc.UpdatedAt, doc.IsActive, doc.LastModifiedBy).
		WillReturnError(errors.New("db is down"))

	err := repo.Upsert(context.Background(), doc)
	if err == nil || !regexp.MustCompile(`db error: .*db is down`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestDeactivate_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := regexp.MustCompile(`UPDATE documents\s+SET is_active = FALSE.*WHERE kind = \$1 AND id = \$2 AND business_id = \$3;`)

	mock.ExpectExec(q.String()).
		WithArgs("customers", "d1", "b1", "device-a").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.Deactivate(context.Background(), "customers", "d1", "b1", "device-a"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestDeactivate_MissingRowIsNoop(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := regexp.MustCompile(`UPDATE documents\s+SET is_active = FALSE`)

	mock.ExpectExec(q.String()).
		WithArgs("customers", "missing", "b1", "device-a").
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := repo.Deactivate(context.Background(), "customers", "missing", "b1", "device-a"); err != nil {
		t.Fatalf("expected nil for missing row, got %v", err)
	}
}

func TestListActive_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := regexp.MustCompile(`SELECT id, kind, business_id, data, created_at, updated_at, is_active, last_modified_by from documents\s+WHERE kind=\$1 and business_id=\$2 and is_active=TRUE`)

	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{
		"id", "kind", "business_id", "data", "created_at", "updated_at", "is_active", "last_modified_by",
	}).AddRow(
		"d1", "customers", "b1", []byte(`{"fullName":"Ayşe"}`), now, now, true, "device-a",
	).AddRow(
		"d2", "customers", "b1", []byte(`{"fullName":"Mehmet"}`), now, now.Add(time.Minute), true, "device-b",
	)

	mock.ExpectQuery(q.String()).
		WithArgs("customers", "b1").
		WillReturnRows(rows)

	got, err := repo.ListActive(context.Background(), "customers", "b1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("want 2 rows, got %d", len(got))
	}
	if got[0].ID != "d1" || got[0].LastModifiedBy != "device-a" {
		t.Fatalf("unexpected first row: %+v", got[0])
	}
	if got[1].ID != "d2" || !got[1].UpdatedAt.After(got[1].CreatedAt) {
		t.Fatalf("unexpected second row: %+v", got[1])
	}
}

func TestListActive_QueryError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := regexp.MustCompile(`SELECT id, kind, business_id, data, .* from documents`)

	mock.ExpectQuery(q.String()).
		WithArgs("customers", "b1").
		WillReturnError(errors.New("db err"))

	_, err := repo.ListActive(context.Background(), "customers", "b1")
	if err == nil || !regexp.MustCompile(`failed to select documents: .*db err`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped select error, got %v", err)
	}
}

func TestListActive_RowsErr(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := regexp.MustCompile(`SELECT id, kind, business_id, data, .* from documents`)

	now := time.Now()
	rows := sqlmock.NewRows([]string{
		"id", "kind", "business_id", "data", "created_at", "updated_at", "is_active", "last_modified_by",
	}).
		AddRow("d1", "customers", "b1", []byte(`{}`), now, now, true, "device-a").
		AddRow("d2", "customers", "b1", []byte(`{}`), now, now, true, "device-a").
		RowError(1, errors.New("row-err"))

	mock.ExpectQuery(q.String()).
		WithArgs("customers", "b1").
		WillReturnRows(rows)

	_, err := repo.ListActive(context.Background(), "customers", "b1")
	if err == nil || err.Error() != "row-err" {
		t.Fatalf("expected rows.Err 'row-err', got %v", err)
	}
}
