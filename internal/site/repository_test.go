// internal/site/repository_test.go
//
// Unit-tests for site queries using sqlmock.
//
// Run: go test ./internal/site -v

package site

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
)

func newMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return sqlx.NewDb(db, "sqlmock"), mock
}

var siteCols = []string{"id", "host", "title", "locale", "suspended_at", "deleted_at"}

func TestByHost(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(`FROM\s+site\s+WHERE .* host = \?`).
		WithArgs("example.com").
		WillReturnRows(sqlmock.NewRows(siteCols).AddRow(7, "example.com", "Example", "en_US", nil, nil))

	rec, err := ByHost(context.Background(), db, "example.com")
	if err != nil {
		t.Fatalf("ByHost: %v", err)
	}
	if rec.ID != 7 || rec.Title != "Example" {
		t.Fatalf("unexpected record: %+v", rec)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet SQL expectations: %v", err)
	}
}

func TestByHost_NoRows(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(`FROM\s+site`).
		WithArgs("nope.dev").
		WillReturnRows(sqlmock.NewRows(siteCols))

	_, err := ByHost(context.Background(), db, "nope.dev")
	if !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("err = %v, want sql.ErrNoRows", err)
	}
}

func TestAllActive(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(`FROM\s+site`).
		WillReturnRows(sqlmock.NewRows(siteCols).
			AddRow(1, "a.dev", "A", "en_US", nil, nil).
			AddRow(2, "b.dev", "B", "en_US", nil, nil))

	got, err := AllActive(context.Background(), db)
	if err != nil {
		t.Fatalf("AllActive: %v", err)
	}
	if len(got) != 2 || got[1].Host != "b.dev" {
		t.Fatalf("unexpected rows: %+v", got)
	}
}

func TestConfigBySite(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(`FROM\s+site_config`).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"key", "value"}).
			AddRow("HttpsRedirect:PageIds", "1,2").
			AddRow("theme", "base"))

	cfg, err := ConfigBySite(context.Background(), db, 7)
	if err != nil {
		t.Fatalf("ConfigBySite: %v", err)
	}
	if cfg["HttpsRedirect:PageIds"] != "1,2" || len(cfg) != 2 {
		t.Fatalf("unexpected map: %#v", cfg)
	}
}
