package db

import (
	"context"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
)

var tables = []string{"users", "user_skills", "exchange_requests", "conversations", "messages"}

func TestOpen(t *testing.T) {
	ctx := context.Background()
	path := t.TempDir() + "/test.db"

	db, err := Open(ctx, DriverSQLite, path+"?_pragma=foreign_keys(1)")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	for _, tbl := range tables {
		var name string
		err := db.QueryRow(`SELECT name FROM sqlite_master WHERE type='table' AND name=?`, tbl).Scan(&name)
		if err != nil {
			t.Errorf("table %q not found: %v", tbl, err)
		}
	}
	db.Close()

	// Running Open again on the same file should be idempotent (migrations are IF NOT EXISTS)
	db2, err := Open(ctx, DriverSQLite, path)
	if err != nil {
		t.Fatalf("second Open: %v", err)
	}
	db2.Close()
}

func TestOpen_UnsupportedDriver(t *testing.T) {
	if _, err := Open(context.Background(), "mysql", "whatever"); err == nil {
		t.Fatal("expected error for unsupported driver")
	}
}

func TestPendingRequestsAreUnique(t *testing.T) {
	ctx := context.Background()
	d, err := Open(ctx, DriverSQLite, "file:testdb_pending?mode=memory&cache=shared&_pragma=foreign_keys(1)")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer d.Close()

	for _, id := range []string{"a", "b"} {
		if _, err := d.Exec(`INSERT INTO users (id, email, password_hash, name) VALUES (?, ?, 'x', ?)`, id, id+"@t.test", id); err != nil {
			t.Fatalf("seed user: %v", err)
		}
	}
	insert := `INSERT INTO exchange_requests (id, from_id, to_id, skill_offered, skill_wanted, message, status)
	           VALUES (?, 'a', 'b', 'Guitar', 'Spanish', 'let us swap lessons', ?)`
	if _, err := d.Exec(insert, "r1", "pending"); err != nil {
		t.Fatalf("first pending: %v", err)
	}
	if _, err := d.Exec(insert, "r2", "pending"); err == nil {
		t.Fatal("expected unique violation for second pending request")
	}
	if _, err := d.Exec(insert, "r3", "rejected"); err != nil {
		t.Fatalf("non-pending duplicate should be allowed: %v", err)
	}
}

func TestStatements_PostgresTypes(t *testing.T) {
	joined := strings.Join(Statements(DriverPostgres), ";")
	if !strings.Contains(joined, "TIMESTAMPTZ") || strings.Contains(joined, "{{") {
		t.Errorf("postgres schema not substituted:\n%s", joined)
	}
	if strings.Contains(strings.Join(Statements(DriverSQLite), ";"), "TIMESTAMPTZ") {
		t.Error("sqlite schema must not use TIMESTAMPTZ")
	}
}

func TestMigrate_ExecutesEveryStatement(t *testing.T) {
	raw, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	defer raw.Close()

	stmts := Statements(DriverPostgres)
	for range stmts {
		mock.ExpectExec(".*").WillReturnResult(sqlmock.NewResult(0, 0))
	}

	if err := Migrate(context.Background(), sqlx.NewDb(raw, DriverPostgres)); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestImmediateTx(t *testing.T) {
	cases := map[string]string{
		"app.db":                          "app.db?_txlock=immediate",
		"app.db?_pragma=foreign_keys(1)":  "app.db?_pragma=foreign_keys(1)&_txlock=immediate",
		"app.db?_txlock=exclusive":        "app.db?_txlock=exclusive",
		"file:x?mode=memory&cache=shared": "file:x?mode=memory&cache=shared",
		":memory:":                        ":memory:",
	}
	for in, want := range cases {
		if got := immediateTx(in); got != want {
			t.Errorf("immediateTx(%q) = %q, want %q", in, got, want)
		}
	}
	if !strings.Contains(FileDSN("skillswap.db"), "_txlock=immediate") {
		t.Error("FileDSN must request immediate transactions")
	}
}
