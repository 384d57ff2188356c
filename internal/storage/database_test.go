package storage

import (
	"testing"
	"time"
)

func TestOpenAndMigrateSQLite(t *testing.T) {
	db, err := Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(1)

	if err := Migrate(db, "sqlite3"); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	// Migrations are idempotent.
	if err := Migrate(db, "sqlite3"); err != nil {
		t.Fatalf("second migrate: %v", err)
	}

	if _, err := db.Exec(
		`INSERT INTO users (email, name, created_at) VALUES (?, ?, ?)`,
		"a@example.com", "A", time.Now().UTC(),
	); err != nil {
		t.Fatalf("insert user: %v", err)
	}
}

func TestEmailUniqueConstraint(t *testing.T) {
	db, err := Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(1)
	if err := Migrate(db, "sqlite3"); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	now := time.Now().UTC()
	if _, err := db.Exec(
		`INSERT INTO users (email, name, created_at) VALUES (?, ?, ?)`,
		"dup@example.com", "First", now,
	); err != nil {
		t.Fatalf("first insert: %v", err)
	}
	if _, err := db.Exec(
		`INSERT INTO users (email, name, created_at) VALUES (?, ?, ?)`,
		"dup@example.com", "Second", now,
	); err == nil {
		t.Fatalf("expected unique constraint violation on duplicate email")
	}
}

func TestOpenUnsupportedDriver(t *testing.T) {
	if _, err := Open("postgres", "dsn"); err == nil {
		t.Fatalf("expected error for unsupported driver")
	}
}

func TestOpenEmptyDSN(t *testing.T) {
	if _, err := Open("sqlite3", ""); err == nil {
		t.Fatalf("expected error for empty dsn")
	}
}
