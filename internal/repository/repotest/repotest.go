// Package repotest opens throwaway in-memory databases with the same tables
// the MySQL migrations create, for use in tests.
package repotest

import (
	"testing"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE accounts (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	email         TEXT     NOT NULL UNIQUE,
	full_name     TEXT     NOT NULL,
	role          TEXT     NOT NULL DEFAULT 'Student',
	password_hash TEXT     NOT NULL,
	is_active     BOOLEAN  NOT NULL DEFAULT 1,
	target_band   REAL     NULL,
	created_at    DATETIME NOT NULL,
	updated_at    DATETIME NOT NULL
);
CREATE TABLE refresh_tokens (
	id                     INTEGER PRIMARY KEY AUTOINCREMENT,
	account_id             INTEGER  NOT NULL REFERENCES accounts (id),
	token_hash             TEXT     NOT NULL,
	expires_at             DATETIME NOT NULL,
	created_at             DATETIME NOT NULL,
	revoked_at             DATETIME NULL,
	replaced_by_token_hash TEXT     NULL,
	UNIQUE (account_id, token_hash),
	UNIQUE (token_hash)
);
`

// NewDB returns an empty in-memory database with the accounts and
// refresh_tokens tables.  A single connection is used because every
// connection to ":memory:" would otherwise see its own empty database.
func NewDB(t testing.TB) *sqlx.DB {
	t.Helper()
	db, err := sqlx.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		t.Fatalf("create schema: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}
