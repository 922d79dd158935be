package auth

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/atrium-ops/atrium-core/internal/audit"
)

// testDB creates a temporary SQLite database with the auth schema applied.
// The database file is cleaned up when the test completes.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	// Use a temp file so WAL mode works (in-memory doesn't support it)
	f, err := os.CreateTemp("", "auth-test-*.db")
	if err != nil {
		t.Fatalf("creating temp db: %v", err)
	}
	dbPath := f.Name()
	f.Close()
	t.Cleanup(func() { os.Remove(dbPath) })

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=ON")
	if err != nil {
		t.Fatalf("opening test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	migrationSQL := `
		CREATE TABLE corps (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			parent_corp_id TEXT,
			created_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now')),
			FOREIGN KEY (parent_corp_id) REFERENCES corps(id) ON DELETE SET NULL
		) STRICT;

		CREATE TABLE roles (
			id TEXT PRIMARY KEY,
			corp_id TEXT NOT NULL,
			name TEXT NOT NULL,
			perm TEXT NOT NULL,
			route TEXT,
			remark TEXT,
			status TEXT NOT NULL DEFAULT 'normal',
			created_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now')),
			updated_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now')),
			FOREIGN KEY (corp_id) REFERENCES corps(id) ON DELETE CASCADE
		) STRICT;

		CREATE TABLE accounts (
			id TEXT PRIMARY KEY,
			corp_id TEXT NOT NULL,
			role_id TEXT,
			username TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			name TEXT NOT NULL DEFAULT '',
			phone TEXT,
			status TEXT NOT NULL DEFAULT 'normal',
			created_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now')),
			updated_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now')),
			FOREIGN KEY (corp_id) REFERENCES corps(id) ON DELETE CASCADE,
			FOREIGN KEY (role_id) REFERENCES roles(id) ON DELETE SET NULL
		) STRICT;

		CREATE UNIQUE INDEX idx_accounts_username ON accounts(username);

		CREATE TABLE login_logs (
			id TEXT PRIMARY KEY,
			account_id TEXT,
			username TEXT NOT NULL,
			ip TEXT NOT NULL DEFAULT '',
			user_agent TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL,
			extra TEXT,
			created_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now')),
			FOREIGN KEY (account_id) REFERENCES accounts(id) ON DELETE SET NULL
		) STRICT;
	`
	if _, err := db.Exec(migrationSQL); err != nil {
		t.Fatalf("applying auth migration: %v", err)
	}

	return db
}

// seedTestCorps inserts a top-level corp and a subsidiary for join tests.
func seedTestCorps(t *testing.T, db *sql.DB) {
	t.Helper()

	_, err := db.Exec(`
		INSERT INTO corps (id, name, parent_corp_id) VALUES ('corp-top', 'Head Office', NULL);
		INSERT INTO corps (id, name, parent_corp_id) VALUES ('corp-sub', 'Regional Branch', 'corp-top');
		INSERT INTO roles (id, corp_id, name, perm) VALUES ('role-admin', 'corp-top', 'Administrator', 'admin');
		INSERT INTO roles (id, corp_id, name, perm) VALUES ('role-demo', 'corp-top', 'Demo', 'demo');
	`)
	if err != nil {
		t.Fatalf("seeding test corps: %v", err)
	}
}

// seedTestAccount inserts an account with the given username, role and corp.
func seedTestAccount(t *testing.T, db *sql.DB, username, roleID, corpID string) *Account {
	t.Helper()

	hash, err := HashPassword("test-password")
	if err != nil {
		t.Fatalf("hashing password: %v", err)
	}

	repo := NewAccountRepository(db)
	account := &Account{
		CorpID:       corpID,
		RoleID:       roleID,
		Username:     username,
		PasswordHash: hash,
		Name:         username,
		Status:       StatusNormal,
	}
	if err := repo.Create(context.Background(), account); err != nil {
		t.Fatalf("creating test account %s: %v", username, err)
	}
	return account
}

// testLogger returns a logger that discards output.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestManager wires a manager over the given database using the in-memory
// store, a short throttle window and a test realm.
func newTestManager(t *testing.T, db *sql.DB) (*Manager, *MemoryStore) {
	t.Helper()

	store := NewMemoryStore()
	accounts := NewAccountRepository(db)
	throttle := NewThrottle(store, 5, 30*time.Minute)
	verifier := NewVerifier(accounts, throttle)
	issuer := NewTokenIssuer("test-secret-test-secret-test-secret", "backoffice", time.Hour)
	logins := audit.NewSQLiteRepository(db)

	mgr := NewManager(accounts, verifier, issuer, store, logins, testLogger(),
		ManagerOptions{Realm: "backoffice"})
	return mgr, store
}
