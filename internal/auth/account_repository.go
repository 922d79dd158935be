package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// AccountRepository defines the interface for account persistence.
type AccountRepository interface {
	Create(ctx context.Context, account *Account) error
	GetByID(ctx context.Context, id string) (*Account, error)
	GetByUsername(ctx context.Context, username string) (*Account, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	Count(ctx context.Context) (int, error)
}

// accountColumns is the shared SELECT list: account fields plus the joined
// role permission and top-corp flag (corp with no parent).
const accountColumns = `
	a.id, a.corp_id, a.role_id, a.username, a.password_hash, a.name, a.phone,
	a.status, a.created_at, a.updated_at,
	COALESCE(r.perm, ''),
	CASE WHEN c.parent_corp_id IS NULL THEN 1 ELSE 0 END`

const accountJoins = `
	FROM accounts a
	LEFT JOIN roles r ON r.id = a.role_id
	LEFT JOIN corps c ON c.id = a.corp_id`

// SQLiteAccountRepository implements AccountRepository using SQLite.
type SQLiteAccountRepository struct {
	db *sql.DB
}

// NewAccountRepository creates a new SQLite-backed account repository.
func NewAccountRepository(db *sql.DB) *SQLiteAccountRepository {
	return &SQLiteAccountRepository{db: db}
}

// Create inserts a new account. The ID is generated if empty; the username is
// stored lowercase so lookups are case-insensitive.
func (r *SQLiteAccountRepository) Create(ctx context.Context, account *Account) error {
	if account.ID == "" {
		account.ID = "acc-" + uuid.NewString()[:8]
	}
	if account.Status == "" {
		account.Status = StatusNormal
	}
	account.Username = strings.ToLower(account.Username)

	now := time.Now().UTC().Format(time.RFC3339)
	account.CreatedAt, _ = time.Parse(time.RFC3339, now) //nolint:errcheck // format is controlled
	account.UpdatedAt = account.CreatedAt

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO accounts (id, corp_id, role_id, username, password_hash, name, phone, status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		account.ID, account.CorpID, nullString(account.RoleID),
		account.Username, account.PasswordHash, account.Name,
		nullString(account.Phone), string(account.Status), now, now,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrUsernameExists
		}
		return fmt.Errorf("creating account: %w", err)
	}

	return nil
}

// GetByID retrieves an account by its unique ID.
func (r *SQLiteAccountRepository) GetByID(ctx context.Context, id string) (*Account, error) {
	return r.getAccount(ctx,
		"SELECT"+accountColumns+accountJoins+" WHERE a.id = ?", id)
}

// GetByUsername retrieves an account by username. The lookup is
// case-insensitive: usernames are persisted lowercase and the argument is
// lowercased before comparison.
func (r *SQLiteAccountRepository) GetByUsername(ctx context.Context, username string) (*Account, error) {
	return r.getAccount(ctx,
		"SELECT"+accountColumns+accountJoins+" WHERE a.username = ?",
		strings.ToLower(username))
}

// UpdatePassword changes an account's password hash.
func (r *SQLiteAccountRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	now := time.Now().UTC().Format(time.RFC3339)

	result, err := r.db.ExecContext(ctx,
		`UPDATE accounts SET password_hash = ?, updated_at = ? WHERE id = ?`,
		passwordHash, now, id,
	)
	if err != nil {
		return fmt.Errorf("updating password: %w", err)
	}

	rows, _ := result.RowsAffected() //nolint:errcheck // always succeeds on SQLite
	if rows == 0 {
		return ErrAccountNotFound
	}
	return nil
}

// Count returns the total number of accounts.
func (r *SQLiteAccountRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM accounts").Scan(&count); err != nil {
		return 0, fmt.Errorf("counting accounts: %w", err)
	}
	return count, nil
}

// getAccount executes a query and scans a single account result.
func (r *SQLiteAccountRepository) getAccount(ctx context.Context, query string, args ...any) (*Account, error) {
	var a Account
	var roleID, phone sql.NullString
	var status string
	var isTopCorp int
	var createdAt, updatedAt string

	err := r.db.QueryRowContext(ctx, query, args...).Scan(
		&a.ID, &a.CorpID, &roleID, &a.Username, &a.PasswordHash, &a.Name, &phone,
		&status, &createdAt, &updatedAt,
		&a.RolePerm, &isTopCorp,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("scanning account: %w", err)
	}

	a.Status = Status(status)
	a.IsTopCorp = isTopCorp != 0
	if roleID.Valid {
		a.RoleID = roleID.String
	}
	if phone.Valid {
		a.Phone = phone.String
	}

	a.CreatedAt, _ = time.Parse(time.RFC3339, createdAt) //nolint:errcheck // format is controlled
	a.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt) //nolint:errcheck // format is controlled

	return &a, nil
}

// Helper functions.

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// isUniqueViolation checks if a SQLite error is a UNIQUE constraint violation.
func isUniqueViolation(err error) bool {
	return err != nil && (strings.Contains(err.Error(), "UNIQUE constraint failed") ||
		strings.Contains(err.Error(), "unique constraint"))
}
