package rbac

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/atrium-ops/atrium-core/internal/directory"
)

// Sentinel errors for permission resolution.
var (
	// ErrAccountNotFound means the account id doesn't exist.
	ErrAccountNotFound = errors.New("account not found")

	// ErrNoRole means the account exists but has no role assigned — a
	// configuration error, not an authentication failure.
	ErrNoRole = errors.New("account has no assigned role")
)

// Resolver turns roles into effective permission sets through the
// role_menu_configs join table.
//
// Join rows reference menus by permission string and may dangle after a menu
// is deleted; the INNER JOIN silently drops them, which is the required
// behaviour — a dangling grant is simply no permission.
type Resolver struct {
	db *sql.DB
}

// NewResolver creates a permission resolver.
func NewResolver(db *sql.DB) *Resolver {
	return &Resolver{db: db}
}

// PermCodesForAccount returns the distinct permission codes reachable from
// the account's role, optionally restricted to one menu kind (e.g. only
// button codes for fine-grained action checks). Menus without a permission
// never appear.
func (r *Resolver) PermCodesForAccount(ctx context.Context, accountID string, kind directory.MenuKind) ([]string, error) {
	var roleID sql.NullString
	err := r.db.QueryRowContext(ctx,
		"SELECT role_id FROM accounts WHERE id = ?", accountID).Scan(&roleID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("looking up account %s: %w", accountID, err)
	}
	if !roleID.Valid || roleID.String == "" {
		return nil, ErrNoRole
	}

	query := `SELECT DISTINCT m.permission
		FROM role_menu_configs rmc
		JOIN sys_menus m ON m.permission = rmc.sys_menu_perm
		WHERE rmc.role_id = ? AND m.permission IS NOT NULL`
	args := []any{roleID.String}
	if kind != "" {
		query += " AND m.type = ?"
		args = append(args, string(kind))
	}
	query += " ORDER BY m.permission"

	return r.queryStrings(ctx, query, args...)
}

// MenuIDsForRole returns the ids of the menus currently granted to the role.
// Feeds the role editor, which works in menu ids rather than permission
// strings.
func (r *Resolver) MenuIDsForRole(ctx context.Context, roleID string) ([]string, error) {
	return r.queryStrings(ctx,
		`SELECT DISTINCT m.id
		 FROM role_menu_configs rmc
		 JOIN sys_menus m ON m.permission = rmc.sys_menu_perm
		 WHERE rmc.role_id = ?
		 ORDER BY m.id`,
		roleID)
}

// ReplaceRolePerms rewrites the role's grants from a set of menu ids in one
// transaction: existing grants are deleted, then one row is inserted per
// selected menu that actually carries a permission. Menus without permissions
// (catalogs) are skipped.
func (r *Resolver) ReplaceRolePerms(ctx context.Context, roleID string, menuIDs []string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting grant rewrite: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM role_menu_configs WHERE role_id = ?", roleID); err != nil {
		return fmt.Errorf("clearing grants for role %s: %w", roleID, err)
	}

	if len(menuIDs) > 0 {
		query := "SELECT DISTINCT permission FROM sys_menus WHERE permission IS NOT NULL AND id IN (" +
			placeholders(len(menuIDs)) + ")"
		args := make([]any, len(menuIDs))
		for i, id := range menuIDs {
			args[i] = id
		}

		rows, err := tx.QueryContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("resolving menu permissions: %w", err)
		}
		var perms []string
		for rows.Next() {
			var p string
			if err := rows.Scan(&p); err != nil {
				rows.Close()
				return fmt.Errorf("scanning menu permission: %w", err)
			}
			perms = append(perms, p)
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return fmt.Errorf("iterating menu permissions: %w", err)
		}
		rows.Close()

		now := time.Now().UTC().Format(time.RFC3339)
		for _, perm := range perms {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO role_menu_configs (id, role_id, sys_menu_perm, created_at)
				 VALUES (?, ?, ?, ?)`,
				"rmc-"+uuid.NewString()[:8], roleID, perm, now); err != nil {
				return fmt.Errorf("inserting grant %s for role %s: %w", perm, roleID, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing grant rewrite: %w", err)
	}
	return nil
}

// queryStrings runs a single-column string query.
func (r *Resolver) queryStrings(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying permissions: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("scanning permission: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating permissions: %w", err)
	}

	if out == nil {
		out = []string{}
	}
	return out, nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}
