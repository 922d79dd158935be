package directory

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// MenuRepository defines the interface for menu persistence.
type MenuRepository interface {
	Create(ctx context.Context, menu *SysMenu) error
	ListAll(ctx context.Context) ([]SysMenu, error)
	ListGranted(ctx context.Context, permissions []string, kinds []MenuKind) ([]SysMenu, error)
}

const menuColumns = "id, parent_menu_id, name, permission, type, meta, status, created_at, updated_at"

// SQLiteMenuRepository implements MenuRepository using SQLite.
type SQLiteMenuRepository struct {
	db *sql.DB
}

// NewMenuRepository creates a new SQLite-backed menu repository.
func NewMenuRepository(db *sql.DB) *SQLiteMenuRepository {
	return &SQLiteMenuRepository{db: db}
}

// Create inserts a new menu. The ID is generated if empty.
func (r *SQLiteMenuRepository) Create(ctx context.Context, menu *SysMenu) error {
	if menu.ID == "" {
		menu.ID = "mnu-" + uuid.NewString()[:8]
	}
	if menu.Kind == "" {
		menu.Kind = KindMenu
	}
	if menu.Status == "" {
		menu.Status = StatusNormal
	}

	meta, err := json.Marshal(menu.Meta)
	if err != nil {
		return fmt.Errorf("encoding menu meta: %w", err)
	}

	now := time.Now().UTC().Format(time.RFC3339)
	menu.CreatedAt, _ = time.Parse(time.RFC3339, now) //nolint:errcheck // format is controlled
	menu.UpdatedAt = menu.CreatedAt

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO sys_menus (id, parent_menu_id, name, permission, type, meta, status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		menu.ID, nullString(menu.ParentMenuID), menu.Name,
		nullString(menu.Permission), string(menu.Kind), string(meta),
		menu.Status, now, now,
	)
	if err != nil {
		return fmt.Errorf("creating menu: %w", err)
	}
	return nil
}

// ListAll returns every menu as a flat collection, for admin tree views.
func (r *SQLiteMenuRepository) ListAll(ctx context.Context) ([]SysMenu, error) {
	return r.listMenus(ctx, "SELECT "+menuColumns+" FROM sys_menus")
}

// ListGranted returns active menus whose permission is in the granted set,
// optionally restricted by kind. Feeds the per-user menu tree.
func (r *SQLiteMenuRepository) ListGranted(ctx context.Context, permissions []string, kinds []MenuKind) ([]SysMenu, error) {
	if len(permissions) == 0 {
		return []SysMenu{}, nil
	}

	query := "SELECT " + menuColumns + " FROM sys_menus WHERE status = ? AND permission IN (" +
		placeholders(len(permissions)) + ")"
	args := []any{StatusNormal}
	for _, p := range permissions {
		args = append(args, p)
	}

	if len(kinds) > 0 {
		query += " AND type IN (" + placeholders(len(kinds)) + ")"
		for _, k := range kinds {
			args = append(args, string(k))
		}
	}

	return r.listMenus(ctx, query, args...)
}

func (r *SQLiteMenuRepository) listMenus(ctx context.Context, query string, args ...any) ([]SysMenu, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying menus: %w", err)
	}
	defer rows.Close()

	var menus []SysMenu
	for rows.Next() {
		var m SysMenu
		var parentID, permission sql.NullString
		var kind, meta, createdAt, updatedAt string

		if err := rows.Scan(&m.ID, &parentID, &m.Name, &permission, &kind, &meta,
			&m.Status, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("scanning menu: %w", err)
		}

		if parentID.Valid {
			m.ParentMenuID = parentID.String
		}
		if permission.Valid {
			m.Permission = permission.String
		}
		m.Kind = MenuKind(kind)
		if meta != "" {
			if err := json.Unmarshal([]byte(meta), &m.Meta); err != nil {
				return nil, fmt.Errorf("decoding meta for menu %s: %w", m.ID, err)
			}
		}
		m.CreatedAt, _ = time.Parse(time.RFC3339, createdAt) //nolint:errcheck // format is controlled
		m.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt) //nolint:errcheck // format is controlled

		menus = append(menus, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating menus: %w", err)
	}

	if menus == nil {
		menus = []SysMenu{}
	}
	return menus, nil
}

// Helper functions.

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}
