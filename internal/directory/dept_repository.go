package directory

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// DeptRepository defines the interface for department persistence.
type DeptRepository interface {
	Create(ctx context.Context, dept *Dept) error
	ListByCorp(ctx context.Context, corpID string) ([]Dept, error)
}

// SQLiteDeptRepository implements DeptRepository using SQLite.
type SQLiteDeptRepository struct {
	db *sql.DB
}

// NewDeptRepository creates a new SQLite-backed department repository.
func NewDeptRepository(db *sql.DB) *SQLiteDeptRepository {
	return &SQLiteDeptRepository{db: db}
}

// Create inserts a new department. The ID is generated if empty.
func (r *SQLiteDeptRepository) Create(ctx context.Context, dept *Dept) error {
	if dept.ID == "" {
		dept.ID = "dep-" + uuid.NewString()[:8]
	}

	now := time.Now().UTC().Format(time.RFC3339)
	dept.CreatedAt, _ = time.Parse(time.RFC3339, now) //nolint:errcheck // format is controlled
	dept.UpdatedAt = dept.CreatedAt

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO depts (id, corp_id, parent_dept_id, name, sort, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		dept.ID, dept.CorpID, nullString(dept.ParentDeptID),
		dept.Name, dept.Sort, now, now,
	)
	if err != nil {
		return fmt.Errorf("creating department: %w", err)
	}
	return nil
}

// ListByCorp returns the corp's departments as a flat collection.
func (r *SQLiteDeptRepository) ListByCorp(ctx context.Context, corpID string) ([]Dept, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, corp_id, parent_dept_id, name, sort, created_at, updated_at
		 FROM depts WHERE corp_id = ?`, corpID)
	if err != nil {
		return nil, fmt.Errorf("querying departments: %w", err)
	}
	defer rows.Close()

	var depts []Dept
	for rows.Next() {
		var d Dept
		var parentID sql.NullString
		var createdAt, updatedAt string

		if err := rows.Scan(&d.ID, &d.CorpID, &parentID, &d.Name, &d.Sort,
			&createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("scanning department: %w", err)
		}

		if parentID.Valid {
			d.ParentDeptID = parentID.String
		}
		d.CreatedAt, _ = time.Parse(time.RFC3339, createdAt) //nolint:errcheck // format is controlled
		d.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt) //nolint:errcheck // format is controlled

		depts = append(depts, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating departments: %w", err)
	}

	if depts == nil {
		depts = []Dept{}
	}
	return depts, nil
}
