// Package audit provides access to the login_logs table: the login audit
// trail and, for successful logins, the source of session fingerprints.
package audit

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Login outcome values stored in the status column.
const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

// LoginLog represents a single login attempt, successful or not.
//
// For successful logins the row ID doubles as the session fingerprint: it is
// embedded in the issued token and forms the final segment of the Redis
// session key, so each login gets its own independently revocable session.
type LoginLog struct {
	ID        string    `json:"id"`
	AccountID string    `json:"account_id,omitempty"`
	Username  string    `json:"username"`
	IP        string    `json:"ip,omitempty"`
	UserAgent string    `json:"user_agent,omitempty"`
	Status    string    `json:"status"`
	Extra     string    `json:"extra,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Filter controls which login logs to return.
type Filter struct {
	AccountID string // optional: filter by account
	Username  string // optional: filter by username (stored lowercase)
	Status    string // optional: success or failed
	Limit     int    // default 50, max 200
	Offset    int    // pagination offset
}

// ListResult contains the paginated login log results.
type ListResult struct {
	Logs   []LoginLog `json:"logs"`
	Total  int        `json:"total"`
	Limit  int        `json:"limit"`
	Offset int        `json:"offset"`
}

// Repository defines the interface for login log operations.
type Repository interface {
	Create(ctx context.Context, log *LoginLog) error
	List(ctx context.Context, filter Filter) (*ListResult, error)
	PruneOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// SQLiteRepository stores login logs in SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new login log repository.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Create inserts a new login log entry. The ID and CreatedAt are generated if
// empty; callers that need the fingerprint read log.ID back after the call.
func (r *SQLiteRepository) Create(ctx context.Context, log *LoginLog) error {
	if log.ID == "" {
		log.ID = "llg-" + uuid.NewString()[:8]
	}
	if log.CreatedAt.IsZero() {
		log.CreatedAt = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO login_logs (id, account_id, username, ip, user_agent, status, extra, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		log.ID, nullableString(log.AccountID), log.Username,
		log.IP, log.UserAgent, log.Status,
		nullableString(log.Extra),
		log.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting login log: %w", err)
	}

	return nil
}

// nullableString returns nil for empty strings, or the string otherwise.
// Used for nullable TEXT columns in SQLite.
func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// List returns login logs matching the filter, ordered by most recent first.
func (r *SQLiteRepository) List(ctx context.Context, filter Filter) (*ListResult, error) { //nolint:gocognit,gocyclo // dynamic query builder: WHERE clause assembly from filter fields
	// Clamp limit.
	if filter.Limit <= 0 {
		filter.Limit = 50
	}
	if filter.Limit > 200 { //nolint:mnd // max page size for login log queries
		filter.Limit = 200
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	// Build WHERE clause dynamically.
	var conditions []string
	var args []any

	if filter.AccountID != "" {
		conditions = append(conditions, "account_id = ?")
		args = append(args, filter.AccountID)
	}
	if filter.Username != "" {
		conditions = append(conditions, "username = ?")
		args = append(args, strings.ToLower(filter.Username))
	}
	if filter.Status != "" {
		conditions = append(conditions, "status = ?")
		args = append(args, filter.Status)
	}

	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	// Get total count.
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM login_logs %s", where) //nolint:gosec // WHERE built from parameterised conditions, not user input
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("counting login logs: %w", err)
	}

	// Get paginated results.
	query := fmt.Sprintf( //nolint:gosec // WHERE built from parameterised conditions, not user input
		"SELECT id, account_id, username, ip, user_agent, status, extra, created_at FROM login_logs %s ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?",
		where,
	)
	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying login logs: %w", err)
	}
	defer rows.Close()

	var logs []LoginLog
	for rows.Next() {
		var log LoginLog
		var accountID, extra sql.NullString
		var createdAt string

		if err := rows.Scan(&log.ID, &accountID, &log.Username,
			&log.IP, &log.UserAgent, &log.Status, &extra, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning login log: %w", err)
		}

		if accountID.Valid {
			log.AccountID = accountID.String
		}
		if extra.Valid {
			log.Extra = extra.String
		}

		t, err := time.Parse(time.RFC3339, createdAt)
		if err != nil {
			return nil, fmt.Errorf("parsing login log timestamp %q: %w", createdAt, err)
		}
		log.CreatedAt = t

		logs = append(logs, log)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating login logs: %w", err)
	}

	if logs == nil {
		logs = []LoginLog{}
	}

	return &ListResult{
		Logs:   logs,
		Total:  total,
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}, nil
}

// PruneOlderThan deletes login logs created before the cutoff and returns the
// number of rows removed. Called by the retention job, never on request paths.
func (r *SQLiteRepository) PruneOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		"DELETE FROM login_logs WHERE created_at < ?",
		cutoff.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return 0, fmt.Errorf("pruning login logs: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("counting pruned login logs: %w", err)
	}

	return n, nil
}
