package auth

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"
)

// seedPasswordBytes is the number of random bytes for the seed admin password.
const seedPasswordBytes = 16

// Fixed IDs for the seed records so re-runs are recognisable in the schema.
const (
	seedCorpID = "crp-root"
	seedRoleID = "rol-super"
)

// SeedSuperAdmin creates the initial corp, super-admin role and admin account
// on first boot if no accounts exist. The generated password is logged — it
// must be changed immediately.
// Returns the generated password (empty string if seeding was skipped).
func SeedSuperAdmin(ctx context.Context, db *sql.DB, accounts AccountRepository, logger *slog.Logger) (string, error) {
	count, err := accounts.Count(ctx)
	if err != nil {
		return "", fmt.Errorf("checking account count: %w", err)
	}

	if count > 0 {
		logger.Info("accounts exist, skipping super admin seed")
		return "", nil
	}

	// Generate a random password
	passwordBytes := make([]byte, seedPasswordBytes)
	if _, err := rand.Read(passwordBytes); err != nil { //nolint:govet // shadow: err re-declared in nested scope
		return "", fmt.Errorf("generating seed password: %w", err)
	}
	password := hex.EncodeToString(passwordBytes)

	hash, err := HashPassword(password)
	if err != nil {
		return "", fmt.Errorf("hashing seed password: %w", err)
	}

	now := time.Now().UTC().Format(time.RFC3339)
	if _, err := db.ExecContext(ctx,
		`INSERT OR IGNORE INTO corps (id, name, parent_corp_id, created_at) VALUES (?, ?, NULL, ?)`,
		seedCorpID, "Head Office", now,
	); err != nil {
		return "", fmt.Errorf("creating seed corp: %w", err)
	}

	if _, err := db.ExecContext(ctx,
		`INSERT OR IGNORE INTO roles (id, corp_id, name, perm, remark, status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		seedRoleID, seedCorpID, "Super Admin", "admin",
		"seeded on first boot", string(StatusNormal), now, now,
	); err != nil {
		return "", fmt.Errorf("creating seed role: %w", err)
	}

	admin := &Account{
		CorpID:       seedCorpID,
		RoleID:       seedRoleID,
		Username:     "admin",
		PasswordHash: hash,
		Name:         "System Administrator",
		Status:       StatusNormal,
	}
	if err := accounts.Create(ctx, admin); err != nil {
		return "", fmt.Errorf("creating seed admin: %w", err)
	}

	logger.Warn("seed admin account created",
		"username", "admin",
		"password", password,
		"action_required", "change this password immediately",
	)

	return password, nil
}
