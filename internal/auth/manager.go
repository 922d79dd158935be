package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/atrium-ops/atrium-core/internal/audit"
)

// defaultExpiryGrace pads session expiry past token expiry so a session
// never dies strictly before its token.
const defaultExpiryGrace = 30 * time.Second

// Manager orchestrates sign-in, sign-out and session validation. It is the
// only writer of session keys; the store never holds a session the manager
// didn't create.
type Manager struct {
	accounts AccountRepository
	verifier *Verifier
	issuer   *TokenIssuer
	store    Store
	logins   audit.Repository
	logger   *slog.Logger

	realm       string
	expiryGrace time.Duration
}

// ManagerOptions configures a session manager.
type ManagerOptions struct {
	// Realm is the first segment of every session key this manager writes.
	Realm string

	// ExpiryGrace pads the session's store expiry beyond the token expiry.
	// Zero means the 30-second default.
	ExpiryGrace time.Duration
}

// NewManager creates a session manager.
func NewManager(accounts AccountRepository, verifier *Verifier, issuer *TokenIssuer,
	store Store, logins audit.Repository, logger *slog.Logger, opts ManagerOptions) *Manager {
	grace := opts.ExpiryGrace
	if grace <= 0 {
		grace = defaultExpiryGrace
	}
	return &Manager{
		accounts:    accounts,
		verifier:    verifier,
		issuer:      issuer,
		store:       store,
		logins:      logins,
		logger:      logger,
		realm:       opts.Realm,
		expiryGrace: grace,
	}
}

// SignIn authenticates the credentials and establishes a new session.
//
// Steps run strictly in order: verify → record the login (the log row's id
// becomes this session's fingerprint) → issue token → write the session
// payload in one atomic set-with-expiry. Each login gets a fresh fingerprint,
// so the same account on three devices holds three independently revocable
// sessions.
//
// Verification failures are audit-logged best-effort and propagated
// unchanged. SignIn never returns success without a live session in the
// store.
func (m *Manager) SignIn(ctx context.Context, username, password string, rc RequestContext) (*SignInResult, error) {
	account, err := m.verifier.Verify(ctx, username, password)
	if err != nil {
		m.recordLogin(ctx, &audit.LoginLog{
			Username:  username,
			IP:        rc.IP,
			UserAgent: rc.UserAgent,
			Status:    audit.StatusFailed,
			Extra:     err.Error(),
		})
		return nil, err
	}

	// The success row is not best-effort: its id is the fingerprint, so
	// without it there is no session to create.
	entry := &audit.LoginLog{
		AccountID: account.ID,
		Username:  account.Username,
		IP:        rc.IP,
		UserAgent: rc.UserAgent,
		Status:    audit.StatusSuccess,
	}
	if err := m.logins.Create(ctx, entry); err != nil {
		return nil, fmt.Errorf("recording login for %s: %w", account.Username, err)
	}
	fingerprint := entry.ID

	now := time.Now().UTC()
	expiresAt := now.Add(m.issuer.TTL())

	token, err := m.issuer.Issue(account.ID, fingerprint, expiresAt)
	if err != nil {
		return nil, err
	}

	session := &Session{
		AccountID:     account.ID,
		CorpID:        account.CorpID,
		Role:          account.RolePerm,
		Username:      account.Username,
		Fingerprint:   fingerprint,
		LastLoginTime: now,
		IsTopCorp:     account.IsTopCorp,
	}
	if err := m.putSession(ctx, session, expiresAt); err != nil {
		return nil, err
	}

	roles := []string{}
	if account.RolePerm != "" {
		roles = append(roles, account.RolePerm)
	}

	return &SignInResult{
		AccountID: account.ID,
		Roles:     roles,
		Token:     token,
	}, nil
}

// Validate looks up the exact session key and returns the stored identity.
// An absent key — never signed in, signed out, or expired — is
// ErrSessionNotFound; the caller treats all three the same.
func (m *Manager) Validate(ctx context.Context, key SessionKey) (*Session, error) {
	payload, err := m.store.Get(ctx, key.String())
	if err != nil {
		return nil, err
	}

	var session Session
	if err := json.Unmarshal(payload, &session); err != nil {
		return nil, fmt.Errorf("decoding session %s: %w", key.String(), err)
	}
	return &session, nil
}

// SignOut deletes the session's single fingerprinted key. Idempotent: signing
// out an already-absent session succeeds. Other sessions of the same account
// are untouched.
func (m *Manager) SignOut(ctx context.Context, session *Session) error {
	key := session.Key(m.realm)
	if err := m.store.Delete(ctx, key.String()); err != nil {
		return err
	}

	m.recordLogin(ctx, &audit.LoginLog{
		AccountID: session.AccountID,
		Username:  session.Username,
		Status:    audit.StatusSuccess,
		Extra:     "sign-out",
	})
	return nil
}

// SignOutAll deletes every session key for the account across all
// fingerprints and returns how many were removed. Zero is fine. Sessions
// created concurrently with the scan may survive; this is a best-effort
// manual security action, not a fence.
func (m *Manager) SignOutAll(ctx context.Context, accountID string) (int, error) {
	key := SessionKey{Realm: m.realm, AccountID: accountID}
	return m.store.DeleteByPrefix(ctx, key.Prefix())
}

// ChangePassword verifies the current password, stores the new hash and
// revokes every session of the account, forcing re-authentication on all
// devices.
func (m *Manager) ChangePassword(ctx context.Context, accountID, oldPassword, newPassword string) error {
	account, err := m.accounts.GetByID(ctx, accountID)
	if err != nil {
		return err
	}

	match, err := VerifyPassword(oldPassword, account.PasswordHash)
	if err != nil {
		return fmt.Errorf("verifying current password: %w", err)
	}
	if !match {
		return ErrInvalidCredentials
	}

	hash, err := HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("hashing new password: %w", err)
	}

	if err := m.accounts.UpdatePassword(ctx, accountID, hash); err != nil {
		return err
	}

	if _, err := m.SignOutAll(ctx, accountID); err != nil {
		return fmt.Errorf("revoking sessions after password change: %w", err)
	}
	return nil
}

// putSession writes the payload with expiry = token expiry + grace in a
// single atomic operation, so the key is never observable without an expiry.
func (m *Manager) putSession(ctx context.Context, session *Session, tokenExpiresAt time.Time) error {
	payload, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("encoding session: %w", err)
	}
	key := session.Key(m.realm)
	return m.store.Put(ctx, key.String(), payload, tokenExpiresAt.Add(m.expiryGrace))
}

// recordLogin writes an audit row best-effort. Audit loss downgrades to a
// warning; it never changes the outcome of the operation being audited.
func (m *Manager) recordLogin(ctx context.Context, entry *audit.LoginLog) {
	if err := m.logins.Create(ctx, entry); err != nil {
		m.logger.Warn("login audit write failed",
			"username", entry.Username,
			"status", entry.Status,
			"error", err,
		)
	}
}
