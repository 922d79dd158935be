package auth

import (
	"errors"
	"regexp"
	"strings"
	"time"
)

// usernamePattern defines the valid format for usernames:
// alphanumeric, dots, hyphens, underscores, 1-64 characters.
var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9._-]{1,64}$`)

// maxUsernameLength is the maximum allowed username length.
const maxUsernameLength = 64

// IsValidUsername checks if a username meets format requirements.
// Usernames must be 1-64 characters, alphanumeric with dots, hyphens, underscores.
func IsValidUsername(username string) bool {
	return len(username) <= maxUsernameLength && usernamePattern.MatchString(username)
}

// SessionKind is the fixed second segment of every session key. The first
// segment is the deployment realm from configuration.
const SessionKind = "auth"

// Status represents an account's lifecycle state.
type Status string

const (
	// StatusNormal is an active account that may sign in.
	StatusNormal Status = "normal"

	// StatusForbidden is a disabled account. Sign-in is rejected with a
	// specific error rather than the generic credentials failure.
	StatusForbidden Status = "forbidden"
)

// Account represents a back-office user account.
//
// RolePerm and IsTopCorp are resolved via joins at read time (role.perm and
// "corp has no parent" respectively); they are not columns on accounts.
type Account struct {
	ID           string    `json:"id"`
	CorpID       string    `json:"corp_id"`
	RoleID       string    `json:"role_id,omitempty"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"` // never serialised
	Name         string    `json:"name,omitempty"`
	Phone        string    `json:"phone,omitempty"`
	Status       Status    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	RolePerm  string `json:"-"`
	IsTopCorp bool   `json:"-"`
}

// SessionKey addresses one session's payload in the session store. It is
// deterministically derived from realm, account id and fingerprint, and is
// reconstructible from a verified token alone — no extra lookup needed.
type SessionKey struct {
	Realm       string
	AccountID   string
	Fingerprint string
}

// String renders the key as realm:auth:accountID[:fingerprint].
// The fingerprint segment is omitted when empty.
func (k SessionKey) String() string {
	parts := []string{k.Realm, SessionKind, k.AccountID}
	if k.Fingerprint != "" {
		parts = append(parts, k.Fingerprint)
	}
	return strings.Join(parts, ":")
}

// Prefix returns the shared prefix of every session key for the account,
// regardless of fingerprint. Used by sign-out-all.
func (k SessionKey) Prefix() string {
	return strings.Join([]string{k.Realm, SessionKind, k.AccountID}, ":") + ":"
}

// Session is the payload stored against a session key. It is the caller's
// authenticated identity once Validate succeeds.
type Session struct {
	AccountID     string    `json:"id"`
	CorpID        string    `json:"corp_id"`
	Role          string    `json:"role"`
	Username      string    `json:"username"`
	Fingerprint   string    `json:"fingerprint,omitempty"`
	LastLoginTime time.Time `json:"last_login_time"`
	IsTopCorp     bool      `json:"is_top_corp"`
}

// Key rebuilds the session's store key within the given realm.
func (s *Session) Key(realm string) SessionKey {
	return SessionKey{Realm: realm, AccountID: s.AccountID, Fingerprint: s.Fingerprint}
}

// RequestContext carries per-request metadata into sign-in for audit logging.
type RequestContext struct {
	IP        string
	UserAgent string
}

// SignInResult is returned to the caller on a successful sign-in.
type SignInResult struct {
	AccountID string   `json:"account_id"`
	Roles     []string `json:"roles"`
	Token     string   `json:"token"`
}

// Sentinel errors for auth operations.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountNotFound    = errors.New("account not found")
	ErrAccountForbidden   = errors.New("account is forbidden")
	ErrTooManyAttempts    = errors.New("too many failed login attempts")
	ErrUsernameExists     = errors.New("username already exists")
	ErrTokenExpired       = errors.New("token has expired")
	ErrTokenInvalid       = errors.New("invalid token")
	ErrTokenMissing       = errors.New("no token provided")
	ErrSessionNotFound    = errors.New("session not found")
)
