package auth

import (
	"context"
	"fmt"
)

// Verifier checks submitted credentials against stored accounts, gated by the
// login throttle.
type Verifier struct {
	accounts AccountRepository
	throttle *Throttle
}

// NewVerifier creates a credential verifier.
func NewVerifier(accounts AccountRepository, throttle *Throttle) *Verifier {
	return &Verifier{accounts: accounts, throttle: throttle}
}

// Verify checks username and password and returns the matching account.
//
// Check order: throttle → account lookup (case-insensitive) → account status →
// password. Unknown usernames and wrong passwords both return
// ErrInvalidCredentials so callers can't enumerate accounts; lockout and
// forbidden accounts keep their specific errors. Every failed lookup or
// password mismatch records a throttle failure — including failures for
// usernames that don't exist, which matches the attempt-counter contract even
// though it lets an attacker run up a known username's counter. A successful
// verification unconditionally clears the counter.
func (v *Verifier) Verify(ctx context.Context, username, password string) (*Account, error) {
	if err := v.throttle.CheckAllowed(ctx, username); err != nil {
		return nil, err
	}

	account, err := v.accounts.GetByUsername(ctx, username)
	if err != nil {
		v.recordFailure(ctx, username)
		return nil, ErrInvalidCredentials
	}

	if account.Status == StatusForbidden {
		v.recordFailure(ctx, username)
		return nil, ErrAccountForbidden
	}

	match, err := VerifyPassword(password, account.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("verifying password for %s: %w", username, err)
	}
	if !match {
		v.recordFailure(ctx, username)
		return nil, ErrInvalidCredentials
	}

	if err := v.throttle.Reset(ctx, username); err != nil {
		return nil, fmt.Errorf("clearing login attempts for %s: %w", username, err)
	}

	return account, nil
}

// recordFailure bumps the throttle counter. A counter write failure must not
// change which error the caller sees, so it is swallowed here.
func (v *Verifier) recordFailure(ctx context.Context, username string) {
	_ = v.throttle.RecordFailure(ctx, username) //nolint:errcheck // verification error takes precedence
}
