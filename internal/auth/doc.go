// Package auth implements the session-backed authentication core of
// Atrium Core.
//
// It covers:
//   - Argon2id password hashing (OWASP 2025 recommendation)
//   - A per-username sliding-window login throttle backed by the shared store
//   - Credential verification with enumeration-resistant errors
//   - HS256 session tokens whose claims are exactly a session key
//   - Externally-stored sessions keyed realm:auth:accountID:fingerprint,
//     written atomically with an absolute expiry
//   - A session manager orchestrating sign-in, sign-out, sign-out-all,
//     validation and password change
//
// Each login mints a fresh fingerprint (the login log row's id), so one
// account can hold concurrent sessions on several devices and revoke them
// independently. Sign-out-all and password changes delete every key under
// the account's prefix, forcing re-authentication everywhere.
package auth
