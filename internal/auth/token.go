package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// defaultTokenTTL applies when no validity window is configured.
const defaultTokenTTL = 7 * 24 * time.Hour

// Claims carries exactly the fields needed to rebuild a session key —
// nothing else. The session payload itself lives in the store, not the token.
type Claims struct {
	jwt.RegisteredClaims
	Realm       string `json:"realm"`
	Kind        string `json:"kind"`
	Fingerprint string `json:"fp,omitempty"`
}

// TokenIssuer creates and verifies signed session tokens.
type TokenIssuer struct {
	secret []byte
	realm  string
	ttl    time.Duration
}

// NewTokenIssuer creates a token issuer for the given realm.
// A non-positive ttl falls back to the 7-day default.
func NewTokenIssuer(secret, realm string, ttl time.Duration) *TokenIssuer {
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}
	return &TokenIssuer{secret: []byte(secret), realm: realm, ttl: ttl}
}

// TTL returns the configured token validity window.
func (ti *TokenIssuer) TTL() time.Duration {
	return ti.ttl
}

// Issue signs a token addressing the session for accountID and fingerprint,
// expiring at expiresAt. Callers compute expiresAt once and reuse it for the
// session store write so token and session expire together.
func (ti *TokenIssuer) Issue(accountID, fingerprint string, expiresAt time.Time) (string, error) {
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   accountID,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		Realm:       ti.realm,
		Kind:        SessionKind,
		Fingerprint: fingerprint,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(ti.secret)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return signed, nil
}

// Verify validates a token and returns the session key it addresses.
//
// Failure kinds are distinguished so the API layer can report them
// separately: ErrTokenMissing (empty input), ErrTokenExpired (signature fine
// but past expiry), ErrTokenInvalid (everything else — bad signature,
// malformed, wrong claims shape).
func (ti *TokenIssuer) Verify(tokenString string) (SessionKey, error) {
	if tokenString == "" {
		return SessionKey{}, ErrTokenMissing
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(_ *jwt.Token) (any, error) {
		return ti.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return SessionKey{}, fmt.Errorf("%w: %w", ErrTokenExpired, err)
		}
		return SessionKey{}, fmt.Errorf("%w: %w", ErrTokenInvalid, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return SessionKey{}, ErrTokenInvalid
	}

	if claims.Subject == "" || claims.Realm == "" || claims.Kind != SessionKind {
		return SessionKey{}, fmt.Errorf("%w: incomplete session claims", ErrTokenInvalid)
	}

	return SessionKey{
		Realm:       claims.Realm,
		AccountID:   claims.Subject,
		Fingerprint: claims.Fingerprint,
	}, nil
}
