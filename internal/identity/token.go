package identity

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// expClaims reads only the registered exp claim; the pool does not
// verify the token's signature (the upstream is the issuer, not this
// service) — it only needs a boolean isExpired and a remaining duration,
// per the open question this resolves.
type expClaims struct {
	jwt.RegisteredClaims
}

// parseExpiry parses a bearer token without verifying its signature and
// returns its exp claim, if present.
func parseExpiry(token string) (time.Time, bool) {
	claims := &expClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}

// IsExpired reports whether token's exp claim has already passed. A
// token with no parseable exp claim is treated as expired so it gets
// refreshed rather than trusted indefinitely.
func IsExpired(token string) bool {
	exp, ok := parseExpiry(token)
	if !ok {
		return true
	}
	return time.Now().After(exp)
}

// expiresWithin reports whether token expires within window from now, or
// is unparseable.
func expiresWithin(token string, window time.Duration) bool {
	exp, ok := parseExpiry(token)
	if !ok {
		return true
	}
	return time.Until(exp) <= window
}

// RemainingLifetime returns the duration until token's exp claim, or
// zero with ok=false when unparseable.
func RemainingLifetime(token string) (time.Duration, bool) {
	exp, ok := parseExpiry(token)
	if !ok {
		return 0, false
	}
	return time.Until(exp), true
}
