// Package token reads the expiry of a session token issued by the Auth API.
//
// The payload is decoded WITHOUT verifying the signature. Verification is the
// Auth API's job; the client only uses the expiry to decide whether a cached
// session is worth validating. Never base an authorization decision on the
// values returned here.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrMalformedToken = errors.New("malformed token")
	ErrMissingExpiry  = errors.New("token has no exp claim")
)

var parser = jwt.NewParser()

// ExpiresAt returns the time encoded in the token's exp claim.
func ExpiresAt(raw string) (time.Time, error) {
	var claims jwt.RegisteredClaims
	if _, _, err := parser.ParseUnverified(raw, &claims); err != nil {
		return time.Time{}, fmt.Errorf("%w: %w", ErrMalformedToken, err)
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, ErrMissingExpiry
	}
	return claims.ExpiresAt.Time, nil
}

// ExpiresAtMillis returns the exp claim as epoch milliseconds (exp * 1000),
// the unit the persisted token record uses.
func ExpiresAtMillis(raw string) (int64, error) {
	t, err := ExpiresAt(raw)
	if err != nil {
		return 0, err
	}
	return t.UnixMilli(), nil
}
