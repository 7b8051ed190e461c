package session

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenExpired inspects a bearer token locally, without verifying the
// signature (the secret lives on the backend). The backend issues JWTs, so
// an exp claim is normally present; a token that does not parse as a JWT is
// treated as opaque and reported as not expired — the gateway still fails
// closed on the 401 the backend will answer with.
//
// Advisory only: commands use it to print a friendlier hint before a
// request, never to skip the real check.
func TokenExpired(token string, now time.Time) bool {
	if token == "" {
		return false
	}

	parser := jwt.NewParser(jwt.WithoutClaimsValidation())
	var claims jwt.RegisteredClaims
	if _, _, err := parser.ParseUnverified(token, &claims); err != nil {
		return false
	}
	if claims.ExpiresAt == nil {
		return false
	}
	return claims.ExpiresAt.Before(now)
}
