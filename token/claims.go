package token

import (
	"strings"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
)

// NowTimeFunc returns the current time. It can be overridden in tests.
var NowTimeFunc = time.Now

// Claims are the parts of a bearer token the frontend can read without the signing key.
// Nothing here is trusted for authorization; the backend remains the authority.
type Claims struct {
	Subject   string
	Email     string
	IssuedAt  time.Time
	ExpiresAt time.Time // zero when the token has no exp claim
}

// ParseUnverified decodes a JWT payload without checking its signature.
// Opaque (non-JWT) tokens return an error.
func ParseUnverified(rawToken string) (*Claims, error) {
	if strings.TrimSpace(rawToken) == "" {
		return nil, errors.New("[ParseUnverified] empty token")
	}

	parsed, _, err := jwtlib.NewParser().ParseUnverified(rawToken, jwtlib.MapClaims{})
	if err != nil {
		return nil, errors.Wrap(err, "[ParseUnverified] not a JWT")
	}

	mapClaims, ok := parsed.Claims.(jwtlib.MapClaims)
	if !ok {
		return nil, errors.New("[ParseUnverified] error extracting claims")
	}

	claims := &Claims{}
	claims.Subject, _ = mapClaims.GetSubject()
	claims.Email, _ = mapClaims["email"].(string)
	if iat, err := mapClaims.GetIssuedAt(); err == nil && iat != nil {
		claims.IssuedAt = iat.Time
	}
	exp, err := mapClaims.GetExpirationTime()
	if err != nil {
		return nil, errors.Wrap(err, "[ParseUnverified] malformed exp claim")
	}
	if exp != nil {
		claims.ExpiresAt = exp.Time
	}
	return claims, nil
}

// HasExpiry reports whether the token carried an exp claim
func (c *Claims) HasExpiry() bool {
	return !c.ExpiresAt.IsZero()
}

// ExpiredAt reports whether the token's exp is at or before now
func (c *Claims) ExpiredAt(now time.Time) bool {
	return c.HasExpiry() && !now.Before(c.ExpiresAt)
}

// LocallyExpired reports whether rawToken decodes as a JWT whose exp has passed.
// Opaque tokens and tokens without exp are not considered expired.
func LocallyExpired(rawToken string) bool {
	claims, err := ParseUnverified(rawToken)
	if err != nil {
		return false
	}
	return claims.ExpiredAt(NowTimeFunc())
}
