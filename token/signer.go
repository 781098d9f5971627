package token

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Signer is an interface for signing and verifying JWT tokens
type Signer interface {
	// Sign creates a signed JWT token from claims
	Sign(claims jwt.MapClaims) (string, error)

	// GetVerificationKey returns the key used to verify a parsed token
	GetVerificationKey(token *jwt.Token) (any, error)

	// GetSigningMethod returns the JWT signing method used
	GetSigningMethod() jwt.SigningMethod
}

// HMACSigner implements Signer using symmetric HMAC-SHA256
type HMACSigner struct {
	secret []byte
}

// NewHMACSigner creates a new HMAC signer with the given secret
func NewHMACSigner(secret string) *HMACSigner {
	return &HMACSigner{
		secret: []byte(secret),
	}
}

func (h *HMACSigner) Sign(claims jwt.MapClaims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString(h.secret)
	if err != nil {
		return "", errors.Wrap(err, "failed to sign token with HMAC")
	}
	return signedToken, nil
}

func (h *HMACSigner) GetVerificationKey(token *jwt.Token) (interface{}, error) {
	if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, errors.Errorf("unexpected signing method: %v", token.Header["alg"])
	}
	return h.secret, nil
}

func (h *HMACSigner) GetSigningMethod() jwt.SigningMethod {
	return jwt.SigningMethodHS256
}

// Creator issues bearer tokens for a subject
type Creator struct {
	signer Signer
	issuer string
	expiry time.Duration
}

// NewCreator creates a token creator. A non-positive expiry defaults to one hour.
func NewCreator(signer Signer, issuer string, expiry time.Duration) *Creator {
	if expiry <= 0 {
		expiry = time.Hour
	}
	return &Creator{signer: signer, issuer: issuer, expiry: expiry}
}

// CreateAccessToken creates a signed access token for the subject
func (c *Creator) CreateAccessToken(subject, email string) (string, error) {
	now := NowTimeFunc()
	claims := jwt.MapClaims{
		"iss":   c.issuer,                 // The issuer of the token
		"sub":   subject,                  // The user the token was issued to
		"email": email,                    // Convenience claim for display
		"iat":   now.Unix(),               // Issued At
		"exp":   now.Add(c.expiry).Unix(), // Expiry
		"jti":   uuid.New().String(),      // Unique token ID
	}
	signed, err := c.signer.Sign(claims)
	if err != nil {
		return "", errors.Wrap(err, "[CreateAccessToken] sign")
	}
	return signed, nil
}

// Verify parses and validates a token signed by signer, returning its subject
func Verify(rawToken string, signer Signer) (string, error) {
	parsed, err := jwt.ParseWithClaims(rawToken, jwt.MapClaims{}, signer.GetVerificationKey,
		jwt.WithTimeFunc(NowTimeFunc))
	if err != nil || !parsed.Valid {
		return "", errors.Wrap(err, "[Verify] invalid token")
	}
	subject, err := parsed.Claims.GetSubject()
	if err != nil || subject == "" {
		return "", errors.New("[Verify] token missing sub claim")
	}
	return subject, nil
}
