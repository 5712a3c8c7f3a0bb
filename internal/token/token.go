// Package token implements the signed session token codec. Tokens are
// HS256 JWTs carrying the user id, display name and role. Verify checks
// the signature and claim shape only; deciding whether a token is still
// live is left to callers, so signature validity and expiry can be
// enforced (and tested) independently.
package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrInvalidToken is returned by Verify when the signature does not
	// match or the token is malformed.
	ErrInvalidToken = errors.New("invalid token")
	// ErrMalformedToken is returned by Decode when a token cannot be
	// parsed into well-formed claims.
	ErrMalformedToken = errors.New("malformed token")
)

// Claims is the decoded token payload. The field names on the wire match
// what the web client reads out of the token.
type Claims struct {
	UserID int64  `json:"id"`
	Name   string `json:"name"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// Codec issues and verifies session tokens with a process-wide secret.
type Codec struct {
	secret []byte
	ttl    time.Duration
}

// NewCodec creates a codec. ttl is applied to every issued token.
func NewCodec(secret []byte, ttl time.Duration) *Codec {
	return &Codec{secret: secret, ttl: ttl}
}

// TTL returns the lifetime applied to issued tokens.
func (c *Codec) TTL() time.Duration {
	return c.ttl
}

// Issue signs a token for the given user, expiring ttl from now.
func (c *Codec) Issue(userID int64, name, role string) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID: userID,
		Name:   name,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
}

// Verify recomputes the signature and parses the claims. It does not
// check expiry; an expired token with a valid signature verifies fine.
func (c *Codec) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}

	_, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (any, error) { return c.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)
	if err != nil {
		return nil, ErrInvalidToken
	}

	if err := validateShape(claims); err != nil {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// Decode parses a token without checking its signature. It exists for
// clients that cannot hold the signing secret and only need the expiry
// for timer purposes; the result must never be used as an authorization
// decision. Any shape mismatch fails closed with ErrMalformedToken.
func Decode(tokenString string) (*Claims, error) {
	claims := &Claims{}

	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(tokenString, claims); err != nil {
		return nil, ErrMalformedToken
	}

	if err := validateShape(claims); err != nil {
		return nil, ErrMalformedToken
	}
	return claims, nil
}

// validateShape enforces the fixed claim record: a positive subject id
// and a set expiry are required, everything else is optional.
func validateShape(c *Claims) error {
	if c.UserID <= 0 {
		return errors.New("missing subject id")
	}
	if c.ExpiresAt == nil || c.ExpiresAt.IsZero() {
		return errors.New("missing expiry")
	}
	return nil
}
