package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultTokenTTL is used when no TTL is configured.
const DefaultTokenTTL = 24 * time.Hour

// Token verification failures.
var (
	// ErrExpired is returned for tokens past their expiry.
	ErrExpired = errors.New("token expired")
	// ErrBadSignature is returned when the signature does not match the
	// server key or the signing method is not the expected one.
	ErrBadSignature = errors.New("token signature invalid")
	// ErrMalformed is returned for tokens that cannot be parsed or that
	// carry no subject.
	ErrMalformed = errors.New("token malformed")
)

// TokenService issues and verifies HS256-signed identity tokens.
type TokenService struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenService constructs a TokenService with the process-wide signing
// secret and token TTL.
func NewTokenService(secret string, ttl time.Duration) *TokenService {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &TokenService{
		secret: []byte(secret),
		ttl:    ttl,
	}
}

// Issue creates a signed token asserting the given identity, expiring after
// the configured TTL.
func (s *TokenService) Issue(identity string) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   identity,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// Verify checks the token signature and expiry and returns the asserted
// identity. Failures are one of ErrExpired, ErrBadSignature or ErrMalformed.
func (s *TokenService) Verify(tokenString string) (string, error) {
	claims := jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrBadSignature
		}
		return s.secret, nil
	})
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return "", ErrExpired
		case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, ErrBadSignature):
			return "", ErrBadSignature
		default:
			return "", ErrMalformed
		}
	}
	if !token.Valid {
		return "", ErrBadSignature
	}
	identity := strings.TrimSpace(claims.Subject)
	if identity == "" {
		return "", ErrMalformed
	}
	return identity, nil
}

// TTL returns the configured token lifetime.
func (s *TokenService) TTL() time.Duration {
	return s.ttl
}
