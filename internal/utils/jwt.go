package utils // package utils provides helper functions for token creation and hashing

import (
	"errors"  // sentinel rejection reasons
	"strconv" // subject claim is the decimal user id
	"time"    // time utilities for generating expirations

	"github.com/golang-jwt/jwt/v5" // JWT library for creating and checking signed tokens
)

// Rejection reasons returned by TokenCodec.Verify.  They let the server log
// why a token was refused; callers must not echo them to clients.
var (
	ErrTokenMalformed = errors.New("token malformed")
	ErrTokenSignature = errors.New("token signature mismatch")
	ErrTokenExpired   = errors.New("token expired")
)

// AccessToken represents a signed session token along with its expiry.
type AccessToken struct {
	Token string    // the serialized JWT string
	Exp   time.Time // the UTC expiration time
}

// Claims is what a verified token asserts about its bearer.  Role is a
// snapshot taken at issuance; later role changes are not reflected until
// the token expires.
type Claims struct {
	UserID uint64
	Role   string
}

type sessionClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// TokenCodec issues and verifies HS256 session tokens with a fixed lifetime.
type TokenCodec struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenCodec returns a codec signing with secret.  Tokens expire ttl
// after issuance.
func NewTokenCodec(secret string, ttl time.Duration) *TokenCodec {
	return &TokenCodec{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// WithClock returns a copy of the codec reading time from now.
func (c *TokenCodec) WithClock(now func() time.Time) *TokenCodec {
	cp := *c
	cp.now = now
	return &cp
}

// Issue builds and signs a token for a user.  The token carries the standard
// claims sub (user id), iat and exp plus the user's role.
func (c *TokenCodec) Issue(userID uint64, role string) (AccessToken, error) {
	iat := c.now().UTC()
	exp := iat.Add(c.ttl)
	claims := sessionClaims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(userID, 10),
			IssuedAt:  jwt.NewNumericDate(iat),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return AccessToken{}, err
	}
	return AccessToken{Token: signed, Exp: exp}, nil
}

// Verify checks signature and expiry and returns the subject and role.  The
// error is one of ErrTokenMalformed, ErrTokenSignature or ErrTokenExpired.
func (c *TokenCodec) Verify(raw string) (Claims, error) {
	var sc sessionClaims
	_, err := jwt.ParseWithClaims(raw, &sc, func(t *jwt.Token) (interface{}, error) {
		return c.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)
	switch {
	case err == nil:
	case errors.Is(err, jwt.ErrTokenExpired):
		return Claims{}, ErrTokenExpired
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return Claims{}, ErrTokenSignature
	default:
		return Claims{}, ErrTokenMalformed
	}

	id, err := strconv.ParseUint(sc.Subject, 10, 64)
	if err != nil || id == 0 {
		return Claims{}, ErrTokenMalformed
	}
	return Claims{UserID: id, Role: sc.Role}, nil
}
