package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Status is the outcome of verifying a token. Callers that only need a
// yes/no use Verify; the session flow needs to tell an expired token from
// a forged one and uses Check directly.
type Status int

const (
	StatusValid Status = iota
	StatusExpired
	StatusMalformed
	StatusBadSignature
	StatusUnsupported
)

func (s Status) String() string {
	switch s {
	case StatusValid:
		return "valid"
	case StatusExpired:
		return "expired"
	case StatusMalformed:
		return "malformed"
	case StatusBadSignature:
		return "bad signature"
	case StatusUnsupported:
		return "unsupported algorithm"
	default:
		return "unknown"
	}
}

var errUnexpectedMethod = errors.New("unexpected signing method")

// Expiry is compared at millisecond granularity.
func init() {
	jwt.TimePrecision = time.Millisecond
}

// Codec serializes a subject and lifetime into a signed compact token and
// verifies such tokens. One symmetric key, injected at construction, is
// shared by access and refresh tokens.
type Codec struct {
	key []byte
	log *zap.Logger
}

const MinKeyLen = 32

func NewCodec(key []byte, log *zap.Logger) (*Codec, error) {
	if len(key) < MinKeyLen {
		return nil, errors.New("signing key must be at least 32 bytes for HMAC-SHA256")
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Codec{key: key, log: log}, nil
}

// Encode builds {sub, iss, iat, exp, jti} claims with iss mirroring the
// subject and signs them with HMAC-SHA256. The random jti guarantees that
// two tokens for the same subject are never byte-identical, no matter how
// close together they are minted; rotation depends on that.
func (c *Codec) Encode(subject string, lifetime time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Subject:   subject,
		Issuer:    subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(lifetime)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.key)
}

// Check fully verifies signature and expiry. Expiry is a strict wall-clock
// comparison, no leeway. Every rejection is logged with its category.
func (c *Codec) Check(raw string) Status {
	_, err := jwt.ParseWithClaims(raw, &jwt.RegisteredClaims{}, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, errUnexpectedMethod
		}
		return c.key, nil
	})
	if err == nil {
		return StatusValid
	}

	status := StatusMalformed
	switch {
	case errors.Is(err, errUnexpectedMethod):
		status = StatusUnsupported
	case errors.Is(err, jwt.ErrTokenExpired):
		status = StatusExpired
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		status = StatusBadSignature
	}
	c.log.Debug("token rejected",
		zap.String("reason", status.String()),
		zap.Error(err),
	)
	return status
}

// Verify collapses Check to a boolean for callers that never need the
// failure category.
func (c *Codec) Verify(raw string) bool {
	return c.Check(raw) == StatusValid
}

// ParseSubject extracts the sub claim without re-verifying the signature.
// The caller is expected to have called Check first; an unparseable token
// still returns an error.
func (c *Codec) ParseSubject(raw string) (string, error) {
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(raw, &claims); err != nil {
		return "", err
	}
	if claims.Subject == "" {
		return "", errors.New("token has no subject")
	}
	return claims.Subject, nil
}

// ParseExpiry extracts the exp claim without re-verifying the signature.
func (c *Codec) ParseExpiry(raw string) (time.Time, error) {
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(raw, &claims); err != nil {
		return time.Time{}, err
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, errors.New("token has no expiry")
	}
	return claims.ExpiresAt.Time, nil
}
