// Package token issues and verifies the session tokens handed out after a
// successful login. Tokens are HS256 JWTs; the secret defaults to a random
// per-process value, which is fine for a single-instance server and is
// overridden from configuration when sessions must survive restarts.
package token

import (
	"crypto/rand"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"ontoserve.org/internal/registry"
)

const (
	defaultTTL    = 15 * time.Minute
	defaultIssuer = "ontoserve"
)

var ErrInvalidToken = errors.New("token: invalid token")

// Service signs and verifies session tokens.
type Service struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// Option configures the Service.
type Option func(*Service) error

// WithSecret sets the signing secret. Empty input keeps the generated one.
func WithSecret(secret string) Option {
	return func(s *Service) error {
		if strings.TrimSpace(secret) == "" {
			return nil
		}
		s.secret = []byte(secret)
		return nil
	}
}

// WithIssuer overrides the issuer claim.
func WithIssuer(issuer string) Option {
	return func(s *Service) error {
		issuer = strings.TrimSpace(issuer)
		if issuer == "" {
			return errors.New("token: issuer must not be empty")
		}
		s.issuer = issuer
		return nil
	}
}

// WithTTL configures token lifetime.
func WithTTL(ttl time.Duration) Option {
	return func(s *Service) error {
		if ttl <= 0 {
			return errors.New("token: ttl must be positive")
		}
		s.ttl = ttl
		return nil
	}
}

// WithNow overrides the clock, for tests.
func WithNow(now func() time.Time) Option {
	return func(s *Service) error {
		s.now = now
		return nil
	}
}

// NewService builds a token service. Without WithSecret a random 32-byte
// secret is generated.
func NewService(opts ...Option) (*Service, error) {
	s := &Service{
		issuer: defaultIssuer,
		ttl:    defaultTTL,
		now:    time.Now,
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	if len(s.secret) == 0 {
		secret := make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			return nil, fmt.Errorf("token: generate secret: %w", err)
		}
		s.secret = secret
	}
	return s, nil
}

// Issue signs a token for the user and returns it with its expiry.
func (s *Service) Issue(user registry.UserID) (string, time.Time, error) {
	if strings.TrimSpace(string(user)) == "" {
		return "", time.Time{}, errors.New("token: user is required")
	}
	now := s.now().UTC()
	expiresAt := now.Add(s.ttl)
	claims := jwt.RegisteredClaims{
		Subject:   string(user),
		Issuer:    s.issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("token: sign: %w", err)
	}
	return signed, expiresAt, nil
}

// Verify parses and validates a token, returning the user it was issued to.
func (s *Service) Verify(raw string) (registry.UserID, error) {
	parsed, err := jwt.ParseWithClaims(raw, &jwt.RegisteredClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	},
		jwt.WithIssuer(s.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(func() time.Time { return s.now() }),
	)
	if err != nil || !parsed.Valid {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	claims, ok := parsed.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" {
		return "", ErrInvalidToken
	}
	return registry.UserID(claims.Subject), nil
}
