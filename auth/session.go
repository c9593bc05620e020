package auth

import (
	"crypto/subtle"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"github.com/asthma-connect/clinic/errors"
)

const (
	StaffSubject  = "staff"
	sessionIssuer = "asthma-clinic"
)

var (
	ErrInvalidCredentials = fmt.Errorf("%w: invalid password", errors.Unauthorized)
)

type Session struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Sessions issues and verifies signed staff session tokens
type Sessions struct {
	password []byte
	secret   []byte
	ttl      time.Duration
	now      func() time.Time
}

func NewSessions(cfg *Config) (*Sessions, error) {
	if cfg.SessionSecret == "" {
		return nil, fmt.Errorf("session secret is missing")
	}
	return &Sessions{
		password: []byte(cfg.AdminPassword),
		secret:   []byte(cfg.SessionSecret),
		ttl:      cfg.SessionTTL,
		now:      time.Now,
	}, nil
}

// Login checks the staff password and issues a new session
func (s *Sessions) Login(password string) (*Session, error) {
	if len(s.password) == 0 || subtle.ConstantTimeCompare([]byte(password), s.password) != 1 {
		return nil, ErrInvalidCredentials
	}
	return s.Issue(StaffSubject)
}

func (s *Sessions) Issue(subject string) (*Session, error) {
	now := s.now()
	expiresAt := now.Add(s.ttl)
	claims := jwt.RegisteredClaims{
		Issuer:    sessionIssuer,
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return nil, fmt.Errorf("unable to sign session token: %w", err)
	}
	return &Session{
		Token:     token,
		ExpiresAt: expiresAt,
	}, nil
}

// Verify returns the authentication data of a valid token
func (s *Sessions) Verify(token string) (*Auth, error) {
	claims := &jwt.RegisteredClaims{}
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	parsed, err := parser.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnauthenticated, err)
	}
	if !parsed.Valid || claims.Subject == "" || claims.Issuer != sessionIssuer {
		return nil, ErrUnauthenticated
	}

	auth := &Auth{SubjectId: claims.Subject}
	if claims.ExpiresAt != nil {
		auth.ExpiresAt = claims.ExpiresAt.Time
	}
	return auth, nil
}
