package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/simplelru"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

var (
	ErrUnauthenticated          = fmt.Errorf("session token is invalid")
	AuthContextKey              = AuthKey("auth")
	SessionTokenHeaderKey       = "x-asthma-session-token"
	DefaultCacheSize            = 1000            // Cache up to 1000 tokens
	DefaultCacheEntryExpiration = 5 * time.Minute // Cache tokens for 5 minutes
)

type AuthKey string

type Auth struct {
	SubjectId string    `json:"subjectId"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func IsStaffAuth(a *Auth) bool {
	return a != nil && a.SubjectId == StaffSubject
}

type Authenticator interface {
	ValidateAndSetAuthData(token string, ec echo.Context) (bool, error)
}

type SessionAuthenticator struct {
	sessions *Sessions
}

var _ Authenticator = &SessionAuthenticator{}

type AuthMiddlewareOpts struct {
	Skipper middleware.Skipper
}

func NewAuthMiddleware(authenticator Authenticator, opts AuthMiddlewareOpts) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			// Allow skipping authentication for certain routes (e.g. readiness probe)
			if opts.Skipper != nil {
				if opts.Skipper(c) {
					return next(c)
				}
			}

			token := GetSessionToken(c.Request())
			if token == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "session token is missing")
			}

			valid, err := authenticator.ValidateAndSetAuthData(token, c)
			if err != nil {
				return &echo.HTTPError{
					Code:     http.StatusUnauthorized,
					Message:  "session token is invalid",
					Internal: err,
				}
			} else if valid {
				return next(c)
			}
			return echo.ErrUnauthorized
		}
	}
}

// GetSessionToken reads the bearer token, falling back to the session token header
func GetSessionToken(req *http.Request) string {
	if header := req.Header.Get(echo.HeaderAuthorization); header != "" {
		if scheme, token, ok := strings.Cut(header, " "); ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
	}
	return req.Header.Get(SessionTokenHeaderKey)
}

// NewAuthenticator returns a session authenticator that caches staff tokens
func NewAuthenticator(sessions *Sessions) (Authenticator, error) {
	delegate := NewSessionAuthenticator(sessions)
	return NewCachingAuthenticator(
		DefaultCacheSize,
		DefaultCacheEntryExpiration,
		delegate,
		IsStaffAuth,
	)
}

func NewSessionAuthenticator(sessions *Sessions) Authenticator {
	return &SessionAuthenticator{sessions: sessions}
}

func (s *SessionAuthenticator) ValidateAndSetAuthData(token string, ec echo.Context) (bool, error) {
	auth, err := s.sessions.Verify(token)
	if err != nil {
		return false, err
	}

	SetAuthData(ec, auth)
	return true, nil
}

func GetAuthData(ctx context.Context) *Auth {
	if auth, ok := ctx.Value(AuthContextKey).(*Auth); ok {
		return auth
	}

	return nil
}

func SetAuthData(ec echo.Context, auth *Auth) {
	ctx := context.WithValue(ec.Request().Context(), AuthContextKey, auth)
	ec.SetRequest(ec.Request().WithContext(ctx))
}

type CacheEntry struct {
	token  string
	auth   *Auth
	expiry time.Time
}

func (c CacheEntry) IsExpired() bool {
	return time.Now().After(c.expiry)
}

type CachingAuthenticator struct {
	delegate    Authenticator
	expiration  time.Duration
	lru         *simplelru.LRU
	mu          *sync.Mutex
	shouldCache func(*Auth) bool
}

var _ Authenticator = &CachingAuthenticator{}

func NewCachingAuthenticator(size int, expiration time.Duration, delegate Authenticator, shouldCache func(*Auth) bool) (Authenticator, error) {
	var onEvict simplelru.EvictCallback
	lru, err := simplelru.NewLRU(size, onEvict)
	if err != nil {
		return nil, err
	}

	return &CachingAuthenticator{
		delegate:    delegate,
		expiration:  expiration,
		lru:         lru,
		mu:          &sync.Mutex{},
		shouldCache: shouldCache,
	}, nil
}

func (c CachingAuthenticator) ValidateAndSetAuthData(token string, ec echo.Context) (bool, error) {
	entry := c.getCachedEntry(token)
	if entry != nil {
		SetAuthData(ec, entry.auth)
		return true, nil
	}

	res, err := c.delegate.ValidateAndSetAuthData(token, ec)
	auth := GetAuthData(ec.Request().Context())

	if err == nil && res && c.shouldCache(auth) {
		entry := CacheEntry{
			token:  token,
			auth:   auth,
			expiry: time.Now().Add(c.expiration),
		}
		// never outlive the token itself
		if !auth.ExpiresAt.IsZero() && auth.ExpiresAt.Before(entry.expiry) {
			entry.expiry = auth.ExpiresAt
		}
		c.setCacheEntry(entry)
	}

	return res, err
}

func (c *CachingAuthenticator) getCachedEntry(token string) *CacheEntry {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.lru.Get(token); ok {
		entry := e.(CacheEntry)
		if entry.IsExpired() {
			c.lru.Remove(token)
			return nil
		}
		return &entry
	}

	return nil
}

func (c *CachingAuthenticator) setCacheEntry(entry CacheEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()

	_ = c.lru.Add(entry.token, entry)
}
