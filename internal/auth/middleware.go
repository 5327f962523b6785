package auth

import (
	"context"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"
)

type contextKey string

const identityKey contextKey = "identity"

// Identity is the authenticated caller attached to a request context.
type Identity struct {
	UserID int64
	Email  string
	Role   Role
}

// FromContext returns the request identity, or nil if unauthenticated.
func FromContext(ctx context.Context) *Identity {
	id, _ := ctx.Value(identityKey).(*Identity)
	return id
}

// WithIdentity attaches an identity to a context. Exposed for handler tests.
func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// rateLimiter tracks failed bearer auth attempts per IP.
type rateLimiter struct {
	mu       sync.Mutex
	failures map[string][]time.Time
}

const (
	rateLimitWindow  = 1 * time.Minute
	rateLimitMaxFail = 10
)

func newRateLimiter() *rateLimiter {
	return &rateLimiter{failures: make(map[string][]time.Time)}
}

// recordFailure logs a failed attempt and reports whether the IP is
// now over the limit.
func (rl *rateLimiter) recordFailure(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	cutoff := now.Add(-rateLimitWindow)

	valid := rl.failures[ip][:0]
	for _, t := range rl.failures[ip] {
		if t.After(cutoff) {
			valid = append(valid, t)
		}
	}

	valid = append(valid, now)
	rl.failures[ip] = valid

	return len(valid) > rateLimitMaxFail
}

func (rl *rateLimiter) limited(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := time.Now().Add(-rateLimitWindow)
	n := 0
	for _, t := range rl.failures[ip] {
		if t.After(cutoff) {
			n++
		}
	}
	return n > rateLimitMaxFail
}

// Middleware authenticates API requests. Bearer tokens are tried as
// JWT access tokens first, then as API keys. Public paths and public
// GET reads pass through without credentials; everything else on
// /api/ requires a valid bearer.
type Middleware struct {
	jwt      *JWTManager
	apiKeys  *APIKeyStore
	sessions *SessionStore
	users    *UserStore
	limiter  *rateLimiter
}

// NewMiddleware wires the auth middleware.
func NewMiddleware(jwt *JWTManager, apiKeys *APIKeyStore, sessions *SessionStore, users *UserStore) *Middleware {
	return &Middleware{
		jwt:      jwt,
		apiKeys:  apiKeys,
		sessions: sessions,
		users:    users,
		limiter:  newRateLimiter(),
	}
}

// Wrap applies bearer authentication to an http.Handler.
func (m *Middleware) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/api/") {
			next.ServeHTTP(w, r)
			return
		}

		// Attach identity opportunistically on public paths so handlers
		// can personalize reads, but never reject.
		if isPublicAPIPath(r.Method, r.URL.Path) {
			if id, err := m.identify(r); err == nil {
				r = r.WithContext(WithIdentity(r.Context(), id))
			}
			next.ServeHTTP(w, r)
			return
		}

		ip := clientIP(r)
		if m.limiter.limited(ip) {
			http.Error(w, "Too many requests", http.StatusTooManyRequests)
			return
		}

		id, err := m.identify(r)
		if err != nil {
			if m.limiter.recordFailure(ip) {
				http.Error(w, "Too many requests", http.StatusTooManyRequests)
				return
			}
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
	})
}

// identify resolves the caller from the Authorization header or the
// session cookie.
func (m *Middleware) identify(r *http.Request) (*Identity, error) {
	header := r.Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		bearer := strings.TrimPrefix(header, "Bearer ")

		if claims, err := m.jwt.ParseAccess(bearer); err == nil {
			userID, err := claims.UserID()
			if err != nil {
				return nil, err
			}
			return &Identity{UserID: userID, Email: claims.Email, Role: Role(claims.Role)}, nil
		}

		email, err := m.apiKeys.Validate(bearer)
		if err != nil {
			return nil, err
		}
		return m.identityForEmail(email)
	}

	cookie, err := r.Cookie(SessionCookieName)
	if err != nil {
		return nil, err
	}
	email, err := m.sessions.Validate(cookie.Value)
	if err != nil {
		return nil, err
	}
	return m.identityForEmail(email)
}

func (m *Middleware) identityForEmail(email string) (*Identity, error) {
	u, err := m.users.GetByEmail(email)
	if err != nil {
		return nil, err
	}
	return &Identity{UserID: u.ID, Email: u.Email, Role: u.Role}, nil
}

// isPublicAPIPath reports whether an API route is readable without
// credentials. Market discovery is public; all mutations and all
// tracking data require auth.
func isPublicAPIPath(method, path string) bool {
	if strings.HasPrefix(path, "/api/auth/") {
		return true
	}
	if method != http.MethodGet {
		return false
	}
	if path == "/api/markets" || path == "/api/markets/search" {
		return true
	}
	if strings.HasPrefix(path, "/api/markets/") {
		// Per-user tracking state under /api/markets/{id}/... stays private.
		rest := strings.TrimPrefix(path, "/api/markets/")
		if strings.HasSuffix(rest, "/comments") || !strings.Contains(rest, "/") {
			return true
		}
	}
	return false
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
