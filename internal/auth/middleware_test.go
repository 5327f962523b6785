package auth

import (
	"database/sql"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func testMiddleware(t *testing.T) (*Middleware, *UserStore, *JWTManager, *sql.DB) {
	t.Helper()
	d := testDB(t)
	users := NewUserStore(d, "")
	jwt := NewJWTManager("test-secret")
	m := NewMiddleware(jwt, NewAPIKeyStore(d), NewSessionStore(d), users)
	return m, users, jwt, d
}

func echoIdentity() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id := FromContext(r.Context()); id != nil {
			fmt.Fprintf(w, "user:%d", id.UserID)
			return
		}
		fmt.Fprint(w, "anonymous")
	})
}

func TestMiddlewarePublicPaths(t *testing.T) {
	m, _, _, _ := testMiddleware(t)
	handler := m.Wrap(echoIdentity())

	tests := []struct {
		method, path string
		wantStatus   int
	}{
		{"GET", "/api/markets", http.StatusOK},
		{"GET", "/api/markets/7", http.StatusOK},
		{"GET", "/api/markets/7/comments", http.StatusOK},
		{"POST", "/api/auth/login", http.StatusOK},
		{"GET", "/health", http.StatusOK},
		{"POST", "/api/markets", http.StatusUnauthorized},
		{"GET", "/api/trackings", http.StatusUnauthorized},
		{"POST", "/api/markets/7/track", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)
			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
		})
	}
}

func TestMiddlewareJWTBearer(t *testing.T) {
	m, users, jwt, _ := testMiddleware(t)
	handler := m.Wrap(echoIdentity())

	u, err := users.Register("v@example.com", "", "hunter2hunter2", "")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	token, err := jwt.IssueAccess(u)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	req := httptest.NewRequest("GET", "/api/trackings", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	want := fmt.Sprintf("user:%d", u.ID)
	if w.Body.String() != want {
		t.Errorf("body = %q, want %q", w.Body.String(), want)
	}
}

func TestMiddlewareAPIKeyBearer(t *testing.T) {
	m, users, _, d := testMiddleware(t)
	handler := m.Wrap(echoIdentity())

	u, err := users.Register("v@example.com", "", "hunter2hunter2", "")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	_, key, err := NewAPIKeyStore(d).Create("cli", u.Email)
	if err != nil {
		t.Fatalf("create key: %v", err)
	}

	req := httptest.NewRequest("GET", "/api/trackings", nil)
	req.Header.Set("Authorization", "Bearer "+key)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	want := fmt.Sprintf("user:%d", u.ID)
	if w.Body.String() != want {
		t.Errorf("body = %q, want %q", w.Body.String(), want)
	}
}

func TestMiddlewareSessionCookie(t *testing.T) {
	m, users, _, d := testMiddleware(t)
	handler := m.Wrap(echoIdentity())

	u, err := users.Register("v@example.com", "", "hunter2hunter2", "")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	sessionID, err := NewSessionStore(d).Create(u.Email)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}

	req := httptest.NewRequest("GET", "/api/trackings", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: sessionID})
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestMiddlewareRateLimit(t *testing.T) {
	m, _, _, _ := testMiddleware(t)
	handler := m.Wrap(echoIdentity())

	var last int
	for i := 0; i < rateLimitMaxFail+2; i++ {
		req := httptest.NewRequest("GET", "/api/trackings", nil)
		req.RemoteAddr = "10.0.0.9:5000"
		req.Header.Set("Authorization", "Bearer rf_bogus")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		last = w.Code
	}

	if last != http.StatusTooManyRequests {
		t.Errorf("status = %d, want 429 after repeated failures", last)
	}
}

func TestPublicPathKeepsOptionalIdentity(t *testing.T) {
	m, users, jwt, _ := testMiddleware(t)
	handler := m.Wrap(echoIdentity())

	// Anonymous read works.
	req := httptest.NewRequest("GET", "/api/markets", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	if w.Body.String() != "anonymous" {
		t.Errorf("body = %q, want anonymous", w.Body.String())
	}

	// Authenticated read attaches identity.
	u, err := users.Register("v@example.com", "", "hunter2hunter2", "")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	token, err := jwt.IssueAccess(u)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	req = httptest.NewRequest("GET", "/api/markets", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	want := fmt.Sprintf("user:%d", u.ID)
	if w.Body.String() != want {
		t.Errorf("body = %q, want %q", w.Body.String(), want)
	}
}
