package web

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/rumfor/market-tracker/internal/auth"
)

func TestRegisterLoginMe(t *testing.T) {
	s, _ := testServer(t)

	w := apiRequest(t, s, "POST", "/api/auth/register", "", map[string]string{
		"email": "new@example.com", "name": "New Vendor", "password": "hunter2hunter2",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("register: status = %d, body %s", w.Code, w.Body.String())
	}
	var u auth.User
	decodeData(t, w, &u)
	if u.Role != auth.RoleVendor {
		t.Errorf("role = %q, want vendor", u.Role)
	}

	w = apiRequest(t, s, "POST", "/api/auth/login", "", map[string]string{
		"email": "new@example.com", "password": "hunter2hunter2",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("login: status = %d, body %s", w.Code, w.Body.String())
	}
	var pair tokenPair
	decodeData(t, w, &pair)
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatal("missing tokens")
	}

	w = apiRequest(t, s, "GET", "/api/auth/me", pair.AccessToken, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("me: status = %d", w.Code)
	}
	var me auth.User
	decodeData(t, w, &me)
	if me.Email != "new@example.com" {
		t.Errorf("email = %q", me.Email)
	}
}

func TestRegisterRejectsAdminRole(t *testing.T) {
	s, _ := testServer(t)

	w := apiRequest(t, s, "POST", "/api/auth/register", "", map[string]string{
		"email": "evil@example.com", "password": "hunter2hunter2", "role": "admin",
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestRegisterDuplicateConflict(t *testing.T) {
	s, _ := testServer(t)
	registerUser(t, s, "dup@example.com", "")

	w := apiRequest(t, s, "POST", "/api/auth/register", "", map[string]string{
		"email": "dup@example.com", "password": "hunter2hunter2",
	})
	if w.Code != http.StatusConflict {
		t.Errorf("status = %d, want 409", w.Code)
	}
}

func TestLoginInvalidCredentials(t *testing.T) {
	s, _ := testServer(t)
	registerUser(t, s, "v@example.com", "")

	w := apiRequest(t, s, "POST", "/api/auth/login", "", map[string]string{
		"email": "v@example.com", "password": "not-the-password",
	})
	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}

func TestRefreshRotation(t *testing.T) {
	s, _ := testServer(t)
	registerUser(t, s, "v@example.com", "")

	w := apiRequest(t, s, "POST", "/api/auth/login", "", map[string]string{
		"email": "v@example.com", "password": "hunter2hunter2",
	})
	var pair tokenPair
	decodeData(t, w, &pair)

	w = apiRequest(t, s, "POST", "/api/auth/refresh", "", map[string]string{
		"refreshToken": pair.RefreshToken,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("refresh: status = %d, body %s", w.Code, w.Body.String())
	}
	var next tokenPair
	decodeData(t, w, &next)
	if next.RefreshToken == pair.RefreshToken {
		t.Error("refresh token was not rotated")
	}

	// The old token is dead after rotation.
	w = apiRequest(t, s, "POST", "/api/auth/refresh", "", map[string]string{
		"refreshToken": pair.RefreshToken,
	})
	if w.Code != http.StatusUnauthorized {
		t.Errorf("stale refresh: status = %d, want 401", w.Code)
	}
}

func TestLogoutRevokesRefresh(t *testing.T) {
	s, _ := testServer(t)
	registerUser(t, s, "v@example.com", "")

	w := apiRequest(t, s, "POST", "/api/auth/login", "", map[string]string{
		"email": "v@example.com", "password": "hunter2hunter2",
	})
	var pair tokenPair
	decodeData(t, w, &pair)

	w = apiRequest(t, s, "POST", "/api/auth/logout", "", map[string]string{
		"refreshToken": pair.RefreshToken,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("logout: status = %d", w.Code)
	}

	w = apiRequest(t, s, "POST", "/api/auth/refresh", "", map[string]string{
		"refreshToken": pair.RefreshToken,
	})
	if w.Code != http.StatusUnauthorized {
		t.Errorf("refresh after logout: status = %d, want 401", w.Code)
	}
}

func TestEmailVerificationFlow(t *testing.T) {
	s, d := testServer(t)

	w := apiRequest(t, s, "POST", "/api/auth/register", "", map[string]string{
		"email": "verify@example.com", "password": "hunter2hunter2",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("register: status = %d", w.Code)
	}

	var token string
	err := d.QueryRow(
		"SELECT token FROM auth_tokens WHERE email = ? AND purpose = 'verify'", "verify@example.com",
	).Scan(&token)
	if err != nil {
		t.Fatalf("reading token: %v", err)
	}

	w = apiRequest(t, s, "GET", "/api/auth/verify?token="+token, "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("verify: status = %d, body %s", w.Code, w.Body.String())
	}

	u, err := s.users.GetByEmail("verify@example.com")
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if !u.EmailVerified {
		t.Error("expected verified email")
	}

	// Single use.
	w = apiRequest(t, s, "GET", "/api/auth/verify?token="+token, "", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("reuse: status = %d, want 400", w.Code)
	}
}

func TestPasswordResetFlow(t *testing.T) {
	s, d := testServer(t)
	registerUser(t, s, "reset@example.com", "")

	w := apiRequest(t, s, "POST", "/api/auth/password-reset/request", "", map[string]string{
		"email": "reset@example.com",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("request: status = %d", w.Code)
	}

	// Unknown accounts get the same answer.
	w = apiRequest(t, s, "POST", "/api/auth/password-reset/request", "", map[string]string{
		"email": "ghost@example.com",
	})
	if w.Code != http.StatusOK {
		t.Errorf("unknown account: status = %d, want 200", w.Code)
	}

	var token string
	err := d.QueryRow(
		"SELECT token FROM auth_tokens WHERE email = ? AND purpose = 'reset'", "reset@example.com",
	).Scan(&token)
	if err != nil {
		t.Fatalf("reading token: %v", err)
	}

	w = apiRequest(t, s, "POST", "/api/auth/password-reset/confirm", "", map[string]string{
		"token": token, "password": "brand-new-pass",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("confirm: status = %d, body %s", w.Code, w.Body.String())
	}

	if _, err := s.users.Authenticate("reset@example.com", "brand-new-pass"); err != nil {
		t.Errorf("new password rejected: %v", err)
	}
	if _, err := s.users.Authenticate("reset@example.com", "hunter2hunter2"); err == nil {
		t.Error("old password still works")
	}
}

func TestAPIKeyManagement(t *testing.T) {
	s, _ := testServer(t)
	_, token := registerUser(t, s, "cli@example.com", "")

	w := apiRequest(t, s, "POST", "/api/keys", token, map[string]string{"name": "laptop"})
	if w.Code != http.StatusCreated {
		t.Fatalf("create key: status = %d, body %s", w.Code, w.Body.String())
	}
	var created struct {
		ID  int64  `json:"id"`
		Key string `json:"key"`
	}
	decodeData(t, w, &created)
	if created.Key == "" {
		t.Fatal("missing plaintext key")
	}

	// The new key works as a bearer credential.
	w = apiRequest(t, s, "GET", "/api/trackings", created.Key, nil)
	if w.Code != http.StatusOK {
		t.Errorf("key as bearer: status = %d", w.Code)
	}

	w = apiRequest(t, s, "GET", "/api/keys", token, nil)
	var keys []*auth.APIKey
	decodeData(t, w, &keys)
	if len(keys) != 1 {
		t.Fatalf("got %d keys, want 1", len(keys))
	}

	w = apiRequest(t, s, "DELETE", fmt.Sprintf("/api/keys/%d", created.ID), token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("delete: status = %d", w.Code)
	}

	w = apiRequest(t, s, "GET", "/api/trackings", created.Key, nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("deleted key: status = %d, want 401", w.Code)
	}
}
