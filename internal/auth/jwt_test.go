package auth

import (
	"strings"
	"testing"
)

func TestIssueAndParseAccess(t *testing.T) {
	m := NewJWTManager("test-secret")
	u := &User{ID: 42, Email: "v@example.com", Role: RolePromoter}

	token, err := m.IssueAccess(u)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	claims, err := m.ParseAccess(token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.Email != "v@example.com" {
		t.Errorf("email = %q", claims.Email)
	}
	if claims.Role != "promoter" {
		t.Errorf("role = %q", claims.Role)
	}
	id, err := claims.UserID()
	if err != nil {
		t.Fatalf("user id: %v", err)
	}
	if id != 42 {
		t.Errorf("user id = %d, want 42", id)
	}
}

func TestParseAccessWrongSecret(t *testing.T) {
	token, err := NewJWTManager("secret-a").IssueAccess(&User{ID: 1, Email: "a@b.com", Role: RoleVendor})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if _, err := NewJWTManager("secret-b").ParseAccess(token); err == nil {
		t.Fatal("expected error for wrong secret")
	}
}

func TestParseAccessGarbage(t *testing.T) {
	m := NewJWTManager("test-secret")
	if _, err := m.ParseAccess("not.a.jwt"); err == nil {
		t.Fatal("expected error for garbage token")
	}
}

func TestEmptySecret(t *testing.T) {
	m := NewJWTManager("")
	if _, err := m.IssueAccess(&User{ID: 1}); err == nil {
		t.Fatal("expected error with empty secret")
	}
	if _, err := m.ParseAccess("whatever"); err == nil {
		t.Fatal("expected error with empty secret")
	}
}

func TestRefreshIssueAndRotate(t *testing.T) {
	store := NewRefreshStore(testDB(t))
	users := NewUserStore(store.db, "")
	u, err := users.Register("r@example.com", "", "hunter2hunter2", "")
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	first, err := store.Issue(u.ID)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if len(first) != 64 {
		t.Errorf("token length = %d, want 64 hex chars", len(first))
	}

	userID, second, err := store.Rotate(first)
	if err != nil {
		t.Fatalf("rotate: %v", err)
	}
	if userID != u.ID {
		t.Errorf("user id = %d, want %d", userID, u.ID)
	}
	if second == first {
		t.Error("rotation returned the same token")
	}

	// The old token is now revoked; reusing it revokes the whole family.
	if _, _, err := store.Rotate(first); err == nil {
		t.Fatal("expected error reusing rotated token")
	}
	if _, _, err := store.Rotate(second); err == nil {
		t.Fatal("expected family revocation after reuse")
	}
}

func TestRefreshRevoke(t *testing.T) {
	store := NewRefreshStore(testDB(t))
	users := NewUserStore(store.db, "")
	u, err := users.Register("r@example.com", "", "hunter2hunter2", "")
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	token, err := store.Issue(u.ID)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if err := store.Revoke(token); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if _, _, err := store.Rotate(token); err == nil {
		t.Fatal("expected error rotating revoked token")
	}

	err = store.Revoke("0000000000000000000000000000000000000000000000000000000000000000")
	if err == nil || !strings.Contains(err.Error(), "invalid") {
		t.Fatalf("expected invalid token error, got %v", err)
	}
}
