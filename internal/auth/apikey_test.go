package auth

import (
	"strings"
	"testing"
)

func TestAPIKeyCreateAndValidate(t *testing.T) {
	store := NewAPIKeyStore(testDB(t))

	record, key, err := store.Create("laptop", "v@example.com")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !strings.HasPrefix(key, "rf_") {
		t.Errorf("key %q missing rf_ prefix", key)
	}
	if len(key) != 67 {
		t.Errorf("key length = %d, want 67", len(key))
	}
	if record.KeyPrefix != key[:11] {
		t.Errorf("prefix = %q, want %q", record.KeyPrefix, key[:11])
	}
	if record.LastUsedAt != nil {
		t.Error("new key should have no last-used time")
	}

	email, err := store.Validate(key)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if email != "v@example.com" {
		t.Errorf("email = %q", email)
	}

	// Validation should stamp last_used_at.
	record, err = store.GetByID(record.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if record.LastUsedAt == nil {
		t.Error("expected last-used time after validation")
	}
}

func TestAPIKeyValidateInvalid(t *testing.T) {
	store := NewAPIKeyStore(testDB(t))

	if _, err := store.Validate("rf_deadbeef"); err == nil {
		t.Fatal("expected error for unknown key")
	}
}

func TestAPIKeyRequiresName(t *testing.T) {
	store := NewAPIKeyStore(testDB(t))

	if _, _, err := store.Create("", "v@example.com"); err == nil {
		t.Fatal("expected error for empty name")
	}
}

func TestAPIKeyListAndDelete(t *testing.T) {
	store := NewAPIKeyStore(testDB(t))

	first, _, err := store.Create("laptop", "v@example.com")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, _, err := store.Create("phone", "v@example.com"); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, _, err := store.Create("other", "someone@example.com"); err != nil {
		t.Fatalf("create: %v", err)
	}

	keys, err := store.ListByEmail("v@example.com")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(keys) != 2 {
		t.Fatalf("got %d keys, want 2", len(keys))
	}
	if keys[0].Name != "phone" {
		t.Errorf("newest first: got %q", keys[0].Name)
	}

	// Owned by a different email, must not delete.
	if err := store.Delete(first.ID, "someone@example.com"); err == nil {
		t.Fatal("expected error deleting another user's key")
	}
	if err := store.Delete(first.ID, "v@example.com"); err != nil {
		t.Fatalf("delete: %v", err)
	}

	keys, err = store.ListByEmail("v@example.com")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(keys) != 1 {
		t.Errorf("got %d keys after delete, want 1", len(keys))
	}
}
