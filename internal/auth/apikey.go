package auth

import (
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"
)

// APIKey is a long-lived credential for the CLI and scripts. The full
// key is shown once at creation; only its hash is stored.
type APIKey struct {
	ID         int64      `json:"id"`
	Name       string     `json:"name"`
	Email      string     `json:"email"`
	KeyPrefix  string     `json:"keyPrefix"`
	CreatedAt  time.Time  `json:"createdAt"`
	LastUsedAt *time.Time `json:"lastUsedAt,omitempty"`
}

// APIKeyStore manages API keys in SQLite.
type APIKeyStore struct {
	db *sql.DB
}

// NewAPIKeyStore creates an API key store.
func NewAPIKeyStore(db *sql.DB) *APIKeyStore {
	return &APIKeyStore{db: db}
}

// Create generates a new API key for the email. Returns the record and
// the full plaintext key.
func (s *APIKeyStore) Create(name, email string) (*APIKey, string, error) {
	if name == "" {
		return nil, "", fmt.Errorf("key name is required")
	}

	key, err := generateAPIKey()
	if err != nil {
		return nil, "", err
	}

	prefix := key[:11] // "rf_" plus 8 hex chars
	result, err := s.db.Exec(
		"INSERT INTO api_keys (name, email, key_prefix, key_hash) VALUES (?, ?, ?, ?)",
		name, email, prefix, hashToken(key),
	)
	if err != nil {
		return nil, "", fmt.Errorf("storing api key: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, "", fmt.Errorf("getting key ID: %w", err)
	}

	record, err := s.GetByID(id)
	if err != nil {
		return nil, "", err
	}
	return record, key, nil
}

// Validate checks a plaintext key, updates its last-used timestamp,
// and returns the owning email.
func (s *APIKeyStore) Validate(key string) (string, error) {
	var id int64
	var email string
	err := s.db.QueryRow(
		"SELECT id, email FROM api_keys WHERE key_hash = ?", hashToken(key),
	).Scan(&id, &email)
	if err == sql.ErrNoRows {
		return "", fmt.Errorf("invalid api key")
	}
	if err != nil {
		return "", fmt.Errorf("querying api key: %w", err)
	}

	if _, err := s.db.Exec("UPDATE api_keys SET last_used_at = ? WHERE id = ?", time.Now(), id); err != nil {
		return "", fmt.Errorf("updating last used: %w", err)
	}

	return email, nil
}

// GetByID returns an API key record.
func (s *APIKeyStore) GetByID(id int64) (*APIKey, error) {
	var k APIKey
	var lastUsed sql.NullTime
	err := s.db.QueryRow(
		"SELECT id, name, email, key_prefix, created_at, last_used_at FROM api_keys WHERE id = ?", id,
	).Scan(&k.ID, &k.Name, &k.Email, &k.KeyPrefix, &k.CreatedAt, &lastUsed)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("api key not found")
	}
	if err != nil {
		return nil, fmt.Errorf("querying api key: %w", err)
	}
	if lastUsed.Valid {
		k.LastUsedAt = &lastUsed.Time
	}
	return &k, nil
}

// ListByEmail returns all keys owned by an email, newest first.
func (s *APIKeyStore) ListByEmail(email string) ([]*APIKey, error) {
	rows, err := s.db.Query(
		"SELECT id, name, email, key_prefix, created_at, last_used_at FROM api_keys WHERE email = ? ORDER BY id DESC",
		email,
	)
	if err != nil {
		return nil, fmt.Errorf("listing api keys: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			slog.Warn("closing rows", "error", closeErr)
		}
	}()

	var keys []*APIKey
	for rows.Next() {
		var k APIKey
		var lastUsed sql.NullTime
		if err := rows.Scan(&k.ID, &k.Name, &k.Email, &k.KeyPrefix, &k.CreatedAt, &lastUsed); err != nil {
			return nil, fmt.Errorf("scanning api key: %w", err)
		}
		if lastUsed.Valid {
			k.LastUsedAt = &lastUsed.Time
		}
		keys = append(keys, &k)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating api keys: %w", err)
	}

	return keys, nil
}

// Delete removes an API key owned by the email.
func (s *APIKeyStore) Delete(id int64, email string) error {
	result, err := s.db.Exec("DELETE FROM api_keys WHERE id = ? AND email = ?", id, email)
	if err != nil {
		return fmt.Errorf("deleting api key: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("api key not found")
	}

	return nil
}

// generateAPIKey produces a key of the form "rf_" + 64 hex chars.
func generateAPIKey() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generating api key: %w", err)
	}
	return "rf_" + hex.EncodeToString(b), nil
}
