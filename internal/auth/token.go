package auth

import (
	"database/sql"
	"fmt"
	"time"
)

// TokenPurpose distinguishes what a one-time email token is for.
type TokenPurpose string

const (
	PurposeVerify TokenPurpose = "verify"
	PurposeReset  TokenPurpose = "reset"
)

const emailTokenTTL = 15 * time.Minute

// TokenStore manages short-lived single-use tokens sent by email for
// address verification and password resets.
type TokenStore struct {
	db *sql.DB
}

// NewTokenStore creates a token store.
func NewTokenStore(db *sql.DB) *TokenStore {
	return &TokenStore{db: db}
}

// Create generates a token for the given email and purpose.
func (s *TokenStore) Create(email string, purpose TokenPurpose) (string, error) {
	token, err := randomToken()
	if err != nil {
		return "", err
	}

	expires := time.Now().Add(emailTokenTTL)
	_, err = s.db.Exec(
		"INSERT INTO auth_tokens (token, email, purpose, expires_at) VALUES (?, ?, ?, ?)",
		token, email, string(purpose), expires,
	)
	if err != nil {
		return "", fmt.Errorf("storing token: %w", err)
	}

	return token, nil
}

// Verify checks a token for the given purpose and marks it used.
// Returns the email it was issued for.
func (s *TokenStore) Verify(token string, purpose TokenPurpose) (string, error) {
	var email string
	var expiresAt time.Time
	var used int

	err := s.db.QueryRow(
		"SELECT email, expires_at, used FROM auth_tokens WHERE token = ? AND purpose = ?",
		token, string(purpose),
	).Scan(&email, &expiresAt, &used)
	if err == sql.ErrNoRows {
		return "", fmt.Errorf("invalid token")
	}
	if err != nil {
		return "", fmt.Errorf("querying token: %w", err)
	}

	if used != 0 {
		return "", fmt.Errorf("token already used")
	}
	if time.Now().After(expiresAt) {
		return "", fmt.Errorf("token expired")
	}

	_, err = s.db.Exec("UPDATE auth_tokens SET used = 1 WHERE token = ?", token)
	if err != nil {
		return "", fmt.Errorf("marking token used: %w", err)
	}

	return email, nil
}

// CleanupExpired removes expired and used tokens.
func (s *TokenStore) CleanupExpired() error {
	_, err := s.db.Exec(
		"DELETE FROM auth_tokens WHERE expires_at < ? OR used = 1", time.Now(),
	)
	if err != nil {
		return fmt.Errorf("cleaning up tokens: %w", err)
	}
	return nil
}
