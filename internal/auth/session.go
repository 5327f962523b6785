package auth

import (
	"database/sql"
	"fmt"
	"net/http"
	"time"
)

// SessionCookieName is the browser cookie holding the session ID.
const SessionCookieName = "rumfor_session"

const sessionTTL = 30 * 24 * time.Hour

// SessionStore manages browser cookie sessions, used for passkey
// ceremonies and logged-in browser access.
type SessionStore struct {
	db *sql.DB
}

// NewSessionStore creates a session store.
func NewSessionStore(db *sql.DB) *SessionStore {
	return &SessionStore{db: db}
}

// Create makes a new session for the email and returns its ID.
func (s *SessionStore) Create(email string) (string, error) {
	id, err := randomToken()
	if err != nil {
		return "", err
	}

	expires := time.Now().Add(sessionTTL)
	_, err = s.db.Exec(
		"INSERT INTO sessions (id, email, expires_at) VALUES (?, ?, ?)",
		id, email, expires,
	)
	if err != nil {
		return "", fmt.Errorf("storing session: %w", err)
	}

	return id, nil
}

// Validate checks a session ID and returns the associated email.
func (s *SessionStore) Validate(id string) (string, error) {
	var email string
	var expiresAt time.Time

	err := s.db.QueryRow(
		"SELECT email, expires_at FROM sessions WHERE id = ?", id,
	).Scan(&email, &expiresAt)
	if err == sql.ErrNoRows {
		return "", fmt.Errorf("invalid session")
	}
	if err != nil {
		return "", fmt.Errorf("querying session: %w", err)
	}

	if time.Now().After(expiresAt) {
		return "", fmt.Errorf("session expired")
	}

	return email, nil
}

// Delete removes a session.
func (s *SessionStore) Delete(id string) error {
	_, err := s.db.Exec("DELETE FROM sessions WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}
	return nil
}

// CleanupExpired removes expired sessions.
func (s *SessionStore) CleanupExpired() error {
	_, err := s.db.Exec("DELETE FROM sessions WHERE expires_at < ?", time.Now())
	if err != nil {
		return fmt.Errorf("cleaning up sessions: %w", err)
	}
	return nil
}

// SetCookie writes the session cookie on a response.
func SetCookie(w http.ResponseWriter, sessionID string, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    sessionID,
		Path:     "/",
		MaxAge:   int(sessionTTL.Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearCookie expires the session cookie.
func ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
}
