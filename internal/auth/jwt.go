package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	accessTokenTTL  = 15 * time.Minute
	refreshTokenTTL = 30 * 24 * time.Hour
)

// Claims are the JWT claims carried by access tokens.
type Claims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// JWTManager issues and verifies short-lived access tokens.
type JWTManager struct {
	secret []byte
}

// NewJWTManager creates a manager. An empty secret disables JWT auth;
// callers should treat that as a configuration error in production.
func NewJWTManager(secret string) *JWTManager {
	return &JWTManager{secret: []byte(secret)}
}

// IssueAccess signs a 15-minute access token for the user.
func (m *JWTManager) IssueAccess(u *User) (string, error) {
	if len(m.secret) == 0 {
		return "", fmt.Errorf("jwt secret not configured")
	}

	now := time.Now()
	claims := Claims{
		Email: u.Email,
		Role:  string(u.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(u.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(accessTokenTTL)),
			ID:        uuid.NewString(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return signed, nil
}

// ParseAccess verifies a token and returns its claims.
func (m *JWTManager) ParseAccess(tokenString string) (*Claims, error) {
	if len(m.secret) == 0 {
		return nil, fmt.Errorf("jwt secret not configured")
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("parsing token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}

// UserID returns the numeric subject of the claims.
func (c *Claims) UserID() (int64, error) {
	id, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing subject: %w", err)
	}
	return id, nil
}

// RefreshStore manages long-lived refresh tokens. Only a SHA-256 hash
// of each token is stored; the plaintext exists only in the response
// that issued it.
type RefreshStore struct {
	db *sql.DB
}

// NewRefreshStore creates a refresh token store.
func NewRefreshStore(db *sql.DB) *RefreshStore {
	return &RefreshStore{db: db}
}

// Issue creates a refresh token for a user and returns the plaintext.
func (s *RefreshStore) Issue(userID int64) (string, error) {
	plain, err := randomToken()
	if err != nil {
		return "", err
	}

	expires := time.Now().Add(refreshTokenTTL)
	_, err = s.db.Exec(
		"INSERT INTO refresh_tokens (id, user_id, token_hash, expires_at) VALUES (?, ?, ?, ?)",
		uuid.NewString(), userID, hashToken(plain), expires,
	)
	if err != nil {
		return "", fmt.Errorf("storing refresh token: %w", err)
	}

	return plain, nil
}

// Rotate validates a refresh token, revokes it, and issues a new one.
// It returns the owning user ID and the new plaintext token.
func (s *RefreshStore) Rotate(plain string) (int64, string, error) {
	userID, err := s.consume(plain)
	if err != nil {
		return 0, "", err
	}

	next, err := s.Issue(userID)
	if err != nil {
		return 0, "", err
	}
	return userID, next, nil
}

// Revoke invalidates a refresh token without issuing a replacement.
func (s *RefreshStore) Revoke(plain string) error {
	_, err := s.consume(plain)
	return err
}

// RevokeAll invalidates every refresh token belonging to a user.
func (s *RefreshStore) RevokeAll(userID int64) error {
	_, err := s.db.Exec(
		"UPDATE refresh_tokens SET revoked = 1 WHERE user_id = ? AND revoked = 0", userID,
	)
	if err != nil {
		return fmt.Errorf("revoking refresh tokens: %w", err)
	}
	return nil
}

// CleanupExpired removes expired and revoked refresh tokens.
func (s *RefreshStore) CleanupExpired() error {
	_, err := s.db.Exec(
		"DELETE FROM refresh_tokens WHERE expires_at < ? OR revoked = 1", time.Now(),
	)
	if err != nil {
		return fmt.Errorf("cleaning up refresh tokens: %w", err)
	}
	return nil
}

// consume looks up a live token by hash, marks it revoked, and returns
// the owning user ID.
func (s *RefreshStore) consume(plain string) (int64, error) {
	hash := hashToken(plain)

	var id string
	var userID int64
	var expires time.Time
	var revoked int
	err := s.db.QueryRow(
		"SELECT id, user_id, expires_at, revoked FROM refresh_tokens WHERE token_hash = ?", hash,
	).Scan(&id, &userID, &expires, &revoked)
	if err == sql.ErrNoRows {
		return 0, fmt.Errorf("invalid refresh token")
	}
	if err != nil {
		return 0, fmt.Errorf("querying refresh token: %w", err)
	}

	if revoked != 0 {
		// Reuse of a revoked token suggests theft; kill the family.
		if err := s.RevokeAll(userID); err != nil {
			return 0, err
		}
		return 0, fmt.Errorf("refresh token revoked")
	}
	if time.Now().After(expires) {
		return 0, fmt.Errorf("refresh token expired")
	}

	if _, err := s.db.Exec("UPDATE refresh_tokens SET revoked = 1 WHERE id = ?", id); err != nil {
		return 0, fmt.Errorf("revoking refresh token: %w", err)
	}

	return userID, nil
}

func randomToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generating token: %w", err)
	}
	return hex.EncodeToString(b), nil
}

func hashToken(plain string) string {
	sum := sha256.Sum256([]byte(plain))
	return hex.EncodeToString(sum[:])
}
