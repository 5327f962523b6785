package auth

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Role determines what a user may do. Promoters manage markets they
// created; admins manage everything.
type Role string

const (
	RoleVendor   Role = "vendor"
	RolePromoter Role = "promoter"
	RoleAdmin    Role = "admin"
)

// ValidRole returns true if r is a known role.
func ValidRole(r string) bool {
	switch Role(r) {
	case RoleVendor, RolePromoter, RoleAdmin:
		return true
	}
	return false
}

// User represents a registered account.
type User struct {
	ID            int64     `json:"id"`
	Email         string    `json:"email"`
	Name          string    `json:"name"`
	Role          Role      `json:"role"`
	EmailVerified bool      `json:"emailVerified"`
	CreatedAt     time.Time `json:"createdAt"`
}

// UserStore manages accounts in SQLite.
type UserStore struct {
	db         *sql.DB
	adminEmail string
}

// NewUserStore creates a user store. The configured admin email is
// always treated as an admin regardless of its stored role.
func NewUserStore(db *sql.DB, adminEmail string) *UserStore {
	return &UserStore{db: db, adminEmail: strings.ToLower(adminEmail)}
}

// Register creates a new account with a bcrypt-hashed password.
func (s *UserStore) Register(email, name, password string, role Role) (*User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	name = strings.TrimSpace(name)

	if email == "" || !strings.Contains(email, "@") {
		return nil, fmt.Errorf("valid email is required")
	}
	if len(password) < 8 {
		return nil, fmt.Errorf("password must be at least 8 characters")
	}
	if role == "" {
		role = RoleVendor
	}
	if !ValidRole(string(role)) {
		return nil, fmt.Errorf("invalid role: %q", role)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	result, err := s.db.Exec(
		"INSERT INTO users (email, name, role, password_hash) VALUES (?, ?, ?, ?)",
		email, name, string(role), string(hash),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			return nil, fmt.Errorf("user already exists: %s", email)
		}
		return nil, fmt.Errorf("adding user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting user ID: %w", err)
	}

	return s.GetByID(id)
}

// Authenticate checks email and password and returns the user.
func (s *UserStore) Authenticate(email, password string) (*User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	var hash string
	var u User
	var role string
	var verified int
	err := s.db.QueryRow(
		"SELECT id, email, name, role, password_hash, email_verified, created_at FROM users WHERE email = ?",
		email,
	).Scan(&u.ID, &u.Email, &u.Name, &role, &hash, &verified, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("invalid credentials")
	}
	if err != nil {
		return nil, fmt.Errorf("querying user: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return nil, fmt.Errorf("invalid credentials")
	}

	u.Role = Role(role)
	u.EmailVerified = verified != 0
	return &u, nil
}

// GetByID returns a user by ID.
func (s *UserStore) GetByID(id int64) (*User, error) {
	row := s.db.QueryRow(
		"SELECT id, email, name, role, email_verified, created_at FROM users WHERE id = ?", id,
	)
	return scanUser(row)
}

// GetByEmail returns a user by email.
func (s *UserStore) GetByEmail(email string) (*User, error) {
	row := s.db.QueryRow(
		"SELECT id, email, name, role, email_verified, created_at FROM users WHERE email = ?",
		strings.ToLower(strings.TrimSpace(email)),
	)
	return scanUser(row)
}

// SetPassword replaces the stored password hash.
func (s *UserStore) SetPassword(email, password string) error {
	if len(password) < 8 {
		return fmt.Errorf("password must be at least 8 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}

	result, err := s.db.Exec(
		"UPDATE users SET password_hash = ? WHERE email = ?",
		string(hash), strings.ToLower(strings.TrimSpace(email)),
	)
	if err != nil {
		return fmt.Errorf("updating password: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("user not found")
	}

	return nil
}

// MarkVerified flags an email address as verified.
func (s *UserStore) MarkVerified(email string) error {
	result, err := s.db.Exec(
		"UPDATE users SET email_verified = 1 WHERE email = ?",
		strings.ToLower(strings.TrimSpace(email)),
	)
	if err != nil {
		return fmt.Errorf("marking verified: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("user not found")
	}

	return nil
}

// IsAdmin checks whether a user has admin rights, either by role or by
// matching the configured admin email.
func (s *UserStore) IsAdmin(u *User) bool {
	if u == nil {
		return false
	}
	return u.Role == RoleAdmin || (s.adminEmail != "" && strings.ToLower(u.Email) == s.adminEmail)
}

func scanUser(row *sql.Row) (*User, error) {
	var u User
	var role string
	var verified int
	err := row.Scan(&u.ID, &u.Email, &u.Name, &role, &verified, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("user not found")
	}
	if err != nil {
		return nil, fmt.Errorf("querying user: %w", err)
	}
	u.Role = Role(role)
	u.EmailVerified = verified != 0
	return &u, nil
}
