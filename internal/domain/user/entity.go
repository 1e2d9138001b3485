package user

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// Role represents user role in the system (matches user_role enum)
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// User represents a user account (matches users table)
type User struct {
	ID            uuid.UUID      `db:"id"`
	Email         sql.NullString `db:"email"`
	Phone         sql.NullString `db:"phone"`
	PasswordHash  sql.NullString `db:"password_hash"`
	Nickname      string         `db:"nickname"`
	AvatarURL     sql.NullString `db:"avatar_url"`
	Role          Role           `db:"role"`
	GoogleID      sql.NullString `db:"google_id"`
	EmailVerified bool           `db:"email_verified"`
	PhoneVerified bool           `db:"phone_verified"`
	IsBanned      bool           `db:"is_banned"`

	LastLoginAt sql.NullTime   `db:"last_login_at"`
	LastLoginIP sql.NullString `db:"last_login_ip"`

	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// IsAdmin returns true if user is an admin
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// IsActive returns true if user is not banned
func (u *User) IsActive() bool {
	return !u.IsBanned
}

// HasPassword returns true when the account can log in with a password.
// OAuth-only accounts have none.
func (u *User) HasPassword() bool {
	return u.PasswordHash.Valid && u.PasswordHash.String != ""
}

// Identifier returns the login identifier for display, email first
func (u *User) Identifier() string {
	if u.Email.Valid && u.Email.String != "" {
		return u.Email.String
	}
	return u.Phone.String
}
