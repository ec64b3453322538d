package domain

import (
	"time"

	"github.com/google/uuid"
)

// Account roles
const (
	RoleTraveller = "traveller"
	RoleAdmin     = "admin"
	RoleOwner     = "owner"
)

// User is an account. A verify code is outstanding while VerifyCode is set;
// the same column carries password reset codes.
type User struct {
	ID                  string     `json:"id"`
	Name                string     `json:"name"`
	Email               string     `json:"email"`
	Role                string     `json:"role"`
	PasswordHash        string     `json:"-" yaml:"-"`
	IsVerified          bool       `json:"is_verified" yaml:"-"`
	VerifyCode          string     `json:"-" yaml:"-"`
	VerifyCodeExpiresAt *time.Time `json:"-" yaml:"-"`
	CreatedAt           time.Time  `json:"created_at" yaml:"-"`
	UpdatedAt           time.Time  `json:"updated_at" yaml:"-"`
}

// NewUser creates an unverified account
func NewUser(name, email, role, passwordHash string, now time.Time) *User {
	return &User{
		ID:           uuid.New().String(),
		Name:         name,
		Email:        email,
		Role:         role,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// SetVerifyCode stores code, valid for ttl
func (u *User) SetVerifyCode(code string, ttl time.Duration, now time.Time) {
	expires := now.Add(ttl)
	u.VerifyCode = code
	u.VerifyCodeExpiresAt = &expires
	u.UpdatedAt = now
}

// ClearVerifyCode consumes the outstanding code
func (u *User) ClearVerifyCode(now time.Time) {
	u.VerifyCode = ""
	u.VerifyCodeExpiresAt = nil
	u.UpdatedAt = now
}

// VerifyCodeValid reports whether code matches an unexpired outstanding code
func (u *User) VerifyCodeValid(code string, now time.Time) bool {
	if u.VerifyCode == "" || u.VerifyCode != code {
		return false
	}
	return u.VerifyCodeExpiresAt == nil || now.Before(*u.VerifyCodeExpiresAt)
}

// IsStaff reports whether the account may use the admin site
func (u *User) IsStaff() bool {
	return u.Role == RoleAdmin || u.Role == RoleOwner
}

// Session is a login. Only the SHA-256 of its token is stored.
type Session struct {
	TokenHash string    `json:"-"`
	UserID    string    `json:"user_id"`
	IP        string    `json:"ip"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

// IsExpired reports whether the session ended before now
func (s *Session) IsExpired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
