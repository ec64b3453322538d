package dto

import (
	"time"

	"github.com/bentansusanto/travel-api/internal/domain"
)

// RegisterRequest represents a sign-up. Site is client (default) or admin;
// admin sign-ups create owner accounts.
type RegisterRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Site     string `json:"site"`
}

// LoginRequest represents a sign-in on the client or admin site
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
	Site     string `json:"site"`
}

// EmailRequest carries the address a code is mailed to
type EmailRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// RefreshTokenRequest represents a session rotation
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// LogoutRequest names the session to end; empty falls back to the bearer token
type LogoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// ResetPasswordRequest carries the new password
type ResetPasswordRequest struct {
	Password string `json:"password" binding:"required,min=8"`
}

// UpdateProfileRequest represents a profile change
type UpdateProfileRequest struct {
	Name string `json:"name" binding:"required"`
}

// AuthResponse is returned by login and refresh. In session mode the access
// and refresh tokens are the same opaque session token.
type AuthResponse struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	TokenType    string       `json:"token_type"`
	ExpiresAt    time.Time    `json:"expires_at"`
	User         *domain.User `json:"user"`
}
