package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestUser_VerifyCodeValid(t *testing.T) {
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	u := NewUser("Ana", "ana@example.com", RoleTraveller, "hash", now)
	assert.False(t, u.VerifyCodeValid("", now))

	u.SetVerifyCode("abc-1", time.Hour, now)
	assert.True(t, u.VerifyCodeValid("abc-1", now.Add(59*time.Minute)))
	assert.False(t, u.VerifyCodeValid("abc-2", now))
	assert.False(t, u.VerifyCodeValid("abc-1", now.Add(time.Hour)))

	u.ClearVerifyCode(now)
	assert.False(t, u.VerifyCodeValid("abc-1", now))
	assert.Nil(t, u.VerifyCodeExpiresAt)
}

func TestUser_IsStaff(t *testing.T) {
	assert.False(t, (&User{Role: RoleTraveller}).IsStaff())
	assert.True(t, (&User{Role: RoleAdmin}).IsStaff())
	assert.True(t, (&User{Role: RoleOwner}).IsStaff())
}

func TestSession_IsExpired(t *testing.T) {
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	s := &Session{ExpiresAt: now.Add(time.Minute)}
	assert.False(t, s.IsExpired(now))
	assert.True(t, s.IsExpired(now.Add(time.Minute)))
}
