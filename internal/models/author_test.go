package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdminUser_PasswordRoundTrip(t *testing.T) {
	u := &AdminUser{Email: "admin@example.com"}
	require.NoError(t, u.SetPassword("mật khẩu dài"))

	assert.True(t, u.CheckPassword("mật khẩu dài"))
	assert.False(t, u.CheckPassword("sai"))
	assert.NotContains(t, u.PasswordHash, "mật khẩu dài")
}

func TestAdminUser_Lockout(t *testing.T) {
	now := time.Now()
	u := &AdminUser{}

	for i := 0; i < MaxLoginAttempts-1; i++ {
		u.RegisterFailedLogin(now)
		assert.False(t, u.IsLocked(now))
	}

	u.RegisterFailedLogin(now)
	assert.True(t, u.IsLocked(now))
	assert.False(t, u.IsLocked(now.Add(LockDuration+time.Second)), "lock expires")

	u.RegisterSuccessfulLogin(now)
	assert.False(t, u.IsLocked(now))
	assert.Zero(t, u.LoginAttempts)
	require.NotNil(t, u.LastLoginAt)
}
