package models

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

// AuthorProfileID is the fixed primary key of the single profile row.
const AuthorProfileID = "singleton"

// AuthorProfile is the site-wide author biography. Exactly one row exists;
// writes are upserts against AuthorProfileID.
type AuthorProfile struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Bio           string    `json:"bio"`
	BioShort      string    `json:"bio_short"`
	AvatarURL     string    `json:"avatar_url,omitempty"`
	CoverImageURL string    `json:"cover_image_url,omitempty"`
	SocialLinks   string    `json:"social_links,omitempty"`
	Awards        string    `json:"awards,omitempty"`
	Publications  string    `json:"publications,omitempty"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Login lockout policy: after MaxLoginAttempts consecutive failures the
// account is locked for LockDuration.
const (
	MaxLoginAttempts = 5
	LockDuration     = 15 * time.Minute
	bcryptCost       = 12
)

// AdminUser is a CMS editor account. Only the bcrypt hash of the password
// is stored.
type AdminUser struct {
	ID            string     `json:"id"`
	Email         string     `json:"email"`
	PasswordHash  string     `json:"-"`
	LoginAttempts int        `json:"-"`
	LockUntil     *time.Time `json:"-"`
	LastLoginAt   *time.Time `json:"last_login_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

// SetPassword replaces the stored hash with a bcrypt hash of password.
func (u *AdminUser) SetPassword(password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hash)
	return nil
}

// CheckPassword reports whether password matches the stored hash.
func (u *AdminUser) CheckPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}

// IsLocked reports whether the account is currently locked out.
func (u *AdminUser) IsLocked(now time.Time) bool {
	return u.LockUntil != nil && u.LockUntil.After(now)
}

// RegisterFailedLogin increments the failure counter and sets LockUntil
// once the attempt limit is reached.
func (u *AdminUser) RegisterFailedLogin(now time.Time) {
	u.LoginAttempts++
	if u.LoginAttempts >= MaxLoginAttempts {
		until := now.Add(LockDuration)
		u.LockUntil = &until
	}
}

// RegisterSuccessfulLogin resets the lockout state and records the login.
func (u *AdminUser) RegisterSuccessfulLogin(now time.Time) {
	u.LoginAttempts = 0
	u.LockUntil = nil
	u.LastLoginAt = &now
}
