package api

import (
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"sync"
	"time"
)

// SessionCookieName is the admin login cookie.
const SessionCookieName = "nthl_session"

// Session is one authenticated admin login.
type Session struct {
	Token     string
	Email     string
	ExpiresAt time.Time
}

// SessionStore keeps admin sessions in memory. Sessions do not survive a
// restart; editors simply log in again.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]*Session
	ttl      time.Duration
}

// NewSessionStore creates a session store issuing sessions valid for ttl.
func NewSessionStore(ttl time.Duration) *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*Session),
		ttl:      ttl,
	}
}

// Create issues a new session for the given editor.
func (s *SessionStore) Create(email string) (*Session, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return nil, err
	}

	session := &Session{
		Token:     hex.EncodeToString(buf),
		Email:     email,
		ExpiresAt: time.Now().Add(s.ttl),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.prune()
	s.sessions[session.Token] = session
	return session, nil
}

// Get returns the session for the token, or false if absent or expired.
func (s *SessionStore) Get(token string) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[token]
	if !ok {
		return nil, false
	}
	if time.Now().After(session.ExpiresAt) {
		delete(s.sessions, token)
		return nil, false
	}
	return session, true
}

// Delete revokes the session for the token.
func (s *SessionStore) Delete(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, token)
}

// prune drops expired sessions. Caller holds the lock.
func (s *SessionStore) prune() {
	now := time.Now()
	for token, session := range s.sessions {
		if now.After(session.ExpiresAt) {
			delete(s.sessions, token)
		}
	}
}

// sessionCookie builds the login cookie for a session.
func sessionCookie(session *Session, secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     SessionCookieName,
		Value:    session.Token,
		Path:     "/",
		Expires:  session.ExpiresAt,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// expiredSessionCookie builds a cookie that clears the login.
func expiredSessionCookie(secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
}
