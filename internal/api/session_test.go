package api

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionStore_CreateAndGet(t *testing.T) {
	store := NewSessionStore(time.Hour)

	session, err := store.Create("admin@example.com")
	require.NoError(t, err)
	assert.Len(t, session.Token, 64)

	got, ok := store.Get(session.Token)
	require.True(t, ok)
	assert.Equal(t, "admin@example.com", got.Email)

	_, ok = store.Get("không tồn tại")
	assert.False(t, ok)
}

func TestSessionStore_Expiry(t *testing.T) {
	store := NewSessionStore(-time.Minute)

	session, err := store.Create("admin@example.com")
	require.NoError(t, err)

	_, ok := store.Get(session.Token)
	assert.False(t, ok, "expired sessions are rejected and dropped")
}

func TestSessionStore_Delete(t *testing.T) {
	store := NewSessionStore(time.Hour)

	session, err := store.Create("admin@example.com")
	require.NoError(t, err)

	store.Delete(session.Token)
	_, ok := store.Get(session.Token)
	assert.False(t, ok)
}

func TestSessionStore_UniqueTokens(t *testing.T) {
	store := NewSessionStore(time.Hour)

	a, err := store.Create("admin@example.com")
	require.NoError(t, err)
	b, err := store.Create("admin@example.com")
	require.NoError(t, err)
	assert.NotEqual(t, a.Token, b.Token)
}
