package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManagerSetGet(t *testing.T) {
	m := NewManagerWithStores(NewMockStore())

	cred := &Credential{Platform: "instagram", CookieFile: "/tmp/ig.txt"}
	require.NoError(t, m.Set(cred))
	assert.False(t, cred.LastModified.IsZero())

	got, err := m.Get("instagram")
	require.NoError(t, err)
	assert.Equal(t, "/tmp/ig.txt", got.CookieFile)
}

func TestManagerGetNotFound(t *testing.T) {
	m := NewManagerWithStores(NewMockStore())

	_, err := m.Get("tiktok")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestManagerRejectsInvalid(t *testing.T) {
	m := NewManagerWithStores(NewMockStore())

	assert.ErrorIs(t, m.Set(nil), ErrInvalidCredential)
	assert.ErrorIs(t, m.Set(&Credential{CookieFile: "/tmp/x"}), ErrInvalidCredential)

	_, err := m.Get("")
	assert.ErrorIs(t, err, ErrInvalidCredential)
}

func TestManagerFallsThroughChain(t *testing.T) {
	primary := NewMockStore()
	secondary := NewMockStore()
	require.NoError(t, secondary.Set(&Credential{Platform: "x", BrowserSource: "firefox"}))

	m := NewManagerWithStores(primary, secondary)

	got, err := m.Get("x")
	require.NoError(t, err)
	assert.Equal(t, "firefox", got.BrowserSource)
}

func TestManagerListMergesBackends(t *testing.T) {
	primary := NewMockStore()
	secondary := NewMockStore()
	require.NoError(t, primary.Set(&Credential{Platform: "youtube", CookieFile: "/tmp/yt-primary.txt"}))
	require.NoError(t, secondary.Set(&Credential{Platform: "youtube", CookieFile: "/tmp/yt-secondary.txt"}))
	require.NoError(t, secondary.Set(&Credential{Platform: "pinterest", CookieFile: "/tmp/pin.txt"}))

	m := NewManagerWithStores(primary, secondary)

	creds, err := m.List()
	require.NoError(t, err)
	require.Len(t, creds, 2)

	byPlatform := make(map[string]*Credential, len(creds))
	for _, c := range creds {
		byPlatform[c.Platform] = c
	}
	// Earlier backends win per platform.
	assert.Equal(t, "/tmp/yt-primary.txt", byPlatform["youtube"].CookieFile)
	assert.Equal(t, "/tmp/pin.txt", byPlatform["pinterest"].CookieFile)
}

func TestManagerDelete(t *testing.T) {
	store := NewMockStore()
	require.NoError(t, store.Set(&Credential{Platform: "facebook", CookieFile: "/tmp/fb.txt"}))

	m := NewManagerWithStores(store)
	require.NoError(t, m.Delete("facebook"))

	_, err := m.Get("facebook")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, m.Delete("facebook"), ErrNotFound)
}

func TestCredentialEmpty(t *testing.T) {
	var nilCred *Credential
	assert.True(t, nilCred.Empty())
	assert.True(t, (&Credential{Platform: "x"}).Empty())
	assert.False(t, (&Credential{Platform: "x", CookieFile: "/tmp/c"}).Empty())
	assert.False(t, (&Credential{Platform: "x", BrowserSource: "chrome"}).Empty())
}
