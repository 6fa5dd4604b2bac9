package auth

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleState(platform string) *State {
	return &State{
		Platform: platform,
		Cookies: []Cookie{
			{Name: "sessionid", Value: "secret-session", Domain: ".instagram.com", Path: "/", Secure: true, HTTPOnly: true},
			{Name: "csrftoken", Value: "token", Domain: ".instagram.com", Path: "/"},
		},
		Origins: []Origin{
			{Origin: "https://www.instagram.com", LocalStorage: []StorageEntry{{Name: "ig_did", Value: "device"}}},
		},
		SavedAt:   time.Now().UTC().Truncate(time.Second),
		UserAgent: "test-agent",
	}
}

func TestFileStoreRoundTrip(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	state := sampleState("instagram")
	require.NoError(t, store.Save(state))
	assert.True(t, store.Exists("instagram"))

	loaded, err := store.Load("instagram")
	require.NoError(t, err)
	assert.Equal(t, state.Cookies, loaded.Cookies)
	assert.Equal(t, state.Origins, loaded.Origins)
	assert.Equal(t, "instagram", loaded.Platform)
}

func TestFileStoreMissingState(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	assert.False(t, store.Exists("x"))
	_, err = store.Load("x")
	assert.True(t, errors.Is(err, ErrStateNotFound))
}

func TestFileStoreRejectsEmptyPlatform(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	assert.Error(t, store.Save(&State{}))
	assert.Error(t, store.Save(nil))
}

func TestFileStorePermissions(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, store.Save(sampleState("x")))

	info, err := os.Stat(store.Path("x"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestEncryptedStoreRoundTrip(t *testing.T) {
	t.Setenv(passphraseEnv, "test-passphrase")

	store, err := NewEncryptedFileStore(t.TempDir())
	require.NoError(t, err)

	state := sampleState("x")
	require.NoError(t, store.Save(state))
	assert.True(t, store.Exists("x"))

	loaded, err := store.Load("x")
	require.NoError(t, err)
	assert.Equal(t, state.Cookies, loaded.Cookies)
}

func TestEncryptedStoreCiphertextHidesSecrets(t *testing.T) {
	t.Setenv(passphraseEnv, "test-passphrase")

	store, err := NewEncryptedFileStore(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, store.Save(sampleState("instagram")))

	raw, err := os.ReadFile(store.Path("instagram"))
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "secret-session")
}

func TestEncryptedStoreWrongPassphrase(t *testing.T) {
	dir := t.TempDir()

	t.Setenv(passphraseEnv, "first-passphrase")
	store, err := NewEncryptedFileStore(dir)
	require.NoError(t, err)
	require.NoError(t, store.Save(sampleState("x")))

	t.Setenv(passphraseEnv, "wrong-passphrase")
	store2, err := NewEncryptedFileStore(dir)
	require.NoError(t, err)
	_, err = store2.Load("x")
	assert.Error(t, err)
}

func TestNewStoreSelectsImplementation(t *testing.T) {
	dir := t.TempDir()

	plain, err := NewStore(filepath.Join(dir, "plain"), false)
	require.NoError(t, err)
	_, ok := plain.(*FileStore)
	assert.True(t, ok)

	t.Setenv(passphraseEnv, "pw")
	enc, err := NewStore(filepath.Join(dir, "enc"), true)
	require.NoError(t, err)
	_, ok = enc.(*EncryptedFileStore)
	assert.True(t, ok)
}
