package userconfig

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessions(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	token, err := GetSession("https://api.example.com")
	require.NoError(t, err)
	assert.Empty(t, token)

	require.NoError(t, SetSession("https://api.example.com", "tok-1"))
	require.NoError(t, SetSession("http://localhost:8000", "tok-2"))

	token, err = GetSession("https://api.example.com")
	require.NoError(t, err)
	assert.Equal(t, "tok-1", token)

	require.NoError(t, ClearSession("https://api.example.com"))
	token, err = GetSession("https://api.example.com")
	require.NoError(t, err)
	assert.Empty(t, token)

	token, err = GetSession("http://localhost:8000")
	require.NoError(t, err)
	assert.Equal(t, "tok-2", token)

	// Clearing a missing session is a no-op
	require.NoError(t, ClearSession("https://nowhere.example.com"))
}

func TestSave_FilePermissions(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	require.NoError(t, SetLastUsername("alice"))

	path := filepath.Join(home, ".config", "uptome", "config.json")
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "alice", cfg.LastUsername)
}

func TestLoad_CorruptFile(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	dir := filepath.Join(home, ".config", "uptome")
	require.NoError(t, os.MkdirAll(dir, 0700))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.json"), []byte("{nope"), 0600))

	_, err := Load()
	assert.ErrorContains(t, err, "failed to parse user config file")
}
