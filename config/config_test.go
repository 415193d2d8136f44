package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	t.Parallel()

	s, err := Load(filepath.Join(t.TempDir(), "settings.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), s)
}

func TestSaveThenLoadRoundTrip(t *testing.T) {
	t.Parallel()

	// Parent dirs don't exist yet; Save must create them.
	path := filepath.Join(t.TempDir(), "pulse", "settings.yaml")

	want := Settings{Tempo: 93, BeatsPerBar: 7, Subdivision: 3, Volume: 0.4}
	require.NoError(t, Save(path, want))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestLoadKeepsDefaultsForMissingKeys(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "settings.yaml")
	require.NoError(t, os.WriteFile(path, []byte("tempo: 150\n"), 0o644))

	s, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 150, s.Tempo)
	assert.Equal(t, Default().BeatsPerBar, s.BeatsPerBar)
	assert.Equal(t, Default().Subdivision, s.Subdivision)
	assert.Equal(t, Default().Volume, s.Volume)
}

func TestLoadRejectsMalformedFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "settings.yaml")
	require.NoError(t, os.WriteFile(path, []byte("tempo: [not a number\n"), 0o644))

	s, err := Load(path)
	require.Error(t, err)
	assert.Equal(t, Default(), s)
}

func TestDefaultPathUnderUserConfigDir(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	path, err := DefaultPath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "pulse", "settings.yaml"), path)
}
