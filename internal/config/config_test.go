package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "{}\n"))
	require.NoError(t, err)

	assert.Equal(t, "json", cfg.Index.Store)
	assert.Equal(t, "sample_index.json", filepath.Base(cfg.Index.Path))
	assert.True(t, filepath.IsAbs(cfg.Index.Path))
	assert.Equal(t, 90.0, cfg.Preferences.DefaultBPM)
	assert.Equal(t, "wav", cfg.Preferences.AudioFormat)
	assert.Equal(t, 44100, cfg.Synth.SampleRate)
	assert.Equal(t, 120.0, cfg.Synth.Tempo)
	assert.Equal(t, 10, cfg.Search.Limit)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, []string{"*"}, cfg.Server.Origins)
	assert.Empty(t, cfg.SampleFolders)
}

func TestLoadFile(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	path := writeConfig(t, `
sample_folders:
  - ~/Samples
  - /opt/kits
index:
  store: SQLite
  workers: 3
preferences:
  default_bpm: 140
server:
  port: 9000
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, []string{filepath.Join(home, "Samples"), "/opt/kits"}, cfg.SampleFolders)
	assert.Equal(t, "sqlite", cfg.Index.Store)
	assert.Equal(t, "sample_index.sqlite3", filepath.Base(cfg.Index.Path))
	assert.Equal(t, 3, cfg.Index.Workers)
	assert.Equal(t, 140.0, cfg.Preferences.DefaultBPM)
	assert.Equal(t, 9000, cfg.Server.Port)
}

func TestEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "server:\n  port: 9000\n")
	t.Setenv("SENSEI_SERVER_PORT", "9191")
	t.Setenv("SENSEI_SYNTH_TEMPO", "95")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9191, cfg.Server.Port)
	assert.Equal(t, 95.0, cfg.Synth.Tempo)
}

func TestLoadRejectsBadValues(t *testing.T) {
	_, err := Load(writeConfig(t, "index:\n  store: redis\n"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "server:\n  port: 70000\n"))
	assert.Error(t, err)
}
