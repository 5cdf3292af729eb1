package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupCLI writes a config file pointing the index and output folder into a temp dir
// and returns its path together with a scanned sample library.
func setupCLI(t *testing.T) (cfgPath, lib, dir string) {
	t.Helper()
	dir = t.TempDir()
	lib = filepath.Join(dir, "lib")
	for _, name := range []string{"kick_a_140bpm.wav", "kick_b_90bpm.wav", "pad_Cm.wav"} {
		require.NoError(t, os.MkdirAll(lib, 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(lib, name), []byte("RIFF"), 0o644))
	}

	cfg := fmt.Sprintf(`output_folder: %q
index:
  store: json
  path: %q
synth:
  sample_rate: 8000
log:
  level: error
`, filepath.Join(dir, "beats"), filepath.Join(dir, "index.json"))
	cfgPath = filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfg), 0o644))

	out, err := runCLI(t, "--config", cfgPath, "scan", "-q", lib)
	require.NoError(t, err)
	require.Contains(t, out, "Indexed 3 new sample(s)")
	return cfgPath, lib, dir
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestSearchCommand(t *testing.T) {
	cfg, _, _ := setupCLI(t)

	out, err := runCLI(t, "--config", cfg, "search", "kick")
	require.NoError(t, err)
	assert.Contains(t, out, "Found 2 match(es)")
	assert.Less(t, strings.Index(out, "kick_a_140bpm.wav"), strings.Index(out, "kick_b_90bpm.wav"))
	assert.NotContains(t, out, "in range")

	out, err = runCLI(t, "--config", cfg, "search", "kick", "--bpm-min", "80", "--bpm-max", "100")
	require.NoError(t, err)
	assert.Contains(t, out, "BPM 90 in range")
	assert.Less(t, strings.Index(out, "kick_b_90bpm.wav"), strings.Index(out, "kick_a_140bpm.wav"))

	out, err = runCLI(t, "--config", cfg, "search", "cm", "-c", "melody", "-n", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "No samples match")
}

func TestSearchCommandRejectsBadFlags(t *testing.T) {
	cfg, _, _ := setupCLI(t)

	_, err := runCLI(t, "--config", cfg, "search", "kick", "--bpm-min", "120", "--bpm-max", "100")
	assert.ErrorContains(t, err, "--bpm-min")

	_, err = runCLI(t, "--config", cfg, "search", "kick", "-c", "cowbell")
	assert.ErrorContains(t, err, "unknown category")

	_, err = runCLI(t, "--config", cfg, "search")
	assert.Error(t, err)
}

func TestGenerateCommand(t *testing.T) {
	cfg, _, dir := setupCLI(t)
	outDir := filepath.Join(dir, "renders")

	out, err := runCLI(t, "--config", cfg, "generate", "dark", "trap", "-d", "2", "--seed", "7", "-o", outDir)
	require.NoError(t, err)
	assert.Contains(t, out, "Genre:    trap")
	assert.Contains(t, out, "Mood:     dark")
	assert.Contains(t, out, "Duration: 2s")

	entries, err := os.ReadDir(outDir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, strings.HasPrefix(entries[0].Name(), "beat_trap_"), entries[0].Name())
	assert.Equal(t, ".wav", filepath.Ext(entries[0].Name()))
}
