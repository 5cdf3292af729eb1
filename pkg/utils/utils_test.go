package utils

import (
	"errors"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRandomSuffixDeterministic(t *testing.T) {
	a := RandomSuffix(rand.New(rand.NewSource(7)))
	b := RandomSuffix(rand.New(rand.NewSource(7)))
	c := RandomSuffix(rand.New(rand.NewSource(8)))

	assert.Len(t, a, 8)
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, RandomSuffix(nil), 8)
}

func TestWriteFileAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "index.json")

	err := WriteFileAtomic(path, func(f *os.File) error {
		_, err := f.WriteString("{}")
		return err
	})
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "{}", string(data))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file should be cleaned up")
}

func TestWriteFileAtomicKeepsOldContentOnError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.json")
	require.NoError(t, os.WriteFile(path, []byte("old"), 0o644))

	err := WriteFileAtomic(path, func(f *os.File) error {
		f.WriteString("partial")
		return errors.New("boom")
	})
	require.Error(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "old", string(data))
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(home, "Samples"), ExpandHome("~/Samples"))
	assert.Equal(t, "/abs/path", ExpandHome("/abs/path"))
	assert.Equal(t, "~user/x", ExpandHome("~user/x"))
}

func TestExistsHelpers(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "a.wav")
	require.NoError(t, os.WriteFile(file, nil, 0o644))

	assert.True(t, DirExists(dir))
	assert.False(t, DirExists(file))
	assert.True(t, FileExists(file))
	assert.False(t, FileExists(filepath.Join(dir, "missing.wav")))
	assert.NoError(t, DeleteFile(filepath.Join(dir, "missing.wav")))
}
