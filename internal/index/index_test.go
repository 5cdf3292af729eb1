package index

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/himanishpuri/SampleSensei/internal/storage"
	"github.com/himanishpuri/SampleSensei/pkg/logger"
	"github.com/himanishpuri/SampleSensei/pkg/models"
)

// setupLibrary creates the named files (relative paths) under a fresh directory.
func setupLibrary(t *testing.T, files ...string) string {
	t.Helper()
	root := t.TempDir()
	for _, f := range files {
		path := filepath.Join(root, filepath.FromSlash(f))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte("RIFF"), 0o644))
	}
	return root
}

func newIndex(t *testing.T, store storage.Store, opts ...Option) *SampleIndex {
	t.Helper()
	opts = append([]Option{WithLogger(logger.Discard())}, opts...)
	x, err := New(store, opts...)
	require.NoError(t, err)
	return x
}

func paths(ms []models.SampleMetadata) []string {
	out := make([]string, 0, len(ms))
	for _, m := range ms {
		out = append(out, filepath.Base(m.FilePath))
	}
	return out
}

func TestScanFolderExtractsMetadata(t *testing.T) {
	root := setupLibrary(t, "kick_dark_90bpm.wav", "notes.txt", "Pad_Cm.FLAC")
	x := newIndex(t, nil)

	added, err := x.ScanFolder(context.Background(), root, true)
	require.NoError(t, err)
	require.Len(t, added, 2)

	kick, ok := x.Get(filepath.Join(root, "kick_dark_90bpm.wav"))
	require.True(t, ok)
	assert.Equal(t, models.CategoryDrums, kick.Category)
	assert.Equal(t, []string{"dark"}, kick.Tags)
	require.NotNil(t, kick.BPM)
	assert.Equal(t, 90.0, *kick.BPM)
	assert.Nil(t, kick.Key)
	assert.Equal(t, ".wav", kick.Extension)
	assert.Equal(t, int64(4), kick.SizeBytes)
	assert.Equal(t, root, kick.Folder)

	pad, ok := x.Get(filepath.Join(root, "Pad_Cm.FLAC"))
	require.True(t, ok)
	require.NotNil(t, pad.Key)
	assert.Equal(t, "C minor", *pad.Key)
	assert.Equal(t, ".flac", pad.Extension)
}

func TestScanFolderIsIdempotent(t *testing.T) {
	root := setupLibrary(t, "a/kick.wav", "b/snare.mp3", "loop.ogg")
	x := newIndex(t, nil)

	first, err := x.ScanFolder(context.Background(), root, true)
	require.NoError(t, err)
	assert.Len(t, first, 3)
	before := x.All()

	second, err := x.ScanFolder(context.Background(), root, true)
	require.NoError(t, err)
	assert.Empty(t, second)
	assert.Equal(t, before, x.All())
}

func TestScanFolderPicksUpOnlyNewFiles(t *testing.T) {
	root := setupLibrary(t, "kick.wav")
	x := newIndex(t, nil)

	_, err := x.ScanFolder(context.Background(), root, true)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(root, "clap.wav"), nil, 0o644))
	added, err := x.ScanFolder(context.Background(), root, true)
	require.NoError(t, err)
	assert.Equal(t, []string{"clap.wav"}, paths(added))
	assert.Equal(t, 2, x.Count())
}

func TestScanFolderMissing(t *testing.T) {
	x := newIndex(t, nil)
	added, err := x.ScanFolder(context.Background(), filepath.Join(t.TempDir(), "nope"), true)
	require.NoError(t, err)
	assert.NotNil(t, added)
	assert.Empty(t, added)
}

func TestScanFolderNonRecursive(t *testing.T) {
	root := setupLibrary(t, "top.wav", "sub/deep.wav")
	x := newIndex(t, nil)

	added, err := x.ScanFolder(context.Background(), root, false)
	require.NoError(t, err)
	assert.Equal(t, []string{"top.wav"}, paths(added))
}

func TestScanFolderUsesScannedFolderForCategory(t *testing.T) {
	root := setupLibrary(t, "Vocals/take_01.wav", "misc/take_02.wav")
	x := newIndex(t, nil)

	_, err := x.ScanFolder(context.Background(), root, true)
	require.NoError(t, err)

	v, _ := x.Get(filepath.Join(root, "Vocals", "take_01.wav"))
	assert.Equal(t, models.CategoryVocal, v.Category)
	m, _ := x.Get(filepath.Join(root, "misc", "take_02.wav"))
	assert.Equal(t, models.CategorySample, m.Category)
}

func TestScanCategoryFolderDirectly(t *testing.T) {
	lib := setupLibrary(t, "Kicks/dark_90bpm.wav", "Kicks/sub/thing.wav")
	root := filepath.Join(lib, "Kicks")
	x := newIndex(t, nil)

	added, err := x.ScanFolder(context.Background(), root, true)
	require.NoError(t, err)
	require.Len(t, added, 2)
	for _, m := range added {
		assert.Equal(t, models.CategoryDrums, m.Category, m.FilePath)
	}
}

func TestScanFolderCancelled(t *testing.T) {
	root := setupLibrary(t, "kick.wav")
	x := newIndex(t, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := x.ScanFolder(ctx, root, true)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, x.Count())
}

func TestScanPersistsAndReloads(t *testing.T) {
	root := setupLibrary(t, "b_snare.wav", "a_kick.wav")
	store := storage.NewJSONStore(filepath.Join(t.TempDir(), "index.json"))
	x := newIndex(t, store)

	_, err := x.ScanFolder(context.Background(), root, true)
	require.NoError(t, err)
	want := x.All()
	require.NoError(t, x.Close())

	reloaded := newIndex(t, storage.NewJSONStore(store.Path()))
	assert.Equal(t, len(want), reloaded.Count())
	for i, m := range reloaded.All() {
		assert.Equal(t, want[i].FilePath, m.FilePath)
	}

	added, err := reloaded.ScanFolder(context.Background(), root, true)
	require.NoError(t, err)
	assert.Empty(t, added)
}

func TestClearRemovesPersistedState(t *testing.T) {
	root := setupLibrary(t, "kick.wav")
	store := storage.NewJSONStore(filepath.Join(t.TempDir(), "index.json"))
	x := newIndex(t, store)

	_, err := x.ScanFolder(context.Background(), root, true)
	require.NoError(t, err)
	require.NoError(t, x.Clear())
	assert.Zero(t, x.Count())

	_, err = os.Stat(store.Path())
	assert.True(t, os.IsNotExist(err))
}

type fakeProber struct{}

func (fakeProber) Duration(_ context.Context, path string) (float64, error) {
	if filepath.Ext(path) == ".mp3" {
		return 0, errors.New("cannot decode")
	}
	return 1.25, nil
}

func TestScanWithProber(t *testing.T) {
	root := setupLibrary(t, "kick.wav", "broken.mp3")
	x := newIndex(t, nil, WithProber(fakeProber{}))

	added, err := x.ScanFolder(context.Background(), root, true)
	require.NoError(t, err)
	require.Len(t, added, 2, "probe failure never drops the entry")

	kick, _ := x.Get(filepath.Join(root, "kick.wav"))
	require.NotNil(t, kick.Duration)
	assert.Equal(t, 1.25, *kick.Duration)
	broken, _ := x.Get(filepath.Join(root, "broken.mp3"))
	assert.Nil(t, broken.Duration)
}

func TestScanReportsProgress(t *testing.T) {
	root := setupLibrary(t, "1.wav", "2.wav", "3.wav")
	var (
		mu   sync.Mutex
		seen []int
	)
	x := newIndex(t, nil, WithWorkers(2), WithProgress(func(p ScanProgress) {
		mu.Lock()
		defer mu.Unlock()
		assert.Equal(t, 3, p.Total)
		seen = append(seen, p.Done)
	}))

	_, err := x.ScanFolder(context.Background(), root, true)
	require.NoError(t, err)
	sort.Ints(seen)
	assert.Equal(t, []int{1, 2, 3}, seen)
}

func TestConcurrentScansOfOverlappingFolders(t *testing.T) {
	root := setupLibrary(t, "a/1.wav", "a/2.wav", "b/3.wav", "b/4.wav")
	x := newIndex(t, nil)

	var wg sync.WaitGroup
	for _, dir := range []string{root, filepath.Join(root, "a"), filepath.Join(root, "b"), root} {
		dir := dir
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := x.ScanFolder(context.Background(), dir, true)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Equal(t, 4, x.Count())
}

// flakyStore fails the first save and records what later saves receive.
type flakyStore struct {
	failures int
	saved    []models.SampleMetadata
}

func (f *flakyStore) LoadAll() ([]models.SampleMetadata, error) { return nil, nil }
func (f *flakyStore) Clear() error                              { return nil }
func (f *flakyStore) Close() error                              { return nil }

func (f *flakyStore) SaveSamples(samples []models.SampleMetadata) error {
	if f.failures > 0 {
		f.failures--
		return errors.New("disk full")
	}
	f.saved = append(f.saved, samples...)
	return nil
}

func TestFailedSaveIsRetriedOnNextScan(t *testing.T) {
	root := setupLibrary(t, "kick.wav", "snare.wav")
	store := &flakyStore{failures: 1}
	x := newIndex(t, store)

	added, err := x.ScanFolder(context.Background(), root, true)
	require.Error(t, err)
	assert.Empty(t, added)
	assert.Zero(t, x.Count())

	added, err = x.ScanFolder(context.Background(), root, true)
	require.NoError(t, err)
	assert.Equal(t, []string{"kick.wav", "snare.wav"}, paths(added))
	assert.Equal(t, 2, x.Count())
	assert.Equal(t, []string{"kick.wav", "snare.wav"}, paths(store.saved))
}
