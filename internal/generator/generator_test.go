package generator

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/go-audio/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/himanishpuri/SampleSensei/internal/audio"
	"github.com/himanishpuri/SampleSensei/internal/synth"
	"github.com/himanishpuri/SampleSensei/pkg/logger"
	"github.com/himanishpuri/SampleSensei/pkg/models"
)

func newLocal(t *testing.T, format string) (*Local, string) {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "beats")
	r := synth.NewRenderer(44100, 120, rand.New(rand.NewSource(1)))
	return NewLocal(dir, format, r, rand.New(rand.NewSource(2)), logger.Discard()), dir
}

func TestLocalGenerateDarkTrap(t *testing.T) {
	g, dir := newLocal(t, "wav")
	require.True(t, g.IsAvailable())

	res := g.Generate(context.Background(), "dark trap high energy", 30)
	require.True(t, res.Success, res.Error)
	assert.Equal(t, "trap", res.Genre)
	assert.Equal(t, "dark", res.Mood)
	assert.Equal(t, 30.0, res.Duration)
	assert.Equal(t, NameLocal, res.Generator)
	assert.Equal(t, dir, filepath.Dir(res.FilePath))
	assert.Regexp(t, regexp.MustCompile(`^beat_trap_[0-9a-f]{8}\.wav$`), filepath.Base(res.FilePath))

	secs, err := audio.NewProber().Duration(context.Background(), res.FilePath)
	require.NoError(t, err)
	assert.InDelta(t, 30.0, secs, 1e-9)

	f, err := os.Open(res.FilePath)
	require.NoError(t, err)
	defer f.Close()
	pcm, err := wav.NewDecoder(f).FullPCMBuffer()
	require.NoError(t, err)
	peak := 0
	for _, v := range pcm.Data {
		if v < 0 {
			v = -v
		}
		if v > peak {
			peak = v
		}
	}
	assert.InDelta(t, synth.Peak, float64(peak)/float64(1<<23-1), 1e-5)
}

func TestLocalDefaultDuration(t *testing.T) {
	g, _ := newLocal(t, "")
	res := g.Generate(context.Background(), "chill", 0)
	require.True(t, res.Success, res.Error)
	assert.Equal(t, "lo-fi", res.Genre)
	assert.Equal(t, DefaultDuration, res.Duration)
}

func TestLocalMissingEncoder(t *testing.T) {
	g, dir := newLocal(t, "flac")
	assert.False(t, g.IsAvailable())

	res := g.Generate(context.Background(), "house", 2)
	assert.False(t, res.Success)
	assert.True(t, res.Unavailable)
	assert.Empty(t, res.FilePath)
	assert.Contains(t, res.Error, "flac")

	_, err := os.Stat(dir)
	assert.True(t, os.IsNotExist(err), "nothing is written")
}

func TestLocalCancelled(t *testing.T) {
	g, _ := newLocal(t, "wav")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res := g.Generate(ctx, "trap", 1)
	assert.False(t, res.Success)
	assert.False(t, res.Unavailable)
}

func TestTextGenerator(t *testing.T) {
	dir := t.TempDir()
	var queries []string
	suggest := func(q string, limit int) []models.SampleMetadata {
		queries = append(queries, q)
		return []models.SampleMetadata{{FileName: "kick_dark_90bpm.wav"}}
	}
	g := NewText(dir, 0, rand.New(rand.NewSource(5)), suggest, logger.Discard())
	require.True(t, g.IsAvailable())

	res := g.Generate(context.Background(), "groovy house jam", 8)
	require.True(t, res.Success, res.Error)
	assert.Equal(t, "house", res.Genre)
	assert.Equal(t, "creative", res.Mood)
	assert.Regexp(t, regexp.MustCompile(`^beat_idea_house_[0-9a-f]{8}\.txt$`), filepath.Base(res.FilePath))

	raw, err := os.ReadFile(res.FilePath)
	require.NoError(t, err)
	body := string(raw)
	assert.Contains(t, body, "Beat Idea: groovy house jam")
	assert.Contains(t, body, "Tempo: 120 BPM")
	assert.Contains(t, body, "kick  x...x...x...x...")
	assert.Contains(t, body, "clap  ....x.......x...")
	assert.Contains(t, body, "hat   .x.x.x.x.x.x.x.x")
	assert.NotContains(t, body, "snare")
	assert.Contains(t, body, "kick: kick_dark_90bpm.wav")
	assert.Equal(t, []string{"kick house", "clap house", "hat house"}, queries)
}

func TestTextGeneratorBorrowedPattern(t *testing.T) {
	g := NewText(t.TempDir(), 140, nil, nil, logger.Discard())
	res := g.Generate(context.Background(), "drill", 4)
	require.True(t, res.Success)
	assert.Equal(t, "drill", res.Genre)

	raw, err := os.ReadFile(res.FilePath)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "Pattern: trap")
	assert.NotContains(t, string(raw), "Suggested Samples")
}

func TestRemote(t *testing.T) {
	none := NewRemote(nil, logger.Discard())
	assert.False(t, none.IsAvailable())
	res := none.Generate(context.Background(), "trap", 10)
	assert.True(t, res.Unavailable)

	failing := NewRemote(func(context.Context, string, float64) (string, error) {
		return "", errors.New("quota exceeded")
	}, logger.Discard())
	res = failing.Generate(context.Background(), "trap", 10)
	assert.False(t, res.Success)
	assert.False(t, res.Unavailable)
	assert.Contains(t, res.Error, "quota exceeded")

	ok := NewRemote(func(_ context.Context, prompt string, d float64) (string, error) {
		return "/tmp/remote.mp3", nil
	}, logger.Discard())
	res = ok.Generate(context.Background(), "soft piano", 12)
	require.True(t, res.Success)
	assert.Equal(t, "lo-fi", res.Genre)
	assert.Equal(t, "soft", res.Mood)
	assert.Equal(t, "/tmp/remote.mp3", res.FilePath)
}

func TestSelect(t *testing.T) {
	remote := NewRemote(nil, logger.Discard())
	broken, _ := newLocal(t, "flac")
	local, _ := newLocal(t, "wav")
	text := NewText(t.TempDir(), 0, nil, nil, logger.Discard())

	assert.Equal(t, NameLocal, Select(remote, broken, local, text).Name())
	assert.Equal(t, NameText, Select(remote, broken, text).Name())
	assert.Nil(t, Select(remote, nil))
}

func TestNormalizeDuration(t *testing.T) {
	assert.Equal(t, DefaultDuration, normalizeDuration(-1))
	assert.Equal(t, 2.5, normalizeDuration(2.5))
	assert.False(t, math.IsNaN(normalizeDuration(0)))
}
