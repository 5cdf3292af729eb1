package search

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/himanishpuri/SampleSensei/internal/metadata"
	"github.com/himanishpuri/SampleSensei/pkg/models"
)

type sliceSource []models.SampleMetadata

func (s sliceSource) All() []models.SampleMetadata { return s }

// fromName builds metadata the way the index does for a file in the library root.
func fromName(name string) models.SampleMetadata {
	return models.SampleMetadata{
		FilePath:  "/lib/" + name,
		FileName:  name,
		Folder:    "/lib",
		BPM:       metadata.ExtractBPM(name),
		Key:       metadata.ExtractKey(name),
		Tags:      metadata.ExtractTags(name),
		Category:  metadata.InferCategory(name, ""),
	}
}

func library(names ...string) sliceSource {
	out := make(sliceSource, 0, len(names))
	for _, n := range names {
		out = append(out, fromName(n))
	}
	return out
}

func newEngine(src Source) *Engine {
	return NewEngine(src, rand.New(rand.NewSource(7)))
}

func TestSearchKickScenario(t *testing.T) {
	e := newEngine(library("kick_dark_90bpm.wav", "piano_bright.wav"))

	drums := e.ByCategory(models.CategoryDrums, 0)
	require.Len(t, drums, 1)
	assert.Equal(t, "kick_dark_90bpm.wav", drums[0].FileName)

	res := e.Search("dark", models.SearchOptions{})
	require.Len(t, res, 1)
	assert.Equal(t, "kick_dark_90bpm.wav", res[0].Sample.FileName)
	assert.Contains(t, res[0].MatchReasons, "matches 'dark'")

	assert.Empty(t, e.Search("dark", models.SearchOptions{Category: models.CategoryBass}))
}

func TestSearchCategoryIsHardFilter(t *testing.T) {
	e := newEngine(library("kick_dark.wav", "808_dark.wav", "dark_piano.wav", "dark_vox.wav"))
	for _, c := range models.CategoryOrder {
		for _, r := range e.Search("dark kick 808 piano", models.SearchOptions{Category: c}) {
			assert.Equal(t, c, r.Sample.Category)
		}
	}

	res := e.Search("", models.SearchOptions{Category: models.CategoryBass})
	require.Len(t, res, 1)
	assert.Equal(t, 2.0, res[0].Score)
	assert.Equal(t, []string{"category: bass"}, res[0].MatchReasons)
}

func TestSearchScoresArePositive(t *testing.T) {
	e := newEngine(library("kick_dark_90bpm.wav", "snare.wav", "pad_Cm.wav", "riser.wav"))
	res := e.Search("zzz snare dark", models.SearchOptions{Key: "C"})
	require.NotEmpty(t, res)
	for _, r := range res {
		assert.Greater(t, r.Score, 0.0)
	}
	assert.Empty(t, e.Search("nothing-matches-this", models.SearchOptions{}))
}

func TestSearchBPMSoftPenalty(t *testing.T) {
	e := newEngine(library("kick_dark_90bpm.wav", "kick_dark_140bpm.wav", "kick_dark.wav"))

	res := e.Search("dark kick", models.SearchOptions{BPMRange: &models.BPMRange{Min: 85, Max: 95}})
	require.Len(t, res, 3)

	scores := map[string]float64{}
	for _, r := range res {
		scores[r.Sample.FileName] = r.Score
	}
	assert.Equal(t, 3.5, scores["kick_dark_90bpm.wav"])
	assert.Equal(t, 2.0, scores["kick_dark.wav"], "no BPM means no bonus and no penalty")
	assert.Equal(t, 1.0, scores["kick_dark_140bpm.wav"], "out of range is halved, not dropped")
	assert.Contains(t, res[0].MatchReasons, "BPM 90 in range")
}

func TestSearchPenaltyBeforeKeyBonus(t *testing.T) {
	e := newEngine(library("bass_Am_150bpm.wav"))
	res := e.Search("bass", models.SearchOptions{
		Category: models.CategoryBass,
		BPMRange: &models.BPMRange{Min: 80, Max: 100},
		Key:      "a min",
	})
	require.Len(t, res, 1)
	// (1 text + 2 category) * 0.5 + 1.5 key
	assert.Equal(t, 3.0, res[0].Score)
	assert.Contains(t, res[0].MatchReasons, "key: A minor")
}

func TestSearchTermCountsOnce(t *testing.T) {
	e := newEngine(library("dark_dark_kick.wav"))
	res := e.Search("dark", models.SearchOptions{})
	require.Len(t, res, 1)
	assert.Equal(t, 1.0, res[0].Score)
}

func TestSearchTieBreakByPath(t *testing.T) {
	e := newEngine(library("c_kick.wav", "a_kick.wav", "b_kick.wav"))
	res := e.Search("kick", models.SearchOptions{})
	require.Len(t, res, 3)
	assert.Equal(t, "a_kick.wav", res[0].Sample.FileName)
	assert.Equal(t, "b_kick.wav", res[1].Sample.FileName)
	assert.Equal(t, "c_kick.wav", res[2].Sample.FileName)
}

func TestSearchLimit(t *testing.T) {
	names := make([]string, 0, 15)
	for _, c := range "abcdefghijklmno" {
		names = append(names, string(c)+"_kick.wav")
	}
	e := newEngine(library(names...))
	assert.Len(t, e.Search("kick", models.SearchOptions{}), DefaultLimit)
	assert.Len(t, e.Search("kick", models.SearchOptions{Limit: 3}), 3)
}

func TestByCategoryKeepsInsertionOrder(t *testing.T) {
	e := newEngine(library("z_kick.wav", "piano.wav", "a_snare.wav", "m_hat.wav"))
	got := e.ByCategory(models.CategoryDrums, 2)
	require.Len(t, got, 2)
	assert.Equal(t, "z_kick.wav", got[0].FileName)
	assert.Equal(t, "a_snare.wav", got[1].FileName)
}

func TestByBPM(t *testing.T) {
	e := newEngine(library("a_96bpm.wav", "b_88bpm.wav", "c_91bpm.wav", "d_120bpm.wav", "e.wav"))

	got := e.ByBPM(90, DefaultBPMTolerance, 0)
	require.Len(t, got, 2)
	assert.Equal(t, "c_91bpm.wav", got[0].FileName)
	assert.Equal(t, "b_88bpm.wav", got[1].FileName)

	assert.Empty(t, e.ByBPM(90, -1, 0))
	assert.Len(t, e.ByBPM(90, 30, 0), 4)
}

func TestRandom(t *testing.T) {
	e := newEngine(library("a.wav", "b.wav", "c.wav", "d.wav"))

	got := e.Random(3)
	require.Len(t, got, 3)
	seen := map[string]bool{}
	for _, s := range got {
		assert.False(t, seen[s.FilePath], "drawn without replacement")
		seen[s.FilePath] = true
	}

	assert.Len(t, e.Random(10), 4)
	assert.Empty(t, e.Random(0))
	assert.Empty(t, newEngine(sliceSource{}).Random(5))
}

func TestRandomIsDeterministicWithSeed(t *testing.T) {
	lib := library("a.wav", "b.wav", "c.wav", "d.wav", "e.wav")
	first := NewEngine(lib, rand.New(rand.NewSource(42))).Random(3)
	second := NewEngine(lib, rand.New(rand.NewSource(42))).Random(3)
	assert.Equal(t, first, second)
}

func TestCategories(t *testing.T) {
	lib := library("kick.wav", "snare.wav", "808.wav")
	lib = append(lib, models.SampleMetadata{FilePath: "/lib/x.wav", FileName: "x.wav"})

	got := newEngine(lib).Categories()
	assert.Equal(t, map[string]int{
		models.CategoryDrums: 2,
		models.CategoryBass:  1,
		UnknownCategory:      1,
	}, got)
}
