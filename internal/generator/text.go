package generator

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/himanishpuri/SampleSensei/internal/synth"
	"github.com/himanishpuri/SampleSensei/pkg/models"
	"github.com/himanishpuri/SampleSensei/pkg/utils"
)

const textMood = "creative"

// SuggestFunc proposes library samples for a voice of the requested genre.
type SuggestFunc func(query string, limit int) []models.SampleMetadata

// Text writes a beat description instead of audio. It is always available.
type Text struct {
	outputDir string
	tempo     float64
	names     io.Reader
	suggest   SuggestFunc
	log       Logger
}

func NewText(outputDir string, tempo float64, names io.Reader, suggest SuggestFunc, log Logger) *Text {
	if tempo <= 0 {
		tempo = synth.DefaultTempo
	}
	return &Text{outputDir: outputDir, tempo: tempo, names: names, suggest: suggest, log: defaultLogger(log)}
}

func (g *Text) Name() string      { return NameText }
func (g *Text) IsAvailable() bool { return true }

func (g *Text) Generate(ctx context.Context, prompt string, duration float64) models.GenerationResult {
	if err := ctx.Err(); err != nil {
		return models.Failed(g.Name(), err.Error())
	}
	duration = normalizeDuration(duration)
	genre := synth.DetectGenre(prompt)

	if err := utils.MakeDir(g.outputDir); err != nil {
		return models.Failed(g.Name(), fmt.Sprintf("creating output folder: %v", err))
	}
	path := filepath.Join(g.outputDir, fmt.Sprintf("beat_idea_%s_%s.txt", genre, suffix(g.names)))
	body := g.describe(prompt, genre, duration)
	err := utils.WriteFileAtomic(path, func(f *os.File) error {
		_, err := io.WriteString(f, body)
		return err
	})
	if err != nil {
		return models.Failed(g.Name(), fmt.Sprintf("failed to write beat idea: %v", err))
	}

	g.log.Infof("wrote %s beat idea to %s", genre, path)
	return models.GenerationResult{
		Success:   true,
		FilePath:  path,
		Mood:      textMood,
		Genre:     genre,
		Duration:  duration,
		Generator: g.Name(),
	}
}

var voiceQueries = []struct {
	voice synth.Voice
	query string
}{
	{synth.Kick, "kick"},
	{synth.Snare, "snare"},
	{synth.Clap, "clap"},
	{synth.Hat, "hat"},
}

func (g *Text) describe(prompt, genre string, duration float64) string {
	pattern := synth.Resolve(genre)

	var b strings.Builder
	fmt.Fprintf(&b, "Beat Idea: %s\n\n", prompt)
	fmt.Fprintf(&b, "Genre: %s\n", genre)
	if pattern.Genre != genre {
		fmt.Fprintf(&b, "Pattern: %s\n", pattern.Genre)
	}
	fmt.Fprintf(&b, "Tempo: %g BPM\n", g.tempo)
	fmt.Fprintf(&b, "Duration: %gs\n\n", duration)

	b.WriteString("Drum Pattern (16 steps):\n")
	for _, vq := range voiceQueries {
		if !pattern.Has(vq.voice) {
			continue
		}
		row := []byte(strings.Repeat(".", synth.Steps))
		for _, step := range pattern.Hits(vq.voice) {
			row[step] = 'x'
		}
		fmt.Fprintf(&b, "  %-6s%s\n", vq.voice, row)
	}

	if g.suggest != nil {
		var lines []string
		for _, vq := range voiceQueries {
			if !pattern.Has(vq.voice) {
				continue
			}
			for _, s := range g.suggest(vq.query+" "+pattern.Genre, 1) {
				lines = append(lines, fmt.Sprintf("  %s: %s", vq.voice, s.FileName))
			}
		}
		if len(lines) > 0 {
			b.WriteString("\nSuggested Samples:\n")
			b.WriteString(strings.Join(lines, "\n"))
			b.WriteByte('\n')
		}
	}
	return b.String()
}
