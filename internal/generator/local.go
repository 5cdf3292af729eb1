package generator

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"sync"

	"github.com/himanishpuri/SampleSensei/internal/synth"
	"github.com/himanishpuri/SampleSensei/pkg/models"
	"github.com/himanishpuri/SampleSensei/pkg/utils"
)

// Local renders a drum loop with the built-in synthesizer.
type Local struct {
	renderer  *synth.Renderer
	outputDir string
	format    string
	names     io.Reader
	log       Logger

	probeOnce sync.Once
	encoder   synth.Encoder
	probeErr  error
}

// NewLocal writes files of the given format ("wav" when empty) to outputDir.
// names feeds the random file suffix; nil uses crypto/rand.
func NewLocal(outputDir, format string, r *synth.Renderer, names io.Reader, log Logger) *Local {
	if format == "" {
		format = "wav"
	}
	return &Local{
		renderer:  r,
		outputDir: outputDir,
		format:    format,
		names:     names,
		log:       defaultLogger(log),
	}
}

func (g *Local) Name() string { return NameLocal }

func (g *Local) probe() {
	g.probeOnce.Do(func() {
		g.encoder, g.probeErr = synth.EncoderFor(g.format)
	})
}

func (g *Local) IsAvailable() bool {
	g.probe()
	return g.probeErr == nil
}

func (g *Local) Generate(ctx context.Context, prompt string, duration float64) models.GenerationResult {
	g.probe()
	if g.probeErr != nil {
		return models.Unavailable(g.Name(), fmt.Sprintf("local beat generation unavailable: %v", g.probeErr))
	}
	if err := ctx.Err(); err != nil {
		return models.Failed(g.Name(), err.Error())
	}

	duration = normalizeDuration(duration)
	genre := synth.DetectGenre(prompt)
	mood := synth.DetectMood(prompt)

	audio, err := g.renderer.Render(genre, duration)
	if err != nil {
		return models.Failed(g.Name(), fmt.Sprintf("failed to generate beat: %v", err))
	}

	if err := utils.MakeDir(g.outputDir); err != nil {
		return models.Failed(g.Name(), fmt.Sprintf("creating output folder: %v", err))
	}
	name := fmt.Sprintf("beat_%s_%s.%s", genre, suffix(g.names), g.encoder.Format())
	path := filepath.Join(g.outputDir, name)
	if err := synth.WriteFile(path, g.encoder, audio, g.renderer.SampleRate()); err != nil {
		return models.Failed(g.Name(), fmt.Sprintf("failed to write beat: %v", err))
	}

	g.log.Infof("generated %s beat (%s) at %s", genre, mood, path)
	return models.GenerationResult{
		Success:   true,
		FilePath:  path,
		Mood:      mood,
		Genre:     genre,
		Duration:  duration,
		Generator: g.Name(),
	}
}
