package generator

import (
	"context"
	"fmt"
	"sync"

	"github.com/himanishpuri/SampleSensei/internal/synth"
	"github.com/himanishpuri/SampleSensei/pkg/models"
)

// RemoteFunc produces an audio file for prompt and returns its path.
type RemoteFunc func(ctx context.Context, prompt string, duration float64) (string, error)

// Remote delegates generation to an external service client.
type Remote struct {
	fn  RemoteFunc
	log Logger

	once      sync.Once
	available bool
}

// NewRemote wraps fn. A nil fn yields a generator that is never available.
func NewRemote(fn RemoteFunc, log Logger) *Remote {
	return &Remote{fn: fn, log: defaultLogger(log)}
}

func (g *Remote) Name() string { return NameRemote }

func (g *Remote) IsAvailable() bool {
	g.once.Do(func() { g.available = g.fn != nil })
	return g.available
}

func (g *Remote) Generate(ctx context.Context, prompt string, duration float64) models.GenerationResult {
	if !g.IsAvailable() {
		return models.Unavailable(g.Name(), "remote generation is not configured")
	}
	duration = normalizeDuration(duration)

	path, err := g.fn(ctx, prompt, duration)
	if err != nil {
		g.log.Warnf("remote generation failed: %v", err)
		return models.Failed(g.Name(), fmt.Sprintf("remote generation failed: %v", err))
	}
	if path == "" {
		return models.Failed(g.Name(), "remote generation returned no file")
	}
	return models.GenerationResult{
		Success:   true,
		FilePath:  path,
		Mood:      synth.DetectMood(prompt),
		Genre:     synth.DetectGenre(prompt),
		Duration:  duration,
		Generator: g.Name(),
	}
}
