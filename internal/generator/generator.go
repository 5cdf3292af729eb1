// Package generator turns a text prompt into a beat file. Several variants share
// one interface and the first available one is chosen at startup.
package generator

import (
	"context"
	"io"

	"github.com/himanishpuri/SampleSensei/pkg/logger"
	"github.com/himanishpuri/SampleSensei/pkg/models"
	"github.com/himanishpuri/SampleSensei/pkg/utils"
)

const (
	NameRemote = "remote"
	NameLocal  = "local"
	NameText   = "text"

	DefaultDuration = 30.0
)

type Generator interface {
	Name() string
	// IsAvailable is computed once and cached.
	IsAvailable() bool
	// Generate never returns a Go error; failures are reported in the result.
	Generate(ctx context.Context, prompt string, duration float64) models.GenerationResult
}

type Logger interface {
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
}

func defaultLogger(l Logger) Logger {
	if l == nil {
		return logger.GetLogger()
	}
	return l
}

// Select returns the first available generator, or nil if none is.
func Select(gens ...Generator) Generator {
	for _, g := range gens {
		if g != nil && g.IsAvailable() {
			return g
		}
	}
	return nil
}

func suffix(src io.Reader) string {
	return utils.RandomSuffix(src)
}

func normalizeDuration(d float64) float64 {
	if d <= 0 {
		return DefaultDuration
	}
	return d
}
