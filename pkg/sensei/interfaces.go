package sensei

import (
	"context"
)

type Service interface {
	ScanFolder(ctx context.Context, folder string, recursive bool) ([]Sample, error)
	ScanConfigured(ctx context.Context) ([]Sample, error)
	AddSampleFolder(folder string) bool
	SampleFolders() []string

	Search(query string, opts SearchOptions) []SearchResult
	SearchByCategory(category string, limit int) []Sample
	SearchByBPM(target, tolerance float64, limit int) []Sample
	RandomSamples(count int) []Sample
	Categories() map[string]int
	Samples() []Sample
	Count() int
	Clear() error

	Generate(ctx context.Context, prompt string, duration float64) GenerationResult
	GeneratorName() string
	Genres() []string
	Moods() []string

	Close() error
}

// Storage persists the sample index.
type Storage interface {
	LoadAll() ([]Sample, error)
	SaveSamples(samples []Sample) error
	Clear() error
	Close() error
}

type Logger interface {
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
	Debugf(format string, args ...any)
}
