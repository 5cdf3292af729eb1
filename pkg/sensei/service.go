package sensei

import (
	"context"
	"fmt"
	"math/rand"
	"path/filepath"
	"sync"

	"github.com/himanishpuri/SampleSensei/internal/audio"
	"github.com/himanishpuri/SampleSensei/internal/generator"
	"github.com/himanishpuri/SampleSensei/internal/index"
	"github.com/himanishpuri/SampleSensei/internal/search"
	"github.com/himanishpuri/SampleSensei/internal/synth"
	"github.com/himanishpuri/SampleSensei/pkg/logger"
	"github.com/himanishpuri/SampleSensei/pkg/utils"
)

// senseiService is the default implementation of the Service interface.
type senseiService struct {
	index  *index.SampleIndex
	engine *search.Engine
	gen    generator.Generator
	log    Logger
	config *Config

	mu      sync.Mutex
	folders []string
}

func NewService(opts ...Option) (Service, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.Logger == nil {
		cfg.Logger = logger.GetLogger()
	}

	stor := cfg.Storage
	if stor == nil {
		var err error
		stor, err = OpenStorage(cfg.StoreKind, cfg.IndexPath)
		if err != nil {
			return nil, fmt.Errorf("failed to create storage: %w", err)
		}
	}

	idxOpts := []index.Option{
		index.WithLogger(cfg.Logger),
		index.WithWorkers(cfg.Workers),
		index.WithProgress(cfg.ScanProgress),
	}
	if cfg.AnalyzeAudio {
		idxOpts = append(idxOpts, index.WithProber(audio.NewProber()))
	}
	idx, err := index.New(stor, idxOpts...)
	if err != nil {
		stor.Close()
		return nil, err
	}

	// Each consumer gets its own source; *rand.Rand is not safe for concurrent use.
	engine := search.NewEngine(idx, childRand(cfg.Rand))
	renderer := synth.NewRenderer(cfg.SampleRate, cfg.Tempo, childRand(cfg.Rand))

	s := &senseiService{
		index:  idx,
		engine: engine,
		log:    cfg.Logger,
		config: cfg,
	}
	for _, f := range cfg.SampleFolders {
		s.AddSampleFolder(f)
	}

	s.gen = generator.Select(
		generator.NewRemote(generator.RemoteFunc(cfg.Remote), cfg.Logger),
		generator.NewLocal(cfg.OutputDir, cfg.AudioFormat, renderer, &lockedReader{r: childRand(cfg.Rand)}, cfg.Logger),
		generator.NewText(cfg.OutputDir, cfg.Tempo, &lockedReader{r: childRand(cfg.Rand)}, s.suggest, cfg.Logger),
	)
	s.log.Debugf("using %s generator", s.gen.Name())

	return s, nil
}

func childRand(parent *rand.Rand) *rand.Rand {
	return rand.New(rand.NewSource(parent.Int63()))
}

// lockedReader serializes reads from a shared random source.
type lockedReader struct {
	mu sync.Mutex
	r  *rand.Rand
}

func (l *lockedReader) Read(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.Read(p)
}

// ScanFolder indexes new files under folder and returns them.
func (s *senseiService) ScanFolder(ctx context.Context, folder string, recursive bool) ([]Sample, error) {
	return s.index.ScanFolder(ctx, folder, recursive)
}

// ScanConfigured scans every configured sample folder that exists.
func (s *senseiService) ScanConfigured(ctx context.Context) ([]Sample, error) {
	var added []Sample
	for _, f := range s.SampleFolders() {
		if !utils.DirExists(f) {
			s.log.Warnf("configured folder not found: %s", f)
			continue
		}
		got, err := s.index.ScanFolder(ctx, f, true)
		if err != nil {
			return added, fmt.Errorf("scanning %s: %w", f, err)
		}
		added = append(added, got...)
	}
	if added == nil {
		added = []Sample{}
	}
	return added, nil
}

// AddSampleFolder registers folder for ScanConfigured. It reports false for duplicates.
func (s *senseiService) AddSampleFolder(folder string) bool {
	folder = filepath.Clean(utils.ExpandHome(folder))

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, f := range s.folders {
		if f == folder {
			return false
		}
	}
	s.folders = append(s.folders, folder)
	return true
}

func (s *senseiService) SampleFolders() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.folders...)
}

func (s *senseiService) Search(query string, opts SearchOptions) []SearchResult {
	if opts.Limit <= 0 {
		opts.Limit = s.config.SearchLimit
	}
	return s.engine.Search(query, opts)
}

func (s *senseiService) SearchByCategory(category string, limit int) []Sample {
	return s.engine.ByCategory(category, limit)
}

func (s *senseiService) SearchByBPM(target, tolerance float64, limit int) []Sample {
	return s.engine.ByBPM(target, tolerance, limit)
}

func (s *senseiService) RandomSamples(count int) []Sample {
	return s.engine.Random(count)
}

func (s *senseiService) Categories() map[string]int {
	return s.engine.Categories()
}

func (s *senseiService) Samples() []Sample {
	return s.index.All()
}

func (s *senseiService) Count() int {
	return s.index.Count()
}

// Clear empties the index and its persisted state.
func (s *senseiService) Clear() error {
	return s.index.Clear()
}

// Generate renders a beat for prompt with the generator chosen at startup.
func (s *senseiService) Generate(ctx context.Context, prompt string, duration float64) GenerationResult {
	return s.gen.Generate(ctx, prompt, duration)
}

func (s *senseiService) GeneratorName() string {
	return s.gen.Name()
}

func (s *senseiService) Genres() []string {
	return synth.Genres()
}

func (s *senseiService) Moods() []string {
	return synth.Moods()
}

func (s *senseiService) suggest(query string, limit int) []Sample {
	results := s.engine.Search(query, SearchOptions{Limit: limit})
	out := make([]Sample, 0, len(results))
	for _, r := range results {
		out = append(out, r.Sample)
	}
	return out
}

// Close releases all resources held by the service.
func (s *senseiService) Close() error {
	return s.index.Close()
}
