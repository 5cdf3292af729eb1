package sensei

import (
	"math/rand"
	"time"

	"github.com/himanishpuri/SampleSensei/internal/config"
	"github.com/himanishpuri/SampleSensei/internal/storage"
	"github.com/himanishpuri/SampleSensei/internal/synth"
)

type Config struct {
	IndexPath     string
	StoreKind     string
	OutputDir     string
	SampleFolders []string
	SampleRate    int
	Tempo         float64
	AudioFormat   string
	Workers       int
	AnalyzeAudio  bool
	SearchLimit   int
	Rand          *rand.Rand
	Logger        Logger
	Storage       Storage
	Remote        RemoteFunc
	ScanProgress  func(ScanProgress)
}

type Option func(*Config)

func WithIndexPath(path string) Option {
	return func(c *Config) {
		c.IndexPath = path
	}
}

// WithStore selects the index store kind, "json" or "sqlite".
func WithStore(kind string) Option {
	return func(c *Config) {
		c.StoreKind = kind
	}
}

func WithStorage(s Storage) Option {
	return func(c *Config) {
		c.Storage = s
	}
}

func WithOutputDir(dir string) Option {
	return func(c *Config) {
		c.OutputDir = dir
	}
}

func WithSampleFolders(folders ...string) Option {
	return func(c *Config) {
		c.SampleFolders = append(c.SampleFolders, folders...)
	}
}

func WithSampleRate(rate int) Option {
	return func(c *Config) {
		c.SampleRate = rate
	}
}

func WithTempo(bpm float64) Option {
	return func(c *Config) {
		c.Tempo = bpm
	}
}

func WithAudioFormat(format string) Option {
	return func(c *Config) {
		c.AudioFormat = format
	}
}

func WithWorkers(n int) Option {
	return func(c *Config) {
		c.Workers = n
	}
}

// WithAudioAnalysis enables duration probing while scanning.
func WithAudioAnalysis(enabled bool) Option {
	return func(c *Config) {
		c.AnalyzeAudio = enabled
	}
}

func WithSearchLimit(n int) Option {
	return func(c *Config) {
		c.SearchLimit = n
	}
}

// WithRand makes random picks, synthesized noise and file names reproducible.
func WithRand(r *rand.Rand) Option {
	return func(c *Config) {
		c.Rand = r
	}
}

func WithLogger(log Logger) Option {
	return func(c *Config) {
		c.Logger = log
	}
}

// WithRemoteGenerator registers an external generation client, preferred over
// local synthesis.
func WithRemoteGenerator(fn RemoteFunc) Option {
	return func(c *Config) {
		c.Remote = fn
	}
}

func WithScanProgress(fn func(ScanProgress)) Option {
	return func(c *Config) {
		c.ScanProgress = fn
	}
}

// FromConfig applies loaded application settings.
func FromConfig(ac *config.Config) Option {
	return func(c *Config) {
		c.IndexPath = ac.Index.Path
		c.StoreKind = ac.Index.Store
		c.OutputDir = ac.OutputFolder
		c.SampleFolders = append([]string(nil), ac.SampleFolders...)
		c.SampleRate = ac.Synth.SampleRate
		c.Tempo = ac.Synth.Tempo
		c.AudioFormat = ac.Preferences.AudioFormat
		c.Workers = ac.Index.Workers
		c.AnalyzeAudio = ac.Index.AnalyzeAudio
		c.SearchLimit = ac.Search.Limit
	}
}

func defaultConfig() *Config {
	return &Config{
		IndexPath:   storage.DefaultJSONFile,
		StoreKind:   storage.KindJSON,
		OutputDir:   "beats",
		SampleRate:  synth.DefaultSampleRate,
		Tempo:       synth.DefaultTempo,
		AudioFormat: "wav",
		SearchLimit: 10,
		Rand:        rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}
