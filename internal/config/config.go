// Package config loads application settings from defaults, an optional YAML
// file, a .env file and SENSEI_* environment variables, in increasing priority.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/himanishpuri/SampleSensei/internal/storage"
	"github.com/himanishpuri/SampleSensei/pkg/utils"
)

const (
	EnvPrefix = "SENSEI"
	HomeDir   = "~/.sample-sensei"
)

type Config struct {
	SampleFolders []string          `mapstructure:"sample_folders"`
	OutputFolder  string            `mapstructure:"output_folder"`
	Index         IndexConfig       `mapstructure:"index"`
	Preferences   PreferencesConfig `mapstructure:"preferences"`
	Synth         SynthConfig       `mapstructure:"synth"`
	Search        SearchConfig      `mapstructure:"search"`
	Server        ServerConfig      `mapstructure:"server"`
	Log           LogConfig         `mapstructure:"log"`
}

type IndexConfig struct {
	Store        string `mapstructure:"store"`
	Path         string `mapstructure:"path"`
	Workers      int    `mapstructure:"workers"`
	AnalyzeAudio bool   `mapstructure:"analyze_audio"`
}

type PreferencesConfig struct {
	DefaultBPM  float64 `mapstructure:"default_bpm"`
	AudioFormat string  `mapstructure:"audio_format"`
}

type SynthConfig struct {
	SampleRate int     `mapstructure:"sample_rate"`
	Tempo      float64 `mapstructure:"tempo"`
}

type SearchConfig struct {
	Limit int `mapstructure:"limit"`
}

type ServerConfig struct {
	Port    int      `mapstructure:"port"`
	Origins []string `mapstructure:"origins"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("sample_folders", []string{})
	v.SetDefault("output_folder", "~/Music/SampleSensei")

	v.SetDefault("index.store", storage.KindJSON)
	v.SetDefault("index.path", "")
	v.SetDefault("index.workers", 0)
	v.SetDefault("index.analyze_audio", false)

	v.SetDefault("preferences.default_bpm", 90.0)
	v.SetDefault("preferences.audio_format", "wav")

	v.SetDefault("synth.sample_rate", 44100)
	v.SetDefault("synth.tempo", 120.0)

	v.SetDefault("search.limit", 10)

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.origins", []string{"*"})

	v.SetDefault("log.level", "info")
}

// Load reads the configuration. An empty configFile searches for config.yaml
// in ".", "./config" and HomeDir; a missing file is not an error.
func Load(configFile string) (*Config, error) {
	// Does not override variables that are already set.
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	if configFile != "" {
		v.SetConfigFile(utils.ExpandHome(configFile))
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath(utils.ExpandHome(HomeDir))
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation error: %w", err)
	}
	return &cfg, nil
}

func (c *Config) normalize() {
	c.Index.Store = strings.ToLower(strings.TrimSpace(c.Index.Store))
	if c.Index.Path == "" {
		name := storage.DefaultJSONFile
		if c.Index.Store == storage.KindSQLite {
			name = storage.DefaultDBFile
		}
		c.Index.Path = filepath.Join(HomeDir, name)
	}
	c.Index.Path = utils.ExpandHome(c.Index.Path)
	c.OutputFolder = utils.ExpandHome(c.OutputFolder)

	folders := make([]string, 0, len(c.SampleFolders))
	for _, f := range c.SampleFolders {
		if f = strings.TrimSpace(f); f != "" {
			folders = append(folders, utils.ExpandHome(f))
		}
	}
	c.SampleFolders = folders
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	switch c.Index.Store {
	case storage.KindJSON, storage.KindSQLite:
	default:
		return fmt.Errorf("index.store must be %q or %q, got %q", storage.KindJSON, storage.KindSQLite, c.Index.Store)
	}
	if c.Synth.SampleRate <= 0 {
		return fmt.Errorf("synth.sample_rate must be positive")
	}
	if c.Synth.Tempo <= 0 {
		return fmt.Errorf("synth.tempo must be positive")
	}
	if c.Search.Limit <= 0 {
		return fmt.Errorf("search.limit must be positive")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	return nil
}
