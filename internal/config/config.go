package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"
)

const (
	DefaultRepoName     = "mojiman"
	DefaultSourceDir    = "emotes"
	DefaultOutputDir    = "public"
	DefaultSize         = 48
	DefaultWorkers      = 4
	DefaultMagickBinary = "magick"
	DefaultDebounce     = 2 * time.Second

	// EmotesSubdir is the directory under the output root holding derivatives.
	// It is also the fixed "path" field of the manifest.
	EmotesSubdir = "emotes"
	// ManifestFile is the manifest name at the output root.
	ManifestFile = "index.json"
)

// Config represents the complete mojiman configuration
type Config struct {
	Repo   RepoConfig   `yaml:"repo"`
	Paths  PathsConfig  `yaml:"paths"`
	Sync   SyncConfig   `yaml:"sync"`
	Resize ResizeConfig `yaml:"resize"`
	Watch  WatchConfig  `yaml:"watch"`
}

// RepoConfig describes the published emote repository
type RepoConfig struct {
	Name string `yaml:"name"`
	Icon string `yaml:"icon"`
}

// PathsConfig configures local filesystem paths
type PathsConfig struct {
	SourceDir string `yaml:"source_dir"`
	OutputDir string `yaml:"output_dir"`
}

// SyncConfig configures sync behavior
type SyncConfig struct {
	Size        uint     `yaml:"size"`
	Workers     int      `yaml:"workers"`
	KeepOrphans bool     `yaml:"keep_orphans"`
	Exclude     []string `yaml:"exclude"`
}

// ResizeConfig configures the external resize tooling
type ResizeConfig struct {
	MagickBinary string `yaml:"magick_binary"`
}

// WatchConfig configures watch mode
type WatchConfig struct {
	Debounce time.Duration `yaml:"debounce"`
}

// Default returns a configuration with every field set to its default.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load reads and parses the configuration file
func Load(path string) (*Config, error) {
	// Expand environment variables in path
	path = os.ExpandEnv(path)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.expandEnv()
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// expandEnv expands environment variables in all string fields
func (c *Config) expandEnv() {
	c.Repo.Name = os.ExpandEnv(c.Repo.Name)
	c.Repo.Icon = os.ExpandEnv(c.Repo.Icon)
	c.Paths.SourceDir = os.ExpandEnv(c.Paths.SourceDir)
	c.Paths.OutputDir = os.ExpandEnv(c.Paths.OutputDir)
	c.Resize.MagickBinary = os.ExpandEnv(c.Resize.MagickBinary)
}

// applyDefaults fills in zero-value fields with sensible defaults.
func (c *Config) applyDefaults() {
	if c.Repo.Name == "" {
		c.Repo.Name = DefaultRepoName
	}
	if c.Paths.SourceDir == "" {
		c.Paths.SourceDir = DefaultSourceDir
	}
	if c.Paths.OutputDir == "" {
		c.Paths.OutputDir = DefaultOutputDir
	}
	if c.Sync.Size == 0 {
		c.Sync.Size = DefaultSize
	}
	if c.Sync.Workers == 0 {
		c.Sync.Workers = DefaultWorkers
	}
	if c.Resize.MagickBinary == "" {
		c.Resize.MagickBinary = DefaultMagickBinary
	}
	if c.Watch.Debounce == 0 {
		c.Watch.Debounce = DefaultDebounce
	}
}

// Validate checks the configuration for errors
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Repo.Name) == "" {
		return fmt.Errorf("repo.name is required")
	}

	if c.Paths.SourceDir == "" {
		return fmt.Errorf("paths.source_dir is required")
	}
	if c.Paths.OutputDir == "" {
		return fmt.Errorf("paths.output_dir is required")
	}

	// The manifest and derivatives live under the output root; writing them
	// into the source directory would make derivatives look like sources.
	src, err := filepath.Abs(c.Paths.SourceDir)
	if err != nil {
		return fmt.Errorf("paths.source_dir: %w", err)
	}
	out, err := filepath.Abs(c.Paths.OutputDir)
	if err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}
	if src == out || src == filepath.Join(out, EmotesSubdir) {
		return fmt.Errorf("paths.source_dir must not be the output directory or its %s/ subdirectory: %s", EmotesSubdir, c.Paths.SourceDir)
	}

	if c.Sync.Size == 0 {
		return fmt.Errorf("sync.size must be greater than zero")
	}
	if c.Sync.Workers < 1 {
		return fmt.Errorf("sync.workers must be at least 1, got %d", c.Sync.Workers)
	}

	for _, pattern := range c.Sync.Exclude {
		if !doublestar.ValidatePattern(pattern) {
			return fmt.Errorf("invalid sync.exclude pattern: %q", pattern)
		}
	}

	if c.Resize.MagickBinary == "" {
		return fmt.Errorf("resize.magick_binary is required")
	}

	if c.Watch.Debounce < 0 {
		return fmt.Errorf("watch.debounce must not be negative: %s", c.Watch.Debounce)
	}

	return nil
}

// EmotesDir returns the directory holding the resized derivatives
func (c *Config) EmotesDir() string {
	return filepath.Join(c.Paths.OutputDir, EmotesSubdir)
}

// ManifestPath returns the path of the manifest file
func (c *Config) ManifestPath() string {
	return filepath.Join(c.Paths.OutputDir, ManifestFile)
}

// HasIcon reports whether repo icon generation is configured
func (c *Config) HasIcon() bool {
	return c.Repo.Icon != ""
}
