package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/schaermu/mojiman/internal/config"
	"github.com/schaermu/mojiman/internal/icons"
	"github.com/schaermu/mojiman/internal/resize"
	"github.com/schaermu/mojiman/internal/sync"
	"github.com/schaermu/mojiman/internal/watch"
)

var (
	// Set by goreleaser
	version = "dev"
	commit  = "none"
	date    = "unknown"

	// Global flags
	cfgFile   string
	logLevel  string
	logFormat string
	dryRun    bool

	// Config overrides
	sourceDir string
	outputDir string
	size      uint
	repoName  string
	repoIcon  string
	workers   int
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "mojiman",
	Short: "Build a static emote repository from a directory of images",
	Long: `mojiman resizes the emote images of a source directory into an output
directory and writes an index.json manifest describing them.

Runs are incremental: only missing or outdated derivatives are regenerated, and
derivatives whose source is gone are removed.`,
	SilenceUsage: true,
}

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Perform a one-time sync from source to output directory",
	Long: `Sync catalogs the source emotes, regenerates stale derivatives, removes
orphaned ones and rewrites the manifest.

Failures of individual emotes are logged and do not fail the command; only an
unreadable source, an unusable output directory or an unwritable manifest do.`,
	RunE: runSync,
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Sync once, then re-sync whenever the source directory changes",
	RunE:  runWatch,
}

var iconsCmd = &cobra.Command{
	Use:   "icons",
	Short: "Generate RepoImage.png and favicon.ico from the repository icon",
	RunE:  runIcons,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("mojiman %s\n", version)
		fmt.Printf("  commit: %s\n", commit)
		fmt.Printf("  built:  %s\n", date)
	},
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/mojiman/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "log format (text, json)")

	rootCmd.PersistentFlags().StringVarP(&sourceDir, "source", "i", config.DefaultSourceDir, "source emote directory")
	rootCmd.PersistentFlags().StringVarP(&outputDir, "out", "o", config.DefaultOutputDir, "output directory")
	rootCmd.PersistentFlags().UintVar(&size, "size", config.DefaultSize, "target size in pixels")
	rootCmd.PersistentFlags().StringVar(&repoName, "name", config.DefaultRepoName, "repository name written to the manifest")
	rootCmd.PersistentFlags().StringVar(&repoIcon, "icon", "", "repository icon image")
	rootCmd.PersistentFlags().IntVar(&workers, "workers", config.DefaultWorkers, "maximum concurrent resizes")

	// Sync command flags
	syncCmd.Flags().BoolVar(&dryRun, "dry-run", false, "show what would be done without making changes")

	// Add commands
	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(iconsCmd)
	rootCmd.AddCommand(versionCmd)
}

func runSync(cmd *cobra.Command, args []string) error {
	ctx, cancel := setupSignalHandler()
	defer cancel()

	logger := setupLogger()

	cfg, err := loadConfig(logger)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	engine := newEngine(cfg, logger, dryRun)
	if _, err := engine.Run(ctx); err != nil {
		logger.Error("sync failed", "error", err)
		return err
	}

	return nil
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, cancel := setupSignalHandler()
	defer cancel()

	logger := setupLogger()

	cfg, err := loadConfig(logger)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	w := watch.New(cfg, func(ctx context.Context) error {
		_, err := newEngine(cfg, logger, false).Run(ctx)
		return err
	}, logger)

	return w.Start(ctx)
}

func runIcons(cmd *cobra.Command, args []string) error {
	logger := setupLogger()

	cfg, err := loadConfig(logger)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if !cfg.HasIcon() {
		return errors.New("no repository icon configured (set repo.icon or --icon)")
	}

	logger.Info("generating repo icons", "icon", cfg.Repo.Icon, "output", cfg.Paths.OutputDir)
	if err := icons.Generate(afero.NewOsFs(), cfg.Repo.Icon, cfg.Paths.OutputDir); err != nil {
		logger.Error("icon generation failed", "error", err)
		return err
	}

	for _, target := range icons.Targets(cfg.Paths.OutputDir) {
		logger.Info("wrote icon", "path", target)
	}
	return nil
}

// newEngine wires the sync engine to the real filesystem. PNG and JPEG are
// resized in process; GIF goes through ImageMagick.
func newEngine(cfg *config.Config, logger *slog.Logger, dryRun bool) *sync.Engine {
	fs := afero.NewOsFs()
	magick := resize.NewMagick(cfg.Resize.MagickBinary)
	if !magick.IsAvailable() {
		logger.Warn("ImageMagick not found, animated emotes will fail to resize", "binary", cfg.Resize.MagickBinary)
	}

	resizer := resize.NewDispatcher(resize.NewNative(fs), magick).WithContentCheck(fs)
	return sync.NewEngine(cfg, fs, resizer, resize.NewHeaderProber(fs), logger, dryRun)
}

func setupLogger() *slog.Logger {
	// Parse log level
	var level slog.Level
	switch logLevel {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	// Create handler based on format
	var handler slog.Handler
	opts := &slog.HandlerOptions{Level: level}

	if logFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}

// loadConfig reads the config file and applies flag overrides. The default
// config file is optional; an explicit --config must exist.
func loadConfig(logger *slog.Logger) (*config.Config, error) {
	configPath := cfgFile
	explicit := configPath != ""
	if !explicit {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get user home directory: %w", err)
		}
		configPath = filepath.Join(home, ".config", "mojiman", "config.yaml")
	}

	var cfg *config.Config
	if _, err := os.Stat(configPath); !explicit && errors.Is(err, os.ErrNotExist) {
		logger.Debug("no config file found, using defaults", "path", configPath)
		cfg = config.Default()
	} else {
		logger.Info("loading configuration", "path", configPath)
		cfg, err = config.Load(configPath)
		if err != nil {
			return nil, err
		}
	}

	applyFlagOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	logger.Debug("configuration loaded",
		"name", cfg.Repo.Name,
		"source_dir", cfg.Paths.SourceDir,
		"output_dir", cfg.Paths.OutputDir,
		"size", cfg.Sync.Size,
		"workers", cfg.Sync.Workers)

	return cfg, nil
}

// applyFlagOverrides copies explicitly set flags over the file values
func applyFlagOverrides(cfg *config.Config) {
	flags := rootCmd.PersistentFlags()
	if flags.Changed("source") {
		cfg.Paths.SourceDir = sourceDir
	}
	if flags.Changed("out") {
		cfg.Paths.OutputDir = outputDir
	}
	if flags.Changed("size") {
		cfg.Sync.Size = size
	}
	if flags.Changed("name") {
		cfg.Repo.Name = repoName
	}
	if flags.Changed("icon") {
		cfg.Repo.Icon = repoIcon
	}
	if flags.Changed("workers") {
		cfg.Sync.Workers = workers
	}
}

func setupSignalHandler() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigCh
		cancel()
	}()

	return ctx, cancel
}
