package sync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/sourcegraph/conc"
	"github.com/spf13/afero"

	"github.com/schaermu/mojiman/internal/asset"
	"github.com/schaermu/mojiman/internal/config"
	"github.com/schaermu/mojiman/internal/icons"
	"github.com/schaermu/mojiman/internal/manifest"
	"github.com/schaermu/mojiman/internal/resize"
	"github.com/schaermu/mojiman/internal/stale"
)

// Engine orchestrates the sync process
type Engine struct {
	cfg     *config.Config
	fs      afero.Fs
	resizer resize.Resizer
	prober  stale.Prober
	logger  *slog.Logger
	dryRun  bool
}

// NewEngine creates a new sync engine
func NewEngine(cfg *config.Config, fs afero.Fs, resizer resize.Resizer, prober stale.Prober, logger *slog.Logger, dryRun bool) *Engine {
	return &Engine{
		cfg:     cfg,
		fs:      fs,
		resizer: resizer,
		prober:  prober,
		logger:  logger,
		dryRun:  dryRun,
	}
}

// Report summarizes one run
type Report struct {
	Plan       *Plan
	Transforms []ItemResult
	Deletes    []ItemResult
	Icon       *ItemResult
	Manifest   manifest.Manifest
	DryRun     bool
}

// Failures returns every per-item failure of the run, including skipped checks.
func (r *Report) Failures() []ItemResult {
	var out []ItemResult
	if r.Plan != nil {
		out = append(out, r.Plan.Skipped...)
	}
	for _, res := range r.Transforms {
		if res.Failed() {
			out = append(out, res)
		}
	}
	for _, res := range r.Deletes {
		if res.Failed() {
			out = append(out, res)
		}
	}
	if r.Icon != nil && r.Icon.Failed() {
		out = append(out, *r.Icon)
	}
	return out
}

// Run executes the complete sync process. It returns an error only for
// failures that leave the output unusable: unreadable directories or a
// manifest that cannot be written. Per-item failures are in the report.
func (e *Engine) Run(ctx context.Context) (*Report, error) {
	e.logger.Info("starting sync",
		"source", e.cfg.Paths.SourceDir,
		"output", e.cfg.Paths.OutputDir,
		"size", e.cfg.Sync.Size,
		"dry_run", e.dryRun)

	source, err := asset.Build(e.fs, e.cfg.Paths.SourceDir, asset.Options{Exclude: e.cfg.Sync.Exclude})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to catalog source emotes: %w", ErrFatalIO, err)
	}
	e.logger.Info("discovered source emotes", "count", len(source))

	if !e.dryRun {
		if err := e.ensureOutputDirs(); err != nil {
			return nil, err
		}
	}

	output, err := e.outputCatalog()
	if err != nil {
		return nil, fmt.Errorf("%w: failed to catalog output emotes: %w", ErrFatalIO, err)
	}

	oracle := stale.NewOracle(e.fs, e.prober, e.logger)
	plan := NewPlanner(oracle, e.cfg.EmotesDir(), e.logger).Plan(source, output, e.cfg.Sync.Size)

	e.logger.Info("sync plan",
		"regenerate", len(plan.Regenerate),
		"keep", len(plan.Keep),
		"delete", len(plan.Delete),
		"skipped", len(plan.Skipped))

	report := &Report{
		Plan:     plan,
		Manifest: manifest.Build(e.cfg.Repo.Name, plan.Source),
		DryRun:   e.dryRun,
	}

	// check for dry-run mode
	if e.dryRun {
		e.logPlanDetails(plan)
		e.logger.Info("dry-run complete, no changes applied")
		return report, nil
	}

	// Transform and reconcile touch disjoint file names, so they overlap.
	var wg conc.WaitGroup
	wg.Go(func() {
		report.Transforms = NewExecutor(e.resizer, e.cfg.Sync.Workers, e.logger).
			Execute(ctx, plan.Regenerate, e.cfg.Sync.Size)
	})
	if e.cfg.Sync.KeepOrphans {
		for _, op := range plan.Delete {
			e.logger.Info("keeping orphaned emote", "asset", op.Asset.FileName)
		}
	} else {
		wg.Go(func() {
			report.Deletes = NewReconciler(e.fs, e.cfg.Sync.Workers, e.logger).
				Reconcile(ctx, plan.Delete)
		})
	}
	wg.Wait()

	if e.cfg.HasIcon() {
		report.Icon = e.syncIcons()
	}

	if err := manifest.Write(e.fs, e.cfg.ManifestPath(), report.Manifest); err != nil {
		return report, err
	}
	e.logger.Info("manifest written",
		"path", e.cfg.ManifestPath(),
		"emotes", len(report.Manifest.Emotes))

	failures := report.Failures()
	if len(failures) > 0 {
		e.logger.Warn("sync completed with failures",
			"regenerated", len(report.Transforms)-countFailures(report.Transforms),
			"deleted", len(report.Deletes)-countFailures(report.Deletes),
			"failed", len(failures))
		return report, nil
	}

	e.logger.Info("sync completed successfully",
		"regenerated", len(report.Transforms),
		"deleted", len(report.Deletes))
	return report, nil
}

// ensureOutputDirs creates the output root and its emotes directory
func (e *Engine) ensureOutputDirs() error {
	if _, err := e.fs.Stat(e.cfg.Paths.OutputDir); errors.Is(err, os.ErrNotExist) {
		e.logger.Info("creating output directory", "path", e.cfg.Paths.OutputDir)
	}
	if err := e.fs.MkdirAll(e.cfg.EmotesDir(), 0755); err != nil {
		return fmt.Errorf("%w: failed to create output directory: %w", ErrFatalIO, err)
	}
	return nil
}

// outputCatalog enumerates existing derivatives. In dry-run mode the output
// directory may not exist yet, which reads as an empty catalog.
func (e *Engine) outputCatalog() (asset.Catalog, error) {
	if e.dryRun {
		exists, err := afero.DirExists(e.fs, e.cfg.EmotesDir())
		if err != nil {
			return nil, err
		}
		if !exists {
			return asset.Catalog{}, nil
		}
	}
	return asset.Build(e.fs, e.cfg.EmotesDir(), asset.Options{})
}

// syncIcons regenerates the repository icons when they are stale
func (e *Engine) syncIcons() *ItemResult {
	iconAsset := asset.Asset{FileName: e.cfg.Repo.Icon, Path: e.cfg.Repo.Icon}

	isStale, err := icons.Stale(e.fs, e.cfg.Repo.Icon, e.cfg.Paths.OutputDir)
	if err != nil {
		e.logger.Warn("failed to check repo icons", "icon", e.cfg.Repo.Icon, "error", err)
		res := failed(OpIcon, iconAsset, err)
		return &res
	}
	if !isStale {
		return &ItemResult{Op: OpIcon, Asset: iconAsset}
	}

	e.logger.Info("generating repo icons", "icon", e.cfg.Repo.Icon)
	if err := icons.Generate(e.fs, e.cfg.Repo.Icon, e.cfg.Paths.OutputDir); err != nil {
		e.logger.Warn("failed to generate repo icons", "icon", e.cfg.Repo.Icon, "error", err)
		res := failed(OpIcon, iconAsset, err)
		return &res
	}
	return &ItemResult{Op: OpIcon, Asset: iconAsset}
}

// logPlanDetails logs detailed plan information for dry-run
func (e *Engine) logPlanDetails(plan *Plan) {
	for _, op := range plan.Regenerate {
		e.logger.Info("[dry-run] would regenerate", "asset", op.Asset.FileName, "reason", op.Reason, "dest", op.DestPath)
	}
	for _, op := range plan.Delete {
		if e.cfg.Sync.KeepOrphans {
			e.logger.Info("[dry-run] would keep orphan", "asset", op.Asset.FileName)
			continue
		}
		e.logger.Info("[dry-run] would delete", "dest", op.DestPath)
	}
	if e.cfg.HasIcon() {
		if isStale, err := icons.Stale(e.fs, e.cfg.Repo.Icon, e.cfg.Paths.OutputDir); err == nil && isStale {
			e.logger.Info("[dry-run] would generate repo icons", "icon", e.cfg.Repo.Icon)
		}
	}
	e.logger.Info("[dry-run] would write manifest",
		"path", e.cfg.ManifestPath(),
		"emotes", len(plan.Source))
}
