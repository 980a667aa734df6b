package sync

import (
	"log/slog"
	"path/filepath"

	"github.com/schaermu/mojiman/internal/asset"
	"github.com/schaermu/mojiman/internal/stale"
)

// Checker decides whether an output has to be regenerated from its source
type Checker interface {
	Check(sourcePath, outputPath string, dim uint) (stale.Reason, error)
}

// Planner joins a source and an output catalog on file name
type Planner struct {
	checker   Checker
	outputDir string
	logger    *slog.Logger
}

// NewPlanner creates a planner writing new derivatives into outputDir
func NewPlanner(checker Checker, outputDir string, logger *slog.Logger) *Planner {
	return &Planner{
		checker:   checker,
		outputDir: outputDir,
		logger:    logger,
	}
}

// Plan splits the catalogs into regenerate, keep and delete sets. The source
// catalog decides what exists; the output catalog only feeds staleness checks.
func (p *Planner) Plan(source, output asset.Catalog, dim uint) *Plan {
	plan := &Plan{
		Regenerate: make([]FileOp, 0),
		Keep:       make([]FileOp, 0),
		Delete:     make([]FileOp, 0),
		Source:     source,
	}

	for _, src := range source {
		op := FileOp{
			Asset:      src,
			SourcePath: src.Path,
			DestPath:   filepath.Join(p.outputDir, src.FileName),
		}

		out, exists := output.Lookup(src.FileName)
		if !exists {
			op.Reason = stale.ReasonMissing
			plan.Regenerate = append(plan.Regenerate, op)
			continue
		}

		// Keep writing to the existing entry so its casing never produces a twin.
		op.DestPath = out.Path

		reason, err := p.checker.Check(op.SourcePath, op.DestPath, dim)
		if err != nil {
			p.logger.Warn("failed to check staleness, skipping asset",
				"asset", src.FileName,
				"error", err)
			plan.Skipped = append(plan.Skipped, failed(OpCheck, src, err))
			continue
		}

		op.Reason = reason
		if reason.Stale() {
			plan.Regenerate = append(plan.Regenerate, op)
		} else {
			plan.Keep = append(plan.Keep, op)
		}
	}

	for _, out := range output {
		if _, exists := source.Lookup(out.FileName); exists {
			continue
		}
		plan.Delete = append(plan.Delete, FileOp{
			Asset:    out,
			DestPath: out.Path,
		})
	}

	return plan
}
