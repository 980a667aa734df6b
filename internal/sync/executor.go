package sync

import (
	"context"
	"log/slog"

	"github.com/sourcegraph/conc/pool"

	"github.com/schaermu/mojiman/internal/resize"
)

// Executor regenerates derivatives on a bounded worker pool
type Executor struct {
	resizer resize.Resizer
	workers int
	logger  *slog.Logger
}

// NewExecutor creates a new executor running at most workers resizes at once
func NewExecutor(resizer resize.Resizer, workers int, logger *slog.Logger) *Executor {
	return &Executor{
		resizer: resizer,
		workers: max(workers, 1),
		logger:  logger,
	}
}

// Execute resizes every op and returns one result per op, sorted by file
// name. A failing item never stops the others; Execute returns only once all
// items are done.
func (e *Executor) Execute(ctx context.Context, ops []FileOp, dim uint) []ItemResult {
	p := pool.NewWithResults[ItemResult]().WithMaxGoroutines(e.workers)
	for _, op := range ops {
		op := op
		p.Go(func() ItemResult {
			return e.transform(ctx, op, dim)
		})
	}

	results := p.Wait()
	sortResults(results)
	return results
}

func (e *Executor) transform(ctx context.Context, op FileOp, dim uint) ItemResult {
	if err := ctx.Err(); err != nil {
		return failed(OpTransform, op.Asset, err)
	}

	e.logger.Info("regenerating emote",
		"asset", op.Asset.FileName,
		"reason", op.Reason,
		"size", dim)

	if err := e.resizer.Resize(ctx, op.SourcePath, op.DestPath, dim); err != nil {
		e.logger.Warn("failed to regenerate emote",
			"asset", op.Asset.FileName,
			"error", err)
		return failed(OpTransform, op.Asset, err)
	}

	return ItemResult{Op: OpTransform, Asset: op.Asset}
}
