package sync

import (
	"context"
	"errors"
	"log/slog"
	"os"

	"github.com/sourcegraph/conc/pool"
	"github.com/spf13/afero"
)

// Reconciler removes orphaned derivatives
type Reconciler struct {
	fs      afero.Fs
	workers int
	logger  *slog.Logger
}

// NewReconciler creates a new reconciler
func NewReconciler(fs afero.Fs, workers int, logger *slog.Logger) *Reconciler {
	return &Reconciler{
		fs:      fs,
		workers: max(workers, 1),
		logger:  logger,
	}
}

// Reconcile deletes the file of every op. Already-missing files count as
// deleted; other failures are recorded per item.
func (r *Reconciler) Reconcile(ctx context.Context, ops []FileOp) []ItemResult {
	p := pool.NewWithResults[ItemResult]().WithMaxGoroutines(r.workers)
	for _, op := range ops {
		op := op
		p.Go(func() ItemResult {
			return r.remove(ctx, op)
		})
	}

	results := p.Wait()
	sortResults(results)
	return results
}

func (r *Reconciler) remove(ctx context.Context, op FileOp) ItemResult {
	if err := ctx.Err(); err != nil {
		return failed(OpDelete, op.Asset, err)
	}

	r.logger.Info("deleting orphaned emote", "asset", op.Asset.FileName)
	if err := r.fs.Remove(op.DestPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		r.logger.Warn("failed to delete orphaned emote",
			"asset", op.Asset.FileName,
			"error", err)
		return failed(OpDelete, op.Asset, err)
	}

	return ItemResult{Op: OpDelete, Asset: op.Asset}
}
