package sync

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	gosync "sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/spf13/afero"

	"github.com/schaermu/mojiman/internal/asset"
	"github.com/schaermu/mojiman/internal/stale"
	"github.com/schaermu/mojiman/internal/testutil"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// fakeResizer writes a dim x dim image of the destination format. Files whose
// base name is in fail are rejected.
type fakeResizer struct {
	t    *testing.T
	fs   afero.Fs
	fail map[string]bool

	mu    gosync.Mutex
	calls []string
}

func (r *fakeResizer) Resize(_ context.Context, src, dst string, dim uint) error {
	r.mu.Lock()
	r.calls = append(r.calls, filepath.Base(dst))
	r.mu.Unlock()

	if r.fail[filepath.Base(dst)] {
		return errors.New("resize exploded")
	}
	if _, err := r.fs.Stat(src); err != nil {
		return err
	}
	return afero.WriteFile(r.fs, dst, testutil.EncodeImage(r.t, filepath.Ext(dst), int(dim), int(dim)), 0644)
}

func (r *fakeResizer) Calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

// blockingResizer tracks how many resizes run at the same time.
type blockingResizer struct {
	active  atomic.Int32
	peak    atomic.Int32
	release chan struct{}
}

func (r *blockingResizer) Resize(ctx context.Context, _, _ string, _ uint) error {
	n := r.active.Add(1)
	defer r.active.Add(-1)
	for {
		p := r.peak.Load()
		if n <= p || r.peak.CompareAndSwap(p, n) {
			break
		}
	}
	select {
	case <-r.release:
	case <-time.After(20 * time.Millisecond):
	case <-ctx.Done():
		return ctx.Err()
	}
	return nil
}

// fakeChecker answers staleness checks from a table keyed by output base name.
type fakeChecker struct {
	reasons map[string]stale.Reason
	errs    map[string]error
}

func (c fakeChecker) Check(_, outputPath string, _ uint) (stale.Reason, error) {
	name := filepath.Base(outputPath)
	if err, ok := c.errs[name]; ok {
		return "", err
	}
	if r, ok := c.reasons[name]; ok {
		return r, nil
	}
	return stale.ReasonNone, nil
}

func catalogOf(dir string, names ...string) asset.Catalog {
	assets := make([]asset.Asset, 0, len(names))
	for _, n := range names {
		a, ok := asset.Parse(dir, n)
		if !ok {
			panic("bad fixture name " + n)
		}
		assets = append(assets, a)
	}
	return asset.NewCatalog(assets...)
}

func fileNames(ops []FileOp) []string {
	names := make([]string, 0, len(ops))
	for _, op := range ops {
		names = append(names, op.Asset.FileName)
	}
	return names
}

func resultNames(results []ItemResult) []string {
	names := make([]string, 0, len(results))
	for _, r := range results {
		names = append(names, r.Asset.FileName)
	}
	return names
}
