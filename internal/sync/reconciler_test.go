package sync

import (
	"context"
	"os"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schaermu/mojiman/internal/testutil"
)

func deleteOps(names ...string) []FileOp {
	ops := make([]FileOp, 0, len(names))
	for _, a := range catalogOf("/out/emotes", names...) {
		ops = append(ops, FileOp{Asset: a, DestPath: a.Path})
	}
	return ops
}

func TestReconcile(t *testing.T) {
	fs := afero.NewMemMapFs()
	testutil.WriteFile(t, fs, "/out/emotes/old.png", "x")
	testutil.WriteFile(t, fs, "/out/emotes/gone.gif", "x")
	testutil.WriteFile(t, fs, "/out/emotes/keep.png", "x")

	results := NewReconciler(fs, 2, testLogger()).
		Reconcile(context.Background(), deleteOps("old.png", "gone.gif", "vanished.jpg"))

	require.Len(t, results, 3)
	assert.Equal(t, []string{"gone.gif", "old.png", "vanished.jpg"}, resultNames(results))
	for _, r := range results {
		assert.False(t, r.Failed(), r.Asset.FileName)
		assert.Equal(t, OpDelete, r.Op)
	}

	assert.False(t, testutil.Exists(t, fs, "/out/emotes/old.png"))
	assert.False(t, testutil.Exists(t, fs, "/out/emotes/gone.gif"))
	assert.True(t, testutil.Exists(t, fs, "/out/emotes/keep.png"))
}

func TestReconcile_FailureIsPerItem(t *testing.T) {
	base := afero.NewMemMapFs()
	testutil.WriteFile(t, base, "/out/emotes/a.png", "x")
	testutil.WriteFile(t, base, "/out/emotes/b.png", "x")

	results := NewReconciler(afero.NewReadOnlyFs(base), 1, testLogger()).
		Reconcile(context.Background(), deleteOps("a.png", "b.png"))

	require.Len(t, results, 2)
	for _, r := range results {
		assert.True(t, r.Failed())
		assert.ErrorIs(t, r.Err, os.ErrPermission)
	}
	assert.True(t, testutil.Exists(t, base, "/out/emotes/a.png"))
}

func TestReconcile_CancelledContext(t *testing.T) {
	fs := afero.NewMemMapFs()
	testutil.WriteFile(t, fs, "/out/emotes/a.png", "x")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := NewReconciler(fs, 1, testLogger()).Reconcile(ctx, deleteOps("a.png"))

	require.Len(t, results, 1)
	assert.ErrorIs(t, results[0].Err, context.Canceled)
	assert.True(t, testutil.Exists(t, fs, "/out/emotes/a.png"))
}
