package sync

import (
	"errors"
	"fmt"
	"sort"

	"github.com/schaermu/mojiman/internal/asset"
	"github.com/schaermu/mojiman/internal/stale"
)

// ErrFatalIO marks failures that abort a run before anything is changed.
var ErrFatalIO = errors.New("fatal I/O error")

// Op names the kind of per-item work
type Op string

const (
	OpTransform Op = "transform"
	OpDelete    Op = "delete"
	OpCheck     Op = "check"
	OpIcon      Op = "icon"
)

// Plan represents the sync operations to perform
type Plan struct {
	Regenerate []FileOp
	Keep       []FileOp
	Delete     []FileOp
	// Skipped holds sources whose staleness could not be decided.
	Skipped []ItemResult
	// Source is the full source catalog; the manifest is built from it.
	Source asset.Catalog
}

// FileOp represents a file operation
type FileOp struct {
	Asset      asset.Asset
	SourcePath string       // empty for deletions
	DestPath   string       // path in the output emotes directory
	Reason     stale.Reason // why the op was planned
}

// ItemResult is the outcome of one per-item operation
type ItemResult struct {
	Op    Op
	Asset asset.Asset
	Err   error
}

// Failed reports whether the item failed.
func (r ItemResult) Failed() bool {
	return r.Err != nil
}

// ItemError is a failure confined to a single asset
type ItemError struct {
	Op       Op
	FileName string
	Err      error
}

func (e *ItemError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.FileName, e.Err)
}

func (e *ItemError) Unwrap() error {
	return e.Err
}

func failed(op Op, a asset.Asset, err error) ItemResult {
	return ItemResult{
		Op:    op,
		Asset: a,
		Err:   &ItemError{Op: op, FileName: a.FileName, Err: err},
	}
}

func sortResults(results []ItemResult) {
	sort.Slice(results, func(i, j int) bool {
		return results[i].Asset.FileName < results[j].Asset.FileName
	})
}

func countFailures(results []ItemResult) int {
	n := 0
	for _, r := range results {
		if r.Failed() {
			n++
		}
	}
	return n
}
