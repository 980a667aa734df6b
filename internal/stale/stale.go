// Package stale decides whether an output derivative has to be regenerated
// from its source image.
package stale

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/afero"
)

// Reason explains why an output is (or is not) stale
type Reason string

const (
	// ReasonNone means the output is up to date.
	ReasonNone Reason = "none"
	// ReasonMissing means no output exists yet.
	ReasonMissing Reason = "missing"
	// ReasonOlder means the output predates its source.
	ReasonOlder Reason = "older"
	// ReasonSize means the output does not have the target size on either axis.
	ReasonSize Reason = "size"
	// ReasonUnreadable means the output header could not be probed.
	ReasonUnreadable Reason = "unreadable"
)

// Stale reports whether the reason requires regeneration.
func (r Reason) Stale() bool {
	return r != ReasonNone
}

// Prober reads image dimensions from the header of a file without decoding it.
type Prober interface {
	ProbeSize(path string) (width, height int, err error)
}

// Oracle compares a source asset against its output artifact
type Oracle struct {
	fs     afero.Fs
	prober Prober
	logger *slog.Logger
}

// NewOracle creates a new staleness oracle
func NewOracle(fs afero.Fs, prober Prober, logger *slog.Logger) *Oracle {
	return &Oracle{
		fs:     fs,
		prober: prober,
		logger: logger,
	}
}

// IsStale returns true when outputPath must be regenerated from sourcePath.
func (o *Oracle) IsStale(sourcePath, outputPath string, dim uint) (bool, error) {
	reason, err := o.Check(sourcePath, outputPath, dim)
	if err != nil {
		return false, err
	}
	return reason.Stale(), nil
}

// Check returns why outputPath is stale, or ReasonNone. An error means the
// modification times could not be compared; it is never a staleness verdict.
func (o *Oracle) Check(sourcePath, outputPath string, dim uint) (Reason, error) {
	outInfo, err := o.fs.Stat(outputPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ReasonMissing, nil
		}
		return "", fmt.Errorf("failed to stat output %s: %w", outputPath, err)
	}

	srcInfo, err := o.fs.Stat(sourcePath)
	if err != nil {
		return "", fmt.Errorf("failed to stat source %s: %w", sourcePath, err)
	}

	if outInfo.ModTime().Before(srcInfo.ModTime()) {
		return ReasonOlder, nil
	}

	width, height, err := o.prober.ProbeSize(outputPath)
	if err != nil {
		o.logger.Warn("failed to probe output size, forcing regeneration",
			"path", outputPath,
			"error", err)
		return ReasonUnreadable, nil
	}

	// One matching axis is enough: aspect-preserving resizes only fill one.
	if uint(width) != dim && uint(height) != dim {
		o.logger.Debug("output size differs from target",
			"path", outputPath,
			"width", width,
			"height", height,
			"target", dim)
		return ReasonSize, nil
	}

	return ReasonNone, nil
}
