// Package fsutil holds filesystem helpers shared by the writers of the output
// directory.
package fsutil

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

// TempPattern is the name pattern of in-flight files. Asset catalogs skip
// them if a run dies before the rename.
const TempPattern = ".mojiman-tmp-*"

// IsTemp reports whether the base name of path was created from TempPattern.
func IsTemp(path string) bool {
	return strings.HasPrefix(filepath.Base(path), strings.TrimSuffix(TempPattern, "*"))
}

// WriteAtomic writes dst through a temp file in the same directory and
// renames it into place, so readers never observe a partial file.
func WriteAtomic(fs afero.Fs, dst string, perm os.FileMode, write func(io.Writer) error) error {
	dir := filepath.Dir(dst)
	if err := fs.MkdirAll(dir, 0755); err != nil {
		return err
	}

	tmp, err := afero.TempFile(fs, dir, TempPattern)
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	defer func() {
		_ = fs.Remove(tmpPath)
	}() // cleanup on error

	if err := write(tmp); err != nil {
		_ = tmp.Close()
		return err
	}

	if err := tmp.Close(); err != nil {
		return err
	}

	// TempFile always creates 0600.
	if err := fs.Chmod(tmpPath, perm); err != nil {
		return err
	}

	return fs.Rename(tmpPath, dst)
}
