package resize

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/schaermu/mojiman/internal/fsutil"
)

// Magick implements Resizer by shelling out to ImageMagick. It works on the
// real filesystem only, since the subprocess opens the paths itself.
type Magick struct {
	binary string
}

// NewMagick creates a new ImageMagick resizer using the given binary
func NewMagick(binary string) *Magick {
	return &Magick{binary: binary}
}

// Args returns the ImageMagick arguments for one resize. Frames are coalesced
// before scaling so partial frames keep their offsets, then re-optimized.
func (m *Magick) Args(src, dst string, dim uint) []string {
	geometry := fmt.Sprintf("%dx%d", dim, dim)
	return []string{src, "-coalesce", "-resize", geometry, "-layers", "Optimize", dst}
}

// Resize implements Resizer
func (m *Magick) Resize(ctx context.Context, src, dst string, dim uint) error {
	if dim == 0 {
		return fmt.Errorf("invalid target size 0")
	}

	dir := filepath.Dir(dst)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	// The temp name keeps the extension so ImageMagick picks the output format.
	tmp, err := os.CreateTemp(dir, fsutil.TempPattern+filepath.Ext(dst))
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	_ = tmp.Close()
	defer func() {
		_ = os.Remove(tmpPath)
	}() // cleanup on error

	cmd := exec.CommandContext(ctx, m.binary, m.Args(src, tmpPath, dim)...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s failed on %s: %w: %s", m.binary, src, err, strings.TrimSpace(string(output)))
	}

	if err := os.Chmod(tmpPath, 0644); err != nil {
		return err
	}

	return os.Rename(tmpPath, dst)
}

// IsAvailable checks if the ImageMagick binary can be found
func (m *Magick) IsAvailable() bool {
	_, err := exec.LookPath(m.binary)
	return err == nil
}
