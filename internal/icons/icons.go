// Package icons renders the repository images published next to the manifest:
// RepoImage.png and favicon.ico, both derived from a single source icon.
package icons

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // register decoder
	_ "image/jpeg" // register decoder
	"image/png"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
	"golang.org/x/image/draw"

	"github.com/schaermu/mojiman/internal/fsutil"
)

const (
	RepoImageFile = "RepoImage.png"
	FaviconFile   = "favicon.ico"

	// maxFaviconSize is the largest size an ICO directory entry can describe.
	maxFaviconSize = 256
)

// Targets returns the files Generate writes into outputDir.
func Targets(outputDir string) []string {
	return []string{
		filepath.Join(outputDir, RepoImageFile),
		filepath.Join(outputDir, FaviconFile),
	}
}

// Stale reports whether any target is missing or older than the icon.
func Stale(fs afero.Fs, iconPath, outputDir string) (bool, error) {
	iconInfo, err := fs.Stat(iconPath)
	if err != nil {
		return false, fmt.Errorf("failed to stat icon: %w", err)
	}

	for _, target := range Targets(outputDir) {
		info, err := fs.Stat(target)
		if errors.Is(err, os.ErrNotExist) {
			return true, nil
		}
		if err != nil {
			return false, fmt.Errorf("failed to stat %s: %w", target, err)
		}
		if info.ModTime().Before(iconInfo.ModTime()) {
			return true, nil
		}
	}
	return false, nil
}

// Generate decodes iconPath and writes every target into outputDir.
func Generate(fs afero.Fs, iconPath, outputDir string) error {
	icon, err := decode(fs, iconPath)
	if err != nil {
		return err
	}

	repoImage := filepath.Join(outputDir, RepoImageFile)
	err = fsutil.WriteAtomic(fs, repoImage, 0644, func(w io.Writer) error {
		return png.Encode(w, icon)
	})
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", repoImage, err)
	}

	favicon := filepath.Join(outputDir, FaviconFile)
	err = fsutil.WriteAtomic(fs, favicon, 0644, func(w io.Writer) error {
		return EncodeICO(w, shrink(icon, maxFaviconSize))
	})
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", favicon, err)
	}

	return nil
}

func decode(fs afero.Fs, path string) (image.Image, error) {
	f, err := fs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open icon: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode icon %s: %w", path, err)
	}
	return img, nil
}

// shrink scales img down to fit in a limit x limit box. Smaller images are
// returned as-is.
func shrink(img image.Image, limit int) image.Image {
	b := img.Bounds()
	if b.Dx() <= limit && b.Dy() <= limit {
		return img
	}

	w, h := limit, limit
	if b.Dx() > b.Dy() {
		h = max(b.Dy()*limit/b.Dx(), 1)
	} else if b.Dy() > b.Dx() {
		w = max(b.Dx()*limit/b.Dy(), 1)
	}

	out := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(out, out.Bounds(), img, b, draw.Src, nil)
	return out
}

// EncodeICO writes img as a single-entry ICO file with an embedded PNG
// payload. img must be at most 256x256.
func EncodeICO(w io.Writer, img image.Image) error {
	b := img.Bounds()
	if b.Dx() > maxFaviconSize || b.Dy() > maxFaviconSize {
		return fmt.Errorf("icon too large for ico: %dx%d", b.Dx(), b.Dy())
	}

	var payload bytes.Buffer
	if err := png.Encode(&payload, img); err != nil {
		return err
	}

	const headerSize = 6 + 16

	header := struct {
		Reserved  uint16
		Type      uint16
		Count     uint16
		Width     uint8
		Height    uint8
		Colors    uint8
		Reserved2 uint8
		Planes    uint16
		BitCount  uint16
		Size      uint32
		Offset    uint32
	}{
		Type:     1,
		Count:    1,
		Width:    icoDimension(b.Dx()),
		Height:   icoDimension(b.Dy()),
		Planes:   1,
		BitCount: 32,
		Size:     uint32(payload.Len()),
		Offset:   headerSize,
	}

	if err := binary.Write(w, binary.LittleEndian, header); err != nil {
		return err
	}
	_, err := w.Write(payload.Bytes())
	return err
}

// icoDimension encodes a side length; 0 stands for 256.
func icoDimension(n int) uint8 {
	if n >= maxFaviconSize {
		return 0
	}
	return uint8(n)
}
