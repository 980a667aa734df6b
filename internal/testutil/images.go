// Package testutil provides fixture helpers shared by package tests.
package testutil

import (
	"bytes"
	"image"
	"image/color"
	"image/color/palette"
	"image/gif"
	"image/jpeg"
	"image/png"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/afero"
)

// EncodeImage returns a w x h image encoded in the format implied by ext
// ("png", "jpg" or "gif"). GIFs get two frames so animation can be checked.
func EncodeImage(t *testing.T, ext string, w, h int) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 0x80, A: 0xff})
		}
	}

	var buf bytes.Buffer
	switch strings.ToLower(strings.TrimPrefix(ext, ".")) {
	case "png":
		if err := png.Encode(&buf, img); err != nil {
			t.Fatalf("encode png: %v", err)
		}
	case "jpg", "jpeg":
		if err := jpeg.Encode(&buf, img, nil); err != nil {
			t.Fatalf("encode jpeg: %v", err)
		}
	case "gif":
		anim := &gif.GIF{}
		for i := 0; i < 2; i++ {
			frame := image.NewPaletted(image.Rect(0, 0, w, h), palette.Plan9)
			for y := 0; y < h; y++ {
				for x := 0; x < w; x++ {
					frame.Set(x, y, color.RGBA{R: uint8(i * 0x80), G: 0x40, B: uint8(x), A: 0xff})
				}
			}
			anim.Image = append(anim.Image, frame)
			anim.Delay = append(anim.Delay, 10)
		}
		if err := gif.EncodeAll(&buf, anim); err != nil {
			t.Fatalf("encode gif: %v", err)
		}
	default:
		t.Fatalf("unsupported fixture extension %q", ext)
	}

	return buf.Bytes()
}

// WriteImage writes a w x h image to path, picking the format from its extension.
func WriteImage(t *testing.T, fs afero.Fs, path string, w, h int) {
	t.Helper()

	if err := fs.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("failed to create directory: %v", err)
	}
	if err := afero.WriteFile(fs, path, EncodeImage(t, filepath.Ext(path), w, h), 0644); err != nil {
		t.Fatalf("failed to write image: %v", err)
	}
}

// WriteFile writes raw content to path, creating parent directories.
func WriteFile(t *testing.T, fs afero.Fs, path, content string) {
	t.Helper()

	if err := fs.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("failed to create directory: %v", err)
	}
	if err := afero.WriteFile(fs, path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}
}

// SetMtime sets both access and modification time of path.
func SetMtime(t *testing.T, fs afero.Fs, path string, mtime time.Time) {
	t.Helper()

	if err := fs.Chtimes(path, mtime, mtime); err != nil {
		t.Fatalf("failed to set mtime on %s: %v", path, err)
	}
}

// Exists reports whether path exists on fs.
func Exists(t *testing.T, fs afero.Fs, path string) bool {
	t.Helper()

	ok, err := afero.Exists(fs, path)
	if err != nil {
		t.Fatalf("failed to stat %s: %v", path, err)
	}
	return ok
}

// ImageSize decodes the header of path and returns its dimensions.
func ImageSize(t *testing.T, fs afero.Fs, path string) (int, int) {
	t.Helper()

	f, err := fs.Open(path)
	if err != nil {
		t.Fatalf("failed to open %s: %v", path, err)
	}
	defer func() {
		_ = f.Close()
	}()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		t.Fatalf("failed to decode %s: %v", path, err)
	}
	return cfg.Width, cfg.Height
}
