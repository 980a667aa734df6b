// Package resize produces square-bounded derivatives of emote images.
//
// Static formats are decoded and re-encoded in process; animated GIFs are
// handed to ImageMagick so every frame survives. Callers only see Resizer.
package resize

import (
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // register decoder
	_ "image/jpeg" // register decoder
	_ "image/png"  // register decoder
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

// ErrUnsupportedFormat is returned for extensions no resizer handles.
var ErrUnsupportedFormat = errors.New("unsupported image format")

// Resizer writes a copy of src to dst that fits in a dim x dim box.
type Resizer interface {
	Resize(ctx context.Context, src, dst string, dim uint) error
}

// Dispatcher routes each file to a Resizer by destination extension.
type Dispatcher struct {
	byExt map[string]Resizer
	fs    afero.Fs // sources are sniffed before dispatch when set
}

// NewDispatcher returns the default routing: gif through magick, everything
// else through the native codec.
func NewDispatcher(native, magick Resizer) *Dispatcher {
	return &Dispatcher{
		byExt: map[string]Resizer{
			"png": native,
			"jpg": native,
			"gif": magick,
		},
	}
}

// WithContentCheck makes the dispatcher verify that each source really is a
// supported image before handing it on.
func (d *Dispatcher) WithContentCheck(fs afero.Fs) *Dispatcher {
	d.fs = fs
	return d
}

// Resize implements Resizer.
func (d *Dispatcher) Resize(ctx context.Context, src, dst string, dim uint) error {
	ext := extOf(dst)
	r, ok := d.byExt[ext]
	if !ok || r == nil {
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	if d.fs != nil {
		if err := checkContent(d.fs, src); err != nil {
			return err
		}
	}
	return r.Resize(ctx, src, dst, dim)
}

// HeaderProber reads image dimensions through an afero filesystem
type HeaderProber struct {
	fs afero.Fs
}

// NewHeaderProber creates a new prober
func NewHeaderProber(fs afero.Fs) *HeaderProber {
	return &HeaderProber{fs: fs}
}

// ProbeSize decodes only the image header of path.
func (p *HeaderProber) ProbeSize(path string) (int, int, error) {
	f, err := p.fs.Open(path)
	if err != nil {
		return 0, 0, err
	}
	defer func() {
		_ = f.Close()
	}()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to decode header of %s: %w", path, err)
	}
	return cfg.Width, cfg.Height, nil
}

// fit returns the largest size with the aspect ratio of w x h that fits in a
// dim x dim box. Both sides are at least one pixel.
func fit(w, h int, dim uint) (int, int) {
	d := int(dim)
	if w <= 0 || h <= 0 {
		return d, d
	}
	if w >= h {
		nh := (h*d + w/2) / w
		return d, max(nh, 1)
	}
	nw := (w*d + h/2) / h
	return max(nw, 1), d
}

func extOf(path string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
}
