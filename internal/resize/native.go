package resize

import (
	"context"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"

	"github.com/spf13/afero"
	"golang.org/x/image/draw"

	"github.com/schaermu/mojiman/internal/fsutil"
)

const jpegQuality = 90

// Native resizes static images in process with a Catmull-Rom filter
type Native struct {
	fs afero.Fs
}

// NewNative creates a resizer reading and writing through fs
func NewNative(fs afero.Fs) *Native {
	return &Native{fs: fs}
}

// Resize implements Resizer. The output format follows the extension of dst.
func (n *Native) Resize(ctx context.Context, src, dst string, dim uint) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if dim == 0 {
		return fmt.Errorf("invalid target size 0")
	}

	img, err := n.decode(src)
	if err != nil {
		return err
	}

	b := img.Bounds()
	w, h := fit(b.Dx(), b.Dy(), dim)
	out := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(out, out.Bounds(), img, b, draw.Src, nil)

	return fsutil.WriteAtomic(n.fs, dst, 0644, func(wr io.Writer) error {
		return encode(wr, out, extOf(dst))
	})
}

func (n *Native) decode(path string) (image.Image, error) {
	f, err := n.fs.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = f.Close()
	}()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return img, nil
}

func encode(w io.Writer, img image.Image, ext string) error {
	switch ext {
	case "png":
		return png.Encode(w, img)
	case "jpg", "jpeg":
		return jpeg.Encode(w, img, &jpeg.Options{Quality: jpegQuality})
	case "gif":
		// Single frame only; animated sources go through Magick.
		return gif.Encode(w, img, nil)
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
}
