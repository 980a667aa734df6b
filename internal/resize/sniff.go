package resize

import (
	"fmt"

	"github.com/gabriel-vasile/mimetype"
	"github.com/spf13/afero"
)

// supportedMIME lists the content types the resizers can decode.
var supportedMIME = []string{"image/png", "image/jpeg", "image/gif"}

// Sniff detects the content type of path from its leading bytes.
func Sniff(fs afero.Fs, path string) (*mimetype.MIME, error) {
	f, err := fs.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = f.Close()
	}()

	mt, err := mimetype.DetectReader(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return mt, nil
}

// checkContent rejects sources whose bytes are not a supported image,
// whatever their extension says.
func checkContent(fs afero.Fs, path string) error {
	mt, err := Sniff(fs, path)
	if err != nil {
		return err
	}
	// Subtypes such as APNG inherit from their container format.
	for m := mt; m != nil; m = m.Parent() {
		for _, supported := range supportedMIME {
			if m.Is(supported) {
				return nil
			}
		}
	}
	return fmt.Errorf("%w: %s contains %s", ErrUnsupportedFormat, path, mt.String())
}
