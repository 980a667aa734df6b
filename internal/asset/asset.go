package asset

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/afero"

	"github.com/schaermu/mojiman/internal/fsutil"
)

var (
	// ErrReadDir is returned when a catalog directory cannot be enumerated.
	ErrReadDir = errors.New("cannot read asset directory")
	// ErrDuplicateAsset is returned when two entries map to the same file name.
	ErrDuplicateAsset = errors.New("duplicate asset")
)

// ValidExtensions are the recognized image extensions, lower-cased and without the dot
var ValidExtensions = []string{
	"png",
	"jpg",
	"gif",
}

// Asset identifies one image on disk
type Asset struct {
	Name      string // file stem
	Extension string // lower-cased, no dot
	FileName  string // Name + "." + Extension, the source/output join key
	Path      string // path as enumerated, original casing preserved
}

// Type returns the manifest type of the asset, e.g. ".png".
func (a Asset) Type() string {
	return "." + a.Extension
}

// Catalog is the ordered set of assets found in one directory, sorted by
// FileName. Build and NewCatalog return sorted catalogs.
type Catalog []Asset

// NewCatalog returns the assets as a Catalog sorted by FileName.
func NewCatalog(assets ...Asset) Catalog {
	c := make(Catalog, len(assets))
	copy(c, assets)
	sort.Slice(c, func(i, j int) bool {
		return c[i].FileName < c[j].FileName
	})
	return c
}

// Lookup returns the asset with the given file name. It binary-searches, so
// c must be sorted by FileName.
func (c Catalog) Lookup(fileName string) (Asset, bool) {
	i := sort.Search(len(c), func(i int) bool { return c[i].FileName >= fileName })
	if i < len(c) && c[i].FileName == fileName {
		return c[i], true
	}
	return Asset{}, false
}

// FileNames returns the join keys of every asset, in catalog order.
func (c Catalog) FileNames() []string {
	names := make([]string, len(c))
	for i, a := range c {
		names[i] = a.FileName
	}
	return names
}

// Options tunes catalog construction
type Options struct {
	// Exclude holds doublestar patterns matched against entry names.
	Exclude []string
}

// IsValidExtension returns true if ext (with or without a leading dot, any case)
// is a recognized image extension
func IsValidExtension(ext string) bool {
	ext = strings.ToLower(strings.TrimPrefix(ext, "."))
	for _, valid := range ValidExtensions {
		if ext == valid {
			return true
		}
	}
	return false
}

// Parse splits an entry name into an Asset. It returns false for in-flight
// temp files, names without a stem or extension, and unrecognized extensions.
// Other dotfiles are regular assets: ".foo.png" has the stem ".foo".
func Parse(dir, entryName string) (Asset, bool) {
	if fsutil.IsTemp(entryName) {
		return Asset{}, false
	}

	ext := filepath.Ext(entryName)
	if ext == "" || ext == "." {
		return Asset{}, false
	}
	stem := strings.TrimSuffix(entryName, ext)
	if stem == "" {
		return Asset{}, false
	}

	ext = strings.ToLower(ext[1:])
	if !IsValidExtension(ext) {
		return Asset{}, false
	}

	return Asset{
		Name:      stem,
		Extension: ext,
		FileName:  stem + "." + ext,
		Path:      filepath.Join(dir, entryName),
	}, true
}

// Build enumerates the direct children of dir into a Catalog sorted by FileName.
func Build(fs afero.Fs, dir string, opts Options) (Catalog, error) {
	infos, err := afero.ReadDir(fs, dir)
	if err != nil {
		return nil, fmt.Errorf("%w %s: %w", ErrReadDir, dir, err)
	}

	catalog := make([]Asset, 0, len(infos))
	seen := make(map[string]string, len(infos))

	for _, info := range infos {
		if info.IsDir() {
			continue
		}

		excluded, err := isExcluded(info.Name(), opts.Exclude)
		if err != nil {
			return nil, err
		}
		if excluded {
			continue
		}

		a, ok := Parse(dir, info.Name())
		if !ok {
			continue
		}

		if prev, dup := seen[a.FileName]; dup {
			return nil, fmt.Errorf("%w: %s and %s both map to %s", ErrDuplicateAsset, prev, info.Name(), a.FileName)
		}
		seen[a.FileName] = info.Name()

		catalog = append(catalog, a)
	}

	return NewCatalog(catalog...), nil
}

func isExcluded(name string, patterns []string) (bool, error) {
	for _, pattern := range patterns {
		ok, err := doublestar.Match(pattern, name)
		if err != nil {
			return false, fmt.Errorf("invalid exclude pattern %q: %w", pattern, err)
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}
