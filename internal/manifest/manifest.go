package manifest

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/afero"

	"github.com/schaermu/mojiman/internal/asset"
	"github.com/schaermu/mojiman/internal/fsutil"
)

// Path is the fixed "path" field: derivatives live in <output>/emotes.
const Path = "emotes"

// Manifest is the index.json document consumed by emote clients
type Manifest struct {
	Name   string  `json:"name"`
	Path   string  `json:"path"`
	Emotes []Emote `json:"emotes"`
}

// Emote is one manifest entry
type Emote struct {
	Name string `json:"name"`
	Type string `json:"type"` // "." + extension
}

// Build derives the manifest from the source catalog, in catalog order.
func Build(repoName string, catalog asset.Catalog) Manifest {
	emotes := make([]Emote, 0, len(catalog))
	for _, a := range catalog {
		emotes = append(emotes, Emote{
			Name: a.Name,
			Type: a.Type(),
		})
	}

	return Manifest{
		Name:   repoName,
		Path:   Path,
		Emotes: emotes,
	}
}

// Marshal encodes m in the on-disk format.
func Marshal(m Manifest) ([]byte, error) {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// Write stores m at path, replacing any previous manifest atomically.
func Write(fs afero.Fs, path string, m Manifest) error {
	data, err := Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to encode manifest: %w", err)
	}

	err = fsutil.WriteAtomic(fs, path, 0644, func(w io.Writer) error {
		_, err := w.Write(data)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to write manifest %s: %w", path, err)
	}
	return nil
}

// Read loads a manifest previously written by Write.
func Read(fs afero.Fs, path string) (Manifest, error) {
	var m Manifest
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return m, err
	}
	if err := json.Unmarshal(data, &m); err != nil {
		return m, fmt.Errorf("failed to parse manifest %s: %w", path, err)
	}
	return m, nil
}
