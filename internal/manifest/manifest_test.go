package manifest

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schaermu/mojiman/internal/asset"
)

func catalog() asset.Catalog {
	return asset.Catalog{
		{Name: "a", Extension: "png", FileName: "a.png", Path: "/src/a.png"},
		{Name: "b", Extension: "gif", FileName: "b.gif", Path: "/src/b.GIF"},
	}
}

func TestBuild(t *testing.T) {
	m := Build("My Emotes", catalog())

	assert.Equal(t, Manifest{
		Name: "My Emotes",
		Path: "emotes",
		Emotes: []Emote{
			{Name: "a", Type: ".png"},
			{Name: "b", Type: ".gif"},
		},
	}, m)
}

func TestBuild_EmptyCatalogHasEmptyList(t *testing.T) {
	data, err := Marshal(Build("empty", nil))
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"empty","path":"emotes","emotes":[]}`, string(data))
}

func TestMarshal_WireFormat(t *testing.T) {
	data, err := Marshal(Build("repo", catalog()))
	require.NoError(t, err)

	want := `{
  "name": "repo",
  "path": "emotes",
  "emotes": [
    {
      "name": "a",
      "type": ".png"
    },
    {
      "name": "b",
      "type": ".gif"
    }
  ]
}
`
	assert.Equal(t, want, string(data))
}

func TestWrite(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("/public", 0755))
	require.NoError(t, afero.WriteFile(fs, "/public/index.json", []byte("stale"), 0644))

	m := Build("repo", catalog())
	require.NoError(t, Write(fs, "/public/index.json", m))

	got, err := Read(fs, "/public/index.json")
	require.NoError(t, err)
	assert.Equal(t, m, got)

	infos, err := afero.ReadDir(fs, "/public")
	require.NoError(t, err)
	assert.Len(t, infos, 1, "temp file left behind")
}

func TestWrite_ReadOnly(t *testing.T) {
	base := afero.NewMemMapFs()
	require.NoError(t, base.MkdirAll("/public", 0755))

	err := Write(afero.NewReadOnlyFs(base), "/public/index.json", Build("repo", nil))
	assert.Error(t, err)
}
