package asset

import (
	"errors"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schaermu/mojiman/internal/testutil"
)

func TestBuild(t *testing.T) {
	fs := afero.NewMemMapFs()

	for _, name := range []string{
		"pog.png",
		"kek.GIF",
		"wave.jpg",
		"notes.txt",
		"README",
		".hidden.png",
		".mojiman-tmp-123.gif",
		"photo.jpeg",
		"nested/inner.png",
	} {
		testutil.WriteFile(t, fs, "/src/"+name, "x")
	}
	require.NoError(t, fs.MkdirAll("/src/folder.png", 0755))

	got, err := Build(fs, "/src", Options{})
	require.NoError(t, err)

	assert.Equal(t, []string{".hidden.png", "kek.gif", "pog.png", "wave.jpg"}, got.FileNames())

	kek, ok := got.Lookup("kek.gif")
	require.True(t, ok)
	assert.Equal(t, Asset{
		Name:      "kek",
		Extension: "gif",
		FileName:  "kek.gif",
		Path:      "/src/kek.GIF",
	}, kek)
	assert.Equal(t, ".gif", kek.Type())
}

func TestBuild_Exclude(t *testing.T) {
	fs := afero.NewMemMapFs()
	for _, name := range []string{"a.png", "draft-b.png", "c.wip.gif"} {
		testutil.WriteFile(t, fs, "/src/"+name, "x")
	}

	got, err := Build(fs, "/src", Options{Exclude: []string{"draft-*", "*.wip.*"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"a.png"}, got.FileNames())
}

func TestBuild_DuplicateFileName(t *testing.T) {
	fs := afero.NewMemMapFs()
	testutil.WriteFile(t, fs, "/src/a.png", "x")
	testutil.WriteFile(t, fs, "/src/a.PNG", "x")

	_, err := Build(fs, "/src", Options{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDuplicateAsset))
}

func TestBuild_MissingDir(t *testing.T) {
	_, err := Build(afero.NewMemMapFs(), "/nope", Options{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrReadDir))
}

func TestBuild_Empty(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("/src", 0755))

	got, err := Build(fs, "/src", Options{})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestBuild_Deterministic(t *testing.T) {
	fs := afero.NewMemMapFs()
	for _, name := range []string{"z.png", "m.gif", "a.jpg", "b.png"} {
		testutil.WriteFile(t, fs, "/src/"+name, "x")
	}

	first, err := Build(fs, "/src", Options{})
	require.NoError(t, err)
	second, err := Build(fs, "/src", Options{})
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, []string{"a.jpg", "b.png", "m.gif", "z.png"}, first.FileNames())
}

func TestParse(t *testing.T) {
	tests := []struct {
		entry string
		want  string
		ok    bool
	}{
		{entry: "smile.png", want: "smile.png", ok: true},
		{entry: "Smile.JPG", want: "Smile.jpg", ok: true},
		{entry: "a.b.gif", want: "a.b.gif", ok: true},
		{entry: "noext", ok: false},
		{entry: "trailing.", ok: false},
		{entry: ".png", ok: false},
		{entry: ".dot.png", want: ".dot.png", ok: true},
		{entry: ".mojiman-tmp-42.png", ok: false},
		{entry: ".mojiman-tmp-42", ok: false},
		{entry: "image.webp", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.entry, func(t *testing.T) {
			a, ok := Parse("/dir", tt.entry)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, a.FileName)
			}
		})
	}
}

func TestLookup_Missing(t *testing.T) {
	c := Catalog{{FileName: "a.png"}, {FileName: "c.png"}}

	_, ok := c.Lookup("b.png")
	assert.False(t, ok)
	_, ok = c.Lookup("a.png")
	assert.True(t, ok)
}

func TestParse_Dotfile(t *testing.T) {
	a, ok := Parse("/dir", ".foo.png")
	require.True(t, ok)
	assert.Equal(t, Asset{
		Name:      ".foo",
		Extension: "png",
		FileName:  ".foo.png",
		Path:      "/dir/.foo.png",
	}, a)
}

func TestNewCatalog_SortsForLookup(t *testing.T) {
	c := NewCatalog(
		Asset{FileName: "z.png"},
		Asset{FileName: "a.png"},
		Asset{FileName: "m.gif"},
	)

	assert.Equal(t, []string{"a.png", "m.gif", "z.png"}, c.FileNames())
	for _, name := range []string{"a.png", "m.gif", "z.png"} {
		_, ok := c.Lookup(name)
		assert.True(t, ok, name)
	}
	_, ok := c.Lookup("b.png")
	assert.False(t, ok)
}

func TestIsValidExtension(t *testing.T) {
	assert.True(t, IsValidExtension(".PNG"))
	assert.True(t, IsValidExtension("gif"))
	assert.False(t, IsValidExtension(".bmp"))
	assert.False(t, IsValidExtension(""))
}
