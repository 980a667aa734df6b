package testutil

import (
	"image/gif"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteImage(t *testing.T) {
	fs := afero.NewMemMapFs()

	for _, path := range []string{"/a/one.png", "/a/two.jpg", "/a/three.gif"} {
		WriteImage(t, fs, path, 30, 20)
		w, h := ImageSize(t, fs, path)
		assert.Equal(t, 30, w, path)
		assert.Equal(t, 20, h, path)
	}
}

func TestEncodeImage_GIFIsAnimated(t *testing.T) {
	fs := afero.NewMemMapFs()
	WriteImage(t, fs, "/anim.gif", 8, 8)

	f, err := fs.Open("/anim.gif")
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	anim, err := gif.DecodeAll(f)
	require.NoError(t, err)
	assert.Len(t, anim.Image, 2)
}

func TestSetMtime(t *testing.T) {
	fs := afero.NewMemMapFs()
	WriteFile(t, fs, "/x/file.txt", "x")

	when := time.Date(2020, 1, 2, 3, 4, 5, 0, time.UTC)
	SetMtime(t, fs, "/x/file.txt", when)

	info, err := fs.Stat("/x/file.txt")
	require.NoError(t, err)
	assert.True(t, info.ModTime().Equal(when))
	assert.True(t, Exists(t, fs, "/x/file.txt"))
	assert.False(t, Exists(t, fs, "/x/missing.txt"))
}
