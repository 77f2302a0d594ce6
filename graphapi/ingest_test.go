package graphapi

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var tinyGIF = []byte("GIF89a\x01\x00\x01\x00\x00\x00\x00;")

func TestImageFromBytes(t *testing.T) {
	ref, err := ImageFromBytes("image/webp", []byte("whatever"))
	require.NoError(t, err)
	assert.Equal(t, "data:image/webp;base64,d2hhdGV2ZXI=", ref)

	ref, err = ImageFromBytes("application/octet-stream", tinyGIF)
	require.NoError(t, err)
	assert.Contains(t, ref, "data:image/gif;base64,")

	_, err = ImageFromBytes("", []byte("plain text"))
	assert.ErrorIs(t, err, ErrNotAnImage)
}

func TestImageFromFile(t *testing.T) {
	dir := t.TempDir()
	gif := filepath.Join(dir, "dot.gif")
	require.NoError(t, os.WriteFile(gif, tinyGIF, 0644))
	ref, err := ImageFromFile(gif)
	require.NoError(t, err)

	mt, data, err := DecodeDataURL(ref)
	require.NoError(t, err)
	assert.Equal(t, "image/gif", mt)
	assert.Equal(t, tinyGIF, data)
	assert.Equal(t, ".gif", ExtensionForMediaType(mt))

	txt := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(txt, []byte("hello"), 0644))
	_, err = ImageFromFile(txt)
	assert.ErrorIs(t, err, ErrNotAnImage)
}

func TestNormalizeImageRef(t *testing.T) {
	ref, err := NormalizeImageRef("  https://example.com/a.png ")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/a.png", ref)

	_, err = NormalizeImageRef("ftp://example.com/a.png")
	assert.ErrorIs(t, err, ErrInvalidImageURL)

	_, err = NormalizeImageRef("data:text/plain;base64,aGk=")
	assert.ErrorIs(t, err, ErrNotAnImage)

	_, err = NormalizeImageRef("data:image/png,notbase64")
	assert.Error(t, err)
}

func TestExtensionFallback(t *testing.T) {
	assert.Equal(t, ".jpg", ExtensionForMediaType("image/jpeg"))
	assert.Equal(t, ".png", ExtensionForMediaType("image/x-unknown"))
}
