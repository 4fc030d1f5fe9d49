package texture

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/ftrvxmtrx/tga"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spine-renderer/internal/spineerr"
)

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestDecodeStraightAlpha(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	img.SetNRGBA(0, 0, color.NRGBA{R: 200, G: 100, B: 50, A: 128})
	img.SetNRGBA(1, 0, color.NRGBA{R: 10, A: 255})

	tex, err := DecodeTexture(encodePNG(t, img), "a.png", false)
	require.NoError(t, err)
	assert.Equal(t, 2, tex.Width)
	assert.Equal(t, 8, tex.Stride())
	assert.False(t, tex.Premultiplied)
	assert.Equal(t, []uint8{200, 100, 50, 128, 10, 0, 0, 255}, tex.Pix)
}

func TestDecodePremultipliedKeepsChannels(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 1, 1))
	img.SetNRGBA(0, 0, color.NRGBA{R: 64, G: 32, B: 16, A: 128})

	tex, err := DecodeTexture(encodePNG(t, img), "a.png", true)
	require.NoError(t, err)
	assert.True(t, tex.Premultiplied)
	assert.Equal(t, []uint8{64, 32, 16, 128}, tex.Pix)
}

func TestDecodeOpaqueGray(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 1, 1))
	img.SetGray(0, 0, color.Gray{Y: 90})

	tex, err := DecodeTexture(encodePNG(t, img), "g.png", false)
	require.NoError(t, err)
	assert.Equal(t, []uint8{90, 90, 90, 255}, tex.Pix)
}

func TestDecodeTGA(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	img.SetNRGBA(0, 0, color.NRGBA{R: 10, G: 20, B: 30, A: 255})
	img.SetNRGBA(1, 0, color.NRGBA{R: 40, G: 50, B: 60, A: 255})
	var buf bytes.Buffer
	require.NoError(t, tga.Encode(&buf, img))

	tex, err := DecodeTexture(buf.Bytes(), "page.TGA", false)
	require.NoError(t, err)
	assert.Equal(t, 2, tex.Width)
	assert.Equal(t, []uint8{10, 20, 30, 255, 40, 50, 60, 255}, tex.Pix)
}

func TestDecodeBySignature(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	img.SetNRGBA(3, 3, color.NRGBA{R: 1, G: 2, B: 3, A: 4})

	// PNG content behind a misleading extension.
	tex, err := DecodeTexture(encodePNG(t, img), "page.dat", false)
	require.NoError(t, err)
	assert.Equal(t, 4, tex.Height)
	assert.Equal(t, []uint8{1, 2, 3, 4}, tex.Pix[len(tex.Pix)-4:])
}

func TestDecodeErrors(t *testing.T) {
	_, err := DecodeTexture([]byte("not an image"), "x.png", false)
	assert.True(t, errors.Is(err, spineerr.ErrMissingTexture))

	_, err = LoadTexture(filepath.Join(t.TempDir(), "none.png"), false)
	assert.True(t, errors.Is(err, spineerr.ErrMissingTexture))
}

func TestFromNRGBA(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	img.SetNRGBA(1, 1, color.NRGBA{R: 7, A: 9})

	tex := FromNRGBA(img)
	assert.Equal(t, 4, tex.Height)
	assert.Equal(t, uint8(7), tex.Pix[(1*4+1)*4])

	sub := FromNRGBA(img.SubImage(image.Rect(1, 1, 3, 3)).(*image.NRGBA))
	assert.Equal(t, 2, sub.Width)
	assert.Equal(t, []uint8{7, 0, 0, 9}, sub.Pix[:4])
}

func TestIndexAndCache(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "pages"), 0755))
	path := filepath.Join(dir, "pages", "Body.png")
	require.NoError(t, os.WriteFile(path, encodePNG(t, image.NewNRGBA(image.Rect(0, 0, 2, 2))), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644))

	idx := BuildIndex(dir)
	assert.Equal(t, 1, idx.Len())

	got, ok := idx.ResolvePath("body.PNG")
	require.True(t, ok)
	assert.Equal(t, path, got)
	got, ok = idx.ResolvePath(`art\body.tga`)
	require.True(t, ok)
	assert.Equal(t, path, got)
	_, ok = idx.ResolvePath("legs.png")
	assert.False(t, ok)

	c := NewCache(idx)
	a, err := c.Resolve("body.png", false)
	require.NoError(t, err)
	b, err := c.Resolve(path, false)
	require.NoError(t, err)
	assert.Same(t, a, b)

	pma, err := c.Resolve(path, true)
	require.NoError(t, err)
	assert.NotSame(t, a, pma)

	_, err = c.Resolve("legs.png", false)
	assert.True(t, errors.Is(err, spineerr.ErrMissingTexture))
}
