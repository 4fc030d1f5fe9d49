package postprocess

import (
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func filled(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	return img
}

func TestUnpremultiply(t *testing.T) {
	img := filled(1, 1, color.RGBA{R: 64, G: 0, B: 128, A: 128})
	out := Unpremultiply(img)
	assert.Equal(t, []uint8{128, 0, 255, 128}, out.Pix)

	empty := filled(1, 1, color.RGBA{})
	assert.Equal(t, []uint8{0, 0, 0, 0}, Unpremultiply(empty).Pix)
}

func TestDownsampleKeepsFlatColor(t *testing.T) {
	img := filled(8, 8, color.RGBA{R: 100, G: 50, B: 25, A: 200})
	out := Downsample(img, 4, 4)
	require.Equal(t, image.Rect(0, 0, 4, 4), out.Bounds())
	c := out.NRGBAAt(2, 2)
	assert.InDelta(t, 128, int(c.R), 1)
	assert.InDelta(t, 64, int(c.G), 1)
	assert.InDelta(t, 32, int(c.B), 1)
	assert.InDelta(t, 200, int(c.A), 1)
}

func TestDownsampleSameSize(t *testing.T) {
	img := filled(2, 2, color.RGBA{R: 255, A: 255})
	out := Downsample(img, 2, 2)
	assert.Equal(t, color.NRGBA{R: 255, A: 255}, out.NRGBAAt(1, 1))
}

func TestSpriteSheet(t *testing.T) {
	var frames []*image.NRGBA
	for i := 0; i < 3; i++ {
		f := image.NewNRGBA(image.Rect(0, 0, 2, 2))
		f.SetNRGBA(0, 0, color.NRGBA{R: uint8(i + 1), A: 255})
		frames = append(frames, f)
	}
	sheet := SpriteSheet(frames, 2)
	require.Equal(t, image.Rect(0, 0, 4, 4), sheet.Bounds())
	assert.Equal(t, uint8(1), sheet.NRGBAAt(0, 0).R)
	assert.Equal(t, uint8(2), sheet.NRGBAAt(2, 0).R)
	assert.Equal(t, uint8(3), sheet.NRGBAAt(0, 2).R)
	assert.Equal(t, uint8(0), sheet.NRGBAAt(2, 2).A)

	assert.True(t, SpriteSheet(nil, 4).Bounds().Empty())
}

func TestWriteWebP(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a", "b", "frame.webp")
	img := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	img.SetNRGBA(1, 1, color.NRGBA{R: 255, G: 128, A: 255})
	require.NoError(t, WriteWebP(path, img))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Greater(t, len(data), 12)
	assert.Equal(t, "RIFF", string(data[:4]))
	assert.Equal(t, "WEBP", string(data[8:12]))
}
