package raster

import (
	"image"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spine-renderer/internal/render"
	"spine-renderer/internal/skel"
	"spine-renderer/internal/texture"
)

func solidTexture(r, g, b, a uint8) *texture.Texture {
	return &texture.Texture{Width: 1, Height: 1, Pix: []uint8{r, g, b, a}}
}

func quadCall(tex *texture.Texture, light skel.Color, blend skel.BlendMode, x0, y0, x1, y1 float32) *render.DrawCall {
	return &render.DrawCall{
		Positions: []float32{x0, y0, x0, y1, x1, y1, x1, y0},
		UVs:       make([]float32, 8),
		Indices:   []uint16{0, 1, 2, 2, 3, 0},
		Texture:   tex,
		Light:     light,
		Blend:     blend,
	}
}

func TestClearAndConvert(t *testing.T) {
	fb := NewFrameBuffer(2, 1)
	fb.Clear(skel.Color{R: 1, G: 0.5, B: 0, A: 0.5})
	r, g, b, a := fb.At(1, 0)
	assert.Equal(t, []float32{0.5, 0.25, 0, 0.5}, []float32{r, g, b, a})

	n := fb.NRGBA()
	assert.Equal(t, []uint8{255, 128, 0, 128}, n.Pix[:4])
	p := fb.RGBA()
	assert.Equal(t, []uint8{128, 64, 0, 128}, p.Pix[:4])
}

func TestSampleTexture(t *testing.T) {
	tex := &texture.Texture{Width: 2, Height: 1, Pix: []uint8{255, 0, 0, 255, 0, 0, 255, 255}}
	r, _, b, a := SampleTexture(tex, 0.5, 0.5)
	assert.InDelta(t, 1, r, 1e-6)
	assert.InDelta(t, 0, b, 1e-6)
	assert.InDelta(t, 1, a, 1e-6)

	r, _, b, _ = SampleTexture(tex, 1, 0.5)
	assert.InDelta(t, 0.5, r, 1e-6)
	assert.InDelta(t, 0.5, b, 1e-6)

	// Clamp to edge.
	_, _, b, _ = SampleTexture(tex, 10, -3)
	assert.InDelta(t, 1, b, 1e-6)

	// Straight alpha texels come back premultiplied.
	r, _, _, a = SampleTexture(solidTexture(255, 255, 255, 51), 0.5, 0.5)
	assert.InDelta(t, 0.2, r, 1e-6)
	assert.InDelta(t, 0.2, a, 1e-6)
}

func TestShade(t *testing.T) {
	light := skel.Color{R: 0.5, G: 1, B: 0, A: 1}
	r, g, b, a := Shade(1, 1, 1, 1, light, skel.Color{})
	assert.Equal(t, []float32{0.5, 1, 0, 1}, []float32{r, g, b, a})

	// Dark color fills black texels.
	r, g, b, a = Shade(0, 0, 0, 1, light, skel.Color{R: 0.25, G: 0.5, B: 1, A: 1})
	assert.Equal(t, []float32{0.25, 0.5, 1, 1}, []float32{r, g, b, a})
}

func TestShadeDarkAlpha(t *testing.T) {
	light := skel.Color{R: 1, G: 1, B: 1, A: 1}
	dark := skel.Color{R: 0.5, G: 0.5, B: 0.5}

	// Straight-alpha pages carry dark.a = 0: ((a-1)*0 + 1 - rgb) * dark.
	r, g, b, a := Shade(0.2, 0, 0, 0.5, light, dark)
	assert.InDeltaSlice(t, []float32{0.8*0.5 + 0.2, 0.5, 0.5, 0.5}, []float32{r, g, b, a}, 1e-6)

	// Premultiplied pages carry dark.a = 1: (a - rgb) * dark.
	dark.A = 1
	r, g, b, a = Shade(0.2, 0, 0, 0.5, light, dark)
	assert.InDeltaSlice(t, []float32{0.3*0.5 + 0.2, 0.25, 0.25, 0.5}, []float32{r, g, b, a}, 1e-6)
}

func TestBlendModes(t *testing.T) {
	tests := []struct {
		mode skel.BlendMode
		want []float32
	}{
		{skel.BlendNormal, []float32{0.25 + 0.4*0.5, 0.5*0.5, 0.5, 0.5 + 0.8*0.5}},
		{skel.BlendAdditive, []float32{0.65, 0.25, 0.5, 1}},
		{skel.BlendMultiply, []float32{0.25*0.4 + 0.25*0.2 + 0.4*0.5, 0 + 0.25*0.2 + 0, 0 + 0.5*0.2 + 0, 0.5 + 0.8 - 0.4}},
		{skel.BlendScreen, []float32{0.25 + 0.4 - 0.1, 0.25, 0.5, 0.5 + 0.8 - 0.4}},
	}
	for _, tt := range tests {
		t.Run(tt.mode.String(), func(t *testing.T) {
			dst := []float32{0.4, 0, 0, 0.8}
			blendPixel(dst, 0.25, 0.25, 0.5, 0.5, tt.mode)
			assert.InDeltaSlice(t, tt.want, dst, 1e-6)
		})
	}
}

func TestSharedEdgeCoveredOnce(t *testing.T) {
	c := NewCanvas(4, 4)
	light := skel.Color{R: 1, G: 0, B: 0, A: 0.5}
	c.DrawTriangles(quadCall(solidTexture(255, 255, 255, 255), light, skel.BlendNormal, 0, 0, 4, 4))

	fb := c.FrameBuffer()
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			r, g, _, a := fb.At(x, y)
			assert.InDelta(t, 0.5, r, 1e-6, "pixel %d,%d", x, y)
			assert.InDelta(t, 0, g, 1e-6)
			assert.InDelta(t, 0.5, a, 1e-6, "pixel %d,%d", x, y)
		}
	}
}

func TestNormalOverOpaque(t *testing.T) {
	c := NewCanvas(2, 2)
	c.Clear(skel.Color{B: 1, A: 1})
	c.DrawTriangles(quadCall(solidTexture(255, 0, 0, 255), skel.Color{R: 1, G: 1, B: 1, A: 0.5}, skel.BlendNormal, 0, 0, 2, 2))
	r, _, b, a := c.FrameBuffer().At(1, 1)
	assert.InDelta(t, 0.5, r, 1e-6)
	assert.InDelta(t, 0.5, b, 1e-6)
	assert.InDelta(t, 1, a, 1e-6)
}

func TestTransformAndClipRect(t *testing.T) {
	c := NewCanvas(10, 10)
	c.SetTransform(FitTransform(-1, -1, 1, 1, 10, 10, 0))
	c.SetClipRect(image.Rect(0, 0, 5, 10))
	c.DrawTriangles(quadCall(solidTexture(255, 255, 255, 255), skel.White, skel.BlendNormal, -1, -1, 1, 1))

	fb := c.FrameBuffer()
	_, _, _, a := fb.At(4, 9)
	assert.Equal(t, float32(1), a)
	_, _, _, a = fb.At(5, 0)
	assert.Equal(t, float32(0), a)
}

func TestFitTransform(t *testing.T) {
	m := FitTransform(10, 20, 30, 60, 100, 100, 10)
	lo := m.Mul3x1(mgl32.Vec3{10, 20, 1})
	hi := m.Mul3x1(mgl32.Vec3{30, 60, 1})
	assert.InDelta(t, 30, lo[0], 1e-4)
	assert.InDelta(t, 10, lo[1], 1e-4)
	assert.InDelta(t, 70, hi[0], 1e-4)
	assert.InDelta(t, 90, hi[1], 1e-4)
}

func TestGlowSpreadsAdditive(t *testing.T) {
	c := NewCanvas(20, 20)
	c.SetGlowRadius(2)
	call := quadCall(solidTexture(255, 255, 255, 255), skel.White, skel.BlendAdditive, 8, 8, 12, 12)
	call.Glow = true
	c.DrawTriangles(call)

	fb := c.FrameBuffer()
	r, _, _, _ := fb.At(10, 10)
	assert.Greater(t, r, float32(0.3))
	r, _, _, _ = fb.At(6, 10)
	assert.Greater(t, r, float32(0))
	r, _, _, _ = fb.At(0, 0)
	assert.Equal(t, float32(0), r)

	require.NotNil(t, c.layer)
	for _, v := range c.layer.Color {
		require.Equal(t, float32(0), v)
	}
}

func TestGaussianKernelNormalized(t *testing.T) {
	k := gaussianKernel(1.5)
	assert.Len(t, k, 11)
	var sum float32
	for _, v := range k {
		sum += v
	}
	assert.InDelta(t, 1, sum, 1e-5)
	assert.Equal(t, []float32{1}, gaussianKernel(0))
}
