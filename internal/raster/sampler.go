package raster

import (
	"math"

	"spine-renderer/internal/texture"
)

const inv255 = 1.0 / 255

// SampleTexture performs bilinear filtering at texel coordinates (u, v)
// with clamp-to-edge addressing. The result is premultiplied RGBA in
// [0, 1] whether or not the texture stores premultiplied pixels.
func SampleTexture(tex *texture.Texture, u, v float32) (r, g, b, a float32) {
	w, h := tex.Width, tex.Height
	if w == 0 || h == 0 {
		return 0, 0, 0, 0
	}

	fx := float64(u) - 0.5
	fy := float64(v) - 0.5
	x0f, y0f := math.Floor(fx), math.Floor(fy)
	dx, dy := float32(fx-x0f), float32(fy-y0f)
	x0, y0 := clampInt(int(x0f), w), clampInt(int(y0f), h)
	x1, y1 := clampInt(int(x0f)+1, w), clampInt(int(y0f)+1, h)

	stride := tex.Stride()
	w00 := (1 - dx) * (1 - dy)
	w10 := dx * (1 - dy)
	w01 := (1 - dx) * dy
	w11 := dx * dy

	for _, t := range [4]struct {
		off    int
		weight float32
	}{
		{y0*stride + x0*4, w00},
		{y0*stride + x1*4, w10},
		{y1*stride + x0*4, w01},
		{y1*stride + x1*4, w11},
	} {
		if t.weight == 0 {
			continue
		}
		tr, tg, tb, ta := texel(tex, t.off)
		r += tr * t.weight
		g += tg * t.weight
		b += tb * t.weight
		a += ta * t.weight
	}
	return r, g, b, a
}

func texel(tex *texture.Texture, off int) (r, g, b, a float32) {
	pix := tex.Pix[off : off+4 : off+4]
	a = float32(pix[3]) * inv255
	r = float32(pix[0]) * inv255
	g = float32(pix[1]) * inv255
	b = float32(pix[2]) * inv255
	if !tex.Premultiplied {
		r *= a
		g *= a
		b *= a
	}
	return r, g, b, a
}

func clampInt(v, n int) int {
	if v < 0 {
		return 0
	}
	if v >= n {
		return n - 1
	}
	return v
}
