package raster

import (
	"image"

	"spine-renderer/internal/skel"
)

// FrameBuffer holds premultiplied RGBA in [0, 1] as flat slices for cache
// locality.
type FrameBuffer struct {
	Width  int
	Height int
	Color  []float32 // RGBA interleaved, len = W*H*4
}

// NewFrameBuffer allocates a transparent buffer.
func NewFrameBuffer(w, h int) *FrameBuffer {
	return &FrameBuffer{
		Width:  w,
		Height: h,
		Color:  make([]float32, w*h*4),
	}
}

// Bounds returns the pixel rectangle of the buffer.
func (fb *FrameBuffer) Bounds() image.Rectangle {
	return image.Rect(0, 0, fb.Width, fb.Height)
}

// Clear fills the buffer with a straight-alpha color.
func (fb *FrameBuffer) Clear(c skel.Color) {
	r, g, b, a := c.R*c.A, c.G*c.A, c.B*c.A, c.A
	for i := 0; i < len(fb.Color); i += 4 {
		fb.Color[i] = r
		fb.Color[i+1] = g
		fb.Color[i+2] = b
		fb.Color[i+3] = a
	}
}

// At returns the premultiplied color of a pixel.
func (fb *FrameBuffer) At(x, y int) (r, g, b, a float32) {
	i := (y*fb.Width + x) * 4
	return fb.Color[i], fb.Color[i+1], fb.Color[i+2], fb.Color[i+3]
}

// RGBA converts the buffer to an 8-bit premultiplied image.
func (fb *FrameBuffer) RGBA() *image.RGBA {
	img := image.NewRGBA(fb.Bounds())
	for i, v := range fb.Color {
		img.Pix[i] = to8(v)
	}
	return img
}

// NRGBA converts the buffer to an 8-bit straight-alpha image.
func (fb *FrameBuffer) NRGBA() *image.NRGBA {
	img := image.NewNRGBA(fb.Bounds())
	for i := 0; i < len(fb.Color); i += 4 {
		a := fb.Color[i+3]
		img.Pix[i+3] = to8(a)
		if a <= 0 {
			continue
		}
		img.Pix[i] = to8(fb.Color[i] / a)
		img.Pix[i+1] = to8(fb.Color[i+1] / a)
		img.Pix[i+2] = to8(fb.Color[i+2] / a)
	}
	return img
}

func to8(v float32) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return uint8(v*255 + 0.5)
}
