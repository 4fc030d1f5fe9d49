// Package raster is a software Surface: it fills textured triangles into a
// premultiplied float framebuffer with Spine's blend modes and two-color
// tint.
package raster

import (
	"image"

	"github.com/go-gl/mathgl/mgl32"

	"spine-renderer/internal/render"
	"spine-renderer/internal/skel"
)

// DefaultGlowRadius is the blur sigma in pixels applied to glowing
// additive batches.
const DefaultGlowRadius = 15

// Canvas implements render.Surface.
type Canvas struct {
	fb    *FrameBuffer
	view  mgl32.Mat3
	clip  image.Rectangle
	verts []Vertex

	glowRadius float32
	glowKernel []float32
	layer      *FrameBuffer
	scratch    []float32
}

// NewCanvas allocates a transparent w×h canvas with an identity view.
func NewCanvas(w, h int) *Canvas {
	fb := NewFrameBuffer(w, h)
	return &Canvas{
		fb:         fb,
		view:       mgl32.Ident3(),
		clip:       fb.Bounds(),
		glowRadius: DefaultGlowRadius,
	}
}

// FrameBuffer returns the render target.
func (c *Canvas) FrameBuffer() *FrameBuffer { return c.fb }

// SetTransform sets the world-to-pixel affine transform.
func (c *Canvas) SetTransform(m mgl32.Mat3) { c.view = m }

// Transform returns the world-to-pixel transform.
func (c *Canvas) Transform() mgl32.Mat3 { return c.view }

// SetClipRect limits drawing to r.
func (c *Canvas) SetClipRect(r image.Rectangle) { c.clip = r.Intersect(c.fb.Bounds()) }

// SetGlowRadius sets the blur sigma for glowing batches. Zero disables the
// blur and draws them as plain additive batches.
func (c *Canvas) SetGlowRadius(sigma float32) {
	if sigma != c.glowRadius {
		c.glowRadius = sigma
		c.glowKernel = nil
	}
}

// Clear fills the canvas with a straight-alpha color.
func (c *Canvas) Clear(color skel.Color) { c.fb.Clear(color) }

// DrawTriangles rasterizes one draw call.
func (c *Canvas) DrawTriangles(call *render.DrawCall) {
	if call.Texture == nil || len(call.Indices) < 3 {
		return
	}
	paint := Paint{Texture: call.Texture, Light: call.Light, Dark: call.Dark, Blend: call.Blend}
	if !call.Texture.Premultiplied {
		paint.Light = premultiplyLight(call.Light)
	}

	c.verts = c.verts[:0]
	m := &c.view
	for i := 0; i+1 < len(call.Positions); i += 2 {
		x, y := call.Positions[i], call.Positions[i+1]
		c.verts = append(c.verts, Vertex{
			X: m[0]*x + m[3]*y + m[6],
			Y: m[1]*x + m[4]*y + m[7],
			U: call.UVs[i],
			V: call.UVs[i+1],
		})
	}

	if call.Glow && c.glowRadius > 0 {
		c.drawGlow(call.Indices, &paint)
		return
	}
	c.fill(c.fb, call.Indices, &paint)
}

func (c *Canvas) fill(fb *FrameBuffer, indices []uint16, paint *Paint) image.Rectangle {
	var dirty image.Rectangle
	for t := 0; t+2 < len(indices); t += 3 {
		i0, i1, i2 := int(indices[t]), int(indices[t+1]), int(indices[t+2])
		if i0 >= len(c.verts) || i1 >= len(c.verts) || i2 >= len(c.verts) {
			continue
		}
		box := RasterizeTriangle(fb, c.clip, c.verts[i0], c.verts[i1], c.verts[i2], paint)
		dirty = dirty.Union(box)
	}
	return dirty
}

// drawGlow renders the batch into an offscreen layer, blurs it and adds the
// result to the canvas.
func (c *Canvas) drawGlow(indices []uint16, paint *Paint) {
	if c.layer == nil {
		c.layer = NewFrameBuffer(c.fb.Width, c.fb.Height)
	}
	if c.glowKernel == nil {
		c.glowKernel = gaussianKernel(c.glowRadius)
	}
	layerPaint := *paint
	layerPaint.Blend = skel.BlendNormal
	dirty := c.fill(c.layer, indices, &layerPaint)
	if dirty.Empty() {
		return
	}
	half := len(c.glowKernel) / 2
	dirty = dirty.Inset(-half).Intersect(c.clip)
	c.scratch = blur(c.layer, dirty, c.glowKernel, c.scratch)

	for y := dirty.Min.Y; y < dirty.Max.Y; y++ {
		for x := dirty.Min.X; x < dirty.Max.X; x++ {
			i := (y*c.fb.Width + x) * 4
			src := c.layer.Color[i : i+4 : i+4]
			blendPixel(c.fb.Color[i:i+4], src[0], src[1], src[2], src[3], skel.BlendAdditive)
			clear(src)
		}
	}
}

// FitTransform maps the world rectangle [minX,maxX]×[minY,maxY] into the
// center of a w×h canvas with margin pixels on every side, preserving the
// aspect ratio.
func FitTransform(minX, minY, maxX, maxY float32, w, h int, margin float32) mgl32.Mat3 {
	spanX, spanY := maxX-minX, maxY-minY
	if spanX < 1e-3 {
		spanX = 1e-3
	}
	if spanY < 1e-3 {
		spanY = 1e-3
	}
	scale := min((float32(w)-2*margin)/spanX, (float32(h)-2*margin)/spanY)
	if scale <= 0 {
		scale = 1
	}
	cx, cy := (minX+maxX)/2, (minY+maxY)/2
	return mgl32.Translate2D(float32(w)/2, float32(h)/2).
		Mul3(mgl32.Scale2D(scale, scale)).
		Mul3(mgl32.Translate2D(-cx, -cy))
}
