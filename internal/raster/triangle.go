package raster

import (
	"image"
	"math"

	"spine-renderer/internal/skel"
	"spine-renderer/internal/texture"
)

// Vertex is a screen-space position with texel coordinates.
type Vertex struct {
	X, Y float32
	U, V float32
}

// Paint carries the per-batch shading state of a triangle.
type Paint struct {
	Texture *texture.Texture
	// Light is premultiplied.
	Light skel.Color
	Dark  skel.Color
	Blend skel.BlendMode
}

// RasterizeTriangle fills the pixels whose centers fall inside the
// triangle, limited to clip. Shared edges are owned by exactly one of the
// triangles that meet there, so meshes blend without seams.
//
// This is the HOT PATH: no allocation in the pixel loop.
func RasterizeTriangle(fb *FrameBuffer, clip image.Rectangle, v0, v1, v2 Vertex, paint *Paint) image.Rectangle {
	area := edge(v0.X, v0.Y, v1.X, v1.Y, v2.X, v2.Y)
	if area > -1e-8 && area < 1e-8 {
		return image.Rectangle{}
	}
	if area < 0 {
		v1, v2 = v2, v1
		area = -area
	}
	invArea := 1 / area

	// Bounding box of pixel centers, clipped.
	minX := int(math.Floor(float64(min(v0.X, v1.X, v2.X))))
	maxX := int(math.Ceil(float64(max(v0.X, v1.X, v2.X))))
	minY := int(math.Floor(float64(min(v0.Y, v1.Y, v2.Y))))
	maxY := int(math.Ceil(float64(max(v0.Y, v1.Y, v2.Y))))
	box := image.Rect(minX, minY, maxX+1, maxY+1).Intersect(clip).Intersect(fb.Bounds())
	if box.Empty() {
		return image.Rectangle{}
	}

	own0 := owns(v1, v2)
	own1 := owns(v2, v0)
	own2 := owns(v0, v1)

	for sy := box.Min.Y; sy < box.Max.Y; sy++ {
		py := float32(sy) + 0.5
		row := sy * fb.Width
		for sx := box.Min.X; sx < box.Max.X; sx++ {
			px := float32(sx) + 0.5
			w0 := edge(v1.X, v1.Y, v2.X, v2.Y, px, py)
			w1 := edge(v2.X, v2.Y, v0.X, v0.Y, px, py)
			w2 := edge(v0.X, v0.Y, v1.X, v1.Y, px, py)
			if !inside(w0, own0) || !inside(w1, own1) || !inside(w2, own2) {
				continue
			}
			w0 *= invArea
			w1 *= invArea
			w2 *= invArea

			u := w0*v0.U + w1*v1.U + w2*v2.U
			v := w0*v0.V + w1*v1.V + w2*v2.V
			r, g, b, a := SampleTexture(paint.Texture, u, v)
			r, g, b, a = Shade(r, g, b, a, paint.Light, paint.Dark)
			if a <= 0 && paint.Blend != skel.BlendAdditive {
				continue
			}
			i := (row + sx) * 4
			blendPixel(fb.Color[i:i+4], r, g, b, a, paint.Blend)
		}
	}
	return box
}

// edge is twice the signed area of (a, b, p).
func edge(ax, ay, bx, by, px, py float32) float32 {
	return (bx-ax)*(py-ay) - (by-ay)*(px-ax)
}

// owns picks which of two triangles sharing edge a-b covers pixels lying
// exactly on it. The shared edge runs in opposite directions in each.
func owns(a, b Vertex) bool {
	dy := b.Y - a.Y
	return dy > 0 || (dy == 0 && b.X < a.X)
}

func inside(w float32, owned bool) bool {
	return w > 0 || (w == 0 && owned)
}
