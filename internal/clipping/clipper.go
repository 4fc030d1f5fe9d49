// Package clipping masks slot geometry with clipping attachment polygons.
package clipping

import (
	"spine-renderer/internal/geometry"
	"spine-renderer/internal/skel"
	"spine-renderer/internal/skeleton"
)

// Clipper holds the active clip polygon while the compositor walks the draw
// order. Clip state begins at a clipping attachment and ends at its end
// slot or at the end of the draw order. A Clipper is not safe for
// concurrent use.
type Clipper struct {
	clip    *skel.ClippingAttachment
	world   []float32
	convex  [][]float32
	scratch [2][]float32
	parts   map[*skel.ClippingAttachment]decomposition

	vertices []float32
	uvs      []float32
	indices  []uint16
}

// IsClipping reports whether a clip polygon is active.
func (c *Clipper) IsClipping() bool { return c.clip != nil }

// ClipStart activates the clip polygon shown in slot. It is ignored while
// another clip is active or when the polygon has fewer than three vertices.
func (c *Clipper) ClipStart(p *skeleton.Pose, slot int, clip *skel.ClippingAttachment) {
	if c.clip != nil || clip.Count < 3 {
		return
	}
	n := clip.Count * 2
	if cap(c.world) < n {
		c.world = make([]float32, n)
	}
	c.world = geometry.WorldVertices(p, slot, &clip.Vertices, c.world[:n])
	reversed := signedArea(c.world) < 0
	makeCounterClockwise(c.world)

	rings := c.decompose(clip, reversed, !clip.Weighted() && len(p.Slots[slot].Deform) == 0)
	if cap(c.convex) < len(rings) {
		c.convex = append(c.convex[:cap(c.convex)], make([][]float32, len(rings)-cap(c.convex))...)
	}
	c.convex = c.convex[:len(rings)]
	for i, ring := range rings {
		buf := c.convex[i][:0]
		for _, v := range ring {
			buf = append(buf, c.world[v*2], c.world[v*2+1])
		}
		c.convex[i] = buf
	}
	c.clip = clip
}

// decomposition holds the convex parts of a clip polygon as index rings.
// An affine bone transform keeps them valid as long as it does not mirror
// the polygon, so rigid clips are decomposed once per winding.
type decomposition struct {
	reversed bool
	rings    [][]int
}

func (c *Clipper) decompose(clip *skel.ClippingAttachment, reversed, rigid bool) [][]int {
	if d, ok := c.parts[clip]; ok && rigid && d.reversed == reversed {
		return d.rings
	}
	rings := decompose(c.world, triangulate(c.world))
	if rigid {
		if c.parts == nil {
			c.parts = make(map[*skel.ClippingAttachment]decomposition)
		}
		c.parts[clip] = decomposition{reversed: reversed, rings: rings}
	}
	return rings
}

// ClipEndSlot ends clipping when slot is the active clip's end slot.
func (c *Clipper) ClipEndSlot(slot int) {
	if c.clip != nil && c.clip.EndSlot == slot {
		c.ClipEnd()
	}
}

// ClipEnd deactivates clipping.
func (c *Clipper) ClipEnd() {
	c.clip = nil
	c.convex = c.convex[:0]
}

// ClipTriangles intersects a triangle list with the clip polygon. UVs of new
// vertices are interpolated barycentrically. When every triangle lies
// inside the clip the inputs are returned as is; the other results alias
// the Clipper's buffers until the next call.
func (c *Clipper) ClipTriangles(vertices, uvs []float32, indices []uint16) ([]float32, []float32, []uint16) {
	c.vertices = c.vertices[:0]
	c.uvs = c.uvs[:0]
	c.indices = c.indices[:0]
	inside := true

	for t := 0; t+2 < len(indices); t += 3 {
		i1, i2, i3 := int(indices[t])*2, int(indices[t+1])*2, int(indices[t+2])*2
		tri := [6]float32{
			vertices[i1], vertices[i1+1],
			vertices[i2], vertices[i2+1],
			vertices[i3], vertices[i3+1],
		}
		triUV := [6]float32{
			uvs[i1], uvs[i1+1],
			uvs[i2], uvs[i2+1],
			uvs[i3], uvs[i3+1],
		}
		if len(c.convex) > 1 && containsTriangle(c.world, &tri) {
			c.emit(tri[:], triUV[:], &tri, &triUV)
			continue
		}
		for _, poly := range c.convex {
			out, clipped := c.clipTriangle(&tri, poly)
			if !clipped {
				c.emit(tri[:], triUV[:], &tri, &triUV)
				break
			}
			inside = false
			if len(out) >= 6 {
				c.emit(out, nil, &tri, &triUV)
			}
		}
	}

	if inside {
		return vertices, uvs, indices
	}
	return c.vertices, c.uvs, c.indices
}

// emit appends a convex polygon as a triangle fan. When polyUV is nil the
// UVs are interpolated from the source triangle.
func (c *Clipper) emit(poly, polyUV []float32, tri, triUV *[6]float32) {
	base := uint16(len(c.vertices) / 2)
	c.vertices = append(c.vertices, poly...)
	if polyUV != nil {
		c.uvs = append(c.uvs, polyUV...)
	} else {
		x1, y1, x2, y2, x3, y3 := tri[0], tri[1], tri[2], tri[3], tri[4], tri[5]
		d0, d1 := y2-y3, x3-x2
		d2, d4 := x1-x3, y3-y1
		denom := d0*d2 + d1*(y1-y3)
		for i := 0; i < len(poly); i += 2 {
			if denom == 0 {
				c.uvs = append(c.uvs, triUV[0], triUV[1])
				continue
			}
			x, y := poly[i]-x3, poly[i+1]-y3
			a := (d0*x + d1*y) / denom
			b := (d4*x + d2*y) / denom
			w := 1 - a - b
			c.uvs = append(c.uvs,
				triUV[0]*a+triUV[2]*b+triUV[4]*w,
				triUV[1]*a+triUV[3]*b+triUV[5]*w)
		}
	}
	n := uint16(len(poly) / 2)
	for i := uint16(1); i+1 < n; i++ {
		c.indices = append(c.indices, base, base+i, base+i+1)
	}
}

// clipTriangle runs Sutherland–Hodgman against a counter-clockwise convex
// ring. clipped is false when no triangle vertex lies outside the ring.
func (c *Clipper) clipTriangle(tri *[6]float32, ring []float32) (out []float32, clipped bool) {
	in := append(c.scratch[0][:0], tri[:]...)
	next := c.scratch[1][:0]
	n := len(ring)
	for e := 0; e < n; e += 2 {
		ex1, ey1 := ring[e], ring[e+1]
		ex2, ey2 := ring[(e+2)%n], ring[(e+3)%n]
		side := func(x, y float32) float32 { return cross(ex1, ey1, ex2, ey2, x, y) }

		next = next[:0]
		m := len(in)
		for i := 0; i < m; i += 2 {
			sx, sy := in[(i+m-2)%m], in[(i+m-1)%m]
			px, py := in[i], in[i+1]
			ss, ps := side(sx, sy), side(px, py)
			if ps >= 0 {
				if ss < 0 {
					next = appendIntersection(next, sx, sy, px, py, ss, ps)
				}
				next = append(next, px, py)
			} else {
				clipped = true
				if ss >= 0 {
					next = appendIntersection(next, sx, sy, px, py, ss, ps)
				}
			}
		}
		in, next = next, in
		if len(in) == 0 {
			break
		}
	}
	c.scratch[0], c.scratch[1] = in, next
	return in, clipped
}

func appendIntersection(dst []float32, sx, sy, px, py, ss, ps float32) []float32 {
	t := ss / (ss - ps)
	return append(dst, sx+(px-sx)*t, sy+(py-sy)*t)
}
