// Package render walks a posed skeleton in draw order and submits one
// textured triangle batch per visible slot to a Surface.
package render

import (
	"math"

	"spine-renderer/internal/clipping"
	"spine-renderer/internal/geometry"
	"spine-renderer/internal/skel"
	"spine-renderer/internal/skeleton"
	"spine-renderer/internal/texture"
)

// DrawCall is one slot's clipped geometry. The slices are only valid for the
// duration of DrawTriangles.
type DrawCall struct {
	Slot int
	// Positions holds world x,y pairs.
	Positions []float32
	// UVs holds texel coordinates, one pair per position.
	UVs     []float32
	Indices []uint16
	Texture *texture.Texture
	// Light and Dark are the two-color tint. Light is premultiplied when
	// Texture is; Dark.A is 1 for premultiplied textures and 0 otherwise.
	Light skel.Color
	Dark  skel.Color
	Blend skel.BlendMode
	// Glow asks the surface to soften an additive batch.
	Glow bool
}

// Surface receives draw calls in back-to-front order.
type Surface interface {
	DrawTriangles(call *DrawCall)
}

// Compositor converts a pose into draw calls. It keeps scratch buffers
// between frames and is not safe for concurrent use.
type Compositor struct {
	// Glow marks additive slots for the surface's blur pass.
	Glow bool

	geometry geometry.Builder
	clipper  clipping.Clipper
	uvs      []float32
	call     DrawCall
}

// Draw submits the pose's slots in draw order and returns the number of
// draw calls issued. Clip state never carries over between calls.
func (c *Compositor) Draw(p *skeleton.Pose, s Surface) int {
	calls := 0
	c.each(p, func(call *DrawCall) {
		s.DrawTriangles(call)
		calls++
	})
	return calls
}

// Bounds returns the world-space bounding box of every clipped vertex the
// pose would draw. ok is false when nothing is visible.
func (c *Compositor) Bounds(p *skeleton.Pose) (minX, minY, maxX, maxY float32, ok bool) {
	minX, minY = math.MaxFloat32, math.MaxFloat32
	maxX, maxY = -math.MaxFloat32, -math.MaxFloat32
	c.each(p, func(call *DrawCall) {
		for i := 0; i < len(call.Positions); i += 2 {
			x, y := call.Positions[i], call.Positions[i+1]
			minX, maxX = min(minX, x), max(maxX, x)
			minY, maxY = min(minY, y), max(maxY, y)
		}
		ok = true
	})
	return minX, minY, maxX, maxY, ok
}

func (c *Compositor) each(p *skeleton.Pose, emit func(*DrawCall)) {
	defer c.clipper.ClipEnd()
	for _, slot := range p.DrawOrder {
		if clip, ok := p.Slots[slot].Attachment.(*skel.ClippingAttachment); ok {
			c.clipper.ClipStart(p, slot, clip)
			continue
		}
		if g, ok := c.geometry.Build(p, slot); ok {
			c.submit(&g, emit)
		}
		c.clipper.ClipEndSlot(slot)
	}
}

func (c *Compositor) submit(g *geometry.Geometry, emit func(*DrawCall)) {
	positions, uvs, indices := g.Positions, g.UVs, g.Indices
	if c.clipper.IsClipping() {
		positions, uvs, indices = c.clipper.ClipTriangles(positions, uvs, indices)
	}
	if len(positions) == 0 || len(indices) == 0 {
		return
	}

	w, h := float32(g.Texture.Width), float32(g.Texture.Height)
	c.uvs = c.uvs[:0]
	for i := 0; i < len(uvs); i += 2 {
		c.uvs = append(c.uvs, uvs[i]*w, uvs[i+1]*h)
	}

	c.call = DrawCall{
		Slot:      g.Slot,
		Positions: positions,
		UVs:       c.uvs,
		Indices:   indices,
		Texture:   g.Texture,
		Light:     g.Light,
		Dark:      g.Dark,
		Blend:     g.Blend,
		Glow:      c.Glow && g.Blend == skel.BlendAdditive,
	}
	emit(&c.call)
}
