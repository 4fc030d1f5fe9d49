// Package geometry converts slot attachments of a posed skeleton into
// world-space triangle lists.
package geometry

import (
	"spine-renderer/internal/skel"
	"spine-renderer/internal/skeleton"
	"spine-renderer/internal/texture"
)

// QuadTriangles indexes the BL, UL, UR, BR corners of a region.
var QuadTriangles = []uint16{0, 1, 2, 2, 3, 0}

// Geometry is the world-space output for one slot. The slices alias the
// Builder's scratch buffers and stay valid until the next Build call.
type Geometry struct {
	Slot int
	// Positions holds x,y pairs.
	Positions []float32
	// UVs holds normalized u,v pairs, one per position.
	UVs     []float32
	Indices []uint16

	Texture *texture.Texture
	Blend   skel.BlendMode
	// Light is skeleton*slot*attachment color, premultiplied when the
	// texture is.
	Light skel.Color
	// Dark is the slot's second color. Its alpha is 1 for premultiplied
	// textures and 0 otherwise.
	Dark skel.Color
}

// Premultiplied reports whether Texture stores premultiplied RGB.
func (g *Geometry) Premultiplied() bool {
	return g.Texture != nil && g.Texture.Premultiplied
}

// Builder owns reusable scratch buffers. It is not safe for concurrent use.
type Builder struct {
	positions []float32
	uvs       []float32
}

// Build computes the geometry of the attachment shown in slot. ok is false
// for empty slots, clipping attachments, unsupported kinds and attachments
// whose page texture is missing.
func (b *Builder) Build(p *skeleton.Pose, slot int) (g Geometry, ok bool) {
	s := &p.Slots[slot]
	var (
		color skel.Color
		page  int
	)
	switch a := s.Attachment.(type) {
	case *skel.RegionAttachment:
		b.positions = RegionWorldVertices(p, slot, a, grow(b.positions, 8))
		b.uvs = append(b.uvs[:0], a.UVs[:]...)
		g.Indices = QuadTriangles
		color, page = a.Color, a.Page
	case *skel.MeshAttachment:
		n := a.Count * 2
		b.positions = WorldVertices(p, slot, &a.Vertices, grow(b.positions, n))
		b.uvs = append(b.uvs[:0], a.UVs...)
		g.Indices = a.Triangles
		color, page = a.Color, a.Page
	default:
		return g, false
	}

	g.Texture = p.Def.Texture(page)
	if g.Texture == nil {
		return g, false
	}
	g.Slot = slot
	g.Positions = b.positions
	g.UVs = b.uvs
	g.Blend = s.Data.Blend
	g.Light, g.Dark = tint(p.Color, s, color, g.Texture.Premultiplied)
	return g, true
}

func tint(skeletonColor skel.Color, s *skeleton.Slot, attachment skel.Color, premultiplied bool) (light, dark skel.Color) {
	light = skeletonColor.Mul(s.Color).Mul(attachment)
	a := light.A
	if premultiplied {
		light.R *= a
		light.G *= a
		light.B *= a
		dark.A = 1
	}
	if s.Data.HasDark {
		dark.R = s.Dark.R * a
		dark.G = s.Dark.G * a
		dark.B = s.Dark.B * a
	}
	return light, dark
}

func grow(buf []float32, n int) []float32 {
	if cap(buf) < n {
		return make([]float32, n)
	}
	return buf[:n]
}

// RegionWorldVertices writes the four world corners of a region into out,
// which must hold 8 floats.
func RegionWorldVertices(p *skeleton.Pose, slot int, r *skel.RegionAttachment, out []float32) []float32 {
	bone := &p.Bones[p.Slots[slot].Bone()]
	for i := 0; i < 8; i += 2 {
		out[i], out[i+1] = bone.Transform(r.Offset[i], r.Offset[i+1])
	}
	return out
}

// WorldVertices skins the vertices of a mesh or clipping polygon shown in
// slot, adding the slot's deform offsets in bone space, and writes x,y
// pairs into out, which must hold v.Count*2 floats.
func WorldVertices(p *skeleton.Pose, slot int, v *skel.Vertices, out []float32) []float32 {
	s := &p.Slots[slot]
	deform := s.Deform
	if len(deform) != v.DeformLength() {
		deform = nil
	}

	if !v.Weighted() {
		bone := &p.Bones[s.Bone()]
		for i := 0; i < v.Count*2; i += 2 {
			x, y := v.Values[i], v.Values[i+1]
			if deform != nil {
				x += deform[i]
				y += deform[i+1]
			}
			out[i], out[i+1] = bone.Transform(x, y)
		}
		return out
	}

	// Bones holds a count then the bone indices per vertex; Values holds
	// x,y,weight per influence and deform holds x,y per influence.
	bi, vi, di := 0, 0, 0
	for i := 0; i < v.Count*2; i += 2 {
		var wx, wy float32
		n := v.Bones[bi]
		bi++
		for end := bi + n; bi < end; bi++ {
			bone := &p.Bones[v.Bones[bi]]
			x, y, w := v.Values[vi], v.Values[vi+1], v.Values[vi+2]
			if deform != nil {
				x += deform[di]
				y += deform[di+1]
			}
			tx, ty := bone.Transform(x, y)
			wx += tx * w
			wy += ty * w
			vi += 3
			di += 2
		}
		out[i], out[i+1] = wx, wy
	}
	return out
}
