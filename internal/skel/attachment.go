package skel

import (
	"math"

	"spine-renderer/internal/atlas"
)

// AttachmentKind tags the closed set of attachment variants.
type AttachmentKind int

const (
	KindUnsupported AttachmentKind = iota
	KindRegion
	KindMesh
	KindClipping
)

func (k AttachmentKind) String() string {
	switch k {
	case KindRegion:
		return "region"
	case KindMesh:
		return "mesh"
	case KindClipping:
		return "clipping"
	}
	return "unsupported"
}

// Attachment is a visual primitive that can be placed in a slot.
// Implementations: *RegionAttachment, *MeshAttachment, *ClippingAttachment
// and *UnsupportedAttachment.
type Attachment interface {
	Name() string
	Kind() AttachmentKind
}

// VertexAttachment is implemented by attachments with bone-bound vertices.
type VertexAttachment interface {
	Attachment
	VertexData() *Vertices
}

// Vertices holds the setup vertices of a mesh or clipping polygon.
// Unweighted: Bones is nil and Values holds x,y pairs in the slot bone's space.
// Weighted: Bones holds, per vertex, a count followed by that many bone
// indices; Values holds x,y,weight per bone influence.
type Vertices struct {
	Bones  []int
	Values []float32
	Count  int
}

// Weighted reports whether vertices are bound to multiple bones.
func (v *Vertices) Weighted() bool { return v.Bones != nil }

// DeformLength is the number of floats a deform frame carries.
func (v *Vertices) DeformLength() int {
	if v.Weighted() {
		return len(v.Values) / 3 * 2
	}
	return len(v.Values)
}

// Region corner indices into RegionAttachment.Offset and UVs.
const (
	BLX = iota
	BLY
	ULX
	ULY
	URX
	URY
	BRX
	BRY
)

// RegionAttachment is a textured quad positioned relative to its slot's bone.
type RegionAttachment struct {
	AttachmentName string
	Path           string
	X, Y           float32
	ScaleX         float32
	ScaleY         float32
	Rotation       float32
	Width          float32
	Height         float32
	Color          Color

	// Page indexes Definition.Atlas.Pages.
	Page int
	// Offset holds the local corners BL, UL, UR, BR.
	Offset [8]float32
	// UVs holds the normalized atlas coordinates of the same corners.
	UVs [8]float32
}

func (r *RegionAttachment) Name() string         { return r.AttachmentName }
func (r *RegionAttachment) Kind() AttachmentKind { return KindRegion }

// setRegion computes corner offsets and UVs for an atlas region, honoring
// whitespace stripping and 90 degree rotation.
func (r *RegionAttachment) setRegion(rg *atlas.Region) {
	r.Page = rg.Page

	origW, origH := float32(rg.OriginalWidth), float32(rg.OriginalHeight)
	if origW == 0 {
		origW = float32(rg.Width)
	}
	if origH == 0 {
		origH = float32(rg.Height)
	}
	regionScaleX := r.Width / origW * r.ScaleX
	regionScaleY := r.Height / origH * r.ScaleY
	localX := -r.Width/2*r.ScaleX + rg.OffsetX*regionScaleX
	localY := -r.Height/2*r.ScaleY + rg.OffsetY*regionScaleY
	localX2 := localX + float32(rg.Width)*regionScaleX
	localY2 := localY + float32(rg.Height)*regionScaleY

	rad := float64(r.Rotation) * math.Pi / 180
	cos, sin := float32(math.Cos(rad)), float32(math.Sin(rad))
	localXCos := localX*cos + r.X
	localXSin := localX * sin
	localYCos := localY*cos + r.Y
	localYSin := localY * sin
	localX2Cos := localX2*cos + r.X
	localX2Sin := localX2 * sin
	localY2Cos := localY2*cos + r.Y
	localY2Sin := localY2 * sin

	r.Offset[BLX] = localXCos - localYSin
	r.Offset[BLY] = localYCos + localXSin
	r.Offset[ULX] = localXCos - localY2Sin
	r.Offset[ULY] = localY2Cos + localXSin
	r.Offset[URX] = localX2Cos - localY2Sin
	r.Offset[URY] = localY2Cos + localX2Sin
	r.Offset[BRX] = localX2Cos - localYSin
	r.Offset[BRY] = localYCos + localX2Sin

	// Local +Y shows the top of the image. A rotated region was packed
	// turned 90 degrees counter-clockwise.
	u, v, u2, v2 := rg.U, rg.V, rg.U2, rg.V2
	if rg.Rotated() {
		r.UVs = [8]float32{u2, v2, u, v2, u, v, u2, v}
	} else {
		r.UVs = [8]float32{u, v2, u, v, u2, v, u2, v2}
	}
}

// MeshAttachment is a textured, optionally weighted, deformable triangle mesh.
type MeshAttachment struct {
	AttachmentName string
	Path           string
	Vertices
	RegionUVs  []float32
	UVs        []float32
	Triangles  []uint16
	HullLength int
	Edges      []uint16
	Color      Color
	Width      float32
	Height     float32

	// Page indexes Definition.Atlas.Pages.
	Page int
	// Parent is the source mesh of a linked mesh.
	Parent *MeshAttachment
	// InheritDeform makes deform timelines keyed on Parent apply here.
	InheritDeform bool
}

func (m *MeshAttachment) Name() string          { return m.AttachmentName }
func (m *MeshAttachment) Kind() AttachmentKind  { return KindMesh }
func (m *MeshAttachment) VertexData() *Vertices { return &m.Vertices }

// DeformSource returns the attachment deform timelines are keyed on.
func (m *MeshAttachment) DeformSource() Attachment {
	if m.Parent != nil && m.InheritDeform {
		return m.Parent
	}
	return m
}

// setRegion maps region-relative UVs into atlas space.
func (m *MeshAttachment) setRegion(rg *atlas.Region) {
	m.Page = rg.Page
	u, v := rg.U, rg.V
	w, h := rg.U2-rg.U, rg.V2-rg.V
	if len(m.UVs) != len(m.RegionUVs) {
		m.UVs = make([]float32, len(m.RegionUVs))
	}
	for i := 0; i+1 < len(m.RegionUVs); i += 2 {
		ru, rv := m.RegionUVs[i], m.RegionUVs[i+1]
		if rg.Rotated() {
			m.UVs[i] = u + rv*w
			m.UVs[i+1] = v + h - ru*h
		} else {
			m.UVs[i] = u + ru*w
			m.UVs[i+1] = v + rv*h
		}
	}
}

// linkTo copies geometry from the parent mesh.
func (m *MeshAttachment) linkTo(parent *MeshAttachment) {
	m.Parent = parent
	m.Vertices = parent.Vertices
	m.RegionUVs = parent.RegionUVs
	m.Triangles = parent.Triangles
	m.HullLength = parent.HullLength
	m.Edges = parent.Edges
	if m.Width == 0 && m.Height == 0 {
		m.Width, m.Height = parent.Width, parent.Height
	}
}

// ClippingAttachment is a polygon masking subsequent slots up to and
// including EndSlot (-1 means until the end of the draw order).
type ClippingAttachment struct {
	AttachmentName string
	Vertices
	EndSlot int
	Color   Color
}

func (c *ClippingAttachment) Name() string          { return c.AttachmentName }
func (c *ClippingAttachment) Kind() AttachmentKind  { return KindClipping }
func (c *ClippingAttachment) VertexData() *Vertices { return &c.Vertices }

// UnsupportedAttachment stands in for attachment kinds this core does not
// render (bounding boxes, paths, points, and anything newer).
type UnsupportedAttachment struct {
	AttachmentName string
	Type           string
}

func (u *UnsupportedAttachment) Name() string         { return u.AttachmentName }
func (u *UnsupportedAttachment) Kind() AttachmentKind { return KindUnsupported }

// Skin maps (slot index, attachment name) to attachments.
type Skin struct {
	Name        string
	Bones       []int
	attachments map[skinKey]Attachment
}

type skinKey struct {
	slot int
	name string
}

// NewSkin creates an empty skin.
func NewSkin(name string) *Skin {
	return &Skin{Name: name, attachments: make(map[skinKey]Attachment)}
}

// SetAttachment adds or replaces an attachment.
func (s *Skin) SetAttachment(slot int, name string, a Attachment) {
	s.attachments[skinKey{slot, name}] = a
}

// Attachment returns the attachment for slot and name, or nil.
func (s *Skin) Attachment(slot int, name string) Attachment {
	if s == nil {
		return nil
	}
	return s.attachments[skinKey{slot, name}]
}

// Len returns the number of attachments in the skin.
func (s *Skin) Len() int { return len(s.attachments) }

// Each calls fn for every attachment in the skin.
func (s *Skin) Each(fn func(slot int, name string, a Attachment)) {
	for k, a := range s.attachments {
		fn(k.slot, k.name, a)
	}
}
