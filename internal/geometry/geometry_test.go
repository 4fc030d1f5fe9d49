package geometry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spine-renderer/internal/atlas"
	"spine-renderer/internal/skel"
	"spine-renderer/internal/skeleton"
	"spine-renderer/internal/texture"
)

type fixture struct {
	def      *skel.Definition
	region   *skel.RegionAttachment
	mesh     *skel.MeshAttachment
	weighted *skel.MeshAttachment
}

func newFixture(premultiplied bool) *fixture {
	tex := &texture.Texture{Width: 4, Height: 4, Pix: make([]uint8, 64), Premultiplied: premultiplied}
	f := &fixture{
		region: &skel.RegionAttachment{
			AttachmentName: "quad",
			Color:          skel.White,
			Offset:         [8]float32{-1, -1, -1, 1, 1, 1, 1, -1},
			UVs:            [8]float32{0, 1, 0, 0, 1, 0, 1, 1},
		},
		mesh: &skel.MeshAttachment{
			AttachmentName: "tri",
			Vertices:       skel.Vertices{Values: []float32{0, 0, 2, 0, 0, 2}, Count: 3},
			UVs:            []float32{0, 0, 1, 0, 0, 1},
			Triangles:      []uint16{0, 1, 2},
			Color:          skel.White,
		},
		weighted: &skel.MeshAttachment{
			AttachmentName: "skinned",
			Vertices: skel.Vertices{
				Bones:  []int{2, 0, 1, 1, 1},
				Values: []float32{0, 0, 0.5, 0, 0, 0.5, 0, 3, 1},
				Count:  2,
			},
			UVs:       []float32{0, 0, 1, 1},
			Triangles: []uint16{0, 1, 0},
			Color:     skel.White,
		},
	}
	skin := skel.NewSkin("default")
	skin.SetAttachment(0, "quad", f.region)
	skin.SetAttachment(0, "tri", f.mesh)
	skin.SetAttachment(0, "skinned", f.weighted)
	skin.SetAttachment(0, "clip", &skel.ClippingAttachment{AttachmentName: "clip", EndSlot: -1})
	skin.SetAttachment(0, "box", &skel.UnsupportedAttachment{AttachmentName: "box", Type: "boundingbox"})

	f.def = &skel.Definition{
		Bones: []skel.BoneData{
			{Index: 0, Name: "root", Parent: -1, ScaleX: 1, ScaleY: 1},
			{Index: 1, Name: "arm", Parent: 0, X: 10, ScaleX: 1, ScaleY: 1},
		},
		Slots: []skel.SlotData{
			{Index: 0, Name: "s", Bone: 1, Color: skel.White, Attachment: "quad", Blend: skel.BlendAdditive},
		},
		Skins:       []*skel.Skin{skin},
		DefaultSkin: skin,
		UpdateOrder: []int{0, 1},
		Atlas:       &atlas.Atlas{Pages: []atlas.Page{{Name: "page.png", Width: 4, Height: 4, Texture: tex}}},
	}
	return f
}

func newPose(def *skel.Definition) *skeleton.Pose {
	p := skeleton.NewPose(def)
	// Cancel the Y-down flip so world space equals bone space.
	p.ScaleY = -1
	p.UpdateWorldTransforms()
	return p
}

func TestBuildRegion(t *testing.T) {
	f := newFixture(false)
	p := newPose(f.def)
	var b Builder

	g, ok := b.Build(p, 0)
	require.True(t, ok)
	assert.Equal(t, []float32{9, -1, 9, 1, 11, 1, 11, -1}, g.Positions)
	assert.Equal(t, []float32{0, 1, 0, 0, 1, 0, 1, 1}, g.UVs)
	assert.Equal(t, QuadTriangles, g.Indices)
	assert.Equal(t, skel.BlendAdditive, g.Blend)
	assert.Same(t, f.def.Atlas.Pages[0].Texture, g.Texture)
	assert.Equal(t, skel.White, g.Light)
	assert.Equal(t, skel.Color{}, g.Dark)
}

func TestBuildReusesScratch(t *testing.T) {
	f := newFixture(false)
	p := newPose(f.def)
	var b Builder

	g1, ok := b.Build(p, 0)
	require.True(t, ok)
	first := &g1.Positions[0]
	p.Bones[1].X = 20
	p.UpdateWorldTransforms()
	g2, ok := b.Build(p, 0)
	require.True(t, ok)
	assert.Same(t, first, &g2.Positions[0])
	assert.Equal(t, float32(19), g2.Positions[0])
}

func TestBuildTint(t *testing.T) {
	f := newFixture(true)
	f.def.Slots[0].HasDark = true
	f.def.Slots[0].Dark = skel.Color{R: 0.2, G: 0.4, B: 0.6, A: 1}
	f.region.Color = skel.Color{R: 1, G: 1, B: 0.5, A: 1}
	p := newPose(f.def)
	p.Color = skel.Color{R: 1, G: 1, B: 1, A: 0.5}
	p.Slots[0].Color = skel.Color{R: 1, G: 0.5, B: 1, A: 1}

	var b Builder
	g, ok := b.Build(p, 0)
	require.True(t, ok)
	assert.True(t, g.Premultiplied())
	assert.InDelta(t, 0.5, g.Light.R, 1e-6)
	assert.InDelta(t, 0.25, g.Light.G, 1e-6)
	assert.InDelta(t, 0.25, g.Light.B, 1e-6)
	assert.InDelta(t, 0.5, g.Light.A, 1e-6)
	assert.InDelta(t, 0.1, g.Dark.R, 1e-6)
	assert.InDelta(t, 0.2, g.Dark.G, 1e-6)
	assert.InDelta(t, 0.3, g.Dark.B, 1e-6)
	assert.Equal(t, float32(1), g.Dark.A)
}

func TestBuildStraightAlphaTint(t *testing.T) {
	f := newFixture(false)
	p := newPose(f.def)
	p.Color = skel.Color{R: 0.5, G: 1, B: 1, A: 0.5}

	var b Builder
	g, ok := b.Build(p, 0)
	require.True(t, ok)
	assert.Equal(t, skel.Color{R: 0.5, G: 1, B: 1, A: 0.5}, g.Light)
	assert.Equal(t, float32(0), g.Dark.A)
}

func TestBuildMeshWithDeform(t *testing.T) {
	f := newFixture(false)
	p := newPose(f.def)
	p.SetAttachment(0, "tri")
	p.UpdateWorldTransforms()

	var b Builder
	g, ok := b.Build(p, 0)
	require.True(t, ok)
	assert.Equal(t, []float32{10, 0, 12, 0, 10, 2}, g.Positions)
	assert.Equal(t, f.mesh.Triangles, g.Indices)

	p.Slots[0].Deform = []float32{1, 1, 0, 0, 0, -1}
	g, ok = b.Build(p, 0)
	require.True(t, ok)
	assert.Equal(t, []float32{11, 1, 12, 0, 10, 1}, g.Positions)
}

func TestBuildWeightedMesh(t *testing.T) {
	f := newFixture(false)
	p := newPose(f.def)
	p.SetAttachment(0, "skinned")
	p.UpdateWorldTransforms()

	var b Builder
	g, ok := b.Build(p, 0)
	require.True(t, ok)
	assert.InDeltaSlice(t, []float32{5, 0, 10, 3}, g.Positions, 1e-5)

	// Deform offsets apply per influence in each bone's space.
	p.Slots[0].Deform = []float32{2, 0, 2, 0, 0, 1}
	g, ok = b.Build(p, 0)
	require.True(t, ok)
	assert.InDeltaSlice(t, []float32{7, 0, 10, 4}, g.Positions, 1e-5)
}

func TestBuildRotatedBone(t *testing.T) {
	f := newFixture(false)
	p := newPose(f.def)
	p.Bones[1].Rotation = 90
	p.UpdateWorldTransforms()

	var b Builder
	g, ok := b.Build(p, 0)
	require.True(t, ok)
	assert.InDeltaSlice(t, []float32{11, -1, 9, -1, 9, 1, 11, 1}, g.Positions, 1e-5)
}

func TestBuildSkips(t *testing.T) {
	f := newFixture(false)
	p := newPose(f.def)
	var b Builder

	for _, name := range []string{"", "clip", "box"} {
		p.SetAttachment(0, name)
		_, ok := b.Build(p, 0)
		assert.False(t, ok, name)
	}

	f.def.Atlas.Pages[0].Texture = nil
	p.SetAttachment(0, "quad")
	_, ok := b.Build(p, 0)
	assert.False(t, ok)
}
