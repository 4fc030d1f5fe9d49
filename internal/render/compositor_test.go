package render

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spine-renderer/internal/atlas"
	"spine-renderer/internal/skel"
	"spine-renderer/internal/skeleton"
	"spine-renderer/internal/texture"
)

type recorder struct {
	calls []DrawCall
}

func (r *recorder) DrawTriangles(call *DrawCall) {
	c := *call
	c.Positions = append([]float32(nil), call.Positions...)
	c.UVs = append([]float32(nil), call.UVs...)
	c.Indices = append([]uint16(nil), call.Indices...)
	r.calls = append(r.calls, c)
}

func quad(name string) *skel.RegionAttachment {
	return &skel.RegionAttachment{
		AttachmentName: name,
		Color:          skel.White,
		Offset:         [8]float32{-1, -1, -1, 1, 1, 1, 1, -1},
		UVs:            [8]float32{0, 1, 0, 0, 1, 0, 1, 1},
	}
}

// newPose builds back, clip and front slots. The clip keeps y <= 0 and ends
// at endSlot.
func newPose(endSlot int) *skeleton.Pose {
	skin := skel.NewSkin("default")
	skin.SetAttachment(0, "back", quad("back"))
	skin.SetAttachment(1, "clip", &skel.ClippingAttachment{
		AttachmentName: "clip",
		Vertices:       skel.Vertices{Values: []float32{-5, -5, 5, -5, 5, 0, -5, 0}, Count: 4},
		EndSlot:        endSlot,
	})
	skin.SetAttachment(2, "front", quad("front"))

	tex := &texture.Texture{Width: 8, Height: 4, Pix: make([]uint8, 128)}
	def := &skel.Definition{
		Bones: []skel.BoneData{{Name: "root", Parent: -1, ScaleX: 1, ScaleY: 1}},
		Slots: []skel.SlotData{
			{Index: 0, Name: "back", Color: skel.White, Attachment: "back"},
			{Index: 1, Name: "clip", Color: skel.White, Attachment: "clip"},
			{Index: 2, Name: "front", Color: skel.White, Attachment: "front", Blend: skel.BlendAdditive},
		},
		Skins:       []*skel.Skin{skin},
		DefaultSkin: skin,
		UpdateOrder: []int{0},
		Atlas:       &atlas.Atlas{Pages: []atlas.Page{{Name: "p.png", Width: 8, Height: 4, Texture: tex}}},
	}
	p := skeleton.NewPose(def)
	p.ScaleY = -1
	p.UpdateWorldTransforms()
	return p
}

func triangleArea(positions []float32, indices []uint16) float32 {
	var sum float32
	for t := 0; t+2 < len(indices); t += 3 {
		a, b, c := int(indices[t])*2, int(indices[t+1])*2, int(indices[t+2])*2
		cr := (positions[b]-positions[a])*(positions[c+1]-positions[a+1]) -
			(positions[b+1]-positions[a+1])*(positions[c]-positions[a])
		if cr < 0 {
			cr = -cr
		}
		sum += cr / 2
	}
	return sum
}

func TestDrawOrderAndClipping(t *testing.T) {
	p := newPose(-1)
	var c Compositor
	var rec recorder

	n := c.Draw(p, &rec)
	require.Equal(t, 2, n)
	require.Len(t, rec.calls, 2)

	back := rec.calls[0]
	assert.Equal(t, 0, back.Slot)
	assert.Len(t, back.Positions, 8)
	assert.Equal(t, []float32{0, 4, 0, 0, 8, 0, 8, 4}, back.UVs)
	assert.Equal(t, skel.BlendNormal, back.Blend)

	front := rec.calls[1]
	assert.Equal(t, 2, front.Slot)
	assert.Equal(t, skel.BlendAdditive, front.Blend)
	assert.False(t, front.Glow)
	assert.InDelta(t, 2, triangleArea(front.Positions, front.Indices), 1e-5)
	assert.Equal(t, len(front.Positions), len(front.UVs))
}

func TestClipEndsAtEndSlot(t *testing.T) {
	p := newPose(0)
	p.DrawOrder = []int{1, 0, 2}
	var c Compositor
	var rec recorder
	c.Draw(p, &rec)
	require.Len(t, rec.calls, 2)
	assert.InDelta(t, 2, triangleArea(rec.calls[0].Positions, rec.calls[0].Indices), 1e-5)
	assert.Len(t, rec.calls[1].Positions, 8, "clip ended after the back slot")
}

func TestClipResetBetweenFrames(t *testing.T) {
	p := newPose(-1)
	// The clip slot is drawn last and left open.
	p.DrawOrder = []int{0, 2, 1}
	var c Compositor
	for frame := 0; frame < 2; frame++ {
		var rec recorder
		c.Draw(p, &rec)
		require.Len(t, rec.calls, 2)
		assert.Len(t, rec.calls[0].Positions, 8)
		assert.Len(t, rec.calls[1].Positions, 8)
	}
}

func TestGlowOnlyForAdditive(t *testing.T) {
	p := newPose(1)
	c := Compositor{Glow: true}
	var rec recorder
	c.Draw(p, &rec)
	require.Len(t, rec.calls, 2)
	assert.False(t, rec.calls[0].Glow)
	assert.True(t, rec.calls[1].Glow)
}

func TestDisjointClipDropsSlot(t *testing.T) {
	p := newPose(-1)
	p.DrawOrder = []int{1, 0, 2}
	clip := p.Slots[1].Attachment.(*skel.ClippingAttachment)
	clip.Values = []float32{100, 100, 110, 100, 110, 110, 100, 110}

	var c Compositor
	var rec recorder
	assert.Equal(t, 0, c.Draw(p, &rec))
	assert.Empty(t, rec.calls)
}

func TestBounds(t *testing.T) {
	p := newPose(1)
	p.Bones[0].X = 10
	p.UpdateWorldTransforms()
	var c Compositor
	minX, minY, maxX, maxY, ok := c.Bounds(p)
	require.True(t, ok)
	assert.Equal(t, float32(9), minX)
	assert.Equal(t, float32(-1), minY)
	assert.Equal(t, float32(11), maxX)
	assert.Equal(t, float32(1), maxY)

	p.Slots[0].Attachment = nil
	p.Slots[2].Attachment = nil
	_, _, _, _, ok = c.Bounds(p)
	assert.False(t, ok)
}
