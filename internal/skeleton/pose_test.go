package skeleton

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spine-renderer/internal/skel"
	"spine-renderer/internal/spineerr"
)

func testDefinition() *skel.Definition {
	skin := skel.NewSkin("default")
	a := &skel.RegionAttachment{AttachmentName: "a"}
	b := &skel.RegionAttachment{AttachmentName: "b"}
	skin.SetAttachment(0, "a", a)
	skin.SetAttachment(0, "b", b)
	alt := skel.NewSkin("alt")
	alt.SetAttachment(0, "a", &skel.RegionAttachment{AttachmentName: "a"})

	return &skel.Definition{
		Bones: []skel.BoneData{
			{Index: 0, Name: "root", Parent: -1, X: 3, Y: 4, Rotation: 30, ScaleX: 1, ScaleY: 1},
			{Index: 1, Name: "upper", Parent: 0, X: 10, Rotation: 45, ScaleX: 2, ScaleY: 0.5, ShearX: 5},
			{Index: 2, Name: "lower", Parent: 1, X: 7, Y: -2, Rotation: -20, ScaleX: 1, ScaleY: 1, ShearY: 10},
			{Index: 3, Name: "pinned", Parent: 1, X: 1, Y: 1, Rotation: 90, ScaleX: 1, ScaleY: 1,
				TransformMode: skel.TransformOnlyTranslation},
		},
		Slots: []skel.SlotData{
			{Index: 0, Name: "s", Bone: 2, Color: skel.Color{R: 1, G: 0.5, B: 1, A: 1}, Attachment: "a"},
			{Index: 1, Name: "t", Bone: 0, Color: skel.White},
		},
		Skins:       []*skel.Skin{skin, alt},
		DefaultSkin: skin,
		UpdateOrder: []int{0, 1, 2, 3},
	}
}

func TestWorldIsParentTimesLocal(t *testing.T) {
	p := NewPose(testDefinition())
	p.Bones[1].Rotation = 77
	p.UpdateWorldTransforms()

	for _, i := range []int{1, 2} {
		b := &p.Bones[i]
		want := p.Bones[b.Data.Parent].World.Mul3(b.Local())
		assert.True(t, want.ApproxEqualThreshold(b.World, 1e-5), "bone %s", b.Data.Name)
	}
}

func TestRootWorldEqualsLocal(t *testing.T) {
	p := NewPose(testDefinition())
	// Cancel the Y flip so the skeleton transform is the identity.
	if YDown() {
		p.ScaleY = -1
	}
	p.UpdateWorldTransforms()
	root := &p.Bones[0]
	assert.True(t, root.Local().ApproxEqualThreshold(root.World, 1e-6))
	assert.InDelta(t, 30, root.WorldRotation(), 1e-4)
	assert.Equal(t, float32(3), root.WorldX())
	assert.Equal(t, float32(4), root.WorldY())
}

func TestYDownFlipsRoot(t *testing.T) {
	p := NewPose(testDefinition())
	p.X, p.Y = 100, 50
	p.UpdateWorldTransforms()
	root := &p.Bones[0]
	want := float32(4)
	if YDown() {
		want = -4
	}
	assert.InDelta(t, 100+3, root.WorldX(), 1e-5)
	assert.InDelta(t, 50+want, root.WorldY(), 1e-5)
}

func TestSetYDownAfterPosePanics(t *testing.T) {
	NewPose(testDefinition())
	assert.NotPanics(t, func() { SetYDown(YDown()) })
	assert.Panics(t, func() { SetYDown(!YDown()) })
}

func TestOnlyTranslationIgnoresParentRotation(t *testing.T) {
	p := NewPose(testDefinition())
	p.ScaleY = 1
	if YDown() {
		p.ScaleY = -1
	}
	p.UpdateWorldTransforms()
	pinned := &p.Bones[3]
	assert.InDelta(t, 90, pinned.WorldRotation(), 1e-3)

	x, y := p.Bones[1].Transform(1, 1)
	assert.InDelta(t, x, pinned.WorldX(), 1e-5)
	assert.InDelta(t, y, pinned.WorldY(), 1e-5)
}

func TestBoneTransformPoint(t *testing.T) {
	b := &Bone{Data: &skel.BoneData{Parent: -1}, X: 1, Y: 2, Rotation: 90, ScaleX: 1, ScaleY: 1}
	b.updateWorld(nil, mgl32.Ident3())
	x, y := b.Transform(1, 0)
	assert.InDelta(t, 1, x, 1e-6)
	assert.InDelta(t, 3, y, 1e-6)
	assert.InDelta(t, 90, b.WorldRotation(), 1e-4)
}

func TestSetupPoseAndAttachments(t *testing.T) {
	d := testDefinition()
	p := NewPose(d)
	s := &p.Slots[0]
	assert.Equal(t, d.Slots[0].Color, s.Color)
	assert.Equal(t, "a", s.Attachment.Name())
	assert.Nil(t, p.Slots[1].Attachment)

	s.Deform = append(s.Deform, 1, 2)
	p.SetAttachment(0, "b")
	assert.Equal(t, "b", s.Attachment.Name())
	assert.Empty(t, s.Deform)

	p.SetAttachment(0, "")
	assert.Nil(t, s.Attachment)

	p.DrawOrder[0], p.DrawOrder[1] = 1, 0
	p.Bones[2].Rotation = 5
	p.SetToSetupPose()
	assert.Equal(t, []int{0, 1}, p.DrawOrder)
	assert.Equal(t, float32(-20), p.Bones[2].Rotation)
	assert.Equal(t, "a", s.Attachment.Name())
}

func TestSetSkin(t *testing.T) {
	d := testDefinition()
	p := NewPose(d)
	fromDefault := p.Slots[0].Attachment

	require.NoError(t, p.SetSkin("alt"))
	assert.NotSame(t, fromDefault, p.Slots[0].Attachment)
	assert.Same(t, d.Skins[1].Attachment(0, "a"), p.Slots[0].Attachment)
	// Missing in the active skin falls back to the default skin.
	assert.NotNil(t, p.Attachment(0, "b"))

	err := p.SetSkin("missing")
	assert.True(t, errors.Is(err, spineerr.ErrInvalidArgument))
}
