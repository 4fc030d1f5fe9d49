// Package skeleton holds the mutable runtime pose of a skeleton definition:
// bone transforms, slot colors and attachments, draw order and per-slot
// deform buffers.
package skeleton

import (
	"sync/atomic"

	"github.com/go-gl/mathgl/mgl32"

	"spine-renderer/internal/skel"
	"spine-renderer/internal/spineerr"
)

var (
	yDown       = true
	poseCreated atomic.Bool
)

// SetYDown selects whether world Y grows downward. It must be called before
// the first Pose is created; changing it afterwards panics.
func SetYDown(v bool) {
	if v != yDown && poseCreated.Load() {
		panic("skeleton: Y-down flag changed after a pose was created")
	}
	yDown = v
}

// YDown reports the global Y axis convention.
func YDown() bool { return yDown }

// Slot is the runtime state of one slot.
type Slot struct {
	Data       *skel.SlotData
	Color      skel.Color
	Dark       skel.Color
	Attachment skel.Attachment

	// Deform holds per-vertex offsets for the current attachment. Empty
	// means no deform applies.
	Deform []float32
}

// Bone returns the index of the slot's bone.
func (s *Slot) Bone() int { return s.Data.Bone }

// Pose is one mutable instance of a shared Definition. A Pose is not safe
// for concurrent use.
type Pose struct {
	Def   *skel.Definition
	Bones []Bone
	Slots []Slot
	// DrawOrder lists slot indices back to front.
	DrawOrder []int
	Skin      *skel.Skin

	// Color tints every slot.
	Color          skel.Color
	X, Y           float32
	ScaleX, ScaleY float32
}

// NewPose creates a pose in the setup pose with world transforms computed.
func NewPose(def *skel.Definition) *Pose {
	poseCreated.Store(true)
	p := &Pose{
		Def:       def,
		Bones:     make([]Bone, len(def.Bones)),
		Slots:     make([]Slot, len(def.Slots)),
		DrawOrder: make([]int, len(def.Slots)),
		Color:     skel.White,
		ScaleX:    1,
		ScaleY:    1,
	}
	for i := range p.Bones {
		p.Bones[i].Data = &def.Bones[i]
	}
	for i := range p.Slots {
		p.Slots[i].Data = &def.Slots[i]
	}
	p.SetToSetupPose()
	p.UpdateWorldTransforms()
	return p
}

// SetToSetupPose resets bones, slots and draw order.
func (p *Pose) SetToSetupPose() {
	p.SetBonesToSetupPose()
	p.SetSlotsToSetupPose()
}

// SetBonesToSetupPose resets every bone's local transform.
func (p *Pose) SetBonesToSetupPose() {
	for i := range p.Bones {
		p.Bones[i].SetToSetupPose()
	}
}

// SetSlotsToSetupPose resets colors, attachments, deforms and draw order.
func (p *Pose) SetSlotsToSetupPose() {
	for i := range p.DrawOrder {
		p.DrawOrder[i] = i
	}
	for i := range p.Slots {
		s := &p.Slots[i]
		s.Color = s.Data.Color
		s.Dark = s.Data.Dark
		s.Attachment = nil
		if s.Data.Attachment != "" {
			s.Attachment = p.Attachment(i, s.Data.Attachment)
		}
		s.Deform = s.Deform[:0]
	}
}

// SetSkin activates a skin by name. An empty name deactivates the current
// skin. Slots showing an attachment of the previous skin switch to the
// same-named attachment of the new one.
func (p *Pose) SetSkin(name string) error {
	var skin *skel.Skin
	if name != "" {
		skin = p.Def.FindSkin(name)
		if skin == nil {
			return spineerr.InvalidArgument("skeleton: skin %q not found", name)
		}
	}
	if skin == p.Skin {
		return nil
	}
	p.Skin = skin
	for i := range p.Slots {
		s := &p.Slots[i]
		name := s.Data.Attachment
		if s.Attachment != nil {
			name = s.Attachment.Name()
		}
		if name != "" {
			if a := p.Attachment(i, name); a != nil {
				p.setAttachment(s, a)
			}
		}
	}
	return nil
}

// Attachment looks up an attachment in the active skin, then in the
// default skin.
func (p *Pose) Attachment(slot int, name string) skel.Attachment {
	if p.Skin != nil {
		if a := p.Skin.Attachment(slot, name); a != nil {
			return a
		}
	}
	return p.Def.DefaultSkin.Attachment(slot, name)
}

// SetAttachment switches a slot's attachment by name. An empty or unknown
// name clears it.
func (p *Pose) SetAttachment(slot int, name string) {
	var a skel.Attachment
	if name != "" {
		a = p.Attachment(slot, name)
	}
	p.setAttachment(&p.Slots[slot], a)
}

func (p *Pose) setAttachment(s *Slot, a skel.Attachment) {
	if s.Attachment == a {
		return
	}
	s.Attachment = a
	s.Deform = s.Deform[:0]
}

// RootTransform maps skeleton space to world space: position, scale and
// the Y flip when Y grows downward.
func (p *Pose) RootTransform() mgl32.Mat3 {
	sy := p.ScaleY
	if yDown {
		sy = -sy
	}
	return mgl32.Translate2D(p.X, p.Y).Mul3(mgl32.Scale2D(p.ScaleX, sy))
}

// UpdateWorldTransforms recomputes every bone's world transform, parents
// before children.
func (p *Pose) UpdateWorldTransforms() {
	BuildWorldMatrices(p.Bones, p.Def.UpdateOrder, p.RootTransform())
}

// FindBone returns the bone with the given name, or nil.
func (p *Pose) FindBone(name string) *Bone {
	if i := p.Def.FindBone(name); i >= 0 {
		return &p.Bones[i]
	}
	return nil
}

// FindSlot returns the slot with the given name, or nil.
func (p *Pose) FindSlot(name string) *Slot {
	if i := p.Def.FindSlot(name); i >= 0 {
		return &p.Slots[i]
	}
	return nil
}
