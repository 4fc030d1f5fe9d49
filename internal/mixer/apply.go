package mixer

import (
	"math"

	"spine-renderer/internal/skel"
	"spine-renderer/internal/skeleton"
)

// Apply resets the pose to its setup state and applies every track in
// index order. Transform and deform timelines blend from the value below
// toward the sampled value by the track's fade weight; color, attachment
// and draw order timelines overwrite it. World transforms are not updated.
func (m *Mixer) Apply(p *skeleton.Pose) {
	p.SetToSetupPose()
	for _, t := range m.tracks {
		if t == nil {
			continue
		}
		if t.from != nil {
			m.applyAnimation(p, t.from.Animation, t.from.Time, 1)
		}
		m.applyAnimation(p, t.Animation, t.Time, m.curve(t.Weight()))
	}
}

func (m *Mixer) applyAnimation(p *skeleton.Pose, a *skel.Animation, time, w float32) {
	var values [skel.MaxChannels]float32
	for i := range a.Bones {
		tl := &a.Bones[i]
		b := &p.Bones[tl.Bone]
		if !tl.Sample(time, values[:]) {
			// Before the first key the target is the setup pose.
			values = setupValues(tl.Kind)
		}
		applyBone(b, tl.Kind, values[:], w)
	}

	for i := range a.Colors {
		tl := &a.Colors[i]
		if !tl.Sample(time, values[:]) {
			continue
		}
		applyColor(&p.Slots[tl.Slot], tl.Kind, values[:])
	}

	for i := range a.Attachments {
		tl := &a.Attachments[i]
		if name, ok := tl.Sample(time); ok {
			p.SetAttachment(tl.Slot, name)
		}
	}

	for i := range a.Deforms {
		m.applyDeform(p, &a.Deforms[i], time, w)
	}

	if order, ok := a.DrawOrder.Sample(time); ok {
		if order == nil {
			for i := range p.DrawOrder {
				p.DrawOrder[i] = i
			}
		} else {
			copy(p.DrawOrder, order)
		}
	}
}

func setupValues(kind skel.TimelineKind) [skel.MaxChannels]float32 {
	switch kind {
	case skel.TimelineScale, skel.TimelineScaleX, skel.TimelineScaleY:
		return [skel.MaxChannels]float32{1, 1}
	}
	return [skel.MaxChannels]float32{}
}

func lerp(from, to, w float32) float32 { return from + (to-from)*w }

// lerpAngle blends rotations along the shorter arc. A full weight lands
// exactly on the target.
func lerpAngle(from, to, w float32) float32 {
	if w >= 1 {
		return to
	}
	d := float64(to - from)
	d -= 360 * math.Floor(d/360+0.5)
	return from + float32(d)*w
}

func applyBone(b *skeleton.Bone, kind skel.TimelineKind, v []float32, w float32) {
	d := b.Data
	switch kind {
	case skel.TimelineRotate:
		b.Rotation = lerpAngle(b.Rotation, d.Rotation+v[0], w)
	case skel.TimelineTranslate:
		b.X = lerp(b.X, d.X+v[0], w)
		b.Y = lerp(b.Y, d.Y+v[1], w)
	case skel.TimelineTranslateX:
		b.X = lerp(b.X, d.X+v[0], w)
	case skel.TimelineTranslateY:
		b.Y = lerp(b.Y, d.Y+v[0], w)
	case skel.TimelineScale:
		b.ScaleX = lerp(b.ScaleX, d.ScaleX*v[0], w)
		b.ScaleY = lerp(b.ScaleY, d.ScaleY*v[1], w)
	case skel.TimelineScaleX:
		b.ScaleX = lerp(b.ScaleX, d.ScaleX*v[0], w)
	case skel.TimelineScaleY:
		b.ScaleY = lerp(b.ScaleY, d.ScaleY*v[0], w)
	case skel.TimelineShear:
		b.ShearX = lerp(b.ShearX, d.ShearX+v[0], w)
		b.ShearY = lerp(b.ShearY, d.ShearY+v[1], w)
	case skel.TimelineShearX:
		b.ShearX = lerp(b.ShearX, d.ShearX+v[0], w)
	case skel.TimelineShearY:
		b.ShearY = lerp(b.ShearY, d.ShearY+v[0], w)
	}
}

func applyColor(s *skeleton.Slot, kind skel.TimelineKind, v []float32) {
	switch kind {
	case skel.TimelineRGBA:
		s.Color = skel.Color{R: v[0], G: v[1], B: v[2], A: v[3]}
	case skel.TimelineRGB:
		s.Color.R, s.Color.G, s.Color.B = v[0], v[1], v[2]
	case skel.TimelineAlpha:
		s.Color.A = v[0]
	case skel.TimelineRGBA2:
		s.Color = skel.Color{R: v[0], G: v[1], B: v[2], A: v[3]}
		s.Dark = skel.Color{R: v[4], G: v[5], B: v[6], A: 1}
	case skel.TimelineRGB2:
		s.Color.R, s.Color.G, s.Color.B = v[0], v[1], v[2]
		s.Dark = skel.Color{R: v[3], G: v[4], B: v[5], A: 1}
	}
}

// applyDeform blends keyed vertex offsets into the slot's deform buffer
// when the slot shows the keyed attachment, or a linked mesh inheriting
// its deforms.
func (m *Mixer) applyDeform(p *skeleton.Pose, tl *skel.DeformTimeline, time, w float32) {
	s := &p.Slots[tl.Slot]
	if s.Attachment == nil {
		return
	}
	if s.Attachment != skel.Attachment(tl.Attachment) {
		mesh, ok := s.Attachment.(*skel.MeshAttachment)
		if !ok || mesh.DeformSource() != skel.Attachment(tl.Attachment) {
			return
		}
	}
	n := tl.Attachment.VertexData().DeformLength()
	if cap(m.scratch) < n {
		m.scratch = make([]float32, n)
	}
	sampled := m.scratch[:n]
	if !tl.Sample(time, sampled) {
		return
	}
	if len(s.Deform) != n {
		if cap(s.Deform) < n {
			s.Deform = make([]float32, n)
		} else {
			s.Deform = s.Deform[:n]
			clear(s.Deform)
		}
	}
	for i, v := range sampled {
		s.Deform[i] = lerp(s.Deform[i], v, w)
	}
}
