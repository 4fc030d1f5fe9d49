package skel

// TimelineKind identifies the property a curve timeline animates.
type TimelineKind int

const (
	TimelineRotate TimelineKind = iota
	TimelineTranslate
	TimelineTranslateX
	TimelineTranslateY
	TimelineScale
	TimelineScaleX
	TimelineScaleY
	TimelineShear
	TimelineShearX
	TimelineShearY
	TimelineRGBA
	TimelineRGB
	TimelineAlpha
	TimelineRGBA2
	TimelineRGB2
)

// Channels returns the number of values keyed per frame.
func (k TimelineKind) Channels() int {
	switch k {
	case TimelineTranslate, TimelineScale, TimelineShear:
		return 2
	case TimelineRGBA:
		return 4
	case TimelineRGB:
		return 3
	case TimelineRGBA2:
		return 7
	case TimelineRGB2:
		return 6
	}
	return 1
}

// MaxChannels bounds Channels for every kind.
const MaxChannels = 7

// BoneTimeline animates a local transform property of one bone. Values are
// relative to the setup pose: added for rotation, translation and shear,
// multiplied for scale.
type BoneTimeline struct {
	Kind TimelineKind
	Bone int
	CurveTimeline
}

// ColorTimeline animates the light and optionally dark color of a slot.
type ColorTimeline struct {
	Kind TimelineKind
	Slot int
	CurveTimeline
}

// AttachmentTimeline switches a slot's attachment. An empty name clears it.
type AttachmentTimeline struct {
	Slot  int
	Times []float32
	Names []string
}

// Sample returns the key at or before time.
func (t *AttachmentTimeline) Sample(time float32) (string, bool) {
	if len(t.Times) == 0 || time < t.Times[0] {
		return "", false
	}
	i := searchFrame(len(t.Times), time, func(i int) float32 { return t.Times[i] })
	return t.Names[i], true
}

// DeformTimeline keys per-vertex offsets for one attachment in one slot.
// Each frame holds Attachment.VertexData().DeformLength() floats: x,y
// deltas per vertex, or per bone influence for weighted meshes.
type DeformTimeline struct {
	Slot       int
	Attachment VertexAttachment
	Times      []float32
	Vertices   [][]float32
	Curves     []Curve
}

// Sample interpolates the deform offsets at time into out.
func (t *DeformTimeline) Sample(time float32, out []float32) bool {
	n := len(t.Times)
	if n == 0 || time < t.Times[0] {
		return false
	}
	i := searchFrame(n, time, func(i int) float32 { return t.Times[i] })
	if i == n-1 {
		copy(out, t.Vertices[i])
		return true
	}
	p := t.Curves[i].interpolate(time, t.Times[i], 0, t.Times[i+1], 1)
	prev, next := t.Vertices[i], t.Vertices[i+1]
	for j := range out {
		if j >= len(prev) {
			break
		}
		out[j] = prev[j] + (next[j]-prev[j])*p
	}
	return true
}

// DrawOrderTimeline keys permutations of the slot draw order. A nil order
// restores the setup order.
type DrawOrderTimeline struct {
	Times  []float32
	Orders [][]int
}

// Sample returns the order at or before time.
func (t *DrawOrderTimeline) Sample(time float32) ([]int, bool) {
	if t == nil || len(t.Times) == 0 || time < t.Times[0] {
		return nil, false
	}
	i := searchFrame(len(t.Times), time, func(i int) float32 { return t.Times[i] })
	return t.Orders[i], true
}

// Animation is a named, immutable set of timelines.
type Animation struct {
	Name        string
	Duration    float32
	Bones       []BoneTimeline
	Colors      []ColorTimeline
	Attachments []AttachmentTimeline
	Deforms     []DeformTimeline
	DrawOrder   *DrawOrderTimeline
}

// computeDuration sets Duration to the time of the latest key.
func (a *Animation) computeDuration() {
	d := float32(0)
	last := func(ts []float32) {
		if n := len(ts); n > 0 && ts[n-1] > d {
			d = ts[n-1]
		}
	}
	for i := range a.Bones {
		if v := a.Bones[i].Duration(); v > d {
			d = v
		}
	}
	for i := range a.Colors {
		if v := a.Colors[i].Duration(); v > d {
			d = v
		}
	}
	for i := range a.Attachments {
		last(a.Attachments[i].Times)
	}
	for i := range a.Deforms {
		last(a.Deforms[i].Times)
	}
	if a.DrawOrder != nil {
		last(a.DrawOrder.Times)
	}
	a.Duration = d
}

// drawOrderFromOffsets builds a full draw order from sparse slot offsets.
func drawOrderFromOffsets(slotCount int, slots, offsets []int) ([]int, error) {
	order := make([]int, slotCount)
	for i := range order {
		order[i] = -1
	}
	unchanged := make([]int, 0, slotCount)
	original := 0
	for k, slot := range slots {
		if slot < original || slot >= slotCount {
			return nil, errSlotRef(slot)
		}
		for original != slot {
			unchanged = append(unchanged, original)
			original++
		}
		dst := original + offsets[k]
		if dst < 0 || dst >= slotCount || order[dst] != -1 {
			return nil, errDrawOrder(slot, offsets[k])
		}
		order[dst] = original
		original++
	}
	for original < slotCount {
		unchanged = append(unchanged, original)
		original++
	}
	u := len(unchanged) - 1
	for i := slotCount - 1; i >= 0; i-- {
		if order[i] == -1 {
			order[i] = unchanged[u]
			u--
		}
	}
	return order, nil
}
