package skel

import (
	"encoding/binary"
	"math"
	"strconv"

	"github.com/pkg/errors"

	"spine-renderer/internal/atlas"
	"spine-renderer/internal/spineerr"
)

// Binary attachment type tags.
const (
	binRegion = iota
	binBoundingBox
	binMesh
	binLinkedMesh
	binPath
	binPoint
	binClipping
)

// Binary curve tags.
const (
	binCurveLinear = iota
	binCurveStepped
	binCurveBezier
)

// cursor is a big-endian reader with bounds-clamped reads. The first read
// past the end records a truncation error and every later read returns zero.
type cursor struct {
	data    []byte
	off     int
	strings []string
	err     error
}

func (c *cursor) truncated() {
	if c.err == nil {
		c.err = spineerr.Malformed("skel: binary data truncated at offset %d", c.off)
	}
	c.off = len(c.data)
}

func (c *cursor) readByte() byte {
	if c.off >= len(c.data) {
		c.truncated()
		return 0
	}
	b := c.data[c.off]
	c.off++
	return b
}

func (c *cursor) readBool() bool { return c.readByte() != 0 }

func (c *cursor) readInt32() int32 {
	if c.off+4 > len(c.data) {
		c.truncated()
		return 0
	}
	v := int32(binary.BigEndian.Uint32(c.data[c.off:]))
	c.off += 4
	return v
}

func (c *cursor) readInt64() int64 {
	if c.off+8 > len(c.data) {
		c.truncated()
		return 0
	}
	v := int64(binary.BigEndian.Uint64(c.data[c.off:]))
	c.off += 8
	return v
}

func (c *cursor) readFloat() float32 {
	return math.Float32frombits(uint32(c.readInt32()))
}

// readVarint reads a 1-5 byte variable length int. Without
// optimizePositive the value is zigzag encoded.
func (c *cursor) readVarint(optimizePositive bool) int {
	var result uint32
	for shift := uint(0); shift < 35; shift += 7 {
		b := c.readByte()
		result |= uint32(b&0x7f) << shift
		if b&0x80 == 0 {
			break
		}
	}
	if !optimizePositive {
		result = (result >> 1) ^ -(result & 1)
	}
	return int(int32(result))
}

// readCount reads a non-negative length that must fit in the remaining data.
func (c *cursor) readCount() int {
	n := c.readVarint(true)
	if n < 0 || n > len(c.data)-c.off {
		c.truncated()
		return 0
	}
	return n
}

// readString returns the string and false for a null string.
func (c *cursor) readString() (string, bool) {
	n := c.readVarint(true)
	switch {
	case n == 0:
		return "", false
	case n == 1:
		return "", true
	}
	n--
	if n < 0 || c.off+n > len(c.data) {
		c.truncated()
		return "", false
	}
	s := string(c.data[c.off : c.off+n])
	c.off += n
	return s, true
}

func (c *cursor) readStringRef() (string, bool) {
	i := c.readVarint(true)
	if i == 0 {
		return "", false
	}
	if i-1 >= len(c.strings) || i < 0 {
		if c.err == nil {
			c.err = spineerr.Malformed("skel: string reference %d out of range", i)
		}
		return "", false
	}
	return c.strings[i-1], true
}

func (c *cursor) readFloats(n int) []float32 {
	if n < 0 || c.off+n*4 > len(c.data) {
		c.truncated()
		return nil
	}
	out := make([]float32, n)
	for i := range out {
		out[i] = c.readFloat()
	}
	return out
}

func (c *cursor) readShorts() []uint16 {
	n := c.readCount()
	out := make([]uint16, n)
	for i := range out {
		hi := c.readByte()
		out[i] = uint16(hi)<<8 | uint16(c.readByte())
	}
	return out
}

func (c *cursor) skipBytes(n int) {
	if n < 0 || c.off+n > len(c.data) {
		c.truncated()
		return
	}
	c.off += n
}

func (c *cursor) skipInts(n int) {
	for i := 0; i < n && c.err == nil; i++ {
		c.readVarint(true)
	}
}

type binaryReader struct {
	*builder
	cursor
	nonessential bool
	eventAudio   []bool
}

func (r *binaryReader) v41() bool { return r.def.Version == Version41 }

// readBinary parses a binary skeleton against an already loaded atlas.
func readBinary(data []byte, version Version, a *atlas.Atlas) (*Definition, error) {
	r := &binaryReader{builder: newBuilder(version, a), cursor: cursor{data: data}}
	d := r.def

	if r.v41() {
		if h := r.readInt64(); h != 0 {
			d.Hash = strconv.FormatInt(h, 10)
		}
	} else {
		d.Hash, _ = r.readString()
	}
	d.SpineVersion, _ = r.readString()
	if r.err != nil {
		return nil, r.err
	}
	if err := checkVersion(d.SpineVersion, version); err != nil {
		return nil, err
	}
	d.X, d.Y = r.readFloat(), r.readFloat()
	d.Width, d.Height = r.readFloat(), r.readFloat()
	r.nonessential = r.readBool()
	if r.nonessential {
		d.FPS = r.readFloat()
		d.ImagesPath, _ = r.readString()
		r.readString() // audio
	}

	n := r.readCount()
	r.strings = make([]string, n)
	for i := range r.strings {
		r.strings[i], _ = r.readString()
	}

	steps := []func() error{
		r.readBones,
		r.readSlots,
		r.skipConstraints,
		r.readSkins,
		r.readEvents,
		r.readAnimations,
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return nil, err
		}
		if r.err != nil {
			return nil, r.err
		}
	}
	return r.finish()
}

func (r *binaryReader) readBones() error {
	d := r.def
	n := r.readCount()
	d.Bones = make([]BoneData, n)
	for i := 0; i < n && r.err == nil; i++ {
		bd := BoneData{Index: i, Parent: -1}
		bd.Name, _ = r.readString()
		if i > 0 {
			bd.Parent = r.readVarint(true)
			if bd.Parent < 0 || bd.Parent >= i {
				return spineerr.Malformed("skel: bone %q: parent index %d", bd.Name, bd.Parent)
			}
		}
		bd.Rotation = r.readFloat()
		bd.X, bd.Y = r.readFloat(), r.readFloat()
		bd.ScaleX, bd.ScaleY = r.readFloat(), r.readFloat()
		bd.ShearX, bd.ShearY = r.readFloat(), r.readFloat()
		bd.Length = r.readFloat()
		mode := r.readVarint(true)
		if mode < 0 || mode > int(TransformNoScaleOrReflection) {
			return spineerr.Malformed("skel: bone %q: transform mode %d", bd.Name, mode)
		}
		bd.TransformMode = TransformMode(mode)
		bd.SkinRequired = r.readBool()
		if r.nonessential {
			r.readInt32() // color
		}
		d.Bones[i] = bd
	}
	return nil
}

func (r *binaryReader) readSlots() error {
	d := r.def
	n := r.readCount()
	d.Slots = make([]SlotData, n)
	for i := 0; i < n && r.err == nil; i++ {
		sd := SlotData{Index: i}
		sd.Name, _ = r.readString()
		sd.Bone = r.readVarint(true)
		if sd.Bone < 0 || sd.Bone >= len(d.Bones) {
			return spineerr.Malformed("skel: slot %q: bone index %d", sd.Name, sd.Bone)
		}
		sd.Color = ColorRGBA8888(uint32(r.readInt32()))
		if dark := r.readInt32(); dark != -1 {
			sd.Dark, sd.HasDark = ColorRGB888(uint32(dark)), true
		}
		sd.Attachment, _ = r.readStringRef()
		blend := r.readVarint(true)
		if blend < 0 || blend > int(BlendScreen) {
			return spineerr.Malformed("skel: slot %q: blend mode %d", sd.Name, blend)
		}
		sd.Blend = BlendMode(blend)
		d.Slots[i] = sd
	}
	return nil
}

// skipConstraints reads IK, transform and path constraints, which are not
// solved by this runtime.
func (r *binaryReader) skipConstraints() error {
	transformMixes, pathMixes := 4, 2
	if r.v41() {
		transformMixes, pathMixes = 6, 3
	}
	for i, n := 0, r.readCount(); i < n && r.err == nil; i++ { // ik
		r.readString()
		r.readVarint(true)
		r.readBool()
		r.skipInts(r.readCount())
		r.readVarint(true)
		r.skipBytes(4 + 4 + 1 + 3)
	}
	for i, n := 0, r.readCount(); i < n && r.err == nil; i++ { // transform
		r.readString()
		r.readVarint(true)
		r.readBool()
		r.skipInts(r.readCount())
		r.readVarint(true)
		r.skipBytes(2 + 6*4 + transformMixes*4)
	}
	for i, n := 0, r.readCount(); i < n && r.err == nil; i++ { // path
		r.readString()
		r.readVarint(true)
		r.readBool()
		r.skipInts(r.readCount())
		r.readVarint(true)
		r.skipInts(3)
		r.skipBytes(3*4 + pathMixes*4)
	}
	return nil
}

func (r *binaryReader) readSkins() error {
	d := r.def
	def, err := r.readSkin(true)
	if err != nil {
		return err
	}
	if def != nil {
		d.DefaultSkin = def
		d.Skins = append(d.Skins, def)
	}
	for i, n := 0, r.readCount(); i < n && r.err == nil; i++ {
		s, err := r.readSkin(false)
		if err != nil {
			return err
		}
		d.Skins = append(d.Skins, s)
	}
	return nil
}

func (r *binaryReader) readSkin(isDefault bool) (*Skin, error) {
	var skin *Skin
	var slotCount int
	if isDefault {
		slotCount = r.readCount()
		if slotCount == 0 {
			return nil, nil
		}
		skin = NewSkin("default")
	} else {
		name, _ := r.readStringRef()
		skin = NewSkin(name)
		for i, n := 0, r.readCount(); i < n && r.err == nil; i++ {
			b := r.readVarint(true)
			if b < 0 || b >= len(r.def.Bones) {
				return nil, spineerr.Malformed("skel: skin %q: bone index %d", name, b)
			}
			skin.Bones = append(skin.Bones, b)
		}
		r.skipInts(r.readCount()) // ik
		r.skipInts(r.readCount()) // transform
		r.skipInts(r.readCount()) // path
		slotCount = r.readCount()
	}
	for i := 0; i < slotCount && r.err == nil; i++ {
		slot := r.readVarint(true)
		if slot < 0 || slot >= len(r.def.Slots) {
			return nil, spineerr.Malformed("skel: skin %q: slot index %d", skin.Name, slot)
		}
		for j, n := 0, r.readCount(); j < n && r.err == nil; j++ {
			key, _ := r.readStringRef()
			att, err := r.readAttachment(skin.Name, slot, key)
			if err != nil {
				return nil, errors.WithMessagef(err, "skin %q", skin.Name)
			}
			if att != nil {
				skin.SetAttachment(slot, key, att)
			}
		}
	}
	return skin, nil
}

func (r *binaryReader) readSequence() *sequence {
	if !r.v41() || !r.readBool() {
		return nil
	}
	s := &sequence{}
	s.count = r.readVarint(true)
	s.start = r.readVarint(true)
	s.digits = r.readVarint(true)
	s.setup = r.readVarint(true)
	return s
}

func (r *binaryReader) readVertices(count int) (Vertices, error) {
	if !r.readBool() {
		return Vertices{Values: r.readFloats(count * 2), Count: count}, nil
	}
	v := Vertices{Count: count}
	for i := 0; i < count && r.err == nil; i++ {
		n := r.readCount()
		v.Bones = append(v.Bones, n)
		for j := 0; j < n && r.err == nil; j++ {
			bone := r.readVarint(true)
			if bone < 0 || bone >= len(r.def.Bones) {
				return v, spineerr.Malformed("skel: weighted vertex bone %d out of range", bone)
			}
			v.Bones = append(v.Bones, bone)
			v.Values = append(v.Values, r.readFloat(), r.readFloat(), r.readFloat())
		}
	}
	return v, nil
}

func (r *binaryReader) readAttachment(skin string, slot int, key string) (Attachment, error) {
	name, ok := r.readStringRef()
	if !ok {
		name = key
	}
	kind := r.readByte()
	switch kind {
	case binRegion:
		path, ok := r.readStringRef()
		if !ok {
			path = name
		}
		reg := &RegionAttachment{AttachmentName: name, Path: path}
		reg.Rotation = r.readFloat()
		reg.X, reg.Y = r.readFloat(), r.readFloat()
		reg.ScaleX, reg.ScaleY = r.readFloat(), r.readFloat()
		reg.Width, reg.Height = r.readFloat(), r.readFloat()
		reg.Color = ColorRGBA8888(uint32(r.readInt32()))
		seq := r.readSequence()
		if r.err != nil {
			return nil, r.err
		}
		if err := r.finishRegion(reg, seq); err != nil {
			return nil, err
		}
		return reg, nil
	case binBoundingBox:
		if _, err := r.readVertices(r.readCount()); err != nil {
			return nil, err
		}
		if r.nonessential {
			r.readInt32()
		}
		r.skipKind("boundingbox")
		return &UnsupportedAttachment{AttachmentName: name, Type: "boundingbox"}, nil
	case binMesh:
		path, ok := r.readStringRef()
		if !ok {
			path = name
		}
		m := &MeshAttachment{AttachmentName: name, Path: path}
		m.Color = ColorRGBA8888(uint32(r.readInt32()))
		count := r.readCount()
		m.RegionUVs = r.readFloats(count * 2)
		m.Triangles = r.readShorts()
		v, err := r.readVertices(count)
		if err != nil {
			return nil, err
		}
		m.Vertices = v
		m.HullLength = r.readVarint(true) * 2
		seq := r.readSequence()
		if r.nonessential {
			m.Edges = r.readShorts()
			m.Width, m.Height = r.readFloat(), r.readFloat()
		}
		if r.err != nil {
			return nil, r.err
		}
		if err := r.finishMesh(m, seq); err != nil {
			return nil, err
		}
		return m, nil
	case binLinkedMesh:
		path, ok := r.readStringRef()
		if !ok {
			path = name
		}
		m := &MeshAttachment{AttachmentName: name, Path: path}
		m.Color = ColorRGBA8888(uint32(r.readInt32()))
		skinName, _ := r.readStringRef()
		parent, _ := r.readStringRef()
		inherit := r.readBool()
		seq := r.readSequence()
		if r.nonessential {
			m.Width, m.Height = r.readFloat(), r.readFloat()
		}
		if r.err != nil {
			return nil, r.err
		}
		if err := r.addLinkedMesh(m, skinName, slot, parent, inherit, seq); err != nil {
			return nil, err
		}
		return m, nil
	case binPath:
		r.readBool() // closed
		r.readBool() // constant speed
		count := r.readCount()
		if _, err := r.readVertices(count); err != nil {
			return nil, err
		}
		r.readFloats(count / 3)
		if r.nonessential {
			r.readInt32()
		}
		r.skipKind("path")
		return &UnsupportedAttachment{AttachmentName: name, Type: "path"}, nil
	case binPoint:
		r.readFloats(3)
		if r.nonessential {
			r.readInt32()
		}
		r.skipKind("point")
		return &UnsupportedAttachment{AttachmentName: name, Type: "point"}, nil
	case binClipping:
		c := &ClippingAttachment{AttachmentName: name, Color: White}
		c.EndSlot = r.readVarint(true)
		if c.EndSlot < 0 || c.EndSlot >= len(r.def.Slots) {
			return nil, spineerr.Malformed("skel: clipping %q: end slot %d", name, c.EndSlot)
		}
		v, err := r.readVertices(r.readCount())
		if err != nil {
			return nil, err
		}
		c.Vertices = v
		if r.nonessential {
			c.Color = ColorRGBA8888(uint32(r.readInt32()))
		}
		return c, nil
	}
	// Later attachment kinds have unknown layouts, so the stream cannot
	// be resynchronized.
	return nil, spineerr.Malformed("skel: attachment %q: unknown type %d", name, kind)
}

func (r *binaryReader) readEvents() error {
	n := r.readCount()
	for i := 0; i < n && r.err == nil; i++ {
		name, _ := r.readStringRef()
		r.readVarint(false)
		r.readFloat()
		r.readString()
		_, audio := r.readString()
		if audio {
			r.readFloats(2)
		}
		r.def.Events = append(r.def.Events, name)
		r.eventAudio = append(r.eventAudio, audio)
	}
	return nil
}

func (r *binaryReader) readAnimations() error {
	n := r.readCount()
	for i := 0; i < n && r.err == nil; i++ {
		name, _ := r.readString()
		anim, err := r.readAnimation(name)
		if err != nil {
			return errors.WithMessagef(err, "animation %q", name)
		}
		r.def.Animations = append(r.def.Animations, anim)
	}
	return nil
}

func (r *binaryReader) readAnimation(name string) (*Animation, error) {
	anim := &Animation{Name: name}
	if r.v41() {
		r.readVarint(true) // timeline count hint
	}
	if err := r.readSlotTimelines(anim); err != nil {
		return nil, err
	}
	if err := r.readBoneTimelines(anim); err != nil {
		return nil, err
	}
	r.skipConstraintTimelines()
	if err := r.readDeformTimelines(anim); err != nil {
		return nil, err
	}
	if err := r.readDrawOrder(anim); err != nil {
		return nil, err
	}
	r.skipEventTimeline()
	return anim, r.err
}

// readCurve41 reads the 4.1 curve of interval frame with absolute control
// points per channel.
func (r *binaryReader) readCurve41(tl *CurveTimeline, frame int) {
	switch r.readByte() {
	case binCurveStepped:
		for c := 0; c < tl.Channels; c++ {
			tl.setCurve(frame, c, Stepped)
		}
	case binCurveBezier:
		for c := 0; c < tl.Channels; c++ {
			cs := r.readFloats(4)
			if cs == nil {
				return
			}
			tl.setCurve(frame, c, Curve{Kind: CurveBezier, CX1: cs[0], CY1: cs[1], CX2: cs[2], CY2: cs[3]})
		}
	}
}

// readFrames38 reads keys whose values are produced by read, each followed
// by a curve except the last. 3.8 reads the curve only after the next key
// time is known, so frames are filled first and curves kept raw.
func (r *binaryReader) readFrames38(tl *CurveTimeline, read func() []float32) {
	n := tl.FrameCount()
	type rawCurve struct {
		kind byte
		cs   []float32
	}
	curves := make([]rawCurve, n)
	for f := 0; f < n && r.err == nil; f++ {
		time := r.readFloat()
		tl.setFrame(f, time, read()...)
		if f < n-1 {
			rc := rawCurve{kind: r.readByte()}
			if rc.kind == binCurveBezier {
				rc.cs = r.readFloats(4)
			}
			curves[f] = rc
		}
	}
	for f := 0; f+1 < n && r.err == nil; f++ {
		switch curves[f].kind {
		case binCurveStepped:
			for c := 0; c < tl.Channels; c++ {
				tl.setCurve(f, c, Stepped)
			}
		case binCurveBezier:
			cs := curves[f].cs
			t0, t1 := tl.FrameTime(f), tl.FrameTime(f+1)
			for c := 0; c < tl.Channels; c++ {
				tl.setCurve(f, c, percentCurve(cs[0], cs[1], cs[2], cs[3], t0, tl.Value(f, c), t1, tl.Value(f+1, c)))
			}
		}
	}
}

// readFrames41 reads a 4.1 curve timeline: the first key, then for every
// following key its values and the curve of the interval before it.
func (r *binaryReader) readFrames41(tl *CurveTimeline, read func() []float32) {
	n := tl.FrameCount()
	if n == 0 {
		return
	}
	tl.setFrame(0, r.readFloat(), read()...)
	for f := 1; f < n && r.err == nil; f++ {
		tl.setFrame(f, r.readFloat(), read()...)
		r.readCurve41(tl, f-1)
	}
}

func (r *binaryReader) readFrames(tl *CurveTimeline, read func() []float32) {
	if r.v41() {
		r.readFrames41(tl, read)
	} else {
		r.readFrames38(tl, read)
	}
}

func (r *binaryReader) floats(n int) func() []float32 {
	return func() []float32 { return r.readFloats(n) }
}

func (r *binaryReader) byteColors(n int) func() []float32 {
	return func() []float32 {
		out := make([]float32, n)
		for i := range out {
			out[i] = float32(r.readByte()) / 255
		}
		return out
	}
}

func (r *binaryReader) readSlotTimelines(anim *Animation) error {
	for i, n := 0, r.readCount(); i < n && r.err == nil; i++ {
		slot := r.readVarint(true)
		if slot < 0 || slot >= len(r.def.Slots) {
			return spineerr.Malformed("skel: slot timeline: slot index %d", slot)
		}
		for j, m := 0, r.readCount(); j < m && r.err == nil; j++ {
			kind := r.readByte()
			frames := r.readCount()
			if kind == 0 {
				at := AttachmentTimeline{Slot: slot, Times: make([]float32, frames), Names: make([]string, frames)}
				for f := 0; f < frames; f++ {
					at.Times[f] = r.readFloat()
					at.Names[f], _ = r.readStringRef()
				}
				anim.Attachments = append(anim.Attachments, at)
				continue
			}
			var tk TimelineKind
			if r.v41() {
				r.readVarint(true) // bezier count
				switch kind {
				case 1:
					tk = TimelineRGBA
				case 2:
					tk = TimelineRGB
				case 3:
					tk = TimelineRGBA2
				case 4:
					tk = TimelineRGB2
				case 5:
					tk = TimelineAlpha
				default:
					return spineerr.Malformed("skel: slot timeline type %d", kind)
				}
			} else {
				switch kind {
				case 1:
					tk = TimelineRGBA
				case 2:
					tk = TimelineRGBA2
				default:
					return spineerr.Malformed("skel: slot timeline type %d", kind)
				}
			}
			tl := ColorTimeline{Kind: tk, Slot: slot, CurveTimeline: newCurveTimeline(tk.Channels(), frames)}
			if r.v41() {
				r.readFrames(&tl.CurveTimeline, r.byteColors(tk.Channels()))
			} else {
				r.readFrames(&tl.CurveTimeline, func() []float32 {
					light := ColorRGBA8888(uint32(r.readInt32()))
					if tk == TimelineRGBA {
						return []float32{light.R, light.G, light.B, light.A}
					}
					dark := ColorRGB888(uint32(r.readInt32()))
					return []float32{light.R, light.G, light.B, light.A, dark.R, dark.G, dark.B}
				})
			}
			anim.Colors = append(anim.Colors, tl)
		}
	}
	return nil
}

var boneTimelines38 = []TimelineKind{TimelineRotate, TimelineTranslate, TimelineScale, TimelineShear}

var boneTimelines41 = []TimelineKind{
	TimelineRotate, TimelineTranslate, TimelineTranslateX, TimelineTranslateY,
	TimelineScale, TimelineScaleX, TimelineScaleY,
	TimelineShear, TimelineShearX, TimelineShearY,
}

func (r *binaryReader) readBoneTimelines(anim *Animation) error {
	kinds := boneTimelines38
	if r.v41() {
		kinds = boneTimelines41
	}
	for i, n := 0, r.readCount(); i < n && r.err == nil; i++ {
		bone := r.readVarint(true)
		if bone < 0 || bone >= len(r.def.Bones) {
			return spineerr.Malformed("skel: bone timeline: bone index %d", bone)
		}
		for j, m := 0, r.readCount(); j < m && r.err == nil; j++ {
			kind := int(r.readByte())
			frames := r.readCount()
			if r.v41() {
				r.readVarint(true) // bezier count
			}
			if kind >= len(kinds) {
				return spineerr.Malformed("skel: bone timeline type %d", kind)
			}
			tk := kinds[kind]
			tl := BoneTimeline{Kind: tk, Bone: bone, CurveTimeline: newCurveTimeline(tk.Channels(), frames)}
			r.readFrames(&tl.CurveTimeline, r.floats(tk.Channels()))
			anim.Bones = append(anim.Bones, tl)
		}
	}
	return nil
}

// skipConstraintTimelines consumes IK, transform and path timelines.
func (r *binaryReader) skipConstraintTimelines() {
	skipTimeline := func(frames, floats, bytes int) {
		if r.v41() {
			r.readVarint(true) // bezier count
		}
		tl := newCurveTimeline(floats, frames)
		if r.v41() {
			// First key, then per key: values, curve of previous interval.
			for f := 0; f < frames && r.err == nil; f++ {
				tl.setFrame(f, r.readFloat(), r.readFloats(floats)...)
				if f > 0 {
					r.readCurve41(&tl, f-1)
				}
				r.skipBytes(bytes)
			}
			return
		}
		for f := 0; f < frames && r.err == nil; f++ {
			r.readFloat()
			r.readFloats(floats)
			r.skipBytes(bytes)
			if f < frames-1 {
				if r.readByte() == binCurveBezier {
					r.readFloats(4)
				}
			}
		}
	}

	ikFloats, transformFloats := 2, 4
	if r.v41() {
		transformFloats = 6
	}
	for i, n := 0, r.readCount(); i < n && r.err == nil; i++ { // ik
		r.readVarint(true)
		skipTimeline(r.readCount(), ikFloats, 3)
	}
	for i, n := 0, r.readCount(); i < n && r.err == nil; i++ { // transform
		r.readVarint(true)
		skipTimeline(r.readCount(), transformFloats, 0)
	}
	for i, n := 0, r.readCount(); i < n && r.err == nil; i++ { // path
		r.readVarint(true)
		for j, m := 0, r.readCount(); j < m && r.err == nil; j++ {
			kind := r.readByte()
			frames := r.readCount()
			floats := 1
			if kind == 2 {
				floats = 2
				if r.v41() {
					floats = 3
				}
			}
			skipTimeline(frames, floats, 0)
		}
	}
}

func (r *binaryReader) readDeformTimelines(anim *Animation) error {
	d := r.def
	for i, n := 0, r.readCount(); i < n && r.err == nil; i++ {
		si := r.readVarint(true)
		if si < 0 || si >= len(d.Skins) {
			return spineerr.Malformed("skel: deform timeline: skin index %d", si)
		}
		skin := d.Skins[si]
		for j, m := 0, r.readCount(); j < m && r.err == nil; j++ {
			slot := r.readVarint(true)
			if slot < 0 || slot >= len(d.Slots) {
				return spineerr.Malformed("skel: deform timeline: slot index %d", slot)
			}
			for k, o := 0, r.readCount(); k < o && r.err == nil; k++ {
				name, _ := r.readStringRef()
				kind := byte(0)
				if r.v41() {
					kind = r.readByte()
				}
				frames := r.readCount()
				if kind == 1 {
					// Sequence frames: time, mode and index, delay.
					for f := 0; f < frames && r.err == nil; f++ {
						r.skipBytes(12)
					}
					r.skipKind("sequence timeline")
					continue
				}
				va, ok := skin.Attachment(slot, name).(VertexAttachment)
				if !ok {
					return spineerr.Malformed("skel: deform attachment %q not found", name)
				}
				tl, err := r.readDeform(slot, va, frames)
				if err != nil {
					return err
				}
				anim.Deforms = append(anim.Deforms, tl)
			}
		}
	}
	return nil
}

func (r *binaryReader) readDeform(slot int, va VertexAttachment, frames int) (DeformTimeline, error) {
	length := va.VertexData().DeformLength()
	tl := DeformTimeline{
		Slot:       slot,
		Attachment: va,
		Times:      make([]float32, frames),
		Vertices:   make([][]float32, frames),
		Curves:     make([]Curve, frames),
	}
	readKey := func(f int) error {
		v := make([]float32, length)
		if end := r.readVarint(true); end != 0 {
			start := r.readVarint(true)
			if start < 0 || end < 0 || start+end > length {
				return spineerr.Malformed("skel: deform %q key %d out of range", va.Name(), f)
			}
			copy(v[start:], r.readFloats(end))
		}
		tl.Vertices[f] = v
		return nil
	}

	if r.v41() {
		r.readVarint(true) // bezier count
		if frames == 0 {
			return tl, nil
		}
		tl.Times[0] = r.readFloat()
		for f := 0; f < frames && r.err == nil; f++ {
			if err := readKey(f); err != nil {
				return tl, err
			}
			if f == frames-1 {
				break
			}
			tl.Times[f+1] = r.readFloat()
			switch r.readByte() {
			case binCurveStepped:
				tl.Curves[f] = Stepped
			case binCurveBezier:
				if cs := r.readFloats(4); cs != nil {
					tl.Curves[f] = Curve{Kind: CurveBezier, CX1: cs[0], CY1: cs[1], CX2: cs[2], CY2: cs[3]}
				}
			}
		}
		return tl, r.err
	}

	raw := make([][]float32, frames)
	for f := 0; f < frames && r.err == nil; f++ {
		tl.Times[f] = r.readFloat()
		if err := readKey(f); err != nil {
			return tl, err
		}
		if f < frames-1 {
			switch r.readByte() {
			case binCurveStepped:
				tl.Curves[f] = Stepped
			case binCurveBezier:
				raw[f] = r.readFloats(4)
			}
		}
	}
	for f, cs := range raw {
		if cs != nil && f+1 < frames {
			tl.Curves[f] = percentCurve(cs[0], cs[1], cs[2], cs[3], tl.Times[f], 0, tl.Times[f+1], 1)
		}
	}
	return tl, r.err
}

func (r *binaryReader) readDrawOrder(anim *Animation) error {
	n := r.readCount()
	if n == 0 {
		return nil
	}
	slotCount := len(r.def.Slots)
	dt := &DrawOrderTimeline{Times: make([]float32, n), Orders: make([][]int, n)}
	for i := 0; i < n && r.err == nil; i++ {
		dt.Times[i] = r.readFloat()
		m := r.readCount()
		if m == 0 {
			continue
		}
		slots := make([]int, m)
		offsets := make([]int, m)
		for j := 0; j < m; j++ {
			slots[j] = r.readVarint(true)
			offsets[j] = r.readVarint(true)
		}
		if r.err != nil {
			break
		}
		order, err := drawOrderFromOffsets(slotCount, slots, offsets)
		if err != nil {
			return err
		}
		dt.Orders[i] = order
	}
	anim.DrawOrder = dt
	return nil
}

func (r *binaryReader) skipEventTimeline() {
	for i, n := 0, r.readCount(); i < n && r.err == nil; i++ {
		r.readFloat()
		e := r.readVarint(true)
		r.readVarint(false)
		r.readFloat()
		if r.readBool() {
			r.readString()
		}
		if e >= 0 && e < len(r.eventAudio) && r.eventAudio[e] {
			r.readFloats(2)
		}
	}
}
