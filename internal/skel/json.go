package skel

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/pkg/errors"

	"spine-renderer/internal/atlas"
	"spine-renderer/internal/spineerr"
)

type jsonRoot struct {
	Skeleton   *jsonSkeleton   `json:"skeleton"`
	Bones      []jsonBone      `json:"bones"`
	Slots      []jsonSlot      `json:"slots"`
	Skins      json.RawMessage `json:"skins"`
	Events     json.RawMessage `json:"events"`
	Animations json.RawMessage `json:"animations"`
}

type jsonSkeleton struct {
	Hash   string  `json:"hash"`
	Spine  string  `json:"spine"`
	X      float32 `json:"x"`
	Y      float32 `json:"y"`
	Width  float32 `json:"width"`
	Height float32 `json:"height"`
	FPS    float32 `json:"fps"`
	Images string  `json:"images"`
}

type jsonBone struct {
	Name      string  `json:"name"`
	Parent    string  `json:"parent"`
	Length    float32 `json:"length"`
	X         float32 `json:"x"`
	Y         float32 `json:"y"`
	Rotation  float32 `json:"rotation"`
	ScaleX    float32 `json:"scaleX"`
	ScaleY    float32 `json:"scaleY"`
	ShearX    float32 `json:"shearX"`
	ShearY    float32 `json:"shearY"`
	Transform string  `json:"transform"`
	Skin      bool    `json:"skin"`
}

func (b *jsonBone) UnmarshalJSON(data []byte) error {
	type plain jsonBone
	p := plain{ScaleX: 1, ScaleY: 1, Transform: "normal"}
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*b = jsonBone(p)
	return nil
}

type jsonSlot struct {
	Name       string  `json:"name"`
	Bone       string  `json:"bone"`
	Color      string  `json:"color"`
	Dark       string  `json:"dark"`
	Attachment *string `json:"attachment"`
	Blend      string  `json:"blend"`
}

type jsonSkin struct {
	Name        string          `json:"name"`
	Bones       []string        `json:"bones"`
	Attachments json.RawMessage `json:"attachments"`
}

type jsonSequence struct {
	Count  int `json:"count"`
	Start  int `json:"start"`
	Digits int `json:"digits"`
	Setup  int `json:"setup"`
}

type jsonAttachment struct {
	Type        string        `json:"type"`
	Name        string        `json:"name"`
	Path        string        `json:"path"`
	X           float32       `json:"x"`
	Y           float32       `json:"y"`
	ScaleX      float32       `json:"scaleX"`
	ScaleY      float32       `json:"scaleY"`
	Rotation    float32       `json:"rotation"`
	Width       float32       `json:"width"`
	Height      float32       `json:"height"`
	Color       string        `json:"color"`
	UVs         []float32     `json:"uvs"`
	Triangles   []uint16      `json:"triangles"`
	Vertices    []float32     `json:"vertices"`
	VertexCount int           `json:"vertexCount"`
	Hull        int           `json:"hull"`
	Edges       []uint16      `json:"edges"`
	Parent      string        `json:"parent"`
	Skin        string        `json:"skin"`
	Deform      bool          `json:"deform"`
	Timelines   bool          `json:"timelines"`
	End         string        `json:"end"`
	Sequence    *jsonSequence `json:"sequence"`
}

func (a *jsonAttachment) UnmarshalJSON(data []byte) error {
	type plain jsonAttachment
	p := plain{Type: "region", ScaleX: 1, ScaleY: 1, Deform: true, Timelines: true}
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*a = jsonAttachment(p)
	return nil
}

// jsonKey is the union of every keyframe field used by the timelines read.
type jsonKey struct {
	Time     float32         `json:"time"`
	Angle    *float32        `json:"angle"`
	Value    *float32        `json:"value"`
	X        *float32        `json:"x"`
	Y        *float32        `json:"y"`
	Color    string          `json:"color"`
	Light    string          `json:"light"`
	Dark     string          `json:"dark"`
	Name     *string         `json:"name"`
	Curve    json.RawMessage `json:"curve"`
	C2       *float32        `json:"c2"`
	C3       *float32        `json:"c3"`
	C4       *float32        `json:"c4"`
	Offset   int             `json:"offset"`
	Vertices []float32       `json:"vertices"`
	Offsets  []struct {
		Slot   string `json:"slot"`
		Offset int    `json:"offset"`
	} `json:"offsets"`
}

type jsonEntry struct {
	Key   string
	Value json.RawMessage
}

// objectEntries decodes a JSON object preserving key order. A missing or
// null value yields no entries.
func objectEntries(raw json.RawMessage) ([]jsonEntry, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, errors.Errorf("expected object, got %v", tok)
	}
	var out []jsonEntry
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, _ := tok.(string)
		var v json.RawMessage
		if err := dec.Decode(&v); err != nil {
			return nil, err
		}
		out = append(out, jsonEntry{Key: key, Value: v})
	}
	return out, nil
}

// readJSON parses a textual skeleton against an already loaded atlas.
func readJSON(data []byte, version Version, a *atlas.Atlas) (*Definition, error) {
	var root jsonRoot
	if err := json.Unmarshal(data, &root); err != nil {
		return nil, spineerr.Malformed("skel: json: %v", err)
	}
	if root.Skeleton == nil {
		return nil, spineerr.Malformed("skel: json: missing skeleton section")
	}
	if root.Bones == nil {
		return nil, spineerr.Malformed("skel: json: missing bones section")
	}
	if err := checkVersion(root.Skeleton.Spine, version); err != nil {
		return nil, err
	}

	r := &jsonReader{builder: newBuilder(version, a)}
	d := r.def
	s := root.Skeleton
	d.Hash, d.SpineVersion = s.Hash, s.Spine
	d.X, d.Y, d.Width, d.Height = s.X, s.Y, s.Width, s.Height
	d.FPS, d.ImagesPath = s.FPS, s.Images

	if err := r.readBones(root.Bones); err != nil {
		return nil, err
	}
	if err := r.readSlots(root.Slots); err != nil {
		return nil, err
	}
	if err := r.readSkins(root.Skins); err != nil {
		return nil, err
	}
	events, err := objectEntries(root.Events)
	if err != nil {
		return nil, spineerr.Malformed("skel: json events: %v", err)
	}
	for _, e := range events {
		d.Events = append(d.Events, e.Key)
	}
	anims, err := objectEntries(root.Animations)
	if err != nil {
		return nil, spineerr.Malformed("skel: json animations: %v", err)
	}
	for _, e := range anims {
		anim, err := r.readAnimation(e.Key, e.Value)
		if err != nil {
			return nil, errors.WithMessagef(err, "animation %q", e.Key)
		}
		d.Animations = append(d.Animations, anim)
	}
	return r.finish()
}

type jsonReader struct {
	*builder
}

func (r *jsonReader) readBones(bones []jsonBone) error {
	d := r.def
	d.Bones = make([]BoneData, len(bones))
	for i, jb := range bones {
		parent := -1
		if jb.Parent != "" {
			// Parents are declared before their children.
			parent = d.FindBone(jb.Parent)
			if parent < 0 || parent >= i {
				return spineerr.Malformed("skel: bone %q: parent %q not found", jb.Name, jb.Parent)
			}
		}
		mode, ok := transformModeNames[jb.Transform]
		if !ok {
			return spineerr.Malformed("skel: bone %q: transform mode %q", jb.Name, jb.Transform)
		}
		d.Bones[i] = BoneData{
			Index: i, Name: jb.Name, Parent: parent, Length: jb.Length,
			X: jb.X, Y: jb.Y, Rotation: jb.Rotation,
			ScaleX: jb.ScaleX, ScaleY: jb.ScaleY, ShearX: jb.ShearX, ShearY: jb.ShearY,
			TransformMode: mode, SkinRequired: jb.Skin,
		}
	}
	return nil
}

func (r *jsonReader) readSlots(slots []jsonSlot) error {
	d := r.def
	d.Slots = make([]SlotData, len(slots))
	for i, js := range slots {
		bone := d.FindBone(js.Bone)
		if bone < 0 {
			return spineerr.Malformed("skel: slot %q: bone %q not found", js.Name, js.Bone)
		}
		sd := SlotData{Index: i, Name: js.Name, Bone: bone, Color: White}
		if js.Color != "" {
			c, err := ParseHexColor(js.Color)
			if err != nil {
				return err
			}
			sd.Color = c
		}
		if js.Dark != "" {
			c, err := ParseHexColor(js.Dark)
			if err != nil {
				return err
			}
			sd.Dark, sd.HasDark = c, true
			sd.Dark.A = 1
		}
		if js.Attachment != nil {
			sd.Attachment = *js.Attachment
		}
		if js.Blend != "" {
			blend, ok := blendModeNames[js.Blend]
			if !ok {
				return spineerr.Malformed("skel: slot %q: blend mode %q", js.Name, js.Blend)
			}
			sd.Blend = blend
		}
		d.Slots[i] = sd
	}
	return nil
}

func (r *jsonReader) readSkins(raw json.RawMessage) error {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}
	var skins []jsonSkin
	if raw[0] == '{' {
		// 3.7 and earlier exports keyed skins by name.
		entries, err := objectEntries(raw)
		if err != nil {
			return spineerr.Malformed("skel: json skins: %v", err)
		}
		for _, e := range entries {
			skins = append(skins, jsonSkin{Name: e.Key, Attachments: e.Value})
		}
	} else if err := json.Unmarshal(raw, &skins); err != nil {
		return spineerr.Malformed("skel: json skins: %v", err)
	}

	d := r.def
	for _, js := range skins {
		skin := NewSkin(js.Name)
		for _, name := range js.Bones {
			b := d.FindBone(name)
			if b < 0 {
				return spineerr.Malformed("skel: skin %q: bone %q not found", js.Name, name)
			}
			skin.Bones = append(skin.Bones, b)
		}
		slots, err := objectEntries(js.Attachments)
		if err != nil {
			return spineerr.Malformed("skel: skin %q: %v", js.Name, err)
		}
		for _, se := range slots {
			slot := d.FindSlot(se.Key)
			if slot < 0 {
				return spineerr.Malformed("skel: skin %q: slot %q not found", js.Name, se.Key)
			}
			atts, err := objectEntries(se.Value)
			if err != nil {
				return spineerr.Malformed("skel: skin %q slot %q: %v", js.Name, se.Key, err)
			}
			for _, ae := range atts {
				var ja jsonAttachment
				if err := json.Unmarshal(ae.Value, &ja); err != nil {
					return spineerr.Malformed("skel: attachment %q: %v", ae.Key, err)
				}
				att, err := r.readAttachment(&ja, ae.Key, skin.Name, slot)
				if err != nil {
					return errors.WithMessagef(err, "skin %q slot %q", js.Name, se.Key)
				}
				if att != nil {
					skin.SetAttachment(slot, ae.Key, att)
				}
			}
		}
		d.Skins = append(d.Skins, skin)
		if skin.Name == "default" {
			d.DefaultSkin = skin
		}
	}
	return nil
}

func (r *jsonReader) readAttachment(ja *jsonAttachment, key, skin string, slot int) (Attachment, error) {
	name := ja.Name
	if name == "" {
		name = key
	}
	path := ja.Path
	if path == "" {
		path = name
	}
	color := White
	if ja.Color != "" {
		c, err := ParseHexColor(ja.Color)
		if err != nil {
			return nil, err
		}
		color = c
	}
	var seq *sequence
	if ja.Sequence != nil {
		seq = &sequence{count: ja.Sequence.Count, start: ja.Sequence.Start, digits: ja.Sequence.Digits, setup: ja.Sequence.Setup}
	}

	switch ja.Type {
	case "region":
		reg := &RegionAttachment{
			AttachmentName: name, Path: path,
			X: ja.X, Y: ja.Y, ScaleX: ja.ScaleX, ScaleY: ja.ScaleY, Rotation: ja.Rotation,
			Width: ja.Width, Height: ja.Height, Color: color,
		}
		if err := r.finishRegion(reg, seq); err != nil {
			return nil, err
		}
		return reg, nil
	case "mesh":
		m := &MeshAttachment{
			AttachmentName: name, Path: path, Color: color,
			RegionUVs: ja.UVs, Triangles: ja.Triangles, HullLength: ja.Hull * 2, Edges: ja.Edges,
			Width: ja.Width, Height: ja.Height,
		}
		v, err := r.vertices(ja.Vertices, len(ja.UVs)/2)
		if err != nil {
			return nil, errors.WithMessagef(err, "mesh %q", name)
		}
		m.Vertices = v
		if err := r.finishMesh(m, seq); err != nil {
			return nil, err
		}
		return m, nil
	case "linkedmesh":
		m := &MeshAttachment{AttachmentName: name, Path: path, Color: color, Width: ja.Width, Height: ja.Height}
		inherit := ja.Deform
		if r.def.Version == Version41 {
			inherit = ja.Timelines
		}
		if err := r.addLinkedMesh(m, ja.Skin, slot, ja.Parent, inherit, seq); err != nil {
			return nil, err
		}
		return m, nil
	case "clipping":
		c := &ClippingAttachment{AttachmentName: name, EndSlot: -1, Color: color}
		if ja.End != "" {
			c.EndSlot = r.def.FindSlot(ja.End)
			if c.EndSlot < 0 {
				return nil, spineerr.Malformed("skel: clipping %q: end slot %q not found", name, ja.End)
			}
		}
		v, err := r.vertices(ja.Vertices, ja.VertexCount)
		if err != nil {
			return nil, errors.WithMessagef(err, "clipping %q", name)
		}
		c.Vertices = v
		return c, nil
	}
	// Bounding boxes, paths, points and newer kinds render nothing.
	r.skipKind(ja.Type)
	return &UnsupportedAttachment{AttachmentName: name, Type: ja.Type}, nil
}

func (r *jsonReader) readAnimation(name string, raw json.RawMessage) (*Animation, error) {
	var ja struct {
		Bones       json.RawMessage `json:"bones"`
		Slots       json.RawMessage `json:"slots"`
		Deform      json.RawMessage `json:"deform"`
		Attachments json.RawMessage `json:"attachments"`
		DrawOrder   []jsonKey       `json:"drawOrder"`
		DrawOrder37 []jsonKey       `json:"draworder"`
	}
	if err := json.Unmarshal(raw, &ja); err != nil {
		return nil, spineerr.Malformed("skel: %v", err)
	}
	anim := &Animation{Name: name}
	d := r.def

	bones, err := objectEntries(ja.Bones)
	if err != nil {
		return nil, spineerr.Malformed("skel: bones: %v", err)
	}
	for _, be := range bones {
		bone := d.FindBone(be.Key)
		if bone < 0 {
			return nil, spineerr.Malformed("skel: bone %q not found", be.Key)
		}
		tls, err := objectEntries(be.Value)
		if err != nil {
			return nil, spineerr.Malformed("skel: bone %q: %v", be.Key, err)
		}
		for _, te := range tls {
			keys, err := decodeKeys(te.Value)
			if err != nil {
				return nil, err
			}
			tl, ok, err := r.boneTimeline(te.Key, keys)
			if err != nil {
				return nil, errors.WithMessagef(err, "bone %q %s", be.Key, te.Key)
			}
			if ok {
				tl.Bone = bone
				anim.Bones = append(anim.Bones, tl)
			}
		}
	}

	slots, err := objectEntries(ja.Slots)
	if err != nil {
		return nil, spineerr.Malformed("skel: slots: %v", err)
	}
	for _, se := range slots {
		slot := d.FindSlot(se.Key)
		if slot < 0 {
			return nil, spineerr.Malformed("skel: slot %q not found", se.Key)
		}
		tls, err := objectEntries(se.Value)
		if err != nil {
			return nil, spineerr.Malformed("skel: slot %q: %v", se.Key, err)
		}
		for _, te := range tls {
			keys, err := decodeKeys(te.Value)
			if err != nil {
				return nil, err
			}
			if te.Key == "attachment" {
				at := AttachmentTimeline{Slot: slot}
				for _, k := range keys {
					at.Times = append(at.Times, k.Time)
					n := ""
					if k.Name != nil {
						n = *k.Name
					}
					at.Names = append(at.Names, n)
				}
				anim.Attachments = append(anim.Attachments, at)
				continue
			}
			tl, ok, err := r.colorTimeline(te.Key, keys)
			if err != nil {
				return nil, errors.WithMessagef(err, "slot %q %s", se.Key, te.Key)
			}
			if ok {
				tl.Slot = slot
				anim.Colors = append(anim.Colors, tl)
			}
		}
	}

	if err := r.readDeforms(anim, ja.Deform, false); err != nil {
		return nil, err
	}
	if err := r.readDeforms(anim, ja.Attachments, true); err != nil {
		return nil, err
	}

	drawOrder := ja.DrawOrder
	if drawOrder == nil {
		drawOrder = ja.DrawOrder37
	}
	if len(drawOrder) > 0 {
		dt := &DrawOrderTimeline{}
		for _, k := range drawOrder {
			dt.Times = append(dt.Times, k.Time)
			if k.Offsets == nil {
				dt.Orders = append(dt.Orders, nil)
				continue
			}
			slotIdx := make([]int, len(k.Offsets))
			offsets := make([]int, len(k.Offsets))
			for i, o := range k.Offsets {
				slotIdx[i] = d.FindSlot(o.Slot)
				if slotIdx[i] < 0 {
					return nil, spineerr.Malformed("skel: draw order slot %q not found", o.Slot)
				}
				offsets[i] = o.Offset
			}
			order, err := drawOrderFromOffsets(len(d.Slots), slotIdx, offsets)
			if err != nil {
				return nil, err
			}
			dt.Orders = append(dt.Orders, order)
		}
		anim.DrawOrder = dt
	}
	return anim, nil
}

func decodeKeys(raw json.RawMessage) ([]jsonKey, error) {
	var keys []jsonKey
	if err := json.Unmarshal(raw, &keys); err != nil {
		return nil, spineerr.Malformed("skel: keys: %v", err)
	}
	return keys, nil
}

var boneTimelineNames = map[string]TimelineKind{
	"rotate":     TimelineRotate,
	"translate":  TimelineTranslate,
	"translatex": TimelineTranslateX,
	"translatey": TimelineTranslateY,
	"scale":      TimelineScale,
	"scalex":     TimelineScaleX,
	"scaley":     TimelineScaleY,
	"shear":      TimelineShear,
	"shearx":     TimelineShearX,
	"sheary":     TimelineShearY,
}

func (r *jsonReader) boneTimeline(key string, keys []jsonKey) (BoneTimeline, bool, error) {
	kind, ok := boneTimelineNames[key]
	if !ok {
		r.skipKind("bone timeline " + key)
		return BoneTimeline{}, false, nil
	}
	def := float32(0)
	if kind == TimelineScale || kind == TimelineScaleX || kind == TimelineScaleY {
		def = 1
	}
	tl := BoneTimeline{Kind: kind, CurveTimeline: newCurveTimeline(kind.Channels(), len(keys))}
	values := make([][]float32, len(keys))
	for i, k := range keys {
		switch kind.Channels() {
		case 2:
			values[i] = []float32{orDefault(k.X, def), orDefault(k.Y, def)}
		default:
			v := k.Value
			if kind == TimelineRotate && k.Angle != nil {
				v = k.Angle
			}
			values[i] = []float32{orDefault(v, def)}
		}
		tl.setFrame(i, k.Time, values[i]...)
	}
	if err := r.readCurves(&tl.CurveTimeline, keys); err != nil {
		return tl, false, err
	}
	return tl, len(keys) > 0, nil
}

var colorTimelineNames = map[string]TimelineKind{
	"color":    TimelineRGBA,
	"twoColor": TimelineRGBA2,
	"rgba":     TimelineRGBA,
	"rgb":      TimelineRGB,
	"alpha":    TimelineAlpha,
	"rgba2":    TimelineRGBA2,
	"rgb2":     TimelineRGB2,
}

func (r *jsonReader) colorTimeline(key string, keys []jsonKey) (ColorTimeline, bool, error) {
	kind, ok := colorTimelineNames[key]
	if !ok {
		r.skipKind("slot timeline " + key)
		return ColorTimeline{}, false, nil
	}
	tl := ColorTimeline{Kind: kind, CurveTimeline: newCurveTimeline(kind.Channels(), len(keys))}
	for i, k := range keys {
		var vals []float32
		switch kind {
		case TimelineAlpha:
			vals = []float32{orDefault(k.Value, 1)}
		case TimelineRGBA, TimelineRGB:
			c, err := keyColor(k.Color)
			if err != nil {
				return tl, false, err
			}
			vals = []float32{c.R, c.G, c.B, c.A}[:kind.Channels()]
		case TimelineRGBA2, TimelineRGB2:
			light, err := keyColor(k.Light)
			if err != nil {
				return tl, false, err
			}
			dark, err := keyColor(k.Dark)
			if err != nil {
				return tl, false, err
			}
			if kind == TimelineRGBA2 {
				vals = []float32{light.R, light.G, light.B, light.A, dark.R, dark.G, dark.B}
			} else {
				vals = []float32{light.R, light.G, light.B, dark.R, dark.G, dark.B}
			}
		}
		tl.setFrame(i, k.Time, vals...)
	}
	if err := r.readCurves(&tl.CurveTimeline, keys); err != nil {
		return tl, false, err
	}
	return tl, len(keys) > 0, nil
}

func keyColor(s string) (Color, error) {
	if s == "" {
		return White, nil
	}
	return ParseHexColor(s)
}

// readCurves fills the curve of every key interval. 4.x stores absolute
// control points per channel; 3.8 stores normalized controls shared by all
// channels.
func (r *jsonReader) readCurves(tl *CurveTimeline, keys []jsonKey) error {
	for i := 0; i+1 < len(keys); i++ {
		k := keys[i]
		raw := bytes.TrimSpace(k.Curve)
		if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
			continue
		}
		if raw[0] == '"' {
			var s string
			_ = json.Unmarshal(raw, &s)
			if s == "stepped" {
				for c := 0; c < tl.Channels; c++ {
					tl.setCurve(i, c, Stepped)
				}
			}
			continue
		}
		t0, t1 := tl.FrameTime(i), tl.FrameTime(i+1)
		if raw[0] == '[' {
			var cs []float32
			if err := json.Unmarshal(raw, &cs); err != nil {
				return spineerr.Malformed("skel: curve: %v", err)
			}
			if r.def.Version == Version41 {
				for c := 0; c < tl.Channels && c*4+3 < len(cs); c++ {
					tl.setCurve(i, c, Curve{Kind: CurveBezier, CX1: cs[c*4], CY1: cs[c*4+1], CX2: cs[c*4+2], CY2: cs[c*4+3]})
				}
				continue
			}
			if len(cs) < 4 {
				return spineerr.Malformed("skel: curve has %d values", len(cs))
			}
			for c := 0; c < tl.Channels; c++ {
				tl.setCurve(i, c, percentCurve(cs[0], cs[1], cs[2], cs[3], t0, tl.Value(i, c), t1, tl.Value(i+1, c)))
			}
			continue
		}
		var c1 float32
		if err := json.Unmarshal(raw, &c1); err != nil {
			return spineerr.Malformed("skel: curve: %v", err)
		}
		c2, c3, c4 := orDefault(k.C2, 0), orDefault(k.C3, 1), orDefault(k.C4, 1)
		for c := 0; c < tl.Channels; c++ {
			tl.setCurve(i, c, percentCurve(c1, c2, c3, c4, t0, tl.Value(i, c), t1, tl.Value(i+1, c)))
		}
	}
	return nil
}

// deformCurve reads the interpolation of a deform key, whose value
// channel runs from 0 to 1.
func (r *jsonReader) deformCurve(k jsonKey, t0, t1 float32) (Curve, error) {
	raw := bytes.TrimSpace(k.Curve)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return Curve{}, nil
	}
	switch raw[0] {
	case '"':
		var s string
		_ = json.Unmarshal(raw, &s)
		if s == "stepped" {
			return Stepped, nil
		}
		return Curve{}, nil
	case '[':
		var cs []float32
		if err := json.Unmarshal(raw, &cs); err != nil || len(cs) < 4 {
			return Curve{}, spineerr.Malformed("skel: deform curve %s", raw)
		}
		if r.def.Version == Version41 {
			return Curve{Kind: CurveBezier, CX1: cs[0], CY1: cs[1], CX2: cs[2], CY2: cs[3]}, nil
		}
		return percentCurve(cs[0], cs[1], cs[2], cs[3], t0, 0, t1, 1), nil
	}
	var c1 float32
	if err := json.Unmarshal(raw, &c1); err != nil {
		return Curve{}, spineerr.Malformed("skel: deform curve: %v", err)
	}
	return percentCurve(c1, orDefault(k.C2, 0), orDefault(k.C3, 1), orDefault(k.C4, 1), t0, 0, t1, 1), nil
}

// readDeforms reads skin -> slot -> attachment -> keys. In 4.x the keys sit
// under a "deform" member next to sequence timelines.
func (r *jsonReader) readDeforms(anim *Animation, raw json.RawMessage, nested bool) error {
	skins, err := objectEntries(raw)
	if err != nil {
		return spineerr.Malformed("skel: deform: %v", err)
	}
	d := r.def
	for _, ske := range skins {
		skin := d.FindSkin(ske.Key)
		if skin == nil {
			return spineerr.Malformed("skel: deform skin %q not found", ske.Key)
		}
		slots, err := objectEntries(ske.Value)
		if err != nil {
			return spineerr.Malformed("skel: deform: %v", err)
		}
		for _, se := range slots {
			slot := d.FindSlot(se.Key)
			if slot < 0 {
				return spineerr.Malformed("skel: deform slot %q not found", se.Key)
			}
			atts, err := objectEntries(se.Value)
			if err != nil {
				return spineerr.Malformed("skel: deform: %v", err)
			}
			for _, ae := range atts {
				keysRaw := ae.Value
				if nested {
					tls, err := objectEntries(ae.Value)
					if err != nil {
						return spineerr.Malformed("skel: attachment timelines: %v", err)
					}
					keysRaw = nil
					for _, te := range tls {
						if te.Key == "deform" {
							keysRaw = te.Value
						} else {
							r.skipKind("attachment timeline " + te.Key)
						}
					}
					if keysRaw == nil {
						continue
					}
				}
				va, ok := skin.Attachment(slot, ae.Key).(VertexAttachment)
				if !ok {
					return spineerr.Malformed("skel: deform attachment %q not found", ae.Key)
				}
				keys, err := decodeKeys(keysRaw)
				if err != nil {
					return err
				}
				tl, err := r.deformTimeline(slot, va, keys)
				if err != nil {
					return err
				}
				anim.Deforms = append(anim.Deforms, tl)
			}
		}
	}
	return nil
}

func (r *jsonReader) deformTimeline(slot int, va VertexAttachment, keys []jsonKey) (DeformTimeline, error) {
	n := va.VertexData().DeformLength()
	tl := DeformTimeline{Slot: slot, Attachment: va, Curves: make([]Curve, len(keys))}
	for i, k := range keys {
		v := make([]float32, n)
		if k.Offset < 0 || k.Offset+len(k.Vertices) > n {
			return tl, spineerr.Malformed("skel: deform %q key %d out of range", va.Name(), i)
		}
		copy(v[k.Offset:], k.Vertices)
		tl.Times = append(tl.Times, k.Time)
		tl.Vertices = append(tl.Vertices, v)
	}
	for i := 0; i+1 < len(keys); i++ {
		c, err := r.deformCurve(keys[i], tl.Times[i], tl.Times[i+1])
		if err != nil {
			return tl, err
		}
		tl.Curves[i] = c
	}
	return tl, nil
}

func orDefault(p *float32, def float32) float32 {
	if p == nil {
		return def
	}
	return *p
}

// checkVersion verifies that a declared editor version matches the layout
// selected by the caller.
func checkVersion(declared string, want Version) error {
	got, err := ParseVersion(declared)
	if err != nil {
		return err
	}
	if got != want {
		return errors.Wrapf(spineerr.ErrUnsupportedVersion, "skel: data version %s, loader %s", strings.TrimSpace(declared), want)
	}
	return nil
}
