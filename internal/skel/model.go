// Package skel holds the immutable skeleton definition loaded from a Spine
// atlas plus a JSON or binary skeleton file: bones, slots, skins,
// attachments and animations. A Definition is shared read-only by every
// Pose created from it.
package skel

import (
	"strconv"
	"strings"

	"spine-renderer/internal/atlas"
	"spine-renderer/internal/spineerr"
	"spine-renderer/internal/texture"

	"github.com/pkg/errors"
)

// Version selects the structural layout used to parse skeleton data.
type Version int

const (
	VersionUnknown Version = iota
	Version38
	Version41
)

// ParseVersion accepts "3.8", "4.1" or a full editor version such as "4.1.23".
func ParseVersion(s string) (Version, error) {
	parts := strings.SplitN(strings.TrimSpace(s), ".", 3)
	if len(parts) < 2 {
		return VersionUnknown, errors.Wrapf(spineerr.ErrUnsupportedVersion, "skel: version %q", s)
	}
	major, err1 := strconv.Atoi(parts[0])
	minor, err2 := strconv.Atoi(parts[1])
	if err1 != nil || err2 != nil {
		return VersionUnknown, errors.Wrapf(spineerr.ErrUnsupportedVersion, "skel: version %q", s)
	}
	switch {
	case major == 3 && minor == 8:
		return Version38, nil
	case major == 4 && minor == 1:
		return Version41, nil
	}
	return VersionUnknown, errors.Wrapf(spineerr.ErrUnsupportedVersion, "skel: version %q", s)
}

func (v Version) String() string {
	switch v {
	case Version38:
		return "3.8"
	case Version41:
		return "4.1"
	}
	return "unknown"
}

// TransformMode controls which parent transform components a bone inherits.
type TransformMode int

const (
	TransformNormal TransformMode = iota
	TransformOnlyTranslation
	TransformNoRotationOrReflection
	TransformNoScale
	TransformNoScaleOrReflection
)

var transformModeNames = map[string]TransformMode{
	"normal":                 TransformNormal,
	"onlyTranslation":        TransformOnlyTranslation,
	"noRotationOrReflection": TransformNoRotationOrReflection,
	"noScale":                TransformNoScale,
	"noScaleOrReflection":    TransformNoScaleOrReflection,
}

// BlendMode is the compositing mode of a slot.
type BlendMode int

const (
	BlendNormal BlendMode = iota
	BlendAdditive
	BlendMultiply
	BlendScreen
)

var blendModeNames = map[string]BlendMode{
	"normal":   BlendNormal,
	"additive": BlendAdditive,
	"multiply": BlendMultiply,
	"screen":   BlendScreen,
}

func (b BlendMode) String() string {
	switch b {
	case BlendAdditive:
		return "additive"
	case BlendMultiply:
		return "multiply"
	case BlendScreen:
		return "screen"
	}
	return "normal"
}

// Color is a straight-alpha RGBA color with channels in [0,1].
type Color struct {
	R, G, B, A float32
}

// White is the identity tint.
var White = Color{1, 1, 1, 1}

// ColorRGBA8888 unpacks 0xRRGGBBAA.
func ColorRGBA8888(v uint32) Color {
	return Color{
		R: float32(v>>24) / 255,
		G: float32(v>>16&0xff) / 255,
		B: float32(v>>8&0xff) / 255,
		A: float32(v&0xff) / 255,
	}
}

// ColorRGB888 unpacks 0x??RRGGBB with alpha 1.
func ColorRGB888(v uint32) Color {
	return Color{
		R: float32(v>>16&0xff) / 255,
		G: float32(v>>8&0xff) / 255,
		B: float32(v&0xff) / 255,
		A: 1,
	}
}

// ParseHexColor parses "RRGGBB" or "RRGGBBAA".
func ParseHexColor(s string) (Color, error) {
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return Color{}, spineerr.Malformed("skel: color %q", s)
	}
	switch len(s) {
	case 8:
		return ColorRGBA8888(uint32(v)), nil
	case 6:
		return ColorRGB888(uint32(v)), nil
	}
	return Color{}, spineerr.Malformed("skel: color %q", s)
}

// Mul returns the component-wise product.
func (c Color) Mul(o Color) Color {
	return Color{c.R * o.R, c.G * o.G, c.B * o.B, c.A * o.A}
}

// BoneData is the setup pose of a bone. Parent is -1 for the root.
type BoneData struct {
	Index         int
	Name          string
	Parent        int
	Length        float32
	X, Y          float32
	Rotation      float32
	ScaleX        float32
	ScaleY        float32
	ShearX        float32
	ShearY        float32
	TransformMode TransformMode
	SkinRequired  bool
}

// SlotData is the setup state of a slot.
type SlotData struct {
	Index      int
	Name       string
	Bone       int
	Color      Color
	Dark       Color
	HasDark    bool
	Attachment string
	Blend      BlendMode
}

// Definition is the immutable, shareable skeleton definition.
type Definition struct {
	Name         string
	Version      Version
	Hash         string
	SpineVersion string
	X, Y         float32
	Width        float32
	Height       float32
	FPS          float32
	ImagesPath   string

	Bones       []BoneData
	Slots       []SlotData
	Skins       []*Skin
	DefaultSkin *Skin
	Animations  []*Animation
	Events      []string

	// UpdateOrder lists bone indices with every parent before its children.
	UpdateOrder []int

	Atlas *atlas.Atlas
}

// FindBone returns the bone index for name, or -1.
func (d *Definition) FindBone(name string) int {
	for i := range d.Bones {
		if d.Bones[i].Name == name {
			return i
		}
	}
	return -1
}

// FindSlot returns the slot index for name, or -1.
func (d *Definition) FindSlot(name string) int {
	for i := range d.Slots {
		if d.Slots[i].Name == name {
			return i
		}
	}
	return -1
}

// FindSkin returns the skin with the given name, or nil.
func (d *Definition) FindSkin(name string) *Skin {
	for _, s := range d.Skins {
		if s.Name == name {
			return s
		}
	}
	return nil
}

// FindAnimation returns the animation with the given name, or nil.
func (d *Definition) FindAnimation(name string) *Animation {
	for _, a := range d.Animations {
		if a.Name == name {
			return a
		}
	}
	return nil
}

// AnimationNames returns animation names in declaration order.
func (d *Definition) AnimationNames() []string {
	names := make([]string, len(d.Animations))
	for i, a := range d.Animations {
		names[i] = a.Name
	}
	return names
}

// Texture returns the decoded texture of an atlas page, or nil.
func (d *Definition) Texture(page int) *texture.Texture {
	if d.Atlas == nil || page < 0 || page >= len(d.Atlas.Pages) {
		return nil
	}
	return d.Atlas.Pages[page].Texture
}

// buildUpdateOrder orders bones parent-before-child. Bones whose parent
// chain never reaches a root are reported as malformed.
func (d *Definition) buildUpdateOrder() error {
	n := len(d.Bones)
	children := make([][]int, n)
	var roots []int
	for i := range d.Bones {
		p := d.Bones[i].Parent
		switch {
		case p < 0:
			roots = append(roots, i)
		case p >= n || p == i:
			return spineerr.Malformed("skel: bone %q has invalid parent %d", d.Bones[i].Name, p)
		default:
			children[p] = append(children[p], i)
		}
	}
	order := make([]int, 0, n)
	queue := append([]int(nil), roots...)
	for len(queue) > 0 {
		b := queue[0]
		queue = queue[1:]
		order = append(order, b)
		queue = append(queue, children[b]...)
	}
	if len(order) != n {
		return spineerr.Malformed("skel: bone hierarchy has a cycle")
	}
	d.UpdateOrder = order
	return nil
}
