package skel

import (
	"fmt"

	"github.com/rs/zerolog/log"

	"spine-renderer/internal/atlas"
	"spine-renderer/internal/spineerr"
)

// builder collects state shared by the JSON and binary readers while a
// Definition is assembled.
type builder struct {
	def    *Definition
	atlas  *atlas.Atlas
	linked []linkedMesh
	// skipped counts attachments of kinds that are parsed but not rendered.
	skipped map[string]int
}

type linkedMesh struct {
	mesh          *MeshAttachment
	skin          string
	slot          int
	parent        string
	inheritDeform bool
	region        *atlas.Region
}

// sequence names the region of an image sequence attachment.
type sequence struct {
	count, start, digits, setup int
}

func (s *sequence) path(base string) string {
	if s == nil || s.count == 0 {
		return base
	}
	return fmt.Sprintf("%s%0*d", base, s.digits, s.start+s.setup)
}

func newBuilder(version Version, a *atlas.Atlas) *builder {
	return &builder{
		def:     &Definition{Version: version, Atlas: a},
		atlas:   a,
		skipped: make(map[string]int),
	}
}

func (b *builder) findRegion(path string) (*atlas.Region, error) {
	rg, ok := b.atlas.FindRegion(path)
	if !ok {
		return nil, spineerr.Malformed("skel: region %q not found in atlas", path)
	}
	return rg, nil
}

func (b *builder) finishRegion(r *RegionAttachment, seq *sequence) error {
	if b.atlas == nil {
		return nil
	}
	rg, err := b.findRegion(seq.path(r.Path))
	if err != nil {
		return err
	}
	r.setRegion(rg)
	return nil
}

func (b *builder) finishMesh(m *MeshAttachment, seq *sequence) error {
	if len(m.RegionUVs) != m.Count*2 {
		return spineerr.Malformed("skel: mesh %q has %d uvs for %d vertices", m.AttachmentName, len(m.RegionUVs)/2, m.Count)
	}
	for _, t := range m.Triangles {
		if int(t) >= m.Count {
			return spineerr.Malformed("skel: mesh %q triangle index %d out of range", m.AttachmentName, t)
		}
	}
	if b.atlas == nil {
		return nil
	}
	rg, err := b.findRegion(seq.path(m.Path))
	if err != nil {
		return err
	}
	m.setRegion(rg)
	return nil
}

// addLinkedMesh defers geometry sharing until every skin is read.
func (b *builder) addLinkedMesh(m *MeshAttachment, skin string, slot int, parent string, inheritDeform bool, seq *sequence) error {
	lm := linkedMesh{mesh: m, skin: skin, slot: slot, parent: parent, inheritDeform: inheritDeform}
	if b.atlas != nil {
		rg, err := b.findRegion(seq.path(m.Path))
		if err != nil {
			return err
		}
		lm.region = rg
	}
	b.linked = append(b.linked, lm)
	return nil
}

func (b *builder) skipKind(kind string) {
	b.skipped[kind]++
}

func (b *builder) vertices(values []float32, vertexCount int) (Vertices, error) {
	if len(values) == vertexCount*2 {
		return Vertices{Values: values, Count: vertexCount}, nil
	}
	v := Vertices{Count: vertexCount}
	for i := 0; i < len(values); {
		n := int(values[i])
		i++
		if n < 0 || i+n*4 > len(values) {
			return v, spineerr.Malformed("skel: truncated weighted vertices")
		}
		v.Bones = append(v.Bones, n)
		for ; n > 0; n-- {
			bone := int(values[i])
			if bone < 0 || bone >= len(b.def.Bones) {
				return v, spineerr.Malformed("skel: weighted vertex bone %d out of range", bone)
			}
			v.Bones = append(v.Bones, bone)
			v.Values = append(v.Values, values[i+1], values[i+2], values[i+3])
			i += 4
		}
	}
	if countVertices(v.Bones) != vertexCount {
		return v, spineerr.Malformed("skel: weighted vertex count mismatch")
	}
	return v, nil
}

func countVertices(bones []int) int {
	n := 0
	for i := 0; i < len(bones); i += bones[i] + 1 {
		n++
	}
	return n
}

func (b *builder) finish() (*Definition, error) {
	d := b.def
	for _, lm := range b.linked {
		skin := d.DefaultSkin
		if lm.skin != "" {
			skin = d.FindSkin(lm.skin)
		}
		if skin == nil {
			return nil, spineerr.Malformed("skel: linked mesh %q: skin %q not found", lm.mesh.AttachmentName, lm.skin)
		}
		parent, ok := skin.Attachment(lm.slot, lm.parent).(*MeshAttachment)
		if !ok {
			return nil, spineerr.Malformed("skel: linked mesh %q: parent mesh %q not found", lm.mesh.AttachmentName, lm.parent)
		}
		lm.mesh.linkTo(parent)
		lm.mesh.InheritDeform = lm.inheritDeform
		if lm.region != nil {
			lm.mesh.setRegion(lm.region)
		}
	}
	if err := d.buildUpdateOrder(); err != nil {
		return nil, err
	}
	for _, a := range d.Animations {
		a.computeDuration()
	}
	for kind, n := range b.skipped {
		log.Debug().Str("kind", kind).Int("count", n).Msg("skel: skipped unsupported data")
	}
	return d, nil
}

func errSlotRef(slot int) error {
	return spineerr.Malformed("skel: draw order slot %d out of range", slot)
}

func errDrawOrder(slot, offset int) error {
	return spineerr.Malformed("skel: draw order offset %d for slot %d out of range", offset, slot)
}
