package skel

import (
	"bytes"
	"encoding/binary"
	"math"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spine-renderer/internal/spineerr"
)

// binWriter produces skeleton binaries for tests.
type binWriter struct {
	bytes.Buffer
	strings []string
}

func (w *binWriter) varint(v int) {
	u := uint32(v)
	for u >= 0x80 {
		w.WriteByte(byte(u&0x7f) | 0x80)
		u >>= 7
	}
	w.WriteByte(byte(u))
}

func (w *binWriter) str(s string) {
	w.varint(len(s) + 1)
	w.WriteString(s)
}

func (w *binWriter) ref(s string) {
	if s == "" {
		w.varint(0)
		return
	}
	for i, v := range w.strings {
		if v == s {
			w.varint(i + 1)
			return
		}
	}
	panic("unregistered string " + s)
}

func (w *binWriter) f32(vs ...float32) {
	for _, v := range vs {
		_ = binary.Write(&w.Buffer, binary.BigEndian, math.Float32bits(v))
	}
}

func (w *binWriter) i32(v uint32) { _ = binary.Write(&w.Buffer, binary.BigEndian, v) }

func (w *binWriter) flag(b bool) {
	if b {
		w.WriteByte(1)
	} else {
		w.WriteByte(0)
	}
}

// spinningSkeleton writes one region on a child bone and one animation
// rotating that bone from 0 to 360 degrees over a second.
func spinningSkeleton(v Version) []byte {
	w := &binWriter{strings: []string{"quad"}}
	if v == Version41 {
		_ = binary.Write(&w.Buffer, binary.BigEndian, int64(42))
		w.str("4.1.23")
	} else {
		w.str("hash38")
		w.str("3.8.99")
	}
	w.f32(0, 0, 64, 64)
	w.flag(false) // nonessential

	w.varint(len(w.strings))
	for _, s := range w.strings {
		w.str(s)
	}

	// bones
	w.varint(2)
	w.str("root")
	w.f32(0, 0, 0, 1, 1, 0, 0, 0)
	w.varint(0)
	w.flag(false)
	w.str("spinner")
	w.varint(0)
	w.f32(0, 5, 6, 1, 1, 0, 0, 10)
	w.varint(1) // only translation
	w.flag(false)

	// slots
	w.varint(1)
	w.str("quad")
	w.varint(1)
	w.i32(0xffffffff)
	w.i32(0x00ff0000)
	w.ref("quad")
	w.varint(int(BlendScreen))

	w.varint(0) // ik
	w.varint(0) // transform
	w.varint(0) // path

	// default skin
	w.varint(1)
	w.varint(0)
	w.varint(1)
	w.ref("quad")
	w.ref("")
	w.WriteByte(binRegion)
	w.ref("")
	w.f32(0, 0, 0, 1, 1, 20, 10)
	w.i32(0xffffffff)
	if v == Version41 {
		w.flag(false) // sequence
	}
	w.varint(0) // named skins

	w.varint(0) // events

	// animations
	w.varint(1)
	w.str("spin")
	if v == Version41 {
		w.varint(1)
	}
	w.varint(0) // slot timelines
	w.varint(1) // bone timelines
	w.varint(1)
	w.varint(1)
	w.WriteByte(0) // rotate
	w.varint(2)
	if v == Version41 {
		w.varint(0) // bezier count
		w.f32(0, 0)
		w.f32(1, 360)
		w.WriteByte(binCurveLinear)
	} else {
		w.f32(0, 0)
		w.WriteByte(binCurveLinear)
		w.f32(1, 360)
	}
	w.varint(0) // ik
	w.varint(0) // transform
	w.varint(0) // path
	w.varint(0) // deform
	w.varint(0) // draw order
	w.varint(0) // events
	return w.Bytes()
}

func TestReadBinary(t *testing.T) {
	for _, v := range []Version{Version38, Version41} {
		t.Run(v.String(), func(t *testing.T) {
			d, err := Decode(spinningSkeleton(v), false, v, nil)
			require.NoError(t, err)

			require.Len(t, d.Bones, 2)
			assert.Equal(t, "spinner", d.Bones[1].Name)
			assert.Equal(t, 0, d.Bones[1].Parent)
			assert.Equal(t, float32(5), d.Bones[1].X)
			assert.Equal(t, float32(10), d.Bones[1].Length)
			assert.Equal(t, TransformOnlyTranslation, d.Bones[1].TransformMode)

			require.Len(t, d.Slots, 1)
			assert.Equal(t, "quad", d.Slots[0].Attachment)
			assert.Equal(t, BlendScreen, d.Slots[0].Blend)
			assert.True(t, d.Slots[0].HasDark)
			assert.Equal(t, Color{1, 0, 0, 1}, d.Slots[0].Dark)

			region, ok := d.DefaultSkin.Attachment(0, "quad").(*RegionAttachment)
			require.True(t, ok)
			assert.Equal(t, "quad", region.Path)
			assert.Equal(t, float32(20), region.Width)

			anim := d.FindAnimation("spin")
			require.NotNil(t, anim)
			assert.Equal(t, float32(1), anim.Duration)
			require.Len(t, anim.Bones, 1)
			out := make([]float32, 1)
			require.True(t, anim.Bones[0].Sample(0.5, out))
			assert.InDelta(t, 180, out[0], 1e-4)
		})
	}
}

func TestReadBinaryHash(t *testing.T) {
	d, err := Decode(spinningSkeleton(Version41), false, Version41, nil)
	require.NoError(t, err)
	assert.Equal(t, "42", d.Hash)
	assert.Equal(t, "4.1.23", d.SpineVersion)

	d, err = Decode(spinningSkeleton(Version38), false, Version38, nil)
	require.NoError(t, err)
	assert.Equal(t, "hash38", d.Hash)
}

func TestReadBinaryTruncated(t *testing.T) {
	data := spinningSkeleton(Version41)
	for _, n := range []int{len(data) - 1, len(data) / 2, 20} {
		d, err := Decode(data[:n], false, Version41, nil)
		assert.Nil(t, d)
		assert.True(t, errors.Is(err, spineerr.ErrMalformedInput), "len %d: %v", n, err)
	}
}

func TestReadBinaryVersionMismatch(t *testing.T) {
	_, err := Decode(spinningSkeleton(Version38), false, Version41, nil)
	assert.Error(t, err)

	_, err = Decode(spinningSkeleton(Version41), false, Version38, nil)
	assert.True(t, errors.Is(err, spineerr.ErrUnsupportedVersion), "%v", err)
}

func TestCursorVarint(t *testing.T) {
	w := &binWriter{}
	w.varint(300)
	w.varint(0)
	c := &cursor{data: w.Bytes()}
	assert.Equal(t, 300, c.readVarint(true))
	assert.Equal(t, 0, c.readVarint(true))
	assert.NoError(t, c.err)
	c.readVarint(true)
	assert.Error(t, c.err)

	// Zigzag: 3 encodes -2.
	c = &cursor{data: []byte{3}}
	assert.Equal(t, -2, c.readVarint(false))
}
