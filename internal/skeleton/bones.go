package skeleton

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"spine-renderer/internal/skel"
)

// Bone is the runtime state of one bone. The local transform starts at the
// setup pose and is overwritten by animation every frame.
type Bone struct {
	Data     *skel.BoneData
	X, Y     float32
	Rotation float32
	ScaleX   float32
	ScaleY   float32
	ShearX   float32
	ShearY   float32

	// World maps bone-local points to skeleton space. Column-major 2D
	// affine: [a c 0 b d 0 x y 1].
	World mgl32.Mat3
}

// SetToSetupPose resets the local transform.
func (b *Bone) SetToSetupPose() {
	d := b.Data
	b.X, b.Y = d.X, d.Y
	b.Rotation = d.Rotation
	b.ScaleX, b.ScaleY = d.ScaleX, d.ScaleY
	b.ShearX, b.ShearY = d.ShearX, d.ShearY
}

// Local returns the local affine transform built from translation,
// rotation, scale and shear.
func (b *Bone) Local() mgl32.Mat3 {
	m := b.linear()
	m[6], m[7] = b.X, b.Y
	return m
}

func (b *Bone) linear() mgl32.Mat3 {
	rx := float64(mgl32.DegToRad(b.Rotation + b.ShearX))
	ry := float64(mgl32.DegToRad(b.Rotation + 90 + b.ShearY))
	return mgl32.Mat3{
		float32(math.Cos(rx)) * b.ScaleX, float32(math.Sin(rx)) * b.ScaleX, 0,
		float32(math.Cos(ry)) * b.ScaleY, float32(math.Sin(ry)) * b.ScaleY, 0,
		0, 0, 1,
	}
}

// WorldX returns the world position of the bone origin.
func (b *Bone) WorldX() float32 { return b.World[6] }

// WorldY returns the world position of the bone origin.
func (b *Bone) WorldY() float32 { return b.World[7] }

// WorldRotation returns the world rotation of the local X axis in degrees.
func (b *Bone) WorldRotation() float32 {
	return mgl32.RadToDeg(float32(math.Atan2(float64(b.World[1]), float64(b.World[0]))))
}

// Transform maps a bone-local point to world space.
func (b *Bone) Transform(x, y float32) (float32, float32) {
	m := &b.World
	return m[0]*x + m[3]*y + m[6], m[1]*x + m[4]*y + m[7]
}

// updateWorld composes the parent's world transform with the local one.
// parent is nil for roots, which compose with the skeleton transform.
func (b *Bone) updateWorld(parent *Bone, root mgl32.Mat3) {
	if parent == nil {
		b.World = root.Mul3(b.Local())
		return
	}
	if b.Data.TransformMode == skel.TransformOnlyTranslation {
		// Position follows the parent; rotation, scale and shear do not.
		b.World = root.Mul3(b.linear())
		b.World[6], b.World[7] = parent.Transform(b.X, b.Y)
		return
	}
	b.World = parent.World.Mul3(b.Local())
}

// BuildWorldMatrices computes world transforms in update order.
func BuildWorldMatrices(bones []Bone, order []int, root mgl32.Mat3) {
	for _, i := range order {
		b := &bones[i]
		var parent *Bone
		if p := b.Data.Parent; p >= 0 {
			parent = &bones[p]
		}
		b.updateWorld(parent, root)
	}
}
