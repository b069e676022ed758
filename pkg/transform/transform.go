// Package transform provides the scale/rotation/translation model used by every
// scene entity.
package transform

import (
	gomath "math"

	"github.com/go-gl/mathgl/mgl32"
)

// Transform composes scale, rotation and translation into a world matrix.
// The cached matrices are only valid after Refresh; every mutator marks the
// transform dirty.
type Transform struct {
	Scale       mgl32.Vec3
	Rotation    mgl32.Quat
	Translation mgl32.Vec3

	world   mgl32.Mat4
	inverse mgl32.Mat4
	dirty   bool
}

// New returns a transform with unit scale, no rotation and no translation.
func New() Transform {
	t := Transform{
		Scale:    mgl32.Vec3{1, 1, 1},
		Rotation: mgl32.QuatIdent(),
	}
	t.Refresh()
	return t
}

// Refresh recomputes the world matrix as Translate * Rotate * Scale and its inverse.
func (t *Transform) Refresh() {
	tr := mgl32.Translate3D(t.Translation.X(), t.Translation.Y(), t.Translation.Z())
	sc := mgl32.Scale3D(t.Scale.X(), t.Scale.Y(), t.Scale.Z())
	t.world = tr.Mul4(t.Rotation.Mat4()).Mul4(sc)
	t.inverse = t.world.Inv()
	t.dirty = false
}

// Dirty reports whether the cached matrices are stale.
func (t *Transform) Dirty() bool {
	return t.dirty
}

// World returns the cached world matrix, refreshing it first if stale.
func (t *Transform) World() mgl32.Mat4 {
	if t.dirty {
		t.Refresh()
	}
	return t.world
}

// Inverse returns the cached inverse world matrix, refreshing it first if stale.
// The result is meaningless when any scale component is zero.
func (t *Transform) Inverse() mgl32.Mat4 {
	if t.dirty {
		t.Refresh()
	}
	return t.inverse
}

// Singular reports whether the scale collapses an axis.
func (t *Transform) Singular() bool {
	return t.Scale.X() == 0 || t.Scale.Y() == 0 || t.Scale.Z() == 0
}

// SetScale replaces the scale.
func (t *Transform) SetScale(s mgl32.Vec3) {
	t.Scale = s
	t.dirty = true
}

// SetRotation replaces the rotation.
func (t *Transform) SetRotation(q mgl32.Quat) {
	t.Rotation = q
	t.dirty = true
}

// SetTranslation replaces the translation.
func (t *Transform) SetTranslation(p mgl32.Vec3) {
	t.Translation = p
	t.dirty = true
}

// Basis returns the local x, y and z axes of the current rotation.
func (t *Transform) Basis() (x, y, z mgl32.Vec3) {
	x = t.Rotation.Rotate(mgl32.Vec3{1, 0, 0})
	y = t.Rotation.Rotate(mgl32.Vec3{0, 1, 0})
	z = t.Rotation.Rotate(mgl32.Vec3{0, 0, 1})
	return x, y, z
}

// Forward returns the direction the transform faces (local -Z).
func (t *Transform) Forward() mgl32.Vec3 {
	return t.Rotation.Rotate(mgl32.Vec3{0, 0, -1})
}

// TranslateGlobal offsets the translation in world space.
func (t *Transform) TranslateGlobal(delta mgl32.Vec3) {
	t.Translation = t.Translation.Add(delta)
	t.dirty = true
}

// TranslateLocal offsets the translation along the current local axes.
func (t *Transform) TranslateLocal(delta mgl32.Vec3) {
	t.Translation = t.Translation.Add(t.toLocal(delta))
	t.dirty = true
}

// RotateGlobal rotates around a world-space axis. The delta is applied outside
// the current orientation (delta * rotation) and the product is renormalised,
// so repeated small rotations keep a unit quaternion. A zero axis is a no-op.
func (t *Transform) RotateGlobal(axis mgl32.Vec3, angle float32) {
	l := axis.Len()
	if l == 0 {
		return
	}
	half := float64(angle) / 2
	delta := mgl32.Quat{
		W: float32(gomath.Cos(half)),
		V: axis.Mul(float32(gomath.Sin(half)) / l),
	}
	t.Rotation = delta.Mul(t.Rotation).Normalize()
	t.Refresh()
}

// RotateLocal rotates around an axis expressed in the transform's own frame.
func (t *Transform) RotateLocal(axis mgl32.Vec3, angle float32) {
	t.RotateGlobal(t.toLocal(axis), angle)
}

func (t *Transform) toLocal(v mgl32.Vec3) mgl32.Vec3 {
	x, y, z := t.Basis()
	return x.Mul(v.X()).Add(y.Mul(v.Y())).Add(z.Mul(v.Z()))
}
