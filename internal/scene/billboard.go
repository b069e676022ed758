package scene

import (
	gomath "math"

	"github.com/go-gl/mathgl/mgl32"
)

// BillboardKind selects how a billboard turns towards the camera.
type BillboardKind int

const (
	// Cylindrical billboards only yaw around Y (trees, sprites standing on the ground).
	Cylindrical BillboardKind = iota
	// Spherical billboards yaw and pitch to face the eye exactly.
	Spherical
)

// Billboard is a camera-facing quad drawn after the scene graph. Its mesh faces +Z.
type Billboard struct {
	Name     string
	Kind     BillboardKind
	Instance *Instance
}

// Face turns the billboard towards eye.
func (b *Billboard) Face(eye mgl32.Vec3) {
	t := &b.Instance.Transform
	d := eye.Sub(t.Translation)

	switch b.Kind {
	case Cylindrical:
		yaw := float32(gomath.Atan2(float64(d.X()), float64(d.Z())))
		t.SetRotation(mgl32.QuatRotate(yaw, mgl32.Vec3{0, 1, 0}))
	case Spherical:
		if d.Len() == 0 {
			return
		}
		d = d.Normalize()
		yaw := float32(gomath.Atan2(float64(d.X()), float64(d.Z())))
		pitch := -float32(gomath.Asin(float64(d.Y())))
		t.SetRotation(mgl32.QuatRotate(yaw, mgl32.Vec3{0, 1, 0}).
			Mul(mgl32.QuatRotate(pitch, mgl32.Vec3{1, 0, 0})))
	}
	t.Refresh()
}

// AddBillboard appends a billboard.
func (s *Scene) AddBillboard(b *Billboard) {
	s.billboards = append(s.billboards, b)
}

// Billboards returns the billboards in insertion order.
func (s *Scene) Billboards() []*Billboard {
	return s.billboards
}

// FaceBillboards turns every billboard towards the active camera's eye.
func (s *Scene) FaceBillboards() {
	for _, b := range s.billboards {
		b.Face(s.camera.Eye)
	}
}
