// Package approx compares float32 values, vectors and matrices with an
// absolute per-component tolerance.
//
// mgl32's ApproxEqualThreshold switches to eps*eps as soon as one side is
// zero, which rejects ordinary float32 residue against exact zero.
package approx

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Float reports whether |a-b| <= eps. NaN never compares equal.
func Float(a, b, eps float32) bool {
	d := a - b
	if d < 0 {
		d = -d
	}
	return d <= eps
}

func within(a, b []float32, eps float32) bool {
	for i := range a {
		if !Float(a[i], b[i], eps) {
			return false
		}
	}
	return true
}

// Vec3 compares two vectors component by component.
func Vec3(a, b mgl32.Vec3, eps float32) bool {
	return within(a[:], b[:], eps)
}

// Vec4 compares two vectors component by component.
func Vec4(a, b mgl32.Vec4, eps float32) bool {
	return within(a[:], b[:], eps)
}

// Quat compares two quaternions component by component. q and -q describe
// the same rotation but are not equal here.
func Quat(a, b mgl32.Quat, eps float32) bool {
	return Float(a.W, b.W, eps) && Vec3(a.V, b.V, eps)
}

// Mat4 compares two matrices element by element.
func Mat4(a, b mgl32.Mat4, eps float32) bool {
	return within(a[:], b[:], eps)
}
