// Package camera provides the look-at camera used to view a scene.
package camera

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Camera looks from Eye towards Center with Up as the view-up vector.
type Camera struct {
	Eye    mgl32.Vec3
	Center mgl32.Vec3
	Up     mgl32.Vec3

	FovY  float32 // Vertical field of view (radians)
	ZNear float32
	ZFar  float32

	view     mgl32.Mat4
	proj     mgl32.Mat4
	viewProj mgl32.Mat4
}

// New creates a camera at (0, 0, 5) looking at the origin.
func New() *Camera {
	c := &Camera{
		Eye:    mgl32.Vec3{0, 0, 5},
		Center: mgl32.Vec3{0, 0, 0},
		Up:     mgl32.Vec3{0, 1, 0},
		FovY:   mgl32.DegToRad(45),
		ZNear:  0.1,
		ZFar:   1000,
	}
	c.Refresh(1, 1)
	return c
}

// Refresh recomputes the view and view-projection matrices for the given viewport.
func (c *Camera) Refresh(width, height float32) {
	aspect := float32(1)
	if height > 0 {
		aspect = width / height
	}
	c.view = mgl32.LookAtV(c.Eye, c.Center, c.Up)
	c.proj = mgl32.Perspective(c.FovY, aspect, c.ZNear, c.ZFar)
	c.viewProj = c.proj.Mul4(c.view)
}

// View returns the view matrix computed by the last Refresh.
func (c *Camera) View() mgl32.Mat4 {
	return c.view
}

// Projection returns the perspective matrix from the last Refresh.
func (c *Camera) Projection() mgl32.Mat4 {
	return c.proj
}

// ViewProjection returns projection * view from the last Refresh.
func (c *Camera) ViewProjection() mgl32.Mat4 {
	return c.viewProj
}

// Forward returns the unit direction from Eye to Center.
func (c *Camera) Forward() mgl32.Vec3 {
	return c.Center.Sub(c.Eye).Normalize()
}

// Place moves the camera to eye looking at center.
func (c *Camera) Place(eye, center mgl32.Vec3) {
	c.Eye = eye
	c.Center = center
}

// basis returns the camera frame: xx right, yy up, zz pointing backwards (eye - center).
func (c *Camera) basis() (xx, yy, zz mgl32.Vec3) {
	zz = c.Eye.Sub(c.Center).Normalize()
	xx = c.Up.Cross(zz).Normalize()
	yy = zz.Cross(xx)
	return xx, yy, zz
}

// TranslateGlobal moves eye and center by t in world space.
func (c *Camera) TranslateGlobal(t mgl32.Vec3) {
	c.Eye = c.Eye.Add(t)
	c.Center = c.Center.Add(t)
}

// TranslateLocal moves eye and center along the camera's own axes.
func (c *Camera) TranslateLocal(t mgl32.Vec3) {
	xx, yy, zz := c.basis()
	tt := xx.Mul(t.X()).Add(yy.Mul(t.Y())).Add(zz.Mul(t.Z()))
	c.TranslateGlobal(tt)
}

// RotateGlobal turns the view direction and up vector around a world axis,
// keeping the eye fixed.
func (c *Camera) RotateGlobal(axis mgl32.Vec3, angle float32) {
	if axis.Len() == 0 {
		return
	}
	r := mgl32.QuatRotate(angle, axis.Normalize())
	zz := r.Rotate(c.Eye.Sub(c.Center))
	c.Center = c.Eye.Sub(zz)
	c.Up = r.Rotate(c.Up)

	// Up stays a unit vector orthogonal to the view direction.
	if xx := c.Up.Cross(zz); xx.Len() > 0 && zz.Len() > 0 {
		c.Up = zz.Normalize().Cross(xx.Normalize())
	}
}

// RotateLocal turns the camera around an axis given in its own frame.
func (c *Camera) RotateLocal(axis mgl32.Vec3, angle float32) {
	xx, yy, zz := c.basis()
	aa := xx.Mul(axis.X()).Add(yy.Mul(axis.Y())).Add(zz.Mul(axis.Z()))
	c.RotateGlobal(aa, angle)
}
