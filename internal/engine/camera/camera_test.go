package camera

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/ChrisPortokalis/EngineBase/internal/approx"
)

const eps = 1e-4

func TestNew(t *testing.T) {
	c := New()
	if c.Eye != (mgl32.Vec3{0, 0, 5}) {
		t.Errorf("eye: got %v, want (0,0,5)", c.Eye)
	}
	if got := c.Forward(); !approx.Vec3(got, mgl32.Vec3{0, 0, -1}, eps) {
		t.Errorf("forward: got %v, want (0,0,-1)", got)
	}
}

func TestTranslateLocalForward(t *testing.T) {
	c := New()
	// Camera-local -Z is the viewing direction.
	c.TranslateLocal(mgl32.Vec3{0, 0, -1})
	if !approx.Vec3(c.Eye, mgl32.Vec3{0, 0, 4}, eps) {
		t.Errorf("eye: got %v, want (0,0,4)", c.Eye)
	}
	if !approx.Vec3(c.Center, mgl32.Vec3{0, 0, -1}, eps) {
		t.Errorf("center: got %v, want (0,0,-1)", c.Center)
	}
}

func TestTranslateLocalStrafe(t *testing.T) {
	c := New()
	c.TranslateLocal(mgl32.Vec3{1, 0, 0})
	if !approx.Vec3(c.Eye, mgl32.Vec3{1, 0, 5}, eps) {
		t.Errorf("eye: got %v, want (1,0,5)", c.Eye)
	}
}

func TestRotateGlobalKeepsEye(t *testing.T) {
	c := New()
	c.RotateGlobal(mgl32.Vec3{0, 1, 0}, math.Pi/2)

	if !approx.Vec3(c.Eye, mgl32.Vec3{0, 0, 5}, eps) {
		t.Errorf("eye moved: %v", c.Eye)
	}
	// Looking down -Z turned left 90 degrees looks down -X.
	if got := c.Forward(); !approx.Vec3(got, mgl32.Vec3{-1, 0, 0}, eps) {
		t.Errorf("forward: got %v, want (-1,0,0)", got)
	}
	if dist := c.Eye.Sub(c.Center).Len(); math.Abs(float64(dist-5)) > eps {
		t.Errorf("eye-center distance: got %v, want 5", dist)
	}
}

func TestRotateLocalPitch(t *testing.T) {
	c := New()
	c.RotateLocal(mgl32.Vec3{1, 0, 0}, math.Pi/2)
	if got := c.Forward(); !approx.Vec3(got, mgl32.Vec3{0, 1, 0}, eps) {
		t.Errorf("forward: got %v, want (0,1,0)", got)
	}
	if !approx.Vec3(c.Up, mgl32.Vec3{0, 0, 1}, eps) {
		t.Errorf("up: got %v, want (0,0,1)", c.Up)
	}
}

func TestRefreshViewProjection(t *testing.T) {
	c := New()
	c.Refresh(800, 600)
	// The center projects to the middle of the screen.
	p := mgl32.TransformCoordinate(c.Center, c.ViewProjection())
	if math.Abs(float64(p.X())) > eps || math.Abs(float64(p.Y())) > eps {
		t.Errorf("center should project to NDC origin, got %v", p)
	}
}

func TestRefreshProjection(t *testing.T) {
	c := New()
	c.Refresh(800, 600)
	want := c.Projection().Mul4(c.View())
	if !approx.Mat4(c.ViewProjection(), want, eps) {
		t.Errorf("view-projection: got %v, want projection * view %v", c.ViewProjection(), want)
	}
}

func TestRefreshZeroHeight(t *testing.T) {
	c := New()
	c.Refresh(800, 0)
	if c.ViewProjection() == (mgl32.Mat4{}) {
		t.Error("zero height should fall back to aspect 1")
	}
}

func TestRepeatedRotationKeepsUnitUp(t *testing.T) {
	c := New()
	for i := 0; i < 100000; i++ {
		c.RotateLocal(mgl32.Vec3{1, 0, 0}, 0.01)
		c.RotateGlobal(mgl32.Vec3{0, 1, 0}, 0.01)
	}
	if l := c.Up.Len(); !approx.Float(l, 1, 1e-4) {
		t.Errorf("up length: got %v, want 1", l)
	}
	if d := c.Up.Dot(c.Forward()); !approx.Float(d, 0, 1e-3) {
		t.Errorf("up . forward: got %v, want 0", d)
	}
}
