package scene

import (
	"errors"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/ChrisPortokalis/EngineBase/internal/approx"
	"github.com/ChrisPortokalis/EngineBase/internal/engine/camera"
)

type recordingDrawer struct {
	names []string
}

func (d *recordingDrawer) Draw(e Entity, _ *camera.Camera) {
	d.names = append(d.names, e.Name)
}

func TestTables(t *testing.T) {
	s := New()
	if err := s.AddMesh(&Mesh{Name: "cube"}); err != nil {
		t.Fatal(err)
	}
	if err := s.AddMesh(&Mesh{Name: "cube"}); !errors.Is(err, ErrDuplicateName) {
		t.Errorf("duplicate mesh: got %v, want ErrDuplicateName", err)
	}
	if err := s.AddTexture(&Texture{}); !errors.Is(err, ErrEmptyName) {
		t.Errorf("empty texture: got %v, want ErrEmptyName", err)
	}
	if _, ok := s.Mesh("sphere"); ok {
		t.Error("unknown mesh should miss")
	}
	if m, ok := s.Mesh("cube"); !ok || m.Name != "cube" {
		t.Errorf("mesh lookup: got %v, %v", m, ok)
	}

	if err := s.AddTemplate(NewInstance("bullet", nil)); err != nil {
		t.Fatal(err)
	}
	if _, ok := s.Instance("bullet"); ok {
		t.Error("templates must not appear as live instances")
	}
	if s.NameTaken("bullet") {
		t.Error("a template name alone does not take a node name")
	}
}

func TestInstanceCloneIsIndependent(t *testing.T) {
	orig := NewInstance("ship", &Mesh{Name: "ship"})
	orig.Material.Colors = []NamedColor{{Uniform: "uDiffuse", Value: mgl32.Vec4{1, 0, 0, 1}}}

	c := orig.Clone("ship1")
	c.Transform.TranslateGlobal(mgl32.Vec3{5, 0, 0})
	c.Material.Colors[0].Value = mgl32.Vec4{0, 1, 0, 1}

	if orig.Transform.Translation != (mgl32.Vec3{}) {
		t.Errorf("original moved: %v", orig.Transform.Translation)
	}
	if orig.Material.Colors[0].Value != (mgl32.Vec4{1, 0, 0, 1}) {
		t.Error("original material changed")
	}
	if c.Mesh != orig.Mesh {
		t.Error("clone should share the mesh handle")
	}
	if c.Name != "ship1" {
		t.Errorf("clone name: got %q, want ship1", c.Name)
	}
}

func TestDrawOrder(t *testing.T) {
	s := New()
	_, _ = s.AddNode("b", NewInstance("b", &Mesh{Name: "m"}))
	_, _ = s.AddNode("group", nil)
	_, _ = s.AddNode("a", NewInstance("a", &Mesh{Name: "m"}))
	_ = s.AddTemplate(NewInstance("tmpl", &Mesh{Name: "m"}))
	s.AddBillboard(&Billboard{Name: "tree", Instance: NewInstance("tree", &Mesh{Name: "quad"})})

	d := &recordingDrawer{}
	s.ResolveWorld()
	s.Draw(d)

	want := []string{"b", "a", "tree"}
	if len(d.names) != len(want) {
		t.Fatalf("drawn: got %v, want %v", d.names, want)
	}
	for i := range want {
		if d.names[i] != want[i] {
			t.Errorf("draw %d: got %q, want %q", i, d.names[i], want[i])
		}
	}
}

func TestBillboardFacing(t *testing.T) {
	tests := []struct {
		name string
		kind BillboardKind
		eye  mgl32.Vec3
		want mgl32.Vec3
	}{
		{"cylindrical side", Cylindrical, mgl32.Vec3{10, 0, 0}, mgl32.Vec3{1, 0, 0}},
		{"cylindrical ignores height", Cylindrical, mgl32.Vec3{0, 50, -3}, mgl32.Vec3{0, 0, -1}},
		{"spherical diagonal", Spherical, mgl32.Vec3{0, 5, 5}, mgl32.Vec3{0, 0.70710677, 0.70710677}},
		{"spherical side", Spherical, mgl32.Vec3{-4, 0, 0}, mgl32.Vec3{-1, 0, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := &Billboard{Kind: tt.kind, Instance: NewInstance("bb", nil)}
			b.Face(tt.eye)
			got := b.Instance.Transform.Rotation.Rotate(mgl32.Vec3{0, 0, 1})
			if !approx.Vec3(got, tt.want, eps) {
				t.Errorf("normal: got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCameraSwitching(t *testing.T) {
	s := New()
	c0 := *camera.New()
	c1 := *camera.New()
	c1.Eye = mgl32.Vec3{0, 10, 0}
	s.AddCamera(c0)
	s.AddCamera(c1)

	if s.CameraCount() != 2 {
		t.Fatalf("count: got %d, want 2", s.CameraCount())
	}

	s.Camera().TranslateGlobal(mgl32.Vec3{1, 0, 0})
	s.StoreCamera()
	if err := s.SwitchCamera(1); err != nil {
		t.Fatal(err)
	}
	if s.Camera().Eye != (mgl32.Vec3{0, 10, 0}) {
		t.Errorf("camera 1 eye: got %v", s.Camera().Eye)
	}
	if err := s.SwitchCamera(0); err != nil {
		t.Fatal(err)
	}
	if s.Camera().Eye != (mgl32.Vec3{1, 0, 5}) {
		t.Errorf("stored camera 0 eye: got %v, want (1,0,5)", s.Camera().Eye)
	}
	if err := s.SwitchCamera(5); !errors.Is(err, ErrNotFound) {
		t.Errorf("out of range: got %v, want ErrNotFound", err)
	}
}
