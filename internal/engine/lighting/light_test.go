package lighting

import (
	"errors"
	gomath "math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/ChrisPortokalis/EngineBase/internal/approx"
)

func TestSetCapacity(t *testing.T) {
	s := NewSet()
	for i := 0; i < MaxLights; i++ {
		if err := s.Add(New(Point)); err != nil {
			t.Fatalf("add %d: %v", i, err)
		}
	}
	err := s.Add(New(Point))
	if !errors.Is(err, ErrTooManyLights) {
		t.Fatalf("11th light: got %v, want ErrTooManyLights", err)
	}
	if s.Len() != MaxLights {
		t.Errorf("len: got %d, want %d", s.Len(), MaxLights)
	}
}

func TestParseType(t *testing.T) {
	tests := []struct {
		name    string
		want    Type
		wantErr bool
	}{
		{"ambient", Ambient, false},
		{"directional", Directional, false},
		{"point", Point, false},
		{"spot", Spot, false},
		{"head", Head, false},
		{"rim", Rim, false},
		{"laser", None, true},
	}
	for _, tt := range tests {
		got, err := ParseType(tt.name)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseType(%q) error: got %v, wantErr %v", tt.name, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseType(%q): got %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestConeStoredAsCosines(t *testing.T) {
	l := New(Spot)
	l.SetCone(0, gomath.Pi/3)
	if !approx.Float(l.ConeAngles[0], 1, 1e-6) {
		t.Errorf("inner: got %v, want 1", l.ConeAngles[0])
	}
	if !approx.Float(l.ConeAngles[1], 0.5, 1e-6) {
		t.Errorf("outer: got %v, want 0.5", l.ConeAngles[1])
	}
}

func TestSetDirectionNormalizes(t *testing.T) {
	l := New(Directional)
	l.SetDirection(mgl32.Vec3{0, -10, 0})
	if l.Direction != (mgl32.Vec4{0, -1, 0, 0}) {
		t.Errorf("direction: got %v, want (0,-1,0,0)", l.Direction)
	}
	l.SetDirection(mgl32.Vec3{})
	if l.Direction != (mgl32.Vec4{0, -1, 0, 0}) {
		t.Errorf("zero direction should be ignored, got %v", l.Direction)
	}
}

func TestPackLayout(t *testing.T) {
	s := NewSet()
	l := New(Spot)
	l.Color = mgl32.Vec4{1, 0.5, 0.25, 1}
	if err := s.Add(l); err != nil {
		t.Fatal(err)
	}

	buf := s.Pack()
	if len(buf) != MaxLights*floatsPerLight {
		t.Fatalf("len: got %d, want %d", len(buf), MaxLights*floatsPerLight)
	}
	if buf[8] != 1 || buf[9] != 0.5 || buf[10] != 0.25 {
		t.Errorf("color slot: got %v", buf[8:12])
	}
	if buf[15] != float32(Spot) {
		t.Errorf("type slot: got %v, want %v", buf[15], float32(Spot))
	}
	// The second slot is empty and reads as type None.
	if buf[floatsPerLight+15] != 0 {
		t.Errorf("unused slot type: got %v, want 0", buf[floatsPerLight+15])
	}
}

func TestFollowCamera(t *testing.T) {
	s := NewSet()
	for _, typ := range []Type{Point, Head} {
		if err := s.Add(New(typ)); err != nil {
			t.Fatal(err)
		}
	}

	s.FollowCamera(mgl32.Vec3{1, 2, 3}, mgl32.Vec3{0, 0, -2})

	if got := s.At(0).Position; got != (mgl32.Vec4{0, 0, 0, 1}) {
		t.Errorf("point light moved: got %v", got)
	}
	head := s.At(1)
	if got, want := head.Position, (mgl32.Vec4{1, 2, 3, 1}); got != want {
		t.Errorf("head position: got %v, want %v", got, want)
	}
	if got, want := head.Direction, (mgl32.Vec4{0, 0, -1, 0}); got != want {
		t.Errorf("head direction: got %v, want %v", got, want)
	}
}

func TestSunDirection(t *testing.T) {
	tests := []struct {
		lon, lat float32
		want     mgl32.Vec3
	}{
		{0, 0, mgl32.Vec3{0, 0, 1}},
		{90, 0, mgl32.Vec3{1, 0, 0}},
		{0, 90, mgl32.Vec3{0, 1, 0}},
	}
	for _, tt := range tests {
		got := SunDirection(tt.lon, tt.lat)
		if !approx.Vec3(got, tt.want, 1e-5) {
			t.Errorf("SunDirection(%v, %v): got %v, want %v", tt.lon, tt.lat, got, tt.want)
		}
	}
}
