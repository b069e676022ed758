// Package lighting holds the scene's light list and its GPU layout.
package lighting

import (
	"errors"
	"fmt"
	gomath "math"

	"github.com/go-gl/mathgl/mgl32"
)

// MaxLights is the number of lights the shader light block holds.
const MaxLights = 10

// ErrTooManyLights is returned when a Set is already full.
var ErrTooManyLights = errors.New("too many lights")

// Type selects the shading model of a light. The values are shared with the
// shaders, which read them from Attenuation.W.
type Type int

const (
	None Type = iota
	Ambient
	Directional
	Point
	Spot
	Head
	Rim
)

var typeNames = map[string]Type{
	"ambient":     Ambient,
	"directional": Directional,
	"point":       Point,
	"spot":        Spot,
	"head":        Head,
	"rim":         Rim,
}

// ParseType converts a light type name.
func ParseType(name string) (Type, error) {
	t, ok := typeNames[name]
	if !ok {
		return None, fmt.Errorf("unknown light type %q", name)
	}
	return t, nil
}

// Light mirrors one entry of the shader light block (five vec4s).
type Light struct {
	Position    mgl32.Vec4
	Direction   mgl32.Vec4
	Color       mgl32.Vec4
	Attenuation mgl32.Vec4 // xyz constant/linear/quadratic, w light type
	ConeAngles  mgl32.Vec4 // cosines of the inner and outer cone angles
}

// New returns a light of type t with the default spot cone.
func New(t Type) Light {
	return Light{
		Position:    mgl32.Vec4{0, 0, 0, 1},
		Direction:   mgl32.Vec4{0, 1, 0, 0},
		Attenuation: mgl32.Vec4{0, 0, 0, float32(t)},
		ConeAngles:  mgl32.Vec4{0.5, 0.55, 0, 0},
	}
}

// Type returns the light type stored in the attenuation w component.
func (l *Light) Type() Type {
	return Type(l.Attenuation.W())
}

// SetDirection stores dir normalized. A zero vector is ignored.
func (l *Light) SetDirection(dir mgl32.Vec3) {
	if dir.Len() == 0 {
		return
	}
	d := dir.Normalize()
	l.Direction = mgl32.Vec4{d.X(), d.Y(), d.Z(), 0}
}

// SetCone stores the inner and outer cone angles (radians) as cosines.
func (l *Light) SetCone(inner, outer float32) {
	l.ConeAngles[0] = float32(gomath.Cos(float64(inner)))
	l.ConeAngles[1] = float32(gomath.Cos(float64(outer)))
}

// floatsPerLight is the std140 size of Light in float32s.
const floatsPerLight = 20

// Set is a bounded list of lights owned by one scene.
type Set struct {
	lights []Light
}

// NewSet creates an empty light set.
func NewSet() *Set {
	return &Set{lights: make([]Light, 0, MaxLights)}
}

// Add appends a light. The set is left unchanged when full.
func (s *Set) Add(l Light) error {
	if len(s.lights) >= MaxLights {
		return fmt.Errorf("add %v light: %w", l.Type(), ErrTooManyLights)
	}
	s.lights = append(s.lights, l)
	return nil
}

// Len returns the number of lights.
func (s *Set) Len() int {
	return len(s.lights)
}

// At returns a pointer to the i-th light for in-place edits (head lights follow
// the camera, for instance).
func (s *Set) At(i int) *Light {
	return &s.lights[i]
}

// Clear removes all lights.
func (s *Set) Clear() {
	s.lights = s.lights[:0]
}

// FollowCamera moves every head light to the eye, pointing along forward.
func (s *Set) FollowCamera(eye, forward mgl32.Vec3) {
	for i := range s.lights {
		l := &s.lights[i]
		if l.Type() != Head {
			continue
		}
		l.Position = eye.Vec4(1)
		l.SetDirection(forward)
	}
}

// Pack flattens the set into the shader block layout. Unused slots are zero,
// which the shaders read as type None.
func (s *Set) Pack() []float32 {
	out := make([]float32, MaxLights*floatsPerLight)
	for i, l := range s.lights {
		o := out[i*floatsPerLight:]
		copy(o[0:4], l.Position[:])
		copy(o[4:8], l.Direction[:])
		copy(o[8:12], l.Color[:])
		copy(o[12:16], l.Attenuation[:])
		copy(o[16:20], l.ConeAngles[:])
	}
	return out
}

func (t Type) String() string {
	for name, v := range typeNames {
		if v == t {
			return name
		}
	}
	return "none"
}
