// Package manifest reads the YAML scene description and builds it into a
// scene and the runner that animates it.
//
// Vectors are sequences of numbers, angles are degrees. A minimal manifest:
//
//	world:
//	  background: [0.1, 0.1, 0.2]
//	meshes:
//	  - {name: cube, file: cube.ply}
//	instances:
//	  - name: box
//	    mesh: cube
//	    translation: [0, 0, -5]
//	scripts:
//	  move:
//	    - subject: box
//	      steps:
//	        - {kind: global-rotate, axis: [0, 1, 0], angle: 1}
package manifest

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/go-gl/mathgl/mgl32"
	"gopkg.in/yaml.v3"
)

// Manifest is a whole scene description.
type Manifest struct {
	World      World           `yaml:"world"`
	Meshes     []AssetSpec     `yaml:"meshes"`
	Textures   []AssetSpec     `yaml:"textures"`
	Programs   []ProgramSpec   `yaml:"programs"`
	Instances  []InstanceSpec  `yaml:"instances"`
	Templates  []InstanceSpec  `yaml:"templates"`
	Nodes      []NodeSpec      `yaml:"nodes"`
	Cameras    []CameraSpec    `yaml:"cameras"`
	Lights     []LightSpec     `yaml:"lights"`
	Billboards []BillboardSpec `yaml:"billboards"`
	Particles  []ParticleSpec  `yaml:"particles"`
	Scripts    Scripts         `yaml:"scripts"`
}

// World holds scene-wide properties.
type World struct {
	Background mgl32.Vec3 `yaml:"background"`
	Music      string     `yaml:"music"`
	// Listener names the node the audio listener follows; empty follows the
	// camera.
	Listener string `yaml:"listener"`
}

// AssetSpec names a mesh or texture file.
type AssetSpec struct {
	Name string `yaml:"name"`
	File string `yaml:"file"`
}

// ProgramSpec names a shader pair.
type ProgramSpec struct {
	Name     string `yaml:"name"`
	Vertex   string `yaml:"vertex"`
	Fragment string `yaml:"fragment"`
}

// TransformSpec is the initial local transform of an instance or node.
type TransformSpec struct {
	Scale       *mgl32.Vec3   `yaml:"scale"` // unit scale when omitted
	Rotation    *RotationSpec `yaml:"rotation"`
	Translation mgl32.Vec3    `yaml:"translation"`
}

// RotationSpec is an axis and an angle in degrees.
type RotationSpec struct {
	Axis  mgl32.Vec3 `yaml:"axis"`
	Angle float32    `yaml:"angle"`
}

// InstanceSpec describes a mesh instance. Instances become root nodes of the
// same name unless Parent is set.
type InstanceSpec struct {
	Name          string                `yaml:"name"`
	Mesh          string                `yaml:"mesh"`
	Program       string                `yaml:"program"`
	Colors        map[string]mgl32.Vec4 `yaml:"colors"`   // uniform -> RGBA
	Textures      map[string]string     `yaml:"textures"` // uniform -> texture name
	Sound         string                `yaml:"sound"`
	Parent        string                `yaml:"parent"`
	TransformSpec `yaml:",inline"`
}

// NodeSpec describes a grouping node with no mesh.
type NodeSpec struct {
	Name          string `yaml:"name"`
	Parent        string `yaml:"parent"`
	TransformSpec `yaml:",inline"`
}

// CameraSpec describes one camera of the switchable list. The first camera
// is the active one at start.
type CameraSpec struct {
	Eye    mgl32.Vec3  `yaml:"eye"`
	Center mgl32.Vec3  `yaml:"center"`
	Up     *mgl32.Vec3 `yaml:"up"`   // +Y when omitted
	FovY   float32     `yaml:"fovy"` // degrees, 45 when zero
	ZNear  float32     `yaml:"znear"`
	ZFar   float32     `yaml:"zfar"`
}

// LightSpec describes a light.
type LightSpec struct {
	Type        string      `yaml:"type"`
	Position    mgl32.Vec3  `yaml:"position"`
	Direction   mgl32.Vec3  `yaml:"direction"`
	Color       mgl32.Vec4  `yaml:"color"`
	Attenuation mgl32.Vec3  `yaml:"attenuation"`
	Cone        *[2]float32 `yaml:"cone"` // inner, outer half angles in degrees
	// Sun places a directional light by compass longitude and elevation in
	// degrees; it overrides Direction.
	Sun *[2]float32 `yaml:"sun"`
}

// BillboardSpec is an instance that turns to face the camera.
type BillboardSpec struct {
	InstanceSpec `yaml:",inline"`
	Kind         string `yaml:"kind"` // cylindrical or spherical
}

// ParticleSpec describes an emitter drawing each particle as a billboard.
type ParticleSpec struct {
	Billboard    BillboardSpec `yaml:"billboard"`
	Mode         string        `yaml:"mode"` // explosion or fountain
	Origin       mgl32.Vec3    `yaml:"origin"`
	Acceleration mgl32.Vec3    `yaml:"acceleration"`
	Velocity     mgl32.Vec3    `yaml:"velocity"` // per-axis magnitude
	Life         int           `yaml:"life"`     // ticks
	Duration     int           `yaml:"duration"` // ticks, 0 emits forever
}

// Scripts holds the behaviours bound at load.
type Scripts struct {
	Move    []MoveSpec   `yaml:"move"`
	Control *ControlSpec `yaml:"control"`
	Spawn   []SpawnSpec  `yaml:"spawn"`
}

// MoveSpec binds a list of steps to a subject node.
type MoveSpec struct {
	Name    string     `yaml:"name"`
	Subject string     `yaml:"subject"`
	Target  string     `yaml:"target"`
	Steps   []StepSpec `yaml:"steps"`
}

// StepSpec is a typed step descriptor; Kind selects which fields apply.
type StepSpec struct {
	Kind string `yaml:"kind"`

	Axis  mgl32.Vec3 `yaml:"axis"`  // global-rotate, local-rotate, orbit
	Angle float32    `yaml:"angle"` // degrees per tick
	Delta mgl32.Vec3 `yaml:"delta"` // translate, oscillate, orbit
	Max   mgl32.Vec3 `yaml:"max"`   // oscillate
	Scale mgl32.Vec3 `yaml:"scale"` // set-scale

	Distance float32 `yaml:"distance"` // follow
	Speed    float32 `yaml:"speed"`    // follow, projectile
	Range    float32 `yaml:"range"`    // projectile
	Ref      string  `yaml:"reference"`

	To       mgl32.Vec3 `yaml:"to"`       // tween
	Duration float32    `yaml:"duration"` // tween, seconds
	Ease     string     `yaml:"ease"`
	Yoyo     bool       `yaml:"yoyo"`

	Inverse bool `yaml:"inverse"` // orbit
}

// ControlSpec configures the keyboard control script. Unset fields keep the
// engine defaults.
type ControlSpec struct {
	Subject    string            `yaml:"subject"`
	Mode       string            `yaml:"mode"`
	Keyboard   *bool             `yaml:"keyboard"`
	CameraKeys *bool             `yaml:"camera_keys"`
	Bindings   map[string]string `yaml:"bindings"` // action -> key name

	MoveStep   float32 `yaml:"move_step"`
	StrafeStep float32 `yaml:"strafe_step"`
	PitchStep  float32 `yaml:"pitch_step"` // degrees
	YawStep    float32 `yaml:"yaw_step"`   // degrees

	Projectile      string  `yaml:"projectile"`
	ProjectileSpeed float32 `yaml:"projectile_speed"`
	ProjectileRange float32 `yaml:"projectile_range"`
}

// SpawnSpec configures a spawner.
type SpawnSpec struct {
	Template   string     `yaml:"template"`
	Location   mgl32.Vec3 `yaml:"location"`
	Orient     string     `yaml:"orient"`
	Continuous bool       `yaml:"continuous"`
	Interval   int        `yaml:"interval"`
	Once       bool       `yaml:"once"` // spawn one copy at load
	Target     string     `yaml:"target"`
	Steps      []StepSpec `yaml:"steps"`
}

// Parse decodes a manifest. Unknown keys are errors.
func Parse(data []byte) (*Manifest, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	m := &Manifest{}
	if err := dec.Decode(m); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parsing manifest: %w", err)
	}
	return m, nil
}

// Load reads and decodes a manifest file.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}
	m, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}
