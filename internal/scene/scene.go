// Package scene holds the scene aggregate: named meshes, textures, instances
// and spawn templates, the node arena that forms the scene graph, cameras,
// billboards and lights.
package scene

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/ChrisPortokalis/EngineBase/internal/engine/camera"
	"github.com/ChrisPortokalis/EngineBase/internal/engine/lighting"
	"github.com/ChrisPortokalis/EngineBase/internal/logger"
)

// Scene owns every entity of a loaded scene description.
type Scene struct {
	// Global properties
	Background mgl32.Vec3
	Music      string

	// Lighting, shared with the renderer's light block
	Lights *lighting.Set

	meshes    map[string]*Mesh
	textures  map[string]*Texture
	instances map[string]*Instance
	templates map[string]*Instance

	// Node arena in id order. Removed slots are nil until the next compaction.
	nodes     []*Node
	byID      map[NodeID]*Node
	nodeNames map[string]NodeID
	nextID    NodeID
	liveNodes int

	camera     *camera.Camera
	cameras    []camera.Camera
	currentCam int

	billboards []*Billboard
}

// New creates an empty scene with a default camera.
func New() *Scene {
	return &Scene{
		Background: mgl32.Vec3{0, 0, 0},
		Lights:     lighting.NewSet(),
		meshes:     make(map[string]*Mesh),
		textures:   make(map[string]*Texture),
		instances:  make(map[string]*Instance),
		templates:  make(map[string]*Instance),
		byID:       make(map[NodeID]*Node),
		nodeNames:  make(map[string]NodeID),
		camera:     camera.New(),
	}
}

// AddMesh registers a mesh under its name.
func (s *Scene) AddMesh(m *Mesh) error {
	if m.Name == "" {
		return fmt.Errorf("add mesh: %w", ErrEmptyName)
	}
	if _, ok := s.meshes[m.Name]; ok {
		return fmt.Errorf("add mesh %q: %w", m.Name, ErrDuplicateName)
	}
	s.meshes[m.Name] = m
	return nil
}

// Mesh looks a mesh up by name.
func (s *Scene) Mesh(name string) (*Mesh, bool) {
	m, ok := s.meshes[name]
	if !ok {
		logger.Debug("mesh not found", zap.String("name", name))
	}
	return m, ok
}

// AddTexture registers a texture under its name.
func (s *Scene) AddTexture(t *Texture) error {
	if t.Name == "" {
		return fmt.Errorf("add texture: %w", ErrEmptyName)
	}
	if _, ok := s.textures[t.Name]; ok {
		return fmt.Errorf("add texture %q: %w", t.Name, ErrDuplicateName)
	}
	s.textures[t.Name] = t
	return nil
}

// Texture looks a texture up by name.
func (s *Scene) Texture(name string) (*Texture, bool) {
	t, ok := s.textures[name]
	if !ok {
		logger.Debug("texture not found", zap.String("name", name))
	}
	return t, ok
}

// AddInstance registers a live instance under its name.
func (s *Scene) AddInstance(in *Instance) error {
	if in.Name == "" {
		return fmt.Errorf("add instance: %w", ErrEmptyName)
	}
	if _, ok := s.instances[in.Name]; ok {
		return fmt.Errorf("add instance %q: %w", in.Name, ErrDuplicateName)
	}
	s.instances[in.Name] = in
	return nil
}

// Instance looks a live instance up by name.
func (s *Scene) Instance(name string) (*Instance, bool) {
	in, ok := s.instances[name]
	if !ok {
		logger.Debug("instance not found", zap.String("name", name))
	}
	return in, ok
}

// AddTemplate registers a spawn template. Templates are never drawn and never
// become nodes themselves; spawners clone them.
func (s *Scene) AddTemplate(in *Instance) error {
	if in.Name == "" {
		return fmt.Errorf("add template: %w", ErrEmptyName)
	}
	if _, ok := s.templates[in.Name]; ok {
		return fmt.Errorf("add template %q: %w", in.Name, ErrDuplicateName)
	}
	s.templates[in.Name] = in
	return nil
}

// Template looks a spawn template up by name.
func (s *Scene) Template(name string) (*Instance, bool) {
	in, ok := s.templates[name]
	if !ok {
		logger.Debug("template not found", zap.String("name", name))
	}
	return in, ok
}

// NameTaken reports whether name is used by a node or a live instance.
func (s *Scene) NameTaken(name string) bool {
	if _, ok := s.nodeNames[name]; ok {
		return true
	}
	_, ok := s.instances[name]
	return ok
}

// Camera returns the active camera.
func (s *Scene) Camera() *camera.Camera {
	return s.camera
}

// AddCamera appends a camera to the switchable list. The first camera added
// also becomes the active one.
func (s *Scene) AddCamera(c camera.Camera) {
	s.cameras = append(s.cameras, c)
	if len(s.cameras) == 1 {
		*s.camera = c
		s.currentCam = 0
	}
}

// CameraCount returns the number of cameras in the list.
func (s *Scene) CameraCount() int {
	return len(s.cameras)
}

// CurrentCamera returns the list index the active camera was switched from.
func (s *Scene) CurrentCamera() int {
	return s.currentCam
}

// StoreCamera saves the active camera back into its list slot so switching
// away and back restores it.
func (s *Scene) StoreCamera() {
	if s.currentCam >= 0 && s.currentCam < len(s.cameras) {
		s.cameras[s.currentCam] = *s.camera
	}
}

// SwitchCamera makes list entry i the active camera.
func (s *Scene) SwitchCamera(i int) error {
	if i < 0 || i >= len(s.cameras) {
		return fmt.Errorf("switch camera %d of %d: %w", i, len(s.cameras), ErrNotFound)
	}
	*s.camera = s.cameras[i]
	s.currentCam = i
	return nil
}
