package script

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/ChrisPortokalis/EngineBase/internal/engine/camera"
	"github.com/ChrisPortokalis/EngineBase/internal/engine/input"
	"github.com/ChrisPortokalis/EngineBase/internal/logger"
	"github.com/ChrisPortokalis/EngineBase/internal/scene"
)

// PersonMode selects how the camera follows the controlled subject.
type PersonMode int

const (
	// Detached leaves the camera free; the keyboard flies the camera.
	Detached PersonMode = iota
	FirstPerson
	ThirdPerson
)

// ParsePersonMode converts "none", "first" or "third".
func ParsePersonMode(name string) (PersonMode, error) {
	switch name {
	case "", "none":
		return Detached, nil
	case "first":
		return FirstPerson, nil
	case "third":
		return ThirdPerson, nil
	default:
		return Detached, fmt.Errorf("unknown person mode %q", name)
	}
}

// Bindings maps actions to keys.
type Bindings struct {
	Forward   input.Key
	Back      input.Key
	Left      input.Key
	Right     input.Key
	PitchUp   input.Key
	PitchDown input.Key
	YawLeft   input.Key
	YawRight  input.Key
	Fire      input.Key
}

// DefaultBindings returns WASD movement, arrow-key turning and space to fire.
func DefaultBindings() Bindings {
	return Bindings{
		Forward:   input.KeyW,
		Back:      input.KeyS,
		Left:      input.KeyA,
		Right:     input.KeyD,
		PitchUp:   input.KeyUp,
		PitchDown: input.KeyDown,
		YawLeft:   input.KeyLeft,
		YawRight:  input.KeyRight,
		Fire:      input.KeySpace,
	}
}

// ControlConfig describes a control script.
type ControlConfig struct {
	Subject  string // node driven by the keyboard in first/third person
	Keyboard bool
	Mode     PersonMode
	Bindings Bindings

	MoveStep   float32 // W/S distance per tick
	StrafeStep float32 // A/D distance per tick
	PitchStep  float32 // radians per tick
	YawStep    float32 // radians per tick

	Projectile      string // template fired with the Fire key
	ProjectileSpeed float32
	ProjectileRange float32

	// CameraKeys lets 1..9 switch between the scene's cameras.
	CameraKeys bool
}

// DefaultControlConfig returns the stock control settings.
func DefaultControlConfig() ControlConfig {
	return ControlConfig{
		Subject:         "player",
		Keyboard:        true,
		Bindings:        DefaultBindings(),
		MoveStep:        1,
		StrafeStep:      0.2,
		PitchStep:       0.01,
		YawStep:         0.01,
		Projectile:      "bullet",
		ProjectileSpeed: 1,
		ProjectileRange: 50,
		CameraKeys:      true,
	}
}

// ControlScript maps keyboard state onto the subject or the camera and keeps
// the camera placed relative to the subject.
type ControlScript struct {
	cfg    ControlConfig
	keys   *input.Tracker
	width  float32
	height float32
}

// NewControlScript creates a control script reading kb. A nil keyboard reads
// as nothing held.
func NewControlScript(cfg ControlConfig, kb input.Keyboard, width, height float32) *ControlScript {
	return &ControlScript{
		cfg:    cfg,
		keys:   input.NewTracker(kb),
		width:  width,
		height: height,
	}
}

// SetViewport updates the size used to refresh the camera.
func (c *ControlScript) SetViewport(width, height float32) {
	c.width = width
	c.height = height
}

// SetKeyboard turns keyboard polling on or off.
func (c *ControlScript) SetKeyboard(on bool) {
	c.cfg.Keyboard = on
}

// SetFirstPerson enables or disables first person. Enabling it disables third
// person.
func (c *ControlScript) SetFirstPerson(on bool) {
	switch {
	case on:
		c.cfg.Mode = FirstPerson
	case c.cfg.Mode == FirstPerson:
		c.cfg.Mode = Detached
	}
}

// SetThirdPerson enables or disables third person. Enabling it disables first
// person.
func (c *ControlScript) SetThirdPerson(on bool) {
	switch {
	case on:
		c.cfg.Mode = ThirdPerson
	case c.cfg.Mode == ThirdPerson:
		c.cfg.Mode = Detached
	}
}

// Mode returns the active person mode.
func (c *ControlScript) Mode() PersonMode {
	return c.cfg.Mode
}

// mover is the motion interface shared by transforms and the camera.
type mover interface {
	TranslateLocal(t mgl32.Vec3)
	RotateLocal(axis mgl32.Vec3, angle float32)
	RotateGlobal(axis mgl32.Vec3, angle float32)
}

// Run polls the keyboard once, applies it, places and refreshes the camera.
func (c *ControlScript) Run(r *Runner) {
	s := r.scene
	cam := s.Camera()
	c.keys.Update()

	subject, present := s.LookupNode(c.cfg.Subject)
	if c.cfg.Subject == "" {
		present = false
	}
	attached := present && c.cfg.Mode != Detached

	if c.cfg.Keyboard {
		var m mover = cam
		if attached {
			m = &subject.Instance.Transform
		}
		c.drive(m)

		if present && c.keys.Pressed(c.cfg.Bindings.Fire) {
			c.fire(r, subject)
		}
		if c.cfg.CameraKeys {
			c.switchCamera(s)
		}
	}

	if attached {
		c.place(cam, s, subject)
	}
	cam.Refresh(c.width, c.height)
}

func (c *ControlScript) drive(m mover) {
	b := c.cfg.Bindings
	x := mgl32.Vec3{1, 0, 0}
	y := mgl32.Vec3{0, 1, 0}

	if c.keys.Down(b.Forward) {
		m.TranslateLocal(mgl32.Vec3{0, 0, -c.cfg.MoveStep})
	}
	if c.keys.Down(b.Back) {
		m.TranslateLocal(mgl32.Vec3{0, 0, c.cfg.MoveStep})
	}
	if c.keys.Down(b.Right) {
		m.TranslateLocal(mgl32.Vec3{c.cfg.StrafeStep, 0, 0})
	}
	if c.keys.Down(b.Left) {
		m.TranslateLocal(mgl32.Vec3{-c.cfg.StrafeStep, 0, 0})
	}
	if c.keys.Down(b.PitchDown) {
		m.RotateLocal(x, -c.cfg.PitchStep)
	}
	if c.keys.Down(b.PitchUp) {
		m.RotateLocal(x, c.cfg.PitchStep)
	}
	if c.keys.Down(b.YawLeft) {
		m.RotateGlobal(y, c.cfg.YawStep)
	}
	if c.keys.Down(b.YawRight) {
		m.RotateGlobal(y, -c.cfg.YawStep)
	}
}

func (c *ControlScript) fire(r *Runner, subject *scene.Node) {
	if c.cfg.Projectile == "" {
		return
	}
	if _, ok := r.scene.Template(c.cfg.Projectile); !ok {
		return
	}

	move, err := NewMoveScript(c.cfg.Projectile, scene.NoNode, scene.NoNode, &Projectile{
		Speed:       c.cfg.ProjectileSpeed,
		MaxDistance: c.cfg.ProjectileRange,
		Reference:   c.cfg.Subject,
	})
	if err != nil {
		logger.Warn("projectile not fired", zap.Error(err))
		return
	}
	sp, err := NewSpawnScript(SpawnConfig{Template: c.cfg.Projectile, Move: move}, r.counter)
	if err != nil {
		logger.Warn("projectile not fired", zap.Error(err))
		return
	}
	sp.SpawnFrom(r, subject)
}

var cameraKeys = [...]input.Key{
	input.Key1, input.Key2, input.Key3, input.Key4, input.Key5,
	input.Key6, input.Key7, input.Key8, input.Key9,
}

func (c *ControlScript) switchCamera(s *scene.Scene) {
	for i, k := range cameraKeys {
		if !c.keys.Pressed(k) || i >= s.CameraCount() {
			continue
		}
		s.StoreCamera()
		if err := s.SwitchCamera(i); err != nil {
			logger.Debug("camera switch failed", zap.Error(err))
		}
		return
	}
}

// place positions the camera behind the subject (third person) or at its eye
// (first person), using the subject's world pose. Local +Z is the subject's
// back.
func (c *ControlScript) place(cam *camera.Camera, s *scene.Scene, subject *scene.Node) {
	p, q, ok := s.WorldPose(subject.ID)
	if !ok {
		return
	}
	back := q.Rotate(mgl32.Vec3{0, 0, 1})
	up := mgl32.Vec3{0, 1, 0}

	switch c.cfg.Mode {
	case ThirdPerson:
		cam.Place(p.Add(back.Mul(20)).Add(up.Mul(5)), p.Add(up.Mul(3)))
	case FirstPerson:
		cam.Place(p.Add(back.Mul(1)).Sub(up.Mul(0.1)), p.Add(up.Mul(0.1)))
	}
}
