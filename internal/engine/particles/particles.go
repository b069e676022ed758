// Package particles implements simple billboard particle emitters.
package particles

import (
	"fmt"
	"math/rand/v2"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/ChrisPortokalis/EngineBase/internal/engine/camera"
	"github.com/ChrisPortokalis/EngineBase/internal/scene"
)

// Mode selects how initial velocities are drawn.
type Mode int

const (
	// Explosion draws every velocity axis from [-mag, mag].
	Explosion Mode = iota
	// Fountain draws y from [0, mag] so particles only rise.
	Fountain
)

// ParseMode converts a mode name.
func ParseMode(name string) (Mode, error) {
	switch name {
	case "explosion":
		return Explosion, nil
	case "fountain":
		return Fountain, nil
	default:
		return Explosion, fmt.Errorf("unknown particle mode %q", name)
	}
}

// Particle is one moving point. Life counts down one per step.
type Particle struct {
	Position mgl32.Vec3
	Velocity mgl32.Vec3
	Life     float32
}

// Dead reports whether the particle has expired.
func (p *Particle) Dead() bool {
	return p.Life <= 0
}

// Config describes an emitter.
type Config struct {
	Origin       mgl32.Vec3
	Acceleration mgl32.Vec3
	VelocityMag  mgl32.Vec3
	Life         float32 // steps each particle lives
	Duration     float32 // steps the emitter keeps emitting; 0 emits forever
	Mode         Mode
}

// System emits one particle per step and draws each through a shared billboard.
type System struct {
	cfg       Config
	billboard *scene.Billboard
	rng       *rand.Rand

	particles []Particle
	elapsed   float32
}

// New creates an emitter drawn with bb. rng may be nil to use a time-seeded
// source.
func New(cfg Config, bb *scene.Billboard, rng *rand.Rand) *System {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &System{cfg: cfg, billboard: bb, rng: rng}
}

// Len returns the number of live particles.
func (s *System) Len() int {
	return len(s.particles)
}

// Particles returns the live particles.
func (s *System) Particles() []Particle {
	return s.particles
}

// Emitting reports whether the emitter still spawns particles.
func (s *System) Emitting() bool {
	return s.cfg.Duration <= 0 || s.elapsed < s.cfg.Duration
}

// Step advances every particle, drops the dead ones and emits a new one while
// the emitter is active.
func (s *System) Step() {
	live := s.particles[:0]
	for _, p := range s.particles {
		p.Position = p.Position.Add(p.Velocity)
		p.Velocity = p.Velocity.Add(s.cfg.Acceleration)
		p.Life--
		if !p.Dead() {
			live = append(live, p)
		}
	}
	clear(s.particles[len(live):])
	s.particles = live

	if s.Emitting() {
		s.particles = append(s.particles, s.spawn())
	}
	s.elapsed++
}

func (s *System) spawn() Particle {
	m := s.cfg.VelocityMag
	v := mgl32.Vec3{s.between(-m.X(), m.X()), 0, s.between(-m.Z(), m.Z())}
	switch s.cfg.Mode {
	case Fountain:
		v[1] = s.between(0, m.Y())
	default:
		v[1] = s.between(-m.Y(), m.Y())
	}
	return Particle{Position: s.cfg.Origin, Velocity: v, Life: s.cfg.Life}
}

func (s *System) between(lo, hi float32) float32 {
	return lo + s.rng.Float32()*(hi-lo)
}

// Draw hands every particle to d as a copy of the billboard placed at the
// particle and turned towards cam.
func (s *System) Draw(d scene.Drawer, cam *camera.Camera) {
	if s.billboard == nil || s.billboard.Instance.Mesh == nil {
		return
	}
	for _, p := range s.particles {
		bb := scene.Billboard{
			Name:     s.billboard.Name,
			Kind:     s.billboard.Kind,
			Instance: s.billboard.Instance.Clone(s.billboard.Name),
		}
		bb.Instance.Transform.SetTranslation(p.Position)
		bb.Face(cam.Eye)
		t := &bb.Instance.Transform
		d.Draw(scene.Entity{
			Name:         bb.Name,
			World:        t.World(),
			WorldInverse: t.Inverse(),
			Mesh:         bb.Instance.Mesh,
			Material:     &bb.Instance.Material,
		}, cam)
	}
}
