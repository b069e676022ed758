package script

import (
	"fmt"
	"slices"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/ChrisPortokalis/EngineBase/internal/engine/audio"
	"github.com/ChrisPortokalis/EngineBase/internal/engine/particles"
	"github.com/ChrisPortokalis/EngineBase/internal/scene"
)

// emitterMover is implemented by listeners that also place positional sounds.
type emitterMover interface {
	MoveEmitter(name string, pos mgl32.Vec3)
}

// Runner owns the scripts of one scene and steps them once per tick.
type Runner struct {
	scene   *scene.Scene
	counter *Counter

	controls []*ControlScript
	spawners []*SpawnScript
	moves    []*MoveScript
	emitters []*particles.System

	listener        audio.Listener
	listenerSubject string
}

// NewRunner creates a runner for s. A nil counter gets a fresh one.
func NewRunner(s *scene.Scene, counter *Counter) *Runner {
	if counter == nil {
		counter = &Counter{}
	}
	return &Runner{scene: s, counter: counter}
}

// Scene returns the scene the runner drives.
func (r *Runner) Scene() *scene.Scene {
	return r.scene
}

// Counter returns the spawn counter shared by the runner's spawners.
func (r *Runner) Counter() *Counter {
	return r.counter
}

// AddControl registers a control script.
func (r *Runner) AddControl(c *ControlScript) {
	r.controls = append(r.controls, c)
}

// Controls returns the registered control scripts.
func (r *Runner) Controls() []*ControlScript {
	return r.controls
}

// AddSpawner registers a spawner.
func (r *Runner) AddSpawner(sp *SpawnScript) {
	r.spawners = append(r.spawners, sp)
}

// AddEmitter registers a particle emitter.
func (r *Runner) AddEmitter(e *particles.System) {
	r.emitters = append(r.emitters, e)
}

// Emitters returns the registered particle emitters.
func (r *Runner) Emitters() []*particles.System {
	return r.emitters
}

// AddMove binds a move script. The subject must exist, and so must the target
// when any step reads it. Scripts added while move scripts are running first
// run on the next tick.
func (r *Runner) AddMove(m *MoveScript) error {
	if !r.scene.HasNode(m.Subject) {
		return fmt.Errorf("bind %q: %w", m.Name, ErrNoSubject)
	}
	if m.NeedsTarget() && !r.scene.HasNode(m.Target) {
		return fmt.Errorf("bind %q: %w", m.Name, ErrNoTarget)
	}
	r.moves = append(r.moves, m)
	return nil
}

// Moves returns the registered move scripts.
func (r *Runner) Moves() []*MoveScript {
	return r.moves
}

// SetListener routes the listening position to l each tick. The listener
// follows the subject node when present and the camera otherwise.
func (r *Runner) SetListener(l audio.Listener, subject string) {
	r.listener = l
	r.listenerSubject = subject
}

// Tick advances the scene by one frame:
//  1. control scripts (which may spawn)
//  2. continuous spawners
//  3. move scripts registered before this phase, spawns from 1-2 included
//  4. world resolution, billboards and particles
//  5. audio listener
func (r *Runner) Tick(dt float32) {
	for _, c := range r.controls {
		c.Run(r)
	}
	for _, sp := range r.spawners {
		sp.Run(r)
	}

	pass := r.moves[:len(r.moves):len(r.moves)]
	for _, m := range pass {
		m.Run(r.scene, dt)
	}
	r.moves = slices.DeleteFunc(r.moves, func(m *MoveScript) bool {
		return !m.Active() || !r.scene.HasNode(m.Subject)
	})

	r.scene.ResolveWorld()
	r.scene.FaceBillboards()
	for _, e := range r.emitters {
		e.Step()
	}

	r.updateListener()
}

func (r *Runner) updateListener() {
	if r.listener == nil {
		return
	}
	if n, ok := r.scene.LookupNode(r.listenerSubject); ok && r.listenerSubject != "" {
		r.listener.SetListener(n.WorldPosition(), n.Instance.Transform.Forward())
	} else {
		cam := r.scene.Camera()
		r.listener.SetListener(cam.Eye, cam.Forward())
	}

	if em, ok := r.listener.(emitterMover); ok {
		for _, n := range r.scene.Nodes() {
			if n.Instance.Sound != "" {
				em.MoveEmitter(n.Name, n.WorldPosition())
			}
		}
	}
}
