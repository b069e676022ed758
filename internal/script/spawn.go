package script

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/ChrisPortokalis/EngineBase/internal/logger"
	"github.com/ChrisPortokalis/EngineBase/internal/scene"
)

// Counter hands out spawn numbers. One counter is shared by every spawner of a
// runner so clone names never collide.
type Counter struct {
	next int
}

// Next returns the next number.
func (c *Counter) Next() int {
	n := c.next
	c.next++
	return n
}

// SpawnConfig describes a spawner.
type SpawnConfig struct {
	Template string      // template instance to clone
	Move     *MoveScript // optional behaviour cloned onto every spawn
	Location mgl32.Vec3
	// Orient names a node whose rotation spawns copy. Empty keeps the
	// template's rotation.
	Orient string

	// Continuous spawners fire every Interval ticks (1 when zero).
	Continuous bool
	Interval   int
}

// SpawnScript clones a template into the scene.
type SpawnScript struct {
	cfg     SpawnConfig
	counter *Counter
	enabled bool
	ticks   int
}

// NewSpawnScript creates a spawner drawing names from counter.
func NewSpawnScript(cfg SpawnConfig, counter *Counter) (*SpawnScript, error) {
	if counter == nil {
		return nil, fmt.Errorf("spawner %q: nil counter", cfg.Template)
	}
	if cfg.Interval < 0 {
		return nil, fmt.Errorf("spawner %q: negative interval %d", cfg.Template, cfg.Interval)
	}
	if cfg.Interval == 0 {
		cfg.Interval = 1
	}
	return &SpawnScript{cfg: cfg, counter: counter, enabled: cfg.Continuous}, nil
}

// SetContinuous turns periodic spawning on or off.
func (sp *SpawnScript) SetContinuous(on bool) {
	sp.enabled = on
	sp.ticks = 0
}

// Spawn clones the template at the configured location. It reports false when
// no template is configured or the template does not exist.
func (sp *SpawnScript) Spawn(r *Runner) (scene.NodeID, bool) {
	var rot *mgl32.Quat
	if sp.cfg.Orient != "" {
		if n, ok := r.scene.LookupNode(sp.cfg.Orient); ok {
			_, q, _ := r.scene.WorldPose(n.ID)
			rot = &q
		}
	}
	return sp.spawn(r, sp.cfg.Location, rot)
}

// SpawnFrom clones the template as a root node at source's world position,
// facing the way source faces in the world.
func (sp *SpawnScript) SpawnFrom(r *Runner, source *scene.Node) (scene.NodeID, bool) {
	at, q, ok := r.scene.WorldPose(source.ID)
	if !ok {
		return scene.NoNode, false
	}
	return sp.spawn(r, at, &q)
}

func (sp *SpawnScript) spawn(r *Runner, at mgl32.Vec3, rot *mgl32.Quat) (scene.NodeID, bool) {
	if sp.cfg.Template == "" {
		return scene.NoNode, false
	}
	tmpl, ok := r.scene.Template(sp.cfg.Template)
	if !ok {
		return scene.NoNode, false
	}

	name := sp.nextName(r.scene)
	inst := tmpl.Clone(name)
	inst.Transform.SetTranslation(at)
	if rot != nil {
		inst.Transform.SetRotation(*rot)
	}
	inst.Transform.Refresh()

	if err := r.scene.AddInstance(inst); err != nil {
		logger.Warn("spawn failed", zap.String("template", sp.cfg.Template), zap.Error(err))
		return scene.NoNode, false
	}
	id, err := r.scene.AddNode(name, inst)
	if err != nil {
		logger.Warn("spawn failed", zap.String("template", sp.cfg.Template), zap.Error(err))
		return scene.NoNode, false
	}

	if sp.cfg.Move != nil {
		if err := r.AddMove(sp.cfg.Move.Clone(name, id)); err != nil {
			logger.Warn("spawned node has no behaviour", zap.String("node", name), zap.Error(err))
		}
	}

	logger.Debug("spawned", zap.String("template", sp.cfg.Template), zap.String("node", name))
	return id, true
}

func (sp *SpawnScript) nextName(s *scene.Scene) string {
	for {
		name := fmt.Sprintf("%s%d", sp.cfg.Template, sp.counter.Next())
		if !s.NameTaken(name) {
			return name
		}
	}
}

// Run spawns once every Interval ticks while continuous spawning is on.
func (sp *SpawnScript) Run(r *Runner) {
	if !sp.enabled {
		return
	}
	sp.ticks++
	if sp.ticks < sp.cfg.Interval {
		return
	}
	sp.ticks = 0
	sp.Spawn(r)
}
