package manifest

import (
	"fmt"
	"maps"
	"math/rand/v2"
	"slices"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/ChrisPortokalis/EngineBase/internal/assets"
	"github.com/ChrisPortokalis/EngineBase/internal/engine/camera"
	"github.com/ChrisPortokalis/EngineBase/internal/engine/input"
	"github.com/ChrisPortokalis/EngineBase/internal/engine/lighting"
	"github.com/ChrisPortokalis/EngineBase/internal/engine/particles"
	"github.com/ChrisPortokalis/EngineBase/internal/logger"
	"github.com/ChrisPortokalis/EngineBase/internal/scene"
	"github.com/ChrisPortokalis/EngineBase/internal/script"
	"github.com/ChrisPortokalis/EngineBase/pkg/transform"
)

// Env supplies the services a build needs.
type Env struct {
	Loader   assets.Loader  // nil loads placeholders only
	Keyboard input.Keyboard // read by the control script
	Width    float32
	Height   float32
	// Controls are the control script defaults; nil uses
	// script.DefaultControlConfig.
	Controls *script.ControlConfig
	Rand     *rand.Rand // particle randomness; nil seeds from the runtime
}

// Sound is a looped positional source attached to a node.
type Sound struct {
	Node     string
	File     string
	Data     []byte
	Position mgl32.Vec3
}

// Result is a built scene.
type Result struct {
	Scene    *scene.Scene
	Runner   *script.Runner
	Control  *script.ControlScript // nil when the manifest declares none
	Sounds   []Sound
	Music    []byte
	Listener string // node the audio listener follows
}

// Build turns m into a scene and runner. It always returns a usable result;
// the error collects every recoverable problem (missing assets, dangling
// references, invalid steps). Failed assets are replaced by placeholders.
func Build(m *Manifest, env Env) (*Result, error) {
	if env.Loader == nil {
		env.Loader = assets.Placeholder{}
	}
	if env.Rand == nil {
		env.Rand = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	s := scene.New()
	b := &builder{
		m:        m,
		env:      env,
		s:        s,
		r:        script.NewRunner(s, nil),
		programs: make(map[string]uint32),
	}
	b.build()

	res := &Result{
		Scene:    s,
		Runner:   b.r,
		Control:  b.control,
		Sounds:   b.sounds,
		Music:    b.music,
		Listener: m.World.Listener,
	}
	return res, b.err
}

type builder struct {
	m   *Manifest
	env Env
	s   *scene.Scene
	r   *script.Runner

	programs map[string]uint32
	control  *script.ControlScript
	sounds   []Sound
	music    []byte

	err error
}

func (b *builder) problem(err error) {
	logger.Warn("scene manifest", zap.Error(err))
	b.err = multierr.Append(b.err, err)
}

func (b *builder) build() {
	b.world()
	b.assets()
	b.instances()
	b.nodes()
	b.parents()
	b.templates()
	b.cameras()
	b.lights()
	b.billboards()
	b.particles()
	b.moves()
	b.controls()
	b.spawners()

	b.s.ResolveWorld()
	b.s.FaceBillboards()
	b.nodeSounds()
}

func (b *builder) world() {
	w := b.m.World
	b.s.Background = w.Background
	b.s.Music = w.Music
	if w.Music == "" {
		return
	}
	data, err := b.env.Loader.Sound(w.Music)
	if err != nil {
		b.problem(fmt.Errorf("music %s: %w", w.Music, err))
		return
	}
	b.music = data
}

func (b *builder) assets() {
	for _, a := range b.m.Meshes {
		mesh, err := b.env.Loader.Mesh(a.File)
		if err != nil {
			b.problem(fmt.Errorf("mesh %q: %w", a.Name, err))
			mesh, _ = assets.Placeholder{}.Mesh(a.File)
		}
		mesh.Name = a.Name
		if err := b.s.AddMesh(mesh); err != nil {
			b.problem(err)
		}
	}

	for _, a := range b.m.Textures {
		tex, err := b.env.Loader.Texture(a.File)
		if err != nil {
			b.problem(fmt.Errorf("texture %q: %w", a.Name, err))
			tex, _ = assets.Placeholder{}.Texture(a.File)
		}
		tex.Name = a.Name
		if err := b.s.AddTexture(tex); err != nil {
			b.problem(err)
		}
	}

	for _, p := range b.m.Programs {
		if _, ok := b.programs[p.Name]; ok {
			b.problem(fmt.Errorf("program %q: %w", p.Name, scene.ErrDuplicateName))
			continue
		}
		id, err := b.env.Loader.Program(p.Vertex, p.Fragment)
		if err != nil {
			b.problem(fmt.Errorf("program %q: %w", p.Name, err))
		}
		b.programs[p.Name] = id
	}
}

// instance creates the instance for spec, resolving its mesh, program and
// textures. Unknown references are reported and left as placeholders.
func (b *builder) instance(spec InstanceSpec) *scene.Instance {
	var mesh *scene.Mesh
	if spec.Mesh != "" {
		m, ok := b.s.Mesh(spec.Mesh)
		if !ok {
			b.problem(fmt.Errorf("instance %q: mesh %q: %w", spec.Name, spec.Mesh, scene.ErrNotFound))
			m = &scene.Mesh{Name: spec.Mesh}
		}
		mesh = m
	}

	inst := scene.NewInstance(spec.Name, mesh)
	inst.Sound = spec.Sound
	inst.Transform = spec.transform()

	if spec.Program != "" {
		prog, ok := b.programs[spec.Program]
		if !ok {
			b.problem(fmt.Errorf("instance %q: program %q: %w", spec.Name, spec.Program, scene.ErrNotFound))
		}
		inst.Material.Program = prog
	}
	for _, uniform := range slices.Sorted(maps.Keys(spec.Colors)) {
		inst.Material.Colors = append(inst.Material.Colors, scene.NamedColor{
			Uniform: uniform,
			Value:   spec.Colors[uniform],
		})
	}
	for _, uniform := range slices.Sorted(maps.Keys(spec.Textures)) {
		name := spec.Textures[uniform]
		tex, ok := b.s.Texture(name)
		if !ok {
			b.problem(fmt.Errorf("instance %q: texture %q: %w", spec.Name, name, scene.ErrNotFound))
			tex = &scene.Texture{Name: name}
		}
		inst.Material.Textures = append(inst.Material.Textures, scene.NamedTexture{
			Uniform: uniform,
			Texture: tex,
		})
	}
	return inst
}

func (t TransformSpec) transform() transform.Transform {
	tr := transform.New()
	if t.Scale != nil {
		tr.SetScale(*t.Scale)
	}
	if r := t.Rotation; r != nil && r.Axis.Len() > 0 {
		tr.SetRotation(mgl32.QuatRotate(mgl32.DegToRad(r.Angle), r.Axis.Normalize()))
	}
	tr.SetTranslation(t.Translation)
	tr.Refresh()
	return tr
}

func (b *builder) instances() {
	for _, spec := range b.m.Instances {
		inst := b.instance(spec)
		if err := b.s.AddInstance(inst); err != nil {
			b.problem(err)
			continue
		}
		if _, err := b.s.AddNode(spec.Name, inst); err != nil {
			b.problem(err)
		}
	}
}

func (b *builder) nodes() {
	for _, spec := range b.m.Nodes {
		inst := scene.NewInstance(spec.Name, nil)
		inst.Transform = spec.transform()
		if _, err := b.s.AddNode(spec.Name, inst); err != nil {
			b.problem(err)
		}
	}
}

func (b *builder) parents() {
	link := func(child, parent string) {
		if parent == "" {
			return
		}
		c, ok := b.s.LookupNode(child)
		if !ok {
			return
		}
		p, ok := b.s.LookupNode(parent)
		if !ok {
			b.problem(fmt.Errorf("node %q: parent %q: %w", child, parent, scene.ErrNotFound))
			return
		}
		if err := b.s.SetParent(c.ID, p.ID); err != nil {
			b.problem(err)
		}
	}
	for _, spec := range b.m.Instances {
		link(spec.Name, spec.Parent)
	}
	for _, spec := range b.m.Nodes {
		link(spec.Name, spec.Parent)
	}
}

func (b *builder) templates() {
	for _, spec := range b.m.Templates {
		if err := b.s.AddTemplate(b.instance(spec)); err != nil {
			b.problem(err)
		}
	}
}

func (b *builder) cameras() {
	for _, spec := range b.m.Cameras {
		c := camera.New()
		c.Eye = spec.Eye
		c.Center = spec.Center
		if spec.Up != nil {
			c.Up = *spec.Up
		}
		if spec.FovY > 0 {
			c.FovY = mgl32.DegToRad(spec.FovY)
		}
		if spec.ZNear > 0 {
			c.ZNear = spec.ZNear
		}
		if spec.ZFar > 0 {
			c.ZFar = spec.ZFar
		}
		c.Refresh(b.env.Width, b.env.Height)
		b.s.AddCamera(*c)
	}
}

func (b *builder) lights() {
	for i, spec := range b.m.Lights {
		t, err := lighting.ParseType(spec.Type)
		if err != nil {
			b.problem(fmt.Errorf("light %d: %w", i, err))
			continue
		}
		l := lighting.New(t)
		p := spec.Position
		l.Position = mgl32.Vec4{p.X(), p.Y(), p.Z(), 1}
		l.SetDirection(spec.Direction)
		if spec.Sun != nil {
			l.SetDirection(lighting.SunDirection(spec.Sun[0], spec.Sun[1]).Mul(-1))
		}
		l.Color = spec.Color
		if l.Color == (mgl32.Vec4{}) {
			l.Color = mgl32.Vec4{1, 1, 1, 1}
		}
		a := spec.Attenuation
		l.Attenuation = mgl32.Vec4{a.X(), a.Y(), a.Z(), float32(t)}
		if spec.Cone != nil {
			l.SetCone(mgl32.DegToRad(spec.Cone[0]), mgl32.DegToRad(spec.Cone[1]))
		}
		if err := b.s.Lights.Add(l); err != nil {
			b.problem(fmt.Errorf("light %d: %w", i, err))
		}
	}
}

func parseBillboardKind(name string) (scene.BillboardKind, error) {
	switch name {
	case "", "cylindrical":
		return scene.Cylindrical, nil
	case "spherical":
		return scene.Spherical, nil
	default:
		return scene.Cylindrical, fmt.Errorf("unknown billboard kind %q", name)
	}
}

func (b *builder) billboard(spec BillboardSpec) *scene.Billboard {
	kind, err := parseBillboardKind(spec.Kind)
	if err != nil {
		b.problem(fmt.Errorf("billboard %q: %w", spec.Name, err))
	}
	return &scene.Billboard{Name: spec.Name, Kind: kind, Instance: b.instance(spec.InstanceSpec)}
}

func (b *builder) billboards() {
	for _, spec := range b.m.Billboards {
		bb := b.billboard(spec)
		if err := b.s.AddInstance(bb.Instance); err != nil {
			b.problem(err)
			continue
		}
		b.s.AddBillboard(bb)
	}
}

func (b *builder) particles() {
	for i, spec := range b.m.Particles {
		mode, err := particles.ParseMode(spec.Mode)
		if err != nil {
			b.problem(fmt.Errorf("particles %d: %w", i, err))
			continue
		}
		if spec.Life <= 0 {
			b.problem(fmt.Errorf("particles %d: life %d must be positive", i, spec.Life))
			continue
		}
		sys := particles.New(particles.Config{
			Origin:       spec.Origin,
			Acceleration: spec.Acceleration,
			VelocityMag:  spec.Velocity,
			Life:         float32(spec.Life),
			Duration:     float32(spec.Duration),
			Mode:         mode,
		}, b.billboard(spec.Billboard), b.env.Rand)
		b.r.AddEmitter(sys)
	}
}

// lookup resolves an optional node name. Empty names resolve to scene.NoNode.
func (b *builder) lookup(name string) (scene.NodeID, error) {
	if name == "" {
		return scene.NoNode, nil
	}
	n, ok := b.s.LookupNode(name)
	if !ok {
		return scene.NoNode, fmt.Errorf("node %q: %w", name, scene.ErrNotFound)
	}
	return n.ID, nil
}

func (b *builder) moves() {
	for i, spec := range b.m.Scripts.Move {
		name := spec.Name
		if name == "" {
			name = fmt.Sprintf("%s-move%d", spec.Subject, i)
		}
		if err := b.move(name, spec); err != nil {
			b.problem(fmt.Errorf("move script %q: %w", name, err))
		}
	}
}

func (b *builder) move(name string, spec MoveSpec) error {
	subject, err := b.lookup(spec.Subject)
	if err != nil {
		return fmt.Errorf("subject: %w", err)
	}
	if subject == scene.NoNode {
		return fmt.Errorf("no subject: %w", script.ErrNoSubject)
	}
	target, err := b.lookup(spec.Target)
	if err != nil {
		return fmt.Errorf("target: %w", err)
	}
	steps, err := buildSteps(spec.Steps)
	if err != nil {
		return err
	}
	ms, err := script.NewMoveScript(name, subject, target, steps...)
	if err != nil {
		return err
	}
	return b.r.AddMove(ms)
}

var actions = map[string]func(*script.Bindings) *input.Key{
	"forward":    func(b *script.Bindings) *input.Key { return &b.Forward },
	"back":       func(b *script.Bindings) *input.Key { return &b.Back },
	"left":       func(b *script.Bindings) *input.Key { return &b.Left },
	"right":      func(b *script.Bindings) *input.Key { return &b.Right },
	"pitch-up":   func(b *script.Bindings) *input.Key { return &b.PitchUp },
	"pitch-down": func(b *script.Bindings) *input.Key { return &b.PitchDown },
	"yaw-left":   func(b *script.Bindings) *input.Key { return &b.YawLeft },
	"yaw-right":  func(b *script.Bindings) *input.Key { return &b.YawRight },
	"fire":       func(b *script.Bindings) *input.Key { return &b.Fire },
}

func (b *builder) controls() {
	spec := b.m.Scripts.Control
	if spec == nil {
		return
	}

	cfg := script.DefaultControlConfig()
	if b.env.Controls != nil {
		cfg = *b.env.Controls
	}
	if spec.Subject != "" {
		cfg.Subject = spec.Subject
	}
	if spec.Mode != "" {
		mode, err := script.ParsePersonMode(spec.Mode)
		if err != nil {
			b.problem(fmt.Errorf("control script: %w", err))
		}
		cfg.Mode = mode
	}
	if spec.Keyboard != nil {
		cfg.Keyboard = *spec.Keyboard
	}
	if spec.CameraKeys != nil {
		cfg.CameraKeys = *spec.CameraKeys
	}
	for _, action := range slices.Sorted(maps.Keys(spec.Bindings)) {
		field, ok := actions[action]
		if !ok {
			b.problem(fmt.Errorf("control script: unknown action %q", action))
			continue
		}
		key, ok := input.ParseKey(spec.Bindings[action])
		if !ok {
			b.problem(fmt.Errorf("control script: action %q: unknown key %q", action, spec.Bindings[action]))
			continue
		}
		*field(&cfg.Bindings) = key
	}
	if spec.MoveStep > 0 {
		cfg.MoveStep = spec.MoveStep
	}
	if spec.StrafeStep > 0 {
		cfg.StrafeStep = spec.StrafeStep
	}
	if spec.PitchStep > 0 {
		cfg.PitchStep = mgl32.DegToRad(spec.PitchStep)
	}
	if spec.YawStep > 0 {
		cfg.YawStep = mgl32.DegToRad(spec.YawStep)
	}
	if spec.Projectile != "" {
		cfg.Projectile = spec.Projectile
	}
	if spec.ProjectileSpeed > 0 {
		cfg.ProjectileSpeed = spec.ProjectileSpeed
	}
	if spec.ProjectileRange > 0 {
		cfg.ProjectileRange = spec.ProjectileRange
	}

	b.control = script.NewControlScript(cfg, b.env.Keyboard, b.env.Width, b.env.Height)
	b.r.AddControl(b.control)
}

func (b *builder) spawners() {
	for i, spec := range b.m.Scripts.Spawn {
		if err := b.spawner(spec); err != nil {
			b.problem(fmt.Errorf("spawner %d (%s): %w", i, spec.Template, err))
		}
	}
}

func (b *builder) spawner(spec SpawnSpec) error {
	if _, ok := b.s.Template(spec.Template); !ok {
		return fmt.Errorf("template %q: %w", spec.Template, scene.ErrNotFound)
	}

	var move *script.MoveScript
	if len(spec.Steps) > 0 {
		target, err := b.lookup(spec.Target)
		if err != nil {
			return fmt.Errorf("target: %w", err)
		}
		steps, err := buildSteps(spec.Steps)
		if err != nil {
			return err
		}
		move, err = script.NewMoveScript(spec.Template, scene.NoNode, target, steps...)
		if err != nil {
			return err
		}
	}

	sp, err := script.NewSpawnScript(script.SpawnConfig{
		Template:   spec.Template,
		Move:       move,
		Location:   spec.Location,
		Orient:     spec.Orient,
		Continuous: spec.Continuous,
		Interval:   spec.Interval,
	}, b.r.Counter())
	if err != nil {
		return err
	}
	b.r.AddSpawner(sp)
	if spec.Once {
		sp.Spawn(b.r)
	}
	return nil
}

func (b *builder) nodeSounds() {
	for _, n := range b.s.Nodes() {
		file := n.Instance.Sound
		if file == "" {
			continue
		}
		data, err := b.env.Loader.Sound(file)
		if err != nil {
			b.problem(fmt.Errorf("node %q: sound %s: %w", n.Name, file, err))
			continue
		}
		b.sounds = append(b.sounds, Sound{
			Node:     n.Name,
			File:     file,
			Data:     data,
			Position: n.WorldPosition(),
		})
	}
}
