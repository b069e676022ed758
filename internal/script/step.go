package script

import (
	"fmt"
	gomath "math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
	"go.uber.org/zap"

	"github.com/ChrisPortokalis/EngineBase/internal/logger"
	"github.com/ChrisPortokalis/EngineBase/internal/scene"
)

// Kind orders the steps of a MoveScript. Steps run in ascending Kind order.
type Kind int

const (
	KindFaceTarget Kind = iota
	KindGlobalRotate
	KindLocalRotate
	KindLocalTranslate
	KindGlobalTranslate
	KindSetScale
	KindOscillate
	KindFollow
	KindProjectile
	KindTween
	KindOrbit
)

var kindNames = [...]string{
	KindFaceTarget:      "face-target",
	KindGlobalRotate:    "global-rotate",
	KindLocalRotate:     "local-rotate",
	KindLocalTranslate:  "local-translate",
	KindGlobalTranslate: "global-translate",
	KindSetScale:        "set-scale",
	KindOscillate:       "oscillate",
	KindFollow:          "follow",
	KindProjectile:      "projectile",
	KindTween:           "tween",
	KindOrbit:           "orbit",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("kind(%d)", int(k))
	}
	return kindNames[k]
}

// Step is one behaviour of a MoveScript. The set of implementations is closed;
// each carries its own parameters and per-instance state.
type Step interface {
	Kind() Kind
	// Validate reports parameter errors, wrapping ErrInvalidStep.
	Validate() error
	// NeedsTarget reports whether the step reads the script's target node.
	NeedsTarget() bool

	apply(e *env)
	clone() Step
}

// env is what a step sees while it runs.
type env struct {
	scene   *scene.Scene
	script  *MoveScript
	subject *scene.Node
	target  *scene.Node // nil when unset or removed
	dt      float32
}

func invalid(k Kind, format string, args ...any) error {
	return fmt.Errorf("%s: %s: %w", k, fmt.Sprintf(format, args...), ErrInvalidStep)
}

// FaceTarget turns the subject so its -Z forward points at the target. Both
// positions are taken in world space; a parented subject aims in its parent's
// frame.
type FaceTarget struct{}

func (*FaceTarget) Kind() Kind        { return KindFaceTarget }
func (*FaceTarget) Validate() error   { return nil }
func (*FaceTarget) NeedsTarget() bool { return true }
func (s *FaceTarget) clone() Step     { c := *s; return &c }

func (s *FaceTarget) apply(e *env) {
	if e.target == nil {
		return
	}
	from, _, _ := e.scene.WorldPose(e.subject.ID)
	to, _, _ := e.scene.WorldPose(e.target.ID)
	d := to.Sub(from)
	if e.subject.Parent() != scene.NoNode {
		d = mgl32.TransformNormal(d, e.scene.ParentWorldInverse(e.subject.ID))
	}
	if d.Len() == 0 {
		return
	}
	d = d.Normalize()
	yaw := float32(gomath.Atan2(float64(-d.X()), float64(-d.Z())))
	pitch := float32(gomath.Asin(float64(d.Y())))
	e.subject.Instance.Transform.SetRotation(
		mgl32.QuatRotate(yaw, mgl32.Vec3{0, 1, 0}).Mul(mgl32.QuatRotate(pitch, mgl32.Vec3{1, 0, 0})))
}

// GlobalRotate spins the subject about a world axis every tick.
type GlobalRotate struct {
	Axis  mgl32.Vec3
	Angle float32 // radians per tick
}

func (*GlobalRotate) Kind() Kind        { return KindGlobalRotate }
func (*GlobalRotate) NeedsTarget() bool { return false }
func (s *GlobalRotate) clone() Step     { c := *s; return &c }

func (s *GlobalRotate) Validate() error {
	if s.Axis.Len() == 0 {
		return invalid(KindGlobalRotate, "zero axis")
	}
	return nil
}

func (s *GlobalRotate) apply(e *env) {
	e.subject.Instance.Transform.RotateGlobal(s.Axis.Normalize(), s.Angle)
}

// LocalRotate spins the subject about an axis of its own frame every tick.
type LocalRotate struct {
	Axis  mgl32.Vec3
	Angle float32 // radians per tick
}

func (*LocalRotate) Kind() Kind        { return KindLocalRotate }
func (*LocalRotate) NeedsTarget() bool { return false }
func (s *LocalRotate) clone() Step     { c := *s; return &c }

func (s *LocalRotate) Validate() error {
	if s.Axis.Len() == 0 {
		return invalid(KindLocalRotate, "zero axis")
	}
	return nil
}

func (s *LocalRotate) apply(e *env) {
	e.subject.Instance.Transform.RotateLocal(s.Axis.Normalize(), s.Angle)
}

// LocalTranslate moves the subject along its own axes every tick.
type LocalTranslate struct {
	Delta mgl32.Vec3
}

func (*LocalTranslate) Kind() Kind        { return KindLocalTranslate }
func (*LocalTranslate) Validate() error   { return nil }
func (*LocalTranslate) NeedsTarget() bool { return false }
func (s *LocalTranslate) clone() Step     { c := *s; return &c }

func (s *LocalTranslate) apply(e *env) {
	e.subject.Instance.Transform.TranslateLocal(s.Delta)
}

// GlobalTranslate moves the subject in world space every tick.
type GlobalTranslate struct {
	Delta mgl32.Vec3
}

func (*GlobalTranslate) Kind() Kind        { return KindGlobalTranslate }
func (*GlobalTranslate) Validate() error   { return nil }
func (*GlobalTranslate) NeedsTarget() bool { return false }
func (s *GlobalTranslate) clone() Step     { c := *s; return &c }

func (s *GlobalTranslate) apply(e *env) {
	e.subject.Instance.Transform.TranslateGlobal(s.Delta)
}

// SetScale pins the subject's scale.
type SetScale struct {
	Scale mgl32.Vec3
}

func (*SetScale) Kind() Kind        { return KindSetScale }
func (*SetScale) Validate() error   { return nil }
func (*SetScale) NeedsTarget() bool { return false }
func (s *SetScale) clone() Step     { c := *s; return &c }

func (s *SetScale) apply(e *env) {
	e.subject.Instance.Transform.SetScale(s.Scale)
}

// Oscillate moves the subject by Delta each tick and reverses an axis whenever
// the position leaves [min, Max] on it. min is the position at the first tick.
type Oscillate struct {
	Delta mgl32.Vec3
	Max   mgl32.Vec3

	min    mgl32.Vec3
	minSet bool
}

func (*Oscillate) Kind() Kind        { return KindOscillate }
func (*Oscillate) Validate() error   { return nil }
func (*Oscillate) NeedsTarget() bool { return false }
func (s *Oscillate) clone() Step     { c := *s; return &c }

// Min returns the captured lower bound and whether it has been captured.
func (s *Oscillate) Min() (mgl32.Vec3, bool) {
	return s.min, s.minSet
}

func (s *Oscillate) apply(e *env) {
	t := &e.subject.Instance.Transform
	if !s.minSet {
		s.min = t.Translation
		s.minSet = true
	}
	t.TranslateGlobal(s.Delta)
	for a := 0; a < 3; a++ {
		if p := t.Translation[a]; p < s.min[a] || p > s.Max[a] {
			s.Delta[a] = -s.Delta[a]
		}
	}
}

// Follow chases the target one axis at a time: an axis further than Distance
// from the target moves Speed towards it. The target's world position is
// mapped into the subject's parent space first.
type Follow struct {
	Distance float32
	Speed    float32
}

func (*Follow) Kind() Kind        { return KindFollow }
func (*Follow) NeedsTarget() bool { return true }
func (s *Follow) clone() Step     { c := *s; return &c }

func (s *Follow) Validate() error {
	if s.Distance < 0 {
		return invalid(KindFollow, "negative distance %v", s.Distance)
	}
	if s.Speed < 0 {
		return invalid(KindFollow, "negative speed %v", s.Speed)
	}
	return nil
}

func (s *Follow) apply(e *env) {
	if e.target == nil {
		return
	}
	t := &e.subject.Instance.Transform
	p := t.Translation
	to, _, _ := e.scene.WorldPose(e.target.ID)
	goal := mgl32.TransformCoordinate(to, e.scene.ParentWorldInverse(e.subject.ID))
	for a := 0; a < 3; a++ {
		dist := p[a] - goal[a]
		if float32(gomath.Abs(float64(dist))) <= s.Distance {
			continue
		}
		if dist < 0 {
			p[a] += s.Speed
		} else {
			p[a] -= s.Speed
		}
	}
	t.SetTranslation(p)
}

// Projectile flies the subject forward (-Z) Speed per tick and removes it from
// the scene after MaxDistance. If Reference names a node, the projectile only
// flies while that node exists.
type Projectile struct {
	Speed       float32
	MaxDistance float32
	Reference   string

	traveled float32
}

func (*Projectile) Kind() Kind        { return KindProjectile }
func (*Projectile) NeedsTarget() bool { return false }
func (s *Projectile) clone() Step     { c := *s; return &c }

// Traveled returns the distance flown so far.
func (s *Projectile) Traveled() float32 {
	return s.traveled
}

func (s *Projectile) Validate() error {
	if s.Speed <= 0 {
		return invalid(KindProjectile, "speed must be positive, got %v", s.Speed)
	}
	if s.MaxDistance <= 0 {
		return invalid(KindProjectile, "max distance must be positive, got %v", s.MaxDistance)
	}
	return nil
}

func (s *Projectile) apply(e *env) {
	if s.Reference != "" {
		if _, ok := e.scene.LookupNode(s.Reference); !ok {
			return
		}
	}
	e.subject.Instance.Transform.TranslateLocal(mgl32.Vec3{0, 0, -s.Speed})
	s.traveled += s.Speed
	if s.traveled < s.MaxDistance {
		return
	}

	logger.Debug("projectile expired",
		zap.String("node", e.subject.Name),
		zap.Float32("distance", s.traveled))
	_ = e.scene.RemoveNode(e.subject.ID)
	e.script.active = false
}

// Orbit turns and moves the subject through the scene's global node
// operations: the subject gets !Inverse and every descendant Inverse, so by
// default children counter-rotate: they circle the subject while keeping
// their world orientation.
type Orbit struct {
	Axis    mgl32.Vec3
	Angle   float32    // radians per tick
	Delta   mgl32.Vec3 // translation per tick
	Inverse bool
}

func (*Orbit) Kind() Kind        { return KindOrbit }
func (*Orbit) NeedsTarget() bool { return false }
func (s *Orbit) clone() Step     { c := *s; return &c }

func (s *Orbit) Validate() error {
	if s.Angle != 0 && s.Axis.Len() == 0 {
		return invalid(KindOrbit, "zero axis")
	}
	return nil
}

func (s *Orbit) apply(e *env) {
	if s.Angle != 0 {
		_ = e.scene.RotateGlobal(e.subject.ID, s.Axis.Normalize(), s.Angle, s.Inverse)
	}
	if s.Delta != (mgl32.Vec3{}) {
		_ = e.scene.TranslateGlobal(e.subject.ID, s.Delta, s.Inverse)
	}
}

var easings = map[string]ease.TweenFunc{
	"linear":       ease.Linear,
	"in-quad":      ease.InQuad,
	"out-quad":     ease.OutQuad,
	"in-out-quad":  ease.InOutQuad,
	"in-cubic":     ease.InCubic,
	"out-cubic":    ease.OutCubic,
	"in-out-cubic": ease.InOutCubic,
	"in-out-sine":  ease.InOutSine,
	"out-bounce":   ease.OutBounce,
	"out-elastic":  ease.OutElastic,
}

// Tween eases the subject's translation from where it is at the first tick to
// To over Duration seconds. With Yoyo it then eases back and repeats.
type Tween struct {
	To       mgl32.Vec3
	Duration float32 // seconds
	Ease     string  // easing name, empty for linear
	Yoyo     bool

	from    mgl32.Vec3
	tweens  [3]*gween.Tween
	started bool
	done    bool
}

func (*Tween) Kind() Kind        { return KindTween }
func (*Tween) NeedsTarget() bool { return false }

func (s *Tween) clone() Step {
	c := *s
	c.tweens = [3]*gween.Tween{}
	c.started = false
	c.done = false
	return &c
}

// Done reports whether a non-yoyo tween has arrived.
func (s *Tween) Done() bool {
	return s.done
}

func (s *Tween) Validate() error {
	if s.Duration <= 0 {
		return invalid(KindTween, "duration must be positive, got %v", s.Duration)
	}
	if _, ok := s.easing(); !ok {
		return invalid(KindTween, "unknown easing %q", s.Ease)
	}
	return nil
}

func (s *Tween) easing() (ease.TweenFunc, bool) {
	if s.Ease == "" {
		return ease.Linear, true
	}
	fn, ok := easings[s.Ease]
	return fn, ok
}

func (s *Tween) start(from, to mgl32.Vec3) {
	fn, _ := s.easing()
	s.from = from
	for a := 0; a < 3; a++ {
		s.tweens[a] = gween.New(from[a], to[a], s.Duration, fn)
	}
	s.started = true
}

func (s *Tween) apply(e *env) {
	if s.done {
		return
	}
	t := &e.subject.Instance.Transform
	if !s.started {
		s.start(t.Translation, s.To)
	}

	var p mgl32.Vec3
	finished := true
	for a := 0; a < 3; a++ {
		v, ok := s.tweens[a].Update(e.dt)
		p[a] = v
		finished = finished && ok
	}
	t.SetTranslation(p)

	if !finished {
		return
	}
	if !s.Yoyo {
		s.done = true
		return
	}
	// Head back to where this leg started.
	s.start(p, s.from)
}
