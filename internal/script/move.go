// Package script runs the per-tick behaviours of a scene: move scripts that
// animate a node, control scripts that map the keyboard onto the player or
// camera, and spawners that clone templates into the scene.
package script

import (
	"errors"
	"fmt"
	"slices"

	"github.com/ChrisPortokalis/EngineBase/internal/scene"
)

// MoveScript animates one subject node with an ordered list of steps.
type MoveScript struct {
	Name    string
	Subject scene.NodeID
	Target  scene.NodeID // scene.NoNode when the steps need no target

	steps  []Step
	active bool
}

// NewMoveScript validates steps and orders them by Kind. The steps are owned
// by the script from here on. A script built with subject scene.NoNode is a
// template for spawners and is bound later with Clone.
func NewMoveScript(name string, subject, target scene.NodeID, steps ...Step) (*MoveScript, error) {
	var errs []error
	for _, st := range steps {
		if st == nil {
			errs = append(errs, fmt.Errorf("nil step: %w", ErrInvalidStep))
			continue
		}
		if err := st.Validate(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return nil, fmt.Errorf("move script %q: %w", name, err)
	}

	sorted := slices.Clone(steps)
	slices.SortStableFunc(sorted, func(a, b Step) int { return int(a.Kind()) - int(b.Kind()) })

	return &MoveScript{
		Name:    name,
		Subject: subject,
		Target:  target,
		steps:   sorted,
		active:  true,
	}, nil
}

// Steps returns the steps in execution order.
func (m *MoveScript) Steps() []Step {
	return m.steps
}

// Active reports whether the script still runs.
func (m *MoveScript) Active() bool {
	return m.active
}

// Deactivate stops the script; the runner drops it after the current pass.
func (m *MoveScript) Deactivate() {
	m.active = false
}

// NeedsTarget reports whether any step reads the target node.
func (m *MoveScript) NeedsTarget() bool {
	return slices.ContainsFunc(m.steps, Step.NeedsTarget)
}

// Clone copies the script and its step state, bound to a new subject.
func (m *MoveScript) Clone(name string, subject scene.NodeID) *MoveScript {
	c := &MoveScript{
		Name:    name,
		Subject: subject,
		Target:  m.Target,
		steps:   make([]Step, len(m.steps)),
		active:  true,
	}
	for i, st := range m.steps {
		c.steps[i] = st.clone()
	}
	return c
}

// Run applies every step once. A missing subject deactivates the script; a
// missing target makes target-dependent steps no-ops. The subject's transform
// is refreshed afterwards.
func (m *MoveScript) Run(s *scene.Scene, dt float32) {
	if !m.active {
		return
	}
	subject, ok := s.Node(m.Subject)
	if !ok {
		m.active = false
		return
	}
	target, _ := s.Node(m.Target)

	e := &env{scene: s, script: m, subject: subject, target: target, dt: dt}
	for _, st := range m.steps {
		st.apply(e)
		if !m.active {
			// The subject removed itself.
			return
		}
	}
	subject.Instance.Transform.Refresh()
}
