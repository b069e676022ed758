package scene

import (
	"fmt"
	"slices"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/ChrisPortokalis/EngineBase/internal/logger"
)

// NodeID identifies a node within its scene. IDs are never reused while the
// scene lives.
type NodeID int32

// NoNode is the NodeID of "no node" (a root's parent, an unset target).
const NoNode NodeID = -1

// Node is an element of the scene graph. The instance transform is the local
// transform; the world matrices are derived by ResolveWorld and never written
// back into it.
type Node struct {
	ID       NodeID
	Name     string
	Instance *Instance

	parent   NodeID
	children []NodeID
	slot     int // index in Scene.nodes

	world        mgl32.Mat4
	worldInverse mgl32.Mat4
}

// Parent returns the parent id, or NoNode for a root.
func (n *Node) Parent() NodeID {
	return n.parent
}

// Children returns a copy of the child ids in insertion order.
func (n *Node) Children() []NodeID {
	return slices.Clone(n.children)
}

// World returns the world matrix from the last ResolveWorld.
func (n *Node) World() mgl32.Mat4 {
	return n.world
}

// WorldInverse returns the inverse world matrix from the last ResolveWorld.
func (n *Node) WorldInverse() mgl32.Mat4 {
	return n.worldInverse
}

// Position returns the local translation.
func (n *Node) Position() mgl32.Vec3 {
	return n.Instance.Transform.Translation
}

// WorldPosition returns the translation column of the resolved world matrix.
func (n *Node) WorldPosition() mgl32.Vec3 {
	return n.world.Col(3).Vec3()
}

// AddNode inserts a root node for inst. A nil instance creates an empty grouping
// transform.
func (s *Scene) AddNode(name string, inst *Instance) (NodeID, error) {
	if name == "" {
		return NoNode, fmt.Errorf("add node: %w", ErrEmptyName)
	}
	if _, ok := s.nodeNames[name]; ok {
		return NoNode, fmt.Errorf("add node %q: %w", name, ErrDuplicateName)
	}
	if inst == nil {
		inst = NewInstance(name, nil)
	}

	id := s.nextID
	s.nextID++
	n := &Node{
		ID:           id,
		Name:         name,
		Instance:     inst,
		parent:       NoNode,
		slot:         len(s.nodes),
		world:        inst.Transform.World(),
		worldInverse: inst.Transform.Inverse(),
	}
	s.nodes = append(s.nodes, n)
	s.byID[id] = n
	s.nodeNames[name] = id
	s.liveNodes++
	return id, nil
}

// Node returns the live node with the given id.
func (s *Scene) Node(id NodeID) (*Node, bool) {
	n, ok := s.byID[id]
	return n, ok
}

// NodeByName looks a live node up by name.
func (s *Scene) NodeByName(name string) (*Node, bool) {
	id, ok := s.nodeNames[name]
	if !ok {
		logger.Debug("node not found", zap.String("name", name))
		return nil, false
	}
	return s.byID[id], true
}

// LookupNode is NodeByName without the miss diagnostic, for per-tick polling.
func (s *Scene) LookupNode(name string) (*Node, bool) {
	id, ok := s.nodeNames[name]
	if !ok {
		return nil, false
	}
	return s.byID[id], true
}

// HasNode reports whether id refers to a live node.
func (s *Scene) HasNode(id NodeID) bool {
	_, ok := s.Node(id)
	return ok
}

// NodeCount returns the number of live nodes.
func (s *Scene) NodeCount() int {
	return s.liveNodes
}

// Nodes returns the live nodes in id order.
func (s *Scene) Nodes() []*Node {
	out := make([]*Node, 0, s.liveNodes)
	for _, n := range s.nodes {
		if n != nil {
			out = append(out, n)
		}
	}
	return out
}

// SetParent attaches child under parent, recording both directions at once.
// A node can be parented once; self-parenting and cycles are rejected.
func (s *Scene) SetParent(child, parent NodeID) error {
	c, ok := s.Node(child)
	if !ok {
		return fmt.Errorf("set parent: child %d: %w", child, ErrNotFound)
	}
	p, ok := s.Node(parent)
	if !ok {
		return fmt.Errorf("set parent of %q: parent %d: %w", c.Name, parent, ErrNotFound)
	}
	if c.parent != NoNode {
		return fmt.Errorf("set parent of %q: %w", c.Name, ErrAlreadyParented)
	}
	for a := p.ID; a != NoNode; a = s.byID[a].parent {
		if a == c.ID {
			return fmt.Errorf("set parent of %q to %q: %w", c.Name, p.Name, ErrCycle)
		}
	}

	p.children = append(p.children, c.ID)
	c.parent = p.ID
	return nil
}

// RemoveNode detaches id from its parent and removes it with its whole subtree.
func (s *Scene) RemoveNode(id NodeID) error {
	n, ok := s.Node(id)
	if !ok {
		return fmt.Errorf("remove node %d: %w", id, ErrNotFound)
	}
	if p, ok := s.Node(n.parent); ok {
		p.children = slices.DeleteFunc(p.children, func(c NodeID) bool { return c == id })
	}
	s.dropSubtree(n)
	s.compact()
	return nil
}

func (s *Scene) dropSubtree(n *Node) {
	for _, c := range n.children {
		if cn, ok := s.Node(c); ok {
			s.dropSubtree(cn)
		}
	}
	delete(s.nodeNames, n.Name)
	if inst, ok := s.instances[n.Instance.Name]; ok && inst == n.Instance {
		delete(s.instances, n.Instance.Name)
	}
	s.nodes[n.slot] = nil
	delete(s.byID, n.ID)
	s.liveNodes--
}

// minCompact is the number of free slots below which compact does nothing.
const minCompact = 64

// compact drops the free slots once they outnumber the live nodes, so a
// continuous spawner does not grow the arena without bound. IDs are kept.
func (s *Scene) compact() {
	free := len(s.nodes) - s.liveNodes
	if free < minCompact || free <= s.liveNodes {
		return
	}
	s.nodes = slices.DeleteFunc(s.nodes, func(n *Node) bool { return n == nil })
	for i, n := range s.nodes {
		n.slot = i
	}
}

// Descendants returns every node below id, depth first.
func (s *Scene) Descendants(id NodeID) []NodeID {
	n, ok := s.Node(id)
	if !ok {
		return nil
	}
	var out []NodeID
	for _, c := range n.children {
		out = append(out, c)
		out = append(out, s.Descendants(c)...)
	}
	return out
}

// RotateLocal rotates the node's own transform about axis in its local frame.
// The axis is negated when inverse is set.
func (s *Scene) RotateLocal(id NodeID, axis mgl32.Vec3, angle float32, inverse bool) error {
	n, ok := s.Node(id)
	if !ok {
		return fmt.Errorf("rotate node %d: %w", id, ErrNotFound)
	}
	if inverse {
		axis = axis.Mul(-1)
	}
	n.Instance.Transform.RotateLocal(axis, angle)
	return nil
}

// TranslateLocal offsets the node's own translation (in its parent's space)
// without touching its children. t is negated when inverse is set.
func (s *Scene) TranslateLocal(id NodeID, t mgl32.Vec3, inverse bool) error {
	n, ok := s.Node(id)
	if !ok {
		return fmt.Errorf("translate node %d: %w", id, ErrNotFound)
	}
	if inverse {
		t = t.Mul(-1)
	}
	n.Instance.Transform.TranslateGlobal(t)
	return nil
}

// RotateGlobal rotates the node with !inverse and every descendant with
// inverse, so children counter-rotate unless inverse is set.
func (s *Scene) RotateGlobal(id NodeID, axis mgl32.Vec3, angle float32, inverse bool) error {
	if err := s.RotateLocal(id, axis, angle, !inverse); err != nil {
		return err
	}
	for _, d := range s.Descendants(id) {
		_ = s.RotateLocal(d, axis, angle, inverse)
	}
	return nil
}

// TranslateGlobal offsets the node with !inverse and every descendant with
// inverse.
func (s *Scene) TranslateGlobal(id NodeID, t mgl32.Vec3, inverse bool) error {
	if err := s.TranslateLocal(id, t, !inverse); err != nil {
		return err
	}
	for _, d := range s.Descendants(id) {
		_ = s.TranslateLocal(d, t, inverse)
	}
	return nil
}

// WorldMatrix composes the local transforms from the root down to id. Unlike
// World it is current between ResolveWorld passes, so steps can read nodes
// that moved or were spawned earlier in the tick.
func (s *Scene) WorldMatrix(id NodeID) (mgl32.Mat4, bool) {
	n, ok := s.Node(id)
	if !ok {
		return mgl32.Ident4(), false
	}
	m := n.Instance.Transform.World()
	for p, ok := s.Node(n.parent); ok; p, ok = s.Node(p.parent) {
		m = p.Instance.Transform.World().Mul4(m)
	}
	return m, true
}

// WorldPose returns the current world translation and rotation of id, with
// scale removed from the rotation.
func (s *Scene) WorldPose(id NodeID) (mgl32.Vec3, mgl32.Quat, bool) {
	n, ok := s.Node(id)
	if !ok {
		return mgl32.Vec3{}, mgl32.QuatIdent(), false
	}
	if n.parent == NoNode {
		t := &n.Instance.Transform
		return t.Translation, t.Rotation, true
	}
	m, _ := s.WorldMatrix(id)
	var r mgl32.Mat4
	for c := 0; c < 3; c++ {
		col := m.Col(c).Vec3()
		if col.Len() == 0 {
			return m.Col(3).Vec3(), mgl32.QuatIdent(), true
		}
		r.SetCol(c, col.Normalize().Vec4(0))
	}
	r[15] = 1
	return m.Col(3).Vec3(), mgl32.Mat4ToQuat(r).Normalize(), true
}

// ParentWorldInverse returns the inverse of the current world matrix of id's
// parent, identity for a root. It maps world points into id's local space.
func (s *Scene) ParentWorldInverse(id NodeID) mgl32.Mat4 {
	n, ok := s.Node(id)
	if !ok || n.parent == NoNode {
		return mgl32.Ident4()
	}
	m, _ := s.WorldMatrix(n.parent)
	return m.Inv()
}

// ResolveWorld recomputes every live node's world matrices from the local
// transforms: a root's world is its local matrix, a child's world is its
// parent's world times its local matrix. Local transforms are only refreshed,
// never modified, so resolving twice yields the same matrices.
func (s *Scene) ResolveWorld() {
	for _, n := range s.nodes {
		if n == nil || n.parent != NoNode {
			continue
		}
		n.world = n.Instance.Transform.World()
		n.worldInverse = n.Instance.Transform.Inverse()
		s.resolveChildren(n)
	}
}

func (s *Scene) resolveChildren(n *Node) {
	for _, c := range n.children {
		cn, ok := s.Node(c)
		if !ok {
			continue
		}
		cn.world = n.world.Mul4(cn.Instance.Transform.World())
		cn.worldInverse = cn.world.Inv()
		s.resolveChildren(cn)
	}
}
