package scene

import (
	"errors"
	"fmt"
	gomath "math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/ChrisPortokalis/EngineBase/internal/approx"
)

const eps = 1e-4

func addNode(t *testing.T, s *Scene, name string) NodeID {
	t.Helper()
	id, err := s.AddNode(name, NewInstance(name, &Mesh{Name: "cube"}))
	if err != nil {
		t.Fatalf("add node %q: %v", name, err)
	}
	return id
}

func mustNode(t *testing.T, s *Scene, id NodeID) *Node {
	t.Helper()
	n, ok := s.Node(id)
	if !ok {
		t.Fatalf("node %d missing", id)
	}
	return n
}

func TestAddNodeNames(t *testing.T) {
	s := New()
	addNode(t, s, "a")

	if _, err := s.AddNode("a", nil); !errors.Is(err, ErrDuplicateName) {
		t.Errorf("duplicate: got %v, want ErrDuplicateName", err)
	}
	if _, err := s.AddNode("", nil); !errors.Is(err, ErrEmptyName) {
		t.Errorf("empty: got %v, want ErrEmptyName", err)
	}

	id, err := s.AddNode("group", nil)
	if err != nil {
		t.Fatalf("nil instance: %v", err)
	}
	if n := mustNode(t, s, id); n.Instance == nil || n.Instance.Mesh != nil {
		t.Error("nil instance should become an empty grouping instance")
	}
	if s.NodeCount() != 2 {
		t.Errorf("count: got %d, want 2", s.NodeCount())
	}
}

func TestRootWorldEqualsLocal(t *testing.T) {
	s := New()
	id := addNode(t, s, "root")
	n := mustNode(t, s, id)
	n.Instance.Transform.SetScale(mgl32.Vec3{2, 3, 4})
	n.Instance.Transform.SetRotation(mgl32.QuatRotate(0.7, mgl32.Vec3{0, 1, 0}))
	n.Instance.Transform.SetTranslation(mgl32.Vec3{5, 6, 7})

	s.ResolveWorld()

	if n.World() != n.Instance.Transform.World() {
		t.Errorf("root world: got %v, want local %v", n.World(), n.Instance.Transform.World())
	}
	if n.WorldInverse() != n.Instance.Transform.Inverse() {
		t.Error("root world inverse should equal the local inverse")
	}
}

func TestTwoLevelChain(t *testing.T) {
	s := New()
	parent := addNode(t, s, "parent")
	child := addNode(t, s, "child")
	if err := s.SetParent(child, parent); err != nil {
		t.Fatal(err)
	}

	p := mustNode(t, s, parent)
	c := mustNode(t, s, child)
	p.Instance.Transform.SetTranslation(mgl32.Vec3{1, 0, 0})
	p.Instance.Transform.SetRotation(mgl32.QuatRotate(gomath.Pi/2, mgl32.Vec3{0, 1, 0}))
	c.Instance.Transform.SetTranslation(mgl32.Vec3{0, 0, -2})

	s.ResolveWorld()
	first := c.World()
	localAfterFirst := c.Instance.Transform.Translation

	s.ResolveWorld()
	if c.World() != first {
		t.Errorf("second resolve changed child world: %v vs %v", c.World(), first)
	}
	if c.Instance.Transform.Translation != localAfterFirst {
		t.Error("resolve wrote back into the local transform")
	}

	want := p.World().Mul4(c.Instance.Transform.World())
	if !approx.Mat4(c.World(), want, eps) {
		t.Errorf("child world: got %v, want parent*local %v", c.World(), want)
	}
	if got := c.WorldPosition(); !approx.Vec3(got, mgl32.Vec3{-1, 0, 0}, eps) {
		t.Errorf("child world position: got %v, want (-1,0,0)", got)
	}
	if !approx.Mat4(c.World().Mul4(c.WorldInverse()), mgl32.Ident4(), eps) {
		t.Error("child world * inverse should be identity")
	}
}

func TestSetParentRejects(t *testing.T) {
	s := New()
	a := addNode(t, s, "a")
	b := addNode(t, s, "b")
	c := addNode(t, s, "c")
	if err := s.SetParent(b, a); err != nil {
		t.Fatal(err)
	}
	if err := s.SetParent(c, b); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name          string
		child, parent NodeID
		want          error
	}{
		{"second parent", b, c, ErrAlreadyParented},
		{"self", a, a, ErrCycle},
		{"ancestor under descendant", a, c, ErrCycle},
		{"missing child", 99, a, ErrNotFound},
		{"missing parent", a, 99, ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := s.SetParent(tt.child, tt.parent); !errors.Is(err, tt.want) {
				t.Errorf("got %v, want %v", err, tt.want)
			}
		})
	}

	if p := mustNode(t, s, b).Parent(); p != a {
		t.Errorf("b parent: got %d, want %d", p, a)
	}
	if kids := mustNode(t, s, a).Children(); len(kids) != 1 || kids[0] != b {
		t.Errorf("a children: got %v, want [%d]", kids, b)
	}
}

func TestRemoveNodeSubtree(t *testing.T) {
	s := New()
	root := addNode(t, s, "root")
	mid := addNode(t, s, "mid")
	leaf := addNode(t, s, "leaf")
	other := addNode(t, s, "other")
	_ = s.SetParent(mid, root)
	_ = s.SetParent(leaf, mid)
	_ = s.SetParent(other, root)

	if err := s.RemoveNode(mid); err != nil {
		t.Fatal(err)
	}

	if s.HasNode(mid) || s.HasNode(leaf) {
		t.Error("removed subtree still present")
	}
	if _, ok := s.NodeByName("leaf"); ok {
		t.Error("removed name still indexed")
	}
	if kids := mustNode(t, s, root).Children(); len(kids) != 1 || kids[0] != other {
		t.Errorf("root children: got %v, want [%d]", kids, other)
	}
	if s.NodeCount() != 2 {
		t.Errorf("count: got %d, want 2", s.NodeCount())
	}
	if err := s.RemoveNode(mid); !errors.Is(err, ErrNotFound) {
		t.Errorf("second remove: got %v, want ErrNotFound", err)
	}

	// Freed names can be reused; ids are not.
	id := addNode(t, s, "mid")
	if id == mid {
		t.Error("node id was reused")
	}
}

func TestRemovedSlotsAreReclaimed(t *testing.T) {
	s := New()
	base := addNode(t, s, "base")
	turret := addNode(t, s, "turret")
	_ = s.SetParent(turret, base)
	mustNode(t, s, base).Instance.Transform.SetTranslation(mgl32.Vec3{0, 2, 0})

	last := turret
	for i := 0; i < 1000; i++ {
		id := addNode(t, s, fmt.Sprintf("bullet%d", i))
		if id <= last {
			t.Fatalf("id %d not above previous %d", id, last)
		}
		last = id
		if err := s.RemoveNode(id); err != nil {
			t.Fatal(err)
		}
		if s.HasNode(id) {
			t.Fatalf("removed node %d still present", id)
		}
	}

	if got, limit := len(s.nodes), s.NodeCount()+minCompact; got > limit {
		t.Errorf("arena slots: got %d, want at most %d", got, limit)
	}
	if n, ok := s.NodeByName("turret"); !ok || n.ID != turret {
		t.Fatalf("turret lookup after compaction: got %v, %v", n, ok)
	}
	s.ResolveWorld()
	if got := mustNode(t, s, turret).WorldPosition(); !approx.Vec3(got, mgl32.Vec3{0, 2, 0}, eps) {
		t.Errorf("child world after compaction: got %v, want (0,2,0)", got)
	}
	if err := s.RemoveNode(base); err != nil {
		t.Fatal(err)
	}
	if s.HasNode(turret) || s.NodeCount() != 0 {
		t.Errorf("subtree removal after compaction left %d nodes", s.NodeCount())
	}
}

func TestRemoveNodeDropsOwnInstance(t *testing.T) {
	s := New()
	in := NewInstance("ship", nil)
	if err := s.AddInstance(in); err != nil {
		t.Fatal(err)
	}
	id, _ := s.AddNode("ship", in)
	if err := s.RemoveNode(id); err != nil {
		t.Fatal(err)
	}
	if s.NameTaken("ship") {
		t.Error("instance of a removed node should be released")
	}
}

func TestTranslateGlobalConvention(t *testing.T) {
	tests := []struct {
		name       string
		inverse    bool
		wantParent mgl32.Vec3
		wantChild  mgl32.Vec3
	}{
		{"default", false, mgl32.Vec3{-1, 0, 0}, mgl32.Vec3{1, 0, 0}},
		{"inverse", true, mgl32.Vec3{1, 0, 0}, mgl32.Vec3{-1, 0, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New()
			p := addNode(t, s, "p")
			c := addNode(t, s, "c")
			g := addNode(t, s, "g")
			_ = s.SetParent(c, p)
			_ = s.SetParent(g, c)

			if err := s.TranslateGlobal(p, mgl32.Vec3{1, 0, 0}, tt.inverse); err != nil {
				t.Fatal(err)
			}
			if got := mustNode(t, s, p).Position(); got != tt.wantParent {
				t.Errorf("parent: got %v, want %v", got, tt.wantParent)
			}
			for _, id := range []NodeID{c, g} {
				if got := mustNode(t, s, id).Position(); got != tt.wantChild {
					t.Errorf("descendant %d: got %v, want %v", id, got, tt.wantChild)
				}
			}
		})
	}
}

func TestRotateGlobalCounterRotatesChildren(t *testing.T) {
	s := New()
	p := addNode(t, s, "p")
	c := addNode(t, s, "c")
	_ = s.SetParent(c, p)

	if err := s.RotateGlobal(p, mgl32.Vec3{0, 1, 0}, gomath.Pi/2, false); err != nil {
		t.Fatal(err)
	}

	pf := mustNode(t, s, p).Instance.Transform.Forward()
	cf := mustNode(t, s, c).Instance.Transform.Forward()
	// Parent turned by -90 about Y, child by +90: forwards point opposite ways.
	if !approx.Vec3(pf, mgl32.Vec3{1, 0, 0}, eps) {
		t.Errorf("parent forward: got %v, want (1,0,0)", pf)
	}
	if !approx.Vec3(cf, mgl32.Vec3{-1, 0, 0}, eps) {
		t.Errorf("child forward: got %v, want (-1,0,0)", cf)
	}
}

func TestLocalOpsDoNotPropagate(t *testing.T) {
	s := New()
	p := addNode(t, s, "p")
	c := addNode(t, s, "c")
	_ = s.SetParent(c, p)

	_ = s.TranslateLocal(p, mgl32.Vec3{0, 2, 0}, false)
	_ = s.RotateLocal(p, mgl32.Vec3{1, 0, 0}, 0.3, true)

	cn := mustNode(t, s, c)
	if cn.Position() != (mgl32.Vec3{}) {
		t.Errorf("child moved: %v", cn.Position())
	}
	if cn.Instance.Transform.Rotation != mgl32.QuatIdent() {
		t.Errorf("child rotated: %v", cn.Instance.Transform.Rotation)
	}
	if got := mustNode(t, s, p).Position(); got != (mgl32.Vec3{0, 2, 0}) {
		t.Errorf("parent: got %v, want (0,2,0)", got)
	}

	if err := s.TranslateLocal(42, mgl32.Vec3{}, false); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing node: got %v, want ErrNotFound", err)
	}
}

func TestWorldMatrixIsCurrentBeforeResolve(t *testing.T) {
	s := New()
	p := addNode(t, s, "p")
	c := addNode(t, s, "c")
	_ = s.SetParent(c, p)
	mustNode(t, s, p).Instance.Transform.SetTranslation(mgl32.Vec3{1, 0, 0})
	mustNode(t, s, c).Instance.Transform.SetTranslation(mgl32.Vec3{0, 3, 0})

	m, ok := s.WorldMatrix(c)
	if !ok {
		t.Fatal("world matrix of a live node")
	}
	if got := m.Col(3).Vec3(); !approx.Vec3(got, mgl32.Vec3{1, 3, 0}, eps) {
		t.Errorf("world position: got %v, want (1,3,0)", got)
	}
	if got := mustNode(t, s, c).WorldPosition(); got == (mgl32.Vec3{1, 3, 0}) {
		t.Error("resolved world should still be stale before ResolveWorld")
	}

	pos, rot, ok := s.WorldPose(c)
	if !ok || !approx.Vec3(pos, mgl32.Vec3{1, 3, 0}, eps) || !approx.Quat(rot, mgl32.QuatIdent(), eps) {
		t.Errorf("world pose: got %v %v %v", pos, rot, ok)
	}
	if got := mgl32.TransformCoordinate(mgl32.Vec3{1, 3, 0}, s.ParentWorldInverse(c)); !approx.Vec3(got, mgl32.Vec3{0, 3, 0}, eps) {
		t.Errorf("parent-space point: got %v, want (0,3,0)", got)
	}
	if _, ok := s.WorldMatrix(99); ok {
		t.Error("world matrix of a missing node")
	}
}
