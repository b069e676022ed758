package scene

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/ChrisPortokalis/EngineBase/internal/engine/camera"
)

// Entity is the read-only view of a drawable handed to a Drawer.
type Entity struct {
	Name         string
	World        mgl32.Mat4
	WorldInverse mgl32.Mat4
	Mesh         *Mesh
	Material     *Material
}

// Drawer renders one entity as seen from cam. Implementations must not modify
// the mesh or material they are given.
type Drawer interface {
	Draw(e Entity, cam *camera.Camera)
}

// Draw hands every drawable node (id order) and then every billboard to d.
// Nodes without a mesh are grouping transforms and are skipped; templates are
// not part of the graph and never drawn.
func (s *Scene) Draw(d Drawer) {
	for _, n := range s.nodes {
		if n == nil || n.Instance.Mesh == nil {
			continue
		}
		d.Draw(Entity{
			Name:         n.Name,
			World:        n.world,
			WorldInverse: n.worldInverse,
			Mesh:         n.Instance.Mesh,
			Material:     &n.Instance.Material,
		}, s.camera)
	}
	for _, b := range s.billboards {
		if b.Instance.Mesh == nil {
			continue
		}
		t := &b.Instance.Transform
		d.Draw(Entity{
			Name:         b.Name,
			World:        t.World(),
			WorldInverse: t.Inverse(),
			Mesh:         b.Instance.Mesh,
			Material:     &b.Instance.Material,
		}, s.camera)
	}
}
