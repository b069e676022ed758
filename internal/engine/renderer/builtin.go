package renderer

import (
	"strings"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/ChrisPortokalis/EngineBase/pkg/formats"
)

// BuiltinPrefix marks mesh names generated in code instead of read from disk.
const BuiltinPrefix = "builtin:"

var builtinAttributes = []string{"x", "y", "z", "nx", "ny", "nz", "s", "t"}

// cubeFaces lists each face normal with two tangents whose cross product is
// the normal, so corners walked -u-v, +u-v, +u+v, -u+v wind counter-clockwise.
var cubeFaces = [6][3]mgl32.Vec3{
	{{1, 0, 0}, {0, 0, -1}, {0, 1, 0}},
	{{-1, 0, 0}, {0, 0, 1}, {0, 1, 0}},
	{{0, 1, 0}, {1, 0, 0}, {0, 0, -1}},
	{{0, -1, 0}, {1, 0, 0}, {0, 0, 1}},
	{{0, 0, 1}, {1, 0, 0}, {0, 1, 0}},
	{{0, 0, -1}, {-1, 0, 0}, {0, 1, 0}},
}

var quadCorners = [4][2]float32{{-1, -1}, {1, -1}, {1, 1}, {-1, 1}}

// BuiltinMesh returns the procedural mesh called name ("builtin:cube" or
// "builtin:quad").
func BuiltinMesh(name string) (*formats.PLY, bool) {
	switch strings.TrimPrefix(name, BuiltinPrefix) {
	case "cube":
		return cubeMesh(), true
	case "quad":
		return faceMesh([][3]mgl32.Vec3{cubeFaces[4]}, 0), true
	}
	return nil, false
}

// cubeMesh is the 2x2x2 cube centred on the origin.
func cubeMesh() *formats.PLY {
	return faceMesh(cubeFaces[:], 1)
}

// faceMesh builds one quad per face, pushed out along its normal by offset.
func faceMesh(faces [][3]mgl32.Vec3, offset float32) *formats.PLY {
	p := &formats.PLY{Attributes: builtinAttributes}
	for _, f := range faces {
		n, u, v := f[0], f[1], f[2]
		base := uint32(p.VertexCount)
		for _, c := range quadCorners {
			pos := n.Mul(offset).Add(u.Mul(c[0])).Add(v.Mul(c[1]))
			p.Vertices = append(p.Vertices,
				pos.X(), pos.Y(), pos.Z(),
				n.X(), n.Y(), n.Z(),
				(c[0]+1)/2, (c[1]+1)/2,
			)
			p.VertexCount++
		}
		p.Indices = append(p.Indices, base, base+1, base+2, base, base+2, base+3)
	}
	return p
}
