package renderer

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/ChrisPortokalis/EngineBase/internal/approx"
	"github.com/ChrisPortokalis/EngineBase/pkg/formats"
)

func vertex(p *formats.PLY, i uint32) (pos, normal mgl32.Vec3) {
	o := int(i) * p.Stride()
	v := p.Vertices[o:]
	return mgl32.Vec3{v[0], v[1], v[2]}, mgl32.Vec3{v[3], v[4], v[5]}
}

func TestBuiltinMeshSizes(t *testing.T) {
	tests := []struct {
		name              string
		vertices, indices int
	}{
		{"builtin:cube", 24, 36},
		{"builtin:quad", 4, 6},
		{"cube", 24, 36},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, ok := BuiltinMesh(tt.name)
			if !ok {
				t.Fatal("mesh not found")
			}
			if p.VertexCount != tt.vertices {
				t.Errorf("vertices: got %d, want %d", p.VertexCount, tt.vertices)
			}
			if len(p.Indices) != tt.indices {
				t.Errorf("indices: got %d, want %d", len(p.Indices), tt.indices)
			}
			if len(p.Vertices) != p.VertexCount*p.Stride() {
				t.Errorf("vertex data: got %d floats, want %d", len(p.Vertices), p.VertexCount*p.Stride())
			}
		})
	}

	if _, ok := BuiltinMesh("builtin:teapot"); ok {
		t.Error("unknown builtin should not resolve")
	}
}

// Every triangle winds counter-clockwise seen from outside and lies on the
// unit cube surface.
func TestBuiltinCubeWinding(t *testing.T) {
	p, _ := BuiltinMesh("builtin:cube")
	for i := 0; i < len(p.Indices); i += 3 {
		a, n := vertex(p, p.Indices[i])
		b, _ := vertex(p, p.Indices[i+1])
		c, _ := vertex(p, p.Indices[i+2])

		face := b.Sub(a).Cross(c.Sub(a))
		if face.Dot(n) <= 0 {
			t.Errorf("triangle %d: winding against normal %v", i/3, n)
		}
		if got := a.Dot(n); !approx.Float(got, 1, 1e-6) {
			t.Errorf("triangle %d: distance along normal got %v, want 1", i/3, got)
		}
	}
}

func TestBuiltinQuadTexCoords(t *testing.T) {
	p, _ := BuiltinMesh("builtin:quad")
	s, tc := p.Offset("s"), p.Offset("t")
	want := [][2]float32{{0, 0}, {1, 0}, {1, 1}, {0, 1}}
	for i, w := range want {
		o := i * p.Stride()
		if got := [2]float32{p.Vertices[o+s], p.Vertices[o+tc]}; got != w {
			t.Errorf("vertex %d st: got %v, want %v", i, got, w)
		}
	}
}
