package formats

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
)

const quadPLY = `ply
format ascii 1.0
comment exported quad
element vertex 4
property float x
property float y
property float z
property uchar red
property uchar green
property uchar blue
element face 1
property list uchar int vertex_indices
end_header
-1 -1 1 255 0 0
1 -1 1 0 255 0
1 1 1 0 0 255
-1 1 1 255 255 255
4 0 1 2 3
`

func TestParsePLYQuad(t *testing.T) {
	p, err := ParsePLY(strings.NewReader(quadPLY), false)
	if err != nil {
		t.Fatalf("ParsePLY: %v", err)
	}

	if p.VertexCount != 4 {
		t.Errorf("VertexCount: got %d, want 4", p.VertexCount)
	}
	wantAttrs := []string{"x", "y", "z", "red", "green", "blue"}
	if !slices.Equal(p.Attributes, wantAttrs) {
		t.Errorf("Attributes: got %v, want %v", p.Attributes, wantAttrs)
	}
	if len(p.Vertices) != 24 {
		t.Fatalf("len(Vertices): got %d, want 24", len(p.Vertices))
	}
	wantIdx := []uint32{0, 1, 2, 0, 2, 3}
	if !slices.Equal(p.Indices, wantIdx) {
		t.Errorf("Indices: got %v, want %v", p.Indices, wantIdx)
	}

	red := p.Offset("red")
	if got := p.Vertices[red]; got != 1 {
		t.Errorf("vertex 0 red: got %v, want 1", got)
	}
	if got := p.Vertices[p.Stride()+red]; got != 0 {
		t.Errorf("vertex 1 red: got %v, want 0", got)
	}
	if got := p.Vertices[p.Offset("z")]; got != 1 {
		t.Errorf("vertex 0 z: got %v, want 1", got)
	}
}

func TestParsePLYFlipZ(t *testing.T) {
	p, err := ParsePLY(strings.NewReader(quadPLY), true)
	if err != nil {
		t.Fatalf("ParsePLY: %v", err)
	}
	z := p.Offset("z")
	for v := 0; v < p.VertexCount; v++ {
		if got := p.Vertices[v*p.Stride()+z]; got != -1 {
			t.Errorf("vertex %d z: got %v, want -1", v, got)
		}
	}
	if got := p.Vertices[p.Offset("x")]; got != -1 {
		t.Errorf("vertex 0 x: got %v, want -1", got)
	}
}

func TestParsePLYErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
		want error
	}{
		{"magic", "plx\n", ErrInvalidPLYMagic},
		{"binary", "ply\nformat binary_little_endian 1.0\nend_header\n", ErrUnsupportedPLYFormat},
		{"element", "ply\nformat ascii 1.0\nelement edge 1\nend_header\n", ErrUnsupportedPLYElement},
		{"header", "ply\nformat ascii 1.0\nelement vertex 1\n", ErrTruncatedPLYData},
		{"vertices", "ply\nformat ascii 1.0\nelement vertex 2\nproperty float x\nend_header\n1\n", ErrTruncatedPLYData},
		{"index", "ply\nformat ascii 1.0\nelement vertex 1\nproperty float x\nelement face 1\nend_header\n0\n3 0 0 1\n", ErrInvalidPLYIndex},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParsePLY(strings.NewReader(tt.data), false)
			if !errors.Is(err, tt.want) {
				t.Errorf("error: got %v, want %v", err, tt.want)
			}
		})
	}
}

func TestParsePLYBadNumber(t *testing.T) {
	data := "ply\nformat ascii 1.0\nelement vertex 1\nproperty float x\nend_header\nabc\n"
	if _, err := ParsePLY(strings.NewReader(data), false); err == nil {
		t.Error("expected error for non-numeric vertex")
	}
}

func TestLoadPLY(t *testing.T) {
	path := filepath.Join(t.TempDir(), "quad.ply")
	if err := os.WriteFile(path, []byte(quadPLY), 0o644); err != nil {
		t.Fatal(err)
	}
	p, err := LoadPLY(path, false)
	if err != nil {
		t.Fatalf("LoadPLY: %v", err)
	}
	if got := len(p.Indices) / 3; got != 2 {
		t.Errorf("triangles: got %d, want 2", got)
	}

	if _, err := LoadPLY(filepath.Join(t.TempDir(), "missing.ply"), false); err == nil {
		t.Error("expected error for missing file")
	}
}
