// PLY (Polygon File Format) parser for ASCII triangle meshes.
package formats

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// PLY format errors.
var (
	ErrInvalidPLYMagic       = errors.New("invalid PLY magic: expected 'ply'")
	ErrUnsupportedPLYFormat  = errors.New("unsupported PLY format")
	ErrUnsupportedPLYElement = errors.New("unsupported PLY element")
	ErrTruncatedPLYData      = errors.New("truncated PLY data")
	ErrInvalidPLYIndex       = errors.New("PLY face index out of range")
)

// PLY is a parsed mesh: interleaved vertex attributes in header order plus
// triangle indices.
type PLY struct {
	Attributes  []string  // vertex property names, e.g. x y z nx ny nz s t
	Vertices    []float32 // VertexCount * len(Attributes) values
	Indices     []uint32  // three per triangle
	VertexCount int
}

// Stride returns the number of floats per vertex.
func (p *PLY) Stride() int {
	return len(p.Attributes)
}

// Offset returns the float offset of the named attribute inside a vertex, or
// -1.
func (p *PLY) Offset(name string) int {
	for i, a := range p.Attributes {
		if a == name {
			return i
		}
	}
	return -1
}

// LoadPLY reads and parses a PLY file.
func LoadPLY(path string, flipZ bool) (*PLY, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open ply file: %w", err)
	}
	defer f.Close()
	return ParsePLY(f, flipZ)
}

// ParsePLY parses an ASCII PLY mesh. Polygons are split into triangle fans.
// Colour channels are scaled from 0-255 to 0-1; flipZ negates z and nz, which
// undoes the axis swap of exporters that treat Z as the front.
func ParsePLY(r io.Reader, flipZ bool) (*PLY, error) {
	br := bufio.NewReader(r)
	p := &PLY{}

	faces, err := p.readHeader(br)
	if err != nil {
		return nil, err
	}

	sc := bufio.NewScanner(br)
	sc.Split(bufio.ScanWords)
	next := func() (string, error) {
		if !sc.Scan() {
			if err := sc.Err(); err != nil {
				return "", fmt.Errorf("read ply body: %w", err)
			}
			return "", ErrTruncatedPLYData
		}
		return sc.Text(), nil
	}

	stride := p.Stride()
	p.Vertices = make([]float32, 0, p.VertexCount*stride)
	for i := 0; i < p.VertexCount*stride; i++ {
		tok, err := next()
		if err != nil {
			return nil, fmt.Errorf("vertex %d: %w", i/stride, err)
		}
		v, err := strconv.ParseFloat(tok, 32)
		if err != nil {
			return nil, fmt.Errorf("vertex %d: %w", i/stride, err)
		}
		p.Vertices = append(p.Vertices, float32(v))
	}
	p.fixAttributes(flipZ)

	poly := make([]uint32, 0, 4)
	for i := 0; i < faces; i++ {
		tok, err := next()
		if err != nil {
			return nil, fmt.Errorf("face %d: %w", i, err)
		}
		n, err := strconv.Atoi(tok)
		if err != nil {
			return nil, fmt.Errorf("face %d: %w", i, err)
		}
		poly = poly[:0]
		for j := 0; j < n; j++ {
			tok, err := next()
			if err != nil {
				return nil, fmt.Errorf("face %d: %w", i, err)
			}
			idx, err := strconv.ParseUint(tok, 10, 32)
			if err != nil {
				return nil, fmt.Errorf("face %d: %w", i, err)
			}
			if int(idx) >= p.VertexCount {
				return nil, fmt.Errorf("face %d index %d: %w", i, idx, ErrInvalidPLYIndex)
			}
			poly = append(poly, uint32(idx))
		}
		for j := 2; j < n; j++ {
			p.Indices = append(p.Indices, poly[0], poly[j-1], poly[j])
		}
	}

	return p, nil
}

// readHeader consumes the header up to end_header and returns the face count.
func (p *PLY) readHeader(br *bufio.Reader) (int, error) {
	line, err := br.ReadString('\n')
	if err != nil || strings.TrimSpace(line) != "ply" {
		return 0, ErrInvalidPLYMagic
	}

	var (
		element string
		faces   int
	)
	for {
		line, err := br.ReadString('\n')
		if err != nil && line == "" {
			return 0, fmt.Errorf("header: %w", ErrTruncatedPLYData)
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "end_header":
			return faces, nil
		case "comment", "obj_info":
		case "format":
			if len(fields) < 2 || fields[1] != "ascii" {
				return 0, fmt.Errorf("%w: %s", ErrUnsupportedPLYFormat, strings.Join(fields[1:], " "))
			}
		case "element":
			if len(fields) != 3 {
				return 0, fmt.Errorf("malformed element line %q", strings.TrimSpace(line))
			}
			count, err := strconv.Atoi(fields[2])
			if err != nil || count < 0 {
				return 0, fmt.Errorf("element %s count %q", fields[1], fields[2])
			}
			element = fields[1]
			switch element {
			case "vertex":
				p.VertexCount = count
			case "face":
				faces = count
			default:
				return 0, fmt.Errorf("%w: %s", ErrUnsupportedPLYElement, element)
			}
		case "property":
			if element == "vertex" {
				if len(fields) != 3 {
					return 0, fmt.Errorf("malformed vertex property %q", strings.TrimSpace(line))
				}
				p.Attributes = append(p.Attributes, fields[2])
			}
		default:
			return 0, fmt.Errorf("unknown header keyword %q", fields[0])
		}
		if err != nil {
			return 0, fmt.Errorf("header: %w", ErrTruncatedPLYData)
		}
	}
}

func (p *PLY) fixAttributes(flipZ bool) {
	stride := p.Stride()
	for i, a := range p.Attributes {
		var scale float32
		switch {
		case a == "red" || a == "green" || a == "blue" || a == "alpha":
			scale = 1.0 / 255
		case flipZ && (a == "z" || a == "nz"):
			scale = -1
		default:
			continue
		}
		for j := 0; j < p.VertexCount; j++ {
			p.Vertices[i+j*stride] *= scale
		}
	}
}
