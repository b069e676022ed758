package scene

import (
	"slices"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/ChrisPortokalis/EngineBase/pkg/transform"
)

// Mesh is a GPU-resident triangle mesh. Zero handles are a valid placeholder
// that draws nothing.
type Mesh struct {
	Name       string
	VAO        uint32
	IBO        uint32
	IndexCount int32
}

// Texture is a GPU texture with its sampler.
type Texture struct {
	Name      string
	TextureID uint32
	SamplerID uint32
}

// NamedColor binds a colour to a shader uniform.
type NamedColor struct {
	Uniform string
	Value   mgl32.Vec4
}

// NamedTexture binds a texture to a shader sampler uniform.
type NamedTexture struct {
	Uniform string
	Texture *Texture
}

// Material is a shader program plus the uniforms it is drawn with.
type Material struct {
	Program  uint32
	Colors   []NamedColor
	Textures []NamedTexture
}

// Clone copies the uniform lists. Textures stay shared.
func (m Material) Clone() Material {
	m.Colors = slices.Clone(m.Colors)
	m.Textures = slices.Clone(m.Textures)
	return m
}

// Instance is a placed mesh: the mesh and material handles plus the local
// transform. An instance with a nil mesh is a pure grouping transform.
type Instance struct {
	Name      string
	Mesh      *Mesh
	Material  Material
	Transform transform.Transform
	Sound     string // looped positional sound file, empty for none
}

// NewInstance returns a named instance with an identity transform.
func NewInstance(name string, mesh *Mesh) *Instance {
	return &Instance{
		Name:      name,
		Mesh:      mesh,
		Transform: transform.New(),
	}
}

// Clone returns an independent copy under a new name. The transform is copied
// by value, so moving the clone never moves the original.
func (in *Instance) Clone(name string) *Instance {
	c := *in
	c.Name = name
	c.Material = in.Material.Clone()
	return &c
}
