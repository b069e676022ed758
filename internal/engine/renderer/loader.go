package renderer

import (
	"fmt"
	"image"
	"path/filepath"
	"strings"
	"unsafe"

	"github.com/go-gl/gl/v4.1-core/gl"
	"go.uber.org/zap"

	"github.com/ChrisPortokalis/EngineBase/internal/assets"
	"github.com/ChrisPortokalis/EngineBase/internal/engine/shader"
	"github.com/ChrisPortokalis/EngineBase/internal/engine/texture"
	"github.com/ChrisPortokalis/EngineBase/internal/logger"
	"github.com/ChrisPortokalis/EngineBase/internal/scene"
	"github.com/ChrisPortokalis/EngineBase/pkg/formats"
)

// Vertex attribute locations. A mesh binds each one whose first component
// appears among its PLY properties.
var vertexAttribs = []struct {
	first    string
	location uint32
	size     int32
}{
	{"x", 0, 3},
	{"nx", 1, 3},
	{"s", 2, 2},
	{"red", 3, 3},
}

// Loader uploads assets found through a Store to the current GL context.
type Loader struct {
	store *assets.Store
	flipZ bool

	vaos     []uint32
	buffers  []uint32
	textures []uint32
	samplers []uint32
	programs []uint32
}

var _ assets.Loader = (*Loader)(nil)

// NewLoader creates a loader reading files from store. flipZ negates z and
// nz of every PLY mesh it loads.
func NewLoader(store *assets.Store, flipZ bool) *Loader {
	return &Loader{store: store, flipZ: flipZ}
}

// Mesh loads a PLY file or a builtin mesh and uploads it.
func (l *Loader) Mesh(file string) (*scene.Mesh, error) {
	p, ok := BuiltinMesh(file)
	if !ok {
		if !strings.EqualFold(filepath.Ext(file), ".ply") {
			return nil, fmt.Errorf("mesh %s: unsupported format", file)
		}
		path, err := l.store.Path().Resolve(file)
		if err != nil {
			return nil, err
		}
		p, err = formats.LoadPLY(path, l.flipZ)
		if err != nil {
			return nil, fmt.Errorf("mesh %s: %w", file, err)
		}
	}
	if len(p.Indices) == 0 {
		return nil, fmt.Errorf("mesh %s: no faces", file)
	}

	m := l.upload(file, p)
	logger.Debug("mesh uploaded",
		zap.String("file", file),
		zap.Int("vertices", p.VertexCount),
		zap.Int("triangles", len(p.Indices)/3),
	)
	return m, nil
}

func (l *Loader) upload(name string, p *formats.PLY) *scene.Mesh {
	var vao, vbo, ibo uint32
	gl.GenVertexArrays(1, &vao)
	gl.BindVertexArray(vao)

	gl.GenBuffers(1, &vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(p.Vertices)*4, gl.Ptr(p.Vertices), gl.STATIC_DRAW)

	stride := int32(p.Stride() * 4)
	for _, a := range vertexAttribs {
		off := p.Offset(a.first)
		if off < 0 {
			continue
		}
		gl.EnableVertexAttribArray(a.location)
		gl.VertexAttribPointerWithOffset(a.location, a.size, gl.FLOAT, false, stride, uintptr(off*4))
	}

	gl.GenBuffers(1, &ibo)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, ibo)
	gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(p.Indices)*4, gl.Ptr(p.Indices), gl.STATIC_DRAW)

	gl.BindVertexArray(0)
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)

	l.vaos = append(l.vaos, vao)
	l.buffers = append(l.buffers, vbo, ibo)
	return &scene.Mesh{Name: name, VAO: vao, IBO: ibo, IndexCount: int32(len(p.Indices))}
}

// Texture decodes an image file and uploads it with a mipmapped sampler.
func (l *Loader) Texture(file string) (*scene.Texture, error) {
	data, err := l.store.Load(file)
	if err != nil {
		return nil, err
	}
	img, err := texture.Decode(file, data)
	if err != nil {
		return nil, err
	}
	t := l.uploadTexture(file, img)
	logger.Debug("texture uploaded",
		zap.String("file", file),
		zap.Int("width", img.Bounds().Dx()),
		zap.Int("height", img.Bounds().Dy()),
	)
	return t, nil
}

func (l *Loader) uploadTexture(name string, img *image.RGBA) *scene.Texture {
	var texID, samplerID uint32
	gl.GenTextures(1, &texID)
	gl.BindTexture(gl.TEXTURE_2D, texID)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA, int32(img.Bounds().Dx()), int32(img.Bounds().Dy()), 0, gl.RGBA, gl.UNSIGNED_BYTE, unsafe.Pointer(&img.Pix[0]))
	gl.GenerateMipmap(gl.TEXTURE_2D)
	gl.BindTexture(gl.TEXTURE_2D, 0)

	gl.GenSamplers(1, &samplerID)
	gl.SamplerParameteri(samplerID, gl.TEXTURE_MIN_FILTER, gl.LINEAR_MIPMAP_LINEAR)
	gl.SamplerParameteri(samplerID, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	gl.SamplerParameteri(samplerID, gl.TEXTURE_WRAP_S, gl.REPEAT)
	gl.SamplerParameteri(samplerID, gl.TEXTURE_WRAP_T, gl.REPEAT)

	l.textures = append(l.textures, texID)
	l.samplers = append(l.samplers, samplerID)
	return &scene.Texture{Name: name, TextureID: texID, SamplerID: samplerID}
}

// Program compiles and links a vertex/fragment shader pair.
func (l *Loader) Program(vertex, fragment string) (uint32, error) {
	vs, err := l.store.Load(vertex)
	if err != nil {
		return 0, err
	}
	fs, err := l.store.Load(fragment)
	if err != nil {
		return 0, err
	}
	prog, err := shader.CompileProgram(string(vs), string(fs))
	if err != nil {
		return 0, fmt.Errorf("program %s + %s: %w", vertex, fragment, err)
	}
	l.programs = append(l.programs, prog)
	return prog, nil
}

// Sound reads a sound file; decoding is left to the audio manager.
func (l *Loader) Sound(file string) ([]byte, error) {
	return l.store.Load(file)
}

// Close deletes every GL object the loader created.
func (l *Loader) Close() {
	if len(l.vaos) > 0 {
		gl.DeleteVertexArrays(int32(len(l.vaos)), &l.vaos[0])
	}
	if len(l.buffers) > 0 {
		gl.DeleteBuffers(int32(len(l.buffers)), &l.buffers[0])
	}
	if len(l.textures) > 0 {
		gl.DeleteTextures(int32(len(l.textures)), &l.textures[0])
	}
	if len(l.samplers) > 0 {
		gl.DeleteSamplers(int32(len(l.samplers)), &l.samplers[0])
	}
	for _, p := range l.programs {
		gl.DeleteProgram(p)
	}
	l.vaos, l.buffers, l.textures, l.samplers, l.programs = nil, nil, nil, nil, nil
}
