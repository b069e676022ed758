// Package renderer draws scene entities with OpenGL.
package renderer

import (
	"fmt"
	"image"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/ChrisPortokalis/EngineBase/internal/engine/camera"
	"github.com/ChrisPortokalis/EngineBase/internal/engine/lighting"
	"github.com/ChrisPortokalis/EngineBase/internal/engine/shader"
	"github.com/ChrisPortokalis/EngineBase/internal/engine/texture"
	"github.com/ChrisPortokalis/EngineBase/internal/logger"
	"github.com/ChrisPortokalis/EngineBase/internal/scene"
)

// Uniform and block names shared with the scene shaders.
const (
	UniformWorld        = "uObjectWorldM"
	UniformWorldInverse = "uObjectWorldInverseM"
	UniformMVP          = "uObjectPerpsectM"
	UniformEye          = "uView"

	LightBlock        = "Lights"
	LightBlockBinding = 1
)

// lightBlockSize is the std140 size of the light block: MaxLights entries of
// five vec4s followed by an int count.
const lightBlockSize = lighting.MaxLights*20*4 + 4

// Config holds renderer configuration.
type Config struct {
	Width   int
	Height  int
	Samples int // MSAA samples of the default framebuffer, 0 for none
}

// Renderer implements scene.Drawer on the current GL context.
type Renderer struct {
	config   Config
	uniforms *shader.Uniforms
	lightUBO uint32
	// programs whose light block is already bound to LightBlockBinding
	linked map[uint32]bool
}

var _ scene.Drawer = (*Renderer)(nil)

// New creates a new renderer.
// IMPORTANT: Must be called AFTER OpenGL context is created!
func New(cfg Config) (*Renderer, error) {
	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize OpenGL: %w", err)
	}

	logger.Info("OpenGL initialized",
		zap.String("version", gl.GoStr(gl.GetString(gl.VERSION))),
		zap.String("renderer", gl.GoStr(gl.GetString(gl.RENDERER))),
	)

	gl.Enable(gl.DEPTH_TEST)
	gl.DepthFunc(gl.LESS)
	gl.Enable(gl.BLEND)
	gl.BlendFunc(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA)
	if cfg.Samples > 0 {
		gl.Enable(gl.MULTISAMPLE)
	}

	r := &Renderer{
		config:   cfg,
		uniforms: shader.NewUniforms(),
		linked:   make(map[uint32]bool),
	}

	gl.GenBuffers(1, &r.lightUBO)
	gl.BindBuffer(gl.UNIFORM_BUFFER, r.lightUBO)
	gl.BufferData(gl.UNIFORM_BUFFER, lightBlockSize, nil, gl.DYNAMIC_DRAW)
	gl.BindBufferBase(gl.UNIFORM_BUFFER, LightBlockBinding, r.lightUBO)
	gl.BindBuffer(gl.UNIFORM_BUFFER, 0)

	r.Resize(cfg.Width, cfg.Height)
	return r, nil
}

// Close cleans up renderer resources.
func (r *Renderer) Close() {
	logger.Info("closing renderer")
	if r.lightUBO != 0 {
		gl.DeleteBuffers(1, &r.lightUBO)
		r.lightUBO = 0
	}
}

// Resize updates the viewport.
func (r *Renderer) Resize(width, height int) {
	r.config.Width = width
	r.config.Height = height
	gl.Viewport(0, 0, int32(width), int32(height))
}

// Begin clears the frame to the background colour.
func (r *Renderer) Begin(background mgl32.Vec3) {
	gl.ClearColor(background.X(), background.Y(), background.Z(), 1)
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
}

// ReadFrame reads the back buffer as a top-down image.
func (r *Renderer) ReadFrame() (*image.RGBA, error) {
	w, h := r.config.Width, r.config.Height
	pixels := make([]byte, w*h*4)
	gl.PixelStorei(gl.PACK_ALIGNMENT, 1)
	gl.ReadPixels(0, 0, int32(w), int32(h), gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(pixels))
	return texture.FromFramebuffer(pixels, w, h)
}

// UploadLights copies the light set into the light block buffer.
func (r *Renderer) UploadLights(set *lighting.Set) {
	data := set.Pack()
	count := int32(set.Len())

	gl.BindBuffer(gl.UNIFORM_BUFFER, r.lightUBO)
	gl.BufferSubData(gl.UNIFORM_BUFFER, 0, len(data)*4, gl.Ptr(data))
	gl.BufferSubData(gl.UNIFORM_BUFFER, len(data)*4, 4, gl.Ptr(&count))
	gl.BindBuffer(gl.UNIFORM_BUFFER, 0)
}

// Draw binds the entity's material and draws its mesh. Entities with no GPU
// mesh or program (placeholders) are skipped.
func (r *Renderer) Draw(e scene.Entity, cam *camera.Camera) {
	if e.Mesh == nil || e.Mesh.VAO == 0 || e.Mesh.IndexCount == 0 {
		return
	}
	if e.Material == nil || e.Material.Program == 0 {
		return
	}

	r.bindMaterial(e, cam)

	gl.BindVertexArray(e.Mesh.VAO)
	gl.DrawElementsWithOffset(gl.TRIANGLES, e.Mesh.IndexCount, gl.UNSIGNED_INT, 0)
	gl.BindVertexArray(0)
}

func (r *Renderer) bindMaterial(e scene.Entity, cam *camera.Camera) {
	m := e.Material
	prog := m.Program
	gl.UseProgram(prog)
	r.linkLights(prog)

	if loc := r.uniforms.Location(prog, UniformWorld); loc >= 0 {
		gl.UniformMatrix4fv(loc, 1, false, &e.World[0])
	}
	if loc := r.uniforms.Location(prog, UniformWorldInverse); loc >= 0 {
		gl.UniformMatrix4fv(loc, 1, false, &e.WorldInverse[0])
	}
	if loc := r.uniforms.Location(prog, UniformMVP); loc >= 0 {
		mvp := cam.ViewProjection().Mul4(e.World)
		gl.UniformMatrix4fv(loc, 1, false, &mvp[0])
	}
	if loc := r.uniforms.Location(prog, UniformEye); loc >= 0 {
		eye := cam.Eye.Vec4(1)
		gl.Uniform4fv(loc, 1, &eye[0])
	}

	for _, c := range m.Colors {
		if loc := r.uniforms.Location(prog, c.Uniform); loc >= 0 {
			gl.Uniform4fv(loc, 1, &c.Value[0])
		}
	}

	for i, t := range m.Textures {
		loc := r.uniforms.Location(prog, t.Uniform)
		if loc < 0 || t.Texture == nil {
			continue
		}
		unit := uint32(i)
		gl.ActiveTexture(gl.TEXTURE0 + unit)
		gl.BindTexture(gl.TEXTURE_2D, t.Texture.TextureID)
		gl.BindSampler(unit, t.Texture.SamplerID)
		gl.Uniform1i(loc, int32(i))
	}
}

// linkLights points the program's light block at the shared buffer once.
func (r *Renderer) linkLights(prog uint32) {
	if r.linked[prog] {
		return
	}
	r.linked[prog] = true
	idx := r.uniforms.BlockIndex(prog, LightBlock)
	if idx == gl.INVALID_INDEX {
		return
	}
	gl.UniformBlockBinding(prog, idx, LightBlockBinding)
}
