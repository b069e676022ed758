// Package shader compiles GLSL programs and caches their uniform locations.
package shader

import (
	"fmt"

	"github.com/go-gl/gl/v4.1-core/gl"
)

// CompileProgram compiles vertex and fragment shaders and links them into a program.
// Returns the program ID or an error if compilation/linking fails.
func CompileProgram(vertexSrc, fragmentSrc string) (uint32, error) {
	// Compile vertex shader
	vertShader, err := compileShader(vertexSrc, gl.VERTEX_SHADER, "vertex")
	if err != nil {
		return 0, err
	}
	defer gl.DeleteShader(vertShader)

	// Compile fragment shader
	fragShader, err := compileShader(fragmentSrc, gl.FRAGMENT_SHADER, "fragment")
	if err != nil {
		return 0, err
	}
	defer gl.DeleteShader(fragShader)

	// Link program
	program := gl.CreateProgram()
	gl.AttachShader(program, vertShader)
	gl.AttachShader(program, fragShader)
	gl.LinkProgram(program)

	var status int32
	gl.GetProgramiv(program, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLen int32
		gl.GetProgramiv(program, gl.INFO_LOG_LENGTH, &logLen)
		log := make([]byte, logLen)
		gl.GetProgramInfoLog(program, logLen, nil, &log[0])
		gl.DeleteProgram(program)
		return 0, fmt.Errorf("link: %s", string(log))
	}

	return program, nil
}

// compileShader compiles a single shader of the given type.
func compileShader(source string, shaderType uint32, name string) (uint32, error) {
	shader := gl.CreateShader(shaderType)
	csource, free := gl.Strs(source + "\x00")
	gl.ShaderSource(shader, 1, csource, nil)
	free()
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLen int32
		gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLen)
		log := make([]byte, logLen)
		gl.GetShaderInfoLog(shader, logLen, nil, &log[0])
		gl.DeleteShader(shader)
		return 0, fmt.Errorf("%s shader: %s", name, string(log))
	}

	return shader, nil
}

// Uniforms caches uniform and block locations per program. Missing names are
// cached as -1 so the lookup happens once.
type Uniforms struct {
	locations map[key]int32
	blocks    map[key]uint32
}

type key struct {
	program uint32
	name    string
}

// NewUniforms creates an empty location cache.
func NewUniforms() *Uniforms {
	return &Uniforms{
		locations: make(map[key]int32),
		blocks:    make(map[key]uint32),
	}
}

// Location returns the uniform location of name in program, -1 when the
// program has no such active uniform.
func (u *Uniforms) Location(program uint32, name string) int32 {
	k := key{program, name}
	if loc, ok := u.locations[k]; ok {
		return loc
	}
	loc := GetUniform(program, name)
	u.locations[k] = loc
	return loc
}

// BlockIndex returns the uniform block index of name in program, or
// gl.INVALID_INDEX.
func (u *Uniforms) BlockIndex(program uint32, name string) uint32 {
	k := key{program, name}
	if idx, ok := u.blocks[k]; ok {
		return idx
	}
	idx := gl.GetUniformBlockIndex(program, gl.Str(name+"\x00"))
	u.blocks[k] = idx
	return idx
}

// Forget drops the cached locations of a deleted program.
func (u *Uniforms) Forget(program uint32) {
	for k := range u.locations {
		if k.program == program {
			delete(u.locations, k)
		}
	}
	for k := range u.blocks {
		if k.program == program {
			delete(u.blocks, k)
		}
	}
}

// GetUniform returns the uniform location for the given name.
// Returns -1 if the uniform is not found or inactive.
func GetUniform(program uint32, name string) int32 {
	return gl.GetUniformLocation(program, gl.Str(name+"\x00"))
}
