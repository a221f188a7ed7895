package gpu

import (
	"encoding/binary"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// ProgramSnapshot is a copy of the values staged on a Program at one point in time, e.g. when a
// draw was recorded.
type ProgramSnapshot struct {
	Label    string
	Textures map[string]*TextureView
	Samplers map[string]*Sampler

	fields map[string][]fieldRef
	blocks [][]byte
}

func (s ProgramSnapshot) bytes(name string, size uint64) ([]byte, bool) {
	refs, ok := s.fields[name]
	if !ok || len(refs) == 0 || refs[0].field.Size < size {
		return nil, false
	}
	f := refs[0].field
	return s.blocks[refs[0].block][f.Offset : f.Offset+size], true
}

// Has reports whether the program declares the uniform name.
func (s ProgramSnapshot) Has(name string) bool {
	_, ok := s.fields[name]
	return ok
}

// Uint returns the u32 (or flag) staged under name.
func (s ProgramSnapshot) Uint(name string) (uint32, bool) {
	b, ok := s.bytes(name, 4)
	if !ok {
		return 0, false
	}
	return binary.LittleEndian.Uint32(b), true
}

// Float returns the f32 staged under name.
func (s ProgramSnapshot) Float(name string) (float32, bool) {
	u, ok := s.Uint(name)
	return math.Float32frombits(u), ok
}

// Bool returns a flag staged under name.
func (s ProgramSnapshot) Bool(name string) (bool, bool) {
	u, ok := s.Uint(name)
	return u != 0, ok
}

func (s ProgramSnapshot) floats(name string, n int) ([]float32, bool) {
	b, ok := s.bytes(name, uint64(n*4))
	if !ok {
		return nil, false
	}
	out := make([]float32, n)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return out, true
}

// Vec3 returns the vec3<f32> staged under name.
func (s ProgramSnapshot) Vec3(name string) (mgl32.Vec3, bool) {
	f, ok := s.floats(name, 3)
	if !ok {
		return mgl32.Vec3{}, false
	}
	return mgl32.Vec3{f[0], f[1], f[2]}, true
}

// Vec4 returns the vec4<f32> staged under name.
func (s ProgramSnapshot) Vec4(name string) (mgl32.Vec4, bool) {
	f, ok := s.floats(name, 4)
	if !ok {
		return mgl32.Vec4{}, false
	}
	return mgl32.Vec4{f[0], f[1], f[2], f[3]}, true
}

// Mat4 returns the mat4x4<f32> staged under name.
func (s ProgramSnapshot) Mat4(name string) (mgl32.Mat4, bool) {
	f, ok := s.floats(name, 16)
	if !ok {
		return mgl32.Mat4{}, false
	}
	var m mgl32.Mat4
	copy(m[:], f)
	return m, true
}

// Texture returns the view bound to a texture variable.
func (s ProgramSnapshot) Texture(name string) *TextureView {
	return s.Textures[name]
}
