// Package gputest provides recording implementations of gpu.Device and
// gpu.Shader for tests that run without a graphics context.
package gputest

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/glscene/internal/engine/gpu"
)

// ErrInjected is returned by Device calls configured to fail.
var ErrInjected = errors.New("gputest: injected failure")

// Upload records one CreateTexture call.
type Upload struct {
	ID     gpu.TextureID
	Width  int
	Height int
	Format gpu.PixelFormat
	Pix    []byte
	Opts   gpu.TextureOptions
}

// MeshUpload records one CreateMeshBuffers call.
type MeshUpload struct {
	Buffers  gpu.MeshBuffers
	Vertices []float32
	Indices  []uint32
	Layout   gpu.VertexLayout
}

// Device records every call. Handles are allocated sequentially from 1.
type Device struct {
	// Calls is a flat, ordered log such as "bind 0 3" or "draw 7 36".
	Calls []string

	Uploads     []Upload
	MeshUploads []MeshUpload

	DeletedTextures []gpu.TextureID
	DeletedMeshes   []gpu.MeshBuffers

	// FailTextures and FailMeshes make the matching Create call return ErrInjected.
	FailTextures bool
	FailMeshes   bool

	next uint32
}

var _ gpu.Device = (*Device)(nil)

// New returns an empty recording device.
func New() *Device {
	return &Device{}
}

func (d *Device) alloc() uint32 {
	d.next++
	return d.next
}

// CreateMeshBuffers implements gpu.Device.
func (d *Device) CreateMeshBuffers(vertices []float32, indices []uint32, layout gpu.VertexLayout) (gpu.MeshBuffers, error) {
	if d.FailMeshes {
		return gpu.MeshBuffers{}, ErrInjected
	}
	b := gpu.MeshBuffers{VAO: d.alloc(), VBO: d.alloc(), EBO: d.alloc()}
	d.MeshUploads = append(d.MeshUploads, MeshUpload{
		Buffers:  b,
		Vertices: append([]float32(nil), vertices...),
		Indices:  append([]uint32(nil), indices...),
		Layout:   layout,
	})
	d.Calls = append(d.Calls, fmt.Sprintf("mesh %d", b.VAO))
	return b, nil
}

// DeleteMeshBuffers implements gpu.Device.
func (d *Device) DeleteMeshBuffers(b gpu.MeshBuffers) {
	d.DeletedMeshes = append(d.DeletedMeshes, b)
	d.Calls = append(d.Calls, fmt.Sprintf("delete-mesh %d", b.VAO))
}

// CreateTexture implements gpu.Device.
func (d *Device) CreateTexture(width, height int, format gpu.PixelFormat, pix []byte, opts gpu.TextureOptions) (gpu.TextureID, error) {
	if d.FailTextures {
		return 0, ErrInjected
	}
	id := gpu.TextureID(d.alloc())
	d.Uploads = append(d.Uploads, Upload{
		ID:     id,
		Width:  width,
		Height: height,
		Format: format,
		Pix:    append([]byte(nil), pix...),
		Opts:   opts,
	})
	d.Calls = append(d.Calls, fmt.Sprintf("texture %d", id))
	return id, nil
}

// DeleteTexture implements gpu.Device.
func (d *Device) DeleteTexture(id gpu.TextureID) {
	d.DeletedTextures = append(d.DeletedTextures, id)
	d.Calls = append(d.Calls, fmt.Sprintf("delete-texture %d", id))
}

// BindTexture implements gpu.Device.
func (d *Device) BindTexture(unit int, id gpu.TextureID) {
	d.Calls = append(d.Calls, fmt.Sprintf("bind %d %d", unit, id))
}

// DrawIndexed implements gpu.Device.
func (d *Device) DrawIndexed(b gpu.MeshBuffers, count int) {
	d.Calls = append(d.Calls, fmt.Sprintf("draw %d %d", b.VAO, count))
}

// Shader records uniform writes. Ints holds the last value per name and
// Log keeps every write in order, e.g. "int texture_diffuse0 0".
type Shader struct {
	Used   int
	Ints   map[string]int32
	Floats map[string]float32
	Vec3s  map[string]mgl32.Vec3
	Mat4s  map[string]mgl32.Mat4
	Log    []string
}

var _ gpu.Shader = (*Shader)(nil)

// NewShader returns an empty recording shader.
func NewShader() *Shader {
	return &Shader{
		Ints:   make(map[string]int32),
		Floats: make(map[string]float32),
		Vec3s:  make(map[string]mgl32.Vec3),
		Mat4s:  make(map[string]mgl32.Mat4),
	}
}

// Use implements gpu.Shader.
func (s *Shader) Use() { s.Used++ }

// SetInt implements gpu.Shader.
func (s *Shader) SetInt(name string, v int32) {
	s.Ints[name] = v
	s.Log = append(s.Log, fmt.Sprintf("int %s %d", name, v))
}

// SetFloat implements gpu.Shader.
func (s *Shader) SetFloat(name string, v float32) {
	s.Floats[name] = v
	s.Log = append(s.Log, fmt.Sprintf("float %s %g", name, v))
}

// SetVec3 implements gpu.Shader.
func (s *Shader) SetVec3(name string, v mgl32.Vec3) {
	s.Vec3s[name] = v
	s.Log = append(s.Log, "vec3 "+name)
}

// SetMat4 implements gpu.Shader.
func (s *Shader) SetMat4(name string, m mgl32.Mat4) {
	s.Mat4s[name] = m
	s.Log = append(s.Log, "mat4 "+name)
}
