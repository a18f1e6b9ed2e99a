// Package gpu defines the graphics device contract used by the mesh and
// model loaders. The OpenGL implementation lives in gpu/opengl; tests use
// the recording device in gpu/gputest.
//
// A Device wraps implicit, global driver state (bound vertex array, active
// texture unit, current program). Calls must come from the goroutine that
// owns the graphics context and no call restores state it changed.
package gpu

import "github.com/go-gl/mathgl/mgl32"

// TextureID is an opaque texture object handle. Zero is never a live texture.
type TextureID uint32

// MeshBuffers holds the vertex array, vertex buffer and index buffer created
// for one mesh.
type MeshBuffers struct {
	VAO uint32
	VBO uint32
	EBO uint32
}

// PixelFormat selects the channel layout of uploaded pixel data.
type PixelFormat int

// Pixel formats.
const (
	FormatRed PixelFormat = iota + 1
	FormatRGB
	FormatRGBA
)

// String returns the format name.
func (f PixelFormat) String() string {
	switch f {
	case FormatRed:
		return "RED"
	case FormatRGB:
		return "RGB"
	case FormatRGBA:
		return "RGBA"
	default:
		return "unknown"
	}
}

// FormatForChannels maps a decoded channel count to an upload format.
// Counts other than 1, 3 and 4 fall back to RGB.
func FormatForChannels(channels int) PixelFormat {
	switch channels {
	case 1:
		return FormatRed
	case 4:
		return FormatRGBA
	default:
		return FormatRGB
	}
}

// maxQueuedErrors bounds DrainErrors when a lost context keeps reporting.
const maxQueuedErrors = 32

// DrainErrors reads driver error flags from next until it returns zero and
// returns the first one read, or zero. Drivers may queue several flags, so
// a single read can leave stale errors behind for the next check.
func DrainErrors(next func() uint32) uint32 {
	var first uint32
	for i := 0; i < maxQueuedErrors; i++ {
		code := next()
		if code == 0 {
			break
		}
		if first == 0 {
			first = code
		}
	}
	return first
}

// TextureOptions controls texture upload. Mipmaps are always generated.
type TextureOptions struct {
	// SRGB stores colour data in an sRGB internal format.
	SRGB bool
}

// VertexAttrib describes one float attribute inside an interleaved vertex.
type VertexAttrib struct {
	Location   uint32
	Components int32
	Offset     int // in floats
}

// VertexLayout describes an interleaved float vertex.
type VertexLayout struct {
	Stride  int // in floats
	Attribs []VertexAttrib
}

// Device creates GPU resources and issues draw calls.
type Device interface {
	// CreateMeshBuffers uploads interleaved vertex data and a triangle-list
	// index buffer and records the attribute layout.
	CreateMeshBuffers(vertices []float32, indices []uint32, layout VertexLayout) (MeshBuffers, error)
	DeleteMeshBuffers(b MeshBuffers)

	// CreateTexture uploads a 2D texture and generates its mipmaps.
	CreateTexture(width, height int, format PixelFormat, pix []byte, opts TextureOptions) (TextureID, error)
	DeleteTexture(id TextureID)

	// BindTexture makes unit active and binds id to it.
	BindTexture(unit int, id TextureID)

	// DrawIndexed draws count indices of b as a triangle list.
	DrawIndexed(b MeshBuffers, count int)
}

// Shader is a linked program that accepts named uniforms.
type Shader interface {
	Use()
	SetInt(name string, v int32)
	SetFloat(name string, v float32)
	SetVec3(name string, v mgl32.Vec3)
	SetMat4(name string, m mgl32.Mat4)
}
