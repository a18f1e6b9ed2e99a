// Package opengl implements gpu.Device on an OpenGL 4.1 core context.
package opengl

import (
	"fmt"
	"unsafe"

	"github.com/go-gl/gl/v4.1-core/gl"

	"github.com/Faultbox/glscene/internal/engine/gpu"
)

const floatSize = 4

// Device issues OpenGL calls on the current context.
// IMPORTANT: the context must be current on the calling OS thread.
type Device struct {
	// Anisotropy is the max anisotropic filtering level set on new textures; 0 disables it.
	Anisotropy float32
}

var _ gpu.Device = (*Device)(nil)

// NewDevice returns a device for the current context. gl.Init must have run.
func NewDevice() *Device {
	return &Device{Anisotropy: 8}
}

// CreateMeshBuffers implements gpu.Device.
func (d *Device) CreateMeshBuffers(vertices []float32, indices []uint32, layout gpu.VertexLayout) (gpu.MeshBuffers, error) {
	var b gpu.MeshBuffers

	gl.GenVertexArrays(1, &b.VAO)
	gl.GenBuffers(1, &b.VBO)
	gl.GenBuffers(1, &b.EBO)
	if b.VAO == 0 || b.VBO == 0 || b.EBO == 0 {
		d.DeleteMeshBuffers(b)
		return gpu.MeshBuffers{}, fmt.Errorf("allocating mesh buffers: gl error 0x%x", gl.GetError())
	}

	gl.BindVertexArray(b.VAO)

	gl.BindBuffer(gl.ARRAY_BUFFER, b.VBO)
	gl.BufferData(gl.ARRAY_BUFFER, len(vertices)*floatSize, ptr(unsafe.Pointer(unsafe.SliceData(vertices)), len(vertices)), gl.STATIC_DRAW)

	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, b.EBO)
	gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(indices)*4, ptr(unsafe.Pointer(unsafe.SliceData(indices)), len(indices)), gl.STATIC_DRAW)

	stride := int32(layout.Stride * floatSize)
	for _, a := range layout.Attribs {
		gl.EnableVertexAttribArray(a.Location)
		gl.VertexAttribPointerWithOffset(a.Location, a.Components, gl.FLOAT, false, stride, uintptr(a.Offset*floatSize))
	}

	gl.BindVertexArray(0)
	return b, nil
}

// DeleteMeshBuffers implements gpu.Device.
func (d *Device) DeleteMeshBuffers(b gpu.MeshBuffers) {
	if b.VAO != 0 {
		gl.DeleteVertexArrays(1, &b.VAO)
	}
	if b.VBO != 0 {
		gl.DeleteBuffers(1, &b.VBO)
	}
	if b.EBO != 0 {
		gl.DeleteBuffers(1, &b.EBO)
	}
}

// CreateTexture implements gpu.Device.
func (d *Device) CreateTexture(width, height int, format gpu.PixelFormat, pix []byte, opts gpu.TextureOptions) (gpu.TextureID, error) {
	var id uint32
	gl.GenTextures(1, &id)
	if id == 0 {
		return 0, fmt.Errorf("allocating texture: gl error 0x%x", gl.GetError())
	}

	dataFormat, internalFormat := glFormats(format, opts.SRGB)

	// Errors queued by earlier calls must not be blamed on this upload.
	gpu.DrainErrors(gl.GetError)

	gl.BindTexture(gl.TEXTURE_2D, id)
	// Rows of single-channel and RGB images are not 4-byte aligned in general.
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 1)
	gl.TexImage2D(gl.TEXTURE_2D, 0, internalFormat, int32(width), int32(height), 0,
		dataFormat, gl.UNSIGNED_BYTE, ptr(unsafe.Pointer(unsafe.SliceData(pix)), len(pix)))
	gl.GenerateMipmap(gl.TEXTURE_2D)

	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.REPEAT)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.REPEAT)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR_MIPMAP_LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)

	if code := gpu.DrainErrors(gl.GetError); code != gl.NO_ERROR {
		gl.DeleteTextures(1, &id)
		return 0, fmt.Errorf("uploading %dx%d %s texture: gl error 0x%x", width, height, format, code)
	}

	// Anisotropic filtering is optional; a driver without it keeps the texture.
	if d.Anisotropy > 1 {
		gl.TexParameterf(gl.TEXTURE_2D, gl.TEXTURE_MAX_ANISOTROPY, d.Anisotropy)
		gpu.DrainErrors(gl.GetError)
	}
	return gpu.TextureID(id), nil
}

// DeleteTexture implements gpu.Device.
func (d *Device) DeleteTexture(id gpu.TextureID) {
	if id == 0 {
		return
	}
	tex := uint32(id)
	gl.DeleteTextures(1, &tex)
}

// BindTexture implements gpu.Device.
func (d *Device) BindTexture(unit int, id gpu.TextureID) {
	gl.ActiveTexture(gl.TEXTURE0 + uint32(unit))
	gl.BindTexture(gl.TEXTURE_2D, uint32(id))
}

// DrawIndexed implements gpu.Device.
func (d *Device) DrawIndexed(b gpu.MeshBuffers, count int) {
	gl.BindVertexArray(b.VAO)
	gl.DrawElementsWithOffset(gl.TRIANGLES, int32(count), gl.UNSIGNED_INT, 0)
	gl.BindVertexArray(0)
}

func glFormats(format gpu.PixelFormat, srgb bool) (dataFormat uint32, internalFormat int32) {
	switch format {
	case gpu.FormatRed:
		return gl.RED, gl.RED
	case gpu.FormatRGBA:
		if srgb {
			return gl.RGBA, gl.SRGB8_ALPHA8
		}
		return gl.RGBA, gl.RGBA
	default:
		if srgb {
			return gl.RGB, gl.SRGB8
		}
		return gl.RGB, gl.RGB
	}
}

// ptr returns p, or nil for an empty slice so GL allocates without copying.
func ptr(p unsafe.Pointer, n int) unsafe.Pointer {
	if n == 0 {
		return nil
	}
	return p
}
