package model

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/glscene/internal/engine/gpu"
)

// ColorUniform receives the mesh base colour on every draw.
const ColorUniform = "diffuseColor"

// White is the base colour of meshes whose material sets none.
var White = mgl32.Vec3{1, 1, 1}

// Mesh is an uploaded vertex/index set with the textures its material uses.
// Textures are owned by the Model and shared between meshes.
type Mesh struct {
	Name     string
	Vertices []Vertex
	Indices  []uint32
	Textures []*Texture
	// Color multiplies the diffuse sample. It is white for meshes with a
	// diffuse texture.
	Color mgl32.Vec3

	buffers gpu.MeshBuffers
	bounds  Bounds
}

// NewMesh uploads vertices and indices to dev.
func NewMesh(dev gpu.Device, name string, vertices []Vertex, indices []uint32, textures []*Texture) (*Mesh, error) {
	buffers, err := dev.CreateMeshBuffers(interleave(vertices), indices, VertexLayout)
	if err != nil {
		return nil, fmt.Errorf("uploading mesh %q: %w", name, err)
	}
	return &Mesh{
		Name:     name,
		Vertices: vertices,
		Indices:  indices,
		Textures: textures,
		Color:    White,
		buffers:  buffers,
		bounds:   boundsOf(vertices),
	}, nil
}

// Bounds returns the axis-aligned bounds of the vertices.
func (m *Mesh) Bounds() Bounds {
	return m.bounds
}

// Buffers returns the device buffers backing the mesh.
func (m *Mesh) Buffers() gpu.MeshBuffers {
	return m.buffers
}

// Draw sets the base colour, binds the mesh textures per table with
// fallback for unset samplers, and issues one indexed draw of all indices.
// Texture unit and vertex array bindings are left modified.
func (m *Mesh) Draw(dev gpu.Device, shader gpu.Shader, table BindingTable, fallback gpu.TextureID) {
	shader.SetVec3(ColorUniform, m.Color)
	table.ApplyFallback(dev, shader, m.Textures, fallback)
	dev.DrawIndexed(m.buffers, len(m.Indices))
}

// hasKind reports whether any mesh texture is of kind k.
func (m *Mesh) hasKind(k TextureKind) bool {
	for _, tex := range m.Textures {
		if tex.Kind == k {
			return true
		}
	}
	return false
}

func (m *Mesh) release(dev gpu.Device) {
	dev.DeleteMeshBuffers(m.buffers)
	m.buffers = gpu.MeshBuffers{}
}
