// Package model turns imported scenes into GPU meshes with shared,
// deduplicated textures, and draws them.
package model

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/glscene/internal/engine/gpu"
)

// Vertex is uploaded interleaved as 8 floats: position, normal, texcoords.
type Vertex struct {
	Position  mgl32.Vec3
	Normal    mgl32.Vec3 // zero when the source mesh had no normals
	TexCoords mgl32.Vec2
}

// VertexLayout describes Vertex to the device: locations 0, 1 and 2.
var VertexLayout = gpu.VertexLayout{
	Stride: 8,
	Attribs: []gpu.VertexAttrib{
		{Location: 0, Components: 3, Offset: 0},
		{Location: 1, Components: 3, Offset: 3},
		{Location: 2, Components: 2, Offset: 6},
	},
}

func interleave(vertices []Vertex) []float32 {
	out := make([]float32, 0, len(vertices)*VertexLayout.Stride)
	for _, v := range vertices {
		out = append(out,
			v.Position[0], v.Position[1], v.Position[2],
			v.Normal[0], v.Normal[1], v.Normal[2],
			v.TexCoords[0], v.TexCoords[1])
	}
	return out
}

// TextureKind is the semantic role of a texture in a material.
type TextureKind int

// Texture kinds.
const (
	KindDiffuse TextureKind = iota
	KindSpecular
	KindNormal
	KindHeight
	KindShininess
)

// String returns the kind name.
func (k TextureKind) String() string {
	switch k {
	case KindDiffuse:
		return "diffuse"
	case KindSpecular:
		return "specular"
	case KindNormal:
		return "normal"
	case KindHeight:
		return "height"
	case KindShininess:
		return "shininess"
	default:
		return "unknown"
	}
}

// Texture is an uploaded texture. Path is the material's path string and
// doubles as the cache key.
type Texture struct {
	ID   gpu.TextureID
	Kind TextureKind
	Path string
}

// Bounds is an axis-aligned bounding box.
type Bounds struct {
	Min mgl32.Vec3
	Max mgl32.Vec3
}

// Center returns the midpoint of the box.
func (b Bounds) Center() mgl32.Vec3 {
	return b.Min.Add(b.Max).Mul(0.5)
}

// Size returns the extent along each axis.
func (b Bounds) Size() mgl32.Vec3 {
	return b.Max.Sub(b.Min)
}

// Union returns the smallest box containing b and o.
func (b Bounds) Union(o Bounds) Bounds {
	for i := 0; i < 3; i++ {
		b.Min[i] = min(b.Min[i], o.Min[i])
		b.Max[i] = max(b.Max[i], o.Max[i])
	}
	return b
}

func boundsOf(vertices []Vertex) Bounds {
	if len(vertices) == 0 {
		return Bounds{}
	}
	b := Bounds{Min: vertices[0].Position, Max: vertices[0].Position}
	for _, v := range vertices[1:] {
		for i := 0; i < 3; i++ {
			b.Min[i] = min(b.Min[i], v.Position[i])
			b.Max[i] = max(b.Max[i], v.Position[i])
		}
	}
	return b
}
