// Package importer defines the in-memory scene graph produced by model file
// importers, the post-processing steps applied to it, and a registry that
// picks an importer by file extension.
package importer

import (
	"errors"

	"github.com/go-gl/mathgl/mgl32"
)

// MaxTexCoords is the number of texture coordinate channels a mesh can carry.
const MaxTexCoords = 8

// Import errors.
var (
	ErrNilScene          = errors.New("importer: no scene")
	ErrIncomplete        = errors.New("importer: scene is incomplete")
	ErrNoRoot            = errors.New("importer: scene has no root node")
	ErrUnsupportedFormat = errors.New("importer: unsupported format")
)

// SceneFlags describe the state of an imported scene.
type SceneFlags uint32

const (
	// FlagIncomplete marks a scene that could not be fully read.
	FlagIncomplete SceneFlags = 1 << iota
)

// TextureType is a material texture slot.
type TextureType int

// Texture slots.
const (
	TextureDiffuse TextureType = iota
	TextureSpecular
	TextureNormal
	TextureHeight
	TextureShininess
)

// String returns the slot name.
func (t TextureType) String() string {
	switch t {
	case TextureDiffuse:
		return "diffuse"
	case TextureSpecular:
		return "specular"
	case TextureNormal:
		return "normal"
	case TextureHeight:
		return "height"
	case TextureShininess:
		return "shininess"
	default:
		return "unknown"
	}
}

// Scene is an imported file. Meshes and Materials are flat arrays that nodes
// and meshes index into.
type Scene struct {
	Root      *Node
	Meshes    []*MeshData
	Materials []*Material
	Flags     SceneFlags
}

// Node is one element of the scene hierarchy.
type Node struct {
	Name     string
	Meshes   []int // indices into Scene.Meshes
	Children []*Node
}

// Face is a polygon. After triangulation every face has exactly three indices.
type Face struct {
	Indices []uint32
}

// MeshData is an imported mesh. Normals, Tangents and each TexCoords channel
// are either nil or the same length as Positions.
type MeshData struct {
	Name          string
	Positions     []mgl32.Vec3
	Normals       []mgl32.Vec3
	Tangents      []mgl32.Vec3
	Bitangents    []mgl32.Vec3
	TexCoords     [MaxTexCoords][]mgl32.Vec2
	Faces         []Face
	MaterialIndex int
}

// HasNormals reports whether the mesh carries per-vertex normals.
func (m *MeshData) HasNormals() bool {
	return len(m.Normals) > 0
}

// HasTexCoords reports whether the given channel is populated.
func (m *MeshData) HasTexCoords(channel int) bool {
	return channel >= 0 && channel < MaxTexCoords && len(m.TexCoords[channel]) > 0
}

// Material lists texture file paths per slot, as written in the source file.
// DiffuseColor is meaningful only when HasDiffuseColor is set.
type Material struct {
	Name     string
	Textures map[TextureType][]string

	DiffuseColor    mgl32.Vec3
	HasDiffuseColor bool
}

// SetDiffuseColor records the base colour of the material.
func (m *Material) SetDiffuseColor(c mgl32.Vec3) {
	m.DiffuseColor = c
	m.HasDiffuseColor = true
}

// AddTexture appends path to the given slot.
func (m *Material) AddTexture(t TextureType, path string) {
	if m.Textures == nil {
		m.Textures = make(map[TextureType][]string)
	}
	m.Textures[t] = append(m.Textures[t], path)
}

// TextureCount returns the number of textures in a slot.
func (m *Material) TextureCount(t TextureType) int {
	return len(m.Textures[t])
}

// Texture returns the i-th path in a slot.
func (m *Material) Texture(t TextureType, i int) (string, bool) {
	paths := m.Textures[t]
	if i < 0 || i >= len(paths) {
		return "", false
	}
	return paths[i], true
}

// Validate reports why a scene cannot be loaded, or nil.
func Validate(s *Scene) error {
	switch {
	case s == nil:
		return ErrNilScene
	case s.Flags&FlagIncomplete != 0:
		return ErrIncomplete
	case s.Root == nil:
		return ErrNoRoot
	}
	return nil
}
