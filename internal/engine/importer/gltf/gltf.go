// Package gltf imports glTF 2.0 files (.gltf and .glb).
// Importing the package registers it for both extensions.
package gltf

import (
	"errors"
	"fmt"
	"net/url"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"go.uber.org/zap"

	"github.com/Faultbox/glscene/internal/engine/importer"
	"github.com/Faultbox/glscene/internal/logger"
)

// ErrNoPositions is returned for a triangle primitive without a POSITION attribute.
var ErrNoPositions = errors.New("gltf: primitive has no POSITION attribute")

func init() {
	importer.Register(".gltf", importer.ImporterFunc(Import))
	importer.Register(".glb", importer.ImporterFunc(Import))
}

// Import reads a glTF document and converts its default scene. Each mesh
// primitive becomes one importer mesh. Only textures stored as external
// files are referenced; embedded images are skipped with a warning.
func Import(path string) (*importer.Scene, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening glTF: %w", err)
	}

	c := &converter{doc: doc, log: logger.Named("gltf"), defaultMaterial: -1}
	c.convertMaterials()
	if err := c.convertMeshes(); err != nil {
		return nil, err
	}
	c.convertNodes()

	c.log.Debug("imported",
		zap.String("file", path),
		zap.Int("meshes", len(c.scene.Meshes)),
		zap.Int("materials", len(c.scene.Materials)))
	return &c.scene, nil
}

type converter struct {
	doc   *gltf.Document
	log   *zap.Logger
	scene importer.Scene

	// primitives maps a glTF mesh index to the importer meshes built from it.
	primitives      [][]int
	defaultMaterial int
}

func (c *converter) convertMaterials() {
	for _, m := range c.doc.Materials {
		mat := &importer.Material{Name: m.Name}
		if pbr := m.PBRMetallicRoughness; pbr != nil {
			if pbr.BaseColorTexture != nil {
				c.addTexture(mat, importer.TextureDiffuse, pbr.BaseColorTexture.Index)
			}
			if f := pbr.BaseColorFactor; f != nil {
				mat.SetDiffuseColor(mgl32.Vec3{float32(f[0]), float32(f[1]), float32(f[2])})
			}
		}
		if m.NormalTexture != nil && m.NormalTexture.Index != nil {
			c.addTexture(mat, importer.TextureNormal, *m.NormalTexture.Index)
		}
		c.scene.Materials = append(c.scene.Materials, mat)
	}
}

func (c *converter) addTexture(mat *importer.Material, kind importer.TextureType, texIdx int) {
	if texIdx < 0 || texIdx >= len(c.doc.Textures) || c.doc.Textures[texIdx].Source == nil {
		c.log.Warn("material references missing texture", zap.String("material", mat.Name), zap.Int("texture", texIdx))
		return
	}
	imgIdx := *c.doc.Textures[texIdx].Source
	if imgIdx < 0 || imgIdx >= len(c.doc.Images) {
		c.log.Warn("texture references missing image", zap.String("material", mat.Name), zap.Int("image", imgIdx))
		return
	}
	img := c.doc.Images[imgIdx]
	if img.URI == "" || img.IsEmbeddedResource() {
		c.log.Warn("embedded image skipped", zap.String("material", mat.Name), zap.Int("image", imgIdx))
		return
	}
	uri, err := url.PathUnescape(img.URI)
	if err != nil {
		uri = img.URI
	}
	mat.AddTexture(kind, uri)
}

func (c *converter) materialIndex(p *gltf.Primitive) int {
	if p.Material != nil && *p.Material >= 0 && *p.Material < len(c.scene.Materials) {
		return *p.Material
	}
	if c.defaultMaterial < 0 {
		c.defaultMaterial = len(c.scene.Materials)
		c.scene.Materials = append(c.scene.Materials, &importer.Material{Name: "DefaultMaterial"})
	}
	return c.defaultMaterial
}

func (c *converter) convertMeshes() error {
	c.primitives = make([][]int, len(c.doc.Meshes))
	for mi, m := range c.doc.Meshes {
		for pi, p := range m.Primitives {
			mesh, err := c.convertPrimitive(p)
			if err != nil {
				return fmt.Errorf("mesh %d primitive %d: %w", mi, pi, err)
			}
			if mesh == nil {
				continue
			}
			mesh.Name = m.Name
			mesh.MaterialIndex = c.materialIndex(p)
			c.primitives[mi] = append(c.primitives[mi], len(c.scene.Meshes))
			c.scene.Meshes = append(c.scene.Meshes, mesh)
		}
	}
	return nil
}

func (c *converter) accessor(p *gltf.Primitive, attr string) (*gltf.Accessor, bool) {
	idx, ok := p.Attributes[attr]
	if !ok || idx < 0 || idx >= len(c.doc.Accessors) {
		return nil, false
	}
	return c.doc.Accessors[idx], true
}

// convertPrimitive returns nil for primitives that are not triangles.
func (c *converter) convertPrimitive(p *gltf.Primitive) (*importer.MeshData, error) {
	switch p.Mode {
	case gltf.PrimitiveTriangles, gltf.PrimitiveTriangleStrip, gltf.PrimitiveTriangleFan:
	default:
		c.log.Debug("non-triangle primitive skipped", zap.Int("mode", int(p.Mode)))
		return nil, nil
	}

	posAcr, ok := c.accessor(p, "POSITION")
	if !ok {
		return nil, ErrNoPositions
	}
	positions, err := modeler.ReadPosition(c.doc, posAcr, nil)
	if err != nil {
		return nil, fmt.Errorf("reading positions: %w", err)
	}

	mesh := &importer.MeshData{Positions: make([]mgl32.Vec3, len(positions))}
	for i, v := range positions {
		mesh.Positions[i] = v
	}

	if acr, ok := c.accessor(p, "NORMAL"); ok {
		normals, err := modeler.ReadNormal(c.doc, acr, nil)
		if err != nil {
			return nil, fmt.Errorf("reading normals: %w", err)
		}
		if len(normals) == len(positions) {
			mesh.Normals = make([]mgl32.Vec3, len(normals))
			for i, n := range normals {
				mesh.Normals[i] = n
			}
		}
	}

	for ch := 0; ch < importer.MaxTexCoords; ch++ {
		acr, ok := c.accessor(p, fmt.Sprintf("TEXCOORD_%d", ch))
		if !ok {
			continue
		}
		uvs, err := modeler.ReadTextureCoord(c.doc, acr, nil)
		if err != nil {
			return nil, fmt.Errorf("reading TEXCOORD_%d: %w", ch, err)
		}
		if len(uvs) != len(positions) {
			continue
		}
		mesh.TexCoords[ch] = make([]mgl32.Vec2, len(uvs))
		for i, uv := range uvs {
			mesh.TexCoords[ch][i] = uv
		}
	}

	var indices []uint32
	if p.Indices != nil && *p.Indices >= 0 && *p.Indices < len(c.doc.Accessors) {
		indices, err = modeler.ReadIndices(c.doc, c.doc.Accessors[*p.Indices], nil)
		if err != nil {
			return nil, fmt.Errorf("reading indices: %w", err)
		}
	} else {
		indices = make([]uint32, len(positions))
		for i := range indices {
			indices[i] = uint32(i)
		}
	}

	mesh.Faces = faces(p.Mode, indices)
	return mesh, nil
}

// faces assembles triangles for the given topology. Fans are kept as one
// polygon so triangulation can split them.
func faces(mode gltf.PrimitiveMode, indices []uint32) []importer.Face {
	var out []importer.Face
	switch mode {
	case gltf.PrimitiveTriangleStrip:
		for i := 2; i < len(indices); i++ {
			a, b := indices[i-2], indices[i-1]
			if i%2 == 1 {
				a, b = b, a
			}
			out = append(out, importer.Face{Indices: []uint32{a, b, indices[i]}})
		}
	case gltf.PrimitiveTriangleFan:
		if len(indices) >= 3 {
			out = append(out, importer.Face{Indices: append([]uint32(nil), indices...)})
		}
	default:
		for i := 0; i+2 < len(indices); i += 3 {
			out = append(out, importer.Face{Indices: []uint32{indices[i], indices[i+1], indices[i+2]}})
		}
	}
	return out
}

// convertNodes builds the hierarchy of the default scene under a synthetic
// root, walking with an explicit stack. Nodes reached twice are dropped.
func (c *converter) convertNodes() {
	var roots []int
	name := "Scene"
	sceneIdx := 0
	if c.doc.Scene != nil {
		sceneIdx = *c.doc.Scene
	}
	if sceneIdx >= 0 && sceneIdx < len(c.doc.Scenes) {
		s := c.doc.Scenes[sceneIdx]
		roots = s.Nodes
		if s.Name != "" {
			name = s.Name
		}
	}

	c.scene.Root = &importer.Node{Name: name}

	type pending struct {
		src    int
		parent *importer.Node
	}
	stack := make([]pending, 0, len(roots))
	for i := len(roots) - 1; i >= 0; i-- {
		stack = append(stack, pending{roots[i], c.scene.Root})
	}

	visited := make(map[int]bool)
	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if p.src < 0 || p.src >= len(c.doc.Nodes) || visited[p.src] {
			c.log.Warn("invalid node reference", zap.Int("node", p.src))
			continue
		}
		visited[p.src] = true

		src := c.doc.Nodes[p.src]
		node := &importer.Node{Name: src.Name}
		if src.Mesh != nil && *src.Mesh >= 0 && *src.Mesh < len(c.primitives) {
			node.Meshes = append(node.Meshes, c.primitives[*src.Mesh]...)
		}
		p.parent.Children = append(p.parent.Children, node)

		for i := len(src.Children) - 1; i >= 0; i-- {
			stack = append(stack, pending{src.Children[i], node})
		}
	}
}
