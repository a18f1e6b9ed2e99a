package model

import (
	"errors"
	"fmt"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/Faultbox/glscene/internal/engine/gpu"
	"github.com/Faultbox/glscene/internal/engine/importer"
	"github.com/Faultbox/glscene/internal/engine/texture"
	"github.com/Faultbox/glscene/internal/logger"
)

// ErrIndexRange reports a face index past the end of its mesh's vertices.
var ErrIndexRange = errors.New("model: face index out of range")

// placeholderPix is uploaded in place of a texture that failed to decode.
var placeholderPix = []byte{255, 255, 255, 255}

// LoadOptions configures Load. The zero value imports by file extension
// with no post-processing.
type LoadOptions struct {
	// Importer overrides the importer registered for the file extension.
	Importer importer.Importer
	// PostProcess is applied to the scene after import.
	PostProcess importer.PostProcess
	// Decode reads texture files. Defaults to texture.Decode.
	Decode func(path string) (*texture.Image, error)
	// Logger defaults to the "model" child of the global logger.
	Logger *zap.Logger
	// Bindings is used by Model.Draw. Defaults to DefaultBindings.
	Bindings BindingTable
	// SRGB uploads diffuse textures with an sRGB internal format.
	SRGB bool
	// Fallback uploads a 1x1 white texture once per non-empty model and
	// binds it to every sampler a mesh leaves unset, so untextured meshes
	// render in their base colour instead of sampling stale units.
	Fallback bool
	// PreserveDuplicateDiffuse appends each mesh's diffuse textures twice
	// and leaves specular textures out, as older loaders of this pipeline
	// did. Specular textures are still uploaded and cached.
	PreserveDuplicateDiffuse bool
}

// DefaultLoadOptions returns the options used by the viewer.
func DefaultLoadOptions() LoadOptions {
	return LoadOptions{PostProcess: importer.DefaultPostProcess, Fallback: true}
}

// DiagnosticKind classifies a load problem.
type DiagnosticKind int

// Diagnostic kinds.
const (
	DiagImport DiagnosticKind = iota
	DiagTexture
	DiagMesh
)

// String returns the kind name.
func (k DiagnosticKind) String() string {
	switch k {
	case DiagImport:
		return "import"
	case DiagTexture:
		return "texture"
	case DiagMesh:
		return "mesh"
	default:
		return "unknown"
	}
}

// Diagnostic records a problem that degraded a load without aborting it.
type Diagnostic struct {
	Kind DiagnosticKind
	Path string
	Err  error
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s %s: %v", d.Kind, d.Path, d.Err)
}

// Model is the drawable form of one model file. It owns its meshes and the
// textures they share; Release frees both.
type Model struct {
	dev  gpu.Device
	log  *zap.Logger
	opts LoadOptions

	path      string
	directory string

	meshes   []*Mesh
	textures []*Texture // uploads, in load order
	fallback gpu.TextureID
	cache    map[string]*Texture
	failed   map[string]bool

	diagnostics []Diagnostic
	released    bool
}

// Load imports path and uploads its meshes and textures to dev. It never
// fails: an import error yields an empty model, a texture that cannot be
// decoded is replaced by a 1x1 white texture. Both are logged and listed in
// Diagnostics.
func Load(dev gpu.Device, path string, opts LoadOptions) *Model {
	if opts.Decode == nil {
		opts.Decode = texture.Decode
	}
	if opts.Logger == nil {
		opts.Logger = logger.Named("model")
	}
	if opts.Bindings == nil {
		opts.Bindings = DefaultBindings()
	}

	m := &Model{
		dev:       dev,
		log:       opts.Logger,
		opts:      opts,
		path:      path,
		directory: filepath.Dir(path),
		cache:     make(map[string]*Texture),
		failed:    make(map[string]bool),
	}

	scene, err := m.importScene()
	if err != nil {
		m.log.Error("model import failed", zap.String("path", path), zap.Error(err))
		m.diagnose(DiagImport, path, err)
		return m
	}

	m.processScene(scene)
	if opts.Fallback && len(m.meshes) > 0 {
		m.uploadFallback()
	}

	m.log.Info("model loaded",
		zap.String("path", path),
		zap.Int("meshes", len(m.meshes)),
		zap.Int("textures", len(m.textures)),
		zap.Int("vertices", m.VertexCount()),
		zap.Int("diagnostics", len(m.diagnostics)))
	return m
}

func (m *Model) importScene() (*importer.Scene, error) {
	imp := m.opts.Importer
	if imp == nil {
		var err error
		if imp, err = importer.ForPath(m.path); err != nil {
			return nil, err
		}
	}
	return importer.Read(imp, m.path, m.opts.PostProcess)
}

// processScene walks the node tree depth-first in pre-order with an
// explicit stack, appending one Mesh per node mesh reference.
func (m *Model) processScene(scene *importer.Scene) {
	stack := []*importer.Node{scene.Root}
	visited := make(map[*importer.Node]bool)

	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if node == nil || visited[node] {
			continue
		}
		visited[node] = true

		for _, idx := range node.Meshes {
			if idx < 0 || idx >= len(scene.Meshes) {
				m.diagnose(DiagMesh, node.Name, fmt.Errorf("node references mesh %d of %d", idx, len(scene.Meshes)))
				continue
			}
			mesh, err := m.processMesh(scene.Meshes[idx], scene)
			if err != nil {
				m.log.Warn("mesh skipped", zap.String("node", node.Name), zap.Error(err))
				m.diagnose(DiagMesh, node.Name, err)
				continue
			}
			m.meshes = append(m.meshes, mesh)
		}

		for i := len(node.Children) - 1; i >= 0; i-- {
			stack = append(stack, node.Children[i])
		}
	}
}

func (m *Model) processMesh(md *importer.MeshData, scene *importer.Scene) (*Mesh, error) {
	vertices := make([]Vertex, len(md.Positions))
	uvs := md.TexCoords[0]
	for i, p := range md.Positions {
		vertices[i].Position = p
		if i < len(md.Normals) {
			vertices[i].Normal = md.Normals[i]
		}
		if i < len(uvs) {
			vertices[i].TexCoords = uvs[i]
		}
	}

	var indices []uint32
	for _, f := range md.Faces {
		for _, idx := range f.Indices {
			if int(idx) >= len(vertices) {
				return nil, fmt.Errorf("mesh %q: %w: %d of %d", md.Name, ErrIndexRange, idx, len(vertices))
			}
		}
		indices = append(indices, f.Indices...)
	}

	var textures []*Texture
	if mat := materialOf(md, scene); mat != nil {
		textures = m.materialTextures(mat)
	}

	mesh, err := NewMesh(m.dev, md.Name, vertices, indices, textures)
	if err != nil {
		return nil, err
	}
	if mat := materialOf(md, scene); mat != nil && mat.HasDiffuseColor && !mesh.hasKind(KindDiffuse) {
		mesh.Color = mat.DiffuseColor
	}
	return mesh, nil
}

func materialOf(md *importer.MeshData, scene *importer.Scene) *importer.Material {
	if md.MaterialIndex < 0 || md.MaterialIndex >= len(scene.Materials) {
		return nil
	}
	return scene.Materials[md.MaterialIndex]
}

// uploadFallback creates the white texture bound to unset samplers. On
// failure meshes draw without it.
func (m *Model) uploadFallback() {
	id, err := m.dev.CreateTexture(1, 1, gpu.FormatRGBA, placeholderPix, gpu.TextureOptions{})
	if err != nil {
		m.log.Warn("fallback texture upload failed", zap.Error(err))
		m.diagnose(DiagTexture, "", err)
		return
	}
	m.fallback = id
}

func (m *Model) materialTextures(mat *importer.Material) []*Texture {
	diffuse := m.loadMaterialTextures(mat, importer.TextureDiffuse, KindDiffuse)
	specular := m.loadMaterialTextures(mat, importer.TextureSpecular, KindSpecular)

	textures := append([]*Texture(nil), diffuse...)
	if m.opts.PreserveDuplicateDiffuse {
		return append(textures, diffuse...)
	}
	textures = append(textures, specular...)
	textures = append(textures, m.loadMaterialTextures(mat, importer.TextureNormal, KindNormal)...)
	textures = append(textures, m.loadMaterialTextures(mat, importer.TextureHeight, KindHeight)...)
	textures = append(textures, m.loadMaterialTextures(mat, importer.TextureShininess, KindShininess)...)
	return textures
}

func (m *Model) loadMaterialTextures(mat *importer.Material, slot importer.TextureType, kind TextureKind) []*Texture {
	var out []*Texture
	for i := 0; i < mat.TextureCount(slot); i++ {
		path, _ := mat.Texture(slot, i)
		if tex := m.resolveTexture(path, kind); tex != nil {
			out = append(out, tex)
		}
	}
	return out
}

// resolveTexture returns the cached texture for path or uploads it. The
// cache key is the path string as given by the material. A hit under a
// different kind shares the GPU handle but carries the requested kind.
func (m *Model) resolveTexture(path string, kind TextureKind) *Texture {
	if cached, ok := m.cache[path]; ok {
		m.log.Debug("texture cache hit", zap.String("path", path))
		if cached.Kind == kind {
			return cached
		}
		return &Texture{ID: cached.ID, Kind: kind, Path: path}
	}
	if m.failed[path] {
		return nil
	}

	file := filepath.Join(m.directory, path)
	width, height, format, pix := 1, 1, gpu.FormatRGBA, placeholderPix

	img, err := m.opts.Decode(file)
	if err != nil {
		m.log.Warn("texture load failed, using placeholder", zap.String("path", file), zap.Error(err))
		m.diagnose(DiagTexture, file, err)
	} else {
		width, height, format, pix = img.Width, img.Height, gpu.FormatForChannels(img.Channels), img.Pix
	}

	id, err := m.dev.CreateTexture(width, height, format, pix, gpu.TextureOptions{SRGB: m.opts.SRGB && kind == KindDiffuse})
	if err != nil {
		m.log.Warn("texture upload failed", zap.String("path", file), zap.Error(err))
		m.diagnose(DiagTexture, file, err)
		m.failed[path] = true
		return nil
	}

	tex := &Texture{ID: id, Kind: kind, Path: path}
	m.cache[path] = tex
	m.textures = append(m.textures, tex)
	return tex
}

func (m *Model) diagnose(kind DiagnosticKind, path string, err error) {
	m.diagnostics = append(m.diagnostics, Diagnostic{Kind: kind, Path: path, Err: err})
}

// Draw draws every mesh in load order with the model's binding table.
func (m *Model) Draw(shader gpu.Shader) {
	m.DrawWith(shader, m.opts.Bindings)
}

// DrawWith draws every mesh in load order with the given binding table.
func (m *Model) DrawWith(shader gpu.Shader, table BindingTable) {
	if m.released {
		return
	}
	for _, mesh := range m.meshes {
		mesh.Draw(m.dev, shader, table, m.fallback)
	}
}

// Release frees every mesh buffer and uploaded texture exactly once.
// Further calls do nothing.
func (m *Model) Release() {
	if m.released {
		return
	}
	m.released = true
	for _, mesh := range m.meshes {
		mesh.release(m.dev)
	}
	for _, tex := range m.textures {
		m.dev.DeleteTexture(tex.ID)
	}
	if m.fallback != 0 {
		m.dev.DeleteTexture(m.fallback)
		m.fallback = 0
	}
}

// Path returns the file the model was loaded from.
func (m *Model) Path() string { return m.path }

// Directory returns the directory texture paths are resolved against.
func (m *Model) Directory() string { return m.directory }

// Meshes returns the meshes in traversal order.
func (m *Model) Meshes() []*Mesh { return m.meshes }

// Textures returns the uploaded textures in load order, one per distinct path.
func (m *Model) Textures() []*Texture { return m.textures }

// Diagnostics returns the problems recorded while loading.
func (m *Model) Diagnostics() []Diagnostic { return m.diagnostics }

// Empty reports whether no meshes were produced.
func (m *Model) Empty() bool { return len(m.meshes) == 0 }

// VertexCount returns the total vertex count over all meshes.
func (m *Model) VertexCount() int {
	n := 0
	for _, mesh := range m.meshes {
		n += len(mesh.Vertices)
	}
	return n
}

// IndexCount returns the total index count over all meshes.
func (m *Model) IndexCount() int {
	n := 0
	for _, mesh := range m.meshes {
		n += len(mesh.Indices)
	}
	return n
}

// Bounds returns the union of all mesh bounds.
func (m *Model) Bounds() Bounds {
	if len(m.meshes) == 0 {
		return Bounds{}
	}
	b := m.meshes[0].Bounds()
	for _, mesh := range m.meshes[1:] {
		b = b.Union(mesh.Bounds())
	}
	return b
}
