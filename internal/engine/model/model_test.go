package model

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/glscene/internal/engine/gpu"
	"github.com/Faultbox/glscene/internal/engine/gpu/gputest"
	"github.com/Faultbox/glscene/internal/engine/importer"
	_ "github.com/Faultbox/glscene/internal/engine/importer/obj"
	"github.com/Faultbox/glscene/internal/engine/texture"
)

// fakeDecoder returns a 2x2 RGB image for every path not in missing.
type fakeDecoder struct {
	calls   []string
	missing map[string]bool
}

func (d *fakeDecoder) decode(path string) (*texture.Image, error) {
	d.calls = append(d.calls, path)
	if d.missing[path] {
		return nil, os.ErrNotExist
	}
	return &texture.Image{Pix: make([]byte, 2*2*3), Width: 2, Height: 2, Channels: 3}, nil
}

func sceneImporter(s *importer.Scene) importer.Importer {
	return importer.ImporterFunc(func(string) (*importer.Scene, error) { return s, nil })
}

func triangle(name string, material int) *importer.MeshData {
	return &importer.MeshData{
		Name:          name,
		Positions:     []mgl32.Vec3{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}},
		Faces:         []importer.Face{{Indices: []uint32{0, 1, 2}}},
		MaterialIndex: material,
	}
}

func material(diffuse, specular []string) *importer.Material {
	m := &importer.Material{}
	for _, p := range diffuse {
		m.AddTexture(importer.TextureDiffuse, p)
	}
	for _, p := range specular {
		m.AddTexture(importer.TextureSpecular, p)
	}
	return m
}

func load(t *testing.T, s *importer.Scene, opts LoadOptions) (*Model, *gputest.Device, *fakeDecoder) {
	t.Helper()
	dev := gputest.New()
	dec := &fakeDecoder{missing: map[string]bool{}}
	opts.Importer = sceneImporter(s)
	if opts.Decode == nil {
		opts.Decode = dec.decode
	}
	return Load(dev, filepath.Join("assets", "thing.obj"), opts), dev, dec
}

func TestSingleTriangleWithoutNormalsOrMaterials(t *testing.T) {
	s := &importer.Scene{
		Root:   &importer.Node{Meshes: []int{0}},
		Meshes: []*importer.MeshData{triangle("tri", 0)},
	}
	m, dev, _ := load(t, s, LoadOptions{})

	require.Len(t, m.Meshes(), 1)
	mesh := m.Meshes()[0]
	require.Len(t, mesh.Vertices, 3)
	for _, v := range mesh.Vertices {
		assert.Equal(t, mgl32.Vec3{}, v.Normal)
		assert.Equal(t, mgl32.Vec2{}, v.TexCoords)
	}
	assert.Equal(t, []uint32{0, 1, 2}, mesh.Indices)
	assert.Empty(t, mesh.Textures)
	assert.Empty(t, m.Diagnostics())

	require.Len(t, dev.MeshUploads, 1)
	up := dev.MeshUploads[0]
	assert.Equal(t, VertexLayout, up.Layout)
	assert.Equal(t, []float32{
		0, 0, 0, 0, 0, 0, 0, 0,
		1, 0, 0, 0, 0, 0, 0, 0,
		0, 1, 0, 0, 0, 0, 0, 0,
	}, up.Vertices)
}

func TestVertexAttributesCopied(t *testing.T) {
	md := triangle("tri", 0)
	md.Normals = []mgl32.Vec3{{0, 0, 1}, {0, 0, 1}, {0, 0, 1}}
	md.TexCoords[0] = []mgl32.Vec2{{0, 0}, {1, 0}, {0, 1}}
	md.TexCoords[1] = []mgl32.Vec2{{9, 9}, {9, 9}, {9, 9}}
	s := &importer.Scene{Root: &importer.Node{Meshes: []int{0}}, Meshes: []*importer.MeshData{md}}

	m, _, _ := load(t, s, LoadOptions{})
	v := m.Meshes()[0].Vertices[1]
	assert.Equal(t, mgl32.Vec3{1, 0, 0}, v.Position)
	assert.Equal(t, mgl32.Vec3{0, 0, 1}, v.Normal)
	assert.Equal(t, mgl32.Vec2{1, 0}, v.TexCoords, "only channel 0 is used")
}

func TestTextureCacheSharesUploads(t *testing.T) {
	s := &importer.Scene{
		Root: &importer.Node{Meshes: []int{0, 1}},
		Meshes: []*importer.MeshData{
			triangle("a", 0),
			triangle("b", 1),
		},
		Materials: []*importer.Material{
			material([]string{"wood.png"}, nil),
			material([]string{"wood.png"}, nil),
		},
	}
	m, dev, dec := load(t, s, LoadOptions{})

	assert.Len(t, dec.calls, 1)
	assert.Equal(t, filepath.Join("assets", "wood.png"), dec.calls[0])
	require.Len(t, dev.Uploads, 1)
	require.Len(t, m.Textures(), 1)

	a, b := m.Meshes()[0], m.Meshes()[1]
	require.Len(t, a.Textures, 1)
	require.Len(t, b.Textures, 1)
	assert.Same(t, a.Textures[0], b.Textures[0])
	assert.Equal(t, dev.Uploads[0].ID, a.Textures[0].ID)
}

func TestTextureCacheKeyIsLiteralPath(t *testing.T) {
	s := &importer.Scene{
		Root:      &importer.Node{Meshes: []int{0}},
		Meshes:    []*importer.MeshData{triangle("a", 0)},
		Materials: []*importer.Material{material([]string{"wood.png", "./wood.png"}, nil)},
	}
	_, dev, _ := load(t, s, LoadOptions{})
	assert.Len(t, dev.Uploads, 2)
}

func TestCacheHitAcrossKindsSharesHandle(t *testing.T) {
	s := &importer.Scene{
		Root:      &importer.Node{Meshes: []int{0}},
		Meshes:    []*importer.MeshData{triangle("a", 0)},
		Materials: []*importer.Material{material([]string{"x.png"}, []string{"x.png"})},
	}
	m, dev, _ := load(t, s, LoadOptions{})

	require.Len(t, dev.Uploads, 1)
	tex := m.Meshes()[0].Textures
	require.Len(t, tex, 2)
	assert.Equal(t, KindDiffuse, tex[0].Kind)
	assert.Equal(t, KindSpecular, tex[1].Kind)
	assert.Equal(t, tex[0].ID, tex[1].ID)
}

func TestDiffuseThenSpecular(t *testing.T) {
	s := &importer.Scene{
		Root:      &importer.Node{Meshes: []int{0}},
		Meshes:    []*importer.MeshData{triangle("a", 0)},
		Materials: []*importer.Material{material([]string{"d0.png", "d1.png"}, []string{"s0.png"})},
	}
	s.Materials[0].AddTexture(importer.TextureNormal, "n.png")
	s.Materials[0].AddTexture(importer.TextureHeight, "h.png")

	m, _, _ := load(t, s, LoadOptions{})

	var kinds []TextureKind
	for _, tex := range m.Meshes()[0].Textures {
		kinds = append(kinds, tex.Kind)
	}
	assert.Equal(t, []TextureKind{KindDiffuse, KindDiffuse, KindSpecular, KindNormal, KindHeight}, kinds)
}

func TestPreserveDuplicateDiffuse(t *testing.T) {
	s := &importer.Scene{
		Root:      &importer.Node{Meshes: []int{0}},
		Meshes:    []*importer.MeshData{triangle("a", 0)},
		Materials: []*importer.Material{material([]string{"d.png"}, []string{"s.png"})},
	}
	m, dev, _ := load(t, s, LoadOptions{PreserveDuplicateDiffuse: true})

	tex := m.Meshes()[0].Textures
	require.Len(t, tex, 2)
	assert.Same(t, tex[0], tex[1])
	assert.Equal(t, "d.png", tex[0].Path)
	// The specular map is still uploaded, just never bound.
	assert.Len(t, dev.Uploads, 2)
}

func TestTraversalIsPreOrder(t *testing.T) {
	s := &importer.Scene{
		Root: &importer.Node{
			Name:   "root",
			Meshes: []int{0},
			Children: []*importer.Node{
				{Name: "left", Meshes: []int{1}, Children: []*importer.Node{{Name: "leftleaf", Meshes: []int{2}}}},
				{Name: "right", Meshes: []int{3, 0}},
			},
		},
		Meshes: []*importer.MeshData{triangle("m0", 0), triangle("m1", 0), triangle("m2", 0), triangle("m3", 0)},
	}
	m, _, _ := load(t, s, LoadOptions{})

	var names []string
	for _, mesh := range m.Meshes() {
		names = append(names, mesh.Name)
	}
	assert.Equal(t, []string{"m0", "m1", "m2", "m3", "m0"}, names)
}

func TestDeepHierarchy(t *testing.T) {
	const depth = 100000
	root := &importer.Node{}
	n := root
	for i := 0; i < depth; i++ {
		child := &importer.Node{}
		n.Children = []*importer.Node{child}
		n = child
	}
	n.Meshes = []int{0}

	s := &importer.Scene{Root: root, Meshes: []*importer.MeshData{triangle("deep", 0)}}
	m, _, _ := load(t, s, LoadOptions{})
	require.Len(t, m.Meshes(), 1)
}

func TestImportFailureYieldsEmptyModel(t *testing.T) {
	dev := gputest.New()
	m := Load(dev, filepath.Join(t.TempDir(), "does-not-exist.obj"), DefaultLoadOptions())

	assert.True(t, m.Empty())
	assert.Empty(t, m.Meshes())
	require.Len(t, m.Diagnostics(), 1)
	assert.Equal(t, DiagImport, m.Diagnostics()[0].Kind)
	assert.ErrorIs(t, m.Diagnostics()[0].Err, os.ErrNotExist)
	assert.Empty(t, dev.Calls)

	m = Load(dev, "model.unknownformat", LoadOptions{})
	assert.True(t, m.Empty())
	assert.ErrorIs(t, m.Diagnostics()[0].Err, importer.ErrUnsupportedFormat)
}

func TestInvalidScenesYieldEmptyModel(t *testing.T) {
	tests := []struct {
		name  string
		scene *importer.Scene
		want  error
	}{
		{"nil scene", nil, importer.ErrNilScene},
		{"incomplete", &importer.Scene{Root: &importer.Node{}, Flags: importer.FlagIncomplete}, importer.ErrIncomplete},
		{"no root", &importer.Scene{}, importer.ErrNoRoot},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, _, _ := load(t, tt.scene, LoadOptions{})
			assert.True(t, m.Empty())
			require.Len(t, m.Diagnostics(), 1)
			assert.ErrorIs(t, m.Diagnostics()[0].Err, tt.want)
		})
	}
}

func TestMissingTextureUsesPlaceholder(t *testing.T) {
	s := &importer.Scene{
		Root:      &importer.Node{Meshes: []int{0, 0}},
		Meshes:    []*importer.MeshData{triangle("a", 0)},
		Materials: []*importer.Material{material([]string{"gone.png"}, nil)},
	}
	dev := gputest.New()
	dec := &fakeDecoder{missing: map[string]bool{filepath.Join("assets", "gone.png"): true}}
	m := Load(dev, filepath.Join("assets", "thing.obj"), LoadOptions{Importer: sceneImporter(s), Decode: dec.decode})

	require.Len(t, m.Meshes(), 2)
	require.Len(t, dev.Uploads, 1, "placeholder is cached like any texture")
	up := dev.Uploads[0]
	assert.Equal(t, 1, up.Width)
	assert.Equal(t, 1, up.Height)
	assert.Equal(t, gpu.FormatRGBA, up.Format)
	assert.Equal(t, []byte{255, 255, 255, 255}, up.Pix)
	assert.NotZero(t, m.Meshes()[0].Textures[0].ID)

	require.Len(t, m.Diagnostics(), 1)
	d := m.Diagnostics()[0]
	assert.Equal(t, DiagTexture, d.Kind)
	assert.True(t, errors.Is(d.Err, os.ErrNotExist))
}

func TestTextureUploadFailureSkipsTexture(t *testing.T) {
	s := &importer.Scene{
		Root:      &importer.Node{Meshes: []int{0}},
		Meshes:    []*importer.MeshData{triangle("a", 0)},
		Materials: []*importer.Material{material([]string{"d.png", "d.png"}, nil)},
	}
	dev := gputest.New()
	dev.FailTextures = true
	dec := &fakeDecoder{missing: map[string]bool{}}
	m := Load(dev, "thing.obj", LoadOptions{Importer: sceneImporter(s), Decode: dec.decode})

	require.Len(t, m.Meshes(), 1)
	assert.Empty(t, m.Meshes()[0].Textures)
	assert.Len(t, dec.calls, 1, "failed path is not retried")
	assert.Len(t, m.Diagnostics(), 1)
}

func TestSRGBAppliesToDiffuseOnly(t *testing.T) {
	s := &importer.Scene{
		Root:      &importer.Node{Meshes: []int{0}},
		Meshes:    []*importer.MeshData{triangle("a", 0)},
		Materials: []*importer.Material{material([]string{"d.png"}, []string{"s.png"})},
	}
	_, dev, _ := load(t, s, LoadOptions{SRGB: true})

	require.Len(t, dev.Uploads, 2)
	assert.True(t, dev.Uploads[0].Opts.SRGB)
	assert.False(t, dev.Uploads[1].Opts.SRGB)
}

func TestBadFaceIndexSkipsMesh(t *testing.T) {
	bad := triangle("bad", 0)
	bad.Faces[0].Indices[2] = 7
	s := &importer.Scene{
		Root:   &importer.Node{Meshes: []int{0, 1, 5}},
		Meshes: []*importer.MeshData{bad, triangle("good", 0)},
	}
	m, _, _ := load(t, s, LoadOptions{})

	require.Len(t, m.Meshes(), 1)
	assert.Equal(t, "good", m.Meshes()[0].Name)
	require.Len(t, m.Diagnostics(), 2)
	assert.ErrorIs(t, m.Diagnostics()[0].Err, ErrIndexRange)
	assert.Equal(t, DiagMesh, m.Diagnostics()[1].Kind)
}

func TestDrawBindsTexturesThenDraws(t *testing.T) {
	s := &importer.Scene{
		Root:      &importer.Node{Meshes: []int{0}},
		Meshes:    []*importer.MeshData{triangle("a", 0)},
		Materials: []*importer.Material{material([]string{"d0.png", "d1.png"}, []string{"s0.png"})},
	}
	m, dev, _ := load(t, s, LoadOptions{})
	dev.Calls = nil
	shader := gputest.NewShader()

	m.Draw(shader)

	tex := m.Meshes()[0].Textures
	vao := m.Meshes()[0].Buffers().VAO
	assert.Equal(t, []string{
		"vec3 diffuseColor",
		"int texture_diffuse0 0",
		"int texture_diffuse1 1",
		"int texture_specular0 2",
	}, shader.Log)
	assert.Equal(t, White, shader.Vec3s[ColorUniform])
	assert.Equal(t, []string{
		bindCall(0, tex[0].ID),
		bindCall(1, tex[1].ID),
		bindCall(2, tex[2].ID),
		drawCall(vao, 3),
	}, dev.Calls)
}

func TestUntexturedMeshDrawsBaseColorOverFallback(t *testing.T) {
	plain := &importer.Material{}
	plain.SetDiffuseColor(mgl32.Vec3{0.2, 0.4, 0.6})
	textured := material([]string{"d.png"}, nil)
	textured.SetDiffuseColor(mgl32.Vec3{0.5, 0.5, 0.5})
	s := &importer.Scene{
		Root:      &importer.Node{Meshes: []int{0, 1, 2}},
		Meshes:    []*importer.MeshData{triangle("plain", 0), triangle("textured", 1), triangle("bare", 2)},
		Materials: []*importer.Material{plain, textured, {}},
	}
	m, dev, _ := load(t, s, LoadOptions{Fallback: true})

	require.Len(t, dev.Uploads, 2)
	fallback := dev.Uploads[1].ID
	assert.Equal(t, 1, dev.Uploads[1].Width)
	require.Len(t, m.Meshes(), 3)
	assert.Equal(t, mgl32.Vec3{0.2, 0.4, 0.6}, m.Meshes()[0].Color)
	assert.Equal(t, White, m.Meshes()[1].Color, "a diffuse texture overrides the colour")
	assert.Equal(t, White, m.Meshes()[2].Color)

	dev.Calls = nil
	shader := gputest.NewShader()
	m.Meshes()[0].Draw(dev, shader, DefaultBindings(), fallback)

	// Every sampler points at the single fallback unit.
	for _, sampler := range []string{"texture_diffuse0", "texture_specular0", "texture_normal0", "texture_height0", "texture_shininess0"} {
		assert.Equal(t, int32(0), shader.Ints[sampler], sampler)
	}
	assert.Equal(t, mgl32.Vec3{0.2, 0.4, 0.6}, shader.Vec3s[ColorUniform])
	vao := m.Meshes()[0].Buffers().VAO
	assert.Equal(t, []string{bindCall(0, fallback), drawCall(vao, 3)}, dev.Calls)

	m.Release()
	assert.Contains(t, dev.DeletedTextures, fallback)
}

func TestFallbackSkippedForEmptyModel(t *testing.T) {
	s := &importer.Scene{Root: &importer.Node{}}
	_, dev, _ := load(t, s, LoadOptions{Fallback: true})
	assert.Empty(t, dev.Uploads)
}

func TestFallbackUploadFailureIsDiagnosed(t *testing.T) {
	dev := gputest.New()
	dev.FailTextures = true
	s := &importer.Scene{Root: &importer.Node{Meshes: []int{0}}, Meshes: []*importer.MeshData{triangle("a", 0)}}
	m := Load(dev, "thing.obj", LoadOptions{Importer: sceneImporter(s), Fallback: true})

	require.Len(t, m.Diagnostics(), 1)
	assert.Equal(t, DiagTexture, m.Diagnostics()[0].Kind)

	dev.Calls = nil
	m.Draw(gputest.NewShader())
	assert.Equal(t, []string{drawCall(m.Meshes()[0].Buffers().VAO, 3)}, dev.Calls)
}

func TestReleaseIsIdempotent(t *testing.T) {
	s := &importer.Scene{
		Root:      &importer.Node{Meshes: []int{0, 1}},
		Meshes:    []*importer.MeshData{triangle("a", 0), triangle("b", 0)},
		Materials: []*importer.Material{material([]string{"d.png"}, []string{"s.png"})},
	}
	m, dev, _ := load(t, s, LoadOptions{})

	m.Release()
	m.Release()

	assert.Len(t, dev.DeletedMeshes, 2)
	assert.ElementsMatch(t, []gpu.TextureID{m.Textures()[0].ID, m.Textures()[1].ID}, dev.DeletedTextures)

	dev.Calls = nil
	m.Draw(gputest.NewShader())
	assert.Empty(t, dev.Calls, "released model draws nothing")
}

func TestModelBoundsAndCounts(t *testing.T) {
	far := triangle("far", 0)
	far.Positions = []mgl32.Vec3{{-2, 0, 0}, {0, 0, 5}, {0, -1, 0}}
	s := &importer.Scene{
		Root:   &importer.Node{Meshes: []int{0, 1}},
		Meshes: []*importer.MeshData{triangle("a", 0), far},
	}
	m, _, _ := load(t, s, LoadOptions{})

	assert.Equal(t, 6, m.VertexCount())
	assert.Equal(t, 6, m.IndexCount())
	assert.Equal(t, Bounds{Min: mgl32.Vec3{-2, -1, 0}, Max: mgl32.Vec3{1, 1, 5}}, m.Bounds())
	assert.Equal(t, "assets", m.Directory())
}

func TestLoadOBJEndToEnd(t *testing.T) {
	dev := gputest.New()
	dec := &fakeDecoder{missing: map[string]bool{}}
	path := filepath.Join("..", "importer", "obj", "testdata", "crate.obj")

	opts := DefaultLoadOptions()
	opts.Decode = dec.decode
	m := Load(dev, path, opts)

	require.Empty(t, m.Diagnostics())
	require.Len(t, m.Meshes(), 3)
	// Two quads of 4 corners each triangulate into 6 indices.
	assert.Len(t, m.Meshes()[0].Indices, 6)
	assert.Len(t, m.Meshes()[1].Indices, 6)
	assert.Len(t, m.Meshes()[2].Indices, 3)

	// wood.png and wood_spec.png shared by Front and Back; metal maps for Tip;
	// the white fallback last.
	require.Len(t, dev.Uploads, 6)
	assert.Equal(t, []byte{255, 255, 255, 255}, dev.Uploads[5].Pix)
	assert.Len(t, m.Textures(), 5)
	assert.Same(t, m.Meshes()[0].Textures[0], m.Meshes()[1].Textures[0])
	assert.Contains(t, dec.calls, filepath.Join(filepath.Dir(path), "textures", "wood.png"))

	// Generated normals for the tip triangle are unit length.
	for _, v := range m.Meshes()[2].Vertices {
		assert.InDelta(t, 1, v.Normal.Len(), 1e-4)
	}
}
