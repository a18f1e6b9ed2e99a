package obj

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/glscene/internal/engine/importer"
)

func TestImportCrate(t *testing.T) {
	scene, err := Import(filepath.Join("testdata", "crate.obj"))
	require.NoError(t, err)
	require.NoError(t, importer.Validate(scene))

	assert.Equal(t, "crate", scene.Root.Name)
	require.Len(t, scene.Root.Children, 3)
	require.Len(t, scene.Meshes, 3)
	require.Len(t, scene.Materials, 3)
	assert.Equal(t, DefaultMaterialName, scene.Materials[0].Name)

	front := scene.Meshes[0]
	assert.Equal(t, "Front", front.Name)
	assert.Len(t, front.Positions, 4)
	assert.True(t, front.HasNormals())
	assert.True(t, front.HasTexCoords(0))
	assert.Equal(t, []uint32{0, 1, 2, 3}, front.Faces[0].Indices)
	assert.Equal(t, mgl32.Vec2{1, 1}, front.TexCoords[0][2])

	wood := scene.Materials[front.MaterialIndex]
	assert.Equal(t, "wood", wood.Name)
	assert.Equal(t, scene.Meshes[1].MaterialIndex, front.MaterialIndex)
	p, ok := wood.Texture(importer.TextureDiffuse, 0)
	require.True(t, ok)
	assert.Equal(t, "textures/wood.png", p)
	p, ok = wood.Texture(importer.TextureSpecular, 0)
	require.True(t, ok)
	assert.Equal(t, "textures/wood_spec.png", p)

	tip := scene.Meshes[2]
	assert.False(t, tip.HasNormals())
	assert.False(t, tip.HasTexCoords(0))
	metal := scene.Materials[tip.MaterialIndex]
	assert.Equal(t, 1, metal.TextureCount(importer.TextureHeight))
	assert.Equal(t, 1, metal.TextureCount(importer.TextureNormal))
	assert.True(t, metal.HasDiffuseColor)
	assert.Equal(t, mgl32.Vec3{0.5, 0.5, 0.5}, metal.DiffuseColor)
	assert.False(t, scene.Materials[0].HasDiffuseColor)
}

const twoMaterialOBJ = `v 0 0 0
v 1 0 0
v 0 1 0
usemtl A
f 1 2 3
usemtl B
f 3 2 1
`

func writeFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, data := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(data), 0o644))
	}
	return dir
}

func TestImportSeveralLibrariesOnOneLine(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"scene.obj": "mtllib a.mtl b.mtl\n" + twoMaterialOBJ,
		"a.mtl":     "newmtl A\nmap_Kd a.png\n",
		"b.mtl":     "newmtl B\nKd 0.2\nmap_Kd b.png\n",
	})

	scene, err := Import(filepath.Join(dir, "scene.obj"))
	require.NoError(t, err)
	require.Len(t, scene.Materials, 3)
	require.Len(t, scene.Meshes, 2)

	b := scene.Materials[scene.Meshes[1].MaterialIndex]
	assert.Equal(t, "B", b.Name)
	p, ok := b.Texture(importer.TextureDiffuse, 0)
	require.True(t, ok)
	assert.Equal(t, "b.png", p)
	assert.Equal(t, mgl32.Vec3{0.2, 0.2, 0.2}, b.DiffuseColor)
	assert.Equal(t, "A", scene.Materials[scene.Meshes[0].MaterialIndex].Name)
}

func TestImportLibraryNameWithSpaces(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"scene.obj":        "mtllib my materials.mtl\n" + twoMaterialOBJ,
		"my materials.mtl": "newmtl A\nnewmtl B\nmap_Kd b.png\n",
		"my":               "newmtl A\nmap_Kd wrong.png\n",
	})
	// "my" matches the first split field and must not be read.

	scene, err := Import(filepath.Join(dir, "scene.obj"))
	require.NoError(t, err)
	require.Len(t, scene.Materials, 3)
	assert.Equal(t, 0, scene.Materials[scene.Meshes[0].MaterialIndex].TextureCount(importer.TextureDiffuse))
	assert.Equal(t, 1, scene.Materials[scene.Meshes[1].MaterialIndex].TextureCount(importer.TextureDiffuse))
}

func TestImportMissingMaterialLibrary(t *testing.T) {
	scene, err := Import(filepath.Join("testdata", "nomtl.obj"))
	require.NoError(t, err)

	require.Len(t, scene.Materials, 1)
	require.Len(t, scene.Meshes, 1)
	assert.Equal(t, 0, scene.Meshes[0].MaterialIndex)
	assert.Equal(t, 0, scene.Materials[0].TextureCount(importer.TextureDiffuse))
}

func TestImportMissingFile(t *testing.T) {
	_, err := Import(filepath.Join("testdata", "nope.obj"))
	assert.Error(t, err)
}

func TestRegisteredForOBJ(t *testing.T) {
	scene, err := importer.ReadFile(filepath.Join("testdata", "crate.obj"), importer.DefaultPostProcess)
	require.NoError(t, err)

	for _, m := range scene.Meshes {
		for _, f := range m.Faces {
			assert.Len(t, f.Indices, 3)
		}
		assert.True(t, m.HasNormals(), "mesh %s", m.Name)
	}
	// Quad triangulated into a fan of two.
	assert.Len(t, scene.Meshes[0].Faces, 2)
	// FlipUVs applied.
	assert.Equal(t, mgl32.Vec2{0, 1}, scene.Meshes[0].TexCoords[0][0])
}
