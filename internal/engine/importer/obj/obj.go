// Package obj imports Wavefront OBJ files and their MTL material libraries.
// Importing the package registers it for the ".obj" extension.
package obj

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/glscene/internal/engine/importer"
	"github.com/Faultbox/glscene/internal/logger"
	"github.com/Faultbox/glscene/pkg/formats"
)

// DefaultMaterialName names material 0, used by faces without a usemtl.
const DefaultMaterialName = "DefaultMaterial"

func init() {
	importer.Register(".obj", importer.ImporterFunc(Import))
}

// Import reads an OBJ file and the material libraries it references.
// A missing or malformed MTL file is logged and its materials fall back to
// the default material.
func Import(path string) (*importer.Scene, error) {
	data, err := formats.ParseOBJFile(path)
	if err != nil {
		return nil, err
	}

	log := logger.Named("obj")
	materials, byName := loadMaterials(filepath.Dir(path), data.MaterialLibs, log)

	scene := &importer.Scene{
		Root:      &importer.Node{Name: strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))},
		Materials: materials,
	}

	for _, o := range data.Objects {
		matIdx, ok := byName[o.Material]
		if !ok {
			if o.Material != "" {
				log.Warn("unknown material", zap.String("material", o.Material), zap.String("file", path))
			}
			matIdx = 0
		}

		mesh := buildMesh(data, o)
		mesh.MaterialIndex = matIdx

		scene.Root.Children = append(scene.Root.Children, &importer.Node{
			Name:   o.Name,
			Meshes: []int{len(scene.Meshes)},
		})
		scene.Meshes = append(scene.Meshes, mesh)
	}

	log.Debug("imported",
		zap.String("file", path),
		zap.Int("meshes", len(scene.Meshes)),
		zap.Int("materials", len(scene.Materials)))
	return scene, nil
}

// buildMesh emits one vertex per face corner. Normals and texture
// coordinates are kept only when every corner of the object has them.
func buildMesh(data *formats.OBJ, o formats.OBJObject) *importer.MeshData {
	mesh := &importer.MeshData{Name: o.Name}

	hasNormals, hasUVs := true, true
	corners := 0
	for _, f := range o.Faces {
		for _, c := range f.Corners {
			hasNormals = hasNormals && c.VN >= 0
			hasUVs = hasUVs && c.VT >= 0
			corners++
		}
	}

	mesh.Positions = make([]mgl32.Vec3, 0, corners)
	if hasNormals {
		mesh.Normals = make([]mgl32.Vec3, 0, corners)
	}
	if hasUVs {
		mesh.TexCoords[0] = make([]mgl32.Vec2, 0, corners)
	}

	for _, f := range o.Faces {
		face := importer.Face{Indices: make([]uint32, len(f.Corners))}
		for i, c := range f.Corners {
			face.Indices[i] = uint32(len(mesh.Positions))
			mesh.Positions = append(mesh.Positions, data.Positions[c.V])
			if hasNormals {
				mesh.Normals = append(mesh.Normals, data.Normals[c.VN])
			}
			if hasUVs {
				mesh.TexCoords[0] = append(mesh.TexCoords[0], data.TexCoords[c.VT])
			}
		}
		mesh.Faces = append(mesh.Faces, face)
	}
	return mesh
}

// loadMaterials returns the default material followed by every material of
// every readable library, and an index by name. Later libraries win on
// duplicate names.
func loadMaterials(dir string, libs []string, log *zap.Logger) ([]*importer.Material, map[string]int) {
	materials := []*importer.Material{{Name: DefaultMaterialName}}
	byName := make(map[string]int)

	for _, lib := range libs {
		for _, mtlPath := range libraryFiles(dir, lib) {
			mtl, err := formats.ParseMTLFile(mtlPath)
			if err != nil {
				log.Warn("material library unavailable", zap.String("file", mtlPath), zap.Error(err))
				continue
			}
			for i := range mtl.Materials {
				byName[mtl.Materials[i].Name] = len(materials)
				materials = append(materials, convertMaterial(&mtl.Materials[i]))
			}
		}
	}
	return materials, byName
}

// libraryFiles resolves one mtllib entry. The entry is read as a single file
// name if such a file exists, otherwise as a list of file names.
func libraryFiles(dir, lib string) []string {
	candidates := formats.SplitMaterialLib(lib)
	var files []string
	for _, names := range candidates {
		files = make([]string, 0, len(names))
		for _, name := range names {
			files = append(files, filepath.Join(dir, name))
		}
		if _, err := os.Stat(files[0]); err == nil {
			return files
		}
	}
	return files
}

func convertMaterial(m *formats.MTLMaterial) *importer.Material {
	mat := &importer.Material{Name: m.Name}
	if m.HasDiffuse {
		mat.SetDiffuseColor(mgl32.Vec3(m.Diffuse))
	}
	slots := []struct {
		path string
		kind importer.TextureType
	}{
		{m.DiffuseMap, importer.TextureDiffuse},
		{m.SpecularMap, importer.TextureSpecular},
		{m.NormalMap, importer.TextureNormal},
		{m.BumpMap, importer.TextureHeight},
		{m.ShininessMap, importer.TextureShininess},
	}
	for _, s := range slots {
		if s.path != "" {
			mat.AddTexture(s.kind, s.path)
		}
	}
	return mat
}
