package importer

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// PostProcess selects the steps applied to a scene after import.
type PostProcess uint32

// Post-processing steps, applied in declaration order.
const (
	Triangulate PostProcess = 1 << iota
	GenSmoothNormals
	FlipUVs
	CalcTangentSpace
)

// DefaultPostProcess is the set used by the viewer.
const DefaultPostProcess = Triangulate | GenSmoothNormals | FlipUVs | CalcTangentSpace

// Has reports whether step is enabled.
func (p PostProcess) Has(step PostProcess) bool {
	return p&step != 0
}

// Apply runs the enabled steps on every mesh of the scene.
func Apply(s *Scene, steps PostProcess) {
	if s == nil {
		return
	}
	for _, m := range s.Meshes {
		if steps.Has(Triangulate) {
			TriangulateMesh(m)
		}
		if steps.Has(GenSmoothNormals) && !m.HasNormals() {
			SmoothNormals(m)
		}
		if steps.Has(FlipUVs) {
			FlipMeshUVs(m)
		}
		if steps.Has(CalcTangentSpace) {
			TangentSpace(m)
		}
	}
}

// TriangulateMesh splits polygons into triangle fans around their first
// corner. Points and lines are dropped.
func TriangulateMesh(m *MeshData) {
	faces := make([]Face, 0, len(m.Faces))
	for _, f := range m.Faces {
		n := len(f.Indices)
		switch {
		case n < 3:
			continue
		case n == 3:
			faces = append(faces, f)
		default:
			for i := 1; i < n-1; i++ {
				faces = append(faces, Face{Indices: []uint32{f.Indices[0], f.Indices[i], f.Indices[i+1]}})
			}
		}
	}
	m.Faces = faces
}

// SmoothNormals generates per-vertex normals by accumulating area-weighted
// face normals and averaging them across vertices at the same position, so
// split corners of a surface shade as one.
func SmoothNormals(m *MeshData) {
	const epsilon float32 = 0.001

	normals := make([]mgl32.Vec3, len(m.Positions))
	for _, f := range m.Faces {
		if len(f.Indices) < 3 || !inRange(f.Indices, len(m.Positions)) {
			continue
		}
		p0 := m.Positions[f.Indices[0]]
		p1 := m.Positions[f.Indices[1]]
		p2 := m.Positions[f.Indices[2]]
		// Unnormalized cross product weights by triangle area.
		fn := p1.Sub(p0).Cross(p2.Sub(p0))
		for _, idx := range f.Indices {
			normals[idx] = normals[idx].Add(fn)
		}
	}

	// Group vertices by quantized position for O(n) lookup
	posMap := make(map[[3]int32][]int)
	for i, p := range m.Positions {
		key := [3]int32{
			int32(math32.Round(p[0] / epsilon)),
			int32(math32.Round(p[1] / epsilon)),
			int32(math32.Round(p[2] / epsilon)),
		}
		posMap[key] = append(posMap[key], i)
	}

	for _, idxs := range posMap {
		var sum mgl32.Vec3
		for _, idx := range idxs {
			sum = sum.Add(normals[idx])
		}
		avg := normalizeOrZero(sum)
		for _, idx := range idxs {
			normals[idx] = avg
		}
	}

	m.Normals = normals
}

// FlipMeshUVs maps v to 1-v on every populated channel.
func FlipMeshUVs(m *MeshData) {
	for c := range m.TexCoords {
		for i := range m.TexCoords[c] {
			m.TexCoords[c][i][1] = 1 - m.TexCoords[c][i][1]
		}
	}
}

// TangentSpace computes per-vertex tangents and bitangents from channel 0
// texture coordinates. Meshes without normals or UVs are left untouched.
func TangentSpace(m *MeshData) {
	if !m.HasNormals() || !m.HasTexCoords(0) {
		return
	}

	uv := m.TexCoords[0]
	tangents := make([]mgl32.Vec3, len(m.Positions))
	bitangents := make([]mgl32.Vec3, len(m.Positions))

	for _, f := range m.Faces {
		if len(f.Indices) != 3 || !inRange(f.Indices, len(m.Positions)) {
			continue
		}
		i0, i1, i2 := f.Indices[0], f.Indices[1], f.Indices[2]

		e1 := m.Positions[i1].Sub(m.Positions[i0])
		e2 := m.Positions[i2].Sub(m.Positions[i0])
		d1 := uv[i1].Sub(uv[i0])
		d2 := uv[i2].Sub(uv[i0])

		det := d1[0]*d2[1] - d2[0]*d1[1]
		if math32.Abs(det) < 1e-8 {
			continue
		}
		r := 1 / det

		t := e1.Mul(d2[1]).Sub(e2.Mul(d1[1])).Mul(r)
		b := e2.Mul(d1[0]).Sub(e1.Mul(d2[0])).Mul(r)
		for _, idx := range f.Indices {
			tangents[idx] = tangents[idx].Add(t)
			bitangents[idx] = bitangents[idx].Add(b)
		}
	}

	for i := range tangents {
		n := m.Normals[i]
		// Gram-Schmidt against the normal.
		t := normalizeOrZero(tangents[i].Sub(n.Mul(n.Dot(tangents[i]))))
		b := bitangents[i]
		if n.Cross(t).Dot(b) < 0 {
			b = t.Cross(n)
		} else {
			b = n.Cross(t)
		}
		tangents[i] = t
		bitangents[i] = normalizeOrZero(b)
	}

	m.Tangents = tangents
	m.Bitangents = bitangents
}

func normalizeOrZero(v mgl32.Vec3) mgl32.Vec3 {
	l := v.Len()
	if l < 1e-12 {
		return mgl32.Vec3{}
	}
	return v.Mul(1 / l)
}

func inRange(indices []uint32, n int) bool {
	for _, idx := range indices {
		if int(idx) >= n {
			return false
		}
	}
	return true
}
