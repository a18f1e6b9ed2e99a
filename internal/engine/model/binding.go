package model

import (
	"slices"
	"strconv"

	"github.com/Faultbox/glscene/internal/engine/gpu"
)

// BindingTable maps texture kinds to sampler name prefixes. The sampler for
// the n-th texture of a kind within one mesh is prefix+n, counting from 0
// per kind. Kinds absent from the table are not bound.
type BindingTable map[TextureKind]string

// DefaultBindings returns the texture_<kind>N naming used by the bundled shaders.
func DefaultBindings() BindingTable {
	return BindingTable{
		KindDiffuse:   "texture_diffuse",
		KindSpecular:  "texture_specular",
		KindNormal:    "texture_normal",
		KindHeight:    "texture_height",
		KindShininess: "texture_shininess",
	}
}

// TextureBinding assigns one texture to a unit and sampler name.
type TextureBinding struct {
	Unit    int
	Sampler string
	Texture *Texture
}

// Plan assigns consecutive units from 0 to textures in order.
func (t BindingTable) Plan(textures []*Texture) []TextureBinding {
	plan := make([]TextureBinding, 0, len(textures))
	counts := make(map[TextureKind]int, len(t))
	for _, tex := range textures {
		prefix, ok := t[tex.Kind]
		if !ok {
			continue
		}
		n := counts[tex.Kind]
		counts[tex.Kind] = n + 1
		plan = append(plan, TextureBinding{
			Unit:    len(plan),
			Sampler: prefix + strconv.Itoa(n),
			Texture: tex,
		})
	}
	return plan
}

// Apply binds every planned texture and points its sampler at the unit.
func (t BindingTable) Apply(dev gpu.Device, shader gpu.Shader, textures []*Texture) {
	t.ApplyFallback(dev, shader, textures, 0)
}

// ApplyFallback is Apply followed by binding fallback to the next free unit
// and pointing the first sampler of every kind with no planned texture at
// it. A zero fallback binds nothing extra.
func (t BindingTable) ApplyFallback(dev gpu.Device, shader gpu.Shader, textures []*Texture, fallback gpu.TextureID) {
	plan := t.Plan(textures)
	bound := make(map[TextureKind]bool, len(t))
	for _, b := range plan {
		shader.SetInt(b.Sampler, int32(b.Unit))
		dev.BindTexture(b.Unit, b.Texture.ID)
		bound[b.Texture.Kind] = true
	}
	if fallback == 0 {
		return
	}

	var unset []TextureKind
	for kind := range t {
		if !bound[kind] {
			unset = append(unset, kind)
		}
	}
	if len(unset) == 0 {
		return
	}
	slices.Sort(unset)

	unit := len(plan)
	for _, kind := range unset {
		shader.SetInt(t[kind]+"0", int32(unit))
	}
	dev.BindTexture(unit, fallback)
}
