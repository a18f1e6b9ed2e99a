// Package shaders provides embedded GLSL shader sources.
package shaders

import _ "embed"

// File names used when shaders are loaded from a directory instead.
const (
	ModelVertexFile   = "model.vert"
	ModelFragmentFile = "model.frag"
)

// ModelVertexShader is the vertex shader for textured model rendering.
//
//go:embed model.vert
var ModelVertexShader string

// ModelFragmentShader is the fragment shader for textured model rendering.
//
//go:embed model.frag
var ModelFragmentShader string
