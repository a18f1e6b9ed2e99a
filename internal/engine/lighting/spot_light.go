package lighting

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/glscene/internal/engine/gpu"
)

// SpotLight is a cone light with distance attenuation. CutOff and
// OuterCutOff hold cosines of the inner and outer cone half-angles.
type SpotLight struct {
	Position  mgl32.Vec3
	Direction mgl32.Vec3
	Colour    mgl32.Vec3
	Ambient   mgl32.Vec3
	Diffuse   mgl32.Vec3
	Specular  mgl32.Vec3

	Constant  float32
	Linear    float32
	Quadratic float32

	CutOff      float32
	OuterCutOff float32

	Enabled bool
}

// NewFlashlight returns a blue-tinted spot light with a 12/17.5 degree cone
// and attenuation reaching roughly 200 units.
func NewFlashlight() SpotLight {
	return SpotLight{
		Colour:      mgl32.Vec3{0, 0, 1},
		Ambient:     mgl32.Vec3{0.1, 0.1, 0.1},
		Diffuse:     mgl32.Vec3{0.5, 0.5, 0.5},
		Specular:    mgl32.Vec3{1, 1, 1},
		Constant:    1,
		Linear:      0.027,
		Quadratic:   0.0028,
		CutOff:      math32.Cos(mgl32.DegToRad(12)),
		OuterCutOff: math32.Cos(mgl32.DegToRad(17.5)),
		Enabled:     true,
	}
}

// Follow places the light at position shining along direction.
func (l *SpotLight) Follow(position, direction mgl32.Vec3) {
	l.Position = position
	l.Direction = direction
}

// Apply writes the light into the uniform struct called name.
func (l SpotLight) Apply(shader gpu.Shader, name string) {
	enabled := int32(0)
	if l.Enabled {
		enabled = 1
	}
	shader.SetInt(name+".enabled", enabled)
	shader.SetVec3(name+".position", l.Position)
	shader.SetVec3(name+".direction", l.Direction)
	shader.SetVec3(name+".colour", l.Colour)
	shader.SetVec3(name+".ambient", l.Ambient)
	shader.SetVec3(name+".diffuse", l.Diffuse)
	shader.SetVec3(name+".specular", l.Specular)
	shader.SetFloat(name+".constant", l.Constant)
	shader.SetFloat(name+".linear", l.Linear)
	shader.SetFloat(name+".quadratic", l.Quadratic)
	shader.SetFloat(name+".cutOff", l.CutOff)
	shader.SetFloat(name+".outerCutOff", l.OuterCutOff)
}
