// Package lighting provides the light sources used by the model shader.
package lighting

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/glscene/internal/engine/gpu"
)

// SunDirection converts longitude/latitude angles in degrees to a unit
// vector pointing towards the sun. Longitude rotates around +Y, latitude is
// the elevation above the horizon.
func SunDirection(longitude, latitude float32) mgl32.Vec3 {
	lonRad := mgl32.DegToRad(longitude)
	latRad := mgl32.DegToRad(latitude)

	return mgl32.Vec3{
		math32.Cos(latRad) * math32.Sin(lonRad),
		math32.Sin(latRad),
		math32.Cos(latRad) * math32.Cos(lonRad),
	}
}

// DirectionalLight is a light at infinity. Direction points from the light
// into the scene.
type DirectionalLight struct {
	Direction mgl32.Vec3
	Ambient   mgl32.Vec3
	Diffuse   mgl32.Vec3
	Specular  mgl32.Vec3
}

// NewSun returns a white directional light shining from the given angles.
func NewSun(longitude, latitude float32) DirectionalLight {
	return DirectionalLight{
		Direction: SunDirection(longitude, latitude).Mul(-1),
		Ambient:   mgl32.Vec3{0.1, 0.1, 0.1},
		Diffuse:   mgl32.Vec3{0.5, 0.5, 0.5},
		Specular:  mgl32.Vec3{1, 1, 1},
	}
}

// Apply writes the light into the uniform struct called name.
func (l DirectionalLight) Apply(shader gpu.Shader, name string) {
	shader.SetVec3(name+".direction", l.Direction)
	shader.SetVec3(name+".ambient", l.Ambient)
	shader.SetVec3(name+".diffuse", l.Diffuse)
	shader.SetVec3(name+".specular", l.Specular)
}
