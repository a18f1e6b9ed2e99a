// Package camera provides a free-look camera driven by Euler angles.
package camera

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// Default camera settings.
const (
	DefaultYaw         float32 = -90.0
	DefaultPitch       float32 = 0.0
	DefaultSpeed       float32 = 4.5
	DefaultSensitivity float32 = 0.1
	DefaultZoom        float32 = 45.0
)

// Orientation and zoom limits, in degrees.
const (
	MaxPitch float32 = 89.0
	MinPitch float32 = -89.0
	MinZoom  float32 = 1.0
	MaxZoom  float32 = 45.0
)

// Direction is a movement intent relative to the current view basis.
type Direction int

// Movement directions.
const (
	Forward Direction = iota
	Backward
	Left
	Right
	Up
	Down
)

// String returns the direction name.
func (d Direction) String() string {
	switch d {
	case Forward:
		return "forward"
	case Backward:
		return "backward"
	case Left:
		return "left"
	case Right:
		return "right"
	case Up:
		return "up"
	case Down:
		return "down"
	default:
		return "unknown"
	}
}

// Camera is a first-person camera. Yaw and Pitch are in degrees.
//
// Front, Right and Up form an orthonormal basis derived from Yaw, Pitch and
// WorldUp. Code that writes Yaw or Pitch directly must call RecomputeBasis
// before reading the basis again.
type Camera struct {
	Position mgl32.Vec3
	WorldUp  mgl32.Vec3

	Yaw   float32
	Pitch float32

	MovementSpeed    float32
	MouseSensitivity float32
	Zoom             float32 // vertical field of view, degrees

	front mgl32.Vec3
	right mgl32.Vec3
	up    mgl32.Vec3
}

// New creates a camera at position with the given world-up reference and
// orientation, using default speed, sensitivity and zoom.
func New(position, worldUp mgl32.Vec3, yaw, pitch float32) *Camera {
	c := &Camera{
		Position:         position,
		WorldUp:          worldUp,
		Yaw:              yaw,
		Pitch:            pitch,
		MovementSpeed:    DefaultSpeed,
		MouseSensitivity: DefaultSensitivity,
		Zoom:             DefaultZoom,
	}
	c.RecomputeBasis()
	return c
}

// NewDefault creates a camera at position looking down -Z with +Y up.
func NewDefault(position mgl32.Vec3) *Camera {
	return New(position, mgl32.Vec3{0, 1, 0}, DefaultYaw, DefaultPitch)
}

// Front returns the unit view direction.
func (c *Camera) Front() mgl32.Vec3 { return c.front }

// Right returns the unit right vector.
func (c *Camera) Right() mgl32.Vec3 { return c.right }

// Up returns the unit camera-up vector.
func (c *Camera) Up() mgl32.Vec3 { return c.up }

// ViewMatrix returns a right-handed look-at transform for the current state.
func (c *Camera) ViewMatrix() mgl32.Mat4 {
	return mgl32.LookAtV(c.Position, c.Position.Add(c.front), c.up)
}

// ProjectionMatrix returns a perspective projection using Zoom as the
// vertical field of view.
func (c *Camera) ProjectionMatrix(aspect, near, far float32) mgl32.Mat4 {
	return mgl32.Perspective(mgl32.DegToRad(c.Zoom), aspect, near, far)
}

// MirroredViewMatrix returns the view seen looking backwards from the same
// position (yaw turned by 180 degrees, pitch negated). The camera is not modified.
func (c *Camera) MirroredViewMatrix() mgl32.Mat4 {
	front, _, up := basis(c.Yaw+180, -c.Pitch, c.WorldUp)
	return mgl32.LookAtV(c.Position, c.Position.Add(front), up)
}

// ProcessMove displaces the camera along its basis by MovementSpeed*deltaTime.
func (c *Camera) ProcessMove(dir Direction, deltaTime float32) {
	velocity := c.MovementSpeed * deltaTime

	switch dir {
	case Forward:
		c.Position = c.Position.Add(c.front.Mul(velocity))
	case Backward:
		c.Position = c.Position.Sub(c.front.Mul(velocity))
	case Left:
		c.Position = c.Position.Sub(c.right.Mul(velocity))
	case Right:
		c.Position = c.Position.Add(c.right.Mul(velocity))
	case Up:
		c.Position = c.Position.Add(c.up.Mul(velocity))
	case Down:
		c.Position = c.Position.Sub(c.up.Mul(velocity))
	}
}

// ProcessLook applies a mouse offset to yaw and pitch. With constrainPitch the
// pitch is clamped to [MinPitch, MaxPitch]. The basis is always re-derived.
func (c *Camera) ProcessLook(xOffset, yOffset float32, constrainPitch bool) {
	c.Yaw += xOffset * c.MouseSensitivity
	c.Pitch += yOffset * c.MouseSensitivity

	if constrainPitch {
		c.Pitch = clamp(c.Pitch, MinPitch, MaxPitch)
	}

	c.RecomputeBasis()
}

// ProcessZoom narrows the field of view by yOffset, clamped to [MinZoom, MaxZoom].
func (c *Camera) ProcessZoom(yOffset float32) {
	c.Zoom = clamp(c.Zoom-yOffset, MinZoom, MaxZoom)
}

// RecomputeBasis re-derives Front, Right and Up from Yaw and Pitch.
func (c *Camera) RecomputeBasis() {
	c.front, c.right, c.up = basis(c.Yaw, c.Pitch, c.WorldUp)
}

// basis converts yaw/pitch (degrees) to a unit front vector and
// orthogonalizes right and up against worldUp.
// Pitch at +-90 makes front parallel to worldUp and right degenerates to zero.
func basis(yaw, pitch float32, worldUp mgl32.Vec3) (front, right, up mgl32.Vec3) {
	yawRad := mgl32.DegToRad(yaw)
	pitchRad := mgl32.DegToRad(pitch)

	front = mgl32.Vec3{
		math32.Cos(yawRad) * math32.Cos(pitchRad),
		math32.Sin(pitchRad),
		math32.Sin(yawRad) * math32.Cos(pitchRad),
	}.Normalize()
	right = front.Cross(worldUp).Normalize()
	up = right.Cross(front).Normalize()
	return front, right, up
}

// clamp maps NaN to lo.
func clamp(v, lo, hi float32) float32 {
	if math32.IsNaN(v) || v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
