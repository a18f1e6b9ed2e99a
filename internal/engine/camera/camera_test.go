package camera

import (
	"testing"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const eps = 1e-4

func assertVec3InDelta(t *testing.T, want, got mgl32.Vec3, msg string) {
	t.Helper()
	for i := 0; i < 3; i++ {
		assert.InDelta(t, want[i], got[i], eps, "%s component %d: got %v, want %v", msg, i, got, want)
	}
}

func assertOrthonormal(t *testing.T, c *Camera) {
	t.Helper()
	f, r, u := c.Front(), c.Right(), c.Up()

	assert.InDelta(t, 1, f.Len(), eps, "front length (yaw=%v pitch=%v)", c.Yaw, c.Pitch)
	assert.InDelta(t, 1, r.Len(), eps, "right length (yaw=%v pitch=%v)", c.Yaw, c.Pitch)
	assert.InDelta(t, 1, u.Len(), eps, "up length (yaw=%v pitch=%v)", c.Yaw, c.Pitch)

	assert.InDelta(t, 0, f.Dot(r), eps, "front.right (yaw=%v pitch=%v)", c.Yaw, c.Pitch)
	assert.InDelta(t, 0, f.Dot(u), eps, "front.up (yaw=%v pitch=%v)", c.Yaw, c.Pitch)
	assert.InDelta(t, 0, r.Dot(u), eps, "right.up (yaw=%v pitch=%v)", c.Yaw, c.Pitch)

	assertVec3InDelta(t, u, r.Cross(f), "up = right x front")
}

func TestDefaultLooksDownNegativeZ(t *testing.T) {
	c := NewDefault(mgl32.Vec3{0, 0, 3})

	assertVec3InDelta(t, mgl32.Vec3{0, 0, -1}, c.Front(), "front")
	assertVec3InDelta(t, mgl32.Vec3{1, 0, 0}, c.Right(), "right")
	assertVec3InDelta(t, mgl32.Vec3{0, 1, 0}, c.Up(), "up")
	assert.Equal(t, DefaultZoom, c.Zoom)
	assert.Equal(t, DefaultSpeed, c.MovementSpeed)
	assert.Equal(t, DefaultSensitivity, c.MouseSensitivity)
}

func TestBasisOrthonormalAcrossOrientations(t *testing.T) {
	for yaw := float32(-360); yaw <= 360; yaw += 22.5 {
		for pitch := float32(-88.5); pitch <= 88.5; pitch += 7.375 {
			c := New(mgl32.Vec3{}, mgl32.Vec3{0, 1, 0}, yaw, pitch)
			assertOrthonormal(t, c)
		}
	}
}

func TestProcessLookClampsPitch(t *testing.T) {
	tests := []struct {
		name    string
		yOffset float32
		want    float32
	}{
		{"far above", 5000, MaxPitch},
		{"just above", 891, MaxPitch},
		{"far below", -5000, MinPitch},
		{"just below", -891, MinPitch},
		{"inside", 300, 30},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewDefault(mgl32.Vec3{})
			c.ProcessLook(0, tt.yOffset, true)
			assert.InDelta(t, tt.want, c.Pitch, eps)
			assertOrthonormal(t, c)
		})
	}
}

func TestProcessLookUnconstrained(t *testing.T) {
	c := NewDefault(mgl32.Vec3{})
	c.ProcessLook(0, 1200, false)
	assert.InDelta(t, 120, c.Pitch, eps)
}

func TestProcessLookAppliesSensitivity(t *testing.T) {
	c := NewDefault(mgl32.Vec3{})
	c.MouseSensitivity = 0.5
	c.ProcessLook(20, -10, true)

	assert.InDelta(t, DefaultYaw+10, c.Yaw, eps)
	assert.InDelta(t, -5, c.Pitch, eps)
}

func TestProcessLookZeroOffsetRederivesBasis(t *testing.T) {
	c := NewDefault(mgl32.Vec3{})
	c.Yaw = 0
	c.ProcessLook(0, 0, true)

	assertVec3InDelta(t, mgl32.Vec3{1, 0, 0}, c.Front(), "front after external yaw change")
}

func TestRecomputeBasis(t *testing.T) {
	c := NewDefault(mgl32.Vec3{})
	c.Yaw = 90
	c.Pitch = 0
	c.RecomputeBasis()

	assertVec3InDelta(t, mgl32.Vec3{0, 0, 1}, c.Front(), "front")
	assertOrthonormal(t, c)
}

func TestProcessZoomClamps(t *testing.T) {
	deltas := []float32{-1e6, -100, -1, 0, 0.5, 1, 10, 44, 45, 100, 1e6}

	for _, d := range deltas {
		c := NewDefault(mgl32.Vec3{})
		c.ProcessZoom(d)
		assert.GreaterOrEqual(t, c.Zoom, MinZoom, "delta %v", d)
		assert.LessOrEqual(t, c.Zoom, MaxZoom, "delta %v", d)
	}

	c := NewDefault(mgl32.Vec3{})
	c.ProcessZoom(10)
	assert.InDelta(t, 35, c.Zoom, eps)
	c.ProcessZoom(100)
	assert.Equal(t, MinZoom, c.Zoom)
	c.ProcessZoom(-100)
	assert.Equal(t, MaxZoom, c.Zoom)
}

func TestProcessZoomNaN(t *testing.T) {
	c := NewDefault(mgl32.Vec3{})
	c.ProcessZoom(math32.NaN())
	assert.Equal(t, MinZoom, c.Zoom)

	c.ProcessZoom(-1)
	assert.Equal(t, MinZoom+1, c.Zoom, "zoom recovers after NaN input")
}

func TestProcessLookNaNPitchStaysFinite(t *testing.T) {
	c := NewDefault(mgl32.Vec3{})
	c.ProcessLook(0, math32.NaN(), true)

	assert.Equal(t, MinPitch, c.Pitch)
	assertOrthonormal(t, c)
}

func TestProcessMove(t *testing.T) {
	tests := []struct {
		dir  Direction
		want mgl32.Vec3
	}{
		{Forward, mgl32.Vec3{0, 0, -2}},
		{Backward, mgl32.Vec3{0, 0, 2}},
		{Left, mgl32.Vec3{-2, 0, 0}},
		{Right, mgl32.Vec3{2, 0, 0}},
		{Up, mgl32.Vec3{0, 2, 0}},
		{Down, mgl32.Vec3{0, -2, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.dir.String(), func(t *testing.T) {
			c := NewDefault(mgl32.Vec3{})
			c.MovementSpeed = 4
			c.ProcessMove(tt.dir, 0.5)
			assertVec3InDelta(t, tt.want, c.Position, "position")
		})
	}
}

func TestProcessMoveUsesCurrentDeltaTime(t *testing.T) {
	c := NewDefault(mgl32.Vec3{})
	c.MovementSpeed = 1

	c.ProcessMove(Forward, 1)
	c.ProcessMove(Forward, 3)

	assertVec3InDelta(t, mgl32.Vec3{0, 0, -4}, c.Position, "position")
}

func TestProcessMoveLeavesOrientation(t *testing.T) {
	c := New(mgl32.Vec3{1, 2, 3}, mgl32.Vec3{0, 1, 0}, 30, 20)
	front := c.Front()
	c.ProcessMove(Right, 0.25)

	assert.Equal(t, front, c.Front())
	assert.Equal(t, float32(30), c.Yaw)
	assert.Equal(t, float32(20), c.Pitch)
}

func TestViewMatrixIdempotent(t *testing.T) {
	c := New(mgl32.Vec3{4, -2, 7}, mgl32.Vec3{0, 1, 0}, 33, -12)

	first := c.ViewMatrix()
	second := c.ViewMatrix()
	assert.Equal(t, first, second)
}

func TestViewMatrixMapsPositionToOrigin(t *testing.T) {
	c := New(mgl32.Vec3{4, -2, 7}, mgl32.Vec3{0, 1, 0}, 33, -12)
	view := c.ViewMatrix()

	eye := view.Mul4x1(c.Position.Vec4(1))
	assertVec3InDelta(t, mgl32.Vec3{}, eye.Vec3(), "eye in view space")

	ahead := view.Mul4x1(c.Position.Add(c.Front()).Vec4(1))
	assertVec3InDelta(t, mgl32.Vec3{0, 0, -1}, ahead.Vec3(), "point ahead in view space")
}

func TestMirroredViewMatrix(t *testing.T) {
	c := New(mgl32.Vec3{0, 1, 0}, mgl32.Vec3{0, 1, 0}, -90, 20)
	yaw, pitch, front := c.Yaw, c.Pitch, c.Front()

	mirror := c.MirroredViewMatrix()

	require.Equal(t, yaw, c.Yaw, "mirror must not modify yaw")
	require.Equal(t, pitch, c.Pitch, "mirror must not modify pitch")
	require.Equal(t, front, c.Front(), "mirror must not modify basis")

	// Yaw+180 with negated pitch looks exactly opposite to front.
	behind := front.Mul(-1)
	p := mirror.Mul4x1(c.Position.Add(behind).Vec4(1))
	assertVec3InDelta(t, mgl32.Vec3{0, 0, -1}, p.Vec3(), "mirrored forward")
}

func TestProjectionMatrixUsesZoom(t *testing.T) {
	c := NewDefault(mgl32.Vec3{})
	c.Zoom = 30

	got := c.ProjectionMatrix(16.0/9.0, 0.1, 100)
	want := mgl32.Perspective(mgl32.DegToRad(30), 16.0/9.0, 0.1, 100)
	assert.Equal(t, want, got)
}
