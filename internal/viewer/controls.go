package viewer

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/veandco/go-sdl2/sdl"

	"github.com/Faultbox/glscene/internal/config"
	"github.com/Faultbox/glscene/internal/engine/camera"
	"github.com/Faultbox/glscene/internal/engine/importer"
	"github.com/Faultbox/glscene/internal/engine/model"
)

// Key bindings.
const (
	keyQuit       = sdl.SCANCODE_ESCAPE
	keyReset      = sdl.SCANCODE_R
	keyMirror     = sdl.SCANCODE_M
	keyFlashlight = sdl.SCANCODE_F
	keyOpen       = sdl.SCANCODE_O
	keyCapture    = sdl.SCANCODE_TAB
	keyScreenshot = sdl.SCANCODE_P
)

// moveKeys maps held keys to camera movement. Every held key applies, so
// diagonals work.
var moveKeys = []struct {
	key sdl.Scancode
	dir camera.Direction
}{
	{sdl.SCANCODE_W, camera.Forward},
	{sdl.SCANCODE_S, camera.Backward},
	{sdl.SCANCODE_A, camera.Left},
	{sdl.SCANCODE_D, camera.Right},
	{sdl.SCANCODE_SPACE, camera.Up},
	{sdl.SCANCODE_E, camera.Up},
	{sdl.SCANCODE_LCTRL, camera.Down},
	{sdl.SCANCODE_Q, camera.Down},
}

// applyMovement moves cam for every held movement key.
func applyMovement(cam *camera.Camera, held func(sdl.Scancode) bool, dt float32) {
	for _, m := range moveKeys {
		if held(m.key) {
			cam.ProcessMove(m.dir, dt)
		}
	}
}

// applyLook turns cam by a relative mouse motion. Screen y grows downwards,
// so it is negated to pitch up when the mouse moves up.
func applyLook(cam *camera.Camera, dx, dy int) {
	if dx == 0 && dy == 0 {
		return
	}
	cam.ProcessLook(float32(dx), float32(-dy), true)
}

// newCamera builds the camera described by cfg.
func newCamera(cfg config.CameraConfig) *camera.Camera {
	pos := mgl32.Vec3{cfg.Position[0], cfg.Position[1], cfg.Position[2]}
	pitch := min(max(cfg.Pitch, camera.MinPitch), camera.MaxPitch)
	cam := camera.New(pos, mgl32.Vec3{0, 1, 0}, cfg.Yaw, pitch)
	if cfg.Speed > 0 {
		cam.MovementSpeed = cfg.Speed
	}
	if cfg.Sensitivity > 0 {
		cam.MouseSensitivity = cfg.Sensitivity
	}
	if cfg.Zoom > 0 {
		cam.Zoom = min(max(cfg.Zoom, camera.MinZoom), camera.MaxZoom)
	}
	return cam
}

// frameBounds places cam in front of b, on the +Z side, far enough for the
// whole box to fit the vertical field of view. Orientation is reset to look
// down -Z. Empty bounds leave the camera alone.
func frameBounds(cam *camera.Camera, b model.Bounds) {
	size := b.Size()
	radius := size.Len() / 2
	if radius <= 0 {
		return
	}
	halfFov := mgl32.DegToRad(cam.Zoom) / 2
	dist := radius / math32.Sin(halfFov)

	center := b.Center()
	cam.Position = center.Add(mgl32.Vec3{0, 0, dist})
	cam.Yaw = camera.DefaultYaw
	cam.Pitch = 0
	cam.RecomputeBasis()
}

// clipPlanes widens the configured far plane so a framed model is not cut.
func clipPlanes(cfg config.CameraConfig, b model.Bounds) (near, far float32) {
	near, far = cfg.Near, cfg.Far
	if near <= 0 {
		near = 0.1
	}
	if far <= near {
		far = 100
	}
	if r := b.Size().Len(); r*4 > far {
		far = r * 4
	}
	return near, far
}

// postProcess converts the model settings into importer steps.
func postProcess(cfg config.ModelConfig) importer.PostProcess {
	var steps importer.PostProcess
	if cfg.Triangulate {
		steps |= importer.Triangulate
	}
	if cfg.SmoothNormals {
		steps |= importer.GenSmoothNormals
	}
	if cfg.FlipUVs {
		steps |= importer.FlipUVs
	}
	if cfg.TangentSpace {
		steps |= importer.CalcTangentSpace
	}
	return steps
}

// loadOptions converts the model settings into model.LoadOptions.
func loadOptions(cfg config.ModelConfig) model.LoadOptions {
	opts := model.DefaultLoadOptions()
	opts.PostProcess = postProcess(cfg)
	opts.SRGB = cfg.SRGBTextures
	opts.PreserveDuplicateDiffuse = cfg.PreserveDuplicateDiffuse
	return opts
}
