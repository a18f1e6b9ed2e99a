// Package renderer owns the per-frame OpenGL state: viewport, clear and
// depth testing.
package renderer

import (
	"fmt"

	"github.com/go-gl/gl/v4.1-core/gl"
	"go.uber.org/zap"

	"github.com/Faultbox/glscene/internal/logger"
)

// Config holds renderer configuration.
type Config struct {
	Width      int
	Height     int
	ClearColor [4]float32
}

// DefaultClearColor is the grey background of the viewer.
var DefaultClearColor = [4]float32{0.2, 0.2, 0.2, 1.0}

// Viewport is a pixel rectangle with its origin at the bottom left.
type Viewport struct {
	X, Y          int
	Width, Height int
}

// Aspect returns width over height, or 1 for an empty viewport.
func (v Viewport) Aspect() float32 {
	if v.Width <= 0 || v.Height <= 0 {
		return 1
	}
	return float32(v.Width) / float32(v.Height)
}

// Inset returns a viewport of the given fraction of v's size, centred
// horizontally and margin pixels below the top edge.
func (v Viewport) Inset(fraction float32, margin int) Viewport {
	w := int(float32(v.Width) * fraction)
	h := int(float32(v.Height) * fraction)
	return Viewport{
		X:      v.X + (v.Width-w)/2,
		Y:      v.Y + v.Height - h - margin,
		Width:  w,
		Height: h,
	}
}

// Renderer handles frame setup.
type Renderer struct {
	config   Config
	viewport Viewport
}

// New initialises OpenGL function pointers and default state.
// IMPORTANT: Must be called AFTER the OpenGL context is created!
func New(cfg Config) (*Renderer, error) {
	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize OpenGL: %w", err)
	}

	logger.Info("OpenGL initialized",
		zap.String("version", gl.GoStr(gl.GetString(gl.VERSION))),
		zap.String("renderer", gl.GoStr(gl.GetString(gl.RENDERER))),
		zap.String("glsl", gl.GoStr(gl.GetString(gl.SHADING_LANGUAGE_VERSION))),
	)

	r := &Renderer{config: cfg}
	if r.config.ClearColor == ([4]float32{}) {
		r.config.ClearColor = DefaultClearColor
	}

	gl.Enable(gl.DEPTH_TEST)
	gl.DepthFunc(gl.LESS)
	c := r.config.ClearColor
	gl.ClearColor(c[0], c[1], c[2], c[3])

	r.Resize(cfg.Width, cfg.Height)
	return r, nil
}

// Resize sets the full-window viewport.
func (r *Renderer) Resize(width, height int) {
	r.config.Width = width
	r.config.Height = height
	r.viewport = Viewport{Width: width, Height: height}
	gl.Viewport(0, 0, int32(width), int32(height))
	logger.Debug("renderer resized",
		zap.Int("width", width),
		zap.Int("height", height),
	)
}

// Viewport returns the full-window viewport.
func (r *Renderer) Viewport() Viewport {
	return r.viewport
}

// Begin clears colour and depth for a new frame.
func (r *Renderer) Begin() {
	v := r.viewport
	gl.Viewport(int32(v.X), int32(v.Y), int32(v.Width), int32(v.Height))
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
}

// BeginInset restricts drawing and clearing to v until End.
func (r *Renderer) BeginInset(v Viewport) {
	gl.Viewport(int32(v.X), int32(v.Y), int32(v.Width), int32(v.Height))
	gl.Enable(gl.SCISSOR_TEST)
	gl.Scissor(int32(v.X), int32(v.Y), int32(v.Width), int32(v.Height))
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
}

// End restores the full-window viewport.
func (r *Renderer) End() {
	gl.Disable(gl.SCISSOR_TEST)
	v := r.viewport
	gl.Viewport(int32(v.X), int32(v.Y), int32(v.Width), int32(v.Height))
}

// ReadPixels returns the back buffer of the full viewport as bottom-up
// RGBA rows. Call before SwapBuffers.
func (r *Renderer) ReadPixels() (pix []byte, width, height int) {
	v := r.viewport
	pix = make([]byte, v.Width*v.Height*4)
	if len(pix) == 0 {
		return pix, v.Width, v.Height
	}
	gl.PixelStorei(gl.PACK_ALIGNMENT, 1)
	gl.ReadPixels(int32(v.X), int32(v.Y), int32(v.Width), int32(v.Height), gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(pix))
	return pix, v.Width, v.Height
}
