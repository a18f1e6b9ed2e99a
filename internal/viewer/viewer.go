// Package viewer implements the interactive model viewer loop.
package viewer

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/sqweek/dialog"
	"go.uber.org/zap"

	"github.com/Faultbox/glscene/internal/config"
	"github.com/Faultbox/glscene/internal/engine/camera"
	"github.com/Faultbox/glscene/internal/engine/debug"
	"github.com/Faultbox/glscene/internal/engine/gpu/opengl"
	"github.com/Faultbox/glscene/internal/engine/importer"
	"github.com/Faultbox/glscene/internal/engine/input"
	"github.com/Faultbox/glscene/internal/engine/lighting"
	"github.com/Faultbox/glscene/internal/engine/model"
	"github.com/Faultbox/glscene/internal/engine/renderer"
	"github.com/Faultbox/glscene/internal/engine/shader"
	"github.com/Faultbox/glscene/internal/engine/shader/shaders"
	"github.com/Faultbox/glscene/internal/engine/window"
	"github.com/Faultbox/glscene/internal/logger"
	"github.com/Faultbox/glscene/internal/shaderwatch"
)

// Mirror inset placement.
const (
	mirrorFraction = 0.3
	mirrorMargin   = 10
)

// Viewer is the main viewer instance.
type Viewer struct {
	cfg     *config.Config
	running bool
	log     *zap.Logger

	window   *window.Window
	renderer *renderer.Renderer
	input    *input.Input
	device   *opengl.Device

	program *shader.Program
	watcher *shaderwatch.Watcher

	camera     *camera.Camera
	model      *model.Model
	sun        lighting.DirectionalLight
	flashlight lighting.SpotLight
	near, far  float32

	mirror   bool
	captured bool

	screenshots *debug.Screenshots
	capture     bool

	// pendingPath receives paths chosen in the file dialog, which runs
	// off the render thread.
	pendingPath chan string
	dialogOpen  bool
}

// New creates the window, GL state and shader program and loads the
// configured model.
func New(cfg *config.Config) (*Viewer, error) {
	v := &Viewer{
		cfg:         cfg,
		log:         logger.Named("viewer"),
		pendingPath: make(chan string, 1),
		screenshots: debug.NewScreenshots(cfg.Screenshots.Dir, "glscene"),
	}

	v.log.Info("initializing viewer",
		zap.String("title", cfg.Window.Title),
		zap.Int("width", cfg.Window.Width),
		zap.Int("height", cfg.Window.Height),
	)

	// Create window (this also creates OpenGL context)
	var err error
	v.window, err = window.New(window.Config{
		Title:      cfg.Window.Title,
		Width:      cfg.Window.Width,
		Height:     cfg.Window.Height,
		Fullscreen: cfg.Window.Fullscreen,
		VSync:      cfg.Window.VSync,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create window: %w", err)
	}

	// Create renderer (AFTER window, since OpenGL context must exist)
	width, height := v.window.DrawableSize()
	v.renderer, err = renderer.New(renderer.Config{Width: width, Height: height})
	if err != nil {
		v.window.Close()
		return nil, fmt.Errorf("failed to create renderer: %w", err)
	}

	v.program, err = loadProgram(cfg.Shaders.Dir)
	if err != nil {
		v.window.Close()
		return nil, fmt.Errorf("failed to build shader program: %w", err)
	}

	if cfg.Shaders.Dir != "" && cfg.Shaders.Watch {
		v.watcher, err = shaderwatch.New(cfg.Shaders.Dir)
		if err != nil {
			v.log.Warn("shader hot reload disabled", zap.Error(err))
		}
	}

	v.device = opengl.NewDevice()
	v.input = input.New()
	v.camera = newCamera(cfg.Camera)
	v.sun = lighting.NewSun(cfg.Lighting.SunLongitude, cfg.Lighting.SunLatitude)
	v.flashlight = lighting.NewFlashlight()
	v.flashlight.Enabled = cfg.Lighting.Flashlight
	v.near, v.far = clipPlanes(cfg.Camera, model.Bounds{})

	v.window.CaptureMouse(true)
	v.captured = true

	if cfg.Model.Path != "" {
		v.loadModel(cfg.Model.Path)
	} else {
		v.openDialog()
	}

	v.log.Info("viewer initialized successfully")
	return v, nil
}

// loadProgram builds the model program from dir, or from the embedded
// sources when dir is empty.
func loadProgram(dir string) (*shader.Program, error) {
	if dir == "" {
		return shader.NewProgram(shaders.ModelVertexShader, shaders.ModelFragmentShader)
	}
	return shader.LoadProgram(
		filepath.Join(dir, shaders.ModelVertexFile),
		filepath.Join(dir, shaders.ModelFragmentFile),
	)
}

// loadModel replaces the current model with the one at path and frames it.
func (v *Viewer) loadModel(path string) {
	next := model.Load(v.device, path, loadOptions(v.cfg.Model))
	for _, d := range next.Diagnostics() {
		v.log.Warn("model diagnostic", zap.String("detail", d.String()))
	}

	if v.model != nil {
		v.model.Release()
	}
	v.model = next

	if next.Empty() {
		v.window.SetTitle(fmt.Sprintf("%s - %s (empty)", v.cfg.Window.Title, filepath.Base(path)))
		return
	}

	b := next.Bounds()
	frameBounds(v.camera, b)
	v.near, v.far = clipPlanes(v.cfg.Camera, b)
	v.window.SetTitle(fmt.Sprintf("%s - %s", v.cfg.Window.Title, filepath.Base(path)))
}

// openDialog asks for a model file without blocking the render loop.
func (v *Viewer) openDialog() {
	if v.dialogOpen {
		return
	}
	v.dialogOpen = true

	exts := importer.Extensions()
	filter := make([]string, len(exts))
	for i, e := range exts {
		filter[i] = e[1:]
	}

	go func() {
		path, err := dialog.File().
			Filter("3D Models", filter...).
			Filter("All Files", "*").
			Title("Open Model").
			Load()
		if err != nil {
			if !errors.Is(err, dialog.ErrCancelled) {
				v.log.Warn("file dialog failed", zap.Error(err))
			}
			path = ""
		}
		v.pendingPath <- path
	}()
}

// Run starts the main loop.
func (v *Viewer) Run() error {
	v.running = true

	// Timing
	lastTime := time.Now()
	frameCount := 0
	fpsTimer := time.Now()

	v.log.Info("starting viewer loop")

	for v.running {
		now := time.Now()
		dt := now.Sub(lastTime).Seconds()
		lastTime = now

		if v.input.Update() {
			v.running = false
			break
		}

		v.handleEvents()
		v.update(float32(dt))
		v.render()
		if v.capture {
			v.capture = false
			v.saveScreenshot()
		}

		v.window.SwapBuffers()

		frameCount++
		if time.Since(fpsTimer) >= time.Second {
			v.log.Debug("fps", zap.Int("count", frameCount), zap.Float64("dt_ms", dt*1000))
			frameCount = 0
			fpsTimer = time.Now()
		}
	}

	return nil
}

func (v *Viewer) handleEvents() {
	for _, event := range v.input.Events() {
		switch event.Type {
		case input.EventWindowResize:
			width, height := v.window.DrawableSize()
			v.renderer.Resize(width, height)
		case input.EventFileDrop:
			v.log.Info("model dropped", zap.String("path", event.Path))
			v.loadModel(event.Path)
		case input.EventKeyDown:
			v.handleKey(event)
		}
	}
}

func (v *Viewer) handleKey(event input.Event) {
	switch event.Key {
	case keyQuit:
		v.running = false
	case keyReset:
		v.camera = newCamera(v.cfg.Camera)
		if v.model != nil && !v.model.Empty() {
			frameBounds(v.camera, v.model.Bounds())
		}
	case keyMirror:
		v.mirror = !v.mirror
	case keyFlashlight:
		v.flashlight.Enabled = !v.flashlight.Enabled
	case keyOpen:
		v.openDialog()
	case keyCapture:
		v.captured = !v.captured
		v.window.CaptureMouse(v.captured)
	case keyScreenshot:
		v.capture = true
	}
}

func (v *Viewer) update(dt float32) {
	select {
	case path := <-v.pendingPath:
		v.dialogOpen = false
		if path != "" {
			v.loadModel(path)
		}
	default:
	}

	if v.watcher != nil {
		if name, ok := v.watcher.Poll(); ok {
			v.reloadProgram(name)
		}
	}

	applyMovement(v.camera, v.input.IsKeyDown, dt)
	if v.captured {
		dx, dy := v.input.MouseDelta()
		applyLook(v.camera, dx, dy)
	}
	if w := v.input.Wheel(); w != 0 {
		v.camera.ProcessZoom(w)
	}

	v.flashlight.Follow(v.camera.Position, v.camera.Front())
}

func (v *Viewer) saveScreenshot() {
	pix, width, height := v.renderer.ReadPixels()
	name, err := v.screenshots.SaveRGBA(pix, width, height)
	if err != nil {
		v.log.Warn("screenshot failed", zap.Error(err))
		return
	}
	v.log.Info("screenshot saved", zap.String("file", name))
}

// reloadProgram swaps in a freshly compiled program. A compile error keeps
// the current one.
func (v *Viewer) reloadProgram(changed string) {
	next, err := loadProgram(v.cfg.Shaders.Dir)
	if err != nil {
		v.log.Warn("shader reload failed", zap.String("file", changed), zap.Error(err))
		return
	}
	v.program.Delete()
	v.program = next
	v.log.Info("shaders reloaded", zap.String("file", changed))
}

func (v *Viewer) render() {
	v.renderer.Begin()
	full := v.renderer.Viewport()
	v.drawScene(v.camera.ViewMatrix(), full.Aspect())

	if v.mirror {
		inset := full.Inset(mirrorFraction, mirrorMargin)
		v.renderer.BeginInset(inset)
		v.drawScene(v.camera.MirroredViewMatrix(), inset.Aspect())
		v.renderer.End()
	}
}

func (v *Viewer) drawScene(view mgl32.Mat4, aspect float32) {
	if v.model == nil || v.model.Empty() {
		return
	}

	p := v.program
	p.Use()
	p.SetMat4("projection", v.camera.ProjectionMatrix(aspect, v.near, v.far))
	p.SetMat4("view", view)
	p.SetMat4("model", mgl32.Ident4())
	p.SetVec3("viewPos", v.camera.Position)
	p.SetFloat("shininess", v.cfg.Lighting.Shininess)
	v.sun.Apply(p, "directionalLight")
	v.flashlight.Apply(p, "spotLight")

	v.model.Draw(p)
}

// Close releases GPU resources and the window.
func (v *Viewer) Close() {
	v.log.Info("closing viewer")

	if v.watcher != nil {
		if err := v.watcher.Close(); err != nil {
			v.log.Warn("closing shader watcher", zap.Error(err))
		}
	}
	if v.model != nil {
		v.model.Release()
	}
	if v.program != nil {
		v.program.Delete()
	}
	if v.window != nil {
		v.window.Close()
	}
}
