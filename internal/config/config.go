// Package config handles viewer configuration loading and management.
package config

// Config holds all viewer settings.
type Config struct {
	Window      WindowConfig     `yaml:"window"`
	Camera      CameraConfig     `yaml:"camera"`
	Model       ModelConfig      `yaml:"model"`
	Lighting    LightingConfig   `yaml:"lighting"`
	Shaders     ShaderConfig     `yaml:"shaders"`
	Screenshots ScreenshotConfig `yaml:"screenshots"`
	Logging     LoggingConfig    `yaml:"logging"`
}

// WindowConfig holds display settings.
type WindowConfig struct {
	Title      string `yaml:"title"`
	Width      int    `yaml:"width"`
	Height     int    `yaml:"height"`
	Fullscreen bool   `yaml:"fullscreen"`
	VSync      bool   `yaml:"vsync"`
}

// CameraConfig holds the initial free-look camera state.
type CameraConfig struct {
	Position    [3]float32 `yaml:"position"`
	Yaw         float32    `yaml:"yaw"`   // degrees
	Pitch       float32    `yaml:"pitch"` // degrees
	Speed       float32    `yaml:"speed"`
	Sensitivity float32    `yaml:"sensitivity"`
	Zoom        float32    `yaml:"zoom"` // vertical FOV, degrees
	Near        float32    `yaml:"near"`
	Far         float32    `yaml:"far"`
}

// ModelConfig selects the asset to load and the importer post-processing.
type ModelConfig struct {
	Path          string `yaml:"path"`
	Triangulate   bool   `yaml:"triangulate"`
	SmoothNormals bool   `yaml:"smooth_normals"`
	FlipUVs       bool   `yaml:"flip_uvs"`
	TangentSpace  bool   `yaml:"tangent_space"`
	SRGBTextures  bool   `yaml:"srgb_textures"`

	// PreserveDuplicateDiffuse reproduces the legacy texture list where the
	// diffuse maps were appended in place of the specular maps.
	PreserveDuplicateDiffuse bool `yaml:"preserve_duplicate_diffuse"`
}

// LightingConfig holds the scene lights.
type LightingConfig struct {
	SunLongitude float32 `yaml:"sun_longitude"` // degrees around +Y
	SunLatitude  float32 `yaml:"sun_latitude"`  // degrees above the horizon
	Flashlight   bool    `yaml:"flashlight"`    // spot light following the camera
	Shininess    float32 `yaml:"shininess"`
}

// ShaderConfig holds shader source settings.
type ShaderConfig struct {
	Dir   string `yaml:"dir"` // empty uses the embedded sources
	Watch bool   `yaml:"watch"`
}

// ScreenshotConfig holds screenshot settings.
type ScreenshotConfig struct {
	Dir string `yaml:"dir"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Window: WindowConfig{
			Title:  "glscene viewer",
			Width:  1280,
			Height: 720,
			VSync:  true,
		},
		Camera: CameraConfig{
			Position:    [3]float32{0, 0, 3},
			Yaw:         -90,
			Pitch:       0,
			Speed:       4.5,
			Sensitivity: 0.1,
			Zoom:        45,
			Near:        0.1,
			Far:         100,
		},
		Model: ModelConfig{
			Triangulate:   true,
			SmoothNormals: true,
			FlipUVs:       true,
			TangentSpace:  true,
		},
		Lighting: LightingConfig{
			SunLongitude: 45,
			SunLatitude:  60,
			Flashlight:   true,
			Shininess:    32,
		},
		Screenshots: ScreenshotConfig{
			Dir: "screenshots",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}
