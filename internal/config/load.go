package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"
)

// EnvConfig names the environment variable that points at a config file
// when no -config flag is given.
const EnvConfig = "GLSCENE_CONFIG"

// Validation errors.
var (
	ErrWindowSize  = errors.New("config: window size must be positive")
	ErrClipPlanes  = errors.New("config: camera near plane must be positive and below far")
	ErrCameraSpeed = errors.New("config: camera speed and sensitivity must not be negative")
	ErrCameraPitch = errors.New("config: camera pitch must be strictly between -90 and 90 degrees")
)

// Load loads configuration with priority: defaults < file < flags.
// Relative paths inside a config file resolve against the file's directory.
func Load() (*Config, error) {
	cfg := Default()

	configPath := ConfigPath()
	if configPath == "" {
		configPath = os.Getenv(EnvConfig)
	}
	if configPath == "" {
		configPath = findConfigFile()
	}

	if configPath != "" {
		if err := loadFromFile(cfg, configPath); err != nil {
			return nil, fmt.Errorf("loading config from %s: %w", configPath, err)
		}
		cfg.resolvePaths(filepath.Dir(configPath))
	}

	applyFlags(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the viewer cannot start with.
func (c *Config) Validate() error {
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrWindowSize, c.Window.Width, c.Window.Height)
	}
	if c.Camera.Near <= 0 || c.Camera.Far <= c.Camera.Near {
		return fmt.Errorf("%w: near=%g far=%g", ErrClipPlanes, c.Camera.Near, c.Camera.Far)
	}
	if c.Camera.Speed < 0 || c.Camera.Sensitivity < 0 {
		return ErrCameraSpeed
	}
	// Written so that NaN fails too.
	if !(c.Camera.Pitch > -90 && c.Camera.Pitch < 90) {
		return fmt.Errorf("%w: %g", ErrCameraPitch, c.Camera.Pitch)
	}
	return nil
}

// resolvePaths makes file paths taken from a config file relative to dir.
func (c *Config) resolvePaths(dir string) {
	for _, p := range []*string{&c.Model.Path, &c.Shaders.Dir, &c.Screenshots.Dir, &c.Logging.LogFile} {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(dir, *p)
		}
	}
}

// findConfigFile looks for config in standard locations.
func findConfigFile() string {
	candidates := []string{
		"./glscene.yaml",
		"./config.yaml",
		filepath.Join(ConfigDir(), "config.yaml"),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// ConfigDir returns the OS-appropriate config directory.
func ConfigDir() string {
	switch runtime.GOOS {
	case "darwin":
		home, _ := os.UserHomeDir()
		return filepath.Join(home, "Library", "Application Support", "glscene")
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "glscene")
	default:
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, "glscene")
		}
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "glscene")
	}
}

// loadFromFile merges a YAML file over cfg. Unknown keys are rejected so
// typos do not silently fall back to defaults.
func loadFromFile(cfg *Config, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}
