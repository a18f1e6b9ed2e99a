package importer

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// Importer reads a model file into a Scene.
type Importer interface {
	Import(path string) (*Scene, error)
}

// ImporterFunc adapts a function to the Importer interface.
type ImporterFunc func(path string) (*Scene, error)

// Import implements Importer.
func (f ImporterFunc) Import(path string) (*Scene, error) {
	return f(path)
}

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Importer)
)

// Register makes imp available for files with the given extension
// (".obj", ".gltf"). Registering an extension twice replaces the importer.
func Register(ext string, imp Importer) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[normalizeExt(ext)] = imp
}

// Extensions returns the registered extensions, sorted.
func Extensions() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	exts := make([]string, 0, len(registry))
	for ext := range registry {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// ForPath returns the importer registered for path's extension.
func ForPath(path string) (Importer, error) {
	ext := normalizeExt(filepath.Ext(path))
	registryMu.RLock()
	imp, ok := registry[ext]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	return imp, nil
}

// ReadFile imports path with the registered importer for its extension.
func ReadFile(path string, steps PostProcess) (*Scene, error) {
	imp, err := ForPath(path)
	if err != nil {
		return nil, err
	}
	return Read(imp, path, steps)
}

// Read imports path with imp, applies steps and validates the result.
func Read(imp Importer, path string, steps PostProcess) (*Scene, error) {
	s, err := imp.Import(path)
	if err != nil {
		return nil, fmt.Errorf("importing %s: %w", path, err)
	}
	if err := Validate(s); err != nil {
		return nil, fmt.Errorf("importing %s: %w", path, err)
	}
	Apply(s, steps)
	return s, nil
}

func normalizeExt(ext string) string {
	ext = strings.ToLower(ext)
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}
