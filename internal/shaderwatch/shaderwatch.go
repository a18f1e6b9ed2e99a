// Package shaderwatch signals when GLSL sources in a directory change so the
// viewer can recompile its program between frames.
package shaderwatch

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/Faultbox/glscene/internal/logger"
)

// Extensions lists the file suffixes treated as shader sources.
var Extensions = []string{".vert", ".frag", ".glsl", ".geom"}

// Watcher coalesces filesystem events on shader files into a single pending
// reload signal.
type Watcher struct {
	dir     string
	watcher *fsnotify.Watcher
	changed chan string
	done    chan struct{}
	wg      sync.WaitGroup
	log     *zap.Logger
}

// New starts watching dir.
func New(dir string) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating shader watcher: %w", err)
	}
	if err := fw.Add(dir); err != nil {
		fw.Close()
		return nil, fmt.Errorf("watching %s: %w", dir, err)
	}

	w := &Watcher{
		dir:     dir,
		watcher: fw,
		changed: make(chan string, 1),
		done:    make(chan struct{}),
		log:     logger.Named("shaderwatch"),
	}
	w.wg.Add(1)
	go w.loop()

	w.log.Info("watching shaders", zap.String("dir", dir))
	return w, nil
}

// Dir returns the watched directory.
func (w *Watcher) Dir() string { return w.dir }

// Changed receives the name of a modified shader file. Bursts of writes
// collapse into one pending value.
func (w *Watcher) Changed() <-chan string { return w.changed }

// Poll reports whether a change is pending without blocking.
func (w *Watcher) Poll() (string, bool) {
	select {
	case name := <-w.changed:
		return name, true
	default:
		return "", false
	}
}

// Close stops the watcher and waits for its goroutine.
func (w *Watcher) Close() error {
	close(w.done)
	err := w.watcher.Close()
	w.wg.Wait()
	return err
}

func (w *Watcher) loop() {
	defer w.wg.Done()
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !relevant(event) {
				continue
			}
			w.log.Debug("shader changed", zap.String("file", event.Name), zap.String("op", event.Op.String()))
			select {
			case w.changed <- event.Name:
			default:
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Warn("shader watcher error", zap.Error(err))
		}
	}
}

func relevant(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
		return false
	}
	return IsShaderFile(event.Name)
}

// IsShaderFile reports whether name has a shader source extension.
func IsShaderFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range Extensions {
		if ext == e {
			return true
		}
	}
	return false
}
