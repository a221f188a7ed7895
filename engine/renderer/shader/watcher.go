package shader

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/Carmen-Shannon/oxy-cascade/common"
	"github.com/fsnotify/fsnotify"
)

// Change is a shader file that was written or created since the last Poll.
type Change struct {
	// Name is the shader name for stage files, or the include name when Include is true.
	Name string
	// Type is the stage of a stage file.
	Type ShaderType
	// Include is true when the file lives in the include/ directory.
	Include bool
}

// Watcher collects shader file changes under a directory. Events are gathered on a background
// goroutine and drained with Poll so reloads happen on the render thread.
type Watcher struct {
	fsw *fsnotify.Watcher
	dir string

	mu      sync.Mutex
	pending map[Change]struct{}

	done chan struct{}
	wg   sync.WaitGroup
}

// NewWatcher starts watching dir and dir/include for shader edits.
//
// Parameters:
//   - dir: the on-disk shader directory
//
// Returns:
//   - *Watcher: the running watcher
//   - error: an error if the watch could not be established
func NewWatcher(dir string) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("shader watcher: %w", err)
	}

	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("shader watcher: %w", err)
	}
	includeDir := filepath.Join(dir, "include")
	if info, statErr := os.Stat(includeDir); statErr == nil && info.IsDir() {
		if err := fsw.Add(includeDir); err != nil {
			fsw.Close()
			return nil, fmt.Errorf("shader watcher: %w", err)
		}
	}

	w := &Watcher{
		fsw:     fsw,
		dir:     dir,
		pending: make(map[Change]struct{}),
		done:    make(chan struct{}),
	}
	w.wg.Add(1)
	go w.run()
	common.LogInfo("watching shaders", "dir", dir)
	return w, nil
}

func (w *Watcher) run() {
	defer w.wg.Done()
	for {
		select {
		case e, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if e.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if c, ok := w.classify(e.Name); ok {
				w.mu.Lock()
				w.pending[c] = struct{}{}
				w.mu.Unlock()
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			common.LogError("shader watcher failed", "err", err)
		case <-w.done:
			return
		}
	}
}

// classify maps a changed path to a Change.
func (w *Watcher) classify(path string) (Change, bool) {
	base := filepath.Base(path)
	if filepath.Base(filepath.Dir(path)) == "include" {
		name, ok := strings.CutSuffix(base, ".wgsl")
		return Change{Name: name, Include: true}, ok
	}
	name, t, ok := ParseFileName(base)
	return Change{Name: name, Type: t}, ok
}

// Poll drains the changes collected since the previous call.
//
// Returns:
//   - []Change: the changed files, deduplicated
func (w *Watcher) Poll() []Change {
	w.mu.Lock()
	defer w.mu.Unlock()

	if len(w.pending) == 0 {
		return nil
	}
	out := make([]Change, 0, len(w.pending))
	for c := range w.pending {
		out = append(out, c)
	}
	clear(w.pending)
	return out
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	close(w.done)
	err := w.fsw.Close()
	w.wg.Wait()
	return err
}
