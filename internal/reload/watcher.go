package reload

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

type fileState struct {
	exists  bool
	modTime time.Time
	size    int64
}

func statFile(path string) (fileState, bool) {
	info, err := os.Stat(path)
	if err != nil {
		return fileState{}, true
	}
	if info.IsDir() {
		return fileState{}, false
	}
	return fileState{exists: true, modTime: info.ModTime(), size: info.Size()}, true
}

// Watcher keeps track of configuration files and detects modifications,
// including files that appear after startup.
type Watcher struct {
	mu    sync.Mutex
	files map[string]fileState
}

// NewWatcher builds a watcher for the provided paths.
func NewWatcher(paths ...string) (*Watcher, error) {
	watcher := &Watcher{}
	if err := watcher.Update(paths...); err != nil {
		return nil, err
	}
	return watcher, nil
}

// Update replaces the tracked file list and snapshots the current state.
// Directories are ignored.
func (w *Watcher) Update(paths ...string) error {
	if w == nil {
		return nil
	}
	states := make(map[string]fileState, len(paths))
	for _, path := range uniquePaths(paths) {
		abs, err := filepath.Abs(path)
		if err != nil {
			return err
		}
		state, ok := statFile(abs)
		if !ok {
			continue
		}
		states[abs] = state
	}
	w.mu.Lock()
	w.files = states
	w.mu.Unlock()
	return nil
}

// Check reports the files that changed since the last snapshot. The
// snapshot itself is left untouched; call Update after handling a change.
func (w *Watcher) Check() ([]string, error) {
	if w == nil {
		return nil, nil
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	changed := make([]string, 0)
	for path, previous := range w.files {
		current, ok := statFile(path)
		if !ok {
			continue
		}
		switch {
		case current.exists != previous.exists:
			changed = append(changed, path)
		case !current.exists:
		case current.modTime.After(previous.modTime) || current.size != previous.size:
			changed = append(changed, path)
		}
	}
	sort.Strings(changed)
	return changed, nil
}

func uniquePaths(paths []string) []string {
	seen := make(map[string]struct{}, len(paths))
	result := make([]string, 0, len(paths))
	for _, path := range paths {
		path = strings.TrimSpace(path)
		if path == "" {
			continue
		}
		if _, ok := seen[path]; ok {
			continue
		}
		seen[path] = struct{}{}
		result = append(result, path)
	}
	return result
}
