package generator

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// debounceInterval groups rapid editor saves into one regeneration.
const debounceInterval = 200 * time.Millisecond

// Watcher regenerates the validator file whenever a TypeScript source under
// the project root changes.
type Watcher struct {
	generator *Generator
	watcher   *fsnotify.Watcher

	// onRun is invoked after every regeneration with its report and error;
	// the CLI uses it to print diagnostics.
	onRun func(*Report, error)

	debounceMu    sync.Mutex
	debounceTimer *time.Timer

	stopOnce sync.Once
	stopChan chan struct{}
}

// NewWatcher creates a watcher around an existing generator.
func NewWatcher(g *Generator, onRun func(*Report, error)) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	return &Watcher{
		generator: g,
		watcher:   fsw,
		onRun:     onRun,
		stopChan:  make(chan struct{}),
	}, nil
}

// Start runs one initial generation, then blocks processing filesystem
// events until Stop is called.
func (w *Watcher) Start() error {
	root := w.generator.cfg.RootDir

	if err := w.addRecursive(root); err != nil {
		return err
	}

	w.onRun(w.generator.Run())

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			w.handleEvent(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.generator.logger.Warn("watch error", "error", err)
		case <-w.stopChan:
			return nil
		}
	}
}

// Stop ends the watch loop and releases the underlying watcher.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopChan)
		w.watcher.Close()
	})
}

// addRecursive watches root and every subdirectory, skipping node_modules
// and dotted directories.
func (w *Watcher) addRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		name := d.Name()
		if name == "node_modules" || (strings.HasPrefix(name, ".") && path != root) {
			return filepath.SkipDir
		}
		if err := w.watcher.Add(path); err != nil {
			w.generator.logger.Warn("cannot watch directory", "path", path, "error", err)
		}
		return nil
	})
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	// New directories join the watch set immediately.
	if event.Op.Has(fsnotify.Create) {
		if err := w.addRecursive(event.Name); err == nil {
			w.generator.logger.Debug("watching new path", "path", event.Name)
		}
	}

	if !isSourceEvent(event.Name) {
		return
	}
	// Editor swap files and our own atomic-write temp files are hidden.
	if strings.HasPrefix(filepath.Base(event.Name), ".") {
		return
	}
	// The generated file itself never triggers a run, or every write would
	// schedule the next one.
	if event.Name == w.generator.cfg.ValidatorFilePath() {
		return
	}

	w.generator.cache.Invalidate(event.Name)
	w.scheduleRun()
}

func isSourceEvent(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".ts", ".tsx", ".mts", ".cts":
		return true
	default:
		return false
	}
}

// scheduleRun debounces regeneration: the timer resets on every event and
// fires once the filesystem goes quiet.
func (w *Watcher) scheduleRun() {
	w.debounceMu.Lock()
	defer w.debounceMu.Unlock()

	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}
	w.debounceTimer = time.AfterFunc(debounceInterval, func() {
		select {
		case <-w.stopChan:
			return
		default:
		}
		w.onRun(w.generator.Run())
	})
}
